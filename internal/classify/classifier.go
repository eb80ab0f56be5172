// Package classify determines a conversation's net outcome and applies
// the resulting monotonic pipeline upgrade to the lead.
package classify

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"

	"github.com/google/uuid"

	"salespilot/internal/llm"
	"salespilot/internal/models"
)

// Classification is the four-way conversation outcome.
type Classification string

const (
	Hot             Classification = "hot"
	Warm            Classification = "warm"
	Cold            Classification = "cold"
	BotAutoresponse Classification = "bot_autoresponse"
)

// Outcome is one classification result.
type Outcome struct {
	Classification Classification `json:"classification"`
	Reason         string         `json:"reason"`
}

var outcomeSchema = json.RawMessage(`{
	"type": "object",
	"additionalProperties": false,
	"properties": {
		"classification": {"type": "string", "enum": ["hot", "warm", "cold", "bot_autoresponse"]},
		"reason": {"type": "string"}
	},
	"required": ["classification", "reason"]
}`)

const classifyPrompt = "Clasifica el resultado neto de esta conversación de ventas. " +
	"hot: listo para comprar o pide cotización. warm: interesado pero sin decisión. " +
	"cold: sin interés o rechazo. bot_autoresponse: el contacto es un contestador automático. " +
	"Responde en JSON con una razón breve."

// Model is the external structured-call surface the classifier needs.
type Model interface {
	ChatJSON(ctx context.Context, model string, messages []llm.Message, schemaName string, schema json.RawMessage) ([]byte, error)
}

// LeadStore applies classification results to lead records.
type LeadStore interface {
	UpdateLeadClassification(ctx context.Context, id uuid.UUID, classification, reason string, stage, priority *string) error
}

// Classifier runs the external classification call and the pipeline rules.
type Classifier struct {
	model     Model
	store     LeadStore
	modelName string
	log       *slog.Logger
}

// New creates a classifier.
func New(model Model, store LeadStore, modelName string, log *slog.Logger) *Classifier {
	if log == nil {
		log = slog.Default()
	}
	return &Classifier{
		model:     model,
		store:     store,
		modelName: modelName,
		log:       log.With("component", "classify"),
	}
}

// Classify determines the outcome for a conversation window. It never
// fails: any model error deterministically yields warm so the lead is
// never left unclassified.
func (c *Classifier) Classify(ctx context.Context, turns []llm.Message) Outcome {
	messages := append([]llm.Message{{Role: llm.RoleSystem, Content: classifyPrompt}}, turns...)

	raw, err := c.model.ChatJSON(ctx, c.modelName, messages, "conversation_outcome", outcomeSchema)
	if err != nil {
		c.log.Warn("classification call failed, defaulting to warm", "error", err)
		return Outcome{Classification: Warm, Reason: "clasificación automática no disponible"}
	}

	var out Outcome
	if err := json.Unmarshal(raw, &out); err != nil {
		c.log.Warn("classification unreadable, defaulting to warm", "error", err)
		return Outcome{Classification: Warm, Reason: "clasificación automática no disponible"}
	}

	switch out.Classification {
	case Hot, Warm, Cold, BotAutoresponse:
	default:
		c.log.Warn("unknown classification, defaulting to warm", "classification", out.Classification)
		out = Outcome{Classification: Warm, Reason: "clasificación automática no disponible"}
	}
	return out
}

// Apply writes an outcome to a lead. Classification metadata is always
// recorded; the stage moves only forward, and priority is set whenever
// the stage proposal is accepted. Returns whether the stage changed.
func (c *Classifier) Apply(ctx context.Context, lead *models.Lead, out Outcome) (bool, error) {
	proposed, hasStage := ProposedStage(out.Classification)

	if hasStage && ShouldUpdatePipeline(lead.Stage, proposed) {
		priority := PriorityFor(out.Classification)
		if err := c.store.UpdateLeadClassification(ctx, lead.ID, string(out.Classification), out.Reason, &proposed, &priority); err != nil {
			return false, fmt.Errorf("failed to apply classification: %w", err)
		}
		lead.Stage = proposed
		lead.Priority = priority
		return true, nil
	}

	if err := c.store.UpdateLeadClassification(ctx, lead.ID, string(out.Classification), out.Reason, nil, nil); err != nil {
		return false, fmt.Errorf("failed to apply classification: %w", err)
	}
	return false, nil
}

// TurnsFromMessages converts stored history to classifier input, mapping
// operator turns to assistant ones.
func TurnsFromMessages(history []models.Message) []llm.Message {
	turns := make([]llm.Message, 0, len(history))
	for _, m := range history {
		role := m.Role
		if role == models.RoleOperator {
			role = llm.RoleAssistant
		}
		content := strings.TrimSpace(m.Content)
		if content == "" {
			continue
		}
		turns = append(turns, llm.Message{Role: role, Content: content})
	}
	return turns
}
