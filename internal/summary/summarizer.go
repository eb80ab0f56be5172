// Package summary maintains the rolling structured state of each
// conversation via periodic model calls, conserving prior facts.
package summary

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"salespilot/internal/db"
	"salespilot/internal/llm"
	"salespilot/internal/models"
)

const (
	// firstAfterUserTurns is the minimum user turns before the first summary.
	firstAfterUserTurns = 3
	// refreshEvery is how many new user turns must accrue between refreshes.
	refreshEvery = 5
)

// stateSchema constrains the model output to the ConversationState shape.
var stateSchema = json.RawMessage(`{
	"type": "object",
	"additionalProperties": false,
	"properties": {
		"phase": {"type": "string"},
		"topics_covered": {"type": "array", "items": {"type": "string"}},
		"objections_raised": {"type": "array", "items": {"type": "string"}},
		"objections_resolved": {"type": "array", "items": {"type": "string"}},
		"interest_level": {"type": "string", "enum": ["low", "medium", "high"]},
		"next_action": {"type": "string"},
		"summary": {"type": "string"}
	},
	"required": ["phase", "topics_covered", "objections_raised", "objections_resolved", "interest_level", "next_action", "summary"]
}`)

// Model is the external structured-call surface the summarizer needs.
type Model interface {
	ChatJSON(ctx context.Context, model string, messages []llm.Message, schemaName string, schema json.RawMessage) ([]byte, error)
}

// Store persists conversation states.
type Store interface {
	GetConversationState(ctx context.Context, conversationID uuid.UUID) (*models.ConversationState, error)
	SetConversationState(ctx context.Context, conversationID uuid.UUID, state *models.ConversationState) error
}

// Summarizer owns ConversationState mutation. Nothing else writes it.
type Summarizer struct {
	model     Model
	store     Store
	modelName string
	log       *slog.Logger
}

// New creates a summarizer using the given model for refreshes.
func New(model Model, store Store, modelName string, log *slog.Logger) *Summarizer {
	if log == nil {
		log = slog.Default()
	}
	return &Summarizer{
		model:     model,
		store:     store,
		modelName: modelName,
		log:       log.With("component", "summary"),
	}
}

// MaybeRefresh returns the current conversation state, regenerating it
// when enough new user turns have accrued. A model failure is logged and
// the previous state continues to be used unchanged.
func (s *Summarizer) MaybeRefresh(ctx context.Context, conversationID uuid.UUID, history []models.Message) *models.ConversationState {
	prev, err := s.store.GetConversationState(ctx, conversationID)
	if err != nil && !errors.Is(err, db.ErrStateNotFound) {
		s.log.Warn("state read failed, skipping refresh", "conversation_id", conversationID, "error", err)
		return nil
	}

	userTurns := countUserTurns(history)
	if prev == nil && userTurns < firstAfterUserTurns {
		return nil
	}
	if prev != nil && userTurns-prev.MessageCountAtUpdate < refreshEvery {
		return prev
	}

	state, err := s.refresh(ctx, prev, history)
	if err != nil {
		s.log.Warn("summary refresh failed, keeping previous state", "conversation_id", conversationID, "error", err)
		return prev
	}

	state.MessageCountAtUpdate = userTurns
	state.LastUpdated = time.Now()

	if err := s.store.SetConversationState(ctx, conversationID, state); err != nil {
		s.log.Error("state write failed", "conversation_id", conversationID, "error", err)
	}
	return state
}

func (s *Summarizer) refresh(ctx context.Context, prev *models.ConversationState, history []models.Message) (*models.ConversationState, error) {
	messages := []llm.Message{
		{Role: llm.RoleSystem, Content: refreshPrompt(prev)},
		{Role: llm.RoleUser, Content: renderHistory(history)},
	}

	raw, err := s.model.ChatJSON(ctx, s.modelName, messages, "conversation_state", stateSchema)
	if err != nil {
		return nil, err
	}

	var state models.ConversationState
	if err := json.Unmarshal(raw, &state); err != nil {
		return nil, fmt.Errorf("decode state: %w", err)
	}
	state.Version = models.StateVersion
	if err := state.Validate(); err != nil {
		return nil, err
	}
	return &state, nil
}

func refreshPrompt(prev *models.ConversationState) string {
	var b strings.Builder
	b.WriteString("Analiza la conversación de ventas y devuelve el estado actualizado en JSON. ")
	b.WriteString("El resumen debe tener como máximo 3 oraciones.")
	if prev != nil {
		raw, _ := json.Marshal(prev)
		b.WriteString("\n\nEstado anterior:\n")
		b.Write(raw)
		b.WriteString("\n\nConserva los hechos del estado anterior: agrega datos nuevos, no reemplaces ni elimines los existentes.")
	}
	return b.String()
}

func renderHistory(history []models.Message) string {
	var b strings.Builder
	for _, m := range history {
		b.WriteString(m.Role)
		b.WriteString(": ")
		b.WriteString(m.Content)
		b.WriteString("\n")
	}
	return b.String()
}

func countUserTurns(history []models.Message) int {
	n := 0
	for _, m := range history {
		if m.Role == models.RoleUser {
			n++
		}
	}
	return n
}

// FormatForPrompt renders the state as a compact block for injection into
// the next generation call.
func FormatForPrompt(state *models.ConversationState) string {
	if state == nil {
		return ""
	}
	var b strings.Builder
	b.WriteString("Estado de la conversación:\n")
	fmt.Fprintf(&b, "- Fase: %s\n", state.Phase)
	fmt.Fprintf(&b, "- Interés: %s\n", state.InterestLevel)
	if len(state.TopicsCovered) > 0 {
		fmt.Fprintf(&b, "- Temas tratados: %s\n", strings.Join(state.TopicsCovered, ", "))
	}
	if pending := pendingObjections(state); len(pending) > 0 {
		fmt.Fprintf(&b, "- Objeciones pendientes: %s\n", strings.Join(pending, ", "))
	}
	if len(state.ObjectionsResolved) > 0 {
		fmt.Fprintf(&b, "- Objeciones resueltas: %s\n", strings.Join(state.ObjectionsResolved, ", "))
	}
	if state.Summary != "" {
		fmt.Fprintf(&b, "- Resumen: %s\n", state.Summary)
	}
	if state.NextAction != "" {
		fmt.Fprintf(&b, "- Siguiente acción: %s\n", state.NextAction)
	}
	return b.String()
}

// pendingObjections is raised minus resolved.
func pendingObjections(state *models.ConversationState) []string {
	resolved := make(map[string]struct{}, len(state.ObjectionsResolved))
	for _, o := range state.ObjectionsResolved {
		resolved[strings.ToLower(o)] = struct{}{}
	}
	var pending []string
	for _, o := range state.ObjectionsRaised {
		if _, ok := resolved[strings.ToLower(o)]; !ok {
			pending = append(pending, o)
		}
	}
	return pending
}
