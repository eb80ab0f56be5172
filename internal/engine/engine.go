// Package engine runs the per-message control-plane pass: rate limiting,
// pause/suppress checks, progress analysis, generation, and response
// shaping. Per-conversation work is logically single-threaded; one
// inbound message produces one pass.
package engine

import (
	"context"
	"log/slog"
	"strings"

	"github.com/google/uuid"

	"salespilot/internal/guard"
	"salespilot/internal/llm"
	"salespilot/internal/metrics"
	"salespilot/internal/models"
	"salespilot/internal/progress"
	"salespilot/internal/ratelimit"
	"salespilot/internal/summary"
)

// Silenced-turn causes.
const (
	CauseRateLimited      = "rate_limited"
	CausePaused           = "paused"
	CauseSuppressed       = "suppressed"
	CauseAutoReplyOff     = "auto_reply_off"
	CauseGenerationFailed = "generation_failed"
)

// promptHistoryLimit caps how many trailing turns are sent to the model.
const promptHistoryLimit = 30

const defaultSystemPrompt = "Eres un asistente de ventas amable y directo. " +
	"Responde en español, breve y orientado a avanzar la venta."

// Store is the durable-store surface the engine needs.
type Store interface {
	GetTenant(ctx context.Context, id uuid.UUID) (*models.Tenant, error)
	GetOrCreateConversation(ctx context.Context, tenantID uuid.UUID, phone, name string) (*models.Conversation, error)
	AppendMessage(ctx context.Context, msg *models.Message) error
	GetHistory(ctx context.Context, conversationID uuid.UUID) ([]models.Message, error)
	TouchConversation(ctx context.Context, id uuid.UUID) error
	GetOrCreateLead(ctx context.Context, tenantID uuid.UUID, conversationID uuid.UUID, phone, name string) (*models.Lead, error)
	TouchLead(ctx context.Context, id uuid.UUID) error
}

// Controls is the pause/suppress surface.
type Controls interface {
	IsPaused(ctx context.Context, conversationID uuid.UUID) bool
	IsSuppressed(ctx context.Context, conversationID uuid.UUID) bool
	Pause(ctx context.Context, conversationID uuid.UUID, actor string) error
}

// Limiter checks inbound rate limits.
type Limiter interface {
	Check(actorKey string) ratelimit.Result
}

// Generator is the external text model.
type Generator interface {
	Chat(ctx context.Context, model string, messages []llm.Message) (string, error)
}

// Summaries provides the rolling conversation state.
type Summaries interface {
	MaybeRefresh(ctx context.Context, conversationID uuid.UUID, history []models.Message) *models.ConversationState
}

// Config holds engine tunables.
type Config struct {
	Model        string
	MaxSentences int
}

// TurnResult is the outcome of one control-plane pass.
type TurnResult struct {
	ConversationID uuid.UUID
	Reply          string
	Replied        bool
	Silenced       string // cause when Replied is false
	Guarded        bool
	RateLimit      *ratelimit.Result
}

// Engine orchestrates a turn.
type Engine struct {
	store     Store
	controls  Controls
	limiter   Limiter
	tracker   *progress.Tracker
	summaries Summaries
	generator Generator
	cfg       Config
	log       *slog.Logger
}

// New creates an engine.
func New(store Store, controls Controls, limiter Limiter, tracker *progress.Tracker, summaries Summaries, generator Generator, cfg Config, log *slog.Logger) *Engine {
	if log == nil {
		log = slog.Default()
	}
	return &Engine{
		store:     store,
		controls:  controls,
		limiter:   limiter,
		tracker:   tracker,
		summaries: summaries,
		generator: generator,
		cfg:       cfg,
		log:       log.With("component", "engine"),
	}
}

// HandleInbound runs the control-plane pass for one inbound user message.
// A silenced turn is not an error: the message is persisted and the
// caller receives the cause.
func (e *Engine) HandleInbound(ctx context.Context, ev models.InboundMessage) (*TurnResult, error) {
	if rl := e.limiter.Check(ev.Phone); !rl.Allowed {
		metrics.RecordRateLimited(rl.Reason)
		return &TurnResult{Silenced: CauseRateLimited, RateLimit: &rl}, nil
	}

	tenant, err := e.store.GetTenant(ctx, ev.TenantID)
	if err != nil {
		return nil, err
	}

	conv, err := e.store.GetOrCreateConversation(ctx, ev.TenantID, ev.Phone, "")
	if err != nil {
		return nil, err
	}

	msg := &models.Message{ConversationID: conv.ID, Role: models.RoleUser, Content: ev.Text}
	if err := e.store.AppendMessage(ctx, msg); err != nil {
		return nil, err
	}
	e.background("touch conversation", func(ctx context.Context) error {
		return e.store.TouchConversation(ctx, conv.ID)
	})

	result := &TurnResult{ConversationID: conv.ID}

	switch {
	case e.controls.IsPaused(ctx, conv.ID):
		result.Silenced = CausePaused
	case e.controls.IsSuppressed(ctx, conv.ID):
		result.Silenced = CauseSuppressed
	case !tenant.AutoReplyEnabled:
		result.Silenced = CauseAutoReplyOff
	}
	if result.Silenced != "" {
		metrics.RecordSilencedTurn(result.Silenced)
		return result, nil
	}

	history, err := e.store.GetHistory(ctx, conv.ID)
	if err != nil {
		return nil, err
	}

	state := e.summaries.MaybeRefresh(ctx, conv.ID, history)
	analysis := e.tracker.Analyze(toTurns(history), "", assistantTurns(history), nil)

	raw, err := e.generator.Chat(ctx, e.cfg.Model, e.buildPrompt(tenant, state, analysis, history))
	if err != nil {
		e.log.Error("generation failed", "conversation_id", conv.ID, "error", err)
		result.Silenced = CauseGenerationFailed
		metrics.RecordSilencedTurn(result.Silenced)
		return result, nil
	}

	shaped := guard.Shape(raw, e.cfg.MaxSentences)
	if shaped.WasGuarded {
		for _, reason := range shaped.Reasons {
			metrics.RecordGuardedResponse(reason)
		}
	}

	reply := &models.Message{ConversationID: conv.ID, Role: models.RoleAssistant, Content: shaped.Text}
	if err := e.store.AppendMessage(ctx, reply); err != nil {
		return nil, err
	}

	e.background("touch lead", func(ctx context.Context) error {
		lead, err := e.store.GetOrCreateLead(ctx, ev.TenantID, conv.ID, ev.Phone, "")
		if err != nil {
			return err
		}
		return e.store.TouchLead(ctx, lead.ID)
	})

	result.Reply = shaped.Text
	result.Replied = true
	result.Guarded = shaped.WasGuarded
	return result, nil
}

// HandleOperatorReply records a manual reply and pauses the agent: a
// human holds the conversation now.
func (e *Engine) HandleOperatorReply(ctx context.Context, conversationID uuid.UUID, actor, text string) error {
	msg := &models.Message{ConversationID: conversationID, Role: models.RoleOperator, Content: text}
	if err := e.store.AppendMessage(ctx, msg); err != nil {
		return err
	}
	if err := e.controls.Pause(ctx, conversationID, actor); err != nil {
		return err
	}
	e.background("touch conversation", func(ctx context.Context) error {
		return e.store.TouchConversation(ctx, conversationID)
	})
	return nil
}

func (e *Engine) buildPrompt(tenant *models.Tenant, state *models.ConversationState, analysis progress.Analysis, history []models.Message) []llm.Message {
	var sys strings.Builder
	if tenant.SystemPrompt != "" {
		sys.WriteString(tenant.SystemPrompt)
	} else {
		sys.WriteString(defaultSystemPrompt)
	}
	if block := summary.FormatForPrompt(state); block != "" {
		sys.WriteString("\n\n")
		sys.WriteString(block)
	}
	if analysis.ProgressInstruction != "" {
		sys.WriteString("\n\n")
		sys.WriteString(analysis.ProgressInstruction)
	}
	if analysis.ShouldPivot {
		sys.WriteString("\n\n")
		sys.WriteString(analysis.PivotInstruction)
	}

	messages := []llm.Message{{Role: llm.RoleSystem, Content: sys.String()}}

	turns := history
	if len(turns) > promptHistoryLimit {
		turns = turns[len(turns)-promptHistoryLimit:]
	}
	for _, m := range turns {
		role := m.Role
		if role == models.RoleOperator {
			role = llm.RoleAssistant
		}
		messages = append(messages, llm.Message{Role: role, Content: m.Content})
	}
	return messages
}

// background runs a bookkeeping write off the reply path, capturing and
// logging its error instead of discarding it.
func (e *Engine) background(name string, fn func(context.Context) error) {
	go func() {
		if err := fn(context.Background()); err != nil {
			e.log.Error("background task failed", "task", name, "error", err)
		}
	}()
}

func toTurns(history []models.Message) []progress.Turn {
	turns := make([]progress.Turn, 0, len(history))
	for _, m := range history {
		role := m.Role
		if role == models.RoleOperator {
			role = models.RoleAssistant
		}
		turns = append(turns, progress.Turn{Role: role, Content: m.Content})
	}
	return turns
}

func assistantTurns(history []models.Message) int {
	n := 0
	for _, m := range history {
		if m.Role == models.RoleAssistant {
			n++
		}
	}
	return n
}
