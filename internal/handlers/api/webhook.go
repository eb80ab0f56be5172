package api

import (
	"context"
	"log/slog"
	"time"

	"github.com/gofiber/fiber/v3"
	"github.com/google/uuid"

	"salespilot/internal/engine"
	"salespilot/internal/models"
	"salespilot/internal/validation"
)

// TurnProcessor runs the control-plane pass for inbound events.
type TurnProcessor interface {
	HandleInbound(ctx context.Context, ev models.InboundMessage) (*engine.TurnResult, error)
	HandleOperatorReply(ctx context.Context, conversationID uuid.UUID, actor, text string) error
}

// WebhookHandler receives normalized message events from the messaging
// adapter.
type WebhookHandler struct {
	processor TurnProcessor
	log       *slog.Logger
}

// NewWebhookHandler creates a new webhook handler.
func NewWebhookHandler(processor TurnProcessor, log *slog.Logger) *WebhookHandler {
	if log == nil {
		log = slog.Default()
	}
	return &WebhookHandler{processor: processor, log: log.With("component", "webhook")}
}

type inboundPayload struct {
	TenantID  string `json:"tenant_id"`
	Phone     string `json:"phone"`
	Text      string `json:"text"`
	Timestamp int64  `json:"timestamp"`
}

// Message handles one inbound user message. Malformed events are logged
// and dropped with 200: the messaging provider's own delivery retries
// cover transient loss, so a retry here would only duplicate.
func (h *WebhookHandler) Message(c fiber.Ctx) error {
	var payload inboundPayload
	if err := c.Bind().Body(&payload); err != nil {
		h.log.Warn("dropping malformed webhook event", "error", err)
		return jsonSuccess(c, fiber.Map{"dropped": true})
	}

	tenantID, err := uuid.Parse(payload.TenantID)
	phone := validation.NormalizePhone(payload.Phone)
	if err != nil || payload.Text == "" || !validation.ValidatePhone(phone) {
		h.log.Warn("dropping incomplete webhook event", "tenant_id", payload.TenantID, "phone", payload.Phone)
		return jsonSuccess(c, fiber.Map{"dropped": true})
	}

	ev := models.InboundMessage{
		TenantID:  tenantID,
		Phone:     phone,
		Text:      payload.Text,
		Timestamp: time.Unix(payload.Timestamp, 0),
	}

	result, err := h.processor.HandleInbound(c.Context(), ev)
	if err != nil {
		h.log.Error("turn failed", "tenant_id", tenantID, "error", err)
		return jsonError(c, fiber.StatusInternalServerError, "failed to process message")
	}

	if result.Silenced == engine.CauseRateLimited {
		return c.Status(fiber.StatusTooManyRequests).JSON(fiber.Map{
			"status":    "error",
			"error":     "rate limit exceeded",
			"reason":    result.RateLimit.Reason,
			"remaining": result.RateLimit.Remaining,
		})
	}

	return jsonSuccess(c, fiber.Map{
		"conversation_id": result.ConversationID,
		"replied":         result.Replied,
		"reply":           result.Reply,
		"silenced":        result.Silenced,
		"guarded":         result.Guarded,
	})
}

type operatorPayload struct {
	ConversationID string `json:"conversation_id"`
	Actor          string `json:"actor"`
	Text           string `json:"text"`
}

// OperatorReply handles a manual reply from a human operator. The agent
// is paused for that conversation as a side effect.
func (h *WebhookHandler) OperatorReply(c fiber.Ctx) error {
	var payload operatorPayload
	if err := c.Bind().Body(&payload); err != nil {
		return jsonError(c, fiber.StatusBadRequest, "invalid payload")
	}

	conversationID, err := uuid.Parse(payload.ConversationID)
	if err != nil {
		return jsonError(c, fiber.StatusBadRequest, "invalid conversation id")
	}
	if payload.Text == "" {
		return jsonError(c, fiber.StatusBadRequest, "text is required")
	}

	if err := h.processor.HandleOperatorReply(c.Context(), conversationID, payload.Actor, payload.Text); err != nil {
		h.log.Error("operator reply failed", "conversation_id", conversationID, "error", err)
		return jsonError(c, fiber.StatusInternalServerError, "failed to record reply")
	}

	return jsonSuccess(c, fiber.Map{"paused": true})
}
