package api

import (
	"context"
	"log/slog"

	"github.com/gofiber/fiber/v3"
	"github.com/google/uuid"

	"salespilot/internal/control"
	"salespilot/internal/validation"
)

// ClassifyService runs the outcome classifier over a tenant's leads.
type ClassifyService interface {
	RunTenant(ctx context.Context, tenantID uuid.UUID) (int, error)
}

// ControlHandler exposes pause/suppress operations and the classify-all
// entry point to collaborators (dashboard backend, bulk-send workflow).
type ControlHandler struct {
	controller *control.Controller
	classify   ClassifyService
	log        *slog.Logger
}

// NewControlHandler creates a new control handler.
func NewControlHandler(controller *control.Controller, classify ClassifyService, log *slog.Logger) *ControlHandler {
	if log == nil {
		log = slog.Default()
	}
	return &ControlHandler{controller: controller, classify: classify, log: log.With("component", "control_api")}
}

func conversationID(c fiber.Ctx) (uuid.UUID, error) {
	return uuid.Parse(c.Params("id"))
}

// Pause marks a conversation as held by a human operator.
func (h *ControlHandler) Pause(c fiber.Ctx) error {
	id, err := conversationID(c)
	if err != nil {
		return jsonError(c, fiber.StatusBadRequest, "invalid conversation id")
	}

	var payload struct {
		Actor string `json:"actor"`
	}
	_ = c.Bind().Body(&payload)

	if err := h.controller.Pause(c.Context(), id, payload.Actor); err != nil {
		return jsonError(c, fiber.StatusInternalServerError, "failed to pause conversation")
	}
	return jsonSuccess(c, fiber.Map{"paused": true})
}

// Resume releases an operator hold.
func (h *ControlHandler) Resume(c fiber.Ctx) error {
	id, err := conversationID(c)
	if err != nil {
		return jsonError(c, fiber.StatusBadRequest, "invalid conversation id")
	}

	if err := h.controller.Resume(c.Context(), id); err != nil {
		return jsonError(c, fiber.StatusInternalServerError, "failed to resume conversation")
	}
	return jsonSuccess(c, fiber.Map{"paused": false})
}

// Suppress silences a conversation for a bulk campaign.
func (h *ControlHandler) Suppress(c fiber.Ctx) error {
	id, err := conversationID(c)
	if err != nil {
		return jsonError(c, fiber.StatusBadRequest, "invalid conversation id")
	}

	var payload struct {
		CampaignID string `json:"campaign_id"`
	}
	if err := c.Bind().Body(&payload); err != nil || !validation.ValidateCampaignID(payload.CampaignID) {
		return jsonError(c, fiber.StatusBadRequest, "a valid campaign_id is required")
	}

	if err := h.controller.SuppressForCampaign(c.Context(), id, payload.CampaignID); err != nil {
		return jsonError(c, fiber.StatusInternalServerError, "failed to suppress conversation")
	}
	return jsonSuccess(c, fiber.Map{"suppressed": true})
}

// Unsuppress lifts campaign suppression.
func (h *ControlHandler) Unsuppress(c fiber.Ctx) error {
	id, err := conversationID(c)
	if err != nil {
		return jsonError(c, fiber.StatusBadRequest, "invalid conversation id")
	}

	if err := h.controller.Unsuppress(c.Context(), id); err != nil {
		return jsonError(c, fiber.StatusInternalServerError, "failed to unsuppress conversation")
	}
	return jsonSuccess(c, fiber.Map{"suppressed": false})
}

// Status reports the control state of a conversation.
func (h *ControlHandler) Status(c fiber.Ctx) error {
	id, err := conversationID(c)
	if err != nil {
		return jsonError(c, fiber.StatusBadRequest, "invalid conversation id")
	}

	return jsonSuccess(c, fiber.Map{
		"paused":     h.controller.IsPaused(c.Context(), id),
		"suppressed": h.controller.IsSuppressed(c.Context(), id),
	})
}

// Classify runs the outcome classifier over all pending leads of a tenant.
func (h *ControlHandler) Classify(c fiber.Ctx) error {
	var payload struct {
		TenantID string `json:"tenant_id"`
	}
	if err := c.Bind().Body(&payload); err != nil {
		return jsonError(c, fiber.StatusBadRequest, "invalid payload")
	}

	tenantID, err := uuid.Parse(payload.TenantID)
	if err != nil {
		return jsonError(c, fiber.StatusBadRequest, "invalid tenant id")
	}

	processed, err := h.classify.RunTenant(c.Context(), tenantID)
	if err != nil {
		h.log.Error("classification run failed", "tenant_id", tenantID, "error", err)
		return jsonError(c, fiber.StatusInternalServerError, "classification run failed")
	}
	return jsonSuccess(c, fiber.Map{"processed": processed})
}
