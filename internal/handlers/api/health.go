package api

import (
	"context"
	"time"

	"github.com/gofiber/fiber/v3"

	"salespilot/internal/db"
	"salespilot/internal/statestore"
)

// HealthHandler reports readiness of the backing stores.
type HealthHandler struct {
	db   *db.DB
	fast statestore.Storage
}

// NewHealthHandler creates a new health handler.
func NewHealthHandler(database *db.DB, fast statestore.Storage) *HealthHandler {
	return &HealthHandler{db: database, fast: fast}
}

// Check pings both stores. The service stays up when the fast store is
// degraded (the control plane fails open/closed per operation), so a
// fast-store failure is reported but not fatal.
func (h *HealthHandler) Check(c fiber.Ctx) error {
	ctx, cancel := context.WithTimeout(c.Context(), 2*time.Second)
	defer cancel()

	if err := h.db.Pool.Ping(ctx); err != nil {
		return jsonError(c, fiber.StatusServiceUnavailable, "database unreachable")
	}

	fastOK := true
	if h.fast != nil {
		if _, err := statestore.GetTimeout(h.fast, "healthz", time.Second); err != nil {
			fastOK = false
		}
	}

	return jsonSuccess(c, fiber.Map{
		"database":   "ok",
		"fast_store": fastOK,
	})
}
