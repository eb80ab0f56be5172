package server

import (
	"log/slog"

	"github.com/gofiber/fiber/v3/middleware/adaptor"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"salespilot/internal/control"
	"salespilot/internal/db"
	"salespilot/internal/engine"
	"salespilot/internal/handlers/api"
	"salespilot/internal/jobs"
	"salespilot/internal/middleware"
	"salespilot/internal/statestore"
)

// RegisterRoutes registers all application routes.
func (s *Server) RegisterRoutes(database *db.DB, fast statestore.Storage, eng *engine.Engine, controller *control.Controller, runner *jobs.ClassifyRunner, log *slog.Logger) {
	authMiddleware := middleware.NewAuthMiddleware(s.Cfg.APIToken)

	webhookHandler := api.NewWebhookHandler(eng, log)
	controlHandler := api.NewControlHandler(controller, runner, log)
	healthHandler := api.NewHealthHandler(database, fast)

	// Webhook routes - invoked by the messaging adapter
	s.App.Post("/webhook/message", authMiddleware.RequireToken, webhookHandler.Message)
	s.App.Post("/webhook/operator", authMiddleware.RequireToken, webhookHandler.OperatorReply)

	// Control routes - invoked by the dashboard backend and bulk-send workflow
	s.App.Post("/control/conversations/:id/pause", authMiddleware.RequireToken, controlHandler.Pause)
	s.App.Post("/control/conversations/:id/resume", authMiddleware.RequireToken, controlHandler.Resume)
	s.App.Post("/control/conversations/:id/suppress", authMiddleware.RequireToken, controlHandler.Suppress)
	s.App.Post("/control/conversations/:id/unsuppress", authMiddleware.RequireToken, controlHandler.Unsuppress)
	s.App.Get("/control/conversations/:id/status", authMiddleware.RequireToken, controlHandler.Status)

	// Classification job entry point
	s.App.Post("/control/classify", authMiddleware.RequireToken, controlHandler.Classify)

	// Operational endpoints
	s.App.Get("/healthz", healthHandler.Check)
	s.App.Get("/metrics", adaptor.HTTPHandler(promhttp.Handler()))
}
