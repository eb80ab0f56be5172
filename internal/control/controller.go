// Package control tracks whether the agent may speak in a conversation:
// operator takeover pauses and bulk-campaign suppression.
package control

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"salespilot/internal/models"
	"salespilot/internal/statestore"
)

const (
	pauseKeyPrefix    = "pause:"
	suppressKeyPrefix = "suppress:"
)

// Controller mediates pause and suppress state through the store bridge.
type Controller struct {
	bridge      *statestore.Bridge
	pauseTTL    time.Duration
	suppressTTL time.Duration
	log         *slog.Logger
}

// New creates a controller. pauseTTL bounds the fast-store copy of an
// operator takeover; suppressTTL is days-scale and bounds campaign
// suppression.
func New(bridge *statestore.Bridge, pauseTTL, suppressTTL time.Duration, log *slog.Logger) *Controller {
	if log == nil {
		log = slog.Default()
	}
	return &Controller{
		bridge:      bridge,
		pauseTTL:    pauseTTL,
		suppressTTL: suppressTTL,
		log:         log.With("component", "control"),
	}
}

func pauseKey(id uuid.UUID) string    { return pauseKeyPrefix + id.String() }
func suppressKey(id uuid.UUID) string { return suppressKeyPrefix + id.String() }

// Pause marks a conversation as taken over by a human operator.
func (c *Controller) Pause(ctx context.Context, conversationID uuid.UUID, actor string) error {
	state := models.PauseState{
		Paused:   true,
		PausedAt: time.Now(),
		PausedBy: actor,
	}
	raw, err := json.Marshal(state)
	if err != nil {
		return fmt.Errorf("failed to encode pause state: %w", err)
	}
	return c.bridge.Set(ctx, pauseKey(conversationID), raw, c.pauseTTL)
}

// Resume clears the pause on a conversation in both store layers.
func (c *Controller) Resume(ctx context.Context, conversationID uuid.UUID) error {
	return c.bridge.Delete(ctx, pauseKey(conversationID))
}

// IsPaused reports whether a human operator holds the conversation.
// It fails closed: if control state cannot be read, the agent must not
// speak, so any error reads as paused.
func (c *Controller) IsPaused(ctx context.Context, conversationID uuid.UUID) bool {
	raw, err := c.bridge.Get(ctx, pauseKey(conversationID))
	if err != nil {
		c.log.Warn("pause check failed, treating as paused", "conversation_id", conversationID, "error", err)
		return true
	}
	if raw == nil {
		return false
	}

	var state models.PauseState
	if err := json.Unmarshal(raw, &state); err != nil {
		c.log.Warn("pause state unreadable, treating as paused", "conversation_id", conversationID, "error", err)
		return true
	}
	return state.Paused
}

// SuppressForCampaign silences a conversation for the duration of a bulk
// send. Suppression is stronger than the tenant's auto-reply setting.
func (c *Controller) SuppressForCampaign(ctx context.Context, conversationID uuid.UUID, campaignID string) error {
	state := models.SuppressState{
		Suppressed:   true,
		CampaignID:   campaignID,
		SuppressedAt: time.Now(),
	}
	raw, err := json.Marshal(state)
	if err != nil {
		return fmt.Errorf("failed to encode suppress state: %w", err)
	}
	return c.bridge.Set(ctx, suppressKey(conversationID), raw, c.suppressTTL)
}

// Unsuppress clears campaign suppression in both store layers.
func (c *Controller) Unsuppress(ctx context.Context, conversationID uuid.UUID) error {
	return c.bridge.Delete(ctx, suppressKey(conversationID))
}

// IsSuppressed reports whether a conversation is silenced by a campaign.
// It fails open: a broken silencing side-channel must not become a
// product-wide outage, so any error reads as not suppressed.
func (c *Controller) IsSuppressed(ctx context.Context, conversationID uuid.UUID) bool {
	raw, err := c.bridge.Get(ctx, suppressKey(conversationID))
	if err != nil {
		c.log.Warn("suppress check failed, treating as not suppressed", "conversation_id", conversationID, "error", err)
		return false
	}
	if raw == nil {
		return false
	}

	var state models.SuppressState
	if err := json.Unmarshal(raw, &state); err != nil {
		c.log.Warn("suppress state unreadable, treating as not suppressed", "conversation_id", conversationID, "error", err)
		return false
	}
	return state.Suppressed
}
