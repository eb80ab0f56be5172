package db

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"salespilot/internal/models"
)

// GetConversationState reads and validates the rolling summary for a
// conversation. Returns ErrStateNotFound if none has been written yet.
func (d *DB) GetConversationState(ctx context.Context, conversationID uuid.UUID) (*models.ConversationState, error) {
	var raw []byte
	err := d.Pool.QueryRow(ctx, `
		SELECT state FROM conversation_states WHERE conversation_id = $1
	`, conversationID).Scan(&raw)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrStateNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read conversation state: %w", err)
	}

	var state models.ConversationState
	if err := json.Unmarshal(raw, &state); err != nil {
		return nil, fmt.Errorf("failed to decode conversation state: %w", err)
	}
	if err := state.Validate(); err != nil {
		return nil, err
	}
	return &state, nil
}

// SetConversationState writes the rolling summary for a conversation.
func (d *DB) SetConversationState(ctx context.Context, conversationID uuid.UUID, state *models.ConversationState) error {
	raw, err := json.Marshal(state)
	if err != nil {
		return fmt.Errorf("failed to encode conversation state: %w", err)
	}

	_, err = d.Pool.Exec(ctx, `
		INSERT INTO conversation_states (conversation_id, state)
		VALUES ($1, $2)
		ON CONFLICT (conversation_id) DO UPDATE SET state = EXCLUDED.state, updated_at = NOW()
	`, conversationID, raw)
	if err != nil {
		return fmt.Errorf("failed to write conversation state: %w", err)
	}
	return nil
}
