package db

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"salespilot/internal/models"
)

const conversationColumns = `id, tenant_id, contact_phone, contact_name,
	last_activity_at, created_at, updated_at`

func scanConversation(row pgx.Row) (*models.Conversation, error) {
	var c models.Conversation
	err := row.Scan(
		&c.ID,
		&c.TenantID,
		&c.ContactPhone,
		&c.ContactName,
		&c.LastActivityAt,
		&c.CreatedAt,
		&c.UpdatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrConversationNotFound
	}
	if err != nil {
		return nil, err
	}
	return &c, nil
}

// GetConversation fetches a conversation by ID.
func (d *DB) GetConversation(ctx context.Context, id uuid.UUID) (*models.Conversation, error) {
	query := `SELECT ` + conversationColumns + ` FROM conversations WHERE id = $1`
	return scanConversation(d.Pool.QueryRow(ctx, query, id))
}

// GetOrCreateConversation finds the conversation for a tenant/phone pair,
// creating it if it does not exist yet.
func (d *DB) GetOrCreateConversation(ctx context.Context, tenantID uuid.UUID, phone, name string) (*models.Conversation, error) {
	query := `
		INSERT INTO conversations (tenant_id, contact_phone, contact_name)
		VALUES ($1, $2, $3)
		ON CONFLICT (tenant_id, contact_phone)
		DO UPDATE SET updated_at = NOW()
		RETURNING ` + conversationColumns

	conv, err := scanConversation(d.Pool.QueryRow(ctx, query, tenantID, phone, name))
	if err != nil {
		return nil, fmt.Errorf("failed to get or create conversation: %w", err)
	}
	return conv, nil
}

// TouchConversation updates the last-activity timestamp.
func (d *DB) TouchConversation(ctx context.Context, id uuid.UUID) error {
	_, err := d.Pool.Exec(ctx, `
		UPDATE conversations SET last_activity_at = NOW(), updated_at = NOW() WHERE id = $1
	`, id)
	return err
}
