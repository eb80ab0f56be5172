package db

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"salespilot/internal/models"
)

const leadColumns = `id, tenant_id, conversation_id, name, phone, stage, priority,
	classification, classification_reason, classified_at, last_activity_at, created_at, updated_at`

func scanLead(row pgx.Row) (*models.Lead, error) {
	var l models.Lead
	err := row.Scan(
		&l.ID,
		&l.TenantID,
		&l.ConversationID,
		&l.Name,
		&l.Phone,
		&l.Stage,
		&l.Priority,
		&l.Classification,
		&l.ClassificationReason,
		&l.ClassifiedAt,
		&l.LastActivityAt,
		&l.CreatedAt,
		&l.UpdatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrLeadNotFound
	}
	if err != nil {
		return nil, err
	}
	return &l, nil
}

// GetLead fetches a lead by ID.
func (d *DB) GetLead(ctx context.Context, id uuid.UUID) (*models.Lead, error) {
	query := `SELECT ` + leadColumns + ` FROM leads WHERE id = $1`
	return scanLead(d.Pool.QueryRow(ctx, query, id))
}

// GetLeadByConversation fetches the lead tied to a conversation.
func (d *DB) GetLeadByConversation(ctx context.Context, conversationID uuid.UUID) (*models.Lead, error) {
	query := `SELECT ` + leadColumns + ` FROM leads WHERE conversation_id = $1`
	return scanLead(d.Pool.QueryRow(ctx, query, conversationID))
}

// GetOrCreateLead finds the lead for a tenant/phone pair, creating it in
// the initial pipeline stage if it does not exist yet.
func (d *DB) GetOrCreateLead(ctx context.Context, tenantID uuid.UUID, conversationID uuid.UUID, phone, name string) (*models.Lead, error) {
	query := `
		INSERT INTO leads (tenant_id, conversation_id, name, phone)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (tenant_id, phone)
		DO UPDATE SET conversation_id = EXCLUDED.conversation_id, updated_at = NOW()
		RETURNING ` + leadColumns

	lead, err := scanLead(d.Pool.QueryRow(ctx, query, tenantID, conversationID, name, phone))
	if err != nil {
		return nil, fmt.Errorf("failed to get or create lead: %w", err)
	}
	return lead, nil
}

// ListLeadsForClassification returns leads with recent activity that have
// not been classified since that activity, oldest first.
func (d *DB) ListLeadsForClassification(ctx context.Context, tenantID uuid.UUID, limit int) ([]models.Lead, error) {
	rows, err := d.Pool.Query(ctx, `
		SELECT `+leadColumns+`
		FROM leads
		WHERE tenant_id = $1
		  AND conversation_id IS NOT NULL
		  AND (classified_at IS NULL OR classified_at < last_activity_at)
		ORDER BY last_activity_at ASC
		LIMIT $2
	`, tenantID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query leads: %w", err)
	}
	defer rows.Close()

	var leads []models.Lead
	for rows.Next() {
		var l models.Lead
		if err := rows.Scan(
			&l.ID,
			&l.TenantID,
			&l.ConversationID,
			&l.Name,
			&l.Phone,
			&l.Stage,
			&l.Priority,
			&l.Classification,
			&l.ClassificationReason,
			&l.ClassifiedAt,
			&l.LastActivityAt,
			&l.CreatedAt,
			&l.UpdatedAt,
		); err != nil {
			return nil, err
		}
		leads = append(leads, l)
	}

	return leads, rows.Err()
}

// UpdateLeadClassification records the classification outcome on a lead.
// Stage and priority are written only when changed is true; classification
// metadata is written unconditionally.
func (d *DB) UpdateLeadClassification(ctx context.Context, id uuid.UUID, classification, reason string, stage, priority *string) error {
	now := time.Now()

	if stage != nil && priority != nil {
		_, err := d.Pool.Exec(ctx, `
			UPDATE leads
			SET classification = $2, classification_reason = $3, classified_at = $4,
			    stage = $5, priority = $6, last_activity_at = $4, updated_at = NOW()
			WHERE id = $1
		`, id, classification, reason, now, *stage, *priority)
		return err
	}

	_, err := d.Pool.Exec(ctx, `
		UPDATE leads
		SET classification = $2, classification_reason = $3, classified_at = $4,
		    last_activity_at = $4, updated_at = NOW()
		WHERE id = $1
	`, id, classification, reason, now)
	return err
}

// TouchLead updates the last-activity timestamp.
func (d *DB) TouchLead(ctx context.Context, id uuid.UUID) error {
	_, err := d.Pool.Exec(ctx, `
		UPDATE leads SET last_activity_at = NOW(), updated_at = NOW() WHERE id = $1
	`, id)
	return err
}
