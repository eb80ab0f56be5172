package db

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"salespilot/internal/models"
)

const tenantColumns = `id, name, phone, system_prompt, auto_reply_enabled, created_at, updated_at`

func scanTenant(row pgx.Row) (*models.Tenant, error) {
	var t models.Tenant
	err := row.Scan(
		&t.ID,
		&t.Name,
		&t.Phone,
		&t.SystemPrompt,
		&t.AutoReplyEnabled,
		&t.CreatedAt,
		&t.UpdatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrTenantNotFound
	}
	if err != nil {
		return nil, err
	}
	return &t, nil
}

// GetTenant fetches a tenant by ID.
func (d *DB) GetTenant(ctx context.Context, id uuid.UUID) (*models.Tenant, error) {
	query := `SELECT ` + tenantColumns + ` FROM tenants WHERE id = $1`
	return scanTenant(d.Pool.QueryRow(ctx, query, id))
}

// ListTenantIDs returns all tenant IDs.
func (d *DB) ListTenantIDs(ctx context.Context) ([]uuid.UUID, error) {
	rows, err := d.Pool.Query(ctx, `SELECT id FROM tenants ORDER BY created_at ASC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var ids []uuid.UUID
	for rows.Next() {
		var id uuid.UUID
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

// SetAutoReply toggles the tenant's automatic reply setting.
func (d *DB) SetAutoReply(ctx context.Context, id uuid.UUID, enabled bool) error {
	tag, err := d.Pool.Exec(ctx, `
		UPDATE tenants SET auto_reply_enabled = $2, updated_at = NOW() WHERE id = $1
	`, id, enabled)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrTenantNotFound
	}
	return nil
}
