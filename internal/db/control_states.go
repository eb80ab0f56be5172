package db

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
)

// GetControlState reads a durable control-state value by key.
func (d *DB) GetControlState(ctx context.Context, key string) ([]byte, error) {
	var value []byte
	err := d.Pool.QueryRow(ctx, `
		SELECT value FROM control_states WHERE key = $1
	`, key).Scan(&value)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrControlStateNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read control state: %w", err)
	}
	return value, nil
}

// SetControlState writes a durable control-state value. Writing the same
// value twice is safe.
func (d *DB) SetControlState(ctx context.Context, key string, value []byte) error {
	_, err := d.Pool.Exec(ctx, `
		INSERT INTO control_states (key, value)
		VALUES ($1, $2)
		ON CONFLICT (key) DO UPDATE SET value = EXCLUDED.value, updated_at = NOW()
	`, key, value)
	if err != nil {
		return fmt.Errorf("failed to write control state: %w", err)
	}
	return nil
}

// DeleteControlState removes a durable control-state entry.
func (d *DB) DeleteControlState(ctx context.Context, key string) error {
	_, err := d.Pool.Exec(ctx, `DELETE FROM control_states WHERE key = $1`, key)
	if err != nil {
		return fmt.Errorf("failed to delete control state: %w", err)
	}
	return nil
}
