package db

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"salespilot/internal/models"
)

// AppendMessage stores one conversation turn.
func (d *DB) AppendMessage(ctx context.Context, msg *models.Message) error {
	query := `
		INSERT INTO messages (conversation_id, role, content)
		VALUES ($1, $2, $3)
		RETURNING id, created_at
	`

	err := d.Pool.QueryRow(ctx, query,
		msg.ConversationID,
		msg.Role,
		msg.Content,
	).Scan(&msg.ID, &msg.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to append message: %w", err)
	}
	return nil
}

// GetHistory returns the ordered turn history for a conversation,
// oldest first.
func (d *DB) GetHistory(ctx context.Context, conversationID uuid.UUID) ([]models.Message, error) {
	rows, err := d.Pool.Query(ctx, `
		SELECT id, conversation_id, role, content, created_at
		FROM messages
		WHERE conversation_id = $1
		ORDER BY created_at ASC
	`, conversationID)
	if err != nil {
		return nil, fmt.Errorf("failed to query history: %w", err)
	}
	defer rows.Close()

	var msgs []models.Message
	for rows.Next() {
		var m models.Message
		if err := rows.Scan(&m.ID, &m.ConversationID, &m.Role, &m.Content, &m.CreatedAt); err != nil {
			return nil, err
		}
		msgs = append(msgs, m)
	}

	return msgs, rows.Err()
}
