package models

import (
	"time"

	"github.com/google/uuid"
)

// Tenant represents one business account operating its own sales agent.
type Tenant struct {
	ID               uuid.UUID `json:"id"`
	Name             string    `json:"name"`
	Phone            string    `json:"phone"`
	SystemPrompt     string    `json:"system_prompt"`
	AutoReplyEnabled bool      `json:"auto_reply_enabled"`
	CreatedAt        time.Time `json:"created_at"`
	UpdatedAt        time.Time `json:"updated_at"`
}
