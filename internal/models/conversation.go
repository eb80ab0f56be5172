package models

import (
	"time"

	"github.com/google/uuid"
)

// Conversation represents an ongoing message thread with one contact.
type Conversation struct {
	ID             uuid.UUID `json:"id"`
	TenantID       uuid.UUID `json:"tenant_id"`
	ContactPhone   string    `json:"contact_phone"`
	ContactName    string    `json:"contact_name"`
	LastActivityAt time.Time `json:"last_activity_at"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}

// Message roles.
const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
	RoleOperator  = "operator"
)

// Message is a single stored conversation turn.
type Message struct {
	ID             uuid.UUID `json:"id"`
	ConversationID uuid.UUID `json:"conversation_id"`
	Role           string    `json:"role"`
	Content        string    `json:"content"`
	CreatedAt      time.Time `json:"created_at"`
}

// InboundMessage is the normalized event delivered by the messaging
// webhook adapter. The provider wire format is handled upstream.
type InboundMessage struct {
	TenantID       uuid.UUID `json:"tenant_id"`
	ConversationID uuid.UUID `json:"conversation_id"`
	Phone          string    `json:"phone"`
	Text           string    `json:"text"`
	Timestamp      time.Time `json:"timestamp"`
}
