package models

import (
	"time"

	"github.com/google/uuid"
)

// Pipeline stages in ordinal sequence. A lead only ever moves forward.
const (
	StageNuevo      = "Nuevo"
	StageContactado = "Contactado"
	StageInteresado = "Interesado"
	StageCalificado = "Calificado"
	StageGanado     = "Ganado"
)

// Lead priorities.
const (
	PriorityAlta  = "alta"
	PriorityMedia = "media"
	PriorityBaja  = "baja"
)

// Lead is a sales prospect tied to a conversation.
type Lead struct {
	ID                   uuid.UUID  `json:"id"`
	TenantID             uuid.UUID  `json:"tenant_id"`
	ConversationID       *uuid.UUID `json:"conversation_id"`
	Name                 string     `json:"name"`
	Phone                string     `json:"phone"`
	Stage                string     `json:"stage"`
	Priority             string     `json:"priority"`
	Classification       *string    `json:"classification"`
	ClassificationReason *string    `json:"classification_reason"`
	ClassifiedAt         *time.Time `json:"classified_at"`
	LastActivityAt       time.Time  `json:"last_activity_at"`
	CreatedAt            time.Time  `json:"created_at"`
	UpdatedAt            time.Time  `json:"updated_at"`
}
