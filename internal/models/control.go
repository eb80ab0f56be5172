package models

import "time"

// PauseState marks a conversation where a human operator has taken over.
// It lives in the fast store with a TTL and in the durable store until
// explicitly cleared.
type PauseState struct {
	Paused   bool      `json:"paused"`
	PausedAt time.Time `json:"paused_at"`
	PausedBy string    `json:"paused_by"`
}

// SuppressState silences a conversation for the duration of a bulk
// campaign. It is stronger and longer-lived than PauseState and is not
// overridable by the tenant's auto-reply setting.
type SuppressState struct {
	Suppressed   bool      `json:"suppressed"`
	CampaignID   string    `json:"campaign_id"`
	SuppressedAt time.Time `json:"suppressed_at"`
}
