package models

import (
	"fmt"
	"time"
)

// StateVersion is the current ConversationState schema version.
const StateVersion = 1

// Interest levels.
const (
	InterestLow    = "low"
	InterestMedium = "medium"
	InterestHigh   = "high"
)

// ConversationState is the rolling structured summary of a conversation.
// It is mutated only by the summarizer and conserved across refreshes:
// new facts are added, not silently dropped.
type ConversationState struct {
	Version              int       `json:"version"`
	Phase                string    `json:"phase"`
	TopicsCovered        []string  `json:"topics_covered"`
	ObjectionsRaised     []string  `json:"objections_raised"`
	ObjectionsResolved   []string  `json:"objections_resolved"`
	InterestLevel        string    `json:"interest_level"`
	NextAction           string    `json:"next_action"`
	Summary              string    `json:"summary"`
	MessageCountAtUpdate int       `json:"message_count_at_update"`
	LastUpdated          time.Time `json:"last_updated"`
}

// Validate normalizes a state read back from storage, defaulting fields
// written by older versions of the structure.
func (s *ConversationState) Validate() error {
	if s.Version == 0 {
		s.Version = StateVersion
	}
	if s.Version > StateVersion {
		return fmt.Errorf("unknown conversation state version %d", s.Version)
	}
	if s.Phase == "" {
		s.Phase = "descubrimiento"
	}
	switch s.InterestLevel {
	case InterestLow, InterestMedium, InterestHigh:
	default:
		s.InterestLevel = InterestLow
	}
	if s.TopicsCovered == nil {
		s.TopicsCovered = []string{}
	}
	if s.ObjectionsRaised == nil {
		s.ObjectionsRaised = []string{}
	}
	if s.ObjectionsResolved == nil {
		s.ObjectionsResolved = []string{}
	}
	return nil
}
