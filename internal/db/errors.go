package db

import "errors"

// Domain-level database error sentinels.
var (
	ErrTenantNotFound       = errors.New("tenant not found")
	ErrConversationNotFound = errors.New("conversation not found")
	ErrLeadNotFound         = errors.New("lead not found")
	ErrControlStateNotFound = errors.New("control state not found")
	ErrStateNotFound        = errors.New("conversation state not found")
)
