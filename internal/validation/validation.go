// Package validation normalizes and validates the identifiers that cross
// the service boundary: contact phone numbers and campaign IDs.
package validation

import (
	"regexp"
	"strings"
)

// phonePattern is the normalized phone format: E.164-style, digits with an
// optional leading plus.
var phonePattern = regexp.MustCompile(`^\+?[1-9][0-9]{7,14}$`)

// campaignIDPattern defines the valid campaign ID format: alphanumeric,
// hyphens, underscores.
var campaignIDPattern = regexp.MustCompile(`^[a-zA-Z0-9_-]+$`)

// NormalizePhone strips formatting characters (spaces, dashes, dots,
// parentheses) so the same contact always maps to the same actor key.
func NormalizePhone(phone string) string {
	var b strings.Builder
	for _, r := range strings.TrimSpace(phone) {
		switch r {
		case ' ', '-', '.', '(', ')':
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

// ValidatePhone checks a normalized phone number. Providers deliver
// numbers without formatting, so anything failing here is a malformed
// event rather than a formatting quirk.
func ValidatePhone(phone string) bool {
	return phonePattern.MatchString(phone)
}

// ValidateCampaignID checks a campaign identifier.
func ValidateCampaignID(id string) bool {
	if id == "" || len(id) > 100 {
		return false
	}
	return campaignIDPattern.MatchString(id)
}
