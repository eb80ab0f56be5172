package validation

import "testing"

func TestNormalizePhone(t *testing.T) {
	tests := []struct {
		name  string
		phone string
		want  string
	}{
		{"already normalized", "+5215551234567", "+5215551234567"},
		{"spaces and dashes", "+52 1 555-123-4567", "+5215551234567"},
		{"parentheses", "(555) 123.4567", "5551234567"},
		{"surrounding whitespace", "  +5215551234567  ", "+5215551234567"},
		{"empty", "", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := NormalizePhone(tt.phone); got != tt.want {
				t.Errorf("NormalizePhone(%q) = %q, want %q", tt.phone, got, tt.want)
			}
		})
	}
}

func TestValidatePhone(t *testing.T) {
	tests := []struct {
		name  string
		phone string
		want  bool
	}{
		{"valid with plus", "+5215551234567", true},
		{"valid without plus", "5215551234567", true},
		{"too short", "+123", false},
		{"too long", "+1234567890123456", false},
		{"leading zero", "+0215551234567", false},
		{"letters", "+52155512345ab", false},
		{"empty", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ValidatePhone(tt.phone); got != tt.want {
				t.Errorf("ValidatePhone(%q) = %v, want %v", tt.phone, got, tt.want)
			}
		})
	}
}

func TestValidateCampaignID(t *testing.T) {
	tests := []struct {
		name string
		id   string
		want bool
	}{
		{"valid alphanumeric", "promo2026", true},
		{"valid with hyphen", "black-friday", true},
		{"valid with underscore", "black_friday_1", true},
		{"empty", "", false},
		{"spaces", "black friday", false},
		{"too long", string(make([]byte, 101)), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ValidateCampaignID(tt.id); got != tt.want {
				t.Errorf("ValidateCampaignID(%q) = %v, want %v", tt.id, got, tt.want)
			}
		})
	}
}
