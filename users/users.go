package users

import (
	"strings"
	"time"
)

// User is the credential record held by the credential store. Email is
// stored normalized (lower case) and is unique across active accounts.
type User struct {
	ID           string    `json:"id"`
	Name         string    `json:"name"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"` // never serialize
	Role         Role      `json:"role"`
	Timezone     string    `json:"timezone,omitempty"`
	Active       bool      `json:"active"`
	LastSeenAt   time.Time `json:"last_seen_at,omitempty"`
	CreatedAt    time.Time `json:"created_at,omitempty"`
}

// NormalizeEmail lowers and trims an email address so lookups and the
// uniqueness check are case-insensitive.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
