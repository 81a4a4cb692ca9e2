package domain

import (
	"strings"
	"time"
)

// User is the credential record for a community member.
type User struct {
	ID           string
	Name         string
	Email        string
	PasswordHash string
	College      string
	IsApproved   bool
	IsSuspended  bool
	IsPremium    bool
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// NormalizeEmail lower-cases and trims an address for storage and comparison.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
