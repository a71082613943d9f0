package models

import "time"

// PasswordReset is a reset grant: a unique token plus a generated fallback
// password. At most one may be created per user per calendar day; consumed
// at most once.
type PasswordReset struct {
	ID                string
	UserID            string
	Email             string
	ResetToken        string
	GeneratedPassword string
	Used              bool
	ExpiresAt         time.Time
	CreatedAt         time.Time
}

// Valid reports whether the reset can still be consumed.
func (pr *PasswordReset) Valid(now time.Time) bool {
	return !pr.Used && now.Before(pr.ExpiresAt)
}
