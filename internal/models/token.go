package models

import (
	"github.com/golang-jwt/jwt/v5"
)

// TokenClaims are the JWT claims carried by an access token. SessionID ties
// the token back to the login session so logout can close the right history
// entry.
type TokenClaims struct {
	Type      string `json:"type"`
	UserID    string `json:"user_id"`
	Email     string `json:"email,omitempty"`
	SessionID string `json:"session_id,omitempty"`
	jwt.RegisteredClaims
}
