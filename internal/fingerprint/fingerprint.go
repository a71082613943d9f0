package fingerprint

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
)

// Hash derives the stable device fingerprint from the raw User-Agent and the
// client IP. Two requests from the same browser build and address always map
// to the same fingerprint.
func Hash(userAgent, ip string) string {
	sum := sha256.Sum256([]byte(userAgent + "-" + ip))
	return hex.EncodeToString(sum[:])
}

// NewSessionID returns an opaque random session identifier.
func NewSessionID() (string, error) {
	buf := make([]byte, 16)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("unable to generate session id: %w", err)
	}
	return hex.EncodeToString(buf), nil
}
