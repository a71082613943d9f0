package services

import (
	"fmt"
	"math/rand/v2"
)

// GenerateOTPCode returns a 6-digit numeric code in [100000, 999999].
// Codes are short-lived and single-use; they are not bearer secrets.
func GenerateOTPCode() string {
	return fmt.Sprintf("%06d", 100000+rand.IntN(900000))
}
