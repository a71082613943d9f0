package models

import (
	"time"
)

// User is the core identity plus security state. The browser and language
// OTPs are single-slot fields: at most one outstanding code of each kind,
// a new request supersedes the previous one.
type User struct {
	ID                string
	Username          string // unique, lowercase
	Email             string // unique, lowercase
	PasswordHash      string
	Name              string
	Bio               string
	ProfilePicture    string
	CoverPicture      string
	PreferredLanguage string // en, es, hi, pt, zh, fr
	PhoneNumber       string
	PhoneVerified     bool
	Security          SecuritySettings
	BrowserOTP        *BrowserOTP
	LanguageOTP       *LanguageOTP
	CreatedAt         time.Time
	UpdatedAt         time.Time
}

// SecuritySettings controls step-up authentication per user.
type SecuritySettings struct {
	RequireOTPForChrome    bool
	MobileAccessRestricted bool
	MobileAccessStartHour  int // default 10
	MobileAccessEndHour    int // default 13, exclusive
}

// DefaultSecuritySettings returns the settings applied to new accounts.
func DefaultSecuritySettings() SecuritySettings {
	return SecuritySettings{
		RequireOTPForChrome:    true,
		MobileAccessRestricted: true,
		MobileAccessStartHour:  10,
		MobileAccessEndHour:    13,
	}
}

// BrowserOTP is the pending login step-up code for a Chrome-classified login.
type BrowserOTP struct {
	Code      string
	ExpiresAt time.Time
	Browser   string
	IPAddress string
	Device    string
}

// LanguageOTP is the pending language-change verification code.
type LanguageOTP struct {
	Code      string
	ExpiresAt time.Time
	Channel   string // "email" or "phone"
}

// Session is the single current session pointer per user.
type Session struct {
	UserID       string
	SessionID    string
	LoginTime    time.Time
	IPAddress    string
	Browser      string
	Device       string
	LastActivity time.Time
}

// TrustedDevice records a device fingerprint granted without step-up.
type TrustedDevice struct {
	ID          string
	UserID      string
	Fingerprint string
	Browser     string
	AddedAt     time.Time
	LastUsed    time.Time
}

// ValidLanguages are the language codes a user may select.
var ValidLanguages = []string{"en", "es", "hi", "pt", "zh", "fr"}

// IsValidLanguage reports whether code is a supported language code.
func IsValidLanguage(code string) bool {
	for _, l := range ValidLanguages {
		if l == code {
			return true
		}
	}
	return false
}
