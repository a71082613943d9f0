package models

import "time"

// MaxLoginHistory caps the per-user login history ring buffer. Inserting
// beyond the cap evicts the oldest entry.
const MaxLoginHistory = 50

// Device type classification derived from the user agent.
const (
	DeviceDesktop = "desktop"
	DeviceMobile  = "mobile"
	DeviceTablet  = "tablet"
	DeviceUnknown = "unknown"
)

// LoginHistoryEntry is one immutable record per login attempt. Only
// LogoutTime is ever backfilled, on logout of the matching session.
type LoginHistoryEntry struct {
	ID             string
	UserID         string
	LoginTime      time.Time
	LogoutTime     *time.Time
	IPAddress      string
	BrowserName    string
	BrowserVersion string
	OSName         string
	OSVersion      string
	Device         string
	Country        string
	City           string
	Region         string
	Timezone       string
	AccessGranted  bool
	DeniedReason   *string
	RequiresOTP    bool
	OTPVerified    bool
	SessionID      string
	UserAgent      string
}
