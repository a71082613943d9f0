package fingerprint

import "strings"

// Browser is the closed classification that drives the access decision.
// Anything not recognized falls into BrowserOther, which is allowed in.
type Browser string

const (
	BrowserBrave     Browser = "brave"
	BrowserMicrosoft Browser = "microsoft"
	BrowserChrome    Browser = "chrome"
	BrowserOther     Browser = "other"
)

// Chrome family names as reported by UA parsers.
var chromeFamilyNames = map[string]bool{
	"chrome":                true,
	"chromium":              true,
	"chrome webview":        true,
	"chrome headless":       true,
	"chrome mobile":         true,
	"chrome mobile webview": true,
}

// Browsers that embed "Chrome" in their UA but must never be treated as
// Chrome for the OTP gate.
var chromeUAExclusions = []string{
	"brave", "edg/", "edge/", "opr/", "opera", "vivaldi", "samsungbrowser", "firefox",
}

// Classify maps a parsed browser name plus the raw UA onto the access
// classification. Precedence: Brave, then Microsoft, then Chrome; the
// braveHint wins over everything since Brave's UA is indistinguishable
// from Chrome's.
func Classify(parsedName, rawUA string, braveHint bool) Browser {
	name := strings.ToLower(strings.TrimSpace(parsedName))
	ua := strings.ToLower(rawUA)

	if braveHint || strings.Contains(name, "brave") || strings.Contains(ua, "brave") {
		return BrowserBrave
	}

	if name == "edge" || name == "ie" ||
		strings.Contains(ua, "edg/") || strings.Contains(ua, "edge/") {
		return BrowserMicrosoft
	}

	if isChrome(name, ua) {
		return BrowserChrome
	}

	return BrowserOther
}

func isChrome(name, ua string) bool {
	if chromeFamilyNames[name] {
		return true
	}

	if !strings.Contains(ua, "chrome/") {
		return false
	}
	for _, excl := range chromeUAExclusions {
		if strings.Contains(ua, excl) {
			return false
		}
	}
	// Desktop Safari carries no "chrome/" token; anything that still claims
	// Safari here is a Chrome derivative reporting compatibility.
	return true
}
