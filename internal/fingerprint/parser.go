package fingerprint

import (
	"strings"

	"github.com/finchsocial/finch/internal/models"
	"github.com/mssola/useragent"
)

// ClientInfo is everything we extract from a single request for access
// decisions and login history.
type ClientInfo struct {
	UserAgent      string
	IPAddress      string
	BrowserName    string
	BrowserVersion string
	OSName         string
	OSVersion      string
	Device         string
	Browser        Browser
}

// Parse derives client facts from the raw User-Agent header. braveHint is the
// client-asserted Brave flag; Brave deliberately masquerades as Chrome in its
// UA string, so the hint takes precedence over parsing.
func Parse(rawUA, ip string, braveHint bool) ClientInfo {
	info := ClientInfo{
		UserAgent: rawUA,
		IPAddress: ip,
		Device:    models.DeviceUnknown,
		Browser:   BrowserOther,
	}

	if rawUA == "" {
		return info
	}

	ua := useragent.New(rawUA)
	name, version := ua.Browser()
	osInfo := ua.OSInfo()

	info.BrowserName = name
	info.BrowserVersion = version
	info.OSName = osInfo.Name
	info.OSVersion = osInfo.Version
	info.Device = deviceType(ua, rawUA)
	info.Browser = Classify(name, rawUA, braveHint)

	// Brave parses as Chrome; correct the recorded name once classified.
	if info.Browser == BrowserBrave && !strings.EqualFold(name, "brave") {
		info.BrowserName = "Brave"
	}

	return info
}

func deviceType(ua *useragent.UserAgent, rawUA string) string {
	lower := strings.ToLower(rawUA)
	if strings.Contains(lower, "ipad") || strings.Contains(lower, "tablet") {
		return models.DeviceTablet
	}
	if ua.Mobile() {
		return models.DeviceMobile
	}
	return models.DeviceDesktop
}
