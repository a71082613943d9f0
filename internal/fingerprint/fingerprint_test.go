package fingerprint

import (
	"testing"

	"github.com/finchsocial/finch/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHashDeterministic(t *testing.T) {
	a := Hash(chromeUA, "203.0.113.9")
	b := Hash(chromeUA, "203.0.113.9")
	assert.Equal(t, a, b)
	assert.Len(t, a, 64)
}

func TestHashVariesWithInputs(t *testing.T) {
	base := Hash(chromeUA, "203.0.113.9")
	assert.NotEqual(t, base, Hash(chromeUA, "203.0.113.10"))
	assert.NotEqual(t, base, Hash(firefoxUA, "203.0.113.9"))
}

func TestNewSessionID(t *testing.T) {
	a, err := NewSessionID()
	require.NoError(t, err)
	b, err := NewSessionID()
	require.NoError(t, err)

	assert.Len(t, a, 32)
	assert.NotEqual(t, a, b)
}

func TestParse(t *testing.T) {
	info := Parse(chromeUA, "203.0.113.9", false)

	assert.Equal(t, "Chrome", info.BrowserName)
	assert.Equal(t, "Windows", info.OSName)
	assert.Equal(t, "10", info.OSVersion)
	assert.Equal(t, models.DeviceDesktop, info.Device)
	assert.Equal(t, BrowserChrome, info.Browser)
	assert.Equal(t, "203.0.113.9", info.IPAddress)
}

func TestParseMobile(t *testing.T) {
	mobileUA := "Mozilla/5.0 (Linux; Android 14; Pixel 8) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Mobile Safari/537.36"
	info := Parse(mobileUA, "203.0.113.9", false)

	assert.Equal(t, models.DeviceMobile, info.Device)
	assert.Equal(t, BrowserChrome, info.Browser)
}

func TestParseTablet(t *testing.T) {
	ipadUA := "Mozilla/5.0 (iPad; CPU OS 17_2 like Mac OS X) AppleWebKit/605.1.15 (KHTML, like Gecko) Version/17.2 Mobile/15E148 Safari/604.1"
	info := Parse(ipadUA, "203.0.113.9", false)

	assert.Equal(t, models.DeviceTablet, info.Device)
}

func TestParseBraveHintCorrectsName(t *testing.T) {
	// Brave ships a Chrome UA string; the asserted hint wins.
	info := Parse(chromeUA, "203.0.113.9", true)

	assert.Equal(t, BrowserBrave, info.Browser)
	assert.Equal(t, "Brave", info.BrowserName)
}

func TestParseEmptyUA(t *testing.T) {
	info := Parse("", "203.0.113.9", false)

	assert.Equal(t, models.DeviceUnknown, info.Device)
	assert.Equal(t, BrowserOther, info.Browser)
	assert.Empty(t, info.BrowserName)
}
