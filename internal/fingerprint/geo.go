package fingerprint

import (
	"log/slog"
	"net"

	"github.com/oschwald/geoip2-golang"
)

// GeoInfo is the location attached to a login history entry. Every field
// falls back to "Unknown" rather than failing the login.
type GeoInfo struct {
	Country  string
	City     string
	Region   string
	Timezone string
}

// GeoResolver looks up request IPs against a local MaxMind database. A nil
// or unopened resolver degrades every lookup to Unknown.
type GeoResolver struct {
	db     *geoip2.Reader
	logger *slog.Logger
}

// NewGeoResolver opens the MaxMind city database at mmdbPath. An empty path
// returns a resolver that answers Unknown for every IP.
func NewGeoResolver(mmdbPath string, logger *slog.Logger) (*GeoResolver, error) {
	if mmdbPath == "" {
		logger.Warn("geoip database not configured, geolocation disabled")
		return &GeoResolver{logger: logger}, nil
	}

	db, err := geoip2.Open(mmdbPath)
	if err != nil {
		return nil, err
	}
	return &GeoResolver{db: db, logger: logger}, nil
}

func (g *GeoResolver) Close() {
	if g.db != nil {
		_ = g.db.Close()
	}
}

func unknownGeo() GeoInfo {
	return GeoInfo{Country: "Unknown", City: "Unknown", Region: "Unknown", Timezone: "Unknown"}
}

// Resolve maps an IP address to a location. Loopback and private addresses
// resolve to a local placeholder; lookup failures resolve to Unknown.
func (g *GeoResolver) Resolve(ipStr string) GeoInfo {
	ip := net.ParseIP(ipStr)
	if ip == nil {
		return unknownGeo()
	}

	if ip.IsLoopback() || ip.IsPrivate() {
		return GeoInfo{Country: "Local", City: "Development", Region: "Local", Timezone: "Local"}
	}

	if g.db == nil {
		return unknownGeo()
	}

	record, err := g.db.City(ip)
	if err != nil {
		g.logger.Warn("geoip lookup failed", slog.String("ip", ipStr), slog.String("error", err.Error()))
		return unknownGeo()
	}

	info := unknownGeo()
	if name := record.Country.Names["en"]; name != "" {
		info.Country = name
	}
	if name := record.City.Names["en"]; name != "" {
		info.City = name
	}
	if len(record.Subdivisions) > 0 {
		if name := record.Subdivisions[0].Names["en"]; name != "" {
			info.Region = name
		}
	}
	if record.Location.TimeZone != "" {
		info.Timezone = record.Location.TimeZone
	}
	return info
}
