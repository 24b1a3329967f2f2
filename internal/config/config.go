package config

import (
	"errors"
	"os"
	"strconv"
	"time"
)

type HTTPConfig struct {
	Addr        string
	BasePath    string
	MaxICSBytes int64
}

type UpstreamConfig struct {
	BaseURL      string
	ClientID     string
	ClientSecret string
	License      string
	User         string
	Password     string
	OwnerKey     string
	Timezone     string
	Timeout      time.Duration
}

type DAVConfig struct {
	EnableCalDAV  bool
	EnableCardDAV bool
	SyncWeeks     int
	ListingMode   string // "series" | "occurrence"
}

type FeedConfig struct {
	Enabled bool
}

type Config struct {
	HTTP     HTTPConfig
	Upstream UpstreamConfig
	DAV      DAVConfig
	Feed     FeedConfig
	ICS      ICSConfig
	LogLevel string
}

func getenv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getint(key string, def int) int {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return def
	}
	return n
}

func Load() (*Config, error) {
	maxICS := func() int64 {
		v := getenv("HTTP_MAX_ICS_BYTES", "1048576")
		n, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			return 1 << 20
		}
		return n
	}()

	user := getenv("UPSTREAM_USER", "")

	cfg := &Config{
		HTTP: HTTPConfig{
			Addr:        getenv("HTTP_ADDR", ":8080"),
			BasePath:    getenv("HTTP_BASE_PATH", "/dav"),
			MaxICSBytes: maxICS,
		},
		Upstream: UpstreamConfig{
			BaseURL:      getenv("UPSTREAM_BASE_URL", "https://testapi.example.com/v1"),
			ClientID:     getenv("UPSTREAM_CLIENT_ID", ""),
			ClientSecret: getenv("UPSTREAM_CLIENT_SECRET", ""),
			License:      getenv("UPSTREAM_LICENSE", ""),
			User:         user,
			Password:     getenv("UPSTREAM_PASSWORD", ""),
			OwnerKey:     getenv("OWNER_KEY", user),
			Timezone:     getenv("UPSTREAM_TIMEZONE", "Europe/Berlin"),
			Timeout:      time.Duration(getint("UPSTREAM_TIMEOUT_SECONDS", 30)) * time.Second,
		},
		DAV: DAVConfig{
			EnableCalDAV:  getenv("DAV_ENABLE_CALDAV", "true") == "true",
			EnableCardDAV: getenv("DAV_ENABLE_CARDDAV", "true") == "true",
			SyncWeeks:     getint("DAV_SYNC_WEEKS", 2),
			ListingMode:   getenv("DAV_LISTING_MODE", "series"),
		},
		Feed: FeedConfig{
			Enabled: getenv("FEED_ENABLED", "false") == "true",
		},
		ICS: ICSConfig{
			CompanyName: getenv("ICS_COMPANY_NAME", "davgate"),
			ProductName: getenv("ICS_PRODUCT_NAME", "CalDAV Gateway"),
			Version:     getenv("ICS_VERSION", "1.0.0"),
			Language:    getenv("ICS_LANGUAGE", "EN"),
		},
		LogLevel: getenv("LOG_LEVEL", "info"),
	}

	if cfg.Upstream.ClientID == "" || cfg.Upstream.ClientSecret == "" {
		return nil, errors.New("UPSTREAM_CLIENT_ID and UPSTREAM_CLIENT_SECRET are required")
	}
	if cfg.Upstream.License == "" || cfg.Upstream.User == "" || cfg.Upstream.Password == "" {
		return nil, errors.New("UPSTREAM_LICENSE, UPSTREAM_USER and UPSTREAM_PASSWORD are required")
	}
	if cfg.DAV.ListingMode != "series" && cfg.DAV.ListingMode != "occurrence" {
		return nil, errors.New("DAV_LISTING_MODE must be series or occurrence")
	}

	return cfg, nil
}

// Location resolves the upstream timezone, falling back to UTC on a bad name.
func (c UpstreamConfig) Location() *time.Location {
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return time.UTC
	}
	return loc
}
