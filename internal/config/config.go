package config

import (
	"fmt"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/kelseyhightower/envconfig"
)

// Config holds all configuration for both processes. Credentials, paths and
// tunables come from the environment; the interest watchlist lives in a TOML
// file so it can be edited without touching deployment env.
type Config struct {
	// RedditClientID and RedditClientSecret are the reddit application
	// credentials used for the app-only OAuth2 token exchange.
	RedditClientID     string `envconfig:"REDDIT_CLIENT_ID"`
	RedditClientSecret string `envconfig:"REDDIT_CLIENT_SECRET"`

	// UserAgent is sent on every upstream request; reddit rejects clients
	// without a descriptive one.
	UserAgent string `envconfig:"REDDIT_USER_AGENT" default:"reddit-monitor"`

	// DBPath is the SQLite database file of the primary store.
	DBPath string `envconfig:"DB_PATH" default:"monitoring.db"`

	// BackupDir holds the per-day CSV backup partitions.
	BackupDir string `envconfig:"BACKUP_DIR" default:"backups"`

	// WatchlistPath is the TOML file holding the interest subreddits/terms.
	WatchlistPath string `envconfig:"WATCHLIST_PATH" default:"watchlist.toml"`

	// DashboardAddr is the listen address of the read-side HTTP API.
	DashboardAddr string `envconfig:"DASHBOARD_ADDR" default:":8080"`

	// MetricsAddr is the monitor process's metrics/health listen address.
	MetricsAddr string `envconfig:"METRICS_ADDR" default:":9091"`

	// Timezone is the local zone the dashboard renders timestamps in,
	// alongside UTC.
	Timezone string `envconfig:"DASHBOARD_TZ" default:"Europe/Berlin"`

	// PollInterval is the delay between upstream listing polls on an idle
	// stream.
	PollInterval time.Duration `envconfig:"POLL_INTERVAL" default:"5s"`

	// StreamBackoff is the fixed delay between a stream failure and the
	// next reconnect attempt.
	StreamBackoff time.Duration `envconfig:"STREAM_BACKOFF" default:"10s"`

	// FetchLimit caps how many entries one dashboard read returns.
	FetchLimit int `envconfig:"FETCH_LIMIT" default:"1000"`

	Watchlist Watchlist `ignored:"true"`
}

// Watchlist is the interest profile: an item is kept when its subreddit is
// listed here or its text contains one of the terms.
type Watchlist struct {
	Subreddits []string `toml:"subreddits"`
	Terms      []string `toml:"terms"`
}

// Load reads the environment and the watchlist file.
func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("process environment: %w", err)
	}

	if _, err := toml.DecodeFile(cfg.WatchlistPath, &cfg.Watchlist); err != nil {
		return nil, fmt.Errorf("load watchlist %s: %w", cfg.WatchlistPath, err)
	}

	return &cfg, nil
}

// CheckCredentials reports whether the upstream credentials are present.
// The monitor process treats a failure here as fatal at startup; the
// dashboard never calls it.
func (c *Config) CheckCredentials() error {
	if c.RedditClientID == "" {
		return fmt.Errorf("REDDIT_CLIENT_ID is required")
	}
	if c.RedditClientSecret == "" {
		return fmt.Errorf("REDDIT_CLIENT_SECRET is required")
	}
	return nil
}

// Location resolves the configured dashboard timezone.
func (c *Config) Location() (*time.Location, error) {
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return nil, fmt.Errorf("invalid DASHBOARD_TZ %q: %w", c.Timezone, err)
	}
	return loc, nil
}
