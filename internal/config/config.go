// Package config loads service configuration from the environment.
package config

import (
	"fmt"
	"time"

	"github.com/kelseyhightower/envconfig"
)

// Config is the process configuration. Field tags name the environment
// variables.
type Config struct {
	Addr string `envconfig:"ADDR" default:"127.0.0.1:8080"`

	SpotifyID      string `envconfig:"SPOTIFY_ID"`
	SpotifySecret  string `envconfig:"SPOTIFY_SECRET"`
	SpotifyBaseURL string `envconfig:"SPOTIFY_BASE_URL"`

	// CatalogRPS limits outbound catalog requests per second.
	CatalogRPS   float64 `envconfig:"CATALOG_RPS" default:"10"`
	CatalogBurst int     `envconfig:"CATALOG_BURST" default:"10"`

	// DatabaseURL enables the favorites store and the persisted genre cache.
	DatabaseURL string `envconfig:"DATABASE_URL"`

	// LastFMAPIKey enables the Last.fm genre fallback.
	LastFMAPIKey string `envconfig:"LASTFM_API_KEY"`

	// LocaleProfiles is an optional YAML file overriding the built-in table.
	LocaleProfiles string `envconfig:"LOCALE_PROFILES"`

	ImageCacheSize     int           `envconfig:"IMAGE_CACHE_SIZE" default:"10000"`
	ImageCacheTTL      time.Duration `envconfig:"IMAGE_CACHE_TTL" default:"1h"`
	ScoringConcurrency int           `envconfig:"SCORING_CONCURRENCY" default:"8"`
	RequestsPerMinute  int           `envconfig:"REQUESTS_PER_MINUTE" default:"120"`

	LogLevel  string `envconfig:"LOG_LEVEL" default:"info"`
	LogFormat string `envconfig:"LOG_FORMAT" default:"json"`
}

// Load reads the configuration from environment variables.
func Load() (Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return Config{}, fmt.Errorf("processing environment: %w", err)
	}
	return cfg, nil
}

// HasSpotifyCredentials reports whether both client credentials are set.
func (c Config) HasSpotifyCredentials() bool {
	return c.SpotifyID != "" && c.SpotifySecret != ""
}
