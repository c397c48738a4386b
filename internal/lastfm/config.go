// Package lastfm provides Last.fm API integration for fetching artist tags.
package lastfm

import "errors"

// ErrMissingAPIKey is returned when LASTFM_API_KEY is not set.
var ErrMissingAPIKey = errors.New("missing LASTFM_API_KEY environment variable")

// Config holds Last.fm API configuration.
type Config struct {
	APIKey string
}

// NewConfig validates apiKey and returns a Config.
// Returns ErrMissingAPIKey if apiKey is empty.
func NewConfig(apiKey string) (*Config, error) {
	if apiKey == "" {
		return nil, ErrMissingAPIKey
	}
	return &Config{APIKey: apiKey}, nil
}
