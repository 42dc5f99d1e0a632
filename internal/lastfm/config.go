// Package lastfm provides Last.fm API integration for finding tracks by tag.
package lastfm

import "errors"

// ErrMissingAPIKey is returned when no API key is configured.
var ErrMissingAPIKey = errors.New("missing LASTFM_API_KEY")

// Config holds Last.fm API configuration.
type Config struct {
	APIKey string
}

// Validate reports ErrMissingAPIKey for an empty key.
func (c *Config) Validate() error {
	if c == nil || c.APIKey == "" {
		return ErrMissingAPIKey
	}
	return nil
}
