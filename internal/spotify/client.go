// Package spotify provides a wrapper around the Spotify Web API for finding
// mood playlists with app-only credentials.
package spotify

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/zmb3/spotify/v2"
	spotifyauth "github.com/zmb3/spotify/v2/auth"
	"golang.org/x/oauth2/clientcredentials"
)

// ErrMissingCredentials is returned when SPOTIFY_ID or SPOTIFY_SECRET is not set.
var ErrMissingCredentials = errors.New("missing SPOTIFY_ID or SPOTIFY_SECRET")

// Client wraps the Spotify API client with convenience methods.
type Client struct {
	api *spotify.Client
}

// New creates a new Spotify client wrapper.
// The underlying client should already be authenticated.
func New(api *spotify.Client) *Client {
	return &Client{api: api}
}

// NewWithCredentials authenticates with the client credentials flow. No user
// is involved, so only public catalog endpoints are available.
func NewWithCredentials(ctx context.Context, clientID, clientSecret string, opts ...spotify.ClientOption) (*Client, error) {
	if clientID == "" || clientSecret == "" {
		return nil, ErrMissingCredentials
	}

	cfg := &clientcredentials.Config{
		ClientID:     clientID,
		ClientSecret: clientSecret,
		TokenURL:     spotifyauth.TokenURL,
	}

	return New(spotify.New(cfg.Client(ctx), opts...)), nil
}

// SearchPlaylists returns up to limit public playlists matching query.
// Playlists without a web link are skipped.
func (c *Client) SearchPlaylists(ctx context.Context, query string, limit int) ([]Playlist, error) {
	if limit <= 0 {
		limit = DefaultSearchLimit
	}

	result, err := c.api.Search(ctx, query, spotify.SearchTypePlaylist, spotify.Limit(limit))
	if err != nil {
		return nil, fmt.Errorf("searching playlists: %w", err)
	}
	if result.Playlists == nil {
		return []Playlist{}, nil
	}

	playlists := make([]Playlist, 0, len(result.Playlists.Playlists))
	for _, p := range result.Playlists.Playlists {
		if pl, ok := convertPlaylist(p); ok {
			playlists = append(playlists, pl)
		}
	}
	return playlists, nil
}

func convertPlaylist(p spotify.SimplePlaylist) (Playlist, bool) {
	url := strings.TrimSpace(p.ExternalURLs["spotify"])
	if url == "" {
		return Playlist{}, false
	}
	return Playlist{
		ID:   string(p.ID),
		Name: p.Name,
		URL:  url,
	}, true
}
