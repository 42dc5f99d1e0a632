package recommend

import (
	"context"

	"github.com/justestif/go-wellness-mood/internal/mood"
)

// Catalog is a fixed list of links per mood.
type Catalog map[mood.Label][]string

// DefaultCatalog returns the built-in links. Every label has at least one.
func DefaultCatalog() Catalog {
	return Catalog{
		mood.Happy: {
			"https://open.spotify.com/track/4uLU6hMCjMI75M1A2tKUQC",
			"https://open.spotify.com/playlist/37i9dQZF1DXdPec7aLTmlC",
		},
		mood.Sad: {
			"https://open.spotify.com/track/1lDWb6b6ieDQ2xT7ewTC3G",
			"https://open.spotify.com/playlist/37i9dQZF1DWSqBruwoIXjL",
		},
		mood.Anxious: {
			"https://open.spotify.com/playlist/37i9dQZF1DWUvQoIOFMFUT",
			"https://open.spotify.com/track/2XWjPtKdi5sucFYtVav07d",
		},
		mood.Angry: {
			"https://open.spotify.com/track/2Rk4JlNc2TPmZe2af99d45",
			"https://open.spotify.com/track/1Je1IMUlBXcx1Fz0WE7oPT",
		},
		mood.Fearful: {
			"https://open.spotify.com/track/6habFhsOp2NvshLv26DqMb",
			"https://open.spotify.com/playlist/37i9dQZF1DWZrc3MTCkPzn",
		},
		mood.Urgent: {
			"https://open.spotify.com/track/3VlbOrM6nYPprVvzBZllE5",
		},
		mood.Neutral: {
			"https://open.spotify.com/track/3AJwUDP919kvQ9QcozQPxg",
			"https://open.spotify.com/track/6QgjcU0zLnzq5OrUoSZ3OK",
		},
	}
}

// Name implements Source.
func (Catalog) Name() string { return "static" }

// Candidates implements Source. Labels without entries use the Neutral list.
func (c Catalog) Candidates(_ context.Context, label mood.Label) ([]string, error) {
	if urls := c[label]; len(urls) > 0 {
		return urls, nil
	}
	return c[mood.Neutral], nil
}
