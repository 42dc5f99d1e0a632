package recommend

import (
	"context"

	"github.com/justestif/go-wellness-mood/internal/lastfm"
	"github.com/justestif/go-wellness-mood/internal/mood"
	"github.com/justestif/go-wellness-mood/internal/spotify"
)

// searchQueries are the Spotify playlist searches per mood.
var searchQueries = map[mood.Label]string{
	mood.Happy:   "happy hits",
	mood.Sad:     "comforting sad songs",
	mood.Anxious: "calm anxiety relief",
	mood.Angry:   "anger release",
	mood.Fearful: "reassuring calm",
	mood.Urgent:  "peaceful piano",
	mood.Neutral: "feel good chill",
}

// lastfmTags are the Last.fm tags per mood.
var lastfmTags = map[mood.Label]string{
	mood.Happy:   "happy",
	mood.Sad:     "sad",
	mood.Anxious: "relaxing",
	mood.Angry:   "angry",
	mood.Fearful: "calm",
	mood.Urgent:  "soothing",
	mood.Neutral: "chill",
}

// PlaylistSearcher is the subset of the Spotify client used here.
type PlaylistSearcher interface {
	SearchPlaylists(ctx context.Context, query string, limit int) ([]spotify.Playlist, error)
}

// SpotifySource finds playlists by mood keyword search.
type SpotifySource struct {
	client PlaylistSearcher
	limit  int
}

// NewSpotifySource creates a SpotifySource returning up to limit playlists.
func NewSpotifySource(client PlaylistSearcher, limit int) *SpotifySource {
	return &SpotifySource{client: client, limit: limit}
}

// Name implements Source.
func (s *SpotifySource) Name() string { return "spotify" }

// Candidates implements Source.
func (s *SpotifySource) Candidates(ctx context.Context, label mood.Label) ([]string, error) {
	query, ok := searchQueries[label]
	if !ok {
		query = searchQueries[mood.Neutral]
	}

	playlists, err := s.client.SearchPlaylists(ctx, query, s.limit)
	if err != nil {
		return nil, err
	}

	urls := make([]string, 0, len(playlists))
	for _, p := range playlists {
		urls = append(urls, p.URL)
	}
	return urls, nil
}

// TrackFetcher is the subset of the Last.fm client used here.
type TrackFetcher interface {
	TopTracks(ctx context.Context, tag string, limit int) ([]lastfm.Track, error)
}

// LastFMSource finds tracks listed under a mood tag.
type LastFMSource struct {
	client TrackFetcher
	limit  int
}

// NewLastFMSource creates a LastFMSource returning up to limit tracks.
func NewLastFMSource(client TrackFetcher, limit int) *LastFMSource {
	return &LastFMSource{client: client, limit: limit}
}

// Name implements Source.
func (s *LastFMSource) Name() string { return "lastfm" }

// Candidates implements Source.
func (s *LastFMSource) Candidates(ctx context.Context, label mood.Label) ([]string, error) {
	tag, ok := lastfmTags[label]
	if !ok {
		tag = lastfmTags[mood.Neutral]
	}

	tracks, err := s.client.TopTracks(ctx, tag, s.limit)
	if err != nil {
		return nil, err
	}

	urls := make([]string, 0, len(tracks))
	for _, t := range tracks {
		urls = append(urls, t.URL)
	}
	return urls, nil
}
