package spotify

// DefaultSearchLimit is used when a search is made without a limit.
const DefaultSearchLimit = 10

// Playlist is the subset of playlist metadata needed for recommendations.
type Playlist struct {
	ID   string
	Name string
	URL  string // open.spotify.com link
}
