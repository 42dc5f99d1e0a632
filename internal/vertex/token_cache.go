package vertex

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"golang.org/x/oauth2"
)

// TokenCache persists an access token on disk so short-lived CLI runs can
// reuse it instead of minting a new one per invocation.
type TokenCache struct {
	path string
}

// NewTokenCache creates a TokenCache backed by path.
func NewTokenCache(path string) *TokenCache {
	return &TokenCache{path: path}
}

// Load reads a cached token from disk.
// Returns (nil, nil) if the token file does not exist.
func (c *TokenCache) Load() (*oauth2.Token, error) {
	data, err := os.ReadFile(c.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("reading token file: %w", err)
	}

	var token oauth2.Token
	if err := json.Unmarshal(data, &token); err != nil {
		return nil, fmt.Errorf("parsing token file: %w", err)
	}

	return &token, nil
}

// Save writes the token to disk, creating the parent directory if needed.
func (c *TokenCache) Save(token *oauth2.Token) error {
	if token == nil {
		return errors.New("cannot save nil token")
	}

	if err := os.MkdirAll(filepath.Dir(c.path), 0700); err != nil {
		return fmt.Errorf("creating token directory: %w", err)
	}

	data, err := json.Marshal(token)
	if err != nil {
		return fmt.Errorf("encoding token: %w", err)
	}

	if err := os.WriteFile(c.path, data, 0600); err != nil {
		return fmt.Errorf("writing token file: %w", err)
	}

	return nil
}

// cachedTokenSource serves a still-valid cached token, otherwise fetches
// from base and writes the result back.
type cachedTokenSource struct {
	base  oauth2.TokenSource
	cache *TokenCache

	mu      sync.Mutex
	current *oauth2.Token
}

// CachedTokenSource wraps base with a disk-backed cache.
func CachedTokenSource(base oauth2.TokenSource, cache *TokenCache) oauth2.TokenSource {
	return &cachedTokenSource{base: base, cache: cache}
}

func (s *cachedTokenSource) Token() (*oauth2.Token, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.current.Valid() {
		return s.current, nil
	}

	if cached, err := s.cache.Load(); err == nil && cached.Valid() {
		s.current = cached
		return cached, nil
	}

	token, err := s.base.Token()
	if err != nil {
		return nil, err
	}
	s.current = token

	// A failed write only costs a refetch next run.
	_ = s.cache.Save(token)

	return token, nil
}
