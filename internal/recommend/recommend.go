// Package recommend picks a music link for a mood from a chain of sources,
// ending with a built-in catalog that cannot fail.
package recommend

import (
	"context"
	"log/slog"

	"github.com/justestif/go-wellness-mood/internal/mood"
	"github.com/justestif/go-wellness-mood/internal/pick"
)

// Source lists candidate links for a mood.
type Source interface {
	Name() string
	Candidates(ctx context.Context, label mood.Label) ([]string, error)
}

// Recommender tries each source in order and picks uniformly among the first
// non-empty candidate list.
type Recommender struct {
	sources []Source
	catalog Catalog
	cache   *Cache
	picker  pick.Source
	logger  *slog.Logger
}

// Option configures a Recommender.
type Option func(*Recommender)

// WithSources sets the remote sources, tried before the catalog.
func WithSources(sources ...Source) Option {
	return func(r *Recommender) {
		r.sources = append(r.sources, sources...)
	}
}

// WithCache caches remote source results.
func WithCache(c *Cache) Option {
	return func(r *Recommender) {
		r.cache = c
	}
}

// WithCatalog replaces the built-in catalog.
func WithCatalog(c Catalog) Option {
	return func(r *Recommender) {
		if len(c) > 0 {
			r.catalog = c
		}
	}
}

// WithPicker sets the random source.
func WithPicker(src pick.Source) Option {
	return func(r *Recommender) {
		if src != nil {
			r.picker = src
		}
	}
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(r *Recommender) {
		if l != nil {
			r.logger = l
		}
	}
}

// New creates a Recommender. Without options it only uses DefaultCatalog.
func New(opts ...Option) *Recommender {
	r := &Recommender{
		catalog: DefaultCatalog(),
		picker:  pick.Default(),
		logger:  slog.Default(),
	}
	for _, opt := range opts {
		opt(r)
	}
	if r.cache != nil {
		for i, s := range r.sources {
			r.sources[i] = cachedSource{Source: s, cache: r.cache}
		}
	}
	r.logger = r.logger.With("system", "recommend")
	return r
}

// Recommend returns one link for label. Unknown labels are treated as Neutral.
func (r *Recommender) Recommend(ctx context.Context, label mood.Label) string {
	if !label.Valid() {
		label = mood.Neutral
	}

	for _, s := range r.sources {
		urls, err := s.Candidates(ctx, label)
		if err != nil {
			r.logger.Warn("recommendation source failed", "source", s.Name(), "mood", label, "error", err)
			continue
		}
		if url, ok := pick.One(r.picker, urls); ok {
			return url
		}
	}

	urls, _ := r.catalog.Candidates(ctx, label)
	if url, ok := pick.One(r.picker, urls); ok {
		return url
	}

	// Only reachable with a custom catalog lacking the label and Neutral.
	url, _ := pick.One(r.picker, DefaultCatalog()[mood.Neutral])
	return url
}
