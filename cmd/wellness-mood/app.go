package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/justestif/go-wellness-mood/internal/checkins"
	"github.com/justestif/go-wellness-mood/internal/config"
	"github.com/justestif/go-wellness-mood/internal/corpus"
	"github.com/justestif/go-wellness-mood/internal/db"
	"github.com/justestif/go-wellness-mood/internal/lastfm"
	"github.com/justestif/go-wellness-mood/internal/pick"
	"github.com/justestif/go-wellness-mood/internal/pipeline"
	"github.com/justestif/go-wellness-mood/internal/recommend"
	"github.com/justestif/go-wellness-mood/internal/safety"
	"github.com/justestif/go-wellness-mood/internal/spotify"
	"github.com/justestif/go-wellness-mood/internal/vertex"
)

const (
	recommendLimit = 10
	connectTimeout = 5 * time.Second
)

// errVertexInit is returned when the model client cannot be built and
// fallback is disabled.
var errVertexInit = errors.New("vertex init failed")

// app holds the wired components for one process.
type app struct {
	pipeline *pipeline.Pipeline
	checkins *checkins.Service
	logger   *slog.Logger

	database *db.DB
	redis    *redis.Client
}

func newLogger(level string) (*slog.Logger, error) {
	lvl, err := config.ParseLevel(level)
	if err != nil {
		return nil, err
	}
	logger := slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: lvl}))
	slog.SetDefault(logger)
	return logger, nil
}

func newApp(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*app, error) {
	a := &app{logger: logger}

	picker := pick.Default()
	if seed := cfg.Pipeline.RandomSeed; seed != nil {
		picker = pick.NewSeeded(uint64(*seed))
	}

	opts := []pipeline.Option{
		pipeline.WithLogger(logger),
		pipeline.WithPicker(picker),
		pipeline.WithConcurrency(cfg.Pipeline.BatchConcurrency),
	}

	client, err := vertex.New(ctx, vertex.Config{
		Project:         cfg.Vertex.Project,
		Location:        cfg.Vertex.Location,
		Model:           cfg.Vertex.ModelID,
		BaseURL:         cfg.Vertex.BaseURL,
		Timeout:         cfg.Vertex.Timeout,
		TokenCachePath:  cfg.Vertex.TokenCachePath,
		MaxOutputTokens: cfg.Vertex.MaxOutputTokens,
		Temperature:     cfg.Vertex.Temperature,
	})
	switch {
	case err == nil:
		opts = append(opts, pipeline.WithGenerator(client))
	case cfg.Pipeline.AllowFallback:
		logger.Warn("vertex unavailable, running fallback only", "error", err)
	default:
		return nil, fmt.Errorf("%w: %w", errVertexInit, err)
	}

	model, err := safety.Load(cfg.Pipeline.SafetyModelPath)
	if err != nil {
		logger.Warn("safety model not loaded", "path", cfg.Pipeline.SafetyModelPath, "error", err)
	}
	if model != nil {
		opts = append(opts, pipeline.WithSafety(safety.NewScorer(model)))
	}

	c, err := corpus.Load(cfg.Pipeline.MoodsCSV, cfg.Pipeline.AffirmationsCSV, logger)
	if err != nil {
		logger.Warn("corpus not loaded", "error", err)
	}
	opts = append(opts, pipeline.WithCorpus(c))

	recOpts := []recommend.Option{
		recommend.WithPicker(picker),
		recommend.WithLogger(logger),
		recommend.WithSources(musicSources(ctx, cfg.Music, logger)...),
	}
	if rdb := a.connectRedis(ctx, cfg.Storage.RedisURL); rdb != nil {
		recOpts = append(recOpts, recommend.WithCache(recommend.NewCache(rdb, cfg.Storage.CacheTTL)))
	}
	opts = append(opts, pipeline.WithRecommender(recommend.New(recOpts...)))

	p := pipeline.New(pipeline.Config{
		Project:       cfg.Vertex.Project,
		Location:      cfg.Vertex.Location,
		ModelID:       cfg.Vertex.ModelID,
		AllowFallback: cfg.Pipeline.AllowFallback,
	}, opts...)

	store, err := a.checkinStore(ctx, cfg.Storage.DatabaseURL)
	if err != nil {
		a.Close()
		return nil, err
	}

	a.pipeline = p
	a.checkins = checkins.New(p, store, cfg.Helplines)
	return a, nil
}

// musicSources returns the remote recommendation sources that have
// credentials configured, in priority order.
func musicSources(ctx context.Context, cfg config.MusicConfig, logger *slog.Logger) []recommend.Source {
	var sources []recommend.Source

	if sp, err := spotify.NewWithCredentials(ctx, cfg.SpotifyID, cfg.SpotifySecret); err == nil {
		sources = append(sources, recommend.NewSpotifySource(sp, recommendLimit))
	} else if !errors.Is(err, spotify.ErrMissingCredentials) {
		logger.Warn("spotify source disabled", "error", err)
	}

	if fm, err := lastfm.NewClient(&lastfm.Config{APIKey: cfg.LastFMAPIKey}); err == nil {
		sources = append(sources, recommend.NewLastFMSource(fm, recommendLimit))
	} else if !errors.Is(err, lastfm.ErrMissingAPIKey) {
		logger.Warn("lastfm source disabled", "error", err)
	}

	return sources
}

// connectRedis returns nil when no URL is set or the server is unreachable.
func (a *app) connectRedis(ctx context.Context, url string) *redis.Client {
	if url == "" {
		return nil
	}

	opts, err := redis.ParseURL(url)
	if err != nil {
		a.logger.Warn("invalid REDIS_URL, cache disabled", "error", err)
		return nil
	}

	rdb := redis.NewClient(opts)
	pingCtx, cancel := context.WithTimeout(ctx, connectTimeout)
	defer cancel()
	if err := rdb.Ping(pingCtx).Err(); err != nil {
		a.logger.Warn("redis unreachable, cache disabled", "error", err)
		_ = rdb.Close()
		return nil
	}

	a.redis = rdb
	return rdb
}

// checkinStore uses Postgres when configured and memory otherwise.
func (a *app) checkinStore(ctx context.Context, url string) (checkins.Store, error) {
	if url == "" {
		a.logger.Info("DATABASE_URL not set, check-ins are kept in memory")
		return checkins.NewMemoryStore(), nil
	}

	connCtx, cancel := context.WithTimeout(ctx, connectTimeout)
	defer cancel()

	database, err := db.New(connCtx, url)
	if err != nil {
		return nil, fmt.Errorf("connecting to database: %w", err)
	}
	if err := database.Migrate(connCtx); err != nil {
		database.Close()
		return nil, fmt.Errorf("migrating database: %w", err)
	}

	a.database = database
	return database.Checkins(), nil
}

// Close releases storage connections.
func (a *app) Close() {
	if a.database != nil {
		a.database.Close()
	}
	if a.redis != nil {
		_ = a.redis.Close()
	}
}
