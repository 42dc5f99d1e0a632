// Package checkins records analyzed mood check-ins and derives history,
// daily trends, and mood phases from them.
package checkins

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/google/uuid"

	"github.com/justestif/go-wellness-mood/internal/clustering"
	"github.com/justestif/go-wellness-mood/internal/config"
	"github.com/justestif/go-wellness-mood/internal/db"
	"github.com/justestif/go-wellness-mood/internal/mood"
	"github.com/justestif/go-wellness-mood/internal/pipeline"
)

// Limits for history queries.
const (
	DefaultLimit = 20
	MaxLimit     = 100
	TrendWindow  = 100
	MinTextRunes = 2
	DemoUserID   = "demo_user"
)

// ErrInvalidText is returned for check-ins shorter than MinTextRunes.
var ErrInvalidText = errors.New("text is required and must be at least 2 characters")

// Analyzer runs the mood pipeline.
type Analyzer interface {
	Analyze(ctx context.Context, text string) (pipeline.Record, error)
}

// Store persists check-ins.
type Store interface {
	Create(ctx context.Context, c *db.Checkin) error
	Get(ctx context.Context, id uuid.UUID) (*db.Checkin, error)
	ListForUser(ctx context.Context, userID string, limit int) ([]db.Checkin, error)
}

// Request is a new check-in.
type Request struct {
	UserID      string
	Text        string
	QuickEmojis []string
}

// Result is a stored check-in with its analysis.
type Result struct {
	Checkin   db.Checkin
	Record    pipeline.Record
	Helplines []config.Helpline // set only when the record is flagged
}

// Service handles check-in recording and aggregation.
type Service struct {
	analyzer  Analyzer
	store     Store
	helplines []config.Helpline
}

// New creates a check-in service.
func New(analyzer Analyzer, store Store, helplines []config.Helpline) *Service {
	return &Service{analyzer: analyzer, store: store, helplines: helplines}
}

// Record analyzes and stores a check-in.
func (s *Service) Record(ctx context.Context, req Request) (*Result, error) {
	text := strings.TrimSpace(req.Text)
	if utf8.RuneCountInString(text) < MinTextRunes {
		return nil, ErrInvalidText
	}

	rec, err := s.analyzer.Analyze(ctx, req.Text)
	if err != nil {
		return nil, err
	}

	c := db.Checkin{
		UserID:      userOrDemo(req.UserID),
		Text:        req.Text,
		QuickEmojis: req.QuickEmojis,
		Mood:        strings.ToLower(string(rec.Mood)),
		Affirmation: rec.Affirmation,
		SafetyFlag:  string(rec.Safety),
		PlaylistURL: rec.PlaylistURL,
	}
	if err := s.store.Create(ctx, &c); err != nil {
		return nil, fmt.Errorf("saving checkin: %w", err)
	}

	result := &Result{Checkin: c, Record: rec}
	if rec.Safety.Flagged() {
		result.Helplines = s.helplines
	}
	return result, nil
}

// Get returns one check-in. A missing or malformed id yields db.ErrNotFound.
func (s *Service) Get(ctx context.Context, id string) (*db.Checkin, error) {
	parsed, err := uuid.Parse(id)
	if err != nil {
		return nil, db.ErrNotFound
	}
	return s.store.Get(ctx, parsed)
}

// History returns a user's check-ins, newest first. limit is clamped to
// [1, MaxLimit]; zero or negative means DefaultLimit.
func (s *Service) History(ctx context.Context, userID string, limit int) ([]db.Checkin, error) {
	checkins, err := s.store.ListForUser(ctx, userOrDemo(userID), ClampLimit(limit))
	if err != nil {
		return nil, fmt.Errorf("listing checkins: %w", err)
	}
	if checkins == nil {
		checkins = []db.Checkin{}
	}
	return checkins, nil
}

// Trends returns per-day mood counts over the user's last TrendWindow
// check-ins.
func (s *Service) Trends(ctx context.Context, userID string) ([]DayCount, error) {
	checkins, err := s.store.ListForUser(ctx, userOrDemo(userID), TrendWindow)
	if err != nil {
		return nil, fmt.Errorf("listing checkins: %w", err)
	}
	return DailyCounts(checkins), nil
}

// PhasesResult contains the outcome of phase detection.
type PhasesResult struct {
	Phases   []clustering.Phase
	Outliers []clustering.Point
	Total    int
}

// Phases clusters the user's last TrendWindow check-ins into mood phases.
func (s *Service) Phases(ctx context.Context, userID string, cfg clustering.Config) (*PhasesResult, error) {
	checkins, err := s.store.ListForUser(ctx, userOrDemo(userID), TrendWindow)
	if err != nil {
		return nil, fmt.Errorf("listing checkins: %w", err)
	}

	points := make([]clustering.Point, len(checkins))
	for i, c := range checkins {
		points[i] = toPoint(c)
	}

	phases, outliers := clustering.DetectPhases(points, cfg)
	return &PhasesResult{
		Phases:   phases,
		Outliers: outliers,
		Total:    len(points),
	}, nil
}

// ClampLimit applies the history limit rules.
func ClampLimit(limit int) int {
	if limit <= 0 {
		return DefaultLimit
	}
	return min(limit, MaxLimit)
}

func userOrDemo(id string) string {
	if id = strings.TrimSpace(id); id != "" {
		return id
	}
	return DemoUserID
}

// toPoint converts a stored check-in to a clustering.Point.
func toPoint(c db.Checkin) clustering.Point {
	label, ok := mood.ParseLabel(c.Mood)
	if !ok {
		label = mood.Neutral
	}
	return clustering.Point{
		ID:   c.ID.String(),
		Mood: label,
		At:   c.CreatedAt,
	}
}
