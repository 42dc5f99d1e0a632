// Package pipeline turns free text into a moderated mood record. It runs the
// urgent-phrase check, the local safety classifier, and the remote model in a
// fixed order, and falls back to keyword heuristics and the static corpus
// only when the configuration allows it.
package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/justestif/go-wellness-mood/internal/corpus"
	"github.com/justestif/go-wellness-mood/internal/mood"
	"github.com/justestif/go-wellness-mood/internal/pick"
	"github.com/justestif/go-wellness-mood/internal/recommend"
	"github.com/justestif/go-wellness-mood/internal/redact"
	"github.com/justestif/go-wellness-mood/internal/vertex"
)

// Fixed messages.
const (
	CrisisMessage = "It sounds like you're going through a lot. Please reach out to a trusted " +
		"person or crisis line right now. You are not alone."
	DefaultAffirmation = "Thank you for sharing. Remember to be kind to yourself today."
)

// MaxAffirmationWords bounds affirmation length; longer text is cut and
// suffixed with "...".
const MaxAffirmationWords = 60

// Config is read once at startup and never mutated.
type Config struct {
	Project       string
	Location      string
	ModelID       string
	AllowFallback bool
}

// Generator produces a raw reply for a prompt.
type Generator interface {
	Generate(ctx context.Context, prompt string) (*vertex.Response, error)
}

// SafetyScorer rates text for self-harm risk.
type SafetyScorer interface {
	Score(text string) (mood.Verdict, float64, error)
}

// Recommender picks a recommendation URL for a mood. It cannot fail.
type Recommender interface {
	Recommend(ctx context.Context, label mood.Label) string
}

// Record is the final response for one input.
type Record struct {
	Text        string       `json:"text"`
	Mood        mood.Label   `json:"mood_bucket"`
	Affirmation string       `json:"affirmation"`
	Safety      mood.Verdict `json:"safety_flag"`
	PlaylistURL string       `json:"playlist_url"`
}

// Pipeline holds only immutable collaborators and is safe for concurrent use.
type Pipeline struct {
	cfg         Config
	generator   Generator
	safety      SafetyScorer
	corpus      *corpus.Corpus
	recommender Recommender
	picker      pick.Source
	logger      *slog.Logger
	concurrency int
}

// Option configures a Pipeline.
type Option func(*Pipeline)

// WithGenerator sets the remote model. Without one, every remote step is
// treated as failed.
func WithGenerator(g Generator) Option {
	return func(p *Pipeline) {
		p.generator = g
	}
}

// WithSafety sets the local safety classifier.
func WithSafety(s SafetyScorer) Option {
	return func(p *Pipeline) {
		p.safety = s
	}
}

// WithCorpus sets the static affirmation corpus.
func WithCorpus(c *corpus.Corpus) Option {
	return func(p *Pipeline) {
		p.corpus = c
	}
}

// WithRecommender replaces the static recommendation catalog.
func WithRecommender(r Recommender) Option {
	return func(p *Pipeline) {
		if r != nil {
			p.recommender = r
		}
	}
}

// WithPicker sets the random source for corpus sampling.
func WithPicker(src pick.Source) Option {
	return func(p *Pipeline) {
		if src != nil {
			p.picker = src
		}
	}
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(p *Pipeline) {
		if l != nil {
			p.logger = l
		}
	}
}

// New creates a Pipeline.
func New(cfg Config, opts ...Option) *Pipeline {
	p := &Pipeline{
		cfg:         cfg,
		picker:      pick.Default(),
		logger:      slog.Default(),
		concurrency: DefaultConcurrency,
	}
	for _, opt := range opts {
		opt(p)
	}
	if p.recommender == nil {
		p.recommender = recommend.New(recommend.WithPicker(p.picker))
	}
	p.logger = p.logger.With("system", "pipeline")
	return p
}

// Config returns the pipeline configuration.
func (p *Pipeline) Config() Config {
	return p.cfg
}

// HasGenerator reports whether a remote model is wired in.
func (p *Pipeline) HasGenerator() bool {
	return p.generator != nil
}

// HasSafety reports whether a safety classifier is wired in.
func (p *Pipeline) HasSafety() bool {
	if s, ok := p.safety.(interface{ Available() bool }); ok {
		return s.Available()
	}
	return p.safety != nil
}

// ClassifyMood returns one mood label for text.
//
// Empty text is Neutral and urgent phrases are Urgent, both without any
// external call. A flag from the safety classifier also yields Urgent. The
// remote model is consulted next; if it fails and fallback is allowed, the
// keyword heuristics decide, otherwise the failure is returned.
func (p *Pipeline) ClassifyMood(ctx context.Context, text string) (mood.Label, error) {
	if strings.TrimSpace(text) == "" {
		return mood.Neutral, nil
	}
	if mood.IsUrgent(text) {
		return mood.Urgent, nil
	}

	if p.safety != nil {
		verdict, score, err := p.safety.Score(text)
		if err != nil {
			p.logger.Warn("safety classifier failed", "error", err)
		} else if verdict.Flagged() {
			p.logger.Info("safety classifier flagged text", "score", score)
			return mood.Urgent, nil
		}
	}

	label, err := p.classifyRemote(ctx, text)
	if err == nil {
		return label, nil
	}

	p.logger.Error("mood classification failed",
		"error", err,
		"fallback", p.cfg.AllowFallback,
		"text", redact.Preview(text, 40),
	)
	if !p.cfg.AllowFallback {
		return "", err
	}
	return mood.Heuristic(text), nil
}

func (p *Pipeline) classifyRemote(ctx context.Context, text string) (mood.Label, error) {
	reply, err := p.generate(ctx, moodPrompt(redact.Text(text)))
	if err != nil {
		return "", err
	}

	label, ok := mood.Match(reply)
	if !ok {
		return "", fmt.Errorf("%w: no mood label in reply %q", ErrRemoteCall, redact.Preview(reply, 40))
	}
	return label, nil
}

// GenerateAffirmation returns a short supportive message and its verdict.
//
// Urgent text or an Urgent mood always yields CrisisMessage with mood.Flag
// and never reaches the remote model. Empty text yields DefaultAffirmation.
func (p *Pipeline) GenerateAffirmation(ctx context.Context, text string, label mood.Label) (string, mood.Verdict, error) {
	if label == mood.Urgent || mood.IsUrgent(text) {
		return CrisisMessage, mood.Flag, nil
	}
	if strings.TrimSpace(text) == "" {
		return DefaultAffirmation, mood.Safe, nil
	}

	reply, err := p.generate(ctx, affirmationPrompt(redact.Text(text), label))
	if err == nil {
		out := Truncate(firstLine(reply), MaxAffirmationWords)
		if mood.IsUrgent(out) {
			return CrisisMessage, mood.Flag, nil
		}
		return out, mood.Safe, nil
	}

	p.logger.Error("affirmation generation failed",
		"error", err,
		"fallback", p.cfg.AllowFallback,
		"mood", label,
	)
	if !p.cfg.AllowFallback {
		return "", "", err
	}

	affirmation, verdict := p.fromCorpus(label)
	return affirmation, verdict, nil
}

func (p *Pipeline) fromCorpus(label mood.Label) (string, mood.Verdict) {
	row, ok := p.corpus.Pick(label, p.picker)
	if !ok {
		p.logger.Warn("static corpus unavailable, using default affirmation", "mood", label)
		return DefaultAffirmation, mood.Safe
	}
	if row.Flagged {
		return CrisisMessage, mood.Flag
	}
	if strings.TrimSpace(row.Text) == "" {
		return DefaultAffirmation, mood.Safe
	}
	return Truncate(row.Text, MaxAffirmationWords), mood.Safe
}

// generate calls the model and extracts its text.
func (p *Pipeline) generate(ctx context.Context, prompt string) (string, error) {
	if p.generator == nil {
		return "", ErrConfiguration
	}

	resp, err := p.generator.Generate(ctx, prompt)
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrRemoteCall, err)
	}

	text, ok := resp.Text()
	if !ok {
		if reasons := resp.FinishReasons(); len(reasons) > 0 {
			return "", fmt.Errorf("%w: finish reason %s", ErrNoUsableResponse, strings.Join(reasons, ", "))
		}
		return "", ErrNoUsableResponse
	}
	return text, nil
}

// Assemble builds the final record. Any verdict other than flag is reported
// as safe. Empty text takes its playlist from the static catalog.
func (p *Pipeline) Assemble(ctx context.Context, text string, label mood.Label, affirmation string, verdict mood.Verdict) Record {
	if !label.Valid() {
		label = mood.Neutral
	}
	if verdict != mood.Flag {
		verdict = mood.Safe
	}
	return Record{
		Text:        text,
		Mood:        label,
		Affirmation: affirmation,
		Safety:      verdict,
		PlaylistURL: p.playlist(ctx, text, label),
	}
}

// playlist recommends a URL for label. Empty input never reaches the remote
// sources and is served from the static catalog.
func (p *Pipeline) playlist(ctx context.Context, text string, label mood.Label) string {
	if strings.TrimSpace(text) == "" {
		urls, _ := recommend.DefaultCatalog().Candidates(ctx, label)
		if url, ok := pick.One(p.picker, urls); ok {
			return url
		}
	}
	return p.recommender.Recommend(ctx, label)
}

// Analyze runs classification, affirmation generation, and assembly.
func (p *Pipeline) Analyze(ctx context.Context, text string) (Record, error) {
	label, err := p.ClassifyMood(ctx, text)
	if err != nil {
		return Record{}, fmt.Errorf("classifying mood: %w", err)
	}

	affirmation, verdict, err := p.GenerateAffirmation(ctx, text, label)
	if err != nil {
		return Record{}, fmt.Errorf("generating affirmation: %w", err)
	}

	rec := p.Assemble(ctx, text, label, affirmation, verdict)
	p.logger.Debug("analyzed", "mood", rec.Mood, "safety", rec.Safety)
	return rec, nil
}

func firstLine(s string) string {
	s = strings.TrimSpace(s)
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		s = s[:i]
	}
	return strings.TrimSpace(s)
}

// Truncate keeps at most n words of s, appending "..." when words were cut.
func Truncate(s string, n int) string {
	words := strings.Fields(s)
	if len(words) <= n {
		return strings.TrimSpace(s)
	}
	return strings.Join(words[:n], " ") + "..."
}
