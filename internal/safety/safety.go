// Package safety scores text for self-harm risk with an optional, locally
// loaded classifier.
package safety

import (
	"fmt"
	"strings"

	"github.com/justestif/go-wellness-mood/internal/mood"
)

// DefaultThreshold is the flag-class probability at or above which text is
// flagged.
const DefaultThreshold = 0.5

// Model is a binary text classifier exposing per-class probabilities.
type Model interface {
	Classes() []string
	PredictProba(text string) ([]float64, error)
}

// Scorer turns a Model's output into a mood.Verdict. A nil Scorer, or one
// without a model, always reports mood.Unknown.
type Scorer struct {
	model     Model
	threshold float64
}

// NewScorer wraps m. m may be nil.
func NewScorer(m Model) *Scorer {
	return &Scorer{model: m, threshold: DefaultThreshold}
}

// Available reports whether a model is configured.
func (s *Scorer) Available() bool {
	return s != nil && s.model != nil
}

// Score returns the verdict and the probability of the flag class.
func (s *Scorer) Score(text string) (mood.Verdict, float64, error) {
	if !s.Available() {
		return mood.Unknown, 0, nil
	}

	proba, err := s.model.PredictProba(text)
	if err != nil {
		return mood.Unknown, 0, fmt.Errorf("predicting safety: %w", err)
	}

	classes := s.model.Classes()
	if len(classes) != len(proba) {
		return mood.Unknown, 0, fmt.Errorf("model returned %d probabilities for %d classes", len(proba), len(classes))
	}

	var flagScore float64
	for i, cls := range classes {
		if IsFlagLabel(cls) {
			flagScore = proba[i]
		}
	}

	if flagScore >= s.threshold {
		return mood.Flag, flagScore, nil
	}
	return mood.Safe, flagScore, nil
}

// IsFlagLabel reports whether a classifier or fixture label denotes risk.
func IsFlagLabel(label string) bool {
	switch strings.ToLower(strings.TrimSpace(label)) {
	case "flag", "unsafe", "1", "true":
		return true
	}
	return false
}
