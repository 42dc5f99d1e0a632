package safety

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"os"
	"regexp"
	"strings"
)

// LinearModel is a TF-IDF + logistic regression classifier exported from the
// offline training job as JSON.
type LinearModel struct {
	ClassLabels []string       `json:"classes"`
	NgramMin    int            `json:"ngram_min"`
	NgramMax    int            `json:"ngram_max"`
	Vocabulary  map[string]int `json:"vocabulary"`
	IDF         []float64      `json:"idf"`
	Coef        []float64      `json:"coef"`
	Intercept   float64        `json:"intercept"`
	SublinearTF bool           `json:"sublinear_tf"`
}

var tokenRegex = regexp.MustCompile(`\b\w\w+\b`)

// Load reads a model artifact. A missing file is not an error: it returns
// (nil, nil) and callers run without a classifier.
func Load(path string) (*LinearModel, error) {
	if path == "" {
		return nil, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("reading safety model: %w", err)
	}

	var m LinearModel
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("parsing safety model: %w", err)
	}
	if err := m.validate(); err != nil {
		return nil, fmt.Errorf("invalid safety model %s: %w", path, err)
	}

	return &m, nil
}

func (m *LinearModel) validate() error {
	if len(m.ClassLabels) != 2 {
		return fmt.Errorf("expected 2 classes, got %d", len(m.ClassLabels))
	}
	if len(m.IDF) != len(m.Coef) {
		return fmt.Errorf("idf has %d weights, coef has %d", len(m.IDF), len(m.Coef))
	}
	for term, idx := range m.Vocabulary {
		if idx < 0 || idx >= len(m.Coef) {
			return fmt.Errorf("term %q index %d out of range", term, idx)
		}
	}
	if m.NgramMin <= 0 {
		m.NgramMin = 1
	}
	if m.NgramMax < m.NgramMin {
		m.NgramMax = m.NgramMin
	}
	return nil
}

// Classes implements Model.
func (m *LinearModel) Classes() []string {
	return m.ClassLabels
}

// PredictProba implements Model. The second class is the positive class of
// the logistic regression, matching the training library's convention.
func (m *LinearModel) PredictProba(text string) ([]float64, error) {
	features := m.vectorize(text)

	z := m.Intercept
	for idx, v := range features {
		z += m.Coef[idx] * v
	}

	p := 1 / (1 + math.Exp(-z))
	return []float64{1 - p, p}, nil
}

// vectorize returns the L2-normalised TF-IDF vector as a sparse map.
func (m *LinearModel) vectorize(text string) map[int]float64 {
	tokens := tokenRegex.FindAllString(strings.ToLower(text), -1)

	counts := make(map[int]float64)
	for n := m.NgramMin; n <= m.NgramMax; n++ {
		for i := 0; i+n <= len(tokens); i++ {
			term := strings.Join(tokens[i:i+n], " ")
			if idx, ok := m.Vocabulary[term]; ok {
				counts[idx]++
			}
		}
	}

	var norm float64
	for idx, tf := range counts {
		if m.SublinearTF {
			tf = 1 + math.Log(tf)
		}
		v := tf * m.IDF[idx]
		counts[idx] = v
		norm += v * v
	}

	if norm > 0 {
		norm = math.Sqrt(norm)
		for idx := range counts {
			counts[idx] /= norm
		}
	}
	return counts
}
