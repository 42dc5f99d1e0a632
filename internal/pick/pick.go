// Package pick isolates random selection so callers can inject determinism.
package pick

import (
	"math/rand/v2"
	"sync"
)

// Source chooses an index in [0, n).
type Source interface {
	Intn(n int) int
}

// One returns a uniformly chosen element of items. It reports false for an
// empty slice.
func One[T any](src Source, items []T) (T, bool) {
	var zero T
	if len(items) == 0 {
		return zero, false
	}
	if src == nil {
		src = Default()
	}
	return items[src.Intn(len(items))], true
}

type globalSource struct{}

func (globalSource) Intn(n int) int {
	return rand.IntN(n)
}

// Default returns a Source backed by the runtime's global generator.
func Default() Source {
	return globalSource{}
}

// Seeded is a reproducible Source safe for concurrent use.
type Seeded struct {
	mu  sync.Mutex
	rng *rand.Rand
}

// NewSeeded returns a Source that yields the same sequence for the same seed.
func NewSeeded(seed uint64) *Seeded {
	return &Seeded{rng: rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))}
}

// Intn implements Source.
func (s *Seeded) Intn(n int) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.rng.IntN(n)
}

// Fixed always returns the same index, clamped to the slice length. Useful in
// tests.
type Fixed int

// Intn implements Source.
func (f Fixed) Intn(n int) int {
	i := int(f)
	if i < 0 {
		return 0
	}
	if i >= n {
		return n - 1
	}
	return i
}
