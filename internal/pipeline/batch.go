package pipeline

import (
	"context"
	"sync"

	"github.com/google/uuid"
)

// DefaultConcurrency is the number of inputs analyzed at once by AnalyzeBatch.
const DefaultConcurrency = 4

// WithConcurrency sets the AnalyzeBatch worker count.
func WithConcurrency(n int) Option {
	return func(p *Pipeline) {
		if n > 0 {
			p.concurrency = n
		}
	}
}

// BatchResult is the outcome for one input of a batch.
type BatchResult struct {
	ID     string
	Record Record
	Err    error // non-nil if this input failed
}

// AnalyzeBatch runs Analyze on every text with a bounded worker pool.
// Results are returned in input order. Per-input failures are reported in
// BatchResult.Err rather than failing the batch.
func (p *Pipeline) AnalyzeBatch(ctx context.Context, texts []string) ([]BatchResult, error) {
	if len(texts) == 0 {
		return []BatchResult{}, nil
	}

	results := make([]BatchResult, len(texts))

	type workItem struct {
		index int
		text  string
	}
	workCh := make(chan workItem, len(texts))
	for i, t := range texts {
		workCh <- workItem{index: i, text: t}
	}
	close(workCh)

	var wg sync.WaitGroup
	for i := 0; i < min(p.concurrency, len(texts)); i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for work := range workCh {
				id := uuid.NewString()

				if err := ctx.Err(); err != nil {
					results[work.index] = BatchResult{ID: id, Err: err}
					continue
				}

				rec, err := p.Analyze(ctx, work.text)
				results[work.index] = BatchResult{ID: id, Record: rec, Err: err}
			}
		}()
	}

	wg.Wait()

	if ctx.Err() != nil {
		return results, ctx.Err()
	}
	return results, nil
}
