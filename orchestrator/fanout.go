// Package orchestrator provides the concurrency primitives behind batch
// enrichment: bounded fan-out over a chunk of articles and recurring
// background jobs.
package orchestrator

import (
	"context"
	"sync"
)

// Result pairs one input's output with its error.
type Result[Out any] struct {
	Value Out
	Err   error
}

// FanOut runs fn over every input, at most limit at a time, and returns the
// results in input order. Inputs that have not started when ctx is cancelled
// fail with the context error instead of blocking.
func FanOut[In, Out any](ctx context.Context, limit int, inputs []In, fn func(ctx context.Context, in In) (Out, error)) []Result[Out] {
	if len(inputs) == 0 {
		return nil
	}
	if limit <= 0 || limit > len(inputs) {
		limit = len(inputs)
	}

	results := make([]Result[Out], len(inputs))
	sem := make(chan struct{}, limit)

	var wg sync.WaitGroup
	for i, input := range inputs {
		wg.Add(1)
		go func(idx int, in In) {
			defer wg.Done()

			select {
			case sem <- struct{}{}:
				defer func() { <-sem }()
			case <-ctx.Done():
				results[idx] = Result[Out]{Err: ctx.Err()}
				return
			}
			if ctx.Err() != nil {
				results[idx] = Result[Out]{Err: ctx.Err()}
				return
			}

			out, err := fn(ctx, in)
			results[idx] = Result[Out]{Value: out, Err: err}
		}(i, input)
	}

	wg.Wait()
	return results
}
