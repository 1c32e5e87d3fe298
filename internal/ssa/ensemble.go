package ssa

import (
	"context"
	"sync"
)

// MetricFactory builds a fresh metric set for one run. Metrics are
// stateful, so ensemble members must not share instances.
type MetricFactory func() []Metric

// Ensemble runs many independent realizations of the same network
// concurrently, seeding run i with seedStart+i so the whole batch is
// reproducible from a single seed.
type Ensemble struct {
	base      *Engine
	numRuns   int
	seedStart int64
	metrics   MetricFactory
}

func NewEnsemble(e *Engine, numRuns int, seedStart int64) *Ensemble {
	return &Ensemble{base: e, numRuns: numRuns, seedStart: seedStart}
}

func (e *Ensemble) WithMetrics(factory MetricFactory) *Ensemble {
	e.metrics = factory
	return e
}

func (e *Ensemble) Run(ctx context.Context, x0 State, cfg Config) ([]*Result, error) {
	results := make([]*Result, e.numRuns)
	errs := make([]error, e.numRuns)

	var wg sync.WaitGroup
	for i := 0; i < e.numRuns; i++ {
		wg.Add(1)
		go func(idx int) {
			defer wg.Done()

			cfgCopy := cfg
			cfgCopy.Seed = e.seedStart + int64(idx)

			eng := New(e.base.reactions, e.base.rates)
			if e.metrics != nil {
				for _, m := range e.metrics() {
					eng.AddMetric(m)
				}
			}

			results[idx], errs[idx] = eng.Run(ctx, x0, cfgCopy)
		}(i)
	}

	wg.Wait()

	for _, err := range errs {
		if err != nil {
			return nil, err
		}
	}

	return results, nil
}
