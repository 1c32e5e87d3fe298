package ssa

import (
	"context"
	"fmt"
	"math/rand"

	"crnsim/internal/model"
)

type Engine struct {
	reactions *model.ReactionCollection
	rates     *model.RateExpressionCollection
	metrics   []Metric
	observers []Observer
}

func New(reactions *model.ReactionCollection, rates *model.RateExpressionCollection) *Engine {
	return &Engine{
		reactions: reactions,
		rates:     rates,
	}
}

func (e *Engine) AddMetric(m Metric)     { e.metrics = append(e.metrics, m) }
func (e *Engine) AddObserver(o Observer) { e.observers = append(e.observers, o) }

// Run simulates the jump process from x0 until the horizon, the step
// bound, absorption, or context cancellation, whichever comes first.
func (e *Engine) Run(ctx context.Context, x0 State, cfg Config) (*Result, error) {
	if err := e.validateConfig(cfg); err != nil {
		return nil, err
	}
	maxSteps := cfg.MaxSteps
	if maxSteps <= 0 {
		maxSteps = 10_000_000
	}
	recordEvery := cfg.RecordEvery
	if recordEvery <= 0 {
		recordEvery = 1
	}

	rng := rand.New(rand.NewSource(cfg.Seed))
	updates := e.reactions.UpdateMatrix()

	result := &Result{Metrics: make(map[string]float64)}
	for _, m := range e.metrics {
		m.Reset()
	}

	x := x0.Clone()
	t := 0.0
	result.Times = append(result.Times, t)
	result.States = append(result.States, x.Clone())

	for step := 0; step < maxSteps && t < cfg.TMax; step++ {
		select {
		case <-ctx.Done():
			return result, ctx.Err()
		default:
		}

		props, err := e.rates.Evaluate(x)
		if err != nil {
			return nil, err
		}

		total := 0.0
		for j, a := range props {
			if a < 0 {
				return nil, fmt.Errorf("%w: reaction %d (%s) at t=%.4f", ErrNegativePropensity, j, e.reactions.At(j).Equation(), t)
			}
			total += a
		}
		if total == 0 {
			result.Absorbed = true
			break
		}

		t += rng.ExpFloat64() / total
		if t > cfg.TMax {
			break
		}

		j := pick(props, total, rng)
		for i, delta := range updates[j] {
			x[i] += float64(delta)
		}
		result.StepsTaken++

		for _, m := range e.metrics {
			m.Observe(x, t)
		}
		for _, obs := range e.observers {
			obs.OnStep(x, t)
		}
		if result.StepsTaken%recordEvery == 0 {
			result.Times = append(result.Times, t)
			result.States = append(result.States, x.Clone())
		}
	}

	for _, m := range e.metrics {
		result.Metrics[m.Name()] = m.Value()
	}
	return result, nil
}

// pick draws a reaction index with probability proportional to its
// propensity.
func pick(props []float64, total float64, rng *rand.Rand) int {
	u := rng.Float64() * total
	acc := 0.0
	for j, a := range props {
		acc += a
		if u < acc {
			return j
		}
	}
	return len(props) - 1
}

func (e *Engine) validateConfig(cfg Config) error {
	if cfg.TMax <= 0 {
		return fmt.Errorf("ssa: t_max must be positive, got %f", cfg.TMax)
	}
	return nil
}
