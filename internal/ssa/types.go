// Package ssa runs exact stochastic simulations of a compiled reaction
// network with the Gillespie direct method. The compiled collections are
// immutable and shared read-only; all mutable run state lives in the
// engine's stack frame, so one network can back many concurrent runs.
package ssa

import "errors"

// State is a population vector indexed by species.
type State []float64

func (s State) Clone() State {
	c := make(State, len(s))
	copy(c, s)
	return c
}

// Metric aggregates a scalar over one run.
type Metric interface {
	Name() string
	Observe(x State, t float64)
	Value() float64
	Reset()
}

// Observer is called after every reaction event.
type Observer interface {
	OnStep(x State, t float64)
}

type Config struct {
	// TMax is the simulated time horizon.
	TMax float64
	// Seed drives the run's randomness; identical seeds reproduce
	// identical trajectories.
	Seed int64
	// MaxSteps bounds the number of reaction events (default 10_000_000).
	MaxSteps int
	// RecordEvery thins the recorded trajectory: only every n-th event
	// is kept (default 1, keep everything).
	RecordEvery int
}

type Result struct {
	Times      []float64
	States     []State
	StepsTaken int
	Metrics    map[string]float64
	// Absorbed reports that all propensities vanished before TMax.
	Absorbed bool
}

var (
	// ErrNegativePropensity indicates a rate law that went negative at
	// a reached state; the jump process is not defined there.
	ErrNegativePropensity = errors.New("ssa: negative propensity")
)
