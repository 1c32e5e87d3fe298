// Package metrics provides run-level summary metrics for stochastic
// trajectories. Each metric is stateful and belongs to a single run;
// ensembles construct a fresh set per member.
package metrics

import (
	"crnsim/internal/ssa"
)

// Extinction records the first time a tracked species hits zero, or -1
// if it never does within the run.
type Extinction struct {
	name    string
	species int
	time    float64
	hit     bool
}

func NewExtinction(species int) *Extinction {
	return &Extinction{
		name:    "extinction_time",
		species: species,
		time:    -1,
	}
}

func (e *Extinction) Name() string { return e.name }

func (e *Extinction) Observe(x ssa.State, t float64) {
	if e.hit || e.species >= len(x) {
		return
	}
	if x[e.species] <= 0 {
		e.time = t
		e.hit = true
	}
}

func (e *Extinction) Value() float64 {
	return e.time
}

func (e *Extinction) Reset() {
	e.time = -1
	e.hit = false
}
