package ssa

import (
	"fmt"
	"math/rand"
)

// Stepper advances a single realization one reaction event at a time,
// for callers that interleave simulation with other work (the live
// terminal view). Batch runs should use Engine.Run.
type Stepper struct {
	eng      *Engine
	rng      *rand.Rand
	updates  [][]int
	x        State
	t        float64
	absorbed bool
}

func (e *Engine) Stepper(x0 State, seed int64) *Stepper {
	return &Stepper{
		eng:     e,
		rng:     rand.New(rand.NewSource(seed)),
		updates: e.reactions.UpdateMatrix(),
		x:       x0.Clone(),
	}
}

func (s *Stepper) State() State   { return s.x }
func (s *Stepper) Time() float64  { return s.t }
func (s *Stepper) Absorbed() bool { return s.absorbed }

// Step fires one reaction event. After absorption it is a no-op.
func (s *Stepper) Step() error {
	if s.absorbed {
		return nil
	}

	props, err := s.eng.rates.Evaluate(s.x)
	if err != nil {
		return err
	}

	total := 0.0
	for j, a := range props {
		if a < 0 {
			return fmt.Errorf("%w: reaction %d at t=%.4f", ErrNegativePropensity, j, s.t)
		}
		total += a
	}
	if total == 0 {
		s.absorbed = true
		return nil
	}

	s.t += s.rng.ExpFloat64() / total
	j := pick(props, total, s.rng)
	for i, delta := range s.updates[j] {
		s.x[i] += float64(delta)
	}
	return nil
}
