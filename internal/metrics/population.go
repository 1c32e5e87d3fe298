package metrics

import (
	"math"

	"crnsim/internal/ssa"
)

// TotalPopulation tracks the mean total population over a run.
type TotalPopulation struct {
	name    string
	sum     float64
	samples int
}

func NewTotalPopulation() *TotalPopulation {
	return &TotalPopulation{
		name: "total_population",
	}
}

func (p *TotalPopulation) Name() string {
	return p.name
}

func (p *TotalPopulation) Observe(x ssa.State, t float64) {
	for _, v := range x {
		p.sum += v
	}
	p.samples++
}

func (p *TotalPopulation) Value() float64 {
	if p.samples == 0 {
		return 0
	}
	return p.sum / float64(p.samples)
}

func (p *TotalPopulation) Reset() {
	p.sum = 0
	p.samples = 0
}

// ConservationDrift measures how far the total population wanders from
// its value at the first observed state. For a closed network the value
// stays exactly zero.
type ConservationDrift struct {
	name     string
	initial  float64
	maxDrift float64
	samples  int
}

func NewConservationDrift() *ConservationDrift {
	return &ConservationDrift{
		name: "conservation_drift",
	}
}

func (c *ConservationDrift) Name() string { return c.name }

func (c *ConservationDrift) Observe(x ssa.State, t float64) {
	total := 0.0
	for _, v := range x {
		total += v
	}

	if c.samples == 0 {
		c.initial = total
	}
	c.samples++

	if c.initial != 0 {
		drift := math.Abs(total-c.initial) / math.Abs(c.initial)
		c.maxDrift = math.Max(c.maxDrift, drift)
	}
}

func (c *ConservationDrift) Value() float64 {
	return c.maxDrift
}

func (c *ConservationDrift) Reset() {
	c.initial = 0
	c.maxDrift = 0
	c.samples = 0
}
