package metrics

import (
	"testing"

	"crnsim/internal/ssa"
)

func TestTotalPopulation(t *testing.T) {
	m := NewTotalPopulation()

	m.Observe(ssa.State{80, 20, 0}, 0)
	if m.Value() != 100 {
		t.Errorf("expected 100, got %f", m.Value())
	}

	m.Observe(ssa.State{79, 21, 0}, 0.5)
	if m.Value() != 100 {
		t.Errorf("expected mean 100, got %f", m.Value())
	}

	m.Reset()
	if m.Value() != 0 {
		t.Error("expected zero after reset")
	}
}

func TestConservationDrift(t *testing.T) {
	m := NewConservationDrift()

	m.Observe(ssa.State{80, 20, 0}, 0)
	m.Observe(ssa.State{79, 21, 0}, 1)
	if m.Value() != 0 {
		t.Errorf("closed transitions should not drift, got %f", m.Value())
	}

	m.Observe(ssa.State{79, 20, 0}, 2)
	if m.Value() != 0.01 {
		t.Errorf("expected relative drift 0.01, got %f", m.Value())
	}
}

func TestExtinction(t *testing.T) {
	m := NewExtinction(1)

	m.Observe(ssa.State{80, 20, 0}, 0)
	if m.Value() != -1 {
		t.Errorf("expected -1 before extinction, got %f", m.Value())
	}

	m.Observe(ssa.State{80, 0, 20}, 3.5)
	if m.Value() != 3.5 {
		t.Errorf("expected first-hit time 3.5, got %f", m.Value())
	}

	// Later recoveries do not overwrite the first hit.
	m.Observe(ssa.State{79, 1, 20}, 4)
	m.Observe(ssa.State{79, 0, 21}, 5)
	if m.Value() != 3.5 {
		t.Errorf("expected 3.5 to persist, got %f", m.Value())
	}

	m.Reset()
	if m.Value() != -1 {
		t.Error("expected -1 after reset")
	}
}
