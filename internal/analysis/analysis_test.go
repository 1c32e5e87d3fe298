package analysis

import (
	"math"
	"testing"

	"crnsim/internal/config"
)

func TestPowerSpectrumPureTone(t *testing.T) {
	n := 256
	data := make([]float64, n)
	for i := range data {
		data[i] = math.Sin(2 * math.Pi * 8 * float64(i) / float64(n))
	}

	ps := PowerSpectrum(data)

	maxIdx := 0
	for i := 1; i < len(ps); i++ {
		if ps[i] > ps[maxIdx] {
			maxIdx = i
		}
	}
	if maxIdx != 8 {
		t.Errorf("expected peak at bin 8, got %d", maxIdx)
	}
}

func TestResample(t *testing.T) {
	times := []float64{0, 1, 3}
	values := []float64{0, 10, 30}

	out := Resample(times, values, 4)
	if len(out) != 4 {
		t.Fatalf("expected 4 samples, got %d", len(out))
	}
	if out[0] != 0 || out[3] != 30 {
		t.Errorf("endpoints not preserved: %v", out)
	}
	// Midpoint of the linear ramp t -> 10t.
	if math.Abs(out[1]-10) > 1e-9 {
		t.Errorf("expected 10 at t=1, got %v", out[1])
	}
}

func TestDominantFrequency(t *testing.T) {
	ps := []float64{100, 0, 5, 0}
	if f := DominantFrequency(ps, 10); f != 0.2 {
		t.Errorf("expected 0.2, got %v", f)
	}
	if f := DominantFrequency([]float64{1}, 10); f != 0 {
		t.Errorf("expected 0 for a flat spectrum, got %v", f)
	}
}

func TestParameterSweep(t *testing.T) {
	doc := &config.Document{
		Species:           []string{"x_s", "x_i", "x_r"},
		Parameters:        map[string]float64{"k_i": 1, "k_r": 0.05, "k_s": 0.01},
		Reactions:         []string{"x_s + x_i => x_i + x_i", "x_i => x_r", "x_r => x_s"},
		RateFunctions:     []string{"k_i * x_i * x_s / N", "k_r * x_i", "k_s * x_r"},
		InitialConditions: map[string]float64{"x_s": 80, "x_i": 20, "x_r": 0},
		SystemSize:        map[string]float64{"N": 100},
	}

	points, err := ParameterSweep(doc, "k_i", 0.5, 2.0, 4, 20)
	if err != nil {
		t.Fatalf("sweep failed: %v", err)
	}
	if len(points) != 4 {
		t.Fatalf("expected 4 points, got %d", len(points))
	}
	if points[0].Param != 0.5 || points[3].Param != 2.0 {
		t.Errorf("endpoint params wrong: %v %v", points[0].Param, points[3].Param)
	}

	// The sweep must not mutate the source document.
	if doc.Parameters["k_i"] != 1 {
		t.Errorf("source document mutated: k_i = %v", doc.Parameters["k_i"])
	}

	// Stronger infection leaves fewer susceptibles at the horizon.
	if points[3].Final[0] >= points[0].Final[0] {
		t.Errorf("expected susceptible density to fall with k_i: %v vs %v",
			points[3].Final[0], points[0].Final[0])
	}

	_, err = ParameterSweep(doc, "no_such", 0, 1, 3, 10)
	if err == nil {
		t.Fatal("expected an error for an unknown parameter")
	}
}
