package solver

import (
	"errors"
	"math"
	"math/rand"
	"testing"
)

// Harmonic oscillator: x'' = -x, solution (cos t, -sin t) from (1, 0).
func oscillator(t float64, x []float64) ([]float64, error) {
	return []float64{x[1], -x[0]}, nil
}

func TestRK4Accuracy(t *testing.T) {
	grid := UniformGrid(1.0, 101)
	states, err := NewRK4(1).Solve(oscillator, []float64{1, 0}, grid)
	if err != nil {
		t.Fatal(err)
	}

	last := states[len(states)-1]
	if math.Abs(last[0]-math.Cos(1)) > 1e-4 {
		t.Errorf("position error too large: got %.6f, expected %.6f", last[0], math.Cos(1))
	}
	if math.Abs(last[1]+math.Sin(1)) > 1e-4 {
		t.Errorf("velocity error too large: got %.6f, expected %.6f", last[1], -math.Sin(1))
	}
}

func TestRK45Accuracy(t *testing.T) {
	grid := UniformGrid(2.0, 21)
	states, err := NewRK45().Solve(oscillator, []float64{1, 0}, grid)
	if err != nil {
		t.Fatal(err)
	}

	for i, tm := range grid {
		if math.Abs(states[i][0]-math.Cos(tm)) > 1e-5 {
			t.Errorf("t=%.2f: got %.8f, expected %.8f", tm, states[i][0], math.Cos(tm))
		}
	}
}

func TestRK45ExponentialDecay(t *testing.T) {
	decay := func(t float64, x []float64) ([]float64, error) {
		return []float64{-x[0]}, nil
	}
	grid := UniformGrid(5.0, 51)
	states, err := NewRK45().Solve(decay, []float64{1}, grid)
	if err != nil {
		t.Fatal(err)
	}
	last := states[len(states)-1]
	if math.Abs(last[0]-math.Exp(-5)) > 1e-6 {
		t.Errorf("got %.10f, expected %.10f", last[0], math.Exp(-5))
	}
}

func TestRK45ArbitraryHorizons(t *testing.T) {
	// The last substep before a grid point is clipped to the remaining
	// interval, which float rounding can make arbitrarily small. No
	// horizon may turn that into a minimum-step failure on a smooth
	// field.
	decay := func(t float64, x []float64) ([]float64, error) {
		return []float64{-x[0]}, nil
	}

	rng := rand.New(rand.NewSource(1))
	horizons := []float64{4.42722643274701, 7.439}
	for i := 0; i < 500; i++ {
		horizons = append(horizons, 0.5+10*rng.Float64())
	}

	for _, tMax := range horizons {
		grid := UniformGrid(tMax, 250)
		states, err := NewRK45().Solve(decay, []float64{1}, grid)
		if err != nil {
			t.Fatalf("tMax=%v: %v", tMax, err)
		}
		last := states[len(states)-1]
		if math.Abs(last[0]-math.Exp(-tMax)) > 1e-6 {
			t.Errorf("tMax=%v: got %v, expected %v", tMax, last[0], math.Exp(-tMax))
		}
	}
}

func TestBlowUpSurfacesNotFinite(t *testing.T) {
	// x' = x^2 from x0 = 1 has a singularity at t = 1; past it the
	// fixed-step methods overflow and must report that instead of
	// filling the trajectory with non-finite values.
	blowup := func(t float64, x []float64) ([]float64, error) {
		return []float64{x[0] * x[0]}, nil
	}
	grid := UniformGrid(2.0, 21)
	for _, s := range []Solver{NewEuler(50), NewRK4(50)} {
		if _, err := s.Solve(blowup, []float64{1}, grid); !errors.Is(err, ErrNotFinite) {
			t.Errorf("%T: expected ErrNotFinite, got %v", s, err)
		}
	}
}

func TestRK45BlowUpSurfacesError(t *testing.T) {
	blowup := func(t float64, x []float64) ([]float64, error) {
		return []float64{x[0] * x[0]}, nil
	}
	grid := UniformGrid(2.0, 21)
	states, err := NewRK45().Solve(blowup, []float64{1}, grid)
	if err == nil {
		t.Fatal("expected an error past the singularity, got a trajectory")
	}
	if !errors.Is(err, ErrStepTooSmall) && !errors.Is(err, ErrNotFinite) {
		t.Errorf("expected a step-collapse or finiteness error, got %v", err)
	}
	if states != nil {
		t.Errorf("no trajectory must be returned on failure")
	}
}

func TestRK45NaNDerivativeSurfacesNotFinite(t *testing.T) {
	// The derivative itself goes NaN past t = 1 (square root of a
	// negative); the solver must refuse the trajectory.
	field := func(t float64, x []float64) ([]float64, error) {
		return []float64{math.Sqrt(1 - t)}, nil
	}
	grid := UniformGrid(2.0, 21)
	if _, err := NewRK45().Solve(field, []float64{0}, grid); !errors.Is(err, ErrNotFinite) {
		t.Errorf("expected ErrNotFinite, got %v", err)
	}
}

func TestSolveReturnsInitialState(t *testing.T) {
	grid := UniformGrid(1.0, 11)
	states, err := NewEuler(10).Solve(oscillator, []float64{1, 0}, grid)
	if err != nil {
		t.Fatal(err)
	}
	if states[0][0] != 1 || states[0][1] != 0 {
		t.Errorf("first state must be x0, got %v", states[0])
	}
	if len(states) != len(grid) {
		t.Errorf("expected one state per grid point: %d vs %d", len(states), len(grid))
	}
}

func TestFieldErrorPropagates(t *testing.T) {
	bad := errors.New("bad field")
	field := func(t float64, x []float64) ([]float64, error) { return nil, bad }
	grid := UniformGrid(1.0, 11)
	for _, s := range []Solver{NewEuler(1), NewRK4(1), NewRK45()} {
		if _, err := s.Solve(field, []float64{1}, grid); !errors.Is(err, bad) {
			t.Errorf("%T: expected the field error, got %v", s, err)
		}
	}
}

func TestBadGrid(t *testing.T) {
	for _, grid := range [][]float64{{0}, {0, 1, 1}, {0, 2, 1}} {
		if _, err := NewRK4(1).Solve(oscillator, []float64{1, 0}, grid); !errors.Is(err, ErrBadGrid) {
			t.Errorf("grid %v: expected ErrBadGrid, got %v", grid, err)
		}
	}
}

func TestUniformGrid(t *testing.T) {
	grid := UniformGrid(5.0, 1000)
	if len(grid) != 1000 {
		t.Fatalf("expected 1000 points, got %d", len(grid))
	}
	if grid[0] != 0 || grid[999] != 5.0 {
		t.Errorf("grid endpoints %v, %v", grid[0], grid[999])
	}
}
