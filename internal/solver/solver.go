// Package solver provides the numeric integration capability consumed by
// the fluid module. The solver is injected, so tests can substitute a
// deterministic fixed-step method for the adaptive default.
package solver

import "errors"

// Field evaluates the drift dx/dt at (t, x). Evaluation may fail, for
// example when a rate law divides by a vanished denominator.
type Field func(t float64, x []float64) ([]float64, error)

// Solver integrates a field from x0 across the given time grid and
// returns one state per grid point, the first being x0 itself.
type Solver interface {
	Solve(field Field, x0 []float64, grid []float64) ([][]float64, error)
}

var (
	// ErrStepTooSmall indicates the adaptive step collapsed below the minimum.
	ErrStepTooSmall = errors.New("solver: adaptive step below minimum")

	// ErrNotFinite indicates the integration produced NaN or Inf; it is
	// surfaced instead of degrading to an unflagged trajectory.
	ErrNotFinite = errors.New("solver: state is not finite")

	// ErrBadGrid indicates a grid with fewer than two points or
	// non-increasing times.
	ErrBadGrid = errors.New("solver: time grid must be strictly increasing")
)

// UniformGrid returns n points evenly spaced on [0, tMax].
func UniformGrid(tMax float64, n int) []float64 {
	grid := make([]float64, n)
	if n == 1 {
		return grid
	}
	dt := tMax / float64(n-1)
	for i := range grid {
		grid[i] = float64(i) * dt
	}
	grid[n-1] = tMax
	return grid
}

func checkGrid(grid []float64) error {
	if len(grid) < 2 {
		return ErrBadGrid
	}
	for i := 1; i < len(grid); i++ {
		if grid[i] <= grid[i-1] {
			return ErrBadGrid
		}
	}
	return nil
}

func isFinite(x []float64) bool {
	for _, v := range x {
		if v != v || v > 1e308 || v < -1e308 {
			return false
		}
	}
	return true
}

func clone(x []float64) []float64 {
	c := make([]float64, len(x))
	copy(c, x)
	return c
}
