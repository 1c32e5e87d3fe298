package solver

// Euler is the forward Euler method with fixed substeps per grid
// interval. Kept mostly as a baseline for comparing solvers.
type Euler struct {
	substeps int
}

func NewEuler(substeps int) *Euler {
	if substeps < 1 {
		substeps = 1
	}
	return &Euler{substeps: substeps}
}

func (e *Euler) Solve(field Field, x0 []float64, grid []float64) ([][]float64, error) {
	if err := checkGrid(grid); err != nil {
		return nil, err
	}

	out := make([][]float64, len(grid))
	out[0] = clone(x0)
	x := clone(x0)

	for g := 1; g < len(grid); g++ {
		dt := (grid[g] - grid[g-1]) / float64(e.substeps)
		t := grid[g-1]
		for s := 0; s < e.substeps; s++ {
			dx, err := field(t, x)
			if err != nil {
				return nil, err
			}
			next := make([]float64, len(x))
			for i := range x {
				next[i] = x[i] + dt*dx[i]
			}
			x = next
			t += dt
		}
		if !isFinite(x) {
			return nil, ErrNotFinite
		}
		out[g] = clone(x)
	}
	return out, nil
}
