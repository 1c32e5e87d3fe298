package solver

// RK4 is the classic fourth-order Runge-Kutta method with a fixed number
// of substeps per grid interval. It is fully deterministic, which makes
// it the solver of choice in tests.
type RK4 struct {
	substeps int

	k1, k2, k3, k4 []float64
	scratch        []float64
}

func NewRK4(substeps int) *RK4 {
	if substeps < 1 {
		substeps = 1
	}
	return &RK4{substeps: substeps}
}

func (r *RK4) ensureScratch(n int) {
	if len(r.k1) != n {
		r.k1 = make([]float64, n)
		r.k2 = make([]float64, n)
		r.k3 = make([]float64, n)
		r.k4 = make([]float64, n)
		r.scratch = make([]float64, n)
	}
}

func (r *RK4) Solve(field Field, x0 []float64, grid []float64) ([][]float64, error) {
	if err := checkGrid(grid); err != nil {
		return nil, err
	}
	n := len(x0)
	r.ensureScratch(n)

	out := make([][]float64, len(grid))
	out[0] = clone(x0)
	x := clone(x0)

	for g := 1; g < len(grid); g++ {
		dt := (grid[g] - grid[g-1]) / float64(r.substeps)
		t := grid[g-1]
		for s := 0; s < r.substeps; s++ {
			var err error
			x, err = r.step(field, x, t, dt)
			if err != nil {
				return nil, err
			}
			t += dt
		}
		if !isFinite(x) {
			return nil, ErrNotFinite
		}
		out[g] = clone(x)
	}
	return out, nil
}

func (r *RK4) step(field Field, x []float64, t, dt float64) ([]float64, error) {
	n := len(x)

	k1, err := field(t, x)
	if err != nil {
		return nil, err
	}
	copy(r.k1, k1)

	for i := 0; i < n; i++ {
		r.scratch[i] = x[i] + dt*0.5*r.k1[i]
	}
	k2, err := field(t+dt*0.5, r.scratch)
	if err != nil {
		return nil, err
	}
	copy(r.k2, k2)

	for i := 0; i < n; i++ {
		r.scratch[i] = x[i] + dt*0.5*r.k2[i]
	}
	k3, err := field(t+dt*0.5, r.scratch)
	if err != nil {
		return nil, err
	}
	copy(r.k3, k3)

	for i := 0; i < n; i++ {
		r.scratch[i] = x[i] + dt*r.k3[i]
	}
	k4, err := field(t+dt, r.scratch)
	if err != nil {
		return nil, err
	}
	copy(r.k4, k4)

	result := make([]float64, n)
	dt6 := dt / 6.0
	for i := 0; i < n; i++ {
		result[i] = x[i] + dt6*(r.k1[i]+2*r.k2[i]+2*r.k3[i]+r.k4[i])
	}
	return result, nil
}
