package solver

import "math"

// Dormand-Prince coefficients.
var (
	a2 = 1.0 / 5.0
	a3 = 3.0 / 10.0
	a4 = 4.0 / 5.0
	a5 = 8.0 / 9.0

	b21 = 1.0 / 5.0
	b31 = 3.0 / 40.0
	b32 = 9.0 / 40.0
	b41 = 44.0 / 45.0
	b42 = -56.0 / 15.0
	b43 = 32.0 / 9.0
	b51 = 19372.0 / 6561.0
	b52 = -25360.0 / 2187.0
	b53 = 64448.0 / 6561.0
	b54 = -212.0 / 729.0
	b61 = 9017.0 / 3168.0
	b62 = -355.0 / 33.0
	b63 = 46732.0 / 5247.0
	b64 = 49.0 / 176.0
	b65 = -5103.0 / 18656.0

	c1 = 35.0 / 384.0
	c3 = 500.0 / 1113.0
	c4 = 125.0 / 192.0
	c5 = -2187.0 / 6784.0
	c6 = 11.0 / 84.0

	dc1 = c1 - 5179.0/57600.0
	dc3 = c3 - 7571.0/16695.0
	dc4 = c4 - 393.0/640.0
	dc5 = c5 - -92097.0/339200.0
	dc6 = c6 - 187.0/2100.0
	dc7 = -1.0 / 40.0
)

// stepEps is the relative residual below which a grid point counts as
// reached.
const stepEps = 1e-14

// RK45 is an adaptive Dormand-Prince integrator. Between grid points it
// chooses its own step size against the tolerance, clipping the last
// internal step to land exactly on the next grid point, so no manual
// step tuning is needed for smooth or moderately stiff fields. The
// minimum-step guard applies only to rejected steps; an accepted step
// can never fail the run.
type RK45 struct {
	tol      float64
	minStep  float64
	safety   float64
	minScale float64
	maxScale float64
}

func NewRK45() *RK45 {
	return &RK45{
		tol:      1e-8,
		minStep:  1e-12,
		safety:   0.9,
		minScale: 0.2,
		maxScale: 10.0,
	}
}

// WithTolerance returns a copy using the given local error tolerance.
func (r *RK45) WithTolerance(tol float64) *RK45 {
	c := *r
	c.tol = tol
	return &c
}

func (r *RK45) Solve(field Field, x0 []float64, grid []float64) ([][]float64, error) {
	if err := checkGrid(grid); err != nil {
		return nil, err
	}

	out := make([][]float64, len(grid))
	out[0] = clone(x0)
	x := clone(x0)

	dt := (grid[1] - grid[0]) / 10
	for g := 1; g < len(grid); g++ {
		t := grid[g-1]
		end := grid[g]
		for t < end {
			// Rounding of t can leave an ulp-sized residual before the
			// grid point; nothing changes measurably over it.
			if end-t <= stepEps*math.Max(1, math.Abs(end)) {
				break
			}
			step := math.Min(dt, end-t)
			clipped := step < dt
			newX, dtNext, accepted, err := r.attempt(field, x, t, step)
			if err != nil {
				return nil, err
			}
			if accepted {
				x = newX
				t += step
				// A step clipped to the grid point says nothing about
				// the error-controlled step size; keep the working dt.
				if !clipped {
					dt = dtNext
				}
				continue
			}
			dt = dtNext
			if dt < r.minStep {
				return nil, ErrStepTooSmall
			}
		}
		if !isFinite(x) {
			return nil, ErrNotFinite
		}
		out[g] = clone(x)
	}
	return out, nil
}

func (r *RK45) attempt(field Field, x []float64, t, dt float64) ([]float64, float64, bool, error) {
	n := len(x)

	k1, err := field(t, x)
	if err != nil {
		return nil, 0, false, err
	}

	x2 := make([]float64, n)
	for i := 0; i < n; i++ {
		x2[i] = x[i] + dt*b21*k1[i]
	}
	k2, err := field(t+a2*dt, x2)
	if err != nil {
		return nil, 0, false, err
	}

	x3 := make([]float64, n)
	for i := 0; i < n; i++ {
		x3[i] = x[i] + dt*(b31*k1[i]+b32*k2[i])
	}
	k3, err := field(t+a3*dt, x3)
	if err != nil {
		return nil, 0, false, err
	}

	x4 := make([]float64, n)
	for i := 0; i < n; i++ {
		x4[i] = x[i] + dt*(b41*k1[i]+b42*k2[i]+b43*k3[i])
	}
	k4, err := field(t+a4*dt, x4)
	if err != nil {
		return nil, 0, false, err
	}

	x5 := make([]float64, n)
	for i := 0; i < n; i++ {
		x5[i] = x[i] + dt*(b51*k1[i]+b52*k2[i]+b53*k3[i]+b54*k4[i])
	}
	k5, err := field(t+a5*dt, x5)
	if err != nil {
		return nil, 0, false, err
	}

	x6 := make([]float64, n)
	for i := 0; i < n; i++ {
		x6[i] = x[i] + dt*(b61*k1[i]+b62*k2[i]+b63*k3[i]+b64*k4[i]+b65*k5[i])
	}
	k6, err := field(t+dt, x6)
	if err != nil {
		return nil, 0, false, err
	}

	xNew := make([]float64, n)
	for i := 0; i < n; i++ {
		xNew[i] = x[i] + dt*(c1*k1[i]+c3*k3[i]+c4*k4[i]+c5*k5[i]+c6*k6[i])
	}
	k7, err := field(t+dt, xNew)
	if err != nil {
		return nil, 0, false, err
	}

	errMax := 0.0
	for i := 0; i < n; i++ {
		errEst := dt * (dc1*k1[i] + dc3*k3[i] + dc4*k4[i] + dc5*k5[i] + dc6*k6[i] + dc7*k7[i])
		scale := math.Abs(x[i]) + math.Abs(dt*k1[i]) + 1e-10
		errMax = math.Max(errMax, math.Abs(errEst)/scale)
	}

	errRatio := errMax / r.tol
	if errRatio > 1 {
		scale := math.Max(r.minScale, r.safety*math.Pow(errRatio, -0.25))
		return nil, dt * scale, false, nil
	}

	var dtNext float64
	if errRatio > 0 {
		scale := math.Min(r.maxScale, r.safety*math.Pow(errRatio, -0.2))
		dtNext = dt * scale
	} else {
		dtNext = dt * r.maxScale
	}
	return xNew, dtNext, true, nil
}
