// Package fluid derives the deterministic mean-field approximation of a
// compiled reaction network. Each rate expression is rescaled by the
// system size, its large-N limit taken symbolically, and the limit
// fields assembled through the update matrix into the drift of an ODE
// over species densities (population / system size).
package fluid

import (
	"errors"
	"fmt"

	"crnsim/internal/model"
	"crnsim/internal/solver"
	"crnsim/internal/symbolic"
)

// ErrUnscalableRate reports a rate law whose rescaled form has no finite
// large-N limit; the rate is not homogeneous of the degree the density
// scaling convention implies.
var ErrUnscalableRate = errors.New("fluid: rate law has no finite large-N limit")

// DensityRegistry holds one density symbol per species, created once and
// reused by every scaled expression. It is passed explicitly rather than
// kept in package state.
type DensityRegistry struct {
	vars *model.VariableRegistry
	syms []*symbolic.Sym
}

func NewDensityRegistry(vars *model.VariableRegistry) *DensityRegistry {
	syms := make([]*symbolic.Sym, vars.Len())
	for i := 0; i < vars.Len(); i++ {
		syms[i] = symbolic.S("d_" + vars.ByIndex(i).Name())
	}
	return &DensityRegistry{vars: vars, syms: syms}
}

func (r *DensityRegistry) Len() int                   { return len(r.syms) }
func (r *DensityRegistry) Symbol(i int) *symbolic.Sym { return r.syms[i] }
func (r *DensityRegistry) SpeciesName(i int) string   { return r.vars.ByIndex(i).Name() }

// env maps density symbol names to the components of a density vector.
func (r *DensityRegistry) env(x []float64) map[string]float64 {
	env := make(map[string]float64, len(r.syms))
	for i, s := range r.syms {
		env[s.Name()] = x[i]
	}
	return env
}

// Deriver rescales rate expressions by the system size and takes their
// large-N limits.
type Deriver struct {
	densities *DensityRegistry
	sizeName  string
}

func NewDeriver(densities *DensityRegistry, sizeName string) *Deriver {
	return &Deriver{densities: densities, sizeName: sizeName}
}

// Derive returns one limit field per rate expression, aligned with the
// input ordering. For a rate r over k distinct species, the field is
// lim_{N->oo} r(density) * N^k / N. A rate referencing no species (k=0)
// passes through unchanged.
func (d *Deriver) Derive(rates *model.RateExpressionCollection) ([]symbolic.Expr, error) {
	fields := make([]symbolic.Expr, rates.Len())
	for i := 0; i < rates.Len(); i++ {
		rate := rates.At(i)

		expr := rate.Expr()
		for j := 0; j < d.densities.Len(); j++ {
			expr = expr.Sub(d.densities.SpeciesName(j), d.densities.Symbol(j))
		}

		k := len(rate.Species())
		if k > 0 {
			// r * N^k / N, with the two power-of-N factors combined.
			expr = symbolic.MulOf(expr, symbolic.PowOf(symbolic.S(d.sizeName), symbolic.N(int64(k-1))))
		}

		limit, err := symbolic.LimitInf(expr, d.sizeName)
		if err != nil {
			if errors.Is(err, symbolic.ErrDivergentLimit) {
				return nil, fmt.Errorf("%w: %q", ErrUnscalableRate, rate.Source())
			}
			return nil, err
		}
		fields[i] = limit
	}
	return fields, nil
}

// Config is the recognized configuration of the fluid entry point.
type Config struct {
	// UpdateMatrix is reactions x species, signed integers.
	UpdateMatrix [][]int

	// InitialPopulations is indexed by species; densities are obtained
	// by dividing by the system size.
	InitialPopulations []float64

	// Rates is the pre-scaling collection: species still symbolic and
	// the system size held back as a symbol.
	Rates *model.RateExpressionCollection

	Variables      *model.VariableRegistry
	SystemSizeName string
	SystemSize     float64

	// TMax is the integration horizon; the grid is GridPoints uniform
	// samples of [0, TMax].
	TMax       float64
	GridPoints int // defaults to 1000

	// Solver overrides the adaptive default, letting tests inject a
	// deterministic fixed-step method.
	Solver solver.Solver
}

// Trajectory is the integration result: the time grid and one density
// vector per grid point.
type Trajectory struct {
	Times     []float64
	Densities [][]float64
}

// Integrate derives the limit ODE and integrates it. The trajectory is
// always returned to the caller; solver failures surface as errors and
// are never silently degraded to NaN output.
func Integrate(cfg Config) (*Trajectory, error) {
	if err := validate(cfg); err != nil {
		return nil, err
	}

	densities := NewDensityRegistry(cfg.Variables)
	deriver := NewDeriver(densities, cfg.SystemSizeName)
	fields, err := deriver.Derive(cfg.Rates)
	if err != nil {
		return nil, err
	}

	// Drift for species i is the update-weighted sum of limit fields.
	n := cfg.Variables.Len()
	drift := make([]symbolic.Expr, n)
	for i := 0; i < n; i++ {
		terms := make([]symbolic.Expr, 0, len(fields))
		for j, field := range fields {
			if cfg.UpdateMatrix[j][i] == 0 {
				continue
			}
			terms = append(terms, symbolic.MulOf(symbolic.N(int64(cfg.UpdateMatrix[j][i])), field))
		}
		drift[i] = symbolic.AddOf(terms...)
	}

	field := func(t float64, x []float64) ([]float64, error) {
		env := densities.env(x)
		dx := make([]float64, n)
		for i, e := range drift {
			v, err := symbolic.EvalAt(e, env)
			if err != nil {
				return nil, err
			}
			dx[i] = v
		}
		return dx, nil
	}

	x0 := make([]float64, n)
	for i, pop := range cfg.InitialPopulations {
		x0[i] = pop / cfg.SystemSize
	}

	points := cfg.GridPoints
	if points <= 0 {
		points = 1000
	}
	grid := solver.UniformGrid(cfg.TMax, points)

	sol := cfg.Solver
	if sol == nil {
		sol = solver.NewRK45()
	}
	states, err := sol.Solve(field, x0, grid)
	if err != nil {
		return nil, err
	}
	return &Trajectory{Times: grid, Densities: states}, nil
}

func validate(cfg Config) error {
	if cfg.Variables == nil || cfg.Rates == nil {
		return fmt.Errorf("fluid: variables and rates are required")
	}
	if cfg.SystemSize <= 0 {
		return fmt.Errorf("fluid: system size must be positive, got %v", cfg.SystemSize)
	}
	if cfg.TMax <= 0 {
		return fmt.Errorf("fluid: t_max must be positive, got %v", cfg.TMax)
	}
	if len(cfg.UpdateMatrix) != cfg.Rates.Len() {
		return fmt.Errorf("fluid: %d update vectors but %d rate functions", len(cfg.UpdateMatrix), cfg.Rates.Len())
	}
	for j, row := range cfg.UpdateMatrix {
		if len(row) != cfg.Variables.Len() {
			return fmt.Errorf("fluid: update vector %d has %d entries for %d species", j, len(row), cfg.Variables.Len())
		}
	}
	if len(cfg.InitialPopulations) != cfg.Variables.Len() {
		return fmt.Errorf("fluid: %d initial populations for %d species", len(cfg.InitialPopulations), cfg.Variables.Len())
	}
	return nil
}

// IntegrateNetwork runs the fluid approximation of a compiled network
// over [0, tMax] with the default grid and solver.
func IntegrateNetwork(net *model.Network, tMax float64) (*Trajectory, error) {
	return Integrate(Config{
		UpdateMatrix:       net.Reactions.UpdateMatrix(),
		InitialPopulations: net.InitialPopulations,
		Rates:              net.ScaledRates,
		Variables:          net.Variables,
		SystemSizeName:     net.SystemSizeName,
		SystemSize:         net.SystemSize,
		TMax:               tMax,
	})
}
