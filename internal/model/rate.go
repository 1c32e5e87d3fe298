package model

import (
	"sort"

	"crnsim/internal/symbolic"
)

// RateExpression is one compiled rate law: an algebraic expression over
// species symbols, with parameters substituted to literals and constants
// folded at compile time. Parameter names listed in keepSymbolic stay as
// symbols, which is how the fluid module obtains pre-scaling expressions
// with the system size still free.
type RateExpression struct {
	source  string
	expr    symbolic.Expr
	species []string
}

func CompileRate(src string, vars *VariableRegistry, params *ParameterTable, keepSymbolic ...string) (*RateExpression, error) {
	hold := make(map[string]struct{}, len(keepSymbolic))
	for _, name := range keepSymbolic {
		hold[name] = struct{}{}
	}

	resolver := symbolic.ResolverFunc(func(name string) (symbolic.Expr, error) {
		if v, ok := vars.Lookup(name); ok {
			return v.Symbol(), nil
		}
		if _, ok := hold[name]; ok {
			return symbolic.S(name), nil
		}
		if val, ok := params.Lookup(name); ok {
			return symbolic.NFloat(val), nil
		}
		return nil, &UnresolvedSymbolError{Name: name}
	})

	expr, err := symbolic.ParseString(src, resolver)
	if err != nil {
		return nil, err
	}

	var species []string
	for name := range symbolic.FreeSymbols(expr) {
		if _, ok := vars.Lookup(name); ok {
			species = append(species, name)
		}
	}
	sort.Strings(species)

	return &RateExpression{source: src, expr: expr, species: species}, nil
}

func (r *RateExpression) Source() string      { return r.source }
func (r *RateExpression) Expr() symbolic.Expr { return r.expr }

// Species returns the distinct species names the compiled expression
// actually references, sorted for determinism.
func (r *RateExpression) Species() []string {
	out := make([]string, len(r.species))
	copy(out, r.species)
	return out
}

// RateExpressionCollection holds compiled rate laws in declaration order
// and batch-evaluates them at a numeric state vector.
type RateExpressionCollection struct {
	exprs []*RateExpression
	vars  *VariableRegistry
}

func NewRateExpressionCollection(sources []string, vars *VariableRegistry, params *ParameterTable, keepSymbolic ...string) (*RateExpressionCollection, error) {
	c := &RateExpressionCollection{
		exprs: make([]*RateExpression, 0, len(sources)),
		vars:  vars,
	}
	for _, src := range sources {
		r, err := CompileRate(src, vars, params, keepSymbolic...)
		if err != nil {
			return nil, err
		}
		c.exprs = append(c.exprs, r)
	}
	return c, nil
}

func (c *RateExpressionCollection) Len() int                 { return len(c.exprs) }
func (c *RateExpressionCollection) At(i int) *RateExpression { return c.exprs[i] }

// Evaluate substitutes state components for species symbols in every
// expression and returns one value per rate function, in order.
//
// The length precondition compares the state against the rate-function
// count, not the species count. The two coincide in every configuration
// seen so far but are not guaranteed to in general; the literal check is
// kept intentionally.
func (c *RateExpressionCollection) Evaluate(state []float64) ([]float64, error) {
	if len(state) != len(c.exprs) {
		return nil, &DimensionMismatchError{Input: len(state), RateFunctions: len(c.exprs)}
	}

	env := make(map[string]float64, c.vars.Len())
	for i := 0; i < c.vars.Len() && i < len(state); i++ {
		env[c.vars.ByIndex(i).Name()] = state[i]
	}

	out := make([]float64, len(c.exprs))
	for i, r := range c.exprs {
		v, err := symbolic.EvalAt(r.expr, env)
		if err != nil {
			return nil, err
		}
		out[i] = v
	}
	return out, nil
}
