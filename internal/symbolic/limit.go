package symbolic

import (
	"errors"
	"fmt"
	"math/big"
)

// ErrDivergentLimit reports a limit that grows without bound.
var ErrDivergentLimit = errors.New("symbolic: limit diverges")

// LimitInf computes the limit of e as the named symbol tends to +infinity.
// The expression must be rational in the symbol: the limit of each product
// is decided by the net degree of the symbol across its factors. A positive
// net degree with a nonvanishing coefficient is a divergence error rather
// than a silent infinity.
func LimitInf(e Expr, name string) (Expr, error) {
	e = e.Simplify()
	if _, occurs := FreeSymbols(e)[name]; !occurs {
		return e, nil
	}

	switch v := e.(type) {
	case *Sym:
		return nil, fmt.Errorf("%w: %s as %s -> oo", ErrDivergentLimit, e, name)
	case *Add:
		out := make([]Expr, 0, len(v.terms))
		for _, t := range v.terms {
			lt, err := LimitInf(t, name)
			if err != nil {
				return nil, err
			}
			out = append(out, lt)
		}
		return AddOf(out...), nil
	case *Mul:
		return limitInfMul(v, name)
	case *Pow:
		return limitInfPow(v, name)
	case *Max:
		la, err := LimitInf(v.a, name)
		if err != nil {
			return nil, err
		}
		lb, err := LimitInf(v.b, name)
		if err != nil {
			return nil, err
		}
		return MaxOf(la, lb), nil
	}
	return nil, fmt.Errorf("symbolic: no limit rule for %T", e)
}

func limitInfMul(m *Mul, name string) (Expr, error) {
	degree := new(big.Rat)
	rest := make([]Expr, 0, len(m.factors))
	for _, f := range m.factors {
		d, bare, ok := symbolDegree(f, name)
		if ok {
			degree.Add(degree, d)
			if bare != nil {
				rest = append(rest, bare)
			}
			continue
		}
		if _, occurs := FreeSymbols(f)[name]; occurs {
			lf, err := LimitInf(f, name)
			if err != nil {
				return nil, err
			}
			rest = append(rest, lf)
			continue
		}
		rest = append(rest, f)
	}

	remainder := MulOf(rest...)
	switch degree.Sign() {
	case 0:
		return remainder, nil
	case -1:
		return N(0), nil
	default:
		if n, ok := remainder.(*Num); ok && n.IsZero() {
			return N(0), nil
		}
		return nil, fmt.Errorf("%w: %s as %s -> oo", ErrDivergentLimit, m, name)
	}
}

func limitInfPow(p *Pow, name string) (Expr, error) {
	if d, _, ok := symbolDegree(p, name); ok {
		switch d.Sign() {
		case 0:
			return N(1), nil
		case -1:
			return N(0), nil
		default:
			return nil, fmt.Errorf("%w: %s as %s -> oo", ErrDivergentLimit, p, name)
		}
	}
	if _, occurs := FreeSymbols(p.exp)[name]; occurs {
		return nil, fmt.Errorf("symbolic: no limit rule for %s in the exponent of %s", name, p)
	}
	lb, err := LimitInf(p.base, name)
	if err != nil {
		return nil, err
	}
	return PowOf(lb, p.exp), nil
}

// symbolDegree reports the degree of factor f in the named symbol when f
// is the symbol itself or a rational power of it. The second return value
// carries any leftover factor (always nil today, kept for symmetry).
func symbolDegree(f Expr, name string) (*big.Rat, Expr, bool) {
	switch v := f.(type) {
	case *Sym:
		if v.name == name {
			return big.NewRat(1, 1), nil, true
		}
	case *Pow:
		if base, ok := v.base.(*Sym); ok && base.name == name {
			if exp, ok2 := v.exp.(*Num); ok2 {
				return new(big.Rat).Set(exp.val), nil, true
			}
		}
	}
	return nil, nil, false
}
