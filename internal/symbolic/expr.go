// Package symbolic provides the expression kernel for reaction rate laws.
//
// Expressions are immutable trees over exact rational constants and named
// symbols. Constructors simplify eagerly, so a pure-constant expression
// folds to a single [Num] and term ordering is deterministic: building the
// same expression twice yields structurally equal trees.
package symbolic

import (
	"fmt"
	"math"
	"math/big"
	"sort"
	"strconv"
	"strings"
)

// Expr is an immutable symbolic expression.
type Expr interface {
	// Simplify returns a canonical form: flattened sums/products,
	// folded constants, deterministically ordered terms.
	Simplify() Expr
	String() string
	// Sub replaces every occurrence of the named symbol with value.
	Sub(name string, value Expr) Expr
	// Eval folds the expression to a constant if it contains no symbols.
	Eval() (*Num, bool)
	Equal(other Expr) bool
}

// Num is an exact rational constant.
type Num struct{ val *big.Rat }

func N(n int64) *Num { return &Num{val: new(big.Rat).SetInt64(n)} }

func F(p, q int64) *Num {
	if q == 0 {
		panic("symbolic: zero denominator")
	}
	return &Num{val: new(big.Rat).SetFrac(big.NewInt(p), big.NewInt(q))}
}

// NFloat converts through the shortest decimal representation of f, so
// parameter values such as 0.05 become the exact rational 1/20 rather
// than a binary approximation.
func NFloat(f float64) *Num {
	r, ok := new(big.Rat).SetString(strconv.FormatFloat(f, 'g', -1, 64))
	if !ok {
		panic(fmt.Sprintf("symbolic: cannot represent %v", f))
	}
	return &Num{val: r}
}

func numFromString(s string) (*Num, bool) {
	r, ok := new(big.Rat).SetString(s)
	if !ok {
		return nil, false
	}
	return &Num{val: r}, true
}

func (n *Num) Simplify() Expr        { return n }
func (n *Num) Sub(string, Expr) Expr { return n }
func (n *Num) Eval() (*Num, bool)    { return n, true }
func (n *Num) Equal(other Expr) bool { o, ok := other.(*Num); return ok && n.val.Cmp(o.val) == 0 }
func (n *Num) Float64() float64      { f, _ := n.val.Float64(); return f }
func (n *Num) IsZero() bool          { return n.val.Sign() == 0 }
func (n *Num) IsOne() bool           { return n.val.Cmp(ratOne) == 0 }
func (n *Num) IsInteger() bool       { return n.val.IsInt() }
func (n *Num) Sign() int             { return n.val.Sign() }

func (n *Num) String() string {
	if n.val.IsInt() {
		return n.val.Num().String()
	}
	return n.val.RatString()
}

var ratOne = big.NewRat(1, 1)

func numAdd(a, b *Num) *Num { return &Num{val: new(big.Rat).Add(a.val, b.val)} }
func numMul(a, b *Num) *Num { return &Num{val: new(big.Rat).Mul(a.val, b.val)} }

// Sym is a named symbolic variable.
type Sym struct{ name string }

func S(name string) *Sym { return &Sym{name: name} }

func (s *Sym) Simplify() Expr     { return s }
func (s *Sym) String() string     { return s.name }
func (s *Sym) Name() string       { return s.name }
func (s *Sym) Eval() (*Num, bool) { return nil, false }
func (s *Sym) Equal(other Expr) bool {
	o, ok := other.(*Sym)
	return ok && s.name == o.name
}

func (s *Sym) Sub(name string, value Expr) Expr {
	if s.name == name {
		return value
	}
	return s
}

// Add is a sum of terms.
type Add struct{ terms []Expr }

func AddOf(terms ...Expr) Expr { return (&Add{terms: terms}).Simplify() }

// Simplify flattens nested sums, folds constants and collects like terms:
// 2*x + (-1)*x becomes x. Non-constant terms are keyed by their symbolic
// part with an exact rational coefficient.
func (a *Add) Simplify() Expr {
	flat := make([]Expr, 0, len(a.terms))
	for _, t := range a.terms {
		s := t.Simplify()
		if inner, ok := s.(*Add); ok {
			flat = append(flat, inner.terms...)
		} else {
			flat = append(flat, s)
		}
	}

	constant := N(0)
	coeffs := map[string]*Num{}
	parts := map[string]Expr{}
	order := []string{}
	for _, t := range flat {
		if v, ok := t.(*Num); ok {
			constant = numAdd(constant, v)
			continue
		}
		coeff, part := splitCoeff(t)
		key := part.String()
		if _, seen := coeffs[key]; !seen {
			coeffs[key] = N(0)
			parts[key] = part
			order = append(order, key)
		}
		coeffs[key] = numAdd(coeffs[key], coeff)
	}

	sort.Strings(order)
	result := make([]Expr, 0, len(order)+1)
	for _, key := range order {
		c := coeffs[key]
		switch {
		case c.IsZero():
		case c.IsOne():
			result = append(result, parts[key])
		default:
			result = append(result, MulOf(c, parts[key]))
		}
	}
	if !constant.IsZero() {
		result = append(result, constant)
	}

	if len(result) == 0 {
		return N(0)
	}
	if len(result) == 1 {
		return result[0]
	}
	return &Add{terms: result}
}

// splitCoeff separates a term into its leading rational coefficient and
// the remaining symbolic part.
func splitCoeff(t Expr) (*Num, Expr) {
	m, ok := t.(*Mul)
	if !ok {
		return N(1), t
	}
	coeff := N(1)
	rest := make([]Expr, 0, len(m.factors))
	for _, f := range m.factors {
		if v, ok := f.(*Num); ok {
			coeff = numMul(coeff, v)
		} else {
			rest = append(rest, f)
		}
	}
	switch len(rest) {
	case 0:
		return coeff, N(1)
	case 1:
		return coeff, rest[0]
	default:
		return coeff, &Mul{factors: rest}
	}
}

func (a *Add) String() string {
	parts := make([]string, len(a.terms))
	for i, t := range a.terms {
		parts[i] = t.String()
	}
	return strings.Join(parts, " + ")
}

func (a *Add) Sub(name string, value Expr) Expr {
	out := make([]Expr, len(a.terms))
	for i, t := range a.terms {
		out[i] = t.Sub(name, value)
	}
	return AddOf(out...)
}

func (a *Add) Eval() (*Num, bool) {
	acc := N(0)
	for _, t := range a.terms {
		v, ok := t.Eval()
		if !ok {
			return nil, false
		}
		acc = numAdd(acc, v)
	}
	return acc, true
}

func (a *Add) Equal(other Expr) bool {
	o, ok := other.(*Add)
	if !ok || len(a.terms) != len(o.terms) {
		return false
	}
	for i := range a.terms {
		if !a.terms[i].Equal(o.terms[i]) {
			return false
		}
	}
	return true
}

func (a *Add) Terms() []Expr { return a.terms }

// Mul is a product of factors.
type Mul struct{ factors []Expr }

func MulOf(factors ...Expr) Expr { return (&Mul{factors: factors}).Simplify() }

func (m *Mul) Simplify() Expr {
	flat := make([]Expr, 0, len(m.factors))
	for _, f := range m.factors {
		s := f.Simplify()
		if inner, ok := s.(*Mul); ok {
			flat = append(flat, inner.factors...)
		} else {
			flat = append(flat, s)
		}
	}

	coeff := N(1)
	others := make([]Expr, 0, len(flat))
	for _, f := range flat {
		if v, ok := f.(*Num); ok {
			coeff = numMul(coeff, v)
		} else {
			others = append(others, f)
		}
	}
	if coeff.IsZero() {
		return N(0)
	}
	if len(others) == 0 {
		return coeff
	}

	sort.Slice(others, func(i, j int) bool { return others[i].String() < others[j].String() })

	if coeff.IsOne() {
		if len(others) == 1 {
			return others[0]
		}
		return &Mul{factors: others}
	}
	return &Mul{factors: append([]Expr{coeff}, others...)}
}

func (m *Mul) String() string {
	parts := make([]string, len(m.factors))
	for i, f := range m.factors {
		if _, isAdd := f.(*Add); isAdd {
			parts[i] = "(" + f.String() + ")"
		} else {
			parts[i] = f.String()
		}
	}
	return strings.Join(parts, "*")
}

func (m *Mul) Sub(name string, value Expr) Expr {
	out := make([]Expr, len(m.factors))
	for i, f := range m.factors {
		out[i] = f.Sub(name, value)
	}
	return MulOf(out...)
}

func (m *Mul) Eval() (*Num, bool) {
	acc := N(1)
	for _, f := range m.factors {
		v, ok := f.Eval()
		if !ok {
			return nil, false
		}
		acc = numMul(acc, v)
	}
	return acc, true
}

func (m *Mul) Equal(other Expr) bool {
	o, ok := other.(*Mul)
	if !ok || len(m.factors) != len(o.factors) {
		return false
	}
	for i := range m.factors {
		if !m.factors[i].Equal(o.factors[i]) {
			return false
		}
	}
	return true
}

func (m *Mul) Factors() []Expr { return m.factors }

// Pow is base raised to an exponent. Division is represented as
// multiplication by a power with exponent -1.
type Pow struct{ base, exp Expr }

func PowOf(base, exp Expr) Expr { return (&Pow{base: base, exp: exp}).Simplify() }

func (p *Pow) Simplify() Expr {
	base := p.base.Simplify()
	exp := p.exp.Simplify()

	if en, ok := exp.(*Num); ok {
		if en.IsZero() {
			return N(1)
		}
		if en.IsOne() {
			return base
		}
		if bn, ok2 := base.(*Num); ok2 && en.IsInteger() {
			if bn.IsZero() {
				if en.Sign() > 0 {
					return N(0)
				}
				// 0 to a negative power: leave unevaluated.
				return &Pow{base: base, exp: exp}
			}
			if v, ok3 := intPow(bn, en); ok3 {
				return v
			}
		}
	}
	if inner, ok := base.(*Pow); ok {
		return PowOf(inner.base, MulOf(inner.exp, exp))
	}
	return &Pow{base: base, exp: exp}
}

func intPow(base, exp *Num) (*Num, bool) {
	e := exp.val.Num().Int64()
	neg := e < 0
	if neg {
		e = -e
	}
	if e > 64 {
		return nil, false
	}
	acc := N(1)
	for i := int64(0); i < e; i++ {
		acc = numMul(acc, base)
	}
	if neg {
		acc = &Num{val: new(big.Rat).Inv(acc.val)}
	}
	return acc, true
}

func (p *Pow) String() string {
	bs := p.base.String()
	switch p.base.(type) {
	case *Add, *Mul:
		bs = "(" + bs + ")"
	}
	es := p.exp.String()
	if _, ok := p.exp.(*Num); !ok {
		es = "(" + es + ")"
	} else if strings.HasPrefix(es, "-") || strings.Contains(es, "/") {
		es = "(" + es + ")"
	}
	return bs + "^" + es
}

func (p *Pow) Sub(name string, value Expr) Expr {
	return PowOf(p.base.Sub(name, value), p.exp.Sub(name, value))
}

func (p *Pow) Eval() (*Num, bool) {
	b, ok1 := p.base.Eval()
	e, ok2 := p.exp.Eval()
	if !ok1 || !ok2 {
		return nil, false
	}
	if e.IsInteger() && !b.IsZero() {
		return intPow(b, e)
	}
	f := math.Pow(b.Float64(), e.Float64())
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return nil, false
	}
	return NFloat(f), true
}

func (p *Pow) Equal(other Expr) bool {
	o, ok := other.(*Pow)
	return ok && p.base.Equal(o.base) && p.exp.Equal(o.exp)
}

func (p *Pow) Base() Expr     { return p.base }
func (p *Pow) Exponent() Expr { return p.exp }

// Max is the binary maximum of two expressions. It is commutative, so
// Simplify orders the operands canonically.
type Max struct{ a, b Expr }

func MaxOf(a, b Expr) Expr { return (&Max{a: a, b: b}).Simplify() }

func (m *Max) Simplify() Expr {
	a := m.a.Simplify()
	b := m.b.Simplify()
	if an, ok := a.(*Num); ok {
		if bn, ok2 := b.(*Num); ok2 {
			if an.val.Cmp(bn.val) >= 0 {
				return an
			}
			return bn
		}
	}
	if a.Equal(b) {
		return a
	}
	if b.String() < a.String() {
		a, b = b, a
	}
	return &Max{a: a, b: b}
}

func (m *Max) String() string { return "max(" + m.a.String() + ", " + m.b.String() + ")" }

func (m *Max) Sub(name string, value Expr) Expr {
	return MaxOf(m.a.Sub(name, value), m.b.Sub(name, value))
}

func (m *Max) Eval() (*Num, bool) {
	a, ok1 := m.a.Eval()
	b, ok2 := m.b.Eval()
	if !ok1 || !ok2 {
		return nil, false
	}
	if a.val.Cmp(b.val) >= 0 {
		return a, true
	}
	return b, true
}

func (m *Max) Equal(other Expr) bool {
	o, ok := other.(*Max)
	return ok && m.a.Equal(o.a) && m.b.Equal(o.b)
}

func (m *Max) Args() (Expr, Expr) { return m.a, m.b }

// FreeSymbols returns the set of symbol names occurring in e.
func FreeSymbols(e Expr) map[string]struct{} {
	out := map[string]struct{}{}
	collectSymbols(e, out)
	return out
}

func collectSymbols(e Expr, out map[string]struct{}) {
	switch v := e.(type) {
	case *Sym:
		out[v.name] = struct{}{}
	case *Add:
		for _, t := range v.terms {
			collectSymbols(t, out)
		}
	case *Mul:
		for _, f := range v.factors {
			collectSymbols(f, out)
		}
	case *Pow:
		collectSymbols(v.base, out)
		collectSymbols(v.exp, out)
	case *Max:
		collectSymbols(v.a, out)
		collectSymbols(v.b, out)
	}
}

// EvalAt evaluates e numerically with symbol values taken from env.
// It walks the tree directly instead of substituting and folding, so
// batch evaluation does not allocate intermediate expressions.
func EvalAt(e Expr, env map[string]float64) (float64, error) {
	switch v := e.(type) {
	case *Num:
		return v.Float64(), nil
	case *Sym:
		val, ok := env[v.name]
		if !ok {
			return 0, fmt.Errorf("symbolic: unbound symbol %q", v.name)
		}
		return val, nil
	case *Add:
		sum := 0.0
		for _, t := range v.terms {
			x, err := EvalAt(t, env)
			if err != nil {
				return 0, err
			}
			sum += x
		}
		return sum, nil
	case *Mul:
		prod := 1.0
		for _, f := range v.factors {
			x, err := EvalAt(f, env)
			if err != nil {
				return 0, err
			}
			prod *= x
		}
		return prod, nil
	case *Pow:
		b, err := EvalAt(v.base, env)
		if err != nil {
			return 0, err
		}
		x, err := EvalAt(v.exp, env)
		if err != nil {
			return 0, err
		}
		if b == 0 && x < 0 {
			return 0, fmt.Errorf("symbolic: division by zero in %s", e)
		}
		r := math.Pow(b, x)
		if math.IsNaN(r) || math.IsInf(r, 0) {
			return 0, fmt.Errorf("symbolic: %s is not finite at the given point", e)
		}
		return r, nil
	case *Max:
		a, err := EvalAt(v.a, env)
		if err != nil {
			return 0, err
		}
		b, err := EvalAt(v.b, env)
		if err != nil {
			return 0, err
		}
		return math.Max(a, b), nil
	}
	return 0, fmt.Errorf("symbolic: cannot evaluate %T", e)
}
