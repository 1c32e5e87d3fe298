// Package model compiles a textual reaction-network specification into
// immutable symbolic objects bound to a fixed species ordering: a species
// registry, stoichiometric reactions with signed update vectors, and rate
// expressions over species symbols. Collections preserve declaration
// order; reaction i and rate function i describe the same logical
// reaction, and the species ordering fixes the index convention used by
// every state vector in the system.
package model

import (
	"fmt"

	"crnsim/internal/symbolic"
)

// Variable is one species: a unique name bound to a symbol and a stable
// index in 0..n-1.
type Variable struct {
	name   string
	index  int
	symbol *symbolic.Sym
}

func (v Variable) Name() string          { return v.name }
func (v Variable) Index() int            { return v.index }
func (v Variable) Symbol() *symbolic.Sym { return v.symbol }

// VariableRegistry is the ordered species table. It is immutable after
// construction and may be shared across simulation runs.
type VariableRegistry struct {
	vars   []Variable
	byName map[string]int
}

func NewVariableRegistry(names []string) (*VariableRegistry, error) {
	r := &VariableRegistry{
		vars:   make([]Variable, 0, len(names)),
		byName: make(map[string]int, len(names)),
	}
	for i, name := range names {
		if _, dup := r.byName[name]; dup {
			return nil, fmt.Errorf("%w: %s", ErrDuplicateSpecies, name)
		}
		r.byName[name] = i
		r.vars = append(r.vars, Variable{name: name, index: i, symbol: symbolic.S(name)})
	}
	return r, nil
}

func (r *VariableRegistry) Len() int { return len(r.vars) }

func (r *VariableRegistry) Lookup(name string) (Variable, bool) {
	i, ok := r.byName[name]
	if !ok {
		return Variable{}, false
	}
	return r.vars[i], true
}

func (r *VariableRegistry) ByIndex(i int) Variable { return r.vars[i] }

func (r *VariableRegistry) Names() []string {
	names := make([]string, len(r.vars))
	for i, v := range r.vars {
		names[i] = v.name
	}
	return names
}

// ParameterTable maps parameter names, including the system size, to
// numeric values.
type ParameterTable struct {
	values map[string]float64
}

func NewParameterTable(values map[string]float64) *ParameterTable {
	t := &ParameterTable{values: make(map[string]float64, len(values))}
	for k, v := range values {
		t.values[k] = v
	}
	return t
}

func (t *ParameterTable) Lookup(name string) (float64, bool) {
	v, ok := t.values[name]
	return v, ok
}

func (t *ParameterTable) Len() int { return len(t.values) }

// With returns a new table extended by the given entries; the receiver
// is left untouched.
func (t *ParameterTable) With(extra map[string]float64) *ParameterTable {
	out := &ParameterTable{values: make(map[string]float64, len(t.values)+len(extra))}
	for k, v := range t.values {
		out.values[k] = v
	}
	for k, v := range extra {
		out.values[k] = v
	}
	return out
}
