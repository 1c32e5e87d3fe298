package model

import (
	"fmt"
	"strconv"
	"strings"
)

// Reaction is one stoichiometric transformation, parsed from an equation
// of the form "<reactant-terms> => <product-terms>". Terms are joined by
// '+', each term an optional integer coefficient followed by a species
// name ("3x_s" and "2 P1" are both valid, coefficient defaults to 1).
// The derived update vector holds product minus reactant coefficients
// per species; zero entries (catalysis) and all-zero vectors are allowed.
type Reaction struct {
	equation string
	update   []int
}

const arrow = "=>"

func ParseReaction(equation string, vars *VariableRegistry) (*Reaction, error) {
	sides := strings.Split(equation, arrow)
	if len(sides) != 2 {
		return nil, fmt.Errorf("%w: %q must contain exactly one %q", ErrMalformedReaction, equation, arrow)
	}

	update := make([]int, vars.Len())
	if err := accumulateSide(sides[0], -1, update, vars); err != nil {
		return nil, err
	}
	if err := accumulateSide(sides[1], +1, update, vars); err != nil {
		return nil, err
	}
	return &Reaction{equation: equation, update: update}, nil
}

// accumulateSide adds sign*coefficient for every term of one side of the
// arrow into update. An empty side contributes nothing (pure birth or
// death reactions).
func accumulateSide(side string, sign int, update []int, vars *VariableRegistry) error {
	if strings.TrimSpace(side) == "" {
		return nil
	}
	for _, term := range strings.Split(side, "+") {
		term = strings.TrimSpace(term)
		if term == "" {
			return fmt.Errorf("%w: empty term", ErrMalformedReaction)
		}
		coeff, name := splitTerm(term)
		if name == "" {
			return fmt.Errorf("%w: term %q has no species name", ErrMalformedReaction, term)
		}
		v, ok := vars.Lookup(name)
		if !ok {
			return &UnresolvedSymbolError{Name: name}
		}
		update[v.Index()] += sign * coeff
	}
	return nil
}

// splitTerm strips a leading integer multiplier from a term; the default
// coefficient is 1.
func splitTerm(term string) (int, string) {
	i := 0
	for i < len(term) && term[i] >= '0' && term[i] <= '9' {
		i++
	}
	if i == 0 {
		return 1, term
	}
	coeff, err := strconv.Atoi(term[:i])
	if err != nil {
		return 1, term
	}
	return coeff, strings.TrimSpace(term[i:])
}

func (r *Reaction) Equation() string { return r.equation }

// UpdateVector returns a copy of the signed per-species update vector.
func (r *Reaction) UpdateVector() []int {
	out := make([]int, len(r.update))
	copy(out, r.update)
	return out
}

// ReactionCollection holds compiled reactions in declaration order.
type ReactionCollection struct {
	reactions []*Reaction
}

func NewReactionCollection(equations []string, vars *VariableRegistry) (*ReactionCollection, error) {
	c := &ReactionCollection{reactions: make([]*Reaction, 0, len(equations))}
	for _, eq := range equations {
		r, err := ParseReaction(eq, vars)
		if err != nil {
			return nil, err
		}
		c.reactions = append(c.reactions, r)
	}
	return c, nil
}

func (c *ReactionCollection) Len() int           { return len(c.reactions) }
func (c *ReactionCollection) At(i int) *Reaction { return c.reactions[i] }

// UpdateMatrix returns the stacked update vectors, one row per reaction
// in declaration order. The matrix is shared by the stochastic engine
// and the fluid-limit assembly.
func (c *ReactionCollection) UpdateMatrix() [][]int {
	m := make([][]int, len(c.reactions))
	for i, r := range c.reactions {
		m[i] = r.UpdateVector()
	}
	return m
}
