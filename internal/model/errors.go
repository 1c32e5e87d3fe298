package model

import (
	"errors"
	"fmt"
)

// Domain errors for model compilation.
var (
	// ErrDuplicateSpecies indicates a species name declared twice.
	ErrDuplicateSpecies = errors.New("model: duplicate species name")

	// ErrMalformedReaction indicates a reaction equation that cannot be read.
	ErrMalformedReaction = errors.New("model: malformed reaction equation")

	// ErrMissingSystemSize indicates a document without exactly one system-size entry.
	ErrMissingSystemSize = errors.New("model: system size must declare exactly one entry")

	// ErrMissingInitialCondition indicates a species without an initial population.
	ErrMissingInitialCondition = errors.New("model: missing initial condition")
)

// UnresolvedSymbolError reports a token in a reaction or rate expression
// that matches no declared species or parameter. Compilation aborts on
// the first occurrence; there is no partial model.
type UnresolvedSymbolError struct {
	Name string
}

func (e *UnresolvedSymbolError) Error() string {
	return fmt.Sprintf("Unable to find reagent '%s' inside the list of variables", e.Name)
}

// DimensionMismatchError reports a state vector whose length disagrees
// with the number of rate functions. The check deliberately compares
// against the rate-function count, not the species count.
type DimensionMismatchError struct {
	Input         int
	RateFunctions int
}

func (e *DimensionMismatchError) Error() string {
	return fmt.Sprintf("Array shapes mismatch: input vector %d, rate functions %d.", e.Input, e.RateFunctions)
}
