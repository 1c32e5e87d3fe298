package model

import (
	"fmt"

	"crnsim/internal/config"
)

// Network is a fully compiled reaction network: every collection shares
// the same species ordering and is immutable after compilation, so one
// network can back a stochastic run and a fluid run at the same time
// without synchronization.
type Network struct {
	Variables  *VariableRegistry
	Parameters *ParameterTable

	Reactions *ReactionCollection

	// Rates has every parameter substituted to a literal; this is the
	// propensity collection the stochastic engine evaluates.
	Rates *RateExpressionCollection

	// ScaledRates keeps the system size symbolic; this is the
	// pre-scaling collection the fluid-limit derivation consumes.
	ScaledRates *RateExpressionCollection

	// InitialPopulations is indexed by species.
	InitialPopulations []float64

	SystemSizeName string
	SystemSize     float64

	Simulation  string
	Observables []string
	Properties  map[string]float64
}

// Compile validates a document and builds the network. Any parse or
// resolution failure aborts compilation immediately; there is no
// partial model.
func Compile(doc *config.Document) (*Network, error) {
	if doc == nil {
		return nil, fmt.Errorf("model: cannot compile an absent document")
	}
	if len(doc.SystemSize) != 1 {
		return nil, fmt.Errorf("%w: got %d", ErrMissingSystemSize, len(doc.SystemSize))
	}
	if len(doc.Reactions) != len(doc.RateFunctions) {
		return nil, fmt.Errorf("model: %d reactions but %d rate functions; they are matched by position",
			len(doc.Reactions), len(doc.RateFunctions))
	}

	vars, err := NewVariableRegistry(doc.Species)
	if err != nil {
		return nil, err
	}

	var sizeName string
	var sizeValue float64
	for name, value := range doc.SystemSize {
		sizeName, sizeValue = name, value
	}

	params := NewParameterTable(doc.Parameters).With(map[string]float64{sizeName: sizeValue})

	reactions, err := NewReactionCollection(doc.Reactions, vars)
	if err != nil {
		return nil, err
	}

	rates, err := NewRateExpressionCollection(doc.RateFunctions, vars, params)
	if err != nil {
		return nil, err
	}

	scaled, err := NewRateExpressionCollection(doc.RateFunctions, vars, params, sizeName)
	if err != nil {
		return nil, err
	}

	initial := make([]float64, vars.Len())
	for i := 0; i < vars.Len(); i++ {
		name := vars.ByIndex(i).Name()
		v, ok := doc.InitialConditions[name]
		if !ok {
			return nil, fmt.Errorf("%w: %s", ErrMissingInitialCondition, name)
		}
		initial[i] = v
	}

	return &Network{
		Variables:          vars,
		Parameters:         params,
		Reactions:          reactions,
		Rates:              rates,
		ScaledRates:        scaled,
		InitialPopulations: initial,
		SystemSizeName:     sizeName,
		SystemSize:         sizeValue,
		Simulation:         doc.Simulation,
		Observables:        doc.Observables,
		Properties:         doc.Properties,
	}, nil
}
