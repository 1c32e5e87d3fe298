// Package config reads reaction-network documents from YAML.
//
// A document carries the full textual specification of a network: the
// species list, parameter values, reaction equations with their
// position-matched rate functions, initial populations and the system
// size. Observables and Properties are carried through for external
// consumers; the core does not interpret them.
package config

import (
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

type Document struct {
	Species           []string           `yaml:"Species"`
	Parameters        map[string]float64 `yaml:"Parameters"`
	Reactions         []string           `yaml:"Reactions"`
	RateFunctions     []string           `yaml:"Rate functions"`
	InitialConditions map[string]float64 `yaml:"Initial conditions"`
	SystemSize        map[string]float64 `yaml:"System size"`
	Simulation        string             `yaml:"Simulation"`
	Observables       []string           `yaml:"Observables"`
	Properties        map[string]float64 `yaml:"Properties"`
}

// Load reads a document from path. A nonexistent path is an error and
// propagates as one; an empty or whitespace-only file is valid input and
// yields an absent document, not an error.
func Load(path string) (*Document, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return Parse(data)
}

// Parse converts raw YAML into a Document. A blank input returns
// (nil, nil): the absence of a document is a value, distinct from a
// malformed document, which is an error.
func Parse(data []byte) (*Document, error) {
	if strings.TrimSpace(string(data)) == "" {
		return nil, nil
	}
	var doc Document
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, err
	}
	return &doc, nil
}
