package analysis

import (
	"fmt"

	"crnsim/internal/config"
	"crnsim/internal/fluid"
	"crnsim/internal/model"
)

// SweepPoint is the fluid-limit end state for one parameter value.
type SweepPoint struct {
	Param float64
	Final []float64
}

// ParameterSweep recompiles the network across a parameter range and
// integrates the fluid limit at each value, recording the densities at
// the horizon. Useful for locating regime changes, like the epidemic
// threshold of an infection rate.
func ParameterSweep(doc *config.Document, paramName string, min, max float64, steps int, tMax float64) ([]SweepPoint, error) {
	if _, ok := doc.Parameters[paramName]; !ok {
		return nil, fmt.Errorf("analysis: unknown parameter %q", paramName)
	}
	if steps <= 1 {
		steps = 2
	}

	step := (max - min) / float64(steps-1)
	points := make([]SweepPoint, 0, steps)

	for i := 0; i < steps; i++ {
		value := min + float64(i)*step

		swept := *doc
		swept.Parameters = make(map[string]float64, len(doc.Parameters))
		for k, v := range doc.Parameters {
			swept.Parameters[k] = v
		}
		swept.Parameters[paramName] = value

		net, err := model.Compile(&swept)
		if err != nil {
			return nil, err
		}
		traj, err := fluid.IntegrateNetwork(net, tMax)
		if err != nil {
			return nil, err
		}

		final := traj.Densities[len(traj.Densities)-1]
		out := make([]float64, len(final))
		copy(out, final)
		points = append(points, SweepPoint{Param: value, Final: out})
	}

	return points, nil
}
