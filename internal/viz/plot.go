package viz

import (
	"fmt"
	"strings"

	"github.com/guptarohit/asciigraph"
)

// PlotSeries renders one named series as an ascii graph.
func PlotSeries(name string, data []float64, height, width int) string {
	return asciigraph.Plot(data,
		asciigraph.Height(height),
		asciigraph.Width(width),
		asciigraph.Caption(name),
	)
}

// PlotTrajectory renders one graph per species, in species order.
func PlotTrajectory(species []string, states [][]float64, height, width int) string {
	if len(states) == 0 {
		return ""
	}

	var b strings.Builder
	for idx, name := range species {
		if idx >= len(states[0]) {
			break
		}
		data := make([]float64, len(states))
		for i := range states {
			data[i] = states[i][idx]
		}
		b.WriteString(PlotSeries(fmt.Sprintf("%s vs time", name), data, height, width))
		b.WriteString("\n\n")
	}
	return b.String()
}
