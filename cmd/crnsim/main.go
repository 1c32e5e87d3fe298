package main

import (
	"context"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"text/tabwriter"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"crnsim/internal/analysis"
	"crnsim/internal/config"
	"crnsim/internal/fluid"
	"crnsim/internal/metrics"
	"crnsim/internal/model"
	"crnsim/internal/solver"
	"crnsim/internal/ssa"
	"crnsim/internal/storage"
	"crnsim/internal/viz"
)

var (
	dataDir     string
	tMax        float64
	seed        int64
	recordEvery int
	numRuns     int
	gridPoints  int
	solverName  string
	noSave      bool
	plotHeight  int
	plotWidth   int
	speciesIdx  int
	sweepParam  string
	sweepMin    float64
	sweepMax    float64
	sweepSteps  int
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "crnsim",
		Short: "stochastic and fluid-limit simulation of reaction networks",
	}

	rootCmd.PersistentFlags().StringVar(&dataDir, "data", ".crnsim", "data directory")

	validateCmd := &cobra.Command{
		Use:   "validate [config]",
		Short: "compile a network and print its structure",
		Args:  cobra.ExactArgs(1),
		RunE:  validateNetwork,
	}

	runCmd := &cobra.Command{
		Use:   "run [config]",
		Short: "run one stochastic realization",
		Args:  cobra.ExactArgs(1),
		RunE:  runStochastic,
	}
	runCmd.Flags().Float64Var(&tMax, "time", 40.0, "simulated time horizon")
	runCmd.Flags().Int64Var(&seed, "seed", time.Now().UnixNano(), "random seed")
	runCmd.Flags().IntVar(&recordEvery, "record-every", 1, "keep every n-th event")
	runCmd.Flags().BoolVar(&noSave, "no-save", false, "do not persist the run")

	ensembleCmd := &cobra.Command{
		Use:   "ensemble [config]",
		Short: "run many stochastic realizations concurrently",
		Args:  cobra.ExactArgs(1),
		RunE:  runEnsemble,
	}
	ensembleCmd.Flags().Float64Var(&tMax, "time", 40.0, "simulated time horizon")
	ensembleCmd.Flags().Int64Var(&seed, "seed", time.Now().UnixNano(), "seed of the first member")
	ensembleCmd.Flags().IntVar(&numRuns, "runs", 10, "number of realizations")

	fluidCmd := &cobra.Command{
		Use:   "fluid [config]",
		Short: "integrate the deterministic fluid limit",
		Args:  cobra.ExactArgs(1),
		RunE:  runFluid,
	}
	fluidCmd.Flags().Float64Var(&tMax, "time", 40.0, "integration horizon")
	fluidCmd.Flags().IntVar(&gridPoints, "points", 1000, "time grid points")
	fluidCmd.Flags().StringVar(&solverName, "solver", "rk45", "ode solver (euler, rk4, rk45)")
	fluidCmd.Flags().BoolVar(&noSave, "no-save", false, "do not persist the run")

	listCmd := &cobra.Command{
		Use:   "list",
		Short: "list saved runs",
		RunE:  listRuns,
	}

	plotCmd := &cobra.Command{
		Use:   "plot [run_id]",
		Short: "plot a saved run",
		Args:  cobra.ExactArgs(1),
		RunE:  plotRun,
	}
	plotCmd.Flags().IntVar(&plotHeight, "height", 10, "plot height")
	plotCmd.Flags().IntVar(&plotWidth, "width", 80, "plot width")

	exportCmd := &cobra.Command{
		Use:   "export [run_id]",
		Short: "export run metadata as JSON",
		Args:  cobra.ExactArgs(1),
		RunE:  exportRun,
	}

	exportCSVCmd := &cobra.Command{
		Use:   "export-csv [run_id]",
		Short: "export run trajectory as CSV",
		Args:  cobra.ExactArgs(1),
		RunE:  exportCSV,
	}

	liveCmd := &cobra.Command{
		Use:   "live [config]",
		Short: "run a stochastic realization with live visualization",
		Args:  cobra.ExactArgs(1),
		RunE:  runLive,
	}
	liveCmd.Flags().Float64Var(&tMax, "time", 40.0, "simulated time horizon")
	liveCmd.Flags().Int64Var(&seed, "seed", time.Now().UnixNano(), "random seed")

	analyzeCmd := &cobra.Command{
		Use:   "analyze [run_id]",
		Short: "frequency analysis of a saved run",
		Args:  cobra.ExactArgs(1),
		RunE:  analyzeRun,
	}
	analyzeCmd.Flags().IntVar(&speciesIdx, "species", 0, "species index to analyze")

	sweepCmd := &cobra.Command{
		Use:   "sweep [config]",
		Short: "sweep a parameter over the fluid limit",
		Args:  cobra.ExactArgs(1),
		RunE:  runSweep,
	}
	sweepCmd.Flags().StringVar(&sweepParam, "param", "", "parameter to sweep")
	sweepCmd.Flags().Float64Var(&sweepMin, "min", 0, "lowest parameter value")
	sweepCmd.Flags().Float64Var(&sweepMax, "max", 1, "highest parameter value")
	sweepCmd.Flags().IntVar(&sweepSteps, "steps", 20, "number of values")
	sweepCmd.Flags().Float64Var(&tMax, "time", 40.0, "integration horizon per value")

	rootCmd.AddCommand(validateCmd, runCmd, ensembleCmd, fluidCmd, listCmd, plotCmd, exportCmd, exportCSVCmd, liveCmd, analyzeCmd, sweepCmd)

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func loadNetwork(path string) (*model.Network, string, error) {
	doc, err := config.Load(path)
	if err != nil {
		return nil, "", err
	}
	if doc == nil {
		return nil, "", fmt.Errorf("%s: empty document", path)
	}
	net, err := model.Compile(doc)
	if err != nil {
		return nil, "", err
	}
	name := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	return net, name, nil
}

func validateNetwork(cmd *cobra.Command, args []string) error {
	net, name, err := loadNetwork(args[0])
	if err != nil {
		return err
	}

	fmt.Printf("network: %s\n", name)
	fmt.Printf("species: %s\n", strings.Join(net.Variables.Names(), ", "))
	fmt.Printf("system size: %s = %g\n\n", net.SystemSizeName, net.SystemSize)

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "REACTION\tRATE\tUPDATE")
	for i := 0; i < net.Reactions.Len(); i++ {
		fmt.Fprintf(w, "%s\t%s\t%v\n",
			net.Reactions.At(i).Equation(),
			net.Rates.At(i).Source(),
			net.Reactions.At(i).UpdateVector(),
		)
	}
	if err := w.Flush(); err != nil {
		return err
	}

	// Derive the limit fields too, so an unscalable rate fails here
	// rather than at fluid time.
	deriver := fluid.NewDeriver(fluid.NewDensityRegistry(net.Variables), net.SystemSizeName)
	fields, err := deriver.Derive(net.ScaledRates)
	if err != nil {
		return err
	}
	fmt.Println("\nfluid-limit fields:")
	for i, f := range fields {
		fmt.Printf("  %d: %s\n", i, f)
	}
	return nil
}

func runStochastic(cmd *cobra.Command, args []string) error {
	net, name, err := loadNetwork(args[0])
	if err != nil {
		return err
	}

	engine := ssa.New(net.Reactions, net.Rates)
	engine.AddMetric(metrics.NewTotalPopulation())
	engine.AddMetric(metrics.NewConservationDrift())

	fmt.Printf("running %s...\n", name)
	start := time.Now()

	result, err := engine.Run(context.Background(), net.InitialPopulations, ssa.Config{
		TMax:        tMax,
		Seed:        seed,
		RecordEvery: recordEvery,
	})
	if err != nil {
		return err
	}

	elapsed := time.Since(start)
	fmt.Printf("completed in %v\n", elapsed)
	fmt.Printf("events: %d\n", result.StepsTaken)
	if result.Absorbed {
		fmt.Println("absorbed before the horizon")
	}
	fmt.Println("\nmetrics:")
	for mName, val := range result.Metrics {
		fmt.Printf("  %s: %.6f\n", mName, val)
	}

	if noSave {
		return nil
	}

	st := storage.New(dataDir)
	if err := st.Init(); err != nil {
		return err
	}

	states := make([][]float64, len(result.States))
	for i, s := range result.States {
		states[i] = s
	}
	runID, err := st.Save(storage.RunMetadata{
		Network: name,
		Mode:    "ssa",
		Seed:    seed,
		TMax:    tMax,
		Species: net.Variables.Names(),
		Metrics: result.Metrics,
	}, result.Times, states)
	if err != nil {
		return err
	}
	fmt.Printf("\nrun id: %s\n", runID)
	return nil
}

func runEnsemble(cmd *cobra.Command, args []string) error {
	net, name, err := loadNetwork(args[0])
	if err != nil {
		return err
	}

	base := ssa.New(net.Reactions, net.Rates)
	ens := ssa.NewEnsemble(base, numRuns, seed).WithMetrics(func() []ssa.Metric {
		return []ssa.Metric{metrics.NewTotalPopulation(), metrics.NewConservationDrift()}
	})

	fmt.Printf("running %d realizations of %s...\n", numRuns, name)
	start := time.Now()

	results, err := ens.Run(context.Background(), net.InitialPopulations, ssa.Config{TMax: tMax})
	if err != nil {
		return err
	}

	fmt.Printf("completed in %v\n\n", time.Since(start))

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	header := "RUN\tSEED\tEVENTS\tFINAL"
	fmt.Fprintln(w, header)
	for i, r := range results {
		final := r.States[len(r.States)-1]
		fmt.Fprintf(w, "%d\t%d\t%d\t%v\n", i, seed+int64(i), r.StepsTaken, final)
	}
	if err := w.Flush(); err != nil {
		return err
	}

	// Ensemble mean of the final state.
	mean := make([]float64, net.Variables.Len())
	for _, r := range results {
		final := r.States[len(r.States)-1]
		for i, v := range final {
			mean[i] += v / float64(len(results))
		}
	}
	fmt.Println("\nmean final state:")
	for i, spName := range net.Variables.Names() {
		fmt.Printf("  %s: %.3f\n", spName, mean[i])
	}
	return nil
}

func runFluid(cmd *cobra.Command, args []string) error {
	net, name, err := loadNetwork(args[0])
	if err != nil {
		return err
	}

	var sol solver.Solver
	switch solverName {
	case "euler":
		sol = solver.NewEuler(10)
	case "rk4":
		sol = solver.NewRK4(10)
	case "rk45":
		sol = solver.NewRK45()
	default:
		return fmt.Errorf("unknown solver: %s (euler, rk4, rk45)", solverName)
	}

	fmt.Printf("integrating fluid limit of %s...\n", name)
	start := time.Now()

	traj, err := fluid.Integrate(fluid.Config{
		UpdateMatrix:       net.Reactions.UpdateMatrix(),
		InitialPopulations: net.InitialPopulations,
		Rates:              net.ScaledRates,
		Variables:          net.Variables,
		SystemSizeName:     net.SystemSizeName,
		SystemSize:         net.SystemSize,
		TMax:               tMax,
		GridPoints:         gridPoints,
		Solver:             sol,
	})
	if err != nil {
		return err
	}

	fmt.Printf("completed in %v\n", time.Since(start))
	fmt.Printf("grid points: %d\n", len(traj.Times))

	final := traj.Densities[len(traj.Densities)-1]
	fmt.Println("\nfinal densities:")
	for i, spName := range net.Variables.Names() {
		fmt.Printf("  %s: %.6f\n", spName, final[i])
	}

	if noSave {
		return nil
	}

	st := storage.New(dataDir)
	if err := st.Init(); err != nil {
		return err
	}
	runID, err := st.Save(storage.RunMetadata{
		Network: name,
		Mode:    "fluid",
		TMax:    tMax,
		Species: net.Variables.Names(),
	}, traj.Times, traj.Densities)
	if err != nil {
		return err
	}
	fmt.Printf("\nrun id: %s\n", runID)
	return nil
}

func listRuns(cmd *cobra.Command, args []string) error {
	st := storage.New(dataDir)
	runs, err := st.List()
	if err != nil {
		return err
	}

	if len(runs) == 0 {
		fmt.Println("no runs found")
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tNETWORK\tMODE\tTIME\tHORIZON\tSTEPS")
	for _, run := range runs {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%.2f\t%d\n",
			run.ID,
			run.Network,
			run.Mode,
			run.Timestamp.Format("2006-01-02 15:04:05"),
			run.TMax,
			run.Steps,
		)
	}
	return w.Flush()
}

func plotRun(cmd *cobra.Command, args []string) error {
	runID := args[0]

	st := storage.New(dataDir)
	meta, err := st.Load(runID)
	if err != nil {
		return err
	}
	_, states, err := st.LoadTrajectory(runID)
	if err != nil {
		return err
	}
	if len(states) == 0 {
		return fmt.Errorf("no data to plot")
	}

	fmt.Printf("run: %s\n", meta.ID)
	fmt.Printf("network: %s (%s)\n", meta.Network, meta.Mode)
	fmt.Printf("samples: %d\n\n", len(states))

	fmt.Print(viz.PlotTrajectory(meta.Species, states, plotHeight, plotWidth))
	return nil
}

func exportRun(cmd *cobra.Command, args []string) error {
	st := storage.New(dataDir)
	meta, err := st.Load(args[0])
	if err != nil {
		return err
	}

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(meta)
}

func exportCSV(cmd *cobra.Command, args []string) error {
	st := storage.New(dataDir)
	meta, err := st.Load(args[0])
	if err != nil {
		return err
	}
	times, states, err := st.LoadTrajectory(args[0])
	if err != nil {
		return err
	}
	if len(states) == 0 {
		return fmt.Errorf("no data to export")
	}

	w := csv.NewWriter(os.Stdout)
	defer w.Flush()

	header := append([]string{"time"}, meta.Species...)
	if err := w.Write(header); err != nil {
		return err
	}
	for i := range states {
		row := []string{strconv.FormatFloat(times[i], 'f', 6, 64)}
		for _, val := range states[i] {
			row = append(row, strconv.FormatFloat(val, 'f', 6, 64))
		}
		if err := w.Write(row); err != nil {
			return err
		}
	}
	return nil
}

func analyzeRun(cmd *cobra.Command, args []string) error {
	runID := args[0]

	st := storage.New(dataDir)
	meta, err := st.Load(runID)
	if err != nil {
		return err
	}
	times, states, err := st.LoadTrajectory(runID)
	if err != nil {
		return err
	}
	if len(states) == 0 {
		return fmt.Errorf("no data")
	}
	if speciesIdx >= len(states[0]) {
		return fmt.Errorf("species index %d out of range", speciesIdx)
	}

	spName := fmt.Sprintf("x%d", speciesIdx)
	if speciesIdx < len(meta.Species) {
		spName = meta.Species[speciesIdx]
	}

	fmt.Printf("frequency analysis: %s\n", meta.ID)
	fmt.Printf("species: %s\n\n", spName)

	data := make([]float64, len(states))
	for i := range states {
		data[i] = states[i][speciesIdx]
	}

	// Event times are irregular for stochastic runs; regularize first.
	uniform := analysis.Resample(times, data, len(data))
	ps := analysis.PowerSpectrum(uniform)
	plotData := ps[:len(ps)/4]

	fmt.Println(viz.PlotSeries(fmt.Sprintf("power spectrum (%s)", spName), plotData, 15, 80))
	fmt.Println()

	duration := times[len(times)-1] - times[0]
	freq := analysis.DominantFrequency(ps, duration)
	fmt.Printf("dominant frequency: %.3f cycles per unit time\n", freq)
	if freq > 0 {
		fmt.Printf("period: %.3f\n", 1.0/freq)
	}
	return nil
}

func runSweep(cmd *cobra.Command, args []string) error {
	if sweepParam == "" {
		return fmt.Errorf("--param is required")
	}

	doc, err := config.Load(args[0])
	if err != nil {
		return err
	}
	if doc == nil {
		return fmt.Errorf("%s: empty document", args[0])
	}

	points, err := analysis.ParameterSweep(doc, sweepParam, sweepMin, sweepMax, sweepSteps, tMax)
	if err != nil {
		return err
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	header := sweepParam
	for _, sp := range doc.Species {
		header += "\t" + sp
	}
	fmt.Fprintln(w, header)
	for _, p := range points {
		row := fmt.Sprintf("%.4f", p.Param)
		for _, v := range p.Final {
			row += fmt.Sprintf("\t%.4f", v)
		}
		fmt.Fprintln(w, row)
	}
	return w.Flush()
}

func runLive(cmd *cobra.Command, args []string) error {
	net, name, err := loadNetwork(args[0])
	if err != nil {
		return err
	}

	engine := ssa.New(net.Reactions, net.Rates)
	m := viz.NewLiveModel(engine, net.Variables.Names(), name, net.InitialPopulations, seed, tMax)

	p := tea.NewProgram(m)
	if _, err := p.Run(); err != nil {
		return err
	}
	return nil
}
