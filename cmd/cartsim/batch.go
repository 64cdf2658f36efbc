package main

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/san-kum/cartsim/internal/automation"
	"github.com/san-kum/cartsim/internal/optim"
	"github.com/san-kum/cartsim/internal/storage"
)

var (
	workers      int
	trials       int
	perturbation float64
	seed         int64
	bound        float64
	saveRuns     bool
	configPath   string
	metric       string
	grid         []string
)

func batchCommands() []*cobra.Command {
	sweepCmd := &cobra.Command{
		Use:   "sweep [config]",
		Short: "run one simulation per value of a constant",
		Args:  cobra.MaximumNArgs(1),
		RunE:  runSweep,
	}
	sweepCmd.Flags().StringVar(&preset, "preset", "", "use preset configuration")
	sweepCmd.Flags().StringVar(&param, "param", "A", "constant to vary")
	sweepCmd.Flags().Float64Var(&paramMin, "min", 0, "lowest value")
	sweepCmd.Flags().Float64Var(&paramMax, "max", 10, "highest value")
	sweepCmd.Flags().IntVar(&steps, "steps", 10, "number of values")
	sweepCmd.Flags().IntVar(&workers, "workers", 4, "parallel runs")

	monteCarloCmd := &cobra.Command{
		Use:   "montecarlo [config]",
		Short: "run perturbed copies of the initial conditions",
		Args:  cobra.MaximumNArgs(1),
		RunE:  runMonteCarlo,
	}
	monteCarloCmd.Flags().StringVar(&preset, "preset", "", "use preset configuration")
	monteCarloCmd.Flags().IntVar(&trials, "trials", 100, "number of trials")
	monteCarloCmd.Flags().Float64Var(&perturbation, "perturbation", 0.01, "uniform perturbation per component")
	monteCarloCmd.Flags().Int64Var(&seed, "seed", 0, "random seed (0 picks one)")
	monteCarloCmd.Flags().Float64Var(&bound, "bound", 1e6, "final |component| above this is unstable")
	monteCarloCmd.Flags().IntVar(&workers, "workers", 4, "parallel runs")

	scenarioCmd := &cobra.Command{
		Use:   "scenario [file]",
		Short: "run the steps of a scenario file",
		Args:  cobra.ExactArgs(1),
		RunE:  runScenario,
	}
	scenarioCmd.Flags().BoolVar(&saveRuns, "save", true, "store every step as a run")

	compareCmd := &cobra.Command{
		Use:   "compare [integrator1] [integrator2] ...",
		Short: "compare integrators on one config",
		Args:  cobra.MinimumNArgs(1),
		RunE:  compareIntegrators,
	}
	compareCmd.Flags().StringVar(&preset, "preset", "", "use preset configuration")
	compareCmd.Flags().StringVar(&configPath, "config", "", "config file path")

	tuneCmd := &cobra.Command{
		Use:   "tune [config]",
		Short: "grid search constants for the lowest value of a metric",
		Args:  cobra.MaximumNArgs(1),
		RunE:  tune,
	}
	tuneCmd.Flags().StringVar(&preset, "preset", "", "use preset configuration")
	tuneCmd.Flags().StringVar(&metric, "metric", "peak_displacement", "metric to minimize")
	tuneCmd.Flags().StringArrayVar(&grid, "grid", nil, "name=min:max:n, repeatable")

	return []*cobra.Command{sweepCmd, monteCarloCmd, scenarioCmd, compareCmd, tuneCmd}
}

func runSweep(cmd *cobra.Command, args []string) error {
	cfg, err := resolveConfig(cmd, args)
	if err != nil {
		return err
	}

	ctx, cancel := signalContext()
	defer cancel()

	fmt.Fprintf(cmd.OutOrStdout(), "sweeping %s from %g to %g in %d steps...\n", param, paramMin, paramMax, steps)
	results, err := automation.RunSweep(ctx, &automation.ParameterSweep{
		Base:      cfg,
		ParamName: param,
		ParamMin:  paramMin,
		ParamMax:  paramMax,
		NumSteps:  steps,
		Workers:   workers,
	})
	if err != nil {
		return err
	}

	w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
	fmt.Fprintf(w, "%s\tFINAL_X\tPEAK_X\tMIN_E\tMAX_E\tSTEPS\n", param)
	for _, r := range results {
		fmt.Fprintf(w, "%.4g\t%.5f\t%.5f\t%.4f\t%.4f\t%d\n",
			r.ParamValue, r.FinalState[0], r.Metrics["peak_displacement"], r.MinEnergy, r.MaxEnergy, r.Stats.Accepted)
	}
	return w.Flush()
}

func runMonteCarlo(cmd *cobra.Command, args []string) error {
	cfg, err := resolveConfig(cmd, args)
	if err != nil {
		return err
	}

	ctx, cancel := signalContext()
	defer cancel()

	fmt.Fprintf(cmd.OutOrStdout(), "running %d trials (±%g)...\n", trials, perturbation)
	results, err := automation.RunMonteCarlo(ctx, &automation.MonteCarloConfig{
		Base:         cfg,
		Perturbation: perturbation,
		NumTrials:    trials,
		Seed:         seed,
		Workers:      workers,
		Bound:        bound,
	})
	if err != nil {
		return err
	}

	stable, unstable := automation.MonteCarloStats(results)
	fmt.Fprintf(cmd.OutOrStdout(), "stable: %d, unstable: %d (%.1f%% stable)\n",
		stable, unstable, 100*float64(stable)/float64(max(len(results), 1)))
	return nil
}

func runScenario(cmd *cobra.Command, args []string) error {
	scenario, err := automation.LoadScenario(args[0])
	if err != nil {
		return err
	}

	ctx, cancel := signalContext()
	defer cancel()

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "scenario %s: %s\n", scenario.Name, scenario.Description)
	results, err := automation.RunScenario(ctx, scenario, func(i, n int, name string) {
		fmt.Fprintf(out, "[%d/%d] %s\n", i, n, name)
	})
	if err != nil {
		return err
	}
	if !saveRuns {
		return nil
	}

	st := storage.New(dataDir)
	if err := st.Init(); err != nil {
		return err
	}
	for _, r := range results {
		id, err := st.Save(r.Config, r.Trajectory)
		if err != nil {
			return err
		}
		fmt.Fprintf(out, "%s -> %s\n", r.Name, id)
	}
	return nil
}

func compareIntegrators(cmd *cobra.Command, args []string) error {
	var cfgArgs []string
	if configPath != "" {
		cfgArgs = []string{configPath}
	}
	cfg, err := resolveConfig(cmd, cfgArgs)
	if err != nil {
		return err
	}

	ctx, cancel := signalContext()
	defer cancel()

	results, err := automation.Compare(ctx, cfg, args...)
	if err != nil {
		return err
	}

	w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
	fmt.Fprintf(w, "INTEGRATOR\tELAPSED\tSTEPS\tEVALS\tFINAL_X\tMAX_DEV_X\n")
	for _, c := range results {
		fmt.Fprintf(w, "%s\t%v\t%d\t%d\t%.6f\t%.3e\n",
			c.Integrator, c.Elapsed, c.Trajectory.Stats.Accepted, c.Trajectory.Stats.Evaluations,
			c.Trajectory.Final()[0], c.MaxDeviation)
	}
	return w.Flush()
}

// parseGrid reads "name=min:max:n" specs.
func parseGrid(specs []string) ([]string, [][]float64, error) {
	names := make([]string, 0, len(specs))
	ranges := make([][]float64, 0, len(specs))
	for _, spec := range specs {
		name, rng, ok := strings.Cut(spec, "=")
		parts := strings.Split(rng, ":")
		if !ok || len(parts) != 3 {
			return nil, nil, fmt.Errorf("bad grid %q, want name=min:max:n", spec)
		}
		lo, err := strconv.ParseFloat(parts[0], 64)
		if err != nil {
			return nil, nil, fmt.Errorf("grid %s: %w", name, err)
		}
		hi, err := strconv.ParseFloat(parts[1], 64)
		if err != nil {
			return nil, nil, fmt.Errorf("grid %s: %w", name, err)
		}
		n, err := strconv.Atoi(parts[2])
		if err != nil {
			return nil, nil, fmt.Errorf("grid %s: %w", name, err)
		}
		names = append(names, name)
		ranges = append(ranges, optim.Linspace(lo, hi, n))
	}
	return names, ranges, nil
}

func tune(cmd *cobra.Command, args []string) error {
	cfg, err := resolveConfig(cmd, args)
	if err != nil {
		return err
	}
	names, ranges, err := parseGrid(grid)
	if err != nil {
		return err
	}
	if len(names) == 0 {
		return fmt.Errorf("at least one --grid is required")
	}

	ctx, cancel := signalContext()
	defer cancel()

	res, err := optim.NewGridSearch(names, ranges).Search(ctx, cfg, metric)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "best %s = %.6f after %d runs\n", metric, res.Value, res.Runs)
	sort.Strings(names)
	for _, name := range names {
		fmt.Fprintf(out, "  %s = %g\n", name, res.Params[name])
	}
	return nil
}
