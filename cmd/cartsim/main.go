package main

import (
	"context"
	"fmt"
	"math"
	"os"
	"os/signal"
	"path/filepath"
	"sort"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/guptarohit/asciigraph"
	"github.com/spf13/cobra"

	"github.com/san-kum/cartsim/internal/analysis"
	"github.com/san-kum/cartsim/internal/config"
	"github.com/san-kum/cartsim/internal/dynamo"
	"github.com/san-kum/cartsim/internal/experiment"
	"github.com/san-kum/cartsim/internal/export"
	"github.com/san-kum/cartsim/internal/gui"
	"github.com/san-kum/cartsim/internal/physics"
	"github.com/san-kum/cartsim/internal/plot"
	"github.com/san-kum/cartsim/internal/storage"
	"github.com/san-kum/cartsim/internal/viz"
)

var (
	dataDir string
	preset  string
	runName string
	// Run overrides
	integrator string
	tEnd       float64
	samples    int
	rtol       float64
	atol       float64
	// Phase plot axes
	xAxis int
	yAxis int
	// Replay
	rate    float64
	theme   string
	gifPath string
	// Output paths
	outPath string
	pngDir  string
	frame   int
	// Analysis
	channel   int
	fmax      float64
	lyapunov  bool
	poincare  bool
	param     string
	paramMin  float64
	paramMax  float64
	steps     int
	transient float64
	periods   int
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "cartsim",
		Short: "forced cart and pendulum simulator",
	}

	rootCmd.PersistentFlags().StringVar(&dataDir, "data", ".cartsim", "data directory")

	runCmd := &cobra.Command{
		Use:   "run [config]",
		Short: "run a simulation from a config file or preset",
		Args:  cobra.MaximumNArgs(1),
		RunE:  runSimulation,
	}
	runCmd.Flags().StringVar(&preset, "preset", "", "use preset configuration")
	runCmd.Flags().StringVar(&runName, "name", "", "run name")
	runCmd.Flags().StringVar(&integrator, "integrator", config.DefaultIntegrator, "integrator")
	runCmd.Flags().Float64Var(&tEnd, "tend", config.DefaultTEnd, "end time")
	runCmd.Flags().IntVar(&samples, "samples", config.DefaultSamples, "output samples")
	runCmd.Flags().Float64Var(&rtol, "rtol", 0, "relative tolerance (rk45)")
	runCmd.Flags().Float64Var(&atol, "atol", 0, "absolute tolerance (rk45)")

	listCmd := &cobra.Command{
		Use:   "list",
		Short: "list runs",
		RunE:  listRuns,
	}

	infoCmd := &cobra.Command{
		Use:   "info [run_id]",
		Short: "show run metadata",
		Args:  cobra.ExactArgs(1),
		RunE:  showInfo,
	}

	presetsCmd := &cobra.Command{
		Use:   "presets",
		Short: "list presets",
		RunE:  listPresets,
	}

	plotCmd := &cobra.Command{
		Use:   "plot [run_id]",
		Short: "plot run results",
		Args:  cobra.ExactArgs(1),
		RunE:  plotRun,
	}
	plotCmd.Flags().StringVar(&pngDir, "png", "", "also write motion.png and energy.png to this directory")

	energyCmd := &cobra.Command{
		Use:   "energy [run_id]",
		Short: "plot the energy of a run",
		Args:  cobra.ExactArgs(1),
		RunE:  energyRun,
	}

	animateCmd := &cobra.Command{
		Use:   "animate [run_id]",
		Short: "replay a run in the terminal",
		Args:  cobra.ExactArgs(1),
		RunE:  animateRun,
	}
	animateCmd.Flags().Float64Var(&rate, "rate", 1, "simulated seconds per second")
	animateCmd.Flags().StringVar(&theme, "theme", "night", "color theme ("+strings.Join(viz.ThemeNames(), ", ")+")")
	animateCmd.Flags().StringVar(&gifPath, "gif", "", "record the replay to this gif")

	guiCmd := &cobra.Command{
		Use:   "gui [run_id]",
		Short: "replay a run in a window",
		Args:  cobra.ExactArgs(1),
		RunE:  guiRun,
	}

	analyzeCmd := &cobra.Command{
		Use:   "analyze [run_id]",
		Short: "frequency analysis",
		Args:  cobra.ExactArgs(1),
		RunE:  analyzeRun,
	}
	analyzeCmd.Flags().IntVar(&channel, "channel", 0, "state index to analyze")
	analyzeCmd.Flags().Float64Var(&fmax, "fmax", 2, "highest frequency shown (Hz)")
	analyzeCmd.Flags().BoolVar(&lyapunov, "lyapunov", false, "estimate the largest Lyapunov exponent")

	phaseCmd := &cobra.Command{
		Use:   "phase [run_id]",
		Short: "phase space plot",
		Args:  cobra.ExactArgs(1),
		RunE:  phasePlot,
	}
	phaseCmd.Flags().IntVar(&xAxis, "x-axis", 0, "state index for x-axis")
	phaseCmd.Flags().IntVar(&yAxis, "y-axis", 1, "state index for y-axis")
	phaseCmd.Flags().BoolVar(&poincare, "poincare", false, "plot only upward zero crossings of the x-axis channel")

	bifurcationCmd := &cobra.Command{
		Use:   "bifurcation [config]",
		Short: "stroboscopic bifurcation diagram over one constant",
		Args:  cobra.MaximumNArgs(1),
		RunE:  bifurcation,
	}
	bifurcationCmd.Flags().StringVar(&preset, "preset", "", "use preset configuration")
	bifurcationCmd.Flags().StringVar(&param, "param", "A", "constant to vary")
	bifurcationCmd.Flags().Float64Var(&paramMin, "min", 0, "lowest value")
	bifurcationCmd.Flags().Float64Var(&paramMax, "max", 10, "highest value")
	bifurcationCmd.Flags().IntVar(&steps, "steps", 50, "number of values")
	bifurcationCmd.Flags().IntVar(&channel, "channel", 0, "state index to sample")
	bifurcationCmd.Flags().Float64Var(&transient, "transient", 100, "settling time before sampling")
	bifurcationCmd.Flags().IntVar(&periods, "periods", 30, "forcing periods sampled")

	exportCSVCmd := &cobra.Command{
		Use:   "export-csv [run_id]",
		Short: "export run data to CSV",
		Args:  cobra.ExactArgs(1),
		RunE:  exportRun("csv"),
	}
	exportJSONCmd := &cobra.Command{
		Use:   "export-json [run_id]",
		Short: "export run data to JSON",
		Args:  cobra.ExactArgs(1),
		RunE:  exportRun("json"),
	}
	exportXLSXCmd := &cobra.Command{
		Use:   "export-xlsx [run_id]",
		Short: "export run data to an Excel workbook",
		Args:  cobra.ExactArgs(1),
		RunE:  exportRun("xlsx"),
	}
	for _, c := range []*cobra.Command{exportCSVCmd, exportJSONCmd, exportXLSXCmd} {
		c.Flags().StringVarP(&outPath, "out", "o", "", "output file")
	}

	exportSVGCmd := &cobra.Command{
		Use:   "export-svg [run_id]",
		Short: "export a phase portrait or a single frame to SVG",
		Args:  cobra.ExactArgs(1),
		RunE:  exportSVG,
	}
	exportSVGCmd.Flags().StringVarP(&outPath, "out", "o", "", "output file")
	exportSVGCmd.Flags().IntVar(&xAxis, "x-axis", 0, "state index for x-axis")
	exportSVGCmd.Flags().IntVar(&yAxis, "y-axis", 1, "state index for y-axis")
	exportSVGCmd.Flags().IntVar(&frame, "frame", -1, "draw the cart at this sample instead")

	rootCmd.AddCommand(runCmd, listCmd, infoCmd, presetsCmd, plotCmd, energyCmd,
		animateCmd, guiCmd, analyzeCmd, phaseCmd, bifurcationCmd,
		exportCSVCmd, exportJSONCmd, exportXLSXCmd, exportSVGCmd)
	rootCmd.AddCommand(batchCommands()...)

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func signalContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), os.Interrupt)
}

// resolveConfig starts from the preset, then the config file, then any
// flags the user set explicitly.
func resolveConfig(cmd *cobra.Command, args []string) (*config.Config, error) {
	cfg := config.Default()
	if preset != "" {
		cfg = config.GetPreset(preset)
		if cfg == nil {
			return nil, fmt.Errorf("unknown preset: %s (available: %s)", preset, strings.Join(config.ListPresets(), ", "))
		}
	}
	if len(args) == 1 {
		loaded, err := config.Load(args[0])
		if err != nil {
			return nil, err
		}
		cfg = loaded
	}

	flags := cmd.Flags()
	if flags.Changed("integrator") {
		cfg.Run.Integrator = integrator
	}
	if flags.Changed("tend") {
		cfg.Run.TEnd = tEnd
	}
	if flags.Changed("samples") {
		cfg.Run.Samples = samples
	}
	if flags.Changed("rtol") {
		cfg.Run.RTol = rtol
	}
	if flags.Changed("atol") {
		cfg.Run.ATol = atol
	}
	if flags.Changed("name") {
		cfg.Name = runName
	}
	return cfg, cfg.Validate()
}

func runSimulation(cmd *cobra.Command, args []string) error {
	cfg, err := resolveConfig(cmd, args)
	if err != nil {
		return err
	}

	exp, err := experiment.FromConfig(cfg)
	if err != nil {
		return err
	}

	st := storage.New(dataDir)
	if err := st.Init(); err != nil {
		return err
	}

	ctx, cancel := signalContext()
	defer cancel()

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "running %s simulation (%s, t=%g..%g)...\n", exp.Model().Params().Topology(), cfg.Integrator(), cfg.Run.TStart, cfg.Run.TEnd)
	start := time.Now()

	traj, err := exp.Run(ctx)
	if err != nil {
		return err
	}

	runID, err := st.Save(cfg, traj)
	if err != nil {
		return err
	}

	fmt.Fprintf(out, "completed in %v\n", time.Since(start).Round(time.Millisecond))
	fmt.Fprintf(out, "run id: %s\n", runID)
	fmt.Fprintf(out, "steps: %d accepted, %d rejected, %d evaluations\n", traj.Stats.Accepted, traj.Stats.Rejected, traj.Stats.Evaluations)
	printMetrics(cmd, traj.Metrics)
	return nil
}

func printMetrics(cmd *cobra.Command, metrics map[string]float64) {
	names := make([]string, 0, len(metrics))
	for name := range metrics {
		names = append(names, name)
	}
	sort.Strings(names)

	fmt.Fprintln(cmd.OutOrStdout(), "\nmetrics:")
	for _, name := range names {
		fmt.Fprintf(cmd.OutOrStdout(), "  %s: %.6f\n", name, metrics[name])
	}
}

func listRuns(cmd *cobra.Command, args []string) error {
	st := storage.New(dataDir)
	runs, err := st.List()
	if err != nil {
		return err
	}
	if len(runs) == 0 {
		fmt.Fprintln(cmd.OutOrStdout(), "no runs yet")
		return nil
	}

	w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tNAME\tTOPOLOGY\tINTEGRATOR\tT_END\tSAMPLES\tTIME")
	for _, r := range runs {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%g\t%d\t%s\n",
			r.ID, r.Name, r.Topology, r.Integrator, r.TEnd, r.Samples, r.Timestamp.Format("2006-01-02 15:04:05"))
	}
	return w.Flush()
}

func showInfo(cmd *cobra.Command, args []string) error {
	st := storage.New(dataDir)
	meta, err := st.Load(args[0])
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "run:        %s\n", meta.ID)
	if meta.Name != "" {
		fmt.Fprintf(out, "name:       %s\n", meta.Name)
	}
	fmt.Fprintf(out, "topology:   %s (dof %d)\n", meta.Topology, meta.Dof)
	fmt.Fprintf(out, "integrator: %s\n", meta.Integrator)
	fmt.Fprintf(out, "span:       %g..%g, %d samples\n", meta.TStart, meta.TEnd, meta.Samples)
	fmt.Fprintf(out, "steps:      %d accepted, %d rejected\n", meta.Stats.Accepted, meta.Stats.Rejected)

	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "\nPARAM\tVALUE")
	names := make([]string, 0, len(meta.Params))
	for name := range meta.Params {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		fmt.Fprintf(w, "%s\t%g\n", name, meta.Params[name])
	}
	if err := w.Flush(); err != nil {
		return err
	}
	printMetrics(cmd, meta.Metrics)
	return nil
}

func listPresets(cmd *cobra.Command, args []string) error {
	w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "PRESET\tDOF\tINITIAL")
	for _, name := range config.ListPresets() {
		p := config.GetPreset(name)
		fmt.Fprintf(w, "%s\t%d\t%v\n", name, p.Dof, p.InitialConditions)
	}
	return w.Flush()
}

// loadRun reads a stored run back with the parameter set that produced it.
func loadRun(runID string) (*config.Config, physics.ParameterSet, *dynamo.Trajectory, error) {
	st := storage.New(dataDir)
	cfg, err := st.LoadConfig(runID)
	if err != nil {
		return nil, physics.ParameterSet{}, nil, err
	}
	ps, err := cfg.ParameterSet()
	if err != nil {
		return nil, physics.ParameterSet{}, nil, err
	}
	traj, err := st.LoadTrajectory(runID)
	if err != nil {
		return nil, physics.ParameterSet{}, nil, err
	}
	if traj.Dof != ps.Dof() {
		return nil, physics.ParameterSet{}, nil, fmt.Errorf("%w: run %s stores dof %d, config has %d", dynamo.ErrDimensionMismatch, runID, traj.Dof, ps.Dof())
	}
	return cfg, ps, traj, nil
}

func plotRun(cmd *cobra.Command, args []string) error {
	_, ps, traj, err := loadRun(args[0])
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	for i := 0; i < traj.Dof; i++ {
		ch := 2 * i
		graph := asciigraph.Plot(downsample(traj.Channel(ch), 120),
			asciigraph.Height(10),
			asciigraph.Width(80),
			asciigraph.Caption(dynamo.ChannelName(traj.Dof, ch)))
		fmt.Fprintln(out, graph)
		fmt.Fprintln(out)
	}

	if pngDir != "" {
		paths, err := plot.WriteAll(pngDir, ps, traj)
		if err != nil {
			return err
		}
		for _, p := range paths {
			fmt.Fprintf(out, "wrote %s\n", p)
		}
	}
	return nil
}

func energyRun(cmd *cobra.Command, args []string) error {
	_, ps, traj, err := loadRun(args[0])
	if err != nil {
		return err
	}

	if traj.Len() == 0 {
		return fmt.Errorf("run %s has no samples", args[0])
	}
	series := physics.EnergySeries(ps, traj)
	kinetic := make([]float64, len(series))
	potential := make([]float64, len(series))
	total := make([]float64, len(series))
	for i, e := range series {
		kinetic[i], potential[i], total[i] = e.Kinetic, e.Potential, e.Total
	}

	graph := asciigraph.PlotMany([][]float64{downsample(kinetic, 120), downsample(potential, 120), downsample(total, 120)},
		asciigraph.Height(15),
		asciigraph.Width(80),
		asciigraph.SeriesColors(asciigraph.Blue, asciigraph.Green, asciigraph.Default),
		asciigraph.SeriesLegends("kinetic", "potential", "total"),
		asciigraph.Caption("energy"))
	fmt.Fprintln(cmd.OutOrStdout(), graph)
	fmt.Fprintf(cmd.OutOrStdout(), "\ninitial total %.6f, final total %.6f\n", total[0], total[len(total)-1])
	return nil
}

// downsample keeps at most n evenly spaced points so asciigraph does not
// average away the shape of long runs.
func downsample(data []float64, n int) []float64 {
	if len(data) <= n {
		return data
	}
	out := make([]float64, n)
	for i := range out {
		out[i] = data[i*(len(data)-1)/(n-1)]
	}
	return out
}

func animateRun(cmd *cobra.Command, args []string) error {
	cfg, ps, traj, err := loadRun(args[0])
	if err != nil {
		return err
	}
	title := cfg.Name
	if title == "" {
		title = args[0]
	}
	return viz.Play(ps, traj, viz.Options{Title: title, Rate: rate, Theme: theme, GIFPath: gifPath})
}

func guiRun(cmd *cobra.Command, args []string) error {
	cfg, ps, traj, err := loadRun(args[0])
	if err != nil {
		return err
	}
	title := cfg.Name
	if title == "" {
		title = args[0]
	}
	return gui.Run(ps, traj, "cartsim: "+title)
}

func analyzeRun(cmd *cobra.Command, args []string) error {
	cfg, ps, traj, err := loadRun(args[0])
	if err != nil {
		return err
	}

	spectrum, err := analysis.ChannelSpectrum(traj, channel)
	if err != nil {
		return err
	}
	band := spectrum.Band(fmax)
	freq, amp := spectrum.Dominant()

	out := cmd.OutOrStdout()
	name := dynamo.ChannelName(traj.Dof, channel)
	if len(band.Amplitude) > 1 {
		graph := asciigraph.Plot(band.Amplitude,
			asciigraph.Height(15),
			asciigraph.Width(80),
			asciigraph.Caption(fmt.Sprintf("amplitude spectrum of %s, 0..%g Hz", name, fmax)))
		fmt.Fprintln(out, graph)
	}
	fmt.Fprintf(out, "\ndominant frequency: %.4f Hz (period %.3f s, amplitude %.4f)\n", freq, 1/freq, amp)
	if w := ps.AngularFrequency(); w > 0 {
		fmt.Fprintf(out, "forcing frequency:  %.4f Hz\n", w/(2*math.Pi))
	}

	if lyapunov {
		model, err := physics.NewModel(ps)
		if err != nil {
			return err
		}
		ctx, cancel := signalContext()
		defer cancel()

		lambda, err := analysis.LargestLyapunov(ctx, model, dynamo.State(cfg.InitialConditions), cfg.Span(), analysis.LyapunovOptions{})
		if err != nil {
			return err
		}
		verdict := "regular"
		if lambda > 1e-3 {
			verdict = "chaotic"
		}
		fmt.Fprintf(out, "largest lyapunov exponent: %.5f (%s)\n", lambda, verdict)
	}
	return nil
}

func phasePlot(cmd *cobra.Command, args []string) error {
	_, _, traj, err := loadRun(args[0])
	if err != nil {
		return err
	}
	if n := 2 * traj.Dof; xAxis < 0 || yAxis < 0 || xAxis >= n || yAxis >= n {
		return fmt.Errorf("%w: axes %d and %d of a %d-dim state", dynamo.ErrDimensionMismatch, xAxis, yAxis, n)
	}

	points := analysis.PhasePortrait(traj, xAxis, yAxis)
	title := "phase portrait"
	if poincare {
		points = analysis.PoincareSection(traj, xAxis, 0, xAxis, yAxis)
		title = "poincaré section"
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "%s: %s vs %s (%d points)\n\n", title,
		dynamo.ChannelName(traj.Dof, yAxis), dynamo.ChannelName(traj.Dof, xAxis), len(points))
	fmt.Fprint(out, analysis.PhaseToASCII(points, 80, 24))
	return nil
}

func bifurcation(cmd *cobra.Command, args []string) error {
	cfg, err := resolveConfig(cmd, args)
	if err != nil {
		return err
	}
	ps, err := cfg.ParameterSet()
	if err != nil {
		return err
	}

	ctx, cancel := signalContext()
	defer cancel()

	points, err := analysis.BifurcationDiagram(ctx, analysis.BifurcationConfig{
		Base:      ps,
		X0:        dynamo.State(cfg.InitialConditions),
		Param:     param,
		Min:       paramMin,
		Max:       paramMax,
		Steps:     steps,
		Channel:   channel,
		Transient: transient,
		Periods:   periods,
		Solver:    cfg.SolverOptions(),
	})
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "%s vs %s, %d values\n\n", dynamo.ChannelName(ps.Dof(), channel), param, len(points))
	fmt.Fprint(out, analysis.BifurcationToASCII(points, 80, 24))
	return nil
}

func defaultOut(runID, ext string) string {
	if outPath != "" {
		return outPath
	}
	return runID + "." + ext
}

func exportRun(format string) func(cmd *cobra.Command, args []string) error {
	return func(cmd *cobra.Command, args []string) error {
		cfg, ps, traj, err := loadRun(args[0])
		if err != nil {
			return err
		}

		data := export.NewExportData(cfg.Name, cfg.Integrator(), ps, traj)
		path := defaultOut(args[0], format)
		switch format {
		case "csv":
			err = export.ExportCSV(path, data)
		case "json":
			err = export.ExportJSON(path, data)
		case "xlsx":
			err = export.ExportXLSX(path, data)
		default:
			err = fmt.Errorf("unknown export format %q", format)
		}
		if err != nil {
			return err
		}

		fmt.Fprintf(cmd.OutOrStdout(), "exported %d samples to %s\n", traj.Len(), path)
		return nil
	}
}

func exportSVG(cmd *cobra.Command, args []string) error {
	_, ps, traj, err := loadRun(args[0])
	if err != nil {
		return err
	}

	path := defaultOut(args[0], "svg")
	if frame >= 0 {
		f, err := os.Create(path)
		if err != nil {
			return err
		}
		defer f.Close()
		if err := export.WriteFrameSVG(f, ps, traj, frame, export.SVGOptions{Width: 800, Height: 600}); err != nil {
			return err
		}
		if err := f.Close(); err != nil {
			return err
		}
	} else if err := export.ExportSVG(path, traj, xAxis, yAxis, export.SVGOptions{}); err != nil {
		return err
	}

	abs, _ := filepath.Abs(path)
	fmt.Fprintf(cmd.OutOrStdout(), "exported svg to %s\n", abs)
	return nil
}
