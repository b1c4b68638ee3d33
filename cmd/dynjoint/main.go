package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"slices"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/san-kum/dynjoint/internal/config"
	"github.com/san-kum/dynjoint/internal/joint"
	"github.com/san-kum/dynjoint/internal/metrics"
	"github.com/san-kum/dynjoint/internal/scenario"
	"github.com/san-kum/dynjoint/internal/storage"
	"github.com/san-kum/dynjoint/internal/sweep"
	"github.com/san-kum/dynjoint/internal/tui"
	"github.com/san-kum/dynjoint/internal/viz"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

var (
	dataDir    string
	verbose    bool
	configFile string
	preset     string
	engine     string
	variant    string
	steps      int
	dt         float64
	pullRate   float64
	locked     bool
	noSave     bool
	asJSON     bool
	frameRate  int
	series     []string
	plotWidth  int
	plotHeight int
	axes       []string
	workers    int
	bestOf     string
	saveRuns   bool
	svgOut     string
	sceneOut   string
)

var log = logrus.New()

func main() {
	rootCmd := &cobra.Command{
		Use:   "dynjoint",
		Short: "breakable joint assembly lab",
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			setupLogging()
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return tui.RunInteractive("", log.GetLevel())
		},
	}

	rootCmd.PersistentFlags().StringVar(&dataDir, "data", ".dynjoint", "data directory")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "debug logging")

	runCmd := &cobra.Command{
		Use:   "run",
		Short: "run a scenario and save the result",
		Args:  cobra.NoArgs,
		RunE:  runScenario,
	}
	addScenarioFlags(runCmd)
	runCmd.Flags().BoolVar(&noSave, "no-save", false, "do not write the run to the data directory")
	runCmd.Flags().BoolVar(&asJSON, "json", false, "print the run as json instead of a report")
	runCmd.Flags().StringVar(&sceneOut, "scene", "", "write the final scene to this svg file")

	liveCmd := &cobra.Command{
		Use:   "live",
		Short: "run a scenario with a live view",
		Args:  cobra.NoArgs,
		RunE:  runLive,
	}
	addScenarioFlags(liveCmd)
	liveCmd.Flags().IntVar(&frameRate, "fps", 30, "frame rate")

	tuiCmd := &cobra.Command{
		Use:   "tui [preset]",
		Short: "interactive playground",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			name := ""
			if len(args) > 0 {
				name = args[0]
				if config.GetPreset(name) == nil {
					return fmt.Errorf("unknown preset: %s (available: %v)", name, config.ListPresets())
				}
			}
			return tui.RunInteractive(name, log.GetLevel())
		},
	}

	listCmd := &cobra.Command{
		Use:   "list",
		Short: "list runs",
		RunE:  listRuns,
	}

	inspectCmd := &cobra.Command{
		Use:   "inspect [run_id]",
		Short: "show the report of a saved run",
		Args:  cobra.ExactArgs(1),
		RunE:  inspectRun,
	}

	plotCmd := &cobra.Command{
		Use:   "plot [run_id]",
		Short: "plot run results",
		Args:  cobra.ExactArgs(1),
		RunE:  plotRun,
	}
	plotCmd.Flags().StringSliceVar(&series, "series", []string{viz.SeriesDistance, viz.SeriesForce}, "series to plot (distance, force, torque)")
	plotCmd.Flags().IntVar(&plotWidth, "width", 80, "plot width")
	plotCmd.Flags().IntVar(&plotHeight, "height", 10, "plot height")
	plotCmd.Flags().StringVar(&svgOut, "svg", "", "also write each series to <prefix>_<series>.svg")

	exportCmd := &cobra.Command{
		Use:   "export [run_id]",
		Short: "export run data to JSON",
		Args:  cobra.ExactArgs(1),
		RunE:  exportRun,
	}

	sweepCmd := &cobra.Command{
		Use:     "sweep",
		Short:   "run a scenario over a grid of parameters",
		Example: "  dynjoint sweep --axis pull_rate=0.5:4:8 --axis break_force=100,500,inf",
		Args:    cobra.NoArgs,
		RunE:    runSweep,
	}
	addScenarioFlags(sweepCmd)
	sweepCmd.Flags().StringArrayVar(&axes, "axis", nil, "swept parameter as name=lo:hi:count or name=v1,v2")
	sweepCmd.Flags().IntVar(&workers, "workers", 0, "parallel runs (0 for one per cpu)")
	sweepCmd.Flags().StringVar(&bestOf, "best", "", "report the point with the lowest value of this metric")
	sweepCmd.Flags().BoolVar(&saveRuns, "save", false, "save every run to the data directory")
	_ = sweepCmd.MarkFlagRequired("axis")

	batchCmd := &cobra.Command{
		Use:   "batch [file]",
		Short: "run the scenarios listed in a batch file",
		Args:  cobra.ExactArgs(1),
		RunE:  runBatch,
	}
	batchCmd.Flags().IntVar(&workers, "workers", 0, "parallel runs (overrides the batch file)")
	batchCmd.Flags().BoolVar(&saveRuns, "save", false, "save every run to the data directory")

	presetsCmd := &cobra.Command{
		Use:   "presets",
		Short: "list available presets",
		RunE: func(cmd *cobra.Command, args []string) error {
			w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
			fmt.Fprintln(w, "NAME\tVARIANT\tENGINE\tSTEPS\tPULL")
			for _, name := range config.ListPresets() {
				cfg := config.GetPreset(name)
				fmt.Fprintf(w, "%s\t%s\t%s\t%d\t%s/s\n", name, cfg.Variant, cfg.Engine, cfg.Steps, viz.Num(cfg.Pull.Rate))
			}
			return w.Flush()
		},
	}

	rootCmd.AddCommand(runCmd, liveCmd, tuiCmd, sweepCmd, batchCmd, listCmd, inspectCmd, plotCmd, exportCmd, presetsCmd)

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func setupLogging() {
	log.SetOutput(os.Stderr)
	log.SetFormatter(&logrus.TextFormatter{ForceColors: true, FullTimestamp: true, TimestampFormat: time.TimeOnly})
	if verbose {
		log.SetLevel(logrus.DebugLevel)
	}
}

func addScenarioFlags(cmd *cobra.Command) {
	cmd.Flags().StringVar(&configFile, "config", "", "scenario file (yaml)")
	cmd.Flags().StringVar(&preset, "preset", "", "use preset scenario")
	cmd.Flags().StringVar(&engine, "engine", config.EngineWorld, "physics engine (world, planar)")
	cmd.Flags().StringVar(&variant, "variant", "", "link variant (two_ends_sphere, rigid)")
	cmd.Flags().IntVar(&steps, "steps", config.DefaultSteps, "number of steps")
	cmd.Flags().Float64Var(&dt, "dt", config.DefaultDt, "timestep")
	cmd.Flags().Float64Var(&pullRate, "pull", 0, "pull rate of the target part")
	cmd.Flags().BoolVar(&locked, "unbreakable", false, "keep the link unbreakable for the whole run")
}

// loadScenario resolves the scenario from a preset or file. Flags override
// only what was set on the command line.
func loadScenario(cmd *cobra.Command) (*config.Config, error) {
	cfg := config.DefaultConfig()

	if preset != "" {
		cfg = config.GetPreset(preset)
		if cfg == nil {
			return nil, fmt.Errorf("unknown preset: %s (available: %v)", preset, config.ListPresets())
		}
	}

	// config file overrides preset
	if configFile != "" {
		loaded, err := config.Load(configFile)
		if err != nil {
			return nil, fmt.Errorf("failed to load config: %w", err)
		}
		cfg = loaded
	}

	flags := cmd.Flags()
	if flags.Changed("engine") {
		cfg.Engine = engine
	}
	if flags.Changed("variant") {
		cfg.Variant = joint.Variant(variant)
	}
	if flags.Changed("steps") {
		cfg.Steps = steps
	}
	if flags.Changed("dt") {
		cfg.Dt = dt
	}
	if flags.Changed("pull") {
		cfg.Pull.Rate = pullRate
	}
	if flags.Changed("unbreakable") && locked {
		cfg.Unbreakable = []config.Window{{From: 0, To: cfg.Duration() + cfg.Dt}}
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func newRunner(cfg *config.Config) (*scenario.Runner, error) {
	r, err := scenario.NewRunner(cfg, log)
	if err != nil {
		return nil, err
	}
	for _, m := range metrics.Standard(cfg) {
		r.AddMetric(m)
	}
	return r, nil
}

func runScenario(cmd *cobra.Command, args []string) error {
	cfg, err := loadScenario(cmd)
	if err != nil {
		return err
	}
	r, err := newRunner(cfg)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	start := time.Now()
	result, err := r.Run(ctx)
	if err != nil {
		return err
	}
	log.WithFields(logrus.Fields{"elapsed": time.Since(start), "steps": len(result.Samples)}).Debug("run finished")

	if sceneOut != "" {
		doc := viz.CanvasSVG(viz.SceneOf(r).Draw(60, 15), 4)
		if err := os.WriteFile(sceneOut, []byte(doc), 0644); err != nil {
			return err
		}
	}

	if asJSON {
		return storage.ExportJSON(os.Stdout, cfg, result)
	}

	fmt.Print(viz.Report(cfg, result))

	if noSave {
		return nil
	}
	st := storage.New(dataDir)
	if err := st.Init(); err != nil {
		return err
	}
	runID, err := st.Save(cfg, result)
	if err != nil {
		return err
	}
	fmt.Printf("\nrun id: %s\n", runID)
	return nil
}

func runLive(cmd *cobra.Command, args []string) error {
	cfg, err := loadScenario(cmd)
	if err != nil {
		return err
	}
	// Log lines would tear the frames.
	log.SetLevel(logrus.WarnLevel)

	r, err := newRunner(cfg)
	if err != nil {
		return err
	}

	lr := tui.NewLiveRenderer(os.Stdout, r, frameRate)
	r.AddObserver(lr)
	lr.Start()
	defer lr.Stop()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	tick := time.NewTicker(time.Duration(cfg.Dt * float64(time.Second)))
	defer tick.Stop()
	for !r.Done() {
		select {
		case <-ctx.Done():
			return nil
		case <-tick.C:
		}
		if err := r.Step(); err != nil {
			return err
		}
	}

	fmt.Println()
	fmt.Print(viz.Report(cfg, r.Result()))
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
	fmt.Fprintln(w, "ID\tSCENARIO\tTIME\tVARIANT\tENGINE\tSTEPS\tBROKE")

	for _, run := range runs {
		broke := "-"
		if run.Broken {
			broke = fmt.Sprintf("%.2fs", run.BreakTime)
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%d\t%s\n",
			run.ID,
			run.Scenario,
			run.Timestamp.Format("2006-01-02 15:04:05"),
			run.Variant,
			run.Engine,
			run.Steps,
			broke,
		)
	}

	return w.Flush()
}

func inspectRun(cmd *cobra.Command, args []string) error {
	cfg, res, err := storage.New(dataDir).LoadRun(args[0])
	if err != nil {
		return err
	}
	fmt.Print(viz.Report(cfg, res))
	return nil
}

func plotRun(cmd *cobra.Command, args []string) error {
	runID := args[0]

	cfg, res, err := storage.New(dataDir).LoadRun(runID)
	if err != nil {
		return err
	}
	if len(res.Samples) == 0 {
		return fmt.Errorf("no data to plot")
	}

	fmt.Printf("run: %s\n", runID)
	fmt.Printf("samples: %d\n\n", len(res.Samples))

	for _, name := range series {
		name = strings.TrimSpace(name)
		var bounds []float64
		if name == viz.SeriesDistance {
			bounds = []float64{cfg.Link.MinLinkLength, cfg.Link.MaxLinkLength}
		}
		graph, err := viz.PlotSeries(res.Samples, name, plotWidth, plotHeight, bounds...)
		if err != nil {
			return err
		}
		fmt.Println(graph)
		fmt.Println()

		if svgOut == "" {
			continue
		}
		doc, err := viz.SeriesSVG(res.Samples, name, plotWidth*10, plotHeight*30, bounds...)
		if err != nil {
			return err
		}
		path := fmt.Sprintf("%s_%s.svg", svgOut, name)
		if err := os.WriteFile(path, []byte(doc), 0644); err != nil {
			return err
		}
		log.WithField("path", path).Info("wrote svg")
	}
	return nil
}

func exportRun(cmd *cobra.Command, args []string) error {
	cfg, res, err := storage.New(dataDir).LoadRun(args[0])
	if err != nil {
		return err
	}
	return storage.ExportJSON(os.Stdout, cfg, res)
}

func runSweep(cmd *cobra.Command, args []string) error {
	cfg, err := loadScenario(cmd)
	if err != nil {
		return err
	}

	grid := &sweep.Grid{Base: cfg}
	for _, a := range axes {
		ax, err := sweep.ParseAxis(a)
		if err != nil {
			return fmt.Errorf("%w (parameters: %v)", err, sweep.Params())
		}
		grid.Axes = append(grid.Axes, ax)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	outcomes, err := grid.Run(ctx, workers, log)
	if err != nil {
		return err
	}
	if err := printOutcomes(outcomes, grid.Axes); err != nil {
		return err
	}

	if bestOf != "" {
		best, ok := sweep.Best(outcomes, bestOf)
		if !ok {
			return fmt.Errorf("no run reported %s", bestOf)
		}
		fmt.Printf("\nbest %s: %s at %s\n", bestOf, viz.Num(best.Result.Metrics[bestOf]), formatParams(best.Params, grid.Axes))
	}
	return saveOutcomes(outcomes)
}

func runBatch(cmd *cobra.Command, args []string) error {
	b, err := sweep.LoadBatch(args[0])
	if err != nil {
		return err
	}
	if cmd.Flags().Changed("workers") {
		b.Workers = workers
	}
	if b.Name != "" {
		fmt.Println(viz.Title.Render(b.Name))
	}
	if b.Description != "" {
		fmt.Println(viz.Subtle.Render(b.Description))
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	outcomes, err := b.Run(ctx, log)
	if err != nil {
		return err
	}
	if err := printOutcomes(outcomes, nil); err != nil {
		return err
	}
	return saveOutcomes(outcomes)
}

func printOutcomes(outcomes []sweep.Outcome, axes []sweep.Axis) error {
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "RUN\tPARAMS\tBROKE\tPEAK FORCE\tMAX STRETCH\tERROR")
	for _, o := range outcomes {
		if o.Result == nil {
			fmt.Fprintf(w, "%s\t%s\t-\t-\t-\t%v\n", o.Label, formatParams(o.Params, axes), o.Err)
			continue
		}
		broke := "-"
		if o.Result.Broken {
			broke = fmt.Sprintf("%.2fs", o.Result.BreakTime)
		}
		errText := ""
		if o.Err != nil {
			errText = o.Err.Error()
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%s\n",
			o.Label,
			formatParams(o.Params, axes),
			broke,
			viz.Num(o.Result.Metrics["peak_force"]),
			viz.Num(o.Result.Metrics["max_stretch"]),
			errText,
		)
	}
	return w.Flush()
}

// formatParams lists params in axis order, or sorted when there are no axes.
func formatParams(params map[string]float64, axes []sweep.Axis) string {
	names := make([]string, 0, len(params))
	if len(axes) > 0 {
		for _, ax := range axes {
			names = append(names, ax.Param)
		}
	} else {
		for k := range params {
			names = append(names, k)
		}
		slices.Sort(names)
	}
	parts := make([]string, 0, len(names))
	for _, n := range names {
		parts = append(parts, n+"="+viz.Num(params[n]))
	}
	if len(parts) == 0 {
		return "-"
	}
	return strings.Join(parts, " ")
}

func saveOutcomes(outcomes []sweep.Outcome) error {
	if !saveRuns {
		return nil
	}
	st := storage.New(dataDir)
	if err := st.Init(); err != nil {
		return err
	}
	for _, o := range outcomes {
		if o.Err != nil || o.Result == nil {
			continue
		}
		runID, err := st.Save(o.Config, o.Result)
		if err != nil {
			return err
		}
		log.WithField("run", runID).Info("saved")
	}
	return nil
}
