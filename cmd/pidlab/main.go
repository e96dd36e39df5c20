package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"sort"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/san-kum/pidlab/internal/config"
	"github.com/san-kum/pidlab/internal/experiment"
	"github.com/san-kum/pidlab/internal/export"
	"github.com/san-kum/pidlab/internal/logging"
	"github.com/san-kum/pidlab/internal/storage"
	"github.com/san-kum/pidlab/internal/tui"
	"github.com/san-kum/pidlab/internal/viz"
)

var (
	dataDir  string
	logLevel string
	logFile  string
	noColor  bool

	configFile string
	preset     string
	dt         float64
	duration   float64
	seed       int64
	jitter     float64
	integrator string
	controller string
	kp         float64
	ti         float64
	td         float64
	target     float64
	initValue  float64
	manualOut  float64

	pngPath string
	svgPath string

	logger = slog.Default()
)

func main() {
	rootCmd := &cobra.Command{
		Use:           "pidlab",
		Short:         "discrete PID controller lab",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			l, err := logging.New(logging.Options{Level: logLevel, File: logFile, NoColor: noColor})
			if err != nil {
				return err
			}
			logger = l
			slog.SetDefault(l)
			return nil
		},
	}

	rootCmd.PersistentFlags().StringVar(&dataDir, "data", ".pidlab", "data directory")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "info", "log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().StringVar(&logFile, "log-file", "", "also write JSON logs to this file")
	rootCmd.PersistentFlags().BoolVar(&noColor, "no-color", false, "disable colored log output")

	runCmd := &cobra.Command{
		Use:   "run [plant]",
		Short: "run a closed-loop simulation and store it",
		Args:  cobra.MaximumNArgs(1),
		RunE:  runSimulation,
	}
	addLoopFlags(runCmd)

	evalCmd := &cobra.Command{
		Use:   "eval [file]",
		Short: "feed error,dt rows from a CSV file or stdin through one controller",
		Args:  cobra.MaximumNArgs(1),
		RunE:  evalRows,
	}
	evalCmd.Flags().Float64Var(&evalGains.Kp, "kp", 1, "proportional gain")
	evalCmd.Flags().Float64Var(&evalGains.Ti, "ti", 0, "integral time (0 disables)")
	evalCmd.Flags().Float64Var(&evalGains.Td, "td", 0, "derivative time")

	listCmd := &cobra.Command{
		Use:   "list",
		Short: "list stored runs",
		RunE:  listRuns,
	}

	plotCmd := &cobra.Command{
		Use:   "plot [run_id]",
		Short: "plot measurement and control of a run",
		Args:  cobra.ExactArgs(1),
		RunE:  plotRun,
	}

	exportCmd := &cobra.Command{
		Use:   "export [run_id]",
		Short: "export a run as JSON, or as an image with --png/--svg",
		Args:  cobra.ExactArgs(1),
		RunE:  exportRun,
	}
	exportCmd.Flags().StringVar(&pngPath, "png", "", "write plots as PNG to this path")
	exportCmd.Flags().StringVar(&svgPath, "svg", "", "write plots as SVG to this path")

	tuneCmd := &cobra.Command{
		Use:   "tune [plant]",
		Short: "grid search kp, ti and td",
		Args:  cobra.MaximumNArgs(1),
		RunE:  tuneGains,
	}
	addLoopFlags(tuneCmd)
	addTuneFlags(tuneCmd)

	presetsCmd := &cobra.Command{
		Use:   "presets [plant]",
		Short: "list presets",
		Args:  cobra.MaximumNArgs(1),
		RunE:  listPresets,
	}

	liveCmd := &cobra.Command{
		Use:   "live [plant]",
		Short: "run a loop interactively",
		Args:  cobra.MaximumNArgs(1),
		RunE:  runLive,
	}
	addLoopFlags(liveCmd)

	ensembleCmd := &cobra.Command{
		Use:   "ensemble [plant]",
		Short: "repeat a jittered run across seeds and summarize its metrics",
		Args:  cobra.MaximumNArgs(1),
		RunE:  runEnsemble,
	}
	addLoopFlags(ensembleCmd)
	addEnsembleFlags(ensembleCmd)

	rootCmd.AddCommand(runCmd, evalCmd, listCmd, plotCmd, exportCmd, tuneCmd, presetsCmd, liveCmd, ensembleCmd)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		stop()
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

func addLoopFlags(cmd *cobra.Command) {
	cmd.Flags().StringVar(&configFile, "config", "", "config file path (yaml)")
	cmd.Flags().StringVar(&preset, "preset", "", "use preset configuration")
	cmd.Flags().Float64Var(&dt, "dt", config.DefaultDt, "nominal control interval")
	cmd.Flags().Float64Var(&duration, "time", config.DefaultDuration, "duration")
	cmd.Flags().Int64Var(&seed, "seed", 0, "random seed for jitter")
	cmd.Flags().Float64Var(&jitter, "jitter", 0, "relative dt jitter in [0, 1)")
	cmd.Flags().StringVar(&integrator, "integrator", config.DefaultIntegrator, "integrator")
	cmd.Flags().StringVar(&controller, "controller", config.DefaultController, "controller (pid, manual, none)")
	cmd.Flags().Float64Var(&kp, "kp", config.DefaultKp, "proportional gain")
	cmd.Flags().Float64Var(&ti, "ti", config.DefaultTi, "integral time (0 disables)")
	cmd.Flags().Float64Var(&td, "td", config.DefaultTd, "derivative time")
	cmd.Flags().Float64Var(&target, "target", config.DefaultTarget, "setpoint")
	cmd.Flags().Float64Var(&initValue, "init", config.DefaultInit, "initial measured value")
	cmd.Flags().Float64Var(&manualOut, "manual", 0, "fixed output of the manual controller")
}

// loadConfig resolves the loop configuration: plant default preset, then
// --preset, then --config, then any flag set explicitly.
func loadConfig(cmd *cobra.Command, args []string) (*config.Config, error) {
	plant := config.DefaultPlant
	if len(args) > 0 {
		plant = args[0]
	}

	cfg := config.ForPlant(plant)
	if preset != "" {
		p, err := config.GetPreset(plant, preset)
		if err != nil {
			return nil, err
		}
		cfg = p
	}
	if configFile != "" {
		c, err := config.Load(configFile)
		if err != nil {
			return nil, fmt.Errorf("failed to load config: %w", err)
		}
		cfg = c
		if len(args) > 0 {
			cfg.Plant = plant
		}
	}

	flags := cmd.Flags()
	if flags.Changed("dt") {
		cfg.Dt = dt
	}
	if flags.Changed("time") {
		cfg.Duration = duration
	}
	if flags.Changed("seed") {
		cfg.Seed = seed
	}
	if flags.Changed("jitter") {
		cfg.Jitter = jitter
	}
	if flags.Changed("integrator") {
		cfg.Integrator = integrator
	}
	if flags.Changed("controller") {
		cfg.Controller = controller
	}
	if flags.Changed("kp") {
		cfg.Gains.Kp = kp
	}
	if flags.Changed("ti") {
		cfg.Gains.Ti = ti
	}
	if flags.Changed("td") {
		cfg.Gains.Td = td
	}
	if flags.Changed("target") {
		cfg.Target = target
	}
	if flags.Changed("init") {
		cfg.Init.Value = initValue
	}
	if flags.Changed("manual") {
		cfg.Manual = manualOut
	}

	return cfg, cfg.Validate()
}

func runSimulation(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd, args)
	if err != nil {
		return err
	}

	st := storage.New(dataDir, logger)
	if err := st.Init(); err != nil {
		return err
	}

	exp, err := experiment.NewRegistry().FromConfig(cfg, logger)
	if err != nil {
		return err
	}

	fmt.Printf("running %s simulation...\n", cfg.Plant)
	start := time.Now()

	result, err := exp.Run(cmd.Context())
	if err != nil {
		return err
	}
	elapsed := time.Since(start)

	runID, err := st.Save(metadataFor(cfg), result)
	if err != nil {
		return err
	}

	fmt.Printf("completed in %v\n", elapsed)
	fmt.Printf("run id: %s\n", runID)
	fmt.Printf("steps: %d\n", result.StepsTaken)
	for _, e := range result.Errors {
		fmt.Println(viz.Warn.Render("stopped: " + e.Error()))
	}
	fmt.Println("\nmetrics:")
	for _, name := range sortedKeys(result.Metrics) {
		fmt.Printf("  %s: %.6f\n", name, result.Metrics[name])
	}
	return nil
}

func metadataFor(cfg *config.Config) storage.RunMetadata {
	return storage.RunMetadata{
		Plant:      cfg.Plant,
		Seed:       cfg.Seed,
		Dt:         cfg.Dt,
		Duration:   cfg.Duration,
		Jitter:     cfg.Jitter,
		Integrator: cfg.Integrator,
		Controller: cfg.Controller,
		Target:     cfg.Target,
		Gains:      storage.Gains{Kp: cfg.Gains.Kp, Ti: cfg.Gains.Ti, Td: cfg.Gains.Td},
	}
}

func listRuns(cmd *cobra.Command, args []string) error {
	st := storage.New(dataDir, logger)
	runs, err := st.List()
	if err != nil {
		return err
	}

	if len(runs) == 0 {
		fmt.Println("no runs found")
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tPLANT\tTIME\tDURATION\tDT\tKP\tTI\tTD\tSTEPS")

	for _, run := range runs {
		fmt.Fprintf(w, "%s\t%s\t%s\t%.2fs\t%.4fs\t%g\t%g\t%g\t%d\n",
			run.ID,
			run.Plant,
			run.Timestamp.Format("2006-01-02 15:04:05"),
			run.Duration,
			run.Dt,
			run.Gains.Kp,
			run.Gains.Ti,
			run.Gains.Td,
			run.Steps,
		)
	}

	return w.Flush()
}

func plotRun(cmd *cobra.Command, args []string) error {
	runID := args[0]

	st := storage.New(dataDir, logger)
	meta, err := st.Load(runID)
	if err != nil {
		return err
	}
	trace, err := st.LoadTrace(runID)
	if err != nil {
		return err
	}
	if len(trace.States) == 0 {
		return export.ErrNoData
	}

	fmt.Println(viz.Title.Render(meta.ID))
	fmt.Println(viz.Label.Render("plant   ") + " " + viz.Value.Render(meta.Plant))
	fmt.Println(viz.Field("target  ", meta.Target))
	fmt.Println(viz.Field("samples ", float64(len(trace.States))))
	fmt.Println()

	fmt.Println(viz.Graph(column(trace.States, 0), 80, 12, "measurement"))
	fmt.Println()
	fmt.Println(viz.Graph(column(trace.Controls, 0), 80, 8, "control"))
	return nil
}

func exportRun(cmd *cobra.Command, args []string) error {
	runID := args[0]

	st := storage.New(dataDir, logger)
	meta, err := st.Load(runID)
	if err != nil {
		return err
	}
	trace, err := st.LoadTrace(runID)
	if err != nil {
		return err
	}

	if pngPath == "" && svgPath == "" {
		return export.WriteJSON(os.Stdout, meta, trace)
	}

	for _, path := range []string{pngPath, svgPath} {
		if path == "" {
			continue
		}
		if err := plotFiles(path, meta, trace); err != nil {
			return err
		}
	}
	return nil
}

// plotFiles writes the measurement plot to path and the control plot next
// to it.
func plotFiles(path string, meta *storage.RunMetadata, trace *storage.Trace) error {
	if len(trace.Times) < 2 {
		return export.ErrNoData
	}
	setpoint := make([]float64, len(trace.Times))
	for i := range setpoint {
		setpoint[i] = meta.Target
	}

	err := export.PlotFile(path, meta.ID, "measurement",
		export.Series{Name: "measurement", X: trace.Times, Y: column(trace.States, 0)},
		export.Series{Name: "target", X: trace.Times, Y: setpoint},
	)
	if err != nil {
		return err
	}

	ctrlPath := export.SiblingPath(path, "control")
	err = export.PlotFile(ctrlPath, meta.ID, "control",
		export.Series{Name: "control", X: trace.Times[1:], Y: column(trace.Controls, 0)},
	)
	if err != nil {
		return err
	}

	logger.Info("exported plots", "measurement", path, "control", ctrlPath)
	return nil
}

func listPresets(cmd *cobra.Command, args []string) error {
	plants := experiment.NewRegistry().ListPlants()
	if len(args) > 0 {
		plants = args[:1]
	}

	for _, plant := range plants {
		names := config.ListPresets(plant)
		if len(names) == 0 {
			fmt.Printf("%s: no presets\n", plant)
			continue
		}
		fmt.Println(viz.Title.Render(plant))
		for _, name := range names {
			p, _ := config.GetPreset(plant, name)
			fmt.Printf("  %-14s %s\n", name, viz.Hint.Render(describePreset(p)))
		}
	}
	return nil
}

func describePreset(p *config.Config) string {
	parts := []string{fmt.Sprintf("dt=%g", p.Dt), fmt.Sprintf("time=%g", p.Duration)}
	if p.Controller == "pid" {
		parts = append(parts, fmt.Sprintf("kp=%g ti=%g td=%g target=%g", p.Gains.Kp, p.Gains.Ti, p.Gains.Td, p.Target))
	} else {
		parts = append(parts, fmt.Sprintf("controller=%s u=%g", p.Controller, p.Manual))
	}
	if p.Jitter > 0 {
		parts = append(parts, fmt.Sprintf("jitter=%g", p.Jitter))
	}
	return strings.Join(parts, " ")
}

func runLive(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd, args)
	if err != nil {
		return err
	}

	// the alt screen owns the terminal; keep console logs quiet
	quiet, err := logging.New(logging.Options{Level: "error", File: logFile, NoColor: noColor})
	if err != nil {
		return err
	}

	exp, err := experiment.NewRegistry().FromConfig(cfg, quiet)
	if err != nil {
		return err
	}
	return tui.Run(exp, tui.Options{Title: cfg.Plant})
}

func column(rows [][]float64, i int) []float64 {
	out := make([]float64, len(rows))
	for j, r := range rows {
		if i < len(r) {
			out[j] = r[i]
		}
	}
	return out
}

func sortedKeys(m map[string]float64) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
