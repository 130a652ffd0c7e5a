package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/san-kum/stepviz/internal/automation"
	"github.com/san-kum/stepviz/internal/config"
	"github.com/san-kum/stepviz/internal/experiment"
	"github.com/san-kum/stepviz/internal/export"
	"github.com/san-kum/stepviz/internal/logging"
	"github.com/san-kum/stepviz/internal/metrics"
	"github.com/san-kum/stepviz/internal/sweep"
	"github.com/san-kum/stepviz/internal/tui"
	"github.com/san-kum/stepviz/internal/viz"
)

var (
	// System parameters
	gain    float64
	tau     float64
	zeta    float64
	omega   float64
	solver  string
	samples int
	horizon float64
	// Presentation
	width     int
	height    int
	theme     string
	exportDir string
	outDir    string
	jsonOut   bool
	// Sweep range
	from  float64
	to    float64
	step  float64
	limit int
	// Config file and preset
	configFile string
	preset     string
	// Logging
	logLevel string
	logFile  string
)

// main registers the stepviz commands. With no subcommand it opens the
// interactive slider UI.
func main() {
	rootCmd := &cobra.Command{
		Use:           "stepviz",
		Short:         "interactive step response visualizer for first and second order systems",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE:          runTUI,
	}

	rootCmd.PersistentFlags().StringVar(&configFile, "config", "", "config file path (yaml)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().StringVar(&logFile, "log-file", "", "write logs to a rotated file")
	rootCmd.PersistentFlags().StringVar(&theme, "theme", config.DefaultTheme, "colour theme ("+strings.Join(viz.ThemeNames(), ", ")+")")

	runCmd := &cobra.Command{
		Use:   "run [first|second]",
		Short: "simulate the step response and print the chart and metrics",
		Args:  cobra.MaximumNArgs(1),
		RunE:  runStep,
	}
	addParamFlags(runCmd)
	runCmd.Flags().IntVar(&width, "width", config.DefaultWidth, "chart width")
	runCmd.Flags().IntVar(&height, "height", config.DefaultHeight, "chart height")
	runCmd.Flags().StringVar(&exportDir, "export", "", "also write csv, json and png to this directory")
	runCmd.Flags().BoolVar(&jsonOut, "json", false, "print the report as json instead of the chart")

	tuiCmd := &cobra.Command{
		Use:   "tui",
		Short: "interactive slider UI",
		Args:  cobra.NoArgs,
		RunE:  runTUI,
	}

	exportCmd := &cobra.Command{
		Use:   "export [first|second] [dir]",
		Short: "write csv samples, json report and png plot",
		Args:  cobra.ExactArgs(2),
		RunE:  runExport,
	}
	addParamFlags(exportCmd)

	compareCmd := &cobra.Command{
		Use:   "compare [first|second] [solver1] [solver2] ...",
		Short: "compare solvers on the same system",
		Args:  cobra.MinimumNArgs(1),
		RunE:  compareSolvers,
	}
	addParamFlags(compareCmd)

	sweepCmd := &cobra.Command{
		Use:   "sweep [first|second] [param]",
		Short: "tabulate metrics over a range of one parameter",
		Args:  cobra.ExactArgs(2),
		RunE:  runSweep,
	}
	addParamFlags(sweepCmd)
	sweepCmd.Flags().Float64Var(&from, "from", 0, "first value (default: slider minimum)")
	sweepCmd.Flags().Float64Var(&to, "to", 0, "last value (default: slider maximum)")
	sweepCmd.Flags().Float64Var(&step, "step", 0, "increment (default: slider step)")
	sweepCmd.Flags().IntVar(&limit, "jobs", 4, "concurrent runs")

	presetsCmd := &cobra.Command{
		Use:   "presets [first|second]",
		Short: "list available presets for a system type",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			presets := config.ListPresets(args[0])
			if len(presets) == 0 {
				fmt.Printf("no presets for system: %s\n", args[0])
				return nil
			}
			fmt.Printf("presets for %s:\n", args[0])
			w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
			for _, name := range presets {
				p := config.GetPreset(args[0], name).Params
				fmt.Fprintf(w, "  %s\t%s\n", name, describeParams(args[0], p))
			}
			return w.Flush()
		},
	}

	rangesCmd := &cobra.Command{
		Use:   "ranges [first|second]",
		Short: "show slider ranges",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			names := config.ParamNames(args[0])
			if names == nil {
				return fmt.Errorf("unknown system: %s", args[0])
			}
			w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
			fmt.Fprintln(w, "param\tlabel\tmin\tmax\tdefault\tstep")
			for _, name := range names {
				r, err := config.GetRange(args[0], name)
				if err != nil {
					return err
				}
				fmt.Fprintf(w, "%s\t%s\t%g\t%g\t%g\t%g\n", name, r.Label, r.Min, r.Max, r.Default, r.Step)
			}
			return w.Flush()
		},
	}

	batchCmd := &cobra.Command{
		Use:   "batch [scenario.yaml]",
		Short: "run a yaml scenario of step experiments",
		Args:  cobra.ExactArgs(1),
		RunE:  runBatch,
	}
	batchCmd.Flags().StringVar(&outDir, "out", config.DefaultExportDir, "directory for save_as exports")

	rootCmd.AddCommand(runCmd, tuiCmd, exportCmd, compareCmd, sweepCmd, batchCmd, presetsCmd, rangesCmd)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		stop()
		os.Exit(1)
	}
}

func addParamFlags(cmd *cobra.Command) {
	cmd.Flags().Float64Var(&gain, "k", config.DefaultGain, "gain K")
	cmd.Flags().Float64Var(&tau, "tau", config.DefaultTau, "time constant T (first order)")
	cmd.Flags().Float64Var(&zeta, "zeta", config.DefaultZeta, "damping ratio (second order)")
	cmd.Flags().Float64Var(&omega, "wn", config.DefaultOmega, "natural frequency (second order)")
	cmd.Flags().StringVar(&solver, "solver", config.DefaultSolver, "solver (zoh, euler, rk4, rk45, rk4-adaptive)")
	cmd.Flags().IntVar(&samples, "samples", config.DefaultSamples, "number of samples")
	cmd.Flags().Float64Var(&horizon, "time", 0, "simulation horizon in seconds (default: 7 time constants)")
	cmd.Flags().StringVar(&preset, "preset", "", "use preset configuration")
}

// resolveConfig layers defaults, preset, config file and explicitly set
// flags, in that order.
func resolveConfig(cmd *cobra.Command, system string) (*config.Config, error) {
	cfg := config.DefaultConfig()
	if configFile != "" {
		loaded, err := config.Load(configFile)
		if err != nil {
			return nil, fmt.Errorf("failed to load config: %w", err)
		}
		cfg = loaded
	}
	if system != "" {
		system = config.NormalizeSystem(system)
		if system != cfg.System {
			cfg.Params = config.DefaultParams(system)
		}
		cfg.System = system
	}

	flags := cmd.Flags()
	if preset != "" {
		p := config.GetPreset(cfg.System, preset)
		if p == nil {
			return nil, fmt.Errorf("unknown preset: %s (available: %v)", preset, config.ListPresets(cfg.System))
		}
		cfg.Params = p.Params
		if configFile == "" {
			cfg.Solver = p.Solver
			cfg.Samples = p.Samples
		}
	}

	if flags.Lookup("k") != nil {
		if flags.Changed("k") {
			cfg.Params.Gain = gain
		}
		if flags.Changed("tau") {
			cfg.Params.TimeConstant = tau
		}
		if flags.Changed("zeta") {
			cfg.Params.Damping = zeta
		}
		if flags.Changed("wn") {
			cfg.Params.NaturalFrequency = omega
		}
		if flags.Changed("solver") {
			cfg.Solver = solver
		}
		if flags.Changed("samples") {
			cfg.Samples = samples
		}
		if flags.Changed("time") {
			cfg.Duration = horizon
		}
	}
	if flags.Lookup("width") != nil {
		if flags.Changed("width") {
			cfg.Plot.Width = width
		}
		if flags.Changed("height") {
			cfg.Plot.Height = height
		}
	}
	if flags.Changed("theme") || configFile == "" {
		cfg.Plot.Theme = theme
	}
	if logLevel != "" {
		cfg.Log.Level = logLevel
	}
	if logFile != "" {
		cfg.Log.File = logFile
	}
	return cfg, nil
}

func systemArg(args []string) string {
	if len(args) > 0 {
		return args[0]
	}
	return ""
}

func runTUI(cmd *cobra.Command, args []string) error {
	cfg, err := resolveConfig(cmd, "")
	if err != nil {
		return err
	}
	// Console logging would corrupt the alternate screen.
	log, err := logging.New(cfg.Log, nil)
	if err != nil {
		return err
	}
	defer log.Sync()

	return tui.Run(cfg, experiment.NewRegistry(), log)
}

func runStep(cmd *cobra.Command, args []string) error {
	cfg, err := resolveConfig(cmd, systemArg(args))
	if err != nil {
		return err
	}
	log, err := logging.Stderr(cfg.Log)
	if err != nil {
		return err
	}
	defer log.Sync()

	report, err := experiment.Run(cmd.Context(), experiment.OptionsFromConfig(cfg), nil, log)
	if err != nil {
		return err
	}
	log.Info("simulation complete",
		zap.String("id", report.ID),
		zap.Int("samples", report.Response.Len()),
		zap.Duration("elapsed", report.Elapsed),
	)

	if jsonOut {
		if err := export.WriteJSON(os.Stdout, report); err != nil {
			return err
		}
	} else {
		th := viz.GetTheme(cfg.Plot.Theme)
		chart, err := viz.Chart(report, cfg.Plot.Width, cfg.Plot.Height, th)
		if err != nil {
			return err
		}
		fmt.Println(chart)
		fmt.Println()
		fmt.Printf("G(s) = %s\n", report.TransferFunction)
		fmt.Printf("poles: %s\n\n", formatPoles(report.Poles))
		fmt.Println(viz.Summary(report.Metrics))
	}

	if exportDir != "" {
		paths, err := export.Dir(exportDir, report, 8, 6)
		if err != nil {
			return err
		}
		log.Info("exported report", zap.String("csv", paths.CSV), zap.String("json", paths.JSON), zap.String("png", paths.PNG))
	}
	return nil
}

func runExport(cmd *cobra.Command, args []string) error {
	cfg, err := resolveConfig(cmd, args[0])
	if err != nil {
		return err
	}
	log, err := logging.Stderr(cfg.Log)
	if err != nil {
		return err
	}
	defer log.Sync()

	report, err := experiment.Run(cmd.Context(), experiment.OptionsFromConfig(cfg), nil, log)
	if err != nil {
		return err
	}
	paths, err := export.Dir(args[1], report, 8, 6)
	if err != nil {
		return err
	}

	fmt.Printf("run id: %s\n", report.ID)
	fmt.Printf("  %s\n  %s\n  %s\n", paths.CSV, paths.JSON, paths.PNG)
	return nil
}

func compareSolvers(cmd *cobra.Command, args []string) error {
	cfg, err := resolveConfig(cmd, args[0])
	if err != nil {
		return err
	}
	log, err := logging.Stderr(cfg.Log)
	if err != nil {
		return err
	}
	defer log.Sync()

	registry := experiment.NewRegistry()
	solvers := args[1:]
	if len(solvers) == 0 {
		solvers = registry.ListSolvers()
	}

	base := experiment.OptionsFromConfig(cfg)
	fmt.Printf("comparing solvers for %s order system: %s\n\n", base.System, describeParams(base.System, cfg.Params))

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', tabwriter.AlignRight)
	fmt.Fprintln(w, "solver\tsamples\trise\tsettling\tpeak\tovershoot %\tfinal\ttime ms\t")
	for _, name := range solvers {
		opts := base
		opts.Solver = name
		report, err := experiment.Run(cmd.Context(), opts, registry, log)
		if err != nil {
			fmt.Fprintf(w, "%s\terror: %v\t\t\t\t\t\t\t\n", name, err)
			continue
		}
		m := report.Metrics
		fmt.Fprintf(w, "%s\t%d\t%s\t%s\t%.4f\t%.4f\t%.6f\t%.2f\t\n",
			name, report.Response.Len(), optional(m.RiseTime), optional(m.SettlingTime),
			m.PeakTime, m.Overshoot, report.Response.Final(), float64(report.Elapsed.Microseconds())/1000)
	}
	return w.Flush()
}

func runSweep(cmd *cobra.Command, args []string) error {
	cfg, err := resolveConfig(cmd, args[0])
	if err != nil {
		return err
	}
	log, err := logging.Stderr(cfg.Log)
	if err != nil {
		return err
	}
	defer log.Sync()

	param := args[1]
	r, err := config.GetRange(cfg.System, param)
	if err != nil {
		return err
	}
	lo, hi, inc := r.Min, r.Max, r.Step
	if cmd.Flags().Changed("from") {
		lo = from
	}
	if cmd.Flags().Changed("to") {
		hi = to
	}
	if cmd.Flags().Changed("step") {
		inc = step
	}
	values, err := sweep.Linspace(lo, hi, inc)
	if err != nil {
		return err
	}

	runner := &sweep.Runner{Registry: experiment.NewRegistry(), Log: log, Limit: limit}
	points, err := runner.Run(cmd.Context(), experiment.OptionsFromConfig(cfg), sweep.Sweep{Param: param, Values: values})
	if err != nil {
		return err
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', tabwriter.AlignRight)
	fmt.Fprintf(w, "%s\trise\tsettling\tpeak\tovershoot %%\t\n", param)
	for _, p := range points {
		if p.Err != nil {
			fmt.Fprintf(w, "%g\t%v\t\t\t\t\n", p.Value, p.Err)
			continue
		}
		m := p.Metrics
		fmt.Fprintf(w, "%g\t%s\t%s\t%.4f\t%.4f\t\n", p.Value, optional(m.RiseTime), optional(m.SettlingTime), m.PeakTime, m.Overshoot)
	}
	return w.Flush()
}

func runBatch(cmd *cobra.Command, args []string) error {
	cfg, err := resolveConfig(cmd, "")
	if err != nil {
		return err
	}
	log, err := logging.Stderr(cfg.Log)
	if err != nil {
		return err
	}
	defer log.Sync()

	scenario, err := automation.LoadScenario(args[0])
	if err != nil {
		return err
	}
	results, err := automation.RunScenario(cmd.Context(), scenario, experiment.NewRegistry(), log, outDir)

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "step\tsystem\tparams\trise\tsettling\tpeak\tovershoot %\tsaved")
	for i, r := range results {
		o := r.Report.Options
		saved := "-"
		if r.Paths != nil {
			saved = r.Paths.JSON
		}
		m := r.Report.Metrics
		fmt.Fprintf(w, "%d\t%s\t%s\t%s\t%s\t%.4f\t%.4f\t%s\n", i+1, o.System,
			describeParams(o.System, paramsOf(o)), optional(m.RiseTime), optional(m.SettlingTime),
			m.PeakTime, m.Overshoot, saved)
	}
	if ferr := w.Flush(); ferr != nil && err == nil {
		err = ferr
	}
	return err
}

func paramsOf(o experiment.Options) config.ParamsConfig {
	return config.ParamsConfig{
		Gain:             o.Gain,
		TimeConstant:     o.TimeConstant,
		Damping:          o.Damping,
		NaturalFrequency: o.NaturalFrequency,
	}
}

func optional(o metrics.Optional) string {
	if v, ok := o.Value(); ok {
		return fmt.Sprintf("%.4f", v)
	}
	return "-"
}

func formatPoles(poles []complex128) string {
	parts := make([]string, len(poles))
	for i, p := range poles {
		switch {
		case imag(p) == 0:
			parts[i] = fmt.Sprintf("%.4g", real(p))
		case imag(p) > 0:
			parts[i] = fmt.Sprintf("%.4g+%.4gj", real(p), imag(p))
		default:
			parts[i] = fmt.Sprintf("%.4g-%.4gj", real(p), -imag(p))
		}
	}
	return strings.Join(parts, ", ")
}

func describeParams(system string, p config.ParamsConfig) string {
	var parts []string
	for _, name := range config.ParamNames(system) {
		v, _ := p.Get(name)
		parts = append(parts, fmt.Sprintf("%s=%g", name, v))
	}
	return strings.Join(parts, " ")
}
