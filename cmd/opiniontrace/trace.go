package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"opiniontrace/internal/config"
	"opiniontrace/internal/driver"
	"opiniontrace/internal/extract"
	"opiniontrace/internal/observ"
	"opiniontrace/internal/reason"
	"opiniontrace/internal/report"
)

var traceCmd = &cobra.Command{
	Use:   "trace [flags] [STAGE PRIM_PATH ATTRIBUTE]",
	Short: "Diagnose why an opinion is not the winning opinion",
	Long: `Diagnose why the opinion authored in your layer does not win composition for an attribute.

The opinion stack comes from one of three sources: positional STAGE PRIM_PATH
ATTRIBUTE arguments handed to the configured extractor, an extraction dump via
--input (use - for stdin JSON), or every dump under a directory via --batch.`,
	Example: `  # Full diagnosis through the extractor
  opiniontrace trace shot.usda /World/Chair xformOp:translate --layer lighting.usda

  # Diagnose a saved extraction dump
  opiniontrace trace --input chair.json --layer lighting.usda

  # Stack only, no diagnosis
  opiniontrace trace --input chair.json --stack-only`,
	Args: cobra.MaximumNArgs(3),
	RunE: runTrace,
}

func init() {
	traceCmd.Flags().String("input", "", "extraction dump to diagnose (- reads JSON from stdin)")
	traceCmd.Flags().String("layer", "", "user layer to diagnose (identifier or basename)")
	traceCmd.Flags().Float64("time", 0, "time code for time-sampled data (default: the default time)")
	traceCmd.Flags().Bool("stack-only", false, "output the opinion stack without a diagnosis")
	traceCmd.Flags().String("format", "", "output format (json|pretty; default pretty on a terminal)")
	traceCmd.Flags().String("reasons", "", "external reason table (TOML)")
	traceCmd.Flags().Bool("timings", false, "show per-phase timings on stderr")
	traceCmd.Flags().String("batch", "", "diagnose every extraction dump under a directory")
	traceCmd.Flags().Int("jobs", 0, "max parallel workers for batch mode (0=from config)")
	traceCmd.Flags().String("out", "", "directory for batch reports (default: next to each dump)")
}

func runTrace(cmd *cobra.Command, args []string) error {
	inputPath, err := cmd.Flags().GetString("input")
	if err != nil {
		return fmt.Errorf("failed to get input flag: %w", err)
	}
	layer, err := cmd.Flags().GetString("layer")
	if err != nil {
		return fmt.Errorf("failed to get layer flag: %w", err)
	}
	stackOnly, err := cmd.Flags().GetBool("stack-only")
	if err != nil {
		return fmt.Errorf("failed to get stack-only flag: %w", err)
	}
	format, err := cmd.Flags().GetString("format")
	if err != nil {
		return fmt.Errorf("failed to get format flag: %w", err)
	}
	reasonsPath, err := cmd.Flags().GetString("reasons")
	if err != nil {
		return fmt.Errorf("failed to get reasons flag: %w", err)
	}
	showTimings, err := cmd.Flags().GetBool("timings")
	if err != nil {
		return fmt.Errorf("failed to get timings flag: %w", err)
	}
	batchDir, err := cmd.Flags().GetString("batch")
	if err != nil {
		return fmt.Errorf("failed to get batch flag: %w", err)
	}
	jobs, err := cmd.Flags().GetInt("jobs")
	if err != nil {
		return fmt.Errorf("failed to get jobs flag: %w", err)
	}
	outDir, err := cmd.Flags().GetString("out")
	if err != nil {
		return fmt.Errorf("failed to get out flag: %w", err)
	}
	configPath, err := cmd.Root().PersistentFlags().GetString("config")
	if err != nil {
		return fmt.Errorf("failed to get config flag: %w", err)
	}
	colorFlag, err := cmd.Root().PersistentFlags().GetString("color")
	if err != nil {
		return fmt.Errorf("failed to get color flag: %w", err)
	}

	if batchDir != "" && (inputPath != "" || len(args) > 0) {
		return fmt.Errorf("--batch cannot be combined with --input or query arguments")
	}
	if inputPath != "" && len(args) > 0 {
		return fmt.Errorf("--input cannot be combined with query arguments")
	}
	if batchDir == "" && inputPath == "" && len(args) != 3 {
		return fmt.Errorf("expected STAGE PRIM_PATH ATTRIBUTE arguments (or --input / --batch)")
	}

	cleanup, err := setupProfiling(cmd)
	if err != nil {
		return err
	}
	defer cleanup()

	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}

	tablePath := reasonsPath
	if tablePath == "" {
		tablePath = cfg.Reasons.Table
	}
	registry := reason.Builtin()
	if tablePath != "" {
		registry, err = reason.LoadTable(tablePath)
		if err != nil {
			return err
		}
		logger.Debug("reason table loaded",
			zap.String("path", tablePath),
			zap.String("version", registry.Version()))
	}

	if colorFlag == "" {
		colorFlag = cfg.Output.Color
	}
	colorMode, err := report.ParseColorMode(colorFlag)
	if err != nil {
		return err
	}

	if format == "" {
		format = cfg.Output.Format
	}
	switch format {
	case "", "json", "pretty":
	default:
		return fmt.Errorf("unknown format: %s", format)
	}

	opts := driver.Options{
		UserLayer:     layer,
		StackOnly:     stackOnly,
		Registry:      registry,
		Logger:        logger,
		EnableTimings: showTimings,
	}

	if batchDir != "" {
		if jobs <= 0 {
			jobs = cfg.Batch.Jobs
		}
		return runTraceBatch(cmd, batchDir, outDir, jobs, opts)
	}

	var res *driver.TraceResult
	switch {
	case inputPath == "-":
		res, err = driver.TraceReader(cmd.InOrStdin(), extract.FormatJSON, opts)
	case inputPath != "":
		res, err = driver.TraceFile(inputPath, opts)
	default:
		if len(cfg.Extractor.Command) == 0 {
			return fmt.Errorf("no extractor command configured; set extractor.command in %s or OPINIONTRACE_EXTRACTOR", config.DefaultPath)
		}
		ex := &extract.Extractor{
			Command: cfg.Extractor.Command,
			Timeout: cfg.Extractor.Timeout(),
		}
		var timeCode *float64
		if cmd.Flags().Changed("time") {
			t, terr := cmd.Flags().GetFloat64("time")
			if terr != nil {
				return fmt.Errorf("failed to get time flag: %w", terr)
			}
			timeCode = &t
		}
		res, err = driver.TraceExtractor(cmd.Context(), ex, args[0], args[1], args[2], timeCode, opts)
	}
	if err != nil {
		return err
	}

	return renderTrace(res, format, colorMode, cfg.Output.ValueWidth)
}

// renderTrace writes the report to stdout in the chosen format. An
// empty format picks pretty on a terminal and JSON otherwise. The
// report is the product; reportable failures inside it still exit 0.
func renderTrace(res *driver.TraceResult, format string, colorMode report.ColorMode, valueWidth int) error {
	renderIdx := -1
	if res.Timer != nil {
		renderIdx = res.Timer.Begin(observ.PhaseRender)
	}

	usePretty := format == "pretty" || (format == "" && isTerminal(os.Stdout))
	var renderErr error
	if usePretty {
		useColor := colorMode == report.ColorAlways ||
			(colorMode == report.ColorAuto && isTerminal(os.Stdout))
		report.Pretty(os.Stdout, res.Output, report.PrettyOpts{Color: useColor, Width: valueWidth})
	} else {
		renderErr = report.JSON(os.Stdout, res.Output)
	}

	if res.Timer != nil {
		if renderIdx >= 0 {
			res.Timer.End(renderIdx, "")
		}
		fmt.Fprintln(os.Stderr, res.Timer.Summary())
	}
	if renderErr != nil {
		return fmt.Errorf("failed to encode report: %w", renderErr)
	}
	return nil
}

func runTraceBatch(cmd *cobra.Command, dir, outDir string, jobs int, opts driver.Options) error {
	batchOpts := driver.BatchOptions{
		Options: opts,
		Jobs:    jobs,
		OutDir:  outDir,
	}

	var (
		results []driver.TraceDirResult
		err     error
	)
	if isTerminal(os.Stdout) {
		results, err = runBatchWithUI(cmd.Context(), dir, batchOpts)
	} else {
		batchOpts.Progress = logSink{log: logger}
		results, err = driver.TraceDir(cmd.Context(), dir, batchOpts)
	}
	if err != nil {
		return err
	}

	fmt.Fprintln(cmd.OutOrStdout(), driver.Summarize(results))
	return nil
}

// logSink reports batch progress as log lines for non-terminal runs.
type logSink struct {
	log *zap.Logger
}

func (s logSink) OnEvent(ev driver.Event) {
	switch ev.Status {
	case driver.StatusDone:
		s.log.Info("dump traced", zap.String("file", ev.File))
	case driver.StatusError:
		s.log.Warn("dump failed", zap.String("file", ev.File), zap.Error(ev.Err))
	}
}
