// Package main provides the CLI entry point for simbench, which records
// simulation benchmark results into a github-action-benchmark data file and
// compares, indexes and charts the resulting history.
package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/weiihann/simbench/config"
	"github.com/weiihann/simbench/dataset"
)

func main() {
	level := new(slog.LevelVar)
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: level,
	}))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	root := newRootCmd(&app{logger: logger, level: level})
	if err := root.ExecuteContext(ctx); err != nil {
		logger.Error("command failed", slog.Any("error", err))
		stop()
		os.Exit(1)
	}
}

// app carries state shared by every subcommand. cfg is populated by the root
// command's pre-run hook.
type app struct {
	logger  *slog.Logger
	level   *slog.LevelVar
	cfgFile string
	cfg     *config.Config
}

func newRootCmd(a *app) *cobra.Command {
	root := &cobra.Command{
		Use:   "simbench",
		Short: "Simulation benchmark history tooling",
		Long: `Simbench appends public simulation benchmark results to a
github-action-benchmark data file (window.BENCHMARK_DATA = {...}), validates
and formats that file, and compares, indexes, charts and exports its history.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.Load(a.cfgFile, cmd.Flags())
			if err != nil {
				return err
			}

			level, _ := cfg.Level()
			if a.level != nil {
				a.level.Set(level)
			}

			a.cfg = cfg

			return nil
		},
	}

	flags := root.PersistentFlags()
	flags.StringVar(&a.cfgFile, "config", "",
		"Config file (default: ./simbench.yaml if present)")
	flags.String("data-file", "dev/sim-bench/data.js",
		"Benchmark data file")
	flags.String("suite", dataset.DefaultSuite,
		"Benchmark suite name inside the data file")
	flags.String("repo-url", "",
		"Repository URL recorded as repoUrl")
	flags.String("tool", string(dataset.ToolCustomSmallerIsBetter),
		"Benchmark tool, decides whether bigger or smaller is better")
	flags.Int("max-items", 0,
		"Maximum runs kept per suite (0 = unlimited)")
	flags.String("alert-threshold", "200%",
		"Ratio above which a change is reported as an alert")
	flags.String("fail-threshold", "",
		"Ratio above which the command fails (empty = never)")
	flags.String("index-dir", ".simbench/index",
		"Directory of the LevelDB history index")
	flags.StringSlice("units", dataset.DefaultUnits(),
		"Accepted measurement units")
	flags.String("log-level", "info",
		"Log level: debug, info, warn, error")

	root.AddCommand(
		newValidateCmd(a),
		newFmtCmd(a),
		newShowCmd(a),
		newAppendCmd(a),
		newCompareCmd(a),
		newDiffCmd(a),
		newIndexCmd(a),
		newSeriesCmd(a),
		newChartCmd(a),
		newExportMetricsCmd(a),
		newSynthCmd(a),
	)

	return root
}
