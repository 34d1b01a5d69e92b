package main

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/spf13/cobra"

	"github.com/weiihann/simbench/dataset"
	"github.com/weiihann/simbench/synth"
)

func newSynthCmd(a *app) *cobra.Command {
	var (
		output    string
		runs      int
		contracts int
		methods   int
		cases     int
		drift     string
		seed      int64
		interval  time.Duration
	)

	cmd := &cobra.Command{
		Use:   "synth",
		Short: "Generate a synthetic benchmark history",
		Long: `Synth writes a deterministic, schema-valid benchmark history with
measurement names shaped like the simulation benchmarks. Use it to seed
dashboards, to build fixtures and to load-test the index.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if output == "" {
				return fmt.Errorf("--output is required")
			}

			if drift != "uniform" && drift != "spiky" {
				return fmt.Errorf("unknown drift %q, want uniform or spiky", drift)
			}

			if seed == 0 {
				seed = time.Now().UnixNano()
			}

			gen := synth.NewGenerator(synth.Config{
				Suite:     a.cfg.Suite,
				RepoURL:   a.cfg.RepoURL,
				Runs:      runs,
				Contracts: contracts,
				Methods:   methods,
				Cases:     cases,
				Drift:     drift,
				Seed:      seed,
				Interval:  interval,
			})

			ds, summary := gen.Generate()

			if err := dataset.Save(output, ds, dataset.FormatForPath(output)); err != nil {
				return err
			}

			a.logger.InfoContext(cmd.Context(), "synthetic history generated",
				slog.String("path", output),
				slog.Int64("seed", seed),
				slog.Int("runs", summary.Runs),
				slog.Int("benchmarks", summary.Benchmarks),
				slog.Int("measurements", summary.Measurements),
			)

			return nil
		},
	}

	flags := cmd.Flags()
	flags.StringVarP(&output, "output", "o", "",
		"Output data file (.json for plain JSON)")
	flags.IntVar(&runs, "runs", 50,
		"Number of runs")
	flags.IntVar(&contracts, "contracts", 2,
		"Number of contracts (max 8)")
	flags.IntVar(&methods, "methods", 2,
		"Methods per contract (max 8)")
	flags.IntVar(&cases, "cases", 1,
		"Cases per method")
	flags.StringVar(&drift, "drift", "uniform",
		"Value drift between runs: uniform, spiky")
	flags.Int64Var(&seed, "seed", 0,
		"Random seed (0 = use current time)")
	flags.DurationVar(&interval, "interval", 6*time.Hour,
		"Time between runs")

	return cmd
}
