package main

import (
	"fmt"
	"log/slog"
	"os"
	"regexp"

	"github.com/spf13/cobra"

	"github.com/weiihann/simbench/chart"
	"github.com/weiihann/simbench/compare"
	"github.com/weiihann/simbench/dataset"
	"github.com/weiihann/simbench/metrics"
)

func newChartCmd(a *app) *cobra.Command {
	var (
		output string
		filter string
		title  string
		last   int
	)

	cmd := &cobra.Command{
		Use:   "chart",
		Short: "Render the suite history as an HTML page of line charts",
		RunE: func(cmd *cobra.Command, _ []string) error {
			var re *regexp.Regexp

			if filter != "" {
				var err error

				re, err = regexp.Compile(filter)
				if err != nil {
					return fmt.Errorf("compile filter: %w", err)
				}
			}

			ds, _, err := dataset.Load(a.cfg.DataFile)
			if err != nil {
				return err
			}

			runs, err := ds.Runs(a.cfg.Suite)
			if err != nil {
				return err
			}

			f, err := os.Create(output)
			if err != nil {
				return fmt.Errorf("create %s: %w", output, err)
			}
			defer f.Close()

			n, err := chart.Render(f, a.cfg.Suite, runs, chart.Options{
				Title:  title,
				Filter: re,
				Last:   last,
			})
			if err != nil {
				return err
			}

			a.logger.InfoContext(cmd.Context(), "chart written",
				slog.String("path", output),
				slog.Int("charts", n),
				slog.Int("runs", len(runs)),
			)

			return f.Close()
		},
	}

	flags := cmd.Flags()
	flags.StringVarP(&output, "output", "o", "benchmarks.html",
		"Output HTML file")
	flags.StringVar(&filter, "filter", "",
		"Only chart benchmarks whose name matches this regular expression")
	flags.StringVar(&title, "title", "",
		"Page title (default: suite name)")
	flags.IntVar(&last, "last", 0,
		"Only chart the newest N runs (0 = all)")

	return cmd
}

func newExportMetricsCmd(a *app) *cobra.Command {
	var output string

	cmd := &cobra.Command{
		Use:   "export-metrics",
		Short: "Write the latest run as a Prometheus textfile",
		Long: `Export-metrics writes the latest run of the suite, its ratios against
the previous run and the number of alerts in the Prometheus text format, for
collection by the node_exporter textfile collector.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ds, _, err := dataset.Load(a.cfg.DataFile)
			if err != nil {
				return err
			}

			curr, prev, err := selectRuns(ds, a.cfg.Suite, nil)
			if err != nil {
				return err
			}

			threshold, err := compare.ParseThreshold(a.cfg.AlertThreshold)
			if err != nil {
				return err
			}

			if err := metrics.Export(output, a.cfg.Suite, curr, prev, threshold); err != nil {
				return err
			}

			a.logger.InfoContext(cmd.Context(), "metrics exported",
				slog.String("path", output),
				slog.String("commit", curr.Commit.ID),
				slog.Int("benches", len(curr.Benches)),
			)

			return nil
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", "simbench.prom",
		"Output textfile")

	return cmd
}
