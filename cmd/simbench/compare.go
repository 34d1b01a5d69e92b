package main

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/weiihann/simbench/compare"
	"github.com/weiihann/simbench/dataset"
	"github.com/weiihann/simbench/report"
)

func newCompareCmd(a *app) *cobra.Command {
	var (
		outputJSON bool
		alertsOnly bool
	)

	cmd := &cobra.Command{
		Use:   "compare [commit [base]]",
		Short: "Compare a recorded run against an earlier one",
		Long: `Compare reports the ratio of every measurement of a run against a
baseline. Without arguments the latest run is compared with the run before
it; with a commit, that run is compared with the newest earlier run of a
different commit; with two commits, against each other.`,
		Args: cobra.MaximumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			ds, _, err := dataset.Load(a.cfg.DataFile)
			if err != nil {
				return err
			}

			curr, prev, err := selectRuns(ds, a.cfg.Suite, args)
			if err != nil {
				return err
			}

			return runCompare(cmd.OutOrStdout(), a, curr, prev, outputJSON, alertsOnly)
		},
	}

	flags := cmd.Flags()
	flags.BoolVar(&outputJSON, "json", false,
		"Output changes as JSON instead of markdown")
	flags.BoolVar(&alertsOnly, "alerts", false,
		"Only print changes above alert_threshold")

	return cmd
}

// selectRuns resolves the runs to compare from zero, one or two commit ids.
func selectRuns(ds *dataset.Dataset, suite string, args []string) (dataset.Run, *dataset.Run, error) {
	runs, err := ds.Runs(suite)
	if err != nil {
		return dataset.Run{}, nil, err
	}

	if len(runs) == 0 {
		return dataset.Run{}, nil, fmt.Errorf("suite %q has no runs", suite)
	}

	idx := len(runs) - 1

	if len(args) > 0 {
		idx = -1

		for i := len(runs) - 1; i >= 0; i-- {
			if runs[i].Commit.Matches(args[0]) {
				idx = i
				break
			}
		}

		if idx < 0 {
			return dataset.Run{}, nil, fmt.Errorf("no run for commit %s in suite %q", args[0], suite)
		}
	}

	curr := runs[idx]

	if len(args) == 2 {
		base, err := ds.RunByCommit(suite, args[1])
		if err != nil {
			return dataset.Run{}, nil, err
		}

		return curr, base, nil
	}

	for i := idx - 1; i >= 0; i-- {
		if runs[i].Commit.ID != curr.Commit.ID {
			prev := runs[i]
			return curr, &prev, nil
		}
	}

	return curr, nil, nil
}

func runCompare(
	w io.Writer,
	a *app,
	curr dataset.Run,
	prev *dataset.Run,
	outputJSON, alertsOnly bool,
) error {
	changes, err := compare.Compare(prev, curr)
	if err != nil {
		return err
	}

	threshold, err := compare.ParseThreshold(a.cfg.AlertThreshold)
	if err != nil {
		return err
	}

	if alertsOnly {
		changes = compare.Alerts(changes, threshold)
	}

	if outputJSON {
		return report.GenerateJSON(w, changes)
	}

	if alertsOnly {
		if len(changes) == 0 {
			fmt.Fprintln(w, "no alerts")
			return nil
		}

		report.GenerateAlert(w, a.cfg.Suite, curr, *prev, threshold, changes)

		return nil
	}

	return report.Generate(w, a.cfg.Suite, curr, prev, changes)
}
