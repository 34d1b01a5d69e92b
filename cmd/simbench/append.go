package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/weiihann/simbench/compare"
	"github.com/weiihann/simbench/dataset"
	"github.com/weiihann/simbench/gitmeta"
	"github.com/weiihann/simbench/harness"
	"github.com/weiihann/simbench/report"
)

func newAppendCmd(a *app) *cobra.Command {
	var (
		resultsPath string
		eventPath   string
		repoDir     string
		workDir     string
		reportPath  string
		alertPath   string
		timeout     time.Duration
		dryRun      bool
	)

	cmd := &cobra.Command{
		Use:   "append [-- command [args...]]",
		Short: "Record a benchmark run in the data file",
		Long: `Append runs the benchmark command (or reads --results), stamps the
measurements with the current commit and adds them as a new run of the suite.
The previous run for a different commit is used as the baseline for a
markdown comparison report; changes above alert_threshold are reported as
alerts and changes above fail_threshold make the command fail.

The command receives the path it should write its JSON results to in
BENCH_JSON_OUTPUT. When it leaves that file empty, stdout is parsed instead.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if eventPath == "" {
				eventPath = os.Getenv("GITHUB_EVENT_PATH")
			}

			return runAppend(cmd.Context(), cmd.OutOrStdout(), a, appendConfig{
				command:     args,
				resultsPath: resultsPath,
				eventPath:   eventPath,
				repoDir:     repoDir,
				workDir:     workDir,
				reportPath:  reportPath,
				alertPath:   alertPath,
				timeout:     timeout,
				dryRun:      dryRun,
			})
		},
	}

	flags := cmd.Flags()
	flags.StringVar(&resultsPath, "results", "",
		"Read benchmark results from this JSON file instead of running a command")
	flags.StringVar(&eventPath, "event", "",
		"GitHub push or pull_request event payload (default: $GITHUB_EVENT_PATH)")
	flags.StringVar(&repoDir, "repo", ".",
		"Git checkout used for commit metadata when no event payload is given")
	flags.StringVar(&workDir, "workdir", "",
		"Working directory of the benchmark command")
	flags.StringVar(&reportPath, "report", "",
		"Write the markdown comparison report to this file instead of stdout")
	flags.StringVar(&alertPath, "alert-file", "",
		"Write the markdown alert body here when any alert fires")
	flags.DurationVar(&timeout, "timeout", 30*time.Minute,
		"Benchmark command timeout")
	flags.BoolVar(&dryRun, "dry-run", false,
		"Compare and report without saving the data file")

	return cmd
}

type appendConfig struct {
	command     []string
	resultsPath string
	eventPath   string
	repoDir     string
	workDir     string
	reportPath  string
	alertPath   string
	timeout     time.Duration
	dryRun      bool
}

func runAppend(
	ctx context.Context,
	stdout io.Writer,
	a *app,
	cfg appendConfig,
) error {
	benches, err := collectBenches(ctx, a, cfg)
	if err != nil {
		return err
	}

	commit, err := resolveCommit(cfg, a.cfg.RepoURL)
	if err != nil {
		return err
	}

	repoURL := a.cfg.RepoURL
	if repoURL == "" {
		repoURL = repoFromCommitURL(commit)
	}

	run := dataset.Run{
		Commit:  commit,
		Date:    time.Now().UnixMilli(),
		Tool:    a.cfg.ToolKind(),
		Benches: benches,
	}

	// Check the new run on its own so that problems already present in the
	// history never block recording.
	single := &dataset.Dataset{}
	dataset.Append(single, a.cfg.Suite, run, dataset.AppendOptions{})

	if err := single.Check(dataset.ValidateOptions{Units: a.cfg.Units}); err != nil {
		return err
	}

	opts := dataset.AppendOptions{RepoURL: repoURL, MaxItems: a.cfg.MaxItems}

	var prev *dataset.Run

	if cfg.dryRun {
		ds, _, err := dataset.Load(a.cfg.DataFile)
		switch {
		case errors.Is(err, os.ErrNotExist):
			ds = &dataset.Dataset{}
		case err != nil:
			return err
		}

		prev = dataset.Append(ds, a.cfg.Suite, run, opts)
	} else {
		err = dataset.Update(ctx, a.cfg.DataFile, func(ds *dataset.Dataset) error {
			prev = dataset.Append(ds, a.cfg.Suite, run, opts)
			return nil
		})
		if err != nil {
			return fmt.Errorf("update %s: %w", a.cfg.DataFile, err)
		}

		a.logger.InfoContext(ctx, "run recorded",
			slog.String("path", a.cfg.DataFile),
			slog.String("suite", a.cfg.Suite),
			slog.String("commit", commit.ID),
			slog.Int("benches", len(benches)),
		)
	}

	return reportRun(ctx, stdout, a, cfg, run, prev)
}

// repoFromCommitURL recovers the repository URL from a push commit link
// (<repo>/commit/<id>) or a pull request commit link
// (<repo>/pull/<n>/commits/<id>).
func repoFromCommitURL(c dataset.Commit) string {
	if repo, ok := strings.CutSuffix(c.URL, "/commit/"+c.ID); ok {
		return repo
	}

	if i := strings.LastIndex(c.URL, "/pull/"); i > 0 {
		return c.URL[:i]
	}

	return ""
}

func collectBenches(
	ctx context.Context,
	a *app,
	cfg appendConfig,
) ([]dataset.Measurement, error) {
	switch {
	case cfg.resultsPath != "" && len(cfg.command) > 0:
		return nil, fmt.Errorf("--results and a benchmark command are mutually exclusive")

	case cfg.resultsPath != "":
		f, err := os.Open(cfg.resultsPath)
		if err != nil {
			return nil, fmt.Errorf("open results: %w", err)
		}
		defer f.Close()

		benches, err := harness.ParseBenches(f)
		if err != nil {
			return nil, fmt.Errorf("parse %s: %w", cfg.resultsPath, err)
		}

		return benches, nil

	case len(cfg.command) > 0:
		runner := harness.NewRunner(
			a.cfg.Suite, cfg.command[0], cfg.command[1:], nil, a.logger,
		)

		result, err := runner.Run(ctx, harness.RunConfig{
			Dir:     cfg.workDir,
			Timeout: cfg.timeout,
		})
		if err != nil {
			return nil, err
		}

		return result.Benches, nil

	default:
		return nil, fmt.Errorf("either --results or a benchmark command is required")
	}
}

func resolveCommit(cfg appendConfig, repoURL string) (dataset.Commit, error) {
	if cfg.eventPath != "" {
		f, err := os.Open(cfg.eventPath)
		if err != nil {
			return dataset.Commit{}, fmt.Errorf("open event payload: %w", err)
		}
		defer f.Close()

		return gitmeta.ReadPayload(f)
	}

	return gitmeta.HeadCommit(cfg.repoDir, gitmeta.Options{RemoteURL: repoURL})
}

func reportRun(
	ctx context.Context,
	stdout io.Writer,
	a *app,
	cfg appendConfig,
	run dataset.Run,
	prev *dataset.Run,
) error {
	changes, err := compare.Compare(prev, run)
	if err != nil {
		return err
	}

	if len(changes) == 0 {
		a.logger.WarnContext(ctx, "run has no measurements")
		return nil
	}

	generate := func(w io.Writer) error {
		return report.Generate(w, a.cfg.Suite, run, prev, changes)
	}

	if cfg.reportPath == "" {
		err = generate(stdout)
	} else {
		err = writeOutput(cfg.reportPath, generate)
	}
	if err != nil {
		return fmt.Errorf("generate report: %w", err)
	}

	if prev == nil {
		return nil
	}

	return checkThresholds(ctx, a, cfg.alertPath, run, *prev, changes)
}

func checkThresholds(
	ctx context.Context,
	a *app,
	alertPath string,
	curr, prev dataset.Run,
	changes []compare.Change,
) error {
	threshold, err := compare.ParseThreshold(a.cfg.AlertThreshold)
	if err != nil {
		return err
	}

	alerts := compare.Alerts(changes, threshold)

	if len(alerts) > 0 {
		a.logger.WarnContext(ctx, "performance alert",
			slog.String("suite", a.cfg.Suite),
			slog.String("threshold", a.cfg.AlertThreshold),
			slog.Int("alerts", len(alerts)),
		)

		if alertPath != "" {
			err := writeOutput(alertPath, func(w io.Writer) error {
				report.GenerateAlert(w, a.cfg.Suite, curr, prev, threshold, alerts)
				return nil
			})
			if err != nil {
				return fmt.Errorf("write alert: %w", err)
			}
		}
	}

	if a.cfg.FailThreshold == "" {
		return nil
	}

	fail, err := compare.ParseThreshold(a.cfg.FailThreshold)
	if err != nil {
		return err
	}

	if failing := compare.Alerts(changes, fail); len(failing) > 0 {
		names := make([]string, len(failing))
		for i, c := range failing {
			names[i] = c.Name
		}

		return fmt.Errorf("%d benchmarks exceed fail threshold %s: %s",
			len(failing), a.cfg.FailThreshold, strings.Join(names, ", "))
	}

	return nil
}

// writeOutput creates path, passes it to fn and reports the close error when
// fn succeeded.
func writeOutput(path string, fn func(io.Writer) error) (err error) {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}

	defer func() {
		if cerr := f.Close(); cerr != nil && err == nil {
			err = fmt.Errorf("close %s: %w", path, cerr)
		}
	}()

	return fn(f)
}
