package main

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/weiihann/simbench/dataset"
	"github.com/weiihann/simbench/report"
)

func newValidateCmd(a *app) *cobra.Command {
	var strict bool

	cmd := &cobra.Command{
		Use:   "validate [file...]",
		Short: "Check benchmark data files for schema and consistency errors",
		Long: `Validate parses each data file (the configured data file when none is
given) and reports every issue found. Warnings are printed but only errors
make the command fail.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			files := args
			if len(files) == 0 {
				files = []string{a.cfg.DataFile}
			}

			return runValidate(cmd.Context(), cmd.OutOrStdout(), a, files, strict)
		},
	}

	cmd.Flags().BoolVar(&strict, "strict", false,
		"Treat out-of-order run dates as errors")

	return cmd
}

func runValidate(
	ctx context.Context,
	w io.Writer,
	a *app,
	files []string,
	strict bool,
) error {
	var failed int

	for _, path := range files {
		ds, format, err := dataset.Load(path)
		if err != nil {
			return err
		}

		issues := dataset.Validate(ds, dataset.ValidateOptions{
			Units:       a.cfg.Units,
			StrictDates: strict,
		})

		var errs int

		for _, issue := range issues {
			fmt.Fprintf(w, "%s: %s\n", path, issue)

			if issue.Severity == dataset.SeverityError {
				errs++
			}
		}

		a.logger.InfoContext(ctx, "validated data file",
			slog.String("path", path),
			slog.String("format", format.String()),
			slog.Int("suites", len(ds.Entries)),
			slog.Int("errors", errs),
			slog.Int("warnings", len(issues)-errs),
		)

		if errs > 0 {
			failed++
		}
	}

	if failed > 0 {
		return fmt.Errorf("%d of %d data files invalid", failed, len(files))
	}

	return nil
}

func newFmtCmd(a *app) *cobra.Command {
	var (
		check  bool
		output string
		asJSON bool
	)

	cmd := &cobra.Command{
		Use:   "fmt [file]",
		Short: "Rewrite a data file in canonical form",
		Long: `Fmt re-encodes a data file exactly as the benchmark action writes it:
the window.BENCHMARK_DATA prefix followed by two-space indented JSON. With
--check the file is left untouched and the command fails when it is not
canonical. --json converts to a plain JSON document.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := a.cfg.DataFile
			if len(args) == 1 {
				path = args[0]
			}

			return runFmt(cmd.Context(), a.logger, path, output, check, asJSON)
		},
	}

	flags := cmd.Flags()
	flags.BoolVar(&check, "check", false,
		"Fail instead of rewriting when the file is not canonical")
	flags.StringVarP(&output, "output", "o", "",
		"Write to this path instead of in place")
	flags.BoolVar(&asJSON, "json", false,
		"Write plain JSON without the window.BENCHMARK_DATA prefix")

	return cmd
}

func runFmt(
	ctx context.Context,
	logger *slog.Logger,
	path, output string,
	check, asJSON bool,
) error {
	raw, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read %s: %w", path, err)
	}

	ds, format, err := dataset.Parse(raw)
	if err != nil {
		return fmt.Errorf("parse %s: %w", path, err)
	}

	if asJSON {
		format = dataset.FormatJSON
	}

	canonical, err := dataset.Marshal(ds, format)
	if err != nil {
		return err
	}

	if check {
		if !bytes.Equal(raw, canonical) {
			return fmt.Errorf("%s is not canonically formatted", path)
		}

		return nil
	}

	if output == "" {
		output = path
	}

	if err := dataset.Save(output, ds, format); err != nil {
		return err
	}

	logger.InfoContext(ctx, "formatted data file",
		slog.String("path", output),
		slog.String("format", format.String()),
		slog.Bool("changed", !bytes.Equal(raw, canonical) || output != path),
	)

	return nil
}

func newShowCmd(a *app) *cobra.Command {
	var commit string

	cmd := &cobra.Command{
		Use:   "show",
		Short: "List the runs of a suite or the measurements of one run",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ds, _, err := dataset.Load(a.cfg.DataFile)
			if err != nil {
				return err
			}

			if commit != "" {
				run, err := ds.RunByCommit(a.cfg.Suite, commit)
				if err != nil {
					return err
				}

				return showRun(cmd.OutOrStdout(), run)
			}

			return showSuites(cmd.OutOrStdout(), ds, a.cfg.Suite)
		},
	}

	cmd.Flags().StringVar(&commit, "commit", "",
		"Show the measurements of the run for this commit (7+ char prefix)")

	return cmd
}

func showSuites(w io.Writer, ds *dataset.Dataset, suite string) error {
	fmt.Fprintf(w, "repo: %s\n", ds.RepoURL)
	fmt.Fprintf(w, "last update: %s\n",
		time.UnixMilli(ds.LastUpdate).UTC().Format(time.RFC3339))
	fmt.Fprintf(w, "suites: %d\n\n", len(ds.Entries))

	runs, err := ds.Runs(suite)
	if err != nil {
		return err
	}

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "DATE\tCOMMIT\tTOOL\tBENCHES\tMESSAGE")

	for _, r := range runs {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%d\t%s\n",
			time.UnixMilli(r.Date).UTC().Format(time.DateTime),
			r.Commit.Short(),
			r.Tool,
			len(r.Benches),
			firstLine(r.Commit.Message),
		)
	}

	return tw.Flush()
}

func showRun(w io.Writer, run *dataset.Run) error {
	fmt.Fprintf(w, "commit: %s\n", run.Commit.ID)
	fmt.Fprintf(w, "date: %s\n", time.UnixMilli(run.Date).UTC().Format(time.RFC3339))
	fmt.Fprintf(w, "tool: %s\n\n", run.Tool)

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "NAME\tVALUE\tUNIT")

	for _, m := range run.Benches {
		fmt.Fprintf(tw, "%s\t%s\t%s\n", m.Name, m.Value, m.Unit)
	}

	return tw.Flush()
}

func firstLine(s string) string {
	line, _, _ := strings.Cut(s, "\n")
	return line
}

func newDiffCmd(a *app) *cobra.Command {
	var (
		color    bool
		exitCode bool
	)

	cmd := &cobra.Command{
		Use:   "diff <before> <after>",
		Short: "Show a structural diff between two data files",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			before, _, err := dataset.Load(args[0])
			if err != nil {
				return err
			}

			after, _, err := dataset.Load(args[1])
			if err != nil {
				return err
			}

			w := cmd.OutOrStdout()

			changed, err := report.Diff(w, before, after, color)
			if err != nil {
				return err
			}

			if !changed {
				fmt.Fprintln(w, "no differences")
				return nil
			}

			a.logger.DebugContext(cmd.Context(), "data files differ",
				slog.String("before", args[0]),
				slog.String("after", args[1]),
			)

			if exitCode {
				return fmt.Errorf("%s and %s differ", args[0], args[1])
			}

			return nil
		},
	}

	flags := cmd.Flags()
	flags.BoolVar(&color, "color", false,
		"Colorize added and removed lines")
	flags.BoolVar(&exitCode, "exit-code", false,
		"Fail when the files differ")

	return cmd
}
