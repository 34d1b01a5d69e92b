package main

import (
	"fmt"
	"log/slog"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/weiihann/simbench/dataset"
	"github.com/weiihann/simbench/store"
)

func newIndexCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "index [file...]",
		Short: "Load data files into the history index",
		Long: `Index ingests every run of the given data files (the configured data
file when none is given) into the LevelDB index at index_dir. Ingesting the
same file again is a no-op, so the index can be rebuilt incrementally from
several branches' data files.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			files := args
			if len(files) == 0 {
				files = []string{a.cfg.DataFile}
			}

			s, err := store.Open(a.cfg.IndexDir)
			if err != nil {
				return err
			}
			defer s.Close()

			for _, path := range files {
				ds, _, err := dataset.Load(path)
				if err != nil {
					return err
				}

				n, err := s.Ingest(ds)
				if err != nil {
					return fmt.Errorf("ingest %s: %w", path, err)
				}

				a.logger.InfoContext(cmd.Context(), "indexed data file",
					slog.String("path", path),
					slog.String("index", a.cfg.IndexDir),
					slog.Int("runs", n),
				)
			}

			suites, err := s.Suites()
			if err != nil {
				return err
			}

			for _, suite := range suites {
				runs, err := s.Runs(suite)
				if err != nil {
					return err
				}

				fmt.Fprintf(cmd.OutOrStdout(), "%s: %d runs\n", suite, len(runs))
			}

			return nil
		},
	}
}

func newSeriesCmd(a *app) *cobra.Command {
	var list bool

	cmd := &cobra.Command{
		Use:   "series <benchmark>",
		Short: "Print the history of one benchmark from the index",
		Args: func(cmd *cobra.Command, args []string) error {
			if list {
				return cobra.NoArgs(cmd, args)
			}

			return cobra.ExactArgs(1)(cmd, args)
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := store.Open(a.cfg.IndexDir)
			if err != nil {
				return err
			}
			defer s.Close()

			w := cmd.OutOrStdout()

			if list {
				names, err := s.Benchmarks(a.cfg.Suite)
				if err != nil {
					return err
				}

				for _, name := range names {
					fmt.Fprintln(w, name)
				}

				return nil
			}

			points, err := s.Series(a.cfg.Suite, args[0])
			if err != nil {
				return err
			}

			if len(points) == 0 {
				return fmt.Errorf("no history for %q in suite %q", args[0], a.cfg.Suite)
			}

			tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
			fmt.Fprintln(tw, "DATE\tCOMMIT\tVALUE\tUNIT")

			for _, p := range points {
				fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n",
					time.UnixMilli(p.Date).UTC().Format(time.DateTime),
					shortID(p.CommitID),
					dataset.FormatValue(p.Value),
					p.Unit,
				)
			}

			return tw.Flush()
		},
	}

	cmd.Flags().BoolVar(&list, "list", false,
		"List the benchmark names in the index instead")

	return cmd
}

func shortID(id string) string {
	return dataset.Commit{ID: id}.Short()
}
