// Package report formats benchmark comparisons into markdown tables and
// JSON, and renders structural diffs between benchmark data files.
package report

import (
	"encoding/json"
	"fmt"
	"io"
	"math"
	"strconv"

	"github.com/weiihann/simbench/compare"
	"github.com/weiihann/simbench/dataset"
)

// Generate writes a markdown comparison of curr against prev for every
// measurement of curr. prev may be nil for the first run of a suite.
func Generate(
	w io.Writer,
	suite string,
	curr dataset.Run,
	prev *dataset.Run,
	changes []compare.Change,
) error {
	if len(changes) == 0 {
		return fmt.Errorf("no measurements to report")
	}

	fmt.Fprintf(w, "# %s\n", suite)
	fmt.Fprintln(w)

	if prev == nil {
		fmt.Fprintf(w, "First run for commit %s, nothing to compare against.\n",
			curr.Commit.ID)
		fmt.Fprintln(w)
		fmt.Fprintln(w, "| Benchmark suite | Current: "+curr.Commit.ID+" |")
		fmt.Fprintln(w, "|-|-|")

		for _, c := range changes {
			fmt.Fprintf(w, "| `%s` | %s |\n", c.Name, formatValue(c.Curr))
		}

		return nil
	}

	writeHeader(w, curr, *prev)

	for _, c := range changes {
		if c.New() {
			fmt.Fprintf(w, "| `%s` | %s | | |\n", c.Name, formatValue(c.Curr))
			continue
		}

		writeRow(w, c)
	}

	s := compare.Summarize(changes, 0)
	fmt.Fprintln(w)
	fmt.Fprintf(w, "%d regressed, %d improved, %d unchanged, %d new\n",
		s.Regressed, s.Improved, s.Unchanged, s.New)

	return nil
}

// GenerateAlert writes the markdown body posted when alerts exceed the
// threshold. A zero threshold produces a plain performance report.
func GenerateAlert(
	w io.Writer,
	suite string,
	curr, prev dataset.Run,
	threshold float64,
	alerts []compare.Change,
) {
	if threshold == 0 {
		fmt.Fprintln(w, "# Performance Report")
	} else {
		fmt.Fprintln(w, "# :warning: **Performance Alert** :warning:")
	}

	fmt.Fprintln(w)
	fmt.Fprintf(w, "Possible performance regression was detected for benchmark **'%s'**.\n", suite)
	fmt.Fprintf(w, "Benchmark result of this commit is worse than the previous "+
		"benchmark result exceeding threshold `%s`.\n", formatRatio(threshold))
	fmt.Fprintln(w)

	writeHeader(w, curr, prev)

	for _, c := range alerts {
		writeRow(w, c)
	}
}

// GenerateJSON writes changes as JSON to w.
func GenerateJSON(w io.Writer, changes []compare.Change) error {
	type row struct {
		Name     string   `json:"name"`
		Unit     string   `json:"unit"`
		Current  string   `json:"current"`
		Previous *string  `json:"previous,omitempty"`
		Ratio    *float64 `json:"ratio,omitempty"`
	}

	rows := make([]row, 0, len(changes))

	for _, c := range changes {
		r := row{Name: c.Name, Unit: c.Unit, Current: c.Curr.Value.String()}

		if c.Prev != nil {
			prev := c.Prev.Value.String()
			r.Previous = &prev
		}

		// JSON has no Inf or NaN.
		if !c.New() && !math.IsNaN(c.Ratio) && !math.IsInf(c.Ratio, 0) {
			ratio := c.Ratio
			r.Ratio = &ratio
		}

		rows = append(rows, r)
	}

	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")

	return enc.Encode(rows)
}

func writeHeader(w io.Writer, curr, prev dataset.Run) {
	fmt.Fprintf(w, "| Benchmark suite | Current: %s | Previous: %s | Ratio |\n",
		curr.Commit.ID, prev.Commit.ID)
	fmt.Fprintln(w, "|-|-|-|-|")
}

func writeRow(w io.Writer, c compare.Change) {
	fmt.Fprintf(w, "| `%s` | %s | %s | `%s` |\n",
		c.Name,
		formatValue(c.Curr),
		formatValue(*c.Prev),
		formatRatio(c.Ratio),
	)
}

func formatValue(m dataset.Measurement) string {
	s := m.Value.String() + " " + m.Unit
	if m.Range != "" {
		s += " (`" + m.Range + "`)"
	}

	return s
}

func formatRatio(r float64) string {
	switch {
	case math.IsNaN(r):
		return "n/a"
	case math.IsInf(r, 1):
		return "+∞"
	case math.IsInf(r, -1):
		return "-∞"
	case r == math.Trunc(r):
		return strconv.FormatFloat(r, 'f', 0, 64)
	case r > 0.1:
		return strconv.FormatFloat(r, 'f', 2, 64)
	default:
		return strconv.FormatFloat(r, 'f', -1, 64)
	}
}
