// Package compare computes performance ratios between two benchmark runs
// and flags regressions past a threshold.
package compare

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/weiihann/simbench/dataset"
)

// ErrBadThreshold is returned by ParseThreshold.
var ErrBadThreshold = errors.New("bad threshold")

// ParseThreshold parses a percentage such as "200%" into a ratio (2.0).
func ParseThreshold(s string) (float64, error) {
	s = strings.TrimSpace(s)

	pct, ok := strings.CutSuffix(s, "%")
	if !ok {
		return 0, fmt.Errorf("%w: %q must end with %%", ErrBadThreshold, s)
	}

	v, err := strconv.ParseFloat(strings.TrimSpace(pct), 64)
	if err != nil || v < 0 || math.IsInf(v, 0) || math.IsNaN(v) {
		return 0, fmt.Errorf("%w: %q", ErrBadThreshold, s)
	}

	return v / 100, nil
}

// Change is the comparison of one measurement across two runs.
//
// Ratio is how many times worse the current value is than the previous one,
// taking the tool's direction into account: above 1 is a regression, below
// 1 an improvement.
type Change struct {
	Name  string
	Unit  string
	Curr  dataset.Measurement
	Prev  *dataset.Measurement
	Ratio float64
}

// New reports whether the measurement has no counterpart in the previous run.
func (c Change) New() bool {
	return c.Prev == nil
}

// Compare pairs each measurement of curr with the same-named measurement of
// prev, in curr's order. A nil prev yields only new measurements.
func Compare(prev *dataset.Run, curr dataset.Run) ([]Change, error) {
	prevByName := make(map[string]*dataset.Measurement)
	if prev != nil {
		for i := range prev.Benches {
			prevByName[prev.Benches[i].Name] = &prev.Benches[i]
		}
	}

	bigger := curr.Tool.BiggerIsBetter()
	changes := make([]Change, 0, len(curr.Benches))

	for _, m := range curr.Benches {
		c := Change{Name: m.Name, Unit: m.Unit, Curr: m, Ratio: math.NaN()}

		if p, ok := prevByName[m.Name]; ok {
			pv, err := p.Float()
			if err != nil {
				return nil, err
			}

			cv, err := m.Float()
			if err != nil {
				return nil, err
			}

			c.Prev = p
			if bigger {
				c.Ratio = ratio(pv, cv)
			} else {
				c.Ratio = ratio(cv, pv)
			}
		}

		changes = append(changes, c)
	}

	return changes, nil
}

// ratio divides the way JavaScript numbers do: x/0 is +Inf for positive x
// and NaN for 0/0.
func ratio(num, den float64) float64 {
	if den == 0 {
		if num == 0 {
			return math.NaN()
		}

		return math.Inf(1)
	}

	return num / den
}

// Alerts returns the changes whose ratio exceeds threshold. NaN ratios
// never alert.
func Alerts(changes []Change, threshold float64) []Change {
	var out []Change

	for _, c := range changes {
		if !c.New() && c.Ratio > threshold {
			out = append(out, c)
		}
	}

	return out
}

// Summary counts changes by outcome.
type Summary struct {
	Improved  int
	Regressed int
	Unchanged int
	New       int
}

// Summarize buckets changes. Ratios within tolerance of 1 count as unchanged.
func Summarize(changes []Change, tolerance float64) Summary {
	var s Summary

	for _, c := range changes {
		switch {
		case c.New():
			s.New++
		case math.IsNaN(c.Ratio), math.Abs(c.Ratio-1) <= tolerance:
			s.Unchanged++
		case c.Ratio > 1:
			s.Regressed++
		default:
			s.Improved++
		}
	}

	return s
}
