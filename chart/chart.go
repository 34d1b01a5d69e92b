// Package chart renders benchmark history as a static HTML page with one
// line chart per benchmark.
package chart

import (
	"fmt"
	"io"
	"regexp"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/components"
	"github.com/go-echarts/go-echarts/v2/opts"

	"github.com/weiihann/simbench/dataset"
)

// Options tunes Render.
type Options struct {
	// Title is the page title. Defaults to the suite name.
	Title string
	// Filter keeps only benchmarks whose name matches.
	Filter *regexp.Regexp
	// Last limits the history to the newest N runs. Zero keeps all.
	Last int
}

type series struct {
	name   string
	unit   string
	x      []string
	points []opts.LineData
}

// Render writes the page for the given runs of one suite and returns the
// number of charts drawn.
func Render(w io.Writer, suite string, runs []dataset.Run, o Options) (int, error) {
	if o.Last > 0 && len(runs) > o.Last {
		runs = runs[len(runs)-o.Last:]
	}

	all, err := collect(runs, o.Filter)
	if err != nil {
		return 0, err
	}

	title := o.Title
	if title == "" {
		title = suite
	}

	page := components.NewPage()
	page.PageTitle = title

	for _, s := range all {
		page.AddCharts(lineChart(s))
	}

	if err := page.Render(w); err != nil {
		return 0, fmt.Errorf("render page: %w", err)
	}

	return len(all), nil
}

// collect groups measurements by name in order of first appearance.
func collect(runs []dataset.Run, filter *regexp.Regexp) ([]*series, error) {
	var ordered []*series
	byName := make(map[string]*series)

	for _, run := range runs {
		for _, m := range run.Benches {
			if filter != nil && !filter.MatchString(m.Name) {
				continue
			}

			v, err := m.Float()
			if err != nil {
				return nil, fmt.Errorf("commit %s: %w", run.Commit.ID, err)
			}

			s, ok := byName[m.Name]
			if !ok {
				s = &series{name: m.Name, unit: m.Unit}
				byName[m.Name] = s
				ordered = append(ordered, s)
			}

			s.x = append(s.x, run.Commit.Short())
			s.points = append(s.points, opts.LineData{Value: v, Name: run.Commit.ID})
		}
	}

	return ordered, nil
}

func lineChart(s *series) *charts.Line {
	line := charts.NewLine()
	line.SetGlobalOptions(
		charts.WithInitializationOpts(opts.Initialization{
			Width:  "960px",
			Height: "320px",
		}),
		charts.WithTitleOpts(opts.Title{Title: s.name}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true), Trigger: "axis"}),
		charts.WithYAxisOpts(opts.YAxis{Name: s.unit}),
		charts.WithLegendOpts(opts.Legend{Show: opts.Bool(false)}),
	)

	line.SetXAxis(s.x).AddSeries(s.unit, s.points)

	return line
}
