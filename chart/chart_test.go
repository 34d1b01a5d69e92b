package chart

import (
	"bytes"
	"regexp"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/weiihann/simbench/dataset"
	"github.com/weiihann/simbench/synth"
)

func TestRenderOneChartPerBenchmark(t *testing.T) {
	gen := synth.NewGenerator(synth.Config{Runs: 4, Contracts: 1, Methods: 2, Cases: 1, Seed: 3})
	ds, sum := gen.Generate()

	runs, err := ds.Runs(dataset.DefaultSuite)
	require.NoError(t, err)

	var buf bytes.Buffer
	n, err := Render(&buf, dataset.DefaultSuite, runs, Options{})
	require.NoError(t, err)
	assert.Equal(t, sum.Benchmarks, n)

	html := buf.String()
	assert.Contains(t, html, "<title>Public Simulation Benchmarks</title>")
	assert.Contains(t, html, "totalInstructionsExecuted")
	assert.Contains(t, html, runs[3].Commit.Short())
}

func TestRenderFilterAndLast(t *testing.T) {
	gen := synth.NewGenerator(synth.Config{Runs: 10, Contracts: 2, Methods: 1, Cases: 1, Seed: 5})
	ds, _ := gen.Generate()

	runs, err := ds.Runs(dataset.DefaultSuite)
	require.NoError(t, err)

	var buf bytes.Buffer
	n, err := Render(&buf, "s", runs, Options{
		Title:  "Mana only",
		Filter: regexp.MustCompile(`/manaUsed$`),
		Last:   3,
	})
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	html := buf.String()
	assert.Contains(t, html, "Mana only")
	assert.NotContains(t, html, "avmSimulationDurationMs")
	assert.NotContains(t, html, runs[0].Commit.Short())
	assert.True(t, strings.Contains(html, runs[9].Commit.Short()))
}

func TestRenderBadValue(t *testing.T) {
	runs := []dataset.Run{{
		Commit:  dataset.Commit{ID: "abc"},
		Benches: []dataset.Measurement{{Name: "x", Value: "oops", Unit: "ms"}},
	}}

	_, err := Render(&bytes.Buffer{}, "s", runs, Options{})
	assert.Error(t, err)
}
