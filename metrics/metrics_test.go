package metrics

import (
	"math"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/weiihann/simbench/compare"
	"github.com/weiihann/simbench/dataset"
)

func sampleRun() dataset.Run {
	return dataset.Run{
		Commit: dataset.Commit{ID: "897c49b6c3a0d428173275628f1e50fbdad8e42b"},
		Date:   1740997634000,
		Tool:   dataset.ToolCustomSmallerIsBetter,
		Benches: []dataset.Measurement{
			{Name: "Token contract tests/Token/constructor/0/manaUsed", Value: "300980", Unit: dataset.UnitMana},
			{Name: "Token contract tests/Token/constructor/0/avmSimulationDurationMs", Value: "39.5", Unit: dataset.UnitMilliseconds},
		},
	}
}

func TestExportWritesTextfile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "simbench.prom")

	require.NoError(t, Export(path, "Public Simulation Benchmarks", sampleRun(), nil, 2))

	data, err := os.ReadFile(path)
	require.NoError(t, err)

	text := string(data)
	assert.Contains(t, text, "# TYPE simbench_measurement_value gauge")
	assert.Contains(t, text,
		`simbench_measurement_value{name="Token contract tests/Token/constructor/0/manaUsed",suite="Public Simulation Benchmarks",unit="mana"} 300980`)
	assert.Contains(t, text,
		`simbench_measurement_value{name="Token contract tests/Token/constructor/0/avmSimulationDurationMs",suite="Public Simulation Benchmarks",unit="ms"} 39.5`)
	assert.Contains(t, text,
		`simbench_run_timestamp_seconds{commit="897c49b6c3a0d428173275628f1e50fbdad8e42b",suite="Public Simulation Benchmarks"}`)
}

func TestExportRejectsBadValue(t *testing.T) {
	run := sampleRun()
	run.Benches[0].Value = "NaN"

	err := Export(filepath.Join(t.TempDir(), "x.prom"), "s", run, nil, 2)
	assert.Error(t, err)
}

func TestExportWithPreviousRun(t *testing.T) {
	path := filepath.Join(t.TempDir(), "simbench.prom")

	prev := sampleRun()
	prev.Commit.ID = "1f3e0d2c8a5b4e6f7a8b9c0d1e2f3a4b5c6d7e8f"
	prev.Benches = []dataset.Measurement{
		{Name: "Token contract tests/Token/constructor/0/manaUsed", Value: "100000", Unit: dataset.UnitMana},
	}

	require.NoError(t, Export(path, "s", sampleRun(), &prev, 2))

	data, err := os.ReadFile(path)
	require.NoError(t, err)

	text := string(data)
	assert.Contains(t, text, `simbench_change_ratio{name="Token contract tests/Token/constructor/0/manaUsed",suite="s"} 3.0098`)
	assert.Equal(t, 1, strings.Count(text, "simbench_change_ratio{"))
	assert.Contains(t, text, `simbench_alerts{suite="s"} 1`)
}

func TestObserveChanges(t *testing.T) {
	e := NewExporter()

	prev := dataset.Measurement{Name: "a", Value: "1", Unit: "ms"}
	changes := []compare.Change{
		{Name: "a", Unit: "ms", Curr: dataset.Measurement{Name: "a", Value: "3", Unit: "ms"}, Prev: &prev, Ratio: 3},
		{Name: "b", Unit: "ms", Curr: dataset.Measurement{Name: "b", Value: "1", Unit: "ms"}, Prev: &prev, Ratio: 1},
		{Name: "c", Unit: "ms", Curr: dataset.Measurement{Name: "c", Value: "1", Unit: "ms"}, Prev: &prev, Ratio: math.Inf(1)},
		{Name: "d", Unit: "ms", Curr: dataset.Measurement{Name: "d", Value: "1", Unit: "ms"}},
	}

	e.ObserveChanges("s", changes, 2)

	assert.Equal(t, 3.0, testutil.ToFloat64(e.ChangeRatio.WithLabelValues("s", "a")))
	assert.Equal(t, 1.0, testutil.ToFloat64(e.ChangeRatio.WithLabelValues("s", "b")))
	assert.Equal(t, 2.0, testutil.ToFloat64(e.Alerts.WithLabelValues("s")))

	count, err := testutil.GatherAndCount(e.Gatherer(), "simbench_alerts")
	require.NoError(t, err)
	assert.Equal(t, 1, count)
}
