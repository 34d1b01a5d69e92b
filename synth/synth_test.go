package synth

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/weiihann/simbench/dataset"
)

func TestGenerateDeterministic(t *testing.T) {
	cfg := Config{Runs: 5, Contracts: 2, Methods: 2, Cases: 2, Seed: 42, Drift: "spiky"}

	ds1, sum1 := NewGenerator(cfg).Generate()
	ds2, sum2 := NewGenerator(cfg).Generate()

	assert.Equal(t, sum1, sum2)

	b1, err := dataset.Marshal(ds1, dataset.FormatScript)
	require.NoError(t, err)
	b2, err := dataset.Marshal(ds2, dataset.FormatScript)
	require.NoError(t, err)
	assert.Equal(t, string(b1), string(b2))

	ds3, _ := NewGenerator(Config{Runs: 5, Contracts: 2, Methods: 2, Cases: 2, Seed: 43}).Generate()
	b3, err := dataset.Marshal(ds3, dataset.FormatScript)
	require.NoError(t, err)
	assert.NotEqual(t, string(b1), string(b3))
}

func TestGenerateCounts(t *testing.T) {
	tests := []struct {
		name      string
		cfg       Config
		wantRuns  int
		wantBench int
	}{
		{"basic", Config{Runs: 3, Contracts: 2, Methods: 3, Cases: 1}, 3, 2 * 3 * 1 * 4},
		{"defaults", Config{Runs: 1}, 1, 4},
		{"clamped", Config{Runs: 2, Contracts: 100, Methods: 1, Cases: 1}, 2, 8 * 4},
		{"no runs", Config{}, 0, 4},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ds, sum := NewGenerator(tt.cfg).Generate()

			assert.Equal(t, tt.wantRuns, sum.Runs)
			assert.Equal(t, tt.wantBench, sum.Benchmarks)
			assert.Equal(t, tt.wantRuns*tt.wantBench, sum.Measurements)

			if tt.wantRuns == 0 {
				assert.Empty(t, ds.Entries)
				return
			}

			runs, err := ds.Runs(dataset.DefaultSuite)
			require.NoError(t, err)
			assert.Len(t, runs, tt.wantRuns)
		})
	}
}

func TestGenerateIsValid(t *testing.T) {
	ds, _ := NewGenerator(Config{
		Runs:      20,
		Contracts: 3,
		Methods:   2,
		Cases:     2,
		Seed:      7,
		Drift:     "spiky",
		RepoURL:   "https://github.com/o/r",
		Start:     time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC),
		Interval:  time.Hour,
	}).Generate()

	assert.Empty(t, dataset.Validate(ds, dataset.ValidateOptions{StrictDates: true}))
	assert.Equal(t, "https://github.com/o/r", ds.RepoURL)

	runs, err := ds.Runs(dataset.DefaultSuite)
	require.NoError(t, err)

	last := runs[len(runs)-1]
	assert.Equal(t, time.Date(2025, 3, 1, 19, 0, 0, 0, time.UTC).UnixMilli(), last.Date)
	assert.Equal(t, last.Date, ds.LastUpdate)

	for _, m := range last.Benches {
		_, err := dataset.ParseName(m.Name)
		assert.NoError(t, err, m.Name)
	}
}
