package dataset

import (
	"bytes"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func loadFixture(t *testing.T) []byte {
	t.Helper()

	data, err := os.ReadFile("testdata/data.js")
	require.NoError(t, err)

	// The generator writes no trailing newline; the fixture has one for
	// the benefit of editors.
	return bytes.TrimSuffix(data, []byte("\n"))
}

func TestParseFixture(t *testing.T) {
	ds, format, err := Parse(loadFixture(t))
	require.NoError(t, err)

	assert.Equal(t, FormatScript, format)
	assert.Equal(t, int64(1741001234567), ds.LastUpdate)
	assert.Equal(t, "https://github.com/AztecProtocol/aztec-packages", ds.RepoURL)
	assert.Equal(t, []string{DefaultSuite}, ds.SuiteNames())

	runs, err := ds.Runs(DefaultSuite)
	require.NoError(t, err)
	require.Len(t, runs, 2)

	assert.Equal(t, ToolCustomSmallerIsBetter, runs[0].Tool)
	assert.Equal(t, "chore: bump <noir> & avm deps (#11001)", runs[0].Commit.Message)
	require.NotNil(t, runs[0].Commit.Committer)
	assert.Equal(t, "web-flow", runs[0].Commit.Committer.Username)
	require.NotNil(t, runs[0].Commit.Distinct)
	assert.True(t, *runs[0].Commit.Distinct)
}

func TestExampleScenario(t *testing.T) {
	ds, _, err := Parse(loadFixture(t))
	require.NoError(t, err)

	run, err := ds.RunByCommit(DefaultSuite, "897c49b6c3a0d428173275628f1e50fbdad8e42b")
	require.NoError(t, err)

	const name = "Token contract tests/Token/constructor/0/totalInstructionsExecuted"

	count := 0
	for _, m := range run.Benches {
		if m.Name == name {
			count++
		}
	}
	assert.Equal(t, 1, count)

	m := run.Find(name)
	require.NotNil(t, m)
	assert.Equal(t, "16988", m.Value.String())
	assert.Equal(t, UnitInstructions, m.Unit)

	v, err := m.Float()
	require.NoError(t, err)
	assert.Equal(t, 16988.0, v)
}

func TestRoundTripIsByteIdentical(t *testing.T) {
	orig := loadFixture(t)

	ds, format, err := Parse(orig)
	require.NoError(t, err)

	out, err := Marshal(ds, format)
	require.NoError(t, err)
	assert.Equal(t, string(orig), string(out))

	again, _, err := Parse(out)
	require.NoError(t, err)
	assert.Equal(t, ds, again)
}

func TestMarshalJSONFormat(t *testing.T) {
	ds, _, err := Parse(loadFixture(t))
	require.NoError(t, err)

	out, err := Marshal(ds, FormatJSON)
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(out, []byte("{\n")))

	back, format, err := Parse(out)
	require.NoError(t, err)
	assert.Equal(t, FormatJSON, format)
	assert.Equal(t, ds, back)
}

func TestMarshalDoesNotEscapeHTML(t *testing.T) {
	ds := &Dataset{}
	Append(ds, "s", Run{
		Commit: Commit{ID: "abc", Message: "a <b> & c"},
		Date:   1,
		Tool:   ToolGo,
	}, AppendOptions{})

	out, err := Marshal(ds, FormatJSON)
	require.NoError(t, err)
	assert.Contains(t, string(out), `"message": "a <b> & c"`)
	assert.Contains(t, string(out), `"benches": []`)
}

func TestSuiteOrderPreserved(t *testing.T) {
	input := `{"lastUpdate":1,"repoUrl":"","entries":{"zeta":[],"alpha":[],"mid":[]}}`

	ds, _, err := Parse([]byte(input))
	require.NoError(t, err)
	assert.Equal(t, []string{"zeta", "alpha", "mid"}, ds.SuiteNames())

	out, err := Marshal(ds, FormatJSON)
	require.NoError(t, err)

	zeta := bytes.Index(out, []byte(`"zeta"`))
	alpha := bytes.Index(out, []byte(`"alpha"`))
	mid := bytes.Index(out, []byte(`"mid"`))
	assert.True(t, zeta < alpha && alpha < mid)
}

func TestDuplicateSuiteKeyKeepsLastValue(t *testing.T) {
	input := `{"entries":{"a":[{"commit":{"author":{"name":"x"},"id":"1","message":"","timestamp":"","url":""},"date":1,"tool":"go","benches":[]}],"b":[],"a":[]}}`

	ds, _, err := Parse([]byte(input))
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b"}, ds.SuiteNames())
	assert.Empty(t, ds.Suite("a").Runs)
}

func TestParseVariants(t *testing.T) {
	tests := []struct {
		name   string
		input  string
		format Format
	}{
		{"script", `window.BENCHMARK_DATA = {"entries":{}}`, FormatScript},
		{"script semicolon", "window.BENCHMARK_DATA={\"entries\":{}};\n", FormatScript},
		{"json", `  {"entries":{}}  `, FormatJSON},
		{"null entries", `{"entries":null}`, FormatJSON},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, format, err := Parse([]byte(tt.input))
			require.NoError(t, err)
			assert.Equal(t, tt.format, format)
		})
	}
}

func TestParseMalformed(t *testing.T) {
	inputs := []string{
		"",
		"window.BENCHMARK_DATA",
		"window.BENCHMARK_DATA {}",
		"[1,2,3]",
		`{"entries": {"a": 3}}`,
		`{"entries": {}} {"entries": {}}`,
		`{"entries": {`,
	}

	for _, in := range inputs {
		_, _, err := Parse([]byte(in))
		assert.ErrorIs(t, err, ErrMalformed, "input %q", in)
	}
}

func TestParseRejectsNonNumericValues(t *testing.T) {
	tests := []struct {
		name  string
		bench string
	}{
		{"string", `{"name": "a", "value": "16988", "unit": "mana"}`},
		{"null", `{"name": "a", "value": null, "unit": "mana"}`},
		{"missing", `{"name": "a", "unit": "mana"}`},
		{"bool", `{"name": "a", "value": true, "unit": "mana"}`},
		{"object", `{"name": "a", "value": {}, "unit": "mana"}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			in := `window.BENCHMARK_DATA = {"entries": {"s": [{"commit": {"id": "abc"}, ` +
				`"date": 1, "tool": "customSmallerIsBetter", "benches": [` + tt.bench + `]}]}}`

			_, _, err := Parse([]byte(in))
			assert.ErrorIs(t, err, ErrMalformed)
			assert.ErrorIs(t, err, ErrBadValue)
		})
	}
}

func TestParseKeepsNumberLiterals(t *testing.T) {
	in := `{"entries": {"s": [{"commit": {"id": "abc"}, "date": 1, ` +
		`"tool": "customSmallerIsBetter", "benches": [` +
		`{"name": "a", "value": -0.5e3, "unit": "ms"}, {"name": "b", "value": 16988, "unit": "mana"}]}]}}`

	ds, _, err := Parse([]byte(in))
	require.NoError(t, err)

	run := ds.Suite("s").Latest()
	assert.Equal(t, "-0.5e3", run.Find("a").Value.String())
	assert.Equal(t, "16988", run.Find("b").Value.String())
}

func TestMarshalRejectsMissingValue(t *testing.T) {
	ds := &Dataset{Entries: Suites{{Name: "s", Runs: []Run{{
		Commit:  Commit{ID: "abc"},
		Date:    1,
		Tool:    ToolCustomSmallerIsBetter,
		Benches: []Measurement{{Name: "a", Unit: UnitMana}},
	}}}}}

	_, err := Marshal(ds, FormatScript)
	assert.ErrorIs(t, err, ErrBadValue)
}
