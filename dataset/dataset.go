// Package dataset models the benchmark history file consumed by the
// benchmark dashboard: a set of named suites, each an ordered list of runs,
// each run a list of named measurements tied to one commit.
package dataset

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strconv"
)

// DefaultSuite is the suite name used by the simulation benchmark job.
const DefaultSuite = "Public Simulation Benchmarks"

// Measurement units emitted by the simulation benchmarks.
const (
	UnitInstructions = "#instructions"
	UnitMilliseconds = "ms"
	UnitMana         = "mana"
	UnitMicroseconds = "us"
)

// DefaultUnits is the unit set accepted by Validate when no override is given.
func DefaultUnits() []string {
	return []string{
		UnitInstructions, UnitMilliseconds, UnitMana, UnitMicroseconds,
	}
}

// Dataset is the top-level BENCHMARK_DATA object.
type Dataset struct {
	LastUpdate int64  `json:"lastUpdate"`
	RepoURL    string `json:"repoUrl"`
	Entries    Suites `json:"entries"`
}

// Suites is the entries object. It is a slice so that suite order survives a
// load/save cycle.
type Suites []Suite

// Suite is one named list of runs. Runs are kept oldest first.
type Suite struct {
	Name string
	Runs []Run
}

// Run holds the results of one CI execution.
type Run struct {
	Commit  Commit        `json:"commit"`
	Date    int64         `json:"date"`
	Tool    Tool          `json:"tool"`
	Benches []Measurement `json:"benches"`
}

// Commit is the git commit metadata attached to a run. Field order follows
// the GitHub webhook payload so files round-trip unchanged.
type Commit struct {
	Author    Person  `json:"author"`
	Committer *Person `json:"committer,omitempty"`
	Distinct  *bool   `json:"distinct,omitempty"`
	ID        string  `json:"id"`
	Message   string  `json:"message"`
	Timestamp string  `json:"timestamp"`
	TreeID    string  `json:"tree_id,omitempty"`
	URL       string  `json:"url"`
}

// Person identifies a commit author or committer.
type Person struct {
	Email    string `json:"email,omitempty"`
	Name     string `json:"name"`
	Username string `json:"username,omitempty"`
}

// Measurement is a single named sample. Value keeps the literal JSON number
// so that integers are not rewritten as floats on save.
type Measurement struct {
	Name  string      `json:"name"`
	Value json.Number `json:"value"`
	Range string      `json:"range,omitempty"`
	Unit  string      `json:"unit"`
	Extra string      `json:"extra,omitempty"`
}

// NewMeasurement builds a Measurement from a float value, formatting it the
// shortest way that parses back to the same float.
func NewMeasurement(name string, value float64, unit string) Measurement {
	return Measurement{
		Name:  name,
		Value: FormatValue(value),
		Unit:  unit,
	}
}

// FormatValue renders v as a JSON number literal.
func FormatValue(v float64) json.Number {
	return json.Number(strconv.FormatFloat(v, 'f', -1, 64))
}

// Float returns the numeric value of the measurement.
func (m Measurement) Float() (float64, error) {
	v, err := m.Value.Float64()
	if err != nil {
		return 0, fmt.Errorf("measurement %q: bad value %q: %w",
			m.Name, m.Value.String(), err)
	}
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, fmt.Errorf("measurement %q: value %q is not finite",
			m.Name, m.Value.String())
	}

	return v, nil
}

// ErrNoSuite is returned when a named suite is not present.
var ErrNoSuite = errors.New("suite not found")

// Suite returns the named suite, or nil.
func (d *Dataset) Suite(name string) *Suite {
	for i := range d.Entries {
		if d.Entries[i].Name == name {
			return &d.Entries[i]
		}
	}

	return nil
}

// SuiteNames returns suite names in file order.
func (d *Dataset) SuiteNames() []string {
	names := make([]string, 0, len(d.Entries))
	for _, s := range d.Entries {
		names = append(names, s.Name)
	}

	return names
}

// Runs returns the runs of the named suite.
func (d *Dataset) Runs(suite string) ([]Run, error) {
	s := d.Suite(suite)
	if s == nil {
		return nil, fmt.Errorf("%w: %q", ErrNoSuite, suite)
	}

	return s.Runs, nil
}

// RunByCommit returns the latest run in suite recorded for the given commit
// id. A prefix of at least 7 characters is accepted.
func (d *Dataset) RunByCommit(suite, id string) (*Run, error) {
	s := d.Suite(suite)
	if s == nil {
		return nil, fmt.Errorf("%w: %q", ErrNoSuite, suite)
	}

	for i := len(s.Runs) - 1; i >= 0; i-- {
		if s.Runs[i].Commit.Matches(id) {
			return &s.Runs[i], nil
		}
	}

	return nil, fmt.Errorf("no run for commit %s in suite %q", id, suite)
}

// Latest returns the newest run of the suite, or nil when it is empty.
func (s *Suite) Latest() *Run {
	if len(s.Runs) == 0 {
		return nil
	}

	return &s.Runs[len(s.Runs)-1]
}

// Matches reports whether id equals the commit id or is an unambiguous
// abbreviation of it.
func (c Commit) Matches(id string) bool {
	if id == c.ID {
		return true
	}

	return len(id) >= 7 && len(id) < len(c.ID) && c.ID[:len(id)] == id
}

// Short returns the abbreviated commit id used in reports and charts.
func (c Commit) Short() string {
	if len(c.ID) > 7 {
		return c.ID[:7]
	}

	return c.ID
}

// Find returns the measurement with the given name, or nil.
func (r *Run) Find(name string) *Measurement {
	for i := range r.Benches {
		if r.Benches[i].Name == name {
			return &r.Benches[i]
		}
	}

	return nil
}
