package dataset

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validRun(id string, date int64, benches ...Measurement) Run {
	return Run{
		Commit:  Commit{Author: Person{Name: "dev"}, ID: id},
		Date:    date,
		Tool:    ToolCustomSmallerIsBetter,
		Benches: benches,
	}
}

func rules(issues []Issue) []Rule {
	out := make([]Rule, 0, len(issues))
	for _, is := range issues {
		out = append(out, is.Rule)
	}

	return out
}

func TestValidateFixtureIsClean(t *testing.T) {
	ds, _, err := Parse(loadFixture(t))
	require.NoError(t, err)

	assert.Empty(t, Validate(ds, ValidateOptions{StrictDates: true}))
	assert.NoError(t, ds.Check(ValidateOptions{}))
}

func TestValidateRules(t *testing.T) {
	tests := []struct {
		name string
		run  Run
		want []Rule
	}{
		{
			name: "non-positive date",
			run:  validRun("a", 0),
			want: []Rule{RuleDate},
		},
		{
			name: "empty commit id",
			run:  validRun("", 10),
			want: []Rule{RuleCommitID},
		},
		{
			name: "duplicate name",
			run: validRun("a", 10,
				NewMeasurement("x", 1, UnitMana),
				NewMeasurement("x", 2, UnitMana),
			),
			want: []Rule{RuleDuplicateName},
		},
		{
			name: "unknown unit",
			run:  validRun("a", 10, NewMeasurement("x", 1, "ns")),
			want: []Rule{RuleUnit},
		},
		{
			name: "negative value",
			run:  validRun("a", 10, NewMeasurement("x", -1, UnitMilliseconds)),
			want: []Rule{RuleValue},
		},
		{
			name: "non-numeric value",
			run: validRun("a", 10, Measurement{
				Name: "x", Value: "fast", Unit: UnitMilliseconds,
			}),
			want: []Rule{RuleValue},
		},
		{
			name: "empty name",
			run:  validRun("a", 10, NewMeasurement("", 1, UnitMicroseconds)),
			want: []Rule{RuleEmptyName},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ds := &Dataset{Entries: Suites{{Name: "s", Runs: []Run{tt.run}}}}

			issues := Validate(ds, ValidateOptions{})
			assert.Equal(t, tt.want, rules(issues))

			err := ds.Check(ValidateOptions{})
			assert.ErrorIs(t, err, ErrInvalid)
		})
	}
}

func TestValidateUnknownTool(t *testing.T) {
	run := validRun("a", 10)
	run.Tool = "mystery"

	ds := &Dataset{Entries: Suites{{Name: "s", Runs: []Run{run}}}}
	assert.Equal(t, []Rule{RuleTool}, rules(Validate(ds, ValidateOptions{})))
}

func TestValidateDateOrder(t *testing.T) {
	ds := &Dataset{Entries: Suites{{Name: "s", Runs: []Run{
		validRun("a", 20),
		validRun("b", 10),
	}}}}

	issues := Validate(ds, ValidateOptions{})
	require.Len(t, issues, 1)
	assert.Equal(t, RuleDateOrder, issues[0].Rule)
	assert.Equal(t, SeverityWarning, issues[0].Severity)
	assert.Equal(t, "b", issues[0].Commit)
	assert.NoError(t, ds.Check(ValidateOptions{}))

	assert.ErrorIs(t, ds.Check(ValidateOptions{StrictDates: true}), ErrInvalid)
}

func TestValidateCustomUnits(t *testing.T) {
	ds := &Dataset{Entries: Suites{{Name: "s", Runs: []Run{
		validRun("a", 10, NewMeasurement("x", 1, "ns")),
	}}}}

	assert.Empty(t, Validate(ds, ValidateOptions{Units: []string{"ns"}}))
}

func TestIssueString(t *testing.T) {
	is := Issue{
		Suite:    "s",
		Run:      3,
		Commit:   "abc",
		Bench:    "x",
		Rule:     RuleUnit,
		Severity: SeverityError,
		Message:  "bad",
	}

	assert.Equal(t, "error: s[3] (abc) x: unit: bad", is.String())
}
