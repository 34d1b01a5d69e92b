package dataset

import (
	"errors"
	"fmt"
	"slices"
)

// ErrInvalid wraps every error returned by Check.
var ErrInvalid = errors.New("invalid benchmark data")

// Severity grades a validation Issue.
type Severity int

const (
	SeverityError Severity = iota
	SeverityWarning
)

func (s Severity) String() string {
	if s == SeverityWarning {
		return "warning"
	}

	return "error"
}

// Rule identifies which check produced an Issue.
type Rule string

const (
	RuleDate          Rule = "date"
	RuleDateOrder     Rule = "date-order"
	RuleCommitID      Rule = "commit-id"
	RuleDuplicateName Rule = "duplicate-name"
	RuleEmptyName     Rule = "empty-name"
	RuleUnit          Rule = "unit"
	RuleValue         Rule = "value"
	RuleTool          Rule = "tool"
)

// Issue is one validation finding.
type Issue struct {
	Suite    string
	Run      int
	Commit   string
	Bench    string
	Rule     Rule
	Severity Severity
	Message  string
}

func (i Issue) String() string {
	loc := fmt.Sprintf("%s[%d]", i.Suite, i.Run)
	if i.Commit != "" {
		loc += " (" + i.Commit + ")"
	}
	if i.Bench != "" {
		loc += " " + i.Bench
	}

	return fmt.Sprintf("%s: %s: %s: %s", i.Severity, loc, i.Rule, i.Message)
}

// ValidateOptions tunes Validate.
type ValidateOptions struct {
	// Units is the accepted unit set. Empty means DefaultUnits.
	Units []string
	// StrictDates reports out-of-order run dates as errors instead of
	// warnings.
	StrictDates bool
}

// Validate checks every suite and run and returns all issues found.
func Validate(ds *Dataset, opts ValidateOptions) []Issue {
	units := opts.Units
	if len(units) == 0 {
		units = DefaultUnits()
	}

	orderSeverity := SeverityWarning
	if opts.StrictDates {
		orderSeverity = SeverityError
	}

	var issues []Issue

	for _, suite := range ds.Entries {
		var prevDate int64

		for idx, run := range suite.Runs {
			at := Issue{Suite: suite.Name, Run: idx, Commit: run.Commit.ID}
			add := func(bench string, rule Rule, sev Severity, format string, args ...any) {
				is := at
				is.Bench = bench
				is.Rule = rule
				is.Severity = sev
				is.Message = fmt.Sprintf(format, args...)
				issues = append(issues, is)
			}

			if run.Commit.ID == "" {
				add("", RuleCommitID, SeverityError, "commit id is empty")
			}

			if run.Date <= 0 {
				add("", RuleDate, SeverityError,
					"date %d is not a positive epoch millisecond value", run.Date)
			} else {
				if run.Date < prevDate {
					add("", RuleDateOrder, orderSeverity,
						"date %d is earlier than the previous run (%d)",
						run.Date, prevDate)
				}
				prevDate = run.Date
			}

			if _, err := ParseTool(string(run.Tool)); err != nil {
				add("", RuleTool, SeverityError, "%v", err)
			}

			seen := make(map[string]struct{}, len(run.Benches))

			for _, m := range run.Benches {
				if m.Name == "" {
					add("", RuleEmptyName, SeverityError, "measurement has no name")
				} else if _, dup := seen[m.Name]; dup {
					add(m.Name, RuleDuplicateName, SeverityError,
						"name appears more than once in the run")
				}
				seen[m.Name] = struct{}{}

				if !slices.Contains(units, m.Unit) {
					add(m.Name, RuleUnit, SeverityError,
						"unit %q is not one of %v", m.Unit, units)
				}

				v, err := m.Float()
				switch {
				case err != nil:
					add(m.Name, RuleValue, SeverityError, "%v", err)
				case v < 0:
					add(m.Name, RuleValue, SeverityError,
						"value %s is negative", m.Value)
				}
			}
		}
	}

	return issues
}

// Check validates ds and returns an error joining every error-severity
// issue. Warnings are ignored.
func (d *Dataset) Check(opts ValidateOptions) error {
	var errs []error

	for _, is := range Validate(d, opts) {
		if is.Severity == SeverityError {
			errs = append(errs, errors.New(is.String()))
		}
	}

	if len(errs) == 0 {
		return nil
	}

	return fmt.Errorf("%w: %w", ErrInvalid, errors.Join(errs...))
}
