package dataset

import (
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

// ErrBadName is returned by ParseName for names that do not follow the
// simulation benchmark layout.
var ErrBadName = errors.New("bad measurement name")

var caseIndex = regexp.MustCompile(`^(0|[1-9][0-9]*)$`)

// Name is the parsed form of a simulation measurement name:
//
//	<Group>/<Contract>/<Method>/<Case>/<Metric>
//
// for example "Token contract tests/Token/constructor/0/totalInstructionsExecuted".
type Name struct {
	Group    string
	Contract string
	Method   string
	Case     int
	Metric   string
}

// ParseName splits a measurement name into its parts. The group may itself
// contain slashes; the last four segments are always contract, method, case
// index and metric.
func ParseName(s string) (Name, error) {
	parts := strings.Split(s, "/")
	if len(parts) < 5 {
		return Name{}, fmt.Errorf("%w: %q has %d segments, want at least 5",
			ErrBadName, s, len(parts))
	}

	n := len(parts)
	for _, p := range parts[n-4:] {
		if p == "" {
			return Name{}, fmt.Errorf("%w: %q has an empty segment", ErrBadName, s)
		}
	}

	caseIdx, err := parseCase(parts[n-2])
	if err != nil {
		return Name{}, fmt.Errorf("%w: %q: case index %q is not a non-negative integer",
			ErrBadName, s, parts[n-2])
	}

	group := strings.Join(parts[:n-4], "/")
	if group == "" {
		return Name{}, fmt.Errorf("%w: %q has an empty group", ErrBadName, s)
	}

	return Name{
		Group:    group,
		Contract: parts[n-4],
		Method:   parts[n-3],
		Case:     caseIdx,
		Metric:   parts[n-1],
	}, nil
}

// parseCase accepts only the canonical decimal form, so that a parsed name
// renders back to the same string.
func parseCase(s string) (int, error) {
	if !caseIndex.MatchString(s) {
		return 0, fmt.Errorf("not canonical")
	}

	return strconv.Atoi(s)
}

func (n Name) String() string {
	return fmt.Sprintf("%s/%s/%s/%d/%s",
		n.Group, n.Contract, n.Method, n.Case, n.Metric)
}

// Series returns the name without its metric, which groups the measurements
// of one test case together.
func (n Name) Series() string {
	return fmt.Sprintf("%s/%s/%s/%d", n.Group, n.Contract, n.Method, n.Case)
}
