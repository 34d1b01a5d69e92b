package dataset

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseName(t *testing.T) {
	n, err := ParseName("Token contract tests/Token/constructor/0/totalInstructionsExecuted")
	require.NoError(t, err)

	assert.Equal(t, Name{
		Group:    "Token contract tests",
		Contract: "Token",
		Method:   "constructor",
		Case:     0,
		Metric:   "totalInstructionsExecuted",
	}, n)
	assert.Equal(t, "Token contract tests/Token/constructor/0/totalInstructionsExecuted", n.String())
	assert.Equal(t, "Token contract tests/Token/constructor/0", n.Series())
}

func TestParseNameGroupWithSlash(t *testing.T) {
	n, err := ParseName("AVM/public/AMM/swap/3/manaUsed")
	require.NoError(t, err)

	assert.Equal(t, "AVM/public", n.Group)
	assert.Equal(t, "AMM", n.Contract)
	assert.Equal(t, 3, n.Case)
}

func TestParseNameErrors(t *testing.T) {
	for _, in := range []string{
		"",
		"just a name",
		"a/b/c/d",
		"g/Token/constructor/x/metric",
		"g/Token/constructor/-1/metric",
		"g/Token/constructor/+1/metric",
		"g/Token/constructor/01/metric",
		"g/Token/constructor/ 1/metric",
		"g/Token//0/metric",
		"/Token/constructor/0/metric",
	} {
		_, err := ParseName(in)
		assert.ErrorIs(t, err, ErrBadName, "input %q", in)
	}
}

func TestParseNameRoundTrips(t *testing.T) {
	for _, in := range []string{
		"g/Token/constructor/0/metric",
		"g/Token/constructor/10/metric",
		"a/b/Token/transfer/123/manaUsed",
	} {
		n, err := ParseName(in)
		require.NoError(t, err, in)
		assert.Equal(t, in, n.String())
	}
}

func TestCommitMatches(t *testing.T) {
	c := Commit{ID: "897c49b6c3a0d428173275628f1e50fbdad8e42b"}

	assert.True(t, c.Matches("897c49b6c3a0d428173275628f1e50fbdad8e42b"))
	assert.True(t, c.Matches("897c49b"))
	assert.False(t, c.Matches("897c4"))
	assert.False(t, c.Matches("deadbeef"))
	assert.Equal(t, "897c49b", c.Short())
}

func TestParseTool(t *testing.T) {
	for _, tool := range KnownTools() {
		got, err := ParseTool(string(tool))
		require.NoError(t, err)
		assert.Equal(t, tool, got)
	}

	_, err := ParseTool("nope")
	assert.Error(t, err)

	assert.True(t, ToolCustomBiggerIsBetter.BiggerIsBetter())
	assert.True(t, ToolPytest.BiggerIsBetter())
	assert.False(t, ToolCustomSmallerIsBetter.BiggerIsBetter())
	assert.False(t, ToolGo.BiggerIsBetter())
}

func TestNewMeasurementFormatting(t *testing.T) {
	assert.Equal(t, "16988", NewMeasurement("x", 16988, UnitInstructions).Value.String())
	assert.Equal(t, "39.5", NewMeasurement("x", 39.5, UnitMilliseconds).Value.String())
	assert.Equal(t, "0.001", NewMeasurement("x", 0.001, UnitMilliseconds).Value.String())
}
