package dataset

import "fmt"

// Tool names the benchmark output format a run was produced from. It decides
// whether bigger or smaller values are better when runs are compared.
type Tool string

// Tools understood by the benchmark dashboard.
const (
	ToolCargo                 Tool = "cargo"
	ToolGo                    Tool = "go"
	ToolBenchmarkJS           Tool = "benchmarkjs"
	ToolBenchmarkLuau         Tool = "benchmarkluau"
	ToolPytest                Tool = "pytest"
	ToolGoogleCPP             Tool = "googlecpp"
	ToolCatch2                Tool = "catch2"
	ToolJulia                 Tool = "julia"
	ToolJMH                   Tool = "jmh"
	ToolBenchmarkDotNet       Tool = "benchmarkdotnet"
	ToolCustomBiggerIsBetter  Tool = "customBiggerIsBetter"
	ToolCustomSmallerIsBetter Tool = "customSmallerIsBetter"
)

var knownTools = []Tool{
	ToolCargo, ToolGo, ToolBenchmarkJS, ToolBenchmarkLuau, ToolPytest,
	ToolGoogleCPP, ToolCatch2, ToolJulia, ToolJMH, ToolBenchmarkDotNet,
	ToolCustomBiggerIsBetter, ToolCustomSmallerIsBetter,
}

// KnownTools returns every supported tool name.
func KnownTools() []Tool {
	out := make([]Tool, len(knownTools))
	copy(out, knownTools)

	return out
}

// ParseTool validates a tool name.
func ParseTool(s string) (Tool, error) {
	for _, t := range knownTools {
		if string(t) == s {
			return t, nil
		}
	}

	return "", fmt.Errorf("unknown tool %q", s)
}

// BiggerIsBetter reports whether larger values are improvements.
func (t Tool) BiggerIsBetter() bool {
	switch t {
	case ToolBenchmarkJS, ToolPytest, ToolCustomBiggerIsBetter:
		return true
	default:
		return false
	}
}
