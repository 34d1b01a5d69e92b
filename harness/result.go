// Package harness runs a benchmark command and collects the custom
// benchmark results it emits.
package harness

import (
	"time"

	"github.com/weiihann/simbench/dataset"
)

// OutputEnv names the environment variable through which the benchmark
// command is told where to write its results.
const OutputEnv = "BENCH_JSON_OUTPUT"

// Result holds the structured output from a benchmark command.
type Result struct {
	Benches []dataset.Measurement
	Elapsed time.Duration
}
