package harness

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"
	"time"

	"github.com/weiihann/simbench/dataset"
)

const waitDelay = 2 * time.Second

// RunConfig holds parameters for a single benchmark execution.
type RunConfig struct {
	// Dir is the working directory of the command.
	Dir string
	// OutputPath is where the command should write its results. Empty
	// means a temporary file that is removed afterwards.
	OutputPath string
	Timeout    time.Duration
}

// Runner launches a benchmark command.
type Runner struct {
	Name    string
	Command string
	Args    []string
	Env     []string
	Logger  *slog.Logger
}

// NewRunner creates a Runner for the named benchmark suite. Env is
// appended to the inherited environment.
func NewRunner(
	name, command string,
	args, env []string,
	logger *slog.Logger,
) *Runner {
	return &Runner{
		Name:    name,
		Command: command,
		Args:    args,
		Env:     env,
		Logger:  logger.With(slog.String("suite", name)),
	}
}

// Run executes the benchmark command and returns the parsed results. The
// command may either write its results to the file named by
// BENCH_JSON_OUTPUT or print them to stdout.
func (r *Runner) Run(ctx context.Context, cfg RunConfig) (*Result, error) {
	if cfg.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, cfg.Timeout)
		defer cancel()
	}

	outPath := cfg.OutputPath
	if outPath == "" {
		dir, err := os.MkdirTemp("", "simbench-*")
		if err != nil {
			return nil, fmt.Errorf("create temp dir: %w", err)
		}
		defer os.RemoveAll(dir)

		outPath = filepath.Join(dir, "results.json")
	} else if err := os.Remove(outPath); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("clean output %s: %w", outPath, err)
	}

	cmd := exec.CommandContext(ctx, r.Command, r.Args...)
	cmd.Dir = cfg.Dir
	cmd.WaitDelay = waitDelay
	cmd.Env = append(os.Environ(), r.Env...)
	cmd.Env = append(cmd.Env, OutputEnv+"="+outPath)

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	r.Logger.Info("starting benchmark",
		slog.String("command", r.Command),
		slog.String("output", outPath),
	)

	start := time.Now()

	if err := cmd.Run(); err != nil {
		return nil, fmt.Errorf(
			"benchmark %s failed: %w\nstderr: %s",
			r.Name, err, stderr.String(),
		)
	}

	elapsed := time.Since(start)

	src, err := resultSource(outPath, &stdout)
	if err != nil {
		return nil, err
	}
	defer src.Close()

	benches, err := ParseBenches(src)
	if err != nil {
		return nil, fmt.Errorf(
			"parse %s output: %w\nstdout: %s",
			r.Name, err, stdout.String(),
		)
	}

	r.Logger.Info("benchmark finished",
		slog.Duration("wall_time", elapsed),
		slog.Int("benches", len(benches)),
	)

	return &Result{Benches: benches, Elapsed: elapsed}, nil
}

func resultSource(path string, stdout *bytes.Buffer) (io.ReadCloser, error) {
	f, err := os.Open(path)
	if err == nil {
		return f, nil
	}
	if !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("open results %s: %w", path, err)
	}

	return io.NopCloser(stdout), nil
}

// ParseBenches decodes a JSON array of custom benchmark results, the format
// produced for the customSmallerIsBetter and customBiggerIsBetter tools.
// Every value must be a JSON number.
func ParseBenches(r io.Reader) ([]dataset.Measurement, error) {
	var benches []dataset.Measurement
	if err := json.NewDecoder(r).Decode(&benches); err != nil {
		return nil, fmt.Errorf("decode JSON: %w", err)
	}

	for i, b := range benches {
		if b.Name == "" {
			return nil, fmt.Errorf("result %d: missing name", i)
		}
		if b.Unit == "" {
			return nil, fmt.Errorf("result %q: missing unit", b.Name)
		}
		if _, err := b.Float(); err != nil {
			return nil, fmt.Errorf("result %d: %w", i, err)
		}
	}

	if benches == nil {
		benches = []dataset.Measurement{}
	}

	return benches, nil
}
