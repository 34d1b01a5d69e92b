// Package synth generates deterministic synthetic benchmark histories shaped
// like the simulation benchmark data. The output is used for fixtures,
// dashboard previews and index load tests.
package synth

import (
	"encoding/hex"
	"encoding/json"
	"fmt"
	"math"
	mrand "math/rand"
	"strconv"
	"time"

	"github.com/weiihann/simbench/dataset"
)

// Config controls history generation.
type Config struct {
	Suite     string
	RepoURL   string
	Runs      int
	Contracts int
	Methods   int
	Cases     int
	// Drift selects how values move between runs: "uniform" for small
	// symmetric noise, "spiky" for noise plus occasional large jumps.
	Drift    string
	Seed     int64
	Start    time.Time
	Interval time.Duration
}

// Summary contains statistics about the generated history.
type Summary struct {
	Runs         int
	Measurements int
	Benchmarks   int
}

type metric struct {
	name  string
	unit  string
	base  float64
	float bool
}

var metrics = []metric{
	{"totalInstructionsExecuted", dataset.UnitInstructions, 20000, false},
	{"avmSimulationDurationMs", dataset.UnitMilliseconds, 40, true},
	{"manaUsed", dataset.UnitMana, 300000, false},
	{"publicDataInsertionUs", dataset.UnitMicroseconds, 800, false},
}

var contracts = []string{
	"Token", "AMM", "NFT", "Escrow", "Crowdfunding", "Lending", "Router", "Auth",
}

var methods = []string{
	"constructor", "transfer_in_public", "mint_to_public", "burn_public",
	"add_liquidity", "swap_exact_tokens_for_tokens", "remove_liquidity", "claim",
}

var authors = []dataset.Person{
	{Email: "alice@example.com", Name: "Alice", Username: "alice"},
	{Email: "bob@example.com", Name: "Bob", Username: "bob"},
	{Email: "carol@example.com", Name: "Carol", Username: "carol"},
}

// Generator produces deterministic histories from a Config.
type Generator struct {
	cfg Config
	rng *mrand.Rand
}

// NewGenerator creates a Generator from the given Config, filling defaults
// for zero fields.
func NewGenerator(cfg Config) *Generator {
	if cfg.Suite == "" {
		cfg.Suite = dataset.DefaultSuite
	}
	if cfg.Contracts <= 0 {
		cfg.Contracts = 1
	}
	cfg.Contracts = min(cfg.Contracts, len(contracts))
	if cfg.Methods <= 0 {
		cfg.Methods = 1
	}
	cfg.Methods = min(cfg.Methods, len(methods))
	if cfg.Cases <= 0 {
		cfg.Cases = 1
	}
	if cfg.Start.IsZero() {
		cfg.Start = time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	}
	if cfg.Interval <= 0 {
		cfg.Interval = 6 * time.Hour
	}

	return &Generator{
		cfg: cfg,
		rng: mrand.New(mrand.NewSource(cfg.Seed)),
	}
}

// Names returns the measurement names every generated run carries.
func (g *Generator) Names() []string {
	var names []string

	for c := 0; c < g.cfg.Contracts; c++ {
		contract := contracts[c]
		group := contract + " contract tests"

		for m := 0; m < g.cfg.Methods; m++ {
			for k := 0; k < g.cfg.Cases; k++ {
				for _, mt := range metrics {
					names = append(names, dataset.Name{
						Group:    group,
						Contract: contract,
						Method:   methods[m],
						Case:     k,
						Metric:   mt.name,
					}.String())
				}
			}
		}
	}

	return names
}

// Generate builds the dataset.
func (g *Generator) Generate() (*dataset.Dataset, Summary) {
	names := g.Names()

	// Per-benchmark scale so that series differ from each other.
	scale := make([]float64, len(names))
	for i := range scale {
		scale[i] = 0.5 + g.rng.Float64()*1.5
	}

	ds := &dataset.Dataset{}

	var summary Summary
	summary.Benchmarks = len(names)

	for r := 0; r < g.cfg.Runs; r++ {
		date := g.cfg.Start.Add(time.Duration(r) * g.cfg.Interval)

		benches := make([]dataset.Measurement, 0, len(names))
		for i, name := range names {
			mt := metrics[i%len(metrics)]
			scale[i] *= g.drift()

			benches = append(benches, dataset.Measurement{
				Name:  name,
				Value: formatValue(mt, mt.base*scale[i]),
				Unit:  mt.unit,
			})
		}

		dataset.Append(ds, g.cfg.Suite, dataset.Run{
			Commit:  g.commit(r, date),
			Date:    date.UnixMilli(),
			Tool:    dataset.ToolCustomSmallerIsBetter,
			Benches: benches,
		}, dataset.AppendOptions{Now: date, RepoURL: g.cfg.RepoURL})

		summary.Runs++
		summary.Measurements += len(benches)
	}

	return ds, summary
}

func (g *Generator) drift() float64 {
	step := 1 + (g.rng.Float64()-0.5)*0.04

	switch g.cfg.Drift {
	case "spiky":
		if g.rng.Intn(20) == 0 {
			// Regressions are more common than wins of the same size.
			if g.rng.Intn(3) == 0 {
				return step / 1.5
			}

			return step * 1.5
		}

		return step

	default:
		return step
	}
}

func formatValue(mt metric, v float64) json.Number {
	v = math.Max(v, 0)
	if mt.float {
		return json.Number(strconv.FormatFloat(v, 'f', 3, 64))
	}

	return json.Number(strconv.FormatInt(int64(math.Round(v)), 10))
}

func (g *Generator) commit(n int, when time.Time) dataset.Commit {
	var buf [20]byte
	g.rng.Read(buf[:])

	id := hex.EncodeToString(buf[:])

	g.rng.Read(buf[:])
	tree := hex.EncodeToString(buf[:])

	distinct := true
	author := authors[g.rng.Intn(len(authors))]

	c := dataset.Commit{
		Author: author,
		Committer: &dataset.Person{
			Email:    "noreply@github.com",
			Name:     "GitHub",
			Username: "web-flow",
		},
		Distinct:  &distinct,
		ID:        id,
		Message:   fmt.Sprintf("chore: synthetic change #%d", n+1),
		Timestamp: when.Format(time.RFC3339),
		TreeID:    tree,
	}

	if g.cfg.RepoURL != "" {
		c.URL = g.cfg.RepoURL + "/commit/" + id
	}

	return c
}
