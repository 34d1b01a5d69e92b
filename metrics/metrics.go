// Package metrics exports benchmark runs as Prometheus metrics in the
// node_exporter textfile format.
package metrics

import (
	"fmt"
	"math"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/weiihann/simbench/compare"
	"github.com/weiihann/simbench/dataset"
)

// Exporter holds the gauges for one export. Each Exporter owns its registry
// so repeated exports never collide with the global one.
type Exporter struct {
	registry *prometheus.Registry

	MeasurementValue *prometheus.GaugeVec
	RunTimestamp     *prometheus.GaugeVec
	ChangeRatio      *prometheus.GaugeVec
	Alerts           *prometheus.GaugeVec
}

// NewExporter creates and registers the simbench gauges.
func NewExporter() *Exporter {
	e := &Exporter{registry: prometheus.NewRegistry()}

	e.MeasurementValue = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "simbench_measurement_value",
			Help: "Latest recorded value of a benchmark measurement",
		},
		[]string{"suite", "name", "unit"},
	)

	e.RunTimestamp = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "simbench_run_timestamp_seconds",
			Help: "Unix time at which the run was recorded",
		},
		[]string{"suite", "commit"},
	)

	e.ChangeRatio = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "simbench_change_ratio",
			Help: "Ratio against the previous run (>1 means worse)",
		},
		[]string{"suite", "name"},
	)

	e.Alerts = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "simbench_alerts",
			Help: "Number of measurements above the alert threshold",
		},
		[]string{"suite"},
	)

	e.registry.MustRegister(
		e.MeasurementValue,
		e.RunTimestamp,
		e.ChangeRatio,
		e.Alerts,
	)

	return e
}

// Gatherer exposes the exporter's registry.
func (e *Exporter) Gatherer() prometheus.Gatherer {
	return e.registry
}

// ObserveRun records every measurement of run.
func (e *Exporter) ObserveRun(suite string, run dataset.Run) error {
	for _, m := range run.Benches {
		v, err := m.Float()
		if err != nil {
			return fmt.Errorf("measurement %q: %w", m.Name, err)
		}

		e.MeasurementValue.WithLabelValues(suite, m.Name, m.Unit).Set(v)
	}

	e.RunTimestamp.WithLabelValues(suite, run.Commit.ID).Set(float64(run.Date) / 1000)

	return nil
}

// ObserveChanges records comparison ratios and the number of alerts.
// Changes without a finite ratio are skipped.
func (e *Exporter) ObserveChanges(suite string, changes []compare.Change, threshold float64) {
	for _, c := range changes {
		if c.New() || math.IsNaN(c.Ratio) || math.IsInf(c.Ratio, 0) {
			continue
		}

		e.ChangeRatio.WithLabelValues(suite, c.Name).Set(c.Ratio)
	}

	e.Alerts.WithLabelValues(suite).Set(float64(len(compare.Alerts(changes, threshold))))
}

// WriteTextfile atomically writes all gathered metrics to path.
func (e *Exporter) WriteTextfile(path string) error {
	if err := prometheus.WriteToTextfile(path, e.registry); err != nil {
		return fmt.Errorf("write textfile: %w", err)
	}

	return nil
}

// Export writes curr to a textfile at path, together with its ratios
// against prev and the number of changes above threshold. prev may be nil
// for the first run of a suite.
func Export(path, suite string, curr dataset.Run, prev *dataset.Run, threshold float64) error {
	e := NewExporter()
	if err := e.ObserveRun(suite, curr); err != nil {
		return err
	}

	changes, err := compare.Compare(prev, curr)
	if err != nil {
		return err
	}

	e.ObserveChanges(suite, changes, threshold)

	return e.WriteTextfile(path)
}
