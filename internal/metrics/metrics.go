package metrics

import (
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const (
	metricPrefix = "demandflex_"

	ResultSuccess = "success"
	ResultError   = "error"
)

var (
	registerOnce sync.Once

	solveTotal   *prometheus.CounterVec
	solveLatency *prometheus.HistogramVec
	solveNodes   *prometheus.HistogramVec

	runTotal *prometheus.CounterVec

	objectiveDKK   *prometheus.GaugeVec
	batterySizeKWh *prometheus.GaugeVec

	exportTotal *prometheus.CounterVec
)

// Init registers the optimiser metrics on the default registry.
func Init() {
	registerOnce.Do(func() {
		solveTotal = prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: metricPrefix + "solve_total",
				Help: "Total model solves by variant and result",
			},
			[]string{"variant", "result"},
		)
		solveLatency = prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    metricPrefix + "solve_latency_seconds",
				Help:    "Model build and solve latency in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"variant"},
		)
		solveNodes = prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    metricPrefix + "solve_nodes",
				Help:    "LP relaxations solved per model",
				Buckets: prometheus.ExponentialBuckets(1, 4, 8),
			},
			[]string{"variant"},
		)

		runTotal = prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: metricPrefix + "scenario_runs_total",
				Help: "Total scenario runs by result",
			},
			[]string{"result"},
		)

		objectiveDKK = prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: metricPrefix + "objective_dkk",
				Help: "Objective of the last solve per scenario and variant",
			},
			[]string{"scenario", "variant"},
		)
		batterySizeKWh = prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: metricPrefix + "optimal_battery_size_kwh",
				Help: "Optimal battery size of the last investment solve per scenario",
			},
			[]string{"scenario"},
		)

		exportTotal = prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: metricPrefix + "export_total",
				Help: "Total report exports by format and result",
			},
			[]string{"format", "result"},
		)

		prometheus.MustRegister(
			solveTotal,
			solveLatency,
			solveNodes,
			runTotal,
			objectiveDKK,
			batterySizeKWh,
			exportTotal,
		)
	})
}

func resultOf(err error) string {
	if err != nil {
		return ResultError
	}
	return ResultSuccess
}

// ObserveSolve records one solve. nodes is ignored for failed solves.
func ObserveSolve(variant string, nodes int, duration time.Duration, err error) {
	if variant == "" {
		variant = "unknown"
	}
	if solveTotal != nil {
		solveTotal.WithLabelValues(variant, resultOf(err)).Inc()
	}
	if solveLatency != nil {
		solveLatency.WithLabelValues(variant).Observe(duration.Seconds())
	}
	if err == nil && solveNodes != nil {
		solveNodes.WithLabelValues(variant).Observe(float64(nodes))
	}
}

// IncRun counts one scenario run.
func IncRun(err error) {
	if runTotal != nil {
		runTotal.WithLabelValues(resultOf(err)).Inc()
	}
}

// SetObjective records the latest objective of a scenario.
func SetObjective(scenario, variant string, value float64) {
	if objectiveDKK != nil {
		objectiveDKK.WithLabelValues(scenario, variant).Set(value)
	}
}

// SetBatterySize records the latest investment decision of a scenario.
func SetBatterySize(scenario string, kwh float64) {
	if batterySizeKWh != nil {
		batterySizeKWh.WithLabelValues(scenario).Set(kwh)
	}
}

// IncExport counts one report export.
func IncExport(format string, err error) {
	if format == "" {
		format = "unknown"
	}
	if exportTotal != nil {
		exportTotal.WithLabelValues(format, resultOf(err)).Inc()
	}
}
