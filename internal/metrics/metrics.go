package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
)

// Registry holds all Prometheus metrics for the simulation pipeline.
type Registry struct {
	*prometheus.Registry

	signalsFiltered     prometheus.Counter
	candidatesGenerated *prometheus.CounterVec
	tradesExecuted      prometheus.Counter
	candidatesDropped   prometheus.Counter
	backtestsTotal      *prometheus.CounterVec
	backtestDuration    prometheus.Histogram
	gridCellsTotal      prometheus.Counter
}

// NewRegistry creates a new metrics registry with all metrics registered.
func NewRegistry() *Registry {
	reg := prometheus.NewRegistry()

	// Register Go runtime metrics
	reg.MustRegister(collectors.NewGoCollector())
	reg.MustRegister(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	r := &Registry{
		Registry: reg,

		signalsFiltered: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "stock_signals_filtered_total",
				Help: "Signals discarded before simulation for invalid fields",
			},
		),
		candidatesGenerated: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "stock_candidates_generated_total",
				Help: "Trade candidates produced by entry/exit resolution",
			},
			[]string{"policy"},
		),
		tradesExecuted: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "stock_trades_executed_total",
				Help: "Candidates admitted by the portfolio simulator",
			},
		),
		candidatesDropped: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "stock_candidates_dropped_total",
				Help: "Candidates rejected for capital or slot limits",
			},
		),
		backtestsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "stock_backtests_total",
				Help: "Total number of backtest runs",
			},
			[]string{"status"},
		),
		backtestDuration: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "stock_backtest_duration_seconds",
				Help:    "Backtest run duration in seconds",
				Buckets: []float64{0.1, 0.5, 1, 5, 10, 30, 60, 120},
			},
		),
		gridCellsTotal: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "stock_grid_cells_total",
				Help: "Parameter grid cells evaluated",
			},
		),
	}

	reg.MustRegister(r.signalsFiltered)
	reg.MustRegister(r.candidatesGenerated)
	reg.MustRegister(r.tradesExecuted)
	reg.MustRegister(r.candidatesDropped)
	reg.MustRegister(r.backtestsTotal)
	reg.MustRegister(r.backtestDuration)
	reg.MustRegister(r.gridCellsTotal)

	return r
}

// RecordFilteredSignals counts signals discarded pre-simulation.
func (r *Registry) RecordFilteredSignals(n int) {
	r.signalsFiltered.Add(float64(n))
}

// RecordCandidates counts generated candidates for a policy label.
func (r *Registry) RecordCandidates(policy string, n int) {
	r.candidatesGenerated.WithLabelValues(policy).Add(float64(n))
}

// RecordAdmissions counts admitted and dropped candidates of one replay.
func (r *Registry) RecordAdmissions(admitted, dropped int) {
	r.tradesExecuted.Add(float64(admitted))
	r.candidatesDropped.Add(float64(dropped))
}

// RecordBacktest records a backtest completion.
func (r *Registry) RecordBacktest(status string, duration float64) {
	r.backtestsTotal.WithLabelValues(status).Inc()
	r.backtestDuration.Observe(duration)
}

// RecordGridCell counts one evaluated grid cell.
func (r *Registry) RecordGridCell() {
	r.gridCellsTotal.Inc()
}
