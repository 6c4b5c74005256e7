package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"CandleLedger/internal/model"
)

// Registry holds the updater's Prometheus metrics.
type Registry struct {
	reg *prometheus.Registry

	Runs          *prometheus.CounterVec
	LastSuccess   prometheus.Gauge
	FetchDuration *prometheus.HistogramVec
	FetchErrors   *prometheus.CounterVec
	LedgerSize    prometheus.Gauge
}

// NewRegistry creates and registers all metrics on a private registry.
func NewRegistry() *Registry {
	r := &Registry{
		reg: prometheus.NewRegistry(),
		Runs: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "candle_ledger_runs_total",
				Help: "Pipeline runs by outcome",
			},
			[]string{"outcome"},
		),
		LastSuccess: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "candle_ledger_last_success_timestamp_seconds",
				Help: "Unix time of the last run that wrote or skipped a record",
			},
		),
		FetchDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "candle_ledger_fetch_duration_seconds",
				Help:    "Provider call latency including retries and cushion waits",
				Buckets: []float64{0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30, 60},
			},
			[]string{"endpoint"},
		),
		FetchErrors: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "candle_ledger_fetch_errors_total",
				Help: "Provider calls that failed after retries",
			},
			[]string{"endpoint"},
		),
		LedgerSize: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "candle_ledger_records",
				Help: "Records in the ledger after the last write",
			},
		),
	}
	r.reg.MustRegister(r.Runs, r.LastSuccess, r.FetchDuration, r.FetchErrors, r.LedgerSize)
	return r
}

// ObserveFetch implements collector.Observer.
func (r *Registry) ObserveFetch(endpoint string, took time.Duration, err error) {
	r.FetchDuration.WithLabelValues(endpoint).Observe(took.Seconds())
	if err != nil {
		r.FetchErrors.WithLabelValues(endpoint).Inc()
	}
}

// ObserveRun records a finished pipeline run.
func (r *Registry) ObserveRun(res *model.RunResult) {
	r.Runs.WithLabelValues(string(res.Outcome)).Inc()
	if res.Outcome != model.OutcomeFailed {
		r.LastSuccess.Set(float64(res.FinishedAt.Unix()))
	}
}

// SetLedgerSize records the number of ledger entries.
func (r *Registry) SetLedgerSize(n int) {
	r.LedgerSize.Set(float64(n))
}

// Handler serves the registry in the Prometheus text format.
func (r *Registry) Handler() http.Handler {
	return promhttp.HandlerFor(r.reg, promhttp.HandlerOpts{})
}
