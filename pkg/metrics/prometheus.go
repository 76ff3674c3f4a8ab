package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Recorder implements domain.repository.Metrics using Prometheus.
type Recorder struct {
	researchRuns    *prometheus.CounterVec
	confidence      *prometheus.GaugeVec
	alertsTotal     *prometheus.CounterVec
	errorsTotal     *prometheus.CounterVec
	latency         *prometheus.HistogramVec
	liveConnections prometheus.Gauge
}

// New creates a new Prometheus metrics recorder.
func New() *Recorder {
	return &Recorder{
		researchRuns: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "cryptopulse_research_runs_total",
				Help: "Total research runs by user, symbol and resulting signal",
			},
			[]string{"user", "symbol", "signal"},
		),
		confidence: promauto.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "cryptopulse_confidence",
				Help: "Last computed confidence per symbol",
			},
			[]string{"symbol"},
		),
		alertsTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "cryptopulse_alerts_total",
				Help: "Alert delivery attempts by outcome",
			},
			[]string{"outcome"},
		),
		errorsTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "cryptopulse_errors_total",
				Help: "Total number of errors encountered",
			},
			[]string{"type"},
		),
		latency: promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "cryptopulse_operation_duration_seconds",
				Help:    "Duration of operations in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"operation"},
		),
		liveConnections: promauto.NewGauge(
			prometheus.GaugeOpts{
				Name: "cryptopulse_ws_connections",
				Help: "Currently connected WebSocket clients",
			},
		),
	}
}

// RecordResearchRun records one finished research run.
func (r *Recorder) RecordResearchRun(userID, symbol, signal string) {
	r.researchRuns.WithLabelValues(userID, symbol, signal).Inc()
}

// RecordConfidence records the latest confidence for a symbol.
func (r *Recorder) RecordConfidence(symbol string, confidence float64) {
	r.confidence.WithLabelValues(symbol).Set(confidence)
}

// RecordAlert records an alert delivery outcome ("sent" or "failed").
func (r *Recorder) RecordAlert(outcome string) {
	r.alertsTotal.WithLabelValues(outcome).Inc()
}

// RecordError records an error occurrence.
func (r *Recorder) RecordError(kind string) {
	r.errorsTotal.WithLabelValues(kind).Inc()
}

// RecordLatency records operation latency in seconds.
func (r *Recorder) RecordLatency(op string, seconds float64) {
	r.latency.WithLabelValues(op).Observe(seconds)
}

// SetLiveConnections sets the current WebSocket connection count.
func (r *Recorder) SetLiveConnections(n int) {
	r.liveConnections.Set(float64(n))
}
