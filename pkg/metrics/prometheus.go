package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Recorder implements domain.repository.Metrics using Prometheus.
type Recorder struct {
	ticksTotal    *prometheus.CounterVec
	candlesClosed *prometheus.CounterVec
	sessionsTotal *prometheus.CounterVec
	intentsTotal  *prometheus.CounterVec
	errorsTotal   *prometheus.CounterVec
	gapPct        *prometheus.GaugeVec
	latency       *prometheus.HistogramVec
}

// New creates a new Prometheus metrics recorder.
func New() *Recorder {
	return &Recorder{
		ticksTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "pivotpipe_ticks_total",
				Help: "Total number of ticks ingested",
			},
			[]string{"symbol"},
		),
		candlesClosed: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "pivotpipe_candles_closed_total",
				Help: "Total number of candles closed",
			},
			[]string{"symbol"},
		),
		sessionsTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "pivotpipe_session_transitions_total",
				Help: "Total number of session transitions",
			},
			[]string{"transition"},
		),
		intentsTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "pivotpipe_intents_total",
				Help: "Total number of intents published",
			},
			[]string{"strategy", "symbol"},
		),
		errorsTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "pivotpipe_errors_total",
				Help: "Total number of errors encountered",
			},
			[]string{"type"},
		),
		gapPct: promauto.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "pivotpipe_gap_pct",
				Help: "Session-open gap percentage per symbol",
			},
			[]string{"symbol"},
		),
		latency: promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "pivotpipe_operation_duration_seconds",
				Help:    "Duration of operations in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"operation"},
		),
	}
}

// RecordTick records one ingested tick.
func (r *Recorder) RecordTick(symbol string) {
	r.ticksTotal.WithLabelValues(symbol).Inc()
}

// RecordCandleClosed records one closed candle.
func (r *Recorder) RecordCandleClosed(symbol string) {
	r.candlesClosed.WithLabelValues(symbol).Inc()
}

// RecordSession records a session transition ("started" or "ended").
func (r *Recorder) RecordSession(transition string) {
	r.sessionsTotal.WithLabelValues(transition).Inc()
}

// RecordIntent records one published intent.
func (r *Recorder) RecordIntent(strategy, symbol string) {
	r.intentsTotal.WithLabelValues(strategy, symbol).Inc()
}

// RecordError records an error occurrence.
func (r *Recorder) RecordError(kind string) {
	r.errorsTotal.WithLabelValues(kind).Inc()
}

// RecordGap records the session-open gap for a symbol.
func (r *Recorder) RecordGap(symbol string, gapPct float64) {
	r.gapPct.WithLabelValues(symbol).Set(gapPct)
}

// RecordLatency records operation latency in seconds.
func (r *Recorder) RecordLatency(op string, seconds float64) {
	r.latency.WithLabelValues(op).Observe(seconds)
}
