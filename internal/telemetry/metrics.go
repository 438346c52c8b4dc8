package telemetry

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/push"
)

// Recorder receives pipeline measurements. Pipelines accept a nil Recorder
// and fall back to Nop.
type Recorder interface {
	CritiqueVerdict(verdict string)
	EnrichmentOutcome(outcome string)
	SearchTimeout()
	RetryVariantMismatch()
	ObserveDuration(pipeline string, d time.Duration)
}

// OrNop returns r, or a no-op recorder when r is nil.
func OrNop(r Recorder) Recorder {
	if r == nil {
		return nopRecorder{}
	}
	return r
}

type nopRecorder struct{}

func (nopRecorder) CritiqueVerdict(string)                {}
func (nopRecorder) EnrichmentOutcome(string)              {}
func (nopRecorder) SearchTimeout()                        {}
func (nopRecorder) RetryVariantMismatch()                 {}
func (nopRecorder) ObserveDuration(string, time.Duration) {}

// Metrics is a Recorder backed by its own prometheus registry.
type Metrics struct {
	Registry *prometheus.Registry

	critique         *prometheus.CounterVec
	enrichment       *prometheus.CounterVec
	searchTimeouts   prometheus.Counter
	variantMismatch  prometheus.Counter
	pipelineDuration *prometheus.HistogramVec
}

// NewMetrics creates and registers the pipeline collectors.
func NewMetrics() *Metrics {
	m := &Metrics{
		Registry: prometheus.NewRegistry(),
		critique: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "lecsum_quiz_critique_total",
				Help: "Quiz critiques by verdict",
			},
			[]string{"verdict"},
		),
		enrichment: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "lecsum_grading_enrichment_total",
				Help: "Enrichment tasks by outcome",
			},
			[]string{"outcome"},
		),
		searchTimeouts: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "lecsum_search_timeouts_total",
			Help: "Web searches abandoned at the enrichment timeout",
		}),
		variantMismatch: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "lecsum_retry_variant_mismatch_total",
			Help: "Retry generations that returned an unexpected number of variants",
		}),
		pipelineDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "lecsum_pipeline_duration_seconds",
				Help:    "Duration of pipeline runs",
				Buckets: []float64{0.5, 1, 2, 5, 10, 30, 60},
			},
			[]string{"pipeline"},
		),
	}
	m.Registry.MustRegister(m.critique, m.enrichment, m.searchTimeouts, m.variantMismatch, m.pipelineDuration)
	return m
}

func (m *Metrics) CritiqueVerdict(verdict string) {
	m.critique.WithLabelValues(verdict).Inc()
}

func (m *Metrics) EnrichmentOutcome(outcome string) {
	m.enrichment.WithLabelValues(outcome).Inc()
}

func (m *Metrics) SearchTimeout() {
	m.searchTimeouts.Inc()
}

func (m *Metrics) RetryVariantMismatch() {
	m.variantMismatch.Inc()
}

func (m *Metrics) ObserveDuration(pipeline string, d time.Duration) {
	m.pipelineDuration.WithLabelValues(pipeline).Observe(d.Seconds())
}

// Push sends the registry to a Pushgateway under the given job name.
func (m *Metrics) Push(url, job string) error {
	return push.New(url, job).Gatherer(m.Registry).Push()
}
