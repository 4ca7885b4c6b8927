package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds the export engine collectors. A nil *Metrics records nothing.
type Metrics struct {
	batches          *prometheus.CounterVec
	itemsProcessed   *prometheus.CounterVec
	recordsSkipped   *prometheus.CounterVec
	writerFallbacks  *prometheus.CounterVec
	formatsCompleted *prometheus.CounterVec
	jobs             *prometheus.CounterVec
	batchDuration    *prometheus.HistogramVec
}

// New registers the collectors with reg.
func New(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		batches: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "storexport_batches_total",
				Help: "Total number of processed batches",
			},
			[]string{"kind", "format"},
		),

		itemsProcessed: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "storexport_items_processed_total",
				Help: "Total number of identifiers attempted by batches",
			},
			[]string{"kind", "format"},
		),

		recordsSkipped: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "storexport_records_skipped_total",
				Help: "Total number of records skipped because they could not be loaded",
			},
			[]string{"kind"},
		),

		writerFallbacks: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "storexport_writer_fallbacks_total",
				Help: "Total number of formats degraded to CSV content",
			},
			[]string{"format"},
		),

		formatsCompleted: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "storexport_formats_completed_total",
				Help: "Total number of finalized output files",
			},
			[]string{"format"},
		),

		jobs: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "storexport_jobs_total",
				Help: "Total number of jobs reaching a terminal state",
			},
			[]string{"kind", "state"},
		),

		batchDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "storexport_batch_duration_seconds",
				Help:    "Duration of one batch",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"kind", "format"},
		),
	}
}

// ObserveBatch records one batch of attempted identifiers.
func (m *Metrics) ObserveBatch(kind, format string, attempted, skipped int, d time.Duration) {
	if m == nil {
		return
	}
	m.batches.WithLabelValues(kind, format).Inc()
	m.itemsProcessed.WithLabelValues(kind, format).Add(float64(attempted))
	if skipped > 0 {
		m.recordsSkipped.WithLabelValues(kind).Add(float64(skipped))
	}
	m.batchDuration.WithLabelValues(kind, format).Observe(d.Seconds())
}

func (m *Metrics) WriterFallback(format string) {
	if m == nil {
		return
	}
	m.writerFallbacks.WithLabelValues(format).Inc()
}

func (m *Metrics) FormatCompleted(format string) {
	if m == nil {
		return
	}
	m.formatsCompleted.WithLabelValues(format).Inc()
}

// JobFinished records a job reaching state.
func (m *Metrics) JobFinished(kind, state string) {
	if m == nil {
		return
	}
	m.jobs.WithLabelValues(kind, state).Inc()
}
