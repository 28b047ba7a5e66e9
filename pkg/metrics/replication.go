package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// ReplicationMetrics records replication outcomes and media copy volume.
type ReplicationMetrics struct {
	duration    *prometheus.HistogramVec
	products    *prometheus.CounterVec
	mediaCopies *prometheus.CounterVec
	bulkBatches prometheus.Counter
}

// NewReplicationMetrics registers the replication metrics on the provided
// registerer. A nil registerer yields a no-op recorder, which tests rely on.
func NewReplicationMetrics(reg prometheus.Registerer) *ReplicationMetrics {
	if reg == nil {
		return &ReplicationMetrics{}
	}
	duration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "replication_duration_seconds",
		Help:    "Duration of single-product replications in seconds.",
		Buckets: prometheus.DefBuckets,
	}, []string{"action"})
	products := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "replication_products_total",
		Help: "Product replications by action and outcome.",
	}, []string{"action", "outcome"})
	mediaCopies := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "replication_media_copies_total",
		Help: "Media replications by outcome.",
	}, []string{"outcome"})
	bulkBatches := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "replication_bulk_batches_total",
		Help: "Bulk batches processed.",
	})
	reg.MustRegister(duration, products, mediaCopies, bulkBatches)
	return &ReplicationMetrics{
		duration:    duration,
		products:    products,
		mediaCopies: mediaCopies,
		bulkBatches: bulkBatches,
	}
}

// ObserveDuration records how long a replication took for the given action.
func (r *ReplicationMetrics) ObserveDuration(action string, duration time.Duration) {
	if r == nil || r.duration == nil {
		return
	}
	r.duration.WithLabelValues(normalizeLabel(action)).Observe(duration.Seconds())
}

// IncProduct counts one replication attempt by action and outcome.
func (r *ReplicationMetrics) IncProduct(action, outcome string) {
	if r == nil || r.products == nil {
		return
	}
	r.products.WithLabelValues(normalizeLabel(action), normalizeLabel(outcome)).Inc()
}

// IncMediaCopy counts one media replication by outcome.
func (r *ReplicationMetrics) IncMediaCopy(outcome string) {
	if r == nil || r.mediaCopies == nil {
		return
	}
	r.mediaCopies.WithLabelValues(normalizeLabel(outcome)).Inc()
}

// IncBulkBatch counts one processed bulk batch.
func (r *ReplicationMetrics) IncBulkBatch() {
	if r == nil || r.bulkBatches == nil {
		return
	}
	r.bulkBatches.Inc()
}

func normalizeLabel(value string) string {
	if value == "" {
		return "unknown"
	}
	return value
}
