package statereader

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics observes flush behavior. Implementations must be safe for
// concurrent use; ObserveFlush is called once per Flush call that actually
// performed a round trip (not for no-op flushes on an empty queue).
type Metrics interface {
	// ObserveFlush records one flush's latency, how many tags it carried,
	// and its outcome ("ok", "transport", "envelope", or "routing").
	ObserveFlush(elapsed time.Duration, numTags int, outcome string)
}

// NoopMetrics discards all observations. Used when a Reader is constructed
// without WithMetrics.
type NoopMetrics struct{}

// ObserveFlush implements Metrics.
func (NoopMetrics) ObserveFlush(time.Duration, int, string) {}

// PromMetrics records flush observations to Prometheus. Construct one per
// process (it registers collectors against reg) and share it across every
// Reader.
type PromMetrics struct {
	latency    *prometheus.HistogramVec
	tagsPerOp  *prometheus.HistogramVec
	flushTotal *prometheus.CounterVec
}

// NewPromMetrics builds a PromMetrics and registers its collectors with reg.
func NewPromMetrics(reg prometheus.Registerer) *PromMetrics {
	m := &PromMetrics{
		latency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "fluxstate",
			Subsystem: "statereader",
			Name:      "flush_latency_seconds",
			Help:      "Latency of state-reader flush round trips, by outcome.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"outcome"}),
		tagsPerOp: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "fluxstate",
			Subsystem: "statereader",
			Name:      "flush_tags",
			Help:      "Number of tags carried by a single flush round trip.",
			Buckets:   []float64{1, 2, 4, 8, 16, 32, 64, 128, 256},
		}, []string{"outcome"}),
		flushTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "fluxstate",
			Subsystem: "statereader",
			Name:      "flush_total",
			Help:      "Total flush round trips, by outcome.",
		}, []string{"outcome"}),
	}
	reg.MustRegister(m.latency, m.tagsPerOp, m.flushTotal)
	return m
}

// ObserveFlush implements Metrics.
func (m *PromMetrics) ObserveFlush(elapsed time.Duration, numTags int, outcome string) {
	m.latency.WithLabelValues(outcome).Observe(elapsed.Seconds())
	m.tagsPerOp.WithLabelValues(outcome).Observe(float64(numTags))
	m.flushTotal.WithLabelValues(outcome).Inc()
}
