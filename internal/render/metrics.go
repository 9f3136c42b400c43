package render

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds the Prometheus collectors updated by a Renderer.
type Metrics struct {
	renders  *prometheus.CounterVec
	cache    *prometheus.CounterVec
	failures *prometheus.CounterVec
	duration prometheus.Histogram
}

// NewMetrics creates the renderer collectors and registers them with reg.
// Pass prometheus.DefaultRegisterer to expose them on the default /metrics
// handler, or a fresh registry in tests.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		renders: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "imagefit_renders_total",
			Help: "Images rendered, by fit strategy and output format",
		}, []string{"strategy", "format"}),
		cache: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "imagefit_cache_requests_total",
			Help: "Cache lookups and writes, by result",
		}, []string{"result"}),
		failures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "imagefit_render_failures_total",
			Help: "Failed renders, by reason",
		}, []string{"reason"}),
		duration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "imagefit_render_duration_seconds",
			Help:    "Time spent decoding, fitting and encoding an image",
			Buckets: prometheus.DefBuckets,
		}),
	}

	reg.MustRegister(m.renders, m.cache, m.failures, m.duration)
	return m
}

func (m *Metrics) rendered(strategy, format string, seconds float64) {
	if m == nil {
		return
	}
	m.renders.WithLabelValues(strategy, format).Inc()
	m.duration.Observe(seconds)
}

func (m *Metrics) cacheResult(result string) {
	if m == nil {
		return
	}
	m.cache.WithLabelValues(result).Inc()
}

func (m *Metrics) failed(reason string) {
	if m == nil {
		return
	}
	m.failures.WithLabelValues(reason).Inc()
}
