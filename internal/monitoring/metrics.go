// Package monitoring records navigation metrics, traces navigation phases and
// reports component health.
package monitoring

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Navigation results.
const (
	ResultCommitted = "committed"
	ResultRejected  = "rejected"
	ResultUnchanged = "unchanged"
	ResultFailed    = "failed"
)

// Metrics holds the navigation collectors of one application.
type Metrics struct {
	registry *prometheus.Registry

	Navigations    *prometheus.CounterVec
	ResolveErrors  prometheus.Counter
	RenderErrors   prometheus.Counter
	RenderDuration prometheus.Histogram
	LiveViews      prometheus.Gauge
}

// NewMetrics creates collectors on a private registry, so several
// applications in one process never collide.
func NewMetrics() *Metrics {
	reg := prometheus.NewRegistry()
	factory := promauto.With(reg)

	return &Metrics{
		registry: reg,
		Navigations: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "viewnav_navigations_total",
			Help: "Navigation attempts by result.",
		}, []string{"result"}),
		ResolveErrors: factory.NewCounter(prometheus.CounterOpts{
			Name: "viewnav_resolve_errors_total",
			Help: "Pages replaced by a placeholder because they could not be resolved.",
		}),
		RenderErrors: factory.NewCounter(prometheus.CounterOpts{
			Name: "viewnav_render_errors_total",
			Help: "Render stages that failed.",
		}),
		RenderDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "viewnav_render_duration_seconds",
			Help:    "Duration of render stages.",
			Buckets: []float64{0.0005, 0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1},
		}),
		LiveViews: factory.NewGauge(prometheus.GaugeOpts{
			Name: "viewnav_live_views",
			Help: "View instances currently attached to the tree.",
		}),
	}
}

// Registry exposes the underlying registry, mainly for tests.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Navigation counts one navigation outcome.
func (m *Metrics) Navigation(result string) {
	if m == nil {
		return
	}
	m.Navigations.WithLabelValues(result).Inc()
}

// ResolveError counts one placeholder substitution.
func (m *Metrics) ResolveError() {
	if m == nil {
		return
	}
	m.ResolveErrors.Inc()
}

// RenderError counts one failed render stage.
func (m *Metrics) RenderError() {
	if m == nil {
		return
	}
	m.RenderErrors.Inc()
}

// ObserveRender records the duration of a render stage.
func (m *Metrics) ObserveRender(d time.Duration) {
	if m == nil {
		return
	}
	m.RenderDuration.Observe(d.Seconds())
}

// SetLiveViews records the size of the view tree.
func (m *Metrics) SetLiveViews(n int) {
	if m == nil {
		return
	}
	m.LiveViews.Set(float64(n))
}

// Handler serves the collectors in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}
