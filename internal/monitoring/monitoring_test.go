package monitoring

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/trace/noop"
)

func TestMetrics(t *testing.T) {
	m := NewMetrics()

	m.Navigation(ResultCommitted)
	m.Navigation(ResultCommitted)
	m.Navigation(ResultRejected)
	m.ResolveError()
	m.RenderError()
	m.ObserveRender(3 * time.Millisecond)
	m.SetLiveViews(4)

	assert.Equal(t, 2.0, testutil.ToFloat64(m.Navigations.WithLabelValues(ResultCommitted)))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.Navigations.WithLabelValues(ResultRejected)))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.ResolveErrors))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.RenderErrors))
	assert.Equal(t, 4.0, testutil.ToFloat64(m.LiveViews))
	assert.Equal(t, 1, testutil.CollectAndCount(m.RenderDuration))

	// a second set of collectors registers without conflicts
	other := NewMetrics()
	assert.Equal(t, 0.0, testutil.ToFloat64(other.ResolveErrors))
}

func TestNilMetrics(t *testing.T) {
	var m *Metrics
	assert.NotPanics(t, func() {
		m.Navigation(ResultFailed)
		m.ResolveError()
		m.RenderError()
		m.ObserveRender(time.Second)
		m.SetLiveViews(1)
	})
}

func TestMetricsHandler(t *testing.T) {
	m := NewMetrics()
	m.Navigation(ResultUnchanged)

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `viewnav_navigations_total{result="unchanged"} 1`)
	assert.Contains(t, rec.Body.String(), "viewnav_render_duration_seconds")
}

func TestSpans(t *testing.T) {
	tracer := noop.NewTracerProvider().Tracer(TracerName)

	ctx, span := StartSpan(context.Background(), tracer, "navigate", "/home")
	require.NotNil(t, ctx)
	assert.NotPanics(t, func() { EndSpan(span, errors.New("boom")) })

	_, span = StartSpan(context.Background(), nil, "render", "/home")
	assert.NotPanics(t, func() { EndSpan(span, nil) })
}

func TestHealthMonitor(t *testing.T) {
	healthy := NewHealthCheckFunc("router", true, func(ctx context.Context) HealthCheck {
		return HealthCheck{Status: HealthStatusHealthy}
	})
	degraded := NewHealthCheckFunc("view", false, func(ctx context.Context) HealthCheck {
		return HealthCheck{Status: HealthStatusUnhealthy, Message: "no view"}
	})

	hm := NewHealthMonitor(nil)
	hm.RegisterCheck(healthy)
	hm.RegisterCheck(degraded)

	resp := hm.Check(context.Background())
	assert.Equal(t, HealthStatusDegraded, resp.Status)
	require.Len(t, resp.Checks, 2)
	assert.Equal(t, "router", resp.Checks[0].Name)
	assert.True(t, resp.Checks[0].Critical)
	assert.Equal(t, "no view", resp.Checks[1].Message)

	hm.RegisterCheck(NewHealthCheckFunc("router", true, func(ctx context.Context) HealthCheck {
		return HealthCheck{Status: HealthStatusUnhealthy}
	}))

	rec := httptest.NewRecorder()
	hm.HTTPHandler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)

	var body HealthResponse
	require.NoError(t, json.NewDecoder(strings.NewReader(rec.Body.String())).Decode(&body))
	assert.Equal(t, HealthStatusUnhealthy, body.Status)
}
