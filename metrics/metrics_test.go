package metrics_test

import (
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/jrsteele09/enertrack-console/metrics"
	"github.com/jrsteele09/enertrack-console/session"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/require"
)

func TestSession_Observer(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := metrics.NewSession(reg)

	m.LoggedIn()
	m.LoggedIn()
	m.LoggedOut(session.LogoutManual)
	m.LoggedOut(session.LogoutRefreshFailed)
	m.LoggedOut(session.LogoutRefreshFailed)
	m.RefreshCompleted(true, 150*time.Millisecond)
	m.RefreshCompleted(false, 2*time.Second)
	m.RequestRetried(true)

	require.Equal(t, 2.0, testutil.ToFloat64(m.Logins))
	require.Equal(t, 1.0, testutil.ToFloat64(m.Logouts.WithLabelValues("manual")))
	require.Equal(t, 2.0, testutil.ToFloat64(m.Logouts.WithLabelValues("refresh_failed")))
	require.Equal(t, 0.0, testutil.ToFloat64(m.Logouts.WithLabelValues("external")))
	require.Equal(t, 1.0, testutil.ToFloat64(m.Refreshes.WithLabelValues("success")))
	require.Equal(t, 1.0, testutil.ToFloat64(m.Refreshes.WithLabelValues("failure")))
	require.Equal(t, 1.0, testutil.ToFloat64(m.Retries.WithLabelValues("success")))
	require.Equal(t, 1, testutil.CollectAndCount(m.RefreshDuration))
}

func TestSession_DoubleRegistrationPanics(t *testing.T) {
	reg := prometheus.NewRegistry()
	metrics.NewSession(reg)
	require.Panics(t, func() { metrics.NewSession(reg) })
}

func TestHTTP_Middleware(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := metrics.NewHTTP(reg, "mockbackend")

	h := m.Middleware("/core/sites/{id}/")(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	})
	h(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/core/sites/4/", nil))
	h(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/core/sites/5/", nil))

	require.Equal(t, 2.0, testutil.ToFloat64(m.RequestCount.WithLabelValues("GET", "/core/sites/{id}/", "404")))

	rec := httptest.NewRecorder()
	metrics.Handler(reg).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	body, err := io.ReadAll(rec.Body)
	require.NoError(t, err)
	require.True(t, strings.Contains(string(body), "enertrack_mockbackend_requests_total"))
}
