package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/jrsteele09/enertrack-console/session"
	"github.com/jrsteele09/enertrack-console/transport"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const Namespace = "enertrack"

// Session collects client-side session metrics.
type Session struct {
	Logins          prometheus.Counter
	Logouts         *prometheus.CounterVec
	Refreshes       *prometheus.CounterVec
	RefreshDuration prometheus.Histogram
	Retries         *prometheus.CounterVec
}

var (
	_ session.Observer   = (*Session)(nil)
	_ transport.Observer = (*Session)(nil)
)

// NewSession creates the session collectors and registers them on reg.
func NewSession(reg prometheus.Registerer) *Session {
	m := &Session{
		Logins: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: Namespace,
			Subsystem: "session",
			Name:      "logins_total",
			Help:      "Number of successful logins",
		}),
		Logouts: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: Namespace,
			Subsystem: "session",
			Name:      "logouts_total",
			Help:      "Number of logouts by reason",
		}, []string{"reason"}),
		Refreshes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: Namespace,
			Subsystem: "session",
			Name:      "refreshes_total",
			Help:      "Number of access token refreshes by outcome",
		}, []string{"outcome"}),
		RefreshDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: Namespace,
			Subsystem: "session",
			Name:      "refresh_duration_seconds",
			Help:      "Duration of access token refreshes in seconds",
			Buckets:   prometheus.DefBuckets,
		}),
		Retries: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: Namespace,
			Subsystem: "transport",
			Name:      "retries_total",
			Help:      "Number of requests that hit a 401 and triggered a refresh, by outcome",
		}, []string{"outcome"}),
	}

	reg.MustRegister(m.Logins, m.Logouts, m.Refreshes, m.RefreshDuration, m.Retries)
	return m
}

func (m *Session) LoggedIn() {
	m.Logins.Inc()
}

func (m *Session) LoggedOut(reason session.LogoutReason) {
	m.Logouts.WithLabelValues(string(reason)).Inc()
}

func (m *Session) RefreshCompleted(success bool, d time.Duration) {
	m.Refreshes.WithLabelValues(outcome(success)).Inc()
	m.RefreshDuration.Observe(d.Seconds())
}

func (m *Session) RequestRetried(replayed bool) {
	m.Retries.WithLabelValues(outcome(replayed)).Inc()
}

func outcome(success bool) string {
	if success {
		return "success"
	}
	return "failure"
}

// HTTP collects server-side request metrics.
type HTTP struct {
	RequestCount    *prometheus.CounterVec
	RequestDuration *prometheus.HistogramVec
}

func NewHTTP(reg prometheus.Registerer, service string) *HTTP {
	m := &HTTP{
		RequestCount: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: Namespace,
			Subsystem: service,
			Name:      "requests_total",
			Help:      "Total number of HTTP requests",
		}, []string{"method", "route", "status"}),
		RequestDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: Namespace,
			Subsystem: service,
			Name:      "request_duration_seconds",
			Help:      "Duration of HTTP requests in seconds",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method", "route"}),
	}

	reg.MustRegister(m.RequestCount, m.RequestDuration)
	return m
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

// Middleware records every request under route, the mux pattern it was
// registered with, so path parameters do not explode label cardinality.
func (m *HTTP) Middleware(route string) func(http.HandlerFunc) http.HandlerFunc {
	return func(next http.HandlerFunc) http.HandlerFunc {
		return func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
			next(rec, r)

			m.RequestCount.WithLabelValues(r.Method, route, strconv.Itoa(rec.status)).Inc()
			m.RequestDuration.WithLabelValues(r.Method, route).Observe(time.Since(start).Seconds())
		}
	}
}

// Handler serves the metrics gathered by g.
func Handler(g prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(g, promhttp.HandlerOpts{})
}
