package observability

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const metricsNamespace = "saferoute"

// Metrics holds the application's Prometheus collectors. A nil *Metrics is
// valid and records nothing, which keeps tests free of registry setup.
type Metrics struct {
	registry *prometheus.Registry

	HTTPRequestsTotal   *prometheus.CounterVec
	HTTPRequestDuration *prometheus.HistogramVec
	ReportsSubmitted    *prometheus.CounterVec
	HelpfulMarks        *prometheus.CounterVec
	ModerationActions   *prometheus.CounterVec
	RateLimited         prometheus.Counter
	MapClients          prometheus.Gauge
}

// NewMetrics registers all collectors on a fresh registry, plus the Go and
// process collectors.
func NewMetrics() *Metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(prometheus.NewGoCollector(), prometheus.NewProcessCollector(prometheus.ProcessCollectorOpts{}))
	f := promauto.With(reg)
	return &Metrics{
		registry: reg,
		HTTPRequestsTotal: f.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: metricsNamespace,
				Subsystem: "http",
				Name:      "requests_total",
				Help:      "HTTP requests by route, method and status",
			},
			[]string{"route", "method", "status"},
		),
		HTTPRequestDuration: f.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: metricsNamespace,
				Subsystem: "http",
				Name:      "request_duration_seconds",
				Help:      "HTTP request latency by route",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"route", "method"},
		),
		ReportsSubmitted: f.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: metricsNamespace,
				Name:      "reports_submitted_total",
				Help:      "Incident reports submitted by category and severity",
			},
			[]string{"category", "severity"},
		),
		HelpfulMarks: f.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: metricsNamespace,
				Name:      "helpful_marks_total",
				Help:      "Helpful mark attempts by outcome (created, duplicate)",
			},
			[]string{"outcome"},
		),
		ModerationActions: f.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: metricsNamespace,
				Name:      "moderation_actions_total",
				Help:      "Admin moderation actions by resource and action",
			},
			[]string{"resource", "action"},
		),
		RateLimited: f.NewCounter(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "rate_limited_total",
			Help:      "Requests rejected by the rate limiter",
		}),
		MapClients: f.NewGauge(prometheus.GaugeOpts{
			Namespace: metricsNamespace,
			Name:      "map_clients",
			Help:      "Connected live map websocket clients",
		}),
	}
}

func (m *Metrics) ReportSubmitted(category, severity string) {
	if m == nil {
		return
	}
	m.ReportsSubmitted.WithLabelValues(category, severity).Inc()
}

func (m *Metrics) HelpfulMarked(created bool) {
	if m == nil {
		return
	}
	outcome := "duplicate"
	if created {
		outcome = "created"
	}
	m.HelpfulMarks.WithLabelValues(outcome).Inc()
}

func (m *Metrics) Moderated(resource, action string, n int64) {
	if m == nil || n <= 0 {
		return
	}
	m.ModerationActions.WithLabelValues(resource, action).Add(float64(n))
}

func (m *Metrics) RateLimitHit() {
	if m == nil {
		return
	}
	m.RateLimited.Inc()
}

func (m *Metrics) SetMapClients(n int) {
	if m == nil {
		return
	}
	m.MapClients.Set(float64(n))
}

// Middleware records request count and latency keyed by the matched route
// template, so ids do not explode label cardinality.
func (m *Metrics) Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		if m == nil {
			c.Next()
			return
		}
		start := time.Now()
		c.Next()
		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		m.HTTPRequestsTotal.WithLabelValues(route, c.Request.Method, strconv.Itoa(c.Writer.Status())).Inc()
		m.HTTPRequestDuration.WithLabelValues(route, c.Request.Method).Observe(time.Since(start).Seconds())
	}
}

// Handler serves the registry in the Prometheus text format.
func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return promhttp.Handler()
	}
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}
