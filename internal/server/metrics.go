package server

import (
	"strconv"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"github.com/ppiankov/glosa/internal/model"
	"github.com/ppiankov/glosa/internal/review"
)

// Metrics holds the server's Prometheus collectors on a private registry
type Metrics struct {
	Registry *prometheus.Registry

	requests         *prometheus.CounterVec
	requestDuration  *prometheus.HistogramVec
	analyses         *prometheus.CounterVec
	analysisDuration prometheus.Histogram
	decisions        *prometheus.CounterVec
	complianceIndex  prometheus.Gauge
}

// NewMetrics creates and registers the collectors
func NewMetrics() *Metrics {
	m := &Metrics{
		Registry: prometheus.NewRegistry(),
		requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "glosa",
			Name:      "http_requests_total",
			Help:      "HTTP requests by route, method and status code.",
		}, []string{"method", "route", "code"}),
		requestDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "glosa",
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request latency by route.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"route"}),
		analyses: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "glosa",
			Name:      "analysis_requests_total",
			Help:      "Review requests by outcome.",
		}, []string{"outcome"}),
		analysisDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "glosa",
			Name:      "analysis_duration_seconds",
			Help:      "Time spent waiting on the review service.",
			Buckets:   []float64{0.5, 1, 2, 5, 10, 20, 30, 60, 120},
		}),
		decisions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "glosa",
			Name:      "suggestion_decisions_total",
			Help:      "Accepted and rejected suggestions by kind.",
		}, []string{"kind", "status"}),
		complianceIndex: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "glosa",
			Name:      "compliance_index",
			Help:      "Compliance index of the active chapter at the last score request.",
		}),
	}

	m.Registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		m.requests,
		m.requestDuration,
		m.analyses,
		m.analysisDuration,
		m.decisions,
		m.complianceIndex,
	)
	return m
}

// Observer records coordinator outcomes
func (m *Metrics) Observer() review.Observer {
	return func(outcome review.Outcome, elapsed time.Duration) {
		m.analyses.WithLabelValues(string(outcome)).Inc()
		if elapsed > 0 {
			m.analysisDuration.Observe(elapsed.Seconds())
		}
	}
}

// Middleware counts requests and their latency by route template. Errors
// are rendered here so the recorded code is the one sent.
func (m *Metrics) Middleware() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			start := time.Now()
			if err := next(c); err != nil {
				c.Error(err)
			}

			code := c.Response().Status
			route := c.Path()
			if route == "" {
				route = "unmatched"
			}
			m.requests.WithLabelValues(c.Request().Method, route, strconv.Itoa(code)).Inc()
			m.requestDuration.WithLabelValues(route).Observe(time.Since(start).Seconds())
			return nil
		}
	}
}

func (m *Metrics) recordDecision(sg model.Suggestion) {
	m.decisions.WithLabelValues(string(sg.Kind), string(sg.Status)).Inc()
}

func (m *Metrics) recordScore(score model.Score) {
	m.complianceIndex.Set(float64(score.Index))
}
