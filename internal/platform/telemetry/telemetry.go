// Package telemetry exposes Prometheus metrics for the directory: HTTP
// server metrics, doctor fetches, filter evaluations and ledger mutations.
//
// All recording methods are safe to call on a nil *Metrics, so components can
// be constructed without metrics in tests.
package telemetry

import (
	"strconv"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "docfinder"

var defaultDurationBuckets = []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10}

// Metrics owns a private registry and the collectors registered on it.
type Metrics struct {
	registry *prometheus.Registry

	httpRequests  *prometheus.CounterVec
	httpDuration  *prometheus.HistogramVec
	activeReqs    prometheus.Gauge
	fetches       *prometheus.CounterVec
	doctorsLoaded prometheus.Gauge
	filterEvals   *prometheus.CounterVec
	filterResults prometheus.Histogram
	ledgerOps     *prometheus.CounterVec
	ledgerSize    prometheus.Gauge
}

// NewMetrics creates and registers every collector, plus the Go runtime and
// process collectors.
func NewMetrics() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		httpRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "Total HTTP requests by method, route and status code.",
		}, []string{"method", "route", "status_code"}),
		httpDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "Duration of HTTP requests in seconds.",
			Buckets:   defaultDurationBuckets,
		}, []string{"method", "route"}),
		activeReqs: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "http_active_requests",
			Help:      "Number of in-flight HTTP requests.",
		}),
		fetches: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "doctor_fetches_total",
			Help:      "Doctor list fetches by result.",
		}, []string{"result"}),
		doctorsLoaded: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "doctors_loaded",
			Help:      "Number of doctors in the last successful fetch.",
		}),
		filterEvals: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "filter_evaluations_total",
			Help:      "Filter pipeline evaluations by sort key.",
		}, []string{"sort"}),
		filterResults: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "filter_result_size",
			Help:      "Number of doctors returned per filter evaluation.",
			Buckets:   prometheus.ExponentialBuckets(1, 2, 10),
		}),
		ledgerOps: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "ledger_operations_total",
			Help:      "Appointment ledger operations by kind and result.",
		}, []string{"op", "result"}),
		ledgerSize: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "ledger_entries",
			Help:      "Number of booked appointments after the last ledger write.",
		}),
	}

	m.registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		m.httpRequests, m.httpDuration, m.activeReqs,
		m.fetches, m.doctorsLoaded,
		m.filterEvals, m.filterResults,
		m.ledgerOps, m.ledgerSize,
	)
	return m
}

// Registry returns the underlying registry.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Handler serves the registry in Prometheus exposition format.
func (m *Metrics) Handler() echo.HandlerFunc {
	return echo.WrapHandler(promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{}))
}

// Middleware records request counts, durations and in-flight requests. The
// route label uses the registered route pattern, not the raw path.
func (m *Metrics) Middleware() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if m == nil {
				return next(c)
			}
			m.activeReqs.Inc()
			start := time.Now()

			err := next(c)

			m.activeReqs.Dec()
			route := c.Path()
			if route == "" {
				route = c.Request().URL.Path
			}
			status := c.Response().Status
			if he, ok := err.(*echo.HTTPError); ok {
				status = he.Code
			}
			method := c.Request().Method
			m.httpRequests.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
			m.httpDuration.WithLabelValues(method, route).Observe(time.Since(start).Seconds())
			return err
		}
	}
}

// ObserveFetch counts one doctor list fetch.
func (m *Metrics) ObserveFetch(ok bool) {
	if m == nil {
		return
	}
	result := "success"
	if !ok {
		result = "failure"
	}
	m.fetches.WithLabelValues(result).Inc()
}

// SetDoctorsLoaded records the size of the loaded doctor list.
func (m *Metrics) SetDoctorsLoaded(n int) {
	if m == nil {
		return
	}
	m.doctorsLoaded.Set(float64(n))
}

// ObserveFilter counts one filter evaluation and its result size.
func (m *Metrics) ObserveFilter(sortBy string, results int) {
	if m == nil {
		return
	}
	if sortBy == "" {
		sortBy = "none"
	}
	m.filterEvals.WithLabelValues(sortBy).Inc()
	m.filterResults.Observe(float64(results))
}

// ObserveLedger counts one ledger operation. size is the entry count after
// the operation and is ignored when err is non-nil.
func (m *Metrics) ObserveLedger(op string, size int, err error) {
	if m == nil {
		return
	}
	if err != nil {
		m.ledgerOps.WithLabelValues(op, "error").Inc()
		return
	}
	m.ledgerOps.WithLabelValues(op, "ok").Inc()
	m.ledgerSize.Set(float64(size))
}
