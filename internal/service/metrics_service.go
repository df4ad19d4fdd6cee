package service

import (
	"net/http"
	"runtime"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// MetricsService owns the Prometheus registry and the domain counters:
// request timings, outbound email attempts, submission outcomes, and
// cache behaviour. All methods are nil-receiver safe so metrics can be
// disabled by simply not constructing the service.
type MetricsService struct {
	registry *prometheus.Registry
	handler  http.Handler

	httpDuration *prometheus.HistogramVec
	httpTotal    *prometheus.CounterVec
	emails       *prometheus.CounterVec
	submissions  *prometheus.CounterVec
	cacheReads   prometheus.Histogram
	cacheWrites  prometheus.Histogram
	cacheHits    prometheus.Counter
	cacheMisses  prometheus.Counter
}

// NewMetricsService builds and registers the collectors.
func NewMetricsService() *MetricsService {
	m := &MetricsService{
		registry: prometheus.NewRegistry(),
		httpDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "Duration of HTTP requests in seconds",
			Buckets: prometheus.DefBuckets,
		}, []string{"method", "path", "status"}),
		httpTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests",
		}, []string{"method", "path", "status"}),
		emails: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "emails_total",
			Help: "Outbound email attempts by type and delivery status",
		}, []string{"type", "status"}),
		submissions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "submissions_total",
			Help: "Evaluator submission attempts by outcome",
		}, []string{"outcome"}),
		cacheReads: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "cache_read_seconds",
			Help:    "Latency of cache reads",
			Buckets: prometheus.DefBuckets,
		}),
		cacheWrites: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "cache_write_seconds",
			Help:    "Latency of cache writes",
			Buckets: prometheus.DefBuckets,
		}),
		cacheHits: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "cache_hits_total",
			Help: "Total cache hits",
		}),
		cacheMisses: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "cache_misses_total",
			Help: "Total cache misses",
		}),
	}

	goroutines := prometheus.NewGaugeFunc(prometheus.GaugeOpts{
		Name: "goroutines_total",
		Help: "Current number of goroutines",
	}, func() float64 { return float64(runtime.NumGoroutine()) })

	m.registry.MustRegister(
		m.httpDuration, m.httpTotal, m.emails, m.submissions,
		m.cacheReads, m.cacheWrites, m.cacheHits, m.cacheMisses,
		goroutines,
	)
	m.handler = promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
	return m
}

// Handler exposes the scrape endpoint.
func (m *MetricsService) Handler() http.Handler {
	if m == nil {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusServiceUnavailable)
		})
	}
	return m.handler
}

// ObserveHTTPRequest records one served request.
func (m *MetricsService) ObserveHTTPRequest(method, path string, status int, duration time.Duration) {
	if m == nil {
		return
	}
	code := strconv.Itoa(status)
	m.httpDuration.WithLabelValues(method, path, code).Observe(duration.Seconds())
	m.httpTotal.WithLabelValues(method, path, code).Inc()
}

// RecordEmail counts one outbound email attempt.
func (m *MetricsService) RecordEmail(emailType, status string) {
	if m == nil {
		return
	}
	m.emails.WithLabelValues(emailType, status).Inc()
}

// RecordSubmission counts one submission attempt by outcome.
func (m *MetricsService) RecordSubmission(outcome string) {
	if m == nil {
		return
	}
	m.submissions.WithLabelValues(outcome).Inc()
}

// RecordCacheOperation records one cache read and its hit/miss result.
func (m *MetricsService) RecordCacheOperation(hit bool, duration time.Duration) {
	if m == nil {
		return
	}
	m.cacheReads.Observe(duration.Seconds())
	if hit {
		m.cacheHits.Inc()
	} else {
		m.cacheMisses.Inc()
	}
}

// ObserveCacheWrite records one cache write.
func (m *MetricsService) ObserveCacheWrite(duration time.Duration) {
	if m == nil {
		return
	}
	m.cacheWrites.Observe(duration.Seconds())
}
