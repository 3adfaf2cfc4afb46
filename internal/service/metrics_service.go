package service

import (
	"fmt"
	"net/http"
	"runtime"
	"sync/atomic"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Weekly report run outcomes.
const (
	RunOutcomeSent     = "sent"
	RunOutcomeNoLesson = "no_lesson"
	RunOutcomeDryRun   = "dry_run"
	RunOutcomeFailed   = "failed"
	RunOutcomeLocked   = "locked"
)

// MetricsService encapsulates Prometheus instrumentation for the report service.
// All methods are safe on a nil receiver.
type MetricsService struct {
	registry        *prometheus.Registry
	handler         http.Handler
	requestDuration *prometheus.HistogramVec
	requestTotal    *prometheus.CounterVec
	cacheHitRatio   prometheus.Gauge
	cacheHits       prometheus.Counter
	cacheMisses     prometheus.Counter
	reportRuns      *prometheus.CounterVec
	reportBuild     prometheus.Histogram
	emails          *prometheus.CounterVec
	lookupFailures  *prometheus.CounterVec

	cacheHitCount  uint64
	cacheMissCount uint64
}

// NewMetricsService registers the service collectors on a private registry.
func NewMetricsService() *MetricsService {
	registry := prometheus.NewRegistry()

	requestDuration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "http_request_duration_seconds",
		Help:    "Duration of HTTP requests in seconds",
		Buckets: prometheus.DefBuckets,
	}, []string{"method", "path", "status"})

	requestTotal := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "http_requests_total",
		Help: "Total number of HTTP requests",
	}, []string{"method", "path", "status"})

	cacheHitRatio := prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "cache_hit_ratio",
		Help: "Ratio of cache hits to total cache lookups",
	})

	cacheHits := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "cache_hits_total",
		Help: "Total cache hits",
	})

	cacheMisses := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "cache_misses_total",
		Help: "Total cache misses",
	})

	reportRuns := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "weekly_report_runs_total",
		Help: "Weekly report runs by outcome",
	}, []string{"outcome"})

	reportBuild := prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "weekly_report_build_seconds",
		Help:    "Time spent building a weekly report",
		Buckets: prometheus.DefBuckets,
	})

	emails := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "weekly_report_emails_total",
		Help: "Report emails by delivery result",
	}, []string{"result"})

	lookupFailures := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "weekly_report_lookup_failures_total",
		Help: "Submission lookups that failed and were counted as not submitted",
	}, []string{"kind"})

	goroutines := prometheus.NewGaugeFunc(prometheus.GaugeOpts{
		Name: "goroutines_total",
		Help: "Total number of goroutines",
	}, func() float64 {
		return float64(runtime.NumGoroutine())
	})

	registry.MustRegister(requestDuration, requestTotal, cacheHitRatio, cacheHits, cacheMisses, reportRuns, reportBuild, emails, lookupFailures, goroutines)

	return &MetricsService{
		registry:        registry,
		handler:         promhttp.HandlerFor(registry, promhttp.HandlerOpts{}),
		requestDuration: requestDuration,
		requestTotal:    requestTotal,
		cacheHitRatio:   cacheHitRatio,
		cacheHits:       cacheHits,
		cacheMisses:     cacheMisses,
		reportRuns:      reportRuns,
		reportBuild:     reportBuild,
		emails:          emails,
		lookupFailures:  lookupFailures,
	}
}

// Handler exposes the Prometheus HTTP handler.
func (m *MetricsService) Handler() http.Handler {
	if m == nil {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusServiceUnavailable)
		})
	}
	return m.handler
}

// Registry returns the underlying registry.
func (m *MetricsService) Registry() *prometheus.Registry {
	if m == nil {
		return nil
	}
	return m.registry
}

// ObserveHTTPRequest records request metrics.
func (m *MetricsService) ObserveHTTPRequest(method, path string, status int, duration time.Duration) {
	if m == nil {
		return
	}
	labelStatus := fmt.Sprintf("%d", status)
	m.requestDuration.WithLabelValues(method, path, labelStatus).Observe(duration.Seconds())
	m.requestTotal.WithLabelValues(method, path, labelStatus).Inc()
}

// RecordCacheOperation records cache hit/miss metrics and updates hit ratio.
func (m *MetricsService) RecordCacheOperation(hit bool) {
	if m == nil {
		return
	}
	if hit {
		m.cacheHits.Inc()
		atomic.AddUint64(&m.cacheHitCount, 1)
	} else {
		m.cacheMisses.Inc()
		atomic.AddUint64(&m.cacheMissCount, 1)
	}
	hits := atomic.LoadUint64(&m.cacheHitCount)
	total := hits + atomic.LoadUint64(&m.cacheMissCount)
	if total > 0 {
		m.cacheHitRatio.Set(float64(hits) / float64(total))
	}
}

// RecordRun counts a weekly report run by outcome.
func (m *MetricsService) RecordRun(outcome string) {
	if m == nil {
		return
	}
	m.reportRuns.WithLabelValues(outcome).Inc()
}

// ObserveBuild records build duration.
func (m *MetricsService) ObserveBuild(duration time.Duration) {
	if m == nil {
		return
	}
	m.reportBuild.Observe(duration.Seconds())
}

// RecordEmail counts a delivery attempt.
func (m *MetricsService) RecordEmail(success bool) {
	if m == nil {
		return
	}
	result := "failed"
	if success {
		result = "sent"
	}
	m.emails.WithLabelValues(result).Inc()
}

// RecordLookupFailure counts an absorbed submission lookup failure.
func (m *MetricsService) RecordLookupFailure(kind string) {
	if m == nil {
		return
	}
	m.lookupFailures.WithLabelValues(kind).Inc()
}
