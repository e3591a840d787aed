package service

import (
	"fmt"
	"net/http"
	"runtime"
	"sync/atomic"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/noah-isme/sma-eca-api/internal/models"
)

// MetricsService encapsulates Prometheus instrumentation and provides lightweight snapshots for API consumption.
type MetricsService struct {
	registry        *prometheus.Registry
	handler         http.Handler
	requestDuration *prometheus.HistogramVec
	requestTotal    *prometheus.CounterVec
	cacheLatency    prometheus.Observer
	cacheWrite      prometheus.Observer
	cacheHitRatio   prometheus.Gauge
	cacheHits       prometheus.Counter
	cacheMisses     prometheus.Counter

	allocationRuns     *prometheus.CounterVec
	allocationDuration *prometheus.HistogramVec
	allocationsByType  *prometheus.CounterVec
	allocationWaitlist prometheus.Counter
	activityCancels    prometheus.Counter
	iterationCapHits   prometheus.Counter
	allocationUnplaced prometheus.Counter

	cacheHitCount        uint64
	cacheMissCount       uint64
	requestCount         uint64
	requestDurationTotal uint64
	runCount             uint64
	runFailedCount       uint64
	runDurationTotal     uint64
}

// NewMetricsService registers core Prometheus collectors.
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

	cacheLatency := prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "cache_latency_seconds",
		Help:    "Latency for cache operations",
		Buckets: prometheus.DefBuckets,
	})

	cacheWrite := prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "cache_write_seconds",
		Help:    "Latency for cache set operations",
		Buckets: prometheus.DefBuckets,
	})

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

	allocationRuns := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "eca_allocation_runs_total",
		Help: "Allocation runs by selection mode and outcome",
	}, []string{"mode", "outcome"})

	allocationDuration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "eca_allocation_run_duration_seconds",
		Help:    "Wall time of allocation runs",
		Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
	}, []string{"mode"})

	allocationsByType := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "eca_allocations_created_total",
		Help: "Allocations written by allocation type",
	}, []string{"type"})

	allocationWaitlist := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "eca_waitlist_entries_total",
		Help: "Waitlist entries written by allocation runs",
	})

	activityCancels := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "eca_activity_cancellations_total",
		Help: "Activities cancelled for missing their minimum enrollment",
	})

	iterationCapHits := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "eca_iteration_cap_hits_total",
		Help: "Runs whose matching stopped at the iteration cap",
	})

	allocationUnplaced := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "eca_unplaced_student_slots_total",
		Help: "Student slots left without an allocation",
	})

	goroutines := prometheus.NewGaugeFunc(prometheus.GaugeOpts{
		Name: "goroutines_total",
		Help: "Total number of goroutines",
	}, func() float64 {
		return float64(runtime.NumGoroutine())
	})

	registry.MustRegister(
		requestDuration, requestTotal, cacheLatency, cacheWrite, cacheHitRatio, cacheHits, cacheMisses,
		allocationRuns, allocationDuration, allocationsByType, allocationWaitlist, activityCancels,
		iterationCapHits, allocationUnplaced, goroutines,
	)

	handler := promhttp.HandlerFor(registry, promhttp.HandlerOpts{})

	return &MetricsService{
		registry:           registry,
		handler:            handler,
		requestDuration:    requestDuration,
		requestTotal:       requestTotal,
		cacheLatency:       cacheLatency,
		cacheWrite:         cacheWrite,
		cacheHitRatio:      cacheHitRatio,
		cacheHits:          cacheHits,
		cacheMisses:        cacheMisses,
		allocationRuns:     allocationRuns,
		allocationDuration: allocationDuration,
		allocationsByType:  allocationsByType,
		allocationWaitlist: allocationWaitlist,
		activityCancels:    activityCancels,
		iterationCapHits:   iterationCapHits,
		allocationUnplaced: allocationUnplaced,
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

// ObserveHTTPRequest records request metrics and aggregates simple stats for snapshots.
func (m *MetricsService) ObserveHTTPRequest(method, path string, status int, duration time.Duration) {
	if m == nil {
		return
	}
	labelStatus := fmt.Sprintf("%d", status)
	m.requestDuration.WithLabelValues(method, path, labelStatus).Observe(duration.Seconds())
	m.requestTotal.WithLabelValues(method, path, labelStatus).Inc()
	atomic.AddUint64(&m.requestCount, 1)
	atomic.AddUint64(&m.requestDurationTotal, uint64(duration.Nanoseconds()))
}

// RecordCacheOperation records cache hit/miss metrics and updates hit ratio.
func (m *MetricsService) RecordCacheOperation(hit bool, duration time.Duration) {
	if m == nil {
		return
	}
	if m.cacheLatency != nil {
		m.cacheLatency.Observe(duration.Seconds())
	}
	if hit {
		m.cacheHits.Inc()
		atomic.AddUint64(&m.cacheHitCount, 1)
	} else {
		m.cacheMisses.Inc()
		atomic.AddUint64(&m.cacheMissCount, 1)
	}
	hits := atomic.LoadUint64(&m.cacheHitCount)
	misses := atomic.LoadUint64(&m.cacheMissCount)
	total := hits + misses
	if total > 0 {
		m.cacheHitRatio.Set(float64(hits) / float64(total))
	}
}

// ObserveCacheWrite tracks the duration for cache write operations.
func (m *MetricsService) ObserveCacheWrite(duration time.Duration) {
	if m == nil || m.cacheWrite == nil {
		return
	}
	m.cacheWrite.Observe(duration.Seconds())
}

// AllocationRunStats summarises one finished run for instrumentation.
type AllocationRunStats struct {
	Mode            models.SelectionMode
	Success         bool
	Duration        time.Duration
	ByType          map[models.AllocationType]int
	Waitlisted      int
	Cancelled       int
	Unplaced        int
	IterationCapHit bool
}

// ObserveAllocationRun records the counters for a finished allocation run.
func (m *MetricsService) ObserveAllocationRun(stats AllocationRunStats) {
	if m == nil {
		return
	}
	outcome := "success"
	if !stats.Success {
		outcome = "failure"
		atomic.AddUint64(&m.runFailedCount, 1)
	}
	mode := string(stats.Mode)
	m.allocationRuns.WithLabelValues(mode, outcome).Inc()
	m.allocationDuration.WithLabelValues(mode).Observe(stats.Duration.Seconds())
	for allocationType, count := range stats.ByType {
		m.allocationsByType.WithLabelValues(string(allocationType)).Add(float64(count))
	}
	m.allocationWaitlist.Add(float64(stats.Waitlisted))
	m.activityCancels.Add(float64(stats.Cancelled))
	m.allocationUnplaced.Add(float64(stats.Unplaced))
	if stats.IterationCapHit {
		m.iterationCapHits.Inc()
	}
	atomic.AddUint64(&m.runCount, 1)
	atomic.AddUint64(&m.runDurationTotal, uint64(stats.Duration.Nanoseconds()))
}

// Snapshot returns aggregated metrics suitable for the summary endpoint.
func (m *MetricsService) Snapshot() models.SystemMetrics {
	if m == nil {
		return models.SystemMetrics{}
	}
	hits := atomic.LoadUint64(&m.cacheHitCount)
	misses := atomic.LoadUint64(&m.cacheMissCount)
	requests := atomic.LoadUint64(&m.requestCount)
	reqDuration := atomic.LoadUint64(&m.requestDurationTotal)
	runs := atomic.LoadUint64(&m.runCount)
	runsFailed := atomic.LoadUint64(&m.runFailedCount)
	runDuration := atomic.LoadUint64(&m.runDurationTotal)

	var cacheRatio float64
	if totalLookups := hits + misses; totalLookups > 0 {
		cacheRatio = float64(hits) / float64(totalLookups)
	}

	var avgRequestMs float64
	if requests > 0 {
		avgRequestMs = float64(reqDuration) / float64(requests) / float64(time.Millisecond)
	}

	var avgRunMs float64
	if runs > 0 {
		avgRunMs = float64(runDuration) / float64(runs) / float64(time.Millisecond)
	}

	return models.SystemMetrics{
		CacheHitRatio:            cacheRatio,
		CacheHits:                hits,
		CacheMisses:              misses,
		RequestsTotal:            requests,
		AverageRequestDurationMs: avgRequestMs,
		AllocationRuns:           runs,
		AllocationRunsFailed:     runsFailed,
		AverageRunDurationMs:     avgRunMs,
		Goroutines:               runtime.NumGoroutine(),
		GeneratedAt:              time.Now().UTC(),
	}
}
