// Pulselog - Usage Event Analytics and Reporting
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/pulselog

package metrics

import (
	"runtime"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Prometheus instrumentation for:
// - Event log append/scan performance and decode skips
// - Stats tracker updates and persist failures
// - Ingestion throughput and rejection counts
// - API endpoint latency and throughput
// - Cache efficiency
// - Backup outcomes

var (
	// Event Log Store Metrics
	EventLogAppendDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "eventlog_append_duration_seconds",
			Help:    "Duration of event log appends in seconds",
			Buckets: prometheus.DefBuckets,
		},
	)

	EventLogAppendErrors = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "eventlog_append_errors_total",
			Help: "Total number of failed event log appends",
		},
	)

	EventLogBytesWritten = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "eventlog_bytes_written_total",
			Help: "Total bytes appended to the event log",
		},
	)

	EventLogDecodeSkips = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "eventlog_decode_skips_total",
			Help: "Total number of malformed records skipped during scans",
		},
	)

	EventLogScanDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "eventlog_scan_duration_seconds",
			Help:    "Duration of full event log scans in seconds",
			Buckets: []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5},
		},
	)

	EventLogRecords = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "eventlog_records",
			Help: "Number of session records in the event log",
		},
	)

	EventLogSizeBytes = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "eventlog_size_bytes",
			Help: "Current size of the event log file in bytes",
		},
	)

	// Stats Tracker Metrics
	StatsUpdates = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "stats_updates_total",
			Help: "Total number of aggregate stats updates",
		},
	)

	StatsPersistErrors = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "stats_persist_errors_total",
			Help: "Total number of failed stats file writes (absorbed, never fatal)",
		},
	)

	StatsUniqueUsers = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "stats_unique_users",
			Help: "Current cardinality of the unique user set",
		},
	)

	StatsRebuilds = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "stats_rebuilds_total",
			Help: "Total number of operator-triggered stats rebuilds",
		},
	)

	// Ingestion Metrics
	IngestBatchesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ingest_batches_total",
			Help: "Total number of ingested batches by result",
		},
		[]string{"result"}, // "accepted", "rejected", "store_error"
	)

	IngestEventsTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "ingest_events_total",
			Help: "Total number of events accepted across all batches",
		},
	)

	IngestDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "ingest_duration_seconds",
			Help:    "Duration of batch ingestion (validate, append, stats) in seconds",
			Buckets: prometheus.DefBuckets,
		},
	)

	// API Endpoint Metrics
	APIRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "api_requests_total",
			Help: "Total number of API requests",
		},
		[]string{"method", "endpoint", "status_code"},
	)

	APIRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "api_request_duration_seconds",
			Help:    "API request duration in seconds",
			Buckets: []float64{0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		},
		[]string{"method", "endpoint"},
	)

	APIActiveRequests = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "api_active_requests",
			Help: "Current number of active API requests",
		},
	)

	APIRateLimitHits = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "api_rate_limit_hits_total",
			Help: "Total number of rate limit rejections",
		},
		[]string{"endpoint"},
	)

	// Reporting Engine Metrics
	ReportQueryDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "report_query_duration_seconds",
			Help:    "Duration of reporting engine derivations in seconds",
			Buckets: []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5},
		},
		[]string{"query"}, // "type_counts", "funnel", "rollup", "dashboard", "overview", ...
	)

	// Cache Metrics
	CacheHits = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "cache_hits_total",
			Help: "Total number of cache hits",
		},
		[]string{"cache_type"},
	)

	CacheMisses = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "cache_misses_total",
			Help: "Total number of cache misses",
		},
		[]string{"cache_type"},
	)

	CacheEvictions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "cache_evictions_total",
			Help: "Total number of cache evictions (TTL expiry)",
		},
		[]string{"cache_type"},
	)

	CacheSize = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "cache_entries",
			Help: "Current number of cached entries",
		},
		[]string{"cache_type"},
	)

	// Backup Metrics
	BackupsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "backups_total",
			Help: "Total number of backup runs by result",
		},
		[]string{"result"}, // "success", "failure"
	)

	BackupDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "backup_duration_seconds",
			Help:    "Duration of backup runs in seconds",
			Buckets: prometheus.DefBuckets,
		},
	)

	BackupLastSuccess = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "backup_last_success_timestamp",
			Help: "Unix timestamp of the last successful backup",
		},
	)

	// System Metrics
	AppInfo = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "app_info",
			Help: "Application version and build information",
		},
		[]string{"version", "go_version"},
	)

	AppUptime = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "app_uptime_seconds",
			Help: "Application uptime in seconds",
		},
	)
)

// RecordAppend records one event log append outcome. The records gauge is
// left to the sampler so appends stay a pure counter path.
func RecordAppend(duration time.Duration, bytes int, err error) {
	EventLogAppendDuration.Observe(duration.Seconds())
	if err != nil {
		EventLogAppendErrors.Inc()
		return
	}
	EventLogBytesWritten.Add(float64(bytes))
}

// RecordDecodeSkip records a malformed record skipped during a scan.
func RecordDecodeSkip() {
	EventLogDecodeSkips.Inc()
}

// RecordScan records the duration of a full log scan.
func RecordScan(duration time.Duration) {
	EventLogScanDuration.Observe(duration.Seconds())
}

// RecordStatsUpdate records a stats tracker update and its persist outcome.
func RecordStatsUpdate(uniqueUsers int, persistErr error) {
	StatsUpdates.Inc()
	StatsUniqueUsers.Set(float64(uniqueUsers))
	if persistErr != nil {
		StatsPersistErrors.Inc()
	}
}

// RecordIngest records one batch ingestion outcome. Result is "accepted",
// "rejected" or "store_error"; events counts only accepted events.
func RecordIngest(result string, events int, duration time.Duration) {
	IngestBatchesTotal.WithLabelValues(result).Inc()
	IngestDuration.Observe(duration.Seconds())
	if events > 0 {
		IngestEventsTotal.Add(float64(events))
	}
}

// RecordAPIRequest records an API request metric.
func RecordAPIRequest(method, endpoint, statusCode string, duration time.Duration) {
	APIRequestsTotal.WithLabelValues(method, endpoint, statusCode).Inc()
	APIRequestDuration.WithLabelValues(method, endpoint).Observe(duration.Seconds())
}

// TrackActiveRequest tracks active API requests.
func TrackActiveRequest(inc bool) {
	if inc {
		APIActiveRequests.Inc()
	} else {
		APIActiveRequests.Dec()
	}
}

// RecordRateLimitHit records a rate limit rejection for an endpoint.
func RecordRateLimitHit(endpoint string) {
	APIRateLimitHits.WithLabelValues(endpoint).Inc()
}

// RecordQuery records a reporting engine derivation.
func RecordQuery(query string, duration time.Duration) {
	ReportQueryDuration.WithLabelValues(query).Observe(duration.Seconds())
}

// RecordCacheHit records a cache hit for the given cache type.
func RecordCacheHit(cacheType string) {
	CacheHits.WithLabelValues(cacheType).Inc()
}

// RecordCacheMiss records a cache miss for the given cache type.
func RecordCacheMiss(cacheType string) {
	CacheMisses.WithLabelValues(cacheType).Inc()
}

// RecordCacheEviction records TTL evictions for the given cache type.
func RecordCacheEviction(cacheType string, count int) {
	CacheEvictions.WithLabelValues(cacheType).Add(float64(count))
}

// SetCacheSize updates the entry count gauge for the given cache type.
func SetCacheSize(cacheType string, size int) {
	CacheSize.WithLabelValues(cacheType).Set(float64(size))
}

// RecordBackup records one backup run outcome.
func RecordBackup(duration time.Duration, err error) {
	BackupDuration.Observe(duration.Seconds())
	if err != nil {
		BackupsTotal.WithLabelValues("failure").Inc()
		return
	}
	BackupsTotal.WithLabelValues("success").Inc()
	BackupLastSuccess.Set(float64(time.Now().Unix()))
}

// UpdateStoreGauges refreshes the event log gauges from sampled values.
func UpdateStoreGauges(records int64, sizeBytes int64) {
	EventLogRecords.Set(float64(records))
	EventLogSizeBytes.Set(float64(sizeBytes))
}

// SetAppInfo publishes the build version labels. Called once at startup.
func SetAppInfo(version string) {
	AppInfo.WithLabelValues(version, runtime.Version()).Set(1)
}

// SetUptime refreshes the uptime gauge.
func SetUptime(d time.Duration) {
	AppUptime.Set(d.Seconds())
}
