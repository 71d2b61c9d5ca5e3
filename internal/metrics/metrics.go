// Beacon KPI - CRM Sync and Regional KPI Reporting
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/beaconkpi

// Package metrics declares the Prometheus collectors exported on /metrics.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// Beacon API
	BeaconRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "beacon_api_requests_total",
			Help: "Beacon API page requests by endpoint and HTTP status",
		},
		[]string{"endpoint", "status"},
	)

	BeaconRequestRetries = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "beacon_api_retries_total",
			Help: "Beacon API page requests retried after 429/5xx",
		},
		[]string{"endpoint"},
	)

	BeaconRecordsFetched = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "beacon_records_fetched_total",
			Help: "Records returned by the Beacon API",
		},
		[]string{"endpoint"},
	)

	BeaconFetchDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "beacon_fetch_duration_seconds",
			Help:    "Time to fetch every page of one Beacon endpoint",
			Buckets: []float64{0.5, 1, 2.5, 5, 10, 30, 60, 120, 300},
		},
		[]string{"endpoint"},
	)

	// Warehouse
	WarehouseRowsUpserted = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "warehouse_rows_upserted_total",
			Help: "Canonical rows written to the warehouse",
		},
		[]string{"table"},
	)

	WarehouseChunkShrinks = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "warehouse_chunk_shrinks_total",
			Help: "Times the upsert chunk size was halved after a statement timeout",
		},
		[]string{"table"},
	)

	WarehouseQueryDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "warehouse_query_duration_seconds",
			Help:    "Duration of warehouse statements",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"operation", "table"},
	)

	// Sync
	SyncDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "beacon_sync_duration_seconds",
			Help:    "Duration of complete Beacon sync runs",
			Buckets: []float64{1, 5, 10, 30, 60, 120, 300, 600, 1200},
		},
	)

	SyncRecordsProcessed = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "beacon_sync_records_processed_total",
			Help: "Canonical rows upserted by completed syncs",
		},
	)

	SyncAttempts = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "beacon_sync_attempts_total",
			Help: "Sync attempts by outcome",
		},
		[]string{"outcome"}, // completed, retry_scheduled, failed
	)

	SyncErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "beacon_sync_errors_total",
			Help: "Sync attempt failures by error kind",
		},
		[]string{"kind"},
	)

	SyncLastSuccess = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "beacon_sync_last_success_timestamp",
			Help: "Unix time of the last completed sync",
		},
	)

	SyncState = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "beacon_sync_state",
			Help: "1 for the current orchestrator state, 0 otherwise",
		},
		[]string{"state"},
	)

	// Report cache
	CacheHits = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "kpi_report_cache_hits_total",
			Help: "KPI report cache hits",
		},
	)

	CacheMisses = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "kpi_report_cache_misses_total",
			Help: "KPI report cache misses",
		},
	)

	CacheInvalidations = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "kpi_report_cache_invalidations_total",
			Help: "KPI report cache invalidations after data writes",
		},
	)

	// Circuit breaker
	CircuitBreakerState = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "circuit_breaker_state",
			Help: "Circuit breaker state (0=closed, 1=half-open, 2=open)",
		},
		[]string{"name"},
	)

	CircuitBreakerRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "circuit_breaker_requests_total",
			Help: "Requests through the circuit breaker",
		},
		[]string{"name", "result"}, // success, failure, rejected
	)

	CircuitBreakerConsecutiveFailures = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "circuit_breaker_consecutive_failures",
			Help: "Consecutive failures seen by the circuit breaker",
		},
		[]string{"name"},
	)

	CircuitBreakerTransitions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "circuit_breaker_state_transitions_total",
			Help: "Circuit breaker state transitions",
		},
		[]string{"name", "from_state", "to_state"},
	)

	// Notifications
	NotificationsSent = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "sync_notifications_total",
			Help: "Outbound sync notifications by type and result",
		},
		[]string{"type", "result"},
	)

	// HTTP API
	APIRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "api_requests_total",
			Help: "HTTP API requests by route and status",
		},
		[]string{"method", "route", "status"},
	)

	APIRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "api_request_duration_seconds",
			Help:    "HTTP API request latency",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "route"},
	)
)

// syncStates lists every orchestrator state so SetSyncState can zero the others.
var syncStates = []string{
	"STARTED", "FETCHING", "TRANSFORMING", "UPSERTING",
	"COMPLETED", "RETRY_SCHEDULED", "FAILED",
}

// SetSyncState marks state as current.
func SetSyncState(state string) {
	for _, s := range syncStates {
		v := 0.0
		if s == state {
			v = 1
		}
		SyncState.WithLabelValues(s).Set(v)
	}
}

// RecordSyncOperation records the outcome of a whole sync run. errKind is
// the syncerr kind string and is ignored when err is nil.
func RecordSyncOperation(duration time.Duration, recordsProcessed int, err error, errKind string) {
	SyncDuration.Observe(duration.Seconds())
	if err != nil {
		SyncErrors.WithLabelValues(errKind).Inc()
		return
	}
	SyncRecordsProcessed.Add(float64(recordsProcessed))
	SyncLastSuccess.Set(float64(time.Now().Unix()))
}

// RecordWarehouseQuery observes the duration of a warehouse statement.
func RecordWarehouseQuery(operation, table string, duration time.Duration) {
	WarehouseQueryDuration.WithLabelValues(operation, table).Observe(duration.Seconds())
}
