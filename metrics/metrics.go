// Package metrics defines the Prometheus collectors exported on /metrics.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const prefix = "bugtrack"

var (
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: prefix + "_http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    prefix + "_http_request_duration_seconds",
			Help:    "Duration of HTTP requests in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path", "status"},
	)

	AuthAttempts = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: prefix + "_auth_attempts_total",
			Help: "Total number of login attempts",
		},
	)

	AuthFailures = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: prefix + "_auth_failures_total",
			Help: "Total number of failed logins by reason",
		},
		[]string{"reason"},
	)

	RateLimited = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: prefix + "_rate_limited_total",
			Help: "Requests rejected by the rate limiter",
		},
		[]string{"scope"},
	)

	BugOperations = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: prefix + "_bug_operations_total",
			Help: "Total number of bug operations",
		},
		[]string{"operation"},
	)

	ActivityEntries = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: prefix + "_activity_entries_total",
			Help: "Activity entries appended to bugs",
		},
	)

	DBOperationDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    prefix + "_db_operation_duration_seconds",
			Help:    "Duration of database operations in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"backend", "operation"},
	)
)

func RecordBugOperation(operation string) {
	BugOperations.WithLabelValues(operation).Inc()
}

func RecordAuthFailure(reason string) {
	AuthFailures.WithLabelValues(reason).Inc()
}

// TrackDBOperation returns a function that records the duration of a
// database operation:
//
//	defer metrics.TrackDBOperation("postgres", "update_bug")(time.Now())
func TrackDBOperation(backend, operation string) func(startTime time.Time) {
	return func(startTime time.Time) {
		DBOperationDuration.WithLabelValues(backend, operation).Observe(time.Since(startTime).Seconds())
	}
}
