// Package metrics holds the process-wide Prometheus collectors.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// HTTP
	APIRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "moodtracker_http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "route", "status"},
	)

	APIRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "moodtracker_http_request_duration_seconds",
			Help:    "HTTP request latency in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "route"},
	)

	// Auth
	AuthAttempts = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "moodtracker_auth_attempts_total",
			Help: "Registrations and logins by outcome",
		},
		[]string{"operation", "result"}, // register|login, success|failure
	)

	CredentialsRevoked = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "moodtracker_credentials_revoked_total",
			Help: "Bearer credentials revoked",
		},
		[]string{"reason"}, // logout, password_change, account_deleted
	)

	// Mood entries
	MoodEntryOperations = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "moodtracker_mood_entry_operations_total",
			Help: "Mood entry writes by operation",
		},
		[]string{"operation"},
	)

	MoodLevelsRecorded = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "moodtracker_mood_levels_recorded_total",
			Help: "Created mood entries by level",
		},
		[]string{"level"},
	)

	// Profile cache
	ProfileCacheHits = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "moodtracker_profile_cache_hits_total",
			Help: "Profile lookups served from Redis",
		},
	)

	ProfileCacheMisses = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "moodtracker_profile_cache_misses_total",
			Help: "Profile lookups that went to the database",
		},
	)
)

// RecordAPIRequest records an API request metric.
func RecordAPIRequest(method, route, status string, duration time.Duration) {
	APIRequestsTotal.WithLabelValues(method, route, status).Inc()
	APIRequestDuration.WithLabelValues(method, route).Observe(duration.Seconds())
}

// RecordAuthAttempt counts a register or login outcome.
func RecordAuthAttempt(operation string, success bool) {
	result := "success"
	if !success {
		result = "failure"
	}
	AuthAttempts.WithLabelValues(operation, result).Inc()
}

// RecordRevocation counts n revoked credentials.
func RecordRevocation(reason string, n int) {
	if n <= 0 {
		return
	}
	CredentialsRevoked.WithLabelValues(reason).Add(float64(n))
}

// RecordMoodEntryOperation counts a create, update or delete.
func RecordMoodEntryOperation(operation string) {
	MoodEntryOperations.WithLabelValues(operation).Inc()
}

// RecordMoodLevel counts a newly recorded level.
func RecordMoodLevel(level string) {
	MoodLevelsRecorded.WithLabelValues(level).Inc()
}
