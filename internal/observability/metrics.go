package observability

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Outcomes recorded on FriendTransitions.
const (
	OutcomeApplied = "applied"
	OutcomeSkipped = "skipped"
	OutcomeFailed  = "failed"
)

var (
	// RedisErrorRate counts Redis errors by operation type.
	RedisErrorRate = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "playrewards_redis_error_rate_total",
		Help: "Total number of Redis errors by operation type",
	}, []string{"operation"})

	// CacheLookups counts cache-aside lookups by cache name and result (hit, miss).
	CacheLookups = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "playrewards_cache_lookups_total",
		Help: "Cache-aside lookups by cache and result",
	}, []string{"cache", "result"})

	// DatabaseQueryLatency records database query latency by operation and table.
	DatabaseQueryLatency = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "playrewards_database_query_latency_seconds",
		Help:    "Database query latency in seconds",
		Buckets: prometheus.DefBuckets,
	}, []string{"operation", "table"})

	// FriendTransitions counts per-target state machine decisions.
	FriendTransitions = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "playrewards_friend_transitions_total",
		Help: "Friend state machine transitions by operation and outcome",
	}, []string{"operation", "outcome"})

	// FriendDuplicatesAbsorbed counts unique violations treated as already satisfied.
	FriendDuplicatesAbsorbed = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "playrewards_friend_duplicates_absorbed_total",
		Help: "Duplicate friend edge inserts absorbed as idempotent success",
	}, []string{"operation"})

	// EnrichmentLatency records how long one batch of activity enrichment takes.
	EnrichmentLatency = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "playrewards_activity_enrichment_seconds",
		Help:    "Activity enrichment latency per request",
		Buckets: prometheus.DefBuckets,
	}, []string{"source"})
)

// DatabaseMetrics records query latency for one logical store.
type DatabaseMetrics struct {
	table string
}

// NewDatabaseMetrics returns a DatabaseMetrics labelled with table.
func NewDatabaseMetrics(table string) *DatabaseMetrics {
	return &DatabaseMetrics{table: table}
}

// ObserveQuery records the latency of a database query.
func (m *DatabaseMetrics) ObserveQuery(operation string, start time.Time) {
	DatabaseQueryLatency.WithLabelValues(operation, m.table).Observe(time.Since(start).Seconds())
}

// TrackQuery returns a function that records query latency when called (e.g. defer).
func (m *DatabaseMetrics) TrackQuery(operation string) func() {
	start := time.Now()
	return func() {
		m.ObserveQuery(operation, start)
	}
}

// RecordTransition counts one per-target decision of the friend state machine.
func RecordTransition(operation, outcome string) {
	FriendTransitions.WithLabelValues(operation, outcome).Inc()
}

// RecordDuplicateAbsorbed counts a unique violation swallowed by operation.
func RecordDuplicateAbsorbed(operation string) {
	FriendDuplicatesAbsorbed.WithLabelValues(operation).Inc()
}

// RecordCacheLookup counts a cache hit or miss.
func RecordCacheLookup(cacheName string, hit bool) {
	result := "miss"
	if hit {
		result = "hit"
	}
	CacheLookups.WithLabelValues(cacheName, result).Inc()
}
