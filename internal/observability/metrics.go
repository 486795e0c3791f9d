package observability

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// PostsExpiredTotal counts posts flipped to expired by the sweeper.
	PostsExpiredTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "pulse_posts_expired_total",
		Help: "Total number of posts transitioned to expired",
	})

	// ExtensionsGrantedTotal counts like-driven life extensions.
	ExtensionsGrantedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "pulse_extensions_granted_total",
		Help: "Total number of life extensions granted through likes",
	})

	// ExtensionConflictsTotal counts optimistic-lock retries during extension.
	ExtensionConflictsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "pulse_extension_conflicts_total",
		Help: "Total number of optimistic concurrency conflicts while extending expiry",
	})

	// SweepRunsTotal counts sweep iterations by outcome.
	SweepRunsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "pulse_sweep_runs_total",
		Help: "Total number of sweep runs by outcome",
	}, []string{"outcome"})

	// SweepDurationSeconds records how long a full sweep run takes.
	SweepDurationSeconds = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "pulse_sweep_duration_seconds",
		Help:    "Duration of sweep runs in seconds",
		Buckets: prometheus.DefBuckets,
	})

	// NotificationsEmittedTotal counts persisted notifications by type.
	NotificationsEmittedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "pulse_notifications_emitted_total",
		Help: "Total number of notifications emitted by type",
	}, []string{"type"})

	// RedisErrors counts Redis errors by operation type.
	RedisErrors = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "pulse_redis_error_total",
		Help: "Total number of Redis errors by operation type",
	}, []string{"operation"})
)
