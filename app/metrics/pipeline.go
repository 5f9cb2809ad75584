// Package metrics holds Prometheus collectors for the click and reward pipeline
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// Clicks durably recorded by the redirect path
	ClicksRecordedTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "clicks_recorded_total",
			Help: "Total number of clicks durably recorded",
		},
	)

	// Reward jobs that reached a terminal status, partitioned by that status
	RewardJobsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "reward_jobs_total",
			Help: "Total number of reward jobs processed by terminal status",
		},
		[]string{"status"},
	)

	// Reward jobs whose reconciliation commit failed
	RewardJobErrors = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "reward_job_errors_total",
			Help: "Total number of reward jobs that errored before reaching a terminal status",
		},
	)

	// Enqueue failures absorbed by the dispatcher
	RewardEnqueueFailures = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "reward_enqueue_failures_total",
			Help: "Total number of reward jobs that could not be enqueued",
		},
	)

	// Latency of external crediting calls, successful or not
	CreditingCallDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "crediting_call_duration_seconds",
			Help:    "External crediting call latencies in seconds",
			Buckets: prometheus.DefBuckets,
		},
	)
)
