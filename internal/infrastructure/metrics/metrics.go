package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// SyncMetrics holds the engine's Prometheus collectors.
type SyncMetrics struct {
	// SyncRuns counts completed pull runs by terminal status.
	SyncRuns *prometheus.CounterVec

	// RecordsSynced counts upserted records by resource kind.
	RecordsSynced *prometheus.CounterVec

	// SyncDuration observes wall-clock duration of full pull runs.
	SyncDuration prometheus.Histogram

	// WebhookEvents counts processed webhook deliveries by topic and outcome.
	WebhookEvents *prometheus.CounterVec

	// ScheduledJobs tracks the number of registered recurring sync jobs.
	ScheduledJobs prometheus.Gauge
}

// NewSyncMetrics registers the engine collectors with the given registerer.
func NewSyncMetrics(reg prometheus.Registerer) *SyncMetrics {
	factory := promauto.With(reg)
	return &SyncMetrics{
		SyncRuns: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "store_sync_runs_total",
			Help: "Pull sync runs by terminal status.",
		}, []string{"status"}),
		RecordsSynced: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "store_sync_records_total",
			Help: "Records upserted by pull sync, by resource kind.",
		}, []string{"resource"}),
		SyncDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "store_sync_duration_seconds",
			Help:    "Duration of full pull sync runs.",
			Buckets: prometheus.ExponentialBuckets(0.1, 2, 12),
		}),
		WebhookEvents: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "webhook_events_total",
			Help: "Webhook deliveries by topic and outcome.",
		}, []string{"topic", "outcome"}),
		ScheduledJobs: factory.NewGauge(prometheus.GaugeOpts{
			Name: "scheduler_registered_jobs",
			Help: "Recurring sync jobs currently registered.",
		}),
	}
}
