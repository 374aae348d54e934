// Package metrics exposes the pipeline's Prometheus metrics: throughput
// counters for each pipeline stage, an enrichment-latency histogram observed
// by the enrichment worker, and coverage/count gauges refreshed from periodic
// Store snapshots.
package metrics

import (
	"context"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"github.com/jobmate/alertpipeline/internal/clock"
	"github.com/jobmate/alertpipeline/internal/store"
)

var (
	UsersTotal = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "jobmate_users_total",
		Help: "Total registered users.",
	})
	UsersActive24h = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "jobmate_users_active_24h",
		Help: "Users with an inbound message in the last 24 hours.",
	})

	RawPostingsReceived = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "jobmate_raw_postings_received_total",
		Help: "Raw postings enqueued by the Ingestion Gateway.",
	})
	RawPostingsProcessed = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "jobmate_raw_postings_processed_total",
		Help: "Raw postings successfully enriched into canonical postings.",
	})
	RawPostingsFailed = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "jobmate_raw_postings_failed_total",
		Help: "Raw postings that failed enrichment and were marked with an error.",
	})

	CanonicalPostingsCreated = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "jobmate_canonical_postings_created_total",
		Help: "Canonical postings created by the Enrichment Worker.",
	})

	AlertsSentTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "jobmate_alerts_sent_total",
		Help: "Job alerts sent, labeled by delivery stage.",
	}, []string{"stage"})

	AlertsFailedTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "jobmate_alerts_failed_total",
		Help: "Job alerts that matched but failed to send.",
	})

	EmbeddingCoverageRatio = prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Name: "jobmate_embedding_coverage_ratio",
		Help: "Fraction of entities with a current embedding, by entity type.",
	}, []string{"entity"})

	UnprocessedRawPostings = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "jobmate_unprocessed_raw_postings",
		Help: "Raw postings awaiting enrichment.",
	})

	EnrichmentLatencySeconds = prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "jobmate_enrichment_latency_seconds",
		Help:    "End-to-end latency from raw posting ingestion to canonical posting availability.",
		Buckets: prometheus.ExponentialBuckets(1, 2, 12),
	})
)

// Registry bundles the collectors above for registration with the process's
// Prometheus registry.
var Registry = prometheus.NewRegistry()

func init() {
	Registry.MustRegister(
		UsersTotal, UsersActive24h,
		RawPostingsReceived, RawPostingsProcessed, RawPostingsFailed,
		CanonicalPostingsCreated,
		AlertsSentTotal, AlertsFailedTotal,
		EmbeddingCoverageRatio, UnprocessedRawPostings,
		EnrichmentLatencySeconds,
	)
}

// Refresher periodically pulls gauge values from the Store so dashboards
// reflect current coverage without every read path updating a metric
// inline.
type Refresher struct {
	store    *store.Store
	interval time.Duration
	clock    clock.Clock
	logger   *zap.Logger
}

func NewRefresher(s *store.Store, interval time.Duration, c clock.Clock, logger *zap.Logger) *Refresher {
	if interval <= 0 {
		interval = time.Minute
	}
	return &Refresher{store: s, interval: interval, clock: c, logger: logger}
}

func (r *Refresher) Run(ctx context.Context) {
	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	r.refreshOnce(ctx)
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			r.refreshOnce(ctx)
		}
	}
}

func (r *Refresher) refreshOnce(ctx context.Context) {
	snap, err := r.store.Snapshot(ctx, r.clock.Now())
	if err != nil {
		r.logger.Warn("metrics refresh: snapshot failed", zap.Error(err))
		return
	}
	UsersTotal.Set(float64(snap.UsersTotal))
	UsersActive24h.Set(float64(snap.UsersActive24h))
	UnprocessedRawPostings.Set(float64(snap.UnprocessedRawPostings))
	EmbeddingCoverageRatio.WithLabelValues("user").Set(snap.UserEmbeddingCoverage)
	EmbeddingCoverageRatio.WithLabelValues("job").Set(snap.JobEmbeddingCoverage)
}
