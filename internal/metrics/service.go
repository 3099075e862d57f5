package metrics

import (
	"context"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
)

type Service struct {
	// Acquisition
	RecordsFetched *prometheus.CounterVec
	FetchDuration  *prometheus.HistogramVec
	FetchErrors    *prometheus.CounterVec
	RetriesTotal   *prometheus.CounterVec
	QueueDepth     *prometheus.GaugeVec

	// Cache / gateway
	CacheOps *prometheus.CounterVec

	// Pipeline
	RecordsRejected *prometheus.CounterVec
	UpsertOutcomes  *prometheus.CounterVec

	// Archive
	ArchiveDuration *prometheus.HistogramVec
	ArchiveErrors   *prometheus.CounterVec
}

func NewService() *Service {
	return &Service{
		RecordsFetched: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "harvester_records_fetched_total",
				Help: "Total raw records fetched from sources",
			},
			[]string{"source"},
		),
		FetchDuration: promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Name: "harvester_fetch_duration_seconds",
				Help: "Time taken to fetch one acquisition target",
			},
			[]string{"source"},
		),
		FetchErrors: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "harvester_fetch_errors_total",
				Help: "Total fetch failures by classification",
			},
			[]string{"source", "type"},
		),
		RetriesTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "harvester_retries_total",
				Help: "Retry attempts after transient failures",
			},
			[]string{"source"},
		),
		QueueDepth: promauto.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "harvester_queue_depth_total",
				Help: "Current number of items in the Redis queues",
			}, []string{"queue_name"},
		),

		CacheOps: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "harvester_cache_ops_total",
				Help: "Gateway cache lookups by outcome (hit, miss, error)",
			},
			[]string{"outcome"},
		),

		RecordsRejected: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "harvester_records_rejected_total",
				Help: "Records dropped by the validation stage",
			},
			[]string{"reason"},
		),
		UpsertOutcomes: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "harvester_upsert_outcomes_total",
				Help: "Store writes by outcome (inserted, updated, skipped_stale)",
			},
			[]string{"outcome"},
		),

		ArchiveDuration: promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Name: "harvester_archive_duration_seconds",
				Help: "Time taken to write raw payloads to the archive",
			}, []string{"operation"},
		),
		ArchiveErrors: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "harvester_archive_errors_total",
				Help: "Total archive read/write errors",
			}, []string{"operation"},
		),
	}
}

func StartServer(addr string) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	log.Info().Msgf("Metrics server starting on %s", addr)

	if err := http.ListenAndServe(addr, mux); err != nil {
		log.Error().Err(err).Msg("Metrics server failed")
	}
}

func (m *Service) MonitorQueueDepth(ctx context.Context, rdb *redis.Client, queues map[string]string) {
	ticker := time.NewTicker(5 * time.Second)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			for label, key := range queues {
				val, err := rdb.LLen(ctx, key).Result()
				if err != nil {
					log.Error().Err(err).Msgf("Failed to monitor queue: %s", key)
					continue
				}

				m.QueueDepth.WithLabelValues(label).Set(float64(val))
			}
		}
	}
}
