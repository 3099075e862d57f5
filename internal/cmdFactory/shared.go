package cmdfactory

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"

	"github.com/bleubryce/AgentX-AI-sub001/internal/cache"
	"github.com/bleubryce/AgentX-AI-sub001/internal/limiter"
	"github.com/bleubryce/AgentX-AI-sub001/internal/metrics"
	"github.com/bleubryce/AgentX-AI-sub001/internal/provider"
	"github.com/bleubryce/AgentX-AI-sub001/internal/stats"
	"github.com/bleubryce/AgentX-AI-sub001/internal/store"
)

const userAgent = "LeadHarvester/1.0"

type Config struct {
	// Redis
	RedisAddr     string
	RedisPassword string
	RedisDB       int

	// Postgres; empty keeps records in memory (dry runs, tests)
	PostgresDSN string

	// MinIO / S3 raw-payload archive
	ArchiveEnabled bool
	S3Endpoint     string
	S3Bucket       string
	S3Region       string
	S3User         string
	S3Password     string

	// Response cache
	CacheBackend string // disk, redis or memory
	CacheDir     string

	// Acquisition
	ConfigFile       string
	WorkerCount      int
	MaxItems         int64
	Politeness       time.Duration
	DistributedLimit bool
	ExitOnEmpty      bool
	MetricsPort      int

	// cacheadmin specific
	ClearProvider string
}

type commonFactory struct {
	RDB     *redis.Client
	Stats   *stats.Pipeline
	Metrics *metrics.Service
}

func newRedis(cfg *Config) *redis.Client {
	if cfg.RedisAddr == "" {
		return nil
	}
	return redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
	})
}

func newCacheStore(cfg *Config, rdb *redis.Client) cache.Store {
	switch cfg.CacheBackend {
	case "redis":
		if rdb == nil {
			log.Fatal().Msg("Cache backend redis requires --redis-addr")
		}
		return cache.NewRedisStore(rdb)
	case "memory":
		return cache.NewMemoryStore()
	default:
		s, err := cache.NewDiskStore(cfg.CacheDir)
		if err != nil {
			log.Fatal().Err(err).Msg("Failed to initialize disk cache")
		}
		return s
	}
}

func newLimiter(cfg *Config, rdb *redis.Client, providers []provider.Config) limiter.Limiter {
	if cfg.DistributedLimit {
		if rdb == nil {
			log.Fatal().Msg("Distributed rate limiting requires --redis-addr")
		}
		rl := limiter.NewRedisLimiter(rdb)
		for _, p := range providers {
			rl.SetInterval(p.Name, limiter.IntervalForRate(p.RequestsPerMinute))
		}
		return rl
	}

	il := limiter.NewIntervalLimiter()
	for _, p := range providers {
		il.SetInterval(p.Name, limiter.IntervalForRate(p.RequestsPerMinute))
	}
	return il
}

func newStore(cfg *Config, st *stats.Pipeline) store.Store {
	if cfg.PostgresDSN == "" {
		log.Warn().Msg("No Postgres DSN configured, records stay in memory")
		return store.NewMemoryStore(st)
	}

	pg, err := store.NewPostgresStore(context.Background(), cfg.PostgresDSN, st)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to Postgres")
	}
	if err := pg.Migrate(context.Background()); err != nil {
		log.Fatal().Err(err).Msg("Failed to migrate listings table")
	}
	return pg
}
