package cmdfactory

import (
	"context"
	"strconv"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/bleubryce/AgentX-AI-sub001/internal/archive"
	"github.com/bleubryce/AgentX-AI-sub001/internal/cache"
	"github.com/bleubryce/AgentX-AI-sub001/internal/config"
	"github.com/bleubryce/AgentX-AI-sub001/internal/gateway"
	"github.com/bleubryce/AgentX-AI-sub001/internal/metrics"
	"github.com/bleubryce/AgentX-AI-sub001/internal/orchestrator"
	"github.com/bleubryce/AgentX-AI-sub001/internal/provider"
	"github.com/bleubryce/AgentX-AI-sub001/internal/queue"
	"github.com/bleubryce/AgentX-AI-sub001/internal/robots"
	"github.com/bleubryce/AgentX-AI-sub001/internal/source"
	"github.com/bleubryce/AgentX-AI-sub001/internal/stats"
	"github.com/bleubryce/AgentX-AI-sub001/internal/store"
	"github.com/bleubryce/AgentX-AI-sub001/internal/validate"
)

type harvesterFactory struct {
	*commonFactory

	File         *config.File
	Cache        cache.Store
	Gateway      *gateway.Gateway
	Queue        queue.Queue
	Store        store.Store
	Orchestrator *orchestrator.Orchestrator
}

// HarvesterNew wires the acquisition daemon. Configuration problems are
// fatal here: a worker must never start with missing credentials or rules
// it cannot compile.
func HarvesterNew(cfg *Config) *harvesterFactory {
	file, err := config.Load(cfg.ConfigFile)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load acquisition config")
	}

	validator, err := validate.New(file.Rules())
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to compile validation rules")
	}

	rdb := newRedis(cfg)
	met := metrics.NewService()
	go metrics.StartServer(":" + strconv.Itoa(cfg.MetricsPort))

	if rdb != nil {
		queuesToWatch := map[string]string{
			"targets": queue.QueueKey,
			"dlq":     queue.DLQKey,
		}
		go met.MonitorQueueDepth(context.Background(), rdb, queuesToWatch)
	}

	f := &harvesterFactory{
		commonFactory: &commonFactory{
			RDB:     rdb,
			Stats:   stats.New(),
			Metrics: met,
		},
		File: file,
	}

	f.Cache = newCacheStore(cfg, rdb)
	f.Gateway = gateway.New(f.Cache, newLimiter(cfg, rdb, file.Providers), f.Stats, met)
	f.Store = newStore(cfg, f.Stats)

	if rdb != nil {
		f.Queue = queue.NewRedisQueue(rdb)
	} else {
		f.Queue = queue.NewMemoryQueue()
	}

	f.Orchestrator = orchestrator.New(orchestrator.Config{
		Queue:       f.Queue,
		Sources:     newSources(f, file),
		Validator:   validator,
		Store:       f.Store,
		Stats:       f.Stats,
		Archiver:    newArchiver(cfg, met),
		Metrics:     met,
		Workers:     cfg.WorkerCount,
		MaxItems:    cfg.MaxItems,
		Politeness:  cfg.Politeness,
		ExitOnEmpty: cfg.ExitOnEmpty,
	})

	return f
}

func newSources(f *harvesterFactory, file *config.File) []source.Source {
	robotsChecker := robots.NewChecker(userAgent, 5*time.Second)

	var sources []source.Source
	for _, src := range file.Sources {
		switch src.Type {
		case "api":
			prov, _ := file.Provider(src.Provider)
			fetcher := provider.NewHTTPFetcher(prov, userAgent, 10*time.Second)
			sources = append(sources, source.NewAPISource(src.Name, prov, src.Endpoint, f.Gateway, fetcher))
		case "crawl":
			sources = append(sources, source.NewCrawlSource(src.Name, userAgent, 10*time.Second, robotsChecker, source.JSONExtractor{}))
		}
	}
	return sources
}

func newArchiver(cfg *Config, met *metrics.Service) archive.Archiver {
	if !cfg.ArchiveEnabled {
		return nil
	}
	a, err := archive.NewS3Archiver(context.Background(), cfg.S3Bucket, cfg.S3Endpoint, cfg.S3Region, cfg.S3User, cfg.S3Password, met)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to initialize archive storage")
	}
	return a
}

// SeedTargets enqueues the initial work defined in the config file: crawl
// seeds and API query targets. Dedup in the queue makes re-seeding on
// restart harmless.
func (f *harvesterFactory) SeedTargets(ctx context.Context) error {
	var targets []queue.Target

	for _, src := range f.File.Sources {
		switch src.Type {
		case "crawl":
			for _, seed := range src.Seeds {
				targets = append(targets, queue.Target{URL: seed, Source: src.Name})
			}
		case "api":
			queries := src.Targets
			if len(queries) == 0 {
				queries = []map[string]string{nil}
			}
			for _, params := range queries {
				targets = append(targets, queue.Target{
					ID:     cache.Key(src.Provider, src.Endpoint, params),
					Source: src.Name,
					Params: params,
				})
			}
		}
	}

	return f.Queue.Push(ctx, targets)
}
