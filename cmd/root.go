package cmd

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	cmdfactory "github.com/bleubryce/AgentX-AI-sub001/internal/cmdFactory"
	"github.com/rs/zerolog/log"

	"github.com/MakeNowJust/heredoc"
	"github.com/spf13/cobra"
)

var cfg cmdfactory.Config

func newCmdRootHarvester() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "harvester [flags]",
		Short: "Real-estate lead and listing acquisition daemon",
		Long:  `Acquire listing data from provider APIs and crawled sites, validate it and store it idempotently.`,
		Example: heredoc.Doc(`
			$ harvester --config harvester.yaml --workers 8
			$ harvester --config harvester.yaml --postgres-dsn "postgres://harvester@localhost/listings"
		`),
		Annotations: map[string]string{
			"versionInfo": "1.0",
		},
		RunE: func(c *cobra.Command, args []string) error {
			f := cmdfactory.HarvesterNew(&cfg)

			ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
			defer cancel()

			if err := f.SeedTargets(ctx); err != nil {
				log.Error().Err(err).Msg("Failed to seed acquisition targets")
			}

			f.Orchestrator.Run(ctx)

			snap := f.Stats.Snapshot()
			log.Info().
				Int64("cache_hits", snap.CacheHits).
				Int64("cache_misses", snap.CacheMisses).
				Int64("cache_errors", snap.CacheErrors).
				Int64("duplicates", snap.Duplicates).
				Int64("processing_errors", snap.ProcessingErrors).
				Msg("Acquisition run finished")
			return nil
		},
	}

	addCommonFlags(cmd)
	cmd.Flags().StringVar(&cfg.ConfigFile, "config", "harvester.yaml", "Path to acquisition config (providers, rules, sources)")
	cmd.Flags().IntVar(&cfg.WorkerCount, "workers", 4, "Number of acquisition workers")
	cmd.Flags().Int64Var(&cfg.MaxItems, "max-items", 0, "Stop after storing this many records (0 = unbounded)")
	cmd.Flags().DurationVar(&cfg.Politeness, "politeness", 0, "Minimum delay between fetches against one source per worker")
	cmd.Flags().BoolVar(&cfg.DistributedLimit, "distributed-limit", false, "Coordinate provider rate limits through Redis")
	cmd.Flags().BoolVar(&cfg.ExitOnEmpty, "exit-on-empty", false, "Exit once the target queue drains instead of polling")
	cmd.Flags().IntVar(&cfg.MetricsPort, "metrics-port", 9190, "Port for Metrics server")

	cmd.PersistentFlags().Bool("help", false, "Show help for harvester command")
	return cmd
}

func newCmdRootCacheAdmin() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "cacheadmin [flags]",
		Short: "Administer the provider response cache",
		Long:  `Clear cached provider responses, for one provider or all of them.`,
		Example: heredoc.Doc(`
			$ cacheadmin --cache-dir /var/lib/harvester/cache
			$ cacheadmin --cache-backend redis --redis-addr "redis:6379" --provider zillow
		`),
		Annotations: map[string]string{
			"versionInfo": "1.0",
		},
		RunE: func(c *cobra.Command, args []string) error {
			f := cmdfactory.AdminNew(&cfg)

			removed, err := f.Cache.Clear(context.Background(), cfg.ClearProvider)
			if err != nil {
				return err
			}
			log.Info().Int("removed", removed).Str("provider", cfg.ClearProvider).Msg("Cache cleared")
			return nil
		},
	}

	addCommonFlags(cmd)
	cmd.Flags().StringVar(&cfg.ClearProvider, "provider", "", "Clear only this provider's entries (default: all)")

	cmd.PersistentFlags().Bool("help", false, "Show help for cacheadmin command")
	return cmd
}

var cmdHarvester = newCmdRootHarvester()
var cmdCacheAdmin = newCmdRootCacheAdmin()

func addCommonFlags(cmd *cobra.Command) {
	// Redis
	cmd.Flags().StringVar(&cfg.RedisAddr, "redis-addr", "", "Address of Redis server (empty = in-memory queue and cache coordination)")
	cmd.Flags().StringVar(&cfg.RedisPassword, "redis-pass", "", "Password of Redis server")
	cmd.Flags().IntVar(&cfg.RedisDB, "redis-db", 0, "Redis DB number")

	// Postgres
	cmd.Flags().StringVar(&cfg.PostgresDSN, "postgres-dsn", "", "Postgres DSN for the listings store (empty = in-memory)")

	// Response cache
	cmd.Flags().StringVar(&cfg.CacheBackend, "cache-backend", "disk", "Cache backend: disk, redis or memory")
	cmd.Flags().StringVar(&cfg.CacheDir, "cache-dir", "./cache", "Directory for the disk cache backend")

	// MinIO / S3 raw payload archive
	cmd.Flags().BoolVar(&cfg.ArchiveEnabled, "archive", false, "Archive raw payloads to S3 before validation")
	cmd.Flags().StringVar(&cfg.S3Endpoint, "s3-endpoint", "http://localhost:9000", "S3 Endpoint URL")
	cmd.Flags().StringVar(&cfg.S3Bucket, "s3-bucket", "raw-listings", "S3 Bucket name")
	cmd.Flags().StringVar(&cfg.S3Region, "s3-region", "us-east-1", "S3 Region")
	cmd.Flags().StringVar(&cfg.S3User, "s3-user", "admin", "S3 Access Key / User")
	cmd.Flags().StringVar(&cfg.S3Password, "s3-pass", "password", "S3 Secret Key / Password")
}

func ExecuteHarvester() {
	if err := cmdHarvester.Execute(); err != nil {
		log.Fatal().Msg("Error while executing harvester")
	}
}

func ExecuteCacheAdmin() {
	if err := cmdCacheAdmin.Execute(); err != nil {
		log.Fatal().Msg("Error while executing cacheadmin")
	}
}
