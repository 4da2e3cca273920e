package cli

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"
	"globetrotter/internal/config"
	pgstore "globetrotter/internal/infra/postgres"
	redisstore "globetrotter/internal/infra/redis"
)

// NewSeedCmd loads a destination catalog into Postgres.
func NewSeedCmd(configPath *string) *cobra.Command {
	var file string
	cmd := &cobra.Command{
		Use:   "seed",
		Short: "Upsert the destination catalog into Postgres",
		Long:  "Upsert destinations from a YAML file (or the built-in catalog when --file is empty) and drop the cached copy in Redis.",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			cfg, err := config.Load(*configPath)
			if err != nil {
				return err
			}
			logger := newLogger(os.Stderr, cfg)
			if cfg.Postgres.URL == "" {
				return fmt.Errorf("postgres url not configured")
			}
			if err := runMigrationsWithConfig(ctx, cfg, logger); err != nil {
				return err
			}

			destinations, err := loadCatalogFile(file)
			if err != nil {
				return err
			}

			b, err := openBackends(ctx, cfg)
			if err != nil {
				return err
			}
			defer b.close()

			n, err := pgstore.SeedDestinations(ctx, b.db, destinations)
			if err != nil {
				return err
			}
			if b.redis != nil {
				cache := redisstore.NewCatalogRepository(b.redis, nil, config.TTLDuration(cfg.Catalog.TTL, 10*time.Minute), logger)
				if err := cache.Invalidate(ctx); err != nil {
					logger.Warn("catalog cache not invalidated", "op", "seed", "error", err)
				}
			}
			logger.Info("catalog seeded", "op", "seed", "destinations", n)
			fmt.Fprintf(cmd.OutOrStdout(), "seeded %d destinations\n", n)
			return nil
		},
	}
	cmd.Flags().StringVar(&file, "file", "", "YAML catalog to load (defaults to the built-in catalog)")
	return cmd
}
