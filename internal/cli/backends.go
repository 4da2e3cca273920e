package cli

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/jackc/pgx/v4/pgxpool"
	"github.com/redis/go-redis/v9"
	"github.com/uptrace/bun"
	"globetrotter/internal/app"
	"globetrotter/internal/catalog"
	"globetrotter/internal/config"
	"globetrotter/internal/domain"
	"globetrotter/internal/infra/memory"
	pgstore "globetrotter/internal/infra/postgres"
	redisstore "globetrotter/internal/infra/redis"
)

// backends holds the optional external stores. A nil field means the
// in-memory adapter is used for that concern.
type backends struct {
	db    *bun.DB
	pool  *pgxpool.Pool
	redis *redis.Client
}

func openBackends(ctx context.Context, cfg config.Config) (*backends, error) {
	b := &backends{}
	if cfg.Postgres.URL != "" {
		b.db = pgstore.Open(cfg.Postgres.URL)
		pool, err := pgxpool.Connect(ctx, cfg.Postgres.URL)
		if err != nil {
			b.close()
			return nil, fmt.Errorf("connect postgres: %w", err)
		}
		b.pool = pool
	}
	if cfg.Redis.Addr != "" {
		b.redis = redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
	}
	return b, nil
}

func (b *backends) close() {
	if b.redis != nil {
		_ = b.redis.Close()
	}
	if b.pool != nil {
		b.pool.Close()
	}
	if b.db != nil {
		_ = b.db.Close()
	}
}

// catalogLoader prefers Postgres, then a configured YAML file, then the
// embedded catalog.
func (b *backends) catalogLoader(cfg config.Config) (memory.CatalogLoader, error) {
	if b.pool != nil {
		return pgstore.NewCatalogLoader(b.pool), nil
	}
	destinations, err := loadCatalogFile(cfg.Catalog.File)
	if err != nil {
		return nil, err
	}
	return memory.NewStaticCatalogLoader(destinations), nil
}

func loadCatalogFile(path string) ([]domain.Destination, error) {
	if path == "" {
		return catalog.Default()
	}
	return catalog.LoadFile(path)
}

func (b *backends) catalogRepository(cfg config.Config, loader memory.CatalogLoader, logger *slog.Logger) app.CatalogRepository {
	ttl := config.TTLDuration(cfg.Catalog.TTL, 10*time.Minute)
	if b.redis != nil {
		return redisstore.NewCatalogRepository(b.redis, loader, ttl, logger)
	}
	return memory.NewCatalogRepository(loader, ttl)
}

func (b *backends) tracker(cfg config.Config) app.UsedDestinationTracker {
	ttl := config.TTLDuration(cfg.Redis.TTL, memory.DefaultUsedTTL)
	if b.redis != nil {
		return redisstore.NewUsedDestinationTracker(b.redis, ttl)
	}
	return memory.NewUsedDestinationTracker(ttl)
}

func (b *backends) users() app.UserRepository {
	if b.db != nil {
		return pgstore.NewUserStore(b.db)
	}
	return memory.NewUserStore()
}

func (b *backends) leaderboard() app.LeaderboardRepository {
	if b.db != nil {
		return pgstore.NewLeaderboardStore(b.db)
	}
	return memory.NewLeaderboardStore()
}

func (b *backends) admins() app.AdminRepository {
	if b.db != nil {
		return pgstore.NewAdminStore(b.db)
	}
	return memory.NewAdminStore()
}

func logBackends(logger *slog.Logger, b *backends) {
	logger.Info("storage configured",
		"postgres", b.db != nil,
		"redis", b.redis != nil)
}
