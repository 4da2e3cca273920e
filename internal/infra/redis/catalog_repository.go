package redis

import (
	"context"
	"encoding/json"
	"log/slog"
	"math/rand"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
	"globetrotter/internal/domain"
	"golang.org/x/sync/singleflight"
)

// CatalogLoader fetches the destination catalog from a backing store.
type CatalogLoader interface {
	LoadDestinations(ctx context.Context) ([]domain.Destination, error)
}

const catalogKey = "catalog:destinations"

// CatalogRepository caches the catalog in Redis and falls back to a loader on cache miss.
// The catalog is stored as one JSON document: SET catalog:destinations [...] EX {ttl}
type CatalogRepository struct {
	client *redis.Client
	loader CatalogLoader
	ttl    time.Duration
	logger *slog.Logger
	sf     singleflight.Group

	rndMu sync.Mutex
	rnd   *rand.Rand
}

// NewCatalogRepository wires the cache. A nil logger falls back to slog.Default.
func NewCatalogRepository(client *redis.Client, loader CatalogLoader, ttl time.Duration, logger *slog.Logger) *CatalogRepository {
	if logger == nil {
		logger = slog.Default()
	}
	return &CatalogRepository{
		client: client,
		loader: loader,
		ttl:    ttl,
		logger: logger,
		rnd:    rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

func (r *CatalogRepository) Destinations(ctx context.Context) ([]domain.Destination, error) {
	if destinations, ok := r.cached(ctx); ok {
		return destinations, nil
	}

	result, err, _ := r.sf.Do(catalogKey, func() (interface{}, error) {
		// Re-check cache in case another instance filled it.
		if destinations, ok := r.cached(ctx); ok {
			return destinations, nil
		}

		destinations, err := r.loader.LoadDestinations(ctx)
		if err != nil {
			return nil, err
		}

		r.store(ctx, destinations)
		return destinations, nil
	})
	if err != nil {
		return nil, err
	}
	return result.([]domain.Destination), nil
}

// store writes the catalog to Redis. A failed write only costs a reload later.
func (r *CatalogRepository) store(ctx context.Context, destinations []domain.Destination) {
	data, err := json.Marshal(destinations)
	if err != nil {
		r.logger.Warn("catalog cache encode failed", "op", "catalog_cache", "error", err)
		return
	}
	if err := r.client.Set(ctx, catalogKey, data, r.ttlWithJitter()).Err(); err != nil {
		r.logger.Warn("catalog cache write failed", "op", "catalog_cache", "key", catalogKey, "error", err)
	}
}

func (r *CatalogRepository) cached(ctx context.Context) ([]domain.Destination, bool) {
	raw, err := r.client.Get(ctx, catalogKey).Bytes()
	if err != nil || len(raw) == 0 {
		return nil, false
	}
	var destinations []domain.Destination
	if err := json.Unmarshal(raw, &destinations); err != nil || len(destinations) == 0 {
		return nil, false
	}
	return destinations, true
}

func (r *CatalogRepository) ttlWithJitter() time.Duration {
	if r.ttl <= 0 {
		return 0
	}
	jitterMax := int64(r.ttl) / 10
	r.rndMu.Lock()
	defer r.rndMu.Unlock()
	return r.ttl + time.Duration(r.rnd.Int63n(jitterMax+1))
}

// Invalidate drops the cached catalog so the next read goes to the loader.
func (r *CatalogRepository) Invalidate(ctx context.Context) error {
	return r.client.Del(ctx, catalogKey).Err()
}
