package memory

import (
	"context"
	"math/rand"
	"sync"
	"time"

	"globetrotter/internal/domain"
	"golang.org/x/sync/singleflight"
)

// CatalogLoader fetches the destination catalog from a backing store.
type CatalogLoader interface {
	LoadDestinations(ctx context.Context) ([]domain.Destination, error)
}

const catalogKey = "catalog"

// CatalogRepository caches the catalog with TTL to avoid repeated loads.
type CatalogRepository struct {
	loader CatalogLoader
	ttl    time.Duration
	clock  func() time.Time
	sf     singleflight.Group
	rnd    *rand.Rand
	rndMu  sync.Mutex

	mu        sync.RWMutex
	cached    []domain.Destination
	expiresAt time.Time
}

func NewCatalogRepository(loader CatalogLoader, ttl time.Duration) *CatalogRepository {
	return &CatalogRepository{
		loader: loader,
		ttl:    ttl,
		clock:  time.Now,
		rnd:    rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

func (r *CatalogRepository) Destinations(ctx context.Context) ([]domain.Destination, error) {
	if destinations, ok := r.fresh(r.clock()); ok {
		return destinations, nil
	}

	result, err, _ := r.sf.Do(catalogKey, func() (interface{}, error) {
		now := r.clock()
		if destinations, ok := r.fresh(now); ok {
			return destinations, nil
		}

		destinations, err := r.loader.LoadDestinations(ctx)
		if err != nil {
			return nil, err
		}

		r.mu.Lock()
		r.cached = destinations
		r.expiresAt = now.Add(r.ttlWithJitter())
		r.mu.Unlock()
		return destinations, nil
	})
	if err != nil {
		return nil, err
	}
	return result.([]domain.Destination), nil
}

func (r *CatalogRepository) fresh(now time.Time) ([]domain.Destination, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if r.cached != nil && r.expiresAt.After(now) {
		return r.cached, true
	}
	return nil, false
}

// StaticCatalogLoader serves a fixed catalog (embedded default, file, tests).
type StaticCatalogLoader struct {
	destinations []domain.Destination
}

func NewStaticCatalogLoader(destinations []domain.Destination) *StaticCatalogLoader {
	return &StaticCatalogLoader{destinations: destinations}
}

func (l *StaticCatalogLoader) LoadDestinations(_ context.Context) ([]domain.Destination, error) {
	if l.destinations == nil {
		return []domain.Destination{}, nil
	}
	return l.destinations, nil
}

func (r *CatalogRepository) ttlWithJitter() time.Duration {
	if r.ttl <= 0 {
		return 0
	}
	// add up to 10% jitter to spread expirations
	jitterMax := int64(r.ttl) / 10
	r.rndMu.Lock()
	defer r.rndMu.Unlock()
	return r.ttl + time.Duration(r.rnd.Int63n(jitterMax+1))
}
