package redis

import (
	"bytes"
	"context"
	"io"
	"log/slog"
	"strings"
	"sync"
	"testing"
	"time"

	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"globetrotter/internal/domain"
	"globetrotter/internal/infra/memory"
)

func TestCatalogRepositoryCachesInRedis(t *testing.T) {
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("run miniredis: %v", err)
	}
	defer mr.Close()

	loader := &countingLoader{
		CatalogLoader: memory.NewStaticCatalogLoader(sampleCatalog()),
	}
	repo := NewCatalogRepository(newClient(mr), loader, time.Minute, quietLogger())

	got, err := repo.Destinations(context.Background())
	if err != nil {
		t.Fatalf("destinations: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("expected 2 destinations, got %d", len(got))
	}
	if loader.count() != 1 {
		t.Fatalf("expected loader called once, got %d", loader.count())
	}
	if !mr.Exists("catalog:destinations") {
		t.Fatalf("expected catalog key in redis")
	}

	// Second call should hit cache, loader not incremented.
	got, _ = repo.Destinations(context.Background())
	if loader.count() != 1 {
		t.Fatalf("expected cache hit, loader calls=%d", loader.count())
	}
	if got[0].Location() != "Alpha, Aland" || len(got[0].Clues) != 2 {
		t.Fatalf("cached catalog lost fields: %+v", got[0])
	}

	mr.FastForward(2 * time.Minute)
	_, _ = repo.Destinations(context.Background())
	if loader.count() != 2 {
		t.Fatalf("expected reload after expiry, loader calls=%d", loader.count())
	}
}

func TestCatalogRepositoryInvalidate(t *testing.T) {
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("run miniredis: %v", err)
	}
	defer mr.Close()

	loader := &countingLoader{
		CatalogLoader: memory.NewStaticCatalogLoader(sampleCatalog()),
	}
	repo := NewCatalogRepository(newClient(mr), loader, time.Hour, quietLogger())
	if _, err := repo.Destinations(context.Background()); err != nil {
		t.Fatalf("destinations: %v", err)
	}
	if err := repo.Invalidate(context.Background()); err != nil {
		t.Fatalf("invalidate: %v", err)
	}
	if mr.Exists("catalog:destinations") {
		t.Fatalf("expected catalog key removed")
	}
	if _, err := repo.Destinations(context.Background()); err != nil {
		t.Fatalf("destinations: %v", err)
	}
	if loader.count() != 2 {
		t.Fatalf("expected reload after invalidate, loader calls=%d", loader.count())
	}
}

func TestCatalogRepositoryFallsBackWhenRedisDown(t *testing.T) {
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("run miniredis: %v", err)
	}
	client := newClient(mr)
	mr.Close()

	var logs bytes.Buffer
	handler := slog.NewTextHandler(&logs, &slog.HandlerOptions{Level: slog.LevelWarn})
	repo := NewCatalogRepository(client, memory.NewStaticCatalogLoader(sampleCatalog()), time.Minute, slog.New(handler))
	got, err := repo.Destinations(context.Background())
	if err != nil {
		t.Fatalf("expected loader fallback, got %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("expected 2 destinations, got %d", len(got))
	}
	if !strings.Contains(logs.String(), "catalog cache write failed") {
		t.Fatalf("expected failed cache write to be logged, got %q", logs.String())
	}
}

type countingLoader struct {
	memory.CatalogLoader
	mu    sync.Mutex
	calls int
}

func (l *countingLoader) LoadDestinations(ctx context.Context) ([]domain.Destination, error) {
	l.mu.Lock()
	l.calls++
	l.mu.Unlock()
	return l.CatalogLoader.LoadDestinations(ctx)
}

func (l *countingLoader) count() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.calls
}

func sampleCatalog() []domain.Destination {
	return []domain.Destination{
		{ID: "A", City: "Alpha", Country: "Aland", Clues: []string{"c1", "c2"}, FunFacts: []string{"f1"}},
		{ID: "B", City: "Bravo", Country: "Bland", Clues: []string{"c1"}, FunFacts: []string{}},
	}
}

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newClient(mr *miniredis.Miniredis) *redis.Client {
	return redis.NewClient(&redis.Options{
		Addr: mr.Addr(),
	})
}
