package app_test

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"math/rand"
	"sync"
	"time"

	"github.com/brianvoe/gofakeit/v7"
	"globetrotter/internal/app"
	"globetrotter/internal/domain"
	"globetrotter/internal/infra/memory"
)

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func testOptions(seed int64) []app.Option {
	return []app.Option{
		app.WithLogger(quietLogger()),
		app.WithRand(rand.New(rand.NewSource(seed))),
	}
}

// fakeCatalog generates n destinations with unique IDs and 1 to 4 clues each.
func fakeCatalog(seed uint64, n int) []domain.Destination {
	faker := gofakeit.New(seed)
	out := make([]domain.Destination, 0, n)
	for i := 0; i < n; i++ {
		clues := make([]string, faker.Number(1, 4))
		for j := range clues {
			clues[j] = faker.Sentence(6)
		}
		out = append(out, domain.Destination{
			ID:       fmt.Sprintf("dest-%02d", i),
			City:     faker.City(),
			Country:  faker.Country(),
			Clues:    clues,
			FunFacts: []string{faker.Sentence(8), faker.Sentence(8)},
		})
	}
	return out
}

func newQuestionService(destinations []domain.Destination, tracker app.UsedDestinationTracker, seed int64) *app.QuestionService {
	repo := memory.NewCatalogRepository(memory.NewStaticCatalogLoader(destinations), time.Minute)
	return app.NewQuestionService(repo, tracker, testOptions(seed)...)
}

type failingTracker struct{}

func (failingTracker) Used(context.Context, string) (map[string]struct{}, error) {
	return nil, errors.New("tracker down")
}

func (failingTracker) MarkUsed(context.Context, string, string) error {
	return errors.New("tracker down")
}

type failingCatalog struct{}

func (failingCatalog) Destinations(context.Context) ([]domain.Destination, error) {
	return nil, errors.New("catalog down")
}

type manualClock struct {
	mu  sync.Mutex
	now time.Time
}

func newManualClock() *manualClock {
	return &manualClock{now: time.Date(2024, 11, 22, 12, 0, 0, 0, time.UTC)}
}

func (c *manualClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *manualClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	c.mu.Unlock()
}
