package app

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"globetrotter/internal/domain"
)

// DefaultLeaderboardSize is the number of entries kept on the global leaderboard.
const DefaultLeaderboardSize = 100

// LeaderboardService keeps the best score per user and fans out changes to subscribers.
type LeaderboardService struct {
	repo     LeaderboardRepository
	size     int
	logger   *slog.Logger
	recorder Recorder
	now      func() time.Time

	mu          sync.Mutex
	subscribers map[chan []domain.LeaderboardEntry]struct{}

	// publishMu orders snapshot reads with their delivery.
	publishMu sync.Mutex
}

func NewLeaderboardService(repo LeaderboardRepository, size int, opts ...Option) *LeaderboardService {
	o := newOptions(opts)
	if size <= 0 {
		size = DefaultLeaderboardSize
	}
	return &LeaderboardService{
		repo:        repo,
		size:        size,
		logger:      o.logger,
		recorder:    o.recorder,
		now:         o.now,
		subscribers: make(map[chan []domain.LeaderboardEntry]struct{}),
	}
}

// Submit records score for a user. The stored entry only changes when score is
// strictly greater than the current best; the return value reports whether it did.
func (s *LeaderboardService) Submit(ctx context.Context, userID, username string, score int) (bool, error) {
	if score < 0 {
		score = 0
	}
	updated, err := s.repo.Upsert(ctx, domain.LeaderboardEntry{
		UserID:     userID,
		Username:   username,
		Score:      score,
		AchievedAt: s.now().UTC(),
	}, s.size)
	if err != nil {
		return false, fmt.Errorf("submit leaderboard score: %w", err)
	}
	s.recorder.LeaderboardSubmitted(updated)
	if updated {
		s.publish(ctx)
	}
	return updated, nil
}

// Top returns the leaderboard, best first.
func (s *LeaderboardService) Top(ctx context.Context) ([]domain.LeaderboardEntry, error) {
	return s.TopN(ctx, s.size)
}

// TopN returns at most n entries, capped at the leaderboard size.
func (s *LeaderboardService) TopN(ctx context.Context, n int) ([]domain.LeaderboardEntry, error) {
	if n <= 0 || n > s.size {
		n = s.size
	}
	entries, err := s.repo.Top(ctx, n)
	if err != nil {
		return nil, fmt.Errorf("read leaderboard: %w", err)
	}
	if entries == nil {
		entries = []domain.LeaderboardEntry{}
	}
	return entries, nil
}

// Average is the unweighted mean of all stored scores, 0 when empty.
func (s *LeaderboardService) Average(ctx context.Context) (float64, error) {
	avg, err := s.repo.Average(ctx)
	if err != nil {
		return 0, fmt.Errorf("average leaderboard score: %w", err)
	}
	return avg, nil
}

// Subscribe returns a channel that receives the leaderboard after every change,
// starting with the current one. Slow readers only see the latest snapshot.
// The caller must invoke the returned cancel function to avoid leaks.
func (s *LeaderboardService) Subscribe(ctx context.Context) (<-chan []domain.LeaderboardEntry, func(), error) {
	initial, err := s.Top(ctx)
	if err != nil {
		return nil, nil, err
	}

	ch := make(chan []domain.LeaderboardEntry, 1)
	ch <- initial

	s.mu.Lock()
	s.subscribers[ch] = struct{}{}
	s.mu.Unlock()

	cancel := func() {
		s.mu.Lock()
		if _, ok := s.subscribers[ch]; ok {
			delete(s.subscribers, ch)
			close(ch)
		}
		s.mu.Unlock()
	}
	return ch, cancel, nil
}

func (s *LeaderboardService) publish(ctx context.Context) {
	s.publishMu.Lock()
	defer s.publishMu.Unlock()

	s.mu.Lock()
	empty := len(s.subscribers) == 0
	s.mu.Unlock()
	if empty {
		return
	}

	entries, err := s.Top(ctx)
	if err != nil {
		s.logger.Warn("leaderboard snapshot for subscribers failed", "op", "leaderboard_publish", "error", err)
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	for ch := range s.subscribers {
		select {
		case ch <- entries:
		default:
			select {
			case <-ch:
			default:
			}
			ch <- entries
		}
	}
}
