package memory

import (
	"context"
	"sort"
	"sync"

	"globetrotter/internal/domain"
)

// LeaderboardStore is an in-memory implementation of app.LeaderboardRepository.
// Entries are kept sorted: score desc, earlier AchievedAt, then user ID.
type LeaderboardStore struct {
	mu      sync.RWMutex
	entries []domain.LeaderboardEntry
}

func NewLeaderboardStore() *LeaderboardStore {
	return &LeaderboardStore{}
}

func (s *LeaderboardStore) Upsert(_ context.Context, entry domain.LeaderboardEntry, limit int) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	idx := -1
	for i := range s.entries {
		if s.entries[i].UserID == entry.UserID {
			idx = i
			break
		}
	}

	switch {
	case idx < 0:
		s.entries = append(s.entries, entry)
	case entry.Score > s.entries[idx].Score:
		s.entries[idx] = entry
	default:
		return false, nil
	}

	sort.SliceStable(s.entries, func(i, j int) bool {
		return ranksBefore(s.entries[i], s.entries[j])
	})
	if limit > 0 && len(s.entries) > limit {
		dropped := s.entries[limit:]
		s.entries = s.entries[:limit]
		for _, e := range dropped {
			if e.UserID == entry.UserID {
				return false, nil
			}
		}
	}
	return true, nil
}

func (s *LeaderboardStore) Top(_ context.Context, n int) ([]domain.LeaderboardEntry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if n <= 0 || n > len(s.entries) {
		n = len(s.entries)
	}
	out := make([]domain.LeaderboardEntry, n)
	copy(out, s.entries[:n])
	return out, nil
}

func (s *LeaderboardStore) Average(_ context.Context) (float64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if len(s.entries) == 0 {
		return 0, nil
	}
	sum := 0
	for _, e := range s.entries {
		sum += e.Score
	}
	return float64(sum) / float64(len(s.entries)), nil
}

func ranksBefore(a, b domain.LeaderboardEntry) bool {
	if a.Score != b.Score {
		return a.Score > b.Score
	}
	if !a.AchievedAt.Equal(b.AchievedAt) {
		return a.AchievedAt.Before(b.AchievedAt)
	}
	return a.UserID < b.UserID
}
