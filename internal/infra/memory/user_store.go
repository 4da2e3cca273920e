package memory

import (
	"context"
	"sort"
	"sync"

	"globetrotter/internal/domain"
)

// UserStore is an in-memory implementation of app.UserRepository.
type UserStore struct {
	mu         sync.RWMutex
	users      map[string]*domain.User
	byUsername map[string]string
}

func NewUserStore() *UserStore {
	return &UserStore{
		users:      make(map[string]*domain.User),
		byUsername: make(map[string]string),
	}
}

func (s *UserStore) Create(_ context.Context, user domain.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, taken := s.byUsername[user.Username]; taken {
		return domain.ErrUsernameTaken
	}
	u := user
	s.users[user.ID] = &u
	s.byUsername[user.Username] = user.ID
	return nil
}

func (s *UserStore) GetByID(_ context.Context, id string) (domain.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	user, ok := s.users[id]
	if !ok {
		return domain.User{}, domain.ErrUserNotFound
	}
	return *user, nil
}

func (s *UserStore) GetByUsername(_ context.Context, username string) (domain.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	id, ok := s.byUsername[username]
	if !ok {
		return domain.User{}, domain.ErrUserNotFound
	}
	return *s.users[id], nil
}

func (s *UserStore) List(_ context.Context) ([]domain.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]domain.User, 0, len(s.users))
	for _, u := range s.users {
		out = append(out, *u)
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.Before(out[j].CreatedAt)
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

func (s *UserStore) Totals(_ context.Context) (int, int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	games := 0
	for _, u := range s.users {
		games += u.GamesPlayed
	}
	return len(s.users), games, nil
}

func (s *UserStore) RecordAnswer(_ context.Context, id string, correct bool) (domain.User, error) {
	return s.mutate(id, func(u *domain.User) {
		if correct {
			u.Score.Correct++
		} else {
			u.Score.Incorrect++
		}
		if u.Score.Correct > u.HighScore {
			u.HighScore = u.Score.Correct
		}
	})
}

func (s *UserStore) CompleteGame(_ context.Context, id string) (domain.User, error) {
	return s.mutate(id, func(u *domain.User) {
		u.GamesPlayed++
	})
}

func (s *UserStore) ResetScore(_ context.Context, id string) (domain.User, error) {
	return s.mutate(id, func(u *domain.User) {
		u.Score = domain.Score{}
	})
}

func (s *UserStore) mutate(id string, fn func(*domain.User)) (domain.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	user, ok := s.users[id]
	if !ok {
		return domain.User{}, domain.ErrUserNotFound
	}
	fn(user)
	return *user, nil
}
