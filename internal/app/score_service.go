package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"globetrotter/internal/domain"
)

// ScoreSubmitter receives finished game scores.
type ScoreSubmitter interface {
	Submit(ctx context.Context, userID, username string, score int) (bool, error)
}

// ScoreService tracks per-user game counters and lifetime stats.
type ScoreService struct {
	users           UserRepository
	leaderboard     ScoreSubmitter
	logger          *slog.Logger
	recorder        Recorder
	now             func() time.Time
	resetOnRegister bool
}

func NewScoreService(users UserRepository, leaderboard ScoreSubmitter, opts ...Option) *ScoreService {
	o := newOptions(opts)
	return &ScoreService{
		users:           users,
		leaderboard:     leaderboard,
		logger:          o.logger,
		recorder:        o.recorder,
		now:             o.now,
		resetOnRegister: o.resetOnRegister,
	}
}

// Register returns the user called username, creating it on first use.
// An existing user is returned untouched unless reset-on-register is enabled.
func (s *ScoreService) Register(ctx context.Context, username string) (domain.User, error) {
	username, err := NormalizeUsername(username)
	if err != nil {
		return domain.User{}, err
	}

	user, err := s.users.GetByUsername(ctx, username)
	switch {
	case err == nil:
		return s.returningUser(ctx, user)
	case !errors.Is(err, domain.ErrUserNotFound):
		return domain.User{}, fmt.Errorf("lookup user: %w", err)
	}

	user = domain.User{
		ID:        uuid.NewString(),
		Username:  username,
		CreatedAt: s.now().UTC(),
	}
	if err := s.users.Create(ctx, user); err != nil {
		if !errors.Is(err, domain.ErrUsernameTaken) {
			return domain.User{}, fmt.Errorf("create user: %w", err)
		}
		// Lost a race with a concurrent registration of the same name.
		existing, getErr := s.users.GetByUsername(ctx, username)
		if getErr != nil {
			return domain.User{}, fmt.Errorf("lookup user: %w", getErr)
		}
		return s.returningUser(ctx, existing)
	}
	s.logger.Info("user registered", "op", "register", "user", user.ID, "username", username)
	return user, nil
}

func (s *ScoreService) returningUser(ctx context.Context, user domain.User) (domain.User, error) {
	if !s.resetOnRegister || (user.Score.Correct == 0 && user.Score.Incorrect == 0) {
		return user, nil
	}
	reset, err := s.users.ResetScore(ctx, user.ID)
	if err != nil {
		return domain.User{}, fmt.Errorf("reset score: %w", err)
	}
	return reset, nil
}

// GetUser returns the user with id.
func (s *ScoreService) GetUser(ctx context.Context, id string) (domain.User, error) {
	user, err := s.users.GetByID(ctx, id)
	if err != nil {
		return domain.User{}, fmt.Errorf("get user: %w", err)
	}
	return user, nil
}

// RecordAnswer counts one answer and raises the high score when the running
// correct count passes it.
func (s *ScoreService) RecordAnswer(ctx context.Context, id string, correct bool) (domain.User, error) {
	user, err := s.users.RecordAnswer(ctx, id, correct)
	if err != nil {
		return domain.User{}, fmt.Errorf("record answer: %w", err)
	}
	s.recorder.AnswerRecorded(correct)
	return user, nil
}

// CompleteGame submits the correct count to the leaderboard and then counts a
// finished game. Games played only moves once the submission succeeds.
// Session counters are left as they are; see StartNewGame.
func (s *ScoreService) CompleteGame(ctx context.Context, id string) (domain.FinalScore, error) {
	user, err := s.users.GetByID(ctx, id)
	if err != nil {
		return domain.FinalScore{}, fmt.Errorf("complete game: %w", err)
	}
	score := user.Score.Correct
	updated, err := s.submit(ctx, "complete_game", user, score)
	if err != nil {
		return domain.FinalScore{}, err
	}
	if _, err := s.finishGame(ctx, id); err != nil {
		return domain.FinalScore{}, err
	}
	return domain.FinalScore{
		UserID:             user.ID,
		Username:           user.Username,
		Score:              score,
		LeaderboardUpdated: updated,
	}, nil
}

// UpdateScore records an answer and, when gameCompleted is set, completes the game.
// The final score is submitted before any counter changes.
func (s *ScoreService) UpdateScore(ctx context.Context, id string, correct, gameCompleted bool) (domain.User, error) {
	if !gameCompleted {
		return s.RecordAnswer(ctx, id, correct)
	}

	user, err := s.GetUser(ctx, id)
	if err != nil {
		return domain.User{}, err
	}
	final := user.Score.Correct
	if correct {
		final++
	}
	if _, err := s.submit(ctx, "update_score", user, final); err != nil {
		return domain.User{}, err
	}
	if _, err := s.RecordAnswer(ctx, id, correct); err != nil {
		return domain.User{}, err
	}
	return s.finishGame(ctx, id)
}

func (s *ScoreService) submit(ctx context.Context, op string, user domain.User, score int) (bool, error) {
	updated, err := s.leaderboard.Submit(ctx, user.ID, user.Username, score)
	if err != nil {
		s.logger.Error("leaderboard submission failed",
			"op", op, "user", user.ID, "score", score, "error", err)
		return false, err
	}
	return updated, nil
}

func (s *ScoreService) finishGame(ctx context.Context, id string) (domain.User, error) {
	user, err := s.users.CompleteGame(ctx, id)
	if err != nil {
		return domain.User{}, fmt.Errorf("complete game: %w", err)
	}
	s.recorder.GameCompleted(user.Score.Correct)
	return user, nil
}

// StartNewGame zeroes the session counters. High score and games played are kept.
func (s *ScoreService) StartNewGame(ctx context.Context, id string) (domain.User, error) {
	user, err := s.users.ResetScore(ctx, id)
	if err != nil {
		return domain.User{}, fmt.Errorf("start new game: %w", err)
	}
	return user, nil
}
