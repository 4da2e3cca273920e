package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/uptrace/bun"
	"globetrotter/internal/domain"
)

// UserStore persists players and their counters in the users table.
type UserStore struct {
	db *bun.DB
}

func NewUserStore(db *bun.DB) *UserStore {
	return &UserStore{db: db}
}

func (s *UserStore) Create(ctx context.Context, user domain.User) error {
	row := userRow{
		ID:          user.ID,
		Username:    user.Username,
		Correct:     user.Score.Correct,
		Incorrect:   user.Score.Incorrect,
		HighScore:   user.HighScore,
		GamesPlayed: user.GamesPlayed,
		CreatedAt:   user.CreatedAt,
	}
	if _, err := s.db.NewInsert().Model(&row).Exec(ctx); err != nil {
		if isUniqueViolation(err) {
			return domain.ErrUsernameTaken
		}
		return fmt.Errorf("insert user: %w", err)
	}
	return nil
}

func (s *UserStore) GetByID(ctx context.Context, id string) (domain.User, error) {
	return s.getBy(ctx, "id = ?", id)
}

func (s *UserStore) GetByUsername(ctx context.Context, username string) (domain.User, error) {
	return s.getBy(ctx, "username = ?", username)
}

func (s *UserStore) getBy(ctx context.Context, where string, arg string) (domain.User, error) {
	var row userRow
	err := s.db.NewSelect().Model(&row).Where(where, arg).Limit(1).Scan(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.User{}, domain.ErrUserNotFound
		}
		return domain.User{}, fmt.Errorf("select user: %w", err)
	}
	return row.toDomain(), nil
}

func (s *UserStore) List(ctx context.Context) ([]domain.User, error) {
	var rows []userRow
	if err := s.db.NewSelect().Model(&rows).OrderExpr("created_at ASC, id ASC").Scan(ctx); err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	users := make([]domain.User, 0, len(rows))
	for _, r := range rows {
		users = append(users, r.toDomain())
	}
	return users, nil
}

func (s *UserStore) Totals(ctx context.Context) (int, int, error) {
	var users, games int
	err := s.db.NewSelect().
		Model((*userRow)(nil)).
		ColumnExpr("COUNT(*)").
		ColumnExpr("COALESCE(SUM(games_played), 0)").
		Scan(ctx, &users, &games)
	if err != nil {
		return 0, 0, fmt.Errorf("user totals: %w", err)
	}
	return users, games, nil
}

// RecordAnswer increments one counter in place. The high score is raised in
// the same statement so concurrent answers cannot lose an update.
func (s *UserStore) RecordAnswer(ctx context.Context, id string, correct bool) (domain.User, error) {
	q := s.db.NewUpdate().Model((*userRow)(nil))
	if correct {
		q = q.Set("correct = correct + 1").
			Set("high_score = GREATEST(high_score, correct + 1)")
	} else {
		q = q.Set("incorrect = incorrect + 1")
	}
	return s.updateReturning(ctx, q, id)
}

func (s *UserStore) CompleteGame(ctx context.Context, id string) (domain.User, error) {
	q := s.db.NewUpdate().Model((*userRow)(nil)).Set("games_played = games_played + 1")
	return s.updateReturning(ctx, q, id)
}

func (s *UserStore) ResetScore(ctx context.Context, id string) (domain.User, error) {
	q := s.db.NewUpdate().Model((*userRow)(nil)).Set("correct = 0").Set("incorrect = 0")
	return s.updateReturning(ctx, q, id)
}

func (s *UserStore) updateReturning(ctx context.Context, q *bun.UpdateQuery, id string) (domain.User, error) {
	var row userRow
	err := q.Where("id = ?", id).Returning("*").Scan(ctx, &row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.User{}, domain.ErrUserNotFound
		}
		return domain.User{}, fmt.Errorf("update user: %w", err)
	}
	return row.toDomain(), nil
}
