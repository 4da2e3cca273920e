package postgres

import (
	"context"
	"fmt"

	"github.com/uptrace/bun"
	"globetrotter/internal/domain"
)

const rankOrder = "score DESC, achieved_at ASC, user_id ASC"

// LeaderboardStore keeps the best score per user in the leaderboard table.
type LeaderboardStore struct {
	db *bun.DB
}

func NewLeaderboardStore(db *bun.DB) *LeaderboardStore {
	return &LeaderboardStore{db: db}
}

// Upsert inserts entry or raises an existing row when entry.Score is strictly
// greater, then trims the table to limit rows. Both happen in one transaction.
func (s *LeaderboardStore) Upsert(ctx context.Context, entry domain.LeaderboardEntry, limit int) (bool, error) {
	updated := false
	err := s.db.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		res, err := tx.ExecContext(ctx, `
INSERT INTO leaderboard (user_id, username, score, achieved_at)
VALUES (?, ?, ?, ?)
ON CONFLICT (user_id) DO UPDATE
SET username = EXCLUDED.username, score = EXCLUDED.score, achieved_at = EXCLUDED.achieved_at
WHERE leaderboard.score < EXCLUDED.score`,
			entry.UserID, entry.Username, entry.Score, entry.AchievedAt)
		if err != nil {
			return fmt.Errorf("upsert leaderboard: %w", err)
		}
		affected, err := res.RowsAffected()
		if err != nil {
			return err
		}
		if affected == 0 {
			return nil
		}
		updated = true
		if limit <= 0 {
			return nil
		}

		rows, err := tx.QueryContext(ctx, `
DELETE FROM leaderboard
WHERE user_id NOT IN (SELECT user_id FROM leaderboard ORDER BY `+rankOrder+` LIMIT ?)
RETURNING user_id`, limit)
		if err != nil {
			return fmt.Errorf("trim leaderboard: %w", err)
		}
		defer rows.Close()
		for rows.Next() {
			var dropped string
			if err := rows.Scan(&dropped); err != nil {
				return err
			}
			if dropped == entry.UserID {
				updated = false
			}
		}
		return rows.Err()
	})
	if err != nil {
		return false, err
	}
	return updated, nil
}

func (s *LeaderboardStore) Top(ctx context.Context, n int) ([]domain.LeaderboardEntry, error) {
	var rows []leaderboardRow
	q := s.db.NewSelect().Model(&rows).OrderExpr(rankOrder)
	if n > 0 {
		q = q.Limit(n)
	}
	if err := q.Scan(ctx); err != nil {
		return nil, fmt.Errorf("select leaderboard: %w", err)
	}
	entries := make([]domain.LeaderboardEntry, 0, len(rows))
	for _, r := range rows {
		entries = append(entries, r.toDomain())
	}
	return entries, nil
}

func (s *LeaderboardStore) Average(ctx context.Context) (float64, error) {
	var avg float64
	err := s.db.NewSelect().
		Model((*leaderboardRow)(nil)).
		ColumnExpr("COALESCE(AVG(score), 0)::float8").
		Scan(ctx, &avg)
	if err != nil {
		return 0, fmt.Errorf("average leaderboard: %w", err)
	}
	return avg, nil
}
