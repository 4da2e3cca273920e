package postgres

import (
	"time"

	"github.com/uptrace/bun"
	"globetrotter/internal/domain"
)

type destinationRow struct {
	bun.BaseModel `bun:"table:destinations,alias:d"`

	ID   string             `bun:"id,pk"`
	Data domain.Destination `bun:"data,type:jsonb,notnull"`
}

type userRow struct {
	bun.BaseModel `bun:"table:users,alias:u"`

	ID          string    `bun:"id,pk"`
	Username    string    `bun:"username,unique,notnull"`
	Correct     int       `bun:"correct,notnull"`
	Incorrect   int       `bun:"incorrect,notnull"`
	HighScore   int       `bun:"high_score,notnull"`
	GamesPlayed int       `bun:"games_played,notnull"`
	CreatedAt   time.Time `bun:"created_at,notnull"`
}

func (r userRow) toDomain() domain.User {
	return domain.User{
		ID:       r.ID,
		Username: r.Username,
		Score: domain.Score{
			Correct:   r.Correct,
			Incorrect: r.Incorrect,
		},
		HighScore:   r.HighScore,
		GamesPlayed: r.GamesPlayed,
		CreatedAt:   r.CreatedAt,
	}
}

type leaderboardRow struct {
	bun.BaseModel `bun:"table:leaderboard,alias:lb"`

	UserID     string    `bun:"user_id,pk"`
	Username   string    `bun:"username,notnull"`
	Score      int       `bun:"score,notnull"`
	AchievedAt time.Time `bun:"achieved_at,notnull"`
}

func (r leaderboardRow) toDomain() domain.LeaderboardEntry {
	return domain.LeaderboardEntry{
		UserID:     r.UserID,
		Username:   r.Username,
		Score:      r.Score,
		AchievedAt: r.AchievedAt,
	}
}

type adminRow struct {
	bun.BaseModel `bun:"table:admins,alias:a"`

	ID           string    `bun:"id,pk"`
	Username     string    `bun:"username,unique,notnull"`
	PasswordHash string    `bun:"password_hash,notnull"`
	CreatedAt    time.Time `bun:"created_at,notnull"`
}
