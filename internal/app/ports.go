package app

import (
	"context"

	"globetrotter/internal/domain"
)

// CatalogRepository returns the destination catalog. The returned slice is shared
// between callers and must not be modified.
type CatalogRepository interface {
	Destinations(ctx context.Context) ([]domain.Destination, error)
}

// UsedDestinationTracker remembers which destinations a user has already been served.
// Entries expire a fixed time after the last write.
type UsedDestinationTracker interface {
	Used(ctx context.Context, username string) (map[string]struct{}, error)
	MarkUsed(ctx context.Context, username, destinationID string) error
}

// UserRepository stores players. Counter mutations are applied atomically by the store.
type UserRepository interface {
	Create(ctx context.Context, user domain.User) error
	GetByID(ctx context.Context, id string) (domain.User, error)
	GetByUsername(ctx context.Context, username string) (domain.User, error)
	List(ctx context.Context) ([]domain.User, error)
	Totals(ctx context.Context) (users int, gamesPlayed int, err error)
	RecordAnswer(ctx context.Context, id string, correct bool) (domain.User, error)
	CompleteGame(ctx context.Context, id string) (domain.User, error)
	ResetScore(ctx context.Context, id string) (domain.User, error)
}

// LeaderboardRepository stores the best score per user.
//
// Upsert inserts the entry when the user has none, replaces it only when the new
// score is strictly greater, and then drops everything ranked below limit. It
// reports whether the stored entry changed.
type LeaderboardRepository interface {
	Upsert(ctx context.Context, entry domain.LeaderboardEntry, limit int) (bool, error)
	Top(ctx context.Context, n int) ([]domain.LeaderboardEntry, error)
	Average(ctx context.Context) (float64, error)
}

// AdminRepository stores operator accounts.
type AdminRepository interface {
	Create(ctx context.Context, admin domain.Admin) error
	GetByUsername(ctx context.Context, username string) (domain.Admin, error)
}

// TokenIssuer signs and verifies admin tokens.
type TokenIssuer interface {
	Issue(subject, username string) (string, error)
	Verify(token string) (subject string, err error)
}

// Recorder receives domain events for metrics.
type Recorder interface {
	QuestionServed(outcome string)
	AnswerRecorded(correct bool)
	GameCompleted(score int)
	LeaderboardSubmitted(updated bool)
}

type nopRecorder struct{}

func (nopRecorder) QuestionServed(string)     {}
func (nopRecorder) AnswerRecorded(bool)       {}
func (nopRecorder) GameCompleted(int)         {}
func (nopRecorder) LeaderboardSubmitted(bool) {}
