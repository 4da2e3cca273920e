package app_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"globetrotter/internal/app"
	"globetrotter/internal/auth"
	"globetrotter/internal/domain"
	"globetrotter/internal/infra/memory"
)

func newAdminFixture(t *testing.T) (*app.AdminService, *app.ScoreService) {
	t.Helper()
	opts := testOptions(1)
	users := memory.NewUserStore()
	leaderboard := app.NewLeaderboardService(memory.NewLeaderboardStore(), app.DefaultLeaderboardSize, opts...)
	tokens, err := auth.NewTokenService("admin-secret", time.Hour)
	require.NoError(t, err)
	return app.NewAdminService(memory.NewAdminStore(), users, leaderboard, tokens, opts...),
		app.NewScoreService(users, leaderboard, opts...)
}

func TestAdminLoginAndAuthorize(t *testing.T) {
	ctx := context.Background()
	admin, _ := newAdminFixture(t)

	created, err := admin.CreateAdmin(ctx, "root", "correct-horse")
	require.NoError(t, err)
	assert.NotEqual(t, "correct-horse", created.PasswordHash)

	_, err = admin.CreateAdmin(ctx, "root", "another-pass")
	assert.True(t, errors.Is(err, domain.ErrAdminExists), err)
	_, err = admin.CreateAdmin(ctx, "short", "1234567")
	assert.True(t, errors.Is(err, domain.ErrInvalidPassword), err)

	_, err = admin.Login(ctx, "root", "wrong-password")
	assert.True(t, errors.Is(err, domain.ErrInvalidCredentials), err)
	_, err = admin.Login(ctx, "nobody", "correct-horse")
	assert.True(t, errors.Is(err, domain.ErrInvalidCredentials), err)

	token, err := admin.Login(ctx, "root", "correct-horse")
	require.NoError(t, err)

	subject, err := admin.Authorize(token)
	require.NoError(t, err)
	assert.Equal(t, created.ID, subject)

	_, err = admin.Authorize("")
	assert.True(t, errors.Is(err, domain.ErrUnauthorized), err)
	_, err = admin.Authorize(token + "x")
	assert.True(t, errors.Is(err, domain.ErrUnauthorized), err)
}

func TestAdminStats(t *testing.T) {
	ctx := context.Background()
	admin, scores := newAdminFixture(t)

	stats, err := admin.Stats(ctx)
	require.NoError(t, err)
	assert.Equal(t, 0, stats.TotalUsers)
	assert.Equal(t, 0.0, stats.AverageScore)
	assert.NotNil(t, stats.TopPlayers)

	results := map[string]int{"ann": 2, "ben": 8, "cat": 5, "dan": 0, "eve": 9, "fay": 3, "gus": 6}
	for name, correct := range results {
		u, err := scores.Register(ctx, name)
		require.NoError(t, err)
		playGame(t, scores, u.ID, correct, 10-correct)
	}
	// A second, worse game for eve counts as played but leaves her best in place.
	eve, err := scores.Register(ctx, "eve")
	require.NoError(t, err)
	playGame(t, scores, eve.ID, 1, 9)

	stats, err = admin.Stats(ctx)
	require.NoError(t, err)
	assert.Equal(t, 7, stats.TotalUsers)
	assert.Equal(t, 8, stats.TotalGamesPlayed)
	assert.InDelta(t, 33.0/7, stats.AverageScore, 1e-9)
	require.Len(t, stats.TopPlayers, 5)
	names := []string{}
	for _, e := range stats.TopPlayers {
		names = append(names, e.Username)
	}
	assert.Equal(t, []string{"eve", "ben", "gus", "cat", "fay"}, names)

	users, err := admin.Users(ctx)
	require.NoError(t, err)
	assert.Len(t, users, 7)
}
