package http

import (
	"bytes"
	"encoding/json"
	"io"
	"log/slog"
	"math/rand"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"globetrotter/internal/app"
	"globetrotter/internal/auth"
	"globetrotter/internal/domain"
	"globetrotter/internal/infra/memory"
)

type testEnv struct {
	server      *httptest.Server
	admin       *app.AdminService
	leaderboard *app.LeaderboardService
}

func newTestEnv(t *testing.T, destinations []domain.Destination, cfg RouterConfig) *testEnv {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	opts := []app.Option{app.WithLogger(logger), app.WithRand(rand.New(rand.NewSource(7)))}

	catalogRepo := memory.NewCatalogRepository(memory.NewStaticCatalogLoader(destinations), time.Minute)
	tracker := memory.NewUsedDestinationTracker(memory.DefaultUsedTTL)
	users := memory.NewUserStore()
	leaderboard := app.NewLeaderboardService(memory.NewLeaderboardStore(), app.DefaultLeaderboardSize, opts...)
	tokens, err := auth.NewTokenService("test-secret", time.Hour)
	require.NoError(t, err)
	admin := app.NewAdminService(memory.NewAdminStore(), users, leaderboard, tokens, opts...)

	h := NewHandler(
		app.NewQuestionService(catalogRepo, tracker, opts...),
		app.NewScoreService(users, leaderboard, opts...),
		leaderboard,
		admin,
		logger,
	)
	cfg.Logger = logger
	server := httptest.NewServer(NewRouter(h, NewWSHandler(leaderboard, logger), cfg))
	t.Cleanup(server.Close)
	return &testEnv{server: server, admin: admin, leaderboard: leaderboard}
}

func (e *testEnv) do(t *testing.T, method, path string, body any, token string) (int, []byte) {
	t.Helper()
	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	}
	req, err := http.NewRequest(method, e.server.URL+path, reader)
	require.NoError(t, err)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	out, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp.StatusCode, out
}

func catalogOf(n int) []domain.Destination {
	names := []string{"Paris", "Tokyo", "Rome", "Cairo", "Sydney", "Lima"}
	out := make([]domain.Destination, 0, n)
	for i := 0; i < n; i++ {
		out = append(out, domain.Destination{
			ID:       names[i],
			City:     names[i],
			Country:  "Country " + names[i],
			Clues:    []string{names[i] + " clue 1", names[i] + " clue 2", names[i] + " clue 3"},
			FunFacts: []string{names[i] + " fact"},
		})
	}
	return out
}

func TestQuestionUntilExhausted(t *testing.T) {
	env := newTestEnv(t, catalogOf(5), RouterConfig{})

	seen := map[string]bool{}
	for i := 0; i < 5; i++ {
		path := "/api/question?username=alice"
		if i%2 == 1 {
			path = "/api/destinations/random?username=alice"
		}
		status, body := env.do(t, http.MethodGet, path, nil, "")
		require.Equal(t, http.StatusOK, status, string(body))

		var q domain.Question
		require.NoError(t, json.Unmarshal(body, &q))
		assert.Len(t, q.Options, 4)
		assert.False(t, seen[q.ID], "destination %s repeated", q.ID)
		seen[q.ID] = true
		assert.Equal(t, q.ID+", Country "+q.ID, q.Location)
	}

	status, body := env.do(t, http.MethodGet, "/api/question?username=alice", nil, "")
	require.Equal(t, http.StatusOK, status)
	assert.JSONEq(t, `{"message":"All destinations have been given"}`, string(body))

	// Another user has a fresh history.
	status, _ = env.do(t, http.MethodGet, "/api/question?username=bob", nil, "")
	assert.Equal(t, http.StatusOK, status)
}

func TestQuestionErrors(t *testing.T) {
	env := newTestEnv(t, catalogOf(4), RouterConfig{})
	status, body := env.do(t, http.MethodGet, "/api/question", nil, "")
	assert.Equal(t, http.StatusBadRequest, status)
	assert.JSONEq(t, `{"message":"username is required"}`, string(body))

	empty := newTestEnv(t, nil, RouterConfig{})
	status, body = empty.do(t, http.MethodGet, "/api/question?username=alice", nil, "")
	assert.Equal(t, http.StatusNotFound, status)
	assert.JSONEq(t, `{"message":"no destinations found"}`, string(body))
}

func TestQuestionRateLimit(t *testing.T) {
	env := newTestEnv(t, catalogOf(6), RouterConfig{RateLimit: 0.001, RateBurst: 2})
	for i := 0; i < 2; i++ {
		status, _ := env.do(t, http.MethodGet, "/api/question?username=alice", nil, "")
		require.Equal(t, http.StatusOK, status)
	}
	status, _ := env.do(t, http.MethodGet, "/api/question?username=alice", nil, "")
	assert.Equal(t, http.StatusTooManyRequests, status)

	// Other routes are not limited.
	status, _ = env.do(t, http.MethodGet, "/api/leaderboard", nil, "")
	assert.Equal(t, http.StatusOK, status)
}

func TestScoreFlow(t *testing.T) {
	env := newTestEnv(t, catalogOf(4), RouterConfig{})

	status, body := env.do(t, http.MethodPost, "/api/users", map[string]string{"username": "bob"}, "")
	require.Equal(t, http.StatusOK, status, string(body))
	var user domain.User
	require.NoError(t, json.Unmarshal(body, &user))
	require.NotEmpty(t, user.ID)

	for i := 0; i < 3; i++ {
		status, body = env.do(t, http.MethodPut, "/api/users/"+user.ID+"/score", map[string]bool{"correct": true}, "")
		require.Equal(t, http.StatusOK, status, string(body))
	}
	status, body = env.do(t, http.MethodPut, "/api/users/"+user.ID+"/score",
		map[string]bool{"correct": false, "gameCompleted": true}, "")
	require.Equal(t, http.StatusOK, status)
	assert.JSONEq(t, `{"correct":3,"incorrect":1}`, string(body))

	status, body = env.do(t, http.MethodGet, "/api/leaderboard", nil, "")
	require.Equal(t, http.StatusOK, status)
	var entries []domain.LeaderboardEntry
	require.NoError(t, json.Unmarshal(body, &entries))
	require.Len(t, entries, 1)
	assert.Equal(t, "bob", entries[0].Username)
	assert.Equal(t, 3, entries[0].Score)

	status, body = env.do(t, http.MethodPut, "/api/users/"+user.ID+"/new-game", nil, "")
	require.Equal(t, http.StatusOK, status)
	assert.JSONEq(t, `{"score":{"correct":0,"incorrect":0},"gamesPlayed":1}`, string(body))

	status, body = env.do(t, http.MethodGet, "/api/users/"+user.ID, nil, "")
	require.Equal(t, http.StatusOK, status)
	require.NoError(t, json.Unmarshal(body, &user))
	assert.Equal(t, 3, user.HighScore)
}

func TestScoreErrors(t *testing.T) {
	env := newTestEnv(t, catalogOf(4), RouterConfig{})

	status, body := env.do(t, http.MethodGet, "/api/users/missing", nil, "")
	assert.Equal(t, http.StatusNotFound, status)
	assert.JSONEq(t, `{"message":"get user: user not found"}`, string(body))

	status, _ = env.do(t, http.MethodPut, "/api/users/missing/score", map[string]bool{"correct": true}, "")
	assert.Equal(t, http.StatusNotFound, status)

	status, _ = env.do(t, http.MethodPost, "/api/users", map[string]string{"username": "  "}, "")
	assert.Equal(t, http.StatusBadRequest, status)

	req, err := http.NewRequest(http.MethodPost, env.server.URL+"/api/users", bytes.NewBufferString("{not json"))
	require.NoError(t, err)
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestAdminEndpoints(t *testing.T) {
	env := newTestEnv(t, catalogOf(4), RouterConfig{})
	_, err := env.admin.CreateAdmin(t.Context(), "root", "correct-horse")
	require.NoError(t, err)

	status, body := env.do(t, http.MethodPost, "/api/admin/login", map[string]string{"username": "root", "password": "wrong-pass"}, "")
	assert.Equal(t, http.StatusUnauthorized, status)
	assert.JSONEq(t, `{"success":false,"message":"Invalid credentials"}`, string(body))

	status, _ = env.do(t, http.MethodGet, "/api/admin/stats", nil, "")
	assert.Equal(t, http.StatusUnauthorized, status)
	status, _ = env.do(t, http.MethodGet, "/api/admin/stats", nil, "not-a-token")
	assert.Equal(t, http.StatusUnauthorized, status)

	status, body = env.do(t, http.MethodPost, "/api/admin/login", map[string]string{"username": "root", "password": "correct-horse"}, "")
	require.Equal(t, http.StatusOK, status)
	var login loginResponse
	require.NoError(t, json.Unmarshal(body, &login))
	require.True(t, login.Success)
	require.NotEmpty(t, login.Token)

	_, body = env.do(t, http.MethodPost, "/api/users", map[string]string{"username": "carol"}, "")
	var carol domain.User
	require.NoError(t, json.Unmarshal(body, &carol))
	env.do(t, http.MethodPut, "/api/users/"+carol.ID+"/score", map[string]bool{"correct": true, "gameCompleted": true}, "")

	status, body = env.do(t, http.MethodGet, "/api/admin/stats", nil, login.Token)
	require.Equal(t, http.StatusOK, status, string(body))
	var stats domain.AdminStats
	require.NoError(t, json.Unmarshal(body, &stats))
	assert.Equal(t, 1, stats.TotalUsers)
	assert.Equal(t, 1, stats.TotalGamesPlayed)
	assert.Equal(t, 1.0, stats.AverageScore)
	require.Len(t, stats.TopPlayers, 1)

	status, body = env.do(t, http.MethodGet, "/api/admin/users", nil, login.Token)
	require.Equal(t, http.StatusOK, status)
	var users []domain.User
	require.NoError(t, json.Unmarshal(body, &users))
	assert.Len(t, users, 1)
}

func TestHealthAndMetrics(t *testing.T) {
	env := newTestEnv(t, catalogOf(4), RouterConfig{
		MetricsHandler: http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte("metrics"))
		}),
	})
	status, body := env.do(t, http.MethodGet, "/healthz", nil, "")
	assert.Equal(t, http.StatusOK, status)
	assert.Equal(t, "ok", string(body))

	status, body = env.do(t, http.MethodGet, "/metrics", nil, "")
	assert.Equal(t, http.StatusOK, status)
	assert.Equal(t, "metrics", string(body))
}

func TestRequestObserverSeesRouteTemplate(t *testing.T) {
	obs := &recordingObserver{}
	env := newTestEnv(t, catalogOf(4), RouterConfig{Observer: obs})
	env.do(t, http.MethodGet, "/api/users/some-id", nil, "")

	// The observation is recorded after the response is flushed.
	require.Eventually(t, func() bool { return len(obs.snapshot()) == 1 }, time.Second, 10*time.Millisecond)
	assert.Equal(t, "/api/users/{userId} GET 404", obs.snapshot()[0])
}
