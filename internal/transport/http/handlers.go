package http

import (
	"log/slog"
	"net/http"
	"strings"

	"github.com/gorilla/mux"
	"globetrotter/internal/app"
	"globetrotter/internal/domain"
)

const exhaustedMessage = "All destinations have been given"

// Handler serves the JSON API.
type Handler struct {
	questions   *app.QuestionService
	scores      *app.ScoreService
	leaderboard *app.LeaderboardService
	admin       *app.AdminService
	logger      *slog.Logger
}

func NewHandler(questions *app.QuestionService, scores *app.ScoreService, leaderboard *app.LeaderboardService, admin *app.AdminService, logger *slog.Logger) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{
		questions:   questions,
		scores:      scores,
		leaderboard: leaderboard,
		admin:       admin,
		logger:      logger,
	}
}

func (h *Handler) Question(w http.ResponseWriter, r *http.Request) {
	username := r.URL.Query().Get("username")
	question, ok, err := h.questions.BuildQuestion(r.Context(), username)
	if err != nil {
		writeError(w, h.logger, "build_question", username, err)
		return
	}
	if !ok {
		writeJSON(w, http.StatusOK, messageResponse{Message: exhaustedMessage})
		return
	}
	writeJSON(w, http.StatusOK, question)
}

type registerRequest struct {
	Username string `json:"username"`
}

func (h *Handler) Register(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, h.logger, "register", "", err)
		return
	}
	user, err := h.scores.Register(r.Context(), req.Username)
	if err != nil {
		writeError(w, h.logger, "register", req.Username, err)
		return
	}
	writeJSON(w, http.StatusOK, user)
}

func (h *Handler) GetUser(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["userId"]
	user, err := h.scores.GetUser(r.Context(), id)
	if err != nil {
		writeError(w, h.logger, "get_user", id, err)
		return
	}
	writeJSON(w, http.StatusOK, user)
}

type scoreRequest struct {
	Correct       bool `json:"correct"`
	GameCompleted bool `json:"gameCompleted"`
}

func (h *Handler) UpdateScore(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["userId"]
	var req scoreRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, h.logger, "update_score", id, err)
		return
	}
	user, err := h.scores.UpdateScore(r.Context(), id, req.Correct, req.GameCompleted)
	if err != nil {
		writeError(w, h.logger, "update_score", id, err)
		return
	}
	writeJSON(w, http.StatusOK, user.Score)
}

type newGameResponse struct {
	Score       domain.Score `json:"score"`
	GamesPlayed int          `json:"gamesPlayed"`
}

func (h *Handler) NewGame(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["userId"]
	user, err := h.scores.StartNewGame(r.Context(), id)
	if err != nil {
		writeError(w, h.logger, "new_game", id, err)
		return
	}
	writeJSON(w, http.StatusOK, newGameResponse{Score: user.Score, GamesPlayed: user.GamesPlayed})
}

func (h *Handler) Leaderboard(w http.ResponseWriter, r *http.Request) {
	entries, err := h.leaderboard.Top(r.Context())
	if err != nil {
		writeError(w, h.logger, "leaderboard", "", err)
		return
	}
	writeJSON(w, http.StatusOK, entries)
}

type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type loginResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
	Token   string `json:"token,omitempty"`
}

func (h *Handler) AdminLogin(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, h.logger, "admin_login", "", err)
		return
	}
	token, err := h.admin.Login(r.Context(), req.Username, req.Password)
	if err != nil {
		if statusFor(err) == http.StatusUnauthorized {
			writeJSON(w, http.StatusUnauthorized, loginResponse{Message: "Invalid credentials"})
			return
		}
		writeError(w, h.logger, "admin_login", req.Username, err)
		return
	}
	writeJSON(w, http.StatusOK, loginResponse{Success: true, Message: "Login successful", Token: token})
}

func (h *Handler) AdminUsers(w http.ResponseWriter, r *http.Request) {
	users, err := h.admin.Users(r.Context())
	if err != nil {
		writeError(w, h.logger, "admin_users", adminID(r), err)
		return
	}
	writeJSON(w, http.StatusOK, users)
}

func (h *Handler) AdminStats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.admin.Stats(r.Context())
	if err != nil {
		writeError(w, h.logger, "admin_stats", adminID(r), err)
		return
	}
	writeJSON(w, http.StatusOK, stats)
}

// RequireAdmin rejects requests without a valid "Authorization: Bearer" admin token.
func (h *Handler) RequireAdmin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token := ""
		if scheme, value, ok := strings.Cut(r.Header.Get("Authorization"), " "); ok && strings.EqualFold(scheme, "Bearer") {
			token = strings.TrimSpace(value)
		}
		subject, err := h.admin.Authorize(token)
		if err != nil {
			writeError(w, h.logger, "authorize_admin", "", err)
			return
		}
		next.ServeHTTP(w, r.WithContext(withAdminID(r.Context(), subject)))
	})
}
