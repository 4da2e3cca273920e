package http

import (
	"log/slog"
	"net/http"

	"github.com/gorilla/mux"
	"github.com/rs/cors"
)

// RouterConfig carries the cross-cutting pieces of the HTTP surface.
type RouterConfig struct {
	Logger         *slog.Logger
	Observer       RequestObserver
	MetricsHandler http.Handler
	CORSOrigins    []string
	// RateLimit is the steady request rate allowed per client on the question
	// endpoint. Zero disables limiting.
	RateLimit float64
	RateBurst int
}

// NewRouter wires the API, websocket, health and metrics routes.
func NewRouter(h *Handler, ws *WSHandler, cfg RouterConfig) http.Handler {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	r := mux.NewRouter()
	r.Use(requestLogger(logger, cfg.Observer))

	r.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("ok"))
	}).Methods(http.MethodGet)
	if cfg.MetricsHandler != nil {
		r.Handle("/metrics", cfg.MetricsHandler).Methods(http.MethodGet)
	}
	r.HandleFunc("/ws/leaderboard", ws.ServeWS)

	api := r.PathPrefix("/api").Subrouter()

	var question http.Handler = http.HandlerFunc(h.Question)
	if cfg.RateLimit > 0 {
		question = newClientLimiter(cfg.RateLimit, cfg.RateBurst).middleware(question)
	}
	api.Handle("/question", question).Methods(http.MethodGet)
	api.Handle("/destinations/random", question).Methods(http.MethodGet)

	api.HandleFunc("/users", h.Register).Methods(http.MethodPost)
	api.HandleFunc("/users/{userId}", h.GetUser).Methods(http.MethodGet)
	api.HandleFunc("/users/{userId}/score", h.UpdateScore).Methods(http.MethodPut)
	api.HandleFunc("/users/{userId}/new-game", h.NewGame).Methods(http.MethodPut)
	api.HandleFunc("/leaderboard", h.Leaderboard).Methods(http.MethodGet)

	api.HandleFunc("/admin/login", h.AdminLogin).Methods(http.MethodPost)
	admin := api.PathPrefix("/admin").Subrouter()
	admin.Use(h.RequireAdmin)
	admin.HandleFunc("/users", h.AdminUsers).Methods(http.MethodGet)
	admin.HandleFunc("/stats", h.AdminStats).Methods(http.MethodGet)

	r.NotFoundHandler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusNotFound, messageResponse{Message: "Not found"})
	})

	origins := cfg.CORSOrigins
	if len(origins) == 0 {
		origins = []string{"*"}
	}
	return cors.New(cors.Options{
		AllowedOrigins:   origins,
		AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodOptions},
		AllowedHeaders:   []string{"Authorization", "Content-Type"},
		AllowCredentials: false,
	}).Handler(r)
}
