package cli

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"globetrotter/internal/app"
	"globetrotter/internal/auth"
	"globetrotter/internal/config"
	"globetrotter/internal/domain"
	"globetrotter/internal/metrics"
	transport "globetrotter/internal/transport/http"
)

// NewStartCmd builds the CLI subcommand to start the server.
func NewStartCmd(configPath, port *string) *cobra.Command {
	return &cobra.Command{
		Use:   "start",
		Short: "Start the quiz server",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServer(cmd.Context(), *configPath, *port)
		},
	}
}

func runServer(ctx context.Context, configPath, portFlag string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}
	logger := newLogger(os.Stderr, cfg)
	slog.SetDefault(logger)

	if cfg.Postgres.URL != "" {
		if err := runMigrationsWithConfig(ctx, cfg, logger); err != nil {
			return err
		}
	}

	finalPort := portFlag
	if finalPort == "" {
		finalPort = cfg.Server.Port
	}
	if finalPort == "" {
		finalPort = "8080"
	}

	b, err := openBackends(ctx, cfg)
	if err != nil {
		return err
	}
	defer b.close()
	logBackends(logger, b)

	handler, err := buildHandler(ctx, cfg, b, logger)
	if err != nil {
		return err
	}

	server := &http.Server{
		Addr:         ":" + finalPort,
		Handler:      handler,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
	}

	go func() {
		logger.Info("starting globetrotter", "addr", server.Addr)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("failed to start server", "error", err)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	select {
	case <-stop:
		logger.Info("shutting down server")
	case <-ctx.Done():
		logger.Info("context canceled, shutting down server")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return server.Shutdown(shutdownCtx)
}

func buildHandler(ctx context.Context, cfg config.Config, b *backends, logger *slog.Logger) (http.Handler, error) {
	loader, err := b.catalogLoader(cfg)
	if err != nil {
		return nil, fmt.Errorf("catalog: %w", err)
	}
	tokens, err := auth.NewTokenService(cfg.Auth.JWTSecret, config.TTLDuration(cfg.Auth.TokenTTL, time.Hour))
	if err != nil {
		return nil, err
	}

	m := metrics.New()
	opts := []app.Option{
		app.WithLogger(logger),
		app.WithRecorder(m),
		app.WithResetOnRegister(cfg.Game.ResetOnRegister),
	}

	users := b.users()
	leaderboard := app.NewLeaderboardService(b.leaderboard(), cfg.Leaderboard.Size, opts...)
	admin := app.NewAdminService(b.admins(), users, leaderboard, tokens, opts...)
	if err := bootstrapAdmin(ctx, cfg, admin, logger); err != nil {
		return nil, err
	}

	h := transport.NewHandler(
		app.NewQuestionService(b.catalogRepository(cfg, loader, logger), b.tracker(cfg), opts...),
		app.NewScoreService(users, leaderboard, opts...),
		leaderboard,
		admin,
		logger,
	)
	return transport.NewRouter(h, transport.NewWSHandler(leaderboard, logger), transport.RouterConfig{
		Logger:         logger,
		Observer:       m,
		MetricsHandler: m.Handler(),
		CORSOrigins:    cfg.Server.CORSOrigins,
		RateLimit:      cfg.Server.RateLimit.RPS,
		RateBurst:      cfg.Server.RateLimit.Burst,
	}), nil
}

func bootstrapAdmin(ctx context.Context, cfg config.Config, admin *app.AdminService, logger *slog.Logger) error {
	if cfg.Auth.AdminUsername == "" || cfg.Auth.AdminPassword == "" {
		return nil
	}
	_, err := admin.CreateAdmin(ctx, cfg.Auth.AdminUsername, cfg.Auth.AdminPassword)
	if errors.Is(err, domain.ErrAdminExists) {
		logger.Debug("bootstrap admin already present", "username", cfg.Auth.AdminUsername)
		return nil
	}
	if err != nil {
		return fmt.Errorf("bootstrap admin: %w", err)
	}
	return nil
}
