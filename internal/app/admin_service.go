package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"globetrotter/internal/domain"
	"golang.org/x/crypto/bcrypt"
)

const (
	minPasswordLen = 8
	topPlayers     = 5
)

// AdminService handles operator login and the admin dashboard queries.
type AdminService struct {
	admins      AdminRepository
	users       UserRepository
	leaderboard *LeaderboardService
	tokens      TokenIssuer
	logger      *slog.Logger
	now         func() time.Time
}

func NewAdminService(admins AdminRepository, users UserRepository, leaderboard *LeaderboardService, tokens TokenIssuer, opts ...Option) *AdminService {
	o := newOptions(opts)
	return &AdminService{
		admins:      admins,
		users:       users,
		leaderboard: leaderboard,
		tokens:      tokens,
		logger:      o.logger,
		now:         o.now,
	}
}

// CreateAdmin stores a new admin with a bcrypt-hashed password.
func (s *AdminService) CreateAdmin(ctx context.Context, username, password string) (domain.Admin, error) {
	username, err := NormalizeUsername(username)
	if err != nil {
		return domain.Admin{}, err
	}
	if len(password) < minPasswordLen {
		return domain.Admin{}, domain.ErrInvalidPassword
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return domain.Admin{}, fmt.Errorf("hash password: %w", err)
	}
	admin := domain.Admin{
		ID:           uuid.NewString(),
		Username:     username,
		PasswordHash: string(hash),
		CreatedAt:    s.now().UTC(),
	}
	if err := s.admins.Create(ctx, admin); err != nil {
		return domain.Admin{}, fmt.Errorf("create admin: %w", err)
	}
	s.logger.Info("admin created", "op", "create_admin", "admin", admin.ID, "username", username)
	return admin, nil
}

// Login checks the credentials and returns a signed admin token.
func (s *AdminService) Login(ctx context.Context, username, password string) (string, error) {
	admin, err := s.admins.GetByUsername(ctx, strings.TrimSpace(username))
	if err != nil {
		if errors.Is(err, domain.ErrAdminNotFound) {
			return "", domain.ErrInvalidCredentials
		}
		return "", fmt.Errorf("lookup admin: %w", err)
	}
	if err := bcrypt.CompareHashAndPassword([]byte(admin.PasswordHash), []byte(password)); err != nil {
		return "", domain.ErrInvalidCredentials
	}

	token, err := s.tokens.Issue(admin.ID, admin.Username)
	if err != nil {
		return "", fmt.Errorf("issue token: %w", err)
	}
	return token, nil
}

// Authorize verifies an admin token and returns the admin ID it was issued to.
func (s *AdminService) Authorize(token string) (string, error) {
	if token == "" {
		return "", domain.ErrUnauthorized
	}
	subject, err := s.tokens.Verify(token)
	if err != nil {
		return "", fmt.Errorf("%w: %v", domain.ErrUnauthorized, err)
	}
	return subject, nil
}

// Users lists every registered player.
func (s *AdminService) Users(ctx context.Context) ([]domain.User, error) {
	users, err := s.users.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	if users == nil {
		users = []domain.User{}
	}
	return users, nil
}

// Stats aggregates player counts and leaderboard figures.
func (s *AdminService) Stats(ctx context.Context) (domain.AdminStats, error) {
	totalUsers, gamesPlayed, err := s.users.Totals(ctx)
	if err != nil {
		return domain.AdminStats{}, fmt.Errorf("user totals: %w", err)
	}
	avg, err := s.leaderboard.Average(ctx)
	if err != nil {
		return domain.AdminStats{}, err
	}
	top, err := s.leaderboard.TopN(ctx, topPlayers)
	if err != nil {
		return domain.AdminStats{}, err
	}
	return domain.AdminStats{
		TotalUsers:       totalUsers,
		TotalGamesPlayed: gamesPlayed,
		AverageScore:     avg,
		TopPlayers:       top,
	}, nil
}
