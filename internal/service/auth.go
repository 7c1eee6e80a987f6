package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/yogeshdgrg/BR-Dashboard/internal/auth"
	"github.com/yogeshdgrg/BR-Dashboard/internal/domain"
	"github.com/yogeshdgrg/BR-Dashboard/internal/repository"
	apperrors "github.com/yogeshdgrg/BR-Dashboard/pkg/errors"
)

// AuthService handles admin authentication.
type AuthService struct {
	repo   repository.AdminRepository
	jwt    *auth.JWTManager
	logger *slog.Logger
}

// NewAuthService creates a new auth service.
func NewAuthService(repo repository.AdminRepository, jwt *auth.JWTManager, logger *slog.Logger) *AuthService {
	return &AuthService{
		repo:   repo,
		jwt:    jwt,
		logger: logger,
	}
}

// Login verifies the credentials and returns a signed access token.
func (s *AuthService) Login(ctx context.Context, email, password string) (string, *domain.Admin, error) {
	admin, err := s.repo.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			// Same error as a wrong password so callers cannot probe for
			// registered emails.
			return "", nil, apperrors.Unauthorized("invalid email or password")
		}
		return "", nil, fmt.Errorf("look up admin: %w", err)
	}

	if err := bcrypt.CompareHashAndPassword([]byte(admin.PasswordHash), []byte(password)); err != nil {
		return "", nil, apperrors.Unauthorized("invalid email or password")
	}

	token, err := s.jwt.GenerateToken(admin.ID, admin.Email)
	if err != nil {
		return "", nil, fmt.Errorf("generate token: %w", err)
	}

	s.logger.InfoContext(ctx, "admin logged in", slog.String("admin_id", admin.ID))
	return token, admin, nil
}

// Register creates a new admin account with a bcrypt-hashed password.
func (s *AuthService) Register(ctx context.Context, email, password string) (*domain.Admin, error) {
	if len(password) < 8 {
		return nil, apperrors.InvalidInput("password must be at least 8 characters")
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	now := time.Now().UTC()
	admin := &domain.Admin{
		ID:           uuid.New().String(),
		Email:        email,
		PasswordHash: string(hash),
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	if err := s.repo.Create(ctx, admin); err != nil {
		return nil, fmt.Errorf("create admin: %w", err)
	}

	s.logger.InfoContext(ctx, "admin registered", slog.String("admin_id", admin.ID))
	return admin, nil
}

// ValidateToken exposes token validation for the HTTP auth middleware.
func (s *AuthService) ValidateToken(token string) (*auth.Claims, error) {
	return s.jwt.ValidateToken(token)
}
