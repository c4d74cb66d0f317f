package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/tickethub/helpdesk/internal/auth"
	"github.com/tickethub/helpdesk/internal/config"
	"github.com/tickethub/helpdesk/internal/domain"
	"github.com/tickethub/helpdesk/internal/repository"
	apperrors "github.com/tickethub/helpdesk/pkg/util"
)

const minPasswordLen = 8

// AuthService coordinates registration and login flows.
type AuthService struct {
	users      repository.UserRepository
	tokenMgr   *auth.TokenManager
	bcryptCost int
}

// NewAuthService builds the service.
func NewAuthService(cfg config.Config, users repository.UserRepository) *AuthService {
	return &AuthService{
		users:      users,
		tokenMgr:   auth.NewTokenManager(cfg.Auth.JWTSecret, cfg.Auth.AccessTokenTTLMinutes),
		bcryptCost: cfg.Auth.BcryptCost,
	}
}

// TokenManager exposes the token manager for middleware wiring.
func (s *AuthService) TokenManager() *auth.TokenManager {
	return s.tokenMgr
}

// RegisterInput describes a registration request.
type RegisterInput struct {
	Username string
	Email    string
	Password string
	Role     string
}

// Register creates a new identity and issues its first token.
func (s *AuthService) Register(ctx context.Context, input RegisterInput) (*domain.User, string, time.Time, error) {
	username := strings.TrimSpace(input.Username)
	email := strings.TrimSpace(input.Email)

	if username == "" {
		return nil, "", time.Time{}, apperrors.NewFieldRequired("username")
	}
	if email == "" {
		return nil, "", time.Time{}, apperrors.NewFieldRequired("email")
	}
	if input.Password == "" {
		return nil, "", time.Time{}, apperrors.NewFieldRequired("password")
	}
	if !strings.Contains(email, "@") {
		return nil, "", time.Time{}, apperrors.NewValidationError("email is not valid", "email")
	}
	if len(input.Password) < minPasswordLen {
		return nil, "", time.Time{}, apperrors.NewValidationError("password must be at least 8 characters", "password")
	}

	role := domain.RoleUser
	if input.Role != "" {
		role = domain.Role(input.Role)
		if !role.Valid() {
			return nil, "", time.Time{}, apperrors.NewValidationError("role must be one of user, agent, admin", "role")
		}
	}

	// Pre-checks narrow the duplicate window; the store's uniqueness gate
	// is authoritative under concurrent registration.
	if _, err := s.users.GetByUsername(ctx, username); err == nil {
		return nil, "", time.Time{}, apperrors.NewFieldDuplicate("username")
	} else if !absent(err) {
		return nil, "", time.Time{}, err
	}
	if _, err := s.users.GetByEmail(ctx, email); err == nil {
		return nil, "", time.Time{}, apperrors.NewFieldDuplicate("email")
	} else if !absent(err) {
		return nil, "", time.Time{}, err
	}

	hash, err := auth.HashPassword(input.Password, s.bcryptCost)
	if err != nil {
		return nil, "", time.Time{}, err
	}

	user := &domain.User{
		Username:     username,
		Email:        email,
		PasswordHash: hash,
		Role:         role,
	}
	if err := s.users.Create(ctx, user); err != nil {
		return nil, "", time.Time{}, err
	}

	token, exp, err := s.tokenMgr.GenerateToken(user.ID, user.Role)
	if err != nil {
		return nil, "", time.Time{}, err
	}
	return user, token, exp, nil
}

// Login authenticates by email and password.
func (s *AuthService) Login(ctx context.Context, email, password string) (*domain.User, string, time.Time, error) {
	if strings.TrimSpace(email) == "" {
		return nil, "", time.Time{}, apperrors.NewFieldRequired("email")
	}
	if password == "" {
		return nil, "", time.Time{}, apperrors.NewFieldRequired("password")
	}

	user, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		if absent(err) {
			return nil, "", time.Time{}, apperrors.NewInvalidCredentials()
		}
		return nil, "", time.Time{}, err
	}
	if err := auth.ComparePassword(user.PasswordHash, password); err != nil {
		return nil, "", time.Time{}, apperrors.NewInvalidCredentials()
	}

	token, exp, err := s.tokenMgr.GenerateToken(user.ID, user.Role)
	if err != nil {
		return nil, "", time.Time{}, err
	}
	return user, token, exp, nil
}

// absent reports whether err is the canonical missing-row error.
func absent(err error) bool {
	return errors.Is(err, pgx.ErrNoRows)
}
