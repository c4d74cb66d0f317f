package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tickethub/helpdesk/internal/config"
	"github.com/tickethub/helpdesk/internal/domain"
	"github.com/tickethub/helpdesk/internal/repository"
)

func newAuthService() *AuthService {
	cfg := config.Config{
		Auth: config.AuthConfig{
			JWTSecret:             "test-secret",
			AccessTokenTTLMinutes: 60,
			BcryptCost:            4,
		},
	}
	return NewAuthService(cfg, repository.NewMemoryUserRepository())
}

func TestRegisterAndLogin(t *testing.T) {
	svc := newAuthService()
	ctx := context.Background()

	user, token, _, err := svc.Register(ctx, RegisterInput{
		Username: "alice",
		Email:    "alice@example.com",
		Password: "correct-horse",
	})
	require.NoError(t, err)
	assert.NotEmpty(t, user.ID)
	assert.NotEmpty(t, token)
	assert.Equal(t, domain.RoleUser, user.Role, "role defaults to user")
	assert.NotEqual(t, "correct-horse", user.PasswordHash)

	logged, token, _, err := svc.Login(ctx, "alice@example.com", "correct-horse")
	require.NoError(t, err)
	assert.Equal(t, user.ID, logged.ID)
	assert.NotEmpty(t, token)

	claims, err := svc.TokenManager().ParseToken(token)
	require.NoError(t, err)
	assert.Equal(t, user.ID, claims.UserID)
	assert.Equal(t, domain.RoleUser, claims.Role)
}

func TestRegisterValidation(t *testing.T) {
	svc := newAuthService()
	ctx := context.Background()

	_, _, _, err := svc.Register(ctx, RegisterInput{Email: "a@b.c", Password: "longenough"})
	de := domainErr(t, err)
	assert.Equal(t, "FIELD_REQUIRED", de.Code)
	assert.Equal(t, "username", de.Field)

	_, _, _, err = svc.Register(ctx, RegisterInput{Username: "a", Email: "not-an-email", Password: "longenough"})
	de = domainErr(t, err)
	assert.Equal(t, "VALIDATION_ERROR", de.Code)
	assert.Equal(t, "email", de.Field)

	_, _, _, err = svc.Register(ctx, RegisterInput{Username: "a", Email: "a@b.c", Password: "short"})
	de = domainErr(t, err)
	assert.Equal(t, "VALIDATION_ERROR", de.Code)
	assert.Equal(t, "password", de.Field)

	_, _, _, err = svc.Register(ctx, RegisterInput{Username: "a", Email: "a@b.c", Password: "longenough", Role: "superuser"})
	de = domainErr(t, err)
	assert.Equal(t, "VALIDATION_ERROR", de.Code)
	assert.Equal(t, "role", de.Field)
}

func TestRegisterDuplicates(t *testing.T) {
	svc := newAuthService()
	ctx := context.Background()

	_, _, _, err := svc.Register(ctx, RegisterInput{Username: "alice", Email: "alice@example.com", Password: "longenough"})
	require.NoError(t, err)

	_, _, _, err = svc.Register(ctx, RegisterInput{Username: "alice", Email: "other@example.com", Password: "longenough"})
	de := domainErr(t, err)
	assert.Equal(t, "FIELD_DUPLICATE", de.Code)
	assert.Equal(t, "username", de.Field)

	_, _, _, err = svc.Register(ctx, RegisterInput{Username: "alice2", Email: "alice@example.com", Password: "longenough"})
	de = domainErr(t, err)
	assert.Equal(t, "FIELD_DUPLICATE", de.Code)
	assert.Equal(t, "email", de.Field)
}

func TestLoginRejectsBadCredentials(t *testing.T) {
	svc := newAuthService()
	ctx := context.Background()

	_, _, _, err := svc.Register(ctx, RegisterInput{Username: "alice", Email: "alice@example.com", Password: "longenough"})
	require.NoError(t, err)

	_, _, _, err = svc.Login(ctx, "alice@example.com", "wrong")
	de := domainErr(t, err)
	assert.Equal(t, "INVALID_CREDENTIALS", de.Code)

	_, _, _, err = svc.Login(ctx, "nobody@example.com", "whatever")
	de = domainErr(t, err)
	assert.Equal(t, "INVALID_CREDENTIALS", de.Code)

	_, _, _, err = svc.Login(ctx, "", "whatever")
	de = domainErr(t, err)
	assert.Equal(t, "FIELD_REQUIRED", de.Code)
}

func TestRegisterWithElevatedRole(t *testing.T) {
	svc := newAuthService()

	user, _, _, err := svc.Register(context.Background(), RegisterInput{
		Username: "bob",
		Email:    "bob@example.com",
		Password: "longenough",
		Role:     "agent",
	})
	require.NoError(t, err)
	assert.Equal(t, domain.RoleAgent, user.Role)
}
