package service

import (
	"context"
	"testing"
	"time"

	"github.com/micocomia/5902Group5/internal/dto"
	"github.com/micocomia/5902Group5/internal/models"
	"github.com/micocomia/5902Group5/internal/repository"
	"github.com/micocomia/5902Group5/pkg/auth"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newAuthService(t *testing.T) (*AuthService, *repository.FileLearnerRepository) {
	t.Helper()
	dir := t.TempDir()
	logger := zap.NewNop()

	users := repository.NewFileUserRepository(dir, logger)
	require.NoError(t, users.Load())
	learners := repository.NewFileLearnerRepository(dir, logger)
	require.NoError(t, learners.Load())

	return NewAuthService(users, learners, auth.NewJWTManager("test-secret", time.Hour), logger), learners
}

func TestAuthService_RegisterAndLogin(t *testing.T) {
	svc, _ := newAuthService(t)
	ctx := context.Background()

	registered, err := svc.Register(ctx, &dto.RegisterRequest{Username: "alice", Password: "secret1"})
	require.NoError(t, err)
	assert.Equal(t, "alice", registered.Username)
	assert.NotEmpty(t, registered.Token)

	me, err := svc.Me(registered.Token)
	require.NoError(t, err)
	assert.Equal(t, "alice", me.Username)

	loggedIn, err := svc.Login(ctx, &dto.LoginRequest{Username: "alice", Password: "secret1"})
	require.NoError(t, err)
	assert.Equal(t, "alice", loggedIn.Username)

	_, err = svc.Login(ctx, &dto.LoginRequest{Username: "alice", Password: "wrong-password"})
	assert.ErrorIs(t, err, ErrInvalidCredentials)
	_, err = svc.Login(ctx, &dto.LoginRequest{Username: "nobody", Password: "secret1"})
	assert.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestAuthService_RegisterValidation(t *testing.T) {
	svc, _ := newAuthService(t)
	ctx := context.Background()

	tests := []struct {
		name string
		req  dto.RegisterRequest
		want error
	}{
		{"short username", dto.RegisterRequest{Username: "al", Password: "secret1"}, ErrUsernameTooShort},
		{"short password", dto.RegisterRequest{Username: "alice", Password: "12345"}, ErrPasswordTooShort},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.Register(ctx, &tt.req)
			assert.ErrorIs(t, err, tt.want)
		})
	}

	_, err := svc.Register(ctx, &dto.RegisterRequest{Username: "alice", Password: "secret1"})
	require.NoError(t, err)
	_, err = svc.Register(ctx, &dto.RegisterRequest{Username: "alice", Password: "another1"})
	assert.ErrorIs(t, err, ErrUserExists)
}

func TestAuthService_MeRejectsBadToken(t *testing.T) {
	svc, _ := newAuthService(t)

	_, err := svc.Me("not-a-token")
	assert.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestAuthService_DeleteAccount(t *testing.T) {
	svc, learners := newAuthService(t)
	ctx := context.Background()

	_, err := svc.Register(ctx, &dto.RegisterRequest{Username: "alice", Password: "secret1"})
	require.NoError(t, err)
	require.NoError(t, learners.PutUserState(ctx, "alice", models.UserState{"page": "home"}))

	require.NoError(t, svc.DeleteAccount(ctx, "alice"))

	_, err = learners.GetUserState(ctx, "alice")
	assert.ErrorIs(t, err, repository.ErrNotFound)
	_, err = svc.Login(ctx, &dto.LoginRequest{Username: "alice", Password: "secret1"})
	assert.ErrorIs(t, err, ErrInvalidCredentials)

	assert.ErrorIs(t, svc.DeleteAccount(ctx, "alice"), ErrUserNotFound)
}
