package repository

import (
	"context"
	"testing"
	"time"

	"github.com/micocomia/5902Group5/internal/models"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestFileUserRepository(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()

	repo := NewFileUserRepository(dir, zap.NewNop())
	require.NoError(t, repo.Load())

	user := &models.User{
		ID:        uuid.New(),
		Username:  "alice",
		Password:  "hash",
		CreatedAt: time.Date(2025, 1, 2, 3, 4, 5, 0, time.UTC),
	}
	require.NoError(t, repo.Create(ctx, user))

	err := repo.Create(ctx, &models.User{ID: uuid.New(), Username: "alice"})
	assert.ErrorIs(t, err, ErrDuplicate)

	reloaded := NewFileUserRepository(dir, zap.NewNop())
	require.NoError(t, reloaded.Load())

	got, err := reloaded.GetByUsername(ctx, "alice")
	require.NoError(t, err)
	assert.Equal(t, user.ID, got.ID)
	assert.Equal(t, "hash", got.Password)
	assert.True(t, user.CreatedAt.Equal(got.CreatedAt))

	_, err = reloaded.GetByUsername(ctx, "bob")
	assert.ErrorIs(t, err, ErrNotFound)

	require.NoError(t, reloaded.Delete(ctx, "alice"))
	assert.ErrorIs(t, reloaded.Delete(ctx, "alice"), ErrNotFound)
	_, err = reloaded.GetByUsername(ctx, "alice")
	assert.ErrorIs(t, err, ErrNotFound)
}
