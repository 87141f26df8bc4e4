package repository

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"testing"
	"unsafe"

	"github.com/micocomia/5902Group5/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newLearnerRepo(t *testing.T, dir string) *FileLearnerRepository {
	t.Helper()
	repo := NewFileLearnerRepository(dir, zap.NewNop())
	require.NoError(t, repo.Load())
	return repo
}

func TestFileLearnerRepository_Profiles(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	repo := newLearnerRepo(t, dir)

	_, err := repo.GetProfile(ctx, "alice", 0)
	assert.ErrorIs(t, err, ErrNotFound)

	require.NoError(t, repo.UpsertProfile(ctx, "alice", 2, models.LearnerProfile{"level": "advanced"}))
	require.NoError(t, repo.UpsertProfile(ctx, "alice", 0, models.LearnerProfile{"level": "beginner"}))
	require.NoError(t, repo.UpsertProfile(ctx, "alice", 0, models.LearnerProfile{"level": "intermediate"}))
	require.NoError(t, repo.UpsertProfile(ctx, "bob", 0, models.LearnerProfile{"level": "beginner"}))

	profile, err := repo.GetProfile(ctx, "alice", 0)
	require.NoError(t, err)
	assert.Equal(t, "intermediate", profile["level"])

	entries, err := repo.ListProfiles(ctx, "alice")
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, 0, entries[0].GoalID)
	assert.Equal(t, 2, entries[1].GoalID)

	// a fresh repository sees the flushed data
	reloaded := newLearnerRepo(t, dir)
	profile, err = reloaded.GetProfile(ctx, "alice", 2)
	require.NoError(t, err)
	assert.Equal(t, "advanced", profile["level"])

	empty, err := reloaded.ListProfiles(ctx, "carol")
	require.NoError(t, err)
	assert.NotNil(t, empty)
	assert.Empty(t, empty)
}

func TestFileLearnerRepository_EventsAreCapped(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	repo := newLearnerRepo(t, dir)

	var count int
	for i := 0; i < models.MaxEventsPerUser+5; i++ {
		var err error
		count, err = repo.AppendEvent(ctx, models.Event{
			UserID:    "alice",
			EventType: fmt.Sprintf("click-%d", i),
			TS:        "2025-01-01T00:00:00Z",
		})
		require.NoError(t, err)
	}
	assert.Equal(t, models.MaxEventsPerUser, count)

	events, err := repo.ListEvents(ctx, "alice")
	require.NoError(t, err)
	require.Len(t, events, models.MaxEventsPerUser)
	assert.Equal(t, "click-5", events[0].EventType)
	assert.Equal(t, fmt.Sprintf("click-%d", models.MaxEventsPerUser+4), events[len(events)-1].EventType)

	reloaded := newLearnerRepo(t, dir)
	events, err = reloaded.ListEvents(ctx, "alice")
	require.NoError(t, err)
	assert.Len(t, events, models.MaxEventsPerUser)

	none, err := reloaded.ListEvents(ctx, "bob")
	require.NoError(t, err)
	assert.NotNil(t, none)
	assert.Empty(t, none)
}

func TestFileLearnerRepository_UserState(t *testing.T) {
	ctx := context.Background()
	repo := newLearnerRepo(t, t.TempDir())

	_, err := repo.GetUserState(ctx, "alice")
	assert.ErrorIs(t, err, ErrNotFound)

	require.NoError(t, repo.PutUserState(ctx, "alice", models.UserState{"page": "dashboard"}))
	state, err := repo.GetUserState(ctx, "alice")
	require.NoError(t, err)
	assert.Equal(t, "dashboard", state["page"])

	require.NoError(t, repo.PutUserState(ctx, "alice", nil))
	state, err = repo.GetUserState(ctx, "alice")
	require.NoError(t, err)
	assert.Empty(t, state)

	require.NoError(t, repo.DeleteUserState(ctx, "alice"))
	_, err = repo.GetUserState(ctx, "alice")
	assert.ErrorIs(t, err, ErrNotFound)

	// deleting twice is fine
	assert.NoError(t, repo.DeleteUserState(ctx, "alice"))
}

func TestFileLearnerRepository_DeleteAllUserData(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	repo := newLearnerRepo(t, dir)

	for _, user := range []string{"alice", "bob"} {
		require.NoError(t, repo.UpsertProfile(ctx, user, 0, models.LearnerProfile{"x": 1}))
		_, err := repo.AppendEvent(ctx, models.Event{UserID: user, EventType: "login"})
		require.NoError(t, err)
		require.NoError(t, repo.PutUserState(ctx, user, models.UserState{"y": 2}))
	}

	require.NoError(t, repo.DeleteAllUserData(ctx, "alice"))

	reloaded := newLearnerRepo(t, dir)
	profiles, err := reloaded.ListProfiles(ctx, "alice")
	require.NoError(t, err)
	assert.Empty(t, profiles)
	events, err := reloaded.ListEvents(ctx, "alice")
	require.NoError(t, err)
	assert.Empty(t, events)
	_, err = reloaded.GetUserState(ctx, "alice")
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = reloaded.GetProfile(ctx, "bob", 0)
	assert.NoError(t, err)
	_, err = reloaded.GetUserState(ctx, "bob")
	assert.NoError(t, err)
}

func TestFileLearnerRepository_CorruptFilesStartEmpty(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, profilesFile), []byte("{not json"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, eventsFile), []byte("null"), 0o644))

	repo := newLearnerRepo(t, dir)

	profiles, err := repo.ListProfiles(ctx, "alice")
	require.NoError(t, err)
	assert.Empty(t, profiles)

	count, err := repo.AppendEvent(ctx, models.Event{UserID: "alice", EventType: "login"})
	require.NoError(t, err)
	assert.Equal(t, 1, count)
}

func TestFileLearnerRepository_FailedWriteKeepsMemory(t *testing.T) {
	ctx := context.Background()
	repo := newLearnerRepo(t, t.TempDir())

	require.NoError(t, repo.PutUserState(ctx, "alice", models.UserState{"page": "dashboard"}))
	require.NoError(t, repo.UpsertProfile(ctx, "alice", 0, models.LearnerProfile{"level": "beginner"}))
	_, err := repo.AppendEvent(ctx, models.Event{UserID: "alice", EventType: "login"})
	require.NoError(t, err)

	blocker := filepath.Join(t.TempDir(), "blocker")
	require.NoError(t, os.WriteFile(blocker, nil, 0o644))
	repo.dir = filepath.Join(blocker, "store")

	assert.Error(t, repo.PutUserState(ctx, "alice", models.UserState{"page": "quiz"}))
	assert.Error(t, repo.PutUserState(ctx, "bob", models.UserState{"page": "quiz"}))
	assert.Error(t, repo.DeleteUserState(ctx, "alice"))
	assert.Error(t, repo.UpsertProfile(ctx, "alice", 0, models.LearnerProfile{"level": "advanced"}))
	_, err = repo.AppendEvent(ctx, models.Event{UserID: "alice", EventType: "logout"})
	assert.Error(t, err)
	assert.Error(t, repo.DeleteAllUserData(ctx, "alice"))

	state, err := repo.GetUserState(ctx, "alice")
	require.NoError(t, err)
	assert.Equal(t, "dashboard", state["page"])
	_, err = repo.GetUserState(ctx, "bob")
	assert.ErrorIs(t, err, ErrNotFound)

	profile, err := repo.GetProfile(ctx, "alice", 0)
	require.NoError(t, err)
	assert.Equal(t, "beginner", profile["level"])

	events, err := repo.ListEvents(ctx, "alice")
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.Equal(t, "login", events[0].EventType)
}

// Request routers may hand out strings that alias a reused buffer.
func TestFileLearnerRepository_KeysDoNotAliasCallerMemory(t *testing.T) {
	ctx := context.Background()
	repo := newLearnerRepo(t, t.TempDir())

	buf := []byte("alice")
	userID := unsafe.String(&buf[0], len(buf))

	require.NoError(t, repo.PutUserState(ctx, userID, models.UserState{"page": "dashboard"}))
	require.NoError(t, repo.UpsertProfile(ctx, userID, 0, models.LearnerProfile{"level": "beginner"}))
	_, err := repo.AppendEvent(ctx, models.Event{UserID: userID, EventType: "login"})
	require.NoError(t, err)

	copy(buf, "zzzzz")

	_, err = repo.GetUserState(ctx, "alice")
	assert.NoError(t, err)
	_, err = repo.GetProfile(ctx, "alice", 0)
	assert.NoError(t, err)
	events, err := repo.ListEvents(ctx, "alice")
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.Equal(t, "alice", events[0].UserID)
}
