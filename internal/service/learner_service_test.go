package service

import (
	"context"
	"testing"
	"time"

	"github.com/micocomia/5902Group5/internal/dto"
	"github.com/micocomia/5902Group5/internal/models"
	"github.com/micocomia/5902Group5/internal/repository"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newLearnerService(t *testing.T) *LearnerService {
	t.Helper()
	repo := repository.NewFileLearnerRepository(t.TempDir(), zap.NewNop())
	require.NoError(t, repo.Load())
	return NewLearnerService(repo, zap.NewNop())
}

func TestLearnerService_LogEvent(t *testing.T) {
	svc := newLearnerService(t)
	svc.now = func() time.Time { return time.Date(2025, 3, 1, 12, 0, 0, 0, time.FixedZone("EST", -5*3600)) }
	ctx := context.Background()

	resp, err := svc.LogEvent(ctx, &dto.LogEventRequest{UserID: "alice", EventType: "page_view"})
	require.NoError(t, err)
	assert.True(t, resp.OK)
	assert.Equal(t, 1, resp.EventCount)

	resp, err = svc.LogEvent(ctx, &dto.LogEventRequest{UserID: "alice", EventType: "quiz", TS: "2025-01-01T00:00:00Z"})
	require.NoError(t, err)
	assert.Equal(t, 2, resp.EventCount)

	events, err := svc.ListEvents(ctx, "alice")
	require.NoError(t, err)
	require.Len(t, events.Events, 2)
	assert.Equal(t, "2025-03-01T17:00:00Z", events.Events[0].TS)
	assert.NotNil(t, events.Events[0].Payload)
	assert.Equal(t, "2025-01-01T00:00:00Z", events.Events[1].TS)

	_, err = svc.LogEvent(ctx, &dto.LogEventRequest{UserID: "alice"})
	assert.ErrorIs(t, err, ErrInvalidEvent)
}

func TestLearnerService_Profiles(t *testing.T) {
	svc := newLearnerService(t)
	ctx := context.Background()

	_, err := svc.ListProfiles(ctx, "alice")
	assert.ErrorIs(t, err, ErrProfileNotFound)
	_, err = svc.GetProfile(ctx, "alice", 0)
	assert.ErrorIs(t, err, ErrProfileNotFound)

	require.NoError(t, svc.UpsertProfile(ctx, "alice", 1, models.LearnerProfile{"goal": "ml"}))

	one, err := svc.GetProfile(ctx, "alice", 1)
	require.NoError(t, err)
	assert.Equal(t, 1, one.GoalID)
	assert.Equal(t, "ml", one.LearnerProfile["goal"])

	all, err := svc.ListProfiles(ctx, "alice")
	require.NoError(t, err)
	assert.Equal(t, "alice", all.UserID)
	assert.Contains(t, all.Profiles, 1)
}

func TestLearnerService_UserState(t *testing.T) {
	svc := newLearnerService(t)
	ctx := context.Background()

	_, err := svc.GetUserState(ctx, "alice")
	assert.ErrorIs(t, err, ErrUserStateMissing)

	require.NoError(t, svc.PutUserState(ctx, "alice", models.UserState{"tab": 2}))
	state, err := svc.GetUserState(ctx, "alice")
	require.NoError(t, err)
	assert.EqualValues(t, 2, state["tab"])

	require.NoError(t, svc.DeleteUserState(ctx, "alice"))
	_, err = svc.GetUserState(ctx, "alice")
	assert.ErrorIs(t, err, ErrUserStateMissing)
}

func TestLearnerService_BehavioralMetricsWithoutState(t *testing.T) {
	svc := newLearnerService(t)

	_, err := svc.BehavioralMetrics(context.Background(), "ghost", nil)
	assert.ErrorIs(t, err, ErrUserStateMissing)
}

func TestLearnerService_BehavioralMetrics(t *testing.T) {
	svc := newLearnerService(t)
	ctx := context.Background()
	require.NoError(t, svc.PutUserState(ctx, "alice", models.UserState{}))

	metrics, err := svc.BehavioralMetrics(ctx, "alice", nil)
	require.NoError(t, err)
	assert.Equal(t, "alice", metrics.UserID)
	assert.Zero(t, metrics.SessionsCompleted)
	assert.Empty(t, metrics.MasteryHistory)
	assert.Nil(t, metrics.LatestMasteryRate)
}
