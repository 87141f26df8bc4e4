package repository

import (
	"testing"
	"time"

	"github.com/micocomia/5902Group5/internal/models"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCreateUserQuery(t *testing.T) {
	user := &models.User{ID: uuid.New(), Username: "alice", Password: "hash", CreatedAt: time.Now()}

	sql, args, err := createUserQuery(user).ToSql()
	require.NoError(t, err)
	assert.Equal(t, "INSERT INTO users (id,username,password,created_at) VALUES ($1,$2,$3,$4)", sql)
	assert.Len(t, args, 4)
}

func TestGetUserQuery(t *testing.T) {
	sql, args, err := getUserQuery("alice").ToSql()
	require.NoError(t, err)
	assert.Equal(t, "SELECT id, username, password, created_at FROM users WHERE username = $1", sql)
	assert.Equal(t, []any{"alice"}, args)
}

func TestUpsertProfileQuery(t *testing.T) {
	now := time.Now()
	sql, args, err := upsertProfileQuery("alice", 3, []byte(`{"a":1}`), now).ToSql()
	require.NoError(t, err)
	assert.Equal(t,
		"INSERT INTO learner_profiles (user_id,goal_id,profile,updated_at) VALUES ($1,$2,$3::jsonb,$4) "+
			"ON CONFLICT (user_id, goal_id) DO UPDATE SET profile = EXCLUDED.profile, updated_at = EXCLUDED.updated_at",
		sql)
	assert.Equal(t, []any{"alice", 3, `{"a":1}`, now}, args)
}

func TestTrimEventsQuery(t *testing.T) {
	sql, args, err := trimEventsQuery("alice", models.MaxEventsPerUser).ToSql()
	require.NoError(t, err)
	assert.Equal(t,
		"DELETE FROM learner_events WHERE user_id = $1 AND "+
			"id NOT IN (SELECT id FROM learner_events WHERE user_id = $2 ORDER BY id DESC LIMIT $3)",
		sql)
	assert.Equal(t, []any{"alice", "alice", models.MaxEventsPerUser}, args)
}

func TestPutUserStateQuery(t *testing.T) {
	sql, _, err := putUserStateQuery("alice", []byte(`{}`), time.Now()).ToSql()
	require.NoError(t, err)
	assert.Contains(t, sql, "ON CONFLICT (user_id) DO UPDATE SET state = EXCLUDED.state")
	assert.Contains(t, sql, "$2::jsonb")
}
