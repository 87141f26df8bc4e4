package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/micocomia/5902Group5/internal/models"

	"github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"
)

type PostgresLearnerRepository struct {
	db     *pgxpool.Pool
	logger *zap.Logger
	now    func() time.Time
}

func NewPostgresLearnerRepository(db *pgxpool.Pool, logger *zap.Logger) *PostgresLearnerRepository {
	return &PostgresLearnerRepository{
		db:     db,
		logger: logger,
		now:    time.Now,
	}
}

func (r *PostgresLearnerRepository) UpsertProfile(ctx context.Context, userID string, goalID int, profile models.LearnerProfile) error {
	payload, err := json.Marshal(profile)
	if err != nil {
		return fmt.Errorf("failed to encode profile: %w", err)
	}

	sql, args, err := upsertProfileQuery(userID, goalID, payload, r.now()).ToSql()
	if err != nil {
		return fmt.Errorf("failed to build upsert query: %w", err)
	}
	if _, err := r.db.Exec(ctx, sql, args...); err != nil {
		return fmt.Errorf("failed to upsert profile: %w", err)
	}
	return nil
}

func (r *PostgresLearnerRepository) GetProfile(ctx context.Context, userID string, goalID int) (models.LearnerProfile, error) {
	sql, args, err := squirrel.Select("profile").
		From("learner_profiles").
		Where(squirrel.Eq{"user_id": userID, "goal_id": goalID}).
		PlaceholderFormat(squirrel.Dollar).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build select query: %w", err)
	}

	var raw []byte
	err = r.db.QueryRow(ctx, sql, args...).Scan(&raw)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get profile: %w", err)
	}

	var profile models.LearnerProfile
	if err := json.Unmarshal(raw, &profile); err != nil {
		return nil, fmt.Errorf("failed to decode profile: %w", err)
	}
	return profile, nil
}

func (r *PostgresLearnerRepository) ListProfiles(ctx context.Context, userID string) ([]models.ProfileEntry, error) {
	sql, args, err := squirrel.Select("goal_id", "profile").
		From("learner_profiles").
		Where(squirrel.Eq{"user_id": userID}).
		OrderBy("goal_id").
		PlaceholderFormat(squirrel.Dollar).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build select query: %w", err)
	}

	rows, err := r.db.Query(ctx, sql, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list profiles: %w", err)
	}
	defer rows.Close()

	entries := []models.ProfileEntry{}
	for rows.Next() {
		var (
			entry models.ProfileEntry
			raw   []byte
		)
		if err := rows.Scan(&entry.GoalID, &raw); err != nil {
			return nil, fmt.Errorf("failed to scan profile: %w", err)
		}
		if err := json.Unmarshal(raw, &entry.Profile); err != nil {
			return nil, fmt.Errorf("failed to decode profile: %w", err)
		}
		entries = append(entries, entry)
	}
	return entries, rows.Err()
}

// AppendEvent inserts the event and trims the user's log in one transaction.
func (r *PostgresLearnerRepository) AppendEvent(ctx context.Context, event models.Event) (count int, err error) {
	payload, err := json.Marshal(event)
	if err != nil {
		return 0, fmt.Errorf("failed to encode event: %w", err)
	}

	tx, err := r.db.Begin(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback(ctx)
		}
	}()

	queries := []squirrel.Sqlizer{
		insertEventQuery(event.UserID, payload, r.now()),
		trimEventsQuery(event.UserID, models.MaxEventsPerUser),
	}
	for _, q := range queries {
		sql, args, err := q.ToSql()
		if err != nil {
			return 0, fmt.Errorf("failed to build event query: %w", err)
		}
		if _, err := tx.Exec(ctx, sql, args...); err != nil {
			return 0, fmt.Errorf("failed to store event: %w", err)
		}
	}

	sql, args, err := squirrel.Select("COUNT(*)").
		From("learner_events").
		Where(squirrel.Eq{"user_id": event.UserID}).
		PlaceholderFormat(squirrel.Dollar).
		ToSql()
	if err != nil {
		return 0, fmt.Errorf("failed to build count query: %w", err)
	}
	if err := tx.QueryRow(ctx, sql, args...).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count events: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return 0, fmt.Errorf("failed to commit event: %w", err)
	}
	return count, nil
}

func (r *PostgresLearnerRepository) ListEvents(ctx context.Context, userID string) ([]models.Event, error) {
	sql, args, err := squirrel.Select("event").
		From("learner_events").
		Where(squirrel.Eq{"user_id": userID}).
		OrderBy("id").
		PlaceholderFormat(squirrel.Dollar).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build select query: %w", err)
	}

	rows, err := r.db.Query(ctx, sql, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list events: %w", err)
	}
	defer rows.Close()

	events := []models.Event{}
	for rows.Next() {
		var raw []byte
		if err := rows.Scan(&raw); err != nil {
			return nil, fmt.Errorf("failed to scan event: %w", err)
		}
		var event models.Event
		if err := json.Unmarshal(raw, &event); err != nil {
			return nil, fmt.Errorf("failed to decode event: %w", err)
		}
		events = append(events, event)
	}
	return events, rows.Err()
}

func (r *PostgresLearnerRepository) GetUserState(ctx context.Context, userID string) (models.UserState, error) {
	sql, args, err := squirrel.Select("state").
		From("user_states").
		Where(squirrel.Eq{"user_id": userID}).
		PlaceholderFormat(squirrel.Dollar).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build select query: %w", err)
	}

	var raw []byte
	err = r.db.QueryRow(ctx, sql, args...).Scan(&raw)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get user state: %w", err)
	}

	state := models.UserState{}
	if err := json.Unmarshal(raw, &state); err != nil {
		return nil, fmt.Errorf("failed to decode user state: %w", err)
	}
	return state, nil
}

func (r *PostgresLearnerRepository) PutUserState(ctx context.Context, userID string, state models.UserState) error {
	if state == nil {
		state = models.UserState{}
	}
	payload, err := json.Marshal(state)
	if err != nil {
		return fmt.Errorf("failed to encode user state: %w", err)
	}

	sql, args, err := putUserStateQuery(userID, payload, r.now()).ToSql()
	if err != nil {
		return fmt.Errorf("failed to build upsert query: %w", err)
	}
	if _, err := r.db.Exec(ctx, sql, args...); err != nil {
		return fmt.Errorf("failed to store user state: %w", err)
	}
	return nil
}

func (r *PostgresLearnerRepository) DeleteUserState(ctx context.Context, userID string) error {
	return r.deleteFrom(ctx, r.db, "user_states", userID)
}

func (r *PostgresLearnerRepository) DeleteAllUserData(ctx context.Context, userID string) (err error) {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback(ctx)
		}
	}()

	for _, table := range []string{"learner_profiles", "learner_events", "user_states"} {
		if err := r.deleteFrom(ctx, tx, table, userID); err != nil {
			return err
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit deletion: %w", err)
	}
	r.logger.Info("Deleted learner data", zap.String("user_id", userID))
	return nil
}

type execer interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
}

func (r *PostgresLearnerRepository) deleteFrom(ctx context.Context, db execer, table, userID string) error {
	sql, args, err := squirrel.Delete(table).
		Where(squirrel.Eq{"user_id": userID}).
		PlaceholderFormat(squirrel.Dollar).
		ToSql()
	if err != nil {
		return fmt.Errorf("failed to build delete query: %w", err)
	}
	if _, err := db.Exec(ctx, sql, args...); err != nil {
		return fmt.Errorf("failed to delete from %s: %w", table, err)
	}
	return nil
}

func upsertProfileQuery(userID string, goalID int, profile []byte, now time.Time) squirrel.InsertBuilder {
	return squirrel.Insert("learner_profiles").
		Columns("user_id", "goal_id", "profile", "updated_at").
		Values(userID, goalID, squirrel.Expr("?::jsonb", string(profile)), now).
		Suffix("ON CONFLICT (user_id, goal_id) DO UPDATE SET profile = EXCLUDED.profile, updated_at = EXCLUDED.updated_at").
		PlaceholderFormat(squirrel.Dollar)
}

func insertEventQuery(userID string, event []byte, now time.Time) squirrel.InsertBuilder {
	return squirrel.Insert("learner_events").
		Columns("user_id", "event", "created_at").
		Values(userID, squirrel.Expr("?::jsonb", string(event)), now).
		PlaceholderFormat(squirrel.Dollar)
}

// trimEventsQuery deletes everything but the newest keep events of userID.
func trimEventsQuery(userID string, keep int) squirrel.DeleteBuilder {
	return squirrel.Delete("learner_events").
		Where(squirrel.Eq{"user_id": userID}).
		Where("id NOT IN (SELECT id FROM learner_events WHERE user_id = ? ORDER BY id DESC LIMIT ?)", userID, keep).
		PlaceholderFormat(squirrel.Dollar)
}

func putUserStateQuery(userID string, state []byte, now time.Time) squirrel.InsertBuilder {
	return squirrel.Insert("user_states").
		Columns("user_id", "state", "updated_at").
		Values(userID, squirrel.Expr("?::jsonb", string(state)), now).
		Suffix("ON CONFLICT (user_id) DO UPDATE SET state = EXCLUDED.state, updated_at = EXCLUDED.updated_at").
		PlaceholderFormat(squirrel.Dollar)
}
