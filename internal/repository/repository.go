// Package repository persists accounts and learner data. Every store has a
// JSON file implementation for single-node deployments and a Postgres one.
package repository

import (
	"context"
	"errors"

	"github.com/micocomia/5902Group5/internal/models"
)

var (
	ErrNotFound  = errors.New("record not found")
	ErrDuplicate = errors.New("record already exists")
)

type UserRepository interface {
	// Create stores a new account and returns ErrDuplicate if the username is taken.
	Create(ctx context.Context, user *models.User) error
	GetByUsername(ctx context.Context, username string) (*models.User, error)
	Delete(ctx context.Context, username string) error
}

// LearnerRepository stores everything the tutor knows about a learner.
// Learners are identified by username.
type LearnerRepository interface {
	UpsertProfile(ctx context.Context, userID string, goalID int, profile models.LearnerProfile) error
	GetProfile(ctx context.Context, userID string, goalID int) (models.LearnerProfile, error)
	// ListProfiles returns the learner's profiles ordered by goal.
	ListProfiles(ctx context.Context, userID string) ([]models.ProfileEntry, error)

	// AppendEvent records an event, keeps only the newest MaxEventsPerUser
	// and returns how many are kept.
	AppendEvent(ctx context.Context, event models.Event) (int, error)
	ListEvents(ctx context.Context, userID string) ([]models.Event, error)

	GetUserState(ctx context.Context, userID string) (models.UserState, error)
	PutUserState(ctx context.Context, userID string, state models.UserState) error
	DeleteUserState(ctx context.Context, userID string) error

	DeleteAllUserData(ctx context.Context, userID string) error
}
