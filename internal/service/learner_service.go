package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/micocomia/5902Group5/internal/dto"
	"github.com/micocomia/5902Group5/internal/models"
	"github.com/micocomia/5902Group5/internal/repository"

	"go.uber.org/zap"
)

var (
	ErrInvalidEvent     = errors.New("user_id and event_type are required")
	ErrProfileNotFound  = errors.New("no profile found")
	ErrUserStateMissing = errors.New("no state found for this user_id")
)

// LearnerService exposes the learner store: behavioral events, per-goal
// profiles and the UI state blob.
type LearnerService struct {
	repo   repository.LearnerRepository
	logger *zap.Logger
	now    func() time.Time
}

func NewLearnerService(repo repository.LearnerRepository, logger *zap.Logger) *LearnerService {
	return &LearnerService{
		repo:   repo,
		logger: logger,
		now:    time.Now,
	}
}

// LogEvent appends an event, stamping it with the current UTC time when the
// client sent none.
func (s *LearnerService) LogEvent(ctx context.Context, req *dto.LogEventRequest) (*dto.LogEventResponse, error) {
	if strings.TrimSpace(req.UserID) == "" || strings.TrimSpace(req.EventType) == "" {
		return nil, ErrInvalidEvent
	}

	event := models.Event{
		UserID:    req.UserID,
		EventType: req.EventType,
		Payload:   req.Payload,
		TS:        req.TS,
	}
	if event.Payload == nil {
		event.Payload = map[string]any{}
	}
	if event.TS == "" {
		event.TS = s.now().UTC().Format(time.RFC3339Nano)
	}

	count, err := s.repo.AppendEvent(ctx, event)
	if err != nil {
		return nil, fmt.Errorf("failed to append event: %w", err)
	}

	s.logger.Debug("Event logged",
		zap.String("user_id", event.UserID),
		zap.String("event_type", event.EventType),
		zap.Int("event_count", count),
	)
	return &dto.LogEventResponse{OK: true, EventCount: count}, nil
}

func (s *LearnerService) ListEvents(ctx context.Context, userID string) (*dto.EventsResponse, error) {
	events, err := s.repo.ListEvents(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list events: %w", err)
	}
	return &dto.EventsResponse{UserID: userID, Events: events}, nil
}

func (s *LearnerService) GetProfile(ctx context.Context, userID string, goalID int) (*dto.ProfileResponse, error) {
	profile, err := s.repo.GetProfile(ctx, userID, goalID)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, ErrProfileNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get profile: %w", err)
	}
	return &dto.ProfileResponse{UserID: userID, GoalID: goalID, LearnerProfile: profile}, nil
}

// ListProfiles returns every goal's profile. A learner with none is reported
// as ErrProfileNotFound.
func (s *LearnerService) ListProfiles(ctx context.Context, userID string) (*dto.ProfilesResponse, error) {
	entries, err := s.repo.ListProfiles(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list profiles: %w", err)
	}
	if len(entries) == 0 {
		return nil, ErrProfileNotFound
	}

	profiles := make(map[int]models.LearnerProfile, len(entries))
	for _, e := range entries {
		profiles[e.GoalID] = e.Profile
	}
	return &dto.ProfilesResponse{UserID: userID, Profiles: profiles}, nil
}

func (s *LearnerService) UpsertProfile(ctx context.Context, userID string, goalID int, profile models.LearnerProfile) error {
	if profile == nil {
		profile = models.LearnerProfile{}
	}
	if err := s.repo.UpsertProfile(ctx, userID, goalID, profile); err != nil {
		return fmt.Errorf("failed to store profile: %w", err)
	}
	return nil
}

func (s *LearnerService) GetUserState(ctx context.Context, userID string) (models.UserState, error) {
	state, err := s.repo.GetUserState(ctx, userID)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, ErrUserStateMissing
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get user state: %w", err)
	}
	return state, nil
}

func (s *LearnerService) PutUserState(ctx context.Context, userID string, state models.UserState) error {
	if err := s.repo.PutUserState(ctx, userID, state); err != nil {
		return fmt.Errorf("failed to store user state: %w", err)
	}
	return nil
}

func (s *LearnerService) DeleteUserState(ctx context.Context, userID string) error {
	if err := s.repo.DeleteUserState(ctx, userID); err != nil {
		return fmt.Errorf("failed to delete user state: %w", err)
	}
	return nil
}

// BehavioralMetrics derives session statistics from the stored UI state.
// A nil goalID aggregates sessions over every goal.
func (s *LearnerService) BehavioralMetrics(ctx context.Context, userID string, goalID *int) (*dto.BehavioralMetricsResponse, error) {
	state, err := s.GetUserState(ctx, userID)
	if err != nil {
		return nil, err
	}

	metrics := ComputeBehavioralMetrics(state, goalID)
	metrics.UserID = userID
	return metrics, nil
}
