package repository

import (
	"context"
	"fmt"
	"maps"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/micocomia/5902Group5/internal/models"

	"go.uber.org/zap"
)

const (
	profilesFile   = "profiles.json"
	eventsFile     = "events.json"
	userStatesFile = "user_states.json"
)

// FileLearnerRepository mirrors profiles, events and UI state into three JSON
// files under one directory. Each write flushes only the file it touched, and
// the in-memory store changes only once that file is written.
type FileLearnerRepository struct {
	mu       sync.RWMutex
	dir      string
	profiles map[string]map[int]models.LearnerProfile
	events   map[string][]models.Event
	states   map[string]models.UserState
	logger   *zap.Logger
}

func NewFileLearnerRepository(dataDir string, logger *zap.Logger) *FileLearnerRepository {
	return &FileLearnerRepository{
		dir:      dataDir,
		profiles: map[string]map[int]models.LearnerProfile{},
		events:   map[string][]models.Event{},
		states:   map[string]models.UserState{},
		logger:   logger,
	}
}

// Load reads all three files. A missing or corrupt file starts that store empty.
func (r *FileLearnerRepository) Load() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if err := os.MkdirAll(r.dir, 0o755); err != nil {
		return fmt.Errorf("failed to create data directory: %w", err)
	}

	profiles := map[string]map[int]models.LearnerProfile{}
	if !r.load(profilesFile, &profiles) || profiles == nil {
		profiles = map[string]map[int]models.LearnerProfile{}
	}
	events := map[string][]models.Event{}
	if !r.load(eventsFile, &events) || events == nil {
		events = map[string][]models.Event{}
	}
	states := map[string]models.UserState{}
	if !r.load(userStatesFile, &states) || states == nil {
		states = map[string]models.UserState{}
	}

	r.profiles, r.events, r.states = profiles, events, states

	r.logger.Info("Loaded learner store",
		zap.String("dir", r.dir),
		zap.Int("profiles", len(profiles)),
		zap.Int("event_logs", len(events)),
		zap.Int("user_states", len(states)),
	)
	return nil
}

// load reports false when the file exists but cannot be decoded.
func (r *FileLearnerRepository) load(name string, v any) bool {
	path := filepath.Join(r.dir, name)
	if _, err := readJSONFile(path, v); err != nil {
		r.logger.Warn("Discarding unreadable learner file", zap.String("path", path), zap.Error(err))
		return false
	}
	return true
}

func (r *FileLearnerRepository) flush(name string, v any) error {
	return writeJSONFile(filepath.Join(r.dir, name), v)
}

func (r *FileLearnerRepository) UpsertProfile(_ context.Context, userID string, goalID int, profile models.LearnerProfile) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	goals := maps.Clone(r.profiles[userID])
	if goals == nil {
		goals = map[int]models.LearnerProfile{}
	}
	goals[goalID] = profile

	profiles := maps.Clone(r.profiles)
	profiles[strings.Clone(userID)] = goals
	if err := r.flush(profilesFile, profiles); err != nil {
		return err
	}
	r.profiles = profiles
	return nil
}

func (r *FileLearnerRepository) GetProfile(_ context.Context, userID string, goalID int) (models.LearnerProfile, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	profile, ok := r.profiles[userID][goalID]
	if !ok {
		return nil, ErrNotFound
	}
	return profile, nil
}

func (r *FileLearnerRepository) ListProfiles(_ context.Context, userID string) ([]models.ProfileEntry, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	entries := make([]models.ProfileEntry, 0, len(r.profiles[userID]))
	for goalID, profile := range r.profiles[userID] {
		entries = append(entries, models.ProfileEntry{GoalID: goalID, Profile: profile})
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].GoalID < entries[j].GoalID })
	return entries, nil
}

func (r *FileLearnerRepository) AppendEvent(_ context.Context, event models.Event) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	event.UserID = strings.Clone(event.UserID)
	current := r.events[event.UserID]
	events := make([]models.Event, 0, len(current)+1)
	events = append(events, current...)
	events = append(events, event)
	if len(events) > models.MaxEventsPerUser {
		events = events[len(events)-models.MaxEventsPerUser:]
	}

	all := maps.Clone(r.events)
	all[event.UserID] = events
	if err := r.flush(eventsFile, all); err != nil {
		return 0, err
	}
	r.events = all
	return len(events), nil
}

func (r *FileLearnerRepository) ListEvents(_ context.Context, userID string) ([]models.Event, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	events := make([]models.Event, len(r.events[userID]))
	copy(events, r.events[userID])
	return events, nil
}

func (r *FileLearnerRepository) GetUserState(_ context.Context, userID string) (models.UserState, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	state, ok := r.states[userID]
	if !ok {
		return nil, ErrNotFound
	}
	return state, nil
}

func (r *FileLearnerRepository) PutUserState(_ context.Context, userID string, state models.UserState) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if state == nil {
		state = models.UserState{}
	}
	states := maps.Clone(r.states)
	states[strings.Clone(userID)] = state
	if err := r.flush(userStatesFile, states); err != nil {
		return err
	}
	r.states = states
	return nil
}

func (r *FileLearnerRepository) DeleteUserState(_ context.Context, userID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	states := maps.Clone(r.states)
	delete(states, userID)
	if err := r.flush(userStatesFile, states); err != nil {
		return err
	}
	r.states = states
	return nil
}

// DeleteAllUserData writes the three files in turn and only swaps in the
// stores whose file was written.
func (r *FileLearnerRepository) DeleteAllUserData(_ context.Context, userID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	profiles := maps.Clone(r.profiles)
	delete(profiles, userID)
	if err := r.flush(profilesFile, profiles); err != nil {
		return err
	}
	r.profiles = profiles

	events := maps.Clone(r.events)
	delete(events, userID)
	if err := r.flush(eventsFile, events); err != nil {
		return err
	}
	r.events = events

	states := maps.Clone(r.states)
	delete(states, userID)
	if err := r.flush(userStatesFile, states); err != nil {
		return err
	}
	r.states = states
	return nil
}
