package dto

import "github.com/micocomia/5902Group5/internal/models"

type LogEventRequest struct {
	UserID    string         `json:"user_id"`
	EventType string         `json:"event_type"`
	Payload   map[string]any `json:"payload"`
	TS        string         `json:"ts,omitempty"`
}

type LogEventResponse struct {
	OK         bool `json:"ok"`
	EventCount int  `json:"event_count"`
}

type EventsResponse struct {
	UserID string         `json:"user_id"`
	Events []models.Event `json:"events"`
}

type ProfileResponse struct {
	UserID         string                `json:"user_id"`
	GoalID         int                   `json:"goal_id"`
	LearnerProfile models.LearnerProfile `json:"learner_profile"`
}

// ProfilesResponse maps goal ids to profiles.
type ProfilesResponse struct {
	UserID   string                        `json:"user_id"`
	Profiles map[int]models.LearnerProfile `json:"profiles"`
}

type UpsertProfileRequest struct {
	LearnerProfile models.LearnerProfile `json:"learner_profile"`
}

type UserStateRequest struct {
	State models.UserState `json:"state"`
}

type UserStateResponse struct {
	State models.UserState `json:"state"`
}

type OKResponse struct {
	OK bool `json:"ok"`
}

// BehavioralMetricsResponse summarizes learning sessions recorded in the UI
// state. GoalID is null when the metrics span every goal.
type BehavioralMetricsResponse struct {
	UserID                    string    `json:"user_id"`
	GoalID                    *int      `json:"goal_id"`
	SessionsCompleted         int       `json:"sessions_completed"`
	TotalSessionsInPath       int       `json:"total_sessions_in_path"`
	SessionsLearned           int       `json:"sessions_learned"`
	AvgSessionDurationSec     float64   `json:"avg_session_duration_sec"`
	TotalLearningTimeSec      float64   `json:"total_learning_time_sec"`
	MotivationalTriggersCount int       `json:"motivational_triggers_count"`
	MasteryHistory            []float64 `json:"mastery_history"`
	LatestMasteryRate         *float64  `json:"latest_mastery_rate"`
}
