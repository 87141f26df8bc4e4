package models

// MaxEventsPerUser bounds the behavioral event log kept for each learner.
const MaxEventsPerUser = 200

// LearnerProfile is the free-form profile document produced for one learning goal.
type LearnerProfile map[string]any

// ProfileEntry pairs a profile with the goal it belongs to.
type ProfileEntry struct {
	GoalID  int            `json:"goal_id"`
	Profile LearnerProfile `json:"learner_profile"`
}

// Event is one behavioral event logged by the client.
type Event struct {
	UserID    string         `json:"user_id"`
	EventType string         `json:"event_type"`
	Payload   map[string]any `json:"payload"`
	TS        string         `json:"ts"`
}

// UserState is the opaque UI state blob persisted per user.
type UserState map[string]any
