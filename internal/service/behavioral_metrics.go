package service

import (
	"encoding/json"
	"strconv"
	"strings"

	"github.com/micocomia/5902Group5/internal/dto"
	"github.com/micocomia/5902Group5/internal/models"
)

// UI state keys read by ComputeBehavioralMetrics.
const (
	stateSessionTimes   = "session_learning_times"
	stateSkillsHistory  = "learned_skills_history"
	stateGoals          = "goals"
	sessionStartTime    = "start_time"
	sessionEndTime      = "end_time"
	sessionTriggerTimes = "trigger_time_list"
)

// ComputeBehavioralMetrics summarizes the learning sessions recorded in a UI
// state blob. Sessions are keyed "{goal}-{session}". Mastery and learning
// path figures are only reported for a specific goal.
func ComputeBehavioralMetrics(state models.UserState, goalID *int) *dto.BehavioralMetricsResponse {
	metrics := &dto.BehavioralMetricsResponse{
		GoalID:         goalID,
		MasteryHistory: []float64{},
	}

	sessions, _ := state[stateSessionTimes].(map[string]any)
	prefix := ""
	if goalID != nil {
		prefix = strconv.Itoa(*goalID) + "-"
	}

	for key, raw := range sessions {
		if !strings.HasPrefix(key, prefix) {
			continue
		}
		session, ok := raw.(map[string]any)
		if !ok {
			continue
		}

		if triggers, ok := session[sessionTriggerTimes].([]any); ok && len(triggers) > 1 {
			metrics.MotivationalTriggersCount += len(triggers) - 1
		}

		end, ok := number(session[sessionEndTime])
		if !ok {
			continue
		}
		metrics.SessionsCompleted++
		if start, ok := number(session[sessionStartTime]); ok {
			metrics.TotalLearningTimeSec += end - start
		}
	}
	if metrics.SessionsCompleted > 0 {
		metrics.AvgSessionDurationSec = metrics.TotalLearningTimeSec / float64(metrics.SessionsCompleted)
	}

	if goalID == nil {
		return metrics
	}

	history, _ := state[stateSkillsHistory].(map[string]any)
	if rates, ok := history[strconv.Itoa(*goalID)].([]any); ok {
		for _, r := range rates {
			if v, ok := number(r); ok {
				metrics.MasteryHistory = append(metrics.MasteryHistory, v)
			}
		}
	}
	if n := len(metrics.MasteryHistory); n > 0 {
		latest := metrics.MasteryHistory[n-1]
		metrics.LatestMasteryRate = &latest
	}

	goals, _ := state[stateGoals].([]any)
	for _, raw := range goals {
		goal, ok := raw.(map[string]any)
		if !ok {
			continue
		}
		if id, ok := number(goal["id"]); !ok || int(id) != *goalID {
			continue
		}
		path, _ := goal["learning_path"].([]any)
		metrics.TotalSessionsInPath = len(path)
		for _, step := range path {
			if s, ok := step.(map[string]any); ok && s["if_learned"] == true {
				metrics.SessionsLearned++
			}
		}
		break
	}

	return metrics
}

func number(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	case json.Number:
		f, err := n.Float64()
		return f, err == nil
	}
	return 0, false
}
