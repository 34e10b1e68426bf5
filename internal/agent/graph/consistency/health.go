package consistency

import (
	"fmt"

	"github.com/it-worker-club/study-agent/internal/agent/model"
)

type Health string

const (
	Healthy   Health = "healthy"
	Warning   Health = "warning"
	Unhealthy Health = "unhealthy"
)

type HealthReport struct {
	Health       Health   `json:"health"`
	Issues       []string `json:"issues"`
	Warnings     []string `json:"warnings"`
	LoopCount    int      `json:"loop_count"`
	MessageCount int      `json:"message_count"`
}

// HealthCheck flags runaway loops, stalled conversations and inconsistent state.
func HealthCheck(state *model.ConversationState, maxLoopCount int) HealthReport {
	r := HealthReport{
		Issues:       []string{},
		Warnings:     []string{},
		LoopCount:    state.LoopCount,
		MessageCount: len(state.Messages),
	}

	if state.LoopCount > maxLoopCount-2 {
		r.Warnings = append(r.Warnings, fmt.Sprintf("high loop count: %d", state.LoopCount))
	}
	if state.LoopCount > maxLoopCount {
		r.Issues = append(r.Issues, fmt.Sprintf("loop count exceeded limit: %d", state.LoopCount))
	}

	if len(state.Messages) > 10 && len(state.CourseCandidates) == 0 && state.LearningPlan == nil {
		r.Warnings = append(r.Warnings, "no progress: no courses or plan after 10+ messages")
	}
	if len(state.Messages) > 3 && len(state.UserProfile.LearningGoals) == 0 {
		r.Warnings = append(r.Warnings, "user goals not captured after 3+ messages")
	}

	if ok, desc := CheckConsistency(state); !ok {
		r.Issues = append(r.Issues, "context inconsistency: "+desc)
	}

	switch {
	case len(r.Issues) > 0:
		r.Health = Unhealthy
	case len(r.Warnings) > 0:
		r.Health = Warning
	default:
		r.Health = Healthy
	}
	return r
}
