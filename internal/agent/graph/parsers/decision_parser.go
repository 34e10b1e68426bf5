package parsers

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"unicode/utf8"

	"github.com/it-worker-club/study-agent/internal/agent/model"
	errx "github.com/it-worker-club/study-agent/internal/core/error"
	logx "github.com/it-worker-club/study-agent/pkg/logger"
)

// basic safety limits to avoid pathological inputs
const (
	maxContentLen = 64 * 1024 // 64KB
	maxErrSnippet = 200       // limit error snippet size
	maxMilestones = 12
)

// Decision is the coordinator's routing choice.
type Decision struct {
	NextStep           model.StepID
	CurrentTask        string
	RequiresHumanInput bool
	Response           string
}

type rawDecision struct {
	NextAgent          string `json:"next_agent"`
	CurrentTask        string `json:"current_task"`
	RequiresHumanInput bool   `json:"requires_human_input"`
	Response           string `json:"response"`
}

// PlanDraft is the planner model's structured answer.
type PlanDraft struct {
	Goal              string            `json:"goal"`
	Milestones        []model.Milestone `json:"milestones"`
	EstimatedDuration string            `json:"estimated_duration"`
	Summary           string            `json:"summary"`
}

// extractJSONObject returns the text between the first "{" and the last "}".
func extractJSONObject(content string) (string, error) {
	start := strings.Index(content, "{")
	end := strings.LastIndex(content, "}")
	if start < 0 || end <= start {
		return "", fmt.Errorf("no json object in %q", safeSnippet(content))
	}
	return content[start : end+1], nil
}

func guard(content string) (string, error) {
	if !utf8.ValidString(content) {
		return "", fmt.Errorf("content is not valid utf8")
	}
	if len(content) > maxContentLen {
		logx.Warn().
			Str("component", "decision_parser").
			Int("max_len", maxContentLen).
			Int("orig_len", len(content)).
			Msg("content truncated due to size limit")
		content = content[:maxContentLen]
	}
	return content, nil
}

// ParseDecision parses the coordinator's JSON decision. next_agent and
// current_task are required. An unknown agent is turned into a clarification
// request on the human-input gate.
func ParseDecision(content string) (d *Decision, err error) {
	// panic safety
	defer func() {
		if r := recover(); r != nil {
			logx.Error().Str("component", "decision_parser").Msgf("panic recovered: %v", r)
			err = errx.New(fmt.Errorf("decision parser panic"), http.StatusInternalServerError, errx.SystemErrorMessage)
			d = nil
		}
	}()

	content, err = guard(content)
	if err != nil {
		return nil, err
	}
	obj, err := extractJSONObject(content)
	if err != nil {
		return nil, err
	}

	var raw rawDecision
	if err := json.Unmarshal([]byte(obj), &raw); err != nil {
		return nil, fmt.Errorf("decode decision: %w", err)
	}
	if strings.TrimSpace(raw.NextAgent) == "" {
		return nil, fmt.Errorf("decision missing next_agent")
	}
	if strings.TrimSpace(raw.CurrentTask) == "" {
		return nil, fmt.Errorf("decision missing current_task")
	}

	d = &Decision{
		CurrentTask:        strings.TrimSpace(raw.CurrentTask),
		RequiresHumanInput: raw.RequiresHumanInput,
		Response:           strings.TrimSpace(raw.Response),
	}

	step, ok := model.ParseStepID(raw.NextAgent)
	switch {
	case ok && (step == model.StepCourseAdvisor || step == model.StepLearningPlanner || step == model.StepTerminate):
		d.NextStep = step
	case ok && step == model.StepHumanInput:
		d.NextStep = step
		d.RequiresHumanInput = true
	default:
		logx.Warn().
			Str("component", "decision_parser").
			Str("next_agent", raw.NextAgent).
			Msg("invalid next_agent; asking the user to clarify")
		d.NextStep = model.StepHumanInput
		d.RequiresHumanInput = true
	}
	return d, nil
}

// FallbackDecision is used when the coordinator's output cannot be parsed.
func FallbackDecision() *Decision {
	return &Decision{
		NextStep:           model.StepHumanInput,
		CurrentTask:        "需要用户澄清",
		RequiresHumanInput: true,
		Response:           "抱歉，我不太确定如何帮助您。能否请您详细说明一下您的需求？",
	}
}

// ParsePlan parses the planner's JSON plan. A goal and at least one milestone are required.
func ParsePlan(content string) (p *PlanDraft, err error) {
	defer func() {
		if r := recover(); r != nil {
			logx.Error().Str("component", "plan_parser").Msgf("panic recovered: %v", r)
			err = errx.New(fmt.Errorf("plan parser panic"), http.StatusInternalServerError, errx.SystemErrorMessage)
			p = nil
		}
	}()

	content, err = guard(content)
	if err != nil {
		return nil, err
	}
	obj, err := extractJSONObject(content)
	if err != nil {
		return nil, err
	}

	var draft PlanDraft
	if err := json.Unmarshal([]byte(obj), &draft); err != nil {
		return nil, fmt.Errorf("decode plan: %w", err)
	}
	draft.Goal = strings.TrimSpace(draft.Goal)
	if draft.Goal == "" {
		return nil, fmt.Errorf("plan missing goal")
	}

	kept := draft.Milestones[:0]
	for _, m := range draft.Milestones {
		m.Title = strings.TrimSpace(m.Title)
		if m.Title == "" {
			continue
		}
		kept = append(kept, m)
		if len(kept) == maxMilestones {
			break
		}
	}
	if len(kept) == 0 {
		return nil, fmt.Errorf("plan has no milestones")
	}
	draft.Milestones = kept
	return &draft, nil
}

func safeSnippet(s string) string {
	if len(s) <= maxErrSnippet {
		return s
	}
	// avoid cutting a multi-byte rune in half
	cut := maxErrSnippet
	for cut > 0 && !utf8.RuneStart(s[cut]) {
		cut--
	}
	return s[:cut] + "..."
}
