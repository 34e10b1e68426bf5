package responders

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/cloudwego/eino/components/tool"

	"github.com/it-worker-club/study-agent/internal/agent/graph/conversations"
	"github.com/it-worker-club/study-agent/internal/agent/graph/tools"
	"github.com/it-worker-club/study-agent/internal/agent/model"
	logx "github.com/it-worker-club/study-agent/pkg/logger"
)

const defaultMaxResults = 5

// CourseAdvisor searches the course catalog and replaces the candidates.
type CourseAdvisor struct {
	search     tool.InvokableTool
	maxResults int
}

func NewCourseAdvisor(search tool.InvokableTool, maxResults int) *CourseAdvisor {
	if maxResults <= 0 {
		maxResults = defaultMaxResults
	}
	return &CourseAdvisor{search: search, maxResults: maxResults}
}

func (a *CourseAdvisor) Respond(ctx context.Context, state *model.ConversationState) (*model.SubtaskResult, error) {
	more := state.CurrentTask == TaskFindMoreCourses
	in := tools.SearchCourseInput{
		Query:      searchQuery(state),
		Difficulty: statedSkill(state),
		MaxResults: a.maxResults,
	}
	if more {
		in.Exclude = model.CourseRefs(state.CourseCandidates)
	}
	if strings.TrimSpace(in.Query) == "" {
		return nil, fmt.Errorf("course advisor: no request to search for")
	}

	args, err := json.Marshal(in)
	if err != nil {
		return nil, fmt.Errorf("encode search arguments: %w", err)
	}
	raw, err := tools.Invoke(ctx, a.search, string(args))
	if err != nil {
		return nil, fmt.Errorf("course search: %w", err)
	}
	var out tools.SearchCourseOutput
	if err := json.Unmarshal([]byte(raw), &out); err != nil {
		return nil, fmt.Errorf("decode search result: %w", err)
	}

	switch {
	case len(out.Courses) > 0:
		state.CourseCandidates = model.CloneCourses(out.Courses)
		state.AddAssistantMessage(formatCourses(out.Courses), model.StepCourseAdvisor)
	case more:
		// keep the previous candidates so they can still be planned with
		state.AddAssistantMessage("抱歉，暂时没有找到更多相关课程。以上推荐仍然可供参考。", model.StepCourseAdvisor)
	default:
		state.CourseCandidates = []model.CourseInfo{}
		state.AddAssistantMessage(fmt.Sprintf("抱歉，暂时没有找到与「%s」相关的课程。您可以换个关键词试试。", in.Query), model.StepCourseAdvisor)
	}
	state.NextStep = model.StepCoordinator

	logx.Debug().
		Str("conversation_id", state.ConversationID).
		Str("query", in.Query).
		Int("found", len(out.Courses)).
		Msg("Course advisor completed")
	return &model.SubtaskResult{Name: model.SubtaskCourseSearch, NumCourses: len(out.Courses)}, nil
}

// searchQuery derives the catalog query from the current task. Tasks written
// by the feedback consumer are not queries themselves.
func searchQuery(state *model.ConversationState) string {
	switch state.CurrentTask {
	case TaskFindMoreCourses:
		return nonEmpty(lastRequest(state), conversations.LatestUserInput(state))
	case TaskAdjustCourses:
		return strings.TrimSpace(conversations.LatestUserInput(state) + " " + lastRequest(state))
	case "":
		return conversations.LatestUserInput(state)
	default:
		return state.CurrentTask
	}
}

// lastRequest returns the newest user message typed outside the feedback gate.
func lastRequest(state *model.ConversationState) string {
	for i := len(state.Messages) - 1; i >= 0; i-- {
		m := state.Messages[i]
		if m.Role == model.RoleUser && m.Step != model.StepHumanInput {
			return strings.TrimSpace(m.Content)
		}
	}
	return ""
}

func formatCourses(courses []model.CourseInfo) string {
	var b strings.Builder
	b.WriteString("为您推荐以下课程：\n")
	for i, c := range courses {
		fmt.Fprintf(&b, "\n%d. %s", i+1, c.Title)
		if c.Provider != "" {
			fmt.Fprintf(&b, "（%s）", c.Provider)
		}
		fmt.Fprintf(&b, "\n   - 难度：%s\n   - 时长：%s\n", orUnknown(c.Difficulty), orUnknown(c.Duration))
		if c.Rating > 0 {
			fmt.Fprintf(&b, "   - 评分：%.1f\n", c.Rating)
		}
		if c.Description != "" {
			fmt.Fprintf(&b, "   - 描述：%s\n", c.Description)
		}
		fmt.Fprintf(&b, "   - 链接：%s\n", c.URL)
	}
	return strings.TrimRight(b.String(), "\n")
}

func orUnknown(s string) string {
	if s == "" {
		return "未知"
	}
	return s
}

// statedSkill is the profile's skill level, or "" when none was given.
func statedSkill(state *model.ConversationState) string {
	if lvl := state.UserProfile.SkillLevel; lvl.Known() {
		return string(lvl)
	}
	return ""
}
