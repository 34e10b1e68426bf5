package conversations

import (
	"fmt"
	"strings"

	"github.com/it-worker-club/study-agent/internal/agent/model"
	logx "github.com/it-worker-club/study-agent/pkg/logger"
)

type Phase string

const (
	PhaseInitialInquiry    Phase = "initialInquiry"
	PhaseGoalClarification Phase = "goalClarification"
	PhaseCourseSelection   Phase = "courseSelection"
	PhasePlanReview        Phase = "planReview"
	PhasePlanExecution     Phase = "planExecution"
)

var phaseDescriptions = map[Phase]string{
	PhasePlanExecution:     "学习计划执行",
	PhasePlanReview:        "学习计划审核",
	PhaseCourseSelection:   "课程选择",
	PhaseGoalClarification: "目标明确",
	PhaseInitialInquiry:    "初始咨询",
}

// Description is the user-facing name of the phase.
func (p Phase) Description() string {
	if d, ok := phaseDescriptions[p]; ok {
		return d
	}
	return "之前的话题"
}

// ContextSummary is a read-only digest of where the conversation stands.
type ContextSummary struct {
	Phase       Phase
	CurrentTask string
	UserGoals   []string
	NumCourses  int
	HasPlan     bool
	PlanStatus  model.PlanStatus
	NumMessages int
}

// ExtractContext derives the conversation phase from the state.
func ExtractContext(state *model.ConversationState) ContextSummary {
	c := ContextSummary{
		CurrentTask: state.CurrentTask,
		UserGoals:   state.UserProfile.LearningGoals,
		NumCourses:  len(state.CourseCandidates),
		HasPlan:     state.LearningPlan != nil,
		NumMessages: len(state.Messages),
	}
	if c.HasPlan {
		c.PlanStatus = state.LearningPlan.Status
	}

	switch {
	case c.HasPlan && c.PlanStatus == model.PlanApproved:
		c.Phase = PhasePlanExecution
	case c.HasPlan:
		c.Phase = PhasePlanReview
	case c.NumCourses > 0:
		c.Phase = PhaseCourseSelection
	case len(c.UserGoals) > 0:
		c.Phase = PhaseGoalClarification
	default:
		c.Phase = PhaseInitialInquiry
	}
	return c
}

var skillLevelNames = map[model.SkillLevel]string{
	model.SkillBeginner:     "初学者",
	model.SkillIntermediate: "中级",
	model.SkillAdvanced:     "高级",
}

var planStatusNames = map[model.PlanStatus]string{
	model.PlanDraft:     "草稿",
	model.PlanApproved:  "已批准",
	model.PlanRevising:  "修订中",
	model.PlanCompleted: "已完成",
}

// BuildContextSummary renders the context digest handed to a responder's prompt.
func BuildContextSummary(state *model.ConversationState) string {
	c := ExtractContext(state)
	var parts []string

	if len(c.UserGoals) > 0 {
		parts = append(parts, "用户的学习目标："+strings.Join(c.UserGoals, "、"))
	}
	if bg := state.UserProfile.Background; bg != "" {
		parts = append(parts, "用户背景："+bg)
	}
	if lvl := state.UserProfile.SkillLevel; lvl.Known() {
		name, ok := skillLevelNames[lvl]
		if !ok {
			name = string(lvl)
		}
		parts = append(parts, "技能水平："+name)
	}
	if c.NumCourses > 0 {
		parts = append(parts, fmt.Sprintf("已推荐 %d 门课程", c.NumCourses))
	}
	if c.HasPlan {
		name, ok := planStatusNames[c.PlanStatus]
		if !ok {
			name = string(c.PlanStatus)
		}
		parts = append(parts, "学习计划状态："+name)
	}
	if c.CurrentTask != "" {
		parts = append(parts, "当前任务："+c.CurrentTask)
	}

	if len(parts) == 0 {
		return "对话上下文：这是一个新的对话。"
	}
	return "对话上下文：\n- " + strings.Join(parts, "\n- ")
}

// SummarizeSubtask renders the completion summary for a finished subtask.
func SummarizeSubtask(r model.SubtaskResult) string {
	switch r.Name {
	case model.SubtaskCourseSearch:
		return fmt.Sprintf("✓ 课程搜索完成：找到了 %d 门相关课程。\n您可以查看上述推荐，或告诉我您的反馈。", r.NumCourses)
	case model.SubtaskLearningPlanCreation:
		duration := r.EstimatedDuration
		if duration == "" {
			duration = "未知"
		}
		return fmt.Sprintf("✓ 学习计划制定完成：包含 %d 个里程碑，预计学习时长 %s。\n请查看上述计划并告诉我您的意见。", r.NumMilestones, duration)
	case model.SubtaskPlanApproval:
		if r.Status == model.PlanApproved {
			return "✓ 学习计划已确认。\n接下来我会继续协助您执行这个计划。"
		}
		return "✓ 已收到您的反馈。\n让我根据您的建议调整计划。"
	case model.SubtaskCourseFeedback:
		switch r.FeedbackType {
		case model.FeedbackSatisfied:
			return "✓ 很高兴您对推荐满意。\n如果需要制定学习计划或有其他问题，请告诉我。"
		case model.FeedbackMore:
			return "✓ 收到，让我为您寻找更多课程。"
		default:
			return "✓ 已收到您的反馈。\n让我根据您的需求调整推荐。"
		}
	default:
		return fmt.Sprintf("✓ %s 已完成。", r.Name)
	}
}

// AppendSubtaskSummary adds the completion summary as an assistant message.
func AppendSubtaskSummary(state *model.ConversationState, r model.SubtaskResult, step model.StepID) {
	summary := SummarizeSubtask(r)
	state.AddAssistantMessage(summary, step)
	logx.Debug().
		Str("conversation_id", state.ConversationID).
		Str("subtask", string(r.Name)).
		Msg("Added subtask summary")
}

var transitionMessages = map[[2]model.StepID]string{
	{model.StepCoordinator, model.StepCourseAdvisor}:   "让我为您查找相关课程...",
	{model.StepCoordinator, model.StepLearningPlanner}: "让我为您制定学习计划...",
}

// TransitionMessage returns the hand-off line shown when moving between
// responders, or "" when the transition needs none.
func TransitionMessage(from, to model.StepID) string {
	return transitionMessages[[2]model.StepID{from, to}]
}

// CreateConversationSummary renders a compact multi-line digest of the whole state.
func CreateConversationSummary(state *model.ConversationState) string {
	parts := []string{
		"对话 ID: " + state.ConversationID,
		fmt.Sprintf("消息数量: %d", len(state.Messages)),
		fmt.Sprintf("循环计数: %d", state.LoopCount),
	}
	if goals := state.UserProfile.LearningGoals; len(goals) > 0 {
		parts = append(parts, "学习目标: "+strings.Join(goals, ", "))
	}
	if lvl := state.UserProfile.SkillLevel; lvl.Known() {
		parts = append(parts, "技能水平: "+string(lvl))
	}
	if n := len(state.CourseCandidates); n > 0 {
		parts = append(parts, fmt.Sprintf("推荐课程: %d 门", n))
	}
	if p := state.LearningPlan; p != nil {
		parts = append(parts, fmt.Sprintf("学习计划: %s (%d 个里程碑)", p.Status, len(p.Milestones)))
	}
	if state.CurrentTask != "" {
		parts = append(parts, "当前任务: "+state.CurrentTask)
	}
	if state.NextStep != "" {
		parts = append(parts, "下一步: "+string(state.NextStep))
	}
	return strings.Join(parts, "\n")
}
