package model

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
	RoleSystem    Role = "system"
)

// Message is one entry of the append-only conversation log.
type Message struct {
	Role      Role      `json:"role"`
	Content   string    `json:"content"`
	Timestamp time.Time `json:"timestamp"`
	// Step names the responder that produced the message. User messages typed
	// by the user carry no step; feedback captured at the human-input gate
	// carries StepHumanInput.
	Step StepID `json:"step,omitempty"`
}

type SkillLevel string

const (
	SkillUnknown      SkillLevel = "unknown"
	SkillBeginner     SkillLevel = "beginner"
	SkillIntermediate SkillLevel = "intermediate"
	SkillAdvanced     SkillLevel = "advanced"
)

// Known reports whether the level was actually stated. An empty level counts
// as unknown.
func (l SkillLevel) Known() bool {
	return l != "" && l != SkillUnknown
}

type UserProfile struct {
	UserID           string         `json:"user_id,omitempty"`
	Background       string         `json:"background,omitempty"`
	SkillLevel       SkillLevel     `json:"skill_level,omitempty"`
	LearningGoals    []string       `json:"learning_goals"`
	TimeAvailability string         `json:"time_availability,omitempty"`
	Preferences      map[string]any `json:"preferences,omitempty"`
}

// AddLearningGoal appends goal unless it is blank or already present.
func (p *UserProfile) AddLearningGoal(goal string) bool {
	goal = strings.TrimSpace(goal)
	if goal == "" {
		return false
	}
	for _, g := range p.LearningGoals {
		if g == goal {
			return false
		}
	}
	p.LearningGoals = append(p.LearningGoals, goal)
	return true
}

func (p UserProfile) clone() UserProfile {
	out := p
	out.LearningGoals = cloneStrings(p.LearningGoals)
	if p.Preferences != nil {
		out.Preferences = make(map[string]any, len(p.Preferences))
		for k, v := range p.Preferences {
			out.Preferences[k] = v
		}
	}
	return out
}

// ConversationState is the single record threaded through every step of a
// conversation. It is owned by one conversation and mutated by one step at a time.
type ConversationState struct {
	ConversationID     string            `json:"conversation_id"`
	Messages           []Message         `json:"messages"`
	UserProfile        UserProfile       `json:"user_profile"`
	CurrentTask        string            `json:"current_task,omitempty"`
	NextStep           StepID            `json:"next_step,omitempty"`
	CourseCandidates   []CourseInfo      `json:"course_candidates"`
	LearningPlan       *LearningPlan     `json:"learning_plan,omitempty"`
	RequiresHumanInput bool              `json:"requires_human_input"`
	HumanFeedback      string            `json:"human_feedback,omitempty"`
	LoopCount          int               `json:"loop_count"`
	IsComplete         bool              `json:"is_complete"`
	TopicStack         []ContextSnapshot `json:"topic_stack"`
	// TopicCursor is the number of leading messages already inspected for topic switches.
	TopicCursor int       `json:"topic_cursor"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// NewConversationState returns an empty state with a fresh id. A blank id
// generates a UUID.
func NewConversationState(conversationID string, profile UserProfile) *ConversationState {
	if strings.TrimSpace(conversationID) == "" {
		conversationID = uuid.NewString()
	}
	if profile.LearningGoals == nil {
		profile.LearningGoals = []string{}
	}
	now := Now()
	return &ConversationState{
		ConversationID:   conversationID,
		Messages:         []Message{},
		UserProfile:      profile,
		CourseCandidates: []CourseInfo{},
		TopicStack:       []ContextSnapshot{},
		CreatedAt:        now,
		UpdatedAt:        now,
	}
}

// Now returns the wall clock in UTC without a monotonic reading so timestamps
// survive a JSON round trip unchanged.
func Now() time.Time {
	return time.Now().UTC()
}

// AddMessage appends a message to the log.
func (s *ConversationState) AddMessage(role Role, content string, step StepID) {
	s.Messages = append(s.Messages, Message{
		Role:      role,
		Content:   content,
		Timestamp: Now(),
		Step:      step,
	})
	s.UpdatedAt = Now()
}

// AddAssistantMessage is a shorthand for AddMessage(RoleAssistant, ...).
func (s *ConversationState) AddAssistantMessage(content string, step StepID) {
	s.AddMessage(RoleAssistant, content, step)
}

// LastUserMessage returns the most recent user message and its index.
func (s *ConversationState) LastUserMessage() (Message, int, bool) {
	for i := len(s.Messages) - 1; i >= 0; i-- {
		if s.Messages[i].Role == RoleUser {
			return s.Messages[i], i, true
		}
	}
	return Message{}, -1, false
}

// LastMessage returns the final entry of the log, if any.
func (s *ConversationState) LastMessage() (Message, bool) {
	if len(s.Messages) == 0 {
		return Message{}, false
	}
	return s.Messages[len(s.Messages)-1], true
}

// RequestHumanInput raises the gate and points the conversation at the consumer.
func (s *ConversationState) RequestHumanInput() {
	s.RequiresHumanInput = true
	s.NextStep = StepHumanInput
}

// ClearHumanInput lowers the gate and drops any supplied feedback.
func (s *ConversationState) ClearHumanInput() {
	s.RequiresHumanInput = false
	s.HumanFeedback = ""
}

// MarkComplete ends the conversation.
func (s *ConversationState) MarkComplete() {
	s.IsComplete = true
	s.ClearHumanInput()
	s.NextStep = StepTerminate
}

// Snapshot captures the topic-scoped fields for the context stack.
func (s *ConversationState) Snapshot() ContextSnapshot {
	return ContextSnapshot{
		CurrentTask:      s.CurrentTask,
		CourseCandidates: CloneCourses(s.CourseCandidates),
		LearningPlan:     s.LearningPlan.Clone(),
		SavedAt:          Now(),
	}
}

// Restore writes a snapshot's topic-scoped fields back into the state.
func (s *ConversationState) Restore(snap ContextSnapshot) {
	s.CurrentTask = snap.CurrentTask
	s.CourseCandidates = CloneCourses(snap.CourseCandidates)
	s.LearningPlan = snap.LearningPlan.Clone()
}

// Clone returns a deep copy.
func (s *ConversationState) Clone() *ConversationState {
	if s == nil {
		return nil
	}
	out := *s
	if s.Messages != nil {
		out.Messages = append(make([]Message, 0, len(s.Messages)), s.Messages...)
	}
	out.UserProfile = s.UserProfile.clone()
	out.CourseCandidates = CloneCourses(s.CourseCandidates)
	out.LearningPlan = s.LearningPlan.Clone()
	if s.TopicStack != nil {
		out.TopicStack = make([]ContextSnapshot, len(s.TopicStack))
		for i, snap := range s.TopicStack {
			out.TopicStack[i] = snap.clone()
		}
	}
	return &out
}

// ContextSnapshot is one entry of the topic stack.
type ContextSnapshot struct {
	CurrentTask      string        `json:"current_task,omitempty"`
	CourseCandidates []CourseInfo  `json:"course_candidates"`
	LearningPlan     *LearningPlan `json:"learning_plan,omitempty"`
	SavedAt          time.Time     `json:"saved_at"`
}

func (c ContextSnapshot) clone() ContextSnapshot {
	out := c
	out.CourseCandidates = CloneCourses(c.CourseCandidates)
	out.LearningPlan = c.LearningPlan.Clone()
	return out
}
