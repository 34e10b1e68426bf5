package conversations

import (
	"fmt"
	"strings"

	"github.com/it-worker-club/study-agent/internal/agent/model"
	logx "github.com/it-worker-club/study-agent/pkg/logger"
)

type TopicSwitch string

const (
	TopicNone             TopicSwitch = "none"
	TopicNew              TopicSwitch = "newTopic"
	TopicReturnToPrevious TopicSwitch = "returnToPrevious"
)

const (
	newTopicAck  = "好的，我明白了。让我们来讨论这个新话题。"
	returnAckFmt = "好的，让我们回到%s。"
)

// Markers are the substrings that signal a topic switch. The two sets must be disjoint.
type Markers struct {
	NewTopic         []string `yaml:"new_topic"`
	ReturnToPrevious []string `yaml:"return_to_previous"`
}

// DefaultMarkers returns the built-in Chinese and English marker sets.
func DefaultMarkers() Markers {
	return Markers{
		NewTopic: []string{
			"换个话题", "另外", "还有", "对了", "顺便问一下", "我想问", "我还想",
			"by the way", "also", "another question",
		},
		ReturnToPrevious: []string{
			"回到", "之前", "刚才", "前面",
			"earlier", "previous", "back to",
		},
	}
}

// Validate rejects empty or overlapping marker sets.
func (m Markers) Validate() error {
	if len(m.NewTopic) == 0 || len(m.ReturnToPrevious) == 0 {
		return fmt.Errorf("topic markers: both sets must be non-empty")
	}
	seen := make(map[string]struct{}, len(m.NewTopic))
	for _, k := range m.NewTopic {
		seen[strings.ToLower(k)] = struct{}{}
	}
	for _, k := range m.ReturnToPrevious {
		if _, dup := seen[strings.ToLower(k)]; dup {
			return fmt.Errorf("topic markers: %q is in both sets", k)
		}
	}
	return nil
}

// TopicDetector classifies the newest user message against the marker sets.
type TopicDetector struct {
	newTopic []string
	back     []string
}

func NewTopicDetector(m Markers) *TopicDetector {
	return &TopicDetector{
		newTopic: lowerAll(m.NewTopic),
		back:     lowerAll(m.ReturnToPrevious),
	}
}

// Classify inspects a single text. Return markers win when both sets match.
func (d *TopicDetector) Classify(text string) TopicSwitch {
	text = strings.ToLower(text)
	if containsAny(text, d.back) {
		return TopicReturnToPrevious
	}
	if containsAny(text, d.newTopic) {
		return TopicNew
	}
	return TopicNone
}

// Detect inspects only the most recent user message, and only when it has not
// been inspected before. Feedback captured at the human-input gate is never a
// topic switch. The returned index is the message that was inspected, or -1.
func (d *TopicDetector) Detect(state *model.ConversationState) (TopicSwitch, int) {
	msg, idx, ok := state.LastUserMessage()
	if !ok || idx < state.TopicCursor || msg.Step == model.StepHumanInput {
		return TopicNone, -1
	}
	return d.Classify(msg.Content), idx
}

// MarkInspected advances the cursor past the message at idx.
func MarkInspected(state *model.ConversationState, idx int) {
	if idx >= 0 && idx+1 > state.TopicCursor {
		state.TopicCursor = idx + 1
	}
}

var defaultDetector = NewTopicDetector(DefaultMarkers())

// DetectTopicSwitch classifies the state with the default markers.
func DetectTopicSwitch(state *model.ConversationState) TopicSwitch {
	sw, _ := defaultDetector.Detect(state)
	return sw
}

// PushContext saves the topic-scoped fields onto the stack.
func PushContext(state *model.ConversationState) {
	state.TopicStack = append(state.TopicStack, state.Snapshot())
}

// PopContext restores the most recent snapshot. It reports false and leaves
// the state untouched when the stack is empty.
func PopContext(state *model.ConversationState) (model.ContextSnapshot, bool) {
	n := len(state.TopicStack)
	if n == 0 {
		return model.ContextSnapshot{}, false
	}
	snap := state.TopicStack[n-1]
	state.TopicStack = state.TopicStack[:n-1]
	state.Restore(snap)
	return snap, true
}

// ApplyTopicSwitch mutates the state for a detected switch and reports
// whether anything changed. A return with an empty stack is a no-op.
func ApplyTopicSwitch(state *model.ConversationState, sw TopicSwitch) bool {
	switch sw {
	case TopicNew:
		PushContext(state)
		state.CurrentTask = ""
		state.AddAssistantMessage(newTopicAck, model.StepCoordinator)
		state.NextStep = model.StepCoordinator
		logx.Debug().
			Str("conversation_id", state.ConversationID).
			Int("stack_depth", len(state.TopicStack)).
			Msg("Topic switch: context pushed")
		return true
	case TopicReturnToPrevious:
		if _, ok := PopContext(state); !ok {
			logx.Debug().
				Str("conversation_id", state.ConversationID).
				Msg("Return requested with empty topic stack; ignoring")
			return false
		}
		state.AddAssistantMessage(fmt.Sprintf(returnAckFmt, ExtractContext(state).Phase.Description()), model.StepCoordinator)
		state.NextStep = model.StepCoordinator
		logx.Debug().
			Str("conversation_id", state.ConversationID).
			Int("stack_depth", len(state.TopicStack)).
			Msg("Topic switch: context restored")
		return true
	default:
		return false
	}
}

func lowerAll(in []string) []string {
	out := make([]string, 0, len(in))
	for _, s := range in {
		if s = strings.ToLower(strings.TrimSpace(s)); s != "" {
			out = append(out, s)
		}
	}
	return out
}

func containsAny(text string, needles []string) bool {
	for _, n := range needles {
		if strings.Contains(text, n) {
			return true
		}
	}
	return false
}
