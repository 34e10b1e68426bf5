package conversations

import (
	"strings"

	"github.com/cloudwego/eino/schema"

	"github.com/it-worker-club/study-agent/internal/agent/model"
)

const defaultHistoryTurns = 10

// MessagesManager turns the conversation log into model-ready context.
type MessagesManager struct {
	historyTurns int
}

func NewMessagesManager(config model.ConversationConfig) *MessagesManager {
	turns := config.HistoryTurns
	if turns <= 0 {
		turns = defaultHistoryTurns
	}
	return &MessagesManager{historyTurns: turns}
}

// FormatHistory renders the most recent messages as tagged lines for a prompt.
func (mm *MessagesManager) FormatHistory(messages []model.Message) string {
	recent := trimTail(messages, mm.historyTurns)

	var b strings.Builder
	b.WriteString("<conversation_context>\n")
	for _, msg := range recent {
		if msg.Content == "" {
			continue
		}
		switch msg.Role {
		case model.RoleUser:
			b.WriteString("UserMessage(" + msg.Content + ")\n")
		case model.RoleAssistant:
			b.WriteString("AssistantMessage(" + msg.Content + ")\n")
		}
	}
	b.WriteString("</conversation_context>")
	return b.String()
}

// BuildPromptMessages prefixes the recent history with a system prompt.
func (mm *MessagesManager) BuildPromptMessages(systemPrompt string, state *model.ConversationState) []*schema.Message {
	recent := trimTail(state.Messages, mm.historyTurns)
	out := make([]*schema.Message, 0, len(recent)+1)
	out = append(out, schema.SystemMessage(systemPrompt))
	for _, msg := range recent {
		if msg.Content == "" {
			continue
		}
		switch msg.Role {
		case model.RoleUser:
			out = append(out, schema.UserMessage(msg.Content))
		case model.RoleAssistant:
			out = append(out, schema.AssistantMessage(msg.Content, nil))
		}
	}
	return out
}

// LatestUserInput returns the text of the most recent user message.
func LatestUserInput(state *model.ConversationState) string {
	msg, _, ok := state.LastUserMessage()
	if !ok {
		return ""
	}
	return strings.TrimSpace(msg.Content)
}

func trimTail(messages []model.Message, maxTurns int) []model.Message {
	if len(messages) <= maxTurns {
		result := make([]model.Message, len(messages))
		copy(result, messages)
		return result
	}
	source := messages[len(messages)-maxTurns:]
	result := make([]model.Message, len(source))
	copy(result, source)
	return result
}
