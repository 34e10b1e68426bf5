package nodes

import (
	"context"
	"fmt"

	"github.com/it-worker-club/study-agent/internal/agent/model"
	logx "github.com/it-worker-club/study-agent/pkg/logger"
)

// invokeResponder runs r and turns a panic into an error.
func invokeResponder(ctx context.Context, r model.Responder, state *model.ConversationState) (result *model.SubtaskResult, err error) {
	defer func() {
		if p := recover(); p != nil {
			logx.Error().
				Str("conversation_id", state.ConversationID).
				Msgf("responder panic recovered: %v", p)
			result = nil
			err = fmt.Errorf("responder panic: %v", p)
		}
	}()
	return r.Respond(ctx, state)
}
