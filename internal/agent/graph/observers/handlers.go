package observers

import (
	einocb "github.com/cloudwego/eino/callbacks"
	callbackHelper "github.com/cloudwego/eino/utils/callbacks"

	"github.com/it-worker-club/study-agent/internal/metrics"
)

// NewAllCallbacks aggregates all observer handlers (prompt, tool, model) into one callbacks.Handler.
func NewAllCallbacks() einocb.Handler {
	return callbackHelper.NewHandlerHelper().
		Tool(newToolHandler()).
		ChatModel(newModelHandler()).
		Prompt(newPromptHandler()).
		Handler()
}

// NewFlowCallbacks returns the component handlers plus node timing bound to rec.
// rec may be nil.
func NewFlowCallbacks(rec *metrics.Recorder) []einocb.Handler {
	return []einocb.Handler{NewAllCallbacks(), NewNodeCallbacks(rec)}
}
