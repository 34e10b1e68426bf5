package observers

import (
	"context"
	"time"

	einocb "github.com/cloudwego/eino/callbacks"
	"github.com/cloudwego/eino/compose"

	"github.com/it-worker-club/study-agent/internal/metrics"
	logx "github.com/it-worker-club/study-agent/pkg/logger"
)

type nodeStartKey struct{ name string }

// NewNodeCallbacks times every lambda node of the flow graph and reports the
// duration to rec under the node name.
func NewNodeCallbacks(rec *metrics.Recorder) einocb.Handler {
	return einocb.NewHandlerBuilder().
		OnStartFn(func(ctx context.Context, info *einocb.RunInfo, _ einocb.CallbackInput) context.Context {
			if !isNode(info) {
				return ctx
			}
			return context.WithValue(ctx, nodeStartKey{info.Name}, time.Now())
		}).
		OnEndFn(func(ctx context.Context, info *einocb.RunInfo, _ einocb.CallbackOutput) context.Context {
			if !isNode(info) {
				return ctx
			}
			if started, ok := ctx.Value(nodeStartKey{info.Name}).(time.Time); ok {
				d := time.Since(started)
				rec.ObserveStep(info.Name, d)
				logx.Debug().Str("node", info.Name).Dur("elapsed", d).Msg("node end")
			}
			return ctx
		}).
		OnErrorFn(func(ctx context.Context, info *einocb.RunInfo, err error) context.Context {
			if isNode(info) {
				logx.Error().Err(err).Str("node", info.Name).Msg("node error")
			}
			return ctx
		}).
		Build()
}

func isNode(info *einocb.RunInfo) bool {
	return info != nil && info.Component == compose.ComponentOfLambda && info.Name != ""
}
