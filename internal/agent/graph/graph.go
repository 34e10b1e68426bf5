package graph

import (
	"context"
	"fmt"

	einocb "github.com/cloudwego/eino/callbacks"
	"github.com/cloudwego/eino/compose"

	"github.com/it-worker-club/study-agent/internal/agent/graph/conversations"
	"github.com/it-worker-club/study-agent/internal/agent/graph/nodes"
	"github.com/it-worker-club/study-agent/internal/agent/graph/observers"
	"github.com/it-worker-club/study-agent/internal/agent/model"
	"github.com/it-worker-club/study-agent/internal/metrics"
	logx "github.com/it-worker-club/study-agent/pkg/logger"
)

// maxRunSteps bounds one graph invocation; a step visits at most five nodes.
const maxRunSteps = 10

// Config holds everything needed to compose the step graph.
type Config struct {
	Responders map[model.StepID]model.Responder
	// Detector defaults to the built-in topic markers.
	Detector *conversations.TopicDetector
	Metrics  *metrics.Recorder
	// Callbacks are attached to every invocation. Defaults to the observer set.
	Callbacks []einocb.Handler
}

// Controller advances a conversation by exactly one step per call.
type Controller struct {
	runnable  compose.Runnable[model.StepInput, *model.StepOutcome]
	callbacks []einocb.Handler
}

// GraphBuilder handles the construction of the step graph
type GraphBuilder struct {
	deps  nodes.Deps
	graph *compose.Graph[model.StepInput, *model.StepOutcome]
}

// NewController validates cfg, builds the graph and compiles it.
func NewController(ctx context.Context, cfg Config) (*Controller, error) {
	for _, step := range model.Responders() {
		if cfg.Responders[step] == nil {
			return nil, fmt.Errorf("no responder for step %s", step)
		}
	}
	if cfg.Detector == nil {
		cfg.Detector = conversations.NewTopicDetector(conversations.DefaultMarkers())
	}
	if cfg.Callbacks == nil {
		cfg.Callbacks = observers.NewFlowCallbacks(cfg.Metrics)
	}

	runnable, err := BuildGraph(ctx, nodes.Deps{
		Responders: cfg.Responders,
		Detector:   cfg.Detector,
		Metrics:    cfg.Metrics,
	})
	if err != nil {
		return nil, err
	}
	logx.Debug().Msg("Step graph built successfully")
	return &Controller{runnable: runnable, callbacks: cfg.Callbacks}, nil
}

// BuildGraph constructs and returns the compiled step graph
func BuildGraph(ctx context.Context, deps nodes.Deps) (compose.Runnable[model.StepInput, *model.StepOutcome], error) {
	b := &GraphBuilder{
		deps: deps,
		graph: compose.NewGraph[model.StepInput, *model.StepOutcome](
			compose.WithGenLocalState(func(ctx context.Context) *model.FlowState {
				return &model.FlowState{}
			}),
		),
	}
	if err := b.addNodes(); err != nil {
		return nil, err
	}
	if err := b.addEdges(); err != nil {
		return nil, err
	}
	if err := b.addBranches(); err != nil {
		return nil, err
	}
	return b.compile(ctx)
}

// addNodes adds all processing nodes to the graph
func (b *GraphBuilder) addNodes() error {
	adds := []struct {
		key  string
		node *compose.Lambda
		opts []compose.GraphAddNodeOpt
	}{
		{nodes.NodeInputConverter, nodes.NewInputConverterNode(), []compose.GraphAddNodeOpt{
			compose.WithStatePreHandler(nodes.NewInputConverterPreHandler()),
		}},
		{nodes.NodeTopicSwitch, nodes.NewTopicSwitchNode(b.deps), nil},
		{nodes.NodeDispatcher, nodes.NewDispatcherNode(b.deps), nil},
		{nodes.NodeBookkeeping, nodes.NewBookkeepingNode(b.deps), nil},
		{nodes.NodeRouter, nodes.NewRouterNode(b.deps), nil},
	}
	for _, a := range adds {
		opts := append([]compose.GraphAddNodeOpt{compose.WithNodeName(a.key)}, a.opts...)
		if err := b.graph.AddLambdaNode(a.key, a.node, opts...); err != nil {
			logx.Error().Err(err).Str("node", a.key).Msg("Error adding node")
			return fmt.Errorf("error adding node %s: %w", a.key, err)
		}
	}
	return nil
}

// addEdges creates the main flow connections between nodes
func (b *GraphBuilder) addEdges() error {
	edges := [][2]string{
		{compose.START, nodes.NodeInputConverter},
		{nodes.NodeInputConverter, nodes.NodeTopicSwitch},
		{nodes.NodeDispatcher, nodes.NodeBookkeeping},
		{nodes.NodeBookkeeping, nodes.NodeRouter},
		{nodes.NodeRouter, compose.END},
	}
	for _, edge := range edges {
		if err := b.graph.AddEdge(edge[0], edge[1]); err != nil {
			logx.Error().Err(err).Str("from", edge[0]).Str("to", edge[1]).Msg("Error adding edge")
			return fmt.Errorf("error adding edge %s -> %s: %w", edge[0], edge[1], err)
		}
	}
	return nil
}

// addBranches creates conditional routing branches
func (b *GraphBuilder) addBranches() error {
	topicBranch := compose.NewGraphBranch(
		nodes.NewTopicSwitchCondition(),
		map[string]bool{
			nodes.NodeDispatcher:  true,
			nodes.NodeBookkeeping: true,
		},
	)
	if err := b.graph.AddBranch(nodes.NodeTopicSwitch, topicBranch); err != nil {
		logx.Error().Err(err).Msg("Error adding topic switch branch")
		return fmt.Errorf("error adding topic switch branch: %w", err)
	}
	return nil
}

// compile finalizes and compiles the graph
func (b *GraphBuilder) compile(ctx context.Context) (compose.Runnable[model.StepInput, *model.StepOutcome], error) {
	runnable, err := b.graph.Compile(ctx, compose.WithMaxRunSteps(maxRunSteps))
	if err != nil {
		logx.Error().Err(err).Msg("Error compiling graph")
		return nil, fmt.Errorf("error compiling graph: %w", err)
	}
	logx.Debug().Msg("Graph compiled successfully")
	return runnable, nil
}

// Step runs one step. The returned outcome carries a responder failure in Err
// while the error return is reserved for failures of the graph itself.
func (c *Controller) Step(ctx context.Context, state *model.ConversationState, maxLoopCount int) (*model.StepOutcome, error) {
	if state == nil {
		return nil, fmt.Errorf("conversation state is nil")
	}
	out, err := c.runnable.Invoke(ctx, model.StepInput{
		State:        state,
		MaxLoopCount: maxLoopCount,
	}, compose.WithCallbacks(c.callbacks...))
	if err != nil {
		return nil, fmt.Errorf("run step: %w", err)
	}
	if out == nil {
		return nil, fmt.Errorf("run step: empty outcome")
	}
	return out, nil
}

// RunStep advances the state one step and returns the routing signal. A
// responder failure is returned as the error alongside the advanced state.
func (c *Controller) RunStep(ctx context.Context, state *model.ConversationState, maxLoopCount int) (*model.ConversationState, model.Signal, error) {
	out, err := c.Step(ctx, state, maxLoopCount)
	if err != nil {
		return state, model.SignalHaltComplete, err
	}
	return out.State, out.Signal, out.Err
}
