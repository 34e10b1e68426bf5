package responders

import (
	"context"
	"fmt"

	"github.com/cloudwego/eino-ext/components/model/gemini"
	einomodel "github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"
	"google.golang.org/genai"

	"github.com/it-worker-club/study-agent/internal/agent/model"
	logx "github.com/it-worker-club/study-agent/pkg/logger"
)

// ChatModelConfig holds the configuration for chat model creation
type ChatModelConfig struct {
	APIKey      string
	BaseURL     string
	Coordinator *model.CoordinatorModelConfig
	Planner     *model.PlannerModelConfig
}

// ChatModels holds the coordinator and planner chat models
type ChatModels struct {
	Coordinator          einomodel.BaseChatModel
	Planner              einomodel.BaseChatModel
	CoordinatorModelName string
	PlannerModelName     string
}

// NewChatModels creates both Gemini chat models with the given configuration
func NewChatModels(ctx context.Context, config ChatModelConfig) (*ChatModels, error) {
	if config.Coordinator == nil || config.Planner == nil {
		return nil, fmt.Errorf("chat model configs are required")
	}

	clientCfg := &genai.ClientConfig{
		APIKey:  config.APIKey,
		Backend: genai.BackendGeminiAPI,
	}
	if config.BaseURL != "" {
		clientCfg.HTTPOptions.BaseURL = config.BaseURL
	}

	client, err := genai.NewClient(ctx, clientCfg)
	if err != nil {
		logx.Error().Err(err).Msg("Error creating Gemini client")
		return nil, fmt.Errorf("error creating Gemini client: %w", err)
	}

	coordinator, err := gemini.NewChatModel(ctx, &gemini.Config{
		Client:      client,
		Model:       config.Coordinator.Model,
		Temperature: &config.Coordinator.Temperature,
		MaxTokens:   &config.Coordinator.MaxTokens,
		ThinkingConfig: &genai.ThinkingConfig{
			IncludeThoughts: false,
			ThinkingBudget:  genai.Ptr(int32(1000)),
		},
	})
	if err != nil {
		logx.Error().Err(err).Msg("Error creating coordinator model")
		return nil, fmt.Errorf("error creating coordinator model: %w", err)
	}

	planner, err := gemini.NewChatModel(ctx, &gemini.Config{
		Client:      client,
		Model:       config.Planner.Model,
		Temperature: &config.Planner.Temperature,
		MaxTokens:   &config.Planner.MaxTokens,
		ThinkingConfig: &genai.ThinkingConfig{
			IncludeThoughts: false,
			ThinkingBudget:  genai.Ptr(int32(2000)),
		},
	})
	if err != nil {
		logx.Error().Err(err).Msg("Error creating planner model")
		return nil, fmt.Errorf("error creating planner model: %w", err)
	}

	return &ChatModels{
		Coordinator:          coordinator,
		Planner:              planner,
		CoordinatorModelName: config.Coordinator.Model,
		PlannerModelName:     config.Planner.Model,
	}, nil
}

// generate calls cm and logs the priced usage of the reply.
func generate(ctx context.Context, cm einomodel.BaseChatModel, modelName, conversationID string, msgs []*schema.Message) (*schema.Message, error) {
	out, err := cm.Generate(ctx, msgs)
	if err != nil {
		return nil, fmt.Errorf("generate with %s: %w", modelName, err)
	}
	if out == nil {
		return nil, fmt.Errorf("generate with %s: empty reply", modelName)
	}
	if cost, ok := model.UsageOf(modelName, out); ok {
		logx.Debug().
			Str("conversation_id", conversationID).
			Str("model", modelName).
			Int("prompt_tokens", cost.PromptTokens).
			Int("completion_tokens", cost.CompletionTokens).
			Int("total_tokens", cost.TotalTokens).
			Float64("total_cost_usd", cost.TotalCost).
			Msg("LLM usage")
	}
	return out, nil
}
