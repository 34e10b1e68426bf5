package model

import (
	pkgdatabase "github.com/it-worker-club/study-agent/pkg/database"
	pkgredis "github.com/it-worker-club/study-agent/pkg/redis"
)

// ================ Config ================

// AppConfig defines all configurable parameters, sourced from environment
// variables (loaded from .env for local runs).
type AppConfig struct {
	Environment string `envconfig:"APP_ENV" default:"development"`
	LogLevel    string `envconfig:"LOG_LEVEL"`

	// Infrastructure
	Store    StoreConfig
	Redis    pkgredis.Config
	Database pkgdatabase.Config
	Server   ServerConfig

	// LLM provider; an empty key selects the rule-based responders.
	APIKey  string `envconfig:"GEMINI_API_KEY"`
	BaseURL string `envconfig:"GEMINI_BASE_URL"`

	// Agent configs
	Flow         FlowConfig
	Coordinator  CoordinatorModelConfig
	Planner      PlannerModelConfig
	Conversation ConversationConfig
	// KeywordsFile optionally overrides topic markers and feedback keywords.
	KeywordsFile string `envconfig:"KEYWORDS_FILE"`
}

type FlowConfig struct {
	MaxLoopCount int `envconfig:"FLOW_MAX_LOOP_COUNT" default:"10"`
	// PerTurn counts MaxLoopCount from the loop count at the start of each user turn.
	PerTurn bool `envconfig:"FLOW_PER_TURN" default:"true"`
}

type ConversationConfig struct {
	TTL          string `envconfig:"CONVERSATION_TTL" default:"24h"`
	HistoryTurns int    `envconfig:"CONVERSATION_HISTORY_TURNS" default:"10"`
	Tools        struct {
		MaxResults int `envconfig:"CONVERSATION_TOOL_MAX_RESULTS" default:"5"`
	}
}

type CoordinatorModelConfig struct {
	Model       string  `envconfig:"COORDINATOR_MODEL" default:"gemini-2.5-flash"`
	MaxTokens   int     `envconfig:"COORDINATOR_MAX_TOKENS" default:"1500"`
	Temperature float32 `envconfig:"COORDINATOR_TEMPERATURE" default:"0.7"`
}

type PlannerModelConfig struct {
	Model       string  `envconfig:"PLANNER_MODEL" default:"gemini-2.5-flash"`
	MaxTokens   int     `envconfig:"PLANNER_MAX_TOKENS" default:"2500"`
	Temperature float32 `envconfig:"PLANNER_TEMPERATURE" default:"0.5"`
}

type StoreConfig struct {
	// Backend is one of redis, sqlite or memory.
	Backend string `envconfig:"STORE_BACKEND" default:"memory"`
}

type ServerConfig struct {
	Addr         string `envconfig:"SERVER_ADDR" default:":8080"`
	ReadTimeout  int    `envconfig:"SERVER_READ_TIMEOUT" default:"15"`
	WriteTimeout int    `envconfig:"SERVER_WRITE_TIMEOUT" default:"60"`
}
