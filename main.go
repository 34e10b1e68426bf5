package main

import (
	"context"
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
	"github.com/spf13/cobra"

	"github.com/it-worker-club/study-agent/internal/agent"
	"github.com/it-worker-club/study-agent/internal/agent/model"
	"github.com/it-worker-club/study-agent/internal/core"
	logx "github.com/it-worker-club/study-agent/pkg/logger"
)

var rootCmd = &cobra.Command{
	Use:   "study-agent",
	Short: "Multi-step study assistant",
	Long:  `study-agent recommends courses and drafts learning plans through a coordinator-driven conversation flow.`,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		envFile, _ := cmd.Flags().GetString("env-file")
		// Load .env file
		if err := godotenv.Load(envFile); err != nil && !os.IsNotExist(err) {
			fmt.Fprintf(os.Stderr, "Warning: Could not load %s: %v\n", envFile, err)
		}
	},
}

func init() {
	rootCmd.PersistentFlags().String("env-file", ".env", "Environment file to load before reading configuration")
	rootCmd.PersistentFlags().String("store", "", "Conversation store backend (memory, redis, sqlite); overrides STORE_BACKEND")
}

// loadConfig reads the typed config from the environment and initializes the logger.
func loadConfig(cmd *cobra.Command) (model.AppConfig, error) {
	var cfg model.AppConfig
	if err := envconfig.Process("", &cfg); err != nil {
		return cfg, fmt.Errorf("process environment config: %w", err)
	}
	if store, _ := cmd.Flags().GetString("store"); store != "" {
		cfg.Store.Backend = store
	}
	logx.Init(logx.LoggerOpts{
		Environment: core.ParseEnvironment(cfg.Environment),
		Level:       cfg.LogLevel,
	})
	return cfg, nil
}

func buildApp(cmd *cobra.Command) (*agent.App, model.AppConfig, error) {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return nil, cfg, err
	}
	app, err := agent.Build(context.Background(), cfg)
	if err != nil {
		return nil, cfg, fmt.Errorf("build agent: %w", err)
	}
	return app, cfg, nil
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
