package agent

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/it-worker-club/study-agent/internal/agent/driver"
	"github.com/it-worker-club/study-agent/internal/agent/graph"
	"github.com/it-worker-club/study-agent/internal/agent/graph/conversations"
	"github.com/it-worker-club/study-agent/internal/agent/model"
	"github.com/it-worker-club/study-agent/internal/agent/repo"
	"github.com/it-worker-club/study-agent/internal/agent/responders"
	"github.com/it-worker-club/study-agent/internal/agent/session"
	"github.com/it-worker-club/study-agent/internal/metrics"
	logx "github.com/it-worker-club/study-agent/pkg/logger"
)

const (
	StoreMemory = "memory"
	StoreRedis  = "redis"
	StoreSQLite = "sqlite"
)

// App is the assembled agent: the driver plus the resources it owns.
type App struct {
	Driver  *driver.Driver
	Metrics *metrics.Recorder
	Store   model.ConversationRepository

	closers []func() error
}

// Build wires the store, responders, step graph and driver from configuration.
func Build(ctx context.Context, cfg model.AppConfig) (*App, error) {
	app := &App{Metrics: metrics.NewRecorder()}

	kf, err := loadKeywords(cfg.KeywordsFile)
	if err != nil {
		return nil, err
	}
	detector := conversations.NewTopicDetector(kf.TopicMarkers())

	store, closeStore, err := newStore(ctx, cfg)
	if err != nil {
		return nil, err
	}
	app.Store = store
	if closeStore != nil {
		app.closers = append(app.closers, closeStore)
	}

	opts := responders.Options{
		Classifier: responders.NewKeywordClassifier(kf.FeedbackKeywords()),
		Messages:   conversations.NewMessagesManager(cfg.Conversation),
		MaxResults: cfg.Conversation.Tools.MaxResults,
	}
	if cfg.APIKey != "" {
		cms, err := responders.NewChatModels(ctx, responders.ChatModelConfig{
			APIKey:      cfg.APIKey,
			BaseURL:     cfg.BaseURL,
			Coordinator: &cfg.Coordinator,
			Planner:     &cfg.Planner,
		})
		if err != nil {
			_ = app.Close()
			return nil, err
		}
		opts.ChatModels = cms
	} else {
		logx.Info().Msg("No GEMINI_API_KEY set; using rule-based responders")
	}

	ctrl, err := graph.NewController(ctx, graph.Config{
		Responders: responders.NewRegistry(opts),
		Detector:   detector,
		Metrics:    app.Metrics,
	})
	if err != nil {
		_ = app.Close()
		return nil, err
	}

	app.Driver, err = driver.New(driver.Config{
		Controller: ctrl,
		Sessions:   session.NewManager(store),
		Detector:   detector,
		Flow:       cfg.Flow,
	})
	if err != nil {
		_ = app.Close()
		return nil, err
	}
	return app, nil
}

// Close releases the store connections.
func (a *App) Close() error {
	var errs []error
	for _, c := range a.closers {
		errs = append(errs, c())
	}
	a.closers = nil
	return errors.Join(errs...)
}

func loadKeywords(path string) (*conversations.KeywordFile, error) {
	if strings.TrimSpace(path) == "" {
		return nil, nil
	}
	kf, err := conversations.LoadKeywordFile(path)
	if err != nil {
		return nil, err
	}
	logx.Info().Str("path", path).Msg("Keyword file loaded")
	return kf, nil
}

func newStore(ctx context.Context, cfg model.AppConfig) (model.ConversationRepository, func() error, error) {
	switch strings.ToLower(cfg.Store.Backend) {
	case "", StoreMemory:
		return repo.NewMemoryConversationRepository(), nil, nil

	case StoreRedis:
		ttl, err := time.ParseDuration(cfg.Conversation.TTL)
		if err != nil {
			return nil, nil, fmt.Errorf("invalid CONVERSATION_TTL %q: %w", cfg.Conversation.TTL, err)
		}
		rdb, err := cfg.Redis.New(ctx)
		if err != nil {
			return nil, nil, fmt.Errorf("initialise redis client: %w", err)
		}
		logx.Info().Dur("ttl", ttl).Msg("Connected to Redis")
		return repo.NewRedisConversationRepository(rdb, ttl, cfg.Redis.KeyPrefix), rdb.Close, nil

	case StoreSQLite:
		db, err := cfg.Database.New()
		if err != nil {
			return nil, nil, err
		}
		sqlDB, err := db.DB()
		if err != nil {
			return nil, nil, fmt.Errorf("sqlite handle: %w", err)
		}
		r, err := repo.NewSQLConversationRepository(ctx, db)
		if err != nil {
			_ = sqlDB.Close()
			return nil, nil, err
		}
		logx.Info().Str("dsn", cfg.Database.DSN).Msg("Opened sqlite store")
		return r, sqlDB.Close, nil

	default:
		return nil, nil, fmt.Errorf("unknown store backend %q", cfg.Store.Backend)
	}
}
