package agent

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/it-worker-club/study-agent/internal/agent/model"
	"github.com/it-worker-club/study-agent/internal/core"
	logx "github.com/it-worker-club/study-agent/pkg/logger"
)

func TestMain(m *testing.M) {
	logx.Init(logx.LoggerOpts{Environment: core.Testing})
	os.Exit(m.Run())
}

func baseConfig() model.AppConfig {
	var cfg model.AppConfig
	cfg.Flow = model.FlowConfig{MaxLoopCount: 10, PerTurn: true}
	cfg.Conversation.TTL = "1h"
	cfg.Conversation.HistoryTurns = 10
	cfg.Conversation.Tools.MaxResults = 5
	return cfg
}

func runFirstTurn(t *testing.T, app *App) {
	t.Helper()
	ctx := context.Background()
	res, err := app.Driver.Send(ctx, "conv-app", "推荐Python课程")
	require.NoError(t, err)
	assert.Equal(t, model.SignalHaltAwaitHuman, res.Signal)

	stored, err := app.Store.Load(ctx, "conv-app")
	require.NoError(t, err)
	assert.Equal(t, res.State.LoopCount, stored.LoopCount)
	assert.NotEmpty(t, stored.CourseCandidates)
}

func TestBuildMemoryStore(t *testing.T) {
	app, err := Build(context.Background(), baseConfig())
	require.NoError(t, err)
	t.Cleanup(func() { _ = app.Close() })
	runFirstTurn(t, app)
}

func TestBuildRedisStore(t *testing.T) {
	mr := miniredis.RunT(t)
	cfg := baseConfig()
	cfg.Store.Backend = StoreRedis
	cfg.Redis.URL = "redis://" + mr.Addr()
	cfg.Redis.KeyPrefix = "test"

	app, err := Build(context.Background(), cfg)
	require.NoError(t, err)
	t.Cleanup(func() { _ = app.Close() })
	runFirstTurn(t, app)
	assert.True(t, mr.Exists("test:conversation:conv-app:state"))
}

func TestBuildSQLiteStore(t *testing.T) {
	cfg := baseConfig()
	cfg.Store.Backend = StoreSQLite
	cfg.Database.DSN = filepath.Join(t.TempDir(), "agent.db")
	cfg.Database.MaxOpenConns = 1

	app, err := Build(context.Background(), cfg)
	require.NoError(t, err)
	t.Cleanup(func() { _ = app.Close() })
	runFirstTurn(t, app)
}

func TestBuildRejectsBadConfig(t *testing.T) {
	cfg := baseConfig()
	cfg.Store.Backend = "cassandra"
	_, err := Build(context.Background(), cfg)
	assert.Error(t, err)

	cfg = baseConfig()
	cfg.Store.Backend = StoreRedis
	cfg.Conversation.TTL = "soon"
	_, err = Build(context.Background(), cfg)
	assert.Error(t, err)

	cfg = baseConfig()
	cfg.KeywordsFile = filepath.Join(t.TempDir(), "missing.yaml")
	_, err = Build(context.Background(), cfg)
	assert.Error(t, err)
}

func TestBuildWithKeywordFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "keywords.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
feedback:
  courses:
    approve: [棒]
    revise: [更多]
`), 0o600))

	cfg := baseConfig()
	cfg.KeywordsFile = path
	app, err := Build(context.Background(), cfg)
	require.NoError(t, err)

	ctx := context.Background()
	_, err = app.Driver.Send(ctx, "conv-kw", "推荐Python课程")
	require.NoError(t, err)
	res, err := app.Driver.Send(ctx, "conv-kw", "很棒")
	require.NoError(t, err)
	assert.Equal(t, "course_recommendations_accepted", res.State.CurrentTask)
}
