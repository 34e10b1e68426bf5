package repo

import (
	"context"
	"fmt"
	"strings"
	"testing"

	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/it-worker-club/study-agent/internal/agent/model"
	"github.com/it-worker-club/study-agent/internal/agent/repo/repotest"
)

func newSQLRepo(t *testing.T) *SQLConversationRepository {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", strings.ReplaceAll(t.Name(), "/", "_"))
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{Logger: gormlogger.Default.LogMode(gormlogger.Silent)})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	r, err := NewSQLConversationRepository(context.Background(), db)
	require.NoError(t, err)
	return r
}

func TestSQLConversationRepository(t *testing.T) {
	repotest.RunRepositoryContract(t, func(t *testing.T) model.ConversationRepository {
		return newSQLRepo(t)
	})
}

func TestSQLStoresQueryColumns(t *testing.T) {
	r := newSQLRepo(t)
	s := repotest.SampleState("conv-columns")
	s.MarkComplete()
	require.NoError(t, r.Save(context.Background(), s))

	var rec conversationRecord
	require.NoError(t, r.db.First(&rec, "id = ?", "conv-columns").Error)
	assert.Equal(t, "user-1", rec.UserID)
	assert.Equal(t, 7, rec.LoopCount)
	assert.True(t, rec.IsComplete)
}
