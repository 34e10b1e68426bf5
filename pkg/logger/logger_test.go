package logx

import (
	"testing"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/stretchr/testify/assert"

	"github.com/it-worker-club/study-agent/internal/core"
)

func TestInitLevels(t *testing.T) {
	t.Cleanup(func() { Init(LoggerOpts{Environment: core.Testing}) })

	Init(LoggerOpts{Environment: core.Production})
	assert.Equal(t, zerolog.InfoLevel, log.Logger.GetLevel())

	Init(LoggerOpts{Environment: core.Development})
	assert.Equal(t, zerolog.DebugLevel, log.Logger.GetLevel())

	Init(LoggerOpts{Environment: core.Production, Level: "warn"})
	assert.Equal(t, zerolog.WarnLevel, log.Logger.GetLevel())

	Init(LoggerOpts{Environment: core.Development, Level: "nonsense"})
	assert.Equal(t, zerolog.DebugLevel, log.Logger.GetLevel())
}
