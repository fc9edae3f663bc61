package logger_test

import (
	"testing"

	"github.com/Bethusile/Tuckshop-Stock-Manager/pkg/logger"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

func TestNew_Levels(t *testing.T) {
	log, err := logger.New("debug")
	require.NoError(t, err)
	assert.True(t, log.Core().Enabled(zapcore.DebugLevel))

	log, err = logger.New("nonsense")
	require.NoError(t, err)
	assert.False(t, log.Core().Enabled(zapcore.DebugLevel))
	assert.True(t, log.Core().Enabled(zapcore.InfoLevel))
}

func TestNewGormLogger(t *testing.T) {
	assert.NotNil(t, logger.NewGormLogger(zap.NewNop(), "info"))
	assert.NotNil(t, logger.NewGormLogger(zap.NewNop(), ""))
}
