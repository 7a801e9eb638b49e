package logger

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

func restoreLogger(t *testing.T) {
	t.Helper()
	prev := Logger
	t.Cleanup(func() {
		Logger = prev
		zap.ReplaceGlobals(prev)
	})
}

func TestInit_EnvironmentLevels(t *testing.T) {
	cases := []struct {
		environment string
		enabled     zapcore.Level
		disabled    zapcore.Level
	}{
		{"production", zapcore.InfoLevel, zapcore.DebugLevel},
		{"test", zapcore.WarnLevel, zapcore.InfoLevel},
		{"development", zapcore.DebugLevel, zapcore.DebugLevel - 1},
	}

	for _, tc := range cases {
		t.Run(tc.environment, func(t *testing.T) {
			restoreLogger(t)
			require.NoError(t, Init(tc.environment, ""))

			assert.True(t, Logger.Core().Enabled(tc.enabled))
			assert.False(t, Logger.Core().Enabled(tc.disabled))
			assert.Same(t, Logger, zap.L())
		})
	}
}

func TestInit_LevelOverride(t *testing.T) {
	restoreLogger(t)

	require.NoError(t, Init("production", "debug"))
	assert.True(t, Logger.Core().Enabled(zapcore.DebugLevel))

	require.NoError(t, Init("development", "error"))
	assert.False(t, Logger.Core().Enabled(zapcore.WarnLevel))
}

func TestInit_InvalidLevel(t *testing.T) {
	restoreLogger(t)
	before := Logger

	err := Init("development", "chatty")
	assert.ErrorContains(t, err, `invalid log level "chatty"`)
	assert.Same(t, before, Logger)
}
