package logger

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zapcore"
)

func TestNew_Levels(t *testing.T) {
	tests := map[string]zapcore.Level{
		"debug": zapcore.DebugLevel,
		"info":  zapcore.InfoLevel,
		"warn":  zapcore.WarnLevel,
		"error": zapcore.ErrorLevel,
		"bogus": zapcore.InfoLevel,
	}
	for level, want := range tests {
		log, err := New(level, "json", "event-seating")
		require.NoError(t, err)
		assert.True(t, log.Core().Enabled(want), level)
		if want > zapcore.DebugLevel {
			assert.False(t, log.Core().Enabled(want-1), level)
		}
	}
}

func TestNew_Console(t *testing.T) {
	log, err := New("debug", "console", "")
	require.NoError(t, err)
	assert.True(t, log.Core().Enabled(zapcore.DebugLevel))
}
