package util

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
)

func TestParseLevel(t *testing.T) {
	assert.Equal(t, zap.DebugLevel, ParseLevel("debug").Level())
	assert.Equal(t, zap.WarnLevel, ParseLevel("warn").Level())
	assert.Equal(t, zap.ErrorLevel, ParseLevel("error").Level())
	assert.Equal(t, zap.InfoLevel, ParseLevel("info").Level())
	assert.Equal(t, zap.InfoLevel, ParseLevel("loud").Level())
}

func TestNewLoggerLevel(t *testing.T) {
	log := NewLoggerWithLevel(true, zap.NewAtomicLevelAt(zap.WarnLevel))
	assert.False(t, log.Core().Enabled(zap.InfoLevel))
	assert.True(t, log.Core().Enabled(zap.ErrorLevel))

	log = NewLogger(false)
	assert.True(t, log.Core().Enabled(zap.DebugLevel))
}
