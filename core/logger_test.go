package core

import (
	"os"
	"testing"

	log "github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
)

// TestNewLoggerLevel verifies that every settings level is kept
func TestNewLoggerLevel(t *testing.T) {
	for _, level := range log.AllLevels {
		logger := NewLogger(uint32(level))
		assert.Equal(t, level, logger.GetLevel())
	}
}

// TestNewLoggerOutput verifies that logs never go to the tool output
func TestNewLoggerOutput(t *testing.T) {
	logger := NewLogger(uint32(log.InfoLevel))
	assert.Equal(t, os.Stderr, logger.Out)

	formatter, ok := logger.Formatter.(*log.TextFormatter)
	assert.True(t, ok)
	assert.True(t, formatter.FullTimestamp)
}

// TestDefaultSettingsLogLevel verifies that sessions only warn by default
func TestDefaultSettingsLogLevel(t *testing.T) {
	logger := NewLogger(DefaultSettings().LoggingLevel)
	assert.False(t, logger.IsLevelEnabled(log.InfoLevel))
	assert.True(t, logger.IsLevelEnabled(log.WarnLevel))
}
