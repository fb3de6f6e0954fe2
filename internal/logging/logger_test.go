package logging

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNewLoggerNilConfigDefaultsToInfo(t *testing.T) {
	logger := NewLogger(nil)
	assert.NotNil(t, logger)
	assert.Equal(t, LevelInfo, logger.level)
}

func TestLoggerLevelGating(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLogger(&Config{Level: LevelWarn, Output: &buf})

	logger.Debug("debug message")
	logger.Info("info message")
	assert.Empty(t, buf.String(), "debug/info should be suppressed at warn level")

	logger.Warn("warn message")
	assert.Contains(t, buf.String(), "warn message")
}

func TestLoggerFormatArgs(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLogger(&Config{Level: LevelDebug, Output: &buf})

	logger.Info("submitted", "endpoint", "producer", "bytes", 4096)
	output := buf.String()
	assert.Contains(t, output, "submitted")
	assert.Contains(t, output, "endpoint=producer")
	assert.Contains(t, output, "bytes=4096")
}

func TestLoggerPrintfVariants(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLogger(&Config{Level: LevelDebug, Output: &buf})

	logger.Errorf("completion failed: %v", "EIO")
	assert.Contains(t, buf.String(), "completion failed: EIO")

	buf.Reset()
	logger.Printf("cycle %d", 7)
	assert.Contains(t, buf.String(), "cycle 7")
}

func TestDefaultLoggerRoundTrip(t *testing.T) {
	var buf bytes.Buffer
	SetDefault(NewLogger(&Config{Level: LevelDebug, Output: &buf}))
	t.Cleanup(func() { SetDefault(NewLogger(nil)) })

	Info("hello", "n", 1)
	assert.Contains(t, buf.String(), "hello")
	assert.Contains(t, buf.String(), "n=1")
}
