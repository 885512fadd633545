package logging

import (
	"bytes"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLogLevelString(t *testing.T) {
	assert.Equal(t, "DEBUG", LevelDebug.String())
	assert.Equal(t, "INFO", LevelInfo.String())
	assert.Equal(t, "WARN", LevelWarn.String())
	assert.Equal(t, "ERROR", LevelError.String())
	assert.Equal(t, "QUIET", LevelQuiet.String())
	assert.Equal(t, "UNKNOWN", LogLevel(42).String())
}

func TestCLIModeFiltersBelowThreshold(t *testing.T) {
	var buf bytes.Buffer
	InitForCLI(LevelInfo, &buf)

	Debug("test", "should be filtered")
	Info("test", "count=%d", 3)
	Error("test", errors.New("boom"), "it broke")

	out := buf.String()
	assert.NotContains(t, out, "should be filtered")
	assert.Contains(t, out, "count=3")
	assert.Contains(t, out, "subsystem=test")
	assert.Contains(t, out, "boom")
}

func TestQuietModeSuppressesInfo(t *testing.T) {
	var buf bytes.Buffer
	InitForCLI(LevelQuiet, &buf)

	Info("test", "routine message")
	Warn("test", "warning message")
	assert.Empty(t, buf.String())

	Error("test", nil, "actual failure")
	assert.Contains(t, buf.String(), "actual failure")
}

func TestTUIModeSendsEntriesToChannel(t *testing.T) {
	ch := InitForTUI(LevelDebug)
	defer InitForCLI(LevelInfo, &bytes.Buffer{})

	Info("orchestrator", "[%s] fetched", "prod-k3s")

	select {
	case entry := <-ch:
		assert.Equal(t, LevelInfo, entry.Level)
		assert.Equal(t, "orchestrator", entry.Subsystem)
		assert.Equal(t, "[prod-k3s] fetched", entry.Message)
		assert.False(t, entry.Timestamp.IsZero())
	default:
		t.Fatal("expected an entry on the TUI channel")
	}
}

func TestTUIModeDropsWhenChannelFull(t *testing.T) {
	InitForTUI(LevelDebug)
	defer InitForCLI(LevelInfo, &bytes.Buffer{})

	// Overfill the buffer; the sender must not block.
	for i := 0; i < tuiChannelBufferSize+10; i++ {
		Info("test", "entry %d", i)
	}

	require.Len(t, tuiLogChannel, tuiChannelBufferSize)
}
