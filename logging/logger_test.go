package logging

import (
	"bytes"
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"github.com/crytic/manganis/logging/colors"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestAddAndRemoveWriter ensures duplicate writers are ignored and removed writers stop receiving output.
func TestAddAndRemoveWriter(t *testing.T) {
	logger := NewLogger(zerolog.InfoLevel, false)

	var structured, unstructured bytes.Buffer
	logger.AddWriter(&structured, STRUCTURED)
	logger.AddWriter(&unstructured, UNSTRUCTURED)
	assert.Equal(t, 2, logger.Writers())

	// Duplicates are a no-op
	logger.AddWriter(&structured, STRUCTURED)
	assert.Equal(t, 2, logger.Writers())

	logger.RemoveWriter(&structured)
	assert.Equal(t, 1, logger.Writers())

	logger.Info("collected ", 3, " assets")
	assert.Empty(t, structured.String())
	assert.Contains(t, unstructured.String(), "collected 3 assets")
}

// TestSubLoggerStructuredOutput verifies that a sub-logger tags its events and carries errors and structured info.
func TestSubLoggerStructuredOutput(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLogger(zerolog.InfoLevel, false, &buf)
	sub := logger.NewSubLogger("module", REGISTRY_SERVICE)

	sub.Warn("registry unreadable", errors.New("bad toml"), StructuredLogInfo{"package": "liba-0.1.0"})

	var event map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &event))
	assert.Equal(t, REGISTRY_SERVICE, event["module"])
	assert.Equal(t, "warn", event["level"])
	assert.Equal(t, "bad toml", event["error"])
	assert.Equal(t, "registry unreadable", event["message"])
	info, ok := event["info"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "liba-0.1.0", info["package"])
}

// TestLevelFiltering ensures events below the configured level are dropped.
func TestLevelFiltering(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLogger(zerolog.WarnLevel, false, &buf)

	logger.Info("hidden")
	assert.Empty(t, buf.String())

	logger.SetLevel(zerolog.InfoLevel)
	logger.Info("shown")
	assert.Contains(t, buf.String(), "shown")
}

// TestDisabledColors verifies that the console output carries no ANSI codes once colors are disabled.
func TestDisabledColors(t *testing.T) {
	colors.DisableColor()
	t.Cleanup(colors.EnableColor)

	var buf bytes.Buffer
	logger := NewLogger(zerolog.InfoLevel, false)
	logger.EnableConsole(&buf)
	logger.Info(colors.Bold, "foo")

	assert.True(t, strings.Contains(buf.String(), colors.LEFT_ARROW+" foo"))
	assert.NotContains(t, buf.String(), "\x1b[")
}

// TestSubLoggerFollowsParent ensures sub-loggers derived before the parent is configured pick up its outputs and level.
func TestSubLoggerFollowsParent(t *testing.T) {
	logger := NewLogger(zerolog.Disabled, false)
	sub := logger.NewSubLogger("module", COLLECTOR_SERVICE)
	sub.Info("dropped")

	var buf bytes.Buffer
	logger.SetLevel(zerolog.DebugLevel)
	logger.AddWriter(&buf, STRUCTURED)
	sub.Debug("collected")
	assert.Contains(t, buf.String(), `"module":"collector"`)
	assert.Contains(t, buf.String(), "collected")
	assert.NotContains(t, buf.String(), "dropped")

	logger.RemoveWriter(&buf)
	buf.Reset()
	sub.Info("after removal")
	assert.Empty(t, buf.String())
}
