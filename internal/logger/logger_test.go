package logger

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLogger_TextFormat(t *testing.T) {
	var buf bytes.Buffer
	InitWithWriter(&buf, "INFO", "text")

	Info("server started", "port", 3042)

	out := buf.String()
	assert.Contains(t, out, "INFO")
	assert.Contains(t, out, "server started")
	assert.Contains(t, out, "port=3042")
}

func TestLogger_JSONFormat(t *testing.T) {
	var buf bytes.Buffer
	InitWithWriter(&buf, "INFO", "json")

	Info("server started", "port", 3042)

	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "server started", entry["msg"])
	assert.Equal(t, float64(3042), entry["port"])
}

func TestLogger_LevelFiltering(t *testing.T) {
	var buf bytes.Buffer
	InitWithWriter(&buf, "WARN", "text")

	Debug("hidden")
	Info("also hidden")
	Warn("visible")

	out := buf.String()
	assert.NotContains(t, out, "hidden")
	assert.Contains(t, out, "visible")
}

func TestLogger_LevelExported(t *testing.T) {
	var buf bytes.Buffer
	InitWithWriter(&buf, "debug", "text")

	assert.Equal(t, "DEBUG", Level())
}

func TestInit_RejectsUnknownLevel(t *testing.T) {
	err := Init(Config{Level: "TRACE", Format: "text", Output: "stderr"})
	require.Error(t, err)
	assert.True(t, strings.Contains(err.Error(), "level"))
}

func TestInit_RejectsUnknownFormat(t *testing.T) {
	err := Init(Config{Level: "INFO", Format: "xml", Output: "stderr"})
	require.Error(t, err)
}
