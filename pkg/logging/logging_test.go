package logging_test

import (
	"bytes"
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/deployseal/deployseal/pkg/logging"
)

func capture(level logging.Level) (*logging.Logger, *bytes.Buffer) {
	var buf bytes.Buffer
	l := logging.NewLogger(level)
	l.SetOutput(&buf)
	return l, &buf
}

func TestParseLevel(t *testing.T) {
	assert.Equal(t, logging.LevelDebug, logging.ParseLevel("debug"))
	assert.Equal(t, logging.LevelError, logging.ParseLevel("error"))
	assert.Equal(t, logging.LevelInfo, logging.ParseLevel("nonsense"))
	assert.Equal(t, logging.LevelInfo, logging.ParseLevel(""))
}

func TestLevelFiltering(t *testing.T) {
	l, buf := capture(logging.LevelWarn)

	l.Debug("d")
	l.Info("i")
	l.Warn("w")
	l.Error("e")

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 2)
	assert.Contains(t, lines[0], `"message":"w"`)
	assert.Contains(t, lines[1], `"message":"e"`)
}

func TestStructuredFields(t *testing.T) {
	l, buf := capture(logging.LevelInfo)

	l.Info("certificate issued", map[string]any{"repository": "backend"})

	var entry logging.Entry
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, logging.LevelInfo, entry.Level)
	assert.Equal(t, "certificate issued", entry.Message)
	assert.Equal(t, "backend", entry.Fields["repository"])
	assert.NotEmpty(t, entry.Timestamp)
}

func TestWithFields(t *testing.T) {
	l, buf := capture(logging.LevelInfo)

	l.WithFields(map[string]any{"machine": "plant-pc-01"}).Info("msg")

	var entry logging.Entry
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "plant-pc-01", entry.Fields["machine"])
}

func TestErrorErr(t *testing.T) {
	l, buf := capture(logging.LevelError)

	l.ErrorErr("append failed", errors.New("disk full"), map[string]any{"segment": "audit-0"})

	var entry logging.Entry
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "disk full", entry.Fields["error"])
	assert.Equal(t, "audit-0", entry.Fields["segment"])
}
