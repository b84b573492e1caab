package adapters

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"resume-render/internal/logging/types"
)

func entry(level types.LogLevel, msg string, fields map[string]interface{}) *types.LogEntry {
	return &types.LogEntry{
		Level:     level,
		Message:   msg,
		Timestamp: time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC),
		Fields:    fields,
	}
}

func TestStdoutJSONLine(t *testing.T) {
	var buf bytes.Buffer
	a := NewStdoutAdapter("stdout", StdoutConfig{Format: "json", Writer: &buf})

	require.NoError(t, a.Write(entry(types.WarnLevel, "template not found", map[string]interface{}{
		"template": "ats_unknown",
	})))

	var line map[string]interface{}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &line))
	assert.Equal(t, "warn", line["level"])
	assert.Equal(t, "template not found", line["message"])
	assert.Equal(t, "ats_unknown", line["template"])
	assert.Equal(t, "2024-03-01T12:00:00Z", line["time"])
}

func TestStdoutTextLine(t *testing.T) {
	var buf bytes.Buffer
	a := NewStdoutAdapter("stdout", StdoutConfig{Format: "text", Writer: &buf})

	require.NoError(t, a.Write(entry(types.InfoLevel, "rendered", map[string]interface{}{"bytes": 42})))

	out := buf.String()
	assert.Contains(t, out, "rendered")
	assert.Contains(t, out, "bytes=42")
}

func TestFileAdapterAppends(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "render.log")
	a, err := NewFileAdapter("file", FileConfig{FilePath: path, CreateDirs: true})
	require.NoError(t, err)

	require.NoError(t, a.Write(entry(types.InfoLevel, "one", nil)))
	require.NoError(t, a.Write(entry(types.ErrorLevel, "two", nil)))
	require.NoError(t, a.Health())
	require.NoError(t, a.Close())
	assert.Error(t, a.Write(entry(types.InfoLevel, "after close", nil)))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	assert.Len(t, lines, 2)
}

func TestFileAdapterRequiresPath(t *testing.T) {
	_, err := NewFileAdapter("file", FileConfig{})
	assert.Error(t, err)
}
