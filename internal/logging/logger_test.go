package logging

import (
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"resume-render/internal/config"
	"resume-render/internal/logging/types"
)

type captureAdapter struct {
	name    string
	mu      sync.Mutex
	entries []*types.LogEntry
	closed  bool
	failErr error
}

func (c *captureAdapter) Write(entry *types.LogEntry) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries = append(c.entries, entry)
	return c.failErr
}

func (c *captureAdapter) Close() error  { c.closed = true; return nil }
func (c *captureAdapter) Health() error { return nil }
func (c *captureAdapter) Name() string  { return c.name }

func TestMultiLoggerLevelThreshold(t *testing.T) {
	logger := NewMultiLogger()
	capture := &captureAdapter{name: "capture"}
	require.NoError(t, logger.AddAdapter(capture))

	logger.SetLevel(WarnLevel)
	logger.Info("dropped")
	logger.Warn("kept")
	logger.Error("kept too")

	require.Len(t, capture.entries, 2)
	assert.Equal(t, "kept", capture.entries[0].Message)
	assert.Equal(t, WarnLevel, capture.entries[0].Level)
}

func TestChildLoggersShareLevelAndAdapters(t *testing.T) {
	root := NewMultiLogger()
	child := root.WithField("component", "pdf")

	capture := &captureAdapter{name: "capture"}
	require.NoError(t, root.AddAdapter(capture))
	root.SetLevel(ErrorLevel)

	child.Warn("below threshold")
	child.Error("boom", map[string]interface{}{"attempt": 2})

	require.Len(t, capture.entries, 1)
	assert.Equal(t, "pdf", capture.entries[0].Fields["component"])
	assert.Equal(t, 2, capture.entries[0].Fields["attempt"])
}

func TestWithFieldsDoesNotLeakIntoParent(t *testing.T) {
	root := NewMultiLogger()
	capture := &captureAdapter{name: "capture"}
	require.NoError(t, root.AddAdapter(capture))

	_ = root.WithFields(map[string]interface{}{"request_id": "abc"})
	root.Info("plain")

	require.Len(t, capture.entries, 1)
	assert.NotContains(t, capture.entries[0].Fields, "request_id")
}

func TestAdapterFailureDoesNotStopOthers(t *testing.T) {
	logger := NewMultiLogger()
	failing := &captureAdapter{name: "a-failing", failErr: errors.New("disk full")}
	healthy := &captureAdapter{name: "b-healthy"}
	require.NoError(t, logger.AddAdapter(failing))
	require.NoError(t, logger.AddAdapter(healthy))

	logger.Info("hello")
	assert.Len(t, healthy.entries, 1)
}

func TestDuplicateAdapterRejected(t *testing.T) {
	logger := NewMultiLogger()
	require.NoError(t, logger.AddAdapter(&captureAdapter{name: "x"}))
	assert.Error(t, logger.AddAdapter(&captureAdapter{name: "x"}))
}

func TestRemoveAdapterCloses(t *testing.T) {
	logger := NewMultiLogger()
	capture := &captureAdapter{name: "x"}
	require.NoError(t, logger.AddAdapter(capture))
	require.NoError(t, logger.RemoveAdapter("x"))
	assert.True(t, capture.closed)
	assert.Error(t, logger.RemoveAdapter("x"))
}

func TestParseLogLevel(t *testing.T) {
	assert.Equal(t, DebugLevel, ParseLogLevel("DEBUG"))
	assert.Equal(t, WarnLevel, ParseLogLevel("warning"))
	assert.Equal(t, InfoLevel, ParseLogLevel("nonsense"))
}

func TestManagerFallsBackToStdout(t *testing.T) {
	cfg := config.Default()
	manager := NewManager(cfg.Logging.Format)
	require.NoError(t, manager.Initialize(cfg))
	assert.Len(t, manager.logger.sink.adapters, 1)
}

func TestManagerRejectsUnknownAdapterType(t *testing.T) {
	cfg := config.Default()
	cfg.Logging.Adapters = []config.AdapterConfig{{Name: "x", Type: "syslog", Enabled: true}}
	manager := NewManager("json")
	assert.Error(t, manager.Initialize(cfg))
}
