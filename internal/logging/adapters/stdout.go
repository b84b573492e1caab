package adapters

import (
	"fmt"
	"io"
	"os"
	"sort"
	"strings"
	"sync"
	"time"

	charmlog "github.com/charmbracelet/log"

	"resume-render/internal/logging/types"
)

// StdoutConfig represents configuration for the stdout adapter
type StdoutConfig struct {
	Format string // json or text
	Writer io.Writer
}

// StdoutAdapter writes JSON lines through zap or human-readable lines
// through charmbracelet/log
type StdoutAdapter struct {
	name   string
	format string
	json   *zapWriter
	text   *charmlog.Logger
	mu     sync.Mutex
}

// NewStdoutAdapter creates a new stdout adapter
func NewStdoutAdapter(name string, config StdoutConfig) *StdoutAdapter {
	w := config.Writer
	if w == nil {
		w = os.Stdout
	}

	a := &StdoutAdapter{name: name, format: strings.ToLower(config.Format)}
	if a.format == "text" {
		a.text = charmlog.NewWithOptions(w, charmlog.Options{
			ReportTimestamp: true,
			TimeFormat:      time.RFC3339,
			Level:           charmlog.DebugLevel,
		})
	} else {
		a.format = "json"
		a.json = newZapWriter(w)
	}
	return a
}

// Write writes a log entry to stdout
func (a *StdoutAdapter) Write(entry *types.LogEntry) error {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.text != nil {
		a.text.Log(charmLevel(entry.Level), entry.Message, keyvals(entry.Fields)...)
		return nil
	}
	if err := a.json.write(entry); err != nil {
		return fmt.Errorf("failed to write log entry: %w", err)
	}
	return nil
}

// Close flushes buffered output
func (a *StdoutAdapter) Close() error {
	if a.json != nil {
		_ = a.json.sync()
	}
	return nil
}

// Health always succeeds for stdout
func (a *StdoutAdapter) Health() error { return nil }

func (a *StdoutAdapter) Name() string { return a.name }

func charmLevel(level types.LogLevel) charmlog.Level {
	switch level {
	case types.DebugLevel:
		return charmlog.DebugLevel
	case types.WarnLevel:
		return charmlog.WarnLevel
	case types.ErrorLevel:
		return charmlog.ErrorLevel
	case types.FatalLevel:
		return charmlog.FatalLevel
	default:
		return charmlog.InfoLevel
	}
}

// keyvals flattens fields into sorted key/value pairs
func keyvals(fields map[string]interface{}) []interface{} {
	keys := sortedKeys(fields)
	out := make([]interface{}, 0, len(keys)*2)
	for _, k := range keys {
		out = append(out, k, fields[k])
	}
	return out
}

func sortedKeys(fields map[string]interface{}) []string {
	keys := make([]string, 0, len(fields))
	for k := range fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
