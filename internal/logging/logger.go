package logging

import (
	"context"
	"fmt"
	"os"
	"sort"
	"strings"
	"sync"
	"time"

	"resume-render/internal/logging/types"
)

// sink is shared by a logger and every child derived from it, so SetLevel and
// AddAdapter on the root are visible everywhere.
type sink struct {
	mu       sync.RWMutex
	adapters map[string]types.LogAdapter
	level    LogLevel
}

// MultiLogger fans entries out to every registered adapter
type MultiLogger struct {
	sink   *sink
	ctx    context.Context
	fields map[string]interface{}
}

// NewMultiLogger creates a logger at info level with no adapters
func NewMultiLogger() *MultiLogger {
	return &MultiLogger{
		sink: &sink{
			adapters: make(map[string]types.LogAdapter),
			level:    InfoLevel,
		},
		ctx:    context.Background(),
		fields: map[string]interface{}{},
	}
}

func (l *MultiLogger) Debug(message string, fields ...map[string]interface{}) {
	l.Log(DebugLevel, message, fields...)
}

func (l *MultiLogger) Info(message string, fields ...map[string]interface{}) {
	l.Log(InfoLevel, message, fields...)
}

func (l *MultiLogger) Warn(message string, fields ...map[string]interface{}) {
	l.Log(WarnLevel, message, fields...)
}

func (l *MultiLogger) Error(message string, fields ...map[string]interface{}) {
	l.Log(ErrorLevel, message, fields...)
}

// Fatal logs, flushes every adapter and exits the process
func (l *MultiLogger) Fatal(message string, fields ...map[string]interface{}) {
	l.Log(FatalLevel, message, fields...)
	_ = l.Close()
	os.Exit(1)
}

// Log writes an entry at level if it passes the threshold
func (l *MultiLogger) Log(level LogLevel, message string, fields ...map[string]interface{}) {
	l.sink.mu.RLock()
	defer l.sink.mu.RUnlock()

	if level < l.sink.level {
		return
	}

	entry := &types.LogEntry{
		Level:     level,
		Message:   message,
		Timestamp: time.Now(),
		Context:   l.ctx,
		Fields:    l.merged(fields...),
	}

	// Stable adapter order keeps multi-adapter output predictable
	names := make([]string, 0, len(l.sink.adapters))
	for name := range l.sink.adapters {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		if err := l.sink.adapters[name].Write(entry); err != nil {
			fmt.Fprintf(os.Stderr, "logging adapter %s error: %v\n", name, err)
		}
	}
}

func (l *MultiLogger) WithContext(ctx context.Context) Logger {
	return &MultiLogger{sink: l.sink, ctx: ctx, fields: l.merged()}
}

func (l *MultiLogger) WithField(key string, value interface{}) Logger {
	return &MultiLogger{sink: l.sink, ctx: l.ctx, fields: l.merged(map[string]interface{}{key: value})}
}

func (l *MultiLogger) WithFields(fields map[string]interface{}) Logger {
	return &MultiLogger{sink: l.sink, ctx: l.ctx, fields: l.merged(fields)}
}

func (l *MultiLogger) SetLevel(level LogLevel) {
	l.sink.mu.Lock()
	defer l.sink.mu.Unlock()
	l.sink.level = level
}

func (l *MultiLogger) GetLevel() LogLevel {
	l.sink.mu.RLock()
	defer l.sink.mu.RUnlock()
	return l.sink.level
}

// AddAdapter registers an adapter; names must be unique
func (l *MultiLogger) AddAdapter(adapter types.LogAdapter) error {
	l.sink.mu.Lock()
	defer l.sink.mu.Unlock()

	name := adapter.Name()
	if _, exists := l.sink.adapters[name]; exists {
		return fmt.Errorf("adapter %s already exists", name)
	}
	l.sink.adapters[name] = adapter
	return nil
}

// RemoveAdapter closes and unregisters the named adapter
func (l *MultiLogger) RemoveAdapter(adapterName string) error {
	l.sink.mu.Lock()
	defer l.sink.mu.Unlock()

	adapter, exists := l.sink.adapters[adapterName]
	if !exists {
		return fmt.Errorf("adapter %s not found", adapterName)
	}
	delete(l.sink.adapters, adapterName)

	if err := adapter.Close(); err != nil {
		return fmt.Errorf("failed to close adapter %s: %w", adapterName, err)
	}
	return nil
}

// Close closes all adapters
func (l *MultiLogger) Close() error {
	l.sink.mu.Lock()
	defer l.sink.mu.Unlock()

	var failures []string
	for name, adapter := range l.sink.adapters {
		if err := adapter.Close(); err != nil {
			failures = append(failures, fmt.Sprintf("adapter %s: %v", name, err))
		}
	}
	if len(failures) > 0 {
		sort.Strings(failures)
		return fmt.Errorf("failed to close adapters: %s", strings.Join(failures, ", "))
	}
	return nil
}

func (l *MultiLogger) merged(extra ...map[string]interface{}) map[string]interface{} {
	out := make(map[string]interface{}, len(l.fields))
	for k, v := range l.fields {
		out[k] = v
	}
	for _, fields := range extra {
		for k, v := range fields {
			out[k] = v
		}
	}
	return out
}
