package adapters

import (
	"io"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"resume-render/internal/logging/types"
)

// zapWriter encodes entries as JSON lines with a zap core. The level gate
// lives in MultiLogger, so the core accepts everything.
type zapWriter struct {
	core zapcore.Core
}

func newZapWriter(w io.Writer) *zapWriter {
	encoder := zapcore.NewJSONEncoder(zapcore.EncoderConfig{
		TimeKey:        "time",
		LevelKey:       "level",
		MessageKey:     "message",
		LineEnding:     zapcore.DefaultLineEnding,
		EncodeLevel:    zapcore.LowercaseLevelEncoder,
		EncodeTime:     zapcore.RFC3339TimeEncoder,
		EncodeDuration: zapcore.StringDurationEncoder,
	})
	return &zapWriter{core: zapcore.NewCore(encoder, zapcore.AddSync(w), zapcore.DebugLevel)}
}

func (z *zapWriter) write(entry *types.LogEntry) error {
	keys := sortedKeys(entry.Fields)
	fields := make([]zapcore.Field, 0, len(keys))
	for _, k := range keys {
		fields = append(fields, zap.Any(k, entry.Fields[k]))
	}
	return z.core.Write(zapcore.Entry{
		Level:   zapLevel(entry.Level),
		Time:    entry.Timestamp,
		Message: entry.Message,
	}, fields)
}

func (z *zapWriter) sync() error { return z.core.Sync() }

func zapLevel(level types.LogLevel) zapcore.Level {
	switch level {
	case types.DebugLevel:
		return zapcore.DebugLevel
	case types.WarnLevel:
		return zapcore.WarnLevel
	case types.ErrorLevel:
		return zapcore.ErrorLevel
	case types.FatalLevel:
		return zapcore.FatalLevel
	default:
		return zapcore.InfoLevel
	}
}
