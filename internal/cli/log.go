package cli

import (
	"context"
	"io"
	"time"

	charmlog "github.com/charmbracelet/log"

	"resume-render/internal/logging"
	"resume-render/internal/logging/adapters"
)

func newLogger(w io.Writer, level charmlog.Level) *charmlog.Logger {
	return charmlog.NewWithOptions(w, charmlog.Options{
		ReportTimestamp: true,
		TimeFormat:      "15:04:05.00",
		Level:           level,
	})
}

type ctxKey int

const loggerKey ctxKey = 0

func withLogger(ctx context.Context, l *charmlog.Logger) context.Context {
	return context.WithValue(ctx, loggerKey, l)
}

func loggerFromContext(ctx context.Context) *charmlog.Logger {
	if l, ok := ctx.Value(loggerKey).(*charmlog.Logger); ok {
		return l
	}
	return charmlog.Default()
}

// serviceLogger routes the render pipeline's structured logs to w as text.
// Only warnings surface unless the CLI logger is at debug.
func serviceLogger(w io.Writer, cli *charmlog.Logger) logging.Logger {
	l := logging.NewMultiLogger()
	_ = l.AddAdapter(adapters.NewStdoutAdapter("cli", adapters.StdoutConfig{Format: "text", Writer: w}))
	if cli.GetLevel() <= charmlog.DebugLevel {
		l.SetLevel(logging.DebugLevel)
	} else {
		l.SetLevel(logging.WarnLevel)
	}
	logging.SetGlobalLogger(l)
	return l
}

type progress struct {
	logger *charmlog.Logger
	start  time.Time
}

func newProgress(l *charmlog.Logger) *progress {
	return &progress{logger: l, start: time.Now()}
}

func (p *progress) done(msg string, keyvals ...interface{}) {
	p.logger.Info(msg, append(keyvals, "elapsed", time.Since(p.start).Round(time.Millisecond))...)
}
