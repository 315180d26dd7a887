// Package cli implements the manifestcheck command-line interface.
//
// The root command checks one package and exits with a status describing
// the verdict. The serve subcommand runs the same checks over HTTP and
// exposes Prometheus metrics. The CLI is built using cobra and logs through
// the charmbracelet/log library.
//
// # Logging
//
// All commands support --verbose (-v) for debug-level logging. Loggers are
// passed through context.Context; retry notices appear at warn level.
//
// # Example
//
//	c := cli.New(os.Stderr, cli.LogInfo)
//	err := c.RootCommand().ExecuteContext(ctx)
//	os.Exit(cli.ExitCode(err))
package cli

import (
	"context"
	"io"
	"time"

	"github.com/charmbracelet/log"
)

const logTimeFormat = "15:04:05.00"

// newLogger writes to w, normally stderr, so stdout carries only the report.
func newLogger(w io.Writer, level log.Level) *log.Logger {
	return log.NewWithOptions(w, log.Options{
		ReportTimestamp: true,
		TimeFormat:      logTimeFormat,
		Level:           level,
		ReportCaller:    level <= log.DebugLevel,
	})
}

// timed runs fn and, if it succeeds, logs msg with the elapsed time at info
// level, e.g. "Wrote traversal graph to walk.svg (12ms)".
func timed(logger *log.Logger, msg string, fn func() error) error {
	start := time.Now()
	if err := fn(); err != nil {
		return err
	}
	logger.Infof("%s (%s)", msg, time.Since(start).Round(time.Millisecond))
	return nil
}

type loggerKey struct{}

func withLogger(ctx context.Context, l *log.Logger) context.Context {
	return context.WithValue(ctx, loggerKey{}, l)
}

// loggerFromContext falls back to log.Default so handlers invoked outside
// the root command still have somewhere to write.
func loggerFromContext(ctx context.Context) *log.Logger {
	if l, ok := ctx.Value(loggerKey{}).(*log.Logger); ok {
		return l
	}
	return log.Default()
}
