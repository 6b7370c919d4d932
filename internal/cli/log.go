// Package cli implements the ddsolve command-line interface.
//
// The CLI loads knapsack instances from TOML or JSON files and runs the
// decision diagram solver on them. It is built using cobra and logs through
// the charmbracelet/log library.
//
// # Commands
//
//   - solve: Run the branch-and-bound search and print the best solution
//   - diagram: Compile the root diagram of an instance and export it as DOT or SVG
//
// # Logging
//
// All commands support --verbose (-v) for debug-level logging. Every solve
// gets a run ID that prefixes its log lines, so that interleaved runs can be
// told apart in shared log files.
//
// # Example
//
//	c := cli.New(os.Stderr, cli.LogInfo)
//	if err := c.RootCommand().ExecuteContext(ctx); err != nil {
//	    os.Exit(1)
//	}
package cli

import (
	"context"
	"io"
	"time"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"
)

// newLogger creates a new logger with timestamp formatting.
// Timestamps are formatted as "HH:MM:SS.ms" (e.g., "14:32:01.45").
func newLogger(w io.Writer, level log.Level) *log.Logger {
	return log.NewWithOptions(w, log.Options{
		ReportTimestamp: true,
		TimeFormat:      "15:04:05.00",
		Level:           level,
	})
}

// runLogger returns a child of l tagged with a fresh run ID, and the ID.
func runLogger(l *log.Logger) (*log.Logger, string) {
	id := uuid.NewString()
	return l.With("run", id[:8]), id
}

// progress tracks the start time of an operation and logs completion with elapsed duration.
type progress struct {
	logger *log.Logger
	start  time.Time
}

func newProgress(l *log.Logger) *progress {
	return &progress{logger: l, start: time.Now()}
}

// done logs msg along with the elapsed time since progress was created.
// Example output: "Compiled 42 nodes (1.234s)"
func (p *progress) done(msg string) {
	p.logger.Infof("%s (%s)", msg, time.Since(p.start).Round(time.Millisecond))
}

type ctxKey int

const loggerKey ctxKey = 0

// withLogger returns a new context with the given logger attached.
func withLogger(ctx context.Context, l *log.Logger) context.Context {
	return context.WithValue(ctx, loggerKey, l)
}

// loggerFromContext retrieves the logger from ctx, or log.Default().
func loggerFromContext(ctx context.Context) *log.Logger {
	if l, ok := ctx.Value(loggerKey).(*log.Logger); ok {
		return l
	}
	return log.Default()
}
