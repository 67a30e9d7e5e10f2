// Package logging builds the structured loggers handed to the loader and
// the command-line tools.
package logging

import (
	"io"
	"time"

	"github.com/charmbracelet/log"
	"github.com/pkg/errors"
)

// New returns a logger writing to w at the named level ("debug", "info",
// "warn", "error"). Debug loggers also report the caller.
func New(w io.Writer, level string) (*log.Logger, error) {
	lvl := log.InfoLevel
	if level != "" {
		var err error
		if lvl, err = log.ParseLevel(level); err != nil {
			return nil, errors.Wrapf(err, "logging: level %q", level)
		}
	}
	l := log.NewWithOptions(w, log.Options{
		ReportCaller:    lvl == log.DebugLevel,
		ReportTimestamp: true,
		TimeFormat:      time.RFC3339,
		Prefix:          "mdl",
		Level:           lvl,
	})
	return l, nil
}

// Discard returns a logger that drops everything.
func Discard() *log.Logger {
	return log.New(io.Discard)
}

// OrDiscard returns l, or a discarding logger when l is nil.
func OrDiscard(l *log.Logger) *log.Logger {
	if l == nil {
		return Discard()
	}
	return l
}
