// Package logging wraps the standard logger with the verbose/quiet gating the
// CLI flags control.
package logging

import (
	"io"
	"log"
)

// Logger prints tagged diagnostic lines. A nil *Logger discards everything.
type Logger struct {
	out     *log.Logger
	tag     string
	verbose bool
}

// New returns a logger writing to w. Debug lines are printed only when verbose is set.
func New(w io.Writer, verbose bool) *Logger {
	return &Logger{out: log.New(w, "", log.LstdFlags), verbose: verbose}
}

// Discard returns a logger that prints nothing.
func Discard() *Logger {
	return New(io.Discard, false)
}

// With returns a copy of l that prefixes every line with [tag].
func (l *Logger) With(tag string) *Logger {
	if l == nil {
		return nil
	}
	cp := *l
	cp.tag = tag
	return &cp
}

// Verbose reports whether debug lines are printed.
func (l *Logger) Verbose() bool {
	return l != nil && l.verbose
}

func (l *Logger) Printf(format string, args ...any) {
	if l == nil {
		return
	}
	if l.tag != "" {
		format = "[" + l.tag + "] " + format
	}
	l.out.Printf(format, args...)
}

func (l *Logger) Debugf(format string, args ...any) {
	if !l.Verbose() {
		return
	}
	l.Printf(format, args...)
}
