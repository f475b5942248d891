// Package vlog is a minimal leveled logger in the style the VMDK-reading
// tools in this space reach for: a toggle-able wrapper around the standard
// library's log.Logger, not a structured-logging framework.
package vlog

import (
	"io"
	"log"
	"os"
)

// Logger emits Info/Warning/Error lines when active, and discards them
// otherwise so callers never need to branch on whether logging is enabled.
type Logger struct {
	info    *log.Logger
	warning *log.Logger
	error_  *log.Logger
	active  bool
}

// New builds a Logger that writes to w when active is true. A nil w defaults
// to os.Stderr.
func New(active bool, w io.Writer) Logger {
	if !active {
		return Logger{active: false}
	}
	if w == nil {
		w = os.Stderr
	}
	return Logger{
		info:    log.New(w, "INFO: ", log.Ldate|log.Ltime),
		warning: log.New(w, "WARN: ", log.Ldate|log.Ltime),
		error_:  log.New(w, "ERROR: ", log.Ldate|log.Ltime),
		active:  true,
	}
}

// Discard is a Logger that never writes anything.
var Discard = Logger{active: false}

func (l Logger) Info(msg string) {
	if l.active {
		l.info.Println(msg)
	}
}

func (l Logger) Warning(msg string) {
	if l.active {
		l.warning.Println(msg)
	}
}

func (l Logger) Error(msg string) {
	if l.active {
		l.error_.Println(msg)
	}
}
