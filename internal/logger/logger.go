// Package logger provides leveled logging for villagevote.
// When verbose mode is enabled via the --verbose flag, debug, info and warn
// messages are printed to stderr so operators can follow ingestion runs and
// roll-call sweeps. Errors and notices are always printed.
//
// Components log through a scoped Logger from With, which prefixes every
// line with the component name:
//
//	[INFO] ingestion: run 7f3c... complete
package logger

import (
	"fmt"
	"io"
	"os"
	"sync"
)

// Level is a message severity.
type Level string

const (
	LevelDebug  Level = "DEBUG"
	LevelInfo   Level = "INFO"
	LevelWarn   Level = "WARN"
	LevelNotice Level = "NOTICE"
	LevelError  Level = "ERROR"
)

var (
	mu      sync.RWMutex
	verbose bool
	output  io.Writer = os.Stderr
)

// SetVerbose enables or disables verbose logging.
func SetVerbose(v bool) {
	mu.Lock()
	defer mu.Unlock()
	verbose = v
}

// IsVerbose returns true if verbose mode is enabled.
func IsVerbose() bool {
	mu.RLock()
	defer mu.RUnlock()
	return verbose
}

// SetOutput sets the output writer for logs.
// Defaults to os.Stderr. Useful for testing.
func SetOutput(w io.Writer) {
	mu.Lock()
	defer mu.Unlock()
	output = w
}

// Logger prefixes messages with a component name.
type Logger struct {
	component string
}

// With returns a logger for the named component.
func With(component string) *Logger {
	return &Logger{component: component}
}

// Debug logs a debug message if verbose mode is enabled.
func (l *Logger) Debug(format string, args ...any) { l.log(LevelDebug, format, args) }

// Info logs an informational message if verbose mode is enabled.
func (l *Logger) Info(format string, args ...any) { l.log(LevelInfo, format, args) }

// Warn logs a warning if verbose mode is enabled.
func (l *Logger) Warn(format string, args ...any) { l.log(LevelWarn, format, args) }

// Error logs an error regardless of verbose mode.
func (l *Logger) Error(format string, args ...any) { l.log(LevelError, format, args) }

func (l *Logger) log(level Level, format string, args []any) {
	if l != nil && l.component != "" {
		format = l.component + ": " + format
	}
	emit(level, format, args)
}

// Debug prints a message if verbose mode is enabled.
func Debug(format string, args ...any) { emit(LevelDebug, format, args) }

// Info prints an informational message if verbose mode is enabled.
func Info(format string, args ...any) { emit(LevelInfo, format, args) }

// Warn prints a warning message if verbose mode is enabled.
func Warn(format string, args ...any) { emit(LevelWarn, format, args) }

// Notice prints a message regardless of verbose mode. Use it for startup
// conditions the operator must see, such as a disabled connector.
func Notice(format string, args ...any) { emit(LevelNotice, format, args) }

// Error prints an error message regardless of verbose mode.
func Error(format string, args ...any) { emit(LevelError, format, args) }

// Section prints a section header if verbose mode is enabled.
func Section(name string) {
	mu.RLock()
	defer mu.RUnlock()
	if verbose {
		fmt.Fprintf(output, "\n=== %s ===\n", name)
	}
}

func emit(level Level, format string, args []any) {
	mu.RLock()
	defer mu.RUnlock()
	if level != LevelError && level != LevelNotice && !verbose {
		return
	}
	fmt.Fprintf(output, "["+string(level)+"] "+format+"\n", args...)
}
