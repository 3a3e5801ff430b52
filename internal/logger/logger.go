// Package logger provides leveled logging for the tmx application.
//
// The logger writes timestamped, level-prefixed messages to stderr using
// printf-style formatting. Debug output is suppressed unless explicitly
// enabled via SetDebug, typically from a -v/--verbose CLI flag.
//
// All functions are safe for concurrent use.
package logger

import (
	"fmt"
	"log"
	"os"
	"sync/atomic"
)

// std is the underlying logger shared by all level functions.
// Logs go to stderr so command output on stdout stays machine-readable.
var std = log.New(os.Stderr, "", log.LstdFlags)

// debugEnabled controls whether Debug messages are emitted.
var debugEnabled atomic.Bool

// SetDebug enables or disables debug-level output.
//
// Parameters:
//   - enabled: true to emit Debug messages, false to suppress them
func SetDebug(enabled bool) {
	debugEnabled.Store(enabled)
}

// DebugEnabled reports whether debug-level output is currently enabled.
func DebugEnabled() bool {
	return debugEnabled.Load()
}

// Info logs an informational message.
//
// Parameters:
//   - format: printf-style format string
//   - args: format arguments
func Info(format string, args ...interface{}) {
	std.Output(2, "[INFO] "+fmt.Sprintf(format, args...))
}

// Warn logs a warning message.
func Warn(format string, args ...interface{}) {
	std.Output(2, "[WARN] "+fmt.Sprintf(format, args...))
}

// Error logs an error message.
func Error(format string, args ...interface{}) {
	std.Output(2, "[ERROR] "+fmt.Sprintf(format, args...))
}

// Debug logs a debug message. The message is dropped unless debug output
// has been enabled with SetDebug(true).
func Debug(format string, args ...interface{}) {
	if !debugEnabled.Load() {
		return
	}
	std.Output(2, "[DEBUG] "+fmt.Sprintf(format, args...))
}
