// Package logger provides process-wide levelled logging for the pipeline
// workers, the HTTP server and the CLI.
//
// Info, Warn and Error are always written unless quiet mode is on. Debug
// and Section are written only in verbose mode (the --verbose flag), to
// trace individual stage transitions and model calls.
package logger

import (
	"fmt"
	"io"
	"os"
	"sync"
	"time"
)

var (
	mu         sync.RWMutex
	verbose    bool
	quiet      bool
	timestamps           = true
	output     io.Writer = os.Stderr
	now                  = time.Now
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

// SetQuiet suppresses Info and Warn. Error is still written.
func SetQuiet(q bool) {
	mu.Lock()
	defer mu.Unlock()
	quiet = q
}

// SetTimestamps toggles the UTC timestamp prefix.
func SetTimestamps(on bool) {
	mu.Lock()
	defer mu.Unlock()
	timestamps = on
}

// SetOutput sets the output writer for logs.
// Defaults to os.Stderr. Useful for testing.
func SetOutput(w io.Writer) {
	mu.Lock()
	defer mu.Unlock()
	output = w
}

// Debug prints a message if verbose mode is enabled.
func Debug(format string, args ...any) {
	mu.RLock()
	defer mu.RUnlock()
	if verbose {
		write("DEBUG", format, args...)
	}
}

// Section prints a section header if verbose mode is enabled.
func Section(name string) {
	mu.RLock()
	defer mu.RUnlock()
	if verbose {
		fmt.Fprintf(output, "\n=== %s ===\n", name)
	}
}

// Info prints an informational message.
func Info(format string, args ...any) {
	mu.RLock()
	defer mu.RUnlock()
	if !quiet {
		write("INFO", format, args...)
	}
}

// Warn prints a warning message.
func Warn(format string, args ...any) {
	mu.RLock()
	defer mu.RUnlock()
	if !quiet {
		write("WARN", format, args...)
	}
}

// Error prints an error message regardless of quiet mode.
func Error(format string, args ...any) {
	mu.RLock()
	defer mu.RUnlock()
	write("ERROR", format, args...)
}

// write assumes mu is held.
func write(level, format string, args ...any) {
	prefix := "[" + level + "] "
	if timestamps {
		prefix = now().UTC().Format(time.RFC3339) + " " + prefix
	}
	fmt.Fprintf(output, prefix+format+"\n", args...)
}
