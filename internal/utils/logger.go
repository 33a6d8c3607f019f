package utils

import (
	"fmt"
	"io"
	"os"
	"sync"
	"time"
)

// Logger provides leveled logging with verbose mode support. While the TUI
// is running, output should be redirected to a file via SetOutput so log
// lines do not corrupt the screen.
type Logger struct {
	mu      sync.RWMutex
	verbose bool
	out     io.Writer
}

var (
	loggerInstance *Logger
	once           sync.Once
)

// GetLogger returns the singleton logger instance.
func GetLogger() *Logger {
	once.Do(func() {
		loggerInstance = &Logger{out: os.Stderr}
	})
	return loggerInstance
}

// SetVerboseMode sets the verbose mode globally.
func SetVerboseMode(verbose bool) {
	l := GetLogger()
	l.mu.Lock()
	l.verbose = verbose
	l.mu.Unlock()
}

// SetOutput redirects log output (e.g. to a session log file while the TUI
// owns the terminal). Passing nil discards output.
func (l *Logger) SetOutput(w io.Writer) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if w == nil {
		w = io.Discard
	}
	l.out = w
}

// IsVerbose returns whether verbose mode is enabled.
func (l *Logger) IsVerbose() bool {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.verbose
}

func (l *Logger) write(level, format string, args ...interface{}) {
	l.mu.RLock()
	out := l.out
	l.mu.RUnlock()
	fmt.Fprintf(out, "%s [%s] %s\n", time.Now().Format("15:04:05"), level, fmt.Sprintf(format, args...))
}

// Debug logs a debug message (only shown when verbose=true).
func (l *Logger) Debug(format string, args ...interface{}) {
	if !l.IsVerbose() {
		return
	}
	l.write("DEBUG", format, args...)
}

// Info logs an info message.
func (l *Logger) Info(format string, args ...interface{}) {
	l.write("INFO", format, args...)
}

// Warn logs a warning message.
func (l *Logger) Warn(format string, args ...interface{}) {
	l.write("WARN", format, args...)
}

// Error logs an error message.
func (l *Logger) Error(format string, args ...interface{}) {
	l.write("ERROR", format, args...)
}

// Debugf logs a debug message using the global logger.
func Debugf(format string, args ...interface{}) {
	GetLogger().Debug(format, args...)
}

// Infof logs an info message using the global logger.
func Infof(format string, args ...interface{}) {
	GetLogger().Info(format, args...)
}

// Warnf logs a warning message using the global logger.
func Warnf(format string, args ...interface{}) {
	GetLogger().Warn(format, args...)
}

// Errorf logs an error message using the global logger.
func Errorf(format string, args ...interface{}) {
	GetLogger().Error(format, args...)
}
