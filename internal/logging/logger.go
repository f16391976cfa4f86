// Package logging provides the append-only file logger used across the
// core: timestamped, leveled lines appended to a per-project log file,
// with a Tail reader for recent entries.
package logging

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"
)

// Level is the severity of a log entry.
type Level string

const (
	LevelInfo  Level = "INFO"
	LevelWarn  Level = "WARN"
	LevelError Level = "ERROR"
)

// Logger appends timestamped, leveled lines to a file so operators can
// inspect distributor/module lifecycle activity after the fact.
type Logger struct {
	path string
	mu   sync.Mutex
}

// New creates (or reuses) the log file at dir/razy.log.
func New(dir string) (*Logger, error) {
	if dir == "" {
		return Nop(), nil
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("logging: ensure log dir: %w", err)
	}
	path := filepath.Join(dir, "razy.log")
	return &Logger{path: path}, nil
}

// Nop returns a Logger that discards everything, for tests and CLI
// subcommands that should not touch disk.
func Nop() *Logger {
	return &Logger{}
}

// Path returns the file backing this logger, or "" for a Nop logger.
func (l *Logger) Path() string {
	if l == nil {
		return ""
	}
	return l.path
}

// Printf writes a single INFO-level line. It satisfies the single-method
// Logger seam (Printf(format string, args ...any)) that Distributor,
// Application, and the worker cache depend on, so none of them need to
// import this concrete type.
func (l *Logger) Printf(format string, args ...any) {
	l.Append(LevelInfo, fmt.Sprintf(format, args...))
}

// Info appends an informational entry.
func (l *Logger) Info(format string, args ...any) { l.Append(LevelInfo, fmt.Sprintf(format, args...)) }

// Warn appends a warning entry.
func (l *Logger) Warn(format string, args ...any) { l.Append(LevelWarn, fmt.Sprintf(format, args...)) }

// Error appends an error entry.
func (l *Logger) Error(format string, args ...any) {
	l.Append(LevelError, fmt.Sprintf(format, args...))
}

// Append writes one leveled line. A Nop logger (no backing path) is a no-op.
func (l *Logger) Append(level Level, message string) {
	if l == nil || l.path == "" {
		return
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	line := fmt.Sprintf("[%s] %-5s %s\n",
		time.Now().UTC().Format(time.RFC3339),
		string(level),
		strings.TrimSpace(message),
	)
	file, err := os.OpenFile(l.path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return
	}
	defer file.Close()
	_, _ = file.WriteString(line)
}

// Tail returns up to maxLines of the most recently appended entries.
func (l *Logger) Tail(maxLines int) []string {
	if l == nil || l.path == "" || maxLines <= 0 {
		return nil
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	file, err := os.Open(l.path)
	if err != nil {
		return nil
	}
	defer file.Close()

	var lines []string
	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		lines = append(lines, scanner.Text())
	}
	if len(lines) > maxLines {
		lines = lines[len(lines)-maxLines:]
	}
	return lines
}
