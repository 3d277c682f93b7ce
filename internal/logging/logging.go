// Package logging writes the append-only cleaning log.
//
// One Logger is opened per process and handed to the processor and the
// placement stage; every attempted file produces exactly one line:
//
//	[IMAGE] Cleaned /photos/a.jpg -> /photos/a_clean.jpg
//	[PDF] Failed /docs/b.pdf: decode error: missing document catalog
//	[SKIP] Unsupported file type /notes/c.txt
//
// Lines are never rewritten or rotated.
package logging

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/adrg/xdg"
	"github.com/charmbracelet/log"
)

// DefaultFileName is the log file name inside the documents directory.
const DefaultFileName = "metadata-log.txt"

// Logger wraps charmbracelet/log with the cleaning-log vocabulary.
type Logger struct {
	log    *log.Logger
	closer io.Closer
	path   string
}

// DefaultPath returns the well-known log location in the user's documents
// directory ($XDG_DOCUMENTS_DIR, usually ~/Documents).
func DefaultPath() string {
	return filepath.Join(xdg.UserDirs.Documents, DefaultFileName)
}

// Open opens (or creates) the log file at path for appending. An empty path
// uses DefaultPath.
func Open(path string) (*Logger, error) {
	if path == "" {
		path = DefaultPath()
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("creating log directory: %w", err)
	}

	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return nil, fmt.Errorf("opening log file: %w", err)
	}

	l := New(f)
	l.closer = f
	l.path = path
	return l, nil
}

// New returns a Logger writing to w.
func New(w io.Writer) *Logger {
	return &Logger{
		log: log.NewWithOptions(w, log.Options{
			Level:           log.DebugLevel,
			ReportTimestamp: true,
			TimeFormat:      time.RFC3339,
		}),
	}
}

// Discard returns a Logger that drops everything.
func Discard() *Logger {
	return New(io.Discard)
}

// Path returns the file backing the logger, or "" for writer-backed loggers.
func (l *Logger) Path() string {
	return l.path
}

// With returns a Logger that appends keyvals to every line.
func (l *Logger) With(keyvals ...interface{}) *Logger {
	return &Logger{log: l.log.With(keyvals...), path: l.path}
}

// Cleaned records a produced output.
func (l *Logger) Cleaned(tag, input, output string) {
	l.log.Info(fmt.Sprintf("[%s] Cleaned %s -> %s", tag, input, output))
}

// Failed records a failed attempt.
func (l *Logger) Failed(tag, input, reason string) {
	l.log.Error(fmt.Sprintf("[%s] Failed %s: %s", tag, input, reason))
}

// Skipped records a file whose type is not supported.
func (l *Logger) Skipped(input string) {
	l.log.Warn(fmt.Sprintf("[SKIP] Unsupported file type %s", input))
}

// Moved records a cleaned output relocated by the placement stage.
func (l *Logger) Moved(from, to string) {
	l.log.Info(fmt.Sprintf("[MOVE] Moved %s -> %s", from, to))
}

// Warn records a non-fatal condition.
func (l *Logger) Warn(msg string, keyvals ...interface{}) {
	l.log.Warn(msg, keyvals...)
}

// Debug records diagnostic detail.
func (l *Logger) Debug(msg string, keyvals ...interface{}) {
	l.log.Debug(msg, keyvals...)
}

// Close closes the underlying file, if any.
func (l *Logger) Close() error {
	if l.closer == nil {
		return nil
	}
	return l.closer.Close()
}
