// Package pipelinelog provides the pipeline driver's structured logger: a
// charmbracelet/log logger writing to stderr and, simultaneously, to
// workDir/debug.log (spec §6), so a run's full log is always on disk next
// to its state.json even if the terminal scrolls away.
package pipelinelog

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/charmbracelet/log"
)

// Logger is the pipeline-wide structured logger. It is a thin wrapper
// around *log.Logger so callers can attach stage/trace fields with With.
type Logger struct {
	*log.Logger
	file *os.File
}

// New creates a Logger that writes to stderr and to workDir/debug.log.
// The caller must call Close when the run finishes.
func New(workDir string) (*Logger, error) {
	if err := os.MkdirAll(workDir, 0o755); err != nil {
		return nil, fmt.Errorf("create work dir for debug log: %w", err)
	}
	logPath := filepath.Join(workDir, "debug.log")
	f, err := os.OpenFile(logPath, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return nil, fmt.Errorf("open debug log: %w", err)
	}

	out := io.MultiWriter(os.Stderr, f)
	base := log.NewWithOptions(out, log.Options{
		ReportTimestamp: true,
		TimeFormat:      "15:04:05",
		Level:           log.InfoLevel,
	})
	return &Logger{Logger: base, file: f}, nil
}

// WithStage returns a child logger that tags every line with the current
// stage name, the same "attach context once, log everywhere" pattern the
// teacher uses for per-tool loggers.
func (l *Logger) WithStage(stage string) *log.Logger {
	return l.Logger.With("stage", stage)
}

// Close flushes and closes the underlying debug.log file handle.
func (l *Logger) Close() error {
	if l.file == nil {
		return nil
	}
	return l.file.Close()
}
