package server

import (
	"fmt"
	"io"
	"log"
	"os"
)

// Logger writes leveled request and lifecycle logs to a file or any
// writer.
type Logger struct {
	file   *os.File
	logger *log.Logger
}

// NewLogger opens (or creates) the log file at path in append mode.
func NewLogger(path string) (*Logger, error) {
	file, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return nil, err
	}
	return &Logger{file: file, logger: log.New(file, "", log.LstdFlags)}, nil
}

// NewWriterLogger logs to an arbitrary writer; used by tests and the
// CLI to log to stderr.
func NewWriterLogger(w io.Writer) *Logger {
	return &Logger{logger: log.New(w, "", log.LstdFlags)}
}

func (l *Logger) Infof(format string, args ...any) {
	l.logger.SetPrefix("INFO: ")
	l.logger.Output(2, fmt.Sprintf(format, args...))
}

func (l *Logger) Warnf(format string, args ...any) {
	l.logger.SetPrefix("WARN: ")
	l.logger.Output(2, fmt.Sprintf(format, args...))
}

func (l *Logger) Errorf(format string, args ...any) {
	l.logger.SetPrefix("ERROR: ")
	l.logger.Output(2, fmt.Sprintf(format, args...))
}

// Close closes the underlying file, if any.
func (l *Logger) Close() error {
	if l.file == nil {
		return nil
	}
	return l.file.Close()
}
