package logging

import (
	"fmt"
	"io"
	"log"
	"os"

	"gopkg.in/natefinch/lumberjack.v2"
)

// Options configures the rotated log file
type Options struct {
	File       string
	MaxSizeMB  int
	MaxBackups int
	MaxAgeDays int
}

// Logger writes level-prefixed lines to stdout and an optional rotated file
type Logger struct {
	logger *log.Logger
	closer io.Closer
}

// New creates a Logger. An empty File logs to stdout only.
func New(opts Options) *Logger {
	if opts.File == "" {
		return NewWithWriter(os.Stdout)
	}

	file := &lumberjack.Logger{
		Filename:   opts.File,
		MaxSize:    opts.MaxSizeMB,
		MaxBackups: opts.MaxBackups,
		MaxAge:     opts.MaxAgeDays,
	}
	l := NewWithWriter(io.MultiWriter(os.Stdout, file))
	l.closer = file
	return l
}

// NewWithWriter creates a Logger writing to w
func NewWithWriter(w io.Writer) *Logger {
	return &Logger{
		logger: log.New(w, "", log.LstdFlags),
	}
}

// Info logs progress
func (l *Logger) Info(format string, args ...interface{}) {
	l.output("INFO", format, args...)
}

// Warning logs a recoverable failure
func (l *Logger) Warning(format string, args ...interface{}) {
	l.output("WARNING", format, args...)
}

// Error logs an unrecoverable failure
func (l *Logger) Error(format string, args ...interface{}) {
	l.output("ERROR", format, args...)
}

func (l *Logger) output(level, format string, args ...interface{}) {
	l.logger.Printf("%s - %s", level, fmt.Sprintf(format, args...))
}

// Close releases the log file
func (l *Logger) Close() error {
	if l.closer == nil {
		return nil
	}
	return l.closer.Close()
}
