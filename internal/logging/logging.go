package logging

import (
	"bufio"
	"fmt"
	"io"
	"log"
	"os"
	"strings"
)

// Level describes severity of a log message.
type Level int

const (
	LevelDebug Level = iota
	LevelInfo
	LevelWarn
	LevelError
)

func (l Level) String() string {
	switch l {
	case LevelDebug:
		return "DEBUG"
	case LevelWarn:
		return "WARN"
	case LevelError:
		return "ERROR"
	default:
		return "INFO"
	}
}

// ParseLevel converts a config string to a Level. Unknown values map to info.
func ParseLevel(v string) Level {
	switch strings.ToLower(strings.TrimSpace(v)) {
	case "debug":
		return LevelDebug
	case "warn", "warning":
		return LevelWarn
	case "error":
		return LevelError
	default:
		return LevelInfo
	}
}

// Logger is a thin wrapper around log.Logger with levels.
type Logger struct {
	logger *log.Logger
	level  Level
	file   *os.File
}

// New creates a logger writing to stderr and, when path is set, appending to that file too.
func New(path string, level Level) (*Logger, error) {
	var output io.Writer = os.Stderr
	var file *os.File
	if path != "" {
		f, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
		if err != nil {
			return nil, fmt.Errorf("open log file: %w", err)
		}
		file = f
		output = io.MultiWriter(os.Stderr, f)
	}
	return &Logger{logger: log.New(output, "securewipe ", log.LstdFlags), level: level, file: file}, nil
}

// NewWriter creates a logger on an arbitrary writer.
func NewWriter(w io.Writer, level Level) *Logger {
	return &Logger{logger: log.New(w, "securewipe ", log.LstdFlags), level: level}
}

// Discard returns a logger that drops everything.
func Discard() *Logger {
	return NewWriter(io.Discard, LevelError+1)
}

// Close releases the log file, if any.
func (l *Logger) Close() error {
	if l == nil || l.file == nil {
		return nil
	}
	return l.file.Close()
}

func (l *Logger) logf(lvl Level, format string, args ...interface{}) {
	if l == nil {
		return
	}
	if lvl < l.level {
		return
	}
	l.logger.Printf("[%s] %s", lvl, fmt.Sprintf(format, args...))
}

// Debugf logs verbose diagnostic messages.
func (l *Logger) Debugf(format string, args ...interface{}) {
	l.logf(LevelDebug, format, args...)
}

// Infof logs informational messages.
func (l *Logger) Infof(format string, args ...interface{}) {
	l.logf(LevelInfo, format, args...)
}

// Warnf logs recovered failures.
func (l *Logger) Warnf(format string, args ...interface{}) {
	l.logf(LevelWarn, format, args...)
}

// Errorf logs errors.
func (l *Logger) Errorf(format string, args ...interface{}) {
	l.logf(LevelError, format, args...)
}

// Printf keeps compatibility with the standard log API.
func (l *Logger) Printf(format string, args ...interface{}) {
	l.Infof(format, args...)
}

// Tail returns the last n lines of the log file at path.
// A missing file yields no lines and no error.
func Tail(path string, n int) ([]string, error) {
	if path == "" || n <= 0 {
		return []string{}, nil
	}
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return []string{}, nil
		}
		return nil, err
	}
	defer f.Close()

	lines := make([]string, 0, n)
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		if len(lines) == n {
			lines = append(lines[:0], lines[1:]...)
		}
		lines = append(lines, scanner.Text())
	}
	return lines, scanner.Err()
}
