package utils

import (
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"strings"
	"time"
)

type Level int

const (
	LevelDebug Level = iota
	LevelInfo
	LevelWarn
	LevelError
)

// Logger is a leveled wrapper over the standard logger. A nil *Logger
// discards everything, so components can take one optionally.
type Logger struct {
	level Level
	out   *log.Logger
	file  *os.File
}

func NewLogger() *Logger {
	return NewLoggerTo(os.Stdout, "info")
}

func NewLoggerTo(w io.Writer, level string) *Logger {
	return &Logger{level: ParseLevel(level), out: log.New(w, "", 0)}
}

// OpenLogger writes to file (created with parents) and/or stdout.
func OpenLogger(level, file string, console bool) (*Logger, error) {
	var writers []io.Writer
	var f *os.File
	if file != "" {
		if dir := filepath.Dir(file); dir != "." && dir != "" {
			if err := os.MkdirAll(dir, 0o755); err != nil {
				return nil, fmt.Errorf("create log directory: %w", err)
			}
		}
		var err error
		f, err = os.OpenFile(file, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			return nil, fmt.Errorf("open log file: %w", err)
		}
		writers = append(writers, f)
	}
	if console || len(writers) == 0 {
		writers = append(writers, os.Stdout)
	}
	return &Logger{level: ParseLevel(level), out: log.New(io.MultiWriter(writers...), "", 0), file: f}, nil
}

func ParseLevel(s string) Level {
	switch strings.ToLower(strings.TrimSpace(s)) {
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

func (l *Logger) logf(level Level, format string, args ...any) {
	if l == nil || l.out == nil || level < l.level {
		return
	}
	ts := time.Now().Format("2006-01-02 15:04:05")
	l.out.Printf("[%s] [%s] %s", ts, level, fmt.Sprintf(format, args...))
}

func (l *Logger) Debugf(format string, args ...any) { l.logf(LevelDebug, format, args...) }

// Printf logs at info level.
func (l *Logger) Printf(format string, args ...any) { l.logf(LevelInfo, format, args...) }

func (l *Logger) Warnf(format string, args ...any) { l.logf(LevelWarn, format, args...) }

func (l *Logger) Errorf(format string, args ...any) { l.logf(LevelError, format, args...) }

func (l *Logger) Close() error {
	if l == nil || l.file == nil {
		return nil
	}
	return l.file.Close()
}

func NowUTC() time.Time {
	return time.Now().UTC()
}
