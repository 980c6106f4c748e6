// Package logging is the leveled logger shared by the decoders. Lines are
// written as "[LEVEL] message" after a UTC timestamp, or as one JSON object
// per line when the format is FormatJSON.
package logging

import (
	"encoding/json"
	"fmt"
	"io"
	"log"
	"os"
	"strings"
	"sync"
	"time"
)

// Level represents log severity levels
type Level int

const (
	LevelDebug Level = iota
	LevelInfo
	LevelWarn
	LevelError
)

func (lv Level) String() string {
	switch lv {
	case LevelDebug:
		return "DEBUG"
	case LevelInfo:
		return "INFO"
	case LevelWarn:
		return "WARN"
	case LevelError:
		return "ERROR"
	}
	return fmt.Sprintf("LEVEL(%d)", int(lv))
}

// ParseLevel maps a level name to its Level. Unknown names yield LevelInfo.
func ParseLevel(name string) Level {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "debug":
		return LevelDebug
	case "warn", "warning":
		return LevelWarn
	case "error":
		return LevelError
	}
	return LevelInfo
}

// Format selects how lines are rendered.
type Format int

const (
	FormatText Format = iota
	FormatJSON
)

// ParseFormat maps "json" to FormatJSON and anything else to FormatText.
func ParseFormat(name string) Format {
	if strings.EqualFold(strings.TrimSpace(name), "json") {
		return FormatJSON
	}
	return FormatText
}

// Logger provides leveled logging. It is safe for concurrent use.
type Logger struct {
	mu     sync.Mutex
	level  Level
	format Format
	out    io.Writer
	text   *log.Logger
}

var (
	defaultLogger *Logger
	once          sync.Once
)

// New creates a logger writing to out at the given level
func New(out io.Writer, level Level) *Logger {
	l := &Logger{level: level}
	l.SetOutput(out)
	return l
}

// Default returns the process logger, writing to stderr at info level.
func Default() *Logger {
	once.Do(func() {
		defaultLogger = New(os.Stderr, LevelInfo)
	})
	return defaultLogger
}

// SetLevel sets the minimum level written.
func (l *Logger) SetLevel(level Level) {
	l.mu.Lock()
	l.level = level
	l.mu.Unlock()
}

// SetFormat sets the line format.
func (l *Logger) SetFormat(format Format) {
	l.mu.Lock()
	l.format = format
	l.mu.Unlock()
}

// SetOutput redirects log output.
func (l *Logger) SetOutput(out io.Writer) {
	l.mu.Lock()
	l.out = out
	l.text = log.New(out, "", log.LstdFlags|log.LUTC)
	l.mu.Unlock()
}

// Threshold returns the minimum level written.
func (l *Logger) Threshold() Level {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.level
}

// Enabled reports whether messages at level are written. Callers use it to
// skip building expensive arguments.
func (l *Logger) Enabled(level Level) bool {
	return level >= l.Threshold()
}

type jsonLine struct {
	Time  string `json:"time"`
	Level string `json:"level"`
	Msg   string `json:"msg"`
}

func (l *Logger) write(level Level, format string, args ...any) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if level < l.level {
		return
	}

	msg := fmt.Sprintf(format, args...)
	if l.format == FormatText {
		l.text.Printf("[%s] %s", level, msg)
		return
	}

	line, err := json.Marshal(jsonLine{
		Time:  time.Now().UTC().Format(time.RFC3339),
		Level: level.String(),
		Msg:   msg,
	})
	if err != nil {
		return
	}
	_, _ = l.out.Write(append(line, '\n'))
}

// Debug logs a debug message
func (l *Logger) Debug(format string, args ...any) { l.write(LevelDebug, format, args...) }

// Info logs an info message
func (l *Logger) Info(format string, args ...any) { l.write(LevelInfo, format, args...) }

// Warn logs a warning message
func (l *Logger) Warn(format string, args ...any) { l.write(LevelWarn, format, args...) }

// Error logs an error message
func (l *Logger) Error(format string, args ...any) { l.write(LevelError, format, args...) }

// Configure applies a level and format by name to the default logger.
func Configure(level, format string) {
	l := Default()
	l.SetLevel(ParseLevel(level))
	l.SetFormat(ParseFormat(format))
}

// Debug logs to the default logger.
func Debug(format string, args ...any) { Default().Debug(format, args...) }

// Warn logs to the default logger.
func Warn(format string, args ...any) { Default().Warn(format, args...) }
