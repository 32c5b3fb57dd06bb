package logging

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"sort"
	"strings"
	"sync"
	"time"
)

// Level represents log severity
type Level int

const (
	LevelDebug Level = iota
	LevelInfo
	LevelWarn
	LevelError
)

// String returns the string representation of the level
func (l Level) String() string {
	switch l {
	case LevelDebug:
		return "debug"
	case LevelInfo:
		return "info"
	case LevelWarn:
		return "warn"
	case LevelError:
		return "error"
	default:
		return "unknown"
	}
}

// ParseLevel converts a string level to a Level, defaulting to info
func ParseLevel(level string) Level {
	switch strings.ToLower(level) {
	case "debug", "trace":
		return LevelDebug
	case "info":
		return LevelInfo
	case "warn", "warning":
		return LevelWarn
	case "error", "fatal":
		return LevelError
	default:
		return LevelInfo
	}
}

// Format is the output format for log entries
type Format int

const (
	FormatText Format = iota
	FormatJSON
)

// ParseFormat converts a string format name, defaulting to text
func ParseFormat(format string) Format {
	if strings.ToLower(format) == "json" {
		return FormatJSON
	}
	return FormatText
}

// Config holds logger configuration
type Config struct {
	Name   string
	Level  Level
	Format Format
	Output io.Writer
}

// Logger is a named structured logger. Fields are passed as alternating
// key/value pairs; non-string keys are skipped.
type Logger struct {
	mu     sync.Mutex
	name   string
	level  Level
	format Format
	output io.Writer
	now    func() time.Time
}

var (
	defaultMu     sync.RWMutex
	defaultLevel  = LevelInfo
	defaultFormat = FormatText
)

// SetDefaultLevel sets the level used by loggers created with New.
// Already-created loggers are unaffected.
func SetDefaultLevel(level Level) {
	defaultMu.Lock()
	defaultLevel = level
	defaultMu.Unlock()
}

// DefaultLevel returns the level used by loggers created with New
func DefaultLevel() Level {
	defaultMu.RLock()
	defer defaultMu.RUnlock()
	return defaultLevel
}

// SetDefaultFormat sets the output format used by loggers created
// with New. Already-created loggers are unaffected.
func SetDefaultFormat(format Format) {
	defaultMu.Lock()
	defaultFormat = format
	defaultMu.Unlock()
}

// DefaultFormat returns the format used by loggers created with New
func DefaultFormat() Format {
	defaultMu.RLock()
	defer defaultMu.RUnlock()
	return defaultFormat
}

// New creates a logger with the package default level and format
func New(name string) *Logger {
	return NewWithConfig(Config{Name: name, Level: DefaultLevel(), Format: DefaultFormat()})
}

// NewWithConfig creates a logger with the specified configuration
func NewWithConfig(cfg Config) *Logger {
	out := cfg.Output
	if out == nil {
		out = os.Stdout
	}
	return &Logger{
		name:   cfg.Name,
		level:  cfg.Level,
		format: cfg.Format,
		output: out,
		now:    time.Now,
	}
}

// WithLevel returns a copy of the logger with the specified level
func (l *Logger) WithLevel(level Level) *Logger {
	return &Logger{
		name:   l.name,
		level:  level,
		format: l.format,
		output: l.output,
		now:    l.now,
	}
}

// Name returns the logger name
func (l *Logger) Name() string {
	return l.name
}

// Debug logs a debug message
func (l *Logger) Debug(msg string, keysAndValues ...interface{}) {
	l.log(LevelDebug, msg, keysAndValues...)
}

// Info logs an info message
func (l *Logger) Info(msg string, keysAndValues ...interface{}) {
	l.log(LevelInfo, msg, keysAndValues...)
}

// Warn logs a warning message
func (l *Logger) Warn(msg string, keysAndValues ...interface{}) {
	l.log(LevelWarn, msg, keysAndValues...)
}

// Error logs an error message
func (l *Logger) Error(msg string, keysAndValues ...interface{}) {
	l.log(LevelError, msg, keysAndValues...)
}

func (l *Logger) log(level Level, msg string, keysAndValues ...interface{}) {
	if level < l.level {
		return
	}

	fields := toFields(keysAndValues...)
	ts := l.now().Format(time.RFC3339)

	var line string
	if l.format == FormatJSON {
		entry := map[string]interface{}{
			"time":    ts,
			"level":   level.String(),
			"logger":  l.name,
			"message": msg,
		}
		for k, v := range fields {
			entry[k] = normalize(v)
		}
		data, err := json.Marshal(entry)
		if err != nil {
			return
		}
		line = string(data)
	} else {
		var b strings.Builder
		fmt.Fprintf(&b, "%s %-5s [%s] %s", ts, strings.ToUpper(level.String()), l.name, msg)
		for _, k := range sortedKeys(fields) {
			fmt.Fprintf(&b, " %s=%v", k, normalize(fields[k]))
		}
		line = b.String()
	}

	l.mu.Lock()
	fmt.Fprintln(l.output, line)
	l.mu.Unlock()
}

func toFields(keysAndValues ...interface{}) map[string]interface{} {
	if len(keysAndValues) == 0 {
		return nil
	}
	fields := make(map[string]interface{}, len(keysAndValues)/2)
	for i := 0; i < len(keysAndValues)-1; i += 2 {
		key, ok := keysAndValues[i].(string)
		if !ok {
			continue
		}
		fields[key] = keysAndValues[i+1]
	}
	return fields
}

func normalize(v interface{}) interface{} {
	switch val := v.(type) {
	case error:
		return val.Error()
	case time.Duration:
		return val.String()
	case fmt.Stringer:
		return val.String()
	default:
		return v
	}
}

func sortedKeys(fields map[string]interface{}) []string {
	keys := make([]string, 0, len(fields))
	for k := range fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
