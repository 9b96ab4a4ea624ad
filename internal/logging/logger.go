// Package logging provides structured logging for teamtrack with consistent
// formatting and context support. It wraps zap's sugared logger behind a small
// leveled API with key-value pairs, plus a package-level default logger.
package logging

import (
	"fmt"
	"io"
	"os"
	"sort"
	"strings"
	"sync"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Level represents a log level.
type Level int

const (
	// LevelDebug is for verbose debugging information.
	LevelDebug Level = iota
	// LevelInfo is for general informational messages.
	LevelInfo
	// LevelWarn is for recoverable errors and warnings.
	LevelWarn
	// LevelError is for significant errors that may impact functionality.
	LevelError
)

// Output formats.
const (
	FormatConsole = "console"
	FormatJSON    = "json"
)

var levelNames = map[Level]string{
	LevelDebug: "debug",
	LevelInfo:  "info",
	LevelWarn:  "warn",
	LevelError: "error",
}

// String returns the lower-case level name.
func (l Level) String() string {
	if name, ok := levelNames[l]; ok {
		return name
	}
	return "unknown"
}

// ParseLevel converts a level name to a Level.
func ParseLevel(s string) (Level, error) {
	name := strings.ToLower(strings.TrimSpace(s))
	for level, n := range levelNames {
		if n == name {
			return level, nil
		}
	}
	if name == "warning" {
		return LevelWarn, nil
	}
	return LevelWarn, fmt.Errorf("unknown log level %q", s)
}

func (l Level) zapLevel() zapcore.Level {
	switch l {
	case LevelDebug:
		return zapcore.DebugLevel
	case LevelInfo:
		return zapcore.InfoLevel
	case LevelError:
		return zapcore.ErrorLevel
	default:
		return zapcore.WarnLevel
	}
}

// Logger provides structured logging with context.
type Logger struct {
	mu     sync.RWMutex
	level  zap.AtomicLevel
	format string
	fields []interface{}
	sugar  *zap.SugaredLogger
}

var (
	// defaultLogger is the package-level logger.
	defaultLogger = New()
)

// New creates a Logger writing console output to stderr at warn level.
func New() *Logger {
	return NewWithWriter(os.Stderr, FormatConsole)
}

// NewWithWriter creates a Logger writing to w in the given format.
func NewWithWriter(w io.Writer, format string) *Logger {
	l := &Logger{
		level:  zap.NewAtomicLevelAt(zapcore.WarnLevel),
		format: format,
	}
	l.sugar = l.build(w)
	return l
}

func (l *Logger) build(w io.Writer) *zap.SugaredLogger {
	encCfg := zap.NewProductionEncoderConfig()
	encCfg.TimeKey = "time"
	encCfg.EncodeTime = zapcore.ISO8601TimeEncoder
	encCfg.EncodeLevel = zapcore.CapitalLevelEncoder

	var enc zapcore.Encoder
	if l.format == FormatJSON {
		enc = zapcore.NewJSONEncoder(encCfg)
	} else {
		enc = zapcore.NewConsoleEncoder(encCfg)
	}

	core := zapcore.NewCore(enc, zapcore.AddSync(w), l.level)
	return zap.New(core).Sugar().With(l.fields...)
}

// SetLevel sets the minimum log level. Loggers derived with With share it.
func (l *Logger) SetLevel(level Level) {
	l.level.SetLevel(level.zapLevel())
}

// SetOutput redirects this logger to w.
func (l *Logger) SetOutput(w io.Writer) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.sugar = l.build(w)
}

// With returns a new Logger with an additional context field.
func (l *Logger) With(key string, value interface{}) *Logger {
	return l.WithFields(map[string]interface{}{key: value})
}

// WithFields returns a new Logger with multiple additional context fields.
func (l *Logger) WithFields(fields map[string]interface{}) *Logger {
	keys := make([]string, 0, len(fields))
	for k := range fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	kv := make([]interface{}, 0, len(keys)*2)
	for _, k := range keys {
		kv = append(kv, k, fields[k])
	}

	l.mu.RLock()
	defer l.mu.RUnlock()

	return &Logger{
		level:  l.level,
		format: l.format,
		fields: append(append([]interface{}(nil), l.fields...), kv...),
		sugar:  l.sugar.With(kv...),
	}
}

func (l *Logger) logger() *zap.SugaredLogger {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.sugar
}

// Debug logs at debug level.
func (l *Logger) Debug(msg string, keyVals ...interface{}) {
	l.logger().Debugw(msg, keyVals...)
}

// Info logs at info level.
func (l *Logger) Info(msg string, keyVals ...interface{}) {
	l.logger().Infow(msg, keyVals...)
}

// Warn logs at warn level (for recoverable errors).
func (l *Logger) Warn(msg string, keyVals ...interface{}) {
	l.logger().Warnw(msg, keyVals...)
}

// Error logs at error level (for significant errors).
func (l *Logger) Error(msg string, keyVals ...interface{}) {
	l.logger().Errorw(msg, keyVals...)
}

// Sync flushes buffered entries.
func (l *Logger) Sync() error {
	return l.logger().Sync()
}

// Package-level functions that use the default logger.

// Default returns the package-level logger.
func Default() *Logger {
	return defaultLogger
}

// SetLevel sets the minimum log level for the default logger.
func SetLevel(level Level) {
	defaultLogger.SetLevel(level)
}

// SetOutput sets the output for the default logger.
func SetOutput(w io.Writer) {
	defaultLogger.SetOutput(w)
}

// Configure replaces the default logger's format, output and level.
func Configure(w io.Writer, format string, level Level) {
	defaultLogger.mu.Lock()
	defaultLogger.format = format
	defaultLogger.sugar = defaultLogger.build(w)
	defaultLogger.mu.Unlock()
	defaultLogger.SetLevel(level)
}

// With returns a new Logger with additional context from the default logger.
func With(key string, value interface{}) *Logger {
	return defaultLogger.With(key, value)
}

// WithFields returns a new Logger with multiple additional context fields.
func WithFields(fields map[string]interface{}) *Logger {
	return defaultLogger.WithFields(fields)
}

// Debug logs at debug level using the default logger.
func Debug(msg string, keyVals ...interface{}) {
	defaultLogger.Debug(msg, keyVals...)
}

// Info logs at info level using the default logger.
func Info(msg string, keyVals ...interface{}) {
	defaultLogger.Info(msg, keyVals...)
}

// Warn logs at warn level using the default logger.
func Warn(msg string, keyVals ...interface{}) {
	defaultLogger.Warn(msg, keyVals...)
}

// Error logs at error level using the default logger.
func Error(msg string, keyVals ...interface{}) {
	defaultLogger.Error(msg, keyVals...)
}
