package main

import (
	"log"
	"os"
	"strings"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Logger provides structured logging functionality
type Logger struct {
	sugar *zap.SugaredLogger
}

// NewLogger creates a new logger instance.
// The level comes from LOG_LEVEL (default: info); DEBUG_LOGGING=true forces debug.
func NewLogger() *Logger {
	return NewLoggerWithLevel(resolveLogLevel(os.Getenv("LOG_LEVEL"), os.Getenv("DEBUG_LOGGING") == "true"))
}

// resolveLogLevel applies the DEBUG_LOGGING override to a configured level.
func resolveLogLevel(level string, debug bool) string {
	if debug {
		return "debug"
	}
	return level
}

// NewLoggerWithLevel creates a JSON logger at the given level.
// Unknown levels fall back to info.
func NewLoggerWithLevel(level string) *Logger {
	cfg := zap.NewProductionConfig()
	cfg.Level = zap.NewAtomicLevelAt(parseLevel(level))
	cfg.EncoderConfig.TimeKey = "timestamp"
	cfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder

	z, err := cfg.Build()
	if err != nil {
		log.Printf("[ERROR] failed to build zap logger, falling back to stderr logger: %v", err)
		z = zap.NewExample()
	}
	return NewLoggerFromZap(z)
}

// NewLoggerFromZap wraps an existing zap logger.
func NewLoggerFromZap(z *zap.Logger) *Logger {
	return &Logger{sugar: z.Sugar()}
}

func parseLevel(level string) zapcore.Level {
	var l zapcore.Level
	if err := l.UnmarshalText([]byte(strings.ToLower(strings.TrimSpace(level)))); err != nil {
		return zapcore.InfoLevel
	}
	return l
}

// With returns a child logger carrying the given key/value pairs.
func (l *Logger) With(keysAndValues ...any) *Logger {
	return &Logger{sugar: l.sugar.With(keysAndValues...)}
}

// Debugf logs a debug message
func (l *Logger) Debugf(format string, v ...any) {
	l.sugar.Debugf(format, v...)
}

// Infof logs an info message
func (l *Logger) Infof(format string, v ...any) {
	l.sugar.Infof(format, v...)
}

// Warnf logs a warning message
func (l *Logger) Warnf(format string, v ...any) {
	l.sugar.Warnf(format, v...)
}

// Errorf logs an error message. Production loggers attach a stack trace.
func (l *Logger) Errorf(format string, v ...any) {
	l.sugar.Errorf(format, v...)
}

// Sync flushes buffered log entries.
func (l *Logger) Sync() {
	_ = l.sugar.Sync()
}
