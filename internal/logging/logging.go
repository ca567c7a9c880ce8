// Package logging provides structured logging using Go's slog package.
//
// The corpus loader, the visitors, the update tool and the HTTP layer all log
// through the package-level logger configured by Init. Event helpers give the
// recurring events (extraction, snapshot update, websocket, security) a fixed
// message and field set so they can be filtered reliably.
package logging

import (
	"context"
	"io"
	"log/slog"
	"os"
	"strings"
	"sync/atomic"
	"time"
)

// ContextKey is a type for context keys to avoid collisions.
type ContextKey string

const (
	// RequestIDKey is the context key for request IDs.
	RequestIDKey ContextKey = "request_id"
)

var logger atomic.Pointer[slog.Logger]

func init() {
	Init(Config{Level: LevelInfo})
}

// Level represents a log level.
type Level int

const (
	LevelDebug Level = iota
	LevelInfo
	LevelWarn
	LevelError
)

var levelNames = map[string]Level{
	"debug":   LevelDebug,
	"info":    LevelInfo,
	"":        LevelInfo,
	"warn":    LevelWarn,
	"warning": LevelWarn,
	"error":   LevelError,
}

// ParseLevel parses a level name such as "debug" or "WARN".
func ParseLevel(s string) (Level, bool) {
	l, ok := levelNames[strings.ToLower(strings.TrimSpace(s))]
	if !ok {
		return LevelInfo, false
	}
	return l, true
}

func (l Level) slogLevel() slog.Level {
	switch l {
	case LevelDebug:
		return slog.LevelDebug
	case LevelWarn:
		return slog.LevelWarn
	case LevelError:
		return slog.LevelError
	}
	return slog.LevelInfo
}

// Format represents a log output format.
type Format int

const (
	// FormatJSON writes one JSON object per line.
	FormatJSON Format = iota
	// FormatText writes key=value pairs.
	FormatText
)

// ParseFormat parses "json" or "text".
func ParseFormat(s string) (Format, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "json", "":
		return FormatJSON, true
	case "text":
		return FormatText, true
	}
	return FormatJSON, false
}

// Config configures the package logger.
type Config struct {
	Level  Level
	Format Format

	// Output defaults to stderr so stdout carries only command output.
	Output    io.Writer
	AddSource bool
}

// New builds a logger from cfg without installing it.
func New(cfg Config) *slog.Logger {
	w := cfg.Output
	if w == nil {
		w = os.Stderr
	}
	opts := &slog.HandlerOptions{
		Level:     cfg.Level.slogLevel(),
		AddSource: cfg.AddSource,
		ReplaceAttr: func(groups []string, a slog.Attr) slog.Attr {
			if a.Key == slog.TimeKey && len(groups) == 0 {
				return slog.String(slog.TimeKey, a.Value.Time().UTC().Format(time.RFC3339))
			}
			return a
		},
	}
	if cfg.Format == FormatText {
		return slog.New(slog.NewTextHandler(w, opts))
	}
	return slog.New(slog.NewJSONHandler(w, opts))
}

// Init installs a logger built from cfg as the package and slog default.
func Init(cfg Config) {
	l := New(cfg)
	logger.Store(l)
	slog.SetDefault(l)
}

// GetLogger returns the package logger.
func GetLogger() *slog.Logger {
	return logger.Load()
}

// WithRequestID adds a request ID to the context.
func WithRequestID(ctx context.Context, requestID string) context.Context {
	return context.WithValue(ctx, RequestIDKey, requestID)
}

// GetRequestID retrieves the request ID from the context.
func GetRequestID(ctx context.Context) string {
	if requestID, ok := ctx.Value(RequestIDKey).(string); ok {
		return requestID
	}
	return ""
}

// LoggerFromContext returns the package logger with the request ID of ctx
// attached, if any.
func LoggerFromContext(ctx context.Context) *slog.Logger {
	l := GetLogger()
	if requestID := GetRequestID(ctx); requestID != "" {
		l = l.With("request_id", requestID)
	}
	return l
}

func Debug(msg string, args ...any) { GetLogger().Debug(msg, args...) }
func Info(msg string, args ...any)  { GetLogger().Info(msg, args...) }
func Warn(msg string, args ...any)  { GetLogger().Warn(msg, args...) }
func Error(msg string, args ...any) { GetLogger().Error(msg, args...) }

func DebugContext(ctx context.Context, msg string, args ...any) {
	LoggerFromContext(ctx).DebugContext(ctx, msg, args...)
}

func InfoContext(ctx context.Context, msg string, args ...any) {
	LoggerFromContext(ctx).InfoContext(ctx, msg, args...)
}

func WarnContext(ctx context.Context, msg string, args ...any) {
	LoggerFromContext(ctx).WarnContext(ctx, msg, args...)
}

func ErrorContext(ctx context.Context, msg string, args ...any) {
	LoggerFromContext(ctx).ErrorContext(ctx, msg, args...)
}

// event logs msg with the fixed fields first and the caller's after them.
func event(ctx context.Context, level slog.Level, msg string, fields []any, args []any) {
	LoggerFromContext(ctx).Log(ctx, level, msg, append(fields, args...)...)
}

// HTTPRequest logs one served request.
func HTTPRequest(ctx context.Context, method, path string, status int, duration time.Duration, args ...any) {
	level := slog.LevelInfo
	if status >= 500 {
		level = slog.LevelError
	}
	event(ctx, level, "http_request", []any{
		"method", method,
		"path", path,
		"status_code", status,
		"duration_ms", duration.Milliseconds(),
	}, args)
}

// ExtractionEvent logs a completed parse of one work.
func ExtractionEvent(work string, records int, duration time.Duration, args ...any) {
	event(context.Background(), slog.LevelInfo, "extraction", []any{
		"work", work,
		"records", records,
		"duration_ms", duration.Milliseconds(),
	}, args)
}

// ExtractionError logs a failed parse of one work.
func ExtractionError(work string, err error, args ...any) {
	event(context.Background(), slog.LevelError, "extraction_error", []any{
		"work", work,
		"error", err.Error(),
	}, args)
}

// UpdateEvent logs the outcome of a snapshot update for one work.
func UpdateEvent(work, status string, args ...any) {
	event(context.Background(), slog.LevelInfo, "snapshot_update", []any{
		"work", work,
		"status", status,
	}, args)
}

// WebSocketEvent logs a client connecting or leaving.
func WebSocketEvent(name string, clientCount int, args ...any) {
	event(context.Background(), slog.LevelInfo, "websocket_event", []any{
		"event", name,
		"client_count", clientCount,
	}, args)
}

// ServerStartup logs that a server is listening.
func ServerStartup(serverType, protocol string, port int, args ...any) {
	event(context.Background(), slog.LevelInfo, "server_startup", []any{
		"server_type", serverType,
		"protocol", protocol,
		"port", port,
	}, args)
}

// SecurityEvent logs a rejected or suspicious request.
func SecurityEvent(name, component string, args ...any) {
	event(context.Background(), slog.LevelWarn, "security_event", []any{
		"event", name,
		"component", component,
	}, args)
}
