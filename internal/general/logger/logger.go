package logger

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"runtime/debug"
	"strings"
)

// Logger writes single-line JSON records keyed by an action name.
// Every record carries the service and hostname plus the ride/message
// identifiers found on the context.
type Logger struct {
	service  string
	hostname string
	base     *slog.Logger
}

// New creates a structured logger for the given service writing to stdout.
func New(service string) *Logger {
	return NewWithWriter(service, os.Stdout, slog.LevelDebug)
}

// NewWithWriter creates a logger writing JSON lines to w at the given minimum level.
func NewWithWriter(service string, w io.Writer, level slog.Level) *Logger {
	hn, err := os.Hostname()
	if err != nil || strings.TrimSpace(hn) == "" {
		hn = "unknown-hostname"
	}

	if strings.TrimSpace(service) == "" {
		service = "unknown-service"
	}

	h := slog.NewJSONHandler(w, &slog.HandlerOptions{
		Level: level,
		ReplaceAttr: func(_ []string, a slog.Attr) slog.Attr {
			switch a.Key {
			case slog.TimeKey:
				a.Key = "timestamp"
				a.Value = slog.StringValue(a.Value.Time().UTC().Format("2006-01-02T15:04:05.000Z07:00"))
			case slog.MessageKey:
				a.Key = "message"
			}
			return a
		},
	})

	return &Logger{
		service:  service,
		hostname: hn,
		base:     slog.New(h).With("service", service, "hostname", hn),
	}
}

// Discard returns a logger that drops everything. Used by tests.
func Discard() *Logger {
	return NewWithWriter("discard", io.Discard, slog.LevelError+4)
}

// Service returns the service name the logger was created with.
func (l *Logger) Service() string {
	return l.service
}

func (l *Logger) emit(ctx context.Context, level slog.Level, action, msg string, details any, err error) {
	if ctx == nil {
		ctx = context.Background()
	}
	if !l.base.Enabled(ctx, level) {
		return
	}

	attrs := make([]slog.Attr, 0, 6)
	attrs = append(attrs, slog.String("action", safeAction(action)))
	if id := requestID(ctx); id != "" {
		attrs = append(attrs, slog.String("request_id", id))
	}
	if id := rideID(ctx); id != "" {
		attrs = append(attrs, slog.String("ride_id", id))
	}
	if id := messageID(ctx); id != "" {
		attrs = append(attrs, slog.String("message_id", id))
	}
	if details != nil {
		attrs = append(attrs, slog.Any("details", details))
	}
	if err != nil {
		attrs = append(attrs, slog.Group("error",
			slog.String("msg", strings.TrimSpace(err.Error())),
			slog.String("stack", string(debug.Stack())),
		))
	}

	l.base.LogAttrs(ctx, level, strings.TrimSpace(msg), attrs...)
}

// Debug writes a DEBUG line with optional details.
func (l *Logger) Debug(ctx context.Context, action, msg string, details any) {
	l.emit(ctx, slog.LevelDebug, action, msg, details, nil)
}

// Info writes an INFO line with optional details.
func (l *Logger) Info(ctx context.Context, action, msg string, details any) {
	l.emit(ctx, slog.LevelInfo, action, msg, details, nil)
}

// Warn writes a WARN line with optional details.
func (l *Logger) Warn(ctx context.Context, action, msg string, details any) {
	l.emit(ctx, slog.LevelWarn, action, msg, details, nil)
}

// Error writes an ERROR line and attaches an error stack trace.
func (l *Logger) Error(ctx context.Context, action, msg string, err error, details any) {
	if err == nil {
		err = fmt.Errorf("unknown error")
	}
	l.emit(ctx, slog.LevelError, action, msg, details, err)
}

// ------------ Context helpers -------------

type ctxKey string

const (
	ctxKeyRequestID ctxKey = "ridehail_request_id"
	ctxKeyRideID    ctxKey = "ridehail_ride_id"
	ctxKeyMessageID ctxKey = "ridehail_message_id"
)

// WithRequestID returns a new context carrying request_id.
func (l *Logger) WithRequestID(ctx context.Context, reqID string) context.Context {
	return withValue(ctx, ctxKeyRequestID, reqID)
}

// WithRideID returns a new context carrying ride_id.
func (l *Logger) WithRideID(ctx context.Context, rideID string) context.Context {
	return withValue(ctx, ctxKeyRideID, rideID)
}

// WithMessageID returns a new context carrying message_id.
func (l *Logger) WithMessageID(ctx context.Context, msgID string) context.Context {
	return withValue(ctx, ctxKeyMessageID, msgID)
}

func withValue(ctx context.Context, key ctxKey, v string) context.Context {
	if strings.TrimSpace(v) == "" {
		return ctx
	}
	return context.WithValue(ctx, key, v)
}

func requestID(ctx context.Context) string { return stringValue(ctx, ctxKeyRequestID) }
func rideID(ctx context.Context) string    { return stringValue(ctx, ctxKeyRideID) }
func messageID(ctx context.Context) string { return stringValue(ctx, ctxKeyMessageID) }

// RideIDFrom extracts ride_id from ctx (if any).
func RideIDFrom(ctx context.Context) string {
	return rideID(ctx)
}

func stringValue(ctx context.Context, key ctxKey) string {
	if ctx == nil {
		return ""
	}
	if s, ok := ctx.Value(key).(string); ok {
		return s
	}
	return ""
}

func safeAction(a string) string {
	a = strings.TrimSpace(a)
	if a == "" {
		return "unspecified"
	}
	return a
}
