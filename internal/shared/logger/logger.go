package logger

import (
	"context"
	"os"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Logger wraps zap with the structured fields every log line carries:
// service, hostname, action, and the request id travelling in the context.
type Logger struct {
	zl *zap.Logger
}

// New creates a JSON logger for the given service name.
func New(service string) (*Logger, error) {
	hostname, err := os.Hostname()
	if err != nil {
		hostname = "unknown"
	}

	cfg := zap.NewProductionConfig()
	cfg.EncoderConfig.TimeKey = "timestamp"
	cfg.EncoderConfig.EncodeTime = zapcore.RFC3339TimeEncoder
	cfg.EncoderConfig.MessageKey = "message"

	zl, err := cfg.Build(zap.Fields(
		zap.String("service", service),
		zap.String("hostname", hostname),
	))
	if err != nil {
		return nil, err
	}

	return &Logger{zl: zl}, nil
}

// NewNop returns a logger that discards everything. Used in tests.
func NewNop() *Logger {
	return &Logger{zl: zap.NewNop()}
}

// Sync flushes buffered log entries.
func (logger *Logger) Sync() error {
	return logger.zl.Sync()
}

// ctxKey is an unexported type for context keys.
type ctxKey string

// requestIDKey is the context key for the request ID.
const requestIDKey ctxKey = "request_id"

// WithRequestID returns a context carrying a request id (useful across HTTP hops).
func (logger *Logger) WithRequestID(ctx context.Context, rid string) context.Context {
	return context.WithValue(ctx, requestIDKey, rid)
}

// requestIDFrom returns the request id saved in the context, if any.
func requestIDFrom(ctx context.Context) string {
	if v := ctx.Value(requestIDKey); v != nil {
		if s, ok := v.(string); ok {
			return s
		}
	}
	return ""
}

// fields assembles the per-entry zap fields.
func fields(ctx context.Context, action string, details map[string]any) []zap.Field {
	fs := make([]zap.Field, 0, len(details)+2)
	fs = append(fs, zap.String("action", action))
	if rid := requestIDFrom(ctx); rid != "" {
		fs = append(fs, zap.String("request_id", rid))
	}
	for k, v := range details {
		fs = append(fs, zap.Any(k, v))
	}
	return fs
}

func (logger *Logger) Info(ctx context.Context, action, msg string, details map[string]any) {
	logger.zl.Info(msg, fields(ctx, action, details)...)
}

func (logger *Logger) Debug(ctx context.Context, action, msg string, details map[string]any) {
	logger.zl.Debug(msg, fields(ctx, action, details)...)
}

func (logger *Logger) Warn(ctx context.Context, action, msg string, details map[string]any) {
	logger.zl.Warn(msg, fields(ctx, action, details)...)
}

func (logger *Logger) Error(ctx context.Context, action, msg string, err error) {
	logger.zl.Error(msg, append(fields(ctx, action, nil), zap.Error(err))...)
}
