package logger

import (
	"context"
	"log/slog"

	"github.com/google/uuid"
)

type contextKey string

const (
	requestIDKey     contextKey = "request_id"
	transactionIDKey contextKey = "transaction_id"
	sweepIDKey       contextKey = "sweep_id"
	loggerKey        contextKey = "logger"
)

// GenerateRequestID creates a new random request ID
func GenerateRequestID() string {
	return uuid.NewString()
}

// WithRequestID adds a request ID to the context
func WithRequestID(ctx context.Context, requestID string) context.Context {
	return context.WithValue(ctx, requestIDKey, requestID)
}

// RequestIDFromContext extracts the request ID from context
func RequestIDFromContext(ctx context.Context) string {
	return stringValue(ctx, requestIDKey)
}

// WithTransactionID scopes ctx to one ledger record. Loggers taken from the
// returned context carry a transaction_id field.
func WithTransactionID(ctx context.Context, id string) context.Context {
	ctx = context.WithValue(ctx, transactionIDKey, id)
	return WithLogger(ctx, FromContext(ctx).With(string(transactionIDKey), id))
}

// TransactionIDFromContext returns the ledger record ctx is scoped to, if any
func TransactionIDFromContext(ctx context.Context) string {
	return stringValue(ctx, transactionIDKey)
}

// WithSweepID scopes ctx to one recorded sweep run. Loggers taken from the
// returned context carry a sweep_id field.
func WithSweepID(ctx context.Context, id int64) context.Context {
	ctx = context.WithValue(ctx, sweepIDKey, id)
	return WithLogger(ctx, FromContext(ctx).With(string(sweepIDKey), id))
}

// SweepIDFromContext returns the sweep run ctx is scoped to, or 0
func SweepIDFromContext(ctx context.Context) int64 {
	id, _ := ctx.Value(sweepIDKey).(int64)
	return id
}

func stringValue(ctx context.Context, key contextKey) string {
	if v, ok := ctx.Value(key).(string); ok {
		return v
	}
	return ""
}

// WithLogger stores a logger instance in context
func WithLogger(ctx context.Context, l *slog.Logger) context.Context {
	return context.WithValue(ctx, loggerKey, l)
}

// FromContext returns the logger stored in ctx. Without one it falls back to
// the default logger tagged with the request ID, if any.
func FromContext(ctx context.Context) *slog.Logger {
	if l, ok := ctx.Value(loggerKey).(*slog.Logger); ok {
		return l
	}

	l := Default()
	if requestID := RequestIDFromContext(ctx); requestID != "" {
		l = l.With("request_id", requestID)
	}
	return l
}
