package logger

import (
	"context"

	"go.uber.org/zap"
)

type ctxKey int

const (
	requestIDKey ctxKey = iota
	fieldsKey
)

func WithRequestID(ctx context.Context, requestID string) context.Context {
	return context.WithValue(ctx, requestIDKey, requestID)
}

func RequestIDFrom(ctx context.Context) string {
	if v, ok := ctx.Value(requestIDKey).(string); ok {
		return v
	}
	return ""
}

// WithFields attaches fields that FromCtx adds to every line logged for ctx.
func WithFields(ctx context.Context, fields ...zap.Field) context.Context {
	prev := fieldsFrom(ctx)
	merged := make([]zap.Field, 0, len(prev)+len(fields))
	merged = append(merged, prev...)
	merged = append(merged, fields...)
	return context.WithValue(ctx, fieldsKey, merged)
}

func fieldsFrom(ctx context.Context) []zap.Field {
	if v, ok := ctx.Value(fieldsKey).([]zap.Field); ok {
		return v
	}
	return nil
}

// FromCtx returns the global logger tagged with the request id and any
// fields attached to ctx.
func FromCtx(ctx context.Context) *zap.Logger {
	attached := fieldsFrom(ctx)
	fields := make([]zap.Field, 0, len(attached)+1)
	if reqID := RequestIDFrom(ctx); reqID != "" {
		fields = append(fields, zap.String("request_id", reqID))
	}
	fields = append(fields, attached...)

	if len(fields) == 0 {
		return L()
	}
	return L().With(fields...)
}
