package logging

import (
	"context"
	"crypto/rand"
	"encoding/hex"
)

type contextKey struct{}

var loggerKey contextKey

// GenerateTraceID returns a random 32-character hex trace id.
func GenerateTraceID() string {
	b := make([]byte, 16)
	rand.Read(b)
	return hex.EncodeToString(b)
}

// NewContext returns a context carrying the logger. The bot attaches a
// trace-scoped logger at the start of each scan cycle so everything a cycle
// touches logs under the same trace id.
func NewContext(ctx context.Context, l *Logger) context.Context {
	return context.WithValue(ctx, loggerKey, l)
}

// FromContext returns the logger carried by ctx, or fallback when none is.
func FromContext(ctx context.Context, fallback *Logger) *Logger {
	if l, ok := ctx.Value(loggerKey).(*Logger); ok {
		return l
	}
	return fallback
}
