// Package shared holds the request context keys, JSON helpers and error
// responses used by every handler and middleware.
package shared

import (
	"context"
	"strings"

	"github.com/google/uuid"
)

// ContextKey is the type of the values this package stores in a request context.
type ContextKey string

const (
	// UsernameContextKey holds the authenticated learner's username
	UsernameContextKey ContextKey = "username"

	// TraceIDKey holds the request's trace ID
	TraceIDKey ContextKey = "traceID"
)

// SetTraceID adds a fresh trace ID to the context.
func SetTraceID(ctx context.Context) context.Context {
	return context.WithValue(ctx, TraceIDKey, newTraceID())
}

// GetTraceID returns the context's trace ID, or "" when none is set.
func GetTraceID(ctx context.Context) string {
	traceID, ok := ctx.Value(TraceIDKey).(string)
	if !ok {
		return ""
	}
	return traceID
}

// WithUsername stores the authenticated username in the context.
func WithUsername(ctx context.Context, username string) context.Context {
	return context.WithValue(ctx, UsernameContextKey, username)
}

// Username returns the authenticated username from the context.
func Username(ctx context.Context) (string, bool) {
	username, ok := ctx.Value(UsernameContextKey).(string)
	if !ok || username == "" {
		return "", false
	}
	return username, true
}

// newTraceID returns a random 32 character hex id.
func newTraceID() string {
	return strings.ReplaceAll(uuid.NewString(), "-", "")
}
