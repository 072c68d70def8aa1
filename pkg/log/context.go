package log

import (
	"context"

	"github.com/rs/xid"
)

type contextKey int

const (
	runIDKey contextKey = iota
	fieldsKey
)

// NewRunID returns a fresh, sortable run identifier.
func NewRunID() string {
	return xid.New().String()
}

// WithRunIDValue stores id as the context's run ID.
func WithRunIDValue(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, runIDKey, id)
}

// WithRunID ensures ctx carries a run ID, generating one when absent.
// Nested runs keep the outer ID so HTTP requests and the fetches they
// trigger log under the same identifier.
func WithRunID(ctx context.Context) context.Context {
	if RunIDFromContext(ctx) != "" {
		return ctx
	}
	return WithRunIDValue(ctx, NewRunID())
}

// RunIDFromContext extracts the run ID from context.
// Returns empty string if not found or context is nil.
func RunIDFromContext(ctx context.Context) string {
	if ctx == nil {
		return ""
	}
	id, _ := ctx.Value(runIDKey).(string)
	return id
}

// WithFields adds structured fields to the context.
// Fields are merged with any existing fields.
func WithFields(ctx context.Context, keysAndValues ...any) context.Context {
	existing := FieldsFromContext(ctx)
	fields := make(map[string]any, len(existing)+len(keysAndValues)/2)
	for k, v := range existing {
		fields[k] = v
	}
	for i := 0; i+1 < len(keysAndValues); i += 2 {
		if key, ok := keysAndValues[i].(string); ok {
			fields[key] = keysAndValues[i+1]
		}
	}
	return context.WithValue(ctx, fieldsKey, fields)
}

// FieldsFromContext extracts structured fields from context.
// Returns nil if no fields are set.
func FieldsFromContext(ctx context.Context) map[string]any {
	if ctx == nil {
		return nil
	}
	fields, _ := ctx.Value(fieldsKey).(map[string]any)
	return fields
}
