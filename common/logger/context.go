package logger

import "context"

type contextKey string

const logFieldsKey contextKey = "log_fields"

// LogFields contains structured fields automatically added to all logs within
// a context. Fields flow through context enrichment so business context
// (room_id, message_id, etc.) shows up in every log statement without being
// threaded through each call site.
type LogFields struct {
	RoomID    *string // Room (conversation) id
	MessageID *string // Canonical or local message id
	ClientID  *string // Session owner (participant) id
	RequestID *string // Review request id being evaluated
	Backend   *string // Realtime backend name ("redis", "nats")
	Component string  // Component name, e.g. "engine.realtime.redis"
}

// WithLogFields enriches context with structured log fields.
// Multiple calls merge fields, with newer non-nil/non-empty values taking
// precedence. Context timeouts and cancellation are preserved.
func WithLogFields(ctx context.Context, fields LogFields) context.Context {
	existing := GetLogFields(ctx)
	merged := mergeFields(existing, fields)
	return context.WithValue(ctx, logFieldsKey, merged)
}

// GetLogFields retrieves log fields from context.
// Returns empty LogFields if none are set.
func GetLogFields(ctx context.Context) LogFields {
	if fields, ok := ctx.Value(logFieldsKey).(LogFields); ok {
		return fields
	}
	return LogFields{}
}

func mergeFields(existing, next LogFields) LogFields {
	result := existing

	if next.RoomID != nil {
		result.RoomID = next.RoomID
	}
	if next.MessageID != nil {
		result.MessageID = next.MessageID
	}
	if next.ClientID != nil {
		result.ClientID = next.ClientID
	}
	if next.RequestID != nil {
		result.RequestID = next.RequestID
	}
	if next.Backend != nil {
		result.Backend = next.Backend
	}
	if next.Component != "" {
		result.Component = next.Component
	}

	return result
}

// Ptr is a helper to create a pointer from a value, for setting LogFields
// inline: logger.WithLogFields(ctx, logger.LogFields{RoomID: logger.Ptr(id)})
func Ptr[T any](v T) *T {
	return &v
}

// Truncate truncates a string to maxLen characters, appending "..." if
// truncated. Useful for logging message bodies.
func Truncate(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen] + "..."
}
