package types

import "context"

type contextKey string

const (
	// ActionTrackIDKey is the context key for a pinned action track id.
	ActionTrackIDKey contextKey = "actionTrackID"
)

// WithActionTrackID returns a new context carrying a fixed action track id.
// Watch requests generate a fresh id per call unless one is pinned this way.
func WithActionTrackID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, ActionTrackIDKey, id)
}

// ActionTrackIDFromContext returns the pinned action track id, if any.
func ActionTrackIDFromContext(ctx context.Context) (string, bool) {
	id, ok := ctx.Value(ActionTrackIDKey).(string)
	return id, ok
}
