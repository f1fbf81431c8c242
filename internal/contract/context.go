package contract

import "context"

// Context keys for report computation options
type contextKey string

const forcedRefreshKey contextKey = "forcedRefresh"

// WithForcedRefresh marks the context as belonging to an explicit refresh
func WithForcedRefresh(ctx context.Context) context.Context {
	return context.WithValue(ctx, forcedRefreshKey, true)
}

// IsForcedRefresh returns whether the computation was explicitly requested
func IsForcedRefresh(ctx context.Context) bool {
	val := ctx.Value(forcedRefreshKey)
	if val == nil {
		return false // default: ordinary cache miss
	}
	forced, ok := val.(bool)
	return ok && forced
}
