package entitycache

import "context"

type refreshContextKey struct{}

// WithRefresh marks the context so the next read bypasses the cached entry
// and fetches from the API. The fetched value replaces the cache entry as
// usual.
func WithRefresh(ctx context.Context) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	return context.WithValue(ctx, refreshContextKey{}, true)
}

func refreshRequested(ctx context.Context) bool {
	if ctx == nil {
		return false
	}
	v, _ := ctx.Value(refreshContextKey{}).(bool)
	return v
}
