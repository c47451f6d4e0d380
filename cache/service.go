package cache

import (
	"context"

	"github.com/pkg/errors"
)

// ErrInvalidResultType is returned by the typed helpers when a cached value
// does not match the type the caller asked for. This usually means two
// different value types were stored under the same key.
var ErrInvalidResultType = errors.New("cache: cached value has unexpected type")

// FetchFn is the function signature the typed helpers expect when fetching
// from the source of truth on a miss.
type FetchFn[T any] func(ctx context.Context) (T, error)

// Service is the narrow cache API every backend adapter implements. Values
// are stored as `any`; the typed package-level helpers recover the concrete
// type for callers.
//
// Peek and Set exist so that callers can snapshot and restore entries around
// optimistic mutations without triggering a fetch.
type Service interface {
	// GetOrFetch returns the cached value for key, or runs fetchFn, stores
	// the result, and returns it.
	GetOrFetch(ctx context.Context, key string, fetchFn func(ctx context.Context) (any, error)) (any, error)

	// Peek returns the cached value for key without fetching on a miss.
	Peek(ctx context.Context, key string) (any, bool)

	// Set writes a value for key, replacing any existing entry.
	Set(ctx context.Context, key string, value any) error

	// Delete removes the entry for key, marking it invalidated. The next
	// read for the key goes to the source of truth.
	Delete(ctx context.Context, key string) error

	// DeleteByPrefix removes every entry whose key starts with prefix.
	DeleteByPrefix(ctx context.Context, prefix string) error

	// Keys returns the keys of live entries that start with prefix.
	Keys(ctx context.Context, prefix string) []string
}

// GetOrFetch is the type-safe read-through wrapper over Service.
func GetOrFetch[T any](ctx context.Context, service Service, key string, fetchFn FetchFn[T]) (T, error) {
	var zero T
	result, err := service.GetOrFetch(ctx, key, func(ctx context.Context) (any, error) {
		return fetchFn(ctx)
	})
	if err != nil {
		return zero, err
	}
	if result == nil {
		return zero, nil
	}
	typed, ok := result.(T)
	if !ok {
		return zero, errors.Wrapf(ErrInvalidResultType, "key %q holds %T", key, result)
	}
	return typed, nil
}

// Peek is the type-safe variant of Service.Peek. A cached value of the wrong
// type reports a miss rather than an error; the caller will refetch and the
// entry heals.
func Peek[T any](ctx context.Context, service Service, key string) (T, bool) {
	var zero T
	v, ok := service.Peek(ctx, key)
	if !ok || v == nil {
		return zero, false
	}
	typed, ok := v.(T)
	if !ok {
		return zero, false
	}
	return typed, true
}
