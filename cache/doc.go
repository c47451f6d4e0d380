// Package cache provides the caching interfaces and key derivation used by
// the entity store layer.
//
// # Overview
//
// Two concerns live here:
//
//   - Service: a narrow key-value cache API (read-through fetch, peek, set,
//     delete, prefix invalidation) implemented by pluggable backends
//   - KeyCodec: derives stable composite cache keys from an entity
//     namespace, a scoping context, and a normalized filter set
//
// The cache is shared mutable state scoped to the running process. It is
// never mutated directly by consumers; every write goes through the Service
// methods, which the backends make safe for concurrent use.
//
// # Keys
//
// List keys have the shape
//
//	monitors::list::proj-1::limit=10,page=1,status=active
//
// and item keys
//
//	monitors::item::mon-42
//
// Filter normalization makes key identity structural: nil values are
// stripped and map ordering is irrelevant, so two callers describing the
// same filters always land on the same entry. Oversized filter segments are
// compacted to an xxhash digest.
//
// # Backends
//
// NewService builds the default sturdyc-backed service: sharded storage,
// TTL-based freshness, percentage-based eviction when capacity is reached,
// and optional early refresh of hot entries. NewLRUService builds a simpler
// size-bounded LRU with a fixed TTL for embedders that do not want the
// sturdyc machinery.
//
// # Typed access
//
// Service stores values as `any`. The package-level generics recover
// concrete types:
//
//	page, err := cache.GetOrFetch(ctx, svc, key, func(ctx context.Context) (Page, error) {
//		return fetchPage(ctx)
//	})
package cache
