// Package entitycache provides the generic cached data-access layer for API
// entities: one Store per entity type, produced from a small configuration
// struct, giving that entity a paginated list reader, a single-item reader,
// and a create/update/delete mutation set with optimistic cache updates.
//
// # Reads
//
// List and Get serve the cached value when one is present and fresh,
// otherwise fetch from the API. Concurrent fetches for one key collapse into
// a single request. When a fetch fails but a cached value survives, the
// reader returns the value together with the error so callers can show
// last-known-good data next to a failure notice.
//
// Cache keys are composite (namespace, scope, normalized filters) and
// reconstructible: ListKey/ItemKey expose them so a prefetching component
// can warm the cache before a consumer mounts.
//
// # Mutations
//
// Update and Delete apply their effect to every matching cached entry
// synchronously, before the request is dispatched, so consumers see the
// change immediately. A snapshot of the prior state is captured first; if
// the request fails every touched entry is restored verbatim. Whether the
// request succeeds or fails, settlement marks the affected keys stale, and
// the next read reconciles with the server. Create skips the optimistic step
// and invalidates every tracked list key on success.
//
// A mutation invocation moves through: optimistic apply (under the store
// mutex, generation fence bumped) -> request in flight -> success
// (settle+invalidate) or failure (rollback+settle+invalidate).
//
// # Races
//
// A read that was already in flight when a mutation began cannot be aborted
// mid-request. Instead of cancelling, the store fences write-backs: a fetch
// result is discarded when any mutation started after the fetch did, so
// stale reads never clobber optimistic state. Two concurrent mutations on
// one id are not serialized against each other; the settlement-triggered
// refetch is authoritative.
package entitycache
