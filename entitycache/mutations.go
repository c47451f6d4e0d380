package entitycache

import (
	"context"
	"encoding/json"

	"github.com/pkg/errors"

	"github.com/statuskit/go-entity-cache/internal/httpapi"
)

// Patch is a partial update: JSON field names mapped to their new values.
// Patches are applied to cached entities with a shallow field merge.
type Patch map[string]any

// mutationContext is the transient snapshot of cache state captured before
// an optimistic mutation. It exists only to restore the prior state when the
// request fails and is discarded afterwards.
type mutationContext struct {
	snapshots map[string]any
}

// Create POSTs a new entity. The local cache holds no prediction of where
// the server will slot the new record, so instead of an optimistic insert
// every tracked list key is invalidated on success: whichever filtered view
// is active refetches and sees the new entity.
func (s *Store[T]) Create(ctx context.Context, payload any) (T, error) {
	var zero T

	var raw json.RawMessage
	if err := s.api.PostJSON(ctx, s.cfg.Endpoint, payload, &raw); err != nil {
		return zero, s.mutationError("create", err)
	}

	created, err := decodeItem[T](raw, s.cfg.ItemWrapper)
	if err != nil {
		return zero, err
	}

	s.invalidateLists(ctx)
	return created, nil
}

// Update PUTs a partial update to the entity and optimistically merges the
// patch into every cached list page containing the id and into the item
// entry, before the request is dispatched. On failure every touched entry is
// restored verbatim from its pre-mutation snapshot. Whatever the outcome,
// settlement invalidates the affected keys so the next read reconciles with
// the server's authoritative state.
//
// Two concurrent updates to one id may overwrite each other's optimistic
// state; the layer does not serialize them. The settlement refetch, not the
// optimistic apply, decides the final value.
func (s *Store[T]) Update(ctx context.Context, id string, patch Patch) (T, error) {
	var zero T
	if id == "" {
		return zero, ErrMissingID
	}

	itemKey := s.ItemKey(id)
	listKeys := s.trackedListKeys()

	s.mu.Lock()
	s.fence.Add(1)
	mc := s.snapshot(ctx, append(listKeys, itemKey))
	s.applyPatch(ctx, id, patch, listKeys, itemKey)
	s.mu.Unlock()

	var raw json.RawMessage
	if err := s.api.PutJSON(ctx, s.cfg.Endpoint+"/"+id, map[string]any(patch), &raw); err != nil {
		s.rollback(ctx, mc)
		s.settleItem(ctx, id)
		return zero, s.mutationError("update", err)
	}

	updated, err := decodeItem[T](raw, s.cfg.ItemWrapper)
	s.settleItem(ctx, id)
	if err != nil {
		return zero, err
	}
	return updated, nil
}

// Delete removes the entity. Every cached list page drops the entity
// optimistically, with the page's total decremented by exactly one and
// floored at zero, before the request is dispatched. Rollback and
// settlement follow the same discipline as Update.
func (s *Store[T]) Delete(ctx context.Context, id string) error {
	if id == "" {
		return ErrMissingID
	}

	itemKey := s.ItemKey(id)
	listKeys := s.trackedListKeys()

	s.mu.Lock()
	s.fence.Add(1)
	mc := s.snapshot(ctx, append(listKeys, itemKey))
	for _, key := range listKeys {
		if page, ok := s.peekPage(ctx, key); ok {
			_ = s.cache.Set(ctx, key, dropFromPage(page, id))
		}
	}
	_ = s.cache.Delete(ctx, itemKey)
	s.mu.Unlock()

	if err := s.api.Delete(ctx, s.cfg.Endpoint+"/"+id); err != nil {
		s.rollback(ctx, mc)
		s.invalidateLists(ctx)
		return s.mutationError("delete", err)
	}

	s.invalidateLists(ctx)
	s.registry.Delete(itemKey)
	s.stale.Delete(itemKey)
	return nil
}

// snapshot captures the current cached value of every key that holds one.
// Caller holds s.mu.
func (s *Store[T]) snapshot(ctx context.Context, keys []string) *mutationContext {
	mc := &mutationContext{snapshots: make(map[string]any, len(keys))}
	for _, key := range keys {
		if v, ok := s.cache.Peek(ctx, key); ok {
			mc.snapshots[key] = v
		}
	}
	return mc
}

// rollback restores every captured snapshot verbatim and bumps the fence so
// a fetch racing the rollback cannot resurrect the discarded state.
func (s *Store[T]) rollback(ctx context.Context, mc *mutationContext) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.fence.Add(1)
	for key, value := range mc.snapshots {
		_ = s.cache.Set(ctx, key, value)
	}
}

// applyPatch merges the patch into every cached entry for the id. Caller
// holds s.mu. The merge builds replacement values; snapshots taken before
// the apply stay untouched.
func (s *Store[T]) applyPatch(ctx context.Context, id string, patch Patch, listKeys []string, itemKey string) {
	for _, key := range listKeys {
		if page, ok := s.peekPage(ctx, key); ok {
			if patched, touched := patchPage(page, id, patch); touched {
				_ = s.cache.Set(ctx, key, patched)
			}
		}
	}
	if item, ok := s.peekItem(ctx, itemKey); ok {
		_ = s.cache.Set(ctx, itemKey, mergePatch(item, patch))
	}
}

// settleItem invalidates the list and item caches for the id. Runs after
// every update settlement, success or failure.
func (s *Store[T]) settleItem(ctx context.Context, id string) {
	s.settle(append(s.trackedListKeys(), s.ItemKey(id)))
}

// invalidateLists marks every tracked list key for the namespace stale,
// forcing a refetch across all active filter combinations.
func (s *Store[T]) invalidateLists(_ context.Context) {
	s.settle(s.trackedListKeys())
}

// settle marks keys stale and bumps the fence under the mutex. The bump
// drops the write-back of any fetch dispatched before settlement; without it
// such a fetch could land afterwards, overwrite the settled entry with
// pre-mutation server data, and clear the stale mark. Invalidation marks the
// keys stale rather than dropping their data: the next read refetches, while
// the current data stays available as a fallback.
func (s *Store[T]) settle(keys []string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.fence.Add(1)
	for _, key := range keys {
		s.invalidate(key)
	}
}

func (s *Store[T]) peekPage(ctx context.Context, key string) (Page[T], bool) {
	v, ok := s.cache.Peek(ctx, key)
	if !ok {
		return Page[T]{}, false
	}
	page, ok := v.(Page[T])
	return page, ok
}

func (s *Store[T]) peekItem(ctx context.Context, key string) (T, bool) {
	var zero T
	v, ok := s.cache.Peek(ctx, key)
	if !ok {
		return zero, false
	}
	item, ok := v.(T)
	return item, ok
}

// mutationError shapes a failed mutation's error: the server's own message
// when it sent one, otherwise a "failed to {verb}" wrapper. Transport errors
// pass through untouched.
func (s *Store[T]) mutationError(verb string, err error) error {
	if se, ok := httpapi.AsStatusError(err); ok && !se.HasServerMessage() {
		return errors.Wrapf(err, "failed to %s %s", verb, s.cfg.Namespace)
	}
	return err
}

// patchPage returns a copy of the page with the patch merged into every
// entity matching the id. The input page is left untouched.
func patchPage[T Identifiable](page Page[T], id string, patch Patch) (Page[T], bool) {
	touched := false
	items := make([]T, len(page.Items))
	copy(items, page.Items)
	for i, item := range items {
		if item.EntityID() == id {
			items[i] = mergePatch(item, patch)
			touched = true
		}
	}
	page.Items = items
	return page, touched
}

// dropFromPage returns a copy of the page without the entity, its total
// decremented by one and floored at zero. The decrement applies whether or
// not this particular page held the entity: a filtered page may not show a
// record that still counts toward its total.
func dropFromPage[T Identifiable](page Page[T], id string) Page[T] {
	items := make([]T, 0, len(page.Items))
	for _, item := range page.Items {
		if item.EntityID() != id {
			items = append(items, item)
		}
	}
	page.Items = items
	if page.Pagination.Total > 0 {
		page.Pagination.Total--
	}
	return page
}

// mergePatch shallow-merges a patch into an entity by JSON field name and
// returns the replacement value. Unknown patch fields are dropped by the
// final decode; the original entity is never modified.
func mergePatch[T any](entity T, patch Patch) T {
	encoded, err := json.Marshal(entity)
	if err != nil {
		return entity
	}
	var fields map[string]any
	if err := json.Unmarshal(encoded, &fields); err != nil {
		return entity
	}
	for k, v := range patch {
		fields[k] = v
	}
	merged, err := json.Marshal(fields)
	if err != nil {
		return entity
	}
	out := entity
	if err := json.Unmarshal(merged, &out); err != nil {
		return entity
	}
	return out
}
