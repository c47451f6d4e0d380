package entitycache

import (
	"context"
	"encoding/json"
	"net/url"
	"reflect"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/pkg/errors"
	"github.com/puzpuzpuz/xsync/v3"
	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/singleflight"

	"github.com/statuskit/go-entity-cache/cache"
)

// ErrMissingID is returned by id-scoped operations called without an id.
var ErrMissingID = errors.New("entitycache: entity id is required")

// Identifiable is the constraint every cached entity satisfies: a record
// type with a unique identifier. Entities are immutable by replacement; the
// store never mutates a cached entity in place.
type Identifiable interface {
	EntityID() string
}

// API is the transport the store fetches from and mutates against. The
// production implementation is the internal JSON HTTP client; tests supply
// fakes.
type API interface {
	GetJSON(ctx context.Context, path string, query url.Values, out any) error
	PostJSON(ctx context.Context, path string, body, out any) error
	PutJSON(ctx context.Context, path string, body, out any) error
	Delete(ctx context.Context, path string) error
}

// StoreConfig is the per-entity configuration supplied at store construction
// time.
type StoreConfig struct {
	// Endpoint is the entity's collection path, e.g. "/api/monitors".
	Endpoint string

	// Namespace prefixes every cache key for this entity type. Empty
	// derives a snake_case namespace from the entity type name.
	Namespace string

	// ItemWrapper names the field that wraps single-item responses, e.g.
	// "job" when GET /jobs/{id} returns { "job": {...} }. Empty means the
	// response body is the entity itself.
	ItemWrapper string

	// ScopeParam is the query parameter that carries the scoping context of
	// list reads. Defaults to "projectId".
	ScopeParam string

	// FreshFor overrides the cache service's freshness window for this
	// store. Zero keeps the shared default. Honored by the di container,
	// which gives such a store a dedicated cache backend.
	FreshFor time.Duration
}

// Validate checks the configuration.
func (c StoreConfig) Validate() error {
	return validation.ValidateStruct(&c,
		validation.Field(&c.Endpoint, validation.Required),
	)
}

// Store is the cached data-access surface for one entity type: a paginated
// list reader, a single-item reader, and a create/update/delete mutation set
// with optimistic cache updates and rollback. All methods are safe for
// concurrent use.
type Store[T Identifiable] struct {
	cfg   StoreConfig
	api   API
	cache cache.Service
	keys  cache.KeyCodec

	// registry tracks every cache key this store has populated so that
	// invalidation and optimistic scans touch exactly the keys in use.
	registry *xsync.MapOf[string, struct{}]

	// inflight counts active fetches per key, backing the Loading state.
	inflight *xsync.MapOf[string, int]

	// stale holds keys invalidated by mutation settlement. A stale entry
	// keeps its data (readers may still serve it next to an error) but the
	// next read goes to the API. The mark clears on successful write-back.
	stale *xsync.MapOf[string, struct{}]

	// group collapses concurrent fetches for one key into a single request.
	group singleflight.Group

	// fence is bumped by every optimistic mutation. A fetch write-back is
	// dropped when the fence moved while the request was in flight, so a
	// slow read cannot clobber optimistic state with stale data.
	fence atomic.Uint64

	// mu serializes every optimistic cache transition (snapshot, apply,
	// rollback, fenced write-back) so no two cache mutations interleave.
	mu sync.Mutex
}

// New constructs a store from its configuration and collaborators.
func New[T Identifiable](cfg StoreConfig, api API, svc cache.Service, codec cache.KeyCodec) (*Store[T], error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if api == nil {
		return nil, errors.New("entitycache: api is required")
	}
	if svc == nil {
		return nil, errors.New("entitycache: cache service is required")
	}
	if codec == nil {
		codec = cache.NewDefaultKeyCodec()
	}

	cfg.Endpoint = "/" + strings.Trim(cfg.Endpoint, "/")
	if cfg.Namespace == "" {
		cfg.Namespace = defaultNamespace[T]()
	}
	if cfg.ScopeParam == "" {
		cfg.ScopeParam = "projectId"
	}

	return &Store[T]{
		cfg:      cfg,
		api:      api,
		cache:    svc,
		keys:     codec,
		registry: xsync.NewMapOf[string, struct{}](),
		inflight: xsync.NewMapOf[string, int](),
		stale:    xsync.NewMapOf[string, struct{}](),
	}, nil
}

// Namespace returns the cache namespace of this store.
func (s *Store[T]) Namespace() string {
	return s.cfg.Namespace
}

// ListKey returns the cache key a List call with these arguments uses.
// External callers can derive it to populate the cache out of band before a
// consumer asks for the data.
func (s *Store[T]) ListKey(scope string, opts ListOptions) string {
	return s.keys.ListKey(s.cfg.Namespace, scope, opts.cacheFilters())
}

// ItemKey returns the cache key a Get call for id uses.
func (s *Store[T]) ItemKey(id string) string {
	return s.keys.ItemKey(s.cfg.Namespace, id)
}

// List returns one page of entities for the scope and filters. The cached
// page is served when present; otherwise a fetch runs, deduplicated across
// concurrent callers of the same key.
//
// When the fetch fails but a cached page is still present, List returns that
// page together with the error, so callers can show last-known-good data
// alongside a failure notice instead of a blank error state.
func (s *Store[T]) List(ctx context.Context, scope string, opts ListOptions) (Page[T], error) {
	key := s.ListKey(scope, opts)
	s.registry.Store(key, struct{}{})

	if !refreshRequested(ctx) && !s.isStale(key) {
		if page, ok := cache.Peek[Page[T]](ctx, s.cache, key); ok {
			return page, nil
		}
	}

	v, err, _ := s.group.Do(key, func() (any, error) {
		return s.fetchList(ctx, key, scope, opts)
	})
	if err != nil {
		if page, ok := cache.Peek[Page[T]](ctx, s.cache, key); ok {
			return page, err
		}
		return Page[T]{Items: []T{}}, err
	}
	return v.(Page[T]), nil
}

func (s *Store[T]) fetchList(ctx context.Context, key, scope string, opts ListOptions) (Page[T], error) {
	s.beginFetch(key)
	defer s.endFetch(key)

	gen := s.fence.Load()
	page, err := s.fetchPage(ctx, scope, opts)
	if err != nil {
		return Page[T]{}, err
	}

	s.writeBack(ctx, key, gen, page)
	return page, nil
}

func (s *Store[T]) fetchPage(ctx context.Context, scope string, opts ListOptions) (Page[T], error) {
	query := opts.queryValues()
	if scope != "" {
		query.Set(s.cfg.ScopeParam, scope)
	}

	var page Page[T]
	if err := s.api.GetJSON(ctx, s.cfg.Endpoint, query, &page); err != nil {
		return Page[T]{}, err
	}
	if page.Items == nil {
		page.Items = []T{}
	}
	return page, nil
}

// Get returns the entity with the given id, served from cache when present.
// An empty id is a no-op read and returns ErrMissingID.
//
// Like List, a failed fetch with a cached entity still present returns the
// cached entity together with the error.
func (s *Store[T]) Get(ctx context.Context, id string) (T, error) {
	var zero T
	if id == "" {
		return zero, ErrMissingID
	}

	key := s.ItemKey(id)
	s.registry.Store(key, struct{}{})

	if !refreshRequested(ctx) && !s.isStale(key) {
		if item, ok := cache.Peek[T](ctx, s.cache, key); ok {
			return item, nil
		}
	}

	v, err, _ := s.group.Do(key, func() (any, error) {
		return s.fetchItem(ctx, key, id)
	})
	if err != nil {
		if item, ok := cache.Peek[T](ctx, s.cache, key); ok {
			return item, err
		}
		return zero, err
	}
	return v.(T), nil
}

func (s *Store[T]) fetchItem(ctx context.Context, key, id string) (T, error) {
	s.beginFetch(key)
	defer s.endFetch(key)

	var zero T
	gen := s.fence.Load()

	var raw json.RawMessage
	if err := s.api.GetJSON(ctx, s.cfg.Endpoint+"/"+id, nil, &raw); err != nil {
		return zero, err
	}
	item, err := decodeItem[T](raw, s.cfg.ItemWrapper)
	if err != nil {
		return zero, err
	}

	s.writeBack(ctx, key, gen, item)
	return item, nil
}

// writeBack stores a fetched value unless a mutation moved the fence while
// the request was in flight. A dropped write-back leaves the optimistic
// state (and any staleness mark) in place; the mutation's settlement
// invalidation triggers the reconciling refetch.
func (s *Store[T]) writeBack(ctx context.Context, key string, gen uint64, value any) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.fence.Load() == gen {
		_ = s.cache.Set(ctx, key, value)
		s.stale.Delete(key)
	}
}

// invalidate marks a key stale: its data stays readable as a fallback, but
// the next read for the key fetches from the API.
func (s *Store[T]) invalidate(key string) {
	s.stale.Store(key, struct{}{})
}

func (s *Store[T]) isStale(key string) bool {
	_, ok := s.stale.Load(key)
	return ok
}

// ListState reports cache presence and fetch activity for a list key.
func (s *Store[T]) ListState(ctx context.Context, scope string, opts ListOptions) ReadState {
	key := s.ListKey(scope, opts)
	_, has := cache.Peek[Page[T]](ctx, s.cache, key)
	return ReadState{HasData: has, Loading: !has && s.fetching(key)}
}

// GetState reports cache presence and fetch activity for an item key.
func (s *Store[T]) GetState(ctx context.Context, id string) ReadState {
	key := s.ItemKey(id)
	_, has := cache.Peek[T](ctx, s.cache, key)
	return ReadState{HasData: has, Loading: !has && s.fetching(key)}
}

// Prefetch warms the list cache for several filter combinations at once,
// e.g. before a dashboard mounts. Fetches run concurrently through the same
// inflight and fence bookkeeping as List; keys that are already cached and
// fresh are left alone.
func (s *Store[T]) Prefetch(ctx context.Context, scope string, optsList ...ListOptions) error {
	g, ctx := errgroup.WithContext(ctx)
	for _, opts := range optsList {
		key := s.ListKey(scope, opts)
		s.registry.Store(key, struct{}{})
		if _, ok := s.cache.Peek(ctx, key); ok && !s.isStale(key) {
			continue
		}
		g.Go(func() error {
			_, err, _ := s.group.Do(key, func() (any, error) {
				return s.fetchList(ctx, key, scope, opts)
			})
			return err
		})
	}
	return g.Wait()
}

func (s *Store[T]) beginFetch(key string) {
	s.inflight.Compute(key, func(n int, _ bool) (int, bool) {
		return n + 1, false
	})
}

func (s *Store[T]) endFetch(key string) {
	s.inflight.Compute(key, func(n int, _ bool) (int, bool) {
		if n <= 1 {
			return 0, true
		}
		return n - 1, false
	})
}

func (s *Store[T]) fetching(key string) bool {
	n, ok := s.inflight.Load(key)
	return ok && n > 0
}

// trackedListKeys returns the list keys this store has populated.
func (s *Store[T]) trackedListKeys() []string {
	prefix := s.keys.ListPrefix(s.cfg.Namespace)
	var keys []string
	s.registry.Range(func(k string, _ struct{}) bool {
		if strings.HasPrefix(k, prefix) {
			keys = append(keys, k)
		}
		return true
	})
	return keys
}

// decodeItem decodes a single-item response body, unwrapping the configured
// wrapper field when present. A wrapped response missing the wrapper field
// falls back to decoding the body as the entity itself.
func decodeItem[T any](raw json.RawMessage, wrapper string) (T, error) {
	var zero T
	if len(raw) == 0 {
		return zero, nil
	}

	if wrapper != "" {
		var envelope map[string]json.RawMessage
		if err := json.Unmarshal(raw, &envelope); err == nil {
			if inner, ok := envelope[wrapper]; ok {
				raw = inner
			}
		}
	}

	var item T
	if err := json.Unmarshal(raw, &item); err != nil {
		return zero, errors.Wrap(err, "entitycache: decode item response")
	}
	return item, nil
}

// defaultNamespace derives a cache namespace from the entity type name.
func defaultNamespace[T any]() string {
	t := reflect.TypeOf((*T)(nil)).Elem()
	for t.Kind() == reflect.Ptr {
		t = t.Elem()
	}
	name := t.Name()
	if name == "" {
		name = t.String()
	}
	return toSnake(name)
}
