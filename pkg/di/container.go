// Package di wires the cache service, key codec, and API client together and
// provides the factory for typed entity stores.
package di

import (
	"github.com/statuskit/go-entity-cache/cache"
	"github.com/statuskit/go-entity-cache/entitycache"
	"github.com/statuskit/go-entity-cache/internal/httpapi"
)

var _ entitycache.API = (*httpapi.Client)(nil)

// Config configures the container.
type Config struct {
	// BaseURL is the root of the entity API.
	BaseURL string

	// UserAgent overrides the client's User-Agent header.
	UserAgent string

	// Cache configures the shared cache backend. Zero value uses
	// cache.DefaultConfig.
	Cache cache.Config
}

// Container holds the singleton collaborators shared by every store: one
// cache service, one key codec, one API client.
type Container struct {
	cacheService cache.Service
	keyCodec     cache.KeyCodec
	api          *httpapi.Client
	cacheConfig  cache.Config
}

// NewContainer creates a container from the provided configuration.
func NewContainer(cfg Config) (*Container, error) {
	if cfg.Cache == (cache.Config{}) {
		cfg.Cache = cache.DefaultConfig()
	}

	svc, err := cache.NewService(cfg.Cache)
	if err != nil {
		return nil, err
	}

	api, err := httpapi.New(httpapi.Config{
		BaseURL:   cfg.BaseURL,
		UserAgent: cfg.UserAgent,
	})
	if err != nil {
		return nil, err
	}

	return &Container{
		cacheService: svc,
		keyCodec:     cache.NewDefaultKeyCodec(),
		api:          api,
		cacheConfig:  cfg.Cache,
	}, nil
}

// NewContainerWithDefaults creates a container with the default cache
// configuration.
func NewContainerWithDefaults(baseURL string) (*Container, error) {
	return NewContainer(Config{BaseURL: baseURL})
}

// CacheService returns the shared cache service.
func (c *Container) CacheService() cache.Service {
	return c.cacheService
}

// KeyCodec returns the shared key codec.
func (c *Container) KeyCodec() cache.KeyCodec {
	return c.keyCodec
}

// API returns the shared API client.
func (c *Container) API() entitycache.API {
	return c.api
}

// Config returns a copy of the cache configuration used by this container.
func (c *Container) Config() cache.Config {
	return c.cacheConfig
}

// NewStore creates a typed entity store wired to the container's
// collaborators. A store with its own freshness window gets a dedicated
// cache backend with that TTL; all other stores share the container's.
//
// Go methods cannot have type parameters, so this is a package-level
// function: NewStore[Monitor](container, cfg).
func NewStore[T entitycache.Identifiable](c *Container, cfg entitycache.StoreConfig) (*entitycache.Store[T], error) {
	svc := c.cacheService
	if cfg.FreshFor > 0 {
		cc := c.cacheConfig
		cc.TTL = cfg.FreshFor
		dedicated, err := cache.NewService(cc)
		if err != nil {
			return nil, err
		}
		svc = dedicated
	}
	return entitycache.New[T](cfg, c.api, svc, c.keyCodec)
}
