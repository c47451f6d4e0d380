package cacheinfra

import (
	"context"
	"strings"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/viccon/sturdyc"
)

// Config holds the configuration for the sturdyc cache adapter.
type Config struct {
	// Capacity defines the maximum number of entries the cache can store.
	Capacity int

	// NumShards determines the number of cache shards for concurrent access.
	// Higher values improve concurrency but increase memory overhead.
	NumShards int

	// TTL is the freshness window: entries older than this are expired and
	// the next read goes to the source of truth.
	TTL time.Duration

	// EvictionPercentage specifies what percentage of entries to evict when
	// the cache reaches capacity. Must be between 1-100.
	EvictionPercentage int

	// EarlyRefresh configures background refresh of hot entries before they
	// expire. Nil disables early refresh.
	EarlyRefresh *EarlyRefreshConfig

	// MissingRecordStorage remembers keys that returned no result so
	// repeated reads for absent records do not hit the source every time.
	MissingRecordStorage bool

	// EvictionInterval sets how often expired entries are garbage
	// collected. Zero uses the sturdyc default.
	EvictionInterval time.Duration
}

// EarlyRefreshConfig configures early refresh behavior.
type EarlyRefreshConfig struct {
	MinAsyncRefreshTime time.Duration
	MaxAsyncRefreshTime time.Duration
	SyncRefreshTime     time.Duration
	RetryBaseDelay      time.Duration
}

// DefaultConfig returns a Config with sensible defaults for most use cases.
func DefaultConfig() Config {
	return Config{
		Capacity:           10000,
		NumShards:          256,
		TTL:                5 * time.Minute,
		EvictionPercentage: 10,
		EarlyRefresh: &EarlyRefreshConfig{
			MinAsyncRefreshTime: 10 * time.Second,
			MaxAsyncRefreshTime: 20 * time.Second,
			SyncRefreshTime:     30 * time.Second,
			RetryBaseDelay:      100 * time.Millisecond,
		},
		MissingRecordStorage: true,
	}
}

// Validate checks the configuration values.
func (c Config) Validate() error {
	err := validation.ValidateStruct(&c,
		validation.Field(&c.Capacity, validation.Required, validation.Min(1)),
		validation.Field(&c.NumShards, validation.Required, validation.Min(1)),
		validation.Field(&c.TTL, validation.Required, validation.Min(time.Duration(1))),
		validation.Field(&c.EvictionPercentage, validation.Required, validation.Min(1), validation.Max(100)),
		validation.Field(&c.EvictionInterval, validation.Min(time.Duration(0))),
	)
	if err != nil {
		return err
	}

	if c.EarlyRefresh != nil {
		er := c.EarlyRefresh
		if er.MinAsyncRefreshTime < 0 || er.MaxAsyncRefreshTime < 0 || er.SyncRefreshTime < 0 || er.RetryBaseDelay < 0 {
			return &ConfigError{Field: "EarlyRefresh", Message: "refresh times must be non-negative"}
		}
		if er.MaxAsyncRefreshTime < er.MinAsyncRefreshTime {
			return &ConfigError{Field: "EarlyRefresh", Message: "MaxAsyncRefreshTime must not be below MinAsyncRefreshTime"}
		}
	}

	return nil
}

// toOptions maps the config to sturdyc options. Capacity, NumShards, TTL,
// and EvictionPercentage are constructor arguments, not options.
func (c Config) toOptions() []sturdyc.Option {
	var options []sturdyc.Option

	if c.EarlyRefresh != nil {
		options = append(options, sturdyc.WithEarlyRefreshes(
			c.EarlyRefresh.MinAsyncRefreshTime,
			c.EarlyRefresh.MaxAsyncRefreshTime,
			c.EarlyRefresh.SyncRefreshTime,
			c.EarlyRefresh.RetryBaseDelay,
		))
	}

	if c.MissingRecordStorage {
		options = append(options, sturdyc.WithMissingRecordStorage())
	}

	if c.EvictionInterval > 0 {
		options = append(options, sturdyc.WithEvictionInterval(c.EvictionInterval))
	}

	return options
}

// ConfigError reports an invalid configuration field.
type ConfigError struct {
	Field   string
	Message string
}

func (e *ConfigError) Error() string {
	return "config error in field " + e.Field + ": " + e.Message
}

// sturdycService adapts a sturdyc client to the cache.Service surface.
type sturdycService struct {
	client *sturdyc.Client[any]
}

// NewSturdycService creates the sturdyc-backed cache service.
func NewSturdycService(cfg Config) (*sturdycService, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	client := sturdyc.New[any](
		cfg.Capacity,
		cfg.NumShards,
		cfg.TTL,
		cfg.EvictionPercentage,
		cfg.toOptions()...,
	)

	return &sturdycService{client: client}, nil
}

// GetOrFetch returns the cached value for key or fetches, stores, and
// returns a fresh one. sturdyc deduplicates concurrent fetches for the same
// key and handles early refresh of hot entries.
func (s *sturdycService) GetOrFetch(ctx context.Context, key string, fetchFn func(ctx context.Context) (any, error)) (any, error) {
	return s.client.GetOrFetch(ctx, key, fetchFn)
}

// Peek returns the cached value without fetching on a miss. Expired entries
// report a miss.
func (s *sturdycService) Peek(_ context.Context, key string) (any, bool) {
	return s.client.Get(key)
}

// Set writes a value for key, replacing any existing entry.
func (s *sturdycService) Set(_ context.Context, key string, value any) error {
	s.client.Set(key, value)
	return nil
}

// Delete removes a single entry. Subsequent reads for the key fetch fresh
// data from the source of truth.
func (s *sturdycService) Delete(_ context.Context, key string) error {
	s.client.Delete(key)
	return nil
}

// DeleteByPrefix removes every entry whose key starts with prefix.
func (s *sturdycService) DeleteByPrefix(_ context.Context, prefix string) error {
	for _, key := range s.client.ScanKeys() {
		if strings.HasPrefix(key, prefix) {
			s.client.Delete(key)
		}
	}
	return nil
}

// Keys returns the live keys that start with prefix.
func (s *sturdycService) Keys(_ context.Context, prefix string) []string {
	var keys []string
	for _, key := range s.client.ScanKeys() {
		if strings.HasPrefix(key, prefix) {
			keys = append(keys, key)
		}
	}
	return keys
}
