package cacheinfra

import (
	"context"
	"strings"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
)

// lruService adapts an expirable LRU to the cache.Service surface. Unlike
// the sturdyc adapter it does not deduplicate concurrent fetches; the entity
// store layer handles that itself.
type lruService struct {
	lru *expirable.LRU[string, any]
}

// NewLRUService creates a size-bounded LRU cache service with a fixed TTL.
func NewLRUService(capacity int, ttl time.Duration) (*lruService, error) {
	if capacity <= 0 {
		return nil, &ConfigError{Field: "Capacity", Message: "must be greater than 0"}
	}
	if ttl <= 0 {
		return nil, &ConfigError{Field: "TTL", Message: "must be greater than 0"}
	}

	return &lruService{
		lru: expirable.NewLRU[string, any](capacity, nil, ttl),
	}, nil
}

func (s *lruService) GetOrFetch(ctx context.Context, key string, fetchFn func(ctx context.Context) (any, error)) (any, error) {
	if v, ok := s.lru.Get(key); ok {
		return v, nil
	}

	v, err := fetchFn(ctx)
	if err != nil {
		return nil, err
	}
	s.lru.Add(key, v)
	return v, nil
}

func (s *lruService) Peek(_ context.Context, key string) (any, bool) {
	return s.lru.Get(key)
}

func (s *lruService) Set(_ context.Context, key string, value any) error {
	s.lru.Add(key, value)
	return nil
}

func (s *lruService) Delete(_ context.Context, key string) error {
	s.lru.Remove(key)
	return nil
}

func (s *lruService) DeleteByPrefix(_ context.Context, prefix string) error {
	for _, key := range s.lru.Keys() {
		if strings.HasPrefix(key, prefix) {
			s.lru.Remove(key)
		}
	}
	return nil
}

func (s *lruService) Keys(_ context.Context, prefix string) []string {
	var keys []string
	for _, key := range s.lru.Keys() {
		if strings.HasPrefix(key, prefix) {
			keys = append(keys, key)
		}
	}
	return keys
}
