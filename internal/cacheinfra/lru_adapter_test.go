package cacheinfra

import (
	"context"
	"testing"
	"time"
)

func TestNewLRUService_InvalidConfig(t *testing.T) {
	if _, err := NewLRUService(0, time.Minute); err == nil {
		t.Error("expected error for zero capacity")
	}
	if _, err := NewLRUService(10, 0); err == nil {
		t.Error("expected error for zero ttl")
	}
}

func TestLRUService_GetOrFetch(t *testing.T) {
	svc, err := NewLRUService(10, time.Minute)
	if err != nil {
		t.Fatalf("NewLRUService() failed: %v", err)
	}

	ctx := context.Background()
	fetches := 0
	fetch := func(ctx context.Context) (any, error) {
		fetches++
		return "value", nil
	}

	for i := 0; i < 3; i++ {
		v, err := svc.GetOrFetch(ctx, "key", fetch)
		if err != nil {
			t.Fatalf("GetOrFetch() failed: %v", err)
		}
		if v != "value" {
			t.Fatalf("GetOrFetch() = %v, want %q", v, "value")
		}
	}
	if fetches != 1 {
		t.Errorf("expected 1 fetch, got %d", fetches)
	}
}

func TestLRUService_TTLExpiry(t *testing.T) {
	svc, err := NewLRUService(10, 20*time.Millisecond)
	if err != nil {
		t.Fatalf("NewLRUService() failed: %v", err)
	}
	ctx := context.Background()

	_ = svc.Set(ctx, "k", "v")
	if _, ok := svc.Peek(ctx, "k"); !ok {
		t.Fatal("fresh entry should be present")
	}

	time.Sleep(40 * time.Millisecond)
	if _, ok := svc.Peek(ctx, "k"); ok {
		t.Error("expired entry should miss")
	}
}

func TestLRUService_DeleteByPrefix(t *testing.T) {
	svc, err := NewLRUService(10, time.Minute)
	if err != nil {
		t.Fatalf("NewLRUService() failed: %v", err)
	}
	ctx := context.Background()

	_ = svc.Set(ctx, "jobs::list::a", 1)
	_ = svc.Set(ctx, "jobs::item::b", 2)

	if err := svc.DeleteByPrefix(ctx, "jobs::list::"); err != nil {
		t.Fatalf("DeleteByPrefix() failed: %v", err)
	}
	if _, ok := svc.Peek(ctx, "jobs::list::a"); ok {
		t.Error("list key survived DeleteByPrefix")
	}
	if _, ok := svc.Peek(ctx, "jobs::item::b"); !ok {
		t.Error("item key should survive")
	}
	if keys := svc.Keys(ctx, "jobs::"); len(keys) != 1 {
		t.Errorf("Keys() = %v, want only the item key", keys)
	}
}
