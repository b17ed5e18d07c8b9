package cache

import (
	"context"
	"fmt"
	"testing"
	"time"
)

func TestStore_GetAfterSet(t *testing.T) {
	ctx := context.Background()
	s := NewStore(time.Minute)

	s.Set(ctx, "token/abc", "principal-1")

	got, ok := s.Get(ctx, "token/abc")
	if !ok {
		t.Fatal("expected cache hit")
	}
	if got != "principal-1" {
		t.Fatalf("unexpected value: got=%v want=principal-1", got)
	}
}

func TestStore_ExpiresAfterTTL(t *testing.T) {
	ctx := context.Background()
	s := NewStore(time.Minute)
	now := time.Date(2026, 9, 1, 12, 0, 0, 0, time.UTC)
	s.now = func() time.Time { return now }

	s.Set(ctx, "token/abc", "principal-1")

	now = now.Add(time.Minute + time.Second)
	if _, ok := s.Get(ctx, "token/abc"); ok {
		t.Fatal("expected expired entry to miss")
	}
}

func TestStore_GetOrLoadCachesResult(t *testing.T) {
	ctx := context.Background()
	s := NewStore(time.Minute)
	loads := 0

	for i := 0; i < 3; i++ {
		got, err := s.GetOrLoad(ctx, "league/lg-1", func(context.Context) (any, error) {
			loads++
			return "settings", nil
		})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if got != "settings" {
			t.Fatalf("unexpected value: got=%v", got)
		}
	}
	if loads != 1 {
		t.Fatalf("unexpected load count: got=%d want=1", loads)
	}
}

func TestStore_GetOrLoadDoesNotCacheErrors(t *testing.T) {
	ctx := context.Background()
	s := NewStore(time.Minute)
	loads := 0

	for i := 0; i < 2; i++ {
		if _, err := s.GetOrLoad(ctx, "key", func(context.Context) (any, error) {
			loads++
			return nil, fmt.Errorf("load failed")
		}); err == nil {
			t.Fatal("expected loader error")
		}
	}
	if loads != 2 {
		t.Fatalf("unexpected load count: got=%d want=2", loads)
	}
}

func TestStore_DeletePrefix(t *testing.T) {
	ctx := context.Background()
	s := NewStore(0)

	s.Set(ctx, "token/a", 1)
	s.Set(ctx, "token/b", 2)
	s.Set(ctx, "league/lg-1", 3)

	s.DeletePrefix(ctx, "token/")

	if _, ok := s.Get(ctx, "token/a"); ok {
		t.Fatal("expected token/a to be evicted")
	}
	if _, ok := s.Get(ctx, "token/b"); ok {
		t.Fatal("expected token/b to be evicted")
	}
	if _, ok := s.Get(ctx, "league/lg-1"); !ok {
		t.Fatal("expected league/lg-1 to survive")
	}
}
