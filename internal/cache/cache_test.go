package cache

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestCache_SetAndGet(t *testing.T) {
	c := New()

	c.Set("key", []byte(`"value"`), 0)

	got := c.Get("key")
	if string(got) != `"value"` {
		t.Errorf("Get() = %s, want %q", got, "value")
	}
}

func TestCache_GetMissing(t *testing.T) {
	c := New()

	if got := c.Get("absent"); got != nil {
		t.Errorf("Get() = %v, want nil", got)
	}
}

func TestCache_Expiration(t *testing.T) {
	c := New()
	now := time.Now()
	c.SetClock(func() time.Time { return now })

	c.Set("key", []byte("v"), time.Minute)

	// Just before the TTL the entry is fresh.
	c.SetClock(func() time.Time { return now.Add(59 * time.Second) })
	if c.Get("key") == nil {
		t.Fatal("entry expired before TTL")
	}

	// Past the TTL it is gone.
	c.SetClock(func() time.Time { return now.Add(61 * time.Second) })
	if c.Get("key") != nil {
		t.Error("entry should be expired")
	}
}

func TestCache_InvalidatePrefix(t *testing.T) {
	c := New()
	c.Set("GET:/orders/my-orders:", []byte("a"), 0)
	c.Set("GET:/orders/5:", []byte("b"), 0)
	c.Set("GET:/stores/active:", []byte("c"), 0)

	c.Invalidate("GET:/orders")

	if c.Get("GET:/orders/my-orders:") != nil || c.Get("GET:/orders/5:") != nil {
		t.Error("order entries should be invalidated")
	}
	if c.Get("GET:/stores/active:") == nil {
		t.Error("store entry should survive")
	}
}

func TestCache_GetOrFetch(t *testing.T) {
	c := New()
	ctx := context.Background()

	calls := 0
	fetcher := func(context.Context) (any, error) {
		calls++
		return map[string]string{"k": "v"}, nil
	}

	_, hit, err := c.GetOrFetch(ctx, "key", time.Minute, fetcher)
	if err != nil {
		t.Fatalf("GetOrFetch() error: %v", err)
	}
	if hit {
		t.Error("first GetOrFetch() should report a miss")
	}
	_, hit, err = c.GetOrFetch(ctx, "key", time.Minute, fetcher)
	if err != nil {
		t.Fatalf("GetOrFetch() error: %v", err)
	}
	if !hit {
		t.Error("second GetOrFetch() should report a hit")
	}
	if calls != 1 {
		t.Errorf("fetcher called %d times, want 1", calls)
	}
}

func TestCache_FailedFetchKeepsStaleEntry(t *testing.T) {
	c := New()
	ctx := context.Background()

	c.Set("key", []byte(`"stale"`), 0)

	_, err := c.Refresh(ctx, "key", time.Minute, func(context.Context) (any, error) {
		return nil, errors.New("backend down")
	})
	if err == nil {
		t.Fatal("Refresh() should propagate the fetch failure")
	}
	if string(c.Get("key")) != `"stale"` {
		t.Error("failed refresh must not evict the prior entry")
	}
}

func TestCache_RefreshBypassesFreshness(t *testing.T) {
	c := New()
	ctx := context.Background()

	c.Set("key", []byte(`"old"`), time.Hour)

	data, err := c.Refresh(ctx, "key", time.Hour, func(context.Context) (any, error) {
		return "new", nil
	})
	if err != nil {
		t.Fatalf("Refresh() error: %v", err)
	}
	if string(data) != `"new"` {
		t.Errorf("Refresh() = %s, want %q", data, "new")
	}
	if string(c.Get("key")) != `"new"` {
		t.Error("refreshed value should be stored")
	}
}
