package dedup

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

func TestGroup_CollapsesConcurrentCalls(t *testing.T) {
	g := New()
	ctx := context.Background()

	var calls int32
	var startedOnce sync.Once
	started := make(chan struct{})
	release := make(chan struct{})

	fn := func(context.Context) (any, error) {
		atomic.AddInt32(&calls, 1)
		startedOnce.Do(func() { close(started) })
		<-release
		return "result", nil
	}

	const waiters = 8
	results := make([]any, waiters)
	var wg sync.WaitGroup

	wg.Add(1)
	go func() {
		defer wg.Done()
		results[0], _, _ = g.Do(ctx, "key", fn)
	}()
	<-started

	for i := 1; i < waiters; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			results[i], _, _ = g.Do(ctx, "key", fn)
		}(i)
	}
	// Give the waiters time to join before the flight completes; a waiter
	// arriving after the release would start a second execution.
	time.Sleep(50 * time.Millisecond)
	close(release)
	wg.Wait()

	if got := atomic.LoadInt32(&calls); got != 1 {
		t.Errorf("fn executed %d times, want 1", got)
	}
	for i, r := range results {
		if r != "result" {
			t.Errorf("waiter %d got %v, want result", i, r)
		}
	}
}

func TestGroup_SharesFailure(t *testing.T) {
	g := New()
	ctx := context.Background()
	wantErr := errors.New("boom")

	started := make(chan struct{})
	release := make(chan struct{})
	var wg sync.WaitGroup
	errs := make([]error, 2)

	wg.Add(1)
	go func() {
		defer wg.Done()
		_, _, errs[0] = g.Do(ctx, "key", func(context.Context) (any, error) {
			close(started)
			<-release
			return nil, wantErr
		})
	}()
	<-started

	wg.Add(1)
	go func() {
		defer wg.Done()
		_, _, errs[1] = g.Do(ctx, "key", func(context.Context) (any, error) {
			t.Error("second fn should not run")
			return nil, nil
		})
	}()
	time.Sleep(50 * time.Millisecond)
	close(release)
	wg.Wait()

	for i, err := range errs {
		if !errors.Is(err, wantErr) {
			t.Errorf("waiter %d error = %v, want %v", i, err, wantErr)
		}
	}
}

func TestGroup_KeyReleasedAfterCompletion(t *testing.T) {
	g := New()
	ctx := context.Background()

	var calls int
	fn := func(context.Context) (any, error) {
		calls++
		return calls, nil
	}

	// Sequential identical calls are distinct executions: the registry
	// never leaks a completed flight.
	if v, _, _ := g.Do(ctx, "key", fn); v != 1 {
		t.Errorf("first call = %v, want 1", v)
	}
	if v, _, _ := g.Do(ctx, "key", fn); v != 2 {
		t.Errorf("second call = %v, want 2", v)
	}
}

func TestGroup_DistinctKeysIndependent(t *testing.T) {
	g := New()
	ctx := context.Background()

	a, _, _ := g.Do(ctx, "a", func(context.Context) (any, error) { return "a", nil })
	b, _, _ := g.Do(ctx, "b", func(context.Context) (any, error) { return "b", nil })

	if a != "a" || b != "b" {
		t.Errorf("got %v/%v, want a/b", a, b)
	}
}

func TestKey(t *testing.T) {
	k1 := Key("GET", "/products?page=0&size=20", nil)
	k2 := Key("GET", "/products?page=0&size=20", nil)
	if k1 != k2 {
		t.Error("identical operations must share a key")
	}

	if Key("POST", "/x", []byte(`{"a":1}`)) == Key("POST", "/x", []byte(`{"a":2}`)) {
		t.Error("different bodies must produce different keys")
	}
	if Key("GET", "/x", nil) == Key("POST", "/x", nil) {
		t.Error("different methods must produce different keys")
	}
}
