package query

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

func TestConcurrentGetsShareOneFetch(t *testing.T) {
	cache := NewCache(time.Minute)
	var fetches atomic.Int32
	release := make(chan struct{})

	fetch := func(context.Context) (string, error) {
		fetches.Add(1)
		<-release
		return "page-1", nil
	}

	var wg sync.WaitGroup
	results := make([]string, 8)
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			value, err := Fetch(context.Background(), cache, "users?page=1", fetch)
			if err != nil {
				t.Errorf("fetch: %v", err)
			}
			results[i] = value
		}(i)
	}
	// Let the goroutines pile onto the key before releasing the fetch.
	time.Sleep(50 * time.Millisecond)
	close(release)
	wg.Wait()

	if got := fetches.Load(); got != 1 {
		t.Fatalf("network fetches = %d, want 1", got)
	}
	for _, value := range results {
		if value != "page-1" {
			t.Fatalf("results = %v", results)
		}
	}
}

func TestFreshHitSkipsNetwork(t *testing.T) {
	cache := NewCache(time.Minute)
	var fetches atomic.Int32
	fetch := func(context.Context) (int, error) {
		fetches.Add(1)
		return 42, nil
	}
	for i := 0; i < 5; i++ {
		value, err := Fetch(context.Background(), cache, "k", fetch)
		if err != nil || value != 42 {
			t.Fatalf("get %d: %v %v", i, value, err)
		}
	}
	if fetches.Load() != 1 {
		t.Fatalf("fetches = %d", fetches.Load())
	}
}

func TestStaleHitServesImmediatelyAndRevalidates(t *testing.T) {
	cache := NewCache(20 * time.Millisecond)
	var fetches atomic.Int32
	fetch := func(context.Context) (string, error) {
		if fetches.Add(1) == 1 {
			return "old", nil
		}
		return "new", nil
	}

	if value, _ := Fetch(context.Background(), cache, "k", fetch); value != "old" {
		t.Fatalf("first read = %q", value)
	}
	time.Sleep(40 * time.Millisecond)

	// Past the freshness window: the stale value comes back with no wait.
	value, err := Fetch(context.Background(), cache, "k", fetch)
	if err != nil || value != "old" {
		t.Fatalf("stale read = %q, %v", value, err)
	}

	deadline := time.Now().Add(time.Second)
	for {
		if cached, ok := cache.Peek("k"); ok && cached == "new" {
			break
		}
		if time.Now().After(deadline) {
			t.Fatal("background revalidation never landed")
		}
		time.Sleep(5 * time.Millisecond)
	}
}

func TestLateResponseNeverOverwritesNewerWrite(t *testing.T) {
	cache := NewCache(time.Nanosecond)
	release := make(chan struct{})

	// Seed, then go stale so the next read issues a slow background fetch.
	cache.Put("k", "seed")
	time.Sleep(time.Millisecond)
	slow := func(context.Context) (string, error) {
		<-release
		return "slow-response", nil
	}
	if value, _ := Fetch(context.Background(), cache, "k", slow); value != "seed" {
		t.Fatalf("stale read = %q", value)
	}

	// A newer write lands while the older request is still in flight.
	cache.Put("k", "newer")
	close(release)
	time.Sleep(50 * time.Millisecond)

	if value, ok := cache.Peek("k"); !ok || value != "newer" {
		t.Fatalf("cache = %v, the older in-flight response overwrote it", value)
	}
}

func TestInvalidateForcesRefetchAndFencesInFlight(t *testing.T) {
	cache := NewCache(time.Minute)
	var fetches atomic.Int32
	fetch := func(context.Context) (int, error) {
		return int(fetches.Add(1)), nil
	}
	if value, _ := Fetch(context.Background(), cache, "k", fetch); value != 1 {
		t.Fatalf("first = %v", value)
	}
	cache.Invalidate("k")
	if _, ok := cache.Peek("k"); ok {
		t.Fatal("entry survived invalidation")
	}
	if value, _ := Fetch(context.Background(), cache, "k", fetch); value != 2 {
		t.Fatalf("after invalidate = %v", value)
	}
}

func TestInvalidatePrefixOnlyTouchesScope(t *testing.T) {
	cache := NewCache(time.Minute)
	cache.Put("events?page=1", "a")
	cache.Put("events?page=2", "b")
	cache.Put("users?page=1", "c")

	cache.InvalidatePrefix("events?")
	if _, ok := cache.Peek("events?page=1"); ok {
		t.Fatal("events page 1 survived")
	}
	if _, ok := cache.Peek("events?page=2"); ok {
		t.Fatal("events page 2 survived")
	}
	if value, ok := cache.Peek("users?page=1"); !ok || value != "c" {
		t.Fatal("users scope was collateral damage")
	}
}

func TestUpdatePatchesMatchingEntriesInPlace(t *testing.T) {
	cache := NewCache(time.Minute)
	cache.Put("events?page=1", []string{"upcoming", "upcoming"})
	cache.Put("users?page=1", []string{"untouched"})

	cache.Update("events?", func(_ string, value any) (any, bool) {
		items := value.([]string)
		patched := make([]string, len(items))
		for i := range items {
			patched[i] = "ongoing"
		}
		return patched, true
	})

	value, _ := cache.Peek("events?page=1")
	if got := value.([]string); got[0] != "ongoing" {
		t.Fatalf("patch missed: %v", got)
	}
	other, _ := cache.Peek("users?page=1")
	if got := other.([]string); got[0] != "untouched" {
		t.Fatalf("out-of-scope entry patched: %v", got)
	}
}
