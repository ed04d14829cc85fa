package query

import (
	"context"
	"log"
	"strings"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"
)

// FetchFunc loads the value for one cache key from the backend.
type FetchFunc func(ctx context.Context) (any, error)

type keyState struct {
	value     any
	ok        bool
	fetchedAt time.Time

	// issue counts requests and direct writes for this key; applied is the
	// issue whose result is currently stored. A completion with an issue at
	// or below applied lost the race and is discarded (last-issued-wins).
	issue   uint64
	applied uint64
}

// Cache is the shared stale-while-revalidate store keyed by parameter
// tuple. Concurrent reads of one key collapse into a single network call;
// entries inside the freshness window are served without I/O, stale entries
// are served immediately while a background refetch runs.
type Cache struct {
	freshFor time.Duration
	group    singleflight.Group

	mu      sync.Mutex
	entries map[string]*keyState
}

func NewCache(freshFor time.Duration) *Cache {
	return &Cache{
		freshFor: freshFor,
		entries:  map[string]*keyState{},
	}
}

// Get returns the value for key, consulting the cache first. A fresh hit
// returns directly, a stale hit returns the known value and revalidates in
// the background, a miss blocks on the fetch.
func (c *Cache) Get(ctx context.Context, key string, fetch FetchFunc) (any, error) {
	c.mu.Lock()
	st := c.state(key)
	if st.ok && time.Since(st.fetchedAt) < c.freshFor {
		value := st.value
		c.mu.Unlock()
		return value, nil
	}
	if st.ok {
		value := st.value
		st.issue++
		n := st.issue
		c.mu.Unlock()
		go c.revalidate(context.WithoutCancel(ctx), key, n, fetch)
		return value, nil
	}
	st.issue++
	n := st.issue
	c.mu.Unlock()

	value, err, _ := c.group.Do(key, func() (any, error) {
		return fetch(ctx)
	})
	if err != nil {
		return nil, err
	}
	c.store(key, n, value)
	return value, nil
}

// Peek returns the cached value without triggering any fetch.
func (c *Cache) Peek(key string) (any, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	st, ok := c.entries[key]
	if !ok || !st.ok {
		return nil, false
	}
	return st.value, true
}

// Put writes a value directly, as mutations do with authoritative server
// snapshots. It fences out any in-flight fetch issued earlier.
func (c *Cache) Put(key string, value any) {
	c.mu.Lock()
	defer c.mu.Unlock()
	st := c.state(key)
	st.issue++
	st.applied = st.issue
	st.value = value
	st.ok = true
	st.fetchedAt = time.Now()
}

// Update applies fn to every cached entry under scope, storing the replaced
// value where fn reports a change. The entry's age is kept, so an optimistic
// patch still revalidates on the next stale read.
func (c *Cache) Update(scope string, fn func(key string, value any) (any, bool)) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for key, st := range c.entries {
		if !st.ok || !strings.HasPrefix(key, scope) {
			continue
		}
		if next, changed := fn(key, st.value); changed {
			st.issue++
			st.applied = st.issue
			st.value = next
		}
	}
}

// Invalidate drops the given keys; the next read refetches. Responses still
// in flight for those keys are fenced out.
func (c *Cache) Invalidate(keys ...string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, key := range keys {
		st, ok := c.entries[key]
		if !ok {
			continue
		}
		st.issue++
		st.applied = st.issue
		st.ok = false
		st.value = nil
	}
}

// InvalidatePrefix drops every entry under a scope, e.g. all cached pages
// of the events list.
func (c *Cache) InvalidatePrefix(scope string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for key, st := range c.entries {
		if !strings.HasPrefix(key, scope) {
			continue
		}
		st.issue++
		st.applied = st.issue
		st.ok = false
		st.value = nil
	}
}

func (c *Cache) state(key string) *keyState {
	st, ok := c.entries[key]
	if !ok {
		st = &keyState{}
		c.entries[key] = st
	}
	return st
}

func (c *Cache) store(key string, issue uint64, value any) {
	c.mu.Lock()
	defer c.mu.Unlock()
	st := c.state(key)
	if issue <= st.applied {
		return
	}
	st.value = value
	st.ok = true
	st.fetchedAt = time.Now()
	st.applied = issue
}

func (c *Cache) revalidate(ctx context.Context, key string, issue uint64, fetch FetchFunc) {
	value, err, _ := c.group.Do(key, func() (any, error) {
		return fetch(ctx)
	})
	if err != nil {
		log.Printf("background refetch %s: %v", key, err)
		return
	}
	c.store(key, issue, value)
}

// Fetch is the typed entry point services use.
func Fetch[T any](ctx context.Context, c *Cache, key string, fetch func(ctx context.Context) (T, error)) (T, error) {
	value, err := c.Get(ctx, key, func(ctx context.Context) (any, error) {
		return fetch(ctx)
	})
	if err != nil {
		var zero T
		return zero, err
	}
	typed, ok := value.(T)
	if !ok {
		var zero T
		return zero, nil
	}
	return typed, nil
}
