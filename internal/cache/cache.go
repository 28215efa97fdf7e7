// Package cache implements the Pricing-Context Cache (C4): a URL→YAML store
// with single-flight transformation, TTL eviction, and LRU bounding.
//
// Exactly one transformation per canonical URL is ever in flight at a time;
// concurrent callers attach as waiters to the same attempt and observe an
// identical result. On every terminal transition the cache publishes to the
// Notification Bus (C5).
package cache

import (
	"container/list"
	"context"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/isa-group/harvey-agent-core/internal/bus"
)

// State is the lifecycle stage of a CacheEntry (spec.md §3).
type State string

const (
	StateEmpty    State = "empty"
	StateInFlight State = "in-flight"
	StateReady    State = "ready"
	StateError    State = "error"
)

// Config bounds the cache's size and timing behaviour. Zero values are
// replaced with the documented defaults by New.
type Config struct {
	TTL           time.Duration // freshness window for a ready entry; default 24h
	CooldownAfterError time.Duration // retry cool-down after a failed attempt; default 5m
	MaxEntries    int           // LRU bound; default 256
}

func (c Config) withDefaults() Config {
	if c.TTL <= 0 {
		c.TTL = 24 * time.Hour
	}
	if c.CooldownAfterError <= 0 {
		c.CooldownAfterError = 5 * time.Minute
	}
	if c.MaxEntries <= 0 {
		c.MaxEntries = 256
	}
	return c
}

// Transform performs the actual extraction for a canonical URL. It is
// supplied by the caller (normally internal/adapters/extractor.Client.Transform)
// and is invoked at most once per attempt, regardless of waiter count.
type Transform func(ctx context.Context, canonicalURL string) (yaml string, err error)

// entry is the internal bookkeeping record for one canonical URL.
type entry struct {
	mu        sync.Mutex
	state     State
	yaml      string
	fetchedAt time.Time
	err       error
	erroredAt time.Time
	waiters   []chan result
	lruElem   *list.Element // element in Cache.lru, guarded by Cache.mu
}

type result struct {
	yaml string
	err  error
}

// Cache is the Pricing-Context Cache. Safe for concurrent use.
type Cache struct {
	cfg       Config
	transform Transform
	notifier  *bus.Bus
	backend   Backend
	sessionID func(ctx context.Context) string // resolves the SSE session id to notify; may be nil

	mu      sync.Mutex // guards entries + lru (membership, not entry internals)
	entries map[string]*entry
	lru     *list.List // front = most recently used
}

// New creates a Cache that calls transform to resolve cache misses and
// publishes terminal transitions to notifier (may be nil to disable
// notifications, e.g. in tests).
func New(cfg Config, transform Transform, notifier *bus.Bus) *Cache {
	return &Cache{
		cfg:       cfg.withDefaults(),
		transform: transform,
		notifier:  notifier,
		entries:   make(map[string]*entry),
		lru:       list.New(),
	}
}

// WithSessionResolver sets a function used to derive which SSE session a
// given Resolve call's notifications belong to. Without one, notifications
// are published under the canonical URL itself as a degenerate session key,
// which is harmless but not useful for per-user SSE scoping.
func (c *Cache) WithSessionResolver(f func(ctx context.Context) string) *Cache {
	c.sessionID = f
	return c
}

// Resolve returns the YAML for canonicalURL, transforming it if necessary.
// At most one transformation per canonicalURL runs concurrently; concurrent
// callers share the result (spec.md §4.4, §8).
func (c *Cache) Resolve(ctx context.Context, canonicalURL string) (string, error) {
	for {
		e, _ := c.acquire(canonicalURL)

		e.mu.Lock()
		switch e.state {
		case StateReady:
			if time.Since(e.fetchedAt) < c.cfg.TTL {
				yaml := e.yaml
				e.mu.Unlock()
				c.touch(canonicalURL)
				return yaml, nil
			}
			// Expired: lazily fall back to empty and retry the loop.
			e.state = StateEmpty
			e.mu.Unlock()
			continue

		case StateError:
			if time.Since(e.erroredAt) < c.cfg.CooldownAfterError {
				err := e.err
				e.mu.Unlock()
				return "", err
			}
			e.state = StateEmpty
			e.mu.Unlock()
			continue

		case StateInFlight:
			waiter := make(chan result, 1)
			e.waiters = append(e.waiters, waiter)
			e.mu.Unlock()
			select {
			case r := <-waiter:
				return r.yaml, r.err
			case <-ctx.Done():
				// This waiter gives up; the in-flight transformation itself is
				// unaffected (spec.md §4.4: a single waiter's cancellation does
				// not cancel it).
				return "", ctx.Err()
			}

		default: // StateEmpty
			// Claim the entry before releasing the lock: a second caller
			// landing here concurrently must observe StateInFlight, not
			// StateEmpty, or it would launch its own transformation
			// (spec.md §4.4, §8: in-flight ≤ 1 per canonical URL).
			e.state = StateInFlight
			e.mu.Unlock()
			if c.backend != nil {
				if yaml, ok, err := c.backend.Get(ctx, canonicalURL); err == nil && ok {
					e.mu.Lock()
					e.state = StateReady
					e.yaml = yaml
					e.fetchedAt = time.Now()
					waiters := e.waiters
					e.waiters = nil
					e.mu.Unlock()
					// Any caller that landed here while this backend lookup was
					// in flight attached as a waiter against the InFlight claim
					// above; wake them with the same result instead of leaving
					// them blocked until runTransform (which never runs).
					for _, w := range waiters {
						w <- result{yaml: yaml}
					}
					continue
				}
			}
			c.runTransform(ctx, canonicalURL, e)
			continue
		}
	}
}

// acquire returns the entry for canonicalURL, creating it (and evicting the
// LRU victim if over capacity) if absent.
func (c *Cache) acquire(canonicalURL string) (*entry, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if e, ok := c.entries[canonicalURL]; ok {
		c.lru.MoveToFront(e.lruElem)
		return e, false
	}

	e := &entry{state: StateEmpty}
	e.lruElem = c.lru.PushFront(canonicalURL)
	c.entries[canonicalURL] = e

	for len(c.entries) > c.cfg.MaxEntries {
		victim := c.lru.Back()
		if victim == nil {
			break
		}
		key := victim.Value.(string)
		if key == canonicalURL {
			break // never evict the entry we're about to return
		}
		c.lru.Remove(victim)
		delete(c.entries, key)
		log.Printf("[Cache] evicted %s (LRU, over %d entries)", key, c.cfg.MaxEntries)
	}
	return e, true
}

func (c *Cache) touch(canonicalURL string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if e, ok := c.entries[canonicalURL]; ok {
		c.lru.MoveToFront(e.lruElem)
	}
}

// runTransform executes the single in-flight attempt for canonicalURL and
// resolves every waiter (and the caller itself) with the same result.
func (c *Cache) runTransform(ctx context.Context, canonicalURL string, e *entry) {
	c.publish(ctx, canonicalURL, StateInFlight, "", nil)

	// The transformation runs on the background, detached from any single
	// waiter's context: cancelling one requester must not cancel others
	// (spec.md §4.4). It is bounded only by its own internal timeout, which
	// the Transform implementation is responsible for enforcing.
	yaml, err := func() (y string, err error) {
		defer func() {
			if r := recover(); r != nil {
				err = ErrTransformPanicked{Recovered: r}
			}
		}()
		return c.transform(context.Background(), canonicalURL)
	}()

	e.mu.Lock()
	waiters := e.waiters
	e.waiters = nil
	if err != nil {
		e.state = StateError
		e.err = err
		e.erroredAt = time.Now()
	} else {
		e.state = StateReady
		e.yaml = yaml
		e.fetchedAt = time.Now()
	}
	e.mu.Unlock()

	for _, w := range waiters {
		w <- result{yaml: yaml, err: err}
	}

	if err != nil {
		c.publish(ctx, canonicalURL, StateError, "", err)
		return
	}
	c.publish(ctx, canonicalURL, StateReady, yaml, nil)
	if c.backend != nil {
		if werr := c.backend.Set(context.Background(), canonicalURL, yaml, c.cfg.TTL); werr != nil {
			log.Printf("[Cache] backend write-through failed for %s: %v", canonicalURL, werr)
		}
	}
}

func (c *Cache) publish(ctx context.Context, canonicalURL string, state State, yaml string, err error) {
	if c.notifier == nil {
		return
	}
	sessionID := canonicalURL
	if c.sessionID != nil {
		if sid := c.sessionID(ctx); sid != "" {
			sessionID = sid
		}
	}
	payload := bus.URLTransformPayload{CanonicalURL: canonicalURL, State: string(state), YAML: yaml}
	if err != nil {
		payload.Error = err.Error()
	}
	c.notifier.Publish(sessionID, bus.Event{Type: bus.EventURLTransform, Data: payload})
}

// Invalidate forces canonicalURL back to empty on its next Resolve, useful
// for tests and for admin-triggered re-extraction.
func (c *Cache) Invalidate(canonicalURL string) {
	c.mu.Lock()
	e, ok := c.entries[canonicalURL]
	c.mu.Unlock()
	if !ok {
		return
	}
	e.mu.Lock()
	e.state = StateEmpty
	e.mu.Unlock()
}

// Len returns the number of tracked entries (including expired/errored ones
// not yet evicted). Intended for tests and diagnostics.
func (c *Cache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}

// ErrTransformPanicked wraps a recovered panic from a Transform call so a
// single misbehaving extractor invocation cannot crash the process.
type ErrTransformPanicked struct {
	Recovered any
}

func (e ErrTransformPanicked) Error() string {
	return fmt.Sprintf("cache: transform panicked: %v", e.Recovered)
}
