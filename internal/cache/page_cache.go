// Package cache keeps rendered pages keyed by their logical path.
package cache

import (
	"context"
	"strconv"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"
)

// Revalidator marks every cached representation of a logical path as stale.
type Revalidator interface {
	Revalidate(ctx context.Context, path string) error
}

// PageCache is an in-process TTL cache of rendered pages. Entries are grouped by logical
// path (e.g. /dashboard/invoices) and variant (query string, language).
type PageCache struct {
	mu          sync.RWMutex
	entries     map[string]map[string]*entry
	gens        map[string]uint64
	epoch       uint64
	ttl         time.Duration
	maxVariants int
	now         func() time.Time
	group       singleflight.Group
	observe     func(path string, hit bool)
}

// DefaultMaxVariants bounds the bodies kept per path.
const DefaultMaxVariants = 256

type entry struct {
	body      []byte
	expiresAt time.Time
}

// Option configures a PageCache.
type Option func(*PageCache)

// WithClock overrides time.Now.
func WithClock(now func() time.Time) Option {
	return func(c *PageCache) { c.now = now }
}

// WithObserver registers a callback run on every Get and Load lookup.
func WithObserver(fn func(path string, hit bool)) Option {
	return func(c *PageCache) { c.observe = fn }
}

// WithMaxVariants caps the bodies kept per path. Values below 1 are ignored.
func WithMaxVariants(n int) Option {
	return func(c *PageCache) {
		if n > 0 {
			c.maxVariants = n
		}
	}
}

// New returns a PageCache. A ttl of zero keeps entries until revalidated.
func New(ttl time.Duration, opts ...Option) *PageCache {
	c := &PageCache{
		entries: make(map[string]map[string]*entry),
		gens:    make(map[string]uint64),
		ttl:         ttl,
		maxVariants: DefaultMaxVariants,
		now:         time.Now,
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

// Get returns the cached body for path and variant. An expired body is dropped.
func (c *PageCache) Get(path, variant string) ([]byte, bool) {
	now := c.now()
	c.mu.RLock()
	e, ok := c.entries[path][variant]
	c.mu.RUnlock()
	hit := ok && !c.expired(e, now)
	if ok && !hit {
		c.mu.Lock()
		if cur, still := c.entries[path][variant]; still && c.expired(cur, now) {
			c.drop(path, variant)
		}
		c.mu.Unlock()
	}
	if c.observe != nil {
		c.observe(path, hit)
	}
	if !hit {
		return nil, false
	}
	return e.body, true
}

func (c *PageCache) expired(e *entry, now time.Time) bool {
	return c.ttl != 0 && !now.Before(e.expiresAt)
}

// drop must be called with c.mu held.
func (c *PageCache) drop(path, variant string) {
	variants := c.entries[path]
	delete(variants, variant)
	if len(variants) == 0 {
		delete(c.entries, path)
	}
}

// Set stores body for path and variant.
func (c *PageCache) Set(path, variant string, body []byte) {
	c.mu.Lock()
	c.store(path, variant, body)
	c.mu.Unlock()
}

// store must be called with c.mu held. When path is full, expired bodies go first,
// then the one closest to expiry.
func (c *PageCache) store(path, variant string, body []byte) {
	now := c.now()
	variants, ok := c.entries[path]
	if !ok {
		variants = make(map[string]*entry)
		c.entries[path] = variants
	}
	if _, exists := variants[variant]; !exists && len(variants) >= c.maxVariants {
		oldest, oldestAt := "", time.Time{}
		for k, e := range variants {
			if c.expired(e, now) {
				delete(variants, k)
				continue
			}
			if oldest == "" || e.expiresAt.Before(oldestAt) {
				oldest, oldestAt = k, e.expiresAt
			}
		}
		if len(variants) >= c.maxVariants {
			delete(variants, oldest)
		}
	}
	variants[variant] = &entry{body: body, expiresAt: now.Add(c.ttl)}
}

// Load returns the cached body or computes it with fn. Concurrent loads of the same
// path, variant and generation share one call to fn. A body computed before a
// Revalidate of its path is returned to its callers but never cached. fn outlives the
// cancellation of whichever caller started it.
func (c *PageCache) Load(ctx context.Context, path, variant string, fn func(context.Context) ([]byte, error)) ([]byte, error) {
	if body, ok := c.Get(path, variant); ok {
		return body, nil
	}

	c.mu.RLock()
	gen := c.generation(path)
	c.mu.RUnlock()

	key := path + "\x00" + strconv.FormatUint(gen, 10) + "\x00" + variant
	v, err, _ := c.group.Do(key, func() (any, error) {
		body, err := fn(context.WithoutCancel(ctx))
		if err != nil {
			return nil, err
		}
		c.mu.Lock()
		if c.generation(path) == gen {
			c.store(path, variant, body)
		}
		c.mu.Unlock()
		return body, nil
	})
	if err != nil {
		return nil, err
	}
	return v.([]byte), nil
}

// generation only ever grows. It must be called with c.mu held.
func (c *PageCache) generation(path string) uint64 {
	return c.epoch + c.gens[path]
}

// Revalidate drops every variant of path. It does not recompute anything; the next Load does.
func (c *PageCache) Revalidate(_ context.Context, path string) error {
	c.mu.Lock()
	delete(c.entries, path)
	c.gens[path]++
	c.mu.Unlock()
	return nil
}

// Purge clears the entire cache.
func (c *PageCache) Purge() {
	c.mu.Lock()
	c.epoch++
	c.entries = make(map[string]map[string]*entry)
	c.mu.Unlock()
}

// Len drops expired bodies and returns the number left.
func (c *PageCache) Len() int {
	now := c.now()
	c.mu.Lock()
	defer c.mu.Unlock()
	n := 0
	for path, variants := range c.entries {
		for k, e := range variants {
			if c.expired(e, now) {
				c.drop(path, k)
				continue
			}
			n++
		}
	}
	return n
}
