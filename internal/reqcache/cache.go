// Package reqcache is a session-scoped read-through cache for idempotent GET
// requests. Entries are keyed by URL, query parameters and bearer token, live
// for a TTL, and are purged wholesale the first time the cache is used after
// a hard reload.
package reqcache

import (
	"context"
	"encoding/json"
	"log/slog"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// DefaultTTL is how long an entry stays fresh unless overridden per request.
const DefaultTTL = 5 * time.Minute

// Options configures a Cache.
type Options struct {
	// Storage holds the entries. A nil Storage disables caching.
	Storage Storage

	// Navigation reports whether this session started with a reload.
	// Nil means no navigation is known and the reload purge never runs.
	Navigation Navigation

	// TTL overrides DefaultTTL.
	TTL time.Duration

	// Now overrides the clock, for tests.
	Now func() time.Time

	Logger *slog.Logger
}

// RequestOptions tune a single cached request.
type RequestOptions struct {
	// TTL overrides the cache TTL for this read.
	TTL time.Duration

	// Force skips the cache read. A successful response is still stored.
	Force bool
}

// Entry is the persisted form of a cached response.
type Entry struct {
	T      int64           `json:"t"`
	Data   json.RawMessage `json:"data"`
	Status int             `json:"status,omitempty"`
}

// StatusCode returns the recorded status, defaulting to 200.
func (e *Entry) StatusCode() int {
	if e.Status == 0 {
		return 200
	}
	return e.Status
}

// lookup is the outcome of reading a key.
type lookup int

const (
	lookupMiss lookup = iota
	lookupHit
	lookupExpired
	lookupCorrupt
	lookupFault
)

func (l lookup) String() string {
	switch l {
	case lookupHit:
		return "hit"
	case lookupExpired:
		return "expired"
	case lookupCorrupt:
		return "corrupt"
	case lookupFault:
		return "fault"
	default:
		return "miss"
	}
}

// Cache is the response cache. Construct one per process; the reload check
// state lives on the instance. A nil *Cache passes every request through.
type Cache struct {
	storage Storage
	nav     Navigation
	ttl     time.Duration
	now     func() time.Time
	logger  *slog.Logger
	metrics *metrics

	purgeMu       sync.Mutex
	reloadChecked bool
}

// New creates a Cache.
func New(opts Options) *Cache {
	c := &Cache{
		storage: opts.Storage,
		nav:     opts.Navigation,
		ttl:     opts.TTL,
		now:     opts.Now,
		logger:  opts.Logger,
		metrics: newMetrics(),
	}
	if c.ttl <= 0 {
		c.ttl = DefaultTTL
	}
	if c.now == nil {
		c.now = time.Now
	}
	if c.logger == nil {
		c.logger = slog.Default()
	}
	return c
}

// Disabled returns a cache that never stores anything.
func Disabled() *Cache {
	return New(Options{})
}

func (c *Cache) enabled() bool {
	return c != nil && c.storage != nil
}

// Registry exposes the cache counters for scraping.
func (c *Cache) Registry() *prometheus.Registry {
	if c == nil {
		return prometheus.NewRegistry()
	}
	return c.metrics.registry
}

// Stats returns the current counter values.
func (c *Cache) Stats() Stats {
	if c == nil {
		return Stats{}
	}
	return c.metrics.snapshot()
}

// Len counts the cache keys currently in storage, fresh or not.
func (c *Cache) Len(ctx context.Context) (int, error) {
	if !c.enabled() {
		return 0, nil
	}
	keys, err := c.storage.Keys(ctx, Prefix)
	if err != nil {
		return 0, err
	}
	return len(keys), nil
}

// Clear removes every cache key from storage and returns how many were
// removed. Keys outside the cache prefix are left alone.
func (c *Cache) Clear(ctx context.Context) (int, error) {
	if !c.enabled() {
		return 0, nil
	}
	keys, err := c.storage.Keys(ctx, Prefix)
	if err != nil {
		return 0, err
	}
	removed := 0
	for _, k := range keys {
		if err := c.storage.Delete(ctx, k); err != nil {
			return removed, err
		}
		removed++
	}
	c.metrics.purges.Inc()
	return removed, nil
}

// Close releases the storage.
func (c *Cache) Close() error {
	if !c.enabled() {
		return nil
	}
	return c.storage.Close()
}

// purgeOnReload runs the reload check once per instance and clears the
// namespace if the session started with a reload.
func (c *Cache) purgeOnReload(ctx context.Context) {
	c.purgeMu.Lock()
	defer c.purgeMu.Unlock()

	if c.reloadChecked {
		return
	}
	c.reloadChecked = true
	if !IsReload(c.nav) {
		return
	}
	n, err := c.Clear(ctx)
	if err != nil {
		c.logger.Debug("cache reload purge failed", "removed", n, "error", err)
		return
	}
	c.logger.Debug("cache purged after reload", "removed", n)
}

func (c *Cache) ttlFor(opts RequestOptions) time.Duration {
	if opts.TTL > 0 {
		return opts.TTL
	}
	return c.ttl
}

// read looks key up. Anything but a fresh, well-formed entry is a miss.
func (c *Cache) read(ctx context.Context, key string, ttl time.Duration) (*Entry, lookup) {
	raw, err := c.storage.Get(ctx, key)
	if err != nil {
		c.logger.Debug("cache read failed", "key", key, "error", err)
		return nil, lookupFault
	}
	if len(raw) == 0 {
		return nil, lookupMiss
	}

	var e Entry
	if err := json.Unmarshal(raw, &e); err != nil || e.T == 0 {
		return nil, lookupCorrupt
	}
	if c.now().UnixMilli()-e.T > ttl.Milliseconds() {
		if err := c.storage.Delete(ctx, key); err != nil {
			c.logger.Debug("cache evict failed", "key", key, "error", err)
		}
		return nil, lookupExpired
	}
	if len(e.Data) == 0 {
		e.Data = json.RawMessage("null")
	}
	return &e, lookupHit
}

// write stores data under key. Failures are logged and swallowed.
func (c *Cache) write(ctx context.Context, key string, data json.RawMessage, status int) {
	if !json.Valid(data) {
		c.metrics.write(writeSkipped)
		return
	}
	raw, err := json.Marshal(Entry{T: c.now().UnixMilli(), Data: data, Status: status})
	if err != nil {
		c.metrics.write(writeSkipped)
		return
	}
	if err := c.storage.Set(ctx, key, raw); err != nil {
		c.metrics.write(writeFailed)
		c.logger.Debug("cache write failed", "key", key, "error", err)
		return
	}
	c.metrics.write(writeStored)
}

// lookupKey is the shared read path: reload purge, then read unless forced.
func (c *Cache) lookupKey(ctx context.Context, key string, opts RequestOptions) *Entry {
	c.purgeOnReload(ctx)

	if opts.Force {
		c.metrics.request(resultBypass)
		return nil
	}
	e, res := c.read(ctx, key, c.ttlFor(opts))
	if res == lookupHit {
		c.metrics.request(resultHit)
		c.logger.Debug("cache hit", "key", key)
		return e
	}
	c.metrics.request(resultMiss)
	c.logger.Debug("cache miss", "key", key, "lookup", res.String())
	return nil
}
