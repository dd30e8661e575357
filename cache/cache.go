// Package cache implements a bounded LRU cache with per-entry TTL,
// observer hooks, a background expiry sweeper, and snapshot/restore
// persistence. One Cache instance is one independent, thread-safe core;
// instances share no runtime state.
package cache

import (
	"bufio"
	"bytes"
	"container/list"
	"encoding/json"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"infratoolkit/byteconv"
	"infratoolkit/chanutil"
	"infratoolkit/compressor"
)

// Options configures a Cache. MaxSize is mandatory and must be > 0.
// DefaultTTL of 0 means entries never expire unless Set is called with an
// explicit per-entry TTL. CleanupInterval of 0 disables the sweeper.
// MaxMemoryMB of 0 means no memory bound.
type Options struct {
	MaxSize         int
	DefaultTTL      time.Duration
	EnableMetrics   bool
	CleanupInterval time.Duration
	MaxMemoryMB     int
	Compressor      compressor.Compresser
	Observers       []Observer
	Name            string
}

// Cache is a bounded key/value store with LRU eviction and TTL expiry.
// The zero value is not usable; construct with New.
type Cache[T any] struct {
	mu    sync.Mutex
	opts  Options
	items map[string]*list.Element
	order *list.List

	metrics Metrics

	stop       *chanutil.StopSignal
	sweeperWG  sync.WaitGroup
	sweeperRan bool
}

// New constructs a Cache from opts and, if CleanupInterval > 0, starts the
// background sweeper goroutine immediately.
func New[T any](opts Options) *Cache[T] {
	if opts.MaxSize <= 0 {
		opts.MaxSize = 1
	}
	if opts.Compressor == nil {
		opts.Compressor = compressor.NoneCompressor{}
	}

	c := &Cache[T]{
		opts:  opts,
		items: make(map[string]*list.Element, opts.MaxSize),
		order: list.New(),
		stop:  chanutil.NewStopSignal(),
	}

	if opts.CleanupInterval > 0 {
		c.startSweeper()
	}

	return c
}

// Get returns the value for key and whether it was a live hit. A hit on an
// expired entry is observationally a miss plus one expiration, per the
// cache's documented semantics.
func (c *Cache[T]) Get(key string) (T, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	var zero T
	el, ok := c.items[key]
	if !ok {
		c.metrics.Misses++
		c.notify(func(o Observer) { o.OnMiss(key) })
		return zero, false
	}

	e := el.Value.(*entry[T])
	now := time.Now()
	if e.isExpired(now) {
		c.removeElement(el)
		c.metrics.Misses++
		c.metrics.Expirations++
		c.notify(func(o Observer) { o.OnExpire(key) })
		return zero, false
	}

	c.order.MoveToFront(el)
	e.lastAccessed = now
	e.accessCount++
	c.metrics.Hits++
	c.notify(func(o Observer) { o.OnHit(key) })
	return e.value, true
}

// Set inserts or replaces key's value. A ttl of 0 uses Options.DefaultTTL;
// pass a negative ttl explicitly is treated the same as 0 (no override).
// After the insert, LRU eviction runs until both the entry-count and
// memory bounds (if configured) are satisfied.
func (c *Cache[T]) Set(key string, value T, ttl time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if ttl <= 0 {
		ttl = c.opts.DefaultTTL
	}

	now := time.Now()
	size := byteconv.EstimateSize(value)

	if el, ok := c.items[key]; ok {
		e := el.Value.(*entry[T])
		c.metrics.TotalSize += int64(size - e.size)
		e.value = value
		e.ttl = ttl
		e.createdAt = now
		e.lastAccessed = now
		e.size = size
		c.order.MoveToFront(el)
	} else {
		e := &entry[T]{
			key:          key,
			value:        value,
			createdAt:    now,
			lastAccessed: now,
			ttl:          ttl,
			size:         size,
		}
		el := c.order.PushFront(e)
		c.items[key] = el
		c.metrics.TotalSize += int64(size)
	}

	if c.metrics.TotalSize > c.metrics.PeakSize {
		c.metrics.PeakSize = c.metrics.TotalSize
	}

	c.metrics.Sets++
	c.notify(func(o Observer) { o.OnSet(key) })

	c.evict()
}

// evict removes least-recently-used entries until both the entry count and
// (if configured) the memory bound are satisfied. Caller must hold mu.
func (c *Cache[T]) evict() {
	maxBytes := int64(c.opts.MaxMemoryMB) * 1024 * 1024

	for len(c.items) > c.opts.MaxSize || (maxBytes > 0 && c.metrics.TotalSize > maxBytes) {
		back := c.order.Back()
		if back == nil {
			return
		}
		e := back.Value.(*entry[T])
		c.removeElement(back)
		c.metrics.Evictions++
		c.notify(func(o Observer) { o.OnEvict(e.key) })
	}
}

// removeElement deletes el from both the map and the list and adjusts the
// size gauge. Caller must hold mu.
func (c *Cache[T]) removeElement(el *list.Element) {
	e := el.Value.(*entry[T])
	delete(c.items, e.key)
	c.order.Remove(el)
	c.metrics.TotalSize -= int64(e.size)
}

// Delete removes key if present, returning whether it existed.
func (c *Cache[T]) Delete(key string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	el, ok := c.items[key]
	if !ok {
		return false
	}
	c.removeElement(el)
	c.metrics.Deletes++
	c.notify(func(o Observer) { o.OnDelete(key) })
	return true
}

// Clear removes every entry. It cannot fail.
func (c *Cache[T]) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.items = make(map[string]*list.Element, c.opts.MaxSize)
	c.order = list.New()
	c.metrics.TotalSize = 0
}

// Exists reports whether key is present and not expired, without affecting
// recency ordering or metrics.
func (c *Cache[T]) Exists(key string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	el, ok := c.items[key]
	if !ok {
		return false
	}
	return !el.Value.(*entry[T]).isExpired(time.Now())
}

// Keys returns a materialized snapshot of all non-expired keys,
// purging any expired entries it encounters along the way.
func (c *Cache[T]) Keys() []string {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.purgeExpiredLocked()

	keys := make([]string, 0, len(c.items))
	for el := c.order.Front(); el != nil; el = el.Next() {
		keys = append(keys, el.Value.(*entry[T]).key)
	}
	return keys
}

// Values returns a materialized snapshot of all non-expired values, in
// recency order (most-recent first).
func (c *Cache[T]) Values() []T {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.purgeExpiredLocked()

	values := make([]T, 0, len(c.items))
	for el := c.order.Front(); el != nil; el = el.Next() {
		values = append(values, el.Value.(*entry[T]).value)
	}
	return values
}

// Items returns a materialized snapshot of all non-expired key/value pairs.
func (c *Cache[T]) Items() map[string]T {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.purgeExpiredLocked()

	items := make(map[string]T, len(c.items))
	for k, el := range c.items {
		items[k] = el.Value.(*entry[T]).value
	}
	return items
}

// purgeExpiredLocked removes every currently-expired entry, firing OnExpire
// for each. Caller must hold mu.
func (c *Cache[T]) purgeExpiredLocked() {
	now := time.Now()
	var next *list.Element
	for el := c.order.Front(); el != nil; el = next {
		next = el.Next()
		e := el.Value.(*entry[T])
		if e.isExpired(now) {
			c.removeElement(el)
			c.metrics.Expirations++
			c.notify(func(o Observer) { o.OnExpire(e.key) })
		}
	}
}

// GetMany returns the hit subset of keys, applying the same expiry and
// recency semantics as Get for each.
func (c *Cache[T]) GetMany(keys []string) map[string]T {
	result := make(map[string]T, len(keys))
	for _, k := range keys {
		if v, ok := c.Get(k); ok {
			result[k] = v
		}
	}
	return result
}

// SetMany applies Set for every entry in values with a uniform ttl.
func (c *Cache[T]) SetMany(values map[string]T, ttl time.Duration) {
	for k, v := range values {
		c.Set(k, v, ttl)
	}
}

// Size returns the current entry count.
func (c *Cache[T]) Size() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.items)
}

// MemoryUsage returns the current total estimated byte size of all
// entries.
func (c *Cache[T]) MemoryUsage() int64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.metrics.TotalSize
}

// Metrics returns a copy of the current counters and gauges.
func (c *Cache[T]) Metrics() Metrics {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.metrics
}

// AddObserver registers an additional observer.
func (c *Cache[T]) AddObserver(o Observer) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.opts.Observers = append(c.opts.Observers, o)
}

// notify dispatches an event to every registered observer while mu is
// still held, per the documented "observers run after the mutation
// commits, under the lock" contract. Caller must hold mu.
func (c *Cache[T]) notify(call func(Observer)) {
	if len(c.opts.Observers) == 0 {
		return
	}
	dispatch(c.opts.Observers, call)
}

// snapshotRecord is one newline-delimited JSON record in a Snapshot blob.
type snapshotRecord[T any] struct {
	Key          string        `json:"key"`
	Value        T             `json:"value"`
	CreatedAtUTC time.Time     `json:"creation_time"`
	TTL          time.Duration `json:"ttl"`
	AccessCount  int64         `json:"access_count"`
}

// Snapshot encodes every non-expired entry as newline-delimited JSON,
// optionally compressed by Options.Compressor, and returns the opaque
// blob. Order follows current recency (most-recent first).
func (c *Cache[T]) Snapshot() ([]byte, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.purgeExpiredLocked()

	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	for el := c.order.Front(); el != nil; el = el.Next() {
		e := el.Value.(*entry[T])
		rec := snapshotRecord[T]{
			Key:          e.key,
			Value:        e.value,
			CreatedAtUTC: e.createdAt.UTC(),
			TTL:          e.ttl,
			AccessCount:  e.accessCount,
		}
		if err := enc.Encode(rec); err != nil {
			return nil, errSnapshotEncode(err)
		}
	}

	compressed, err := c.opts.Compressor.Compress(buf.Bytes())
	if err != nil {
		return nil, errSnapshotEncode(err)
	}
	return compressed, nil
}

// Restore decodes a blob produced by Snapshot, replacing the cache's
// current contents. Any record whose creation_time+ttl predates now is
// dropped rather than restored.
func (c *Cache[T]) Restore(blob []byte) error {
	raw, err := c.opts.Compressor.Decompress(blob)
	if err != nil {
		return errSnapshotDecode(err)
	}

	var records []snapshotRecord[T]
	sc := bufio.NewScanner(bytes.NewReader(raw))
	sc.Buffer(make([]byte, 0, 64*1024), 64*1024*1024)
	for sc.Scan() {
		line := sc.Bytes()
		if len(bytes.TrimSpace(line)) == 0 {
			continue
		}
		var rec snapshotRecord[T]
		if err := json.Unmarshal(line, &rec); err != nil {
			return errSnapshotDecode(err)
		}
		records = append(records, rec)
	}
	if err := sc.Err(); err != nil {
		return errSnapshotDecode(err)
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	now := time.Now()
	c.items = make(map[string]*list.Element, c.opts.MaxSize)
	c.order = list.New()
	c.metrics.TotalSize = 0

	for _, rec := range records {
		if rec.TTL > 0 && rec.CreatedAtUTC.Add(rec.TTL).Before(now) {
			continue
		}
		size := byteconv.EstimateSize(rec.Value)
		e := &entry[T]{
			key:          rec.Key,
			value:        rec.Value,
			createdAt:    rec.CreatedAtUTC,
			lastAccessed: rec.CreatedAtUTC,
			ttl:          rec.TTL,
			size:         size,
			accessCount:  rec.AccessCount,
		}
		el := c.order.PushBack(e)
		c.items[rec.Key] = el
		c.metrics.TotalSize += int64(size)
	}
	c.evict()

	return nil
}

// startSweeper launches the single background worker that wakes every
// CleanupInterval to purge expired entries, shutting down cleanly when
// Stop is called.
func (c *Cache[T]) startSweeper() {
	c.sweeperRan = true
	c.sweeperWG.Add(1)
	go func() {
		defer c.sweeperWG.Done()
		ticker := time.NewTicker(c.opts.CleanupInterval)
		defer ticker.Stop()

		for {
			select {
			case <-c.stop.Done():
				return
			case <-ticker.C:
				func() {
					defer func() {
						if r := recover(); r != nil {
							logrus.WithFields(logrus.Fields{"panic": r, "cache": c.opts.Name}).Error("cache sweeper recovered from panic")
						}
					}()
					c.mu.Lock()
					c.purgeExpiredLocked()
					c.mu.Unlock()
				}()
			}
		}
	}()
}

// Stop halts the background sweeper, if running, and waits for it to
// exit. Safe to call more than once and safe to call when no sweeper was
// ever started.
func (c *Cache[T]) Stop() {
	c.stop.Stop()
	if c.sweeperRan {
		c.sweeperWG.Wait()
	}
}

func errSnapshotEncode(cause error) error {
	return wrapSerialization("encode snapshot record", cause)
}

func errSnapshotDecode(cause error) error {
	return wrapSerialization("decode snapshot record", cause)
}
