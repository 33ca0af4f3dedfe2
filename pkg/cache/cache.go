// Package cache implements the content cache of spec §4.5: a
// concurrency-safe, disk-backed, fingerprinted cache keyed by an opaque
// string (host+path, from pkg/request) with TTL expiry, a bucketed hash
// index, and single-flight coherence — at most one worker ever fetches a
// given key from origin while all others wait.
//
// Grounded on the teacher's pkg/transport/transport.go hostPool: a
// sync.Mutex + sync.Cond guarding a per-key record, generalized from "pool
// of idle connections per host" to "one entry per cache key with a FRESH /
// STALE / IN_FLIGHT automaton." Unlike the teacher's wait-with-timeout
// helper (which spawns a goroutine to call cond.Wait() and races it against
// time.After — see DESIGN.md), this cache uses a plain cond.Wait() loop:
// every transition away from IN_FLIGHT or away from a contended STALE
// broadcasts, so no waiter can be stranded, and the double-unlock hazard in
// the teacher's helper is avoided entirely.
package cache

import (
	"crypto/md5"
	"encoding/binary"
	"encoding/hex"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"time"

	"cacheproxy/pkg/constants"
	cperrors "cacheproxy/pkg/errors"
)

// status is the entry state machine of spec §4.5.
type status int

const (
	statusStale status = iota
	statusFresh
	statusInFlight
)

// record is one entry in the bucketed hash index (spec §3 "entry records").
type record struct {
	key            string
	fingerprintHex string
	path           string
	status         status
	users          int
	materializedAt time.Time
}

// Resolver computes the bytes for a cache miss. It MUST call e.Set exactly
// once on success (spec §4.5's cache_set contract). A non-nil return rolls
// the entry back to STALE (spec §9 Open Question 1).
type Resolver func(e *Entry) error

// Cache is a bucketed, fingerprinted, single-flight content cache.
type Cache struct {
	mu      sync.Mutex
	cond    *sync.Cond
	dir     string
	ttl     time.Duration
	buckets [][]*record
	users   int // cache-wide in-flight-reader count (spec §3 "Cache-wide users")
	closed  bool

	tmpCounter uint64
}

// New initializes the cache with (directory, ttl), creating directory if
// missing (spec §4.5).
func New(dir string, ttl time.Duration) (*Cache, error) {
	if err := os.MkdirAll(dir, 0o777); err != nil {
		return nil, cperrors.NewCacheIOError("mkdir", "", err)
	}

	c := &Cache{
		dir:     dir,
		ttl:     ttl,
		buckets: make([][]*record, constants.MinBucketCount),
	}
	c.cond = sync.NewCond(&c.mu)
	return c, nil
}

func fingerprint(key string) [16]byte {
	return md5.Sum([]byte(key))
}

func bucketIndex(fp [16]byte) uint64 {
	return binary.BigEndian.Uint64(fp[:8]) % constants.MinBucketCount
}

func hexOf(fp [16]byte) string {
	return hex.EncodeToString(fp[:])
}

// findOrCreate returns the record for key in its bucket, creating a new
// STALE/users=0 record if absent. Must be called with c.mu held.
func (c *Cache) findOrCreate(key string) *record {
	fp := fingerprint(key)
	idx := bucketIndex(fp)

	for _, r := range c.buckets[idx] {
		if r.key == key {
			return r
		}
	}

	r := &record{
		key:            key,
		fingerprintHex: hexOf(fp),
		path:           filepath.Join(c.dir, hexOf(fp)),
		status:         statusStale,
	}
	c.buckets[idx] = append(c.buckets[idx], r)
	return r
}

// Get implements the lookup algorithm of spec §4.5: the coordination loop
// over FRESH / IN_FLIGHT / STALE, the single-flight resolve path, and the
// read path. key must be non-empty (callers check Cacheable()/Key() first).
func (c *Cache) Get(key string, resolve Resolver) ([]byte, error) {
	c.mu.Lock()
	r := c.findOrCreate(key)

	for {
		switch r.status {
		case statusFresh:
			if time.Since(r.materializedAt) > c.ttl {
				r.status = statusStale
				continue
			}
			c.users++
			r.users++
			c.mu.Unlock()
			return c.readPath(r)

		case statusInFlight:
			c.cond.Wait()
			continue

		case statusStale:
			if r.users == 0 {
				c.users++
				r.users++
				r.status = statusInFlight
				c.mu.Unlock()
				return c.resolvePath(r, resolve)
			}
			c.cond.Wait()
			continue
		}
	}
}

// resolvePath runs the resolver (only the claiming worker reaches this) and
// transitions the entry to FRESH on success or back to STALE on failure,
// per spec §4.5 and the §9 Open Question 1 decision.
func (c *Cache) resolvePath(r *record, resolve Resolver) ([]byte, error) {
	e := &Entry{cache: c, record: r}
	resolveErr := resolve(e)

	c.mu.Lock()
	if resolveErr == nil && !e.written {
		resolveErr = cperrors.NewCacheIOError("resolve", r.key, fmt.Errorf("resolver returned without calling cache_set"))
	}

	if resolveErr != nil {
		r.status = statusStale
		r.users--
		c.users--
		c.mu.Unlock()
		c.cond.Broadcast()
		return nil, resolveErr
	}

	r.status = statusFresh
	r.materializedAt = time.Now()
	c.mu.Unlock()
	c.cond.Broadcast()

	return c.readPath(r)
}

// readPath opens the entry's file and reads its entire contents, then
// releases the claimed reader slot (spec §4.5 "Read path").
func (c *Cache) readPath(r *record) ([]byte, error) {
	data, err := os.ReadFile(r.path)

	c.mu.Lock()
	r.users--
	c.users--
	c.mu.Unlock()
	c.cond.Broadcast()

	if err != nil {
		return nil, cperrors.NewCacheIOError("read", r.key, err)
	}
	return data, nil
}

// Close spins (with sleep) until cache.users reaches zero, then frees all
// records (spec §4.5 "Shutdown"). On-disk files are left in place.
func (c *Cache) Close() {
	c.mu.Lock()
	for c.users > 0 {
		c.mu.Unlock()
		time.Sleep(10 * time.Millisecond)
		c.mu.Lock()
	}
	c.closed = true
	c.buckets = make([][]*record, constants.MinBucketCount)
	c.mu.Unlock()
}

func (c *Cache) nextTmpSuffix() uint64 {
	return atomic.AddUint64(&c.tmpCounter, 1)
}
