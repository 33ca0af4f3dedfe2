package cache

import (
	"fmt"
	"os"

	cperrors "cacheproxy/pkg/errors"
)

// Entry is the handle a Resolver uses to materialize a cache miss. It wraps
// exactly one record and enforces the single-call cache_set contract of
// spec §4.5.
type Entry struct {
	cache   *Cache
	record  *record
	written bool
}

// Key returns the cache key this entry was claimed for.
func (e *Entry) Key() string { return e.record.key }

// FingerprintHex returns the hex-encoded MD5 fingerprint backing this
// entry's on-disk filename.
func (e *Entry) FingerprintHex() string { return e.record.fingerprintHex }

// Set writes data to the entry's backing file via a temp-file-then-rename
// sequence, so a reader can never observe a partially written file (spec
// §4.5 "disk layout"). It may be called at most once per resolve.
func (e *Entry) Set(data []byte) error {
	if e.written {
		return cperrors.NewCacheIOError("write", e.record.key, fmt.Errorf("cache_set called more than once"))
	}

	tmp := fmt.Sprintf("%s.tmp-%d", e.record.path, e.cache.nextTmpSuffix())
	f, err := os.OpenFile(tmp, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0o644)
	if err != nil {
		return cperrors.NewCacheIOError("write", e.record.key, err)
	}

	if _, err := f.Write(data); err != nil {
		f.Close()
		os.Remove(tmp)
		return cperrors.NewCacheIOError("write", e.record.key, err)
	}
	if err := f.Close(); err != nil {
		os.Remove(tmp)
		return cperrors.NewCacheIOError("write", e.record.key, err)
	}

	if err := os.Rename(tmp, e.record.path); err != nil {
		os.Remove(tmp)
		return cperrors.NewCacheIOError("write", e.record.key, err)
	}

	e.written = true
	return nil
}
