// Package certcache keeps certificate-authority bundles in memory so
// that building a TLS context does not hit the disk on every new
// connection.
//
// An entry is reloaded when its file is modified after the entry was
// last accessed, and dropped once it has not been used for an hour.
// Eviction is an O(n) sweep performed on every Get; the number of
// distinct CA paths in a process is small.
package certcache

import (
	"io/fs"
	"os"
	"sync"
	"time"

	ncerr "collectlink/internal/errors"
	"collectlink/internal/metrics"
	"collectlink/util"
)

// DefaultMaxIdle is how long an unused entry stays cached.
const DefaultMaxIdle = time.Hour

// entry is never mutated after creation except for lastAccess; a
// changed file produces a new entry and new bytes.
type entry struct {
	lastAccess time.Time
	content    []byte
}

// Cache maps a certificate path to its content.  It is safe for
// concurrent use and meant to be shared by every TLS connection of a
// process.
type Cache struct {
	mu      sync.Mutex
	entries map[string]*entry
	maxIdle time.Duration

	logger  *util.Logger
	metrics *metrics.Collector

	// Replaceable in tests.
	now      func() time.Time
	stat     func(string) (fs.FileInfo, error)
	readFile func(string) ([]byte, error)
}

// Option configures a Cache.
type Option func(*Cache)

// WithMaxIdle overrides [DefaultMaxIdle].
func WithMaxIdle(d time.Duration) Option {
	return func(c *Cache) {
		if d > 0 {
			c.maxIdle = d
		}
	}
}

// WithLogger sets the logger used for load and evict events.
func WithLogger(l *util.Logger) Option {
	return func(c *Cache) { c.logger = l }
}

// WithMetrics sets the collector receiving hit/miss/evict counters.
func WithMetrics(m *metrics.Collector) Option {
	return func(c *Cache) { c.metrics = m }
}

// New returns an empty cache.
func New(opts ...Option) *Cache {
	c := &Cache{
		entries:  make(map[string]*entry),
		maxIdle:  DefaultMaxIdle,
		now:      time.Now,
		stat:     os.Stat,
		readFile: os.ReadFile,
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

// Get returns the content of the certificate file at path.
//
// The returned slice is shared with other callers and must not be
// modified.  Errors are *errors.CertificateError.
func (c *Cache) Get(path string) ([]byte, error) {
	now := c.now()

	c.mu.Lock()
	if e, ok := c.entries[path]; ok {
		fi, err := c.stat(path)
		if err != nil {
			delete(c.entries, path)
			c.evict(now)
			c.mu.Unlock()
			return nil, &ncerr.CertificateError{Path: path, Op: "stat", Err: err}
		}
		if fi.ModTime().After(e.lastAccess) {
			c.logger.Verbose("certificate %s modified on disk, reloading", path)
			c.metrics.CertCacheReload()
			delete(c.entries, path)
		} else {
			e.lastAccess = now
			c.evict(now)
			c.mu.Unlock()
			c.metrics.CertCacheHit()
			return e.content, nil
		}
	}
	c.evict(now)
	c.mu.Unlock()

	// The file is read without holding the lock.
	content, err := c.readFile(path)
	if err != nil {
		op := "read"
		if os.IsNotExist(err) || os.IsPermission(err) {
			op = "open"
		}
		return nil, &ncerr.CertificateError{Path: path, Op: op, Err: err}
	}
	c.metrics.CertCacheMiss()
	c.logger.Debug("certificate %s loaded (%d bytes)", path, len(content))

	c.mu.Lock()
	c.entries[path] = &entry{lastAccess: now, content: content}
	c.mu.Unlock()
	return content, nil
}

// Len returns the number of cached entries.
func (c *Cache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}

// evict drops every entry unused for longer than maxIdle.  c.mu must be
// held.
func (c *Cache) evict(now time.Time) {
	limit := now.Add(-c.maxIdle)
	n := 0
	for path, e := range c.entries {
		if e.lastAccess.Before(limit) {
			delete(c.entries, path)
			c.logger.Debug("certificate %s evicted, unused since %s", path, e.lastAccess.Format(time.RFC3339))
			n++
		}
	}
	c.metrics.CertCacheEvicted(n)
}
