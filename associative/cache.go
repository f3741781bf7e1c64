package associative

import (
	"strings"
	"sync"
	"time"

	gocache "github.com/patrickmn/go-cache"
)

// DefaultTTL is how long retrieved associative content stays valid.
const DefaultTTL = 24 * time.Hour

const fingerprintLen = 200

// Fingerprint derives the cache key for an abstract: its first 200 characters
// after trimming. Abstracts sharing that prefix collapse to one cache slot;
// that collision is an accepted approximation, not a bug.
func Fingerprint(abstract string) string {
	trimmed := []rune(strings.TrimSpace(abstract))
	if len(trimmed) > fingerprintLen {
		trimmed = trimmed[:fingerprintLen]
	}
	return string(trimmed)
}

// Cache stores retrieved associative content per document, so unrelated
// documents never share entries. Entries past the TTL are ignored on read,
// not proactively evicted; memory stays bounded by the per-document nesting
// and DropDocument on session teardown.
type Cache struct {
	mu     sync.Mutex
	ttl    time.Duration
	perDoc map[string]*gocache.Cache
}

func NewCache() *Cache {
	return NewCacheWithTTL(DefaultTTL)
}

// NewCacheWithTTL builds a cache with a custom TTL. Intended for tests.
func NewCacheWithTTL(ttl time.Duration) *Cache {
	return &Cache{
		ttl:    ttl,
		perDoc: make(map[string]*gocache.Cache),
	}
}

func (c *Cache) Get(docID, fingerprint string) (string, bool) {
	c.mu.Lock()
	entries, ok := c.perDoc[docID]
	c.mu.Unlock()
	if !ok {
		return "", false
	}

	if content, found := entries.Get(fingerprint); found {
		return content.(string), true
	}
	return "", false
}

func (c *Cache) Put(docID, fingerprint, content string) {
	c.mu.Lock()
	entries, ok := c.perDoc[docID]
	if !ok {
		// Cleanup interval 0 disables the janitor: stale entries are only
		// ignored on read.
		entries = gocache.New(c.ttl, 0)
		c.perDoc[docID] = entries
	}
	c.mu.Unlock()

	entries.Set(fingerprint, content, gocache.DefaultExpiration)
}

// DropDocument discards all cached content for a document.
func (c *Cache) DropDocument(docID string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.perDoc, docID)
}
