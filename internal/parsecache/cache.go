// SPDX-License-Identifier: Apache-2.0

// Package parsecache memoises the two parse artifacts (grammar AST and
// CST) plus diagnostics for a statement, keyed by the statement's content
// hash (§4.3). Entries are evicted least-recently-used once the cache
// grows past its bound, and concurrent misses on the same key collapse to
// a single parse.
package parsecache

import (
	"container/list"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"sync"

	"golang.org/x/sync/singleflight"

	"github.com/pgsqlls/pgsqlls/internal/cst"
	"github.com/pgsqlls/pgsqlls/internal/pgastparse"
)

// MinCapacity is the floor the spec requires ("at least 256"); see
// DESIGN.md's Open Question decision for why a plain LRU was chosen over
// an external cache library.
const MinCapacity = 256

// Entry is the memoised parse artifact bundle for one statement's text.
type Entry struct {
	Grammar pgastparse.Result
	CST     *cst.Tree
}

// Key is the content hash a statement's text is addressed by.
type Key string

// HashText derives the cache key from statement text.
func HashText(text string) Key {
	sum := sha256.Sum256([]byte(text))
	return Key(hex.EncodeToString(sum[:]))
}

type node struct {
	key   Key
	entry Entry
}

// Cache is a bounded, concurrency-safe LRU of parse Entry values, with
// singleflight collapsing of concurrent misses per key.
type Cache struct {
	mu       sync.Mutex
	capacity int
	ll       *list.List
	items    map[Key]*list.Element

	group singleflight.Group
}

// New creates a Cache. capacity is raised to MinCapacity if lower.
func New(capacity int) *Cache {
	if capacity < MinCapacity {
		capacity = MinCapacity
	}
	return &Cache{
		capacity: capacity,
		ll:       list.New(),
		items:    make(map[Key]*list.Element),
	}
}

// Get returns the cached entry for key, if present, promoting it to
// most-recently-used.
func (c *Cache) Get(key Key) (Entry, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	el, ok := c.items[key]
	if !ok {
		return Entry{}, false
	}
	c.ll.MoveToFront(el)
	return el.Value.(*node).entry, true
}

// GetOrParse returns the cached entry for text's content hash, parsing
// and inserting it via parse on a miss. Concurrent callers racing on the
// same text collapse into a single call to parse.
func (c *Cache) GetOrParse(ctx context.Context, text string, parse func(context.Context, string) (Entry, error)) (Entry, error) {
	key := HashText(text)
	if e, ok := c.Get(key); ok {
		return e, nil
	}

	v, err, _ := c.group.Do(string(key), func() (any, error) {
		// Re-check under the singleflight lock: another goroutine may have
		// populated the cache between our Get above and this closure running.
		if e, ok := c.Get(key); ok {
			return e, nil
		}
		entry, err := parse(ctx, text)
		if err != nil {
			return Entry{}, err
		}
		c.put(key, entry)
		return entry, nil
	})
	if err != nil {
		return Entry{}, err
	}
	return v.(Entry), nil
}

func (c *Cache) put(key Key, entry Entry) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if el, ok := c.items[key]; ok {
		el.Value.(*node).entry = entry
		c.ll.MoveToFront(el)
		return
	}

	el := c.ll.PushFront(&node{key: key, entry: entry})
	c.items[key] = el

	if c.ll.Len() > c.capacity {
		c.evictOldest()
	}
}

func (c *Cache) evictOldest() {
	oldest := c.ll.Back()
	if oldest == nil {
		return
	}
	c.ll.Remove(oldest)
	n := oldest.Value.(*node)
	if n.entry.CST != nil {
		n.entry.CST.Close()
	}
	delete(c.items, n.key)
}

// Forget evicts the entry for key, if present, releasing any held CST
// tree. Used by internal/document to drop a retired statement's entry
// without disturbing the rest of the cache.
func (c *Cache) Forget(key Key) {
	c.mu.Lock()
	defer c.mu.Unlock()

	el, ok := c.items[key]
	if !ok {
		return
	}
	n := el.Value.(*node)
	if n.entry.CST != nil {
		n.entry.CST.Close()
	}
	c.ll.Remove(el)
	delete(c.items, key)
}

// Len reports the number of entries currently cached.
func (c *Cache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.ll.Len()
}

// Purge evicts every entry, releasing any held CST trees.
func (c *Cache) Purge() {
	c.mu.Lock()
	defer c.mu.Unlock()

	for _, el := range c.items {
		n := el.Value.(*node)
		if n.entry.CST != nil {
			n.entry.CST.Close()
		}
	}
	c.ll.Init()
	c.items = make(map[Key]*list.Element)
}
