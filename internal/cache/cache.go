// Package cache implements the two-tier translation cache: a bounded
// in-memory LRU in front of the durable SQLite store (spec.md §3 "Cache
// key", §4.9 "Cache").
package cache

import (
	"container/list"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"sync"
	"time"

	"github.com/nathanmartins/scryfallnl/internal/store"
)

const (
	memCapacity     = 1000
	memTTL          = 30 * time.Minute
	durableTTL      = 48 * time.Hour
	sweepEvery      = 50
	writeGateConf   = 0.65
)

// Key derives the cache key from the fingerprinted (shallow-normalized)
// input text plus the request's filters and salt, truncated to 16 hex
// chars (spec.md §3 "Cache key"). Using the fingerprint rather than the
// fully-normalized query means two queries whose slang expands
// differently still map to distinct entries.
func Key(fingerprint, filtersJSON, salt string) string {
	sum := sha256.Sum256([]byte(fingerprint + "|" + filtersJSON + "|" + salt))
	return hex.EncodeToString(sum[:])[:16]
}

type memEntry struct {
	key                 string
	query               string
	source              string
	explanationReadable string
	assumptions         []string
	confidence          float64
	showAffiliate       bool
	expires             time.Time
}

// Cache composes an in-memory LRU with a durable SQLite-backed tier.
type Cache struct {
	mu       sync.Mutex
	ll       *list.List
	index    map[string]*list.Element
	accesses int

	durable *store.Store
}

// New wraps a durable store. durable may be nil, in which case only the
// in-memory tier is used (useful for tests).
func New(durable *store.Store) *Cache {
	return &Cache{
		ll:      list.New(),
		index:   make(map[string]*list.Element),
		durable: durable,
	}
}

// Result is what a cache lookup returns on a hit, mirroring spec.md §3's
// CacheEntry (scryfallQuery plus the explanation triple and showAffiliate)
// so a cache hit can reproduce the original translation's response.
type Result struct {
	Query               string
	Source              string // "cache_memory" or "cache_durable"
	ExplanationReadable string
	Assumptions         []string
	Confidence          float64
	ShowAffiliate       bool
}

// Get checks the in-memory tier first, then the durable tier, promoting a
// durable hit back into memory.
func (c *Cache) Get(ctx context.Context, fingerprint, filtersJSON, salt string) (Result, bool) {
	key := Key(fingerprint, filtersJSON, salt)
	now := time.Now()

	c.mu.Lock()
	c.maybeSweep(now)
	if el, ok := c.index[key]; ok {
		e := el.Value.(*memEntry)
		if now.Before(e.expires) {
			c.ll.MoveToFront(el)
			c.mu.Unlock()
			return resultFromEntry(e, "cache_memory"), true
		}
		c.removeElement(el)
	}
	c.mu.Unlock()

	if c.durable == nil {
		return Result{}, false
	}
	entry, ok, err := c.durable.Get(ctx, key, now)
	if err != nil || !ok {
		return Result{}, false
	}

	c.mu.Lock()
	e := c.pushFront(key, entry.ScryfallQuery, entry.Source, entry.ExplanationReadable, entry.Assumptions, entry.Confidence, entry.ShowAffiliate, now)
	c.mu.Unlock()
	return resultFromEntry(e, "cache_durable"), true
}

func resultFromEntry(e *memEntry, source string) Result {
	return Result{
		Query:               e.query,
		Source:              source,
		ExplanationReadable: e.explanationReadable,
		Assumptions:         e.assumptions,
		Confidence:          e.confidence,
		ShowAffiliate:       e.showAffiliate,
	}
}

// PutParams carries the explanation/assumptions/confidence/showAffiliate
// fields spec.md §3's CacheEntry requires alongside the raw query.
type PutParams struct {
	InputText           string
	Query               string
	Source              string
	ExplanationReadable string
	Assumptions         []string
	Confidence          float64
	ShowAffiliate       bool
}

// Put writes through to memory unconditionally, and to the durable tier
// only when confidence clears the write gate (spec.md §4.9: "writes to the
// durable tier are gated on confidence >= 0.65, to avoid persisting a
// shaky LLM guess forever").
func (c *Cache) Put(ctx context.Context, fingerprint, filtersJSON, salt string, p PutParams) {
	key := Key(fingerprint, filtersJSON, salt)
	now := time.Now()

	c.mu.Lock()
	c.pushFront(key, p.Query, p.Source, p.ExplanationReadable, p.Assumptions, p.Confidence, p.ShowAffiliate, now)
	c.mu.Unlock()

	if c.durable == nil || p.Confidence < writeGateConf {
		return
	}
	_ = c.durable.Put(ctx, key, store.PutParams{
		InputText:           p.InputText,
		ScryfallQuery:       p.Query,
		Source:              p.Source,
		ExplanationReadable: p.ExplanationReadable,
		Assumptions:         p.Assumptions,
		Confidence:          p.Confidence,
		ShowAffiliate:       p.ShowAffiliate,
	}, durableTTL, now)
}

func (c *Cache) pushFront(key, query, source, explanationReadable string, assumptions []string, confidence float64, showAffiliate bool, now time.Time) *memEntry {
	if el, ok := c.index[key]; ok {
		c.removeElement(el)
	}
	e := &memEntry{
		key:                 key,
		query:               query,
		source:              source,
		explanationReadable: explanationReadable,
		assumptions:         assumptions,
		confidence:          confidence,
		showAffiliate:       showAffiliate,
		expires:             now.Add(memTTL),
	}
	el := c.ll.PushFront(e)
	c.index[key] = el
	for c.ll.Len() > memCapacity {
		back := c.ll.Back()
		if back != nil {
			c.removeElement(back)
		}
	}
	return e
}

func (c *Cache) removeElement(el *list.Element) {
	e := el.Value.(*memEntry)
	delete(c.index, e.key)
	c.ll.Remove(el)
}

// maybeSweep lazily evicts expired entries roughly every sweepEvery
// accesses rather than on a timer, per spec.md §4.9.
func (c *Cache) maybeSweep(now time.Time) {
	c.accesses++
	if c.accesses%sweepEvery != 0 {
		return
	}
	var expired []*list.Element
	for el := c.ll.Back(); el != nil; el = el.Prev() {
		if e := el.Value.(*memEntry); now.After(e.expires) {
			expired = append(expired, el)
		}
	}
	for _, el := range expired {
		c.removeElement(el)
	}
}
