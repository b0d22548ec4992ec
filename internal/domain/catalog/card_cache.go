package catalog

import (
	"math/rand/v2"
	"sync"
	"sync/atomic"
	"time"
)

const (
	DefaultRefreshAfter = 24 * time.Hour
	DefaultRetention    = 72 * time.Hour
)

// CacheConfig controls entry scheduling in the card cache.
type CacheConfig struct {
	// RefreshAfter is how long a price stays trusted after it was fetched.
	RefreshAfter time.Duration
	// Jitter spreads the first refresh of new entries over [0, Jitter).
	Jitter time.Duration
	// Retention is the idle time after which an entry may be evicted.
	Retention time.Duration
	// Now overrides the clock, mostly for tests.
	Now func() time.Time
}

func (c CacheConfig) withDefaults() CacheConfig {
	if c.RefreshAfter <= 0 {
		c.RefreshAfter = DefaultRefreshAfter
	}
	if c.Retention <= 0 {
		c.Retention = DefaultRetention
	}
	if c.Jitter < 0 {
		c.Jitter = 0
	}
	if c.Now == nil {
		c.Now = time.Now
	}
	return c
}

// Entry is a point-in-time copy of a cached card and its bookkeeping.
type Entry struct {
	Card         Card
	NextRefresh  time.Time
	LastAccessed time.Time
}

type cardEntry struct {
	card        Card
	nextRefresh time.Time
	// unix nanos; bumped by readers holding only the read lock
	lastAccessed atomic.Int64
}

func (e *cardEntry) touch(t time.Time) {
	e.lastAccessed.Store(t.UnixNano())
}

func (e *cardEntry) accessedAt() time.Time {
	return time.Unix(0, e.lastAccessed.Load())
}

func (e *cardEntry) snapshot() Entry {
	return Entry{Card: e.card, NextRefresh: e.nextRefresh, LastAccessed: e.accessedAt()}
}

// CardCache maps card ids to cached cards. It never performs I/O; misses are
// the caller's business. Readers always receive copies.
type CardCache struct {
	mu      sync.RWMutex
	entries map[string]*cardEntry
	cfg     CacheConfig
}

func NewCardCache(cfg CacheConfig) *CardCache {
	return &CardCache{
		entries: make(map[string]*cardEntry),
		cfg:     cfg.withDefaults(),
	}
}

// Get returns a copy of the card and marks it as accessed.
func (c *CardCache) Get(id string) (Card, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	e, ok := c.entries[id]
	if !ok {
		return Card{}, false
	}
	e.touch(c.cfg.Now())
	return e.card, true
}

// GetMany returns the cached subset of ids, in request order.
func (c *CardCache) GetMany(ids []string) []Card {
	now := c.cfg.Now()

	c.mu.RLock()
	defer c.mu.RUnlock()

	cards := make([]Card, 0, len(ids))
	for _, id := range ids {
		if e, ok := c.entries[id]; ok {
			e.touch(now)
			cards = append(cards, e.card)
		}
	}
	return cards
}

// GetBySet returns every cached card of the set.
func (c *CardCache) GetBySet(setID string) []Card {
	now := c.cfg.Now()

	c.mu.RLock()
	defer c.mu.RUnlock()

	var cards []Card
	for _, e := range c.entries {
		if e.card.Set.ID == setID {
			e.touch(now)
			cards = append(cards, e.card)
		}
	}
	return cards
}

// Entry returns the bookkeeping of one entry without counting as an access.
func (c *CardCache) Entry(id string) (Entry, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	e, ok := c.entries[id]
	if !ok {
		return Entry{}, false
	}
	return e.snapshot(), true
}

// Put inserts or replaces a card. Replacing keeps the existing refresh schedule.
func (c *CardCache) Put(card Card) {
	c.PutMany([]Card{card})
}

// PutMany inserts or replaces cards and reports how many ids were new.
func (c *CardCache) PutMany(cards []Card) int {
	if len(cards) == 0 {
		return 0
	}
	now := c.cfg.Now()

	c.mu.Lock()
	defer c.mu.Unlock()

	added := 0
	for _, card := range cards {
		if e, ok := c.entries[card.ID]; ok {
			e.card = card
			e.touch(now)
			continue
		}
		e := &cardEntry{card: card, nextRefresh: now.Add(c.cfg.RefreshAfter + c.jitter())}
		e.touch(now)
		c.entries[card.ID] = e
		added++
	}
	return added
}

// Restore loads previously persisted cards. Each restored entry becomes due
// one refresh period after its last pricing.
func (c *CardCache) Restore(cards []Card) int {
	now := c.cfg.Now()

	c.mu.Lock()
	defer c.mu.Unlock()

	restored := 0
	for _, card := range cards {
		if _, ok := c.entries[card.ID]; ok {
			continue
		}
		e := &cardEntry{card: card, nextRefresh: card.LastPriced.Add(c.cfg.RefreshAfter)}
		e.touch(now)
		c.entries[card.ID] = e
		restored++
	}
	return restored
}

// Outdated returns copies of every entry whose refresh time has passed.
func (c *CardCache) Outdated() []Entry {
	now := c.cfg.Now()

	c.mu.RLock()
	defer c.mu.RUnlock()

	var due []Entry
	for _, e := range c.entries {
		if !e.nextRefresh.After(now) {
			due = append(due, e.snapshot())
		}
	}
	return due
}

// UpdatePrice overwrites the price of a cached card and schedules its next
// refresh. It returns the updated card, or false if the id is no longer cached.
func (c *CardCache) UpdatePrice(id string, price float64, pricedAt time.Time) (Card, bool) {
	now := c.cfg.Now()

	c.mu.Lock()
	defer c.mu.Unlock()

	e, ok := c.entries[id]
	if !ok {
		return Card{}, false
	}
	e.card.Price = price
	e.card.LastPriced = pricedAt
	e.nextRefresh = now.Add(c.cfg.RefreshAfter)
	return e.card, true
}

// Defer pushes the refresh time of the given ids to until.
func (c *CardCache) Defer(ids []string, until time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()

	for _, id := range ids {
		if e, ok := c.entries[id]; ok {
			e.nextRefresh = until
		}
	}
}

// EvictStale removes entries idle for longer than the retention window and
// returns their ids. Entries listed in spare survive this sweep; price
// writes do not count as reads.
func (c *CardCache) EvictStale(spare ...string) []string {
	cutoff := c.cfg.Now().Add(-c.cfg.Retention)
	keep := make(map[string]struct{}, len(spare))
	for _, id := range spare {
		keep[id] = struct{}{}
	}

	c.mu.RLock()
	var stale []string
	for id, e := range c.entries {
		if _, ok := keep[id]; ok {
			continue
		}
		if e.accessedAt().Before(cutoff) {
			stale = append(stale, id)
		}
	}
	c.mu.RUnlock()

	if len(stale) == 0 {
		return nil
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	evicted := stale[:0]
	for _, id := range stale {
		// a reader may have touched it between the two locks
		if e, ok := c.entries[id]; ok && e.accessedAt().Before(cutoff) {
			delete(c.entries, id)
			evicted = append(evicted, id)
		}
	}
	return evicted
}

// All returns copies of every cached card.
func (c *CardCache) All() []Card {
	c.mu.RLock()
	defer c.mu.RUnlock()

	cards := make([]Card, 0, len(c.entries))
	for _, e := range c.entries {
		cards = append(cards, e.card)
	}
	return cards
}

func (c *CardCache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}

func (c *CardCache) jitter() time.Duration {
	if c.cfg.Jitter <= 0 {
		return 0
	}
	return time.Duration(rand.Int64N(int64(c.cfg.Jitter)))
}
