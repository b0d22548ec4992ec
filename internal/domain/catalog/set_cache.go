package catalog

import (
	"sort"
	"sync/atomic"

	lru "github.com/hashicorp/golang-lru"
)

const defaultSetCacheSize = 1024

// SetCache keeps set metadata. Sets never change after release, so entries
// are only ever added; the LRU bound keeps a runaway catalog in check.
type SetCache struct {
	sets *lru.Cache
	// set once every set of the catalog has been loaded
	complete atomic.Bool
}

func NewSetCache(size int) *SetCache {
	if size <= 0 {
		size = defaultSetCacheSize
	}
	cache, _ := lru.New(size)
	return &SetCache{sets: cache}
}

func (c *SetCache) Get(id string) (Set, bool) {
	v, ok := c.sets.Get(id)
	if !ok {
		return Set{}, false
	}
	return v.(Set), true
}

func (c *SetCache) Put(set Set) {
	c.sets.Add(set.ID, set)
}

func (c *SetCache) PutMany(sets []Set) {
	for _, s := range sets {
		c.sets.Add(s.ID, s)
	}
}

// All returns every cached set ordered by release date, oldest first.
func (c *SetCache) All() []Set {
	keys := c.sets.Keys()
	sets := make([]Set, 0, len(keys))
	for _, k := range keys {
		if v, ok := c.sets.Peek(k); ok {
			sets = append(sets, v.(Set))
		}
	}
	sort.Slice(sets, func(i, j int) bool {
		if !sets[i].ReleaseDate.Equal(sets[j].ReleaseDate) {
			return sets[i].ReleaseDate.Before(sets[j].ReleaseDate)
		}
		return sets[i].ID < sets[j].ID
	})
	return sets
}

func (c *SetCache) MarkComplete() {
	c.complete.Store(true)
}

func (c *SetCache) Complete() bool {
	return c.complete.Load()
}

func (c *SetCache) Len() int {
	return c.sets.Len()
}
