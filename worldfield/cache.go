package worldfield

import "github.com/sirupsen/logrus"

// CacheKey identifies a cached tile. Not every field is meaningful for
// every provider: spatial-only providers (terrain, climate, geology) leave
// HasWindow false; time-varying providers (vegetation, animal) and the
// weather provider's window-keyed event lists set it, per spec.md §4.3's
// per-provider key table.
type CacheKey struct {
	Domain           DomainID
	Tile             TileID
	Resolution       ResolutionTier
	AuthoringVersion AuthoringVersion
	HasWindow        bool
	WindowStart      int64
	WindowTicks      int64
}

func (k CacheKey) matches(o CacheKey) bool {
	if k.Domain != o.Domain || k.Tile != o.Tile || k.Resolution != o.Resolution || k.AuthoringVersion != o.AuthoringVersion {
		return false
	}
	if k.HasWindow != o.HasWindow {
		return false
	}
	if k.HasWindow && (k.WindowStart != o.WindowStart || k.WindowTicks != o.WindowTicks) {
		return false
	}
	return true
}

// cacheEntry is one cache slot.
type cacheEntry struct {
	key         CacheKey
	lastUsed    uint64
	insertOrder uint64
	valid       bool
	tile        *Tile
}

// Cache is the fixed-capacity LRU tile cache of spec.md §4.3. Lookup is a
// linear scan over all slots, by design: spec.md's design notes forbid
// introducing a secondary hash index without a specification version bump,
// because that would risk silently changing the eviction tie-break
// semantics the determinism tests in spec.md §8 depend on.
type Cache struct {
	slots           []cacheEntry
	count           int
	useCounter      uint64
	nextInsertOrder uint64
	logger          logrus.FieldLogger
}

// NewCache constructs a cache with the given fixed capacity.
func NewCache(capacity int, logger logrus.FieldLogger) *Cache {
	return &Cache{
		slots:  make([]cacheEntry, capacity),
		logger: Logger(logger),
	}
}

// Capacity returns the cache's fixed slot count.
func (c *Cache) Capacity() int { return len(c.slots) }

// Count returns the number of occupied slots.
func (c *Cache) Count() int { return c.count }

// Get looks up a tile by key. On a hit it bumps the entry's last-used
// counter (making it the most-recently-used for eviction purposes) and
// returns the tile; the returned pointer is a borrowed reference valid
// only until the next mutating Cache operation (spec.md §5).
func (c *Cache) Get(key CacheKey) (*Tile, bool) {
	for i := range c.slots {
		s := &c.slots[i]
		if !s.valid || !s.key.matches(key) {
			continue
		}
		c.useCounter++
		s.lastUsed = c.useCounter
		return s.tile, true
	}
	return nil, false
}

// Peek is like Get but does not update recency, for read-only inspection
// (e.g. diagnostics) that must not perturb eviction order.
func (c *Cache) Peek(key CacheKey) (*Tile, bool) {
	for i := range c.slots {
		s := &c.slots[i]
		if s.valid && s.key.matches(key) {
			return s.tile, true
		}
	}
	return nil, false
}

// Put installs tile under key, evicting the least-recently-used slot
// (ties broken by smallest insert_order, i.e. oldest wins eviction) if the
// cache is full. The evicted tile's buffers are released before reuse.
func (c *Cache) Put(key CacheKey, tile *Tile) {
	if len(c.slots) == 0 {
		return
	}
	for i := range c.slots {
		if !c.slots[i].valid {
			c.install(i, key, tile)
			return
		}
	}
	victim := c.pickEvictionVictim()
	c.logger.WithFields(logrus.Fields{
		"evicted_tile":  c.slots[victim].key.Tile,
		"evicted_domain": c.slots[victim].key.Domain,
	}).Debug("worldfield: cache eviction")
	c.slots[victim].tile = nil // release the evicted tile's buffers
	c.install(victim, key, tile)
}

func (c *Cache) pickEvictionVictim() int {
	victim := 0
	for i := 1; i < len(c.slots); i++ {
		if c.slots[i].lastUsed < c.slots[victim].lastUsed {
			victim = i
			continue
		}
		if c.slots[i].lastUsed == c.slots[victim].lastUsed && c.slots[i].insertOrder < c.slots[victim].insertOrder {
			victim = i
		}
	}
	return victim
}

func (c *Cache) install(slot int, key CacheKey, tile *Tile) {
	wasValid := c.slots[slot].valid
	c.useCounter++
	c.nextInsertOrder++
	c.slots[slot] = cacheEntry{
		key:         key,
		lastUsed:    c.useCounter,
		insertOrder: c.nextInsertOrder,
		valid:       true,
		tile:        tile,
	}
	if !wasValid {
		c.count++
	}
}

// InvalidateDomain frees every entry belonging to domain, as happens when
// SetPolicy bumps the authoring version.
func (c *Cache) InvalidateDomain(domain DomainID) {
	freed := 0
	for i := range c.slots {
		if c.slots[i].valid && c.slots[i].key.Domain == domain {
			c.slots[i] = cacheEntry{}
			c.count--
			freed++
		}
	}
	if freed > 0 {
		c.logger.WithFields(logrus.Fields{"domain": domain, "freed": freed}).Debug("worldfield: cache invalidated")
	}
}

// InvalidateTile frees every entry whose TileID matches id, regardless of
// the rest of the key — used by collapse_tile, which must shadow all
// cached resolutions of a region it is about to summarize into a capsule.
func (c *Cache) InvalidateTile(domain DomainID, id TileID) {
	for i := range c.slots {
		if c.slots[i].valid && c.slots[i].key.Domain == domain && c.slots[i].key.Tile == id {
			c.slots[i] = cacheEntry{}
			c.count--
		}
	}
}
