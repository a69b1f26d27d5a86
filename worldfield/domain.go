package worldfield

import "github.com/sirupsen/logrus"

// Base is the common state every domain package (terrain, climate,
// weather, geology, vegetation, animal) embeds: existence/archival state,
// policy + authoring version, cache, and capsule store. Each domain package
// defines its own SurfaceDesc, Sample and SampleQuery on top of this.
type Base struct {
	ID        DomainID
	Existence ExistenceState
	Archival  ArchivalState
	Policy    DomainPolicy
	Version   AuthoringVersion
	Cache     *Cache
	Capsules  *CapsuleStore
	Logger    logrus.FieldLogger
}

// NewBase constructs a Base. Domains start Declared/ArchivalNone, matching
// spec.md's lifecycle: a domain exists but does not yet serve queries
// until SetState promotes it to Realized (or ArchivalLive).
func NewBase(id DomainID, cacheCapacity, capsuleCapacity int, logger logrus.FieldLogger) Base {
	l := Logger(logger)
	return Base{
		ID:        id,
		Existence: Declared,
		Policy:    DefaultPolicy(),
		Cache:     NewCache(cacheCapacity, l),
		Capsules:  NewCapsuleStore(capsuleCapacity, l),
		Logger:    l,
	}
}

// Active reports whether this domain currently serves queries.
func (b *Base) Active() bool { return Active(b.Existence, b.Archival) }

// SetState updates existence/archival state.
func (b *Base) SetState(existence ExistenceState, archival ArchivalState) {
	b.Existence = existence
	b.Archival = archival
}

// SetPolicy installs a new policy and invalidates the cache, per spec.md
// §3: "Immutable after set_policy; setting a policy invalidates the
// cache." The authoring version is bumped unconditionally, even if the new
// policy is byte-identical to the old one, because a policy *change event*
// — not a value comparison — is what the spec ties cache invalidation to.
func (b *Base) SetPolicy(p DomainPolicy) {
	hadEntries := b.Cache.Count() > 0
	b.Policy = p
	b.Version++
	b.Cache.InvalidateDomain(b.ID)
	if hadEntries {
		b.Logger.WithField("domain", b.ID).Warn("worldfield: policy change invalidated a non-empty cache")
	}
}

// CapsuleCount returns the number of live capsules.
func (b *Base) CapsuleCount() int { return b.Capsules.Count() }

// CapsuleAt returns the capsule at index i.
func (b *Base) CapsuleAt(i int) (Capsule, error) { return b.Capsules.At(i) }

// ExpandTile removes the capsule with the given id.
func (b *Base) ExpandTile(id TileID) error { return b.Capsules.RemoveByID(CapsuleID(id)) }

// ExpandWindow removes the capsule with the given window id (capsule ids
// and window ids share the TileID/WindowID numeric space).
func (b *Base) ExpandWindow(id WindowID) error { return b.Capsules.RemoveByID(CapsuleID(id)) }
