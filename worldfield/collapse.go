package worldfield

// CollapseFuncs bundles the domain-specific hooks CollapseTile needs:
// building the tile to summarize and reducing it to a capsule. Every domain
// shares the surrounding cache-invalidation/append bookkeeping of spec.md
// §4.10; only tile construction and summarization differ.
type CollapseFuncs struct {
	// BuildTile constructs the tile at desc's coordinate/resolution. It is
	// called directly, bypassing the cache, since the tile is freed
	// immediately after summarization and never served to a query.
	BuildTile func(desc TileDesc) (*Tile, error)

	// Summarize reduces a built tile into a capsule. The capsule's ID and
	// Bounds are filled in by CollapseTile from desc; Summarize only needs
	// to populate Histograms/Averages/PopulationCounts/AccumI64.
	Summarize func(tile *Tile, capsule *Capsule)
}

// CollapseTile implements spec.md §4.10's collapse_tile: free any cache
// entry whose tile id matches desc (regardless of resolution/version),
// build a tile at the requested resolution, summarize it into a capsule,
// discard the tile, and append the capsule. Fails with ErrCapsuleArrayFull
// if the capsule store is at capacity; the cache invalidation has already
// happened in that case, matching spec.md's ordering ("frees... then
// builds... then appends; fails if capsule array full" — the free is not
// conditional on the append succeeding).
func CollapseTile(b *Base, desc TileDesc, bounds AABB, f CollapseFuncs) (CapsuleID, error) {
	id := desc.Coord.ID()
	b.Cache.InvalidateTile(b.ID, id)

	tile, err := f.BuildTile(desc)
	if err != nil {
		return 0, err
	}

	capsule := NewCapsule(CapsuleID(id), bounds)
	capsule.HasWindow = desc.WindowTicks > 0
	capsule.WindowStart = desc.WindowStart
	capsule.WindowTicks = desc.WindowTicks
	f.Summarize(tile, &capsule)

	if err := b.Capsules.Append(capsule); err != nil {
		return 0, err
	}
	return CapsuleID(id), nil
}
