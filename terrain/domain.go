package terrain

import (
	"github.com/spatialmodel/worldfield/fixedpoint"
	"github.com/spatialmodel/worldfield/worldfield"
)

var tileFields = []string{
	"phi", "slope", "roughness", "travel_cost",
	"material_primary", "material_secondary", "material_blend",
}

// Domain is a terrain field provider: a self-contained SDF surface with its
// own cache and capsule store (spec.md §4.4, embedding the shared
// worldfield.Base of spec.md §3).
type Domain struct {
	worldfield.Base
	Desc SurfaceDesc
}

// NewDomain constructs a terrain domain from desc. desc is deep-copied and
// normalized (no parent here, so normalize is a defensive copy only); a
// child domain fanned out from animal/vegetation passes its parent's desc
// to normalize separately before calling NewDomain.
func NewDomain(desc SurfaceDesc, cacheCapacity int) *Domain {
	const capsuleCapacity = 256
	base := worldfield.NewBase(desc.DomainID, cacheCapacity, capsuleCapacity, defaultLogger())
	return &Domain{Base: base, Desc: normalize(desc, nil)}
}

// SampleQuery answers one terrain point query via the shared resolution
// ladder. terrain is time-invariant, so (per spec.md §6) it takes no tick.
func (d *Domain) SampleQuery(p worldfield.Point, budget *worldfield.Budget) Sample {
	sample, meta := worldfield.RunLadder(worldfield.LadderFuncs[Sample]{
		Active:    d.Active(),
		HasSource: d.Desc.HasSource,
		Bounds:    d.Desc.Bounds,
		Point:     p,
		Policy:    d.Policy,
		Budget:    budget,
		Unknown:   unknownSample,
		Analytic:  d.Desc.Evaluate,
		GetOrBuildTile: func(tier worldfield.ResolutionTier) (*worldfield.Tile, bool, bool) {
			return d.getOrBuildTile(p, tier)
		},
		SampleTile: d.sampleTile,
	})
	sample.Meta = meta
	sample.Flags |= meta.Flags
	return sample
}

func (d *Domain) tileCoordFor(p worldfield.Point, tier worldfield.ResolutionTier) worldfield.TileCoord {
	size := d.Policy.TileSize
	return worldfield.TileCoord{
		TX:         int64(p.X.FloorDiv(size)),
		TY:         int64(p.Y.FloorDiv(size)),
		TZ:         int64(p.Z.FloorDiv(size)),
		Resolution: tier,
	}
}

// getOrBuildTile returns the cached tile covering p at tier, building and
// installing it on a miss. builtNow tells the ladder whether to charge the
// tile-build cost.
func (d *Domain) getOrBuildTile(p worldfield.Point, tier worldfield.ResolutionTier) (*worldfield.Tile, bool, bool) {
	sampleDim, ok := d.Policy.SampleDimFor(tier)
	if !ok {
		return nil, false, false
	}
	coord := d.tileCoordFor(p, tier)
	key := worldfield.CacheKey{Domain: d.ID, Tile: coord.ID(), Resolution: tier, AuthoringVersion: d.Version}
	if tile, hit := d.Cache.Get(key); hit {
		return tile, false, true
	}
	bounds := coord.Bounds(d.Policy.TileSize)
	tile := d.buildTile(coord.ID(), tier, sampleDim, bounds)
	d.Cache.Put(key, tile)
	return tile, true, true
}

// buildTile evaluates desc.Evaluate at every cell center of an N^3 grid
// covering bounds, matching the "tile grid consistency" invariant: a query
// at a cell's exact center must read back the same bytes FULL would
// produce there.
func (d *Domain) buildTile(id worldfield.TileID, tier worldfield.ResolutionTier, sampleDim int32, bounds worldfield.AABB) *worldfield.Tile {
	tile := worldfield.NewTile(id, tier, sampleDim, bounds, d.Version, tileFields)
	cell := cellSize(bounds, sampleDim)
	half := cell.Mul(fixedpoint.FromFloat(0.5))
	for iz := int32(0); iz < sampleDim; iz++ {
		z := bounds.Min.Z.Add(cell.Mul(fixedpoint.FromInt(iz))).Add(half)
		for iy := int32(0); iy < sampleDim; iy++ {
			y := bounds.Min.Y.Add(cell.Mul(fixedpoint.FromInt(iy))).Add(half)
			for ix := int32(0); ix < sampleDim; ix++ {
				x := bounds.Min.X.Add(cell.Mul(fixedpoint.FromInt(ix))).Add(half)
				s := d.Desc.Evaluate(worldfield.Point{X: x, Y: y, Z: z})
				tile.Set("phi", ix, iy, iz, s.Phi)
				tile.Set("slope", ix, iy, iz, s.Slope)
				tile.Set("roughness", ix, iy, iz, s.Roughness)
				tile.Set("travel_cost", ix, iy, iz, s.TravelCost)
				tile.Set("material_primary", ix, iy, iz, fixedpoint.FromInt(s.MaterialPrimary))
				tile.Set("material_secondary", ix, iy, iz, fixedpoint.FromInt(s.MaterialSecondary))
				tile.Set("material_blend", ix, iy, iz, s.MaterialBlend)
			}
		}
	}
	return tile
}

// cellSize assumes a cubic tile (bounds are equal-span on every axis, true
// for every tile this domain builds since TileCoord.Bounds always produces
// a cube) and uses the X span as representative.
func cellSize(bounds worldfield.AABB, sampleDim int32) fixedpoint.Q16 {
	span := bounds.Max.X.Sub(bounds.Min.X)
	return span.Div(fixedpoint.FromInt(sampleDim))
}

// sampleTile reads the nearest grid sample to p out of tile, per spec.md
// §4.2's banker's-rounding nearest-sample lookup.
func (d *Domain) sampleTile(tile *worldfield.Tile, p worldfield.Point) Sample {
	cell := cellSize(tile.Bounds, tile.SampleDim)
	ix := worldfield.NearestIndex(p.X, tile.Bounds.Min.X, cell, tile.SampleDim)
	iy := worldfield.NearestIndex(p.Y, tile.Bounds.Min.Y, cell, tile.SampleDim)
	iz := worldfield.NearestIndex(p.Z, tile.Bounds.Min.Z, cell, tile.SampleDim)

	phi := tile.At("phi", ix, iy, iz)
	slope := tile.At("slope", ix, iy, iz)
	roughness := tile.At("roughness", ix, iy, iz)
	travelCost := tile.At("travel_cost", ix, iy, iz)
	matP := tile.At("material_primary", ix, iy, iz)
	matS := tile.At("material_secondary", ix, iy, iz)
	blend := tile.At("material_blend", ix, iy, iz)

	s := Sample{
		Phi: phi, Slope: slope, Roughness: roughness, TravelCost: travelCost,
		MaterialPrimary: matP.Int(), MaterialSecondary: matS.Int(), MaterialBlend: blend,
	}
	if phi.IsUnknown() || slope.IsUnknown() || roughness.IsUnknown() || travelCost.IsUnknown() {
		s.Flags |= worldfield.FlagFieldsUnknown
	} else {
		s.Walkable = phi <= 0 && slope <= d.Desc.WalkableMaxSlope
	}
	return s
}

// CollapseTile summarizes the tile covering desc's coordinate into a
// capsule (spec.md §4.10).
func (d *Domain) CollapseTile(coord worldfield.TileCoord) (worldfield.CapsuleID, error) {
	bounds := coord.Bounds(d.Policy.TileSize)
	desc := worldfield.TileDesc{Coord: coord}
	return worldfield.CollapseTile(&d.Base, desc, bounds, worldfield.CollapseFuncs{
		BuildTile: func(worldfield.TileDesc) (*worldfield.Tile, error) {
			sampleDim, ok := d.Policy.SampleDimFor(coord.Resolution)
			if !ok {
				return nil, &worldfield.CallerError{Kind: worldfield.ErrZeroSampleDim, Msg: "terrain: sample_dim zero for resolution"}
			}
			return d.buildTile(coord.ID(), coord.Resolution, sampleDim, bounds), nil
		},
		Summarize: func(tile *worldfield.Tile, capsule *worldfield.Capsule) {
			summarizeTile(tile, capsule)
		},
	})
}

// summarizeTile reduces a terrain tile's fields into capsule histograms and
// averages. Shared shape with the other spatial-only providers (climate,
// geology) that also summarize plain N^3 tiles with no window dimension.
func summarizeTile(tile *worldfield.Tile, capsule *worldfield.Capsule) {
	n := tile.SampleDim
	for _, field := range tile.FieldNames() {
		hist := worldfield.Histogram{Min: fixedpoint.FromInt(-1), Max: fixedpoint.One}
		samples := make([]fixedpoint.Q16, 0, n*n*n)
		for iz := int32(0); iz < n; iz++ {
			for iy := int32(0); iy < n; iy++ {
				for ix := int32(0); ix < n; ix++ {
					v := tile.At(field, ix, iy, iz)
					hist.Add(v)
					samples = append(samples, v)
				}
			}
		}
		capsule.Histograms[field] = hist
		capsule.Averages[field] = worldfield.AverageQ16FromSamples(samples)
	}
}
