package animal

import (
	"github.com/spatialmodel/worldfield/fixedpoint"
	"github.com/spatialmodel/worldfield/vegetation"
	"github.com/spatialmodel/worldfield/worldfield"
)

var tileFields = []string{"species_id", "age_ticks", "energy", "health", "need", "death_reason", "suitability", "present", "contested"}

// tileBuildBudgetUnits is the internal budget every sub-domain query
// performed while building an animal tile gets, mirroring vegetation's own
// tile-build budget isolation.
const tileBuildBudgetUnits = 1 << 20

// Domain is the animal needs/lifecycle/movement provider (spec.md §4.9). It
// fans out to its own vegetation domain (which in turn fans out to
// terrain/climate/weather/geology), all seeded with its own (world_seed,
// domain_id, bounds) per spec.md §6.
type Domain struct {
	worldfield.Base
	Desc PlacementDesc

	Vegetation *vegetation.Domain
}

// NewDomain constructs an animal domain and its fanned-out vegetation
// domain, realized and live immediately.
func NewDomain(desc PlacementDesc, cacheCapacity int) *Domain {
	const capsuleCapacity = 256
	normalized := normalize(desc, nil)

	vegDomain := vegetation.NewDomain(normalized.Vegetation, cacheCapacity)
	vegDomain.SetState(worldfield.Realized, worldfield.ArchivalNone)

	base := worldfield.NewBase(normalized.DomainID, cacheCapacity, capsuleCapacity, defaultLogger())
	return &Domain{Base: base, Desc: normalized, Vegetation: vegDomain}
}

// windowFor quantizes tick down to its enclosing decision window, spec.md
// §4.3's window-keyed cache entry for time-varying providers.
func (d *Domain) windowFor(tick int64) (start, ticks int64) {
	period := d.Desc.DecisionPeriodTicks
	if period <= 0 {
		return tick, 1
	}
	return floorDivInt64(tick, period) * period, period
}

func floorDivInt64(a, b int64) int64 {
	q := a / b
	if a%b != 0 && (a < 0) != (b < 0) {
		q--
	}
	return q
}

// findCollapsedWindow reports whether (p, tick) falls inside a previously
// collapsed tile capsule whose window covers tick, mirroring vegetation's
// own FindCapsule wiring (itself mirroring weather's bespoke collapsed-
// window check) — a deliberate divergence from terrain/climate/geology,
// whose purely spatial capsules need no time check.
func (d *Domain) findCollapsedWindow(p worldfield.Point, tick int64) (worldfield.Capsule, bool) {
	for i := 0; i < d.CapsuleCount(); i++ {
		c, err := d.CapsuleAt(i)
		if err != nil {
			continue
		}
		if !c.HasWindow || tick < c.WindowStart || tick >= c.WindowStart+c.WindowTicks {
			continue
		}
		if !c.Bounds.Contains(p) {
			continue
		}
		return c, true
	}
	return worldfield.Capsule{}, false
}

// SampleQuery evaluates animal state at (p, tick) via the shared
// resolution ladder, quantizing MEDIUM/COARSE tile builds to tick's
// decision window.
func (d *Domain) SampleQuery(p worldfield.Point, tick int64, budget *worldfield.Budget) Sample {
	windowStart, windowTicks := d.windowFor(tick)

	sample, meta := worldfield.RunLadder(worldfield.LadderFuncs[Sample]{
		Active:    d.Active(),
		HasSource: d.Desc.HasSource,
		Bounds:    d.Desc.Bounds,
		Point:     p,
		Policy:    d.Policy,
		Budget:    budget,
		Unknown:   unknownSample,
		FindCapsule: func(pt worldfield.Point) (worldfield.Capsule, bool) {
			return d.findCollapsedWindow(pt, tick)
		},
		Analytic: func(pt worldfield.Point) Sample {
			return d.evaluateAnalytic(pt, tick, budget)
		},
		GetOrBuildTile: func(tier worldfield.ResolutionTier) (*worldfield.Tile, bool, bool) {
			return d.getOrBuildTile(p, tier, windowStart, windowTicks)
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

func (d *Domain) getOrBuildTile(p worldfield.Point, tier worldfield.ResolutionTier, windowStart, windowTicks int64) (*worldfield.Tile, bool, bool) {
	sampleDim, ok := d.Policy.SampleDimFor(tier)
	if !ok {
		return nil, false, false
	}
	coord := d.tileCoordFor(p, tier)
	key := worldfield.CacheKey{
		Domain: d.ID, Tile: coord.ID(), Resolution: tier, AuthoringVersion: d.Version,
		HasWindow: true, WindowStart: windowStart, WindowTicks: windowTicks,
	}
	if tile, hit := d.Cache.Get(key); hit {
		return tile, false, true
	}
	bounds := coord.Bounds(d.Policy.TileSize)
	tile := d.buildTile(coord.ID(), tier, sampleDim, bounds, windowStart, windowTicks)
	d.Cache.Put(key, tile)
	return tile, true, true
}

func (d *Domain) buildTile(id worldfield.TileID, tier worldfield.ResolutionTier, sampleDim int32, bounds worldfield.AABB, windowStart, windowTicks int64) *worldfield.Tile {
	tile := worldfield.NewTile(id, tier, sampleDim, bounds, d.Version, tileFields)
	tile.HasWindow = true
	tile.WindowStart = windowStart
	tile.WindowTicks = windowTicks

	cell := cellSizeFromBounds(bounds, sampleDim)
	half := cell.Mul(fixedpoint.FromFloat(0.5))
	budget := worldfield.NewBudget(tileBuildBudgetUnits)
	for iz := int32(0); iz < sampleDim; iz++ {
		z := bounds.Min.Z.Add(cell.Mul(fixedpoint.FromInt(iz))).Add(half)
		for iy := int32(0); iy < sampleDim; iy++ {
			y := bounds.Min.Y.Add(cell.Mul(fixedpoint.FromInt(iy))).Add(half)
			for ix := int32(0); ix < sampleDim; ix++ {
				x := bounds.Min.X.Add(cell.Mul(fixedpoint.FromInt(ix))).Add(half)
				s := d.evaluateAnalytic(worldfield.Point{X: x, Y: y, Z: z}, windowStart, budget)
				tile.Set("species_id", ix, iy, iz, fixedpoint.FromInt(s.SpeciesID))
				tile.Set("age_ticks", ix, iy, iz, fixedpoint.FromInt(int32(s.AgeTicks)))
				tile.Set("energy", ix, iy, iz, s.Energy)
				tile.Set("health", ix, iy, iz, s.Health)
				tile.Set("need", ix, iy, iz, fixedpoint.FromInt(int32(s.Need)))
				tile.Set("death_reason", ix, iy, iz, fixedpoint.FromInt(int32(s.DeathReason)))
				tile.Set("suitability", ix, iy, iz, s.Suitability)
				tile.Set("present", ix, iy, iz, boolToQ16(s.Present))
				tile.Set("contested", ix, iy, iz, boolToQ16(s.Contested))
			}
		}
	}
	return tile
}

func boolToQ16(b bool) fixedpoint.Q16 {
	if b {
		return fixedpoint.One
	}
	return 0
}

func cellSizeFromBounds(bounds worldfield.AABB, sampleDim int32) fixedpoint.Q16 {
	span := bounds.Max.X.Sub(bounds.Min.X)
	return span.Div(fixedpoint.FromInt(sampleDim))
}

func (d *Domain) sampleTile(tile *worldfield.Tile, p worldfield.Point) Sample {
	cell := cellSizeFromBounds(tile.Bounds, tile.SampleDim)
	ix := worldfield.NearestIndex(p.X, tile.Bounds.Min.X, cell, tile.SampleDim)
	iy := worldfield.NearestIndex(p.Y, tile.Bounds.Min.Y, cell, tile.SampleDim)
	iz := worldfield.NearestIndex(p.Z, tile.Bounds.Min.Z, cell, tile.SampleDim)

	speciesID := tile.At("species_id", ix, iy, iz)
	ageTicks := tile.At("age_ticks", ix, iy, iz)
	energy := tile.At("energy", ix, iy, iz)
	health := tile.At("health", ix, iy, iz)
	need := tile.At("need", ix, iy, iz)
	deathReason := tile.At("death_reason", ix, iy, iz)
	suitability := tile.At("suitability", ix, iy, iz)
	present := tile.At("present", ix, iy, iz)
	contested := tile.At("contested", ix, iy, iz)

	s := Sample{
		SpeciesID: speciesID.Int(), Present: present == fixedpoint.One,
		AgeTicks: int64(ageTicks.Int()), Energy: energy, Health: health,
		Need: Need(need.Int()), DeathReason: DeathReason(deathReason.Int()),
		Suitability: suitability, Contested: contested == fixedpoint.One,
		Position: p,
	}
	if speciesID.IsUnknown() {
		s.Flags |= worldfield.FlagFieldsUnknown
		s.SpeciesID = -1
	}
	return s
}

// CollapseTile summarizes the tile covering coord, quantized to tick's
// decision window, into a capsule (spec.md §4.10).
func (d *Domain) CollapseTile(coord worldfield.TileCoord, tick int64) (worldfield.CapsuleID, error) {
	windowStart, windowTicks := d.windowFor(tick)
	bounds := coord.Bounds(d.Policy.TileSize)
	desc := worldfield.TileDesc{Coord: coord, WindowStart: windowStart, WindowTicks: windowTicks}
	return worldfield.CollapseTile(&d.Base, desc, bounds, worldfield.CollapseFuncs{
		BuildTile: func(worldfield.TileDesc) (*worldfield.Tile, error) {
			sampleDim, ok := d.Policy.SampleDimFor(coord.Resolution)
			if !ok {
				return nil, &worldfield.CallerError{Kind: worldfield.ErrZeroSampleDim, Msg: "animal: sample_dim zero for resolution"}
			}
			return d.buildTile(coord.ID(), coord.Resolution, sampleDim, bounds, windowStart, windowTicks), nil
		},
		Summarize: summarizeTile,
	})
}

func summarizeTile(tile *worldfield.Tile, capsule *worldfield.Capsule) {
	n := tile.SampleDim
	for _, field := range tile.FieldNames() {
		hist := worldfield.Histogram{Min: fixedpoint.FromInt(-1), Max: fixedpoint.FromInt(1 << 8)}
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
