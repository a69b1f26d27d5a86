package climate

import (
	"github.com/spatialmodel/worldfield/fixedpoint"
	"github.com/spatialmodel/worldfield/worldfield"
)

var tileFields = []string{
	"temperature_mean", "temperature_range",
	"precipitation_mean", "precipitation_range",
	"seasonality_mean", "seasonality_range",
	"wind_prevailing",
}

// Domain is a climate field provider (spec.md §4.5), time-invariant like
// terrain and geology (spec.md §4.3's cache-key table gives it no window
// component).
type Domain struct {
	worldfield.Base
	Desc EnvelopeDesc
}

func NewDomain(desc EnvelopeDesc, cacheCapacity int) *Domain {
	const capsuleCapacity = 256
	base := worldfield.NewBase(desc.DomainID, cacheCapacity, capsuleCapacity, defaultLogger())
	return &Domain{Base: base, Desc: normalize(desc, nil)}
}

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
				tile.Set("temperature_mean", ix, iy, iz, s.TemperatureMean)
				tile.Set("temperature_range", ix, iy, iz, s.TemperatureRange)
				tile.Set("precipitation_mean", ix, iy, iz, s.PrecipitationMean)
				tile.Set("precipitation_range", ix, iy, iz, s.PrecipitationRange)
				tile.Set("seasonality_mean", ix, iy, iz, s.SeasonalityMean)
				tile.Set("seasonality_range", ix, iy, iz, s.SeasonalityRange)
				tile.Set("wind_prevailing", ix, iy, iz, fixedpoint.FromInt(int32(s.WindPrevailing)))
			}
		}
	}
	return tile
}

func cellSize(bounds worldfield.AABB, sampleDim int32) fixedpoint.Q16 {
	span := bounds.Max.X.Sub(bounds.Min.X)
	return span.Div(fixedpoint.FromInt(sampleDim))
}

func (d *Domain) sampleTile(tile *worldfield.Tile, p worldfield.Point) Sample {
	cell := cellSize(tile.Bounds, tile.SampleDim)
	ix := worldfield.NearestIndex(p.X, tile.Bounds.Min.X, cell, tile.SampleDim)
	iy := worldfield.NearestIndex(p.Y, tile.Bounds.Min.Y, cell, tile.SampleDim)
	iz := worldfield.NearestIndex(p.Z, tile.Bounds.Min.Z, cell, tile.SampleDim)

	tempMean := tile.At("temperature_mean", ix, iy, iz)
	tempRange := tile.At("temperature_range", ix, iy, iz)
	precipMean := tile.At("precipitation_mean", ix, iy, iz)
	precipRange := tile.At("precipitation_range", ix, iy, iz)
	seasonMean := tile.At("seasonality_mean", ix, iy, iz)
	seasonRange := tile.At("seasonality_range", ix, iy, iz)
	wind := tile.At("wind_prevailing", ix, iy, iz)

	s := Sample{
		TemperatureMean: tempMean, TemperatureRange: tempRange,
		PrecipitationMean: precipMean, PrecipitationRange: precipRange,
		SeasonalityMean: seasonMean, SeasonalityRange: seasonRange,
		WindPrevailing: CompassDirection(wind.Int()),
	}
	if tempMean.IsUnknown() || precipMean.IsUnknown() || seasonMean.IsUnknown() {
		s.Flags |= worldfield.FlagFieldsUnknown
		s.WindPrevailing = WindUnknown
	}
	return s
}

// CollapseTile summarizes the tile covering coord into a capsule (spec.md
// §4.10).
func (d *Domain) CollapseTile(coord worldfield.TileCoord) (worldfield.CapsuleID, error) {
	bounds := coord.Bounds(d.Policy.TileSize)
	desc := worldfield.TileDesc{Coord: coord}
	return worldfield.CollapseTile(&d.Base, desc, bounds, worldfield.CollapseFuncs{
		BuildTile: func(worldfield.TileDesc) (*worldfield.Tile, error) {
			sampleDim, ok := d.Policy.SampleDimFor(coord.Resolution)
			if !ok {
				return nil, &worldfield.CallerError{Kind: worldfield.ErrZeroSampleDim, Msg: "climate: sample_dim zero for resolution"}
			}
			return d.buildTile(coord.ID(), coord.Resolution, sampleDim, bounds), nil
		},
		Summarize: summarizeTile,
	})
}

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
