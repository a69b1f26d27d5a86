package vegetation

import (
	"github.com/spatialmodel/worldfield/climate"
	"github.com/spatialmodel/worldfield/fixedpoint"
	"github.com/spatialmodel/worldfield/worldfield"
)

// FlagInstancePresent is set when a species instance is present at the
// queried point (spec.md §4.8); it occupies the first domain-specific bit
// per worldfield.FirstDomainFlagBit.
const FlagInstancePresent = worldfield.FirstDomainFlagBit

// Sample is one vegetation query's result: the winning species' placement
// and lifecycle state, or an absent instance (SpeciesID -1) if no species
// placed in the query's cell.
type Sample struct {
	SpeciesID   int32
	Present     bool
	AgeTicks    int64
	Size        fixedpoint.Q16
	Health      fixedpoint.Q16
	Suitability fixedpoint.Q16

	Flags worldfield.SampleFlags
	Meta  worldfield.QueryMeta
}

func unknownSample() Sample {
	return Sample{SpeciesID: -1, Size: fixedpoint.Unknown, Health: fixedpoint.Unknown, Suitability: fixedpoint.Unknown}
}

// recentWetness computes spec.md §4.8's "recent-wetness-in-window" term:
// the average eased intensity, at tick, of every weather event whose
// footprint covers p, drawn from the events active over the preceding
// RecentWetnessWindowTicks.
func (d *Domain) recentWetness(p worldfield.Point, tick int64) fixedpoint.Q16 {
	windowTicks := d.Desc.RecentWetnessWindowTicks
	if windowTicks <= 0 {
		return fixedpoint.Unknown
	}
	start := tick - windowTicks
	events := d.Weather.EventsInWindow(start, windowTicks)

	var sum fixedpoint.Q16
	var n int32
	for _, e := range events {
		dx := e.Center.X.Sub(p.X)
		dy := e.Center.Y.Sub(p.Y)
		dz := e.Center.Z.Sub(p.Z)
		distSq := dx.MulWide(dx).Add(dy.MulWide(dy)).Add(dz.MulWide(dz))
		dist := distSq.Sqrt().Q16()
		if dist > e.Radius {
			continue
		}
		sampleTick := tick
		if sampleTick < e.Start {
			sampleTick = e.Start
		}
		if sampleTick > e.Start+e.Duration {
			sampleTick = e.Start + e.Duration
		}
		sum = sum.Add(e.IntensityAt(sampleTick))
		n++
	}
	if n == 0 {
		return fixedpoint.Unknown
	}
	return sum.Div(fixedpoint.FromInt(n))
}

// evaluateAnalytic resolves every subordinate sample at p/tick, derives the
// placement cell's inputs, and runs placement then lifecycle — spec.md
// §4.8's full analytic path, shared by both the FULL and ANALYTIC tiers and
// by tile construction (at the tile's quantized window tick).
func (d *Domain) evaluateAnalytic(p worldfield.Point, tick int64, budget *worldfield.Budget) Sample {
	terrainSample := d.Terrain.SampleQuery(p, budget)
	climateSample := d.Climate.SampleQuery(p, budget)
	weatherSample := d.Weather.SampleQuery(p, tick, budget)
	geologySample := d.Geology.SampleQuery(p, budget)

	var unknownMask climate.PredicateMask
	if climateSample.TemperatureMean.IsUnknown() {
		unknownMask |= climate.PredTemperature
	}
	if climateSample.PrecipitationMean.IsUnknown() {
		unknownMask |= climate.PredPrecipitation
	}
	if climateSample.SeasonalityMean.IsUnknown() {
		unknownMask |= climate.PredSeasonality
	}
	if terrainSample.Phi.IsUnknown() {
		unknownMask |= climate.PredElevation
	}
	if weatherSample.SurfaceWetness.IsUnknown() {
		unknownMask |= climate.PredMoisture
	}
	if geologySample.Hardness.IsUnknown() {
		unknownMask |= climate.PredHardness
	}
	if geologySample.LayerID < 0 {
		unknownMask |= climate.PredStrata
	}

	biome := climate.BiomeResolve(d.Desc.BiomeCatalog, climate.ClassifyInputs{
		Temperature:   climateSample.TemperatureMean,
		Precipitation: climateSample.PrecipitationMean,
		Seasonality:   climateSample.SeasonalityMean,
		Elevation:     terrainSample.Phi,
		Moisture:      weatherSample.SurfaceWetness,
		Hardness:      geologySample.Hardness,
		Strata:        geologySample.LayerID,
		Unknown:       unknownMask,
	})

	moisture := moistureProxy(climateSample, weatherSample, d.recentWetness(p, tick))

	in := cellInputs{terrain: terrainSample, climate: climateSample, weather: weatherSample, geology: geologySample, biome: biome}
	cx, cy, cz := cellOf(p, d.Desc.PlacementCellSize)
	cand, haveWinner := evaluatePlacement(d.Desc, in, moisture, cx, cy, cz)

	instance := evaluateLifecycle(d.Desc, cand, haveWinner, cx, cy, cz, tick)

	suit := fixedpoint.Unknown
	if haveWinner {
		suit = cand.suitability
	}

	flags := worldfield.SampleFlags(0)
	if instance.Present {
		flags |= FlagInstancePresent
	}

	return Sample{
		SpeciesID:   instance.SpeciesID,
		Present:     instance.Present,
		AgeTicks:    instance.AgeTicks,
		Size:        instance.Size,
		Health:      instance.Health,
		Suitability: suit,
		Flags:       flags,
	}
}
