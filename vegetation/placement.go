package vegetation

import (
	"github.com/spatialmodel/worldfield/climate"
	"github.com/spatialmodel/worldfield/fixedpoint"
	"github.com/spatialmodel/worldfield/geology"
	"github.com/spatialmodel/worldfield/terrain"
	"github.com/spatialmodel/worldfield/worldfield"
	"github.com/spatialmodel/worldfield/worldrng"
)

// cellOf maps a point to its placement-grid cell via Q16.16-floor-division
// (spec.md §4.1's lattice convention, reused here for the placement grid
// rather than a noise lattice).
func cellOf(p worldfield.Point, cellSize fixedpoint.Q16) (cx, cy, cz int32) {
	return p.X.FloorDiv(cellSize), p.Y.FloorDiv(cellSize), p.Z.FloorDiv(cellSize)
}

// cellStreamKey derives a deterministic stream keyed on a placement cell, a
// species, a named process, and an extra discriminator (e.g. a cycle
// index) — the same "hash extra coordinates into Tick" idiom weather's
// eventAt uses to key a stream on more than one integer.
func cellStreamKey(desc PlacementDesc, speciesID int32, cx, cy, cz int32, name string, extra int64) worldrng.StreamKey {
	mixed := int64(worldrng.HashIDs(int64(cx), int64(cy), int64(cz), extra))
	return worldrng.StreamKey{
		WorldSeed: desc.WorldSeed,
		DomainID:  uint64(desc.DomainID),
		ProcessID: uint64(speciesID),
		Tick:      mixed,
		Name:      name,
	}
}

// toleranceFactor ramps linearly from 1 inside [min,max] down to 0 at
// margin beyond either edge, propagating Unknown. This is the "tolerance"
// half of spec.md §4.8's suitability product (as opposed to the hard
// "gate" factors below).
func toleranceFactor(v, min, max, margin fixedpoint.Q16) fixedpoint.Q16 {
	if v.IsUnknown() {
		return fixedpoint.Unknown
	}
	if v >= min && v <= max {
		return fixedpoint.One
	}
	if margin <= 0 {
		return 0
	}
	var dist fixedpoint.Q16
	if v < min {
		dist = min.Sub(v)
	} else {
		dist = v.Sub(max)
	}
	if dist >= margin {
		return 0
	}
	return fixedpoint.One.Sub(dist.Div(margin))
}

func biomeMatches(mask uint32, biomeID int32) bool {
	if mask == 0 {
		return true
	}
	if biomeID < 0 || biomeID >= 32 {
		return false
	}
	return mask&(uint32(1)<<uint(biomeID)) != 0
}

func materialMatches(mask uint32, materialID int32) bool {
	if mask == 0 {
		return true
	}
	if materialID < 0 || materialID >= 32 {
		return false
	}
	return mask&(uint32(1)<<uint(materialID)) != 0
}

// cellInputs bundles the subordinate-domain samples a placement decision at
// one point needs, gathered once per cell-representative point and reused
// across every species.
type cellInputs struct {
	terrain terrain.Sample
	climate climate.Sample
	weather weather.Sample
	geology geology.Sample
	biome   climate.BiomeResult
}

// averageKnown averages the non-Unknown values of vs, returning Unknown if
// every value is unknown (mirrors worldfield.Histogram.Add's "ignore
// unknown" convention rather than AverageQ16FromSamples's float path, since
// this runs on the per-query hot path and must stay fixed-point only).
func averageKnown(vs ...fixedpoint.Q16) fixedpoint.Q16 {
	var sum fixedpoint.Q16
	var n int32
	for _, v := range vs {
		if v.IsUnknown() {
			continue
		}
		sum = sum.Add(v)
		n++
	}
	if n == 0 {
		return fixedpoint.Unknown
	}
	return sum.Div(fixedpoint.FromInt(n))
}

// moistureProxy computes spec.md §4.8's "average of climate.precipitation_
// mean, weather.surface_wetness, and recent-wetness-in-window".
func moistureProxy(climSample climate.Sample, weatherSample weather.Sample, recentWetness fixedpoint.Q16) fixedpoint.Q16 {
	return averageKnown(climSample.PrecipitationMean, weatherSample.SurfaceWetness, recentWetness)
}

// suitability computes spec.md §4.8's "product of temperature-tolerance,
// moisture-tolerance, biome match, slope factor, material and hardness
// gates". Any Unknown tolerance input makes the whole product Unknown
// (treated by the caller as "not suitable" rather than silently defaulted),
// since placement must never manufacture a value the subordinate domains
// could not supply.
func suitability(species SpeciesProfile, in cellInputs, moisture fixedpoint.Q16) fixedpoint.Q16 {
	tempFactor := toleranceFactor(in.climate.TemperatureMean, species.TempMin, species.TempMax, species.ToleranceMargin)
	moistureFactor := toleranceFactor(moisture, species.MoistureMin, species.MoistureMax, species.ToleranceMargin)
	if tempFactor.IsUnknown() || moistureFactor.IsUnknown() {
		return fixedpoint.Unknown
	}

	if in.biome.Unknown || !biomeMatches(species.BiomeMask, in.biome.BiomeID) {
		return 0
	}

	if in.terrain.Slope.IsUnknown() || in.terrain.Slope > species.MaxSlope {
		return 0
	}
	slopeFactor := fixedpoint.One.Sub(in.terrain.Slope.Div(species.MaxSlope)).Clamp(0, fixedpoint.One)

	if !materialMatches(species.MaterialMask, in.terrain.MaterialPrimary) {
		return 0
	}
	if in.geology.Hardness.IsUnknown() || in.geology.Hardness < species.MinHardness {
		return 0
	}

	return tempFactor.Mul(moistureFactor).Mul(slopeFactor)
}

// coverage is spec.md §4.8's `density_base · suitability`.
func coverage(species SpeciesProfile, s fixedpoint.Q16) fixedpoint.Q16 {
	if s.IsUnknown() {
		return fixedpoint.Unknown
	}
	return species.DensityBase.Mul(s)
}

// placementCandidate is one species' placement outcome for a single cell.
type placementCandidate struct {
	species     SpeciesProfile
	suitability fixedpoint.Q16
	placed      bool
}

// evaluatePlacement draws a placement ratio for every species with
// non-zero suitability and returns the winner: highest suitability, ties
// broken by lowest species_id (spec.md §4.8).
func evaluatePlacement(desc PlacementDesc, in cellInputs, moisture fixedpoint.Q16, cx, cy, cz int32) (placementCandidate, bool) {
	var winner placementCandidate
	haveWinner := false

	for _, species := range desc.Species {
		s := suitability(species, in, moisture)
		if s.IsUnknown() || s <= 0 {
			continue
		}

		stream := worldrng.New(cellStreamKey(desc, species.SpeciesID, cx, cy, cz, "vegetation.placement", 0), worldrng.AllMixFlags)
		ratio := stream.Ratio()
		placed := ratio <= coverage(species, s)
		if !placed {
			continue
		}

		wins := !haveWinner || s > winner.suitability ||
			(s == winner.suitability && species.SpeciesID < winner.species.SpeciesID)
		if wins {
			winner = placementCandidate{species: species, suitability: s, placed: true}
			haveWinner = true
		}
	}

	return winner, haveWinner
}
