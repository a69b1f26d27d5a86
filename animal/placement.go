package animal

import (
	"github.com/spatialmodel/worldfield/fixedpoint"
	"github.com/spatialmodel/worldfield/terrain"
	"github.com/spatialmodel/worldfield/vegetation"
	"github.com/spatialmodel/worldfield/worldfield"
	"github.com/spatialmodel/worldfield/worldrng"
)

// cellOf and cellStreamKey duplicate vegetation's placement-grid helpers.
// animal cannot import vegetation's unexported versions, so these are
// redeclared as tiny self-contained primitives rather than introducing a
// layering dependency — the same tradeoff worldfield/tile.go's hashTileCoord
// comment documents for its own duplicated coordinate hash.

func cellOf(p worldfield.Point, cellSize fixedpoint.Q16) (cx, cy, cz int32) {
	return p.X.FloorDiv(cellSize), p.Y.FloorDiv(cellSize), p.Z.FloorDiv(cellSize)
}

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

// dietAllows gates on the cell's vegetation instance's species id, a zero
// mask meaning the species eats anything (spec.md §4.9's diet predicate).
func dietAllows(mask uint32, veg vegetation.Sample) bool {
	if mask == 0 {
		return true
	}
	if !veg.Present || veg.SpeciesID < 0 || veg.SpeciesID >= 32 {
		return false
	}
	return mask&(uint32(1)<<uint(veg.SpeciesID)) != 0
}

// vegCoverageFactor is the vegetation-coverage term of suitability: the
// vegetation instance's Size when present, 0 when it is confidently
// absent, and the spec-mandated neutral 0.5 when the vegetation query
// itself could not resolve (distinct from vegetation's own Unknown-
// propagation convention for its own internal tolerances).
func vegCoverageFactor(veg vegetation.Sample) fixedpoint.Q16 {
	if veg.Flags&worldfield.FlagAllFieldsUnknown != 0 || veg.Size.IsUnknown() {
		return fixedpoint.FromFloat(0.5)
	}
	if !veg.Present {
		return 0
	}
	return veg.Size
}

// walkabilityFactor gates on the agent's movement mode against the terrain
// sample: LAND requires non-submerged, shallow-enough ground; WATER
// requires submerged ground; AIR is unrestricted. An unknown terrain
// sample resolves to gate failure, matching vegetation's hard-gate
// convention for missing data.
func walkabilityFactor(mode MovementMode, t terrain.Sample, maxSlope fixedpoint.Q16) fixedpoint.Q16 {
	if mode == Air {
		return fixedpoint.One
	}
	if t.Phi.IsUnknown() {
		return 0
	}
	switch mode {
	case Water:
		if t.Phi <= 0 {
			return 0
		}
		return fixedpoint.One
	default: // Land
		if t.Phi > 0 {
			return 0
		}
		if t.Slope.IsUnknown() || t.Slope > maxSlope {
			return 0
		}
		return fixedpoint.One.Sub(t.Slope.Div(maxSlope)).Clamp(0, fixedpoint.One)
	}
}

// cellInputs bundles the subordinate samples one spawn decision needs.
type cellInputs struct {
	terrain    terrain.Sample
	climate    climateFactors
	vegetation vegetation.Sample
}

// climateFactors carries only the two fields animal's tolerance formula
// needs, already resolved from climate/weather samples by the caller.
type climateFactors struct {
	temperature fixedpoint.Q16
	moisture    fixedpoint.Q16
}

// suitability is the product of temperature-tolerance, moisture-tolerance,
// walkability factor and vegetation-coverage factor, zeroed by the diet
// gate. BiomeMask is not consulted: cellInputs carries no biome result, so
// a species' biome mask has no effect on spawning. Any Unknown tolerance
// factor makes the whole product Unknown.
func suitability(species SpeciesProfile, in cellInputs) fixedpoint.Q16 {
	tempFactor := toleranceFactor(in.climate.temperature, species.TempMin, species.TempMax, species.ToleranceMargin)
	moistureFactor := toleranceFactor(in.climate.moisture, species.MoistureMin, species.MoistureMax, species.ToleranceMargin)
	if tempFactor.IsUnknown() || moistureFactor.IsUnknown() {
		return fixedpoint.Unknown
	}

	if !dietAllows(species.DietMask, in.vegetation) {
		return 0
	}

	walk := walkabilityFactor(species.Movement, in.terrain, species.WalkableMaxSlope)
	if walk <= 0 {
		return 0
	}

	cover := vegCoverageFactor(in.vegetation)

	return tempFactor.Mul(moistureFactor).Mul(walk).Mul(cover)
}

// climateFactor is spec.md §4.9's "climate_factor" used by the STRESS death
// check: the temperature/moisture tolerance product alone, without the
// diet/walkability/coverage gates.
func climateFactor(species SpeciesProfile, in cellInputs) fixedpoint.Q16 {
	tempFactor := toleranceFactor(in.climate.temperature, species.TempMin, species.TempMax, species.ToleranceMargin)
	moistureFactor := toleranceFactor(in.climate.moisture, species.MoistureMin, species.MoistureMax, species.ToleranceMargin)
	if tempFactor.IsUnknown() || moistureFactor.IsUnknown() {
		return fixedpoint.Unknown
	}
	return tempFactor.Mul(moistureFactor)
}

func density(species SpeciesProfile, s fixedpoint.Q16) fixedpoint.Q16 {
	if s.IsUnknown() {
		return fixedpoint.Unknown
	}
	return species.DensityBase.Mul(s)
}

// placementCandidate is one species' spawn outcome for a single cell.
type placementCandidate struct {
	species     SpeciesProfile
	suitability fixedpoint.Q16
	placed      bool
}

// evaluateSpawn draws a spawn ratio for every species with non-zero
// suitability, returning the winner (highest suitability, ties broken by
// lowest species_id, mirroring vegetation's convention) and whether the
// cell is Contested: more than one species' raw suitability fell within
// ContestMargin of the winner's (SPEC_FULL.md §6 item 5).
func evaluateSpawn(desc PlacementDesc, in cellInputs, cx, cy, cz int32) (placementCandidate, bool, bool) {
	var winner placementCandidate
	haveWinner := false
	var suitable []placementCandidate

	for _, species := range desc.Species {
		s := suitability(species, in)
		if s.IsUnknown() || s <= 0 {
			continue
		}
		suitable = append(suitable, placementCandidate{species: species, suitability: s})

		stream := worldrng.New(cellStreamKey(desc, species.SpeciesID, cx, cy, cz, "animal.spawn", 0), worldrng.AllMixFlags)
		ratio := stream.Ratio()
		placed := ratio <= density(species, s)
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

	contested := false
	if haveWinner {
		for _, c := range suitable {
			if c.species.SpeciesID == winner.species.SpeciesID {
				continue
			}
			diff := winner.suitability.Sub(c.suitability)
			if diff < 0 {
				diff = c.suitability.Sub(winner.suitability)
			}
			if diff <= desc.ContestMargin {
				contested = true
				break
			}
		}
	}

	return winner, haveWinner, contested
}
