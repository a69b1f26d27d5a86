package animal

import (
	"github.com/spatialmodel/worldfield/fixedpoint"
	"github.com/spatialmodel/worldfield/worldfield"
)

// FlagInstancePresent is set when a live agent occupies the queried cell
// (spec.md §4.9), occupying the first domain-specific bit.
const FlagInstancePresent = worldfield.FirstDomainFlagBit

// FlagContested is set when more than one species' raw suitability fell
// within the configured ContestMargin of the winner's — the supplemented
// diet-competition feature of SPEC_FULL.md §6 item 5. It occupies the
// second domain-specific bit.
const FlagContested = worldfield.FirstDomainFlagBit << 1

// Sample is one animal query's result.
type Sample struct {
	SpeciesID   int32
	Present     bool
	AgeTicks    int64
	Energy      fixedpoint.Q16
	Health      fixedpoint.Q16
	Need        Need
	DeathReason DeathReason
	Suitability fixedpoint.Q16
	Contested   bool
	Position    worldfield.Point

	Flags worldfield.SampleFlags
	Meta  worldfield.QueryMeta
}

func unknownSample() Sample {
	return Sample{SpeciesID: -1, Energy: fixedpoint.Unknown, Health: fixedpoint.Unknown, Suitability: fixedpoint.Unknown}
}

// evaluateAnalytic resolves every subordinate sample at p/tick — the
// vegetation instance plus the terrain/climate/weather samples vegetation's
// own fanned-out sub-domains already hold, reused directly rather than
// constructing duplicate sub-domains — derives the cell's spawn inputs, and
// runs spawn then lifecycle. This is spec.md §4.9's full analytic path,
// shared by the FULL and ANALYTIC tiers and by tile construction (at the
// tile's quantized window tick).
func (d *Domain) evaluateAnalytic(p worldfield.Point, tick int64, budget *worldfield.Budget) Sample {
	vegSample := d.Vegetation.SampleQuery(p, tick, budget)
	terrainSample := d.Vegetation.Terrain.SampleQuery(p, budget)
	climateSample := d.Vegetation.Climate.SampleQuery(p, budget)
	weatherSample := d.Vegetation.Weather.SampleQuery(p, tick, budget)

	moisture := weatherSample.SurfaceWetness
	if moisture.IsUnknown() {
		moisture = climateSample.PrecipitationMean
	}

	in := cellInputs{
		terrain:    terrainSample,
		climate:    climateFactors{temperature: climateSample.TemperatureMean, moisture: moisture},
		vegetation: vegSample,
	}

	cx, cy, cz := cellOf(p, d.Desc.PlacementCellSize)
	cand, haveWinner, contested := evaluateSpawn(d.Desc, in, cx, cy, cz)

	instance := evaluateLifecycle(d.Desc, cand, haveWinner, in, cx, cy, cz, tick)

	suit := fixedpoint.Unknown
	if haveWinner {
		suit = cand.suitability
	}

	position := p
	if instance.Present {
		cellSize := d.Desc.PlacementCellSize
		dx, dy, dz := evaluateDisplacement(d.Desc, instance.SpeciesID, cx, cy, cz, tick, cellSize)
		candidate := worldfield.Point{X: p.X.Add(dx), Y: p.Y.Add(dy), Z: p.Z.Add(dz)}
		candidateTerrain := d.Vegetation.Terrain.SampleQuery(candidate, budget)
		if walkabilityFactor(cand.species.Movement, candidateTerrain, cand.species.WalkableMaxSlope) > 0 {
			position = candidate
		}
	}

	flags := worldfield.SampleFlags(0)
	if instance.Present {
		flags |= FlagInstancePresent
	}
	if contested {
		flags |= FlagContested
	}

	return Sample{
		SpeciesID:   instance.SpeciesID,
		Present:     instance.Present,
		AgeTicks:    instance.AgeTicks,
		Energy:      instance.Energy,
		Health:      instance.Health,
		Need:        instance.Need,
		DeathReason: instance.DeathReason,
		Suitability: suit,
		Contested:   contested,
		Position:    position,
		Flags:       flags,
	}
}
