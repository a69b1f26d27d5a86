package vegetation

import (
	"github.com/spatialmodel/worldfield/fixedpoint"
	"github.com/spatialmodel/worldfield/worldrng"
)

// Instance is one species placement's resolved lifecycle state at a point
// and tick (spec.md §4.8). Present is false when no species won placement,
// or a REGENERATIVE winner's current cycle is not alive.
type Instance struct {
	SpeciesID int32
	Present   bool
	AgeTicks  int64
	Size      fixedpoint.Q16
	Health    fixedpoint.Q16
}

func absentInstance(speciesID int32) Instance {
	return Instance{SpeciesID: speciesID}
}

// floorDivInt64 and floorModInt64 give floor (not truncating) division and
// modulus for possibly-negative ticks, matching fixedpoint.FloorDiv's
// convention for the integer tick domain.
func floorDivInt64(a, b int64) int64 {
	q := a / b
	if a%b != 0 && (a < 0) != (b < 0) {
		q--
	}
	return q
}

func floorModInt64(a, b int64) int64 {
	m := a % b
	if m != 0 && (m < 0) != (b < 0) {
		m += b
	}
	return m
}

// evaluateStatic implements spec.md §4.8's STATIC mode: "an instance
// exists iff the placement check passes; age = 0; size = max_size ·
// suitability".
func evaluateStatic(cand placementCandidate) Instance {
	if !cand.placed {
		return absentInstance(cand.species.SpeciesID)
	}
	return Instance{
		SpeciesID: cand.species.SpeciesID,
		Present:   true,
		AgeTicks:  0,
		Size:      cand.species.MaxSize.Mul(cand.suitability),
		Health:    cand.suitability,
	}
}

// evaluateRegenerative implements spec.md §4.8's REGENERATIVE mode: a
// birth-offset-keyed cycle, a regen_chance gate, a death_rate gate that may
// set an early death inside the cycle, bounded growth, and suitability-
// scaled health decaying over the instance's age within its lifespan.
func evaluateRegenerative(desc PlacementDesc, cand placementCandidate, cx, cy, cz int32, tick int64) Instance {
	species := cand.species
	if !cand.placed || species.RegenPeriodTicks <= 0 || species.LifespanTicks <= 0 {
		return absentInstance(species.SpeciesID)
	}

	birthStream := worldrng.New(cellStreamKey(desc, species.SpeciesID, cx, cy, cz, "vegetation.birth", 0), worldrng.AllMixFlags)
	birthOffset := birthStream.IntN(species.RegenPeriodTicks)

	sinceBirth := tick - birthOffset
	phase := floorModInt64(sinceBirth, species.RegenPeriodTicks)
	cycleIndex := floorDivInt64(sinceBirth, species.RegenPeriodTicks)

	if phase >= species.LifespanTicks {
		return absentInstance(species.SpeciesID)
	}

	regenStream := worldrng.New(cellStreamKey(desc, species.SpeciesID, cx, cy, cz, "vegetation.regen", cycleIndex), worldrng.AllMixFlags)
	if !regenStream.Bool(species.RegenChance) {
		return absentInstance(species.SpeciesID)
	}

	if species.DiePeriodTicks > 0 {
		deathStream := worldrng.New(cellStreamKey(desc, species.SpeciesID, cx, cy, cz, "vegetation.death", cycleIndex), worldrng.AllMixFlags)
		if deathStream.Bool(species.DeathRate) {
			steps := species.LifespanTicks/species.DiePeriodTicks + 1
			deathOffset := deathStream.IntN(steps) * species.DiePeriodTicks
			if phase >= deathOffset {
				return absentInstance(species.SpeciesID)
			}
		}
	}

	maxSize := species.MaxSize.Mul(cand.suitability)
	size := fixedpoint.Q16(0)
	if species.GrowPeriodTicks > 0 {
		steps := phase / species.GrowPeriodTicks
		grown := species.GrowthRate.Mul(fixedpoint.FromInt(int32(steps)))
		size = fixedpoint.Min(grown, maxSize)
	}

	ageRatio := fixedpoint.FromInt(int32(phase)).Div(fixedpoint.FromInt(int32(species.LifespanTicks)))
	health := cand.suitability.Mul(fixedpoint.One.Sub(ageRatio)).Clamp(0, fixedpoint.One)

	return Instance{SpeciesID: species.SpeciesID, Present: true, AgeTicks: phase, Size: size, Health: health}
}

// evaluateLifecycle dispatches to the winning species' configured mode.
func evaluateLifecycle(desc PlacementDesc, cand placementCandidate, haveWinner bool, cx, cy, cz int32, tick int64) Instance {
	if !haveWinner {
		return Instance{SpeciesID: -1}
	}
	if cand.species.Mode == Regenerative {
		return evaluateRegenerative(desc, cand, cx, cy, cz, tick)
	}
	return evaluateStatic(cand)
}
