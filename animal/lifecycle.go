package animal

import (
	"github.com/spatialmodel/worldfield/fixedpoint"
	"github.com/spatialmodel/worldfield/worldrng"
)

// Instance is one species spawn's resolved lifecycle state at a point and
// tick (spec.md §4.9). Present is false when no species won spawn, the
// winner's current generation is outside its birth/lifespan window, or it
// has died this tick; DeathReason then records why.
type Instance struct {
	SpeciesID   int32
	Present     bool
	AgeTicks    int64
	Energy      fixedpoint.Q16
	Health      fixedpoint.Q16
	Need        Need
	DeathReason DeathReason
}

func absentInstance(speciesID int32) Instance {
	return Instance{SpeciesID: speciesID}
}

// activeIndex is the spawn-generation index active at tick for a period,
// spec.md §4.6's "active index is T/period" reused here for animal's own
// spawn schedule.
func activeIndex(tick, period int64) int64 {
	if period <= 0 {
		return 0
	}
	q := tick / period
	if tick < 0 && tick%period != 0 {
		q--
	}
	return q
}

// spawnBirth lazily generates generation k's birth tick: a period-aligned
// base plus a jittered offset within the period, mirroring weather's
// eventAt(t, k) lazy-generation idiom exactly (spec.md §4.6 reused for
// animal's spawn schedule).
func spawnBirth(desc PlacementDesc, species SpeciesProfile, cx, cy, cz int32, k int64) int64 {
	stream := worldrng.New(cellStreamKey(desc, species.SpeciesID, cx, cy, cz, "animal.birth", k), worldrng.AllMixFlags)
	jitter := stream.IntN(species.SpawnPeriodTicks)
	return k*species.SpawnPeriodTicks + jitter
}

// findBirth locates the most recently conceived generation with birth <=
// tick, whether or not it has since aged out — callers distinguish "no
// generation has ever been born here yet" (ok == false, spec.md §4.9's
// "no agent" case) from "a generation was born but may already be past its
// lifespan" (ok == true, age checked separately). Because birth(k) always
// falls within [k*period, (k+1)*period), the generation immediately before
// tick's own period is always <= tick, so only two candidate indices are
// ever needed — the same bounded lookback weather's computeEventsInWindow
// uses to enumerate overlapping generations, simplified to fixed width
// since spawn generations never overlap.
func findBirth(desc PlacementDesc, species SpeciesProfile, cx, cy, cz int32, tick int64) (birth, k int64, ok bool) {
	if species.SpawnPeriodTicks <= 0 {
		return 0, 0, false
	}
	kMax := activeIndex(tick, species.SpawnPeriodTicks)
	for kk := kMax; kk >= kMax-1 && kk >= 0; kk-- {
		b := spawnBirth(desc, species, cx, cy, cz, kk)
		if b <= tick {
			return b, kk, true
		}
	}
	return 0, 0, false
}

// resolveNeed picks the live instance's priority by spec.md §4.9's fixed
// precedence EAT > REST > REPRODUCE > WANDER.
func resolveNeed(species SpeciesProfile, age int64, energy fixedpoint.Q16) Need {
	const eatThreshold = 0.3
	const reproduceEnergyThreshold = 0.6
	if energy < fixedpoint.FromFloat(eatThreshold) {
		return Eat
	}
	if species.RestRequirement > 0 && energy < species.RestRequirement {
		return Rest
	}
	if age >= species.MaturityTicks && energy > fixedpoint.FromFloat(reproduceEnergyThreshold) {
		return Reproduce
	}
	return Wander
}

// evaluateLifecycle implements spec.md §4.9's agent state machine: no
// agent before birth, death by age at the lifespan boundary, otherwise an
// energy balance (vegetation consumption minus base and travel cost) that
// can kill by starvation, then a climate-tolerance floor that can kill by
// stress, and finally a need priority for any agent still alive.
func evaluateLifecycle(desc PlacementDesc, cand placementCandidate, haveWinner bool, in cellInputs, cx, cy, cz int32, tick int64) Instance {
	if !haveWinner {
		return Instance{SpeciesID: -1}
	}
	species := cand.species

	birth, _, ok := findBirth(desc, species, cx, cy, cz, tick)
	if !ok {
		return absentInstance(species.SpeciesID)
	}
	age := tick - birth
	if age >= species.LifespanTicks {
		return Instance{SpeciesID: species.SpeciesID, Present: false, AgeTicks: age, DeathReason: DeathAge}
	}

	ageRatio := fixedpoint.FromInt(int32(age)).Div(fixedpoint.FromInt(int32(species.LifespanTicks)))

	vegConsumed := fixedpoint.Q16(0)
	if dietAllows(species.DietMask, in.vegetation) {
		vegConsumed = species.ConsumptionRate.Mul(vegCoverageFactor(in.vegetation))
	}
	travelCost := in.terrain.TravelCost
	if travelCost.IsUnknown() {
		travelCost = 0
	}

	energy := fixedpoint.One.Sub(ageRatio).Add(vegConsumed).Sub(species.EnergyConsumptionRate).Sub(travelCost)
	energy = energy.Clamp(0, fixedpoint.One)
	if energy == 0 {
		return Instance{SpeciesID: species.SpeciesID, Present: false, AgeTicks: age, Energy: 0, DeathReason: DeathStarvation}
	}

	climFactor := climateFactor(species, in)
	if !climFactor.IsUnknown() && climFactor <= stressThreshold {
		return Instance{SpeciesID: species.SpeciesID, Present: false, AgeTicks: age, Energy: energy, DeathReason: DeathStress}
	}

	health := cand.suitability
	if health.IsUnknown() {
		health = 0
	}
	health = health.Mul(fixedpoint.One.Sub(ageRatio)).Clamp(0, fixedpoint.One)

	need := resolveNeed(species, age, energy)

	return Instance{
		SpeciesID: species.SpeciesID, Present: true, AgeTicks: age,
		Energy: energy, Health: health, Need: need, DeathReason: DeathNone,
	}
}

// evaluateDisplacement draws a candidate offset, bounded by half the
// placement cell size on each axis, from a stream keyed by the cell,
// species and tick — spec.md §4.9's random wander displacement. The
// caller is responsible for rejecting the offset (reverting to the cell
// center) if the displaced point fails the walkability gate.
func evaluateDisplacement(desc PlacementDesc, speciesID int32, cx, cy, cz int32, tick int64, cellSize fixedpoint.Q16) (dx, dy, dz fixedpoint.Q16) {
	half := cellSize.Mul(fixedpoint.FromFloat(0.5))
	stream := worldrng.New(cellStreamKey(desc, speciesID, cx, cy, cz, "animal.displacement", tick), worldrng.AllMixFlags)
	dx = stream.Range(half.Neg(), half)
	dy = stream.Range(half.Neg(), half)
	dz = stream.Range(half.Neg(), half)
	return dx, dy, dz
}
