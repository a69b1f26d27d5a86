package animal

import (
	"testing"

	"github.com/spatialmodel/worldfield/fixedpoint"
	"github.com/spatialmodel/worldfield/terrain"
	"github.com/spatialmodel/worldfield/vegetation"
	"github.com/spatialmodel/worldfield/worldfield"
)

func newTestDomain(t *testing.T) *Domain {
	t.Helper()
	desc := NewPlacementDesc()
	d := NewDomain(desc, 8)
	d.SetState(worldfield.Declared, worldfield.ArchivalLive)
	return d
}

func TestEvaluateAnalyticIsDeterministic(t *testing.T) {
	d := newTestDomain(t)
	p := worldfield.Point{X: fixedpoint.FromInt(10), Y: fixedpoint.FromInt(500), Z: fixedpoint.FromInt(10)}

	a := d.evaluateAnalytic(p, 0, worldfield.NewBudget(1<<20))
	b := d.evaluateAnalytic(p, 0, worldfield.NewBudget(1<<20))
	if a.SpeciesID != b.SpeciesID || a.Present != b.Present || a.Energy != b.Energy || a.Health != b.Health {
		t.Fatalf("evaluateAnalytic is not a pure function of (point, tick): %+v != %+v", a, b)
	}
}

func TestDensityIsMonotoneInSuitability(t *testing.T) {
	species := SpeciesProfile{DensityBase: fixedpoint.FromFloat(0.5)}
	low := density(species, fixedpoint.FromFloat(0.2))
	high := density(species, fixedpoint.FromFloat(0.8))
	if low >= high {
		t.Errorf("density(low)=%v should be < density(high)=%v", low.Float(), high.Float())
	}
}

func TestDensityPropagatesUnknownSuitability(t *testing.T) {
	species := SpeciesProfile{DensityBase: fixedpoint.One}
	if c := density(species, fixedpoint.Unknown); !c.IsUnknown() {
		t.Errorf("density of unknown suitability = %v, want unknown", c)
	}
}

func TestToleranceFactorRampsToZeroOutsideMargin(t *testing.T) {
	min, max, margin := fixedpoint.FromFloat(0.3), fixedpoint.FromFloat(0.7), fixedpoint.FromFloat(0.1)

	if f := toleranceFactor(fixedpoint.FromFloat(0.5), min, max, margin); f != fixedpoint.One {
		t.Errorf("inside band = %v, want 1.0", f.Float())
	}
	if f := toleranceFactor(fixedpoint.FromFloat(0.75), min, max, margin); f <= 0 || f >= fixedpoint.One {
		t.Errorf("just outside band = %v, want partial ramp", f.Float())
	}
	if f := toleranceFactor(fixedpoint.FromFloat(1.0), min, max, margin); f != 0 {
		t.Errorf("far outside band = %v, want 0", f.Float())
	}
	if f := toleranceFactor(fixedpoint.Unknown, min, max, margin); !f.IsUnknown() {
		t.Errorf("unknown input should propagate, got %v", f)
	}
}

func TestDietAllowsWildcardMatchesAnything(t *testing.T) {
	if !dietAllows(0, vegetation.Sample{}) {
		t.Error("zero mask should allow any diet, even absent vegetation")
	}
	if dietAllows(1<<2, vegetation.Sample{Present: true, SpeciesID: 5}) {
		t.Error("mask without bit 5 should not allow species 5")
	}
	if !dietAllows(1<<5, vegetation.Sample{Present: true, SpeciesID: 5}) {
		t.Error("mask with bit 5 should allow species 5")
	}
	if dietAllows(1<<5, vegetation.Sample{Present: false, SpeciesID: 5}) {
		t.Error("absent vegetation should never satisfy a non-wildcard diet mask")
	}
}

func TestVegCoverageFactorIsNeutralWhenUnknown(t *testing.T) {
	unknown := vegetation.Sample{Flags: worldfield.FlagAllFieldsUnknown, Size: fixedpoint.Unknown}
	if got := vegCoverageFactor(unknown); got != fixedpoint.FromFloat(0.5) {
		t.Errorf("vegCoverageFactor(unknown) = %v, want 0.5", got.Float())
	}
	absent := vegetation.Sample{Present: false, Size: fixedpoint.FromFloat(0.4)}
	if got := vegCoverageFactor(absent); got != 0 {
		t.Errorf("vegCoverageFactor(absent) = %v, want 0", got.Float())
	}
	present := vegetation.Sample{Present: true, Size: fixedpoint.FromFloat(0.4)}
	if got := vegCoverageFactor(present); got != fixedpoint.FromFloat(0.4) {
		t.Errorf("vegCoverageFactor(present) = %v, want 0.4", got.Float())
	}
}

func TestWalkabilityFactorGatesByMovementMode(t *testing.T) {
	maxSlope := fixedpoint.FromFloat(0.5)

	dryLand := terrain.Sample{Phi: fixedpoint.FromFloat(-1), Slope: fixedpoint.FromFloat(0.1)}
	if f := walkabilityFactor(Land, dryLand, maxSlope); f <= 0 {
		t.Errorf("LAND on dry, shallow ground should be walkable, got %v", f.Float())
	}
	steepLand := terrain.Sample{Phi: fixedpoint.FromFloat(-1), Slope: fixedpoint.FromFloat(0.9)}
	if f := walkabilityFactor(Land, steepLand, maxSlope); f != 0 {
		t.Errorf("LAND on too-steep ground should gate to 0, got %v", f.Float())
	}
	submerged := terrain.Sample{Phi: fixedpoint.FromFloat(1)}
	if f := walkabilityFactor(Land, submerged, maxSlope); f != 0 {
		t.Errorf("LAND on submerged ground should gate to 0, got %v", f.Float())
	}
	if f := walkabilityFactor(Water, submerged, maxSlope); f <= 0 {
		t.Errorf("WATER on submerged ground should be walkable, got %v", f.Float())
	}
	if f := walkabilityFactor(Water, dryLand, maxSlope); f != 0 {
		t.Errorf("WATER on dry ground should gate to 0, got %v", f.Float())
	}
	if f := walkabilityFactor(Air, terrain.Sample{Phi: fixedpoint.Unknown}, maxSlope); f != fixedpoint.One {
		t.Errorf("AIR should be unrestricted even with unknown terrain, got %v", f.Float())
	}
	unknownTerrain := terrain.Sample{Phi: fixedpoint.Unknown}
	if f := walkabilityFactor(Land, unknownTerrain, maxSlope); f != 0 {
		t.Errorf("LAND with unknown terrain should gate to 0 (hard gate convention), got %v", f.Float())
	}
}

func TestResolveNeedFollowsFixedPriority(t *testing.T) {
	species := SpeciesProfile{MaturityTicks: 100, RestRequirement: fixedpoint.FromFloat(0.4)}

	if got := resolveNeed(species, 500, fixedpoint.FromFloat(0.1)); got != Eat {
		t.Errorf("low energy should select EAT regardless of other conditions, got %v", got)
	}
	if got := resolveNeed(species, 500, fixedpoint.FromFloat(0.35)); got != Rest {
		t.Errorf("energy below rest_requirement (and above eat floor) should select REST, got %v", got)
	}
	if got := resolveNeed(species, 500, fixedpoint.FromFloat(0.7)); got != Reproduce {
		t.Errorf("mature agent with high energy should select REPRODUCE, got %v", got)
	}
	if got := resolveNeed(species, 50, fixedpoint.FromFloat(0.7)); got != Wander {
		t.Errorf("immature agent with high energy should WANDER (not yet mature), got %v", got)
	}
	if got := resolveNeed(species, 500, fixedpoint.FromFloat(0.5)); got != Wander {
		t.Errorf("mid-energy mature-but-not-reproducing agent should WANDER, got %v", got)
	}
}

func TestFindBirthLocatesMostRecentGeneration(t *testing.T) {
	desc := NewPlacementDesc()
	species := SpeciesProfile{SpeciesID: 9, SpawnPeriodTicks: 100, LifespanTicks: 80}

	birth, k, ok := findBirth(desc, species, 1, 2, 3, 5000)
	if !ok {
		t.Fatal("expected a generation to be found")
	}
	if birth > 5000 {
		t.Fatalf("birth=%d must not be after the queried tick 5000", birth)
	}
	wantBirth := spawnBirth(desc, species, 1, 2, 3, k)
	if birth != wantBirth {
		t.Errorf("birth=%d should equal spawnBirth at its own index %d = %d", birth, k, wantBirth)
	}

	// Before the very first generation is ever conceived, no birth exists.
	if _, _, ok := findBirth(desc, species, 1, 2, 3, -1); ok {
		t.Error("no generation should be found before tick 0's spawn period begins")
	}
}

func TestEvaluateLifecycleDeathCascade(t *testing.T) {
	desc := NewPlacementDesc()
	species := SpeciesProfile{
		SpeciesID: 2, SpawnPeriodTicks: 1000, LifespanTicks: 500, MaturityTicks: 100,
		TempMin: 0, TempMax: fixedpoint.One, MoistureMin: 0, MoistureMax: fixedpoint.One,
		EnergyConsumptionRate: fixedpoint.FromFloat(0.01),
	}
	cand := placementCandidate{species: species, suitability: fixedpoint.One, placed: true}
	friendlyIn := cellInputs{
		climate: climateFactors{temperature: fixedpoint.FromFloat(0.5), moisture: fixedpoint.FromFloat(0.5)},
	}

	var birthTick int64 = -1
	for tick := int64(0); tick < species.SpawnPeriodTicks; tick++ {
		inst := evaluateLifecycle(desc, cand, true, friendlyIn, 7, 8, 9, tick)
		if inst.Present {
			birthTick = tick - inst.AgeTicks
			break
		}
	}
	if birthTick < 0 {
		t.Fatal("instance never became present")
	}

	atBirth := evaluateLifecycle(desc, cand, true, friendlyIn, 7, 8, 9, birthTick)
	if !atBirth.Present || atBirth.DeathReason != DeathNone {
		t.Fatalf("expected a live instance at birth, got %+v", atBirth)
	}

	aged := evaluateLifecycle(desc, cand, true, friendlyIn, 7, 8, 9, birthTick+species.LifespanTicks)
	if aged.Present || aged.DeathReason != DeathAge {
		t.Fatalf("expected DEAD/AGE at the lifespan boundary, got %+v", aged)
	}

	hungrySpecies := species
	hungrySpecies.EnergyConsumptionRate = fixedpoint.FromFloat(2)
	hungryCand := placementCandidate{species: hungrySpecies, suitability: fixedpoint.One, placed: true}
	starved := evaluateLifecycle(desc, hungryCand, true, friendlyIn, 7, 8, 9, birthTick+1)
	if starved.Present || starved.DeathReason != DeathStarvation {
		t.Fatalf("expected DEAD/STARVATION when consumption swamps energy, got %+v", starved)
	}

	harshIn := cellInputs{
		climate: climateFactors{temperature: fixedpoint.FromFloat(50), moisture: fixedpoint.FromFloat(0.5)},
	}
	stressedSpecies := species
	stressedSpecies.TempMin, stressedSpecies.TempMax = fixedpoint.FromFloat(0.2), fixedpoint.FromFloat(0.8)
	stressedSpecies.ToleranceMargin = fixedpoint.FromFloat(0.01)
	stressedCand := placementCandidate{species: stressedSpecies, suitability: fixedpoint.One, placed: true}
	stressed := evaluateLifecycle(desc, stressedCand, true, harshIn, 7, 8, 9, birthTick+1)
	if stressed.Present || stressed.DeathReason != DeathStress {
		t.Fatalf("expected DEAD/STRESS when climate_factor collapses, got %+v", stressed)
	}
}

func TestEvaluateLifecycleNoWinnerIsAbsent(t *testing.T) {
	desc := NewPlacementDesc()
	species := SpeciesProfile{SpeciesID: 3, SpawnPeriodTicks: 1000, LifespanTicks: 1}
	cand := placementCandidate{species: species, suitability: fixedpoint.One, placed: true}

	inst := evaluateLifecycle(desc, cand, false, cellInputs{}, 0, 0, 0, 0)
	if inst.SpeciesID != -1 || inst.Present {
		t.Errorf("no winner should yield an absent, unidentified instance, got %+v", inst)
	}
}

func TestZeroBudgetRefuses(t *testing.T) {
	d := newTestDomain(t)
	s := d.SampleQuery(worldfield.Point{Y: fixedpoint.FromInt(500)}, 0, worldfield.NewBudget(0))
	if s.Meta.Status != worldfield.StatusRefused {
		t.Fatalf("status = %v, want REFUSED", s.Meta.Status)
	}
	if s.SpeciesID != -1 {
		t.Errorf("refused sample should report no species, got %d", s.SpeciesID)
	}
}

func TestOutOfBoundsIsUnknown(t *testing.T) {
	d := newTestDomain(t)
	far := worldfield.Point{X: fixedpoint.FromInt(100000)}
	s := d.SampleQuery(far, 0, worldfield.NewBudget(1<<20))
	if s.Meta.RefusalReason != worldfield.ReasonOutOfBounds {
		t.Fatalf("refusal reason = %v, want OUT_OF_BOUNDS", s.Meta.RefusalReason)
	}
}

func TestTileGridConsistency(t *testing.T) {
	d := newTestDomain(t)
	policy := worldfield.DefaultPolicy()
	policy.MaxResolution = worldfield.Medium
	d.SetPolicy(policy)

	p := worldfield.Point{X: fixedpoint.FromInt(8), Y: fixedpoint.FromInt(500), Z: fixedpoint.FromInt(8)}
	coord := d.tileCoordFor(p, worldfield.Medium)
	bounds := coord.Bounds(d.Policy.TileSize)
	sampleDim, _ := d.Policy.SampleDimFor(worldfield.Medium)
	cell := cellSizeFromBounds(bounds, sampleDim)
	half := cell.Mul(fixedpoint.FromFloat(0.5))
	center := worldfield.Point{
		X: bounds.Min.X.Add(half),
		Y: bounds.Min.Y.Add(half),
		Z: bounds.Min.Z.Add(half),
	}

	windowStart, _ := d.windowFor(0)
	full := d.evaluateAnalytic(center, windowStart, worldfield.NewBudget(1<<20))
	tiled := d.SampleQuery(center, 0, worldfield.NewBudget(1000))

	if full.SpeciesID != tiled.SpeciesID || full.Present != tiled.Present {
		t.Errorf("tile/full mismatch: full=%+v tiled=%+v", full, tiled)
	}
}

func TestCollapseTileThenExpandIsReversible(t *testing.T) {
	d := newTestDomain(t)
	before := d.CapsuleCount()

	coord := d.tileCoordFor(worldfield.Point{Y: fixedpoint.FromInt(500)}, worldfield.Medium)
	id, err := d.CollapseTile(coord, 0)
	if err != nil {
		t.Fatalf("CollapseTile failed: %v", err)
	}
	if d.CapsuleCount() != before+1 {
		t.Fatalf("capsule count = %d, want %d", d.CapsuleCount(), before+1)
	}

	if err := d.ExpandTile(worldfield.TileID(id)); err != nil {
		t.Fatalf("ExpandTile failed: %v", err)
	}
	if d.CapsuleCount() != before {
		t.Fatalf("capsule count after expand = %d, want %d", d.CapsuleCount(), before)
	}
}

func TestSampleQueryInsideCollapsedWindowIsCollapsed(t *testing.T) {
	d := newTestDomain(t)
	coord := d.tileCoordFor(worldfield.Point{Y: fixedpoint.FromInt(500)}, worldfield.Medium)
	if _, err := d.CollapseTile(coord, 0); err != nil {
		t.Fatalf("CollapseTile failed: %v", err)
	}

	s := d.SampleQuery(worldfield.Point{Y: fixedpoint.FromInt(500)}, 1, worldfield.NewBudget(1000))
	if s.Meta.RefusalReason != worldfield.ReasonCollapsed {
		t.Fatalf("refusal reason = %v, want COLLAPSED", s.Meta.RefusalReason)
	}
	if s.Meta.Flags&worldfield.FlagCollapsed == 0 {
		t.Error("FlagCollapsed not set")
	}
}

func identicalToleranceSpecies(id int32) SpeciesProfile {
	return SpeciesProfile{
		SpeciesID: id, DensityBase: fixedpoint.FromFloat(0.9),
		TempMin: 0, TempMax: fixedpoint.One, MoistureMin: 0, MoistureMax: fixedpoint.One,
		Movement: Air,
	}
}

func TestEvaluateSpawnSetsContestedWhenSuitabilitiesTie(t *testing.T) {
	desc := NewPlacementDesc()
	desc.ContestMargin = fixedpoint.FromFloat(0.05)
	desc.Species = []SpeciesProfile{identicalToleranceSpecies(0), identicalToleranceSpecies(1)}

	in := cellInputs{
		climate:    climateFactors{temperature: fixedpoint.FromFloat(0.5), moisture: fixedpoint.FromFloat(0.5)},
		vegetation: vegetation.Sample{Present: true, Size: fixedpoint.One},
	}
	_, haveWinner, contested := evaluateSpawn(desc, in, 1, 2, 3)
	if !haveWinner {
		t.Fatal("expected a winner with identical full-tolerance species and density_base 0.9")
	}
	if !contested {
		t.Error("two species with identical suitability should mark the cell Contested")
	}
}

func TestEvaluateSpawnNotContestedWhenOneSpeciesDominates(t *testing.T) {
	desc := NewPlacementDesc()
	desc.ContestMargin = fixedpoint.FromFloat(0.05)
	dominant := identicalToleranceSpecies(0)
	weak := identicalToleranceSpecies(1)
	weak.TempMin, weak.TempMax = fixedpoint.FromFloat(0.9), fixedpoint.One
	weak.ToleranceMargin = 0
	desc.Species = []SpeciesProfile{dominant, weak}

	in := cellInputs{
		climate:    climateFactors{temperature: fixedpoint.FromFloat(0.5), moisture: fixedpoint.FromFloat(0.5)},
		vegetation: vegetation.Sample{Present: true, Size: fixedpoint.One},
	}
	_, haveWinner, contested := evaluateSpawn(desc, in, 1, 2, 3)
	if !haveWinner {
		t.Fatal("expected the dominant species to win")
	}
	if contested {
		t.Error("a species with zero suitability should not contest the winner")
	}
}
