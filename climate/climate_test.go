package climate

import (
	"testing"

	"github.com/spatialmodel/worldfield/fixedpoint"
	"github.com/spatialmodel/worldfield/worldfield"
)

func TestEquatorWarmerThanPole(t *testing.T) {
	desc := NewEnvelopeDesc()
	d := NewDomain(desc, 8)
	d.SetState(worldfield.Declared, worldfield.ArchivalLive)

	equator := d.SampleQuery(worldfield.Point{}, worldfield.NewBudget(1000))
	pole := d.SampleQuery(worldfield.Point{Y: fixedpoint.FromInt(500)}, worldfield.NewBudget(1000))

	if equator.TemperatureMean <= pole.TemperatureMean {
		t.Errorf("equator temp %v should exceed pole temp %v", equator.TemperatureMean.Float(), pole.TemperatureMean.Float())
	}
}

func TestAnchorOverride(t *testing.T) {
	desc := NewEnvelopeDesc()
	desc.Anchors = []Anchor{
		{
			Bounds:          worldfield.AABB{Min: worldfield.Point{X: fixedpoint.FromInt(-10), Y: fixedpoint.FromInt(-10), Z: fixedpoint.FromInt(-10)}, Max: worldfield.Point{X: fixedpoint.FromInt(10), Y: fixedpoint.FromInt(10), Z: fixedpoint.FromInt(10)}},
			Mask:            FieldTemperatureMean | FieldWindPrevailing,
			TemperatureMean: fixedpoint.FromFloat(0.9),
			WindPrevailing:  West,
		},
	}
	d := NewDomain(desc, 8)
	d.SetState(worldfield.Declared, worldfield.ArchivalLive)

	s := d.SampleQuery(worldfield.Point{}, worldfield.NewBudget(1000))
	if s.TemperatureMean != fixedpoint.FromFloat(0.9) {
		t.Errorf("anchor override not applied: temp = %v", s.TemperatureMean.Float())
	}
	if s.WindPrevailing != West {
		t.Errorf("anchor wind override not applied: wind = %v", s.WindPrevailing)
	}
}

func TestZeroBudgetRefuses(t *testing.T) {
	desc := NewEnvelopeDesc()
	d := NewDomain(desc, 8)
	d.SetState(worldfield.Declared, worldfield.ArchivalLive)

	s := d.SampleQuery(worldfield.Point{}, worldfield.NewBudget(0))
	if s.Meta.Status != worldfield.StatusRefused {
		t.Fatalf("status = %v, want REFUSED", s.Meta.Status)
	}
	if !s.TemperatureMean.IsUnknown() || s.WindPrevailing != WindUnknown {
		t.Error("refused query must report all-unknown fields")
	}
}

func TestBiomeResolveUnanimousRules(t *testing.T) {
	catalog := RuleCatalog{Rules: []Rule{
		{BiomeID: 1, Mask: PredTemperature, TemperatureMin: fixedpoint.FromFloat(0.6), TemperatureMax: fixedpoint.One},
		{BiomeID: 2, Mask: PredTemperature, TemperatureMin: 0, TemperatureMax: fixedpoint.FromFloat(0.4)},
	}}
	hot := ClassifyInputs{Temperature: fixedpoint.FromFloat(0.8)}
	res := BiomeResolve(catalog, hot)
	if res.BiomeID != 1 || res.Unknown {
		t.Errorf("got %+v, want biome 1 known", res)
	}
}

func TestBiomeResolveUnknownPredicateDoesNotReject(t *testing.T) {
	catalog := RuleCatalog{Rules: []Rule{
		{BiomeID: 5, Mask: PredTemperature | PredMoisture, TemperatureMin: fixedpoint.FromFloat(0.6), TemperatureMax: fixedpoint.One, MoistureMin: 0, MoistureMax: fixedpoint.FromFloat(0.1)},
	}}
	inputs := ClassifyInputs{Temperature: fixedpoint.FromFloat(0.8), Moisture: fixedpoint.FromFloat(0.9), Unknown: PredMoisture}
	res := BiomeResolve(catalog, inputs)
	if res.BiomeID != 5 || res.Unknown {
		t.Errorf("unknown predicate should not reject the rule: got %+v", res)
	}
	if res.Confidence != fixedpoint.FromFloat(0.5) {
		t.Errorf("confidence = %v, want 0.5 (1 known of 2 total)", res.Confidence.Float())
	}
}

func TestBiomeResolveTieBreaksByKnownThenID(t *testing.T) {
	catalog := RuleCatalog{Rules: []Rule{
		{BiomeID: 9, Mask: PredTemperature, TemperatureMin: 0, TemperatureMax: fixedpoint.One},
		{BiomeID: 3, Mask: PredTemperature, TemperatureMin: 0, TemperatureMax: fixedpoint.One},
	}}
	res := BiomeResolve(catalog, ClassifyInputs{Temperature: fixedpoint.FromFloat(0.5)})
	if res.BiomeID != 3 {
		t.Errorf("tie should break to lower biome_id: got %d", res.BiomeID)
	}
}

func TestBiomeResolveNoSurvivorsReturnsZeroUnknown(t *testing.T) {
	catalog := RuleCatalog{Rules: []Rule{
		{BiomeID: 1, Mask: PredTemperature, TemperatureMin: fixedpoint.FromFloat(0.9), TemperatureMax: fixedpoint.One},
	}}
	res := BiomeResolve(catalog, ClassifyInputs{Temperature: fixedpoint.FromFloat(0.1)})
	if !res.Unknown || res.BiomeID != 0 {
		t.Errorf("no surviving rule should yield biome 0 unknown, got %+v", res)
	}
}

func TestBiomeResolveZeroKnownReturnsUnknown(t *testing.T) {
	catalog := RuleCatalog{Rules: []Rule{
		{BiomeID: 7, Mask: PredTemperature, TemperatureMin: 0, TemperatureMax: fixedpoint.One},
	}}
	res := BiomeResolve(catalog, ClassifyInputs{Unknown: PredTemperature})
	if !res.Unknown {
		t.Errorf("a winner with known==0 must report Unknown, got %+v", res)
	}
}

func TestTileGridConsistency(t *testing.T) {
	desc := NewEnvelopeDesc()
	policy := worldfield.DefaultPolicy()
	policy.MaxResolution = worldfield.Medium
	d := NewDomain(desc, 8)
	d.SetState(worldfield.Declared, worldfield.ArchivalLive)
	d.SetPolicy(policy)

	coord := d.tileCoordFor(worldfield.Point{}, worldfield.Medium)
	bounds := coord.Bounds(d.Policy.TileSize)
	sampleDim, _ := d.Policy.SampleDimFor(worldfield.Medium)
	cell := cellSize(bounds, sampleDim)
	center := worldfield.Point{
		X: bounds.Min.X.Add(cell.Mul(fixedpoint.FromFloat(0.5))),
		Y: bounds.Min.Y.Add(cell.Mul(fixedpoint.FromFloat(0.5))),
		Z: bounds.Min.Z.Add(cell.Mul(fixedpoint.FromFloat(0.5))),
	}

	full := desc.Evaluate(center)
	tiled := d.SampleQuery(center, worldfield.NewBudget(1000))

	if full.TemperatureMean != tiled.TemperatureMean {
		t.Errorf("tile/full mismatch: full=%v tiled=%v", full.TemperatureMean.Float(), tiled.TemperatureMean.Float())
	}
}
