package terrain

import (
	"testing"

	"github.com/spatialmodel/worldfield/fixedpoint"
	"github.com/spatialmodel/worldfield/worldfield"
)

func originPoint() worldfield.Point { return worldfield.Point{} }

// TestSphereOriginScenario matches spec.md §8 scenario 1: default terrain,
// SPHERE radius 512, seed 1, sample(point=(0,0,0), budget=10).
func TestSphereOriginScenario(t *testing.T) {
	desc := NewSurfaceDesc()
	d := NewDomain(desc, 8)
	d.SetState(worldfield.Declared, worldfield.ArchivalLive)

	budget := worldfield.NewBudget(10)
	s := d.SampleQuery(originPoint(), budget)

	if s.Meta.Status != worldfield.OK {
		t.Fatalf("status = %v, want OK", s.Meta.Status)
	}
	if s.Meta.Resolution != worldfield.Full {
		t.Errorf("resolution = %v, want FULL", s.Meta.Resolution)
	}
	wantPhi := fixedpoint.FromInt(-512)
	if diff := s.Phi.Sub(wantPhi).Abs(); diff > fixedpoint.FromFloat(1.0) {
		t.Errorf("phi = %v (%d raw), want close to %v (%d raw)", s.Phi.Float(), s.Phi, wantPhi.Float(), wantPhi)
	}
	if s.MaterialPrimary != 0 {
		t.Errorf("material_primary = %d, want 0", s.MaterialPrimary)
	}
	if s.Slope < 0 || s.Slope > desc.WalkableMaxSlope.Mul(fixedpoint.FromInt(100)) {
		t.Errorf("slope out of plausible range: %v", s.Slope.Float())
	}
}

// TestZeroBudgetRefuses matches spec.md §8 scenario 2: same setup, budget=0.
func TestZeroBudgetRefuses(t *testing.T) {
	desc := NewSurfaceDesc()
	d := NewDomain(desc, 8)
	d.SetState(worldfield.Declared, worldfield.ArchivalLive)

	budget := worldfield.NewBudget(0)
	s := d.SampleQuery(originPoint(), budget)

	if s.Meta.Status != worldfield.StatusRefused {
		t.Fatalf("status = %v, want REFUSED", s.Meta.Status)
	}
	if s.Meta.RefusalReason != worldfield.ReasonBudget {
		t.Fatalf("reason = %v, want BUDGET", s.Meta.RefusalReason)
	}
	if !s.Phi.IsUnknown() || !s.Slope.IsUnknown() || !s.Roughness.IsUnknown() || !s.TravelCost.IsUnknown() {
		t.Error("all fields must be UNKNOWN_Q16 on a refused query")
	}
	if s.Flags&worldfield.FlagAllFieldsUnknown == 0 {
		t.Error("flags must have the all-fields-unknown bit set")
	}
}

func TestLatLonRoundTripSphere(t *testing.T) {
	desc := NewSurfaceDesc()
	points := []worldfield.Point{
		{X: fixedpoint.FromInt(512)},
		{Y: fixedpoint.FromInt(512)},
		{Z: fixedpoint.FromInt(-512)},
		{X: fixedpoint.FromInt(300), Y: fixedpoint.FromInt(200), Z: fixedpoint.FromInt(350)},
		{X: fixedpoint.FromInt(-100), Y: fixedpoint.FromInt(490), Z: fixedpoint.FromInt(80)},
	}
	tolerance := fixedpoint.FromFloat(0.5)
	for _, p := range points {
		ll, ok := desc.ToLatLon(p)
		if !ok {
			t.Fatalf("ToLatLon(%v) unexpectedly not ok", p)
		}
		back, ok := desc.FromLatLon(ll)
		if !ok {
			t.Fatalf("FromLatLon unexpectedly not ok")
		}
		if diff := back.X.Sub(p.X).Abs(); diff > tolerance {
			t.Errorf("X round-trip: got %v, want %v (diff %v)", back.X.Float(), p.X.Float(), diff.Float())
		}
		if diff := back.Y.Sub(p.Y).Abs(); diff > tolerance {
			t.Errorf("Y round-trip: got %v, want %v (diff %v)", back.Y.Float(), p.Y.Float(), diff.Float())
		}
		if diff := back.Z.Sub(p.Z).Abs(); diff > tolerance {
			t.Errorf("Z round-trip: got %v, want %v (diff %v)", back.Z.Float(), p.Z.Float(), diff.Float())
		}
	}
}

func TestSlabPseudoLatitude(t *testing.T) {
	desc := NewSurfaceDesc()
	desc.Shape = Slab
	desc.HalfExtentXZ = fixedpoint.FromInt(1000)

	p := worldfield.Point{Y: fixedpoint.FromInt(500)}
	lat, ok := desc.PseudoLatitude(p)
	if !ok {
		t.Fatal("PseudoLatitude should be defined for Slab")
	}
	if lat != fixedpoint.FromFloat(0.25) {
		t.Errorf("pseudo-latitude = %v, want 0.25 (clamped)", lat.Float())
	}
	if _, ok := desc.ToLatLon(p); ok {
		t.Error("ToLatLon should not be defined for Slab")
	}
}

func TestDeterminismAcrossInstances(t *testing.T) {
	desc := NewSurfaceDesc()
	d1 := NewDomain(desc, 4)
	d2 := NewDomain(desc, 4)
	d1.SetState(worldfield.Declared, worldfield.ArchivalLive)
	d2.SetState(worldfield.Declared, worldfield.ArchivalLive)

	points := []worldfield.Point{
		originPoint(),
		{X: fixedpoint.FromInt(100), Y: fixedpoint.FromInt(50), Z: fixedpoint.FromInt(-30)},
		{X: fixedpoint.FromInt(-400)},
	}
	for _, p := range points {
		b1 := worldfield.NewBudget(1000)
		b2 := worldfield.NewBudget(1000)
		s1 := d1.SampleQuery(p, b1)
		s2 := d2.SampleQuery(p, b2)
		if s1.Phi != s2.Phi || s1.Slope != s2.Slope || s1.Roughness != s2.Roughness {
			t.Errorf("nondeterministic result at %v: %+v vs %+v", p, s1, s2)
		}
	}
}

func TestTileGridConsistency(t *testing.T) {
	desc := NewSurfaceDesc()
	policy := worldfield.DefaultPolicy()
	policy.MaxResolution = worldfield.Medium
	d := NewDomain(desc, 8)
	d.SetState(worldfield.Declared, worldfield.ArchivalLive)
	d.SetPolicy(policy)

	coord := d.tileCoordFor(originPoint(), worldfield.Medium)
	bounds := coord.Bounds(d.Policy.TileSize)
	sampleDim, _ := d.Policy.SampleDimFor(worldfield.Medium)
	cell := cellSize(bounds, sampleDim)
	center := worldfield.Point{
		X: bounds.Min.X.Add(cell.Mul(fixedpoint.FromFloat(0.5))),
		Y: bounds.Min.Y.Add(cell.Mul(fixedpoint.FromFloat(0.5))),
		Z: bounds.Min.Z.Add(cell.Mul(fixedpoint.FromFloat(0.5))),
	}

	full := desc.Evaluate(center)

	mediumBudget := worldfield.NewBudget(1000)
	mediumPolicy := worldfield.DefaultPolicy()
	mediumPolicy.MaxResolution = worldfield.Medium
	d2 := NewDomain(desc, 8)
	d2.SetState(worldfield.Declared, worldfield.ArchivalLive)
	d2.SetPolicy(mediumPolicy)
	tiled := d2.SampleQuery(center, mediumBudget)

	if full.Phi != tiled.Phi {
		t.Errorf("tile/full mismatch at cell center: full phi=%v, tiled phi=%v", full.Phi.Float(), tiled.Phi.Float())
	}
}
