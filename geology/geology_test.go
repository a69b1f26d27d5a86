package geology

import (
	"testing"

	"github.com/spatialmodel/worldfield/fixedpoint"
	"github.com/spatialmodel/worldfield/worldfield"
)

func TestAboveGroundIsUnknown(t *testing.T) {
	desc := NewStrataDesc()
	d := NewDomain(desc, 8)
	d.SetState(worldfield.Declared, worldfield.ArchivalLive)

	s := d.SampleQuery(worldfield.Point{Y: fixedpoint.FromInt(600)}, worldfield.NewBudget(1000))
	if !s.Depth.IsUnknown() || s.LayerID != -1 {
		t.Errorf("above-ground point should be all-unknown, got %+v", s)
	}
}

func TestLayerSelectionByDepth(t *testing.T) {
	desc := NewStrataDesc()
	d := NewDomain(desc, 8)
	d.SetState(worldfield.Declared, worldfield.ArchivalLive)

	// Radius 512; a point at Y=505 is depth ~7 (layer 1, thickness 4..24).
	s := d.SampleQuery(worldfield.Point{Y: fixedpoint.FromInt(505)}, worldfield.NewBudget(1000))
	if s.LayerID != 1 {
		t.Errorf("layer = %d, want 1 (depth ~7 falls past layer 0's 4-unit thickness)", s.LayerID)
	}
}

func TestZeroThicknessLayerAbsorbsRemainder(t *testing.T) {
	desc := NewStrataDesc()
	d := NewDomain(desc, 8)
	d.SetState(worldfield.Declared, worldfield.ArchivalLive)

	// Depth far past layer 0 (4) + layer 1 (20) = 24 falls into layer 2
	// (zero thickness, infinite remaining).
	s := d.SampleQuery(worldfield.Point{Y: fixedpoint.FromInt(450)}, worldfield.NewBudget(1000))
	if s.LayerID != 2 {
		t.Errorf("layer = %d, want 2 (infinite bedrock)", s.LayerID)
	}
}

func TestResourceDensityInBounds(t *testing.T) {
	desc := NewStrataDesc()
	d := NewDomain(desc, 8)
	d.SetState(worldfield.Declared, worldfield.ArchivalLive)

	s := d.SampleQuery(worldfield.Point{Y: fixedpoint.FromInt(500)}, worldfield.NewBudget(1000))
	for i, density := range s.ResourceDensities {
		if density < 0 || density > fixedpoint.One {
			t.Errorf("resource %d density = %v out of [0,1]", i, density.Float())
		}
	}
}

func TestZeroBudgetRefuses(t *testing.T) {
	desc := NewStrataDesc()
	d := NewDomain(desc, 8)
	d.SetState(worldfield.Declared, worldfield.ArchivalLive)

	s := d.SampleQuery(worldfield.Point{Y: fixedpoint.FromInt(500)}, worldfield.NewBudget(0))
	if s.Meta.Status != worldfield.StatusRefused {
		t.Fatalf("status = %v, want REFUSED", s.Meta.Status)
	}
	if !s.Depth.IsUnknown() || len(s.ResourceDensities) != len(desc.Resources) {
		t.Errorf("refused sample shape wrong: %+v", s)
	}
}

func TestTileGridConsistency(t *testing.T) {
	desc := NewStrataDesc()
	policy := worldfield.DefaultPolicy()
	policy.MaxResolution = worldfield.Medium
	d := NewDomain(desc, 8)
	d.SetState(worldfield.Declared, worldfield.ArchivalLive)
	d.SetPolicy(policy)

	coord := d.tileCoordFor(worldfield.Point{Y: fixedpoint.FromInt(500)}, worldfield.Medium)
	bounds := coord.Bounds(d.Policy.TileSize)
	sampleDim, _ := d.Policy.SampleDimFor(worldfield.Medium)
	cell := cellSize(bounds, sampleDim)
	center := worldfield.Point{
		X: bounds.Min.X.Add(cell.Mul(fixedpoint.FromFloat(0.5))),
		Y: bounds.Min.Y.Add(cell.Mul(fixedpoint.FromFloat(0.5))),
		Z: bounds.Min.Z.Add(cell.Mul(fixedpoint.FromFloat(0.5))),
	}

	full := d.Desc.Evaluate(center)
	tiled := d.SampleQuery(center, worldfield.NewBudget(1000))

	if full.Depth != tiled.Depth || full.LayerID != tiled.LayerID {
		t.Errorf("tile/full mismatch: full=%+v tiled=%+v", full, tiled)
	}
}
