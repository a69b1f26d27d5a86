// Package terrain implements the SDF-backed terrain provider of spec.md
// §4.4: solid/air classification, slope/roughness/travel-cost derivation,
// the material table, and lat/lon round-trip conversion.
package terrain

import (
	"github.com/sirupsen/logrus"
	"github.com/spatialmodel/worldfield/fixedpoint"
	"github.com/spatialmodel/worldfield/worldfield"
)

// Shape selects the SDF family a surface uses.
type Shape int

const (
	Sphere Shape = iota
	Oblate
	Slab
)

// MaterialBand assigns a primary/secondary material pair to every depth
// below MaxDepth not already claimed by an earlier band in the table; the
// last band in a table should carry a MaxDepth large enough to never be
// exceeded (NewSurfaceDesc uses a single all-covering band by default).
// This is the supplemented terrain material table (SPEC_FULL.md §6 item
// 1): spec.md §8 scenario 1 references material_primary without
// defining how it is derived, so a table keyed by depth band is introduced
// here, grounded the same way the original engine keys layer lookups by
// cumulative depth (see geology.Layer).
type MaterialBand struct {
	MaxDepth  fixedpoint.Q16
	Primary   int32
	Secondary int32
	BlendBase fixedpoint.Q16
}

// MaterialTable is an ordered list of MaterialBand. Resolve picks the first
// band whose MaxDepth is at or above the depth; MaxDepth is an absolute
// depth below the surface, not a thickness summed band by band as geology
// does for strata.
type MaterialTable struct {
	Bands []MaterialBand
}

// Resolve returns the primary/secondary material and a noise-perturbed
// blend ratio for a point at the given depth-below-surface. noiseRatio is
// in [0,1) and nudges BlendBase so a flat material table still produces
// some visual variation at the material boundary.
func (m MaterialTable) Resolve(depth fixedpoint.Q16, noiseRatio fixedpoint.Q16) (primary, secondary int32, blend fixedpoint.Q16) {
	if len(m.Bands) == 0 {
		return 0, 0, 0
	}
	for _, b := range m.Bands {
		if depth <= b.MaxDepth {
			blend = b.BlendBase.Add(noiseRatio.Mul(fixedpoint.FromFloat(0.1))).Clamp(0, fixedpoint.One)
			return b.Primary, b.Secondary, blend
		}
	}
	last := m.Bands[len(m.Bands)-1]
	blend = last.BlendBase.Clamp(0, fixedpoint.One)
	return last.Primary, last.Secondary, blend
}

// DefaultMaterialTable returns a single band covering all depths with
// material id 0, matching spec.md §8 scenario 1's material_primary=0.
func DefaultMaterialTable() MaterialTable {
	return MaterialTable{Bands: []MaterialBand{
		{MaxDepth: fixedpoint.FromInt(1 << 20), Primary: 0, Secondary: 0, BlendBase: 0},
	}}
}

// SurfaceDesc is the immutable descriptor configuring a terrain domain.
// Fields not relevant to Shape are ignored (e.g. EquatorialRadius is unused
// for Sphere).
type SurfaceDesc struct {
	DomainID  worldfield.DomainID
	WorldSeed uint64

	Shape Shape

	Radius fixedpoint.Q16 // Sphere

	EquatorialRadius fixedpoint.Q16 // Oblate
	PolarRadius      fixedpoint.Q16 // Oblate

	HalfExtentXZ    fixedpoint.Q16 // Slab: horizontal half-extent
	HalfThicknessY  fixedpoint.Q16 // Slab: vertical half-thickness

	CellSize  fixedpoint.Q16
	Amplitude fixedpoint.Q16

	RoughnessBase  fixedpoint.Q16
	RoughnessScale fixedpoint.Q16
	SlopeScale     fixedpoint.Q16
	TravelCostBase fixedpoint.Q16

	WalkableMaxSlope fixedpoint.Q16

	Materials MaterialTable

	Bounds    worldfield.AABB
	HasSource bool
}

// NewSurfaceDesc returns a zero-filled descriptor with sensible defaults:
// a radius-512 sphere, matching spec.md §8 scenario 1's default setup.
func NewSurfaceDesc() SurfaceDesc {
	r := fixedpoint.FromInt(512)
	return SurfaceDesc{
		WorldSeed:        1,
		Shape:            Sphere,
		Radius:           r,
		EquatorialRadius: r,
		PolarRadius:      fixedpoint.FromFloat(float64(r.Int()) * 0.98),
		HalfExtentXZ:     r,
		HalfThicknessY:   fixedpoint.FromInt(64),
		CellSize:         fixedpoint.FromInt(16),
		Amplitude:        fixedpoint.FromFloat(0.5),
		RoughnessBase:    fixedpoint.FromFloat(0.1),
		RoughnessScale:   fixedpoint.FromFloat(0.05),
		SlopeScale:       fixedpoint.One,
		TravelCostBase:   fixedpoint.FromFloat(1.0),
		WalkableMaxSlope: fixedpoint.FromFloat(0.6),
		Materials:        DefaultMaterialTable(),
		Bounds: worldfield.AABB{
			Min: worldfield.Point{X: fixedpoint.FromInt(-1024), Y: fixedpoint.FromInt(-1024), Z: fixedpoint.FromInt(-1024)},
			Max: worldfield.Point{X: fixedpoint.FromInt(1024), Y: fixedpoint.FromInt(1024), Z: fixedpoint.FromInt(1024)},
		},
		HasSource: true,
	}
}

// normalize deep-copies and fills in any domain identity fields a parent
// domain should own (spec.md §3's "child descs inherit domain_id/
// world_seed/shape from parent"). For a top-level terrain domain, parent is
// the zero value and normalize is a no-op besides the defensive copy.
func normalize(desc SurfaceDesc, parent *SurfaceDesc) SurfaceDesc {
	out := desc
	out.Materials.Bands = append([]MaterialBand(nil), desc.Materials.Bands...)
	if parent != nil {
		out.DomainID = parent.DomainID
		out.WorldSeed = parent.WorldSeed
		out.Shape = parent.Shape
	}
	return out
}

func defaultLogger() logrus.FieldLogger { return logrus.StandardLogger() }
