package terrain

import (
	"github.com/spatialmodel/worldfield/fixedpoint"
	"github.com/spatialmodel/worldfield/worldfield"
	"github.com/spatialmodel/worldfield/worldrng"
)

// Sample is the field value set a terrain query returns. Every field is
// either a declared-range value or fixedpoint.Unknown, per the engine-wide
// "never silently clamp" invariant.
type Sample struct {
	Phi               fixedpoint.Q16
	Slope             fixedpoint.Q16
	Roughness         fixedpoint.Q16
	TravelCost        fixedpoint.Q16
	Walkable          bool
	MaterialPrimary   int32
	MaterialSecondary int32
	MaterialBlend     fixedpoint.Q16
	Flags             worldfield.SampleFlags
	Meta              worldfield.QueryMeta
}

func unknownSample() Sample {
	return Sample{
		Phi:        fixedpoint.Unknown,
		Slope:      fixedpoint.Unknown,
		Roughness:  fixedpoint.Unknown,
		TravelCost: fixedpoint.Unknown,
		Flags:      worldfield.FlagFieldsUnknown | worldfield.FlagAllFieldsUnknown,
	}
}

// displacementSeed and roughnessSeed derive this domain's two independent
// noise streams from its identity, per spec.md §4.1's "Four independent
// noise streams are derived once from the domain seed" pattern (here
// reused for terrain's two noise bands rather than climate's four).
func (desc SurfaceDesc) displacementSeed() uint64 {
	return worldrng.HashIDs(int64(desc.WorldSeed), int64(desc.DomainID), int64(worldrng.HashName("terrain.displacement")))
}

func (desc SurfaceDesc) roughnessSeed() uint64 {
	return worldrng.HashIDs(int64(desc.WorldSeed), int64(desc.DomainID), int64(worldrng.HashName("terrain.roughness")))
}

// baseSDF evaluates the undisplaced shape distance at p: negative inside
// the solid, positive in open air.
func (desc SurfaceDesc) baseSDF(p worldfield.Point) fixedpoint.Q16 {
	switch desc.Shape {
	case Sphere:
		return magnitude3(p).Sub(desc.Radius)
	case Oblate:
		mag, latTurns := verticalAngle(p)
		radiusAtLat := fixedpoint.Lerp(desc.EquatorialRadius, desc.PolarRadius, latTurns.Abs().Mul(fixedpoint.FromInt(4)))
		return mag.Sub(radiusAtLat)
	case Slab:
		return p.Y.Abs().Sub(desc.HalfThicknessY)
	default:
		return fixedpoint.Unknown
	}
}

// cellIndices maps p to its integer lattice cell for noise sampling.
func cellIndices(p worldfield.Point, cellSize fixedpoint.Q16) (int32, int32, int32) {
	return p.X.FloorDiv(cellSize), p.Y.FloorDiv(cellSize), p.Z.FloorDiv(cellSize)
}

// phi evaluates the displaced signed distance at p: the shape's base
// distance plus an additive value-noise perturbation (spec.md §4.4).
func (desc SurfaceDesc) phi(p worldfield.Point) fixedpoint.Q16 {
	base := desc.baseSDF(p)
	if base.IsUnknown() {
		return base
	}
	ix, iy, iz := cellIndices(p, desc.CellSize)
	noise := worldrng.Noise3(desc.displacementSeed(), ix, iy, iz, desc.Amplitude)
	return base.Add(noise)
}

// gradientStep is the finite-difference step used to approximate the local
// tangent-plane gradient of phi. It is fixed rather than policy-configured
// because it must match exactly between any two evaluations of the same
// point for the cache-purity invariant to hold.
var gradientStep = fixedpoint.FromFloat(0.5)

// slopeAt approximates the magnitude of phi's 2D gradient in the local
// tangent plane via central differences along the X and Z axes. This is an
// approximation (true tangent-plane projection for a curved shape would
// require the surface normal), adequate for the roughness/travel-cost/
// walkability derivations that only need a monotonic slope proxy.
func (desc SurfaceDesc) slopeAt(p worldfield.Point) fixedpoint.Q16 {
	h := gradientStep
	px1 := p
	px1.X = px1.X.Add(h)
	px0 := p
	px0.X = px0.X.Sub(h)
	pz1 := p
	pz1.Z = pz1.Z.Add(h)
	pz0 := p
	pz0.Z = pz0.Z.Sub(h)

	dPhiDx := desc.phi(px1).Sub(desc.phi(px0)).Div(h.Mul(fixedpoint.FromInt(2)))
	dPhiDz := desc.phi(pz1).Sub(desc.phi(pz0)).Div(h.Mul(fixedpoint.FromInt(2)))
	sumSq := dPhiDx.MulWide(dPhiDx).Add(dPhiDz.MulWide(dPhiDz))
	return sumSq.Sqrt().Q16()
}

// roughnessAt returns roughness_base plus a noise term drawn from the
// roughness stream, independent of the displacement stream.
func (desc SurfaceDesc) roughnessAt(p worldfield.Point) fixedpoint.Q16 {
	ix, iy, iz := cellIndices(p, desc.CellSize)
	n := worldrng.Ratio3(desc.roughnessSeed(), ix, iy, iz)
	return desc.RoughnessBase.Add(n.Mul(desc.RoughnessScale))
}

// Evaluate computes a full terrain Sample at p analytically (used for both
// the FULL and ANALYTIC ladder tiers).
func (desc SurfaceDesc) Evaluate(p worldfield.Point) Sample {
	phi := desc.phi(p)
	slope := desc.slopeAt(p)
	roughness := desc.roughnessAt(p)
	travelCost := desc.TravelCostBase.Add(slope.Mul(desc.SlopeScale)).Add(roughness.Mul(desc.RoughnessScale))
	walkable := phi <= 0 && slope <= desc.WalkableMaxSlope

	depth := phi.Abs()
	ix, iy, iz := cellIndices(p, desc.CellSize)
	materialNoise := worldrng.Ratio3(desc.roughnessSeed()^0x5bd1e995, ix, iy, iz)
	primary, secondary, blend := desc.Materials.Resolve(depth, materialNoise)

	return Sample{
		Phi:               phi,
		Slope:             slope,
		Roughness:         roughness,
		TravelCost:        travelCost,
		Walkable:          walkable,
		MaterialPrimary:   primary,
		MaterialSecondary: secondary,
		MaterialBlend:     blend,
	}
}

// magnitude3 computes ||p|| using a Q48 intermediate for the sum of
// squares, since the squares of realistic world coordinates overflow
// Q16.16 even though the final magnitude fits comfortably.
func magnitude3(p worldfield.Point) fixedpoint.Q16 {
	sum := p.X.MulWide(p.X).Add(p.Y.MulWide(p.Y)).Add(p.Z.MulWide(p.Z))
	return sum.Sqrt().Q16()
}
