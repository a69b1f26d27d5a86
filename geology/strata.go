// Package geology implements the stratified layer and resource provider of
// spec.md §4.7: depth-keyed layer lookup plus independent per-resource
// noise streams, with a fracture-gated secondary "vein" noise band.
package geology

import (
	"fmt"

	"github.com/sirupsen/logrus"

	"github.com/spatialmodel/worldfield/fixedpoint"
	"github.com/spatialmodel/worldfield/worldfield"
	"github.com/spatialmodel/worldfield/worldrng"
)

// Layer is one stratified layer, ordered outermost (closest to surface)
// first. A zero Thickness means "infinite remaining" (spec.md §4.7):
// depths past every finite layer above it fall into the first zero-
// thickness layer encountered, or the last layer if none is explicitly
// infinite.
type Layer struct {
	LayerID      int32
	Thickness    fixedpoint.Q16
	Hardness     fixedpoint.Q16
	FractureRisk fixedpoint.Q16
	HasFracture  bool
}

// Resource is one extractable resource's density model: a base density
// plus amplitude-scaled noise, a threshold-gated pocket boost, and a
// fracture-gated secondary vein noise band (the original_source-sourced
// supplemented feature of spec.md's distillation — see DESIGN.md).
type Resource struct {
	ResourceID      int32
	BaseDensity     fixedpoint.Q16
	Amplitude       fixedpoint.Q16
	PocketThreshold fixedpoint.Q16
	PocketBoost     fixedpoint.Q16
	VeinBoost       fixedpoint.Q16
	VeinFrequency   fixedpoint.Q16
}

func fieldName(r Resource) string { return fmt.Sprintf("resource_%d", r.ResourceID) }

// StrataDesc configures one geology domain instance.
type StrataDesc struct {
	DomainID  worldfield.DomainID
	WorldSeed uint64
	Bounds    worldfield.AABB
	HasSource bool

	// Radius gives geology its own minimal sphere model for "depth below
	// surface" — like climate, geology has no dependency on terrain's SDF,
	// so it derives depth directly from the point's distance to Radius.
	Radius   fixedpoint.Q16
	CellSize fixedpoint.Q16

	Layers    []Layer
	Resources []Resource
}

// NewStrataDesc returns a three-layer default: topsoil, rock, infinite
// bedrock, with one resource (ore) at moderate base density.
func NewStrataDesc() StrataDesc {
	return StrataDesc{
		WorldSeed: 1,
		Bounds:    worldfield.AABB{Min: worldfield.Point{X: fixedpoint.FromInt(-1024), Y: fixedpoint.FromInt(-1024), Z: fixedpoint.FromInt(-1024)}, Max: worldfield.Point{X: fixedpoint.FromInt(1024), Y: fixedpoint.FromInt(1024), Z: fixedpoint.FromInt(1024)}},
		HasSource: true,
		Radius:    fixedpoint.FromInt(512),
		CellSize:  fixedpoint.FromInt(8),
		Layers: []Layer{
			{LayerID: 0, Thickness: fixedpoint.FromInt(4), Hardness: fixedpoint.FromFloat(0.2), FractureRisk: fixedpoint.FromFloat(0.1)},
			{LayerID: 1, Thickness: fixedpoint.FromInt(20), Hardness: fixedpoint.FromFloat(0.6), FractureRisk: fixedpoint.FromFloat(0.3), HasFracture: true},
			{LayerID: 2, Thickness: 0, Hardness: fixedpoint.FromFloat(0.9), FractureRisk: fixedpoint.FromFloat(0.05)},
		},
		Resources: []Resource{
			{ResourceID: 0, BaseDensity: fixedpoint.FromFloat(0.1), Amplitude: fixedpoint.FromFloat(0.1), PocketThreshold: fixedpoint.FromFloat(0.8), PocketBoost: fixedpoint.FromFloat(0.4), VeinBoost: fixedpoint.FromFloat(0.2), VeinFrequency: fixedpoint.FromInt(4)},
		},
	}
}

func normalize(desc StrataDesc, parent *StrataDesc) StrataDesc {
	out := desc
	out.Layers = append([]Layer(nil), desc.Layers...)
	out.Resources = append([]Resource(nil), desc.Resources...)
	if parent != nil {
		out.DomainID = parent.DomainID
		out.WorldSeed = parent.WorldSeed
		out.Bounds = parent.Bounds
	}
	return out
}

func defaultLogger() logrus.FieldLogger { return logrus.StandardLogger() }

// depthAt returns (depth, underground). depth is only meaningful when
// underground is true — above-ground points are entirely unknown
// (spec.md §4.7: "only when φ≤0; above ground is all-unknown").
func (desc StrataDesc) depthAt(p worldfield.Point) (depth fixedpoint.Q16, underground bool) {
	horizSq := p.X.MulWide(p.X).Add(p.Y.MulWide(p.Y)).Add(p.Z.MulWide(p.Z))
	mag := horizSq.Sqrt().Q16()
	phi := mag.Sub(desc.Radius)
	if phi > 0 {
		return fixedpoint.Unknown, false
	}
	return phi.Neg(), true
}

// selectLayer walks the layer stack by cumulative thickness, returning the
// index of the layer containing depth. A zero-thickness layer absorbs all
// remaining depth; if no layer is configured with zero thickness, depth
// past the last layer's cumulative extent still resolves to the last
// layer (the stack is treated as bottoming out, not running off the end).
func selectLayer(depth fixedpoint.Q16, layers []Layer) (int, bool) {
	if len(layers) == 0 {
		return 0, false
	}
	var cumulative fixedpoint.Q16
	for i, l := range layers {
		if l.Thickness == 0 {
			return i, true
		}
		cumulative = cumulative.Add(l.Thickness)
		if depth < cumulative {
			return i, true
		}
	}
	return len(layers) - 1, true
}

func cellIndices(p worldfield.Point, cellSize fixedpoint.Q16) (int32, int32, int32) {
	return p.X.FloorDiv(cellSize), p.Y.FloorDiv(cellSize), p.Z.FloorDiv(cellSize)
}

func (desc StrataDesc) noiseSeed(name string, resourceID int32) uint64 {
	return worldrng.HashIDs(int64(desc.WorldSeed), int64(desc.DomainID), int64(resourceID), int64(worldrng.HashName(name)))
}

// resourceDensity evaluates one resource's density at p's lattice cell,
// given the governing layer (for the fracture gate).
func (desc StrataDesc) resourceDensity(r Resource, layer Layer, ix, iy, iz int32) fixedpoint.Q16 {
	noise := worldrng.Noise3(desc.noiseSeed("geology.resource", r.ResourceID), ix, iy, iz, r.Amplitude)
	density := r.BaseDensity.Add(noise)

	pocketRatio := worldrng.Ratio3(desc.noiseSeed("geology.pocket", r.ResourceID), ix, iy, iz)
	if pocketRatio >= r.PocketThreshold {
		density = density.Add(r.PocketBoost)
	}

	if layer.HasFracture {
		// VeinFrequency multiplies the lattice resolution so the vein band
		// varies faster across space than the base noise, per the original
		// module's higher-frequency fracture texture (see DESIGN.md).
		mult := r.VeinFrequency.Int()
		if mult < 1 {
			mult = 1
		}
		veinNoise := worldrng.Ratio3(desc.noiseSeed("geology.vein", r.ResourceID), ix*mult, iy*mult, iz*mult)
		if veinNoise.Mul(layer.FractureRisk) > fixedpoint.FromFloat(0.5) {
			density = density.Add(r.VeinBoost)
		}
	}

	return density.Clamp(0, fixedpoint.One)
}
