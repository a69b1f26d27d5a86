package geology

import (
	"github.com/spatialmodel/worldfield/fixedpoint"
	"github.com/spatialmodel/worldfield/worldfield"
)

// Sample is one geology query's result (spec.md §4.7). LayerID is -1 when
// the point is above ground (depth is undefined there).
type Sample struct {
	Depth        fixedpoint.Q16
	LayerID      int32
	Hardness     fixedpoint.Q16
	FractureRisk fixedpoint.Q16
	HasFracture  bool

	// ResourceDensities is indexed in the same order as StrataDesc.Resources.
	ResourceDensities []fixedpoint.Q16

	Flags worldfield.SampleFlags
	Meta  worldfield.QueryMeta
}

func (desc StrataDesc) unknownSample() Sample {
	densities := make([]fixedpoint.Q16, len(desc.Resources))
	for i := range densities {
		densities[i] = fixedpoint.Unknown
	}
	return Sample{
		Depth: fixedpoint.Unknown, LayerID: -1,
		Hardness: fixedpoint.Unknown, FractureRisk: fixedpoint.Unknown,
		ResourceDensities: densities,
	}
}

// Evaluate computes a fully analytic geology sample at p.
func (desc StrataDesc) Evaluate(p worldfield.Point) Sample {
	depth, underground := desc.depthAt(p)
	if !underground {
		return desc.unknownSample()
	}

	idx, ok := selectLayer(depth, desc.Layers)
	if !ok {
		return desc.unknownSample()
	}
	layer := desc.Layers[idx]

	ix, iy, iz := cellIndices(p, desc.CellSize)
	densities := make([]fixedpoint.Q16, len(desc.Resources))
	for i, r := range desc.Resources {
		densities[i] = desc.resourceDensity(r, layer, ix, iy, iz)
	}

	return Sample{
		Depth: depth, LayerID: layer.LayerID,
		Hardness: layer.Hardness, FractureRisk: layer.FractureRisk, HasFracture: layer.HasFracture,
		ResourceDensities: densities,
	}
}
