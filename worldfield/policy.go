package worldfield

import "github.com/spatialmodel/worldfield/fixedpoint"

// TierCost is a fixed per-tier cost schedule: entry cost, charged whether
// or not the tile is cached, and build cost, charged only on a cache miss.
type TierCost struct {
	EntryCost     int64
	TileBuildCost int64
}

// DomainPolicy configures the resolution ladder and tile geometry for a
// single domain. It is immutable after SetPolicy installs it; setting a
// new policy always invalidates the domain's cache (spec.md §3).
type DomainPolicy struct {
	TileSize      fixedpoint.Q16
	MaxResolution ResolutionTier

	// SampleDim gives the per-axis sample count for MEDIUM and COARSE
	// tiles; FULL and ANALYTIC have no tile and ignore this.
	SampleDim map[ResolutionTier]int32

	Cost map[ResolutionTier]TierCost

	RayStep     fixedpoint.Q16
	MaxRaySteps int32
}

// DefaultPolicy returns a reasonable starting policy: MEDIUM sample_dim 16,
// COARSE sample_dim 4, modest costs, unrestricted max resolution.
func DefaultPolicy() DomainPolicy {
	return DomainPolicy{
		TileSize:      fixedpoint.FromInt(16),
		MaxResolution: Full,
		SampleDim: map[ResolutionTier]int32{
			Medium: 16,
			Coarse: 4,
		},
		Cost: map[ResolutionTier]TierCost{
			Full:     {EntryCost: 4},
			Medium:   {EntryCost: 1, TileBuildCost: 64},
			Coarse:   {EntryCost: 1, TileBuildCost: 16},
			Analytic: {EntryCost: 1},
		},
		RayStep:     fixedpoint.FromFloat(0.25),
		MaxRaySteps: 64,
	}
}

// sampleDimFor returns the configured sample_dim for tier, or an error if
// it is missing or zero (spec.md §7: "Tile build failed... sample_dim zero
// post-policy" is an INTERNAL refusal, not a caller error, because it can
// only be reached after a valid SetPolicy call whose sample_dim happened
// to be left unconfigured for a tier the query tries to use).
func (p DomainPolicy) sampleDimFor(tier ResolutionTier) (int32, bool) {
	n, ok := p.SampleDim[tier]
	return n, ok && n > 0
}

// SampleDimFor is the exported form of sampleDimFor, for domain packages
// building their own tiles outside the ladder (e.g. before calling
// worldfield.NewTile in GetOrBuildTile).
func (p DomainPolicy) SampleDimFor(tier ResolutionTier) (int32, bool) {
	return p.sampleDimFor(tier)
}

func (p DomainPolicy) costFor(tier ResolutionTier) TierCost {
	return p.Cost[tier]
}
