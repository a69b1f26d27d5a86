// Package vegetation implements the placement and lifecycle provider of
// spec.md §4.8: a grid-based suitability/coverage placement model feeding
// either a STATIC or REGENERATIVE per-species lifecycle. Unlike terrain,
// climate and geology, vegetation is time-varying, so its tile cache key
// carries a decision-window component (spec.md §4.3) and it embeds, fans
// out to, and queries its own terrain/climate/weather/geology domains
// (spec.md §6's "fan-out with shared identity").
package vegetation

import (
	"github.com/sirupsen/logrus"

	"github.com/spatialmodel/worldfield/climate"
	"github.com/spatialmodel/worldfield/fixedpoint"
	"github.com/spatialmodel/worldfield/geology"
	"github.com/spatialmodel/worldfield/terrain"
	"github.com/spatialmodel/worldfield/weather"
	"github.com/spatialmodel/worldfield/worldfield"
)

// LifecycleMode selects how a species' instances age (spec.md §4.8).
type LifecycleMode int8

const (
	Static LifecycleMode = iota
	Regenerative
)

func (m LifecycleMode) String() string {
	if m == Regenerative {
		return "REGENERATIVE"
	}
	return "STATIC"
}

// SpeciesProfile is one entry of the placement species table. Tolerance
// bands are soft (ramped to zero over ToleranceMargin outside [min,max]);
// BiomeMask/MaterialMask are hard gates, a zero mask meaning "any".
type SpeciesProfile struct {
	SpeciesID int32
	Name      string

	TempMin, TempMax         fixedpoint.Q16
	MoistureMin, MoistureMax fixedpoint.Q16
	ToleranceMargin          fixedpoint.Q16

	BiomeMask uint32

	MaxSlope fixedpoint.Q16

	MaterialMask uint32
	MinHardness  fixedpoint.Q16

	DensityBase fixedpoint.Q16
	MaxSize     fixedpoint.Q16

	Mode LifecycleMode

	// REGENERATIVE-only parameters (spec.md §4.8).
	RegenPeriodTicks int64
	LifespanTicks    int64
	RegenChance      fixedpoint.Q16
	DeathRate        fixedpoint.Q16
	DiePeriodTicks   int64
	GrowthRate       fixedpoint.Q16
	GrowPeriodTicks  int64

	// SeedDispersalChance is the supplemented seed-dispersal feature's
	// per-neighbor-cell chance a dying REGENERATIVE instance seeds an
	// early placement roll in that neighbor (SPEC_FULL.md §6 item 4).
	SeedDispersalChance fixedpoint.Q16
}

// PlacementDesc configures one vegetation domain instance, including the
// normalized descriptors of the four domains it fans out to.
type PlacementDesc struct {
	DomainID  worldfield.DomainID
	WorldSeed uint64
	Bounds    worldfield.AABB
	HasSource bool

	PlacementCellSize       fixedpoint.Q16
	DecisionPeriodTicks     int64
	RecentWetnessWindowTicks int64

	BiomeCatalog climate.RuleCatalog
	Species      []SpeciesProfile

	Terrain terrain.SurfaceDesc
	Climate climate.EnvelopeDesc
	Weather weather.ScheduleDesc
	Geology geology.StrataDesc
}

// NewPlacementDesc returns a two-species default: GRASS (STATIC, broad
// tolerance) and TREE (REGENERATIVE, narrower tolerance), over default
// terrain/climate/weather/geology descriptors.
func NewPlacementDesc() PlacementDesc {
	bounds := worldfield.AABB{
		Min: worldfield.Point{X: fixedpoint.FromInt(-1024), Y: fixedpoint.FromInt(-1024), Z: fixedpoint.FromInt(-1024)},
		Max: worldfield.Point{X: fixedpoint.FromInt(1024), Y: fixedpoint.FromInt(1024), Z: fixedpoint.FromInt(1024)},
	}
	return PlacementDesc{
		WorldSeed: 1,
		Bounds:    bounds,
		HasSource: true,

		PlacementCellSize:        fixedpoint.FromInt(32),
		DecisionPeriodTicks:      100,
		RecentWetnessWindowTicks: 500,

		BiomeCatalog: climate.RuleCatalog{Rules: []climate.Rule{
			{BiomeID: 1, Mask: climate.PredTemperature | climate.PredMoisture, TemperatureMin: fixedpoint.FromFloat(0.4), TemperatureMax: fixedpoint.One, MoistureMin: fixedpoint.FromFloat(0.3), MoistureMax: fixedpoint.One},
			{BiomeID: 2, Mask: climate.PredTemperature, TemperatureMin: 0, TemperatureMax: fixedpoint.FromFloat(0.4)},
		}},

		Species: []SpeciesProfile{
			{
				SpeciesID: 0, Name: "grass",
				TempMin: fixedpoint.FromFloat(0.2), TempMax: fixedpoint.One,
				MoistureMin: fixedpoint.FromFloat(0.2), MoistureMax: fixedpoint.One,
				ToleranceMargin: fixedpoint.FromFloat(0.1),
				MaxSlope:        fixedpoint.FromFloat(0.7),
				MinHardness:     0,
				DensityBase:     fixedpoint.FromFloat(0.8),
				MaxSize:         fixedpoint.FromFloat(0.3),
				Mode:            Static,
			},
			{
				SpeciesID: 1, Name: "tree",
				TempMin: fixedpoint.FromFloat(0.3), TempMax: fixedpoint.FromFloat(0.9),
				MoistureMin: fixedpoint.FromFloat(0.4), MoistureMax: fixedpoint.One,
				ToleranceMargin: fixedpoint.FromFloat(0.1),
				MaxSlope:        fixedpoint.FromFloat(0.4),
				MinHardness:     fixedpoint.FromFloat(0.1),
				DensityBase:     fixedpoint.FromFloat(0.3),
				MaxSize:         fixedpoint.One,
				Mode:            Regenerative,

				RegenPeriodTicks: 2000,
				LifespanTicks:    1500,
				RegenChance:      fixedpoint.FromFloat(0.8),
				DeathRate:        fixedpoint.FromFloat(0.1),
				DiePeriodTicks:   100,
				GrowthRate:       fixedpoint.FromFloat(0.05),
				GrowPeriodTicks:  50,

				SeedDispersalChance: fixedpoint.FromFloat(0.3),
			},
		},

		Terrain: terrain.NewSurfaceDesc(),
		Climate: climate.NewEnvelopeDesc(),
		Weather: weather.NewScheduleDesc(),
		Geology: geology.NewStrataDesc(),
	}
}

// normalize deep-copies PlacementDesc and fans the parent's identity
// (domain_id, world_seed, bounds) out to every embedded sub-descriptor —
// spec.md §6's "all seeded with the parent's (world_seed, domain_id,
// meters_per_unit, shape)". Each sub-domain's own constructor still runs
// its own normalize(desc, nil) afterward, which is a no-op on identity
// fields already set here.
func normalize(desc PlacementDesc, parent *PlacementDesc) PlacementDesc {
	out := desc
	out.Species = append([]SpeciesProfile(nil), desc.Species...)
	out.BiomeCatalog.Rules = append([]climate.Rule(nil), desc.BiomeCatalog.Rules...)
	if parent != nil {
		out.DomainID = parent.DomainID
		out.WorldSeed = parent.WorldSeed
		out.Bounds = parent.Bounds
	}
	out.Terrain.DomainID = out.DomainID
	out.Terrain.WorldSeed = out.WorldSeed
	out.Terrain.Bounds = out.Bounds
	out.Climate.DomainID = out.DomainID
	out.Climate.WorldSeed = out.WorldSeed
	out.Climate.Bounds = out.Bounds
	out.Weather.DomainID = out.DomainID
	out.Weather.WorldSeed = out.WorldSeed
	out.Weather.Bounds = out.Bounds
	out.Geology.DomainID = out.DomainID
	out.Geology.WorldSeed = out.WorldSeed
	out.Geology.Bounds = out.Bounds
	return out
}

func defaultLogger() logrus.FieldLogger { return logrus.StandardLogger() }
