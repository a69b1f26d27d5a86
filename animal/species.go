// Package animal implements the agent needs/lifecycle/movement provider of
// spec.md §4.9: per-cell spawn-roll species selection feeding an energy/
// health/need state machine and a walkability-gated random displacement.
// Like vegetation, animal is time-varying and fans out to its own
// vegetation domain (which in turn fans out to terrain/climate/weather/
// geology), all seeded with animal's own (world_seed, domain_id, bounds)
// per spec.md §6's "fan-out with shared identity".
package animal

import (
	"github.com/sirupsen/logrus"

	"github.com/spatialmodel/worldfield/fixedpoint"
	"github.com/spatialmodel/worldfield/vegetation"
	"github.com/spatialmodel/worldfield/worldfield"
)

// MovementMode gates which terrain an agent may occupy (spec.md §4.9).
type MovementMode int8

const (
	Land MovementMode = iota
	Water
	Air
)

func (m MovementMode) String() string {
	switch m {
	case Water:
		return "WATER"
	case Air:
		return "AIR"
	default:
		return "LAND"
	}
}

// DeathReason is the terminal cause recorded against a dead agent instance.
type DeathReason int8

const (
	DeathNone DeathReason = iota
	DeathAge
	DeathStarvation
	DeathStress
)

func (r DeathReason) String() string {
	switch r {
	case DeathAge:
		return "AGE"
	case DeathStarvation:
		return "STARVATION"
	case DeathStress:
		return "STRESS"
	default:
		return "NONE"
	}
}

// Need is a living agent's current priority, chosen by spec.md §4.9's fixed
// precedence order EAT > REST > REPRODUCE > WANDER.
type Need int8

const (
	Wander Need = iota
	Eat
	Rest
	Reproduce
)

func (n Need) String() string {
	switch n {
	case Eat:
		return "EAT"
	case Rest:
		return "REST"
	case Reproduce:
		return "REPRODUCE"
	default:
		return "WANDER"
	}
}

// stressThreshold is spec.md §4.9's fixed climate-factor floor below which
// a live agent dies of stress; unlike every other threshold here it is not
// a per-species tunable in the spec text, so it is a package constant.
var stressThreshold = fixedpoint.FromFloat(0.1)

// SpeciesProfile is one entry of the animal placement species table.
// DietMask is a hard gate (0 = any), mirroring vegetation's SpeciesProfile
// convention, tested against the cell's vegetation instance's species id.
// BiomeMask is carried on the profile but spawn suitability does not
// consult it.
type SpeciesProfile struct {
	SpeciesID int32
	Name      string

	TempMin, TempMax         fixedpoint.Q16
	MoistureMin, MoistureMax fixedpoint.Q16
	ToleranceMargin          fixedpoint.Q16

	BiomeMask uint32
	DietMask  uint32

	Movement         MovementMode
	WalkableMaxSlope fixedpoint.Q16

	DensityBase fixedpoint.Q16

	SpawnPeriodTicks int64
	LifespanTicks    int64
	MaturityTicks    int64

	ConsumptionRate       fixedpoint.Q16
	EnergyConsumptionRate fixedpoint.Q16
	RestRequirement       fixedpoint.Q16
}

// PlacementDesc configures one animal domain instance, embedding the
// normalized vegetation descriptor it fans out to.
type PlacementDesc struct {
	DomainID  worldfield.DomainID
	WorldSeed uint64
	Bounds    worldfield.AABB
	HasSource bool

	PlacementCellSize   fixedpoint.Q16
	DecisionPeriodTicks int64

	// ContestMargin is the supplemented diet-competition feature's
	// suitability band (SPEC_FULL.md §6 item 5): species within this much
	// of the winner's suitability mark the cell Contested.
	ContestMargin fixedpoint.Q16

	Species []SpeciesProfile

	Vegetation vegetation.PlacementDesc
}

// NewPlacementDesc returns a two-species default: DEER (LAND, eats grass)
// and TROUT (WATER, diet unrestricted), over a default vegetation
// descriptor (which in turn defaults terrain/climate/weather/geology).
func NewPlacementDesc() PlacementDesc {
	bounds := worldfield.AABB{
		Min: worldfield.Point{X: fixedpoint.FromInt(-1024), Y: fixedpoint.FromInt(-1024), Z: fixedpoint.FromInt(-1024)},
		Max: worldfield.Point{X: fixedpoint.FromInt(1024), Y: fixedpoint.FromInt(1024), Z: fixedpoint.FromInt(1024)},
	}
	return PlacementDesc{
		WorldSeed: 1,
		Bounds:    bounds,
		HasSource: true,

		PlacementCellSize:   fixedpoint.FromInt(32),
		DecisionPeriodTicks: 100,
		ContestMargin:       fixedpoint.FromFloat(0.05),

		Species: []SpeciesProfile{
			{
				SpeciesID: 0, Name: "deer",
				TempMin: fixedpoint.FromFloat(0.2), TempMax: fixedpoint.FromFloat(0.8),
				MoistureMin: fixedpoint.FromFloat(0.2), MoistureMax: fixedpoint.One,
				ToleranceMargin: fixedpoint.FromFloat(0.1),

				DietMask: 1 << 0, // grass (vegetation species id 0)

				Movement:         Land,
				WalkableMaxSlope: fixedpoint.FromFloat(0.6),

				DensityBase: fixedpoint.FromFloat(0.4),

				SpawnPeriodTicks: 500,
				LifespanTicks:    5000,
				MaturityTicks:    800,

				ConsumptionRate:       fixedpoint.FromFloat(0.2),
				EnergyConsumptionRate: fixedpoint.FromFloat(0.05),
				RestRequirement:       fixedpoint.FromFloat(0.2),
			},
			{
				SpeciesID: 1, Name: "trout",
				TempMin: fixedpoint.FromFloat(0.1), TempMax: fixedpoint.FromFloat(0.6),
				MoistureMin: fixedpoint.FromFloat(0.5), MoistureMax: fixedpoint.One,
				ToleranceMargin: fixedpoint.FromFloat(0.1),

				DietMask: 0, // unrestricted

				Movement:         Water,
				WalkableMaxSlope: fixedpoint.One,

				DensityBase: fixedpoint.FromFloat(0.5),

				SpawnPeriodTicks: 300,
				LifespanTicks:    2000,
				MaturityTicks:    300,

				ConsumptionRate:       fixedpoint.FromFloat(0.1),
				EnergyConsumptionRate: fixedpoint.FromFloat(0.04),
				RestRequirement:       0,
			},
		},

		Vegetation: vegetation.NewPlacementDesc(),
	}
}

// normalize deep-copies PlacementDesc and fans the parent's identity out to
// the embedded vegetation descriptor, one layer above vegetation's own
// identical fan-out to terrain/climate/weather/geology (spec.md §6).
func normalize(desc PlacementDesc, parent *PlacementDesc) PlacementDesc {
	out := desc
	out.Species = append([]SpeciesProfile(nil), desc.Species...)
	if parent != nil {
		out.DomainID = parent.DomainID
		out.WorldSeed = parent.WorldSeed
		out.Bounds = parent.Bounds
	}
	out.Vegetation.DomainID = out.DomainID
	out.Vegetation.WorldSeed = out.WorldSeed
	out.Vegetation.Bounds = out.Bounds
	return out
}

func defaultLogger() logrus.FieldLogger { return logrus.StandardLogger() }
