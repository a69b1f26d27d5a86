// Package weather implements the event-schedule provider of spec.md §4.6:
// five lazily-generated event profiles layered additively over an
// underlying climate sample, with a window-keyed (not tile-keyed) cache and
// collapse/expand over event lists rather than grids.
package weather

import (
	"github.com/sirupsen/logrus"

	"github.com/spatialmodel/worldfield/fixedpoint"
	"github.com/spatialmodel/worldfield/worldfield"
)

// EventType enumerates the five event profiles of spec.md §4.6.
type EventType int8

const (
	Rain EventType = iota
	Snow
	Heatwave
	ColdSnap
	WindShift

	eventTypeCount = int(WindShift) + 1
)

func (t EventType) String() string {
	switch t {
	case Rain:
		return "RAIN"
	case Snow:
		return "SNOW"
	case Heatwave:
		return "HEATWAVE"
	case ColdSnap:
		return "COLD_SNAP"
	case WindShift:
		return "WIND_SHIFT"
	default:
		return "UNKNOWN_EVENT"
	}
}

// Profile configures one event type's generation and perturbation shape.
type Profile struct {
	PeriodTicks   int64
	DurationTicks int64 // must be <= PeriodTicks

	IntensityMin, IntensityMax     fixedpoint.Q16
	RadiusRatioMin, RadiusRatioMax fixedpoint.Q16

	TempScale    fixedpoint.Q16
	PrecipScale  fixedpoint.Q16
	WetnessScale fixedpoint.Q16
}

// ScheduleDesc configures one weather domain instance.
type ScheduleDesc struct {
	DomainID  worldfield.DomainID
	WorldSeed uint64
	Bounds    worldfield.AABB
	HasSource bool

	// ShapeScale multiplies a profile's radius ratio to get an absolute
	// event radius; "uniform over shape" for the center draw uses Bounds.
	ShapeScale fixedpoint.Q16

	Profiles [eventTypeCount]Profile
}

// NewScheduleDesc returns a five-profile default schedule: frequent mild
// rain, rarer snow/heatwave/cold-snap, and occasional wind shifts.
func NewScheduleDesc() ScheduleDesc {
	bounds := worldfield.AABB{
		Min: worldfield.Point{X: fixedpoint.FromInt(-1024), Y: fixedpoint.FromInt(-1024), Z: fixedpoint.FromInt(-1024)},
		Max: worldfield.Point{X: fixedpoint.FromInt(1024), Y: fixedpoint.FromInt(1024), Z: fixedpoint.FromInt(1024)},
	}
	desc := ScheduleDesc{
		WorldSeed:  1,
		Bounds:     bounds,
		HasSource:  true,
		ShapeScale: fixedpoint.FromInt(256),
	}
	desc.Profiles[Rain] = Profile{
		PeriodTicks: 200, DurationTicks: 40,
		IntensityMin: fixedpoint.FromFloat(0.2), IntensityMax: fixedpoint.FromFloat(0.8),
		RadiusRatioMin: fixedpoint.FromFloat(0.2), RadiusRatioMax: fixedpoint.FromFloat(0.6),
		PrecipScale: fixedpoint.FromFloat(0.4), WetnessScale: fixedpoint.FromFloat(0.5),
	}
	desc.Profiles[Snow] = Profile{
		PeriodTicks: 600, DurationTicks: 80,
		IntensityMin: fixedpoint.FromFloat(0.3), IntensityMax: fixedpoint.FromFloat(0.7),
		RadiusRatioMin: fixedpoint.FromFloat(0.3), RadiusRatioMax: fixedpoint.FromFloat(0.7),
		TempScale: fixedpoint.FromFloat(-0.3), PrecipScale: fixedpoint.FromFloat(0.2), WetnessScale: fixedpoint.FromFloat(0.3),
	}
	desc.Profiles[Heatwave] = Profile{
		PeriodTicks: 800, DurationTicks: 60,
		IntensityMin: fixedpoint.FromFloat(0.4), IntensityMax: fixedpoint.FromFloat(0.9),
		RadiusRatioMin: fixedpoint.FromFloat(0.4), RadiusRatioMax: fixedpoint.FromFloat(0.8),
		TempScale: fixedpoint.FromFloat(0.5),
	}
	desc.Profiles[ColdSnap] = Profile{
		PeriodTicks: 700, DurationTicks: 50,
		IntensityMin: fixedpoint.FromFloat(0.4), IntensityMax: fixedpoint.FromFloat(0.9),
		RadiusRatioMin: fixedpoint.FromFloat(0.4), RadiusRatioMax: fixedpoint.FromFloat(0.8),
		TempScale: fixedpoint.FromFloat(-0.5),
	}
	desc.Profiles[WindShift] = Profile{
		PeriodTicks: 300, DurationTicks: 30,
		IntensityMin: fixedpoint.FromFloat(0.3), IntensityMax: fixedpoint.One,
		RadiusRatioMin: fixedpoint.FromFloat(0.5), RadiusRatioMax: fixedpoint.One,
	}
	return desc
}

// normalize deep-copies Profiles (a value array, so this is really just a
// pass-through) and, when parent is non-nil, inherits DomainID/WorldSeed/
// Bounds — the fan-out normalization spec.md §6 requires for weather
// embedded under vegetation/animal.
func normalize(desc ScheduleDesc, parent *ScheduleDesc) ScheduleDesc {
	out := desc
	if parent != nil {
		out.DomainID = parent.DomainID
		out.WorldSeed = parent.WorldSeed
		out.Bounds = parent.Bounds
	}
	return out
}

func defaultLogger() logrus.FieldLogger { return logrus.StandardLogger() }

func clampSample(v, mean, rng fixedpoint.Q16) fixedpoint.Q16 {
	if v.IsUnknown() || mean.IsUnknown() || rng.IsUnknown() {
		return v
	}
	return v.Clamp(mean.Sub(rng), mean.Add(rng))
}
