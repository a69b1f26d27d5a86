package weather

import (
	"github.com/spatialmodel/worldfield/climate"
	"github.com/spatialmodel/worldfield/fixedpoint"
	"github.com/spatialmodel/worldfield/worldfield"
)

// Sample is one weather query's result: the underlying climate sample plus
// the active events' combined perturbation (spec.md §4.6).
type Sample struct {
	TemperatureMean    fixedpoint.Q16
	PrecipitationMean  fixedpoint.Q16
	SurfaceWetness     fixedpoint.Q16
	WindPrevailing     climate.CompassDirection
	ActiveEventCount   int32

	Flags worldfield.SampleFlags
	Meta  worldfield.QueryMeta
}

func unknownSample() Sample {
	return Sample{
		TemperatureMean: fixedpoint.Unknown, PrecipitationMean: fixedpoint.Unknown,
		SurfaceWetness: fixedpoint.Unknown, WindPrevailing: climate.WindUnknown,
	}
}

// evaluate combines climate's analytic sample at p with the additive
// perturbation of every event active at (p, tick) — each event's
// temperature/precipitation/wetness delta is its eased intensity scaled by
// its profile's TempScale/PrecipScale/WetnessScale, and a WindShift event
// overrides the prevailing wind outright. The combined temperature and
// precipitation are clamped to the climate sample's own mean+-range
// envelope (spec.md §4.6).
func evaluate(desc ScheduleDesc, clim climate.Sample, active []Event, tick int64) Sample {
	if clim.TemperatureMean.IsUnknown() {
		return unknownSample()
	}

	temp := clim.TemperatureMean
	precip := clim.PrecipitationMean
	var wetness fixedpoint.Q16
	wind := clim.WindPrevailing

	for _, e := range active {
		profile := desc.Profiles[e.Type]
		intensity := e.IntensityAt(tick)
		temp = temp.Add(intensity.Mul(profile.TempScale))
		precip = precip.Add(intensity.Mul(profile.PrecipScale))
		wetness = wetness.Add(intensity.Mul(profile.WetnessScale))
		if e.Type == WindShift {
			wind = e.WindDir
		}
	}

	return Sample{
		TemperatureMean:   clampSample(temp, clim.TemperatureMean, clim.TemperatureRange),
		PrecipitationMean: clampSample(precip, clim.PrecipitationMean, clim.PrecipitationRange),
		SurfaceWetness:    wetness.Clamp(0, fixedpoint.One),
		WindPrevailing:    wind,
		ActiveEventCount:  int32(len(active)),
	}
}
