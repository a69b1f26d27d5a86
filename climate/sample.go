package climate

import (
	"github.com/spatialmodel/worldfield/fixedpoint"
	"github.com/spatialmodel/worldfield/worldfield"
	"github.com/spatialmodel/worldfield/worldrng"
)

// Sample is one climate query's result (spec.md §4.5).
type Sample struct {
	TemperatureMean    fixedpoint.Q16
	TemperatureRange   fixedpoint.Q16
	PrecipitationMean  fixedpoint.Q16
	PrecipitationRange fixedpoint.Q16
	SeasonalityMean    fixedpoint.Q16
	SeasonalityRange   fixedpoint.Q16
	WindPrevailing     CompassDirection

	Flags worldfield.SampleFlags
	Meta  worldfield.QueryMeta
}

func unknownSample() Sample {
	return Sample{
		TemperatureMean: fixedpoint.Unknown, TemperatureRange: fixedpoint.Unknown,
		PrecipitationMean: fixedpoint.Unknown, PrecipitationRange: fixedpoint.Unknown,
		SeasonalityMean: fixedpoint.Unknown, SeasonalityRange: fixedpoint.Unknown,
		WindPrevailing: WindUnknown,
	}
}

// Evaluate computes a fully analytic climate sample at p, applying any
// matching anchor's overrides last (spec.md §4.5).
func (desc EnvelopeDesc) Evaluate(p worldfield.Point) Sample {
	latRatio, altRatio, south := desc.ratios(p)
	ix, iy, iz := cellIndices(p, desc.CellSize)

	tempNoise := worldrng.Noise3(desc.noiseSeed("climate.temp"), ix, iy, iz, desc.Temperature.NoiseScale)
	precipNoise := worldrng.Noise3(desc.noiseSeed("climate.precip"), ix, iy, iz, desc.Precipitation.NoiseScale)
	seasonNoise := worldrng.Noise3(desc.noiseSeed("climate.season"), ix, iy, iz, desc.Seasonality.NoiseScale)
	windRatio := worldrng.Ratio3(desc.noiseSeed("climate.wind"), ix, iy, iz)

	tempMean, tempRange := evalAxis(desc.Temperature, latRatio, altRatio, tempNoise)
	precipMean, precipRange := evalAxis(desc.Precipitation, latRatio, altRatio, precipNoise)
	seasonMean, seasonRange := evalAxis(desc.Seasonality, latRatio, altRatio, seasonNoise)
	wind := windDirection(windRatio, desc.WindBandCount, latRatio, south)

	s := Sample{
		TemperatureMean: tempMean, TemperatureRange: tempRange,
		PrecipitationMean: precipMean, PrecipitationRange: precipRange,
		SeasonalityMean: seasonMean, SeasonalityRange: seasonRange,
		WindPrevailing: wind,
	}

	if anchor, ok := desc.findAnchor(p); ok {
		if anchor.Mask&FieldTemperatureMean != 0 {
			s.TemperatureMean = anchor.TemperatureMean
		}
		if anchor.Mask&FieldTemperatureRange != 0 {
			s.TemperatureRange = anchor.TemperatureRange
		}
		if anchor.Mask&FieldPrecipitationMean != 0 {
			s.PrecipitationMean = anchor.PrecipitationMean
		}
		if anchor.Mask&FieldPrecipitationRange != 0 {
			s.PrecipitationRange = anchor.PrecipitationRange
		}
		if anchor.Mask&FieldSeasonalityMean != 0 {
			s.SeasonalityMean = anchor.SeasonalityMean
		}
		if anchor.Mask&FieldSeasonalityRange != 0 {
			s.SeasonalityRange = anchor.SeasonalityRange
		}
		if anchor.Mask&FieldWindPrevailing != 0 {
			s.WindPrevailing = anchor.WindPrevailing
		}
	}
	return s
}
