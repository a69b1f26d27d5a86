// Package climate implements the envelope field provider of spec.md §4.5:
// temperature/precipitation/seasonality/wind derived from latitude and
// altitude ratios plus four independent noise streams, with anchor
// overrides and a confidence-weighted biome classifier.
package climate

import (
	"github.com/sirupsen/logrus"

	"github.com/spatialmodel/worldfield/fixedpoint"
	"github.com/spatialmodel/worldfield/worldfield"
	"github.com/spatialmodel/worldfield/worldrng"
)

// CompassDirection is one of the 8 folded wind directions; WindUnknown
// marks a refused or not-yet-evaluated sample.
type CompassDirection int8

const (
	North CompassDirection = iota
	NorthEast
	East
	SouthEast
	South
	SouthWest
	West
	NorthWest
	WindUnknown CompassDirection = -1
)

func (d CompassDirection) String() string {
	switch d {
	case North:
		return "N"
	case NorthEast:
		return "NE"
	case East:
		return "E"
	case SouthEast:
		return "SE"
	case South:
		return "S"
	case SouthWest:
		return "SW"
	case West:
		return "W"
	case NorthWest:
		return "NW"
	default:
		return "UNKNOWN"
	}
}

// EnvelopeAxis holds the lerp/noise coefficients shared by the temperature,
// precipitation and seasonality formulas of spec.md §4.5 ("analogous
// formulas for precipitation and seasonality").
type EnvelopeAxis struct {
	Equator       fixedpoint.Q16
	Pole          fixedpoint.Q16
	AltitudeScale fixedpoint.Q16
	RangeBase     fixedpoint.Q16
	RangeLatScale fixedpoint.Q16
	NoiseScale    fixedpoint.Q16
}

// FieldMask selects which of an anchor's fields are active overrides.
type FieldMask uint16

const (
	FieldTemperatureMean FieldMask = 1 << iota
	FieldTemperatureRange
	FieldPrecipitationMean
	FieldPrecipitationRange
	FieldSeasonalityMean
	FieldSeasonalityRange
	FieldWindPrevailing
)

// Anchor overrides a subset of envelope fields with fixed values over a
// spatial region (spec.md §4.5: "An anchor may override any subset of
// these fields with fixed values (mask-selected)").
type Anchor struct {
	Bounds worldfield.AABB
	Mask   FieldMask

	TemperatureMean    fixedpoint.Q16
	TemperatureRange   fixedpoint.Q16
	PrecipitationMean  fixedpoint.Q16
	PrecipitationRange fixedpoint.Q16
	SeasonalityMean    fixedpoint.Q16
	SeasonalityRange   fixedpoint.Q16
	WindPrevailing     CompassDirection
}

// EnvelopeDesc configures one climate domain instance.
type EnvelopeDesc struct {
	DomainID  worldfield.DomainID
	WorldSeed uint64
	Bounds    worldfield.AABB
	HasSource bool

	// Radius and MaxAltitude give climate its own lightweight globe model
	// for deriving lat_ratio/alt_ratio from a raw point — climate has no
	// dependency on terrain's SDF, so it approximates "distance from the
	// equatorial plane" and "height above a reference shell" directly from
	// world-unit coordinates.
	Radius      fixedpoint.Q16
	MaxAltitude fixedpoint.Q16
	CellSize    fixedpoint.Q16

	Temperature   EnvelopeAxis
	Precipitation EnvelopeAxis
	Seasonality   EnvelopeAxis

	WindBandCount int32

	Anchors []Anchor
}

// NewEnvelopeDesc returns a temperate-zone default descriptor: equator
// hot, pole cold, precipitation roughly flat, mild seasonality, 12 wind
// sectors folded to the 8 compass points.
func NewEnvelopeDesc() EnvelopeDesc {
	return EnvelopeDesc{
		WorldSeed:   1,
		Bounds:      worldfield.AABB{Min: worldfield.Point{X: fixedpoint.FromInt(-1024), Y: fixedpoint.FromInt(-1024), Z: fixedpoint.FromInt(-1024)}, Max: worldfield.Point{X: fixedpoint.FromInt(1024), Y: fixedpoint.FromInt(1024), Z: fixedpoint.FromInt(1024)}},
		HasSource:   true,
		Radius:      fixedpoint.FromInt(512),
		MaxAltitude: fixedpoint.FromInt(64),
		CellSize:    fixedpoint.FromInt(32),
		Temperature: EnvelopeAxis{
			Equator: fixedpoint.One, Pole: 0,
			AltitudeScale: fixedpoint.FromFloat(0.2),
			RangeBase:     fixedpoint.FromFloat(0.1), RangeLatScale: fixedpoint.FromFloat(0.2),
			NoiseScale: fixedpoint.FromFloat(0.05),
		},
		Precipitation: EnvelopeAxis{
			Equator: fixedpoint.FromFloat(0.7), Pole: fixedpoint.FromFloat(0.3),
			AltitudeScale: fixedpoint.FromFloat(0.1),
			RangeBase:     fixedpoint.FromFloat(0.15), RangeLatScale: fixedpoint.FromFloat(0.1),
			NoiseScale: fixedpoint.FromFloat(0.1),
		},
		Seasonality: EnvelopeAxis{
			Equator: fixedpoint.FromFloat(0.1), Pole: fixedpoint.One,
			AltitudeScale: 0,
			RangeBase:     fixedpoint.FromFloat(0.05), RangeLatScale: fixedpoint.FromFloat(0.3),
			NoiseScale: fixedpoint.FromFloat(0.05),
		},
		WindBandCount: 12,
	}
}

// normalize deep-copies Anchors and, when parent is non-nil, overwrites
// DomainID/WorldSeed/Bounds from it — the fan-out normalization spec.md
// §6 requires for domains embedded under vegetation/animal.
func normalize(desc EnvelopeDesc, parent *EnvelopeDesc) EnvelopeDesc {
	out := desc
	out.Anchors = append([]Anchor(nil), desc.Anchors...)
	if parent != nil {
		out.DomainID = parent.DomainID
		out.WorldSeed = parent.WorldSeed
		out.Bounds = parent.Bounds
	}
	return out
}

func defaultLogger() logrus.FieldLogger { return logrus.StandardLogger() }

// ratios derives (lat_ratio, alt_ratio, southernHemisphere) from a raw
// point using the envelope's own reference globe: lat_ratio is 0 at the
// equatorial plane (Y=0) and 1 at the poles (|Y|=Radius); alt_ratio is 0
// at the reference shell and 1 at MaxAltitude above/below it.
func (desc EnvelopeDesc) ratios(p worldfield.Point) (latRatio, altRatio fixedpoint.Q16, south bool) {
	south = p.Y < 0
	latRatio = p.Y.Abs().Div(desc.Radius).Clamp(0, fixedpoint.One)

	horizSq := p.X.MulWide(p.X).Add(p.Z.MulWide(p.Z))
	horiz := horizSq.Sqrt().Q16()
	altitude := horiz.Sub(desc.Radius).Abs()
	altRatio = altitude.Div(desc.MaxAltitude).Clamp(0, fixedpoint.One)
	return latRatio, altRatio, south
}

func cellIndices(p worldfield.Point, cellSize fixedpoint.Q16) (int32, int32, int32) {
	return p.X.FloorDiv(cellSize), p.Y.FloorDiv(cellSize), p.Z.FloorDiv(cellSize)
}

func (desc EnvelopeDesc) noiseSeed(name string) uint64 {
	return worldrng.HashIDs(int64(desc.WorldSeed), int64(desc.DomainID), int64(worldrng.HashName(name)))
}

// evalAxis applies spec.md §4.5's shared formula shape to one axis: the
// mean term lerps equator→pole, subtracts an altitude penalty, adds
// lattice noise, and clamps to [0,1]; the range term is a latitude-scaled
// base, also clamped.
func evalAxis(axis EnvelopeAxis, latRatio, altRatio fixedpoint.Q16, noise fixedpoint.Q16) (mean, rng fixedpoint.Q16) {
	mean = fixedpoint.Lerp(axis.Equator, axis.Pole, latRatio).
		Sub(axis.AltitudeScale.Mul(altRatio)).
		Add(noise).
		Clamp(0, fixedpoint.One)
	rng = axis.RangeBase.Add(axis.RangeLatScale.Mul(latRatio)).Clamp(0, fixedpoint.One)
	return mean, rng
}

// findAnchor returns the first anchor whose bounds contain p, matching the
// linear-scan-first-match convention used by worldfield.CapsuleStore.Find.
func (desc EnvelopeDesc) findAnchor(p worldfield.Point) (Anchor, bool) {
	for _, a := range desc.Anchors {
		if a.Bounds.Contains(p) {
			return a, true
		}
	}
	return Anchor{}, false
}

// windDirection derives the prevailing wind octant from a noise ratio,
// folding WindBandCount sectors onto the 8 compass points, rotating by
// latitude (stronger rotation near the poles, modeling a prevailing
// westerly drift) and mirroring across hemispheres. spec.md §4.5 specifies
// the inputs (a noise ratio, wind_band_count, latitude rotation, hemisphere
// mirroring) but not the exact arithmetic; this is the one reasonable
// realization, recorded in DESIGN.md.
func windDirection(noiseRatio fixedpoint.Q16, bandCount int32, latRatio fixedpoint.Q16, south bool) CompassDirection {
	if bandCount <= 0 {
		bandCount = 1
	}
	sector := noiseRatio.Mul(fixedpoint.FromInt(bandCount)).Int()
	if sector >= bandCount {
		sector = bandCount - 1
	}
	folded := sector * 8 / bandCount
	rotate := latRatio.Mul(fixedpoint.FromInt(3)).Int()
	folded = (folded + rotate) % 8
	if south {
		folded = (8 - folded) % 8
	}
	return CompassDirection(folded)
}
