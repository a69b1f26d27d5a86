package climate

import "github.com/spatialmodel/worldfield/fixedpoint"

// PredicateMask selects which of a rule's predicates are active, over the
// input set {temp, precip, season, elevation, moisture, hardness, strata}
// named in spec.md §4.5.
type PredicateMask uint8

const (
	PredTemperature PredicateMask = 1 << iota
	PredPrecipitation
	PredSeasonality
	PredElevation
	PredMoisture
	PredHardness
	PredStrata
)

var allPredicates = []PredicateMask{
	PredTemperature, PredPrecipitation, PredSeasonality,
	PredElevation, PredMoisture, PredHardness, PredStrata,
}

// Rule is one biome classification rule: a biome id, a mask of the
// predicates it checks, and a numeric [min,max] range per predicate (plus
// a required strata id for the strata predicate).
type Rule struct {
	BiomeID int32
	Mask    PredicateMask

	TemperatureMin, TemperatureMax     fixedpoint.Q16
	PrecipitationMin, PrecipitationMax fixedpoint.Q16
	SeasonalityMin, SeasonalityMax     fixedpoint.Q16
	ElevationMin, ElevationMax         fixedpoint.Q16
	MoistureMin, MoistureMax           fixedpoint.Q16
	HardnessMin, HardnessMax           fixedpoint.Q16
	RequiredStrata                     int32
}

// RuleCatalog is an ordered list of biome rules.
type RuleCatalog struct {
	Rules []Rule
}

// Validate logs a Warn (never rejects) for any rule whose mask has no
// active predicates, since such a rule has confidence 0 by construction
// (spec.md §9 Open Question: "Biome confidence when a rule has no
// predicates") and can never win a contested tie. Intended as a
// construction-time, non-hot-path sanity check.
func (c RuleCatalog) Validate() {
	logger := defaultLogger()
	for _, r := range c.Rules {
		if r.Mask == 0 {
			logger.WithField("biome_id", r.BiomeID).Warn("climate: rule has no active predicates, confidence is always 0")
		}
	}
}

// ClassifyInputs is the input bundle for BiomeResolve: a climate/terrain/
// geology-derived scalar per predicate, plus a mask of which of those
// scalars are unknown.
type ClassifyInputs struct {
	Temperature   fixedpoint.Q16
	Precipitation fixedpoint.Q16
	Seasonality   fixedpoint.Q16
	Elevation     fixedpoint.Q16
	Moisture      fixedpoint.Q16
	Hardness      fixedpoint.Q16
	Strata        int32

	Unknown PredicateMask
}

// BiomeResult is BiomeResolve's output.
type BiomeResult struct {
	BiomeID    int32
	Confidence fixedpoint.Q16
	Unknown    bool
}

func inRange(v, lo, hi fixedpoint.Q16) bool { return v >= lo && v <= hi }

// predicateOK reports whether inputs satisfies rule's predicate pred,
// returning (known, satisfied). known is false iff the corresponding input
// is flagged unknown, in which case satisfied is ignored by the caller.
func predicateOK(rule Rule, inputs ClassifyInputs, pred PredicateMask) (known, satisfied bool) {
	if inputs.Unknown&pred != 0 {
		return false, false
	}
	switch pred {
	case PredTemperature:
		return true, inRange(inputs.Temperature, rule.TemperatureMin, rule.TemperatureMax)
	case PredPrecipitation:
		return true, inRange(inputs.Precipitation, rule.PrecipitationMin, rule.PrecipitationMax)
	case PredSeasonality:
		return true, inRange(inputs.Seasonality, rule.SeasonalityMin, rule.SeasonalityMax)
	case PredElevation:
		return true, inRange(inputs.Elevation, rule.ElevationMin, rule.ElevationMax)
	case PredMoisture:
		return true, inRange(inputs.Moisture, rule.MoistureMin, rule.MoistureMax)
	case PredHardness:
		return true, inRange(inputs.Hardness, rule.HardnessMin, rule.HardnessMax)
	case PredStrata:
		return true, inputs.Strata == rule.RequiredStrata
	}
	return false, false
}

// BiomeResolve implements spec.md §4.5's confidence-weighted, masked
// predicate match. It is a pure function of its arguments, taking no
// domain receiver, per spec.md §6.
func BiomeResolve(catalog RuleCatalog, inputs ClassifyInputs) BiomeResult {
	best := BiomeResult{BiomeID: 0, Unknown: true}
	bestKnown := -1
	haveBest := false

	for _, rule := range catalog.Rules {
		total, known := 0, 0
		rejected := false
		for _, pred := range allPredicates {
			if rule.Mask&pred == 0 {
				continue
			}
			total++
			isKnown, satisfied := predicateOK(rule, inputs, pred)
			if !isKnown {
				continue
			}
			known++
			if !satisfied {
				rejected = true
			}
		}
		if rejected {
			continue
		}

		confidence := fixedpoint.Q16(0)
		if total > 0 {
			confidence = fixedpoint.FromInt(int32(known)).Div(fixedpoint.FromInt(int32(total)))
		}

		wins := !haveBest ||
			confidence > best.Confidence ||
			(confidence == best.Confidence && known > bestKnown) ||
			(confidence == best.Confidence && known == bestKnown && rule.BiomeID < best.BiomeID)
		if !wins {
			continue
		}
		haveBest = true
		best = BiomeResult{BiomeID: rule.BiomeID, Confidence: confidence}
		bestKnown = known
	}

	if !haveBest || bestKnown == 0 {
		return BiomeResult{BiomeID: 0, Confidence: best.Confidence, Unknown: true}
	}
	return best
}
