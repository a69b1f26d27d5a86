package worldfield

import (
	"fmt"

	"github.com/sirupsen/logrus"
	"github.com/spatialmodel/worldfield/fixedpoint"
	"gonum.org/v1/gonum/floats"
)

// HistogramBinCount is the default number of bins per capsule histogram
// (spec.md §3: "histograms (4 bins each by default)").
const HistogramBinCount = 4

// Histogram is a fixed-size bin-count histogram over a single field,
// accumulated during collapse.
type Histogram struct {
	Min, Max fixedpoint.Q16
	Counts   [HistogramBinCount]int64
}

// Add records one sample into the histogram, ignoring unknown values (an
// unknown value contributes to neither a bin nor to Min/Max, per the
// "never silently clamp when the source was unknown" invariant).
func (h *Histogram) Add(v fixedpoint.Q16) {
	if v.IsUnknown() {
		return
	}
	span := h.Max - h.Min
	if span <= 0 {
		h.Counts[0]++
		return
	}
	bin := int64(v-h.Min) * HistogramBinCount / int64(span)
	if bin < 0 {
		bin = 0
	}
	if bin >= HistogramBinCount {
		bin = HistogramBinCount - 1
	}
	h.Counts[bin]++
}

// Capsule is a fixed-size summary of a collapsed tile or weather window
// (spec.md §3, §4.10). Histograms, population counts and RNG cursors are
// keyed by field/stream name so each domain can store whatever summary
// shape is meaningful to it without the framework needing to know the
// domain's field list in advance.
type Capsule struct {
	ID          CapsuleID
	Bounds      AABB
	HasWindow   bool
	WindowStart int64
	WindowTicks int64

	Histograms        map[string]Histogram
	Averages          map[string]fixedpoint.Q16
	PopulationCounts  map[string]int64
	RNGCursors        map[string]uint64

	// AccumI64 holds wide (int64) running sums that must not overflow
	// across a long collapse window — spec.md §4.6 specifically calls out
	// i64 accumulators for weather's cumulative precipitation and
	// temperature-deviation capsule fields.
	AccumI64 map[string]int64
}

// NewCapsule constructs an empty capsule for id/bounds.
func NewCapsule(id CapsuleID, bounds AABB) Capsule {
	return Capsule{
		ID:               id,
		Bounds:           bounds,
		Histograms:       make(map[string]Histogram),
		Averages:         make(map[string]fixedpoint.Q16),
		PopulationCounts: make(map[string]int64),
		RNGCursors:       make(map[string]uint64),
		AccumI64:         make(map[string]int64),
	}
}

// AverageQ16FromSamples computes a Q16.16 average of samples, ignoring
// unknown values, via gonum/floats off the per-query hot path (collapse is
// an explicit, infrequent call, never part of SampleQuery).
func AverageQ16FromSamples(samples []fixedpoint.Q16) fixedpoint.Q16 {
	vals := make([]float64, 0, len(samples))
	for _, s := range samples {
		if !s.IsUnknown() {
			vals = append(vals, s.Float())
		}
	}
	if len(vals) == 0 {
		return fixedpoint.Unknown
	}
	return fixedpoint.FromFloat(floats.Sum(vals) / float64(len(vals)))
}

// CapsuleStore is the append-only-on-collapse, compact-on-expand array of
// spec.md §3/§4.10: "Capsule arrays are append-only during collapse and
// compact on expand (swap-with-last)."
type CapsuleStore struct {
	capsules []Capsule
	maxCount int
	logger   logrus.FieldLogger
}

// NewCapsuleStore constructs a store with a fixed maximum capsule count.
func NewCapsuleStore(maxCount int, logger logrus.FieldLogger) *CapsuleStore {
	return &CapsuleStore{maxCount: maxCount, logger: Logger(logger)}
}

// Count returns the number of live capsules.
func (s *CapsuleStore) Count() int { return len(s.capsules) }

// At returns the capsule at index i.
func (s *CapsuleStore) At(i int) (Capsule, error) {
	if i < 0 || i >= len(s.capsules) {
		return Capsule{}, &CallerError{Kind: ErrCapsuleNotFound, Msg: fmt.Sprintf("worldfield: capsule index %d out of range [0,%d)", i, len(s.capsules))}
	}
	return s.capsules[i], nil
}

// Append adds a capsule, failing if the store is at capacity.
func (s *CapsuleStore) Append(c Capsule) error {
	if s.maxCount > 0 && len(s.capsules) >= s.maxCount {
		return &CallerError{Kind: ErrCapsuleArrayFull, Msg: "worldfield: capsule array full"}
	}
	s.capsules = append(s.capsules, c)
	s.logger.WithField("capsule_id", c.ID).Debug("worldfield: capsule appended")
	return nil
}

// RemoveByID finds the capsule with the given id and removes it by
// swapping it with the last entry, matching spec.md §4.10's
// "linear-search capsules, swap the match with the last entry, decrement
// count" and the reversibility invariant in spec.md §8. Returns an error
// (without reordering) if no capsule has this id.
func (s *CapsuleStore) RemoveByID(id CapsuleID) error {
	for i := range s.capsules {
		if s.capsules[i].ID != id {
			continue
		}
		last := len(s.capsules) - 1
		s.capsules[i] = s.capsules[last]
		s.capsules = s.capsules[:last]
		s.logger.WithField("capsule_id", id).Debug("worldfield: capsule expanded")
		return nil
	}
	return &CallerError{Kind: ErrCapsuleNotFound, Msg: fmt.Sprintf("worldfield: no capsule with id %d", id)}
}

// Find returns the first capsule whose bounds contain p, used by the
// resolution ladder's pre-ladder "point inside any capsule's bounds" check
// (spec.md §4.2 step 4). This is a linear scan over a small, fixed-size
// array by design, matching RemoveByID's algorithm.
func (s *CapsuleStore) Find(p Point) (Capsule, bool) {
	for _, c := range s.capsules {
		if c.Bounds.Contains(p) {
			return c, true
		}
	}
	return Capsule{}, false
}
