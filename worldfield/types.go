// Package worldfield implements the framework shared by every field
// provider domain: the resolution-ladder query protocol, the LRU tile
// cache, the capsule collapse/expand store, and the common data model
// (points, bounds, policies, budgets, query metadata). spec.md §3-§4
// describes this framework once; every domain package (terrain, climate,
// weather, geology, vegetation, animal) embeds worldfield.Base and
// implements only the parts of spec.md §4.4-§4.9 specific to it.
package worldfield

import (
	"github.com/sirupsen/logrus"
	"github.com/spatialmodel/worldfield/fixedpoint"
)

// Point is a position in local Q16.16 units.
type Point struct {
	X, Y, Z fixedpoint.Q16
}

// AABB is an axis-aligned bounding box; Contains is inclusive of both
// Min and Max, matching spec.md §3.
type AABB struct {
	Min, Max Point
}

// Contains reports whether p lies within b, inclusive of the boundary.
func (b AABB) Contains(p Point) bool {
	return p.X >= b.Min.X && p.X <= b.Max.X &&
		p.Y >= b.Min.Y && p.Y <= b.Max.Y &&
		p.Z >= b.Min.Z && p.Z <= b.Max.Z
}

// DomainID, TileID and CapsuleID are 64-bit identifiers. Tile IDs are
// derived from a tile's (tx,ty,tz,resolution) coordinate via worldfield's
// own fixed FNV-1a hash (see TileCoord.ID); capsule IDs reuse the tile id of the
// collapsed region.
type (
	DomainID   uint64
	TileID     uint64
	CapsuleID  = TileID
	WindowID   uint64
)

// ResolutionTier is ordered from finest (Full) to coarsest (Refused).
// DomainPolicy.MaxResolution caps the finest tier a query may be served
// at: any tier strictly finer than the cap is skipped by the ladder.
type ResolutionTier int

const (
	Full ResolutionTier = iota
	Medium
	Coarse
	Analytic
	Refused
)

func (r ResolutionTier) String() string {
	switch r {
	case Full:
		return "FULL"
	case Medium:
		return "MEDIUM"
	case Coarse:
		return "COARSE"
	case Analytic:
		return "ANALYTIC"
	case Refused:
		return "REFUSED"
	default:
		return "UNKNOWN_TIER"
	}
}

// Confidence describes how trustworthy a served sample is.
type Confidence int

const (
	Exact Confidence = iota
	LowerBound
	UnknownConfidence
)

func (c Confidence) String() string {
	switch c {
	case Exact:
		return "EXACT"
	case LowerBound:
		return "LOWER_BOUND"
	case UnknownConfidence:
		return "UNKNOWN"
	default:
		return "?"
	}
}

// Status is the coarse OK/REFUSED outcome of a query.
type Status int

const (
	OK Status = iota
	StatusRefused
)

// RefusalReason enumerates the error taxonomy of spec.md §7 that is
// surfaced in-band via QueryMeta rather than as a Go error.
type RefusalReason int

const (
	ReasonNone RefusalReason = iota
	ReasonDomainInactive
	ReasonNoSource
	ReasonOutOfBounds
	ReasonCollapsed
	ReasonBudget
	ReasonInternal
	ReasonPartialFieldsUnknown
)

func (r RefusalReason) String() string {
	switch r {
	case ReasonNone:
		return "NONE"
	case ReasonDomainInactive:
		return "DOMAIN_INACTIVE"
	case ReasonNoSource:
		return "NO_SOURCE"
	case ReasonOutOfBounds:
		return "OUT_OF_BOUNDS"
	case ReasonCollapsed:
		return "COLLAPSED"
	case ReasonBudget:
		return "BUDGET"
	case ReasonInternal:
		return "INTERNAL"
	case ReasonPartialFieldsUnknown:
		return "PARTIAL_FIELDS_UNKNOWN"
	default:
		return "?"
	}
}

// SampleFlags is a bitmask carried on every sample in addition to its
// QueryMeta. worldfield reserves the low bits; each domain package may
// define additional flag bits starting at FirstDomainFlagBit.
type SampleFlags uint32

const (
	FlagCollapsed SampleFlags = 1 << iota
	FlagFieldsUnknown
	FlagAllFieldsUnknown

	// FirstDomainFlagBit is the first bit a domain package may use for its
	// own flags (e.g. vegetation's FlagInstancePresent, animal's
	// FlagContested).
	FirstDomainFlagBit SampleFlags = 1 << 8
)

// QueryMeta is the status/provenance block attached to every sample.
type QueryMeta struct {
	Status        Status
	Resolution    ResolutionTier
	Confidence    Confidence
	RefusalReason RefusalReason
	CostUnits     int64
	BudgetUsed    int64
	BudgetMax     int64
	Flags         SampleFlags
}

// Refused reports whether m.Status is StatusRefused.
func (m QueryMeta) Refused() bool { return m.Status == StatusRefused }

// ExistenceState is the lifecycle state of a domain.
type ExistenceState int

const (
	NonExistent ExistenceState = iota
	Declared
	Realized
)

// ArchivalState augments ExistenceState: an archived-but-live domain still
// serves queries (spec.md §3 "Existence state").
type ArchivalState int

const (
	ArchivalNone ArchivalState = iota
	ArchivalLive
	ArchivalDormant
)

// Active reports whether a domain in this (existence, archival) state may
// serve queries.
func Active(existence ExistenceState, archival ArchivalState) bool {
	return existence == Realized || archival == ArchivalLive
}

// AuthoringVersion is a monotone integer bumped on any configuration
// change; it participates in every cache key so a policy change can never
// be served a stale tile.
type AuthoringVersion uint64

// TileDesc names the region and resolution a CollapseTile call should
// summarize into a capsule (spec.md §4.10's collapse_tile(desc, tick)).
// WindowStart/WindowTicks are only meaningful for time-varying domains
// (vegetation, animal) and are ignored by terrain/climate/geology.
type TileDesc struct {
	Coord       TileCoord
	WindowStart int64
	WindowTicks int64
}

// CallerErrorKind distinguishes the caller-error row of spec.md §7's error
// taxonomy from the in-band refusal reasons above.
type CallerErrorKind int

const (
	ErrNilArgument CallerErrorKind = iota
	ErrZeroSampleDim
	ErrInvalidTier
	ErrCapsuleArrayFull
	ErrCapsuleNotFound
)

// CallerError is returned (never placed in QueryMeta) for the caller-error
// row of spec.md §7's table: null arguments, zero sample_dim, invalid tier
// selection. These are never recovered internally.
type CallerError struct {
	Kind CallerErrorKind
	Msg  string
}

func (e *CallerError) Error() string { return e.Msg }

// Logger returns a logger for framework events (cache eviction,
// invalidation, collapse/expand), defaulting to the standard logger if l
// is nil. The core never logs above Debug on the per-query hot path.
func Logger(l logrus.FieldLogger) logrus.FieldLogger {
	if l == nil {
		return logrus.StandardLogger()
	}
	return l
}
