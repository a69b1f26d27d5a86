// Package worldrng implements the deterministic, context-keyed pseudo-random
// substrate described in spec.md §4.1. Every noise or choice draw in the
// engine goes through either a Stream (for sequential per-entity draws,
// e.g. "roll a species' birth tick") or a pure lattice hash (for per-cell
// value noise, which must be resampling-stable: the same cell must hash to
// the same value whether it is reached via a tile build or an analytic
// point query).
//
// Re-initializing a Stream with the same inputs yields the same sequence
// regardless of any prior history anywhere else in the program — this is
// the sole guarantee that lets spatial queries be answered out of order
// and still be deterministic and cache-pure.
package worldrng

import (
	"encoding/binary"
	"fmt"

	"github.com/spatialmodel/worldfield/fixedpoint"
)

// MixFlag selects which components of a StreamKey participate in seeding
// a Stream. A caller that omits a flag gets a stream that collapses across
// that axis — e.g. omitting Tick gives the same stream for every tick,
// which is exactly what a time-invariant provider (terrain, geology) wants.
type MixFlag uint8

const (
	MixDomain MixFlag = 1 << iota
	MixProcess
	MixTick
	MixStream
)

// AllMixFlags mixes every available component, the default for providers
// whose streams must vary per-domain, per-entity, per-tick and per-purpose.
const AllMixFlags = MixDomain | MixProcess | MixTick | MixStream

// StreamKey names a deterministic stream. Name should be a hierarchical
// dotted identifier, e.g. "noise.stream.<domain_id>.animal.spawn", so two
// unrelated call sites can never collide by accident.
type StreamKey struct {
	WorldSeed uint64
	DomainID  uint64
	ProcessID uint64 // species id, event-type id, or similar purpose-local id
	Tick      int64
	Name      string
}

// splitmix64 is the core deterministic mixer. It is not cryptographic; it
// is chosen for its small, well-understood avalanche properties and for
// being trivial to reimplement bit-for-bit on any platform, which matters
// more than speed here: spec.md demands bit-exact reproducibility across
// platforms, and a PRNG algorithm with any platform-dependent behavior
// (e.g. relying on float64 rounding) would break that.
func splitmix64(x uint64) uint64 {
	x += 0x9E3779B97F4A7C15
	z := x
	z = (z ^ (z >> 30)) * 0xBF58476D1CE4E5B9
	z = (z ^ (z >> 27)) * 0x94D049BB133111EB
	z = z ^ (z >> 31)
	return z
}

func fnv1a(seed uint64, data []byte) uint64 {
	const offset = 14695981039346656037
	const prime = 1099511628211
	h := seed ^ offset
	for _, b := range data {
		h ^= uint64(b)
		h *= prime
	}
	return h
}

// seedFrom mixes a StreamKey's selected components into a single 64-bit
// seed. The order is fixed: WorldSeed, then (conditionally) DomainID,
// ProcessID, Tick, then the stream Name — matching spec.md §4.1's listed
// mix order.
func seedFrom(key StreamKey, flags MixFlag) uint64 {
	h := splitmix64(key.WorldSeed)
	if flags&MixDomain != 0 {
		h = splitmix64(h ^ key.DomainID)
	}
	if flags&MixProcess != 0 {
		h = splitmix64(h ^ key.ProcessID)
	}
	if flags&MixTick != 0 {
		var buf [8]byte
		binary.LittleEndian.PutUint64(buf[:], uint64(key.Tick))
		h = fnv1a(h, buf[:])
	}
	if flags&MixStream != 0 {
		h = fnv1a(h, []byte(key.Name))
	}
	return h
}

// Stream is a sequential deterministic draw source. Its zero value is not
// usable; construct with New.
type Stream struct {
	state   uint64
	counter uint64
	key     StreamKey
	flags   MixFlag
}

// New constructs a Stream from key using flags to select which components
// of key participate in seeding. Two streams constructed with the same
// (key, flags) always produce the same sequence of draws.
func New(key StreamKey, flags MixFlag) *Stream {
	return &Stream{state: seedFrom(key, flags), key: key, flags: flags}
}

// Reinit resets the stream to its initial state, as if freshly constructed
// with New(s.key, s.flags). Used when a caller needs to re-derive the same
// stream later without keeping the *Stream alive (spec.md's determinism
// invariant: reinitializing yields the same stream regardless of prior use).
func (s *Stream) Reinit() {
	s.state = seedFrom(s.key, s.flags)
	s.counter = 0
}

// Key returns the StreamKey this stream was constructed from.
func (s *Stream) Key() StreamKey { return s.key }

// Uint64 draws the next raw 64-bit value.
func (s *Stream) Uint64() uint64 {
	s.counter++
	return splitmix64(s.state ^ splitmix64(s.counter))
}

// IntN draws a uniform integer in [0, n). Panics if n <= 0, since that is
// a caller programming error (e.g. a zero-length species table), not a
// recoverable runtime condition.
func (s *Stream) IntN(n int64) int64 {
	if n <= 0 {
		panic(fmt.Sprintf("worldrng: IntN called with n=%d", n))
	}
	return int64(s.Uint64() % uint64(n))
}

// Ratio draws a uniform Q16.16 value in [0, 1).
func (s *Stream) Ratio() fixedpoint.Q16 {
	return ratioFromHash(s.Uint64())
}

// SignedRatio draws a uniform Q16.16 value in [-1, 1).
func (s *Stream) SignedRatio() fixedpoint.Q16 {
	r := s.Ratio()
	return r.Mul(fixedpoint.FromInt(2)).Sub(fixedpoint.One)
}

// Range draws a uniform Q16.16 value in [lo, hi).
func (s *Stream) Range(lo, hi fixedpoint.Q16) fixedpoint.Q16 {
	if hi <= lo {
		return lo
	}
	return lo + s.Ratio().Mul(hi-lo)
}

// Bool draws a boolean that is true with probability p (a Q16.16 ratio in
// [0,1]).
func (s *Stream) Bool(p fixedpoint.Q16) bool {
	return s.Ratio() < p
}

// Point3 draws a uniform point inside the axis-aligned box [lo,hi] in all
// three dimensions, consuming exactly three draws in x,y,z order so the
// stream's cursor position after the call is deterministic and documented.
func (s *Stream) Point3(lo, hi [3]fixedpoint.Q16) [3]fixedpoint.Q16 {
	return [3]fixedpoint.Q16{
		s.Range(lo[0], hi[0]),
		s.Range(lo[1], hi[1]),
		s.Range(lo[2], hi[2]),
	}
}

// ratioFromHash maps a uniformly-distributed 64-bit hash to a Q16.16 value
// in [0,1) by taking the top 16 bits as the fractional part.
func ratioFromHash(h uint64) fixedpoint.Q16 {
	return fixedpoint.Q16((h >> 48) & 0xFFFF)
}

// LatticeHash64 is the pure, stateless 3D-integer-lattice hash described in
// spec.md §4.1. It is a function only of (seed, ix, iy, iz): calling it
// twice with the same arguments — whether from an analytic point query or
// while building a tile — always returns the same value. This is the
// property that lets tile resampling and analytic evaluation agree exactly
// at shared sample points.
func LatticeHash64(seed uint64, ix, iy, iz int32) uint64 {
	h := splitmix64(seed)
	h = splitmix64(h ^ uint64(uint32(ix)))
	h = splitmix64(h ^ (uint64(uint32(iy)) << 32))
	h = splitmix64(h ^ uint64(uint32(iz)))
	return h
}

// Noise3 returns a deterministic Q16.16 value-noise sample in
// [-amplitude, +amplitude] for the given lattice cell. There is no
// interpolation between cells: the field is piecewise constant per cell,
// by design (spec.md §4.1) — this is what lets a MEDIUM or COARSE tile's
// nearest-sample lookup agree exactly with a FULL analytic evaluation at
// any point inside the same cell.
func Noise3(seed uint64, ix, iy, iz int32, amplitude fixedpoint.Q16) fixedpoint.Q16 {
	h := LatticeHash64(seed, ix, iy, iz)
	signed := ratioFromHash(h).Mul(fixedpoint.FromInt(2)).Sub(fixedpoint.One)
	return signed.Mul(amplitude)
}

// Ratio3 returns a deterministic Q16.16 ratio in [0,1) for the given
// lattice cell, used for placement/coverage checks rather than signed
// noise.
func Ratio3(seed uint64, ix, iy, iz int32) fixedpoint.Q16 {
	return ratioFromHash(LatticeHash64(seed, ix, iy, iz))
}

// HashName folds a hierarchical stream name into a uint64 suitable for use
// as a ProcessID component of a StreamKey when the natural id is textual
// (e.g. a species name or an event type name).
func HashName(name string) uint64 {
	return fnv1a(0, []byte(name))
}

// HashIDs combines a small number of identifiers (tile coordinates, event
// type + index, etc.) into a single deterministic 64-bit id, used for tile
// ids, capsule ids, event ids and window ids throughout the engine.
func HashIDs(parts ...int64) uint64 {
	h := uint64(0xcbf29ce484222325)
	for _, p := range parts {
		var buf [8]byte
		binary.LittleEndian.PutUint64(buf[:], uint64(p))
		h = fnv1a(h, buf[:])
	}
	return h
}
