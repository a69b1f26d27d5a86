package worldfield

import (
	"github.com/ctessum/sparse"
	"github.com/spatialmodel/worldfield/fixedpoint"
)

// TileCoord is a tile's grid coordinate plus the resolution it was built
// at; TileID is a fixed hash of this tuple (spec.md §3).
type TileCoord struct {
	TX, TY, TZ int64
	Resolution ResolutionTier
}

// ID derives the tile's identifier via a fixed hash over its coordinate,
// using the same hash primitive as every other id in the engine so that
// two independently constructed domains with identical tile coordinates
// derive identical ids (part of the cache-purity invariant).
func (c TileCoord) ID() TileID {
	return TileID(hashTileCoord(int64(c.TX), int64(c.TY), int64(c.TZ), int64(c.Resolution)))
}

// Bounds returns the spatial extent of the tile coordinate's cube, given
// the domain policy's fixed tile size.
func (c TileCoord) Bounds(tileSize fixedpoint.Q16) AABB {
	min := Point{
		X: fixedpoint.FromInt(int32(c.TX)).Mul(tileSize),
		Y: fixedpoint.FromInt(int32(c.TY)).Mul(tileSize),
		Z: fixedpoint.FromInt(int32(c.TZ)).Mul(tileSize),
	}
	max := Point{X: min.X.Add(tileSize), Y: min.Y.Add(tileSize), Z: min.Z.Add(tileSize)}
	return AABB{Min: min, Max: max}
}

// hashTileCoord is declared here (not imported from worldrng) to keep
// worldfield free of a dependency on worldrng — domains own the dependency
// on worldrng for their noise/placement streams, but tile identity hashing
// is a pure framework concern shared by all six domains, so it is
// duplicated as a tiny, self-contained primitive rather than introducing a
// layering dependency in either direction.
func hashTileCoord(parts ...int64) uint64 {
	h := uint64(0xcbf29ce484222325)
	for _, p := range parts {
		u := uint64(p)
		for i := 0; i < 8; i++ {
			h ^= u & 0xFF
			h *= 1099511628211
			u >>= 8
		}
	}
	return h
}

// Tile is a precomputed N^3 grid of field samples. Sample storage is
// backed by sparse.DenseArrayInt (one array per named field), reusing the
// row-major Index1d convention of that type to get the spec's required
// lexicographic z-major/y-middle/x-fastest sample ordering: indexing as
// Get(iz,iy,ix) with Shape [N,N,N] yields array offset (iz*N+iy)*N+ix
// because DenseArrayInt varies its last index fastest.
type Tile struct {
	TileID           TileID
	Resolution       ResolutionTier
	SampleDim        int32
	Bounds           AABB
	AuthoringVersion AuthoringVersion

	// HasWindow, WindowStart and WindowTicks are populated for
	// time-varying providers (vegetation, animal, weather) per spec.md
	// §4.3's cache key table.
	HasWindow   bool
	WindowStart int64
	WindowTicks int64

	fieldNames []string
	fields     map[string]*sparse.DenseArrayInt
}

// NewTile allocates a tile with the given field names, each backed by its
// own N^3 DenseArrayInt initialized to the UNKNOWN_Q16 sentinel bit
// pattern — spec.md's invariant that an unbuilt sample is either in range
// or exactly the sentinel holds from the moment of allocation.
func NewTile(id TileID, res ResolutionTier, sampleDim int32, bounds AABB, version AuthoringVersion, fieldNames []string) *Tile {
	t := &Tile{
		TileID:           id,
		Resolution:       res,
		SampleDim:        sampleDim,
		Bounds:           bounds,
		AuthoringVersion: version,
		fieldNames:       append([]string(nil), fieldNames...),
		fields:           make(map[string]*sparse.DenseArrayInt, len(fieldNames)),
	}
	n := int(sampleDim)
	for _, name := range fieldNames {
		arr := sparse.ZerosDenseInt(n, n, n)
		for i := range arr.Elements {
			arr.Elements[i] = int(fixedpoint.Unknown)
		}
		t.fields[name] = arr
	}
	return t
}

// SampleCount returns N^3.
func (t *Tile) SampleCount() int64 {
	n := int64(t.SampleDim)
	return n * n * n
}

// FieldNames returns the tile's field names in a stable order.
func (t *Tile) FieldNames() []string { return t.fieldNames }

// Set stores a Q16.16 value at grid index (ix,iy,iz) for the named field.
func (t *Tile) Set(field string, ix, iy, iz int32, v fixedpoint.Q16) {
	arr, ok := t.fields[field]
	if !ok {
		return
	}
	arr.Set(int(int32FromQ16(v)), int(iz), int(iy), int(ix))
}

// At reads the Q16.16 value at grid index (ix,iy,iz) for the named field.
// Per the resolved "climate tile scalar sampling for UNKNOWN_Q16" open
// question (DESIGN.md), At returns the sentinel as data here — it is the
// caller's (each domain's sampleTile method's) job to detect the sentinel
// and set FlagFieldsUnknown rather than treating it as a real value.
func (t *Tile) At(field string, ix, iy, iz int32) fixedpoint.Q16 {
	arr, ok := t.fields[field]
	if !ok {
		return fixedpoint.Unknown
	}
	return q16FromInt32(int32(arr.Get(int(iz), int(iy), int(ix))))
}

// int32FromQ16/q16FromInt32 round-trip a Q16.16 value through the
// DenseArrayInt's int element type without going through float64, so tile
// storage never touches floating point.
func int32FromQ16(v fixedpoint.Q16) int32 { return int32(v) }
func q16FromInt32(v int32) fixedpoint.Q16 { return fixedpoint.Q16(v) }

// NearestIndex maps a local coordinate to the nearest grid index along one
// axis using the banker's-style midpoint rounding of spec.md §4.2, clamped
// to [0, sampleDim-1]. Tiles store sample i at the center of cell i
// (boundsMin + i*cellSize + cellSize/2), so the offset is measured from
// the first sample's center: a query at a cell's exact center reads that
// cell's sample.
func NearestIndex(coord, boundsMin, cellSize fixedpoint.Q16, sampleDim int32) int32 {
	offset := coord.Sub(boundsMin).Sub(cellSize.Mul(fixedpoint.One / 2))
	idx := offset.FloorDiv(cellSize)
	rem := offset.Sub(fixedpoint.FromInt(idx).Mul(cellSize))
	if fixedpoint.RoundToGrid(rem, cellSize) {
		idx++
	}
	if idx < 0 {
		idx = 0
	}
	if idx > sampleDim-1 {
		idx = sampleDim - 1
	}
	return idx
}
