package vegetation

import (
	"github.com/spatialmodel/worldfield/worldrng"
)

// neighborOffsets are the six axis-aligned placement-cell neighbors seed
// dispersal considers (SPEC_FULL.md §6 item 4).
var neighborOffsets = [6][3]int32{
	{1, 0, 0}, {-1, 0, 0},
	{0, 1, 0}, {0, -1, 0},
	{0, 0, 1}, {0, 0, -1},
}

// SeededCell is one neighbor a dying REGENERATIVE instance's dispersal
// roll won.
type SeededCell struct {
	CX, CY, CZ int32
}

// DisperseSeeds implements the supplemented seed-dispersal feature: called
// by the caller when a REGENERATIVE instance of speciesID dies at cell
// (cx,cy,cz) at tick, it rolls each axis-aligned neighbor's dispersal
// chance on a stream keyed by the dying cell, the neighbor offset, and
// tick, and reports which neighbors won. DisperseSeeds never mutates
// domain state or writes a capsule — it is a pure report of the dispersal
// outcome; a caller wanting the neighbor's placement to actually happen
// early must itself re-query that neighbor's cell via SampleQuery/
// evaluateAnalytic, preserving SampleQuery's own determinism (spec.md §5).
// Never invoked implicitly from SampleQuery or tile construction.
func (d *Domain) DisperseSeeds(speciesID int32, cx, cy, cz int32, tick int64) []SeededCell {
	species, ok := d.speciesByID(speciesID)
	if !ok || species.Mode != Regenerative || species.SeedDispersalChance <= 0 {
		return nil
	}

	var seeded []SeededCell
	for i, off := range neighborOffsets {
		key := worldrng.StreamKey{
			WorldSeed: d.Desc.WorldSeed,
			DomainID:  uint64(d.Desc.DomainID),
			ProcessID: uint64(speciesID),
			Tick:      int64(worldrng.HashIDs(int64(cx), int64(cy), int64(cz), int64(i), tick)),
			Name:      "vegetation.seed_dispersal",
		}
		stream := worldrng.New(key, worldrng.AllMixFlags)
		if !stream.Bool(species.SeedDispersalChance) {
			continue
		}
		seeded = append(seeded, SeededCell{CX: cx + off[0], CY: cy + off[1], CZ: cz + off[2]})
	}
	return seeded
}

func (d *Domain) speciesByID(id int32) (SpeciesProfile, bool) {
	for _, s := range d.Desc.Species {
		if s.SpeciesID == id {
			return s, true
		}
	}
	return SpeciesProfile{}, false
}
