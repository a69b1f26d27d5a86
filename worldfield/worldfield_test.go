package worldfield

import (
	"testing"

	"github.com/spatialmodel/worldfield/fixedpoint"
)

func pt(x, y, z int32) Point {
	return Point{X: fixedpoint.FromInt(x), Y: fixedpoint.FromInt(y), Z: fixedpoint.FromInt(z)}
}

func TestAABBContainsInclusive(t *testing.T) {
	b := AABB{Min: pt(0, 0, 0), Max: pt(10, 10, 10)}
	if !b.Contains(pt(0, 0, 0)) || !b.Contains(pt(10, 10, 10)) {
		t.Error("Contains must be inclusive of both Min and Max")
	}
	if b.Contains(pt(11, 0, 0)) {
		t.Error("Contains should exclude points outside the box")
	}
}

func TestBudgetMonotone(t *testing.T) {
	b := NewBudget(10)
	if !b.Consume(4) {
		t.Fatal("expected success")
	}
	if b.UsedUnits != 4 {
		t.Fatalf("UsedUnits = %d, want 4", b.UsedUnits)
	}
	if b.Consume(10) {
		t.Fatal("expected failure: would exceed max")
	}
	if b.UsedUnits != 4 {
		t.Fatalf("a failed Consume must not change UsedUnits, got %d", b.UsedUnits)
	}
	if !b.Consume(6) {
		t.Fatal("expected success at exact remaining budget")
	}
	if b.UsedUnits != 10 {
		t.Fatalf("UsedUnits = %d, want 10", b.UsedUnits)
	}
}

func TestCacheLRUEvictionOrder(t *testing.T) {
	c := NewCache(2, nil)
	k1 := CacheKey{Domain: 1, Tile: 1, Resolution: Medium}
	k2 := CacheKey{Domain: 1, Tile: 2, Resolution: Medium}
	k3 := CacheKey{Domain: 1, Tile: 3, Resolution: Medium}
	t1 := NewTile(1, Medium, 2, AABB{}, 0, []string{"f"})
	t2 := NewTile(2, Medium, 2, AABB{}, 0, []string{"f"})
	t3 := NewTile(3, Medium, 2, AABB{}, 0, []string{"f"})

	c.Put(k1, t1)
	c.Put(k2, t2)
	// Touch k1 so k2 becomes the least-recently-used.
	if _, ok := c.Get(k1); !ok {
		t.Fatal("expected hit on k1")
	}
	c.Put(k3, t3) // should evict k2, not k1

	if _, ok := c.Get(k1); !ok {
		t.Error("k1 should have survived eviction (was most recently used)")
	}
	if _, ok := c.Get(k2); ok {
		t.Error("k2 should have been evicted (was least recently used)")
	}
	if _, ok := c.Get(k3); !ok {
		t.Error("k3 should be present (just inserted)")
	}
}

func TestCacheEvictionTieBreakByInsertOrder(t *testing.T) {
	c := NewCache(2, nil)
	k1 := CacheKey{Domain: 1, Tile: 1}
	k2 := CacheKey{Domain: 1, Tile: 2}
	k3 := CacheKey{Domain: 1, Tile: 3}
	c.Put(k1, NewTile(1, Full, 2, AABB{}, 0, nil))
	c.Put(k2, NewTile(2, Full, 2, AABB{}, 0, nil))
	// Neither k1 nor k2 has been Get() since insertion, so both have the
	// same lastUsed value (set at Put time); insert_order must break the
	// tie in favor of evicting the older (k1).
	c.Put(k3, NewTile(3, Full, 2, AABB{}, 0, nil))

	if _, ok := c.Get(k1); ok {
		t.Error("k1 (oldest, tied lastUsed) should have been evicted")
	}
	if _, ok := c.Get(k2); !ok {
		t.Error("k2 should have survived")
	}
}

func TestCacheInvalidateDomain(t *testing.T) {
	c := NewCache(4, nil)
	k1 := CacheKey{Domain: 1, Tile: 1}
	k2 := CacheKey{Domain: 2, Tile: 1}
	c.Put(k1, NewTile(1, Full, 2, AABB{}, 0, nil))
	c.Put(k2, NewTile(1, Full, 2, AABB{}, 0, nil))
	c.InvalidateDomain(1)
	if _, ok := c.Get(k1); ok {
		t.Error("domain 1's entry should be gone")
	}
	if _, ok := c.Get(k2); !ok {
		t.Error("domain 2's entry should be unaffected")
	}
}

func TestCapsuleReversibility(t *testing.T) {
	s := NewCapsuleStore(4, nil)
	before := s.Count()
	c := NewCapsule(42, AABB{})
	if err := s.Append(c); err != nil {
		t.Fatal(err)
	}
	if s.Count() != before+1 {
		t.Fatalf("count after collapse = %d, want %d", s.Count(), before+1)
	}
	other := NewCapsule(43, AABB{})
	s.Append(other)
	if err := s.RemoveByID(42); err != nil {
		t.Fatal(err)
	}
	if s.Count() != before+1 {
		t.Fatalf("count after expand = %d, want %d", s.Count(), before+1)
	}
	// The other capsule must still be present and findable.
	found := false
	for i := 0; i < s.Count(); i++ {
		cc, _ := s.At(i)
		if cc.ID == 43 {
			found = true
		}
	}
	if !found {
		t.Error("expand must not disturb a different capsule's identity")
	}
}

func TestCapsuleExpandMissingDoesNotReorder(t *testing.T) {
	s := NewCapsuleStore(4, nil)
	s.Append(NewCapsule(1, AABB{}))
	s.Append(NewCapsule(2, AABB{}))
	if err := s.RemoveByID(999); err == nil {
		t.Fatal("expected error for missing capsule id")
	}
	c0, _ := s.At(0)
	c1, _ := s.At(1)
	if c0.ID != 1 || c1.ID != 2 {
		t.Error("a failed expand must not reorder existing capsules")
	}
}

func TestCapsuleArrayFull(t *testing.T) {
	s := NewCapsuleStore(1, nil)
	if err := s.Append(NewCapsule(1, AABB{})); err != nil {
		t.Fatal(err)
	}
	if err := s.Append(NewCapsule(2, AABB{})); err == nil {
		t.Fatal("expected capsule array full error")
	}
}

func TestRefusalSetsAllFieldUnknownFlags(t *testing.T) {
	b := NewBudget(0)
	type sample struct{ v fixedpoint.Q16 }
	_, meta := RunLadder(LadderFuncs[sample]{
		Active:    true,
		HasSource: true,
		Bounds:    AABB{Min: pt(-1, -1, -1), Max: pt(1, 1, 1)},
		Point:     pt(0, 0, 0),
		Policy:    DefaultPolicy(),
		Budget:    b,
		Unknown:   func() sample { return sample{v: fixedpoint.Unknown} },
		Analytic:  func(Point) sample { return sample{v: fixedpoint.One} },
	})
	if meta.Status != StatusRefused {
		t.Fatalf("status = %v, want Refused", meta.Status)
	}
	if meta.RefusalReason != ReasonBudget {
		t.Fatalf("reason = %v, want Budget", meta.RefusalReason)
	}
	if meta.Flags&FlagAllFieldsUnknown == 0 {
		t.Error("a refused query must set the all-fields-unknown flag")
	}
}

func TestBudgetMonotoneAcrossLadder(t *testing.T) {
	b := NewBudget(2)
	type sample struct{}
	before := b.UsedUnits
	_, meta := RunLadder(LadderFuncs[sample]{
		Active:    true,
		HasSource: true,
		Bounds:    AABB{Min: pt(-1, -1, -1), Max: pt(1, 1, 1)},
		Point:     pt(0, 0, 0),
		Policy:    DefaultPolicy(),
		Budget:    b,
		Unknown:   func() sample { return sample{} },
		Analytic:  func(Point) sample { return sample{} },
	})
	if b.UsedUnits < before {
		t.Error("used units must never decrease")
	}
	if b.UsedUnits > b.MaxUnits {
		t.Error("used units must never exceed max")
	}
	if meta.BudgetUsed != b.UsedUnits {
		t.Error("meta must reflect the final budget snapshot")
	}
}

func TestOutOfBoundsIsOKNotRefused(t *testing.T) {
	b := NewBudget(100)
	type sample struct{}
	_, meta := RunLadder(LadderFuncs[sample]{
		Active:    true,
		HasSource: true,
		Bounds:    AABB{Min: pt(0, 0, 0), Max: pt(1, 1, 1)},
		Point:     pt(100, 100, 100),
		Policy:    DefaultPolicy(),
		Budget:    b,
		Unknown:   func() sample { return sample{} },
		Analytic:  func(Point) sample { return sample{} },
	})
	if meta.Status != OK {
		t.Error("out-of-bounds must be OK, not REFUSED, per spec.md §4.2")
	}
	if meta.Resolution != Coarse {
		t.Errorf("resolution = %v, want COARSE", meta.Resolution)
	}
}

func TestCollapsedPrecedesTierAvailability(t *testing.T) {
	b := NewBudget(1000)
	type sample struct{}
	bounds := AABB{Min: pt(-1, -1, -1), Max: pt(1, 1, 1)}
	_, meta := RunLadder(LadderFuncs[sample]{
		Active:    true,
		HasSource: true,
		Bounds:    bounds,
		Point:     pt(0, 0, 0),
		Policy:    DefaultPolicy(),
		Budget:    b,
		FindCapsule: func(Point) (Capsule, bool) {
			return NewCapsule(1, bounds), true
		},
		Unknown:  func() sample { return sample{} },
		Analytic: func(Point) sample { return sample{} },
	})
	if meta.RefusalReason != ReasonCollapsed {
		t.Error("a point inside a capsule must be served as COLLAPSED regardless of budget")
	}
	if meta.Flags&FlagCollapsed == 0 {
		t.Error("FlagCollapsed must be set")
	}
}

func TestMaxResolutionCapsLadder(t *testing.T) {
	b := NewBudget(1000)
	type sample struct{ tier ResolutionTier }
	policy := DefaultPolicy()
	policy.MaxResolution = Coarse
	_, meta := RunLadder(LadderFuncs[sample]{
		Active:    true,
		HasSource: true,
		Bounds:    AABB{Min: pt(-1, -1, -1), Max: pt(1, 1, 1)},
		Point:     pt(0, 0, 0),
		Policy:    policy,
		Budget:    b,
		Unknown:   func() sample { return sample{} },
		Analytic:  func(Point) sample { return sample{tier: Full} },
		GetOrBuildTile: func(tier ResolutionTier) (*Tile, bool, bool) {
			return NewTile(1, tier, 2, AABB{}, 0, nil), true, true
		},
		SampleTile: func(tile *Tile, p Point) sample { return sample{tier: tile.Resolution} },
	})
	if meta.Resolution != Coarse {
		t.Errorf("resolution = %v, want COARSE (capped by MaxResolution)", meta.Resolution)
	}
}
