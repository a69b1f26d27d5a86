package worldfield

// LadderFuncs bundles the domain-specific hooks RunLadder needs to execute
// one query's resolution ladder (spec.md §4.2). S is the domain's own
// sample-value struct (field values only); RunLadder attaches the QueryMeta
// itself so every domain gets byte-identical ladder semantics.
type LadderFuncs[S any] struct {
	Active    bool
	HasSource bool
	Bounds    AABB
	Point     Point

	Policy DomainPolicy
	Budget *Budget

	// FindCapsule reports whether Point lies inside a collapsed capsule;
	// nil for domains that never collapse (none currently, but kept
	// optional so a future domain can opt out cleanly).
	FindCapsule func(Point) (Capsule, bool)

	// Unknown returns a sample with every field set to the unknown
	// sentinel, used on every refusal/degenerate path.
	Unknown func() S

	// Analytic evaluates Point directly with no tile; used for both the
	// FULL and ANALYTIC tiers (spec.md §4.2: ANALYTIC is "Analytic
	// evaluation again, under a distinct (cheap) budget").
	Analytic func(Point) S

	// GetOrBuildTile returns a cached or freshly built tile at tier.
	// builtNow reports whether this call actually built the tile (a cache
	// miss), which determines whether the tile-build cost is charged.
	// ok is false only on an internal failure (e.g. sample_dim zero after
	// SetPolicy).
	GetOrBuildTile func(tier ResolutionTier) (tile *Tile, builtNow bool, ok bool)

	// SampleTile reads a sample out of tile at Point via nearest-sample
	// lookup.
	SampleTile func(tile *Tile, p Point) S
}

var ladderTiers = []ResolutionTier{Full, Medium, Coarse, Analytic}

// RunLadder executes the pre-ladder checks and tier loop shared verbatim by
// every domain. Only Analytic/SampleTile/GetOrBuildTile vary between
// domains; the budgeting, tier capping, and refusal bookkeeping live here
// exactly once.
func RunLadder[S any](f LadderFuncs[S]) (S, QueryMeta) {
	usedBefore, maxUnits := f.Budget.Snapshot()
	meta := QueryMeta{BudgetUsed: usedBefore, BudgetMax: maxUnits}

	if !f.Active {
		return f.Unknown(), refuse(f.Budget, meta, ReasonDomainInactive)
	}
	if !f.HasSource {
		return f.Unknown(), refuse(f.Budget, meta, ReasonNoSource)
	}
	if !f.Bounds.Contains(f.Point) {
		meta.Status = OK
		meta.Resolution = Coarse
		meta.Confidence = UnknownConfidence
		meta.RefusalReason = ReasonOutOfBounds
		meta.Flags |= FlagAllFieldsUnknown | FlagFieldsUnknown
		return f.Unknown(), withBudget(f.Budget, meta)
	}
	if f.FindCapsule != nil {
		if _, ok := f.FindCapsule(f.Point); ok {
			meta.Status = OK
			meta.Resolution = Analytic
			meta.Confidence = UnknownConfidence
			meta.RefusalReason = ReasonCollapsed
			meta.Flags |= FlagCollapsed | FlagAllFieldsUnknown | FlagFieldsUnknown
			return f.Unknown(), withBudget(f.Budget, meta)
		}
	}

	for _, tier := range ladderTiers {
		if tier < f.Policy.MaxResolution {
			continue
		}
		cost := f.Policy.costFor(tier)

		switch tier {
		case Full, Analytic:
			if !f.Budget.Consume(cost.EntryCost) {
				continue
			}
			meta.Status = OK
			meta.Resolution = tier
			meta.Confidence = Exact
			meta.CostUnits = f.Budget.UsedUnits - usedBefore
			sample := f.Analytic(f.Point)
			return sample, withBudget(f.Budget, meta)

		case Medium, Coarse:
			if !f.Budget.Consume(cost.EntryCost) {
				continue
			}
			tile, builtNow, ok := f.GetOrBuildTile(tier)
			if !ok {
				return f.Unknown(), refuse(f.Budget, meta, ReasonInternal)
			}
			if builtNow && !f.Budget.Consume(cost.TileBuildCost) {
				continue
			}
			meta.Status = OK
			meta.Resolution = tier
			meta.Confidence = LowerBound
			meta.CostUnits = f.Budget.UsedUnits - usedBefore
			sample := f.SampleTile(tile, f.Point)
			return sample, withBudget(f.Budget, meta)
		}
	}

	meta.CostUnits = f.Budget.UsedUnits - usedBefore
	return f.Unknown(), refuse(f.Budget, meta, ReasonBudget)
}

func refuse(b *Budget, meta QueryMeta, reason RefusalReason) QueryMeta {
	meta.Status = StatusRefused
	meta.RefusalReason = reason
	meta.Flags |= FlagAllFieldsUnknown | FlagFieldsUnknown
	return withBudget(b, meta)
}

func withBudget(b *Budget, meta QueryMeta) QueryMeta {
	meta.BudgetUsed, meta.BudgetMax = b.Snapshot()
	return meta
}
