package weather

import (
	"github.com/spatialmodel/worldfield/climate"
	"github.com/spatialmodel/worldfield/fixedpoint"
	"github.com/spatialmodel/worldfield/worldfield"
	"github.com/spatialmodel/worldfield/worldrng"
)

// maxEventListSize caps event_at/events_in_window results: spec.md §6
// fixes event lists at <=64 entries, truncating silently on overflow.
const maxEventListSize = 64

// Domain is the weather event-schedule provider (spec.md §4.6). Unlike
// terrain/climate/geology it has no spatial tile grid of its own: its cache
// is keyed by window id, not tile id (spec.md §4.3), and its ladder has
// only a FULL and an ANALYTIC tier, both evaluating the schedule directly —
// events are sparse spatio-temporal phenomena, not a dense field suited to
// grid resampling (resolved design decision, see DESIGN.md).
type Domain struct {
	worldfield.Base
	Desc    ScheduleDesc
	Climate *climate.Domain

	windowCache *worldfield.WindowCache[[]Event]
}

// NewDomain constructs a weather domain layered over an already-constructed
// climate domain (spec.md §2: weather depends on climate).
func NewDomain(desc ScheduleDesc, clim *climate.Domain, cacheCapacity int) *Domain {
	const capsuleCapacity = 256
	base := worldfield.NewBase(desc.DomainID, cacheCapacity, capsuleCapacity, defaultLogger())
	return &Domain{
		Base:        base,
		Desc:        normalize(desc, nil),
		Climate:     clim,
		windowCache: worldfield.NewWindowCache[[]Event](cacheCapacity, defaultLogger()),
	}
}

// SetPolicy installs a new policy, invalidating both the inherited tile
// cache (unused by weather, kept for interface parity with other domains)
// and the window cache.
func (d *Domain) SetPolicy(p worldfield.DomainPolicy) {
	d.Base.SetPolicy(p)
	d.windowCache.InvalidateDomain(d.ID)
}

func withMeta(s Sample, meta worldfield.QueryMeta) Sample {
	s.Meta = meta
	s.Flags |= meta.Flags
	return s
}

func (d *Domain) refuse(budget *worldfield.Budget, meta worldfield.QueryMeta, reason worldfield.RefusalReason) Sample {
	meta.Status = worldfield.StatusRefused
	meta.RefusalReason = reason
	meta.Flags |= worldfield.FlagAllFieldsUnknown | worldfield.FlagFieldsUnknown
	meta.BudgetUsed, meta.BudgetMax = budget.Snapshot()
	return withMeta(unknownSample(), meta)
}

// findCollapsedWindow reports whether tick falls inside any previously
// collapsed window capsule (spec.md §4.2 step 4, specialized to weather's
// time-keyed rather than space-keyed capsules).
func (d *Domain) findCollapsedWindow(tick int64) (worldfield.Capsule, bool) {
	for i := 0; i < d.CapsuleCount(); i++ {
		c, err := d.CapsuleAt(i)
		if err != nil {
			continue
		}
		if c.HasWindow && tick >= c.WindowStart && tick < c.WindowStart+c.WindowTicks {
			return c, true
		}
	}
	return worldfield.Capsule{}, false
}

// SampleQuery evaluates weather at (p, tick) under budget, combining the
// underlying climate sample with active-event perturbations (spec.md §4.6).
func (d *Domain) SampleQuery(p worldfield.Point, tick int64, budget *worldfield.Budget) Sample {
	usedBefore, maxUnits := budget.Snapshot()
	meta := worldfield.QueryMeta{BudgetUsed: usedBefore, BudgetMax: maxUnits}

	if !d.Active() {
		return d.refuse(budget, meta, worldfield.ReasonDomainInactive)
	}
	if !d.Desc.HasSource {
		return d.refuse(budget, meta, worldfield.ReasonNoSource)
	}
	if !d.Desc.Bounds.Contains(p) {
		meta.Status = worldfield.OK
		meta.Resolution = worldfield.Coarse
		meta.Confidence = worldfield.UnknownConfidence
		meta.RefusalReason = worldfield.ReasonOutOfBounds
		meta.Flags |= worldfield.FlagAllFieldsUnknown | worldfield.FlagFieldsUnknown
		meta.BudgetUsed, meta.BudgetMax = budget.Snapshot()
		return withMeta(unknownSample(), meta)
	}
	if _, ok := d.findCollapsedWindow(tick); ok {
		meta.Status = worldfield.OK
		meta.Resolution = worldfield.Analytic
		meta.Confidence = worldfield.UnknownConfidence
		meta.RefusalReason = worldfield.ReasonCollapsed
		meta.Flags |= worldfield.FlagCollapsed | worldfield.FlagAllFieldsUnknown | worldfield.FlagFieldsUnknown
		meta.BudgetUsed, meta.BudgetMax = budget.Snapshot()
		return withMeta(unknownSample(), meta)
	}

	for _, tier := range []worldfield.ResolutionTier{worldfield.Full, worldfield.Analytic} {
		if tier < d.Policy.MaxResolution {
			continue
		}
		cost := d.Policy.Cost[tier]
		if !budget.Consume(cost.EntryCost) {
			continue
		}
		clim := d.Climate.SampleQuery(p, budget)
		active := d.EventsAt(p, tick)
		sample := evaluate(d.Desc, clim, active, tick)

		meta.Status = worldfield.OK
		meta.Resolution = tier
		meta.Confidence = worldfield.Exact
		meta.CostUnits = budget.UsedUnits - usedBefore
		meta.BudgetUsed, meta.BudgetMax = budget.Snapshot()
		return withMeta(sample, meta)
	}

	meta.CostUnits = budget.UsedUnits - usedBefore
	return d.refuse(budget, meta, worldfield.ReasonBudget)
}

// EventsAt returns every event of any type active at (p, tick) (spec.md
// §6's events_at).
func (d *Domain) EventsAt(p worldfield.Point, tick int64) []Event {
	var active []Event
	for t := EventType(0); int(t) < eventTypeCount; t++ {
		profile := d.Desc.Profiles[t]
		idx := activeIndex(tick, profile.PeriodTicks)
		e := d.Desc.eventAt(t, idx)
		if !e.IsActiveAt(tick, p) {
			continue
		}
		active = append(active, e)
		if len(active) >= maxEventListSize {
			break
		}
	}
	return active
}

func windowID(start, windowTicks int64) worldfield.WindowID {
	return worldfield.WindowID(worldrng.HashIDs(start, windowTicks))
}

// computeEventsInWindow enumerates every event of any type whose active
// interval overlaps [start, start+windowTicks), bypassing the window cache
// (used both to populate the cache and to rebuild fresh during collapse).
func (d *Domain) computeEventsInWindow(start, windowTicks int64) []Event {
	var result []Event
	for t := EventType(0); int(t) < eventTypeCount; t++ {
		profile := d.Desc.Profiles[t]
		if profile.PeriodTicks <= 0 {
			continue
		}
		kMin := activeIndex(start, profile.PeriodTicks) - 1
		if kMin < 0 {
			kMin = 0
		}
		kMax := activeIndex(start+windowTicks, profile.PeriodTicks) + 1
		for k := kMin; k <= kMax; k++ {
			e := d.Desc.eventAt(t, k)
			if !e.overlapsWindow(start, windowTicks) {
				continue
			}
			result = append(result, e)
			if len(result) >= maxEventListSize {
				return result
			}
		}
	}
	return result
}

// EventsInWindow enumerates all events overlapping [start, start+windowTicks)
// (spec.md §4.6's events_in_window), cached keyed by window_id.
func (d *Domain) EventsInWindow(start, windowTicks int64) []Event {
	key := worldfield.WindowKey{Domain: d.ID, Window: windowID(start, windowTicks), AuthoringVersion: d.Version}
	if cached, ok := d.windowCache.Get(key); ok {
		return cached
	}
	result := d.computeEventsInWindow(start, windowTicks)
	d.windowCache.Put(key, result)
	return result
}

// CollapseWindow summarizes [start, start+windowTicks)'s events into a
// capsule: cumulative precipitation and |temperature deviation| as i64
// accumulators, per-type counts, per-type intensity histograms, and a
// per-type RNG cursor (the highest event index consumed) — spec.md §4.6.
func (d *Domain) CollapseWindow(start, windowTicks int64) (worldfield.CapsuleID, error) {
	id := windowID(start, windowTicks)
	d.windowCache.InvalidateWindow(d.ID, id)

	events := d.computeEventsInWindow(start, windowTicks)
	d.windowCache.Put(worldfield.WindowKey{Domain: d.ID, Window: id, AuthoringVersion: d.Version}, events)

	capsule := worldfield.NewCapsule(worldfield.CapsuleID(id), d.Desc.Bounds)
	capsule.HasWindow = true
	capsule.WindowStart = start
	capsule.WindowTicks = windowTicks

	var precipAccum, tempDeviationAccum int64
	for _, e := range events {
		profile := d.Desc.Profiles[e.Type]
		name := e.Type.String()
		capsule.PopulationCounts[name]++

		hist, ok := capsule.Histograms[name]
		if !ok {
			hist = worldfield.Histogram{Min: 0, Max: fixedpoint.One}
		}
		hist.Add(e.Intensity)
		capsule.Histograms[name] = hist

		if uint64(e.Index) > capsule.RNGCursors[name] {
			capsule.RNGCursors[name] = uint64(e.Index)
		}

		precipAccum += int64(e.Intensity.Mul(profile.PrecipScale))
		tempDeviationAccum += int64(e.Intensity.Mul(profile.TempScale).Abs())
	}
	capsule.AccumI64["precipitation"] = precipAccum
	capsule.AccumI64["temperature_deviation"] = tempDeviationAccum

	if err := d.Capsules.Append(capsule); err != nil {
		return 0, err
	}
	return worldfield.CapsuleID(id), nil
}
