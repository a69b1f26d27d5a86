package weather

import (
	"github.com/spatialmodel/worldfield/climate"
	"github.com/spatialmodel/worldfield/fixedpoint"
	"github.com/spatialmodel/worldfield/worldfield"
	"github.com/spatialmodel/worldfield/worldrng"
)

// Event is one lazily-generated instance of a profile, at a fixed event
// index (spec.md §4.6: "event start = k*period + jitter; event id =
// hash(domain, type, start)"). WindDir is only meaningful for WindShift
// events.
type Event struct {
	Type     EventType
	Index    int64
	ID       int64
	Start    int64
	Duration int64
	Intensity fixedpoint.Q16
	Center   worldfield.Point
	Radius   fixedpoint.Q16
	WindDir  climate.CompassDirection
}

// eventAt lazily generates event index k of type t, seeding a dedicated
// stream from (world_seed, domain_id, event type, index).
func (desc ScheduleDesc) eventAt(t EventType, k int64) Event {
	profile := desc.Profiles[t]
	key := worldrng.StreamKey{
		WorldSeed: desc.WorldSeed,
		DomainID:  uint64(desc.DomainID),
		ProcessID: uint64(t),
		Tick:      k,
		Name:      "weather.event",
	}
	s := worldrng.New(key, worldrng.AllMixFlags)

	maxJitter := profile.PeriodTicks - profile.DurationTicks
	jitter := int64(0)
	if maxJitter > 0 {
		jitter = s.IntN(maxJitter + 1)
	}
	start := k*profile.PeriodTicks + jitter

	intensity := s.Range(profile.IntensityMin, profile.IntensityMax)

	lo := [3]fixedpoint.Q16{desc.Bounds.Min.X, desc.Bounds.Min.Y, desc.Bounds.Min.Z}
	hi := [3]fixedpoint.Q16{desc.Bounds.Max.X, desc.Bounds.Max.Y, desc.Bounds.Max.Z}
	c := s.Point3(lo, hi)
	center := worldfield.Point{X: c[0], Y: c[1], Z: c[2]}

	radiusRatio := s.Range(profile.RadiusRatioMin, profile.RadiusRatioMax)
	radius := radiusRatio.Mul(desc.ShapeScale)

	windDir := climate.WindUnknown
	if t == WindShift {
		windDir = climate.CompassDirection(s.IntN(8))
	}

	id := int64(worldrng.HashIDs(int64(desc.DomainID), int64(t), start))

	return Event{
		Type: t, Index: k, ID: id, Start: start, Duration: profile.DurationTicks,
		Intensity: intensity, Center: center, Radius: radius, WindDir: windDir,
	}
}

// activeIndex returns the event index active at tick T for a profile with
// the given period (spec.md §4.6: "the active index is T/period").
func activeIndex(tick, period int64) int64 {
	if period <= 0 {
		return 0
	}
	q := tick / period
	if tick < 0 && tick%period != 0 {
		q--
	}
	return q
}

// IsActiveAt reports whether e is active at tick and p lies within radius
// of center.
func (e Event) IsActiveAt(tick int64, p worldfield.Point) bool {
	if tick < e.Start || tick >= e.Start+e.Duration {
		return false
	}
	dx := p.X.Sub(e.Center.X)
	dy := p.Y.Sub(e.Center.Y)
	dz := p.Z.Sub(e.Center.Z)
	distSq := dx.MulWide(dx).Add(dy.MulWide(dy)).Add(dz.MulWide(dz))
	dist := distSq.Sqrt().Q16()
	return dist <= e.Radius
}

// overlapsWindow reports whether e's active interval [start, start+duration)
// overlaps [windowStart, windowStart+windowTicks).
func (e Event) overlapsWindow(windowStart, windowTicks int64) bool {
	windowEnd := windowStart + windowTicks
	eventEnd := e.Start + e.Duration
	return e.Start < windowEnd && eventEnd > windowStart
}

// IntensityAt ramps e's intensity linearly over the first and last 10% of
// its duration, holding full Intensity in between — the attack/release
// easing supplemented feature of spec.md §6 (see DESIGN.md). Returns 0
// outside the active interval.
func (e Event) IntensityAt(tick int64) fixedpoint.Q16 {
	if tick < e.Start || tick >= e.Start+e.Duration || e.Duration <= 0 {
		return 0
	}
	elapsed := tick - e.Start
	rampTicks := e.Duration / 10
	if rampTicks < 1 {
		rampTicks = 1
	}
	if 2*rampTicks > e.Duration {
		rampTicks = e.Duration / 2
	}
	if rampTicks < 1 {
		return e.Intensity
	}

	remaining := e.Duration - elapsed
	switch {
	case elapsed < rampTicks:
		frac := fixedpoint.FromInt(int32(elapsed)).Div(fixedpoint.FromInt(int32(rampTicks)))
		return e.Intensity.Mul(frac.Clamp(0, fixedpoint.One))
	case remaining < rampTicks:
		frac := fixedpoint.FromInt(int32(remaining)).Div(fixedpoint.FromInt(int32(rampTicks)))
		return e.Intensity.Mul(frac.Clamp(0, fixedpoint.One))
	default:
		return e.Intensity
	}
}
