package weather

import (
	"testing"

	"github.com/spatialmodel/worldfield/climate"
	"github.com/spatialmodel/worldfield/worldfield"
)

func newTestDomain(t *testing.T) *Domain {
	t.Helper()
	climDesc := climate.NewEnvelopeDesc()
	clim := climate.NewDomain(climDesc, 8)
	clim.SetState(worldfield.Declared, worldfield.ArchivalLive)

	desc := NewScheduleDesc()
	d := NewDomain(desc, clim, 8)
	d.SetState(worldfield.Declared, worldfield.ArchivalLive)
	return d
}

func TestEventGenerationIsDeterministic(t *testing.T) {
	desc := NewScheduleDesc()
	a := desc.eventAt(Rain, 3)
	b := desc.eventAt(Rain, 3)
	if a != b {
		t.Fatalf("eventAt is not a pure function of (type, index): %+v != %+v", a, b)
	}
}

func TestEventStartWithinJitterBounds(t *testing.T) {
	desc := NewScheduleDesc()
	profile := desc.Profiles[Rain]
	for k := int64(0); k < 20; k++ {
		e := desc.eventAt(Rain, k)
		lo := k * profile.PeriodTicks
		hi := lo + (profile.PeriodTicks - profile.DurationTicks)
		if e.Start < lo || e.Start > hi {
			t.Fatalf("event %d start=%d out of jitter bounds [%d,%d]", k, e.Start, lo, hi)
		}
	}
}

func TestIsActiveAtRespectsIntervalAndRadius(t *testing.T) {
	e := Event{
		Start: 100, Duration: 50,
		Center: worldfield.Point{}, Radius: 10,
	}
	inside := worldfield.Point{}
	if e.IsActiveAt(99, inside) {
		t.Error("active before start")
	}
	if !e.IsActiveAt(100, inside) {
		t.Error("should be active at start")
	}
	if e.IsActiveAt(150, inside) {
		t.Error("active interval is half-open; should not include end")
	}
	outside := worldfield.Point{X: 100}
	if e.IsActiveAt(120, outside) {
		t.Error("active outside radius")
	}
}

func TestIntensityAtRampsAndHolds(t *testing.T) {
	e := Event{Start: 0, Duration: 100, Intensity: 100}
	if v := e.IntensityAt(0); v != 0 {
		t.Errorf("intensity at start = %v, want 0", v)
	}
	if v := e.IntensityAt(50); v != 100 {
		t.Errorf("intensity mid-event = %v, want full 100", v)
	}
	if v := e.IntensityAt(99); v <= 0 || v >= 100 {
		t.Errorf("intensity near end = %v, want partial ramp-down", v)
	}
	if v := e.IntensityAt(100); v != 0 {
		t.Errorf("intensity past end = %v, want 0", v)
	}
}

func TestEventsInWindowCachesByWindowID(t *testing.T) {
	d := newTestDomain(t)
	first := d.EventsInWindow(0, 1000)
	second := d.EventsInWindow(0, 1000)
	if len(first) != len(second) {
		t.Fatalf("cached window result changed between calls: %d vs %d", len(first), len(second))
	}
	for i := range first {
		if first[i] != second[i] {
			t.Fatalf("event %d differs between cached calls", i)
		}
	}
}

func TestCollapseWindowThenExpandIsReversible(t *testing.T) {
	d := newTestDomain(t)
	before := d.CapsuleCount()

	id, err := d.CollapseWindow(0, 1000)
	if err != nil {
		t.Fatalf("CollapseWindow failed: %v", err)
	}
	if d.CapsuleCount() != before+1 {
		t.Fatalf("capsule count = %d, want %d", d.CapsuleCount(), before+1)
	}

	if err := d.ExpandWindow(worldfield.WindowID(id)); err != nil {
		t.Fatalf("ExpandWindow failed: %v", err)
	}
	if d.CapsuleCount() != before {
		t.Fatalf("capsule count after expand = %d, want %d", d.CapsuleCount(), before)
	}
}

func TestSampleQueryInsideCollapsedWindowIsCollapsed(t *testing.T) {
	d := newTestDomain(t)
	if _, err := d.CollapseWindow(0, 1000); err != nil {
		t.Fatalf("CollapseWindow failed: %v", err)
	}

	s := d.SampleQuery(worldfield.Point{}, 500, worldfield.NewBudget(1000))
	if s.Meta.RefusalReason != worldfield.ReasonCollapsed {
		t.Fatalf("refusal reason = %v, want COLLAPSED", s.Meta.RefusalReason)
	}
	if s.Meta.Flags&worldfield.FlagCollapsed == 0 {
		t.Error("FlagCollapsed not set")
	}
}

func TestZeroBudgetRefuses(t *testing.T) {
	d := newTestDomain(t)
	s := d.SampleQuery(worldfield.Point{}, 0, worldfield.NewBudget(0))
	if s.Meta.Status != worldfield.StatusRefused {
		t.Fatalf("status = %v, want REFUSED", s.Meta.Status)
	}
	if !s.TemperatureMean.IsUnknown() {
		t.Error("refused sample should have unknown temperature")
	}
}

func TestSampleQueryCombinesClimateAndActiveEvents(t *testing.T) {
	d := newTestDomain(t)
	s := d.SampleQuery(worldfield.Point{}, 0, worldfield.NewBudget(1000))
	if s.Meta.Status != worldfield.OK {
		t.Fatalf("status = %v, want OK", s.Meta.Status)
	}
	if s.TemperatureMean.IsUnknown() {
		t.Error("temperature should be known with a live climate domain")
	}
}
