package metrics

import (
	"testing"
	"time"
)

func withMetrics(t *testing.T) {
	t.Helper()
	prev := Enabled()
	SetEnabled(true)
	ResetAll()
	t.Cleanup(func() {
		ResetAll()
		SetEnabled(prev)
	})
}

func TestTimingMetric_Record(t *testing.T) {
	withMetrics(t)

	TreeBuild.Record(2 * time.Millisecond)
	TreeBuild.Record(4 * time.Millisecond)

	st := TreeBuild.Stats()
	if st.Count != 2 {
		t.Fatalf("count = %d, want 2", st.Count)
	}
	if st.TotalMs != 6 || st.AvgMs != 3 || st.MaxMs != 4 || st.MinMs != 2 {
		t.Errorf("stats = %+v", st)
	}
}

func TestTimer(t *testing.T) {
	withMetrics(t)

	stop := Timer(SearchFilter)
	stop()
	if SearchFilter.Count() != 1 {
		t.Errorf("count = %d, want 1", SearchFilter.Count())
	}
	Timer(nil)()
}

func TestAllTimingStats_OnlyRecorded(t *testing.T) {
	withMetrics(t)

	if stats := AllTimingStats(); len(stats) != 0 {
		t.Fatalf("expected no stats after reset, got %+v", stats)
	}
	Flatten.Record(time.Millisecond)
	stats := AllTimingStats()
	if len(stats) != 1 || stats[0].Name != "flatten" {
		t.Errorf("stats = %+v", stats)
	}
}

func TestDisabled(t *testing.T) {
	withMetrics(t)
	SetEnabled(false)

	Timer(StateSave)()
	StateSave.Record(time.Millisecond)
	if StateSave.Count() != 0 {
		t.Errorf("disabled metrics recorded %d samples", StateSave.Count())
	}
}
