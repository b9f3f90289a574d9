package testutil

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestSnapshot_Deterministic(t *testing.T) {
	a := New(DefaultConfig()).Snapshot()
	b := New(DefaultConfig()).Snapshot()
	if diff := cmp.Diff(a, b); diff != "" {
		t.Errorf("same seed produced different snapshots (-a +b):\n%s", diff)
	}
}

func TestSnapshot_Counts(t *testing.T) {
	cfg := DefaultConfig()
	snap := New(cfg).Snapshot()

	if got := len(snap.Mission.Satellites); got != cfg.Satellites {
		t.Errorf("satellites = %d, want %d", got, cfg.Satellites)
	}
	if got := len(snap.Mission.Targets); got != cfg.Targets {
		t.Errorf("targets = %d, want %d", got, cfg.Targets)
	}
	if got := len(snap.Passes()); got != cfg.Targets*cfg.PassesPerTarget {
		t.Errorf("passes = %d, want %d", got, cfg.Targets*cfg.PassesPerTarget)
	}
	if got := len(snap.Results); got != len(cfg.Algorithms) {
		t.Errorf("results = %d, want %d", got, len(cfg.Algorithms))
	}
	for alg, res := range snap.Results {
		if !res.Valid() {
			t.Errorf("result %s should be valid", alg)
		}
		if res.Metrics.Accepted != len(res.Schedule) {
			t.Errorf("result %s accepted = %d, schedule = %d", alg, res.Metrics.Accepted, len(res.Schedule))
		}
	}
	if len(snap.Orders) != cfg.Orders {
		t.Errorf("orders = %d, want %d", len(snap.Orders), cfg.Orders)
	}
}

func TestSnapshot_NoSAR(t *testing.T) {
	cfg := DefaultConfig()
	cfg.SARFraction = 0
	for _, p := range New(cfg).Snapshot().Passes() {
		if p.IsSAR() {
			t.Fatalf("pass %s should be optical", p.ID)
		}
	}
}

func TestSample_Shape(t *testing.T) {
	snap := Sample()
	if len(snap.Results) != 3 {
		t.Errorf("expected 3 results including the malformed one, got %d", len(snap.Results))
	}
	if snap.Results["broken"].Valid() {
		t.Error("broken result should be invalid")
	}
	if got := PassIndex(snap, "p2"); got != 2 {
		t.Errorf("PassIndex(p2) = %d, want 2", got)
	}
	if got := PassIndex(snap, "missing"); got != -1 {
		t.Errorf("PassIndex(missing) = %d, want -1", got)
	}
}

func TestSARSample_DoesNotAliasSample(t *testing.T) {
	sar := SARSample()
	if !sar.Passes()[0].IsSAR() {
		t.Fatal("expected SAR on first pass")
	}
	if Sample().Passes()[0].IsSAR() {
		t.Error("Sample should stay optical")
	}
}

func TestWriteWorkspace_Files(t *testing.T) {
	dir := TempWorkspace(t, Sample())
	for _, name := range []string{"workspace.json", "scene_objects.json", "results.json", "imports.json", "orders.jsonl"} {
		if _, err := os.Stat(filepath.Join(dir, name)); err != nil {
			t.Errorf("expected %s: %v", name, err)
		}
	}

	dir = TempWorkspace(t, Empty())
	if _, err := os.Stat(filepath.Join(dir, "orders.jsonl")); !os.IsNotExist(err) {
		t.Errorf("empty snapshot should not write orders.jsonl, got %v", err)
	}
}

func TestToJSONL(t *testing.T) {
	out := ToJSONL(Sample().Orders)
	lines := 0
	for _, c := range out {
		if c == '\n' {
			lines++
		}
	}
	if lines != 2 {
		t.Errorf("expected 2 lines, got %d", lines)
	}
}

func TestGoldenFile_Update(t *testing.T) {
	t.Setenv("GENERATE_GOLDEN", "1")
	dir := t.TempDir()
	g := NewGoldenFile(t, dir, "out.golden")
	g.Assert("hello\n")

	data, err := os.ReadFile(g.Path())
	if err != nil {
		t.Fatal(err)
	}
	if string(data) != "hello\n" {
		t.Errorf("golden content = %q", data)
	}

	t.Setenv("GENERATE_GOLDEN", "")
	NewGoldenFile(t, dir, "out.golden").Assert("hello\n")
}
