package main

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	json "github.com/goccy/go-json"

	"github.com/vanderheijden86/orbview/internal/datasource"
	"github.com/vanderheijden86/orbview/pkg/config"
	"github.com/vanderheijden86/orbview/pkg/explorer"
	"github.com/vanderheijden86/orbview/pkg/metrics"
	"github.com/vanderheijden86/orbview/pkg/model"
	"github.com/vanderheijden86/orbview/pkg/recipe"
	"github.com/vanderheijden86/orbview/pkg/state"
	"github.com/vanderheijden86/orbview/pkg/testutil"
)

var fixedNow = time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)

func TestInitialState_UsesConfig(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.UI.DefaultExpanded = []string{explorer.IDWorkspace, explorer.IDTargets}
	cfg.History.MaxPlanningRuns = 5

	st := initialState(cfg)
	if !st.IsExpanded(explorer.IDTargets) {
		t.Error("expected configured default expansion")
	}
	if st.Limits.MaxPlanningRuns != 5 {
		t.Errorf("MaxPlanningRuns = %d, want 5", st.Limits.MaxPlanningRuns)
	}
	if st.Limits.MaxAnalysisRuns != explorer.MaxAnalysisRuns {
		t.Errorf("MaxAnalysisRuns = %d, want default", st.Limits.MaxAnalysisRuns)
	}
}

func TestApplyFlags_TargetAndSearch(t *testing.T) {
	store := state.NewStore("", state.Default())
	root := applyFlags(store, testutil.Sample(), nil, "Athens", "sat-b")

	st := store.Get()
	if st.FilterByTarget != "Athens" {
		t.Errorf("FilterByTarget = %q", st.FilterByTarget)
	}
	if st.SearchQuery != "sat-b" {
		t.Errorf("SearchQuery = %q", st.SearchQuery)
	}
	opps, ok := explorer.Lookup(root, explorer.IDOpportunities)
	if !ok {
		t.Fatal("opportunities group missing")
	}
	opps.Walk(func(n *explorer.Node, _ int) bool {
		if meta, ok := n.Meta.(explorer.OpportunityMeta); ok && meta.Opportunity.Target != "Athens" {
			t.Errorf("opportunity %s for %s survived the target filter", n.ID, meta.Opportunity.Target)
		}
		return true
	})
}

func TestApplyFlags_EmptyFlagsKeepState(t *testing.T) {
	initial := state.Default().SetFilterByTarget("Cairo")
	store := state.NewStore("", initial)
	applyFlags(store, testutil.Sample(), nil, "", "")
	if got := store.Get().FilterByTarget; got != "Cairo" {
		t.Errorf("FilterByTarget = %q, want persisted Cairo", got)
	}
	if store.Get().SearchQuery != "" {
		t.Error("no search expected")
	}
}

func TestRobotVisible_DefaultState(t *testing.T) {
	store := state.NewStore("", state.Default())
	root := applyFlags(store, testutil.Sample(), nil, "", "")

	out := newRobotVisible("/ws", root, store.Get(), testutil.Sample(), fixedNow)
	if out.GeneratedAt != "2025-03-01T12:00:00Z" {
		t.Errorf("GeneratedAt = %q", out.GeneratedAt)
	}
	if len(out.Rows) != 8 {
		t.Fatalf("rows = %d, want root plus 7 sections", len(out.Rows))
	}
	if out.Rows[0].ID != explorer.IDWorkspace || !out.Rows[0].Expanded || out.Rows[0].Depth != 0 {
		t.Errorf("first row = %+v", out.Rows[0])
	}
	for _, r := range out.Rows[1:] {
		if r.Depth != 1 || r.Expanded {
			t.Errorf("section row %s: depth=%d expanded=%v", r.ID, r.Depth, r.Expanded)
		}
	}
}

func TestRobotVisible_SearchRows(t *testing.T) {
	store := state.NewStore("", state.Default())
	root := applyFlags(store, testutil.Sample(), nil, "", "berlin")

	out := newRobotVisible("/ws", root, store.Get(), testutil.Sample(), fixedNow)
	if len(out.Matches) == 0 {
		t.Fatal("expected direct matches for berlin")
	}
	match := explorer.Search(root, "berlin")
	for _, r := range out.Rows {
		if !match.Has(r.ID) {
			t.Errorf("row %s is outside the match set", r.ID)
		}
	}
	// Every direct match is visible because its ancestors were expanded.
	visible := map[string]bool{}
	for _, r := range out.Rows {
		visible[r.ID] = true
	}
	for _, id := range out.Matches {
		if !visible[id] {
			t.Errorf("match %s not visible", id)
		}
	}
}

func TestRobotVisible_NoMatchHasEmptyRows(t *testing.T) {
	store := state.NewStore("", state.Default())
	root := applyFlags(store, testutil.Sample(), nil, "", "no-such-object")

	var buf bytes.Buffer
	if err := writeRobotJSON(&buf, newRobotVisible("/ws", root, store.Get(), testutil.Sample(), fixedNow)); err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(buf.String(), `"rows": []`) {
		t.Errorf("expected an empty rows array:\n%s", buf.String())
	}
}

func TestRobotTree_JSON(t *testing.T) {
	root := explorer.Build(testutil.Sample())

	var buf bytes.Buffer
	if err := writeRobotJSON(&buf, newRobotTree("/ws", root, fixedNow)); err != nil {
		t.Fatal(err)
	}
	var decoded struct {
		NodeCount int `json:"node_count"`
		Tree      struct {
			ID       string            `json:"id"`
			Children []json.RawMessage `json:"children"`
		} `json:"tree"`
	}
	if err := json.Unmarshal(buf.Bytes(), &decoded); err != nil {
		t.Fatalf("invalid JSON: %v\n%s", err, buf.String())
	}
	if decoded.NodeCount != root.Count() {
		t.Errorf("node_count = %d, want %d", decoded.NodeCount, root.Count())
	}
	if decoded.Tree.ID != explorer.IDWorkspace || len(decoded.Tree.Children) != 7 {
		t.Errorf("tree root = %s with %d children", decoded.Tree.ID, len(decoded.Tree.Children))
	}
}

func TestRobotTree_JSONWithSARPasses(t *testing.T) {
	root := explorer.Build(testutil.SARSample())

	var buf bytes.Buffer
	if err := writeRobotJSON(&buf, newRobotTree("/ws", root, fixedNow)); err != nil {
		t.Fatal(err)
	}
	out := buf.String()
	for _, want := range []string{`"opportunities_left"`, `"opportunity_0_Athens"`, `"LEFT"`} {
		if !strings.Contains(out, want) {
			t.Errorf("missing %s in robot tree output", want)
		}
	}
}

func TestRobotMetrics(t *testing.T) {
	prev := metrics.Enabled()
	metrics.SetEnabled(true)
	metrics.ResetAll()
	t.Cleanup(func() {
		metrics.ResetAll()
		metrics.SetEnabled(prev)
	})

	store := state.NewStore(t.TempDir(), state.Default())
	root := applyFlags(store, testutil.Sample(), nil, "", "athens")
	newRobotVisible("/ws", root, store.Get(), testutil.Sample(), fixedNow)

	var buf bytes.Buffer
	if err := writeRobotJSON(&buf, newRobotMetrics("/ws", fixedNow)); err != nil {
		t.Fatal(err)
	}
	var decoded struct {
		Enabled bool `json:"enabled"`
		Timings []struct {
			Name  string `json:"name"`
			Count int64  `json:"count"`
		} `json:"timings"`
	}
	if err := json.Unmarshal(buf.Bytes(), &decoded); err != nil {
		t.Fatalf("invalid JSON: %v", err)
	}
	if !decoded.Enabled {
		t.Error("expected metrics enabled")
	}
	seen := map[string]int64{}
	for _, tm := range decoded.Timings {
		seen[tm.Name] = tm.Count
	}
	for _, name := range []string{"tree_build", "search_filter", "flatten"} {
		if seen[name] == 0 {
			t.Errorf("no %s samples in %v", name, seen)
		}
	}
}

func TestStartCPUProfile(t *testing.T) {
	stop, err := startCPUProfile("")
	if err != nil {
		t.Fatal(err)
	}
	stop()

	path := filepath.Join(t.TempDir(), "cpu.prof")
	stop, err = startCPUProfile(path)
	if err != nil {
		t.Fatal(err)
	}
	stop()
	stop()
	info, err := os.Stat(path)
	if err != nil {
		t.Fatal(err)
	}
	if info.Size() == 0 {
		t.Error("profile was not flushed")
	}

	if _, err := startCPUProfile(filepath.Join(t.TempDir(), "missing", "cpu.prof")); err == nil {
		t.Error("expected an error for an uncreatable path")
	}
}

func writeOrdersDB(t *testing.T, dir string, orders []model.Order) {
	t.Helper()
	store, err := datasource.OpenSQLiteStore(filepath.Join(dir, datasource.DatabaseFile), false)
	if err != nil {
		t.Fatalf("OpenSQLiteStore: %v", err)
	}
	defer store.Close()
	if err := store.SaveOrders(context.Background(), orders); err != nil {
		t.Fatalf("SaveOrders: %v", err)
	}
}

func TestRunCheckSources(t *testing.T) {
	snap := testutil.Sample()

	t.Run("single source", func(t *testing.T) {
		dir := testutil.TempWorkspace(t, snap)
		var out bytes.Buffer
		code, err := runCheckSources(context.Background(), &out, dir)
		if err != nil || code != 0 {
			t.Fatalf("code=%d err=%v", code, err)
		}
		if !strings.Contains(out.String(), "nothing to compare") {
			t.Errorf("output = %q", out.String())
		}
	})

	t.Run("matching sources", func(t *testing.T) {
		dir := testutil.TempWorkspace(t, snap)
		writeOrdersDB(t, dir, snap.Orders)
		var out bytes.Buffer
		code, err := runCheckSources(context.Background(), &out, dir)
		if err != nil || code != 0 {
			t.Fatalf("code=%d err=%v\n%s", code, err, out.String())
		}
		if !strings.Contains(out.String(), "Sources match") {
			t.Errorf("output = %q", out.String())
		}
	})

	t.Run("diverging sources", func(t *testing.T) {
		dir := testutil.TempWorkspace(t, snap)
		writeOrdersDB(t, dir, snap.Orders[:1])
		var out bytes.Buffer
		code, err := runCheckSources(context.Background(), &out, dir)
		if err != nil {
			t.Fatal(err)
		}
		if code != 1 {
			t.Errorf("code = %d, want 1\n%s", code, out.String())
		}
	})
}

func TestApplyFlags_RecipeAndOverride(t *testing.T) {
	snap := testutil.SARSample()
	rec := &recipe.Recipe{
		Filters: recipe.Filters{LookSide: "RIGHT"},
		Target:  "Athens",
		Search:  "sat-a",
		Expand:  []string{explorer.IDResults, explorer.IDOpportunities},
	}

	store := state.NewStore("", state.Default())
	root := applyFlags(store, snap, rec, "", "")
	st := store.Get()
	if st.FilterByTarget != "Athens" || st.SearchQuery != "sat-a" {
		t.Errorf("recipe not applied: target=%q search=%q", st.FilterByTarget, st.SearchQuery)
	}
	if !st.IsExpanded(explorer.IDOpportunities) {
		t.Error("recipe expansion missing")
	}

	out := newRobotVisible("/ws", root, st, snap, fixedNow)
	if out.Filters == nil || out.Filters.LookSide != model.LookRight {
		t.Fatalf("filters = %+v", out.Filters)
	}
	if len(out.FilteredPasses) != 1 || out.FilteredPasses[0] != 1 {
		t.Errorf("filtered passes = %v, want [1]", out.FilteredPasses)
	}

	// Explicit flags beat the recipe.
	store = state.NewStore("", state.Default())
	applyFlags(store, snap, rec, "Berlin", "cairo")
	if st := store.Get(); st.FilterByTarget != "Berlin" || st.SearchQuery != "cairo" {
		t.Errorf("flags did not override recipe: target=%q search=%q", st.FilterByTarget, st.SearchQuery)
	}
}
