package explorer_test

import (
	"fmt"
	"strings"
	"testing"

	json "github.com/goccy/go-json"
	"github.com/google/go-cmp/cmp"
	"pgregory.net/rapid"

	"github.com/vanderheijden86/orbview/pkg/explorer"
	"github.com/vanderheijden86/orbview/pkg/model"
	"github.com/vanderheijden86/orbview/pkg/testutil"
)

func mustFind(t *testing.T, root *explorer.Node, id string) *explorer.Node {
	t.Helper()
	n, ok := explorer.Lookup(root, id)
	if !ok {
		t.Fatalf("node %q not found", id)
	}
	return n
}

func childIDs(n *explorer.Node) []string {
	ids := make([]string, 0, len(n.Children))
	for _, c := range n.Children {
		ids = append(ids, c.ID)
	}
	return ids
}

func allIDs(root *explorer.Node) []string {
	var ids []string
	root.Walk(func(n *explorer.Node, _ int) bool {
		ids = append(ids, n.ID)
		return true
	})
	return ids
}

func badgeCount(n *explorer.Node) int {
	if n.Badge == nil {
		return 0
	}
	return n.Badge.Count
}

func TestBuild_SampleStructure(t *testing.T) {
	root := explorer.Build(testutil.Sample())

	if root.ID != explorer.IDWorkspace || root.Name != "Demo Workspace" {
		t.Fatalf("root = %s %q", root.ID, root.Name)
	}
	want := []string{
		explorer.IDScenario, explorer.IDAssets, explorer.IDTargets,
		explorer.IDConstraints, explorer.IDRuns, explorer.IDResults, explorer.IDImports,
	}
	if diff := cmp.Diff(want, childIDs(root)); diff != "" {
		t.Errorf("root children (-want +got):\n%s", diff)
	}
	testutil.AssertUniqueIDs(t, allIDs(root))

	tests := []struct {
		id    string
		badge int
		sev   explorer.Severity
		kids  []string
	}{
		{explorer.IDSatellites, 2, explorer.SeverityBlue, []string{"satellite_SAT-A", "satellite_SAT-B"}},
		{explorer.IDGroundStations, 1, explorer.SeverityNeutral, []string{"ground_station_Svalbard"}},
		{explorer.IDTargets, 3, explorer.SeverityInfo, []string{"target_Athens", "target_Berlin", "target_Cairo"}},
		{explorer.IDPlans, 3, explorer.SeveritySuccess, []string{"plan_first_fit", "plan_roll_pitch_best_fit"}},
		{explorer.IDOrders, 1, explorer.SeverityInfo, []string{"order_ord-1"}},
		{explorer.IDImports, 1, explorer.SeverityNeutral, []string{"import_imp-1"}},
		{explorer.IDAnalysisRuns, 2, explorer.SeverityNeutral, []string{"analysis_run_a2", "analysis_run_a1"}},
	}
	for _, tt := range tests {
		t.Run(tt.id, func(t *testing.T) {
			n := mustFind(t, root, tt.id)
			if got := badgeCount(n); got != tt.badge {
				t.Errorf("badge = %d, want %d", got, tt.badge)
			}
			if n.Badge != nil && n.Badge.Severity != tt.sev {
				t.Errorf("severity = %s, want %s", n.Badge.Severity, tt.sev)
			}
			if diff := cmp.Diff(tt.kids, childIDs(n)); diff != "" {
				t.Errorf("children (-want +got):\n%s", diff)
			}
		})
	}
}

func TestBuild_BadgesArePositive(t *testing.T) {
	for _, snap := range []model.WorkspaceSnapshot{testutil.Sample(), testutil.Empty(), testutil.NewDefault().Snapshot()} {
		explorer.Build(snap).Walk(func(n *explorer.Node, _ int) bool {
			if n.Badge != nil && n.Badge.Count <= 0 {
				t.Errorf("node %s has badge count %d", n.ID, n.Badge.Count)
			}
			return true
		})
	}
}

func TestBuild_EmptySnapshot(t *testing.T) {
	root := explorer.Build(testutil.Empty())
	if len(root.Children) != 7 {
		t.Fatalf("expected fixed sections, got %v", childIDs(root))
	}
	for _, id := range []string{explorer.IDSatellites, explorer.IDTargets, explorer.IDOpportunities, explorer.IDPlans, explorer.IDOrders} {
		n := mustFind(t, root, id)
		if n.Badge != nil {
			t.Errorf("%s should have no badge", id)
		}
		if n.HasChildren() {
			t.Errorf("%s should be empty", id)
		}
		if !n.Expandable {
			t.Errorf("%s should stay expandable", id)
		}
	}

	planning := mustFind(t, root, explorer.IDPlanningConstraint).Meta.(explorer.ConstraintMeta)
	if planning.Coverage != nil || planning.CoverageNote != explorer.NoCoverageNote {
		t.Errorf("expected coverage note without results, got %+v", planning)
	}
}

func TestBuild_BlankWorkspaceName(t *testing.T) {
	snap := testutil.Empty()
	snap.Workspace.Name = "   "
	if got := explorer.Build(snap).Name; got != "Workspace" {
		t.Errorf("name = %q, want placeholder", got)
	}
}

func TestBuild_SceneObjectWins(t *testing.T) {
	root := explorer.Build(testutil.Sample())

	sat := mustFind(t, root, "satellite_SAT-A").Meta.(explorer.SatelliteMeta)
	if sat.SourceID != "scene-sat-a" || sat.Color != "#ff0000" || sat.Source != "scene+mission" {
		t.Errorf("SAT-A meta = %+v", sat)
	}
	satB := mustFind(t, root, "satellite_SAT-B").Meta.(explorer.SatelliteMeta)
	if satB.Source != "mission" || satB.SourceID != "sat-b" {
		t.Errorf("SAT-B meta = %+v", satB)
	}

	athens := mustFind(t, root, "target_Athens").Meta.(explorer.TargetMeta)
	if athens.Priority != 5 || athens.Position.Lat != 37.98 {
		t.Errorf("Athens should take scene values, got %+v", athens)
	}
}

func TestBuild_TargetPassStatistics(t *testing.T) {
	root := explorer.Build(testutil.Sample())

	athens := mustFind(t, root, "target_Athens").Meta.(explorer.TargetMeta)
	if athens.PassCount != 2 {
		t.Fatalf("pass count = %d, want 2", athens.PassCount)
	}
	if *athens.BestOffNadir != 10 || *athens.MeanOffNadir != 15 {
		t.Errorf("off-nadir best=%v mean=%v, want 10 and 15", *athens.BestOffNadir, *athens.MeanOffNadir)
	}

	snap := testutil.Sample()
	snap.Mission.Passes = nil
	berlin := mustFind(t, explorer.Build(snap), "target_Berlin").Meta.(explorer.TargetMeta)
	if berlin.PassCount != 0 || berlin.BestOffNadir != nil || berlin.MeanOffNadir != nil {
		t.Errorf("expected no statistics without passes, got %+v", berlin)
	}

	snap = testutil.Sample()
	snap.Mission.Passes[3] = model.Opportunity{Target: "Athens", Partial: true}
	root = explorer.Build(snap)
	athens = mustFind(t, root, "target_Athens").Meta.(explorer.TargetMeta)
	if athens.PassCount != 1 || *athens.BestOffNadir != 10 || *athens.MeanOffNadir != 10 {
		t.Errorf("partial pass should not count toward statistics, got %+v", athens)
	}
	mustFind(t, root, "opportunity_3_Athens")
}

func TestBuild_Coverage(t *testing.T) {
	root := explorer.Build(testutil.Sample())
	planning := mustFind(t, root, explorer.IDPlanningConstraint).Meta.(explorer.ConstraintMeta)
	if planning.Coverage == nil || *planning.Coverage != 100 {
		t.Errorf("coverage = %v, want 100", planning.Coverage)
	}
	if planning.Labels["quality_model"] != "band" {
		t.Errorf("labels = %v", planning.Labels)
	}

	snap := testutil.Sample()
	delete(snap.Results, "roll_pitch_best_fit")
	planning = mustFind(t, explorer.Build(snap), explorer.IDPlanningConstraint).Meta.(explorer.ConstraintMeta)
	want := 100 * 2.0 / 3.0
	if planning.Coverage == nil || *planning.Coverage != want {
		t.Errorf("coverage = %v, want %v", planning.Coverage, want)
	}
}

func TestBuild_OpportunitiesFlatWithoutSAR(t *testing.T) {
	root := explorer.Build(testutil.Sample())
	opps := mustFind(t, root, explorer.IDOpportunities)

	want := []string{"opportunity_0_Athens", "opportunity_1_Berlin", "opportunity_2_Cairo", "opportunity_3_Athens"}
	if diff := cmp.Diff(want, childIDs(opps)); diff != "" {
		t.Errorf("opportunities (-want +got):\n%s", diff)
	}
	if got := opps.Children[0].Name; got != "Athens · SAT-A · 09:00:00 (5m 30s)" {
		t.Errorf("label = %q", got)
	}
}

func TestBuild_SARPartition(t *testing.T) {
	root := explorer.Build(testutil.SARSample())
	opps := mustFind(t, root, explorer.IDOpportunities)

	if badgeCount(opps) != 4 {
		t.Errorf("group badge = %d, want 4", badgeCount(opps))
	}
	want := []string{explorer.IDLeftLooking, explorer.IDRightLooking, explorer.IDOtherLooking}
	if diff := cmp.Diff(want, childIDs(opps)); diff != "" {
		t.Fatalf("partitions (-want +got):\n%s", diff)
	}

	parts := map[string][]string{
		explorer.IDLeftLooking:  {"opportunity_0_Athens"},
		explorer.IDRightLooking: {"opportunity_1_Berlin"},
		explorer.IDOtherLooking: {"opportunity_2_Cairo", "opportunity_3_Athens"},
	}
	total := 0
	for id, kids := range parts {
		n := mustFind(t, root, id)
		if diff := cmp.Diff(kids, childIDs(n)); diff != "" {
			t.Errorf("%s (-want +got):\n%s", id, diff)
		}
		if badgeCount(n) != len(kids) {
			t.Errorf("%s badge = %d", id, badgeCount(n))
		}
		total += len(n.Children)
	}
	if total != 4 {
		t.Errorf("partitions hold %d passes, want 4", total)
	}
}

func TestBuild_SARPartitionOmitsEmptyGroups(t *testing.T) {
	snap := testutil.SARSample()
	snap.Mission.Passes = snap.Mission.Passes[:1]
	opps := mustFind(t, explorer.Build(snap), explorer.IDOpportunities)
	if diff := cmp.Diff([]string{explorer.IDLeftLooking}, childIDs(opps)); diff != "" {
		t.Errorf("partitions (-want +got):\n%s", diff)
	}
}

func TestBuild_FilterByTargetKeepsOriginalIndex(t *testing.T) {
	snap := testutil.Sample()
	snap.FilterByTarget = "Athens"
	opps := mustFind(t, explorer.Build(snap), explorer.IDOpportunities)

	if diff := cmp.Diff([]string{"opportunity_0_Athens", "opportunity_3_Athens"}, childIDs(opps)); diff != "" {
		t.Fatalf("filtered (-want +got):\n%s", diff)
	}
	meta := opps.Children[1].Meta.(explorer.OpportunityMeta)
	if meta.Index != 3 {
		t.Errorf("index = %d, want 3", meta.Index)
	}
	if badgeCount(opps) != 2 {
		t.Errorf("badge = %d, want 2", badgeCount(opps))
	}
}

func TestBuild_FilterAppliesBeforeSARCheck(t *testing.T) {
	snap := testutil.SARSample()
	snap.FilterByTarget = "Athens"
	opps := mustFind(t, explorer.Build(snap), explorer.IDOpportunities)
	// p0 is SAR left-looking and survives the filter, so partitions apply.
	if diff := cmp.Diff([]string{explorer.IDLeftLooking, explorer.IDOtherLooking}, childIDs(opps)); diff != "" {
		t.Errorf("partitions (-want +got):\n%s", diff)
	}

	snap.FilterByTarget = "Cairo"
	snap.Mission.Passes[2].SAR = nil
	opps = mustFind(t, explorer.Build(snap), explorer.IDOpportunities)
	if diff := cmp.Diff([]string{"opportunity_2_Cairo"}, childIDs(opps)); diff != "" {
		t.Errorf("optical-only filter should stay flat (-want +got):\n%s", diff)
	}
}

func TestBuild_UnknownDuration(t *testing.T) {
	snap := testutil.Sample()
	snap.Mission.Passes[1].EndTime = "not a time"
	n := mustFind(t, explorer.Build(snap), "opportunity_1_Berlin")
	if meta := n.Meta.(explorer.OpportunityMeta); meta.Duration != explorer.UnknownDuration {
		t.Errorf("duration = %q", meta.Duration)
	}
	if !strings.HasSuffix(n.Name, "(Unknown)") {
		t.Errorf("label = %q", n.Name)
	}
}

func TestBuild_MalformedResultSkipped(t *testing.T) {
	root := explorer.Build(testutil.Sample())
	if _, ok := explorer.Lookup(root, "plan_broken"); ok {
		t.Error("malformed result should not produce a plan node")
	}

	plan := mustFind(t, root, "plan_first_fit")
	if plan.Name != "First Fit" {
		t.Errorf("plan name = %q", plan.Name)
	}
	if diff := cmp.Diff([]string{"plan_item_first_fit_0", "plan_item_first_fit_1"}, childIDs(plan)); diff != "" {
		t.Errorf("plan items (-want +got):\n%s", diff)
	}
}

func TestBuild_OnlyMatchingOrders(t *testing.T) {
	snap := testutil.Sample()
	root := explorer.Build(snap)
	if _, ok := explorer.Lookup(root, "order_ord-stale"); ok {
		t.Error("stale order should be hidden")
	}

	snap.Results["first_fit"].Schedule[1].StartTime = "2025-03-01T10:02:00Z"
	orders := mustFind(t, explorer.Build(snap), explorer.IDOrders)
	if orders.HasChildren() || orders.Badge != nil {
		t.Errorf("order should stop matching once the plan changes, got %v", childIDs(orders))
	}
}

func TestBuild_OrderHiddenWithoutResult(t *testing.T) {
	snap := testutil.MergedSourcesSample()
	orders := mustFind(t, explorer.Build(snap), explorer.IDOrders)
	if diff := cmp.Diff([]string{"order_ord-rp"}, childIDs(orders)); diff != "" {
		t.Fatalf("orders with result (-want +got):\n%s", diff)
	}

	delete(snap.Results, "roll_pitch_best_fit")
	root := explorer.Build(snap)
	if _, ok := explorer.Lookup(root, "order_ord-rp"); ok {
		t.Error("order must disappear once its algorithm has no result")
	}
	if orders := mustFind(t, root, explorer.IDOrders); orders.HasChildren() || orders.Badge != nil {
		t.Errorf("orders group = %v badge %v", childIDs(orders), orders.Badge)
	}
}

func TestBuild_MergedSourcesScenario(t *testing.T) {
	root := explorer.Build(testutil.MergedSourcesSample())

	tests := []struct {
		id    string
		badge int
	}{
		{explorer.IDSatellites, 2},
		{explorer.IDTargets, 3},
		{explorer.IDPlans, 2},
		{explorer.IDOrders, 1},
	}
	for _, tt := range tests {
		if got := badgeCount(mustFind(t, root, tt.id)); got != tt.badge {
			t.Errorf("%s badge = %d, want %d", tt.id, got, tt.badge)
		}
	}

	sats := mustFind(t, root, explorer.IDSatellites)
	if diff := cmp.Diff([]string{"satellite_SAT-SCENE", "satellite_SAT-MISSION"}, childIDs(sats)); diff != "" {
		t.Errorf("satellites (-want +got):\n%s", diff)
	}
	athens := mustFind(t, root, "target_Athens").Meta.(explorer.TargetMeta)
	if athens.Source != "scene+mission" || athens.SourceID != "scene-athens" {
		t.Errorf("Athens should merge both sources with the scene object winning, got %+v", athens)
	}
}

func TestMatchesPlan(t *testing.T) {
	item := func(target, start string) model.ScheduleItem {
		return model.ScheduleItem{Target: target, StartTime: start}
	}
	plan := []model.ScheduleItem{item("A", "1"), item("B", "2"), item("C", "3")}

	tests := []struct {
		name  string
		order []model.ScheduleItem
		want  bool
	}{
		{"identical", plan, true},
		{"middle differs", []model.ScheduleItem{item("A", "1"), item("X", "9"), item("C", "3")}, true},
		{"first differs", []model.ScheduleItem{item("Z", "1"), item("B", "2"), item("C", "3")}, false},
		{"last time differs", []model.ScheduleItem{item("A", "1"), item("B", "2"), item("C", "4")}, false},
		{"length differs", plan[:2], false},
		{"empty", nil, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := explorer.MatchesPlan(tt.order, plan); got != tt.want {
				t.Errorf("MatchesPlan = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestBuild_RunOrdering(t *testing.T) {
	snap := testutil.Empty()
	snap.AnalysisRuns = []model.RunSummary{
		{ID: "x", Timestamp: "garbage"},
		{ID: "y", Timestamp: "2025-01-01T00:00:00Z"},
		{ID: "z", Timestamp: "2025-02-01T00:00:00Z"},
	}
	runs := mustFind(t, explorer.Build(snap), explorer.IDAnalysisRuns)

	want := []string{"analysis_run_z", "analysis_run_y", "analysis_run_x"}
	if diff := cmp.Diff(want, childIDs(runs)); diff != "" {
		t.Errorf("runs (-want +got):\n%s", diff)
	}
	if !strings.Contains(runs.Children[2].Name, "unknown time") {
		t.Errorf("label = %q", runs.Children[2].Name)
	}
	if meta := runs.Children[2].Meta.(explorer.RunMeta); meta.TimeParsed {
		t.Error("garbage timestamp should not parse")
	}
}

func TestBuild_RunCaps(t *testing.T) {
	snap := testutil.Empty()
	for i := 0; i < explorer.MaxPlanningRuns+5; i++ {
		snap.PlanningRuns = append(snap.PlanningRuns, model.RunSummary{
			ID:        fmt.Sprintf("r%03d", i),
			Timestamp: fmt.Sprintf("2025-01-01T00:%02d:%02dZ", i/60, i%60),
		})
	}
	runs := mustFind(t, explorer.Build(snap), explorer.IDPlanningRuns)
	if len(runs.Children) != explorer.MaxPlanningRuns {
		t.Fatalf("runs = %d, want %d", len(runs.Children), explorer.MaxPlanningRuns)
	}
	if runs.Children[0].ID != fmt.Sprintf("planning_run_r%03d", explorer.MaxPlanningRuns+4) {
		t.Errorf("newest first, got %s", runs.Children[0].ID)
	}
	if _, ok := explorer.Lookup(runs, "planning_run_r000"); ok {
		t.Error("oldest run should be evicted")
	}
}

func TestBuild_Deterministic(t *testing.T) {
	snap := testutil.SARSample()
	if !explorer.Equal(explorer.Build(snap), explorer.Build(snap)) {
		t.Error("same snapshot produced different trees")
	}
}

func TestBuild_DeterministicProperty(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		cfg := testutil.DefaultConfig()
		cfg.Seed = rapid.Int64Range(1, 1<<40).Draw(t, "seed")
		cfg.Satellites = rapid.IntRange(0, 4).Draw(t, "satellites")
		cfg.Targets = rapid.IntRange(0, 6).Draw(t, "targets")
		cfg.PassesPerTarget = rapid.IntRange(0, 3).Draw(t, "passes")
		cfg.SARFraction = rapid.Float64Range(0, 1).Draw(t, "sar")

		snap := testutil.New(cfg).Snapshot()
		a, b := explorer.Build(snap), explorer.Build(snap)
		if !explorer.Equal(a, b) {
			t.Fatal("trees differ")
		}

		seen := make(map[string]bool)
		a.Walk(func(n *explorer.Node, _ int) bool {
			if seen[n.ID] {
				t.Fatalf("duplicate id %s", n.ID)
			}
			seen[n.ID] = true
			return true
		})

		opps, _ := explorer.Lookup(a, explorer.IDOpportunities)
		leaves := 0
		opps.Walk(func(n *explorer.Node, _ int) bool {
			if n.Type == explorer.TypeOpportunity {
				leaves++
			}
			return true
		})
		if leaves != len(snap.Passes()) {
			t.Fatalf("opportunity leaves = %d, passes = %d", leaves, len(snap.Passes()))
		}
	})
}

func TestNode_MarshalJSON(t *testing.T) {
	root := explorer.Build(testutil.Sample())
	n := mustFind(t, root, "target_Berlin")
	data, err := n.MarshalJSON()
	if err != nil {
		t.Fatal(err)
	}
	for _, want := range []string{`"id":"target_Berlin"`, `"type":"target"`, `"meta_kind":"target"`} {
		if !strings.Contains(string(data), want) {
			t.Errorf("missing %s in %s", want, data)
		}
	}
}

type decodedNode struct {
	ID       string          `json:"id"`
	MetaKind string          `json:"meta_kind"`
	Meta     json.RawMessage `json:"meta"`
	Children []decodedNode   `json:"children"`
}

func (d decodedNode) count() int {
	n := 1
	for _, c := range d.Children {
		n += c.count()
	}
	return n
}

func (d decodedNode) find(id string) *decodedNode {
	if d.ID == id {
		return &d
	}
	for _, c := range d.Children {
		if found := c.find(id); found != nil {
			return found
		}
	}
	return nil
}

func TestNode_MarshalJSONWholeTree(t *testing.T) {
	fixtures := map[string]model.WorkspaceSnapshot{
		"sample":    testutil.Sample(),
		"sar":       testutil.SARSample(),
		"generated": testutil.NewDefault().Snapshot(),
		"empty":     testutil.Empty(),
	}
	for name, snap := range fixtures {
		t.Run(name, func(t *testing.T) {
			root := explorer.Build(snap)
			data, err := json.MarshalIndent(root, "", "  ")
			if err != nil {
				t.Fatalf("MarshalIndent: %v", err)
			}
			var decoded decodedNode
			if err := json.Unmarshal(data, &decoded); err != nil {
				t.Fatalf("invalid JSON: %v", err)
			}
			if got, want := decoded.count(), root.Count(); got != want {
				t.Errorf("decoded %d nodes, want %d", got, want)
			}
		})
	}
}

func TestNode_MarshalJSONOpportunityMeta(t *testing.T) {
	root := explorer.Build(testutil.Sample())
	data, err := json.Marshal(root)
	if err != nil {
		t.Fatal(err)
	}
	var decoded decodedNode
	if err := json.Unmarshal(data, &decoded); err != nil {
		t.Fatal(err)
	}
	opp := decoded.find("opportunity_1_Berlin")
	if opp == nil {
		t.Fatal("opportunity_1_Berlin missing from JSON")
	}
	if opp.MetaKind != "opportunity" {
		t.Errorf("meta_kind = %q", opp.MetaKind)
	}
	var meta struct {
		Index int `json:"index"`
	}
	if err := json.Unmarshal(opp.Meta, &meta); err != nil {
		t.Fatal(err)
	}
	if meta.Index != 1 {
		t.Errorf("meta index = %d, want 1", meta.Index)
	}
}

func TestAlgorithmName(t *testing.T) {
	if got := explorer.AlgorithmName("roll_pitch_best_fit"); got != "Roll Pitch Best Fit" {
		t.Errorf("AlgorithmName = %q", got)
	}
}
