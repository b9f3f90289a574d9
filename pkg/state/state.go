// Package state holds the explorer's mutable session state as an immutable
// value. Every command returns a new State; sets and slices are copied on
// write so derived views holding an older State never observe a change.
package state

import (
	"strings"

	"github.com/vanderheijden86/orbview/pkg/explorer"
	"github.com/vanderheijden86/orbview/pkg/model"
)

// Limits bounds the run history lists.
type Limits struct {
	MaxAnalysisRuns int
	MaxPlanningRuns int
}

// DefaultLimits keeps the last 20 analysis and 50 planning runs.
func DefaultLimits() Limits {
	return Limits{
		MaxAnalysisRuns: explorer.MaxAnalysisRuns,
		MaxPlanningRuns: explorer.MaxPlanningRuns,
	}
}

// State is one immutable snapshot of the explorer session.
type State struct {
	Expanded       explorer.IDSet
	SearchQuery    string
	Focus          string
	Selection      explorer.Selection
	Filters        explorer.ContextFilters
	FilterByTarget string
	ActivePlanID   string
	ActiveOrderID  string
	AnalysisRuns   []model.RunSummary
	PlanningRuns   []model.RunSummary
	Limits         Limits
}

// Default returns the first-run state: only the workspace root expanded and
// nothing selected.
func Default() State {
	return State{
		Expanded:  explorer.NewIDSet(explorer.IDWorkspace),
		Selection: explorer.NoSelection,
		Limits:    DefaultLimits(),
	}
}

// WithDefaultExpanded returns a state whose expansion set is replaced by ids.
func (s State) WithDefaultExpanded(ids []string) State {
	if len(ids) == 0 {
		return s
	}
	s.Expanded = explorer.NewIDSet(ids...)
	return s
}

// WithLimits returns a state using l, trimming history that exceeds it.
// Non-positive limits fall back to the defaults.
func (s State) WithLimits(l Limits) State {
	def := DefaultLimits()
	if l.MaxAnalysisRuns <= 0 {
		l.MaxAnalysisRuns = def.MaxAnalysisRuns
	}
	if l.MaxPlanningRuns <= 0 {
		l.MaxPlanningRuns = def.MaxPlanningRuns
	}
	s.Limits = l
	s.AnalysisRuns = capRuns(s.AnalysisRuns, l.MaxAnalysisRuns)
	s.PlanningRuns = capRuns(s.PlanningRuns, l.MaxPlanningRuns)
	return s
}

// ── Expansion ──

// IsExpanded reports whether id is expanded.
func (s State) IsExpanded(id string) bool {
	return s.Expanded.Has(id)
}

// Toggle flips the expansion of id.
func (s State) Toggle(id string) State {
	if s.Expanded.Has(id) {
		return s.Collapse(id)
	}
	return s.Expand(id)
}

// Expand adds ids to the expansion set.
func (s State) Expand(ids ...string) State {
	s.Expanded = s.Expanded.With(ids...)
	return s
}

// Collapse removes ids from the expansion set.
func (s State) Collapse(ids ...string) State {
	s.Expanded = s.Expanded.Without(ids...)
	return s
}

// ExpandAll expands every node of root that has children.
func (s State) ExpandAll(root *explorer.Node) State {
	var ids []string
	root.Walk(func(n *explorer.Node, _ int) bool {
		if n.HasChildren() {
			ids = append(ids, n.ID)
		}
		return true
	})
	return s.Expand(ids...)
}

// CollapseAll collapses everything except the root.
func (s State) CollapseAll() State {
	s.Expanded = explorer.NewIDSet(explorer.IDWorkspace)
	return s
}

// ExpandPath expands every ancestor of id so the node becomes visible.
// Unknown ids leave the state unchanged.
func (s State) ExpandPath(root *explorer.Node, id string) State {
	path := explorer.FindPath(root, id)
	if len(path) < 2 {
		return s
	}
	ids := make([]string, 0, len(path)-1)
	for _, n := range path[:len(path)-1] {
		ids = append(ids, n.ID)
	}
	return s.Expand(ids...)
}

// PruneExpanded drops expanded ids that no longer exist in root. The root
// itself is always kept.
func (s State) PruneExpanded(root *explorer.Node) State {
	live := explorer.IDSet{}
	root.Walk(func(n *explorer.Node, _ int) bool {
		if s.Expanded.Has(n.ID) {
			live[n.ID] = struct{}{}
		}
		return true
	})
	if s.Expanded.Has(explorer.IDWorkspace) {
		live[explorer.IDWorkspace] = struct{}{}
	}
	s.Expanded = live
	return s
}

// ── Search ──

// SetSearch stores the query and expands the ancestors of every match so
// hits are visible without further clicks. A blank query clears the search.
func (s State) SetSearch(root *explorer.Node, query string) State {
	if strings.TrimSpace(query) == "" {
		return s.ClearSearch()
	}
	s.SearchQuery = query
	for _, id := range explorer.Matches(root, query) {
		s = s.ExpandPath(root, id)
	}
	return s
}

// ClearSearch drops the query. Expansion done by the search is kept.
func (s State) ClearSearch() State {
	s.SearchQuery = ""
	return s
}

// Match returns the visible-id set for the current query over root, or nil
// when no search is active.
func (s State) Match(root *explorer.Node) explorer.IDSet {
	return explorer.Search(root, s.SearchQuery)
}

// ── Focus and navigation ──

// SetFocus moves the keyboard focus to id.
func (s State) SetFocus(id string) State {
	s.Focus = id
	return s
}

// ApplyStep applies the outcome of a navigation key. Activation requests
// are not state; the caller dispatches them.
func (s State) ApplyStep(step explorer.Step) State {
	if step.Focus != "" {
		s.Focus = step.Focus
	}
	if step.Expand != "" {
		s = s.Expand(step.Expand)
	}
	if step.Collapse != "" {
		s = s.Collapse(step.Collapse)
	}
	return s
}

// ── Selection ──

// SelectFromTree replaces the selection with tree node id.
func (s State) SelectFromTree(id string, t explorer.NodeType) State {
	s.Selection = explorer.SelectFromTree(id, t)
	return s
}

// SelectFromMap replaces the selection with a globe pick.
func (s State) SelectFromMap(kind explorer.SelectionKind, id string) State {
	s.Selection = explorer.SelectFromMap(kind, id)
	return s
}

// SelectFromTable replaces the selection with a results table pick.
func (s State) SelectFromTable(kind explorer.SelectionKind, id string) State {
	s.Selection = explorer.SelectFromTable(kind, id)
	return s
}

// SelectFromRepair replaces the selection with a repair view pick.
func (s State) SelectFromRepair(kind explorer.SelectionKind, id string) State {
	s.Selection = explorer.SelectFromRepair(kind, id)
	return s
}

// ClearSelection empties the selection.
func (s State) ClearSelection() State {
	s.Selection = explorer.ClearSelection()
	return s
}

// ── Filters ──

// SetFilters replaces the context filters.
func (s State) SetFilters(f explorer.ContextFilters) State {
	s.Filters = f
	return s
}

// SetFilterByTarget restricts the opportunities subtree to one target. An
// empty name removes the restriction.
func (s State) SetFilterByTarget(target string) State {
	s.FilterByTarget = strings.TrimSpace(target)
	return s
}

// SetActivePlan marks the plan the other panels display.
func (s State) SetActivePlan(id string) State {
	s.ActivePlanID = id
	return s
}

// SetActiveOrder marks the order the other panels display.
func (s State) SetActiveOrder(id string) State {
	s.ActiveOrderID = id
	return s
}

// ── Snapshot threading ──

// Snapshot returns base with the state's run history and target filter
// applied, ready for explorer.Build. base is not modified.
func (s State) Snapshot(base model.WorkspaceSnapshot) model.WorkspaceSnapshot {
	base.AnalysisRuns = mergeRuns(base.AnalysisRuns, s.AnalysisRuns)
	base.PlanningRuns = mergeRuns(base.PlanningRuns, s.PlanningRuns)
	base.FilterByTarget = s.FilterByTarget
	return base
}

// mergeRuns returns the runs of a followed by the runs of b whose id is not
// already in a, in a fresh slice.
func mergeRuns(a, b []model.RunSummary) []model.RunSummary {
	out := make([]model.RunSummary, 0, len(a)+len(b))
	seen := make(map[string]bool, len(a))
	for _, r := range a {
		if r.ID != "" {
			seen[r.ID] = true
		}
		out = append(out, r)
	}
	for _, r := range b {
		if r.ID != "" && seen[r.ID] {
			continue
		}
		out = append(out, r)
	}
	return out
}
