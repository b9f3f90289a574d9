package main

import (
	"io"
	"time"

	json "github.com/goccy/go-json"

	"github.com/vanderheijden86/orbview/pkg/explorer"
	"github.com/vanderheijden86/orbview/pkg/metrics"
	"github.com/vanderheijden86/orbview/pkg/model"
	"github.com/vanderheijden86/orbview/pkg/state"
)

type robotTreeOutput struct {
	GeneratedAt  string         `json:"generated_at"`
	WorkspaceDir string         `json:"workspace_dir"`
	NodeCount    int            `json:"node_count"`
	Tree         *explorer.Node `json:"tree"`
}

type robotRow struct {
	ID    string            `json:"id"`
	Type  explorer.NodeType `json:"type"`
	Name  string            `json:"name"`
	Depth int               `json:"depth"`
	Badge *explorer.Badge   `json:"badge,omitempty"`
	// Expanded is only meaningful for nodes with children.
	Expanded bool `json:"expanded,omitempty"`
}

type robotVisibleOutput struct {
	GeneratedAt    string                   `json:"generated_at"`
	WorkspaceDir   string                   `json:"workspace_dir"`
	Query          string                   `json:"query,omitempty"`
	FilterByTarget string                   `json:"filter_by_target,omitempty"`
	Filters        *explorer.ContextFilters `json:"filters,omitempty"`
	// FilteredPasses are indices into the unfiltered pass list that satisfy
	// Filters.
	FilteredPasses []int      `json:"filtered_passes,omitempty"`
	Matches        []string   `json:"matches,omitempty"`
	Rows           []robotRow `json:"rows"`
}

type robotMetricsOutput struct {
	GeneratedAt  string                `json:"generated_at"`
	WorkspaceDir string                `json:"workspace_dir"`
	Enabled      bool                  `json:"enabled"`
	Timings      []metrics.TimingStats `json:"timings"`
}

func newRobotMetrics(dir string, now time.Time) robotMetricsOutput {
	return robotMetricsOutput{
		GeneratedAt:  now.UTC().Format(time.RFC3339),
		WorkspaceDir: dir,
		Enabled:      metrics.Enabled(),
		Timings:      metrics.AllTimingStats(),
	}
}

func newRobotTree(dir string, root *explorer.Node, now time.Time) robotTreeOutput {
	return robotTreeOutput{
		GeneratedAt:  now.UTC().Format(time.RFC3339),
		WorkspaceDir: dir,
		NodeCount:    root.Count(),
		Tree:         root,
	}
}

func newRobotVisible(dir string, root *explorer.Node, st state.State, snap model.WorkspaceSnapshot, now time.Time) robotVisibleOutput {
	out := robotVisibleOutput{
		GeneratedAt:    now.UTC().Format(time.RFC3339),
		WorkspaceDir:   dir,
		Query:          st.SearchQuery,
		FilterByTarget: st.FilterByTarget,
		Rows:           []robotRow{},
	}
	if !st.Filters.IsZero() {
		f := st.Filters
		out.Filters = &f
		out.FilteredPasses = f.Apply(snap.Passes())
	}
	if st.SearchQuery != "" {
		out.Matches = explorer.Matches(root, st.SearchQuery)
	}
	for _, r := range explorer.Flatten(root, st.Expanded, st.Match(root)) {
		out.Rows = append(out.Rows, robotRow{
			ID:       r.Node.ID,
			Type:     r.Node.Type,
			Name:     r.Node.Name,
			Depth:    r.Depth,
			Badge:    r.Node.Badge,
			Expanded: r.Node.HasChildren() && st.IsExpanded(r.Node.ID),
		})
	}
	return out
}

func writeRobotJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
