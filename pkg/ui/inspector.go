package ui

import (
	"fmt"
	"sort"
	"strings"

	"github.com/charmbracelet/glamour"

	"github.com/vanderheijden86/orbview/pkg/explorer"
	"github.com/vanderheijden86/orbview/pkg/model"
)

// inspectorEmpty is shown when the selection resolves to nothing.
const inspectorEmpty = "_Nothing selected._"

// newMarkdownRenderer returns a glamour renderer wrapped at width, or nil
// when glamour cannot build one. Callers fall back to the raw markdown.
func newMarkdownRenderer(width int) *glamour.TermRenderer {
	if width < 20 {
		width = 20
	}
	r, err := glamour.NewTermRenderer(
		glamour.WithAutoStyle(),
		glamour.WithWordWrap(width),
	)
	if err != nil {
		return nil
	}
	return r
}

// renderMarkdown renders md with r, returning md unchanged on failure.
func renderMarkdown(r *glamour.TermRenderer, md string) string {
	if r == nil {
		return md
	}
	out, err := r.Render(md)
	if err != nil {
		return md
	}
	return strings.TrimRight(out, "\n")
}

// inspectorMarkdown describes node and its metadata as markdown. A nil
// metadata (no selection, stale selection) yields the empty placeholder.
func inspectorMarkdown(node *explorer.Node, meta explorer.Metadata) string {
	if meta == nil {
		return inspectorEmpty
	}
	var sb strings.Builder
	title := meta.Kind()
	if node != nil {
		title = node.Name
	}
	fmt.Fprintf(&sb, "## %s\n\n", title)
	if node != nil {
		fmt.Fprintf(&sb, "`%s` · %s\n\n", node.ID, node.Type)
	}

	switch m := meta.(type) {
	case explorer.WorkspaceMeta:
		field(&sb, "Workspace ID", m.WorkspaceID)
	case explorer.ScenarioMeta:
		field(&sb, "Scenario", m.Name)
		field(&sb, "Start", m.Start)
		field(&sb, "End", m.End)
	case explorer.GroupMeta:
		field(&sb, "Section", m.Section)
		field(&sb, "Items", fmt.Sprint(m.Items))
	case explorer.SatelliteMeta:
		field(&sb, "ID", m.SourceID)
		field(&sb, "Color", m.Color)
		field(&sb, "Source", m.Source)
		if m.TLE1 != "" || m.TLE2 != "" {
			fmt.Fprintf(&sb, "\n```\n%s\n%s\n```\n", m.TLE1, m.TLE2)
		}
	case explorer.GroundStationMeta:
		field(&sb, "ID", m.SourceID)
		field(&sb, "Position", formatPosition(m.Position))
		field(&sb, "Source", m.Source)
	case explorer.TargetMeta:
		field(&sb, "ID", m.SourceID)
		field(&sb, "Position", formatPosition(m.Position))
		field(&sb, "Priority", fmt.Sprint(m.Priority))
		field(&sb, "Passes", fmt.Sprint(m.PassCount))
		field(&sb, "Best off-nadir", formatAngle(m.BestOffNadir))
		field(&sb, "Mean off-nadir", formatAngle(m.MeanOffNadir))
		field(&sb, "Source", m.Source)
	case explorer.ConstraintMeta:
		field(&sb, "Section", m.Section)
		keys := make([]string, 0, len(m.Values)+len(m.Labels))
		for k := range m.Values {
			keys = append(keys, k)
		}
		for k := range m.Labels {
			if _, dup := m.Values[k]; !dup {
				keys = append(keys, k)
			}
		}
		sort.Strings(keys)
		for _, k := range keys {
			if v, ok := m.Values[k]; ok {
				field(&sb, k, fmt.Sprintf("%g", v))
			} else {
				field(&sb, k, m.Labels[k])
			}
		}
		if m.Coverage != nil {
			field(&sb, "Coverage", fmt.Sprintf("%.1f%%", *m.Coverage))
		} else if m.CoverageNote != "" {
			fmt.Fprintf(&sb, "\n_%s_\n", m.CoverageNote)
		}
	case explorer.RunMeta:
		field(&sb, "Run", m.Run.ID)
		field(&sb, "Kind", string(m.Run.Kind))
		field(&sb, "Timestamp", m.Run.Timestamp)
		field(&sb, "Results", fmt.Sprint(m.Run.ResultCount))
		field(&sb, "Algorithm", m.Run.Algorithm)
		if !m.TimeParsed {
			sb.WriteString("\n_Timestamp could not be parsed._\n")
		}
	case explorer.OpportunityMeta:
		o := m.Opportunity
		field(&sb, "Pass index", fmt.Sprint(m.Index))
		field(&sb, "Satellite", o.Satellite)
		field(&sb, "Target", o.Target)
		field(&sb, "Start", o.StartTime)
		field(&sb, "End", o.EndTime)
		field(&sb, "Duration", m.Duration)
		field(&sb, "Max elevation", fmt.Sprintf("%.1f°", o.MaxElevation))
		if o.SAR != nil {
			field(&sb, "Look side", string(o.SAR.LookSide))
			field(&sb, "Pass direction", string(o.SAR.PassDirection))
			field(&sb, "Imaging mode", o.SAR.ImagingMode)
		}
	case explorer.PlanMeta:
		field(&sb, "Algorithm", explorer.AlgorithmName(m.Algorithm))
		field(&sb, "Items", fmt.Sprint(m.Items))
		writeMetrics(&sb, &m.Metrics)
	case explorer.PlanItemMeta:
		writeScheduleItem(&sb, m.Item)
		field(&sb, "Algorithm", explorer.AlgorithmName(m.Algorithm))
	case explorer.OrderMeta:
		field(&sb, "Order", m.Order.OrderID)
		field(&sb, "Algorithm", explorer.AlgorithmName(m.Order.Algorithm))
		field(&sb, "Created", m.Order.CreatedAt)
		field(&sb, "Acquisitions", fmt.Sprint(len(m.Order.Schedule)))
		writeMetrics(&sb, m.Order.Metrics)
	case explorer.ImportMeta:
		field(&sb, "Import", m.Record.ID)
		field(&sb, "Kind", m.Record.Kind)
		field(&sb, "Imported", m.Record.ImportedAt)
		field(&sb, "Items", fmt.Sprint(m.Record.ItemCount))
	}
	return strings.TrimRight(sb.String(), "\n")
}

// field writes a bullet unless value is empty.
func field(sb *strings.Builder, label, value string) {
	if value == "" {
		return
	}
	fmt.Fprintf(sb, "- **%s:** %s\n", label, value)
}

func writeScheduleItem(sb *strings.Builder, it model.ScheduleItem) {
	field(sb, "Satellite", it.Satellite)
	field(sb, "Target", it.Target)
	field(sb, "Start", it.StartTime)
	field(sb, "End", it.EndTime)
	if it.Roll != 0 || it.Pitch != 0 {
		field(sb, "Roll / pitch", fmt.Sprintf("%.1f° / %.1f°", it.Roll, it.Pitch))
	}
	if it.Value != 0 {
		field(sb, "Value", fmt.Sprintf("%g", it.Value))
	}
}

func writeMetrics(sb *strings.Builder, pm *model.PlanMetrics) {
	if pm == nil {
		return
	}
	field(sb, "Accepted", fmt.Sprint(pm.Accepted))
	if pm.Rejected > 0 {
		field(sb, "Rejected", fmt.Sprint(pm.Rejected))
	}
	if pm.TotalValue != 0 {
		field(sb, "Total value", fmt.Sprintf("%g", pm.TotalValue))
	}
	if pm.RuntimeMS > 0 {
		field(sb, "Runtime", fmt.Sprintf("%.0f ms", pm.RuntimeMS))
	}
}

func formatPosition(p model.Position) string {
	s := fmt.Sprintf("%.4f, %.4f", p.Lat, p.Lon)
	if p.Alt != 0 {
		s += fmt.Sprintf(" (%.2f km)", p.Alt)
	}
	return s
}

func formatAngle(v *float64) string {
	if v == nil {
		return ""
	}
	return fmt.Sprintf("%.1f°", *v)
}
