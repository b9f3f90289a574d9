package ui

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/vanderheijden86/orbview/pkg/explorer"
)

// Tree-drawing characters.
const (
	treeIndent   = "│   "
	treeBlank    = "    "
	treeBranch   = "├── "
	treeLastItem = "└── "

	indicatorOpen   = "▾"
	indicatorClosed = "▸"
	indicatorLeaf   = "•"
)

// treePrefixes returns the branch prefix of every row. A row's prefix
// depends on whether each ancestor is the last visible child of its parent,
// which is only known once the whole visible list is flattened.
func treePrefixes(rows []explorer.Row) []string {
	prefixes := make([]string, len(rows))
	// isLast[i] reports whether rows[i] is the last visible sibling.
	isLast := make([]bool, len(rows))
	for i, r := range rows {
		isLast[i] = true
		for j := i + 1; j < len(rows); j++ {
			if rows[j].Depth < r.Depth {
				break
			}
			if rows[j].Depth == r.Depth {
				isLast[i] = false
				break
			}
		}
	}

	var stack []bool // stack[d] = ancestor at depth d+1 was a last child
	for i, r := range rows {
		if r.Depth == 0 {
			stack = stack[:0]
			continue
		}
		if len(stack) > r.Depth-1 {
			stack = stack[:r.Depth-1]
		}
		var sb strings.Builder
		for _, last := range stack {
			if last {
				sb.WriteString(treeBlank)
			} else {
				sb.WriteString(treeIndent)
			}
		}
		if isLast[i] {
			sb.WriteString(treeLastItem)
		} else {
			sb.WriteString(treeBranch)
		}
		prefixes[i] = sb.String()
		stack = append(stack, isLast[i])
	}
	return prefixes
}

// indicatorFor returns the expand glyph of n.
func indicatorFor(n *explorer.Node, expanded explorer.IDSet) string {
	if !n.HasChildren() && !n.Expandable {
		return indicatorLeaf
	}
	if expanded.Has(n.ID) {
		return indicatorOpen
	}
	return indicatorClosed
}

// badgeText renders a badge count, or "" for no badge.
func badgeText(b *explorer.Badge) string {
	if b == nil || b.Count <= 0 {
		return ""
	}
	return "(" + strconv.Itoa(b.Count) + ")"
}

// treeView draws the visible rows of the tree.
type treeView struct {
	theme    Theme
	rows     []explorer.Row
	expanded explorer.IDSet
	matched  map[string]bool
	focus    string
	selected string
	offset   int
	width    int
	height   int
}

// render draws rows[offset:offset+height] padded to width.
func (v treeView) render() string {
	if len(v.rows) == 0 {
		return v.theme.MutedText.Render("  No matching objects")
	}
	prefixes := treePrefixes(v.rows)
	end := v.offset + v.height
	if end > len(v.rows) {
		end = len(v.rows)
	}

	var sb strings.Builder
	for i := v.offset; i < end; i++ {
		if i > v.offset {
			sb.WriteByte('\n')
		}
		sb.WriteString(v.renderRow(v.rows[i], prefixes[i]))
	}
	return sb.String()
}

func (v treeView) renderRow(r explorer.Row, prefix string) string {
	n := r.Node
	icon, iconColor := v.theme.TypeIcon(n.Type)
	ind := indicatorFor(n, v.expanded)
	badge := badgeText(n.Badge)

	fixed := lipgloss.Width(prefix) + lipgloss.Width(ind) + 1 + lipgloss.Width(icon) + 1
	if badge != "" {
		fixed += 1 + lipgloss.Width(badge)
	}
	name := truncateRunesHelper(n.Name, v.width-fixed, "…")

	if n.ID == v.focus {
		line := prefix + ind + " " + icon + " " + name
		if badge != "" {
			line += " " + badge
		}
		return v.theme.Selected.Render(padRight(line, v.width))
	}

	var sb strings.Builder
	sb.WriteString(v.theme.Branch.Render(prefix))
	sb.WriteString(v.theme.Indicator.Render(ind))
	sb.WriteByte(' ')
	sb.WriteString(v.theme.Renderer.NewStyle().Foreground(iconColor).Render(icon))
	sb.WriteByte(' ')
	switch {
	case v.matched[n.ID]:
		sb.WriteString(v.theme.Match.Render(name))
	case n.ID == v.selected:
		sb.WriteString(v.theme.Base.Underline(true).Render(name))
	default:
		sb.WriteString(v.theme.Base.Render(name))
	}
	if badge != "" {
		sb.WriteByte(' ')
		sb.WriteString(v.theme.BadgeStyle(n.Badge.Severity).Render(badge))
	}
	return sb.String()
}

// positionIndicator returns " Page X/Y (a-b of n)" for the visible window.
func positionIndicator(offset, height, total int) string {
	if total == 0 || height <= 0 {
		return ""
	}
	pages := (total + height - 1) / height
	page := offset/height + 1
	if offset+height >= total {
		page = pages
	}
	last := offset + height
	if last > total {
		last = total
	}
	return fmt.Sprintf(" Page %d/%d (%d-%d of %d)", page, pages, offset+1, last, total)
}

// scrollOffset returns the window start that keeps cursor visible, moving
// the current offset as little as possible.
func scrollOffset(offset, cursor, height, total int) int {
	if height <= 0 || total <= height {
		return 0
	}
	if cursor < offset {
		offset = cursor
	}
	if cursor >= offset+height {
		offset = cursor - height + 1
	}
	return clamp(offset, 0, total-height)
}
