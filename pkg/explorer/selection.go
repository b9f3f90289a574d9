package explorer

import (
	"strings"

	"github.com/vanderheijden86/orbview/pkg/model"
)

// SelectionKind is the domain kind of the selected entity.
type SelectionKind string

const (
	KindNone        SelectionKind = "none"
	KindTarget      SelectionKind = "target"
	KindOpportunity SelectionKind = "opportunity"
	KindAcquisition SelectionKind = "acquisition"
	KindConflict    SelectionKind = "conflict"
	// KindNode marks a tree selection of a node with no domain kind, such
	// as a satellite or a group.
	KindNode SelectionKind = "node"
)

// SelectionSource is the panel a selection came from.
type SelectionSource string

const (
	SourceNone   SelectionSource = ""
	SourceTree   SelectionSource = "tree"
	SourceMap    SelectionSource = "map"
	SourceTable  SelectionSource = "table"
	SourceRepair SelectionSource = "repair"
)

// Selection is the single authoritative selection. Every select call
// replaces it whole; the most recent source wins.
type Selection struct {
	Kind     SelectionKind   `json:"kind"`
	ID       string          `json:"id,omitempty"`
	Source   SelectionSource `json:"source,omitempty"`
	NodeType NodeType        `json:"node_type,omitempty"`
}

// NoSelection is the cleared selection.
var NoSelection = Selection{Kind: KindNone}

// IsEmpty reports whether nothing is selected.
func (s Selection) IsEmpty() bool {
	return s.Kind == KindNone || s.Kind == "" || s.ID == ""
}

// IsEcho reports whether the selection was emitted by source. Panels use
// it to avoid reacting to their own selection bouncing back.
func (s Selection) IsEcho(source SelectionSource) bool {
	return !s.IsEmpty() && s.Source == source
}

// kindForNodeType maps tree node types to selection kinds.
func kindForNodeType(t NodeType) SelectionKind {
	switch t {
	case TypeTarget:
		return KindTarget
	case TypeOpportunity:
		return KindOpportunity
	case TypePlanItem, TypeOrder:
		return KindAcquisition
	default:
		return KindNode
	}
}

// SelectFromTree returns the selection for a click on tree node id.
func SelectFromTree(id string, t NodeType) Selection {
	if id == "" {
		return NoSelection
	}
	return Selection{Kind: kindForNodeType(t), ID: id, Source: SourceTree, NodeType: t}
}

// ClearSelection returns the empty selection. Clearing twice is the same
// as clearing once.
func ClearSelection() Selection {
	return NoSelection
}

// SelectFromMap returns the selection for a click on the globe.
func SelectFromMap(kind SelectionKind, id string) Selection {
	return selectFrom(SourceMap, kind, id)
}

// SelectFromTable returns the selection for a click on a results table row.
func SelectFromTable(kind SelectionKind, id string) Selection {
	return selectFrom(SourceTable, kind, id)
}

// SelectFromRepair returns the selection for a click in the repair view.
func SelectFromRepair(kind SelectionKind, id string) Selection {
	return selectFrom(SourceRepair, kind, id)
}

func selectFrom(source SelectionSource, kind SelectionKind, id string) Selection {
	if id == "" || kind == KindNone || kind == "" {
		return NoSelection
	}
	return Selection{Kind: kind, ID: id, Source: source}
}

// Lookup finds the node with id. Stale ids report false.
func Lookup(root *Node, id string) (*Node, bool) {
	if id == "" {
		return nil, false
	}
	var found *Node
	root.Walk(func(n *Node, _ int) bool {
		if found != nil {
			return false
		}
		if n.ID == id {
			found = n
			return false
		}
		return true
	})
	return found, found != nil
}

// Resolve returns the metadata behind a tree selection, or nil when the
// selection is empty, did not come from the tree, or no longer resolves.
func Resolve(root *Node, sel Selection) Metadata {
	if sel.IsEmpty() || sel.Source != SourceTree {
		return nil
	}
	n, ok := Lookup(root, sel.ID)
	if !ok {
		return nil
	}
	return n.Meta
}

// ContextFilters are independent predicates that result consumers AND
// together on top of the selection. Empty fields match everything.
type ContextFilters struct {
	TargetID      string              `json:"target_id,omitempty"`
	SatelliteID   string              `json:"satellite_id,omitempty"`
	LookSide      model.LookSide      `json:"look_side,omitempty"`
	PassDirection model.PassDirection `json:"pass_direction,omitempty"`
}

// IsZero reports whether no filter is set.
func (f ContextFilters) IsZero() bool {
	return f == ContextFilters{}
}

// Match reports whether o passes every set filter. SAR-only filters reject
// passes without SAR geometry.
func (f ContextFilters) Match(o model.Opportunity) bool {
	if f.TargetID != "" && o.Target != f.TargetID {
		return false
	}
	if f.SatelliteID != "" && o.Satellite != f.SatelliteID {
		return false
	}
	if f.LookSide != "" && (o.SAR == nil || !strings.EqualFold(string(o.SAR.LookSide), string(f.LookSide))) {
		return false
	}
	if f.PassDirection != "" && (o.SAR == nil || !strings.EqualFold(string(o.SAR.PassDirection), string(f.PassDirection))) {
		return false
	}
	return true
}

// Apply returns the indices of passes that match f, in order.
func (f ContextFilters) Apply(passes []model.Opportunity) []int {
	out := make([]int, 0, len(passes))
	for i, p := range passes {
		if f.Match(p) {
			out = append(out, i)
		}
	}
	return out
}
