// Package explorer implements the object explorer core: the tree built from a
// workspace snapshot, name search, visible-node flattening with keyboard
// navigation, and selection coordination across the tree, map and table.
//
// Everything in this package is synchronous and side-effect free. Functions
// take their inputs as arguments and return new values; mutable explorer
// state (expansion, selection, search query) lives in package state.
package explorer

import (
	"fmt"
	"reflect"
	"sort"

	json "github.com/goccy/go-json"
)

// NodeType is the closed set of node kinds in the explorer tree.
type NodeType string

const (
	TypeWorkspace          NodeType = "workspace"
	TypeScenario           NodeType = "scenario"
	TypeAssetGroup         NodeType = "asset-group"
	TypeSatellite          NodeType = "satellite"
	TypeGroundStationGroup NodeType = "ground-station-group"
	TypeGroundStation      NodeType = "ground-station"
	TypeTargetGroup        NodeType = "target-group"
	TypeTarget             NodeType = "target"
	TypeConstraintGroup    NodeType = "constraint-group"
	TypeConstraintItem     NodeType = "constraint-item"
	TypeRunGroup           NodeType = "run-group"
	TypeAnalysisRun        NodeType = "analysis-run"
	TypePlanningRun        NodeType = "planning-run"
	TypeResultGroup        NodeType = "result-group"
	TypeOpportunityGroup   NodeType = "opportunity-group"
	TypeOpportunity        NodeType = "opportunity"
	TypePlan               NodeType = "plan"
	TypePlanItem           NodeType = "plan-item"
	TypeOrderGroup         NodeType = "order-group"
	TypeOrder              NodeType = "order"
	TypeImportGroup        NodeType = "import-group"
	TypeImportItem         NodeType = "import-item"
)

// IsActionable reports whether Enter on a node of this type requests a
// fly-to or time navigation.
func (t NodeType) IsActionable() bool {
	switch t {
	case TypeSatellite, TypeTarget, TypeGroundStation, TypeOpportunity, TypePlanItem:
		return true
	default:
		return false
	}
}

// Severity tags a badge for the presentation layer.
type Severity string

const (
	SeverityBlue    Severity = "blue"
	SeverityNeutral Severity = "neutral"
	SeverityInfo    Severity = "info"
	SeveritySuccess Severity = "success"
	SeverityWarning Severity = "warning"
)

// Badge is a count indicator attached to a node.
type Badge struct {
	Count    int      `json:"count"`
	Severity Severity `json:"severity"`
}

// newBadge returns nil for non-positive counts so a badge is only ever
// present with a count above zero.
func newBadge(count int, sev Severity) *Badge {
	if count <= 0 {
		return nil
	}
	return &Badge{Count: count, Severity: sev}
}

// Node is one entry of the explorer tree. Nodes are treated as immutable
// once Build returns; children are never shared between parents.
type Node struct {
	ID       string
	Type     NodeType
	Name     string
	Badge    *Badge
	Meta     Metadata
	Children []*Node

	// Expandable marks group chrome that can be opened even when it
	// currently holds no children.
	Expandable bool
}

// HasChildren reports whether the node has materialized children.
func (n *Node) HasChildren() bool {
	return n != nil && len(n.Children) > 0
}

// Walk visits n and its descendants in pre-order. Returning false from fn
// skips the node's children.
func (n *Node) Walk(fn func(node *Node, depth int) bool) {
	var walk func(node *Node, depth int)
	walk = func(node *Node, depth int) {
		if node == nil {
			return
		}
		if !fn(node, depth) {
			return
		}
		for _, child := range node.Children {
			walk(child, depth+1)
		}
	}
	walk(n, 0)
}

// Count returns the number of nodes in the subtree rooted at n.
func (n *Node) Count() int {
	total := 0
	n.Walk(func(*Node, int) bool {
		total++
		return true
	})
	return total
}

// Equal reports whether two trees are structurally equal: same id, type,
// name, badge, metadata and children, recursively.
func Equal(a, b *Node) bool {
	if a == nil || b == nil {
		return a == b
	}
	if a.ID != b.ID || a.Type != b.Type || a.Name != b.Name || a.Expandable != b.Expandable {
		return false
	}
	if (a.Badge == nil) != (b.Badge == nil) {
		return false
	}
	if a.Badge != nil && *a.Badge != *b.Badge {
		return false
	}
	if !reflect.DeepEqual(a.Meta, b.Meta) {
		return false
	}
	if len(a.Children) != len(b.Children) {
		return false
	}
	for i := range a.Children {
		if !Equal(a.Children[i], b.Children[i]) {
			return false
		}
	}
	return true
}

type nodeJSON struct {
	ID         string            `json:"id"`
	Type       NodeType          `json:"type"`
	Name       string            `json:"name"`
	Badge      *Badge            `json:"badge,omitempty"`
	MetaKind   string            `json:"meta_kind,omitempty"`
	Meta       json.RawMessage   `json:"meta,omitempty"`
	Expandable bool              `json:"expandable,omitempty"`
	Children   []json.RawMessage `json:"children,omitempty"`
}

// MarshalJSON renders the subtree for robot output. Metadata is tagged with
// its kind so consumers can dispatch without reflection. Metadata and
// children are encoded separately so the encoder never walks a recursive
// type holding an interface.
func (n *Node) MarshalJSON() ([]byte, error) {
	out := nodeJSON{
		ID:         n.ID,
		Type:       n.Type,
		Name:       n.Name,
		Badge:      n.Badge,
		Expandable: n.Expandable,
	}
	if n.Meta != nil {
		meta, err := json.Marshal(n.Meta)
		if err != nil {
			return nil, fmt.Errorf("encode %s metadata: %w", n.ID, err)
		}
		out.MetaKind = n.Meta.Kind()
		out.Meta = meta
	}
	if len(n.Children) > 0 {
		out.Children = make([]json.RawMessage, 0, len(n.Children))
		for _, child := range n.Children {
			raw, err := child.MarshalJSON()
			if err != nil {
				return nil, err
			}
			out.Children = append(out.Children, raw)
		}
	}
	return json.Marshal(out)
}

// IDSet is a set of node ids.
type IDSet map[string]struct{}

// NewIDSet returns a set holding ids.
func NewIDSet(ids ...string) IDSet {
	s := make(IDSet, len(ids))
	for _, id := range ids {
		s[id] = struct{}{}
	}
	return s
}

// Has reports membership. A nil set holds nothing.
func (s IDSet) Has(id string) bool {
	_, ok := s[id]
	return ok
}

// Clone returns an independent copy. Cloning nil yields nil.
func (s IDSet) Clone() IDSet {
	if s == nil {
		return nil
	}
	out := make(IDSet, len(s))
	for id := range s {
		out[id] = struct{}{}
	}
	return out
}

// With returns a copy of s that also holds ids.
func (s IDSet) With(ids ...string) IDSet {
	out := make(IDSet, len(s)+len(ids))
	for id := range s {
		out[id] = struct{}{}
	}
	for _, id := range ids {
		out[id] = struct{}{}
	}
	return out
}

// Without returns a copy of s without ids.
func (s IDSet) Without(ids ...string) IDSet {
	out := s.Clone()
	if out == nil {
		out = IDSet{}
	}
	for _, id := range ids {
		delete(out, id)
	}
	return out
}

// Slice returns the ids in sorted order.
func (s IDSet) Slice() []string {
	out := make([]string, 0, len(s))
	for id := range s {
		out = append(out, id)
	}
	sort.Strings(out)
	return out
}
