package explorer

import (
	"github.com/vanderheijden86/orbview/pkg/metrics"
)

// Row is one visible line of the tree.
type Row struct {
	Node  *Node
	Depth int
}

// Flatten returns the currently visible rows in depth-first pre-order. A
// node is included when match is nil or holds its id; its children are
// visited only when the node is included and its id is in expanded.
func Flatten(root *Node, expanded, match IDSet) []Row {
	defer metrics.Timer(metrics.Flatten)()

	var rows []Row
	var visit func(n *Node, depth int)
	visit = func(n *Node, depth int) {
		if n == nil {
			return
		}
		if match != nil && !match.Has(n.ID) {
			return
		}
		rows = append(rows, Row{Node: n, Depth: depth})
		if !expanded.Has(n.ID) {
			return
		}
		for _, child := range n.Children {
			visit(child, depth+1)
		}
	}
	visit(root, 0)
	return rows
}

// VisibleNodes is Flatten without depth information.
func VisibleNodes(root *Node, expanded, match IDSet) []*Node {
	rows := Flatten(root, expanded, match)
	nodes := make([]*Node, len(rows))
	for i, r := range rows {
		nodes[i] = r.Node
	}
	return nodes
}

// Index is a flattened view with O(1) position lookup. Build one per
// structural change (tree rebuild, expansion, search) and reuse it across
// keystrokes that only move the focus.
type Index struct {
	Rows []Row
	pos  map[string]int
}

// NewIndex flattens root and indexes the visible rows by id.
func NewIndex(root *Node, expanded, match IDSet) *Index {
	rows := Flatten(root, expanded, match)
	pos := make(map[string]int, len(rows))
	for i, r := range rows {
		pos[r.Node.ID] = i
	}
	return &Index{Rows: rows, pos: pos}
}

// Len returns the number of visible rows.
func (x *Index) Len() int { return len(x.Rows) }

// Position returns the row index of id.
func (x *Index) Position(id string) (int, bool) {
	i, ok := x.pos[id]
	return i, ok
}

// At returns the row at i, or false when out of range.
func (x *Index) At(i int) (Row, bool) {
	if i < 0 || i >= len(x.Rows) {
		return Row{}, false
	}
	return x.Rows[i], true
}

// FindPath returns the nodes from root down to the node with id, or nil when
// id is not in the tree. Nodes keep no parent pointers, so this walks from
// the root each time.
func FindPath(root *Node, id string) []*Node {
	var path []*Node
	var find func(n *Node) bool
	find = func(n *Node) bool {
		if n == nil {
			return false
		}
		path = append(path, n)
		if n.ID == id {
			return true
		}
		for _, child := range n.Children {
			if find(child) {
				return true
			}
		}
		path = path[:len(path)-1]
		return false
	}
	if !find(root) {
		return nil
	}
	return path
}

// Parent returns the parent of the node with id, or nil for the root and
// for unknown ids.
func Parent(root *Node, id string) *Node {
	path := FindPath(root, id)
	if len(path) < 2 {
		return nil
	}
	return path[len(path)-2]
}

// Key is a navigation key.
type Key int

const (
	KeyDown Key = iota
	KeyUp
	KeyRight
	KeyLeft
	KeyHome
	KeyEnd
	KeyEnter
)

// Step is the outcome of one navigation key: the node to focus and at most
// one expansion change and activation request. Zero-valued fields mean no
// change.
type Step struct {
	Focus    string
	Expand   string
	Collapse string
	Activate *Activation
}

// Navigate computes the effect of key with focus on the node with id focus.
// Down and Up wrap around at the ends. When focus is not visible (stale or
// empty), Down and Home go to the first row and Up and End to the last.
func Navigate(root *Node, idx *Index, expanded IDSet, focus string, key Key) Step {
	n := idx.Len()
	if n == 0 {
		return Step{}
	}
	pos, ok := idx.Position(focus)
	first, last := idx.Rows[0].Node.ID, idx.Rows[n-1].Node.ID

	switch key {
	case KeyHome:
		return Step{Focus: first}
	case KeyEnd:
		return Step{Focus: last}
	case KeyDown:
		if !ok {
			return Step{Focus: first}
		}
		return Step{Focus: idx.Rows[(pos+1)%n].Node.ID}
	case KeyUp:
		if !ok {
			return Step{Focus: last}
		}
		return Step{Focus: idx.Rows[(pos-1+n)%n].Node.ID}
	}

	if !ok {
		return Step{Focus: focus}
	}
	row := idx.Rows[pos]
	node := row.Node
	isOpen := expanded.Has(node.ID)

	switch key {
	case KeyRight:
		if !node.HasChildren() {
			return Step{Focus: focus}
		}
		if !isOpen {
			return Step{Focus: focus, Expand: node.ID}
		}
		// In pre-order the first visible child directly follows its parent.
		if next, ok := idx.At(pos + 1); ok && next.Depth == row.Depth+1 {
			return Step{Focus: next.Node.ID}
		}
		return Step{Focus: focus}

	case KeyLeft:
		if node.HasChildren() && isOpen {
			return Step{Focus: focus, Collapse: node.ID}
		}
		if parent := Parent(root, node.ID); parent != nil {
			return Step{Focus: parent.ID}
		}
		return Step{Focus: focus}

	case KeyEnter:
		step := Step{Focus: focus, Activate: ActivationFor(node)}
		if node.HasChildren() {
			if isOpen {
				step.Collapse = node.ID
			} else {
				step.Expand = node.ID
			}
		}
		return step
	}
	return Step{Focus: focus}
}
