package explorer

import (
	"strings"

	"github.com/vanderheijden86/orbview/pkg/metrics"
)

// Search returns the ids of nodes whose name contains query
// (case-insensitive) together with every ancestor of such a node up to the
// root. Descendants of a match are not included.
//
// A blank query returns nil, meaning no filtering is active. A query that
// matches nothing returns an empty, non-nil set, meaning nothing is visible.
func Search(root *Node, query string) IDSet {
	q := strings.ToLower(strings.TrimSpace(query))
	if q == "" {
		return nil
	}
	defer metrics.Timer(metrics.SearchFilter)()

	result := IDSet{}
	var path []string
	var walk func(n *Node)
	walk = func(n *Node) {
		if n == nil {
			return
		}
		path = append(path, n.ID)
		if strings.Contains(strings.ToLower(n.Name), q) {
			for _, id := range path {
				result[id] = struct{}{}
			}
		}
		for _, child := range n.Children {
			walk(child)
		}
		path = path[:len(path)-1]
	}
	walk(root)
	return result
}

// Matches returns the ids of nodes whose own name contains query, in
// pre-order. Ancestors that only provide context are not listed.
func Matches(root *Node, query string) []string {
	q := strings.ToLower(strings.TrimSpace(query))
	if q == "" {
		return nil
	}
	var ids []string
	root.Walk(func(n *Node, _ int) bool {
		if strings.Contains(strings.ToLower(n.Name), q) {
			ids = append(ids, n.ID)
		}
		return true
	})
	return ids
}
