// Package recipe provides named explorer presets. A recipe bundles context
// filters, a target restriction, a search query and a set of expanded
// nodes so a common view can be opened with one flag.
package recipe

import (
	"strings"

	"github.com/vanderheijden86/orbview/pkg/explorer"
	"github.com/vanderheijden86/orbview/pkg/model"
	"github.com/vanderheijden86/orbview/pkg/state"
)

// Filters is the YAML form of explorer.ContextFilters.
type Filters struct {
	Target        string `yaml:"target,omitempty" json:"target,omitempty"`
	Satellite     string `yaml:"satellite,omitempty" json:"satellite,omitempty"`
	LookSide      string `yaml:"look_side,omitempty" json:"look_side,omitempty"`
	PassDirection string `yaml:"pass_direction,omitempty" json:"pass_direction,omitempty"`
}

// Recipe is a named explorer view.
type Recipe struct {
	Name        string   `yaml:"-" json:"name"`
	Description string   `yaml:"description" json:"description"`
	Filters     Filters  `yaml:"filters,omitempty" json:"filters,omitempty"`
	Target      string   `yaml:"target,omitempty" json:"target,omitempty"`
	Search      string   `yaml:"search,omitempty" json:"search,omitempty"`
	Expand      []string `yaml:"expand,omitempty" json:"expand,omitempty"`
}

// Summary is the listing form of a recipe.
type Summary struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	Source      string `json:"source"`
}

// ContextFilters converts the recipe filters. Look side and pass direction
// are upper-cased to the wire spelling.
func (r Recipe) ContextFilters() explorer.ContextFilters {
	return explorer.ContextFilters{
		TargetID:      strings.TrimSpace(r.Filters.Target),
		SatelliteID:   strings.TrimSpace(r.Filters.Satellite),
		LookSide:      model.LookSide(strings.ToUpper(strings.TrimSpace(r.Filters.LookSide))),
		PassDirection: model.PassDirection(strings.ToUpper(strings.TrimSpace(r.Filters.PassDirection))),
	}
}

// ApplyBeforeBuild sets the parts of the recipe that shape the tree itself:
// filters, the target restriction and expansion.
func (r Recipe) ApplyBeforeBuild(s state.State) state.State {
	s = s.SetFilters(r.ContextFilters())
	if r.Target != "" {
		s = s.SetFilterByTarget(r.Target)
	}
	if len(r.Expand) > 0 {
		s = s.Expand(r.Expand...)
	}
	return s
}

// ApplyAfterBuild sets the search query, which needs the built tree to
// expand the ancestors of its matches.
func (r Recipe) ApplyAfterBuild(s state.State, root *explorer.Node) state.State {
	if strings.TrimSpace(r.Search) == "" {
		return s
	}
	return s.SetSearch(root, r.Search)
}
