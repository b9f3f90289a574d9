package recipe

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"

	"gopkg.in/yaml.v3"

	"github.com/vanderheijden86/orbview/pkg/config"
)

// Recipe sources, lowest precedence first.
const (
	SourceBuiltin = "builtin"
	SourceUser    = "user"
	SourceProject = "project"
)

// ProjectDirName is the workspace-local directory holding recipes.yaml.
const ProjectDirName = ".orbview"

// FileName is the recipe file name in the user and project locations.
const FileName = "recipes.yaml"

// fileFormat is the on-disk layout. A null entry disables a recipe of the
// same name from a lower-precedence source.
type fileFormat struct {
	Recipes map[string]*Recipe `yaml:"recipes"`
}

// Loader merges built-in, user and project recipes.
type Loader struct {
	userPath   string
	projectDir string

	recipes  map[string]Recipe
	sources  map[string]string
	warnings []string
}

// LoaderOption configures a Loader.
type LoaderOption func(*Loader)

// WithUserPath sets the user recipe file. An empty path disables it.
func WithUserPath(path string) LoaderOption {
	return func(l *Loader) { l.userPath = path }
}

// WithProjectDir sets the workspace directory whose .orbview/recipes.yaml
// is read. An empty dir disables it.
func WithProjectDir(dir string) LoaderOption {
	return func(l *Loader) { l.projectDir = dir }
}

// NewLoader returns a loader reading the user recipe file from the config
// directory unless overridden.
func NewLoader(opts ...LoaderOption) *Loader {
	l := &Loader{}
	if dir := config.ConfigDir(); dir != "" {
		l.userPath = filepath.Join(dir, FileName)
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// LoadDefault loads built-in and user recipes plus the project recipes of
// workspaceDir.
func LoadDefault(workspaceDir string) (*Loader, error) {
	l := NewLoader(WithProjectDir(workspaceDir))
	if err := l.Load(); err != nil {
		return nil, err
	}
	return l, nil
}

// Load (re)reads every source. Missing files are skipped; unreadable or
// invalid files are recorded as warnings and skipped.
func (l *Loader) Load() error {
	l.recipes = make(map[string]Recipe)
	l.sources = make(map[string]string)
	l.warnings = nil

	for name, r := range builtinRecipes() {
		r.Name = name
		l.recipes[name] = r
		l.sources[name] = SourceBuiltin
	}
	if l.userPath != "" {
		l.mergeFile(l.userPath, SourceUser)
	}
	if l.projectDir != "" {
		l.mergeFile(filepath.Join(l.projectDir, ProjectDirName, FileName), SourceProject)
	}
	return nil
}

func (l *Loader) mergeFile(path, source string) {
	data, err := os.ReadFile(path)
	if err != nil {
		if !errors.Is(err, fs.ErrNotExist) {
			l.warnings = append(l.warnings, fmt.Sprintf("reading %s: %v", path, err))
		}
		return
	}
	var ff fileFormat
	if err := yaml.Unmarshal(data, &ff); err != nil {
		l.warnings = append(l.warnings, fmt.Sprintf("parsing %s: %v", path, err))
		return
	}
	for name, r := range ff.Recipes {
		if r == nil {
			delete(l.recipes, name)
			delete(l.sources, name)
			continue
		}
		rec := *r
		rec.Name = name
		l.recipes[name] = rec
		l.sources[name] = source
	}
}

// Get returns the named recipe, or nil.
func (l *Loader) Get(name string) *Recipe {
	r, ok := l.recipes[name]
	if !ok {
		return nil
	}
	return &r
}

// Source returns where the named recipe came from.
func (l *Loader) Source(name string) string {
	return l.sources[name]
}

// Names returns the recipe names in sorted order.
func (l *Loader) Names() []string {
	names := make([]string, 0, len(l.recipes))
	for name := range l.recipes {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// List returns the recipes sorted by name.
func (l *Loader) List() []Recipe {
	names := l.Names()
	out := make([]Recipe, len(names))
	for i, name := range names {
		out[i] = l.recipes[name]
	}
	return out
}

// ListSummaries returns name, description and source of every recipe.
func (l *Loader) ListSummaries() []Summary {
	names := l.Names()
	out := make([]Summary, len(names))
	for i, name := range names {
		out[i] = Summary{Name: name, Description: l.recipes[name].Description, Source: l.sources[name]}
	}
	return out
}

// Warnings returns problems found during the last Load.
func (l *Loader) Warnings() []string {
	return l.warnings
}
