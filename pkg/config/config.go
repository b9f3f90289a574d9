// Package config handles loading and saving ov configuration.
//
// Configuration follows the XDG Base Directory specification:
//   - Config: ~/.config/orbview/config.yaml
//   - State:  ~/.local/state/orbview/ (explorer state per workspace)
package config

import (
	"crypto/sha1"
	"encoding/hex"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

const appName = "orbview"

// Workspace is a registered mission workspace directory.
type Workspace struct {
	Name string `yaml:"name"`
	Path string `yaml:"path"`
}

// UIConfig holds UI preference settings.
type UIConfig struct {
	Inspector       bool     `yaml:"inspector"`                  // Show the inspector pane
	DefaultExpanded []string `yaml:"default_expanded,omitempty"` // Node ids expanded on first run
}

// HistoryConfig bounds the run history lists.
type HistoryConfig struct {
	MaxAnalysisRuns int `yaml:"max_analysis_runs,omitempty"`
	MaxPlanningRuns int `yaml:"max_planning_runs,omitempty"`
}

// WatchConfig controls live reload of the workspace directory.
type WatchConfig struct {
	DebounceMS int  `yaml:"debounce_ms,omitempty"`
	ForcePoll  bool `yaml:"force_poll,omitempty"`
}

// Config is the top-level configuration for ov.
type Config struct {
	Workspaces []Workspace   `yaml:"workspaces,omitempty"`
	UI         UIConfig      `yaml:"ui,omitempty"`
	History    HistoryConfig `yaml:"history,omitempty"`
	Watch      WatchConfig   `yaml:"watch,omitempty"`
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() Config {
	return Config{
		UI: UIConfig{
			Inspector:       true,
			DefaultExpanded: []string{"workspace"},
		},
		History: HistoryConfig{
			MaxAnalysisRuns: 20,
			MaxPlanningRuns: 50,
		},
		Watch: WatchConfig{
			DebounceMS: 200,
		},
	}
}

// Debounce returns the watcher debounce interval.
func (w WatchConfig) Debounce() time.Duration {
	if w.DebounceMS <= 0 {
		return 200 * time.Millisecond
	}
	return time.Duration(w.DebounceMS) * time.Millisecond
}

// ConfigDir returns the XDG config directory for ov.
func ConfigDir() string {
	if dir := os.Getenv("XDG_CONFIG_HOME"); dir != "" {
		return filepath.Join(dir, appName)
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ".config", appName)
}

// StateDir returns the XDG state directory for ov.
func StateDir() string {
	if dir := os.Getenv("XDG_STATE_HOME"); dir != "" {
		return filepath.Join(dir, appName)
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ".local", "state", appName)
}

// WorkspaceStateDir returns the state directory for one workspace. The
// workspace path is hashed so different workspaces never share a file.
func WorkspaceStateDir(workspacePath string) string {
	base := StateDir()
	if base == "" {
		return ""
	}
	abs, err := filepath.Abs(workspacePath)
	if err != nil {
		abs = workspacePath
	}
	sum := sha1.Sum([]byte(abs))
	return filepath.Join(base, "workspaces", hex.EncodeToString(sum[:8]))
}

// ConfigPath returns the full path to config.yaml.
func ConfigPath() string {
	dir := ConfigDir()
	if dir == "" {
		return ""
	}
	return filepath.Join(dir, "config.yaml")
}

// Load reads the config file from the XDG config directory.
// Returns DefaultConfig if the file doesn't exist.
func Load() (Config, error) {
	path := ConfigPath()
	if path == "" {
		return DefaultConfig(), nil
	}
	return LoadFrom(path)
}

// LoadFrom reads config from a specific path.
// Returns DefaultConfig if the file doesn't exist.
func LoadFrom(path string) (Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return cfg, fmt.Errorf("reading config: %w", err)
	}

	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return DefaultConfig(), fmt.Errorf("parsing config: %w", err)
	}

	def := DefaultConfig()
	if cfg.History.MaxAnalysisRuns <= 0 {
		cfg.History.MaxAnalysisRuns = def.History.MaxAnalysisRuns
	}
	if cfg.History.MaxPlanningRuns <= 0 {
		cfg.History.MaxPlanningRuns = def.History.MaxPlanningRuns
	}
	for i := range cfg.Workspaces {
		cfg.Workspaces[i].Path = expandHome(cfg.Workspaces[i].Path)
	}
	return cfg, nil
}

// Save writes the config to the XDG config directory.
func Save(cfg Config) error {
	path := ConfigPath()
	if path == "" {
		return fmt.Errorf("cannot determine config directory")
	}
	return SaveTo(cfg, path)
}

// SaveTo writes the config to a specific path.
func SaveTo(cfg Config, path string) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("creating config directory: %w", err)
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("marshaling config: %w", err)
	}

	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("writing config: %w", err)
	}
	return nil
}

// FindWorkspace returns the workspace with the given name, or nil.
func (c Config) FindWorkspace(name string) *Workspace {
	for i := range c.Workspaces {
		if strings.EqualFold(c.Workspaces[i].Name, name) {
			return &c.Workspaces[i]
		}
	}
	return nil
}

// ResolveDir picks the workspace directory: an explicit flag value wins,
// then a registered workspace of that name, then OV_WORKSPACE_DIR, then the
// current directory.
func (c Config) ResolveDir(flagValue string) string {
	if flagValue != "" {
		if ws := c.FindWorkspace(flagValue); ws != nil {
			return ws.Path
		}
		return expandHome(flagValue)
	}
	if env := os.Getenv("OV_WORKSPACE_DIR"); env != "" {
		return expandHome(env)
	}
	return "."
}

func expandHome(path string) string {
	if !strings.HasPrefix(path, "~") {
		return path
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return path
	}
	return filepath.Join(home, path[1:])
}
