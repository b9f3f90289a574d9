package state

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	json "github.com/goccy/go-json"

	"github.com/vanderheijden86/orbview/pkg/explorer"
	"github.com/vanderheijden86/orbview/pkg/model"
)

// Persisted is the on-disk form of the explorer state. Only these fields
// survive a restart; the tree, focus, search and selection are rebuilt from
// live data.
//
// File format (JSON):
//
//	{
//	  "version": 1,
//	  "expandedNodeIds": ["assets", "workspace"],
//	  "activePlanId": "plan_greedy",
//	  "activeOrderId": null,
//	  "analysisRuns": [...],
//	  "planningRuns": [...]
//	}
type Persisted struct {
	Version         int                `json:"version"`
	ExpandedNodeIDs []string           `json:"expandedNodeIds"`
	ActivePlanID    *string            `json:"activePlanId"`
	ActiveOrderID   *string            `json:"activeOrderId"`
	AnalysisRuns    []model.RunSummary `json:"analysisRuns"`
	PlanningRuns    []model.RunSummary `json:"planningRuns"`
}

// PersistedVersion is the current schema version.
const PersistedVersion = 1

// FileName is the state file name inside the state directory.
const FileName = "explorer-state.json"

// ErrUnsupportedVersion is returned for state files written by a newer
// schema.
var ErrUnsupportedVersion = errors.New("unsupported explorer state version")

// ToPersisted converts s to its serializable form. Expanded ids are sorted
// so the file is stable across saves.
func ToPersisted(s State) Persisted {
	p := Persisted{
		Version:         PersistedVersion,
		ExpandedNodeIDs: s.Expanded.Slice(),
		ActivePlanID:    optional(s.ActivePlanID),
		ActiveOrderID:   optional(s.ActiveOrderID),
		AnalysisRuns:    append([]model.RunSummary{}, s.AnalysisRuns...),
		PlanningRuns:    append([]model.RunSummary{}, s.PlanningRuns...),
	}
	return p
}

// FromPersisted rebuilds a State from p on top of base. Fields that are not
// persisted keep base's values.
func FromPersisted(p Persisted, base State) (State, error) {
	if p.Version > PersistedVersion {
		return base, fmt.Errorf("%w: %d", ErrUnsupportedVersion, p.Version)
	}
	s := base
	if p.ExpandedNodeIDs != nil {
		s.Expanded = explorer.NewIDSet(p.ExpandedNodeIDs...)
	}
	s.ActivePlanID = deref(p.ActivePlanID)
	s.ActiveOrderID = deref(p.ActiveOrderID)
	s.AnalysisRuns = capRuns(append([]model.RunSummary{}, p.AnalysisRuns...), s.limits().MaxAnalysisRuns)
	s.PlanningRuns = capRuns(append([]model.RunSummary{}, p.PlanningRuns...), s.limits().MaxPlanningRuns)
	return s, nil
}

func optional(v string) *string {
	if v == "" {
		return nil
	}
	return &v
}

func deref(p *string) string {
	if p == nil {
		return ""
	}
	return *p
}

// ReadFile decodes a persisted state file.
func ReadFile(path string) (Persisted, error) {
	var p Persisted
	data, err := os.ReadFile(path)
	if err != nil {
		return p, err
	}
	if err := json.Unmarshal(data, &p); err != nil {
		return p, fmt.Errorf("decoding %s: %w", path, err)
	}
	return p, nil
}

// WriteFile encodes p to path through a temp file and rename, so a crash
// mid-write leaves the previous file intact.
func WriteFile(path string, p Persisted) error {
	data, err := json.MarshalIndent(p, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding explorer state: %w", err)
	}
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("creating state directory %s: %w", dir, err)
	}
	tmp, err := os.CreateTemp(dir, ".explorer-state-*.json")
	if err != nil {
		return fmt.Errorf("creating temp state file: %w", err)
	}
	tmpName := tmp.Name()
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("writing temp state file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("closing temp state file: %w", err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("replacing %s: %w", path, err)
	}
	return nil
}
