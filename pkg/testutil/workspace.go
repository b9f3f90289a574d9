package testutil

import (
	"fmt"
	"os"
	"path/filepath"

	json "github.com/goccy/go-json"

	"github.com/vanderheijden86/orbview/pkg/model"
)

// workspaceFile mirrors the on-disk shape of workspace.json.
type workspaceFile struct {
	Workspace    model.WorkspaceInfo   `json:"workspace"`
	Scenario     *model.ScenarioConfig `json:"scenario,omitempty"`
	Mission      *model.MissionData    `json:"mission,omitempty"`
	AnalysisRuns []model.RunSummary    `json:"analysis_runs,omitempty"`
	PlanningRuns []model.RunSummary    `json:"planning_runs,omitempty"`
}

func saveJSON(path string, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal %s: %w", filepath.Base(path), err)
	}
	return os.WriteFile(path, data, 0644)
}

// SaveWorkspace lays snap out as a workspace directory under dir: the
// required workspace.json plus each optional file that has content.
func SaveWorkspace(dir string, snap model.WorkspaceSnapshot) error {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("create workspace dir: %w", err)
	}
	if err := saveJSON(filepath.Join(dir, "workspace.json"), workspaceFile{
		Workspace:    snap.Workspace,
		Scenario:     snap.Scenario,
		Mission:      snap.Mission,
		AnalysisRuns: snap.AnalysisRuns,
		PlanningRuns: snap.PlanningRuns,
	}); err != nil {
		return err
	}
	optional := []struct {
		name  string
		value any
		empty bool
	}{
		{"scene_objects.json", snap.SceneObjects, len(snap.SceneObjects) == 0},
		{"results.json", snap.Results, len(snap.Results) == 0},
		{"imports.json", snap.Imports, len(snap.Imports) == 0},
	}
	for _, f := range optional {
		if f.empty {
			continue
		}
		if err := saveJSON(filepath.Join(dir, f.name), f.value); err != nil {
			return err
		}
	}
	if len(snap.Orders) > 0 {
		if err := os.WriteFile(filepath.Join(dir, "orders.jsonl"), []byte(ToJSONL(snap.Orders)), 0644); err != nil {
			return fmt.Errorf("write orders: %w", err)
		}
	}
	return nil
}
