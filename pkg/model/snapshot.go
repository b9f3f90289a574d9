package model

// WorkspaceInfo identifies the workspace being explored.
type WorkspaceInfo struct {
	ID   string `json:"id,omitempty"`
	Name string `json:"name"`
}

// SensorConfig holds the imaging sensor limits of a scenario.
type SensorConfig struct {
	FOVHalfAngle float64 `json:"fov_half_angle_deg"`
	MaxOffNadir  float64 `json:"max_off_nadir_deg,omitempty"`
}

// SpacecraftConfig holds the agility limits of the spacecraft.
type SpacecraftConfig struct {
	MaxRoll    float64 `json:"max_roll_deg"`
	MaxPitch   float64 `json:"max_pitch_deg,omitempty"`
	RollRate   float64 `json:"roll_rate_dps,omitempty"`
	PitchRate  float64 `json:"pitch_rate_dps,omitempty"`
	SettleTime float64 `json:"settle_time_s,omitempty"`
}

// PlanningConfig holds the planning parameters of a scenario.
type PlanningConfig struct {
	ImagingTime  float64 `json:"imaging_time_s,omitempty"`
	QualityModel string  `json:"quality_model,omitempty"`
	ValueWeight  float64 `json:"value_weight,omitempty"`
}

// ScenarioConfig describes the mission window and constraint values.
type ScenarioConfig struct {
	Name       string           `json:"name,omitempty"`
	Start      string           `json:"start_time,omitempty"`
	End        string           `json:"end_time,omitempty"`
	Sensor     SensorConfig     `json:"sensor"`
	Spacecraft SpacecraftConfig `json:"spacecraft"`
	Planning   PlanningConfig   `json:"planning"`
}

// MissionData is the output of a mission analysis: inventories plus the
// computed passes.
type MissionData struct {
	Satellites     []Satellite     `json:"satellites,omitempty"`
	GroundStations []GroundStation `json:"ground_stations,omitempty"`
	Targets        []Target        `json:"targets,omitempty"`
	Passes         []Opportunity   `json:"passes,omitempty"`
}

// WorkspaceSnapshot aggregates every input the explorer tree is built from.
// A snapshot is read-only once handed to the tree builder.
type WorkspaceSnapshot struct {
	Workspace    WorkspaceInfo          `json:"workspace"`
	Scenario     *ScenarioConfig        `json:"scenario,omitempty"`
	SceneObjects []SceneObject          `json:"scene_objects,omitempty"`
	Mission      *MissionData           `json:"mission,omitempty"`
	Results      map[string]*PlanResult `json:"results,omitempty"`
	Orders       []Order                `json:"orders,omitempty"`
	AnalysisRuns []RunSummary           `json:"analysis_runs,omitempty"`
	PlanningRuns []RunSummary           `json:"planning_runs,omitempty"`
	Imports      []ImportRecord         `json:"imports,omitempty"`

	// FilterByTarget restricts the opportunity list to one target name.
	FilterByTarget string `json:"-"`
}

// Passes returns the mission passes, or nil when there is no mission data.
func (s WorkspaceSnapshot) Passes() []Opportunity {
	if s.Mission == nil {
		return nil
	}
	return s.Mission.Passes
}

// HasResults reports whether at least one algorithm result is usable.
func (s WorkspaceSnapshot) HasResults() bool {
	for _, r := range s.Results {
		if r.Valid() {
			return true
		}
	}
	return false
}
