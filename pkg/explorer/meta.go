package explorer

import "github.com/vanderheijden86/orbview/pkg/model"

// Metadata is the type-specific payload attached to a node for the
// inspector. The set of implementations is closed: only types in this
// package satisfy it, so consumers can switch exhaustively.
type Metadata interface {
	// Kind names the payload, e.g. "satellite" or "plan_item".
	Kind() string
	isMetadata()
}

// WorkspaceMeta describes the root node.
type WorkspaceMeta struct {
	WorkspaceID string `json:"workspace_id,omitempty"`
	Name        string `json:"name"`
}

// ScenarioMeta describes the mission window.
type ScenarioMeta struct {
	Name  string `json:"name,omitempty"`
	Start string `json:"start_time,omitempty"`
	End   string `json:"end_time,omitempty"`
}

// GroupMeta describes a grouping node.
type GroupMeta struct {
	Section string `json:"section"`
	Items   int    `json:"items"`
}

// SatelliteMeta describes a satellite leaf.
type SatelliteMeta struct {
	SourceID string `json:"source_id,omitempty"`
	Color    string `json:"color,omitempty"`
	TLE1     string `json:"tle_line1,omitempty"`
	TLE2     string `json:"tle_line2,omitempty"`
	Source   string `json:"source"`
}

// GroundStationMeta describes a ground station leaf.
type GroundStationMeta struct {
	SourceID string         `json:"source_id,omitempty"`
	Position model.Position `json:"position"`
	Source   string         `json:"source"`
}

// TargetMeta describes a target leaf and its pass statistics. Off-nadir
// angles are 90 minus elevation; they are nil when no pass references the
// target.
type TargetMeta struct {
	SourceID     string         `json:"source_id,omitempty"`
	Position     model.Position `json:"position"`
	Priority     int            `json:"priority"`
	Color        string         `json:"color,omitempty"`
	PassCount    int            `json:"pass_count"`
	BestOffNadir *float64       `json:"best_off_nadir_deg,omitempty"`
	MeanOffNadir *float64       `json:"mean_off_nadir_deg,omitempty"`
	Source       string         `json:"source"`
}

// ConstraintMeta describes one of the fixed constraint leaves. Coverage is
// set only when planning results exist; otherwise CoverageNote explains why
// it is missing.
type ConstraintMeta struct {
	Section      string             `json:"section"`
	Values       map[string]float64 `json:"values,omitempty"`
	Labels       map[string]string  `json:"labels,omitempty"`
	Coverage     *float64           `json:"coverage_pct,omitempty"`
	CoverageNote string             `json:"coverage_note,omitempty"`
}

// RunMeta describes a historical run leaf.
type RunMeta struct {
	Run        model.RunSummary `json:"run"`
	TimeParsed bool             `json:"time_parsed"`
}

// OpportunityMeta describes a pass leaf. Index is the position in the
// unfiltered pass list so downstream consumers can jump to it regardless of
// filtering.
type OpportunityMeta struct {
	Index       int               `json:"index"`
	Opportunity model.Opportunity `json:"opportunity"`
	Duration    string            `json:"duration"`
}

// PlanMeta describes a per-algorithm plan node.
type PlanMeta struct {
	Algorithm string            `json:"algorithm"`
	Metrics   model.PlanMetrics `json:"metrics"`
	Items     int               `json:"items"`
}

// PlanItemMeta describes one scheduled acquisition.
type PlanItemMeta struct {
	Algorithm string             `json:"algorithm"`
	Index     int                `json:"index"`
	Item      model.ScheduleItem `json:"item"`
}

// OrderMeta describes an accepted order matched to the active plan.
type OrderMeta struct {
	Order model.Order `json:"order"`
}

// ImportMeta describes an import record.
type ImportMeta struct {
	Record model.ImportRecord `json:"record"`
}

func (WorkspaceMeta) Kind() string     { return "workspace" }
func (ScenarioMeta) Kind() string      { return "scenario" }
func (GroupMeta) Kind() string         { return "group" }
func (SatelliteMeta) Kind() string     { return "satellite" }
func (GroundStationMeta) Kind() string { return "ground_station" }
func (TargetMeta) Kind() string        { return "target" }
func (ConstraintMeta) Kind() string    { return "constraint" }
func (RunMeta) Kind() string           { return "run" }
func (OpportunityMeta) Kind() string   { return "opportunity" }
func (PlanMeta) Kind() string          { return "plan" }
func (PlanItemMeta) Kind() string      { return "plan_item" }
func (OrderMeta) Kind() string         { return "order" }
func (ImportMeta) Kind() string        { return "import" }

func (WorkspaceMeta) isMetadata()     {}
func (ScenarioMeta) isMetadata()      {}
func (GroupMeta) isMetadata()         {}
func (SatelliteMeta) isMetadata()     {}
func (GroundStationMeta) isMetadata() {}
func (TargetMeta) isMetadata()        {}
func (ConstraintMeta) isMetadata()    {}
func (RunMeta) isMetadata()           {}
func (OpportunityMeta) isMetadata()   {}
func (PlanMeta) isMetadata()          {}
func (PlanItemMeta) isMetadata()      {}
func (OrderMeta) isMetadata()         {}
func (ImportMeta) isMetadata()        {}
