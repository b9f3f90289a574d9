package model

// ScheduleItem is one acquisition selected by a planning algorithm.
type ScheduleItem struct {
	OpportunityID string  `json:"opportunity_id,omitempty"`
	Satellite     string  `json:"satellite_id"`
	Target        string  `json:"target_id"`
	StartTime     string  `json:"start_time"`
	EndTime       string  `json:"end_time,omitempty"`
	Roll          float64 `json:"roll_angle,omitempty"`
	Pitch         float64 `json:"pitch_angle,omitempty"`
	Value         float64 `json:"value,omitempty"`
}

// PlanMetrics summarizes a planning run.
type PlanMetrics struct {
	Accepted      int     `json:"opportunities_accepted"`
	Evaluated     int     `json:"opportunities_evaluated,omitempty"`
	Rejected      int     `json:"opportunities_rejected,omitempty"`
	TotalValue    float64 `json:"total_value,omitempty"`
	MeanIncidence float64 `json:"mean_incidence_deg,omitempty"`
	RuntimeMS     float64 `json:"runtime_ms,omitempty"`
}

// PlanResult is the output of one scheduling algorithm. A result is usable
// only when both Schedule and Metrics are present.
type PlanResult struct {
	Schedule []ScheduleItem `json:"schedule"`
	Metrics  *PlanMetrics   `json:"metrics"`
}

// Valid reports whether the result carries both a schedule and metrics.
func (r *PlanResult) Valid() bool {
	return r != nil && r.Schedule != nil && r.Metrics != nil
}

// Order is a plan promoted into an operational tasking artifact. Orders do
// not reference the planning run they came from.
type Order struct {
	OrderID   string         `json:"order_id"`
	Name      string         `json:"name,omitempty"`
	Algorithm string         `json:"algorithm"`
	Schedule  []ScheduleItem `json:"schedule"`
	Metrics   *PlanMetrics   `json:"metrics,omitempty"`
	CreatedAt string         `json:"created_at,omitempty"`
}

// RunKind distinguishes analysis runs from planning runs.
type RunKind string

const (
	RunAnalysis RunKind = "analysis"
	RunPlanning RunKind = "planning"
)

// RunSummary is the persisted record of one analysis or planning run.
type RunSummary struct {
	ID          string  `json:"id"`
	Kind        RunKind `json:"kind"`
	Timestamp   string  `json:"timestamp"`
	ResultCount int     `json:"result_count"`
	Algorithm   string  `json:"algorithm,omitempty"`
	Label       string  `json:"label,omitempty"`
}

// ImportRecord describes a file imported into the workspace (TLE sets,
// target lists, scene packages).
type ImportRecord struct {
	ID         string `json:"id"`
	Name       string `json:"name"`
	Kind       string `json:"kind,omitempty"`
	ImportedAt string `json:"imported_at,omitempty"`
	ItemCount  int    `json:"item_count,omitempty"`
}
