// Package testutil provides deterministic workspace fixtures for tests.
// All generators produce the same output for the same seed.
package testutil

import (
	"fmt"
	"math/rand"
	"strings"
	"time"

	json "github.com/goccy/go-json"

	"github.com/vanderheijden86/orbview/pkg/model"
)

// GeneratorConfig controls snapshot generation.
type GeneratorConfig struct {
	Seed            int64     // Random seed for determinism (0 = use current time)
	Satellites      int       // Mission satellites
	GroundStations  int       // Mission ground stations
	Targets         int       // Mission targets
	PassesPerTarget int       // Passes generated per target
	SARFraction     float64   // Share of passes that carry SAR geometry
	Algorithms      []string  // Planning algorithms with a result
	Orders          int       // Orders promoted from the first algorithm
	BaseTime        time.Time // Start of the mission window
}

// DefaultConfig returns a config suitable for most tests.
func DefaultConfig() GeneratorConfig {
	return GeneratorConfig{
		Seed:            42,
		Satellites:      3,
		GroundStations:  2,
		Targets:         5,
		PassesPerTarget: 2,
		SARFraction:     0.5,
		Algorithms:      []string{"first_fit", "roll_pitch_best_fit"},
		Orders:          1,
		BaseTime:        time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC),
	}
}

// Generator creates workspace snapshots.
type Generator struct {
	cfg GeneratorConfig
	rng *rand.Rand
}

// New creates a Generator with the given config.
func New(cfg GeneratorConfig) *Generator {
	seed := cfg.Seed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	if cfg.BaseTime.IsZero() {
		cfg.BaseTime = time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC)
	}
	return &Generator{
		cfg: cfg,
		rng: rand.New(rand.NewSource(seed)),
	}
}

// NewDefault creates a Generator with default config.
func NewDefault() *Generator {
	return New(DefaultConfig())
}

func stamp(t time.Time) string {
	return t.UTC().Format(time.RFC3339)
}

// SatelliteName returns the name of the i-th generated satellite.
func SatelliteName(i int) string { return fmt.Sprintf("SAT-%02d", i+1) }

// TargetName returns the name of the i-th generated target.
func TargetName(i int) string { return fmt.Sprintf("Target %02d", i+1) }

// Snapshot generates a complete workspace snapshot.
func (g *Generator) Snapshot() model.WorkspaceSnapshot {
	cfg := g.cfg
	snap := model.WorkspaceSnapshot{
		Workspace: model.WorkspaceInfo{ID: fmt.Sprintf("ws-%d", cfg.Seed), Name: "Generated Workspace"},
		Scenario: &model.ScenarioConfig{
			Name:       "Generated Scenario",
			Start:      stamp(cfg.BaseTime),
			End:        stamp(cfg.BaseTime.Add(24 * time.Hour)),
			Sensor:     model.SensorConfig{FOVHalfAngle: 1.5, MaxOffNadir: 45},
			Spacecraft: model.SpacecraftConfig{MaxRoll: 45, MaxPitch: 30, RollRate: 1, PitchRate: 1, SettleTime: 5},
			Planning:   model.PlanningConfig{ImagingTime: 10, QualityModel: "monotonic", ValueWeight: 1},
		},
		Mission: &model.MissionData{},
	}

	for i := 0; i < cfg.Satellites; i++ {
		snap.Mission.Satellites = append(snap.Mission.Satellites, model.Satellite{
			ID:   fmt.Sprintf("sat-%d", i+1),
			Name: SatelliteName(i),
			TLE1: "1 00000U 00000A   25001.50000000  .00000000  00000-0  00000-0 0  0000",
			TLE2: "2 00000  97.5000   0.0000 0001000   0.0000   0.0000 15.00000000    00",
		})
	}
	for i := 0; i < cfg.GroundStations; i++ {
		snap.Mission.GroundStations = append(snap.Mission.GroundStations, model.GroundStation{
			ID:   fmt.Sprintf("gs-%d", i+1),
			Name: fmt.Sprintf("Station %d", i+1),
			Lat:  g.lat(),
			Lon:  g.lon(),
		})
	}
	for i := 0; i < cfg.Targets; i++ {
		snap.Mission.Targets = append(snap.Mission.Targets, model.Target{
			Name:     TargetName(i),
			Lat:      g.lat(),
			Lon:      g.lon(),
			Priority: 1 + g.rng.Intn(5),
		})
	}

	at := cfg.BaseTime
	for i := 0; i < cfg.Targets; i++ {
		for j := 0; j < cfg.PassesPerTarget; j++ {
			at = at.Add(time.Duration(10+g.rng.Intn(50)) * time.Minute)
			pass := model.Opportunity{
				ID:           fmt.Sprintf("pass-%d-%d", i, j),
				Satellite:    g.satellite(),
				Target:       TargetName(i),
				StartTime:    stamp(at),
				EndTime:      stamp(at.Add(time.Duration(60+g.rng.Intn(540)) * time.Second)),
				MaxElevation: 20 + g.rng.Float64()*70,
			}
			if g.rng.Float64() < cfg.SARFraction {
				pass.SAR = g.sar()
			}
			snap.Mission.Passes = append(snap.Mission.Passes, pass)
		}
	}

	if len(cfg.Algorithms) > 0 {
		snap.Results = make(map[string]*model.PlanResult, len(cfg.Algorithms))
		for _, alg := range cfg.Algorithms {
			snap.Results[alg] = g.plan(snap.Mission.Passes)
		}
		for i := 0; i < cfg.Orders; i++ {
			res := snap.Results[cfg.Algorithms[0]]
			snap.Orders = append(snap.Orders, model.Order{
				OrderID:   fmt.Sprintf("ord-%d", i+1),
				Algorithm: cfg.Algorithms[0],
				Schedule:  append([]model.ScheduleItem(nil), res.Schedule...),
				CreatedAt: stamp(cfg.BaseTime.Add(time.Duration(i) * time.Hour)),
			})
		}
		snap.PlanningRuns = append(snap.PlanningRuns, model.RunSummary{
			ID:          "plan-run-1",
			Kind:        model.RunPlanning,
			Timestamp:   stamp(cfg.BaseTime.Add(time.Hour)),
			ResultCount: len(cfg.Algorithms),
			Algorithm:   cfg.Algorithms[0],
		})
	}
	snap.AnalysisRuns = append(snap.AnalysisRuns, model.RunSummary{
		ID:          "analysis-run-1",
		Kind:        model.RunAnalysis,
		Timestamp:   stamp(cfg.BaseTime),
		ResultCount: len(snap.Mission.Passes),
	})
	return snap
}

// plan picks a pass-ordered subset of passes as a schedule.
func (g *Generator) plan(passes []model.Opportunity) *model.PlanResult {
	var items []model.ScheduleItem
	value := 0.0
	for _, p := range passes {
		if g.rng.Intn(2) == 0 {
			continue
		}
		v := float64(1 + g.rng.Intn(10))
		value += v
		items = append(items, model.ScheduleItem{
			OpportunityID: p.ID,
			Satellite:     p.Satellite,
			Target:        p.Target,
			StartTime:     p.StartTime,
			EndTime:       p.EndTime,
			Roll:          g.rng.Float64()*60 - 30,
			Value:         v,
		})
	}
	if items == nil {
		items = []model.ScheduleItem{}
	}
	return &model.PlanResult{
		Schedule: items,
		Metrics: &model.PlanMetrics{
			Accepted:   len(items),
			Evaluated:  len(passes),
			Rejected:   len(passes) - len(items),
			TotalValue: value,
		},
	}
}

func (g *Generator) lat() float64 { return g.rng.Float64()*160 - 80 }
func (g *Generator) lon() float64 { return g.rng.Float64()*360 - 180 }

func (g *Generator) satellite() string {
	if g.cfg.Satellites == 0 {
		return "SAT-00"
	}
	return SatelliteName(g.rng.Intn(g.cfg.Satellites))
}

func (g *Generator) sar() *model.SARInfo {
	side := model.LookLeft
	if g.rng.Intn(2) == 1 {
		side = model.LookRight
	}
	dir := model.PassAscending
	if g.rng.Intn(2) == 1 {
		dir = model.PassDescending
	}
	return &model.SARInfo{
		LookSide:       side,
		PassDirection:  dir,
		IncidenceAngle: 20 + g.rng.Float64()*25,
		ImagingMode:    "stripmap",
	}
}

// ============================================================================
// Hand-written fixtures
// ============================================================================

// Sample returns a small fixed workspace: two satellites (one also placed in
// the scene), one ground station, three targets, four optical passes, two
// valid plans plus one malformed result, one matching order and one stale
// order, two analysis runs, one planning run and one import.
func Sample() model.WorkspaceSnapshot {
	return model.WorkspaceSnapshot{
		Workspace: model.WorkspaceInfo{ID: "ws-demo", Name: "Demo Workspace"},
		Scenario: &model.ScenarioConfig{
			Name:       "Europe Week",
			Start:      "2025-03-01T00:00:00Z",
			End:        "2025-03-08T00:00:00Z",
			Sensor:     model.SensorConfig{FOVHalfAngle: 1.2, MaxOffNadir: 45},
			Spacecraft: model.SpacecraftConfig{MaxRoll: 45, MaxPitch: 30},
			Planning:   model.PlanningConfig{ImagingTime: 8, QualityModel: "band"},
		},
		SceneObjects: []model.SceneObject{
			{ID: "scene-sat-a", Name: "SAT-A", Type: model.SceneSatellite, Color: "#ff0000"},
			{ID: "scene-athens", Name: "Athens", Type: model.SceneTarget, Position: &model.Position{Lat: 37.98, Lon: 23.73}, Priority: 5},
		},
		Mission: &model.MissionData{
			Satellites: []model.Satellite{
				{ID: "sat-a", Name: "SAT-A", Color: "#00ff00"},
				{ID: "sat-b", Name: "SAT-B"},
			},
			GroundStations: []model.GroundStation{
				{ID: "gs-svalbard", Name: "Svalbard", Lat: 78.23, Lon: 15.41},
			},
			Targets: []model.Target{
				{Name: "Athens", Lat: 37.9, Lon: 23.7, Priority: 1},
				{Name: "Berlin", Lat: 52.52, Lon: 13.40, Priority: 2},
				{Name: "Cairo", Lat: 30.04, Lon: 31.24, Priority: 3},
			},
			Passes: []model.Opportunity{
				{ID: "p0", Satellite: "SAT-A", Target: "Athens", StartTime: "2025-03-01T09:00:00Z", EndTime: "2025-03-01T09:05:30Z", MaxElevation: 80},
				{ID: "p1", Satellite: "SAT-B", Target: "Berlin", StartTime: "2025-03-01T10:00:00Z", EndTime: "2025-03-01T10:04:00Z", MaxElevation: 60},
				{ID: "p2", Satellite: "SAT-A", Target: "Cairo", StartTime: "2025-03-01T11:00:00Z", EndTime: "2025-03-01T11:03:00Z", MaxElevation: 45},
				{ID: "p3", Satellite: "SAT-B", Target: "Athens", StartTime: "2025-03-01T12:00:00Z", EndTime: "2025-03-01T12:02:00Z", MaxElevation: 70},
			},
		},
		Results: map[string]*model.PlanResult{
			"first_fit": {
				Schedule: []model.ScheduleItem{
					{OpportunityID: "p0", Satellite: "SAT-A", Target: "Athens", StartTime: "2025-03-01T09:01:00Z"},
					{OpportunityID: "p1", Satellite: "SAT-B", Target: "Berlin", StartTime: "2025-03-01T10:01:00Z"},
				},
				Metrics: &model.PlanMetrics{Accepted: 2, Evaluated: 4, Rejected: 2},
			},
			"roll_pitch_best_fit": {
				Schedule: []model.ScheduleItem{
					{OpportunityID: "p2", Satellite: "SAT-A", Target: "Cairo", StartTime: "2025-03-01T11:01:00Z"},
				},
				Metrics: &model.PlanMetrics{Accepted: 1, Evaluated: 4, Rejected: 3},
			},
			"broken": {Schedule: []model.ScheduleItem{}},
		},
		Orders: []model.Order{
			{
				OrderID:   "ord-1",
				Algorithm: "first_fit",
				Schedule: []model.ScheduleItem{
					{Satellite: "SAT-A", Target: "Athens", StartTime: "2025-03-01T09:01:00Z"},
					{Satellite: "SAT-B", Target: "Berlin", StartTime: "2025-03-01T10:01:00Z"},
				},
				CreatedAt: "2025-03-01T13:00:00Z",
			},
			{
				OrderID:   "ord-stale",
				Algorithm: "first_fit",
				Schedule: []model.ScheduleItem{
					{Satellite: "SAT-A", Target: "Cairo", StartTime: "2025-02-01T09:00:00Z"},
				},
				CreatedAt: "2025-02-01T13:00:00Z",
			},
		},
		AnalysisRuns: []model.RunSummary{
			{ID: "a1", Kind: model.RunAnalysis, Timestamp: "2025-03-01T08:00:00Z", ResultCount: 4},
			{ID: "a2", Kind: model.RunAnalysis, Timestamp: "2025-03-01T08:30:00Z", ResultCount: 4},
		},
		PlanningRuns: []model.RunSummary{
			{ID: "r1", Kind: model.RunPlanning, Timestamp: "2025-03-01T12:30:00Z", ResultCount: 2, Algorithm: "first_fit"},
		},
		Imports: []model.ImportRecord{
			{ID: "imp-1", Name: "europe_targets.csv", Kind: "targets", ImportedAt: "2025-02-28T10:00:00Z", ItemCount: 3},
		},
	}
}

// SARSample returns Sample with SAR geometry on some passes: p0 looks left,
// p1 looks right, p2 is SAR with an unrecognized look side and p3 stays
// optical.
func SARSample() model.WorkspaceSnapshot {
	snap := Sample()
	passes := append([]model.Opportunity(nil), snap.Mission.Passes...)
	passes[0].SAR = &model.SARInfo{LookSide: model.LookLeft, PassDirection: model.PassAscending}
	passes[1].SAR = &model.SARInfo{LookSide: model.LookRight, PassDirection: model.PassDescending}
	passes[2].SAR = &model.SARInfo{LookSide: "", PassDirection: model.PassAscending}
	mission := *snap.Mission
	mission.Passes = passes
	snap.Mission = &mission
	return snap
}

// MergedSourcesSample returns a snapshot whose inventories come from two
// sources: one satellite only in scene objects, one only in mission data,
// and three targets of which Athens appears in both. One roll-pitch plan
// with two accepted items has a matching order.
func MergedSourcesSample() model.WorkspaceSnapshot {
	schedule := []model.ScheduleItem{
		{OpportunityID: "p0", Satellite: "SAT-SCENE", Target: "Athens", StartTime: "2025-03-01T09:01:00Z"},
		{OpportunityID: "p1", Satellite: "SAT-MISSION", Target: "Berlin", StartTime: "2025-03-01T10:01:00Z"},
	}
	return model.WorkspaceSnapshot{
		Workspace: model.WorkspaceInfo{ID: "ws-merged", Name: "Merged Sources"},
		SceneObjects: []model.SceneObject{
			{ID: "scene-sat", Name: "SAT-SCENE", Type: model.SceneSatellite},
			{ID: "scene-athens", Name: "Athens", Type: model.SceneTarget, Position: &model.Position{Lat: 37.98, Lon: 23.73}},
		},
		Mission: &model.MissionData{
			Satellites: []model.Satellite{{ID: "sat-m", Name: "SAT-MISSION"}},
			Targets: []model.Target{
				{Name: "Athens", Lat: 37.9, Lon: 23.7},
				{Name: "Berlin", Lat: 52.52, Lon: 13.40},
				{Name: "Cairo", Lat: 30.04, Lon: 31.24},
			},
			Passes: []model.Opportunity{
				{ID: "p0", Satellite: "SAT-SCENE", Target: "Athens", StartTime: "2025-03-01T09:00:00Z", EndTime: "2025-03-01T09:05:00Z", MaxElevation: 70},
				{ID: "p1", Satellite: "SAT-MISSION", Target: "Berlin", StartTime: "2025-03-01T10:00:00Z", EndTime: "2025-03-01T10:04:00Z", MaxElevation: 55},
			},
		},
		Results: map[string]*model.PlanResult{
			"roll_pitch_best_fit": {
				Schedule: schedule,
				Metrics:  &model.PlanMetrics{Accepted: 2, Evaluated: 2},
			},
		},
		Orders: []model.Order{
			{
				OrderID:   "ord-rp",
				Algorithm: "roll_pitch_best_fit",
				Schedule:  append([]model.ScheduleItem(nil), schedule...),
				CreatedAt: "2025-03-01T11:00:00Z",
			},
		},
	}
}

// Empty returns a snapshot with only a workspace name.
func Empty() model.WorkspaceSnapshot {
	return model.WorkspaceSnapshot{Workspace: model.WorkspaceInfo{Name: "Empty"}}
}

// ToJSONL converts orders to JSONL format.
func ToJSONL(orders []model.Order) string {
	var sb strings.Builder
	for _, o := range orders {
		data, err := json.Marshal(o)
		if err != nil {
			continue
		}
		sb.Write(data)
		sb.WriteByte('\n')
	}
	return sb.String()
}
