package explorer

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"

	"github.com/vanderheijden86/orbview/pkg/debug"
	"github.com/vanderheijden86/orbview/pkg/metrics"
	"github.com/vanderheijden86/orbview/pkg/model"
)

// Run history caps. Older runs are evicted first.
const (
	MaxAnalysisRuns = 20
	MaxPlanningRuns = 50
)

// Fixed ids of the structural nodes.
const (
	IDWorkspace          = "workspace"
	IDScenario           = "scenario"
	IDAssets             = "assets"
	IDSatellites         = "assets_satellites"
	IDGroundStations     = "assets_ground_stations"
	IDTargets            = "targets"
	IDConstraints        = "constraints"
	IDSensorConstraint   = "constraint_sensor"
	IDCraftConstraint    = "constraint_spacecraft"
	IDPlanningConstraint = "constraint_planning"
	IDRuns               = "runs"
	IDAnalysisRuns       = "runs_analysis"
	IDPlanningRuns       = "runs_planning"
	IDResults            = "results"
	IDOpportunities      = "results_opportunities"
	IDLeftLooking        = "opportunities_left"
	IDRightLooking       = "opportunities_right"
	IDOtherLooking       = "opportunities_other"
	IDPlans              = "results_plans"
	IDOrders             = "results_orders"
	IDImports            = "imports"
)

// Source tags recorded on merged inventory entries.
const (
	sourceScene   = "scene"
	sourceMission = "mission"
	sourceBoth    = "scene+mission"
)

// NoCoverageNote is shown on the planning constraint when no plan exists.
const NoCoverageNote = "run mission planning to compute target coverage"

// Build maps a workspace snapshot into a fresh explorer tree. It never fails:
// malformed entities are skipped or given placeholder labels so one bad
// record cannot blank the tree. Building the same snapshot twice yields
// structurally equal trees.
func Build(snap model.WorkspaceSnapshot) *Node {
	defer metrics.Timer(metrics.TreeBuild)()

	b := &builder{snap: &snap}
	targets := b.mergeTargets()

	name := strings.TrimSpace(snap.Workspace.Name)
	if name == "" {
		name = "Workspace"
	}
	root := &Node{
		ID:         IDWorkspace,
		Type:       TypeWorkspace,
		Name:       name,
		Meta:       WorkspaceMeta{WorkspaceID: snap.Workspace.ID, Name: name},
		Expandable: true,
	}
	root.Children = []*Node{
		b.scenarioNode(),
		b.assetsNode(),
		b.targetsNode(targets),
		b.constraintsNode(targets),
		b.runsNode(),
		b.resultsNode(),
		b.importsNode(),
	}
	return root
}

type builder struct {
	snap *model.WorkspaceSnapshot
}

func group(id string, typ NodeType, name string, children []*Node, badge *Badge) *Node {
	return &Node{
		ID:         id,
		Type:       typ,
		Name:       name,
		Badge:      badge,
		Meta:       GroupMeta{Section: id, Items: len(children)},
		Children:   children,
		Expandable: true,
	}
}

func (b *builder) scenarioNode() *Node {
	meta := ScenarioMeta{}
	name := "Scenario"
	if sc := b.snap.Scenario; sc != nil {
		meta = ScenarioMeta{Name: sc.Name, Start: sc.Start, End: sc.End}
		if n := strings.TrimSpace(sc.Name); n != "" {
			name = n
		}
	}
	return &Node{ID: IDScenario, Type: TypeScenario, Name: name, Meta: meta}
}

// ── Assets ──

func (b *builder) assetsNode() *Node {
	sats := b.satelliteNodes()
	stations := b.groundStationNodes()
	return group(IDAssets, TypeAssetGroup, "Assets", []*Node{
		group(IDSatellites, TypeAssetGroup, "Satellites", sats, newBadge(len(sats), SeverityBlue)),
		group(IDGroundStations, TypeGroundStationGroup, "Ground Stations", stations, newBadge(len(stations), SeverityNeutral)),
	}, nil)
}

// mergeByName unions scene objects of one type with mission entries, keyed
// by name. Scene objects come first in their own order, then mission-only
// entries in mission order. Names seen twice within one source keep the
// first occurrence.
func mergeByName[M any](scene []model.SceneObject, typ model.SceneObjectType, mission []M, nameOf func(M) string) (order []string, fromScene map[string]model.SceneObject, fromMission map[string]M) {
	fromScene = make(map[string]model.SceneObject)
	fromMission = make(map[string]M)
	for _, obj := range scene {
		if obj.Type != typ {
			continue
		}
		name := strings.TrimSpace(obj.Name)
		if name == "" {
			continue
		}
		if _, dup := fromScene[name]; dup {
			debug.Log("explorer: duplicate %s scene object %q, keeping first", typ, name)
			continue
		}
		fromScene[name] = obj
		order = append(order, name)
	}
	for _, m := range mission {
		name := strings.TrimSpace(nameOf(m))
		if name == "" {
			continue
		}
		if _, dup := fromMission[name]; dup {
			debug.Log("explorer: duplicate %s mission entry %q, keeping first", typ, name)
			continue
		}
		fromMission[name] = m
		if _, inScene := fromScene[name]; inScene {
			debug.Log("explorer: %s %q present in both sources, scene object wins", typ, name)
			continue
		}
		order = append(order, name)
	}
	return order, fromScene, fromMission
}

func sourceTag(inScene, inMission bool) string {
	switch {
	case inScene && inMission:
		return sourceBoth
	case inScene:
		return sourceScene
	default:
		return sourceMission
	}
}

func (b *builder) satelliteNodes() []*Node {
	var mission []model.Satellite
	if b.snap.Mission != nil {
		mission = b.snap.Mission.Satellites
	}
	order, scene, fromMission := mergeByName(b.snap.SceneObjects, model.SceneSatellite, mission,
		func(s model.Satellite) string { return s.Name })

	nodes := make([]*Node, 0, len(order))
	for _, name := range order {
		obj, inScene := scene[name]
		sat, inMission := fromMission[name]
		meta := SatelliteMeta{Source: sourceTag(inScene, inMission)}
		if inMission {
			meta.SourceID = sat.ID
			meta.Color = sat.Color
			meta.TLE1 = sat.TLE1
			meta.TLE2 = sat.TLE2
		}
		if inScene {
			if obj.ID != "" {
				meta.SourceID = obj.ID
			}
			if obj.Color != "" {
				meta.Color = obj.Color
			}
		}
		nodes = append(nodes, &Node{
			ID:   "satellite_" + name,
			Type: TypeSatellite,
			Name: name,
			Meta: meta,
		})
	}
	return nodes
}

func (b *builder) groundStationNodes() []*Node {
	var mission []model.GroundStation
	if b.snap.Mission != nil {
		mission = b.snap.Mission.GroundStations
	}
	order, scene, fromMission := mergeByName(b.snap.SceneObjects, model.SceneGroundStation, mission,
		func(g model.GroundStation) string { return g.Name })

	nodes := make([]*Node, 0, len(order))
	for _, name := range order {
		obj, inScene := scene[name]
		gs, inMission := fromMission[name]
		meta := GroundStationMeta{Source: sourceTag(inScene, inMission)}
		if inMission {
			meta.SourceID = gs.ID
			meta.Position = model.Position{Lat: gs.Lat, Lon: gs.Lon, Alt: gs.Alt}
		}
		if inScene {
			if obj.ID != "" {
				meta.SourceID = obj.ID
			}
			if obj.Position != nil {
				meta.Position = *obj.Position
			}
		}
		nodes = append(nodes, &Node{
			ID:   "ground_station_" + name,
			Type: TypeGroundStation,
			Name: name,
			Meta: meta,
		})
	}
	return nodes
}

// ── Targets ──

type mergedTarget struct {
	name string
	meta TargetMeta
}

func (b *builder) mergeTargets() []mergedTarget {
	var mission []model.Target
	if b.snap.Mission != nil {
		mission = b.snap.Mission.Targets
	}
	order, scene, fromMission := mergeByName(b.snap.SceneObjects, model.SceneTarget, mission,
		func(t model.Target) string { return t.Name })

	elevations := make(map[string][]float64)
	for _, p := range b.snap.Passes() {
		if p.Partial {
			continue
		}
		elevations[p.Target] = append(elevations[p.Target], p.MaxElevation)
	}

	out := make([]mergedTarget, 0, len(order))
	for _, name := range order {
		obj, inScene := scene[name]
		tgt, inMission := fromMission[name]
		meta := TargetMeta{Source: sourceTag(inScene, inMission)}
		if inMission {
			meta.Position = model.Position{Lat: tgt.Lat, Lon: tgt.Lon}
			meta.Priority = tgt.Priority
			meta.Color = tgt.Color
		}
		if inScene {
			meta.SourceID = obj.ID
			if obj.Position != nil {
				meta.Position = *obj.Position
			}
			if obj.Priority != 0 {
				meta.Priority = obj.Priority
			}
			if obj.Color != "" {
				meta.Color = obj.Color
			}
		}
		if elev := elevations[name]; len(elev) > 0 {
			best := 90 - floats.Max(elev)
			mean := 90 - stat.Mean(elev, nil)
			meta.PassCount = len(elev)
			meta.BestOffNadir = &best
			meta.MeanOffNadir = &mean
		}
		out = append(out, mergedTarget{name: name, meta: meta})
	}
	return out
}

func (b *builder) targetsNode(targets []mergedTarget) *Node {
	nodes := make([]*Node, 0, len(targets))
	for _, t := range targets {
		nodes = append(nodes, &Node{
			ID:   "target_" + t.name,
			Type: TypeTarget,
			Name: t.name,
			Meta: t.meta,
		})
	}
	return group(IDTargets, TypeTargetGroup, "Targets", nodes, newBadge(len(nodes), SeverityInfo))
}

// ── Constraints ──

func (b *builder) constraintsNode(targets []mergedTarget) *Node {
	var sensor, craft, planning ConstraintMeta
	sensor.Section = "sensor"
	craft.Section = "spacecraft"
	planning.Section = "planning"

	if sc := b.snap.Scenario; sc != nil {
		sensor.Values = map[string]float64{
			"fov_half_angle_deg": sc.Sensor.FOVHalfAngle,
			"max_off_nadir_deg":  sc.Sensor.MaxOffNadir,
		}
		craft.Values = map[string]float64{
			"max_roll_deg":   sc.Spacecraft.MaxRoll,
			"max_pitch_deg":  sc.Spacecraft.MaxPitch,
			"roll_rate_dps":  sc.Spacecraft.RollRate,
			"pitch_rate_dps": sc.Spacecraft.PitchRate,
			"settle_time_s":  sc.Spacecraft.SettleTime,
		}
		planning.Values = map[string]float64{
			"imaging_time_s": sc.Planning.ImagingTime,
			"value_weight":   sc.Planning.ValueWeight,
		}
		if sc.Planning.QualityModel != "" {
			planning.Labels = map[string]string{"quality_model": sc.Planning.QualityModel}
		}
	}

	switch {
	case !b.snap.HasResults():
		planning.CoverageNote = NoCoverageNote
	case len(targets) == 0:
		planning.CoverageNote = "no targets defined"
	default:
		cov := b.coverage(targets)
		planning.Coverage = &cov
	}

	return group(IDConstraints, TypeConstraintGroup, "Constraints", []*Node{
		{ID: IDSensorConstraint, Type: TypeConstraintItem, Name: "Sensor", Meta: sensor},
		{ID: IDCraftConstraint, Type: TypeConstraintItem, Name: "Spacecraft", Meta: craft},
		{ID: IDPlanningConstraint, Type: TypeConstraintItem, Name: "Planning", Meta: planning},
	}, nil)
}

// coverage is the percentage of known targets scheduled by any valid plan.
func (b *builder) coverage(targets []mergedTarget) float64 {
	known := make(map[string]bool, len(targets))
	for _, t := range targets {
		known[t.name] = true
	}
	covered := make(map[string]bool)
	for _, res := range b.snap.Results {
		if !res.Valid() {
			continue
		}
		for _, item := range res.Schedule {
			if known[item.Target] {
				covered[item.Target] = true
			}
		}
	}
	return 100 * float64(len(covered)) / float64(len(targets))
}

// ── Runs ──

func (b *builder) runsNode() *Node {
	analysis := runNodes(b.snap.AnalysisRuns, MaxAnalysisRuns, TypeAnalysisRun, "analysis_run_", "Analysis")
	planning := runNodes(b.snap.PlanningRuns, MaxPlanningRuns, TypePlanningRun, "planning_run_", "Planning")
	return group(IDRuns, TypeRunGroup, "Runs", []*Node{
		group(IDAnalysisRuns, TypeRunGroup, "Analysis Runs", analysis, newBadge(len(analysis), SeverityNeutral)),
		group(IDPlanningRuns, TypeRunGroup, "Planning Runs", planning, newBadge(len(planning), SeverityNeutral)),
	}, nil)
}

type parsedRun struct {
	run model.RunSummary
	at  time.Time
	ok  bool
	pos int
}

// runNodes returns the newest limit runs, newest first. Runs with an
// unparsable timestamp sort after dated runs in input order and are
// labelled with an unknown time.
func runNodes(runs []model.RunSummary, limit int, typ NodeType, prefix, label string) []*Node {
	parsed := make([]parsedRun, 0, len(runs))
	for i, r := range runs {
		at, err := model.ParseTime(r.Timestamp)
		parsed = append(parsed, parsedRun{run: r, at: at, ok: err == nil, pos: i})
	}
	sort.SliceStable(parsed, func(i, j int) bool {
		a, b := parsed[i], parsed[j]
		if a.ok != b.ok {
			return a.ok
		}
		if a.ok && !a.at.Equal(b.at) {
			return a.at.After(b.at)
		}
		return a.pos < b.pos
	})

	seen := make(map[string]bool)
	nodes := make([]*Node, 0, min(limit, len(parsed)))
	for _, p := range parsed {
		if len(nodes) >= limit {
			break
		}
		key := p.run.ID
		if key == "" {
			key = p.run.Timestamp
		}
		if key == "" {
			key = fmt.Sprintf("pos%d", p.pos)
		}
		id := prefix + key
		if seen[id] {
			debug.Log("explorer: duplicate run %s, keeping newest", id)
			continue
		}
		seen[id] = true

		name := label
		if p.run.Label != "" {
			name = p.run.Label
		} else if p.run.Algorithm != "" {
			name = label + " · " + AlgorithmName(p.run.Algorithm)
		}
		if p.ok {
			name += " · " + p.at.Format("2006-01-02 15:04")
		} else {
			name += " · unknown time"
		}
		nodes = append(nodes, &Node{
			ID:    id,
			Type:  typ,
			Name:  name,
			Badge: newBadge(p.run.ResultCount, SeverityInfo),
			Meta:  RunMeta{Run: p.run, TimeParsed: p.ok},
		})
	}
	return nodes
}

// ── Imports ──

func (b *builder) importsNode() *Node {
	seen := make(map[string]bool)
	var nodes []*Node
	for _, rec := range b.snap.Imports {
		if rec.ID == "" || seen[rec.ID] {
			continue
		}
		seen[rec.ID] = true
		name := rec.Name
		if name == "" {
			name = rec.ID
		}
		nodes = append(nodes, &Node{
			ID:    "import_" + rec.ID,
			Type:  TypeImportItem,
			Name:  name,
			Badge: newBadge(rec.ItemCount, SeverityNeutral),
			Meta:  ImportMeta{Record: rec},
		})
	}
	return group(IDImports, TypeImportGroup, "Imports", nodes, newBadge(len(nodes), SeverityNeutral))
}

// AlgorithmName turns an algorithm key such as "roll_pitch_best_fit" into a
// display name. Casers keep state, so each call gets its own.
func AlgorithmName(key string) string {
	return cases.Title(language.English).String(strings.ReplaceAll(key, "_", " "))
}
