// Package loader reads a mission workspace directory into a
// model.WorkspaceSnapshot.
//
// A workspace directory holds:
//
//	workspace.json      workspace descriptor, scenario, mission data, run history
//	scene_objects.json  objects placed on the globe (optional)
//	results.json        algorithm name -> planning result (optional)
//	orders.jsonl        one order per line (optional)
//	imports.json        import records (optional)
//
// Malformed entries are skipped with a warning so one bad record never hides
// the rest of the workspace.
package loader

import (
	"bufio"
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"

	json "github.com/goccy/go-json"
	"golang.org/x/sync/errgroup"

	"github.com/vanderheijden86/orbview/pkg/metrics"
	"github.com/vanderheijden86/orbview/pkg/model"
)

// File names inside a workspace directory.
const (
	WorkspaceFile    = "workspace.json"
	SceneObjectsFile = "scene_objects.json"
	ResultsFile      = "results.json"
	OrdersFile       = "orders.jsonl"
	ImportsFile      = "imports.json"
)

// DefaultMaxBufferSize is the default maximum JSONL line size (10MB).
const DefaultMaxBufferSize = 1024 * 1024 * 10

// ErrNoWorkspace is returned when dir has no workspace.json.
var ErrNoWorkspace = errors.New("no workspace found")

// ParseOptions configures parsing behavior.
type ParseOptions struct {
	// WarningHandler is called with warning messages (e.g., malformed JSON).
	// If nil, warnings are printed to os.Stderr.
	WarningHandler func(string)

	// BufferSize sets the maximum line size (in bytes) for JSONL files.
	// Lines longer than this are skipped with a warning.
	// If 0, uses DefaultMaxBufferSize.
	BufferSize int

	// SkipOrders leaves Orders empty. Callers that read orders from a
	// different source set it.
	SkipOrders bool
}

func (o ParseOptions) warn() func(string) {
	if o.WarningHandler != nil {
		return o.WarningHandler
	}
	if os.Getenv("OV_ROBOT") == "1" {
		return func(string) {}
	}
	return func(msg string) {
		fmt.Fprintf(os.Stderr, "Warning: %s\n", msg)
	}
}

// workspaceDoc is the shape of workspace.json.
type workspaceDoc struct {
	Workspace    model.WorkspaceInfo   `json:"workspace"`
	Scenario     *model.ScenarioConfig `json:"scenario"`
	Mission      *missionDoc           `json:"mission"`
	AnalysisRuns []json.RawMessage     `json:"analysis_runs"`
	PlanningRuns []json.RawMessage     `json:"planning_runs"`
}

// missionDoc defers decoding of each entry so a malformed one can be
// skipped on its own.
type missionDoc struct {
	Satellites     []json.RawMessage `json:"satellites"`
	GroundStations []json.RawMessage `json:"ground_stations"`
	Targets        []json.RawMessage `json:"targets"`
	Passes         []json.RawMessage `json:"passes"`
}

// LoadWorkspace reads every workspace file in dir concurrently. workspace.json
// is required; the other files are optional.
func LoadWorkspace(ctx context.Context, dir string, opts ParseOptions) (model.WorkspaceSnapshot, error) {
	defer metrics.Timer(metrics.WorkspaceLoad)()

	var snap model.WorkspaceSnapshot
	warn := opts.warn()

	if _, err := os.Stat(filepath.Join(dir, WorkspaceFile)); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return snap, fmt.Errorf("%w at %s", ErrNoWorkspace, dir)
		}
		return snap, fmt.Errorf("checking workspace: %w", err)
	}

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(8)

	g.Go(func() error {
		return loadWorkspaceDoc(ctx, filepath.Join(dir, WorkspaceFile), &snap, warn)
	})
	g.Go(func() error {
		objs, err := loadSceneObjects(ctx, filepath.Join(dir, SceneObjectsFile), warn)
		snap.SceneObjects = objs
		return err
	})
	g.Go(func() error {
		results, err := loadResults(ctx, filepath.Join(dir, ResultsFile), warn)
		snap.Results = results
		return err
	})
	if !opts.SkipOrders {
		g.Go(func() error {
			orders, err := loadOptionalOrders(ctx, filepath.Join(dir, OrdersFile), opts)
			snap.Orders = orders
			return err
		})
	}
	g.Go(func() error {
		imports, err := loadImports(ctx, filepath.Join(dir, ImportsFile), warn)
		snap.Imports = imports
		return err
	})

	if err := g.Wait(); err != nil {
		return model.WorkspaceSnapshot{}, err
	}
	return snap, nil
}

// readOptional returns the file contents, or nil when the file is absent.
func readOptional(ctx context.Context, path string) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("reading %s: %w", filepath.Base(path), err)
	}
	return stripBOM(data), nil
}

func loadWorkspaceDoc(ctx context.Context, path string, snap *model.WorkspaceSnapshot, warn func(string)) error {
	data, err := readOptional(ctx, path)
	if err != nil {
		return err
	}
	var doc workspaceDoc
	if err := json.Unmarshal(data, &doc); err != nil {
		return fmt.Errorf("parsing %s: %w", WorkspaceFile, err)
	}

	snap.Workspace = doc.Workspace
	snap.Scenario = doc.Scenario
	if doc.Mission != nil {
		snap.Mission = &model.MissionData{
			Satellites:     decodeEach[model.Satellite](doc.Mission.Satellites, "satellite", warn),
			GroundStations: decodeEach[model.GroundStation](doc.Mission.GroundStations, "ground station", warn),
			Targets:        decodeEach[model.Target](doc.Mission.Targets, "target", warn),
			Passes:         decodePasses(doc.Mission.Passes, warn),
		}
	}
	snap.AnalysisRuns = decodeEach[model.RunSummary](doc.AnalysisRuns, "analysis run", warn)
	snap.PlanningRuns = decodeEach[model.RunSummary](doc.PlanningRuns, "planning run", warn)
	for i := range snap.AnalysisRuns {
		snap.AnalysisRuns[i].Kind = model.RunAnalysis
	}
	for i := range snap.PlanningRuns {
		snap.PlanningRuns[i].Kind = model.RunPlanning
	}
	return nil
}

// decodeEach decodes raw entries one by one, skipping the ones that fail.
func decodeEach[T any](raw []json.RawMessage, what string, warn func(string)) []T {
	if raw == nil {
		return nil
	}
	out := make([]T, 0, len(raw))
	for i, r := range raw {
		var v T
		if err := json.Unmarshal(r, &v); err != nil {
			warn(fmt.Sprintf("skipping malformed %s at index %d: %v", what, i, err))
			continue
		}
		out = append(out, v)
	}
	return out
}

// decodePasses decodes passes one by one. Passes are addressed by their
// position, so a pass that fails to decode is kept as a partial placeholder
// instead of being dropped.
func decodePasses(raw []json.RawMessage, warn func(string)) []model.Opportunity {
	if raw == nil {
		return nil
	}
	out := make([]model.Opportunity, 0, len(raw))
	for i, r := range raw {
		var p model.Opportunity
		if err := json.Unmarshal(r, &p); err != nil {
			warn(fmt.Sprintf("keeping malformed pass at index %d as placeholder: %v", i, err))
			p = salvagePass(r)
		}
		out = append(out, p)
	}
	return out
}

// salvagePass recovers the fields of a malformed pass that decode on their
// own.
func salvagePass(r json.RawMessage) model.Opportunity {
	p := model.Opportunity{Partial: true}
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(r, &fields); err != nil {
		return p
	}
	str := func(key string) string {
		var s string
		if v, ok := fields[key]; ok {
			_ = json.Unmarshal(v, &s)
		}
		return s
	}
	p.ID = str("id")
	p.Satellite = str("satellite_name")
	p.Target = str("target")
	p.StartTime = str("start_time")
	p.EndTime = str("end_time")
	if v, ok := fields["max_elevation"]; ok {
		_ = json.Unmarshal(v, &p.MaxElevation)
	}
	if v, ok := fields["sar"]; ok {
		var sar model.SARInfo
		if err := json.Unmarshal(v, &sar); err == nil {
			p.SAR = &sar
		}
	}
	return p
}

func loadSceneObjects(ctx context.Context, path string, warn func(string)) ([]model.SceneObject, error) {
	data, err := readOptional(ctx, path)
	if err != nil || data == nil {
		return nil, err
	}
	var raw []json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		warn(fmt.Sprintf("ignoring %s: %v", SceneObjectsFile, err))
		return nil, nil
	}
	return decodeEach[model.SceneObject](raw, "scene object", warn), nil
}

// loadResults keeps every result that decodes, including ones missing a
// schedule or metrics; the tree builder decides what is usable.
func loadResults(ctx context.Context, path string, warn func(string)) (map[string]*model.PlanResult, error) {
	data, err := readOptional(ctx, path)
	if err != nil || data == nil {
		return nil, err
	}
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		warn(fmt.Sprintf("ignoring %s: %v", ResultsFile, err))
		return nil, nil
	}
	results := make(map[string]*model.PlanResult, len(raw))
	for alg, r := range raw {
		var res model.PlanResult
		if err := json.Unmarshal(r, &res); err != nil {
			warn(fmt.Sprintf("skipping malformed result %q: %v", alg, err))
			continue
		}
		results[alg] = &res
	}
	return results, nil
}

func loadImports(ctx context.Context, path string, warn func(string)) ([]model.ImportRecord, error) {
	data, err := readOptional(ctx, path)
	if err != nil || data == nil {
		return nil, err
	}
	var raw []json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		warn(fmt.Sprintf("ignoring %s: %v", ImportsFile, err))
		return nil, nil
	}
	return decodeEach[model.ImportRecord](raw, "import record", warn), nil
}

func loadOptionalOrders(ctx context.Context, path string, opts ParseOptions) ([]model.Order, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	orders, err := LoadOrdersFromFile(path, opts)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	return orders, err
}

// LoadOrdersFromFile reads orders from a JSONL file.
func LoadOrdersFromFile(path string, opts ParseOptions) ([]model.Order, error) {
	file, err := os.Open(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to open orders file: %w", err)
	}
	defer file.Close()
	return ParseOrders(file, opts)
}

// ParseOrders parses JSONL content into orders. Blank lines are ignored;
// malformed lines, overlong lines and orders without an id are skipped with
// a warning.
func ParseOrders(r io.Reader, opts ParseOptions) ([]model.Order, error) {
	maxCapacity := opts.BufferSize
	if maxCapacity <= 0 {
		maxCapacity = DefaultMaxBufferSize
	}
	reader := bufio.NewReaderSize(r, maxCapacity)
	warn := opts.warn()

	var orders []model.Order
	lineNum := 0
	for {
		lineNum++
		line, isPrefix, err := reader.ReadLine()
		if err != nil {
			if err == io.EOF {
				break
			}
			return nil, fmt.Errorf("error reading orders stream at line %d: %w", lineNum, err)
		}

		if isPrefix {
			warn(fmt.Sprintf("skipping line %d: line too long (exceeds %d bytes)", lineNum, maxCapacity))
			for isPrefix {
				_, isPrefix, err = reader.ReadLine()
				if err == io.EOF {
					break
				}
				if err != nil {
					return nil, fmt.Errorf("error skipping long line at line %d: %w", lineNum, err)
				}
			}
			continue
		}

		if lineNum == 1 {
			line = stripBOM(line)
		}
		if len(bytes.TrimSpace(line)) == 0 {
			continue
		}

		var order model.Order
		if err := json.Unmarshal(line, &order); err != nil {
			warn(fmt.Sprintf("skipping malformed JSON on line %d: %v", lineNum, err))
			continue
		}
		if order.OrderID == "" {
			warn(fmt.Sprintf("skipping order without order_id on line %d", lineNum))
			continue
		}
		orders = append(orders, order)
	}
	return orders, nil
}

// WriteOrders writes orders as JSONL.
func WriteOrders(w io.Writer, orders []model.Order) error {
	enc := json.NewEncoder(w)
	for _, o := range orders {
		if err := enc.Encode(o); err != nil {
			return fmt.Errorf("encoding order %s: %w", o.OrderID, err)
		}
	}
	return nil
}

// stripBOM removes the UTF-8 Byte Order Mark if present.
func stripBOM(b []byte) []byte {
	if bytes.HasPrefix(b, []byte{0xEF, 0xBB, 0xBF}) {
		return b[3:]
	}
	return b
}
