package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"runtime/pprof"
	"strconv"
	"strings"
	"sync"
	"syscall"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"golang.org/x/term"

	"github.com/vanderheijden86/orbview/internal/datasource"
	"github.com/vanderheijden86/orbview/pkg/config"
	"github.com/vanderheijden86/orbview/pkg/debug"
	"github.com/vanderheijden86/orbview/pkg/explorer"
	"github.com/vanderheijden86/orbview/pkg/loader"
	"github.com/vanderheijden86/orbview/pkg/metrics"
	"github.com/vanderheijden86/orbview/pkg/model"
	"github.com/vanderheijden86/orbview/pkg/recipe"
	"github.com/vanderheijden86/orbview/pkg/state"
	"github.com/vanderheijden86/orbview/pkg/ui"
	"github.com/vanderheijden86/orbview/pkg/version"
	"github.com/vanderheijden86/orbview/pkg/watcher"
)

// watchedFiles are the workspace files whose change triggers a rebuild.
var watchedFiles = []string{
	loader.WorkspaceFile,
	loader.SceneObjectsFile,
	loader.ResultsFile,
	loader.OrdersFile,
	loader.ImportsFile,
	datasource.DatabaseFile,
}

func main() {
	cpuProfile := flag.String("cpu-profile", "", "Write CPU profile to file")
	help := flag.Bool("help", false, "Show help")
	versionFlag := flag.Bool("version", false, "Show version")
	dirFlag := flag.String("dir", "", "Workspace directory or registered workspace name (default: $OV_WORKSPACE_DIR or .)")
	robotTree := flag.Bool("robot-tree", false, "Print the full explorer tree as JSON and exit")
	robotVisible := flag.Bool("robot-visible", false, "Print the visible rows as JSON and exit")
	searchFlag := flag.String("search", "", "Filter the tree by a case-insensitive name query")
	targetFlag := flag.String("target", "", "Restrict opportunities to one target")
	checkSources := flag.Bool("check-sources", false, "Compare the workspace's order sources and exit")
	recipeFlag := flag.String("recipe", "", "Open a named view preset (see --robot-recipes)")
	robotRecipes := flag.Bool("robot-recipes", false, "List the available view presets as JSON and exit")
	robotMetrics := flag.Bool("robot-metrics", false, "Load and build the tree, then print timing metrics as JSON and exit")
	flag.Parse()

	stopProfile, err := startCPUProfile(*cpuProfile)
	if err != nil {
		fmt.Fprintf(os.Stderr, "%v\n", err)
		os.Exit(1)
	}
	defer stopProfile()
	// os.Exit skips deferred calls, so every exit path flushes the profile.
	exit := func(code int) {
		stopProfile()
		os.Exit(code)
	}

	if *help {
		fmt.Println("Usage: ov [options]")
		fmt.Println("\nA terminal object explorer for mission workspaces.")
		flag.PrintDefaults()
		exit(0)
	}

	if *versionFlag {
		fmt.Printf("ov %s\n", version.String())
		exit(0)
	}

	cfg, cfgErr := config.Load()
	if cfgErr != nil {
		// Non-fatal: continue with defaults.
		fmt.Fprintf(os.Stderr, "warning: %v\n", cfgErr)
		cfg = config.DefaultConfig()
	}
	dir, err := filepath.Abs(cfg.ResolveDir(*dirFlag))
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error resolving workspace directory: %v\n", err)
		exit(1)
	}

	ctx := context.Background()

	if *checkSources {
		code, err := runCheckSources(ctx, os.Stdout, dir)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error checking sources: %v\n", err)
			exit(1)
		}
		exit(code)
	}

	recipes, err := recipe.LoadDefault(dir)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading recipes: %v\n", err)
		exit(1)
	}
	for _, w := range recipes.Warnings() {
		fmt.Fprintf(os.Stderr, "warning: %s\n", w)
	}
	if *robotRecipes {
		if err := writeRobotJSON(os.Stdout, recipes.ListSummaries()); err != nil {
			fmt.Fprintf(os.Stderr, "Error encoding output: %v\n", err)
			exit(1)
		}
		exit(0)
	}
	var rec *recipe.Recipe
	if *recipeFlag != "" {
		if rec = recipes.Get(*recipeFlag); rec == nil {
			fmt.Fprintf(os.Stderr, "Unknown recipe %q. Available: %s\n", *recipeFlag, strings.Join(recipes.Names(), ", "))
			exit(2)
		}
	}

	robot := *robotTree || *robotVisible || *robotMetrics
	if robot {
		_ = os.Setenv("OV_ROBOT", "1")
	}

	snap, err := datasource.LoadWorkspace(ctx, dir, loader.ParseOptions{})
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading workspace: %v\n", err)
		if errors.Is(err, loader.ErrNoWorkspace) {
			fmt.Fprintf(os.Stderr, "No %s in %s. Pass --dir or set OV_WORKSPACE_DIR.\n", loader.WorkspaceFile, dir)
		}
		exit(1)
	}

	store := state.NewStore(config.WorkspaceStateDir(dir), initialState(cfg))
	store.Load()
	root := applyFlags(store, snap, rec, *targetFlag, *searchFlag)

	if robot {
		var out any
		switch {
		case *robotMetrics:
			// Flatten once so the visible-row path is part of the timings.
			newRobotVisible(dir, root, store.Get(), snap, time.Now())
			out = newRobotMetrics(dir, time.Now())
		case *robotTree:
			out = newRobotTree(dir, root, time.Now())
		default:
			out = newRobotVisible(dir, root, store.Get(), snap, time.Now())
		}
		if err := writeRobotJSON(os.Stdout, out); err != nil {
			fmt.Fprintf(os.Stderr, "Error encoding output: %v\n", err)
			exit(1)
		}
		exit(0)
	}

	if !term.IsTerminal(int(os.Stdout.Fd())) {
		fmt.Fprintln(os.Stderr, "Error: stdout is not a terminal. Use --robot-tree or --robot-visible for scripted output.")
		exit(2)
	}

	// The alternate screen owns the terminal; debug output goes to a file.
	if debug.Enabled() {
		if f, err := openDebugLog(); err == nil {
			defer f.Close()
			debug.SetOutput(f)
		}
	}

	opts := []ui.Option{ui.WithInspector(cfg.UI.Inspector)}
	w, err := watcher.NewWatcher(dir,
		watcher.WithFiles(watchedFiles...),
		watcher.WithDebounceDuration(cfg.Watch.Debounce()),
		watcher.WithForcePoll(cfg.Watch.ForcePoll),
		watcher.WithOnError(func(err error) { debug.Log("watcher: %v", err) }),
	)
	if err == nil && w.Start() == nil {
		debug.Log("watching %s (fs=%s, polling=%v)", dir, w.FilesystemType(), w.IsPolling())
		opts = append(opts, ui.WithWatcher(w, reloader(dir)))
	}

	m := ui.NewModel(snap, store, opts...)
	defer m.Stop()
	defer logTimingStats()

	if err := runTUIProgram(m); err != nil {
		fmt.Printf("Error running object explorer: %v\n", err)
		m.Stop()
		exit(1)
	}
}

// startCPUProfile starts profiling into path and returns the function that
// stops it and closes the file. The stop function is safe to call twice.
func startCPUProfile(path string) (func(), error) {
	if path == "" {
		return func() {}, nil
	}
	f, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("could not create CPU profile: %w", err)
	}
	if err := pprof.StartCPUProfile(f); err != nil {
		f.Close()
		return nil, fmt.Errorf("could not start CPU profile: %w", err)
	}
	var once sync.Once
	return func() {
		once.Do(func() {
			pprof.StopCPUProfile()
			f.Close()
		})
	}, nil
}

// logTimingStats writes the collected timing metrics to the debug log.
func logTimingStats() {
	if !debug.Enabled() {
		return
	}
	for _, st := range metrics.AllTimingStats() {
		debug.Log("metric %s: count=%d avg=%.3fms max=%.3fms total=%.3fms", st.Name, st.Count, st.AvgMs, st.MaxMs, st.TotalMs)
	}
}

// initialState is the first-run state shaped by the user's configuration.
func initialState(cfg config.Config) state.State {
	return state.Default().
		WithDefaultExpanded(cfg.UI.DefaultExpanded).
		WithLimits(state.Limits{
			MaxAnalysisRuns: cfg.History.MaxAnalysisRuns,
			MaxPlanningRuns: cfg.History.MaxPlanningRuns,
		})
}

// applyFlags threads --recipe, --target and --search into the store and
// returns the tree built for the resulting state. Explicit flags override
// the recipe. An empty flag leaves the persisted state alone.
func applyFlags(store *state.Store, snap model.WorkspaceSnapshot, rec *recipe.Recipe, target, query string) *explorer.Node {
	if rec != nil {
		store.Update(rec.ApplyBeforeBuild)
	}
	if target != "" {
		store.Update(func(s state.State) state.State { return s.SetFilterByTarget(target) })
	}
	root := explorer.Build(store.Get().Snapshot(snap))
	store.Update(func(s state.State) state.State { return s.PruneExpanded(root) })
	if rec != nil && query == "" {
		store.Update(func(s state.State) state.State { return rec.ApplyAfterBuild(s, root) })
	}
	if query != "" {
		store.Update(func(s state.State) state.State { return s.SetSearch(root, query) })
	}
	return root
}

func reloader(dir string) ui.Reloader {
	return func(ctx context.Context) (model.WorkspaceSnapshot, error) {
		var warnings []string
		snap, err := datasource.LoadWorkspace(ctx, dir, loader.ParseOptions{
			WarningHandler: func(msg string) { warnings = append(warnings, msg) },
		})
		for _, w := range warnings {
			debug.Log("reload: %s", w)
		}
		return snap, err
	}
}

// runCheckSources compares the two freshest order sources of dir. The exit
// code is 1 when they disagree.
func runCheckSources(ctx context.Context, w io.Writer, dir string) (int, error) {
	sources, err := datasource.DiscoverSources(datasource.DiscoveryOptions{
		Dir:                    dir,
		ValidateAfterDiscovery: true,
		IncludeInvalid:         true,
	})
	if err != nil {
		return 0, err
	}
	var valid []datasource.DataSource
	for _, s := range sources {
		fmt.Fprintln(w, s.String())
		if s.Valid {
			valid = append(valid, s)
		}
	}
	if len(valid) < 2 {
		fmt.Fprintf(w, "%d valid order source(s); nothing to compare\n", len(valid))
		return 0, nil
	}
	diff, err := datasource.CompareSources(ctx, valid[0], valid[1])
	if err != nil {
		return 0, err
	}
	fmt.Fprintln(w, diff.Summary())
	if diff.HasInconsistencies() {
		return 1, nil
	}
	return 0, nil
}

func openDebugLog() (*os.File, error) {
	dir := config.StateDir()
	if dir == "" {
		return nil, errors.New("no state directory")
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, err
	}
	return os.OpenFile(filepath.Join(dir, "debug.log"), os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
}

func runTUIProgram(m ui.Model) error {
	p := tea.NewProgram(
		m,
		tea.WithAltScreen(),
		tea.WithoutSignalHandler(),
	)

	runDone := make(chan struct{})
	defer close(runDone)

	// Graceful shutdown on SIGINT/SIGTERM.
	sigCh := make(chan os.Signal, 2)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(sigCh)
	go func() {
		select {
		case <-runDone:
			return
		case <-sigCh:
		}

		p.Quit()

		select {
		case <-runDone:
			return
		case <-sigCh:
		case <-time.After(5 * time.Second):
		}

		p.Kill()
	}()

	// Optional auto-quit for automated tests: set OV_TUI_AUTOCLOSE_MS.
	if v := os.Getenv("OV_TUI_AUTOCLOSE_MS"); v != "" {
		if ms, err := strconv.Atoi(v); err == nil && ms > 0 {
			go func() {
				timer := time.NewTimer(time.Duration(ms) * time.Millisecond)
				defer timer.Stop()

				select {
				case <-runDone:
					return
				case <-timer.C:
				}

				p.Quit()

				select {
				case <-runDone:
					return
				case <-time.After(2 * time.Second):
				}

				p.Kill()
			}()
		}
	}

	_, err := p.Run()
	if errors.Is(err, tea.ErrProgramKilled) || errors.Is(err, tea.ErrInterrupted) {
		return nil
	}
	return err
}
