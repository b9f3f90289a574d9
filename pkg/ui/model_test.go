package ui_test

import (
	"errors"
	"os"
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/vanderheijden86/orbview/pkg/explorer"
	"github.com/vanderheijden86/orbview/pkg/state"
	"github.com/vanderheijden86/orbview/pkg/testutil"
	"github.com/vanderheijden86/orbview/pkg/ui"
)

func keyMsg(k string) tea.KeyMsg {
	switch k {
	case "down":
		return tea.KeyMsg{Type: tea.KeyDown}
	case "up":
		return tea.KeyMsg{Type: tea.KeyUp}
	case "left":
		return tea.KeyMsg{Type: tea.KeyLeft}
	case "right":
		return tea.KeyMsg{Type: tea.KeyRight}
	case "enter":
		return tea.KeyMsg{Type: tea.KeyEnter}
	case "esc":
		return tea.KeyMsg{Type: tea.KeyEsc}
	default:
		return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(k)}
	}
}

// newTestModel builds a model over the sample workspace with persistence in
// a temp dir.
func newTestModel(t *testing.T) (ui.Model, *state.Store) {
	t.Helper()
	store := state.NewStore(t.TempDir(), state.Default())
	m := ui.NewModel(testutil.Sample(), store, ui.WithTheme(ui.TestTheme()))
	return m, store
}

func send(t *testing.T, m ui.Model, msgs ...tea.Msg) ui.Model {
	t.Helper()
	for _, msg := range msgs {
		next, _ := m.Update(msg)
		m = next.(ui.Model)
	}
	return m
}

func press(t *testing.T, m ui.Model, keys ...string) ui.Model {
	t.Helper()
	for _, k := range keys {
		m = send(t, m, keyMsg(k))
	}
	return m
}

func visibleIDs(m ui.Model) []string {
	var ids []string
	for _, r := range m.VisibleRows() {
		ids = append(ids, r.Node.ID)
	}
	return ids
}

func TestNewModel_InitialRows(t *testing.T) {
	m, _ := newTestModel(t)

	want := []string{
		explorer.IDWorkspace, explorer.IDScenario, explorer.IDAssets, explorer.IDTargets,
		explorer.IDConstraints, explorer.IDRuns, explorer.IDResults, explorer.IDImports,
	}
	got := visibleIDs(m)
	if strings.Join(got, ",") != strings.Join(want, ",") {
		t.Fatalf("visible = %v; want %v", got, want)
	}
	if m.State().Focus != explorer.IDWorkspace {
		t.Errorf("initial focus = %q; want workspace", m.State().Focus)
	}
}

func TestModel_DownMovesFocusAndSelection(t *testing.T) {
	m, _ := newTestModel(t)
	m = press(t, m, "j")

	st := m.State()
	if st.Focus != explorer.IDScenario {
		t.Fatalf("focus = %q; want scenario", st.Focus)
	}
	if st.Selection.ID != explorer.IDScenario || st.Selection.Source != explorer.SourceTree {
		t.Errorf("selection = %+v; want tree selection of scenario", st.Selection)
	}

	m = press(t, m, "up", "up")
	if m.State().Focus != explorer.IDImports {
		t.Errorf("up from workspace should wrap to last row, got %q", m.State().Focus)
	}
}

func TestModel_ExpandPersistsState(t *testing.T) {
	m, store := newTestModel(t)
	m = press(t, m, "G", "l")

	if !m.State().IsExpanded(explorer.IDImports) {
		t.Fatal("expected imports expanded")
	}
	if n := len(m.VisibleRows()); n != 9 {
		t.Errorf("visible rows = %d; want 9", n)
	}
	p, err := state.ReadFile(store.Path())
	if err != nil {
		t.Fatalf("state not saved: %v", err)
	}
	found := false
	for _, id := range p.ExpandedNodeIDs {
		if id == explorer.IDImports {
			found = true
		}
	}
	if !found {
		t.Errorf("persisted expanded ids %v missing imports", p.ExpandedNodeIDs)
	}
}

func TestModel_LeftOnOpenRootCollapses(t *testing.T) {
	m, _ := newTestModel(t)
	m = press(t, m, "h")
	if n := len(m.VisibleRows()); n != 1 {
		t.Errorf("visible rows = %d; want only the root", n)
	}
	m = press(t, m, "h")
	if m.State().Focus != explorer.IDWorkspace {
		t.Errorf("left on closed root moved focus to %q", m.State().Focus)
	}
}

func TestModel_SearchJumpAndActivate(t *testing.T) {
	m, _ := newTestModel(t)
	m = press(t, m, "/", "athens", "enter")

	st := m.State()
	if st.SearchQuery != "athens" {
		t.Fatalf("query = %q", st.SearchQuery)
	}
	if st.Focus != "target_Athens" {
		t.Fatalf("focus = %q; want first match target_Athens", st.Focus)
	}
	for _, r := range m.VisibleRows() {
		id := r.Node.ID
		if !explorer.Search(m.Root(), "athens").Has(id) {
			t.Errorf("row %q visible but not in match set", id)
		}
	}

	m = press(t, m, "enter")
	msg, isErr := m.Status()
	if isErr || !strings.HasPrefix(msg, "Fly to ") {
		t.Errorf("status = %q (err=%v); want fly-to request", msg, isErr)
	}

	m = press(t, m, "n")
	if m.State().Focus == "target_Athens" {
		t.Error("n should advance to the next match")
	}
	m = press(t, m, "N")
	if m.State().Focus != "target_Athens" {
		t.Errorf("N should return to the first match, got %q", m.State().Focus)
	}

	m = press(t, m, "esc")
	if m.State().SearchQuery != "" {
		t.Error("esc should clear the search")
	}
}

func TestModel_SearchEscapeWhileTyping(t *testing.T) {
	m, _ := newTestModel(t)
	m = press(t, m, "/", "zzz")
	if len(m.VisibleRows()) != 0 {
		t.Fatalf("expected no visible rows for unmatched query, got %d", len(m.VisibleRows()))
	}
	m = press(t, m, "esc")
	if m.State().SearchQuery != "" || len(m.VisibleRows()) != 8 {
		t.Errorf("esc should restore the full tree, rows=%d", len(m.VisibleRows()))
	}
}

func TestModel_ClearSelection(t *testing.T) {
	m, _ := newTestModel(t)
	m = press(t, m, "j", "c")
	if !m.State().Selection.IsEmpty() {
		t.Errorf("selection = %+v; want empty", m.State().Selection)
	}
	if m.State().Focus != explorer.IDScenario {
		t.Error("clearing selection must not move focus")
	}
}

func TestModel_QuitSavesState(t *testing.T) {
	m, store := newTestModel(t)
	_, cmd := m.Update(keyMsg("q"))
	if cmd == nil {
		t.Fatal("expected quit command")
	}
	if _, ok := cmd().(tea.QuitMsg); !ok {
		t.Error("expected tea.QuitMsg")
	}
	if _, err := os.Stat(store.Path()); err != nil {
		t.Errorf("state file not written: %v", err)
	}
}

func TestModel_ReloadRebuildsTree(t *testing.T) {
	m, _ := newTestModel(t)
	m = press(t, m, "G")

	m = send(t, m, ui.SnapshotLoadedMsg{Snapshot: testutil.Empty()})
	if m.Root().Name != "Empty" {
		t.Errorf("root name = %q after reload", m.Root().Name)
	}
	if msg, isErr := m.Status(); isErr || msg != "Workspace reloaded" {
		t.Errorf("status = %q (err=%v)", msg, isErr)
	}
	if _, ok := explorer.Lookup(m.Root(), m.State().Focus); !ok {
		t.Errorf("focus %q does not resolve after reload", m.State().Focus)
	}
}

func TestModel_ReloadErrorKeepsTree(t *testing.T) {
	m, _ := newTestModel(t)
	before := m.Root()
	m = send(t, m, ui.SnapshotLoadedMsg{Err: errors.New("boom")})
	if m.Root() != before {
		t.Error("failed reload must keep the previous tree")
	}
	if msg, isErr := m.Status(); !isErr || !strings.Contains(msg, "boom") {
		t.Errorf("status = %q (err=%v)", msg, isErr)
	}
}

func TestModel_View(t *testing.T) {
	m, _ := newTestModel(t)
	m = send(t, m, tea.WindowSizeMsg{Width: 120, Height: 30})
	view := m.View()
	for _, want := range []string{"Demo Workspace", "Europe Week", "Page 1/1"} {
		if !strings.Contains(view, want) {
			t.Errorf("view missing %q", want)
		}
	}

	m = press(t, m, "i")
	narrow := m.View()
	if strings.Contains(narrow, "Nothing selected") {
		t.Error("inspector should be hidden after toggle")
	}
}

func TestModel_ExpandAllCollapseAll(t *testing.T) {
	m, _ := newTestModel(t)
	m = press(t, m, "E")
	if got, total := len(m.VisibleRows()), m.Root().Count(); got != total {
		t.Errorf("expand all shows %d of %d nodes", got, total)
	}
	m = press(t, m, "C")
	if n := len(m.VisibleRows()); n != 8 {
		t.Errorf("collapse all shows %d rows; want 8", n)
	}
}
