// Package ui is the terminal front end of the object explorer. It threads
// the explorer core through keyboard events: the state store holds every
// session change, the tree is rebuilt from the snapshot whenever the
// workspace changes on disk, and the inspector shows the current selection.
package ui

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/atotto/clipboard"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/glamour"
	"github.com/charmbracelet/lipgloss"

	"github.com/vanderheijden86/orbview/pkg/debug"
	"github.com/vanderheijden86/orbview/pkg/explorer"
	"github.com/vanderheijden86/orbview/pkg/metrics"
	"github.com/vanderheijden86/orbview/pkg/model"
	"github.com/vanderheijden86/orbview/pkg/state"
	"github.com/vanderheijden86/orbview/pkg/watcher"
)

const (
	defaultWidth  = 100
	defaultHeight = 30

	// minInspectorWidth hides the inspector on narrow terminals.
	minInspectorWidth = 70
)

// FileChangedMsg is sent when a workspace file changes on disk.
type FileChangedMsg struct{}

// SnapshotLoadedMsg carries a reloaded workspace snapshot.
type SnapshotLoadedMsg struct {
	Snapshot model.WorkspaceSnapshot
	Err      error
}

// Reloader reads the workspace snapshot again after a change on disk.
type Reloader func(ctx context.Context) (model.WorkspaceSnapshot, error)

// WatchFileCmd returns a command that waits for file changes and sends
// FileChangedMsg.
func WatchFileCmd(w *watcher.Watcher) tea.Cmd {
	return func() tea.Msg {
		<-w.Changed()
		return FileChangedMsg{}
	}
}

// ReloadCmd runs reload off the event loop.
func ReloadCmd(reload Reloader) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		start := time.Now()
		snap, err := reload(ctx)
		debug.LogTiming("reload", time.Since(start))
		return SnapshotLoadedMsg{Snapshot: snap, Err: err}
	}
}

// Option configures a Model.
type Option func(*Model)

// WithWatcher rebuilds the tree whenever w reports a change.
func WithWatcher(w *watcher.Watcher, reload Reloader) Option {
	return func(m *Model) {
		m.watcher = w
		m.reload = reload
	}
}

// WithNavigator forwards activations to nav in addition to the status bar.
func WithNavigator(nav explorer.Navigator) Option {
	return func(m *Model) {
		m.navigator = nav
	}
}

// WithInspector shows or hides the inspector panel at startup.
func WithInspector(show bool) Option {
	return func(m *Model) {
		m.showInspector = show
	}
}

// WithTheme overrides the default theme.
func WithTheme(t Theme) Option {
	return func(m *Model) {
		m.theme = t
	}
}

// Model is the bubbletea model of the explorer.
type Model struct {
	base  model.WorkspaceSnapshot
	root  *explorer.Node
	store *state.Store
	idx   *explorer.Index
	match explorer.IDSet

	theme  Theme
	width  int
	height int
	offset int

	searching   bool
	searchInput textinput.Model
	matchCursor int

	showInspector bool
	inspector     viewport.Model
	mdRenderer    *glamour.TermRenderer
	mdWidth       int

	watcher   *watcher.Watcher
	reload    Reloader
	navigator explorer.Navigator

	statusMsg     string
	statusIsError bool
}

// NewModel builds the tree from snap and the session held by store.
func NewModel(snap model.WorkspaceSnapshot, store *state.Store, opts ...Option) Model {
	ti := textinput.New()
	ti.Placeholder = "search objects"
	ti.Prompt = "/ "
	ti.CharLimit = 200
	ti.Width = 50

	m := Model{
		base:          snap,
		store:         store,
		width:         defaultWidth,
		height:        defaultHeight,
		searchInput:   ti,
		matchCursor:   -1,
		showInspector: true,
		inspector:     viewport.New(defaultWidth/2, defaultHeight-3),
	}
	for _, opt := range opts {
		opt(&m)
	}
	if m.theme.Renderer == nil {
		m.theme = DefaultTheme(lipgloss.DefaultRenderer())
	}
	if q := store.Get().SearchQuery; q != "" {
		m.searchInput.SetValue(q)
	}
	m.rebuild()
	return m
}

func (m Model) Init() tea.Cmd {
	if m.watcher != nil {
		return WatchFileCmd(m.watcher)
	}
	return nil
}

// Root returns the current tree.
func (m Model) Root() *explorer.Node { return m.root }

// State returns the current session state.
func (m Model) State() state.State { return m.store.Get() }

// VisibleRows returns the rows currently shown by the tree.
func (m Model) VisibleRows() []explorer.Row {
	if m.idx == nil {
		return nil
	}
	return m.idx.Rows
}

// Status returns the status bar message and whether it is an error.
func (m Model) Status() (string, bool) { return m.statusMsg, m.statusIsError }

// rebuild maps the base snapshot through the session state into a fresh
// tree, drops expansion of nodes that no longer exist and reindexes.
func (m *Model) rebuild() {
	snap := m.store.Get().Snapshot(m.base)
	m.root = explorer.Build(snap)
	m.store.Update(func(s state.State) state.State { return s.PruneExpanded(m.root) })
	m.reindex()
}

// reindex recomputes the visible rows after a structural change and keeps
// the focus on a visible node.
func (m *Model) reindex() {
	st := m.store.Get()
	m.match = st.Match(m.root)
	m.idx = explorer.NewIndex(m.root, st.Expanded, m.match)
	if _, ok := m.idx.Position(st.Focus); !ok && m.idx.Len() > 0 {
		m.store.Update(func(s state.State) state.State { return s.SetFocus(m.idx.Rows[0].Node.ID) })
	}
	m.ensureVisible()
	m.refreshInspector()
}

func (m *Model) treeHeight() int {
	h := m.height - 2 // header + footer
	if m.searching || m.store.Get().SearchQuery != "" {
		h--
	}
	if h < 1 {
		h = 1
	}
	return h
}

func (m *Model) treeWidth() int {
	if m.inspectorVisible() {
		return m.width / 2
	}
	return m.width
}

func (m *Model) inspectorVisible() bool {
	return m.showInspector && m.width >= minInspectorWidth
}

func (m *Model) ensureVisible() {
	if m.idx == nil {
		return
	}
	pos, ok := m.idx.Position(m.store.Get().Focus)
	if !ok {
		pos = 0
	}
	m.offset = scrollOffset(m.offset, pos, m.treeHeight(), m.idx.Len())
}

// refreshInspector renders the selection, falling back to the focused
// node when nothing is selected.
func (m *Model) refreshInspector() {
	if !m.inspectorVisible() {
		return
	}
	st := m.store.Get()
	var node *explorer.Node
	var meta explorer.Metadata
	if !st.Selection.IsEmpty() {
		meta = explorer.Resolve(m.root, st.Selection)
		node, _ = explorer.Lookup(m.root, st.Selection.ID)
	}

	w := m.width - m.treeWidth() - 2
	m.inspector.Width = w
	m.inspector.Height = m.treeHeight()
	if m.mdRenderer == nil || m.mdWidth != w {
		m.mdRenderer = newMarkdownRenderer(w - 2)
		m.mdWidth = w
	}
	m.inspector.SetContent(renderMarkdown(m.mdRenderer, inspectorMarkdown(node, meta)))
	m.inspector.GotoTop()
}

func (m *Model) setStatus(msg string, isErr bool) {
	m.statusMsg = msg
	m.statusIsError = isErr
}

// save persists the session. Failures only reach the status bar.
func (m *Model) save() {
	if err := m.store.Save(); err != nil {
		m.setStatus(fmt.Sprintf("State not saved: %v", err), true)
	}
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height
		m.mdRenderer = nil
		m.ensureVisible()
		m.refreshInspector()
		return m, nil

	case FileChangedMsg:
		debug.Log("ui: workspace change detected")
		var cmds []tea.Cmd
		if m.reload != nil {
			cmds = append(cmds, ReloadCmd(m.reload))
		}
		if m.watcher != nil {
			cmds = append(cmds, WatchFileCmd(m.watcher))
		}
		return m, tea.Batch(cmds...)

	case SnapshotLoadedMsg:
		if msg.Err != nil {
			m.setStatus(fmt.Sprintf("Reload error: %v", msg.Err), true)
			return m, nil
		}
		m.base = msg.Snapshot
		m.rebuild()
		m.setStatus("Workspace reloaded", false)
		return m, nil

	case tea.KeyMsg:
		if m.searching {
			return m.handleSearchKeys(msg)
		}
		return m.handleTreeKeys(msg)
	}
	return m, nil
}

func (m Model) handleSearchKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "esc":
		m.searching = false
		m.searchInput.Blur()
		m.searchInput.SetValue("")
		m.store.Update(state.State.ClearSearch)
		m.reindex()
		return m, nil
	case "enter":
		m.searching = false
		m.searchInput.Blur()
		m.matchCursor = -1
		m.jumpToMatch(1)
		return m, nil
	case "ctrl+c":
		return m.quit()
	}

	var cmd tea.Cmd
	m.searchInput, cmd = m.searchInput.Update(msg)
	query := m.searchInput.Value()
	m.matchCursor = -1
	m.store.Update(func(s state.State) state.State { return s.SetSearch(m.root, query) })
	m.reindex()
	return m, cmd
}

func (m Model) handleTreeKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	// Any key clears a stale status line.
	m.statusMsg = ""
	m.statusIsError = false

	switch msg.String() {
	case "q", "ctrl+c":
		return m.quit()
	case "j", "down":
		m.navigate(explorer.KeyDown)
	case "k", "up":
		m.navigate(explorer.KeyUp)
	case "l", "right":
		m.navigate(explorer.KeyRight)
	case "h", "left":
		m.navigate(explorer.KeyLeft)
	case "g", "home":
		m.navigate(explorer.KeyHome)
	case "G", "end":
		m.navigate(explorer.KeyEnd)
	case "enter":
		m.navigate(explorer.KeyEnter)
	case "/":
		m.searching = true
		m.searchInput.SetValue(m.store.Get().SearchQuery)
		m.searchInput.CursorEnd()
		m.ensureVisible()
		return m, m.searchInput.Focus()
	case "n":
		m.jumpToMatch(1)
	case "N":
		m.jumpToMatch(-1)
	case "esc":
		if m.store.Get().SearchQuery != "" {
			m.searchInput.SetValue("")
			m.store.Update(state.State.ClearSearch)
			m.reindex()
		}
	case "c":
		m.store.Update(state.State.ClearSelection)
		m.refreshInspector()
		m.setStatus("Selection cleared", false)
	case "y":
		m.copyFocused()
	case "i":
		m.showInspector = !m.showInspector
		m.ensureVisible()
		m.refreshInspector()
	case "E":
		m.store.Update(func(s state.State) state.State { return s.ExpandAll(m.root) })
		m.reindex()
		m.save()
	case "C":
		m.store.Update(state.State.CollapseAll)
		m.reindex()
		m.save()
	case "pgdown", "pgup", "ctrl+d", "ctrl+u":
		var cmd tea.Cmd
		m.inspector, cmd = m.inspector.Update(msg)
		return m, cmd
	}
	return m, nil
}

// navigate applies one navigation key: focus moves, the tree selection
// follows the focus, expansion changes are persisted and activation
// requests are dispatched.
func (m *Model) navigate(key explorer.Key) {
	st := m.store.Get()
	step := explorer.Navigate(m.root, m.idx, st.Expanded, st.Focus, key)
	if step.Focus == "" {
		return
	}
	st = m.store.Update(func(s state.State) state.State { return s.ApplyStep(step) })
	if n, ok := explorer.Lookup(m.root, st.Focus); ok {
		m.store.Update(func(s state.State) state.State { return s.SelectFromTree(n.ID, n.Type) })
	}

	if step.Expand != "" || step.Collapse != "" {
		m.reindex()
		m.save()
	} else {
		m.ensureVisible()
		m.refreshInspector()
	}

	if step.Activate != nil {
		nav := &statusNavigator{}
		explorer.Dispatch(step.Activate, nav)
		explorer.Dispatch(step.Activate, m.navigator)
		m.setStatus(nav.msg, false)
	}
}

// jumpToMatch moves the focus to the next (dir > 0) or previous direct
// search hit, wrapping around.
func (m *Model) jumpToMatch(dir int) {
	query := m.store.Get().SearchQuery
	if query == "" {
		return
	}
	hits := explorer.Matches(m.root, query)
	if len(hits) == 0 {
		m.setStatus(fmt.Sprintf("No objects match %q", query), true)
		return
	}
	if m.matchCursor < 0 && dir < 0 {
		m.matchCursor = 0
	}
	m.matchCursor = ((m.matchCursor+dir)%len(hits) + len(hits)) % len(hits)
	id := hits[m.matchCursor]
	n, _ := explorer.Lookup(m.root, id)
	m.store.Update(func(s state.State) state.State {
		s = s.ExpandPath(m.root, id).SetFocus(id)
		if n != nil {
			s = s.SelectFromTree(n.ID, n.Type)
		}
		return s
	})
	m.reindex()
	m.setStatus(fmt.Sprintf("Match %d/%d", m.matchCursor+1, len(hits)), false)
}

func (m *Model) copyFocused() {
	id := m.store.Get().Focus
	if id == "" {
		return
	}
	if err := clipboard.WriteAll(id); err != nil {
		m.setStatus(fmt.Sprintf("Clipboard error: %v", err), true)
		return
	}
	m.setStatus(fmt.Sprintf("Copied %s to clipboard", id), false)
}

func (m Model) quit() (tea.Model, tea.Cmd) {
	m.save()
	return m, tea.Quit
}

// Stop releases the watcher. Call it after the program exits.
func (m *Model) Stop() {
	if m.watcher != nil {
		m.watcher.Stop()
	}
}

func (m Model) View() string {
	defer metrics.Timer(metrics.UIRender)()

	st := m.store.Get()
	tw := m.treeWidth()
	th := m.treeHeight()

	header := m.theme.Header.Width(m.width).Render(truncateRunesHelper(m.root.Name, m.width-2, "…"))

	tree := treeView{
		theme:    m.theme,
		rows:     m.idx.Rows,
		expanded: st.Expanded,
		matched:  directMatches(m.root, st.SearchQuery),
		focus:    st.Focus,
		selected: st.Selection.ID,
		offset:   m.offset,
		width:    tw,
		height:   th,
	}.render()
	tree = lipgloss.NewStyle().Width(tw).Height(th).MaxHeight(th).Render(tree)

	body := tree
	if m.inspectorVisible() {
		panel := m.theme.Panel.Height(th - 2).Render(m.inspector.View())
		body = lipgloss.JoinHorizontal(lipgloss.Top, tree, panel)
	}

	parts := []string{header}
	if m.searching {
		parts = append(parts, m.searchInput.View())
	} else if st.SearchQuery != "" {
		parts = append(parts, m.theme.MutedText.Render(fmt.Sprintf("/ %s  (n/N next/prev, esc clear)", st.SearchQuery)))
	}
	parts = append(parts, body, m.renderFooter())
	return lipgloss.JoinVertical(lipgloss.Left, parts...)
}

func (m Model) renderFooter() string {
	if m.statusMsg != "" {
		prefix := "✓ "
		style := m.theme.Status
		if m.statusIsError {
			prefix = "✗ "
			style = m.theme.Error
		}
		return style.Render(truncateRunesHelper(prefix+m.statusMsg, m.width, "…"))
	}
	hints := "j/k nav · h/l fold · enter open · / search · y copy · i inspector · q quit"
	pos := positionIndicator(m.offset, m.treeHeight(), m.idx.Len())
	room := m.width - lipgloss.Width(pos)
	return m.theme.MutedText.Render(padRight(truncateRunesHelper(hints, room, "…"), room) + pos)
}

// directMatches returns the ids whose own name matches query.
func directMatches(root *explorer.Node, query string) map[string]bool {
	if strings.TrimSpace(query) == "" {
		return nil
	}
	ids := explorer.Matches(root, query)
	out := make(map[string]bool, len(ids))
	for _, id := range ids {
		out[id] = true
	}
	return out
}

// statusNavigator turns activation requests into a status line. The
// terminal has no globe or timeline; the line tells the user what the
// other panels would show.
type statusNavigator struct {
	msg string
}

func (n *statusNavigator) FlyTo(entityID string) {
	n.msg = "Fly to " + entityID
}

func (n *statusNavigator) JumpToPass(index int) {
	n.msg = fmt.Sprintf("Jump to pass #%d", index)
}

func (n *statusNavigator) JumpToTime(ts string) {
	n.msg = "Jump to " + ts
}
