package ui

import (
	"context"
	"errors"
	"strings"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/golang/glog"

	"github.com/five82/almanac/internal/lists"
	"github.com/five82/almanac/internal/listsync"
	"github.com/five82/almanac/internal/prefs"
	"github.com/five82/almanac/internal/state"
)

// Options configures the UI.
type Options struct {
	Context   context.Context
	Board     *state.Board
	Changes   <-chan listsync.Change // fan-in from Board.Run
	Overrides map[string]lists.Override
	Prefs     prefs.Prefs
	PrefsPath string
	APIBase   string
}

// Model is the root application state for Bubble Tea.
type Model struct {
	// Configuration
	ctx       context.Context
	board     *state.Board
	changes   <-chan listsync.Change
	overrides map[string]lists.Override
	prefs     prefs.Prefs
	prefsPath string
	apiBase   string

	// UI state
	theme   Theme
	keys    keyMap
	help    help.Model
	spinner spinner.Model
	width   int
	height  int
	ready   bool

	// Data state
	snapshot state.Snapshot
	cursors  map[string]int
	scroll   scrollTrigger

	// Detail pane
	showDetail bool
	detail     viewport.Model
	markdown   *markdownRenderer

	// Overlays and prompts
	showHelp      bool
	searching     bool
	search        textinput.Model
	pendingDelete string
	notice        string
}

// New creates a new Bubble Tea model.
func New(opts Options) Model {
	ctx := opts.Context
	if ctx == nil {
		ctx = context.Background()
	}

	prefsPath := opts.PrefsPath
	if prefsPath == "" {
		prefsPath = prefs.DefaultPath()
	}

	theme := GetTheme(opts.Prefs.Theme)
	h := help.New()
	h.Styles = theme.HelpStyles()

	sp := spinner.New()
	sp.Spinner = spinner.MiniDot

	ti := textinput.New()
	ti.Placeholder = "search..."
	ti.CharLimit = 80
	ti.Prompt = "/ "

	m := Model{
		ctx:       ctx,
		board:     opts.Board,
		changes:   opts.Changes,
		overrides: opts.Overrides,
		prefs:     opts.Prefs,
		prefsPath: prefsPath,
		apiBase:   opts.APIBase,
		theme:     theme,
		keys:      DefaultKeyMap(),
		help:      h,
		spinner:   sp,
		cursors:   map[string]int{},
		scroll:    newScrollTrigger(defaultScrollThreshold),
		markdown:  &markdownRenderer{},
		search:    ti,
	}
	if m.overrides == nil {
		m.overrides = map[string]lists.Override{}
	}
	if m.board != nil {
		m.snapshot = m.board.Snapshot()
	}
	return m
}

// Init implements tea.Model.
func (m Model) Init() tea.Cmd {
	return tea.Batch(
		tea.EnterAltScreen,
		m.spinner.Tick,
		waitForChange(m.changes),
	)
}

// Update implements tea.Model.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKey(msg)

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.help.Width = msg.Width
		m.ready = true
		m.refresh()
		m.checkScroll()
		return m, nil

	case changeMsg:
		m.refresh()
		if msg.List == m.snapshot.Active {
			switch msg.Mode {
			case "reset", "append", "seed":
				m.checkScroll()
			}
		}
		return m, waitForChange(m.changes)

	case changesClosedMsg:
		return m, nil

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	}

	if m.searching {
		var cmd tea.Cmd
		m.search, cmd = m.search.Update(msg)
		return m, cmd
	}
	return m, nil
}

// View implements tea.Model.
func (m Model) View() string {
	if !m.ready {
		return "Loading..."
	}
	if m.showHelp {
		return m.renderHelp()
	}

	var b strings.Builder
	b.WriteString(m.renderHeader())
	b.WriteString("\n")
	b.WriteString(m.renderCommandBar())
	b.WriteString("\n")
	b.WriteString(m.renderContent())
	b.WriteString("\n")
	b.WriteString(m.renderStatusLine())
	return b.String()
}

// refresh pulls the latest board snapshot and keeps cursors in range.
func (m *Model) refresh() {
	if m.board == nil {
		return
	}
	m.snapshot = m.board.Snapshot()
	for name, st := range m.snapshot.Lists {
		if c := m.cursors[name]; c >= len(st.Items) {
			m.cursors[name] = max(len(st.Items)-1, 0)
		}
	}
	m.updateDetail()
}

// checkScroll runs the scroll trigger against the active list.
func (m *Model) checkScroll() {
	if m.board == nil {
		return
	}
	ctrl := m.board.Active()
	if ctrl == nil {
		return
	}
	if m.scroll.check(ctrl, m.cursors[m.snapshot.Active], m.visibleRows()) {
		glog.V(2).Infof("[%s] scroll requested next page", ctrl.Name())
	}
}

// activeState returns the active list state from the last snapshot.
func (m Model) activeState() (listsync.State, bool) {
	return m.snapshot.ActiveState()
}

// activePreset returns the preset for the active list.
func (m Model) activePreset() (lists.Preset, bool) {
	return lists.Lookup(m.snapshot.Active)
}

// selectedItem returns the item under the cursor.
func (m Model) selectedItem() (listsync.Item, bool) {
	st, ok := m.activeState()
	if !ok || len(st.Items) == 0 {
		return nil, false
	}
	idx := m.cursors[st.Name]
	if idx < 0 || idx >= len(st.Items) {
		return nil, false
	}
	return st.Items[idx], true
}

// savePrefs persists the theme, the active list and each list's facet and sort.
func (m *Model) savePrefs() {
	p := m.prefs
	p.Theme = m.theme.Name
	p.ActiveList = m.snapshot.Active
	if m.board != nil {
		for _, name := range m.board.Names() {
			ctrl, ok := m.board.Controller(name)
			preset, found := lists.Lookup(name)
			if !ok || !found {
				continue
			}
			snap := ctrl.State().Snapshot
			lp := prefs.ListPrefs{Sort: snap.Sort().String()}
			if facet := preset.ActiveFacet(snap); facet.Name != preset.DefaultFacet().Name {
				lp.Facet = facet.Name
			}
			p = p.WithList(name, lp)
		}
	}
	m.prefs = p
	if m.prefsPath == "" {
		return
	}
	if err := prefs.Save(m.prefsPath, p); err != nil {
		glog.Warningf("save prefs: %v", err)
	}
}

// Messages

type changeMsg listsync.Change

type changesClosedMsg struct{}

// Commands

// waitForChange blocks on the board's change feed and delivers one change.
func waitForChange(ch <-chan listsync.Change) tea.Cmd {
	if ch == nil {
		return nil
	}
	return func() tea.Msg {
		c, ok := <-ch
		if !ok {
			return changesClosedMsg{}
		}
		return changeMsg(c)
	}
}

// Run starts the Bubble Tea program.
func Run(opts Options) error {
	lipgloss.SetHasDarkBackground(true)
	m := New(opts)
	p := tea.NewProgram(m, tea.WithAltScreen(), tea.WithContext(m.ctx))
	_, err := p.Run()
	if errors.Is(err, tea.ErrProgramKilled) && m.ctx.Err() != nil {
		return nil
	}
	return err
}
