package ui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/five82/almanac/internal/api"
	"github.com/five82/almanac/internal/lists"
	"github.com/five82/almanac/internal/listsync"
)

// handleKey processes keyboard input.
func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if m.showHelp {
		m.showHelp = false
		return m, nil
	}
	if m.searching {
		return m.handleSearchKey(msg)
	}
	if m.pendingDelete != "" {
		m.resolveDelete(key.Matches(msg, m.keys.Confirm))
		return m, nil
	}

	m.notice = ""
	switch {
	case key.Matches(msg, m.keys.Quit):
		m.savePrefs()
		return m, tea.Quit

	case key.Matches(msg, m.keys.Help):
		m.showHelp = true

	case key.Matches(msg, m.keys.CycleTheme):
		m.theme = GetTheme(NextTheme(m.theme.Name))
		m.help.Styles = m.theme.HelpStyles()
		m.savePrefs()

	case key.Matches(msg, m.keys.NextTab):
		m.switchTab(1)

	case key.Matches(msg, m.keys.PrevTab):
		m.switchTab(-1)

	case key.Matches(msg, m.keys.Escape):
		m.showDetail = false

	case key.Matches(msg, m.keys.Up):
		m.moveCursor(-1)
	case key.Matches(msg, m.keys.Down):
		m.moveCursor(1)
	case key.Matches(msg, m.keys.Top):
		m.moveCursor(-1 << 30)
	case key.Matches(msg, m.keys.Bottom):
		m.moveCursor(1 << 30)
	case key.Matches(msg, m.keys.PageUp):
		if m.showDetail {
			m.detail.HalfViewUp()
		} else {
			m.moveCursor(-m.visibleRows())
		}
	case key.Matches(msg, m.keys.PageDown):
		if m.showDetail {
			m.detail.HalfViewDown()
		} else {
			m.moveCursor(m.visibleRows())
		}

	case key.Matches(msg, m.keys.Detail):
		m.showDetail = !m.showDetail
		m.updateDetail()

	case key.Matches(msg, m.keys.Facet):
		m.cycleFacet()
	case key.Matches(msg, m.keys.Sort):
		m.cycleSort()
	case key.Matches(msg, m.keys.Search):
		return m.openSearch()
	case key.Matches(msg, m.keys.Reload):
		if ctrl := m.activeController(); ctrl != nil {
			ctrl.Reload()
		}
	case key.Matches(msg, m.keys.Retry):
		if ctrl := m.activeController(); ctrl == nil || !ctrl.Retry() {
			m.notice = "nothing to retry"
		}

	case key.Matches(msg, m.keys.Toggle):
		m.toggleSelected()
	case key.Matches(msg, m.keys.Star):
		m.starSelected()
	case key.Matches(msg, m.keys.Delete):
		m.askDelete()
	}

	m.refresh()
	return m, nil
}

func (m *Model) activeController() *listsync.Controller {
	if m.board == nil {
		return nil
	}
	return m.board.Active()
}

// switchTab activates the neighbouring list and loads it on first visit.
func (m *Model) switchTab(step int) {
	if m.board == nil {
		return
	}
	names := m.board.Names()
	if len(names) == 0 {
		return
	}
	idx := 0
	for i, n := range names {
		if n == m.snapshot.Active {
			idx = i
			break
		}
	}
	idx = (idx + step + len(names)) % len(names)
	m.board.SetActive(names[idx])
	m.showDetail = false

	ctrl := m.board.Active()
	if st := ctrl.State(); !st.Loaded && !st.IsLoading && st.Error == nil {
		ctrl.Reload()
	}
	m.refresh()
	m.savePrefs()
}

// moveCursor moves the selection and lets the scroll trigger look at it.
func (m *Model) moveCursor(delta int) {
	st, ok := m.activeState()
	if !ok || len(st.Items) == 0 {
		return
	}
	idx := m.cursors[st.Name] + delta
	idx = max(0, min(idx, len(st.Items)-1))
	m.cursors[st.Name] = idx
	m.updateDetail()
	m.checkScroll()
}

// cycleFacet moves the active list to its next filter facet.
func (m *Model) cycleFacet() {
	ctrl := m.activeController()
	preset, ok := m.activePreset()
	if ctrl == nil || !ok || len(preset.Facets) < 2 {
		return
	}
	current := preset.ActiveFacet(ctrl.State().Snapshot)
	next := preset.NextFacet(current.Name)
	lists.ApplyFacet(ctrl, preset, next, m.overrides[preset.Name])
	m.cursors[preset.Name] = 0
	m.notice = "filter: " + next.Label
	m.savePrefs()
}

// cycleSort moves the active list to its next sort order.
func (m *Model) cycleSort() {
	ctrl := m.activeController()
	preset, ok := m.activePreset()
	if ctrl == nil || !ok || len(preset.SortFields) == 0 {
		return
	}
	next := preset.NextSort(ctrl.State().Snapshot.Sort())
	ctrl.SetSort(next.Field, next.Direction)
	m.cursors[preset.Name] = 0
	m.notice = "sort: " + sortLabel(next)
	m.savePrefs()
}

func (m Model) openSearch() (tea.Model, tea.Cmd) {
	res, ok := api.LookupResource(m.snapshot.Active)
	if !ok || res.SearchParam == "" {
		m.notice = "search is not available here"
		return m, nil
	}
	current := ""
	if st, ok := m.activeState(); ok {
		if v, ok := st.Snapshot.Filter(api.SearchKey); ok {
			current = fmt.Sprint(v)
		}
	}
	m.search.SetValue(current)
	m.search.CursorEnd()
	m.searching = true
	focus := m.search.Focus()
	return m, tea.Batch(focus, textinput.Blink)
}

func (m Model) handleSearchKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.Type {
	case tea.KeyEnter:
		m.searching = false
		m.search.Blur()
		if ctrl := m.activeController(); ctrl != nil {
			lists.Search(ctrl, m.search.Value())
			m.cursors[ctrl.Name()] = 0
		}
		m.refresh()
		return m, nil
	case tea.KeyEsc:
		m.searching = false
		m.search.Blur()
		return m, nil
	}
	var cmd tea.Cmd
	m.search, cmd = m.search.Update(msg)
	return m, cmd
}

// toggleSelected flips the completion flag of the selected row.
func (m *Model) toggleSelected() {
	field := toggleField(m.snapshot.Active)
	if field == "" {
		m.notice = "nothing to toggle here"
		return
	}
	m.flip(field)
}

// starSelected flips the star of the selected row.
func (m *Model) starSelected() {
	switch m.snapshot.Active {
	case api.Todos, api.Recipes:
		m.flip("is_starred")
	default:
		m.notice = "items here cannot be starred"
	}
}

func (m *Model) flip(field string) {
	ctrl := m.activeController()
	it, ok := m.selectedItem()
	if ctrl == nil || !ok {
		return
	}
	id, ok := it.ID(ctrl.Config().IDField)
	if !ok {
		return
	}
	next := 1
	if it.Flag(field) {
		next = 0
	}
	ctrl.Mutate(id, listsync.Item{field: next})
}

func (m *Model) askDelete() {
	ctrl := m.activeController()
	it, ok := m.selectedItem()
	if ctrl == nil || !ok {
		return
	}
	id, ok := it.ID(ctrl.Config().IDField)
	if !ok {
		return
	}
	m.pendingDelete = id
}

func (m *Model) resolveDelete(confirmed bool) {
	id := m.pendingDelete
	m.pendingDelete = ""
	if !confirmed {
		m.notice = "delete cancelled"
		return
	}
	if ctrl := m.activeController(); ctrl != nil {
		ctrl.Delete(id)
		m.notice = "deleted"
	}
	m.refresh()
}

// toggleField names the completion flag of a list, if it has one.
func toggleField(list string) string {
	switch list {
	case api.Todos, api.Checkins:
		return "status"
	}
	return ""
}

func sortLabel(s listsync.Sort) string {
	if s.Field == "" {
		return "server order"
	}
	label := strings.ReplaceAll(s.Field, "_", " ")
	if s.Direction == listsync.Descending {
		return label + " ↓"
	}
	return label + " ↑"
}
