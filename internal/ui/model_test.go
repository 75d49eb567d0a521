package ui

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/five82/almanac/internal/listsync"
	"github.com/five82/almanac/internal/prefs"
	"github.com/five82/almanac/internal/state"
)

// memTransport serves a fixed collection page by page.
type memTransport struct {
	mu      sync.Mutex
	items   []listsync.Item
	lists   int
	updates int
	deletes int
}

func newMemTransport(n int) *memTransport {
	tr := &memTransport{}
	for i := 1; i <= n; i++ {
		tr.items = append(tr.items, listsync.Item{"id": int64(i), "title": fmt.Sprintf("item %d", i), "status": 0})
	}
	return tr
}

func (m *memTransport) List(_ context.Context, q listsync.Query) ([]listsync.Item, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.lists++
	var out []listsync.Item
	for i := q.Offset; i < len(m.items) && len(out) < q.Limit; i++ {
		out = append(out, m.items[i].Clone())
	}
	return out, nil
}

func (m *memTransport) Create(context.Context, listsync.Item) (listsync.Item, error) {
	return nil, errors.New("unsupported")
}

func (m *memTransport) Update(_ context.Context, id string, patch listsync.Item) (listsync.Item, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.updates++
	for _, it := range m.items {
		if got, _ := it.ID("id"); got == id {
			for k, v := range patch {
				it[k] = v
			}
			return it.Clone(), nil
		}
	}
	return nil, errors.New("missing")
}

func (m *memTransport) Delete(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.deletes++
	for i, it := range m.items {
		if got, _ := it.ID("id"); got == id {
			m.items = append(m.items[:i], m.items[i+1:]...)
			return nil
		}
	}
	return nil
}

func (m *memTransport) listCalls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.lists
}

type fixture struct {
	board     *state.Board
	todos     *listsync.Controller
	notes     *listsync.Controller
	todosTr   *memTransport
	notesTr   *memTransport
	prefsPath string
}

func newFixture(t *testing.T, total int) fixture {
	t.Helper()
	f := fixture{
		board:     state.NewBoard(nil),
		todosTr:   newMemTransport(total),
		notesTr:   newMemTransport(3),
		prefsPath: filepath.Join(t.TempDir(), "prefs.toml"),
	}
	f.todos = listsync.New(context.Background(), f.todosTr, listsync.Config{Name: "todos", PageSize: 10})
	f.notes = listsync.New(context.Background(), f.notesTr, listsync.Config{Name: "notes", PageSize: 10})
	for _, c := range []*listsync.Controller{f.todos, f.notes} {
		if err := f.board.Register(c); err != nil {
			t.Fatalf("Register: %v", err)
		}
	}
	f.todos.Reload()
	f.todos.Wait()
	return f
}

func (f fixture) model() Model {
	return New(Options{Board: f.board, PrefsPath: f.prefsPath})
}

func update(t *testing.T, m Model, msg tea.Msg) Model {
	t.Helper()
	next, _ := m.Update(msg)
	out, ok := next.(Model)
	if !ok {
		t.Fatalf("Update returned %T", next)
	}
	return out
}

func press(t *testing.T, m Model, keys string) Model {
	t.Helper()
	switch keys {
	case "tab":
		return update(t, m, tea.KeyMsg{Type: tea.KeyTab})
	case "enter":
		return update(t, m, tea.KeyMsg{Type: tea.KeyEnter})
	case " ":
		return update(t, m, tea.KeyMsg{Type: tea.KeySpace, Runes: []rune(" ")})
	}
	return update(t, m, tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(keys)})
}

func TestModel_ScrollToEndLoadsNextPage(t *testing.T) {
	f := newFixture(t, 25)
	m := update(t, f.model(), tea.WindowSizeMsg{Width: 100, Height: 12})

	if got := len(f.todos.State().Items); got != 10 {
		t.Fatalf("items after resize = %d, want 10", got)
	}

	m = press(t, m, "G")
	f.todos.Wait()
	if got := len(f.todos.State().Items); got != 20 {
		t.Fatalf("items after scrolling to end = %d, want 20", got)
	}
	if m.cursors["todos"] != 9 {
		t.Fatalf("cursor = %d, want 9", m.cursors["todos"])
	}

	m = update(t, m, changeMsg{List: "todos", Mode: "append"})
	m = press(t, m, "G")
	f.todos.Wait()
	if got := len(f.todos.State().Items); got != 25 {
		t.Fatalf("items after second page = %d, want 25", got)
	}
	st := f.todos.State()
	if st.HasMore {
		t.Fatalf("HasMore = true after a short page")
	}

	calls := f.todosTr.listCalls()
	m = update(t, m, changeMsg{List: "todos", Mode: "append"})
	press(t, m, "G")
	f.todos.Wait()
	if f.todosTr.listCalls() != calls {
		t.Fatalf("exhausted list was fetched again")
	}
}

func TestModel_ShortListFillsScreen(t *testing.T) {
	f := newFixture(t, 15)
	update(t, f.model(), tea.WindowSizeMsg{Width: 100, Height: 40})
	f.todos.Wait()
	if got := len(f.todos.State().Items); got != 15 {
		t.Fatalf("items = %d, want 15 once the first page fit on screen", got)
	}
}

func TestModel_ToggleIsOptimistic(t *testing.T) {
	f := newFixture(t, 3)
	m := update(t, f.model(), tea.WindowSizeMsg{Width: 100, Height: 40})
	f.todos.Wait()

	press(t, m, " ")
	if !f.todos.State().Items[0].Flag("status") {
		t.Fatalf("status not flipped locally")
	}
	f.todos.Wait()
	if st := f.todos.State(); st.Error != nil || !st.Items[0].Flag("status") {
		t.Fatalf("state after update = %+v", st)
	}
	if f.todosTr.updates != 1 {
		t.Fatalf("updates = %d, want 1", f.todosTr.updates)
	}
}

func TestModel_DeleteNeedsConfirmation(t *testing.T) {
	f := newFixture(t, 3)
	m := update(t, f.model(), tea.WindowSizeMsg{Width: 100, Height: 40})
	f.todos.Wait()

	m = press(t, m, "d")
	if m.pendingDelete != "1" {
		t.Fatalf("pendingDelete = %q, want 1", m.pendingDelete)
	}
	if !strings.Contains(m.View(), "Delete item 1?") {
		t.Fatalf("view does not show the delete prompt")
	}
	m = press(t, m, "n")
	if m.pendingDelete != "" || len(f.todos.State().Items) != 3 {
		t.Fatalf("cancelled delete removed an item")
	}

	m = press(t, m, "d")
	press(t, m, "y")
	f.todos.Wait()
	if got := len(f.todos.State().Items); got != 2 {
		t.Fatalf("items after delete = %d, want 2", got)
	}
}

func TestModel_TabLoadsListAndSavesPrefs(t *testing.T) {
	f := newFixture(t, 3)
	m := update(t, f.model(), tea.WindowSizeMsg{Width: 100, Height: 40})
	f.todos.Wait()

	if f.notes.State().Loaded {
		t.Fatalf("notes loaded before first visit")
	}
	m = press(t, m, "tab")
	f.notes.Wait()
	if m.snapshot.Active != "notes" {
		t.Fatalf("active = %q, want notes", m.snapshot.Active)
	}
	if !f.notes.State().Loaded {
		t.Fatalf("notes not loaded on first visit")
	}

	saved, err := prefs.Load(f.prefsPath)
	if err != nil {
		t.Fatalf("prefs.Load: %v", err)
	}
	if saved.ActiveList != "notes" {
		t.Fatalf("saved ActiveList = %q, want notes", saved.ActiveList)
	}
}

func TestModel_ThemeCycleIsSaved(t *testing.T) {
	f := newFixture(t, 1)
	m := update(t, f.model(), tea.WindowSizeMsg{Width: 100, Height: 40})
	m = press(t, m, "T")
	if m.theme.Name != "Kanagawa" {
		t.Fatalf("theme = %q, want Kanagawa", m.theme.Name)
	}
	saved, err := prefs.Load(f.prefsPath)
	if err != nil {
		t.Fatalf("prefs.Load: %v", err)
	}
	if saved.Theme != "Kanagawa" {
		t.Fatalf("saved theme = %q, want Kanagawa", saved.Theme)
	}
}

func TestModel_ViewShowsListAndSentinel(t *testing.T) {
	f := newFixture(t, 3)
	m := update(t, f.model(), tea.WindowSizeMsg{Width: 100, Height: 30})
	f.todos.Wait()
	m = update(t, m, changeMsg{List: "todos", Mode: "reset"})

	view := m.View()
	for _, want := range []string{"almanac", "item 1", "end of list, 3 items"} {
		if !strings.Contains(view, want) {
			t.Fatalf("view missing %q", want)
		}
	}

	m = press(t, m, "?")
	if !m.showHelp || !strings.Contains(m.View(), "Keyboard Shortcuts") {
		t.Fatalf("help overlay not shown")
	}
	m = press(t, m, "x")
	if m.showHelp {
		t.Fatalf("help overlay not closed")
	}
}

func TestModel_SearchOpensAndCancels(t *testing.T) {
	f := newFixture(t, 1)
	m := update(t, f.model(), tea.WindowSizeMsg{Width: 100, Height: 30})
	m.board.SetActive("notes")
	m.refresh()
	m = press(t, m, "/")
	if !m.searching {
		t.Fatalf("search should open on notes")
	}
	m = update(t, m, tea.KeyMsg{Type: tea.KeyEsc})
	if m.searching {
		t.Fatalf("esc did not close search")
	}
}
