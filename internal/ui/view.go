package ui

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"

	"github.com/five82/almanac/internal/lists"
	"github.com/five82/almanac/internal/listsync"
)

// chrome is the header, command bar and status line.
const chrome = 3

// renderHeader renders the logo, the list tabs and connection health.
func (m Model) renderHeader() string {
	styles := m.theme.Styles().On(m.theme.Surface)
	bg := onBg(m.theme.Surface)

	parts := []string{bg.render("almanac", styles.Logo)}

	var tabs []string
	names := []string{}
	if m.board != nil {
		names = m.board.Names()
	}
	for _, name := range names {
		title := name
		if p, ok := lists.Lookup(name); ok {
			title = p.Title
		}
		if name == m.snapshot.Active {
			tab := lipgloss.NewStyle().
				Foreground(lipgloss.Color(m.theme.Background)).
				Background(lipgloss.Color(m.theme.TabColor(name))).
				Bold(true).
				Padding(0, 1).
				Render(title)
			tabs = append(tabs, tab)
			continue
		}
		tabs = append(tabs, bg.render(title, styles.MutedText))
	}
	parts = append(parts, bg.join(tabs, 1))

	switch {
	case m.snapshot.IsOffline():
		parts = append(parts, bg.render("● OFFLINE", styles.DangerText))
	case m.snapshot.LastError != nil && m.snapshot.LastUpdated.IsZero():
		parts = append(parts, bg.render("● unreachable", styles.WarningText))
	case !m.snapshot.LastUpdated.IsZero():
		parts = append(parts, bg.render("● "+m.snapshot.LastUpdated.Format("15:04:05"), styles.SuccessText))
	default:
		parts = append(parts, bg.render("connecting...", styles.WarningText))
	}
	if m.width >= 100 && m.apiBase != "" {
		parts = append(parts, bg.render(truncate(m.apiBase, 40), styles.FaintText))
	}

	return styles.Bar.Width(m.width).Render(bg.join(parts, 2))
}

// renderCommandBar shows the active facet and sort next to the key hints.
func (m Model) renderCommandBar() string {
	styles := m.theme.Styles().On(m.theme.Surface)
	bg := onBg(m.theme.Surface)

	var parts []string
	if preset, ok := m.activePreset(); ok {
		if st, ok := m.activeState(); ok {
			facet := preset.ActiveFacet(st.Snapshot)
			parts = append(parts,
				bg.render("filter", styles.FaintText)+bg.spaces(1)+bg.render(facet.Label, styles.AccentText),
				bg.render("sort", styles.FaintText)+bg.spaces(1)+bg.render(sortLabel(st.Snapshot.Sort()), styles.AccentText),
			)
			if q, ok := st.Snapshot.Filter("q"); ok {
				parts = append(parts, bg.render("/"+truncate(fmt.Sprint(q), 18), styles.WarningText))
			}
		}
	}
	parts = append(parts, m.help.ShortHelpView(m.keys.ShortHelp()))
	return styles.Bar.Width(m.width).Render(bg.join(parts, 2))
}

// renderContent lays out the list and, when open, the detail pane.
func (m Model) renderContent() string {
	height := m.contentHeight()
	st, ok := m.activeState()
	if !ok {
		msg := m.theme.Styles().MutedText.Render("No lists configured")
		return lipgloss.Place(m.width, height, lipgloss.Center, lipgloss.Center, msg)
	}
	if !m.showDetail {
		return m.renderList(st, m.width, height, true)
	}
	listWidth := m.width * 45 / 100
	if m.width >= 160 {
		listWidth = m.width * 35 / 100
	}
	detailWidth := m.width - listWidth
	return lipgloss.JoinHorizontal(lipgloss.Top,
		m.renderList(st, listWidth, height, false),
		m.renderBox(m.detailTitle(), m.detail.View(), detailWidth, height, true),
	)
}

func (m Model) contentHeight() int {
	return max(m.height-chrome, 5)
}

// visibleRows is how many item rows fit in the list box: borders, the
// title line and the sentinel line are taken off.
func (m Model) visibleRows() int {
	return max(m.contentHeight()-4, 1)
}

func (m Model) renderList(st listsync.State, width, height int, focused bool) string {
	styles := m.theme.Styles()
	inner := max(width-2, 10)
	rows := m.visibleRows()
	cursor := m.cursors[st.Name]
	top := windowTop(cursor, len(st.Items), rows)

	now := time.Now()
	lines := make([]string, 0, rows+1)
	for i := top; i < len(st.Items) && i < top+rows; i++ {
		lines = append(lines, m.renderRow(st.Name, st.Items[i], inner, i == cursor, now))
	}
	if len(st.Items) == 0 {
		lines = append(lines, styles.MutedText.Render(m.emptyMessage(st)))
	}
	lines = append(lines, m.sentinelLine(st))

	title := st.Name
	if p, ok := lists.Lookup(st.Name); ok {
		title = p.Title
	}
	title = fmt.Sprintf("%s (%d)", title, len(st.Items))
	return m.renderBox(title, strings.Join(lines, "\n"), width, height, focused)
}

func (m Model) renderRow(list string, it listsync.Item, width int, selected bool, now time.Time) string {
	parts := describeRow(list, it, now)
	meta := strings.Join(parts.Meta, " · ")
	titleWidth := max(width-lipgloss.Width(parts.Marker)-len([]rune(meta))-4, 8)
	title := truncate(parts.Title, titleWidth)

	if selected {
		text := parts.Marker + " " + title
		if meta != "" {
			text += "  " + meta
		}
		return m.theme.Styles().Selected.Width(width).Render(truncate(text, width))
	}

	styles := m.theme.Styles()
	marker := lipgloss.NewStyle().Foreground(lipgloss.Color(m.toneColor(list, parts.Tone))).Render(parts.Marker)
	titleStyle := styles.Text
	if parts.Tone == toneDone && list == "todos" {
		titleStyle = styles.FaintText.Strikethrough(true)
	}
	line := marker + " " + titleStyle.Render(title)
	if meta != "" {
		line += "  " + styles.MutedText.Render(meta)
	}
	return line
}

func (m Model) toneColor(list, tone string) string {
	switch tone {
	case toneDone:
		return m.theme.Success
	case toneOverdue:
		return m.theme.Danger
	case toneUrgent, toneStarred:
		return m.theme.Warning
	case toneOff:
		return m.theme.Faint
	}
	return m.theme.TabColor(list)
}

func (m Model) emptyMessage(st listsync.State) string {
	switch {
	case st.IsLoading:
		return "Loading..."
	case st.Error != nil && st.Error.Op == "list":
		return "Could not load this list"
	case !st.Loaded:
		return "Not loaded yet (r to load)"
	}
	return "Nothing here"
}

// sentinelLine is the last row of the list: what happens when the cursor
// reaches the end.
func (m Model) sentinelLine(st listsync.State) string {
	styles := m.theme.Styles()
	switch {
	case st.IsLoading && len(st.Items) > 0:
		return styles.InfoText.Render(m.spinner.View() + " loading more")
	case st.IsLoading:
		return styles.InfoText.Render(m.spinner.View() + " loading")
	case st.Error != nil && st.Error.Op == "list":
		return styles.DangerText.Render("load failed, R to retry")
	case st.HasMore && len(st.Items) > 0:
		return styles.FaintText.Render("↓ more")
	case st.Loaded && len(st.Items) > 0:
		return styles.FaintText.Render(fmt.Sprintf("end of list, %d items", len(st.Items)))
	}
	return ""
}

// renderStatusLine shows prompts, errors and notices for the active list.
func (m Model) renderStatusLine() string {
	styles := m.theme.Styles()
	if m.searching {
		return m.search.View()
	}
	if m.pendingDelete != "" {
		return styles.WarningText.Render(fmt.Sprintf("Delete item %s? y to confirm, any other key cancels", m.pendingDelete))
	}
	if st, ok := m.activeState(); ok && st.Error != nil {
		return styles.DangerText.Render(truncate(describeError(st.Error), max(m.width, 20)))
	}
	if m.notice != "" {
		return styles.MutedText.Render(m.notice)
	}
	if st, ok := m.activeState(); ok {
		status := fmt.Sprintf("%d loaded", len(st.Items))
		if st.HasMore {
			status += ", more available"
		}
		if n := m.pendingFor(st.Name); n > 0 {
			status += fmt.Sprintf(", %d saving", n)
		}
		return styles.FaintText.Render(status)
	}
	return ""
}

func (m Model) pendingFor(list string) int {
	if m.board == nil {
		return 0
	}
	ctrl, ok := m.board.Controller(list)
	if !ok {
		return 0
	}
	return ctrl.Pending()
}

// describeError phrases a list error for the status line.
func describeError(err *listsync.Error) string {
	switch err.Kind {
	case listsync.KindNetwork:
		return "Network error: " + err.Err.Error() + " (R to retry)"
	case listsync.KindServer:
		return "Server error: " + err.Err.Error() + " (R to retry)"
	case listsync.KindConflict:
		return fmt.Sprintf("Could not %s item %s, change reverted: %v", err.Op, err.ID, err.Err)
	case listsync.KindNotFound:
		return "Not found: " + err.Err.Error()
	}
	return err.Error()
}

// renderBox draws a rounded pane with a bold title line.
func (m Model) renderBox(title, content string, width, height int, focused bool) string {
	border := m.theme.Border
	if focused {
		border = m.theme.BorderFocus
	}
	heading := lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color(m.theme.Text)).Render(title)
	return lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(lipgloss.Color(border)).
		Width(max(width-2, 1)).
		Height(max(height-2, 1)).
		MaxHeight(height).
		Render(heading + "\n" + content)
}

// windowTop keeps the cursor inside a window of rows, centred when possible.
func windowTop(cursor, total, rows int) int {
	if total <= rows || rows <= 0 {
		return 0
	}
	top := cursor - rows/2
	return max(0, min(top, total-rows))
}
