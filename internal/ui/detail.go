package ui

import (
	"fmt"
	"html"
	"regexp"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/viewport"
	"github.com/charmbracelet/glamour"
	"github.com/charmbracelet/lipgloss"

	"github.com/five82/almanac/internal/api"
	"github.com/five82/almanac/internal/listsync"
	"github.com/five82/almanac/internal/stats"
)

// markdownRenderer caches a glamour renderer per wrap width.
type markdownRenderer struct {
	width int
	r     *glamour.TermRenderer
}

func (mr *markdownRenderer) render(md string, width int) string {
	if strings.TrimSpace(md) == "" {
		return ""
	}
	if mr.r == nil || mr.width != width {
		r, err := glamour.NewTermRenderer(
			glamour.WithStandardStyle("dark"),
			glamour.WithWordWrap(width),
		)
		if err != nil {
			return md
		}
		mr.r, mr.width = r, width
	}
	out, err := mr.r.Render(md)
	if err != nil {
		return md
	}
	return strings.Trim(out, "\n")
}

var (
	blockTags = regexp.MustCompile(`(?i)<\s*(br|/p|/div|/li|/h[1-6])\s*/?>`)
	anyTag    = regexp.MustCompile(`<[^>]*>`)
	blankRuns = regexp.MustCompile(`\n{3,}`)
)

// richTextToPlain flattens the editor's HTML into readable text.
func richTextToPlain(s string) string {
	s = blockTags.ReplaceAllString(s, "\n")
	s = anyTag.ReplaceAllString(s, "")
	s = html.UnescapeString(s)
	s = blankRuns.ReplaceAllString(s, "\n\n")
	return strings.TrimSpace(s)
}

func (m Model) detailTitle() string {
	it, ok := m.selectedItem()
	if !ok {
		return "Details"
	}
	return truncate(describeRow(m.snapshot.Active, it, time.Now()).Title, 40)
}

// updateDetail re-renders the detail pane for the selected item.
func (m *Model) updateDetail() {
	if !m.showDetail || m.width == 0 {
		return
	}
	width := max(m.width-m.width*45/100-4, 20)
	if m.width >= 160 {
		width = max(m.width-m.width*35/100-4, 20)
	}
	height := max(m.contentHeight()-3, 1)
	if m.detail.Width != width || m.detail.Height != height {
		m.detail = viewport.New(width, height)
	}
	it, ok := m.selectedItem()
	if !ok {
		m.detail.SetContent(m.theme.Styles().MutedText.Render("Nothing selected"))
		return
	}
	var all []listsync.Item
	if st, ok := m.activeState(); ok {
		all = st.Items
	}
	m.detail.SetContent(m.detailContent(m.snapshot.Active, it, all, width))
	m.detail.GotoTop()
}

// detailContent renders the fields of one item, plus list-wide figures
// where a list has them.
func (m Model) detailContent(list string, it listsync.Item, all []listsync.Item, width int) string {
	styles := m.theme.Styles()
	var b strings.Builder
	field := func(label, value string) {
		if strings.TrimSpace(value) == "" {
			return
		}
		b.WriteString(styles.MutedText.Render(fmt.Sprintf("%-10s", label)))
		b.WriteString(" ")
		b.WriteString(styles.Text.Render(value))
		b.WriteString("\n")
	}
	section := func(title, body string) {
		if strings.TrimSpace(body) == "" {
			return
		}
		b.WriteString("\n")
		b.WriteString(styles.AccentText.Bold(true).Render(title))
		b.WriteString("\n")
		b.WriteString(lipgloss.NewStyle().Width(width).Render(body))
		b.WriteString("\n")
	}

	switch list {
	case api.Todos:
		t, _ := api.Decode[api.Todo](it)
		field("Title", t.Title)
		field("Status", map[bool]string{true: "done", false: "open"}[t.Done()])
		field("Priority", priorityLabel(t.Priority))
		field("Deadline", t.Deadline)
		field("Category", t.CategoryPath)
		field("Created", t.CreateTime)
		field("Updated", t.UpdateTime)
		section("Remark", t.Remark)

	case api.Recipes:
		r, _ := api.Decode[api.Recipe](it)
		field("Name", r.Name)
		field("Category", r.Category)
		if r.Duration > 0 {
			field("Duration", fmt.Sprintf("%d min", r.Duration))
		}
		field("Difficulty", r.Difficulty)
		section("Ingredients", r.Ingredients)
		section("Steps", r.Steps)
		section("Remark", r.Remark)

	case api.Notes:
		n, _ := api.Decode[api.Note](it)
		field("Category", n.CategoryPath)
		field("Updated", n.UpdateTime)
		b.WriteString("\n")
		if n.Markdown() {
			b.WriteString(m.markdown.render(n.Content, width))
		} else {
			b.WriteString(lipgloss.NewStyle().Width(width).Render(richTextToPlain(n.Content)))
		}
		b.WriteString("\n")

	case api.Checkins:
		c, _ := api.Decode[api.CheckinItem](it)
		field("Item", c.ItemName)
		field("Icon", c.Icon)
		field("Status", map[bool]string{true: "enabled", false: "disabled"}[c.Enabled()])

	case api.Weight:
		w, _ := api.Decode[api.WeightRecord](it)
		field("Date", w.RecordDate)
		field("Weight", fmt.Sprintf("%.2f kg", w.Weight))
		field("Week", w.WeekNum)
		field("Remark", w.Remark)
		section("Loaded records", weightSummary(api.DecodeAll[api.WeightRecord](all)))

	default:
		for k, v := range it {
			field(k, fmt.Sprint(v))
		}
	}
	return strings.TrimRight(b.String(), "\n")
}

// weightSummary describes the weigh-ins loaded so far.
func weightSummary(records []api.WeightRecord) string {
	s := stats.Weight(records)
	if s.Count == 0 {
		return ""
	}
	lines := []string{
		fmt.Sprintf("%d records, %s to %s", s.Count, s.First.RecordDate, s.Last.RecordDate),
		fmt.Sprintf("mean %.2f kg, min %.2f, max %.2f", s.Mean, s.Min, s.Max),
	}
	if s.Count > 1 {
		lines = append(lines, fmt.Sprintf("change %+.2f kg, std dev %.2f", s.Change, s.StdDev))
	}
	for i := len(s.Weeks) - 1; i >= 0 && i >= len(s.Weeks)-4; i-- {
		wk := s.Weeks[i]
		lines = append(lines, fmt.Sprintf("week %s: %.2f kg (%d)", wk.Week, wk.Mean, wk.Count))
	}
	return strings.Join(lines, "\n")
}
