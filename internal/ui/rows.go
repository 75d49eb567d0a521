package ui

import (
	"fmt"
	"strings"
	"time"

	"github.com/five82/almanac/internal/api"
	"github.com/five82/almanac/internal/listsync"
)

// row tones pick the marker color.
const (
	toneNone    = ""
	toneDone    = "done"
	toneOverdue = "overdue"
	toneUrgent  = "urgent"
	toneStarred = "starred"
	toneOff     = "off"
)

// rowParts is one list row before styling.
type rowParts struct {
	Marker string
	Title  string
	Meta   []string
	Tone   string
}

// describeRow lays out an item of the given list.
func describeRow(list string, it listsync.Item, now time.Time) rowParts {
	switch list {
	case api.Todos:
		return todoRow(it, now)
	case api.Recipes:
		return recipeRow(it)
	case api.Notes:
		return noteRow(it)
	case api.Checkins:
		return checkinRow(it)
	case api.Weight:
		return weightRow(it)
	}
	return rowParts{Marker: "•", Title: it.String("id")}
}

func todoRow(it listsync.Item, now time.Time) rowParts {
	t, err := api.Decode[api.Todo](it)
	if err != nil {
		return rowParts{Marker: "?", Title: it.String("title")}
	}
	p := rowParts{Marker: "[ ]", Title: t.Title}
	if t.Done() {
		p.Marker = "[x]"
		p.Tone = toneDone
	}
	if t.Starred() {
		p.Title += " ★"
	}
	if label := priorityLabel(t.Priority); label != "" {
		p.Meta = append(p.Meta, label)
	}
	if d := t.ParsedDeadline(); !d.IsZero() {
		p.Meta = append(p.Meta, "due "+d.Format("Jan 2"))
	}
	if c := strings.TrimSpace(t.CategoryPath); c != "" {
		p.Meta = append(p.Meta, c)
	}
	switch {
	case t.Overdue(now):
		p.Tone = toneOverdue
	case !t.Done() && t.Priority == api.PriorityHigh:
		p.Tone = toneUrgent
	}
	return p
}

func recipeRow(it listsync.Item) rowParts {
	r, err := api.Decode[api.Recipe](it)
	if err != nil {
		return rowParts{Marker: "?", Title: it.String("name")}
	}
	p := rowParts{Marker: "·", Title: r.Name}
	if r.Starred() {
		p.Marker = "★"
		p.Tone = toneStarred
	}
	if c := strings.TrimSpace(r.Category); c != "" {
		p.Meta = append(p.Meta, c)
	}
	if r.Duration > 0 {
		p.Meta = append(p.Meta, fmt.Sprintf("%d min", r.Duration))
	}
	if d := strings.TrimSpace(r.Difficulty); d != "" {
		p.Meta = append(p.Meta, d)
	}
	return p
}

func noteRow(it listsync.Item) rowParts {
	n, err := api.Decode[api.Note](it)
	if err != nil {
		return rowParts{Marker: "?", Title: it.String("title")}
	}
	p := rowParts{Marker: "¶", Title: n.Title}
	if c := strings.TrimSpace(n.CategoryPath); c != "" {
		p.Meta = append(p.Meta, c)
	}
	if ts := shortDate(n.UpdateTime); ts != "" {
		p.Meta = append(p.Meta, ts)
	}
	return p
}

func checkinRow(it listsync.Item) rowParts {
	c, err := api.Decode[api.CheckinItem](it)
	if err != nil {
		return rowParts{Marker: "?", Title: it.String("item_name")}
	}
	p := rowParts{Marker: "●", Title: c.ItemName, Meta: []string{"enabled"}, Tone: toneDone}
	if icon := strings.TrimSpace(c.Icon); icon != "" {
		p.Title = icon + " " + c.ItemName
	}
	if !c.Enabled() {
		p.Marker = "○"
		p.Meta = []string{"disabled"}
		p.Tone = toneOff
	}
	return p
}

func weightRow(it listsync.Item) rowParts {
	w, err := api.Decode[api.WeightRecord](it)
	if err != nil {
		return rowParts{Marker: "?", Title: it.String("record_date")}
	}
	p := rowParts{Marker: "•", Title: fmt.Sprintf("%.2f kg", w.Weight)}
	if d := w.Date(); !d.IsZero() {
		p.Meta = append(p.Meta, d.Format("Mon Jan 2 2006"))
	} else if w.RecordDate != "" {
		p.Meta = append(p.Meta, w.RecordDate)
	}
	if r := strings.TrimSpace(w.Remark); r != "" {
		p.Meta = append(p.Meta, r)
	}
	return p
}

func priorityLabel(p int) string {
	switch p {
	case api.PriorityHigh:
		return "P1"
	case api.PriorityNormal:
		return "P2"
	case api.PriorityLow:
		return "P3"
	}
	return ""
}

func shortDate(raw string) string {
	raw = strings.TrimSpace(raw)
	if len(raw) >= 10 {
		return raw[:10]
	}
	return raw
}

// truncate shortens s to max display cells with an ellipsis.
func truncate(s string, max int) string {
	if max <= 0 {
		return ""
	}
	r := []rune(s)
	if len(r) <= max {
		return s
	}
	if max == 1 {
		return "…"
	}
	return string(r[:max-1]) + "…"
}
