package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"time"

	"github.com/fatih/color"
	"github.com/gosuri/uitable"

	"github.com/five82/almanac/internal/api"
	"github.com/five82/almanac/internal/listsync"
)

var (
	bold   = color.New(color.Bold)
	faint  = color.New(color.FgHiBlack)
	green  = color.New(color.FgGreen)
	yellow = color.New(color.FgYellow)
	red    = color.New(color.FgRed, color.Bold)
)

func newTable() *uitable.Table {
	tbl := uitable.New()
	tbl.Separator = "  "
	tbl.MaxColWidth = 60
	return tbl
}

func header(tbl *uitable.Table, cols ...string) {
	cells := make([]interface{}, len(cols))
	for i, c := range cols {
		cells[i] = bold.Sprint(c)
	}
	tbl.AddRow(cells...)
}

// printItems writes items as a table with columns chosen per resource.
func printItems(w io.Writer, resource string, items []listsync.Item) {
	if len(items) == 0 {
		fmt.Fprintln(w, faint.Sprint("no items"))
		return
	}
	now := time.Now()
	tbl := newTable()
	switch resource {
	case api.Todos:
		header(tbl, "ID", "DONE", "P", "TITLE", "DEADLINE", "CATEGORY")
		for _, t := range api.DecodeAll[api.Todo](items) {
			done, title := "[ ]", t.Title
			if t.Done() {
				done = green.Sprint("[x]")
			}
			if t.Starred() {
				title += " " + yellow.Sprint("★")
			}
			deadline := t.Deadline
			if t.Overdue(now) {
				deadline = red.Sprint(deadline)
			}
			tbl.AddRow(t.ID, done, t.Priority, title, deadline, t.CategoryPath)
		}
	case api.Recipes:
		header(tbl, "ID", "NAME", "CATEGORY", "MIN", "DIFFICULTY")
		for _, r := range api.DecodeAll[api.Recipe](items) {
			name := r.Name
			if r.Starred() {
				name += " " + yellow.Sprint("★")
			}
			tbl.AddRow(r.ID, name, r.Category, r.Duration, r.Difficulty)
		}
	case api.Notes:
		header(tbl, "ID", "TITLE", "CATEGORY", "FORMAT", "UPDATED")
		for _, n := range api.DecodeAll[api.Note](items) {
			format := "html"
			if n.Markdown() {
				format = "markdown"
			}
			tbl.AddRow(n.ID, n.Title, n.CategoryPath, format, n.UpdateTime)
		}
	case api.Checkins:
		header(tbl, "ID", "ITEM", "STATUS")
		for _, c := range api.DecodeAll[api.CheckinItem](items) {
			status := faint.Sprint("disabled")
			if c.Enabled() {
				status = green.Sprint("enabled")
			}
			tbl.AddRow(c.ID, c.Icon+" "+c.ItemName, status)
		}
	case api.Weight:
		header(tbl, "ID", "DATE", "KG", "REMARK")
		for _, r := range api.DecodeAll[api.WeightRecord](items) {
			tbl.AddRow(r.ID, r.RecordDate, strconv.FormatFloat(r.Weight, 'f', 2, 64), r.Remark)
		}
	default:
		header(tbl, "ID")
		for _, it := range items {
			id, _ := it.ID("id")
			tbl.AddRow(id)
		}
	}
	fmt.Fprintln(w, tbl)
}

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
