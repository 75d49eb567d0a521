package api

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/five82/almanac/internal/listsync"
)

const backendTimestampLayout = "2006-01-02T15:04:05"

// User mirrors /users/me.
type User struct {
	ID       int64  `json:"id"`
	Username string `json:"username"`
	Nickname string `json:"nickname"`
	Avatar   string `json:"avatar"`
}

// DisplayName prefers the nickname.
func (u User) DisplayName() string {
	if n := strings.TrimSpace(u.Nickname); n != "" {
		return n
	}
	return u.Username
}

// Todo priorities; lower sorts first on the backend.
const (
	PriorityHigh   = 1
	PriorityNormal = 2
	PriorityLow    = 3
)

// Todo mirrors a /todos/ row.
type Todo struct {
	ID           int64  `json:"id"`
	CategoryPath string `json:"category_path"`
	Title        string `json:"title"`
	Remark       string `json:"remark"`
	Deadline     string `json:"deadline"`
	Priority     int    `json:"priority"`
	Status       int    `json:"status"`
	IsStarred    int    `json:"is_starred"`
	CreateTime   string `json:"create_time"`
	UpdateTime   string `json:"update_time"`
}

// Done reports whether the to-do is completed.
func (t Todo) Done() bool { return t.Status != 0 }

// Starred reports whether the to-do is starred.
func (t Todo) Starred() bool { return t.IsStarred != 0 }

// ParsedDeadline returns the deadline, zero when unset or unparseable.
func (t Todo) ParsedDeadline() time.Time { return parseTime(t.Deadline) }

// Overdue reports whether an open to-do is past its deadline at now.
func (t Todo) Overdue(now time.Time) bool {
	d := t.ParsedDeadline()
	return !t.Done() && !d.IsZero() && d.Before(now)
}

// Recipe mirrors a /recipes/ row.
type Recipe struct {
	ID          int64  `json:"id"`
	Name        string `json:"name"`
	Category    string `json:"category"`
	Ingredients string `json:"ingredients"`
	Steps       string `json:"steps"`
	ImageURL    string `json:"image_url"`
	Duration    int    `json:"duration"`
	Difficulty  string `json:"difficulty"`
	Remark      string `json:"remark"`
	IsStarred   int    `json:"is_starred"`
	CreateTime  string `json:"create_time"`
	UpdateTime  string `json:"update_time"`
}

// Starred reports whether the recipe is starred.
func (r Recipe) Starred() bool { return r.IsStarred != 0 }

// Note content types.
const (
	ContentRichText = 0
	ContentMarkdown = 1
)

// Note mirrors a /notes/ row.
type Note struct {
	ID           int64  `json:"id"`
	CategoryPath string `json:"category_path"`
	Title        string `json:"title"`
	Content      string `json:"content"`
	ContentType  int    `json:"content_type"`
	CreateTime   string `json:"create_time"`
	UpdateTime   string `json:"update_time"`
}

// Markdown reports whether Content is markdown rather than HTML.
func (n Note) Markdown() bool { return n.ContentType == ContentMarkdown }

// CheckinItem is a recurring habit that can be checked off per day.
type CheckinItem struct {
	ID       int64  `json:"id"`
	ItemName string `json:"item_name"`
	Icon     string `json:"icon"`
	Status   int    `json:"status"` // 1 enabled, 0 disabled
}

// Enabled reports whether the item shows up in the daily list.
func (c CheckinItem) Enabled() bool { return c.Status != 0 }

// CheckinRecord is one item's state on one day.
type CheckinRecord struct {
	ID          int64  `json:"id,omitempty"`
	ItemID      int64  `json:"item_id"`
	CheckDate   string `json:"check_date"`
	CheckStatus int    `json:"check_status"`
	ItemRemark  string `json:"item_remark,omitempty"`
}

// Checked reports whether the record marks the item done.
func (r CheckinRecord) Checked() bool { return r.CheckStatus != 0 }

// DailyCheckin pairs an item with its record for the requested day.
type DailyCheckin struct {
	Item   CheckinItem    `json:"item"`
	Record *CheckinRecord `json:"record"`
}

// Checked reports whether the item was checked that day.
func (d DailyCheckin) Checked() bool { return d.Record != nil && d.Record.Checked() }

// WeightRecord is one daily weigh-in.
type WeightRecord struct {
	ID         int64   `json:"id"`
	Weight     float64 `json:"weight"`
	RecordDate string  `json:"record_date"`
	Remark     string  `json:"remark"`
	WeekNum    string  `json:"week_num"`
}

// Date parses RecordDate.
func (w WeightRecord) Date() time.Time { return parseTime(w.RecordDate) }

// WeightPeriod is the weekly or monthly aggregate view.
type WeightPeriod struct {
	Records      []WeightRecord `json:"records"`
	AvgWeight    float64        `json:"avg_weight"`
	MaxWeight    float64        `json:"max_weight"`
	MinWeight    float64        `json:"min_weight"`
	DiffLastWeek float64        `json:"diff_last_week"`
}

// WeightTarget is the active weight goal.
type WeightTarget struct {
	TargetWeight float64 `json:"target_weight"`
	StartWeight  float64 `json:"start_weight,omitempty"`
	StartDate    string  `json:"start_date,omitempty"`
	Deadline     string  `json:"deadline,omitempty"`
}

// Decode converts a listsync item into one of the typed models above.
func Decode[T any](it listsync.Item) (T, error) {
	var out T
	raw, err := json.Marshal(it)
	if err != nil {
		return out, fmt.Errorf("encode item: %w", err)
	}
	if err := json.Unmarshal(raw, &out); err != nil {
		return out, fmt.Errorf("decode item: %w", err)
	}
	return out, nil
}

// DecodeAll converts items, skipping ones that do not fit T.
func DecodeAll[T any](items []listsync.Item) []T {
	out := make([]T, 0, len(items))
	for _, it := range items {
		v, err := Decode[T](it)
		if err != nil {
			continue
		}
		out = append(out, v)
	}
	return out
}

func parseTime(value string) time.Time {
	value = strings.TrimSpace(value)
	if value == "" {
		return time.Time{}
	}
	for _, layout := range []string{time.RFC3339Nano, time.RFC3339} {
		if t, err := time.Parse(layout, value); err == nil {
			return t
		}
	}
	for _, layout := range []string{backendTimestampLayout, "2006-01-02 15:04:05", dateLayout} {
		if t, err := time.ParseInLocation(layout, value, time.Local); err == nil {
			return t
		}
	}
	return time.Time{}
}
