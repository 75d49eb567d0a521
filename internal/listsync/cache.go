package listsync

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

// Item is one decoded record of a remote collection. The controller only
// looks at the id field and the fields a patch touches.
type Item map[string]any

// Clone copies the top-level fields.
func (it Item) Clone() Item {
	if it == nil {
		return nil
	}
	out := make(Item, len(it))
	for k, v := range it {
		out[k] = v
	}
	return out
}

// ID returns the normalised identifier stored under field.
func (it Item) ID(field string) (string, bool) {
	v, ok := it[field]
	if !ok || v == nil {
		return "", false
	}
	id := normalizeID(v)
	return id, id != ""
}

// String returns field as text, empty when absent.
func (it Item) String(field string) string {
	v, ok := it[field]
	if !ok || v == nil {
		return ""
	}
	if s, ok := v.(string); ok {
		return s
	}
	return fmt.Sprint(v)
}

// Int returns field as an integer. Backend flags such as status and
// is_starred are 0/1 integers.
func (it Item) Int(field string) (int64, bool) {
	switch v := it[field].(type) {
	case json.Number:
		n, err := v.Int64()
		if err != nil {
			f, ferr := v.Float64()
			if ferr != nil {
				return 0, false
			}
			return int64(f), true
		}
		return n, true
	case float64:
		return int64(v), true
	case float32:
		return int64(v), true
	case int:
		return int64(v), true
	case int64:
		return v, true
	case int32:
		return int64(v), true
	case uint64:
		return int64(v), true
	case bool:
		if v {
			return 1, true
		}
		return 0, true
	case string:
		n, err := strconv.ParseInt(strings.TrimSpace(v), 10, 64)
		return n, err == nil
	default:
		return 0, false
	}
}

// Float returns field as a float64.
func (it Item) Float(field string) (float64, bool) {
	switch v := it[field].(type) {
	case json.Number:
		f, err := v.Float64()
		return f, err == nil
	case float64:
		return v, true
	case float32:
		return float64(v), true
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
		return f, err == nil
	default:
		n, ok := it.Int(field)
		return float64(n), ok
	}
}

// Flag reports whether an integer/bool field is set.
func (it Item) Flag(field string) bool {
	n, ok := it.Int(field)
	return ok && n != 0
}

func normalizeID(v any) string {
	switch id := v.(type) {
	case string:
		return strings.TrimSpace(id)
	case json.Number:
		return id.String()
	case float64:
		return strconv.FormatFloat(id, 'f', -1, 64)
	default:
		return fmt.Sprint(id)
	}
}

// ListCache is the ordered, id-unique set of loaded items. It is not safe
// for concurrent use; the Controller serialises access.
type ListCache struct {
	idField string
	items   []Item
	index   map[string]int
}

// NewListCache creates an empty cache keyed by idField.
func NewListCache(idField string) *ListCache {
	if idField == "" {
		idField = "id"
	}
	return &ListCache{idField: idField, index: map[string]int{}}
}

// Replace discards the contents and stores items in order.
func (c *ListCache) Replace(items []Item) {
	c.items = c.items[:0]
	c.index = make(map[string]int, len(items))
	c.Append(items)
}

// Append adds items in order. An id already cached is updated in place and
// keeps its position. Items without an id are dropped.
func (c *ListCache) Append(items []Item) {
	for _, item := range items {
		id, ok := item.ID(c.idField)
		if !ok {
			continue
		}
		if idx, exists := c.index[id]; exists {
			c.items[idx] = item.Clone()
			continue
		}
		c.index[id] = len(c.items)
		c.items = append(c.items, item.Clone())
	}
}

// Patch applies fn to the cached item with id. Absent ids are ignored.
func (c *ListCache) Patch(id string, fn func(Item) Item) bool {
	idx, ok := c.index[id]
	if !ok || fn == nil {
		return false
	}
	updated := fn(c.items[idx].Clone())
	if updated == nil {
		return false
	}
	// The id is the key; a patch must not move the item.
	updated[c.idField] = c.items[idx][c.idField]
	c.items[idx] = updated
	return true
}

// Remove deletes id and returns the removed item with its former position.
func (c *ListCache) Remove(id string) (Item, int, bool) {
	idx, ok := c.index[id]
	if !ok {
		return nil, -1, false
	}
	removed := c.items[idx]
	c.items = append(c.items[:idx], c.items[idx+1:]...)
	delete(c.index, id)
	c.reindex(idx)
	return removed, idx, true
}

// Insert places item at index, clamped to the list bounds. When the id is
// already cached the call is a no-op.
func (c *ListCache) Insert(index int, item Item) bool {
	id, ok := item.ID(c.idField)
	if !ok {
		return false
	}
	if _, exists := c.index[id]; exists {
		return false
	}
	if index < 0 {
		index = 0
	}
	if index > len(c.items) {
		index = len(c.items)
	}
	c.items = append(c.items, nil)
	copy(c.items[index+1:], c.items[index:])
	c.items[index] = item.Clone()
	c.reindex(index)
	return true
}

// Get returns a copy of the cached item.
func (c *ListCache) Get(id string) (Item, bool) {
	idx, ok := c.index[id]
	if !ok {
		return nil, false
	}
	return c.items[idx].Clone(), true
}

// Items returns copies of all items in order.
func (c *ListCache) Items() []Item {
	if len(c.items) == 0 {
		return nil
	}
	out := make([]Item, len(c.items))
	for i, item := range c.items {
		out[i] = item.Clone()
	}
	return out
}

func (c *ListCache) Len() int {
	return len(c.items)
}

func (c *ListCache) reindex(from int) {
	for i := from; i < len(c.items); i++ {
		id, _ := c.items[i].ID(c.idField)
		c.index[id] = i
	}
}
