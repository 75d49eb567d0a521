package api

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"sort"
	"strconv"
	"strings"

	"github.com/five82/almanac/internal/listsync"
)

// Resource describes where one collection lives on the backend.
type Resource struct {
	Name       string
	ListPath   string
	CreatePath string
	ItemPath   string // fmt pattern with one %s for the id, used for PUT
	DeletePath string // fmt pattern; defaults to ItemPath
	// Paged resources accept skip/limit. The rest return the whole
	// collection and are paged here.
	Paged bool
	// SearchParam is the query parameter the backend uses for free-text
	// search ("q" or "keyword").
	SearchParam string
}

// Resource names.
const (
	Todos    = "todos"
	Recipes  = "recipes"
	Notes    = "notes"
	Checkins = "checkins"
	Weight   = "weight"
)

var resources = map[string]Resource{
	Todos: {
		Name:        Todos,
		ListPath:    "/todos/",
		CreatePath:  "/todos/",
		ItemPath:    "/todos/%s",
		SearchParam: "q",
	},
	Recipes: {
		Name:        Recipes,
		ListPath:    "/recipes/",
		CreatePath:  "/recipes/",
		ItemPath:    "/recipes/%s",
		Paged:       true,
		SearchParam: "keyword",
	},
	Notes: {
		Name:        Notes,
		ListPath:    "/notes/",
		CreatePath:  "/notes/",
		ItemPath:    "/notes/%s",
		Paged:       true,
		SearchParam: "keyword",
	},
	Checkins: {
		Name:       Checkins,
		ListPath:   "/checkin/item/list",
		CreatePath: "/checkin/item/add",
		ItemPath:   "/checkin/item/update/%s",
		DeletePath: "/checkin/item/delete/%s",
	},
	Weight: {
		Name:       Weight,
		ListPath:   "/weight/record/history",
		CreatePath: "/weight/record/add",
		ItemPath:   "/weight/record/update/%s",
		DeletePath: "/weight/record/delete/%s",
		Paged:      true,
	},
}

// LookupResource returns the named resource.
func LookupResource(name string) (Resource, bool) {
	r, ok := resources[strings.ToLower(strings.TrimSpace(name))]
	return r, ok
}

// ResourceNames lists the known resources in a stable order.
func ResourceNames() []string {
	return []string{Todos, Recipes, Notes, Checkins, Weight}
}

// SearchKey is the filter key list screens use for free-text search. The
// collection renames it to the resource's own parameter.
const SearchKey = "q"

// Collection adapts one Resource to listsync.Transport.
type Collection struct {
	client *Client
	res    Resource
}

var _ listsync.Transport = (*Collection)(nil)

// Collection returns the transport for the named resource.
func (c *Client) Collection(name string) (*Collection, error) {
	if c == nil {
		return nil, fmt.Errorf("client is nil")
	}
	res, ok := LookupResource(name)
	if !ok {
		return nil, fmt.Errorf("unknown resource %q", name)
	}
	return &Collection{client: c, res: res}, nil
}

// Resource reports what the collection is bound to.
func (col *Collection) Resource() Resource {
	return col.res
}

// List fetches one page.
func (col *Collection) List(ctx context.Context, q listsync.Query) ([]listsync.Item, error) {
	values := encodeFilters(q.Filters, col.res.SearchParam)
	if col.res.Paged {
		values.Set("skip", strconv.Itoa(q.Offset))
		values.Set("limit", strconv.Itoa(q.Limit))
		if s := q.Sort.String(); s != "" {
			values.Set("sort", s)
		}
	}
	var items []listsync.Item
	if err := col.client.getJSON(ctx, col.res.ListPath, values, &items); err != nil {
		return nil, fmt.Errorf("list %s: %w", col.res.Name, err)
	}
	if col.res.Paged {
		return items, nil
	}
	if q.Sort.Field != "" {
		sortItems(items, q.Sort)
	}
	return pageOf(items, q.Offset, q.Limit), nil
}

// Create posts payload and returns the stored item.
func (col *Collection) Create(ctx context.Context, payload listsync.Item) (listsync.Item, error) {
	var created listsync.Item
	if err := col.client.sendJSON(ctx, http.MethodPost, col.res.CreatePath, payload, &created); err != nil {
		return nil, fmt.Errorf("create %s: %w", col.res.Name, err)
	}
	return created, nil
}

// Update sends patch for id.
func (col *Collection) Update(ctx context.Context, id string, patch listsync.Item) (listsync.Item, error) {
	var updated listsync.Item
	path := fmt.Sprintf(col.res.ItemPath, url.PathEscape(id))
	if err := col.client.sendJSON(ctx, http.MethodPut, path, patch, &updated); err != nil {
		return nil, fmt.Errorf("update %s %s: %w", col.res.Name, id, err)
	}
	return updated, nil
}

// Delete removes id.
func (col *Collection) Delete(ctx context.Context, id string) error {
	pattern := col.res.DeletePath
	if pattern == "" {
		pattern = col.res.ItemPath
	}
	path := fmt.Sprintf(pattern, url.PathEscape(id))
	if err := col.client.sendJSON(ctx, http.MethodDelete, path, nil, nil); err != nil {
		return fmt.Errorf("delete %s %s: %w", col.res.Name, id, err)
	}
	return nil
}

func encodeFilters(filters listsync.Filters, searchParam string) url.Values {
	values := url.Values{}
	for k, v := range filters {
		if v == nil {
			continue
		}
		key := k
		if k == SearchKey && searchParam != "" {
			key = searchParam
		}
		switch val := v.(type) {
		case bool:
			if val {
				values.Set(key, "1")
			} else {
				values.Set(key, "0")
			}
		case string:
			if s := strings.TrimSpace(val); s != "" {
				values.Set(key, s)
			}
		case json.Number:
			values.Set(key, val.String())
		default:
			values.Set(key, fmt.Sprint(val))
		}
	}
	return values
}

func sortItems(items []listsync.Item, s listsync.Sort) {
	desc := s.Direction == listsync.Descending
	sort.SliceStable(items, func(i, j int) bool {
		c := compareField(items[i], items[j], s.Field)
		if desc {
			return c > 0
		}
		return c < 0
	})
}

func compareField(a, b listsync.Item, field string) int {
	fa, okA := a.Float(field)
	fb, okB := b.Float(field)
	if okA && okB {
		switch {
		case fa < fb:
			return -1
		case fa > fb:
			return 1
		default:
			return 0
		}
	}
	return strings.Compare(a.String(field), b.String(field))
}

func pageOf(items []listsync.Item, offset, limit int) []listsync.Item {
	if offset < 0 {
		offset = 0
	}
	if offset >= len(items) {
		return nil
	}
	end := len(items)
	if limit > 0 && offset+limit < end {
		end = offset + limit
	}
	return items[offset:end]
}
