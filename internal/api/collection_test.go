package api

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"sync"
	"testing"

	"github.com/go-playground/assert/v2"

	"github.com/five82/almanac/internal/listsync"
)

type recorded struct {
	method string
	path   string
	query  url.Values
	body   map[string]any
}

func newRecordingServer(t *testing.T, handler func(w http.ResponseWriter, r *http.Request)) (*Client, *[]recorded) {
	t.Helper()
	var mu sync.Mutex
	var calls []recorded
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		rec := recorded{method: r.Method, path: r.URL.Path, query: r.URL.Query()}
		if r.Body != nil {
			_ = json.NewDecoder(r.Body).Decode(&rec.body)
		}
		mu.Lock()
		calls = append(calls, rec)
		mu.Unlock()
		w.Header().Set("Content-Type", "application/json")
		handler(w, r)
	}))
	t.Cleanup(server.Close)

	c, err := NewClient(server.URL, "")
	if err != nil {
		t.Fatalf("NewClient returned error: %v", err)
	}
	return c, &calls
}

func TestCollection_PagedListSendsSkipLimitAndFilters(t *testing.T) {
	c, calls := newRecordingServer(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`[{"id":12345678901234,"name":"soup","is_starred":1}]`))
	})
	col, err := c.Collection(Recipes)
	if err != nil {
		t.Fatalf("Collection returned error: %v", err)
	}

	items, err := col.List(context.Background(), listsync.Query{
		Filters: listsync.Filters{"category": "dinner", "is_starred": true, SearchKey: "tomato"},
		Offset:  24,
		Limit:   12,
	})
	if err != nil {
		t.Fatalf("List returned error: %v", err)
	}

	got := (*calls)[0]
	assert.Equal(t, got.method, http.MethodGet)
	assert.Equal(t, got.path, "/api/v1/recipes/")
	assert.Equal(t, got.query.Get("skip"), "24")
	assert.Equal(t, got.query.Get("limit"), "12")
	assert.Equal(t, got.query.Get("category"), "dinner")
	assert.Equal(t, got.query.Get("is_starred"), "1")
	assert.Equal(t, got.query.Get("keyword"), "tomato")
	assert.Equal(t, got.query.Has("q"), false)

	id, _ := items[0].ID("id")
	assert.Equal(t, id, "12345678901234")
}

func TestCollection_UnpagedListSortsAndSlicesLocally(t *testing.T) {
	c, calls := newRecordingServer(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`[
			{"id":1,"title":"a","create_time":"2026-01-01T08:00:00"},
			{"id":2,"title":"b","create_time":"2026-01-03T08:00:00"},
			{"id":3,"title":"c","create_time":"2026-01-02T08:00:00"}
		]`))
	})
	col, err := c.Collection(Todos)
	if err != nil {
		t.Fatalf("Collection returned error: %v", err)
	}

	page, err := col.List(context.Background(), listsync.Query{
		Filters: listsync.Filters{"status": 0, SearchKey: "milk"},
		Sort:    listsync.Sort{Field: "create_time", Direction: listsync.Descending},
		Offset:  1,
		Limit:   1,
	})
	if err != nil {
		t.Fatalf("List returned error: %v", err)
	}
	if len(page) != 1 {
		t.Fatalf("page = %v, want 1 item", page)
	}
	id, _ := page[0].ID("id")
	assert.Equal(t, id, "3")

	got := (*calls)[0]
	assert.Equal(t, got.query.Has("skip"), false)
	assert.Equal(t, got.query.Get("status"), "0")
	assert.Equal(t, got.query.Get("q"), "milk")

	empty, err := col.List(context.Background(), listsync.Query{Offset: 10, Limit: 5})
	if err != nil || len(empty) != 0 {
		t.Fatalf("List past the end = %v, %v; want empty", empty, err)
	}
}

func TestCollection_MutationsUseResourcePaths(t *testing.T) {
	c, calls := newRecordingServer(t, func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodPost:
			_, _ = w.Write([]byte(`{"id":9,"weight":70.2}`))
		case http.MethodPut:
			_, _ = w.Write([]byte(`{"id":9,"weight":70.4}`))
		case http.MethodDelete:
			_, _ = w.Write([]byte(`{"status":"ok"}`))
		}
	})
	col, err := c.Collection(Weight)
	if err != nil {
		t.Fatalf("Collection returned error: %v", err)
	}
	ctx := context.Background()

	created, err := col.Create(ctx, listsync.Item{"weight": 70.2, "record_date": "2026-03-01"})
	if err != nil {
		t.Fatalf("Create returned error: %v", err)
	}
	if id, _ := created.ID("id"); id != "9" {
		t.Fatalf("created id = %q, want 9", id)
	}
	if _, err := col.Update(ctx, "9", listsync.Item{"weight": 70.4}); err != nil {
		t.Fatalf("Update returned error: %v", err)
	}
	if err := col.Delete(ctx, "9"); err != nil {
		t.Fatalf("Delete returned error: %v", err)
	}

	want := []struct{ method, path string }{
		{http.MethodPost, "/api/v1/weight/record/add"},
		{http.MethodPut, "/api/v1/weight/record/update/9"},
		{http.MethodDelete, "/api/v1/weight/record/delete/9"},
	}
	for i, w := range want {
		got := (*calls)[i]
		if got.method != w.method || got.path != w.path {
			t.Fatalf("call %d = %s %s, want %s %s", i, got.method, got.path, w.method, w.path)
		}
	}
	assert.Equal(t, (*calls)[1].body["weight"], 70.4)
}

func TestCollection_ErrorsClassifyForListsync(t *testing.T) {
	c, _ := newRecordingServer(t, func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodDelete {
			w.WriteHeader(http.StatusNotFound)
			_, _ = w.Write([]byte(`{"detail":"Todo not found"}`))
			return
		}
		w.WriteHeader(http.StatusInternalServerError)
	})
	col, err := c.Collection(Todos)
	if err != nil {
		t.Fatalf("Collection returned error: %v", err)
	}

	_, err = col.List(context.Background(), listsync.Query{Limit: 20})
	assert.Equal(t, listsync.Classify(err), listsync.KindServer)

	err = col.Delete(context.Background(), "5")
	assert.Equal(t, listsync.Classify(err), listsync.KindNotFound)

	dead, err := NewClient("127.0.0.1:1", "")
	if err != nil {
		t.Fatalf("NewClient returned error: %v", err)
	}
	deadCol, _ := dead.Collection(Todos)
	_, err = deadCol.List(context.Background(), listsync.Query{Limit: 20})
	assert.Equal(t, listsync.Classify(err), listsync.KindNetwork)
}

func TestClient_CollectionUnknownResource(t *testing.T) {
	c, err := NewClient("", "")
	if err != nil {
		t.Fatalf("NewClient returned error: %v", err)
	}
	if _, err := c.Collection("bookmarks"); err == nil {
		t.Fatalf("Collection(bookmarks) returned nil error")
	}
	if _, ok := LookupResource(" Notes "); !ok {
		t.Fatalf("LookupResource should be case and space insensitive")
	}
}
