package listsync

import (
	"context"
	"errors"
	"fmt"
	"sync"
)

// scheduler queues spawned work so tests decide the interleaving.
type scheduler struct {
	mu    sync.Mutex
	tasks []func()
}

func (s *scheduler) spawn(f func()) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.tasks = append(s.tasks, f)
}

func (s *scheduler) len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.tasks)
}

// run executes the i-th queued task.
func (s *scheduler) run(i int) {
	s.mu.Lock()
	task := s.tasks[i]
	s.tasks = append(s.tasks[:i:i], s.tasks[i+1:]...)
	s.mu.Unlock()
	task()
}

func (s *scheduler) drain() {
	for s.len() > 0 {
		s.run(0)
	}
}

type statusErr int

func (e statusErr) Error() string   { return fmt.Sprintf("status %d", int(e)) }
func (e statusErr) StatusCode() int { return int(e) }

var errOffline = errors.New("dial tcp: connection refused")

type fakeTransport struct {
	mu        sync.Mutex
	items     []Item
	lists     []Query
	updates   []Item
	listErr   []error // consumed one per List call; nil entries succeed
	updateErr error
	createErr error
	deleteErr error
	nextID    int
}

func newFake(items ...Item) *fakeTransport {
	return &fakeTransport{items: items, nextID: 1000}
}

func (f *fakeTransport) List(_ context.Context, q Query) ([]Item, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.lists = append(f.lists, q)
	if len(f.listErr) > 0 {
		err := f.listErr[0]
		f.listErr = f.listErr[1:]
		if err != nil {
			return nil, err
		}
	}
	var matched []Item
	for _, it := range f.items {
		if matches(it, q.Filters) {
			matched = append(matched, it.Clone())
		}
	}
	if q.Offset >= len(matched) {
		return nil, nil
	}
	end := q.Offset + q.Limit
	if end > len(matched) {
		end = len(matched)
	}
	return matched[q.Offset:end], nil
}

func (f *fakeTransport) Create(_ context.Context, payload Item) (Item, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.createErr != nil {
		return nil, f.createErr
	}
	created := payload.Clone()
	f.nextID++
	created["id"] = f.nextID
	f.items = append([]Item{created}, f.items...)
	return created.Clone(), nil
}

func (f *fakeTransport) Update(_ context.Context, id string, patch Item) (Item, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.updates = append(f.updates, patch.Clone())
	if f.updateErr != nil {
		return nil, f.updateErr
	}
	for i, it := range f.items {
		if got, _ := it.ID("id"); got == id {
			for k, v := range patch {
				f.items[i][k] = v
			}
			return f.items[i].Clone(), nil
		}
	}
	return nil, statusErr(404)
}

func (f *fakeTransport) Delete(_ context.Context, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.deleteErr != nil {
		return f.deleteErr
	}
	for i, it := range f.items {
		if got, _ := it.ID("id"); got == id {
			f.items = append(f.items[:i], f.items[i+1:]...)
			return nil
		}
	}
	return statusErr(404)
}

func (f *fakeTransport) listCalls() []Query {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]Query(nil), f.lists...)
}

func matches(it Item, filters Filters) bool {
	for k, v := range filters {
		if fmt.Sprint(it[k]) != fmt.Sprint(v) {
			return false
		}
	}
	return true
}

func ids(items []Item) []string {
	out := make([]string, 0, len(items))
	for _, it := range items {
		id, _ := it.ID("id")
		out = append(out, id)
	}
	return out
}

func newTestController(tr Transport, cfg Config) (*Controller, *scheduler) {
	sched := &scheduler{}
	if cfg.Name == "" {
		cfg.Name = "test"
	}
	return New(context.Background(), tr, cfg, WithSpawner(sched.spawn)), sched
}
