package listsync

import (
	"context"
	"errors"
	"testing"

	"github.com/go-playground/assert/v2"
)

func TestLoadMore_PaginatesUntilShortPage(t *testing.T) {
	tr := newFake(Item{"id": 1}, Item{"id": 2}, Item{"id": 3})
	c, sched := newTestController(tr, Config{PageSize: 2})

	assert.Equal(t, c.LoadMore(), true)
	sched.drain()
	st := c.State()
	assert.Equal(t, ids(st.Items), []string{"1", "2"})
	assert.Equal(t, st.HasMore, true)

	assert.Equal(t, c.LoadMore(), true)
	sched.drain()
	st = c.State()
	assert.Equal(t, ids(st.Items), []string{"1", "2", "3"})
	assert.Equal(t, st.HasMore, false)
	assert.Equal(t, st.Cursor.Offset, 3)

	assert.Equal(t, c.LoadMore(), false)
	assert.Equal(t, sched.len(), 0)
	assert.Equal(t, len(tr.listCalls()), 2)
}

func TestLoadMore_NoNetworkWhenExhausted(t *testing.T) {
	tr := newFake(Item{"id": 1})
	c, sched := newTestController(tr, Config{PageSize: 5})

	c.LoadMore()
	sched.drain()
	assert.Equal(t, c.State().HasMore, false)

	for i := 0; i < 10; i++ {
		if c.LoadMore() {
			t.Fatalf("LoadMore admitted on exhausted list (call %d)", i)
		}
	}
	sched.drain()
	assert.Equal(t, len(tr.listCalls()), 1)
}

func TestLoadMore_RepeatedTriggerWhileInFlight(t *testing.T) {
	tr := newFake(Item{"id": 1}, Item{"id": 2}, Item{"id": 3})
	c, sched := newTestController(tr, Config{PageSize: 2})

	assert.Equal(t, c.LoadMore(), true)
	assert.Equal(t, c.LoadMore(), false)
	assert.Equal(t, c.State().IsLoading, true)
	sched.drain()

	assert.Equal(t, len(tr.listCalls()), 1)
	assert.Equal(t, c.State().IsLoading, false)
}

func TestLoadMore_RejectedWhileResetPending(t *testing.T) {
	tr := newFake(Item{"id": 1}, Item{"id": 2}, Item{"id": 3})
	c, sched := newTestController(tr, Config{PageSize: 2})

	c.SetFilters(Filters{"kind": nil})
	assert.Equal(t, c.LoadMore(), false) // reset queued
	sched.run(0)                         // dispatch, fetch queued
	assert.Equal(t, c.LoadMore(), false) // reset in flight
	sched.drain()

	assert.Equal(t, len(tr.listCalls()), 1)
	assert.Equal(t, c.LoadMore(), true)
}

func TestSetFilters_BurstCollapsesIntoOneFetch(t *testing.T) {
	tr := newFake(
		Item{"id": 1, "category": "A", "status": 0},
		Item{"id": 2, "category": "B", "status": 0},
		Item{"id": 3, "category": "B", "status": 1},
	)
	c, sched := newTestController(tr, Config{PageSize: 10})

	c.SetFilters(Filters{"category": "A"})
	c.SetFilters(Filters{"category": "B"})
	c.SetSort("create_time", Descending)
	c.SetFilters(Filters{"status": 1})
	sched.drain()

	calls := tr.listCalls()
	assert.Equal(t, len(calls), 1)
	assert.Equal(t, calls[0].Filters, Filters{"category": "B", "status": 1})
	assert.Equal(t, calls[0].Sort, Sort{Field: "create_time", Direction: Descending})

	st := c.State()
	assert.Equal(t, st.Snapshot.Generation(), uint64(4))
	assert.Equal(t, ids(st.Items), []string{"3"})
	assert.Equal(t, st.Loaded, true)
}

func TestSetFilters_ResetsCursor(t *testing.T) {
	tr := newFake(Item{"id": 1}, Item{"id": 2}, Item{"id": 3})
	c, sched := newTestController(tr, Config{PageSize: 2})
	c.LoadMore()
	sched.drain()
	c.LoadMore()
	sched.drain()
	assert.Equal(t, c.State().Cursor.Exhausted, true)

	c.SetFilters(Filters{"q": "x"})
	st := c.State()
	assert.Equal(t, st.Cursor, PageCursor{PageSize: 2})
	assert.Equal(t, st.HasMore, true)
	sched.drain()
	assert.Equal(t, tr.listCalls()[2].Offset, 0)
}

// Stale-then-fresh and fresh-then-stale must both end with the fresh page.
func TestSetFilters_StaleResponseDiscardedInAnyOrder(t *testing.T) {
	server := []Item{
		{"id": 1, "category": "A"},
		{"id": 2, "category": "A"},
		{"id": 3, "category": "B"},
	}

	onlyFresh := func() []Item {
		c, sched := newTestController(newFake(cloneAll(server)...), Config{PageSize: 10})
		c.SetFilters(Filters{"category": "B"})
		sched.drain()
		return c.State().Items
	}()

	orders := map[string]func(*scheduler){
		"stale first": func(s *scheduler) {
			s.run(0) // fetch A lands first
			s.drain()
		},
		"stale last": func(s *scheduler) {
			s.run(1) // dispatch B
			s.run(1) // fetch B
			s.run(0) // fetch A arrives late
		},
	}
	for name, order := range orders {
		t.Run(name, func(t *testing.T) {
			tr := newFake(cloneAll(server)...)
			c, sched := newTestController(tr, Config{PageSize: 10})

			c.SetFilters(Filters{"category": "A"})
			sched.run(0) // dispatch A; fetch A now queued
			c.SetFilters(Filters{"category": "B"})
			assert.Equal(t, sched.len(), 2)

			order(sched)

			st := c.State()
			assert.Equal(t, st.Items, onlyFresh)
			assert.Equal(t, ids(st.Items), []string{"3"})
			if st.Error != nil {
				t.Fatalf("stale response surfaced an error: %v", st.Error)
			}
			assert.Equal(t, len(tr.listCalls()), 2)
		})
	}
}

func TestScenarioB_LateResponseForOldCategory(t *testing.T) {
	tr := newFake(Item{"id": 1, "category": "A"}, Item{"id": 2, "category": "B"})
	c, sched := newTestController(tr, Config{PageSize: 10})

	c.SetFilters(Filters{"category": "A"})
	sched.run(0)
	c.SetFilters(Filters{"category": "B"})
	sched.run(1)
	sched.run(1)
	assert.Equal(t, ids(c.State().Items), []string{"2"})

	sched.run(0)
	assert.Equal(t, ids(c.State().Items), []string{"2"})
	v, _ := c.State().Snapshot.Filter("category")
	assert.Equal(t, v, "B")
}

func TestFetchFailure_KeepsCacheAndCursorAndRetries(t *testing.T) {
	tr := newFake(Item{"id": 1}, Item{"id": 2}, Item{"id": 3})
	c, sched := newTestController(tr, Config{PageSize: 2})
	c.LoadMore()
	sched.drain()
	before := c.State()

	tr.listErr = []error{errOffline}
	c.LoadMore()
	sched.drain()

	st := c.State()
	assert.Equal(t, st.Items, before.Items)
	assert.Equal(t, st.Cursor, before.Cursor)
	if st.Error == nil || st.Error.Kind != KindNetwork {
		t.Fatalf("Error = %v, want network error", st.Error)
	}
	if !errors.Is(st.Error, ErrNetwork) {
		t.Fatalf("errors.Is(%v, ErrNetwork) = false", st.Error)
	}
	assert.Equal(t, st.Fetch.LastError, st.Error)

	assert.Equal(t, c.Retry(), true)
	sched.drain()
	st = c.State()
	assert.Equal(t, ids(st.Items), []string{"1", "2", "3"})
	assert.Equal(t, st.Error == nil, true)
	assert.Equal(t, c.Retry(), false)

	calls := tr.listCalls()
	assert.Equal(t, calls[1].Offset, 2)
	assert.Equal(t, calls[2].Offset, 2)
}

func TestResetFailure_ServerErrorThenRetrySameSnapshot(t *testing.T) {
	tr := newFake(Item{"id": 1, "status": 0})
	c, sched := newTestController(tr, Config{PageSize: 5})

	tr.listErr = []error{statusErr(500)}
	c.SetFilters(Filters{"status": 0})
	sched.drain()

	st := c.State()
	assert.Equal(t, len(st.Items), 0)
	if st.Error == nil || st.Error.Kind != KindServer {
		t.Fatalf("Error = %v, want server error", st.Error)
	}
	gen := st.Snapshot.Generation()

	assert.Equal(t, c.Retry(), true)
	sched.drain()
	st = c.State()
	assert.Equal(t, st.Snapshot.Generation(), gen)
	assert.Equal(t, ids(st.Items), []string{"1"})
}

func TestResetFailure_DropsOldQueryItemsAndBlocksAppend(t *testing.T) {
	tr := newFake(
		Item{"id": 1, "category": "A"},
		Item{"id": 2, "category": "A"},
		Item{"id": 3, "category": "B"},
	)
	c, sched := newTestController(tr, Config{PageSize: 2})

	c.SetFilters(Filters{"category": "A"})
	sched.drain()
	assert.Equal(t, ids(c.State().Items), []string{"1", "2"})
	assert.Equal(t, c.State().HasMore, true)

	tr.listErr = []error{errOffline}
	c.SetFilters(Filters{"category": "B"})
	sched.drain()

	st := c.State()
	assert.Equal(t, len(st.Items), 0)
	assert.Equal(t, st.Loaded, false)
	if st.Error == nil || st.Error.Kind != KindNetwork {
		t.Fatalf("Error = %v, want network error", st.Error)
	}

	// Appending B's first page would pass it off as a second page.
	assert.Equal(t, c.LoadMore(), false)
	assert.Equal(t, sched.len(), 0)
	assert.Equal(t, len(tr.listCalls()), 2)

	assert.Equal(t, c.Retry(), true)
	sched.drain()
	st = c.State()
	assert.Equal(t, ids(st.Items), []string{"3"})
	assert.Equal(t, st.Error == nil, true)
	calls := tr.listCalls()
	assert.Equal(t, calls[2].Offset, 0)
	assert.Equal(t, calls[2].Filters, Filters{"category": "B"})
}

func TestReloadFailure_ShowsEmptyWithError(t *testing.T) {
	tr := newFake(Item{"id": 1}, Item{"id": 2}, Item{"id": 3})
	c, sched := newTestController(tr, Config{PageSize: 2})
	c.LoadMore()
	sched.drain()

	tr.listErr = []error{statusErr(503)}
	c.Reload()
	sched.drain()

	st := c.State()
	assert.Equal(t, len(st.Items), 0)
	assert.Equal(t, st.Error.Kind, KindServer)
	assert.Equal(t, c.LoadMore(), false)

	assert.Equal(t, c.Retry(), true)
	sched.drain()
	assert.Equal(t, ids(c.State().Items), []string{"1", "2"})
	assert.Equal(t, c.LoadMore(), true)
	sched.drain()
	assert.Equal(t, ids(c.State().Items), []string{"1", "2", "3"})
}

func TestLoadMore_RejectedOnSeededCache(t *testing.T) {
	tr := newFake(Item{"id": 1}, Item{"id": 2})
	c, sched := newTestController(tr, Config{PageSize: 5})

	c.Seed([]Item{{"id": 1}})
	assert.Equal(t, c.LoadMore(), false)
	assert.Equal(t, sched.len(), 0)

	c.Reload()
	sched.drain()
	assert.Equal(t, ids(c.State().Items), []string{"1", "2"})
}

func TestRetry_IgnoredAfterFilterChange(t *testing.T) {
	tr := newFake(Item{"id": 1})
	c, sched := newTestController(tr, Config{PageSize: 5})
	tr.listErr = []error{errOffline}
	c.LoadMore()
	sched.drain()

	c.SetFilters(Filters{"q": "milk"})
	assert.Equal(t, c.Retry(), false)
}

func TestScenarioC_OptimisticStarRevertsOnFailure(t *testing.T) {
	tr := newFake(Item{"id": 5, "title": "buy milk", "is_starred": 0})
	c, sched := newTestController(tr, Config{PageSize: 5, MembershipSensitiveFields: []string{"status"}})
	c.LoadMore()
	sched.drain()
	before := c.State().Items[0]

	tr.updateErr = errOffline
	c.Mutate("5", Item{"is_starred": 1})

	// Visible before the remote call settles.
	assert.Equal(t, c.State().Items[0]["is_starred"], 1)
	assert.Equal(t, c.Pending(), 1)

	sched.drain()
	st := c.State()
	assert.Equal(t, st.Items[0], before)
	if st.Error == nil || st.Error.Kind != KindConflict || st.Error.ID != "5" {
		t.Fatalf("Error = %#v, want conflict for id 5", st.Error)
	}
	if !errors.Is(st.Error, ErrConflict) {
		t.Fatalf("errors.Is(%v, ErrConflict) = false", st.Error)
	}
	assert.Equal(t, c.Pending(), 0)
}

func TestMutate_RevertRestoresAbsentField(t *testing.T) {
	tr := newFake(Item{"id": 7, "title": "soup"})
	c, sched := newTestController(tr, Config{PageSize: 5})
	c.LoadMore()
	sched.drain()
	before := c.State().Items[0]

	tr.updateErr = statusErr(400)
	c.Mutate("7", Item{"remark": "spicy"})
	sched.drain()

	assert.Equal(t, c.State().Items[0], before)
}

func TestMutate_SuccessKeepsOptimisticValueWithoutReload(t *testing.T) {
	tr := newFake(Item{"id": 5, "is_starred": 0})
	c, sched := newTestController(tr, Config{PageSize: 5, MembershipSensitiveFields: []string{"status"}})
	c.LoadMore()
	sched.drain()
	gen := c.State().Snapshot.Generation()

	c.Mutate("5", Item{"is_starred": 1})
	sched.drain()

	st := c.State()
	assert.Equal(t, st.Items[0]["is_starred"], 1)
	assert.Equal(t, st.Snapshot.Generation(), gen)
	assert.Equal(t, len(tr.listCalls()), 1)
}

func TestMutate_FailureKeepsNewerMutationOfOtherField(t *testing.T) {
	tr := newFake(Item{"id": 5, "is_starred": 0, "priority": 2})
	c, sched := newTestController(tr, Config{PageSize: 5})
	c.LoadMore()
	sched.drain()

	tr.updateErr = errOffline
	c.Mutate("5", Item{"is_starred": 1})
	first := sched.len() - 1
	c.Mutate("5", Item{"priority": 1})

	sched.run(first) // star fails and reverts
	item := c.State().Items[0]
	assert.Equal(t, item["is_starred"], 0)
	assert.Equal(t, item["priority"], 1)
	sched.drain()
}

func TestScenarioD_MembershipSensitiveMutationReloads(t *testing.T) {
	tr := newFake(Item{"id": 5, "status": 1}, Item{"id": 6, "status": 1})
	c, sched := newTestController(tr, Config{PageSize: 5, MembershipSensitiveFields: []string{"status", "is_starred"}})
	c.SetFilters(Filters{"status": 1})
	sched.drain()
	gen := c.State().Snapshot.Generation()
	assert.Equal(t, ids(c.State().Items), []string{"5", "6"})

	c.Mutate("5", Item{"status": 0})
	// No local patch for membership-sensitive fields.
	assert.Equal(t, c.State().Items[0]["status"], 1)

	sched.drain()
	st := c.State()
	assert.Equal(t, st.Snapshot.Generation(), gen+1)
	assert.Equal(t, ids(st.Items), []string{"6"})
	assert.Equal(t, len(tr.listCalls()), 2)
}

func TestScenarioD_FailureSurfacesConflictWithoutReload(t *testing.T) {
	tr := newFake(Item{"id": 5, "status": 1})
	c, sched := newTestController(tr, Config{PageSize: 5, MembershipSensitiveFields: []string{"status"}})
	c.LoadMore()
	sched.drain()

	tr.updateErr = statusErr(409)
	c.Mutate("5", Item{"status": 0})
	sched.drain()

	st := c.State()
	assert.Equal(t, st.Items[0]["status"], 1)
	assert.Equal(t, st.Error.Kind, KindConflict)
	assert.Equal(t, len(tr.listCalls()), 1)
}

func TestMutate_InFlightAppendDroppedAfterMembershipReload(t *testing.T) {
	tr := newFake(Item{"id": 1, "status": 0}, Item{"id": 2, "status": 0}, Item{"id": 3, "status": 0})
	c, sched := newTestController(tr, Config{PageSize: 2, MembershipSensitiveFields: []string{"status"}})
	c.LoadMore()
	sched.drain()

	c.LoadMore() // append queued
	appendTask := sched.len() - 1
	c.Mutate("1", Item{"status": 1})
	sched.run(appendTask + 1) // update succeeds, reset scheduled
	sched.run(appendTask)     // stale append arrives
	sched.drain()

	st := c.State()
	assert.Equal(t, ids(st.Items), []string{"1", "2"})
	assert.Equal(t, st.Cursor.Offset, 2)
}

func TestDelete_OptimisticAndReloadsWhenMorePages(t *testing.T) {
	tr := newFake(Item{"id": 1}, Item{"id": 2}, Item{"id": 3})
	c, sched := newTestController(tr, Config{PageSize: 2})
	c.LoadMore()
	sched.drain()

	c.Delete("1")
	assert.Equal(t, ids(c.State().Items), []string{"2"})
	sched.drain()

	assert.Equal(t, ids(c.State().Items), []string{"2", "3"})
	assert.Equal(t, len(tr.listCalls()), 2)
}

func TestDelete_ExhaustedListDoesNotReload(t *testing.T) {
	tr := newFake(Item{"id": 1}, Item{"id": 2})
	c, sched := newTestController(tr, Config{PageSize: 5})
	c.LoadMore()
	sched.drain()

	c.Delete("2")
	sched.drain()
	assert.Equal(t, ids(c.State().Items), []string{"1"})
	assert.Equal(t, len(tr.listCalls()), 1)
}

func TestDelete_FailureRestoresPosition(t *testing.T) {
	tr := newFake(Item{"id": 1}, Item{"id": 2}, Item{"id": 3})
	c, sched := newTestController(tr, Config{PageSize: 5})
	c.LoadMore()
	sched.drain()

	tr.deleteErr = statusErr(500)
	c.Delete("2")
	assert.Equal(t, ids(c.State().Items), []string{"1", "3"})
	sched.drain()

	st := c.State()
	assert.Equal(t, ids(st.Items), []string{"1", "2", "3"})
	assert.Equal(t, st.Error.Kind, KindConflict)
}

func TestDelete_FailureAfterFilterChangeDoesNotRestore(t *testing.T) {
	tr := newFake(
		Item{"id": 1, "category": "A"},
		Item{"id": 2, "category": "A"},
		Item{"id": 3, "category": "B"},
	)
	c, sched := newTestController(tr, Config{PageSize: 10})
	c.SetFilters(Filters{"category": "A"})
	sched.drain()

	tr.deleteErr = statusErr(500)
	c.Delete("1")
	deleteTask := sched.len() - 1
	c.SetFilters(Filters{"category": "B"})
	sched.run(deleteTask + 1) // dispatch B
	sched.run(deleteTask + 1) // fetch B
	assert.Equal(t, ids(c.State().Items), []string{"3"})

	sched.run(deleteTask) // delete fails after B landed
	st := c.State()
	assert.Equal(t, ids(st.Items), []string{"3"})
	assert.Equal(t, st.Error.Kind, KindConflict)
	assert.Equal(t, st.Error.ID, "1")
	assert.Equal(t, sched.len(), 0)
}

func TestDelete_NotFoundCountsAsSuccess(t *testing.T) {
	tr := newFake(Item{"id": 1})
	c, sched := newTestController(tr, Config{PageSize: 5})
	c.LoadMore()
	sched.drain()

	tr.deleteErr = statusErr(404)
	c.Delete("1")
	sched.drain()

	st := c.State()
	assert.Equal(t, len(st.Items), 0)
	assert.Equal(t, st.Error == nil, true)
}

func TestCreate_ReloadsOnSuccess(t *testing.T) {
	tr := newFake(Item{"id": 1, "title": "a"})
	c, sched := newTestController(tr, Config{PageSize: 5})
	c.LoadMore()
	sched.drain()

	c.Create(Item{"title": "b"})
	sched.drain()

	st := c.State()
	assert.Equal(t, ids(st.Items), []string{"1001", "1"})
	assert.Equal(t, len(tr.listCalls()), 2)
}

func TestCreate_FailureSurfacesWithoutReload(t *testing.T) {
	tr := newFake(Item{"id": 1})
	c, sched := newTestController(tr, Config{PageSize: 5})
	tr.createErr = statusErr(400)
	c.Create(Item{"title": "b"})
	sched.drain()

	st := c.State()
	assert.Equal(t, st.Error.Kind, KindServer)
	assert.Equal(t, st.Error.Op, "create")
	assert.Equal(t, len(tr.listCalls()), 0)
}

func TestSeed_OnlyBeforeFirstLoad(t *testing.T) {
	tr := newFake(Item{"id": 1})
	c, sched := newTestController(tr, Config{PageSize: 5})

	assert.Equal(t, c.Seed([]Item{{"id": 9}}), true)
	st := c.State()
	assert.Equal(t, ids(st.Items), []string{"9"})
	assert.Equal(t, st.Loaded, false)

	c.Reload()
	sched.drain()
	assert.Equal(t, ids(c.State().Items), []string{"1"})
	assert.Equal(t, c.Seed([]Item{{"id": 9}}), false)
}

func TestChanges_NotifiesWithoutBlocking(t *testing.T) {
	tr := newFake(Item{"id": 1})
	c, sched := newTestController(tr, Config{Name: "todos", PageSize: 5})

	for i := 0; i < 200; i++ {
		c.SetFilters(Filters{"q": i})
	}
	sched.drain()

	got := <-c.Changes()
	assert.Equal(t, got.List, "todos")
}

func TestController_GoroutineSpawnerAndWait(t *testing.T) {
	tr := newFake(Item{"id": 1, "c": "x"}, Item{"id": 2, "c": "y"}, Item{"id": 3, "c": "x"})
	c := New(context.Background(), tr, Config{Name: "live", PageSize: 1})

	c.SetFilters(Filters{"c": "x"})
	c.Wait()
	assert.Equal(t, ids(c.State().Items), []string{"1"})

	for c.LoadMore() {
		c.Wait()
	}
	st := c.State()
	assert.Equal(t, ids(st.Items), []string{"1", "3"})
	assert.Equal(t, st.HasMore, false)
	assert.Equal(t, st.IsLoading, false)
}

func cloneAll(items []Item) []Item {
	out := make([]Item, len(items))
	for i, it := range items {
		out[i] = it.Clone()
	}
	return out
}

func TestSetMembershipSensitive_AppliesToLaterMutations(t *testing.T) {
	tr := newFake(Item{"id": 1, "is_starred": 1}, Item{"id": 2, "is_starred": 1})
	c, sched := newTestController(tr, Config{PageSize: 5})
	c.SetFilters(Filters{"is_starred": 1})
	sched.drain()

	c.SetMembershipSensitive([]string{"is_starred"})
	c.Mutate("1", Item{"is_starred": 0})
	assert.Equal(t, c.State().Items[0]["is_starred"], 1)
	sched.drain()

	assert.Equal(t, ids(c.State().Items), []string{"2"})
}
