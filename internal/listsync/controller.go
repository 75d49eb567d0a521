package listsync

import (
	"context"
	"strings"
	"sync"

	"github.com/golang/glog"
)

// Query is what the transport receives for one page.
type Query struct {
	Filters Filters
	Sort    Sort
	Offset  int
	Limit   int
}

// Transport is the remote collection. Implementations own timeouts.
type Transport interface {
	List(ctx context.Context, q Query) ([]Item, error)
	Create(ctx context.Context, payload Item) (Item, error)
	Update(ctx context.Context, id string, patch Item) (Item, error)
	Delete(ctx context.Context, id string) error
}

// Config is the per-list controller configuration.
type Config struct {
	Name                      string
	PageSize                  int
	IDField                   string
	MembershipSensitiveFields []string
	Filters                   Filters // initial filters
	Sort                      Sort    // initial sort
}

// State is the read-only view handed to the view binding.
type State struct {
	Name      string
	Items     []Item
	IsLoading bool
	HasMore   bool
	Error     *Error
	Snapshot  QuerySnapshot
	Cursor    PageCursor
	Fetch     FetchState
	Loaded    bool // a fetch of the current generation has landed
}

// Change is emitted after every state transition.
type Change struct {
	List       string
	Generation uint64
	Mode       string // reset, append, mutate, error, intent
}

// Option customises a Controller.
type Option func(*Controller)

// WithSpawner replaces the goroutine launcher used for dispatch and
// transport calls.
func WithSpawner(spawn func(func())) Option {
	return func(c *Controller) {
		if spawn != nil {
			c.spawnFn = spawn
		}
	}
}

// Controller keeps one client-side list in sync with its remote collection.
// All state transitions happen under mu; transport calls never hold it.
type Controller struct {
	ctx       context.Context
	cfg       Config
	transport Transport
	spawnFn   func(func())
	wg        sync.WaitGroup
	changes   chan Change

	mu          sync.Mutex
	sensitive   map[string]struct{}
	snapshot    QuerySnapshot
	cursor      PageCursor
	cache       *ListCache
	gate        FetchGate
	err         *Error
	resetQueued bool
	failed      *request
	loadedGen   uint64
	loaded      bool
	pending     int // mutations awaiting the transport
}

// New builds a controller. Nothing is fetched until an intent arrives.
func New(ctx context.Context, transport Transport, cfg Config, opts ...Option) *Controller {
	if ctx == nil {
		ctx = context.Background()
	}
	if cfg.IDField == "" {
		cfg.IDField = "id"
	}
	if cfg.PageSize <= 0 {
		cfg.PageSize = DefaultPageSize
	}
	c := &Controller{
		ctx:       ctx,
		cfg:       cfg,
		transport: transport,
		sensitive: fieldSet(cfg.MembershipSensitiveFields),
		changes:   make(chan Change, 64),
		snapshot:  NewSnapshot(cfg.Filters, cfg.Sort),
		cursor:    NewCursor(cfg.PageSize),
		cache:     NewListCache(cfg.IDField),
	}
	c.spawnFn = func(f func()) { go f() }
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Name returns the configured list name.
func (c *Controller) Name() string {
	return c.cfg.Name
}

// Config returns the configuration the controller was built with.
func (c *Controller) Config() Config {
	return c.cfg
}

// Changes delivers change notifications. Sends never block; readers should
// call State after each receive.
func (c *Controller) Changes() <-chan Change {
	return c.changes
}

// Wait blocks until no dispatch, fetch or mutation is outstanding.
func (c *Controller) Wait() {
	c.wg.Wait()
}

// State returns a copy of the current list state.
func (c *Controller) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	gen := c.snapshot.Generation()
	return State{
		Name:      c.cfg.Name,
		Items:     c.cache.Items(),
		IsLoading: c.resetQueued || c.gate.Busy(gen),
		HasMore:   c.cursor.HasMore(),
		Error:     c.err,
		Snapshot:  c.snapshot,
		Cursor:    c.cursor,
		Fetch:     c.gate.State(),
		Loaded:    c.loaded && c.loadedGen == gen,
	}
}

// SetFilters merges patch into the filters (nil values remove keys) and
// schedules one reset load. Calls made before that load is dispatched
// collapse into it.
func (c *Controller) SetFilters(patch Filters) {
	c.mu.Lock()
	c.snapshot = c.snapshot.WithFilters(patch)
	c.cursor = c.cursor.Reset()
	c.scheduleResetLocked()
	gen := c.snapshot.Generation()
	c.mu.Unlock()
	c.emit(gen, "intent")
}

// ReplaceFilters swaps the whole filter set in one generation.
func (c *Controller) ReplaceFilters(filters Filters) {
	c.mu.Lock()
	patch := Filters{}
	for k := range c.snapshot.filters {
		patch[k] = nil
	}
	for k, v := range filters {
		patch[k] = v
	}
	c.snapshot = c.snapshot.WithFilters(patch)
	c.cursor = c.cursor.Reset()
	c.scheduleResetLocked()
	gen := c.snapshot.Generation()
	c.mu.Unlock()
	c.emit(gen, "intent")
}

// SetSort changes the order and schedules one reset load.
func (c *Controller) SetSort(field string, dir Direction) {
	c.mu.Lock()
	c.snapshot = c.snapshot.WithSort(field, dir)
	c.cursor = c.cursor.Reset()
	c.scheduleResetLocked()
	gen := c.snapshot.Generation()
	c.mu.Unlock()
	c.emit(gen, "intent")
}

// Reload re-queries the current filters as a new generation. Results of
// anything issued earlier are discarded on arrival.
func (c *Controller) Reload() {
	c.mu.Lock()
	c.reloadLocked()
	gen := c.snapshot.Generation()
	c.mu.Unlock()
	c.emit(gen, "intent")
}

// LoadMore requests the next page. It is safe to call redundantly: it
// reports false without touching the transport when the list is exhausted,
// a load of the current generation is already pending, or the cache does
// not hold a first page of the current generation to append to.
func (c *Controller) LoadMore() bool {
	c.mu.Lock()
	req := request{snapshot: c.snapshot, cursor: c.cursor, mode: ModeAppend}
	if c.resetQueued || !c.appendableLocked() || !c.gate.Admit(req) {
		c.mu.Unlock()
		return false
	}
	c.mu.Unlock()
	glog.V(2).Infof("[%s] append gen=%d offset=%d", c.cfg.Name, req.snapshot.Generation(), req.cursor.Offset)
	c.emit(req.snapshot.Generation(), "intent")
	c.spawn(func() { c.fetch(req) })
	return true
}

// Retry re-issues the last failed load with the same snapshot and cursor.
func (c *Controller) Retry() bool {
	c.mu.Lock()
	if c.failed == nil || c.failed.snapshot.Generation() != c.snapshot.Generation() {
		c.mu.Unlock()
		return false
	}
	req := *c.failed
	if !c.gate.Admit(req) {
		c.mu.Unlock()
		return false
	}
	c.failed = nil
	c.mu.Unlock()
	glog.V(1).Infof("[%s] retry %s gen=%d", c.cfg.Name, req.mode, req.snapshot.Generation())
	c.emit(req.snapshot.Generation(), "intent")
	c.spawn(func() { c.fetch(req) })
	return true
}

// Seed prefills an empty cache, e.g. from a warm-start cache. It does not
// count as a load and does not move the cursor.
func (c *Controller) Seed(items []Item) bool {
	c.mu.Lock()
	if c.cache.Len() > 0 || c.loaded {
		c.mu.Unlock()
		return false
	}
	c.cache.Replace(items)
	gen := c.snapshot.Generation()
	c.mu.Unlock()
	c.emit(gen, "seed")
	return true
}

// Mutate applies patch to item id. Patches that only touch fields outside
// the membership-sensitive set are applied locally before the remote call
// and reverted if it fails. Patches touching a membership-sensitive field
// are sent as-is and followed by a reset load on success.
func (c *Controller) Mutate(id string, patch Item) {
	id = strings.TrimSpace(id)
	if id == "" || len(patch) == 0 {
		return
	}
	patch = patch.Clone()
	delete(patch, c.cfg.IDField)

	var prior Item
	var absent []string
	applied := false

	c.mu.Lock()
	sensitive := c.touchesMembershipLocked(patch)
	if !sensitive {
		applied = c.cache.Patch(id, func(it Item) Item {
			prior = Item{}
			for k, v := range patch {
				if old, ok := it[k]; ok {
					prior[k] = old
				} else {
					absent = append(absent, k)
				}
				it[k] = v
			}
			return it
		})
	}
	c.pending++
	gen := c.snapshot.Generation()
	c.mu.Unlock()
	c.emit(gen, "mutate")

	c.spawn(func() {
		_, err := c.transport.Update(c.ctx, id, patch)

		c.mu.Lock()
		c.pending--
		if err != nil {
			if applied {
				c.cache.Patch(id, func(it Item) Item {
					for k := range patch {
						if !SameValue(it[k], patch[k]) {
							// A later mutation owns this field now.
							continue
						}
						if old, ok := prior[k]; ok {
							it[k] = old
						}
					}
					for _, k := range absent {
						if SameValue(it[k], patch[k]) {
							delete(it, k)
						}
					}
					return it
				})
			}
			c.err = newError(KindConflict, "update", id, err)
			glog.Warningf("[%s] update %s reverted: %v", c.cfg.Name, id, err)
		} else {
			c.clearMutationErrorLocked()
			if sensitive {
				c.reloadLocked()
			}
		}
		gen := c.snapshot.Generation()
		c.mu.Unlock()
		c.emit(gen, "mutate")
	})
}

// Create sends payload to the backend and reloads on success, since the
// server decides where the new item sorts.
func (c *Controller) Create(payload Item) {
	payload = payload.Clone()
	c.mu.Lock()
	c.pending++
	c.mu.Unlock()

	c.spawn(func() {
		_, err := c.transport.Create(c.ctx, payload)

		c.mu.Lock()
		c.pending--
		if err != nil {
			c.err = newError(mutationKind(err), "create", "", err)
			glog.Warningf("[%s] create failed: %v", c.cfg.Name, err)
		} else {
			c.clearMutationErrorLocked()
			c.reloadLocked()
		}
		gen := c.snapshot.Generation()
		c.mu.Unlock()
		c.emit(gen, "mutate")
	})
}

// Delete removes id optimistically. A NotFound answer counts as success;
// any other failure puts the item back where it was, unless the query
// changed while the call was out.
func (c *Controller) Delete(id string) {
	id = strings.TrimSpace(id)
	if id == "" {
		return
	}
	c.mu.Lock()
	removed, idx, had := c.cache.Remove(id)
	c.pending++
	issued := c.snapshot.Generation()
	c.mu.Unlock()
	c.emit(issued, "mutate")

	c.spawn(func() {
		err := c.transport.Delete(c.ctx, id)

		c.mu.Lock()
		c.pending--
		if err != nil && Classify(err) != KindNotFound {
			// A reset since the delete rebuilt the cache from the server.
			if had && c.snapshot.Generation() == issued {
				c.cache.Insert(idx, removed)
			}
			c.err = newError(KindConflict, "delete", id, err)
			glog.Warningf("[%s] delete %s reverted: %v", c.cfg.Name, id, err)
		} else {
			c.clearMutationErrorLocked()
			// Later pages shifted by one; re-query instead of moving the
			// offset backwards.
			if had && c.cursor.HasMore() {
				c.reloadLocked()
			}
		}
		gen := c.snapshot.Generation()
		c.mu.Unlock()
		c.emit(gen, "mutate")
	})
}

// Pending reports how many mutations await the backend.
func (c *Controller) Pending() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.pending
}

// SetMembershipSensitive replaces the set of fields whose change can move
// an item in or out of the filtered view. It applies to later mutations.
func (c *Controller) SetMembershipSensitive(fields []string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.sensitive = fieldSet(fields)
}

func (c *Controller) touchesMembershipLocked(patch Item) bool {
	for k := range patch {
		if _, ok := c.sensitive[k]; ok {
			return true
		}
	}
	return false
}

// appendableLocked reports whether the cache holds pages of the current
// generation. Before anything has loaded an empty cache counts, so the first
// LoadMore fetches page zero.
func (c *Controller) appendableLocked() bool {
	gen := c.snapshot.Generation()
	if c.failed != nil && c.failed.mode == ModeReset && c.failed.snapshot.Generation() == gen {
		return false
	}
	if c.loaded {
		return c.loadedGen == gen
	}
	return c.cache.Len() == 0
}

func (c *Controller) reloadLocked() {
	c.snapshot = c.snapshot.Next()
	c.cursor = c.cursor.Reset()
	c.scheduleResetLocked()
}

func (c *Controller) scheduleResetLocked() {
	if c.resetQueued {
		return
	}
	c.resetQueued = true
	c.spawn(c.dispatchReset)
}

// dispatchReset reads the snapshot at dispatch time, so intents that
// arrived while it was queued share one fetch.
func (c *Controller) dispatchReset() {
	c.mu.Lock()
	c.resetQueued = false
	req := request{snapshot: c.snapshot, cursor: c.cursor.Reset(), mode: ModeReset}
	if !c.gate.Admit(req) {
		c.mu.Unlock()
		return
	}
	c.mu.Unlock()
	glog.V(2).Infof("[%s] reset gen=%d filters=%q", c.cfg.Name, req.snapshot.Generation(), req.snapshot.Key())
	c.emit(req.snapshot.Generation(), "intent")
	c.spawn(func() { c.fetch(req) })
}

func (c *Controller) fetch(req request) {
	offset := req.cursor.Offset
	if req.mode == ModeReset {
		offset = 0
	}
	items, err := c.transport.List(c.ctx, Query{
		Filters: req.snapshot.Filters(),
		Sort:    req.snapshot.Sort(),
		Offset:  offset,
		Limit:   req.cursor.PageSize,
	})

	c.mu.Lock()
	current := c.snapshot.Generation()
	fresh := c.gate.Settle(req, current)
	if fresh && req.mode == ModeAppend && c.cursor.Offset != req.cursor.Offset {
		fresh = false
	}
	if !fresh || (err != nil && Classify(err) == KindStale) {
		c.mu.Unlock()
		glog.V(2).Infof("[%s] dropped %s response gen=%d current=%d", c.cfg.Name, req.mode, req.snapshot.Generation(), current)
		c.emit(current, "stale")
		return
	}

	mode := req.mode.String()
	if err != nil {
		fe := newError(Classify(err), "list", "", err)
		c.gate.Fail(fe)
		c.err = fe
		failed := req
		c.failed = &failed
		if req.mode == ModeReset {
			// The old rows belong to another query.
			c.cache.Replace(nil)
		}
		mode = "error"
		glog.Warningf("[%s] %s load failed gen=%d: %v", c.cfg.Name, req.mode, req.snapshot.Generation(), err)
	} else {
		switch req.mode {
		case ModeReset:
			c.cache.Replace(items)
			c.cursor = req.cursor.Reset().Advance(len(items))
		case ModeAppend:
			c.cache.Append(items)
			c.cursor = c.cursor.Advance(len(items))
		}
		c.gate.Succeed()
		c.err = nil
		c.failed = nil
		c.loaded = true
		c.loadedGen = current
	}
	c.mu.Unlock()
	c.emit(current, mode)
}

func (c *Controller) clearMutationErrorLocked() {
	if c.err != nil && c.err.Op != "list" {
		c.err = nil
	}
}

func (c *Controller) spawn(f func()) {
	c.wg.Add(1)
	c.spawnFn(func() {
		defer c.wg.Done()
		f()
	})
}

func (c *Controller) emit(gen uint64, mode string) {
	select {
	case c.changes <- Change{List: c.cfg.Name, Generation: gen, Mode: mode}:
	default:
	}
}

func fieldSet(fields []string) map[string]struct{} {
	set := make(map[string]struct{}, len(fields))
	for _, f := range fields {
		if f = strings.TrimSpace(f); f != "" {
			set[f] = struct{}{}
		}
	}
	return set
}

func mutationKind(err error) ErrorKind {
	switch k := Classify(err); k {
	case KindNetwork, KindServer:
		return k
	default:
		return KindServer
	}
}
