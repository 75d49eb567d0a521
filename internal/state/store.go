package state

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/golang/glog"

	"github.com/five82/almanac/internal/listsync"
)

// Snapshot represents the latest data available to the UI.
type Snapshot struct {
	Active              string
	Lists               map[string]listsync.State
	LastUpdated         time.Time
	LastError           error
	ConsecutiveFailures int // consecutive failed loads across all lists
}

// IsOffline returns true when the backend has been unreachable for multiple loads.
func (s Snapshot) IsOffline() bool {
	return s.ConsecutiveFailures >= 2
}

// ActiveState returns the state of the active list.
func (s Snapshot) ActiveState() (listsync.State, bool) {
	st, ok := s.Lists[s.Active]
	return st, ok
}

// Saver persists settled list states, e.g. a warm-start cache.
type Saver interface {
	Save(st listsync.State) error
}

// Board holds one controller per screen and the session-wide health.
type Board struct {
	mu          sync.RWMutex
	order       []string
	lists       map[string]*listsync.Controller
	active      string
	lastUpdated time.Time
	lastErr     error
	failures    int
	saver       Saver
}

// NewBoard returns an empty board. saver may be nil.
func NewBoard(saver Saver) *Board {
	return &Board{lists: map[string]*listsync.Controller{}, saver: saver}
}

// Register adds ctrl under its name. The first list registered becomes active.
func (b *Board) Register(ctrl *listsync.Controller) error {
	if ctrl == nil {
		return fmt.Errorf("controller is nil")
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	name := ctrl.Name()
	if _, dup := b.lists[name]; dup {
		return fmt.Errorf("list %q already registered", name)
	}
	b.lists[name] = ctrl
	b.order = append(b.order, name)
	if b.active == "" {
		b.active = name
	}
	return nil
}

// Names lists registered screens in registration order.
func (b *Board) Names() []string {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return append([]string(nil), b.order...)
}

// Controller returns the named controller.
func (b *Board) Controller(name string) (*listsync.Controller, bool) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	c, ok := b.lists[name]
	return c, ok
}

// SetActive switches the active screen.
func (b *Board) SetActive(name string) bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	if _, ok := b.lists[name]; !ok {
		return false
	}
	b.active = name
	return true
}

// Active returns the active controller, or nil before anything is registered.
func (b *Board) Active() *listsync.Controller {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.lists[b.active]
}

// Observe folds a change notification into the session health and hands
// settled first pages to the saver.
func (b *Board) Observe(change listsync.Change) {
	ctrl, ok := b.Controller(change.List)
	if !ok {
		return
	}
	switch change.Mode {
	case "reset", "append":
		st := ctrl.State()
		b.mu.Lock()
		b.failures = 0
		b.lastErr = nil
		b.lastUpdated = time.Now()
		saver := b.saver
		b.mu.Unlock()
		if saver != nil && change.Mode == "reset" {
			if err := saver.Save(st); err != nil {
				glog.Warningf("save %s: %v", change.List, err)
			}
		}
	case "error":
		st := ctrl.State()
		if st.Error == nil {
			return
		}
		b.mu.Lock()
		b.lastErr = st.Error
		b.lastUpdated = time.Now()
		if errors.Is(st.Error, listsync.ErrNetwork) || errors.Is(st.Error, listsync.ErrServer) {
			b.failures++
		}
		b.mu.Unlock()
	}
}

// Run fans change notifications from every registered controller into one
// channel, observing each on the way. The channel closes when ctx ends.
func (b *Board) Run(ctx context.Context) <-chan listsync.Change {
	out := make(chan listsync.Change, 64)
	var wg sync.WaitGroup
	for _, name := range b.Names() {
		ctrl, _ := b.Controller(name)
		wg.Add(1)
		go func(ch <-chan listsync.Change) {
			defer wg.Done()
			for {
				select {
				case <-ctx.Done():
					return
				case change := <-ch:
					b.Observe(change)
					select {
					case out <- change:
					default:
					}
				}
			}
		}(ctrl.Changes())
	}
	go func() {
		wg.Wait()
		close(out)
	}()
	return out
}

// Snapshot returns a copy of the current board.
func (b *Board) Snapshot() Snapshot {
	b.mu.RLock()
	snap := Snapshot{
		Active:              b.active,
		Lists:               make(map[string]listsync.State, len(b.lists)),
		LastUpdated:         b.lastUpdated,
		ConsecutiveFailures: b.failures,
	}
	if b.lastErr != nil {
		snap.LastError = fmt.Errorf("%w", b.lastErr)
	}
	lists := make(map[string]*listsync.Controller, len(b.lists))
	for k, v := range b.lists {
		lists[k] = v
	}
	b.mu.RUnlock()

	// Controller state is read outside the board lock.
	for name, ctrl := range lists {
		snap.Lists[name] = ctrl.State()
	}
	return snap
}
