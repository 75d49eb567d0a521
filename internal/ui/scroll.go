package ui

import "github.com/five82/almanac/internal/listsync"

// defaultScrollThreshold is how many rows before the end of the loaded
// items the next page is requested.
const defaultScrollThreshold = 3

// pager is the part of a controller the scroll trigger may touch.
type pager interface {
	State() listsync.State
	LoadMore() bool
}

// scrollTrigger plays the part of a scroll sentinel: it asks for the next
// page when the cursor nears the end of what is loaded, or when everything
// loaded already fits on screen. It only ever calls LoadMore; the
// controller decides whether that turns into a request.
type scrollTrigger struct {
	threshold int
}

func newScrollTrigger(threshold int) scrollTrigger {
	if threshold < 0 {
		threshold = 0
	}
	return scrollTrigger{threshold: threshold}
}

// near reports whether the sentinel is visible.
func (s scrollTrigger) near(cursor, loaded, visible int) bool {
	if loaded == 0 {
		return false
	}
	if visible > 0 && loaded <= visible {
		return true
	}
	return cursor >= loaded-1-s.threshold
}

// check calls LoadMore when the sentinel is visible. A list whose last load
// failed stays put until the user retries, so a failing backend is not
// polled by scrolling.
func (s scrollTrigger) check(p pager, cursor, visible int) bool {
	if p == nil {
		return false
	}
	st := p.State()
	if !st.Loaded || !st.HasMore || st.IsLoading {
		return false
	}
	if st.Error != nil && st.Error.Op == "list" {
		return false
	}
	if !s.near(cursor, len(st.Items), visible) {
		return false
	}
	return p.LoadMore()
}
