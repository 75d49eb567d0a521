package app

import (
	"context"
	"time"

	"github.com/golang/glog"

	"github.com/five82/almanac/internal/state"
)

const (
	defaultPollInterval = 60 * time.Second
	retryBase           = 5 * time.Second
	maxBackoff          = 30 * time.Second
)

// refreshAction is what one poll did to the active list.
type refreshAction string

const (
	actionNone   refreshAction = "none"
	actionReload refreshAction = "reload"
	actionRetry  refreshAction = "retry"
)

// StartRefresher launches a background goroutine that keeps the active list
// fresh. It returns immediately.
func StartRefresher(ctx context.Context, board *state.Board, interval time.Duration) {
	if interval <= 0 {
		interval = defaultPollInterval
	}
	go func() {
		for {
			wait := interval
			if failures := board.Snapshot().ConsecutiveFailures; failures > 0 {
				wait = calculateBackoff(failures, interval)
			}
			timer := time.NewTimer(wait)
			select {
			case <-ctx.Done():
				timer.Stop()
				return
			case <-timer.C:
			}
			if action := refreshActive(board); action != actionNone {
				glog.V(1).Infof("refresher: %s %s", action, board.Snapshot().Active)
			}
		}
	}()
}

// refreshActive retries a failed load of the active list, or reloads it when
// it is idle and the user has not paged past the first page.
func refreshActive(board *state.Board) refreshAction {
	ctrl := board.Active()
	if ctrl == nil {
		return actionNone
	}
	st := ctrl.State()
	if st.IsLoading || ctrl.Pending() > 0 {
		return actionNone
	}
	if st.Error != nil && ctrl.Retry() {
		return actionRetry
	}
	if st.Cursor.Offset > st.Cursor.PageSize {
		return actionNone
	}
	ctrl.Reload()
	return actionReload
}

// calculateBackoff returns the wait before the next poll. While the backend
// keeps failing, polling restarts from at most retryBase and doubles per
// failure up to maxBackoff, so a failing list is retried sooner than the
// regular interval.
func calculateBackoff(failures int, base time.Duration) time.Duration {
	if failures <= 0 {
		return base
	}
	wait := min(base, retryBase)
	for i := 0; i < failures; i++ {
		wait *= 2
		if wait >= maxBackoff {
			return maxBackoff
		}
	}
	return wait
}
