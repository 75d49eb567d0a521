// Package state provides the session board shared by the refresher and the UI.
//
// # Overview
//
// Each list screen owns a listsync.Controller. The Board registers them,
// remembers which one is active, and aggregates session-wide health from
// their change notifications: when the last successful load happened, the
// last error, and how many loads failed in a row.
//
// # Architecture
//
//	Controllers:              Board:                    Consumers:
//	┌──────────────┐         ┌───────────────────┐     ┌──────────────┐
//	│ todos        │─Changes→│ Run (fan-in)      │────→│ ui program   │
//	│ recipes      │─Changes→│   Observe()       │     │              │
//	│ ...          │─Changes→│   Saver.Save()    │     │ refresher    │
//	└──────────────┘         │ Snapshot()        │←────│ (backoff)    │
//	                         └───────────────────┘     └──────────────┘
//
// # Health
//
// Observe counts consecutive "error" notifications whose error is a network
// or server failure; any successful page resets the counter. Snapshot.IsOffline
// reports true after two failures in a row, which the UI shows in the header
// and the refresher uses to back off.
//
// Mutation conflicts do not count toward offline detection: the backend
// answered, it just said no.
//
// # Warm cache
//
// When a Saver is configured, every successful reset load hands the
// controller state to it. The warmcache package implements Saver.
//
// # Concurrency Model
//
// The board uses a readers-writer lock for its own fields. Controller state
// is read after the board lock is released, so a slow controller never
// blocks SetActive or Observe.
//
// Snapshot is safe to call from any goroutine and returns copies: the list
// states carry cloned items and the error is re-wrapped.
//
// # Usage Example
//
//	board := state.NewBoard(cache)
//	for _, ctrl := range controllers {
//		_ = board.Register(ctrl)
//	}
//	changes := board.Run(ctx)
//	for range changes {
//		render(board.Snapshot())
//	}
package state
