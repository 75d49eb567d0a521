// Package app provides the orchestration layer for the almanac TUI.
//
// # Overview
//
// This package wires together configuration, preferences, the REST client,
// one list controller per screen, the warm cache and the UI. It is the
// composition root: nothing below it knows about the others.
//
// # Data Flow
//
//	┌──────────────┐
//	│   Run()      │ Initialize everything
//	└──────┬───────┘
//	       │
//	       ├─────> config.Load()          Read ~/.config/almanac/config.toml
//	       ├─────> prefs.Load()           Theme, last tab, facet and sort
//	       ├─────> api.NewClient()        REST client with bearer token
//	       ├─────> ensureReachable()      Ping /users/me (3 second timeout)
//	       ├─────> warmcache.Open()       diskv store of first pages
//	       ├─────> BuildBoard()           One listsync.Controller per preset
//	       ├─────> cache.Warm()           Seed controllers from disk
//	       ├─────> board.Run()            Fan in change notifications
//	       ├─────> StartRefresher()       Background reloads
//	       └─────> ui.Run()               Start TUI (blocks)
//
// # Refresher
//
// The refresher wakes at the poll interval (default 60 seconds) and looks
// at the active list only:
//
//   - a failed load is retried with the same query and offset
//   - an idle list still on its first page is reloaded
//   - a list the user has paged through is left alone, so a poll never
//     collapses a long scroll back to one page
//
// While the board reports consecutive failures the wait doubles per failure
// up to 30 seconds; an interval already above that is kept as is.
//
// # Error Handling
//
// Fatal errors (returned from Run):
//   - Invalid config file or unreadable token_file
//   - Malformed api_base
//   - An expired token, or a 401 from the backend
//
// Recoverable errors (logged with glog, UI starts offline):
//   - Backend unreachable at startup
//   - Warm cache directory unusable
//
// # Usage Example
//
//	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
//	defer cancel()
//
//	if err := app.Run(ctx, app.Options{}); err != nil {
//		glog.Exitf("almanac failed: %v", err)
//	}
package app
