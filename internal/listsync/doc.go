// Package listsync keeps a client-side list view consistent with a remote,
// paginated collection.
//
// # Overview
//
// Every list screen of the client (to-dos, recipes, notes, check-ins,
// weight history) loads pages over REST, lets the user change filters and
// sort order, and mutates single items. This package does that once, as an
// explicit state machine that knows nothing about the presentation layer:
//
//	┌──────────────┐ intents ┌────────────────────────────────────────┐
//	│ view binding │────────>│ Controller                             │
//	│ (ui, cli)    │<────────│  QuerySnapshot  PageCursor  ListCache  │
//	└──────────────┘ State() │  FetchGate      optimistic mutations   │
//	                Changes()└───────────────────┬────────────────────┘
//	                                             │ Transport
//	                                             v
//	                                     REST backend (api)
//
// # Components
//
//   - query.go: QuerySnapshot, an immutable filter/sort value stamped with a
//     generation that increases on every change.
//   - cursor.go: PageCursor, offset pagination with sticky end-of-data.
//   - cache.go: ListCache, ordered and unique by id; appends upsert in place.
//   - gate.go: FetchGate, one request per (generation, mode) and the
//     staleness check on arrival.
//   - controller.go: intents, dispatch, optimistic mutations.
//   - errors.go: the error taxonomy surfaced to callers.
//
// # Concurrency
//
// All state transitions run under a single mutex. Transport calls run on
// their own goroutine and never hold it. A response is applied only if its
// generation is still current when it arrives; in-flight calls are never
// aborted, their results are dropped instead. Two requests for the same
// generation and mode never overlap.
//
// Filter and sort changes do not fetch immediately: they queue one reset
// dispatch that reads the snapshot when it runs, so a burst of changes costs
// a single request.
//
// # Mutations
//
// Mutate applies a patch to the cached item before the remote call and
// restores the patched fields if the call fails. When the patch touches a
// membership-sensitive field (one that can move the item in or out of the
// filtered view) nothing is applied locally; a successful call is followed
// by a reset load instead.
//
// # Errors
//
// Transport failures are converted to *Error with a Kind of network,
// server, not found or conflict and stored in State.Error. Stale responses
// are dropped silently. No transport error escapes an intent.
//
// # Usage
//
//	ctrl := listsync.New(ctx, transport, listsync.Config{
//		Name:                      "todos",
//		PageSize:                  20,
//		MembershipSensitiveFields: []string{"status", "is_starred"},
//	})
//	ctrl.SetFilters(listsync.Filters{"status": 0})
//	for range ctrl.Changes() {
//		render(ctrl.State())
//	}
package listsync
