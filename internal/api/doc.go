// Package api provides an HTTP client for the almanac REST backend.
//
// # Overview
//
// The backend serves a single user's to-dos, recipes, notes, check-in items
// and weight records under /api/v1, authenticated with a bearer JWT. This
// package owns everything that touches the wire: URLs, headers, JSON, status
// handling. Nothing above it sees an *http.Response.
//
// # Architecture
//
//   - client.go: Client, request plumbing and the typed endpoints that are
//     not plain collections (daily check-ins, weekly/monthly weight, target)
//   - collection.go: Collection, the listsync.Transport for one resource
//   - errors.go: StatusError for 4xx/5xx answers
//   - token.go: unverified JWT claim inspection
//   - types.go: models mirroring the backend schema, and Decode
//
// # Client Usage
//
//	client, err := api.NewClient("127.0.0.1:8000", token)
//	if err != nil {
//		return err
//	}
//	todos, err := client.Collection(api.Todos)
//	if err != nil {
//		return err
//	}
//	ctrl := listsync.New(ctx, todos, cfg)
//
// # Paging
//
// Recipes, notes and weight history accept skip/limit and are paged by the
// backend. To-dos and check-in items come back whole; Collection sorts them
// locally when a sort is requested and slices the requested window, so the
// controller sees the same offset semantics everywhere.
//
// Filter values are sent as query parameters. Booleans become 1/0 and the
// "q" search key is renamed to "keyword" where the backend expects that.
//
// # Request Handling
//
// All requests:
//   - carry Accept: application/json and User-Agent: almanac/0.1
//   - carry Authorization: Bearer <token> when a token is configured
//   - carry a fresh X-Request-Id (a ULID) that is also logged at -v=2
//   - time out after 10 seconds
//   - decode numbers as json.Number so ids survive untouched
//
// # Error Handling
//
// Transport failures are wrapped with "execute request: %w". Statuses >= 400
// become *StatusError, carrying the backend's "detail" message when present.
// StatusError exposes StatusCode, which listsync.Classify uses to tell server
// errors and missing items apart from network trouble.
//
// Ping decodes the token's exp claim before contacting the backend and
// returns ErrTokenExpired instead of letting every list fail with 401.
package api
