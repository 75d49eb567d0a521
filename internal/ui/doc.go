// Package ui is the Bubble Tea front end for almanac.
//
// One tab is shown per registered list. The model never owns list data: it
// reads state.Board snapshots and re-renders whenever a listsync.Change
// arrives on the fan-in channel returned by Board.Run. User actions are
// forwarded to the active listsync.Controller (filters, sort, reload,
// optimistic toggles and deletes), which replies through the same channel.
//
// Infinite scroll is driven by scrollTrigger: after every cursor move,
// resize and page arrival the trigger checks whether the cursor is within a
// few rows of the end of the loaded items and, if the list has more and is
// idle, asks the controller for the next page. The controller's fetch gate
// deduplicates any repeated requests.
//
// Key bindings:
//
//   - tab / shift+tab: next and previous list
//   - j/k, g/G, ctrl+d/u: move the cursor
//   - enter: toggle the detail pane
//   - f: cycle filter facet
//   - s: cycle sort order
//   - /: search (lists with a keyword filter)
//   - r / R: reload, retry a failed load
//   - space: toggle done, *: toggle star, d: delete
//   - T: cycle theme, ?: help, q: quit
package ui
