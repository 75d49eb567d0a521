// Package lists holds the per-screen presets: which resource a screen
// shows, its page size, which fields are membership-sensitive and the named
// filter facets a user can cycle through. Presets produce listsync.Config
// values and filter patches; they never talk to the network themselves.
package lists
