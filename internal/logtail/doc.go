// Package logtail reads and colorizes the tail of almanac's glog files.
//
// # Overview
//
// almanac logs through glog into files under the configured log dir, never
// to the terminal the TUI owns. The "almanac logs" command uses this
// package to show the newest lines of the INFO file, which glog fills with
// every severity.
//
// # Reading Log Files
//
// Read keeps a ring buffer of maxLines entries and scans the file once, so
// memory is bounded by the number of lines requested rather than the file
// size. A non-positive maxLines returns the whole file.
//
//	lines, err := logtail.Read(cfg.LogPath(), 200)
//
// # Severity Filtering
//
// glog prefixes every record with a header whose first byte is the level:
//
//	I1019 10:04:05.123456   4242 client.go:88] GET /api/v1/todos/ 200
//	W1019 10:04:06.000000   4242 controller.go:51] fetch failed: network
//
// LineSeverity parses that byte; Filter keeps records at or above a minimum
// level. Lines without a header (stack traces, wrapped messages) inherit the
// level of the record they belong to.
//
// # Colorization
//
// ColorizeLine dims the header and paints warnings yellow and errors red
// using fatih/color, which turns itself off when stdout is not a terminal
// or NO_COLOR is set.
//
// # Error Handling
//
// Read returns nil, nil for non-existent files; glog creates the file
// lazily on the first record. Other errors are returned wrapped.
package logtail
