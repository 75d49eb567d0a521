// Package cli wires almanac's cobra command tree.
//
// With no subcommand and a terminal on stdout, almanac starts the TUI via
// app.Run. Every other command is a one-shot script-friendly operation.
// List, flag, delete and create commands go through the same
// listsync.Controller the TUI uses and call Wait before printing, so the
// command line and the TUI share one code path to the backend. Check-in
// records and the weight week, month and target views are not lists and
// call the api client directly. Tables are printed with uitable and colored
// with fatih/color; --json switches every command to JSON output.
//
// glog's flags (-v, --log_dir, --logtostderr) are exposed as persistent
// flags.
package cli
