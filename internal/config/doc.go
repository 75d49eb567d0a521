// Package config handles loading and parsing the almanac configuration file.
//
// # Overview
//
// almanac needs to know where the REST backend lives, how to authenticate,
// and where to keep its warm cache and logs. Everything has a default, so a
// missing config file is not an error.
//
// # Configuration Discovery
//
// The Load function follows this resolution order:
//
//  1. If a path is explicitly provided, use it
//  2. Otherwise, use ~/.config/almanac/config.toml (default)
//  3. If the config file doesn't exist, fall back to hardcoded defaults
//  4. If the file exists but fields are missing/empty, use defaults
//
// Paths may start with ~; they are expanded with go-homedir and made absolute.
//
// # Default Values
//
//   - Config file: ~/.config/almanac/config.toml
//   - API base: 127.0.0.1:8000 (the /api/v1 prefix is added by the client)
//   - Poll interval: 60 seconds (minimum 5)
//   - Cache dir: ~/.cache/almanac, entries kept one week
//   - Log dir: ~/.local/state/almanac/logs
//
// # Token Resolution
//
// The bearer token comes from, in increasing priority:
//
//  1. token_file: a file holding the token (trimmed)
//  2. token: the token inline
//  3. ALMANAC_TOKEN in the environment
//
// A token_file that cannot be read is an error; a missing token is not, and
// the first request then fails with 401.
//
// # TOML Format
//
//	api_base = "https://almanac.example.com"
//	token_file = "~/.config/almanac/token"
//	page_size = 20
//	poll_seconds = 60
//	cache_dir = "~/.cache/almanac"
//	cache_max_age_hours = 168
//	log_dir = "~/.local/state/almanac/logs"
//
//	[lists.todos]
//	page_size = 40
//	membership_fields = ["status", "is_starred", "priority", "category_path"]
//
// List names are matched case-insensitively. A list's page_size falls back
// to the global page_size, and that to the list's built-in default.
//
// # Error Handling
//
// Load returns wrapped errors for files that exist but cannot be opened,
// read or parsed; parse failures mention "parse config".
package config
