// Package prefs handles almanac user preferences persistence.
// Preferences are stored in ~/.config/almanac/prefs.toml.
package prefs

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/golang/glog"
	"github.com/mitchellh/go-homedir"
	toml "github.com/pelletier/go-toml/v2"
)

// ListPrefs remembers how a list screen was last left.
type ListPrefs struct {
	Facet string `toml:"facet,omitempty"`
	Sort  string `toml:"sort,omitempty"` // "field" or "field:asc"
}

// Prefs holds user preferences for almanac.
type Prefs struct {
	Theme      string               `toml:"theme"`
	ActiveList string               `toml:"active_list,omitempty"`
	Lists      map[string]ListPrefs `toml:"lists,omitempty"`
}

const (
	defaultPrefsPath = "~/.config/almanac/prefs.toml"
	defaultTheme     = "Nightfox"
)

// DefaultPath returns the default preferences file path.
func DefaultPath() string {
	return defaultPrefsPath
}

// List returns the remembered state for a list.
func (p Prefs) List(name string) ListPrefs {
	return p.Lists[name]
}

// WithList returns a copy of p with the list state replaced.
func (p Prefs) WithList(name string, lp ListPrefs) Prefs {
	lists := make(map[string]ListPrefs, len(p.Lists)+1)
	for k, v := range p.Lists {
		lists[k] = v
	}
	if lp == (ListPrefs{}) {
		delete(lists, name)
	} else {
		lists[name] = lp
	}
	p.Lists = lists
	return p
}

// Load reads preferences from path. A missing or unreadable file yields the
// defaults; preferences never stop the program from starting.
func Load(path string) (Prefs, error) {
	defaults := Prefs{Theme: defaultTheme}

	resolved, err := resolvePath(path)
	if err != nil {
		return defaults, nil
	}
	data, err := os.ReadFile(resolved)
	if err != nil {
		if !errors.Is(err, os.ErrNotExist) {
			glog.Warningf("prefs: %v", err)
		}
		return defaults, nil
	}

	var p Prefs
	if err := toml.Unmarshal(data, &p); err != nil {
		glog.Warningf("prefs: ignoring %s: %v", resolved, err)
		return defaults, nil
	}
	p.Theme = strings.TrimSpace(p.Theme)
	if p.Theme == "" {
		p.Theme = defaultTheme
	}
	p.ActiveList = strings.TrimSpace(p.ActiveList)
	for name, lp := range p.Lists {
		if strings.TrimSpace(name) == "" || lp == (ListPrefs{}) {
			delete(p.Lists, name)
		}
	}
	return p, nil
}

// Save replaces the file at path with p, creating directories as needed.
func Save(path string, p Prefs) error {
	resolved, err := resolvePath(path)
	if err != nil {
		return fmt.Errorf("resolve path: %w", err)
	}
	data, err := toml.Marshal(p)
	if err != nil {
		return fmt.Errorf("marshal prefs: %w", err)
	}

	dir := filepath.Dir(resolved)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create prefs dir: %w", err)
	}
	tmp, err := os.CreateTemp(dir, ".prefs-*.toml")
	if err != nil {
		return fmt.Errorf("write prefs: %w", err)
	}
	defer func() { _ = os.Remove(tmp.Name()) }()
	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("write prefs: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("write prefs: %w", err)
	}
	if err := os.Rename(tmp.Name(), resolved); err != nil {
		return fmt.Errorf("replace prefs: %w", err)
	}
	return nil
}

func resolvePath(path string) (string, error) {
	if strings.TrimSpace(path) == "" {
		return expandPath(defaultPrefsPath)
	}
	return expandPath(path)
}

func expandPath(path string) (string, error) {
	trimmed := strings.TrimSpace(path)
	if trimmed == "" {
		return "", fmt.Errorf("path is empty")
	}
	expanded, err := homedir.Expand(trimmed)
	if err != nil {
		return "", fmt.Errorf("resolve home dir: %w", err)
	}
	return filepath.Abs(expanded)
}
