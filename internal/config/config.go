package config

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/mitchellh/go-homedir"
	toml "github.com/pelletier/go-toml/v2"
)

// ListConfig overrides a list preset.
type ListConfig struct {
	PageSize         int      `toml:"page_size"`
	MembershipFields []string `toml:"membership_fields"`
}

// Config captures how almanac reaches the backend and where it keeps files.
type Config struct {
	APIBase      string
	Token        string
	PageSize     int // zero keeps each list's own page size
	PollInterval time.Duration
	CacheDir     string
	CacheMaxAge  time.Duration
	LogDir       string
	Lists        map[string]ListConfig
}

// TokenEnv overrides any configured token.
const TokenEnv = "ALMANAC_TOKEN"

const (
	defaultConfigPath  = "~/.config/almanac/config.toml"
	defaultAPIBase     = "127.0.0.1:8000"
	defaultCacheDir    = "~/.cache/almanac"
	defaultLogDir      = "~/.local/state/almanac/logs"
	defaultPollSeconds = 60
	defaultCacheHours  = 24 * 7
	minPollSeconds     = 5
)

// Load locates and parses the almanac config, falling back to defaults when missing.
func Load(path string) (Config, error) {
	resolved, err := resolvePath(path)
	if err != nil {
		return Config{}, err
	}

	cfg := defaults()

	file, err := os.Open(resolved)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			cfg.Token = envToken(cfg.Token)
			return cfg, nil
		}
		return Config{}, fmt.Errorf("open config: %w", err)
	}
	defer file.Close()

	bytes, err := io.ReadAll(file)
	if err != nil {
		return Config{}, fmt.Errorf("read config: %w", err)
	}

	var raw struct {
		APIBase     string                `toml:"api_base"`
		Token       string                `toml:"token"`
		TokenFile   string                `toml:"token_file"`
		PageSize    int                   `toml:"page_size"`
		PollSeconds int                   `toml:"poll_seconds"`
		CacheDir    string                `toml:"cache_dir"`
		CacheHours  int                   `toml:"cache_max_age_hours"`
		LogDir      string                `toml:"log_dir"`
		Lists       map[string]ListConfig `toml:"lists"`
	}
	if err := toml.Unmarshal(bytes, &raw); err != nil {
		return Config{}, fmt.Errorf("parse config: %w", err)
	}

	if v := strings.TrimSpace(raw.APIBase); v != "" {
		cfg.APIBase = v
	}
	if raw.PageSize > 0 {
		cfg.PageSize = raw.PageSize
	}
	if raw.PollSeconds > 0 {
		secs := raw.PollSeconds
		if secs < minPollSeconds {
			secs = minPollSeconds
		}
		cfg.PollInterval = time.Duration(secs) * time.Second
	}
	if v := strings.TrimSpace(raw.CacheDir); v != "" {
		cfg.CacheDir = mustExpand(v)
	}
	if raw.CacheHours > 0 {
		cfg.CacheMaxAge = time.Duration(raw.CacheHours) * time.Hour
	}
	if v := strings.TrimSpace(raw.LogDir); v != "" {
		cfg.LogDir = mustExpand(v)
	}

	cfg.Token = strings.TrimSpace(raw.Token)
	if cfg.Token == "" && strings.TrimSpace(raw.TokenFile) != "" {
		token, err := readTokenFile(raw.TokenFile)
		if err != nil {
			return Config{}, err
		}
		cfg.Token = token
	}
	cfg.Token = envToken(cfg.Token)

	for name, lc := range raw.Lists {
		key := strings.ToLower(strings.TrimSpace(name))
		if key == "" {
			continue
		}
		fields := make([]string, 0, len(lc.MembershipFields))
		for _, f := range lc.MembershipFields {
			if f = strings.TrimSpace(f); f != "" {
				fields = append(fields, f)
			}
		}
		cfg.Lists[key] = ListConfig{PageSize: lc.PageSize, MembershipFields: fields}
	}

	return cfg, nil
}

// List returns the override for a list, applying the global page size.
func (c Config) List(name string) ListConfig {
	lc := c.Lists[strings.ToLower(strings.TrimSpace(name))]
	if lc.PageSize <= 0 {
		lc.PageSize = c.PageSize
	}
	return lc
}

// LogPath returns the glog INFO symlink inside LogDir.
func (c Config) LogPath() string {
	dir := c.LogDir
	if strings.TrimSpace(dir) == "" {
		dir = mustExpand(defaultLogDir)
	}
	return filepath.Join(dir, "almanac.INFO")
}

func defaults() Config {
	return Config{
		APIBase:      defaultAPIBase,
		PollInterval: defaultPollSeconds * time.Second,
		CacheDir:     mustExpand(defaultCacheDir),
		CacheMaxAge:  defaultCacheHours * time.Hour,
		LogDir:       mustExpand(defaultLogDir),
		Lists:        map[string]ListConfig{},
	}
}

func envToken(current string) string {
	if v := strings.TrimSpace(os.Getenv(TokenEnv)); v != "" {
		return v
	}
	return current
}

func readTokenFile(path string) (string, error) {
	resolved, err := expandPath(path)
	if err != nil {
		return "", fmt.Errorf("token_file: %w", err)
	}
	data, err := os.ReadFile(resolved)
	if err != nil {
		return "", fmt.Errorf("read token_file: %w", err)
	}
	return strings.TrimSpace(string(data)), nil
}

func resolvePath(path string) (string, error) {
	if strings.TrimSpace(path) == "" {
		return expandPath(defaultConfigPath)
	}
	return expandPath(path)
}

func mustExpand(path string) string {
	expanded, err := expandPath(path)
	if err != nil {
		return path
	}
	return expanded
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
