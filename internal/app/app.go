package app

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang/glog"

	"github.com/five82/almanac/internal/api"
	"github.com/five82/almanac/internal/config"
	"github.com/five82/almanac/internal/lists"
	"github.com/five82/almanac/internal/listsync"
	"github.com/five82/almanac/internal/prefs"
	"github.com/five82/almanac/internal/state"
	"github.com/five82/almanac/internal/ui"
	"github.com/five82/almanac/internal/warmcache"
)

// Options configure the almanac application.
type Options struct {
	ConfigPath string
	PrefsPath  string // empty uses default ~/.config/almanac/prefs.toml
	PollEvery  int    // seconds; zero uses the config value
}

const pingTimeout = 3 * time.Second

// Run boots the almanac TUI until the context is cancelled.
func Run(ctx context.Context, opts Options) error {
	cfg, err := config.Load(opts.ConfigPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	userPrefs, _ := prefs.Load(opts.PrefsPath)

	client, err := api.NewClient(cfg.APIBase, cfg.Token)
	if err != nil {
		return fmt.Errorf("init api client: %w", err)
	}
	if err := ensureReachable(ctx, client); err != nil {
		return err
	}

	var saver state.Saver
	cache, err := warmcache.Open(cfg.CacheDir, cfg.CacheMaxAge)
	if err != nil {
		glog.Warningf("warm cache disabled: %v", err)
	} else {
		saver = cache
	}

	board, err := BuildBoard(ctx, client, cfg, userPrefs, saver)
	if err != nil {
		return err
	}

	for _, name := range board.Names() {
		ctrl, _ := board.Controller(name)
		if cache != nil && cache.Warm(ctrl) {
			glog.V(1).Infof("[%s] seeded from warm cache", name)
		}
	}
	if active := board.Active(); active != nil {
		active.Reload()
	}

	changes := board.Run(ctx)

	interval := cfg.PollInterval
	if opts.PollEvery > 0 {
		interval = time.Duration(opts.PollEvery) * time.Second
	}
	StartRefresher(ctx, board, interval)

	uiOpts := ui.Options{
		Context:   ctx,
		Board:     board,
		Changes:   changes,
		Overrides: Overrides(cfg),
		Prefs:     userPrefs,
		PrefsPath: opts.PrefsPath,
		APIBase:   client.BaseURL(),
	}
	return ui.Run(uiOpts)
}

// BuildBoard registers one controller per list preset, restoring each
// list's last facet and sort from prefs. saver may be nil.
func BuildBoard(ctx context.Context, client *api.Client, cfg config.Config, userPrefs prefs.Prefs, saver state.Saver) (*state.Board, error) {
	board := state.NewBoard(saver)
	overrides := Overrides(cfg)
	for _, preset := range lists.All() {
		col, err := client.Collection(preset.Name)
		if err != nil {
			return nil, fmt.Errorf("init %s collection: %w", preset.Name, err)
		}
		ctrl := NewController(ctx, col, preset, userPrefs.List(preset.Name), overrides[preset.Name])
		if err := board.Register(ctrl); err != nil {
			return nil, err
		}
	}
	if userPrefs.ActiveList != "" {
		board.SetActive(userPrefs.ActiveList)
	}
	return board, nil
}

// NewController builds the controller for preset, starting from the
// remembered facet and sort.
func NewController(ctx context.Context, tr listsync.Transport, preset lists.Preset, lp prefs.ListPrefs, o lists.Override) *listsync.Controller {
	facet, ok := preset.Facet(lp.Facet)
	if !ok {
		facet = preset.DefaultFacet()
	}
	cfg := preset.Config(facet, o)
	if s, ok := ParseSort(lp.Sort); ok {
		cfg.Sort = s
	}
	return listsync.New(ctx, tr, cfg)
}

// Overrides converts the [lists.<name>] config tables.
func Overrides(cfg config.Config) map[string]lists.Override {
	out := make(map[string]lists.Override)
	for _, preset := range lists.All() {
		lc := cfg.List(preset.Name)
		out[preset.Name] = lists.Override{PageSize: lc.PageSize, MembershipFields: lc.MembershipFields}
	}
	return out
}

// ParseSort reads "field" or "field:asc|desc". A bare field sorts descending.
func ParseSort(s string) (listsync.Sort, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return listsync.Sort{}, false
	}
	field, dir, _ := strings.Cut(s, ":")
	field = strings.TrimSpace(field)
	if field == "" {
		return listsync.Sort{}, false
	}
	if strings.TrimSpace(dir) == "" {
		return listsync.Sort{Field: field, Direction: listsync.Descending}, true
	}
	return listsync.Sort{Field: field, Direction: listsync.ParseDirection(dir)}, true
}

// ensureReachable fails only for credentials that can never work. An
// unreachable backend is logged and the UI starts offline.
func ensureReachable(ctx context.Context, client *api.Client) error {
	pingCtx, cancel := context.WithTimeout(ctx, pingTimeout)
	defer cancel()
	user, err := client.Ping(pingCtx)
	if err == nil {
		glog.Infof("connected to %s as %s", client.BaseURL(), user.DisplayName())
		return nil
	}
	var statusErr *api.StatusError
	switch {
	case errors.Is(err, api.ErrTokenExpired):
		return err
	case errors.As(err, &statusErr) && statusErr.Unauthorized():
		return fmt.Errorf("api rejected token: %w", err)
	}
	glog.Warningf("backend %s unreachable, starting offline: %v", client.BaseURL(), err)
	return nil
}
