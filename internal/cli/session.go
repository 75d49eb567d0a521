package cli

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/five82/almanac/internal/api"
	"github.com/five82/almanac/internal/app"
	"github.com/five82/almanac/internal/config"
	"github.com/five82/almanac/internal/lists"
	"github.com/five82/almanac/internal/listsync"
)

// session is what one command needs to reach the backend.
type session struct {
	cfg    config.Config
	client *api.Client
}

func (o *options) session() (session, error) {
	cfg, err := config.Load(o.ConfigPath)
	if err != nil {
		return session{}, fmt.Errorf("load config: %w", err)
	}
	client, err := api.NewClient(cfg.APIBase, cfg.Token)
	if err != nil {
		return session{}, fmt.Errorf("init api client: %w", err)
	}
	return session{cfg: cfg, client: client}, nil
}

var resourceAliases = map[string]string{
	"todo":    api.Todos,
	"recipe":  api.Recipes,
	"note":    api.Notes,
	"checkin": api.Checkins,
	"weights": api.Weight,
}

// resolveResource accepts a resource name or its singular.
func resolveResource(name string) (string, error) {
	name = strings.ToLower(strings.TrimSpace(name))
	if alias, ok := resourceAliases[name]; ok {
		name = alias
	}
	if _, ok := api.LookupResource(name); !ok {
		return "", fmt.Errorf("unknown resource %q (want one of %s)", name, strings.Join(api.ResourceNames(), ", "))
	}
	return name, nil
}

// controller builds a list controller for resource the way the TUI does,
// minus any remembered preferences. filters replace the preset's facet
// filters and a non-empty sort replaces its default order.
func (s session) controller(ctx context.Context, resource string, filters listsync.Filters, sort listsync.Sort) (*listsync.Controller, error) {
	col, err := s.client.Collection(resource)
	if err != nil {
		return nil, err
	}
	preset, ok := lists.Lookup(resource)
	if !ok {
		return nil, fmt.Errorf("no list preset for %q", resource)
	}
	lc := s.cfg.List(resource)
	cfg := preset.Config(lists.Facet{Name: "all"}, lists.Override{PageSize: lc.PageSize, MembershipFields: lc.MembershipFields})
	cfg.Filters = filters.Clone()
	if sort.Field != "" {
		cfg.Sort = sort
	}
	return listsync.New(ctx, col, cfg), nil
}

// settle waits for ctrl and reports its error, if any.
func settle(ctrl *listsync.Controller) (listsync.State, error) {
	ctrl.Wait()
	st := ctrl.State()
	if st.Error != nil {
		return st, st.Error
	}
	return st, nil
}

// parseFilters reads key=value pairs. Integer values stay integers so they
// match the backend's 0/1 flags.
func parseFilters(pairs []string) (listsync.Filters, error) {
	filters := listsync.Filters{}
	for _, pair := range pairs {
		k, v, ok := strings.Cut(pair, "=")
		k = strings.TrimSpace(k)
		if !ok || k == "" {
			return nil, fmt.Errorf("invalid filter %q (want key=value)", pair)
		}
		v = strings.TrimSpace(v)
		if n, err := strconv.Atoi(v); err == nil {
			filters[k] = n
			continue
		}
		filters[k] = v
	}
	return filters, nil
}

func parseSort(s string) (listsync.Sort, error) {
	if strings.TrimSpace(s) == "" {
		return listsync.Sort{}, nil
	}
	sort, ok := app.ParseSort(s)
	if !ok {
		return listsync.Sort{}, fmt.Errorf("invalid sort %q (want field[:asc|desc])", s)
	}
	return sort, nil
}
