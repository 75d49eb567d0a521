package lists

import (
	"strings"

	"github.com/five82/almanac/internal/api"
	"github.com/five82/almanac/internal/listsync"
)

// Facet is a named filter preset within a list screen.
type Facet struct {
	Name    string
	Label   string
	Filters listsync.Filters
	// Sensitive adds membership-sensitive fields while the facet is active.
	Sensitive []string
}

// Preset describes one list screen.
type Preset struct {
	Name        string // api resource name
	Title       string
	PageSize    int
	Membership  []string
	TitleField  string
	DefaultSort listsync.Sort
	SortFields  []string
	Facets      []Facet
}

// Override carries user configuration for a preset.
type Override struct {
	PageSize         int
	MembershipFields []string
}

var recipeCategories = []struct{ value, label string }{
	{"素菜系列", "Vegetable"},
	{"荤菜系列", "Meat"},
	{"汤羹系列", "Soup"},
	{"面食系列", "Noodles"},
	{"早餐系列", "Breakfast"},
}

func presets() []Preset {
	recipeFacets := []Facet{
		{Name: "all", Label: "All"},
		{Name: "starred", Label: "Starred", Filters: listsync.Filters{"is_starred": 1}, Sensitive: []string{"is_starred"}},
	}
	for _, cat := range recipeCategories {
		recipeFacets = append(recipeFacets, Facet{
			Name:    strings.ToLower(cat.label),
			Label:   cat.label,
			Filters: listsync.Filters{"category": cat.value},
		})
	}

	return []Preset{
		{
			Name:        api.Todos,
			Title:       "To-dos",
			PageSize:    20,
			Membership:  []string{"status", "is_starred", "priority", "category_path"},
			TitleField:  "title",
			DefaultSort: listsync.Sort{Field: "create_time", Direction: listsync.Descending},
			SortFields:  []string{"create_time", "deadline", "priority"},
			Facets: []Facet{
				{Name: "todo", Label: "Open", Filters: listsync.Filters{"status": 0}},
				{Name: "priority", Label: "Urgent", Filters: listsync.Filters{"status": 0, "priority": api.PriorityHigh}},
				{Name: "starred", Label: "Starred", Filters: listsync.Filters{"is_starred": 1}},
				{Name: "done", Label: "Done", Filters: listsync.Filters{"status": 1}},
				{Name: "all", Label: "All"},
			},
		},
		{
			Name:       api.Recipes,
			Title:      "Recipes",
			PageSize:   12,
			Membership: []string{"category"},
			TitleField: "name",
			SortFields: []string{"update_time", "name"},
			Facets:     recipeFacets,
		},
		{
			Name:       api.Notes,
			Title:      "Notes",
			PageSize:   20,
			Membership: []string{"category_path"},
			TitleField: "title",
			SortFields: []string{"update_time", "title"},
			Facets:     []Facet{{Name: "all", Label: "All"}},
		},
		{
			Name:       api.Checkins,
			Title:      "Check-ins",
			PageSize:   50,
			Membership: []string{"status"},
			TitleField: "item_name",
			SortFields: []string{"item_name"},
			Facets: []Facet{
				{Name: "enabled", Label: "Enabled", Filters: listsync.Filters{"status": 1}},
				{Name: "disabled", Label: "Disabled", Filters: listsync.Filters{"status": 0}},
				{Name: "all", Label: "All"},
			},
		},
		{
			Name:        api.Weight,
			Title:       "Weight",
			PageSize:    30,
			TitleField:  "record_date",
			DefaultSort: listsync.Sort{Field: "record_date", Direction: listsync.Descending},
			SortFields:  []string{"record_date", "weight"},
			Facets:      []Facet{{Name: "all", Label: "History"}},
		},
	}
}

// All returns every preset in tab order.
func All() []Preset {
	return presets()
}

// Lookup returns the preset for a resource name.
func Lookup(name string) (Preset, bool) {
	name = strings.ToLower(strings.TrimSpace(name))
	for _, p := range presets() {
		if p.Name == name {
			return p, true
		}
	}
	return Preset{}, false
}

// Facet returns the named facet.
func (p Preset) Facet(name string) (Facet, bool) {
	for _, f := range p.Facets {
		if f.Name == name {
			return f, true
		}
	}
	return Facet{}, false
}

// DefaultFacet is the facet a screen opens on.
func (p Preset) DefaultFacet() Facet {
	if len(p.Facets) == 0 {
		return Facet{Name: "all", Label: "All"}
	}
	return p.Facets[0]
}

// NextFacet cycles to the facet after current, wrapping around.
func (p Preset) NextFacet(current string) Facet {
	for i, f := range p.Facets {
		if f.Name == current {
			return p.Facets[(i+1)%len(p.Facets)]
		}
	}
	return p.DefaultFacet()
}

// FacetPatch returns the filter patch that switches to facet: its own keys
// are set and every key any other facet owns is cleared.
func (p Preset) FacetPatch(facet Facet) listsync.Filters {
	patch := listsync.Filters{}
	for _, f := range p.Facets {
		for k := range f.Filters {
			patch[k] = nil
		}
	}
	for k, v := range facet.Filters {
		patch[k] = v
	}
	return patch
}

// SensitiveFor returns the membership-sensitive fields while facet is active.
func (p Preset) SensitiveFor(facet Facet, o Override) []string {
	base := p.Membership
	if len(o.MembershipFields) > 0 {
		base = o.MembershipFields
	}
	out := append([]string(nil), base...)
	for _, f := range facet.Sensitive {
		if !contains(out, f) {
			out = append(out, f)
		}
	}
	return out
}

// Config builds the controller configuration for facet.
func (p Preset) Config(facet Facet, o Override) listsync.Config {
	size := p.PageSize
	if o.PageSize > 0 {
		size = o.PageSize
	}
	return listsync.Config{
		Name:                      p.Name,
		PageSize:                  size,
		IDField:                   "id",
		MembershipSensitiveFields: p.SensitiveFor(facet, o),
		Filters:                   facet.Filters.Clone(),
		Sort:                      p.DefaultSort,
	}
}

// NextSort cycles the sort: each field descending, then ascending, then the
// next field.
func (p Preset) NextSort(current listsync.Sort) listsync.Sort {
	if len(p.SortFields) == 0 {
		return current
	}
	if current.Field == "" {
		return listsync.Sort{Field: p.SortFields[0], Direction: listsync.Descending}
	}
	for i, f := range p.SortFields {
		if f != current.Field {
			continue
		}
		if current.Direction != listsync.Ascending {
			return listsync.Sort{Field: f, Direction: listsync.Ascending}
		}
		return listsync.Sort{Field: p.SortFields[(i+1)%len(p.SortFields)], Direction: listsync.Descending}
	}
	return listsync.Sort{Field: p.SortFields[0], Direction: listsync.Descending}
}

// ApplyFacet switches ctrl to facet in a single generation.
func ApplyFacet(ctrl *listsync.Controller, p Preset, facet Facet, o Override) {
	ctrl.SetMembershipSensitive(p.SensitiveFor(facet, o))
	ctrl.SetFilters(p.FacetPatch(facet))
}

// Search sets or clears the free-text filter.
func Search(ctrl *listsync.Controller, text string) {
	text = strings.TrimSpace(text)
	if text == "" {
		ctrl.SetFilters(listsync.Filters{api.SearchKey: nil})
		return
	}
	ctrl.SetFilters(listsync.Filters{api.SearchKey: text})
}

// ActiveFacet finds the facet whose filters match snap, if any.
func (p Preset) ActiveFacet(snap listsync.QuerySnapshot) Facet {
	owned := map[string]struct{}{}
	for _, f := range p.Facets {
		for k := range f.Filters {
			owned[k] = struct{}{}
		}
	}
	for _, f := range p.Facets {
		if facetMatches(f, snap, owned) {
			return f
		}
	}
	return p.DefaultFacet()
}

func facetMatches(f Facet, snap listsync.QuerySnapshot, owned map[string]struct{}) bool {
	for k := range owned {
		want, wantOK := f.Filters[k]
		got, gotOK := snap.Filter(k)
		if wantOK != gotOK {
			return false
		}
		if wantOK && !listsync.SameValue(want, got) {
			return false
		}
	}
	return true
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}
