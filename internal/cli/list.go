package cli

import (
	"fmt"
	"strings"

	"github.com/golang/glog"
	"github.com/spf13/cobra"

	"github.com/five82/almanac/internal/api"
)

type listOptions struct {
	Filters []string
	Sort    string
	Search  string
	All     bool
	Limit   int
}

func newListCmd(opts *options) *cobra.Command {
	lo := &listOptions{}
	cmd := &cobra.Command{
		Use:       "list <resource>",
		Short:     "Print the first page of a list, or every page with --all",
		Aliases:   []string{"ls"},
		Args:      cobra.ExactArgs(1),
		ValidArgs: api.ResourceNames(),
		RunE: func(cmd *cobra.Command, args []string) error {
			resource, err := resolveResource(args[0])
			if err != nil {
				return err
			}
			filters, err := parseFilters(lo.Filters)
			if err != nil {
				return err
			}
			sort, err := parseSort(lo.Sort)
			if err != nil {
				return err
			}
			if q := strings.TrimSpace(lo.Search); q != "" {
				filters[api.SearchKey] = q
			}
			s, err := opts.session()
			if err != nil {
				return err
			}
			ctrl, err := s.controller(cmd.Context(), resource, filters, sort)
			if err != nil {
				return err
			}
			ctrl.Reload()
			st, err := settle(ctrl)
			if err != nil {
				return err
			}
			for lo.All && st.HasMore && (lo.Limit <= 0 || len(st.Items) < lo.Limit) {
				if !ctrl.LoadMore() {
					break
				}
				if st, err = settle(ctrl); err != nil {
					return err
				}
			}
			glog.V(1).Infof("list %s: %d items, more=%v", resource, len(st.Items), st.HasMore)

			items := st.Items
			if lo.Limit > 0 && len(items) > lo.Limit {
				items = items[:lo.Limit]
			}
			if opts.JSON {
				return printJSON(out(cmd), items)
			}
			printItems(out(cmd), resource, items)
			if st.HasMore && !lo.All {
				fmt.Fprintf(out(cmd), "\n%d shown, more available (use --all)\n", len(items))
			}
			return nil
		},
	}
	cmd.Flags().StringArrayVarP(&lo.Filters, "filter", "f", nil, "filter as key=value (repeatable)")
	cmd.Flags().StringVarP(&lo.Sort, "sort", "s", "", "sort as field[:asc|desc]")
	cmd.Flags().StringVarP(&lo.Search, "search", "q", "", "free-text search")
	cmd.Flags().BoolVarP(&lo.All, "all", "a", false, "follow every page")
	cmd.Flags().IntVarP(&lo.Limit, "limit", "n", 0, "stop after this many items")
	return cmd
}
