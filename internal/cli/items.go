package cli

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/five82/almanac/internal/api"
	"github.com/five82/almanac/internal/listsync"
)

// flagFields maps a flag command to the field it sets per resource.
var flagFields = map[string]map[string]string{
	"done":   {api.Todos: "status", api.Checkins: "status"},
	"undone": {api.Todos: "status", api.Checkins: "status"},
	"star":   {api.Todos: "is_starred", api.Recipes: "is_starred"},
	"unstar": {api.Todos: "is_starred", api.Recipes: "is_starred"},
}

func newFlagCmd(opts *options, name, short string, on bool) *cobra.Command {
	return &cobra.Command{
		Use:   name + " <resource> <id>...",
		Short: short,
		Args:  cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			resource, err := resolveResource(args[0])
			if err != nil {
				return err
			}
			field, ok := flagFields[name][resource]
			if !ok {
				return fmt.Errorf("%s does not apply to %s", name, resource)
			}
			s, err := opts.session()
			if err != nil {
				return err
			}
			ctrl, err := s.controller(cmd.Context(), resource, nil, listsync.Sort{})
			if err != nil {
				return err
			}
			value := 0
			if on {
				value = 1
			}
			for _, id := range args[1:] {
				ctrl.Mutate(id, listsync.Item{field: value})
				if _, err := settle(ctrl); err != nil {
					return err
				}
				fmt.Fprintf(out(cmd), "%s %s %s\n", resource, id, pastTense(name))
			}
			return nil
		},
	}
}

func pastTense(name string) string {
	switch name {
	case "done":
		return "marked done"
	case "undone":
		return "reopened"
	case "star":
		return "starred"
	case "unstar":
		return "unstarred"
	}
	return name
}

func newRemoveCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:     "rm <resource> <id>...",
		Short:   "Delete items",
		Aliases: []string{"delete"},
		Args:    cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			resource, err := resolveResource(args[0])
			if err != nil {
				return err
			}
			s, err := opts.session()
			if err != nil {
				return err
			}
			ctrl, err := s.controller(cmd.Context(), resource, nil, listsync.Sort{})
			if err != nil {
				return err
			}
			for _, id := range args[1:] {
				ctrl.Delete(id)
				if _, err := settle(ctrl); err != nil {
					return err
				}
				fmt.Fprintf(out(cmd), "%s %s deleted\n", resource, id)
			}
			return nil
		},
	}
}

func newAddCmd(opts *options) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "add",
		Short: "Create a to-do, note or weigh-in",
	}
	cmd.AddCommand(newAddTodoCmd(opts))
	cmd.AddCommand(newAddNoteCmd(opts))
	cmd.AddCommand(newAddWeightCmd(opts))
	return cmd
}

// create sends payload through a controller so the list reloads the same
// way it does in the TUI.
func create(cmd *cobra.Command, opts *options, resource string, payload listsync.Item) error {
	s, err := opts.session()
	if err != nil {
		return err
	}
	ctrl, err := s.controller(cmd.Context(), resource, nil, listsync.Sort{})
	if err != nil {
		return err
	}
	ctrl.Create(payload)
	if _, err := settle(ctrl); err != nil {
		return err
	}
	fmt.Fprintf(out(cmd), "%s created\n", strings.TrimSuffix(resource, "s"))
	return nil
}

func newAddTodoCmd(opts *options) *cobra.Command {
	var (
		priority int
		deadline string
		remark   string
		category string
	)
	cmd := &cobra.Command{
		Use:   "todo <title>...",
		Short: "Create a to-do",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			title := strings.TrimSpace(strings.Join(args, " "))
			if title == "" {
				return fmt.Errorf("title required")
			}
			if priority < api.PriorityHigh || priority > api.PriorityLow {
				return fmt.Errorf("priority must be %d-%d", api.PriorityHigh, api.PriorityLow)
			}
			payload := listsync.Item{"title": title, "priority": priority, "status": 0}
			if deadline != "" {
				d, err := parseDay(deadline)
				if err != nil {
					return err
				}
				payload["deadline"] = d.Format("2006-01-02 15:04:05")
			}
			if remark != "" {
				payload["remark"] = remark
			}
			if category != "" {
				payload["category_path"] = category
			}
			return create(cmd, opts, api.Todos, payload)
		},
	}
	cmd.Flags().IntVarP(&priority, "priority", "p", api.PriorityNormal, "1 high, 2 normal, 3 low")
	cmd.Flags().StringVarP(&deadline, "deadline", "d", "", "deadline as YYYY-MM-DD, today or tomorrow")
	cmd.Flags().StringVar(&remark, "remark", "", "free-form remark")
	cmd.Flags().StringVarP(&category, "category", "c", "", "category path")
	return cmd
}

func newAddNoteCmd(opts *options) *cobra.Command {
	var (
		content  string
		category string
		richText bool
	)
	cmd := &cobra.Command{
		Use:   "note <title>...",
		Short: "Create a note",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			contentType := api.ContentMarkdown
			if richText {
				contentType = api.ContentRichText
			}
			payload := listsync.Item{
				"title":        strings.TrimSpace(strings.Join(args, " ")),
				"content":      content,
				"content_type": contentType,
			}
			if category != "" {
				payload["category_path"] = category
			}
			return create(cmd, opts, api.Notes, payload)
		},
	}
	cmd.Flags().StringVar(&content, "content", "", "note body")
	cmd.Flags().StringVarP(&category, "category", "c", "", "category path")
	cmd.Flags().BoolVar(&richText, "html", false, "content is HTML rather than markdown")
	return cmd
}

func newAddWeightCmd(opts *options) *cobra.Command {
	var (
		date   string
		remark string
	)
	cmd := &cobra.Command{
		Use:   "weight <kg>",
		Short: "Record a weigh-in",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			kg, err := strconv.ParseFloat(strings.TrimSpace(args[0]), 64)
			if err != nil || kg <= 0 {
				return fmt.Errorf("invalid weight %q", args[0])
			}
			day := time.Now()
			if date != "" {
				if day, err = parseDay(date); err != nil {
					return err
				}
			}
			payload := listsync.Item{"weight": kg, "record_date": day.Format("2006-01-02")}
			if remark != "" {
				payload["remark"] = remark
			}
			return create(cmd, opts, api.Weight, payload)
		},
	}
	cmd.Flags().StringVar(&date, "date", "", "day of the weigh-in (default today)")
	cmd.Flags().StringVar(&remark, "remark", "", "free-form remark")
	return cmd
}

// parseDay accepts YYYY-MM-DD, "today" and "tomorrow".
func parseDay(s string) (time.Time, error) {
	now := time.Now()
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.Local)
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "today":
		return today, nil
	case "tomorrow":
		return today.AddDate(0, 0, 1), nil
	}
	t, err := time.ParseInLocation("2006-01-02", strings.TrimSpace(s), time.Local)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date %q (want YYYY-MM-DD)", s)
	}
	return t, nil
}
