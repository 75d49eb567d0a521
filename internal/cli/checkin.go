package cli

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/five82/almanac/internal/api"
	"github.com/five82/almanac/internal/stats"
)

func newCheckinCmd(opts *options) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "checkin",
		Short: "Daily check-ins",
	}
	cmd.AddCommand(newCheckinDayCmd(opts))
	cmd.AddCommand(newCheckinMarkCmd(opts))
	cmd.AddCommand(newCheckinHistoryCmd(opts))
	return cmd
}

func newCheckinDayCmd(opts *options) *cobra.Command {
	var date string
	cmd := &cobra.Command{
		Use:   "day",
		Short: "Show every enabled check-in for one day",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			day, err := dayOrToday(date)
			if err != nil {
				return err
			}
			s, err := opts.session()
			if err != nil {
				return err
			}
			daily, err := s.client.DailyCheckins(cmd.Context(), day)
			if err != nil {
				return fmt.Errorf("fetch check-ins: %w", err)
			}
			if opts.JSON {
				return printJSON(out(cmd), daily)
			}
			tbl := newTable()
			header(tbl, "ID", "ITEM", "DONE")
			for _, d := range daily {
				if !d.Item.Enabled() {
					continue
				}
				done := "[ ]"
				if d.Checked() {
					done = green.Sprint("[x]")
				}
				tbl.AddRow(d.Item.ID, strings.TrimSpace(d.Item.Icon+" "+d.Item.ItemName), done)
			}
			sum := stats.Checkins(daily)
			fmt.Fprintln(out(cmd), tbl)
			fmt.Fprintf(out(cmd), "\n%d/%d done on %s\n", sum.Done, sum.Total, day.Format("2006-01-02"))
			return nil
		},
	}
	cmd.Flags().StringVar(&date, "date", "", "day to show (default today)")
	return cmd
}

func newCheckinMarkCmd(opts *options) *cobra.Command {
	var (
		date   string
		undo   bool
		remark string
	)
	cmd := &cobra.Command{
		Use:   "mark <item-id>",
		Short: "Check an item off for a day, or clear it with --undo",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseItemID(args[0])
			if err != nil {
				return err
			}
			day, err := dayOrToday(date)
			if err != nil {
				return err
			}
			s, err := opts.session()
			if err != nil {
				return err
			}
			rec := api.CheckinRecord{ItemID: id, CheckDate: day.Format("2006-01-02"), CheckStatus: 1, ItemRemark: remark}
			if undo {
				rec.CheckStatus = 0
			}
			if err := s.client.SaveCheckinRecord(cmd.Context(), rec); err != nil {
				return fmt.Errorf("save check-in: %w", err)
			}
			state := "checked"
			if undo {
				state = "cleared"
			}
			fmt.Fprintf(out(cmd), "check-in %d %s for %s\n", id, state, rec.CheckDate)
			return nil
		},
	}
	cmd.Flags().StringVar(&date, "date", "", "day of the check-in (default today)")
	cmd.Flags().BoolVar(&undo, "undo", false, "clear the check instead of setting it")
	cmd.Flags().StringVar(&remark, "remark", "", "note stored with the record")
	return cmd
}

func newCheckinHistoryCmd(opts *options) *cobra.Command {
	var (
		days  int
		limit int
	)
	cmd := &cobra.Command{
		Use:   "history [item-id]",
		Short: "List check-in records, newest first",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			q := api.CheckinHistoryQuery{Limit: limit}
			if len(args) == 1 {
				id, err := parseItemID(args[0])
				if err != nil {
					return err
				}
				q.ItemID = id
			}
			if days > 0 {
				q.End = time.Now()
				q.Start = q.End.AddDate(0, 0, -days)
			}
			s, err := opts.session()
			if err != nil {
				return err
			}
			records, err := s.client.CheckinHistory(cmd.Context(), q)
			if err != nil {
				return fmt.Errorf("fetch check-in history: %w", err)
			}
			if opts.JSON {
				return printJSON(out(cmd), records)
			}
			if len(records) == 0 {
				fmt.Fprintln(out(cmd), faint.Sprint("no records"))
				return nil
			}
			tbl := newTable()
			header(tbl, "DATE", "ITEM", "DONE", "REMARK")
			for _, r := range records {
				done := "no"
				if r.Checked() {
					done = green.Sprint("yes")
				}
				tbl.AddRow(r.CheckDate, r.ItemID, done, r.ItemRemark)
			}
			fmt.Fprintln(out(cmd), tbl)
			return nil
		},
	}
	cmd.Flags().IntVar(&days, "days", 30, "how many days back to look (0 for no bound)")
	cmd.Flags().IntVarP(&limit, "limit", "n", 0, "maximum records")
	return cmd
}

func parseItemID(s string) (int64, error) {
	id, err := strconv.ParseInt(strings.TrimSpace(s), 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("invalid item id %q", s)
	}
	return id, nil
}

func dayOrToday(s string) (time.Time, error) {
	if strings.TrimSpace(s) == "" {
		return parseDay("today")
	}
	return parseDay(s)
}
