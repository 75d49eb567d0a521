package cli

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/five82/almanac/internal/api"
	"github.com/five82/almanac/internal/listsync"
	"github.com/five82/almanac/internal/stats"
)

// summaryReport is the one-screen overview printed by `almanac summary`.
type summaryReport struct {
	OpenTodos     int                  `json:"open_todos"`
	MoreTodos     bool                 `json:"more_todos"`
	Overdue       int                  `json:"overdue"`
	Urgent        int                  `json:"urgent"`
	Checkins      stats.CheckinSummary `json:"checkins"`
	LatestWeight  float64              `json:"latest_weight,omitempty"`
	WeightChange  float64              `json:"weight_change_14d,omitempty"`
	WeightRecords int                  `json:"weight_records_14d"`
}

func newSummaryCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "summary",
		Short: "Open to-dos, today's check-ins and recent weight at a glance",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := opts.session()
			if err != nil {
				return err
			}
			report, err := s.summary(cmd)
			if err != nil {
				return err
			}
			if opts.JSON {
				return printJSON(out(cmd), report)
			}
			printSummary(cmd, report)
			return nil
		},
	}
}

// summary fetches the three sources concurrently. Each goroutine owns its
// own fields of the report.
func (s session) summary(cmd *cobra.Command) (summaryReport, error) {
	var report summaryReport
	g, ctx := errgroup.WithContext(cmd.Context())
	now := time.Now()

	g.Go(func() error {
		ctrl, err := s.controller(ctx, api.Todos, listsync.Filters{"status": 0}, listsync.Sort{})
		if err != nil {
			return err
		}
		ctrl.Reload()
		st, err := settle(ctrl)
		if err != nil {
			return fmt.Errorf("open to-dos: %w", err)
		}
		report.OpenTodos = len(st.Items)
		report.MoreTodos = st.HasMore
		for _, t := range api.DecodeAll[api.Todo](st.Items) {
			if t.Overdue(now) {
				report.Overdue++
			}
			if t.Priority == api.PriorityHigh {
				report.Urgent++
			}
		}
		return nil
	})

	g.Go(func() error {
		daily, err := s.client.DailyCheckins(ctx, now)
		if err != nil {
			return fmt.Errorf("today's check-ins: %w", err)
		}
		report.Checkins = stats.Checkins(daily)
		return nil
	})

	g.Go(func() error {
		records, err := s.client.WeightHistory(ctx, now.AddDate(0, 0, -14), now, 0)
		if err != nil {
			return fmt.Errorf("recent weight: %w", err)
		}
		sum := stats.Weight(records)
		report.WeightRecords = sum.Count
		report.LatestWeight = sum.Last.Weight
		report.WeightChange = sum.Change
		return nil
	})

	if err := g.Wait(); err != nil {
		return summaryReport{}, err
	}
	return report, nil
}

func printSummary(cmd *cobra.Command, r summaryReport) {
	tbl := newTable()

	open := fmt.Sprint(r.OpenTodos)
	if r.MoreTodos {
		open += "+"
	}
	todos := open + " open"
	if r.Overdue > 0 {
		todos += ", " + red.Sprintf("%d overdue", r.Overdue)
	}
	if r.Urgent > 0 {
		todos += ", " + yellow.Sprintf("%d urgent", r.Urgent)
	}
	tbl.AddRow(bold.Sprint("to-dos"), todos)

	checkins := faint.Sprint("none enabled")
	if r.Checkins.Total > 0 {
		checkins = fmt.Sprintf("%d/%d done today", r.Checkins.Done, r.Checkins.Total)
		if r.Checkins.Done == r.Checkins.Total {
			checkins = green.Sprint(checkins)
		}
	}
	tbl.AddRow(bold.Sprint("check-ins"), checkins)

	weight := faint.Sprint("no weigh-ins in 14 days")
	if r.WeightRecords > 0 {
		weight = fmt.Sprintf("%.2f kg", r.LatestWeight)
		if r.WeightRecords > 1 {
			weight += fmt.Sprintf(" (%+.2f over 14 days)", r.WeightChange)
		}
	}
	tbl.AddRow(bold.Sprint("weight"), weight)

	fmt.Fprintln(out(cmd), tbl)
}
