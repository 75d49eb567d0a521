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

func newWeightCmd(opts *options) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "weight",
		Short: "Weight statistics",
	}
	cmd.AddCommand(newWeightStatsCmd(opts))
	cmd.AddCommand(newWeightPeriodCmd(opts, "week"))
	cmd.AddCommand(newWeightPeriodCmd(opts, "month"))
	cmd.AddCommand(newWeightTargetCmd(opts))
	return cmd
}

type weightReport struct {
	Days    int                 `json:"days"`
	Summary stats.WeightSummary `json:"summary"`
	Goal    *stats.Goal         `json:"goal,omitempty"`
}

func newWeightStatsCmd(opts *options) *cobra.Command {
	var days int
	cmd := &cobra.Command{
		Use:   "stats",
		Short: "Summarise recent weigh-ins and progress toward the target",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if days <= 0 {
				return fmt.Errorf("--days must be positive")
			}
			s, err := opts.session()
			if err != nil {
				return err
			}
			ctx := cmd.Context()
			end := time.Now()
			records, err := s.client.WeightHistory(ctx, end.AddDate(0, 0, -days), end, 0)
			if err != nil {
				return fmt.Errorf("fetch weight history: %w", err)
			}
			target, err := s.client.WeightTarget(ctx)
			if err != nil {
				return fmt.Errorf("fetch weight target: %w", err)
			}

			report := weightReport{Days: days, Summary: stats.Weight(records)}
			if target != nil && report.Summary.Count > 0 {
				g := stats.Progress(*target, report.Summary.Last.Weight)
				report.Goal = &g
			}
			if opts.JSON {
				return printJSON(out(cmd), report)
			}
			printWeightReport(cmd, report)
			return nil
		},
	}
	cmd.Flags().IntVar(&days, "days", 90, "how many days back to look")
	return cmd
}

func printWeightReport(cmd *cobra.Command, r weightReport) {
	w := out(cmd)
	sum := r.Summary
	if sum.Count == 0 {
		fmt.Fprintf(w, "no weigh-ins in the last %d days\n", r.Days)
		return
	}
	tbl := newTable()
	tbl.AddRow(bold.Sprint("records"), sum.Count)
	tbl.AddRow(bold.Sprint("range"), fmt.Sprintf("%s to %s", sum.First.RecordDate, sum.Last.RecordDate))
	tbl.AddRow(bold.Sprint("latest"), fmt.Sprintf("%.2f kg", sum.Last.Weight))
	tbl.AddRow(bold.Sprint("mean"), fmt.Sprintf("%.2f kg", sum.Mean))
	tbl.AddRow(bold.Sprint("min / max"), fmt.Sprintf("%.2f / %.2f kg", sum.Min, sum.Max))
	if sum.Count > 1 {
		change := fmt.Sprintf("%+.2f kg", sum.Change)
		if sum.Change < 0 {
			change = green.Sprint(change)
		} else if sum.Change > 0 {
			change = yellow.Sprint(change)
		}
		tbl.AddRow(bold.Sprint("change"), change)
		tbl.AddRow(bold.Sprint("std dev"), fmt.Sprintf("%.2f", sum.StdDev))
	}
	if g := r.Goal; g != nil {
		progress := fmt.Sprintf("%.2f kg to go (%.0f%%)", g.Remaining, g.Percent)
		if g.Reached {
			progress = green.Sprint("reached")
		}
		tbl.AddRow(bold.Sprint("target"), fmt.Sprintf("%.2f kg, %s", g.Target, progress))
	}
	fmt.Fprintln(w, tbl)

	if len(sum.Weeks) > 1 {
		fmt.Fprintln(w)
		weeks := newTable()
		header(weeks, "WEEK", "MEAN", "N")
		for _, wk := range sum.Weeks {
			weeks.AddRow(wk.Week, fmt.Sprintf("%.2f", wk.Mean), wk.Count)
		}
		fmt.Fprintln(w, weeks)
	}
}

// newWeightPeriodCmd shows the backend's weekly or monthly aggregate.
func newWeightPeriodCmd(opts *options, unit string) *cobra.Command {
	use, short := "week [YYYYWW]", "Weigh-ins and averages for one ISO week (default this week)"
	if unit == "month" {
		use, short = "month [YYYY-MM]", "Weigh-ins and averages for one month (default this month)"
	}
	return &cobra.Command{
		Use:   use,
		Short: short,
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			arg := ""
			if len(args) == 1 {
				arg = strings.TrimSpace(args[0])
			}
			s, err := opts.session()
			if err != nil {
				return err
			}
			var (
				period api.WeightPeriod
				label  string
			)
			if unit == "week" {
				if arg != "" && !validWeekNum(arg) {
					return fmt.Errorf("invalid week %q (want YYYYWW)", arg)
				}
				label = arg
				if label == "" {
					label = stats.WeekNum(time.Now())
				}
				period, err = s.client.WeeklyWeight(cmd.Context(), arg)
			} else {
				month := time.Now()
				if arg != "" {
					if month, err = time.Parse("2006-01", arg); err != nil {
						return fmt.Errorf("invalid month %q (want YYYY-MM)", arg)
					}
				}
				label = month.Format("2006-01")
				period, err = s.client.MonthlyWeight(cmd.Context(), month.Year(), month.Month())
			}
			if err != nil {
				return fmt.Errorf("fetch %s: %w", unit, err)
			}
			if opts.JSON {
				return printJSON(out(cmd), period)
			}
			printWeightPeriod(cmd, unit+" "+label, period)
			return nil
		},
	}
}

func validWeekNum(s string) bool {
	if len(s) != 6 {
		return false
	}
	wk, err := strconv.Atoi(s[4:])
	if err != nil {
		return false
	}
	_, err = strconv.Atoi(s[:4])
	return err == nil && wk >= 1 && wk <= 53
}

func printWeightPeriod(cmd *cobra.Command, label string, p api.WeightPeriod) {
	w := out(cmd)
	if len(p.Records) == 0 {
		fmt.Fprintf(w, "no weigh-ins in %s\n", label)
		return
	}
	tbl := newTable()
	tbl.AddRow(bold.Sprint(label), fmt.Sprintf("%d records", len(p.Records)))
	tbl.AddRow(bold.Sprint("average"), fmt.Sprintf("%.2f kg", p.AvgWeight))
	tbl.AddRow(bold.Sprint("min / max"), fmt.Sprintf("%.2f / %.2f kg", p.MinWeight, p.MaxWeight))
	if p.DiffLastWeek != 0 {
		tbl.AddRow(bold.Sprint("vs last week"), fmt.Sprintf("%+.2f kg", p.DiffLastWeek))
	}
	fmt.Fprintln(w, tbl)
	fmt.Fprintln(w)
	records := newTable()
	header(records, "DATE", "KG", "REMARK")
	for _, r := range p.Records {
		records.AddRow(r.RecordDate, strconv.FormatFloat(r.Weight, 'f', 2, 64), r.Remark)
	}
	fmt.Fprintln(w, records)
}

func newWeightTargetCmd(opts *options) *cobra.Command {
	var (
		start    float64
		deadline string
	)
	cmd := &cobra.Command{
		Use:   "target [kg]",
		Short: "Show the weight goal, or set it when kg is given",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := opts.session()
			if err != nil {
				return err
			}
			if len(args) == 0 {
				target, err := s.client.WeightTarget(cmd.Context())
				if err != nil {
					return fmt.Errorf("fetch weight target: %w", err)
				}
				if opts.JSON {
					return printJSON(out(cmd), target)
				}
				if target == nil {
					fmt.Fprintln(out(cmd), faint.Sprint("no target set"))
					return nil
				}
				fmt.Fprintf(out(cmd), "target %.2f kg", target.TargetWeight)
				if target.Deadline != "" {
					fmt.Fprintf(out(cmd), " by %s", target.Deadline)
				}
				fmt.Fprintln(out(cmd))
				return nil
			}

			kg, err := strconv.ParseFloat(strings.TrimSpace(args[0]), 64)
			if err != nil || kg <= 0 {
				return fmt.Errorf("invalid weight %q", args[0])
			}
			target := api.WeightTarget{TargetWeight: kg, StartWeight: start, StartDate: time.Now().Format("2006-01-02")}
			if deadline != "" {
				d, err := parseDay(deadline)
				if err != nil {
					return err
				}
				target.Deadline = d.Format("2006-01-02")
			}
			if err := s.client.SetWeightTarget(cmd.Context(), target); err != nil {
				return fmt.Errorf("set weight target: %w", err)
			}
			fmt.Fprintf(out(cmd), "target set to %.2f kg\n", kg)
			return nil
		},
	}
	cmd.Flags().Float64Var(&start, "start", 0, "starting weight used for progress (default latest)")
	cmd.Flags().StringVar(&deadline, "deadline", "", "goal date as YYYY-MM-DD")
	return cmd
}
