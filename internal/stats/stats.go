// Package stats derives the summary numbers shown on the weight and
// check-in screens.
package stats

import (
	"fmt"
	"math"
	"sort"
	"time"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"

	"github.com/five82/almanac/internal/api"
)

// WeekMean is the average weight of one ISO week.
type WeekMean struct {
	Week  string // YYYYWW
	Mean  float64
	Count int
}

// WeightSummary aggregates a set of weigh-ins.
type WeightSummary struct {
	Count  int
	Mean   float64
	Min    float64
	Max    float64
	StdDev float64 // sample standard deviation; zero below two records
	Change float64 // last minus first, by date
	First  api.WeightRecord
	Last   api.WeightRecord
	Weeks  []WeekMean // oldest first
}

// Weight summarises records in any order. Records without a parseable date
// still count toward the moments but not toward Change or Weeks.
func Weight(records []api.WeightRecord) WeightSummary {
	if len(records) == 0 {
		return WeightSummary{}
	}
	values := make([]float64, len(records))
	for i, r := range records {
		values[i] = r.Weight
	}

	sum := WeightSummary{
		Count: len(values),
		Mean:  stat.Mean(values, nil),
		Min:   floats.Min(values),
		Max:   floats.Max(values),
	}
	if len(values) > 1 {
		sum.StdDev = stat.StdDev(values, nil)
	}

	dated := make([]api.WeightRecord, 0, len(records))
	for _, r := range records {
		if !r.Date().IsZero() {
			dated = append(dated, r)
		}
	}
	if len(dated) == 0 {
		return sum
	}
	sort.SliceStable(dated, func(i, j int) bool { return dated[i].Date().Before(dated[j].Date()) })
	sum.First = dated[0]
	sum.Last = dated[len(dated)-1]
	sum.Change = round2(sum.Last.Weight - sum.First.Weight)

	byWeek := map[string][]float64{}
	var order []string
	for _, r := range dated {
		wk := r.WeekNum
		if wk == "" {
			wk = WeekNum(r.Date())
		}
		if _, seen := byWeek[wk]; !seen {
			order = append(order, wk)
		}
		byWeek[wk] = append(byWeek[wk], r.Weight)
	}
	sort.Strings(order)
	for _, wk := range order {
		vals := byWeek[wk]
		sum.Weeks = append(sum.Weeks, WeekMean{Week: wk, Mean: round2(stat.Mean(vals, nil)), Count: len(vals)})
	}
	return sum
}

// WeekNum renders t's ISO week as YYYYWW, the backend's week_num format.
func WeekNum(t time.Time) string {
	year, week := t.ISOWeek()
	return fmt.Sprintf("%d%02d", year, week)
}

// Goal describes progress toward a weight target.
type Goal struct {
	Target    float64
	Latest    float64
	Remaining float64 // kilograms still to go; zero once reached
	Percent   float64 // 0-100, only when a start weight is known
	Reached   bool
}

// Progress compares the latest weight to target. Losing and gaining goals
// are both supported; the direction comes from the start weight, or from
// the latest weight when no start is set.
func Progress(target api.WeightTarget, latest float64) Goal {
	g := Goal{Target: target.TargetWeight, Latest: latest}
	if target.TargetWeight <= 0 || latest <= 0 {
		return g
	}
	start := target.StartWeight
	if start <= 0 {
		start = latest
	}
	losing := start >= target.TargetWeight

	if losing {
		g.Remaining = latest - target.TargetWeight
	} else {
		g.Remaining = target.TargetWeight - latest
	}
	if g.Remaining <= 0 {
		g.Remaining = 0
		g.Reached = true
	}
	g.Remaining = round2(g.Remaining)

	if span := math.Abs(start - target.TargetWeight); span > 0 {
		done := math.Abs(start - latest)
		if (losing && latest > start) || (!losing && latest < start) {
			done = 0
		}
		g.Percent = round2(math.Min(100, done/span*100))
	}
	if g.Reached {
		g.Percent = 100
	}
	return g
}

// CheckinSummary is one day's completion.
type CheckinSummary struct {
	Done  int
	Total int
	Rate  float64 // 0-1
}

// Checkins counts checked items among enabled ones.
func Checkins(daily []api.DailyCheckin) CheckinSummary {
	var s CheckinSummary
	for _, d := range daily {
		if !d.Item.Enabled() {
			continue
		}
		s.Total++
		if d.Checked() {
			s.Done++
		}
	}
	if s.Total > 0 {
		s.Rate = float64(s.Done) / float64(s.Total)
	}
	return s
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
