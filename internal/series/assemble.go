package series

import (
	"fmt"
	"math"

	"github.com/montanaflynn/stats"
)

// Assemble zips the grid with the validated values and computes the run
// summary. It derives no new values.
func Assemble(grid Grid, f Filtered, gaps []Gap, est []Estimate, smoothed []float64, checked Checked, cfg Config) *Result {
	points := make([]Point, grid.Len())
	var cloud stats.Float64Data
	var accepted []int

	for i, date := range grid.Days {
		p := Point{
			Date:         date,
			Value:        checked.Values[i],
			Smoothed:     smoothed[i],
			Flag:         checked.Flags[i],
			Inconsistent: checked.Inconsistent[i],
			Min:          est[i].Min,
			Max:          est[i].Max,
			StdDev:       est[i].StdDev,
		}
		if o, ok := f.Accepted[i]; ok {
			p.CloudCoverPct = Float(o.CloudCoverPct)
			cloud = append(cloud, o.CloudCoverPct)
			accepted = append(accepted, i)
		} else {
			p.IsInterpolated = true
			if r, ok := f.RejectedByDay[i]; ok {
				p.CloudCoverPct = r.CloudCoverPct
			}
		}
		points[i] = p
	}

	s := Summary{
		TotalDays:           grid.Len(),
		TotalObservations:   f.Total,
		OutOfRangeCorrected: checked.Corrected,
		OutOfWindow:         f.OutOfWindow,
		Duplicates:          f.Duplicates,
		Gaps:                len(gaps),
		GapHistogram:        GapHistogram(gaps),
	}
	for _, r := range f.Rejected {
		switch r.Reason {
		case ReasonCloud:
			s.RejectedCloud++
		case ReasonNoData:
			s.RejectedNoData++
		}
	}
	for _, p := range points {
		switch p.Flag {
		case FlagObserved:
			s.Observed++
		case FlagShortGap:
			s.ShortGapFilled++
		case FlagLongGap:
			s.LongGapFilled++
		}
		if p.IsInterpolated {
			s.Interpolated++
		}
		if p.Inconsistent {
			s.Inconsistent++
		}
	}
	if m, err := stats.Mean(cloud); err == nil {
		s.MeanCloudCover = Float(m)
	}
	if m, err := stats.Mean(stats.Float64Data(checked.Values)); err == nil && !math.IsNaN(m) {
		s.MeanValue = m
	}
	s.Issues = qualityIssues(accepted, checked.Corrected, cfg)

	return &Result{
		Start:    grid.Start,
		End:      grid.End,
		Points:   points,
		Summary:  s,
		Rejected: f.Rejected,
	}
}

// qualityIssues reports coverage problems of the accepted observations.
// They are informational and never fail a run.
func qualityIssues(accepted []int, corrected int, cfg Config) []string {
	issues := []string{}
	if len(accepted) > 0 {
		if span := accepted[len(accepted)-1] - accepted[0]; span < cfg.MinCoverageDays {
			issues = append(issues, fmt.Sprintf("short temporal coverage: %d days", span))
		}
	}
	for i := 1; i < len(accepted); i++ {
		if accepted[i]-accepted[i-1] > cfg.IssueGapDays {
			issues = append(issues, fmt.Sprintf("large temporal gaps detected (>%d days)", cfg.IssueGapDays))
			break
		}
	}
	if corrected > 0 {
		issues = append(issues, fmt.Sprintf("unrealistic values corrected: %d", corrected))
	}
	return issues
}
