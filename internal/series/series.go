// Package series turns sparse, irregular per-overpass index statistics into a
// continuous daily series with provenance flags.
//
// The pipeline is quality filter, daily grid and gap analysis, weighted
// Whittaker smoother, local cubic refinement of short gaps, range and
// consistency validation, and assembly. An Engine holds only immutable
// configuration, so one Engine may serve concurrent runs.
package series

import (
	"math"
	"time"
)

const DateLayout = "2006-01-02"

// Observation is the reduced result of one satellite pass over a field.
// Nil statistics mean the reduction produced no valid pixels.
type Observation struct {
	Date          time.Time `json:"date"`
	Mean          *float64  `json:"mean,omitempty"`
	Min           *float64  `json:"min,omitempty"`
	Max           *float64  `json:"max,omitempty"`
	StdDev        *float64  `json:"stddev,omitempty"`
	CloudCoverPct float64   `json:"cloud_cover_pct"`
}

// QualityFlag records where a point's value came from.
type QualityFlag string

const (
	FlagObserved   QualityFlag = "OBSERVED"
	FlagShortGap   QualityFlag = "INTERPOLATED_SHORT_GAP"
	FlagLongGap    QualityFlag = "INTERPOLATED_LONG_GAP"
	FlagOutOfRange QualityFlag = "REJECTED_OUT_OF_RANGE"
	FlagCloud      QualityFlag = "REJECTED_CLOUD"
)

// Flags lists every quality flag in reporting order.
func Flags() []QualityFlag {
	return []QualityFlag{FlagObserved, FlagShortGap, FlagLongGap, FlagOutOfRange, FlagCloud}
}

// Point is one day of the regularized series.
type Point struct {
	Date           time.Time   `json:"date"`
	Value          float64     `json:"value"`
	Smoothed       float64     `json:"smoothed"`
	IsInterpolated bool        `json:"is_interpolated"`
	CloudCoverPct  *float64    `json:"cloud_cover_pct,omitempty"`
	Flag           QualityFlag `json:"quality_flag"`
	Inconsistent   bool        `json:"inconsistent"`
	Min            *float64    `json:"min,omitempty"`
	Max            *float64    `json:"max,omitempty"`
	StdDev         *float64    `json:"stddev,omitempty"`
}

// Summary aggregates a run for metadata writers.
type Summary struct {
	TotalDays           int         `json:"total_days"`
	TotalObservations   int         `json:"total_observations"`
	Observed            int         `json:"observed"`
	Interpolated        int         `json:"interpolated"`
	ShortGapFilled      int         `json:"short_gap_filled"`
	LongGapFilled       int         `json:"long_gap_filled"`
	RejectedCloud       int         `json:"rejected_cloud"`
	RejectedNoData      int         `json:"rejected_no_data"`
	OutOfRangeCorrected int         `json:"out_of_range_corrected"`
	Inconsistent        int         `json:"inconsistent"`
	OutOfWindow         int         `json:"out_of_window"`
	Duplicates          int         `json:"duplicates"`
	Gaps                int         `json:"gaps"`
	GapHistogram        map[int]int `json:"gap_histogram"`
	MeanCloudCover      *float64    `json:"mean_cloud_cover,omitempty"`
	MeanValue           float64     `json:"mean_value"`
	Issues              []string    `json:"quality_issues"`
}

// Result is the output of one engine run.
type Result struct {
	Start    time.Time   `json:"start_date"`
	End      time.Time   `json:"end_date"`
	Points   []Point     `json:"points"`
	Summary  Summary     `json:"summary"`
	Rejected []Rejection `json:"rejected"`
}

// Day truncates t to its calendar day in UTC.
func Day(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// Float returns a pointer to v, or nil when v is not finite.
func Float(v float64) *float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return nil
	}
	return &v
}

func finite(p *float64) (float64, bool) {
	if p == nil || math.IsNaN(*p) || math.IsInf(*p, 0) {
		return 0, false
	}
	return *p, true
}

func (o Observation) hasData() bool {
	for _, p := range []*float64{o.Mean, o.Min, o.Max, o.StdDev} {
		if _, ok := finite(p); ok {
			return true
		}
	}
	return false
}
