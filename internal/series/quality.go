package series

import (
	"cmp"
	"math"
	"slices"
	"time"
)

// Verdict is the quality filter's classification of an observation.
type Verdict string

const (
	VerdictPass          Verdict = "PASS"
	VerdictRejectedCloud Verdict = "REJECTED_CLOUD"
)

// RejectReason explains a VerdictRejectedCloud.
type RejectReason string

const (
	ReasonNone   RejectReason = ""
	ReasonCloud  RejectReason = "cloud"
	ReasonNoData RejectReason = "no_data"
)

// Rejection is a discarded observation kept for reporting.
type Rejection struct {
	Date          time.Time    `json:"date"`
	CloudCoverPct *float64     `json:"cloud_cover_pct,omitempty"`
	Reason        RejectReason `json:"reason"`
}

// Classify applies the cloud threshold. Cover exactly at the threshold
// passes; unknown (NaN) cover does not. An observation without a finite
// mean cannot anchor the series and is rejected as no_data.
func Classify(o Observation, threshold float64) (Verdict, RejectReason) {
	if math.IsNaN(o.CloudCoverPct) || o.CloudCoverPct > threshold {
		return VerdictRejectedCloud, ReasonCloud
	}
	if !o.hasData() {
		return VerdictRejectedCloud, ReasonNoData
	}
	if _, ok := finite(o.Mean); !ok {
		return VerdictRejectedCloud, ReasonNoData
	}
	return VerdictPass, ReasonNone
}

// Filtered is the quality filter's view of the observations inside a grid.
type Filtered struct {
	// Accepted maps grid day index to the passing observation of that day.
	Accepted map[int]Observation
	// RejectedByDay holds the rejection for days that have no passing observation.
	RejectedByDay map[int]Rejection
	// Rejected lists every rejected observation inside the window by date.
	Rejected    []Rejection
	Total       int
	OutOfWindow int
	Duplicates  int
}

type classified struct {
	obs    Observation
	day    int
	pass   bool
	reason RejectReason
}

// Filter classifies observations against the threshold and places them on
// the grid. When several observations share a day the passing one with the
// lowest cloud cover wins, then the lower mean and lower minimum, so the
// choice does not depend on input order.
func Filter(observations []Observation, grid Grid, threshold float64) Filtered {
	f := Filtered{
		Accepted:      make(map[int]Observation),
		RejectedByDay: make(map[int]Rejection),
		Total:         len(observations),
	}

	items := make([]classified, 0, len(observations))
	for _, o := range observations {
		o.Date = Day(o.Date)
		day, ok := grid.Index(o.Date)
		if !ok {
			f.OutOfWindow++
			continue
		}
		verdict, reason := Classify(o, threshold)
		items = append(items, classified{obs: o, day: day, pass: verdict == VerdictPass, reason: reason})
	}

	slices.SortStableFunc(items, compareClassified)

	seen := make(map[int]bool, len(items))
	for _, it := range items {
		if !it.pass {
			f.Rejected = append(f.Rejected, Rejection{Date: it.obs.Date, CloudCoverPct: Float(it.obs.CloudCoverPct), Reason: it.reason})
		}
		if seen[it.day] {
			f.Duplicates++
			continue
		}
		seen[it.day] = true
		if it.pass {
			f.Accepted[it.day] = it.obs
			continue
		}
		f.RejectedByDay[it.day] = Rejection{Date: it.obs.Date, CloudCoverPct: Float(it.obs.CloudCoverPct), Reason: it.reason}
	}
	return f
}

// Daily returns the accepted observation per grid day, nil where missing.
func (f Filtered) Daily(n int) []*Observation {
	daily := make([]*Observation, n)
	for day, o := range f.Accepted {
		daily[day] = &o
	}
	return daily
}

func compareClassified(a, b classified) int {
	if c := cmp.Compare(a.day, b.day); c != 0 {
		return c
	}
	if a.pass != b.pass {
		if a.pass {
			return -1
		}
		return 1
	}
	if c := cmp.Compare(a.obs.CloudCoverPct, b.obs.CloudCoverPct); c != 0 {
		return c
	}
	for _, pair := range [][2]*float64{{a.obs.Mean, b.obs.Mean}, {a.obs.Min, b.obs.Min}, {a.obs.Max, b.obs.Max}, {a.obs.StdDev, b.obs.StdDev}} {
		if c := compareOptional(pair[0], pair[1]); c != 0 {
			return c
		}
	}
	return 0
}

// compareOptional orders absent values after present ones.
func compareOptional(a, b *float64) int {
	av, aok := finite(a)
	bv, bok := finite(b)
	switch {
	case aok && bok:
		return cmp.Compare(av, bv)
	case aok:
		return -1
	case bok:
		return 1
	}
	return 0
}
