package series

import (
	"sort"

	"github.com/rotisserie/eris"
	"gonum.org/v1/gonum/interp"
)

// Estimate is the refined value of one grid day before validation.
type Estimate struct {
	Value  float64
	Flag   QualityFlag
	Min    *float64
	Max    *float64
	StdDev *float64
}

// Refine chooses each day's value: observed days keep their observation,
// short gaps take a natural cubic spline through up to anchors passing
// observations on each side, and long gaps take the smoother value.
// Extra anchors are only collected while consecutive anchors are at most
// maxGapDays+1 days apart, so a spline never reaches across a long gap.
// Run later relabels days holding a rejected observation as REJECTED_CLOUD.
func Refine(daily []*Observation, gaps []Gap, smoothed []float64, anchors, maxGapDays int) ([]Estimate, error) {
	if len(daily) != len(smoothed) {
		return nil, eris.Errorf("series: refine got %d days and %d smoothed values", len(daily), len(smoothed))
	}

	est := make([]Estimate, len(daily))
	var observed []int
	for i, o := range daily {
		if o == nil {
			continue
		}
		observed = append(observed, i)
		est[i] = Estimate{Value: *o.Mean, Flag: FlagObserved, Min: o.Min, Max: o.Max, StdDev: o.StdDev}
	}

	for _, g := range gaps {
		if g.Kind != GapShort {
			for i := g.Start; i <= g.End; i++ {
				est[i] = Estimate{Value: smoothed[i], Flag: FlagLongGap}
			}
			continue
		}

		idx := anchorIndices(observed, g, anchors, maxGapDays)
		xs := make([]float64, len(idx))
		for j, a := range idx {
			xs[j] = float64(a)
		}
		at := make([]float64, 0, g.Length)
		for i := g.Start; i <= g.End; i++ {
			at = append(at, float64(i))
		}

		values, err := interpolate(xs, pick(daily, idx, func(o *Observation) *float64 { return o.Mean }), at)
		if err != nil {
			return nil, eris.Wrapf(err, "series: refine gap %d..%d", g.Start, g.End)
		}
		mins := interpolateOptional(xs, pick(daily, idx, func(o *Observation) *float64 { return o.Min }), at)
		maxs := interpolateOptional(xs, pick(daily, idx, func(o *Observation) *float64 { return o.Max }), at)
		sds := interpolateOptional(xs, pick(daily, idx, func(o *Observation) *float64 { return o.StdDev }), at)

		for j, i := 0, g.Start; i <= g.End; i, j = i+1, j+1 {
			est[i] = Estimate{Value: values[j], Flag: FlagShortGap, Min: mins[j], Max: maxs[j], StdDev: sds[j]}
		}
	}
	return est, nil
}

// anchorIndices returns the observed grid indices used to fit a short gap,
// in ascending order.
func anchorIndices(observed []int, g Gap, anchors, maxGapDays int) []int {
	left := sort.SearchInts(observed, g.Start) - 1
	right := left + 1

	var before []int
	for j := left; j >= 0 && len(before) < anchors; j-- {
		if len(before) > 0 && before[len(before)-1]-observed[j] > maxGapDays+1 {
			break
		}
		before = append(before, observed[j])
	}
	var after []int
	for j := right; j < len(observed) && len(after) < anchors; j++ {
		if len(after) > 0 && observed[j]-after[len(after)-1] > maxGapDays+1 {
			break
		}
		after = append(after, observed[j])
	}

	idx := make([]int, 0, len(before)+len(after))
	for j := len(before) - 1; j >= 0; j-- {
		idx = append(idx, before[j])
	}
	return append(idx, after...)
}

func pick(daily []*Observation, idx []int, field func(*Observation) *float64) []*float64 {
	out := make([]*float64, len(idx))
	for j, i := range idx {
		out[j] = field(daily[i])
	}
	return out
}

// interpolate evaluates a natural cubic spline through (xs, ys) at each
// position. Two knots give the straight line the spline degenerates to.
func interpolate(xs []float64, ys []*float64, at []float64) ([]float64, error) {
	vals := make([]float64, len(ys))
	for j, p := range ys {
		v, ok := finite(p)
		if !ok {
			return nil, eris.New("series: spline anchor without a value")
		}
		vals[j] = v
	}
	if len(xs) < 2 {
		return nil, eris.Errorf("series: spline needs two anchors, got %d", len(xs))
	}

	out := make([]float64, len(at))
	if len(xs) == 2 {
		slope := (vals[1] - vals[0]) / (xs[1] - xs[0])
		for i, x := range at {
			out[i] = vals[0] + slope*(x-xs[0])
		}
		return out, nil
	}

	var spline interp.NaturalCubic
	if err := spline.Fit(xs, vals); err != nil {
		return nil, eris.Wrap(err, "series: fit spline")
	}
	for i, x := range at {
		out[i] = spline.Predict(x)
	}
	return out, nil
}

// interpolateOptional is interpolate for auxiliary statistics: when any
// anchor lacks the statistic every result is nil.
func interpolateOptional(xs []float64, ys []*float64, at []float64) []*float64 {
	out := make([]*float64, len(at))
	vals, err := interpolate(xs, ys, at)
	if err != nil {
		return out
	}
	for i, v := range vals {
		out[i] = Float(v)
	}
	return out
}
