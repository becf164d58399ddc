package series

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func linearDaily(n int, observed ...int) []*Observation {
	daily := make([]*Observation, n)
	for _, i := range observed {
		v := 0.1 + 0.01*float64(i)
		daily[i] = &Observation{Date: dayN(i + 1), Mean: ptr(v), Min: ptr(v - 0.05), CloudCoverPct: 3}
	}
	return daily
}

func observedMask(daily []*Observation) []bool {
	mask := make([]bool, len(daily))
	for i, o := range daily {
		mask[i] = o != nil
	}
	return mask
}

func TestRefine_ShortGapFollowsSpline(t *testing.T) {
	daily := linearDaily(8, 0, 1, 2, 5, 6, 7)
	grid, err := NewGrid(dayN(1), dayN(8))
	require.NoError(t, err)
	gaps := AnalyzeGaps(grid, observedMask(daily), 5)
	smoothed := make([]float64, 8)

	est, err := Refine(daily, gaps, smoothed, 2, 5)
	require.NoError(t, err)

	for _, i := range []int{3, 4} {
		assert.Equal(t, FlagShortGap, est[i].Flag)
		assert.InDelta(t, 0.1+0.01*float64(i), est[i].Value, 1e-9)
		require.NotNil(t, est[i].Min)
		assert.InDelta(t, 0.05+0.01*float64(i), *est[i].Min, 1e-9)
		assert.Nil(t, est[i].StdDev, "anchors carry no stddev")
	}
	assert.Equal(t, FlagObserved, est[2].Flag)
	assert.InDelta(t, 0.12, est[2].Value, 1e-12)
}

func TestRefine_TwoAnchorsAreLinear(t *testing.T) {
	daily := linearDaily(5, 0, 4)
	daily[4].Mean = ptr(0.5)
	grid, err := NewGrid(dayN(1), dayN(5))
	require.NoError(t, err)
	gaps := AnalyzeGaps(grid, observedMask(daily), 5)

	est, err := Refine(daily, gaps, make([]float64, 5), 2, 5)
	require.NoError(t, err)
	assert.InDelta(t, 0.2, est[1].Value, 1e-12)
	assert.InDelta(t, 0.3, est[2].Value, 1e-12)
	assert.InDelta(t, 0.4, est[3].Value, 1e-12)
}

func TestRefine_LongGapUsesSmoother(t *testing.T) {
	daily := linearDaily(10, 0, 1, 9)
	grid, err := NewGrid(dayN(1), dayN(10))
	require.NoError(t, err)
	gaps := AnalyzeGaps(grid, observedMask(daily), 3)
	smoothed := []float64{0, 0, 0.7, 0.71, 0.72, 0.73, 0.74, 0.75, 0.76, 0}

	est, err := Refine(daily, gaps, smoothed, 2, 3)
	require.NoError(t, err)
	for i := 2; i <= 8; i++ {
		assert.Equal(t, FlagLongGap, est[i].Flag)
		assert.InDelta(t, smoothed[i], est[i].Value, 1e-12)
		assert.Nil(t, est[i].Min)
	}
}

func TestAnchorIndices_StopAtLongGaps(t *testing.T) {
	observed := []int{0, 10, 12, 15, 30}
	g := Gap{Start: 13, End: 14, Length: 2, Kind: GapShort}

	assert.Equal(t, []int{10, 12, 15}, anchorIndices(observed, g, 2, 3))
	assert.Equal(t, []int{12, 15}, anchorIndices(observed, g, 1, 3))
	assert.Equal(t, []int{0, 10, 12, 15, 30}, anchorIndices(observed, g, 3, 20))
}
