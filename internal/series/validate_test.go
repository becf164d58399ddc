package series

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func estimates(values ...float64) []Estimate {
	est := make([]Estimate, len(values))
	for i, v := range values {
		est[i] = Estimate{Value: v, Flag: FlagObserved}
	}
	return est
}

func TestValidate_ClampsSmootherEstimate(t *testing.T) {
	cfg := DefaultConfig()
	c := Validate(estimates(0.2, 1.5, 0.3), []float64{0.2, 1.2, 0.3}, cfg)

	assert.Equal(t, FlagOutOfRange, c.Flags[1])
	assert.InDelta(t, 1.0, c.Values[1], 1e-12)
	assert.Equal(t, 1, c.Corrected)
	assert.Equal(t, FlagObserved, c.Flags[0])
}

func TestValidate_SmootherInRangeKeptAsIs(t *testing.T) {
	c := Validate(estimates(0.2, -3, 0.3), []float64{0.2, 0.25, 0.3}, DefaultConfig())
	assert.InDelta(t, 0.25, c.Values[1], 1e-12)
}

func TestValidate_NearestNeighbourFallback(t *testing.T) {
	c := Validate(estimates(0.2, 5, 0.4), []float64{0.2, math.NaN(), 0.4}, DefaultConfig())
	assert.InDelta(t, 0.2, c.Values[1], 1e-12, "earlier neighbour wins a tie")

	c = Validate(estimates(7, 5, 0.4), []float64{1, math.NaN(), 0.4}, DefaultConfig())
	assert.InDelta(t, 0.4, c.Values[1], 1e-12)
	assert.InDelta(t, 1.0, c.Values[0], 1e-12)
}

func TestValidate_MidpointWhenNothingValid(t *testing.T) {
	cfg := DefaultConfig()
	cfg.MinValid, cfg.MaxValid = 0, 2
	c := Validate(estimates(math.NaN(), 9), []float64{math.NaN(), math.Inf(1)}, cfg)
	assert.Equal(t, []float64{1, 1}, c.Values)
	assert.Equal(t, 2, c.Corrected)
}

func TestValidate_FlagsSpikeWithoutChangingIt(t *testing.T) {
	values := make([]float64, 15)
	for i := range values {
		values[i] = 0.3
	}
	values[7] = 0.9

	c := Validate(estimates(values...), values, DefaultConfig())
	assert.True(t, c.Inconsistent[7])
	assert.False(t, c.Inconsistent[3])
	assert.InDelta(t, 0.9, c.Values[7], 1e-12)
	assert.Equal(t, FlagObserved, c.Flags[7])
	assert.Zero(t, c.Corrected)
}

func TestValidate_FlatSeriesIsConsistent(t *testing.T) {
	values := []float64{0.1, 0.1, 0.1, 0.1, 0.1}
	c := Validate(estimates(values...), values, DefaultConfig())
	for i := range values {
		assert.False(t, c.Inconsistent[i])
	}
}
