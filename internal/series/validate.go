package series

import (
	"math"

	"github.com/montanaflynn/stats"
)

// Checked is the validator's output, aligned with the grid.
type Checked struct {
	Values       []float64
	Flags        []QualityFlag
	Inconsistent []bool
	Corrected    int
}

// Validate enforces [MinValid, MaxValid] and flags temporal jumps.
//
// A value outside the range (or not finite) becomes REJECTED_OUT_OF_RANGE and
// is replaced by the smoother estimate clamped to the range. If that estimate
// is not finite, the nearest valid neighbour is used, the earlier one on a
// tie, and the range midpoint when no day is valid.
//
// A day is inconsistent when its change from the previous day exceeds
// ConsistencyMultiplier times the sample standard deviation of the final
// values in a centred window of ConsistencyWindow days. Flagging never
// changes the value.
func Validate(est []Estimate, smoothed []float64, cfg Config) Checked {
	n := len(est)
	c := Checked{
		Values:       make([]float64, n),
		Flags:        make([]QualityFlag, n),
		Inconsistent: make([]bool, n),
	}

	valid := make([]bool, n)
	for i, e := range est {
		c.Values[i] = e.Value
		c.Flags[i] = e.Flag
		valid[i] = inRange(e.Value, cfg)
	}

	for i := range est {
		if valid[i] {
			continue
		}
		c.Flags[i] = FlagOutOfRange
		c.Corrected++

		if s := smoothed[i]; !math.IsNaN(s) && !math.IsInf(s, 0) {
			c.Values[i] = clamp(s, cfg.MinValid, cfg.MaxValid)
			continue
		}
		c.Values[i] = nearestValid(est, valid, i, (cfg.MinValid+cfg.MaxValid)/2)
	}

	half := cfg.ConsistencyWindow / 2
	for i := 1; i < n; i++ {
		lo, hi := max(0, i-half), min(n-1, i+half)
		sd, err := stats.StandardDeviationSample(stats.Float64Data(c.Values[lo : hi+1]))
		if err != nil || sd == 0 || math.IsNaN(sd) {
			continue
		}
		if math.Abs(c.Values[i]-c.Values[i-1]) > cfg.ConsistencyMultiplier*sd {
			c.Inconsistent[i] = true
		}
	}
	return c
}

func inRange(v float64, cfg Config) bool {
	return !math.IsNaN(v) && v >= cfg.MinValid && v <= cfg.MaxValid
}

func clamp(v, lo, hi float64) float64 {
	return math.Max(lo, math.Min(hi, v))
}

func nearestValid(est []Estimate, valid []bool, i int, fallback float64) float64 {
	for d := 1; d < len(est); d++ {
		if j := i - d; j >= 0 && valid[j] {
			return est[j].Value
		}
		if j := i + d; j < len(est) && valid[j] {
			return est[j].Value
		}
	}
	return fallback
}
