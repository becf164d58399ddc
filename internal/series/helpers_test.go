package series

import "time"

var origin = time.Date(2023, time.April, 1, 0, 0, 0, 0, time.UTC)

func ptr(v float64) *float64 { return &v }

// dayN returns the n-th day of the test window, starting at 1.
func dayN(n int) time.Time { return origin.AddDate(0, 0, n-1) }

func obs(n int, mean, cloud float64) Observation {
	return Observation{Date: dayN(n), Mean: ptr(mean), CloudCoverPct: cloud}
}
