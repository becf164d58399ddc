package series

import "time"

const secondsPerDay = 24 * 60 * 60

// Grid is the uniform daily axis of a run, both ends inclusive.
type Grid struct {
	Start time.Time
	End   time.Time
	Days  []time.Time
}

// NewGrid builds the daily grid from start to end. Both dates are truncated
// to UTC days first.
func NewGrid(start, end time.Time) (Grid, error) {
	start, end = Day(start), Day(end)
	if start.After(end) {
		return Grid{}, &ConfigurationError{
			Field:  "date range",
			Reason: "start date " + start.Format(DateLayout) + " is after end date " + end.Format(DateLayout),
		}
	}

	n := int(dayNumber(end)-dayNumber(start)) + 1
	days := make([]time.Time, n)
	for i := range days {
		days[i] = start.AddDate(0, 0, i)
	}
	return Grid{Start: start, End: end, Days: days}, nil
}

// Len is the number of days on the grid.
func (g Grid) Len() int {
	return len(g.Days)
}

// Index returns the grid position of t's day.
func (g Grid) Index(t time.Time) (int, bool) {
	d := Day(t)
	if d.Before(g.Start) || d.After(g.End) {
		return 0, false
	}
	return int(dayNumber(d) - dayNumber(g.Start)), true
}

// dayNumber counts whole UTC days since the Unix epoch. It avoids
// time.Duration, which saturates after about 292 years.
func dayNumber(t time.Time) int64 {
	return Day(t).Unix() / secondsPerDay
}
