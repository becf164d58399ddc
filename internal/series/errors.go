package series

import (
	"fmt"
	"time"
)

// ConfigurationError reports an invalid engine setting or date range.
type ConfigurationError struct {
	Field  string
	Reason string
}

func (e *ConfigurationError) Error() string {
	return fmt.Sprintf("series: invalid configuration %s: %s", e.Field, e.Reason)
}

// InsufficientDataError is returned when the window holds too few
// quality-passing observations to fit the smoother.
type InsufficientDataError struct {
	Start    time.Time
	End      time.Time
	Passing  int
	Total    int
	Required int
}

func (e *InsufficientDataError) Error() string {
	return fmt.Sprintf("series: insufficient data between %s and %s: %d quality-passing observations of %d supplied, need at least %d",
		e.Start.Format(DateLayout), e.End.Format(DateLayout), e.Passing, e.Total, e.Required)
}
