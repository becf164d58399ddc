package series

import "math"

// Config holds every tunable of the regularization engine. It is passed by
// value and never mutated by a run.
type Config struct {
	CloudCoverThreshold   float64 `yaml:"cloud_cover_threshold" mapstructure:"cloud_cover_threshold" json:"cloud_cover_threshold"`
	MaxGapDays            int     `yaml:"max_gap_days" mapstructure:"max_gap_days" json:"max_gap_days"`
	Lambda                float64 `yaml:"lambda" mapstructure:"lambda" json:"lambda"`
	Order                 int     `yaml:"order" mapstructure:"order" json:"order"`
	SplineAnchors         int     `yaml:"spline_anchors" mapstructure:"spline_anchors" json:"spline_anchors"`
	RobustIterations      int     `yaml:"robust_iterations" mapstructure:"robust_iterations" json:"robust_iterations"`
	MinValid              float64 `yaml:"min_valid" mapstructure:"min_valid" json:"min_valid"`
	MaxValid              float64 `yaml:"max_valid" mapstructure:"max_valid" json:"max_valid"`
	ConsistencyMultiplier float64 `yaml:"consistency_multiplier" mapstructure:"consistency_multiplier" json:"consistency_multiplier"`
	ConsistencyWindow     int     `yaml:"consistency_window" mapstructure:"consistency_window" json:"consistency_window"`
	MinCoverageDays       int     `yaml:"min_coverage_days" mapstructure:"min_coverage_days" json:"min_coverage_days"`
	IssueGapDays          int     `yaml:"issue_gap_days" mapstructure:"issue_gap_days" json:"issue_gap_days"`
}

// DefaultConfig mirrors the defaults of the field scripts the engine replaces.
func DefaultConfig() Config {
	return Config{
		CloudCoverThreshold:   30,
		MaxGapDays:            32,
		Lambda:                100,
		Order:                 2,
		SplineAnchors:         2,
		RobustIterations:      0,
		MinValid:              -1,
		MaxValid:              1,
		ConsistencyMultiplier: 3,
		ConsistencyWindow:     15,
		MinCoverageDays:       30,
		IssueGapDays:          30,
	}
}

// Validate returns a *ConfigurationError for the first invalid setting.
func (c Config) Validate() error {
	switch {
	case math.IsNaN(c.CloudCoverThreshold) || c.CloudCoverThreshold < 0 || c.CloudCoverThreshold > 100:
		return &ConfigurationError{Field: "cloud_cover_threshold", Reason: "must be within [0, 100]"}
	case c.MaxGapDays <= 0:
		return &ConfigurationError{Field: "max_gap_days", Reason: "must be positive"}
	case math.IsNaN(c.Lambda) || math.IsInf(c.Lambda, 0) || c.Lambda <= 0:
		return &ConfigurationError{Field: "lambda", Reason: "must be a positive finite number"}
	case c.Order < 1 || c.Order > MaxOrder:
		return &ConfigurationError{Field: "order", Reason: "must be between 1 and 3"}
	case c.SplineAnchors < 1:
		return &ConfigurationError{Field: "spline_anchors", Reason: "must be at least 1"}
	case c.RobustIterations < 0:
		return &ConfigurationError{Field: "robust_iterations", Reason: "must not be negative"}
	case math.IsNaN(c.MinValid) || math.IsNaN(c.MaxValid) || c.MinValid >= c.MaxValid:
		return &ConfigurationError{Field: "min_valid", Reason: "must be lower than max_valid"}
	case math.IsInf(c.MinValid, 0) || math.IsInf(c.MaxValid, 0):
		return &ConfigurationError{Field: "max_valid", Reason: "range bounds must be finite"}
	case math.IsNaN(c.ConsistencyMultiplier) || c.ConsistencyMultiplier <= 0:
		return &ConfigurationError{Field: "consistency_multiplier", Reason: "must be positive"}
	case c.ConsistencyWindow < 3:
		return &ConfigurationError{Field: "consistency_window", Reason: "must span at least 3 days"}
	case c.MinCoverageDays < 0 || c.IssueGapDays < 0:
		return &ConfigurationError{Field: "issue thresholds", Reason: "must not be negative"}
	}
	return nil
}

// minObservations is the number of passing observations needed to pin down
// the smoother's null space.
func (c Config) minObservations() int {
	if c.Order > 2 {
		return c.Order
	}
	return 2
}
