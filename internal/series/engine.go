package series

import (
	"math"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
)

// Engine runs the regularization pipeline with a fixed configuration.
// It holds no per-run state and is safe for concurrent use.
type Engine struct {
	cfg      Config
	smoother *Whittaker
	log      *zap.Logger
}

// NewEngine validates cfg and prepares the smoother. A nil logger disables
// logging.
func NewEngine(cfg Config, log *zap.Logger) (*Engine, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	smoother, err := NewWhittaker(cfg.Lambda, cfg.Order, cfg.RobustIterations)
	if err != nil {
		return nil, err
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &Engine{cfg: cfg, smoother: smoother, log: log}, nil
}

// Config returns the engine's configuration.
func (e *Engine) Config() Config {
	return e.cfg
}

// Run regularizes observations onto the daily grid [start, end].
//
// It returns *ConfigurationError for an inverted range and
// *InsufficientDataError when fewer than two observations pass the quality
// filter inside the window. Out-of-range values are corrected, not failed.
//
// A day whose only observation was rejected keeps the value its gap policy
// produced but is flagged REJECTED_CLOUD, replacing the short or long gap
// flag. Gap counts in the summary therefore exclude those days.
func (e *Engine) Run(observations []Observation, start, end time.Time) (*Result, error) {
	grid, err := NewGrid(start, end)
	if err != nil {
		return nil, err
	}
	log := e.log.With(zap.String("start", grid.Start.Format(DateLayout)), zap.String("end", grid.End.Format(DateLayout)))

	f := Filter(observations, grid, e.cfg.CloudCoverThreshold)
	log.Debug("quality filter",
		zap.Int("observations", f.Total),
		zap.Int("accepted", len(f.Accepted)),
		zap.Int("rejected", len(f.Rejected)),
		zap.Int("out_of_window", f.OutOfWindow),
		zap.Int("duplicates", f.Duplicates))

	if need := e.cfg.minObservations(); len(f.Accepted) < need {
		return nil, &InsufficientDataError{
			Start:    grid.Start,
			End:      grid.End,
			Passing:  len(f.Accepted),
			Total:    f.Total,
			Required: need,
		}
	}
	for _, r := range f.Rejected {
		log.Info("observation rejected",
			zap.String("date", r.Date.Format(DateLayout)),
			zap.Float64p("cloud_cover_pct", r.CloudCoverPct),
			zap.String("reason", string(r.Reason)))
	}

	daily := f.Daily(grid.Len())
	observed := make([]bool, grid.Len())
	y := make([]float64, grid.Len())
	weights := make([]float64, grid.Len())
	for i, o := range daily {
		if o == nil {
			y[i] = math.NaN()
			continue
		}
		observed[i] = true
		y[i] = *o.Mean
		weights[i] = 1
	}

	gaps := AnalyzeGaps(grid, observed, e.cfg.MaxGapDays)
	log.Debug("gap analysis", zap.Int("gaps", len(gaps)), zap.Int("days", grid.Len()))

	smoothed, err := e.smoother.Smooth(y, weights)
	if err != nil {
		return nil, eris.Wrap(err, "series: primary smoother")
	}

	est, err := Refine(daily, gaps, smoothed, e.cfg.SplineAnchors, e.cfg.MaxGapDays)
	if err != nil {
		return nil, eris.Wrap(err, "series: secondary refiner")
	}
	for i := range f.RejectedByDay {
		est[i].Flag = FlagCloud
	}

	checked := Validate(est, smoothed, e.cfg)
	if checked.Corrected > 0 {
		log.Info("out-of-range values corrected",
			zap.Int("corrected", checked.Corrected),
			zap.Float64("min_valid", e.cfg.MinValid),
			zap.Float64("max_valid", e.cfg.MaxValid))
	}

	res := Assemble(grid, f, gaps, est, smoothed, checked, e.cfg)
	log.Debug("series assembled",
		zap.Int("observed", res.Summary.Observed),
		zap.Int("interpolated", res.Summary.Interpolated),
		zap.Int("inconsistent", res.Summary.Inconsistent))
	return res, nil
}

// Regularize is a one-shot Run with a throwaway engine.
func Regularize(observations []Observation, start, end time.Time, cfg Config) (*Result, error) {
	e, err := NewEngine(cfg, nil)
	if err != nil {
		return nil, err
	}
	return e.Run(observations, start, end)
}
