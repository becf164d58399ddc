package delivery

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/gammazero/workerpool"
	"github.com/rotisserie/eris"
	"github.com/schollz/progressbar/v3"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/forest-guardian/index-series/internal/cache"
	"github.com/forest-guardian/index-series/internal/dataset"
	"github.com/forest-guardian/index-series/internal/field"
	"github.com/forest-guardian/index-series/internal/index"
	"github.com/forest-guardian/index-series/internal/series"
	"github.com/forest-guardian/index-series/output"
)

// Options configures a run over one field.
type Options struct {
	InputPath string
	Indices   []string
	Start     time.Time
	End       time.Time
	Engine    series.Config
	Field     *field.Field
	OutputDir string
	Plot      bool
	Workers   int
	// Cache is optional; nil always runs the engine.
	Cache *cache.FileCache[*series.Result]
	// Now stamps the output files. Zero means time.Now.
	Now          time.Time
	ShowProgress bool
}

// Outcome is the result of one index.
type Outcome struct {
	Index   string
	Paths   dataset.OutputPaths
	Summary series.Summary
	Cached  bool
	Err     error
}

// RunIndices regularizes every requested index on a worker pool. Each
// index runs independently; the returned error joins the failures.
func RunIndices(ctx context.Context, opts Options) ([]Outcome, error) {
	if len(opts.Indices) == 0 {
		return nil, eris.New("delivery: no index requested")
	}
	if opts.Now.IsZero() {
		opts.Now = time.Now()
	}
	workers := max(1, opts.Workers)

	var bar *progressbar.ProgressBar
	if opts.ShowProgress {
		bar = progressbar.Default(int64(len(opts.Indices)), "Regularizing indices")
	} else {
		bar = progressbar.DefaultSilent(int64(len(opts.Indices)))
	}

	var (
		mu       sync.Mutex
		outcomes = make([]Outcome, len(opts.Indices))
	)
	wp := workerpool.New(workers)
	for i, name := range opts.Indices {
		wp.Submit(func() {
			out, err := RunIndex(ctx, opts, name)
			out.Err = err

			mu.Lock()
			outcomes[i] = out
			bar.Add(1)
			mu.Unlock()
		})
	}
	wp.StopWait()

	var errs []error
	for _, out := range outcomes {
		if out.Err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", out.Index, out.Err))
		}
	}
	return outcomes, errors.Join(errs...)
}

// RunIndex reads the observations of one index, regularizes them and
// writes CSV, metadata and (optionally) the plot.
func RunIndex(ctx context.Context, opts Options, name string) (Outcome, error) {
	out := Outcome{Index: name}
	if err := ctx.Err(); err != nil {
		return out, err
	}

	profile, err := index.Lookup(name)
	if err != nil {
		return out, err
	}
	out.Index = profile.Name
	log := zap.L().With(zap.String("index", profile.Name))

	cfg := profile.EngineConfig(opts.Engine)
	observations, err := dataset.ReadObservationsFile(opts.InputPath, profile.Name)
	if err != nil {
		return out, err
	}
	log.Info("observations loaded", zap.Int("count", len(observations)), zap.String("input", opts.InputPath))

	res, cached, err := regularize(opts, profile.Name, cfg, observations, log)
	if err != nil {
		return out, err
	}
	out.Cached = cached
	out.Summary = res.Summary

	at := opts.Now
	if at.IsZero() {
		at = time.Now()
	}
	out.Paths = dataset.Paths(opts.OutputDir, profile.Name, at)
	meta := dataset.NewMetadata(profile.Name, res, cfg, opts.Field, at)
	if err := writeOutputs(ctx, out.Paths, res, meta, opts.Plot); err != nil {
		return out, err
	}
	if !opts.Plot {
		out.Paths.Plot = ""
	}

	log.Info("series written",
		zap.String("csv", out.Paths.CSV),
		zap.Int("days", res.Summary.TotalDays),
		zap.Int("observed", res.Summary.Observed),
		zap.Bool("cached", cached))
	return out, nil
}

// keyedObservation is the cache-key form of an observation. Non-finite
// statistics and unknown cloud cover encode as null.
type keyedObservation struct {
	Date          string   `json:"date"`
	Mean          *float64 `json:"mean"`
	Min           *float64 `json:"min"`
	Max           *float64 `json:"max"`
	StdDev        *float64 `json:"stddev"`
	CloudCoverPct *float64 `json:"cloud_cover_pct"`
}

func cacheKey(c *cache.FileCache[*series.Result], name string, start, end time.Time, cfg series.Config, observations []series.Observation) (string, error) {
	keyed := make([]keyedObservation, len(observations))
	for i, o := range observations {
		keyed[i] = keyedObservation{
			Date:          o.Date.UTC().Format(time.RFC3339),
			Mean:          finiteOrNil(o.Mean),
			Min:           finiteOrNil(o.Min),
			Max:           finiteOrNil(o.Max),
			StdDev:        finiteOrNil(o.StdDev),
			CloudCoverPct: series.Float(o.CloudCoverPct),
		}
	}
	return c.GenerateKey(name, series.Day(start), series.Day(end), cfg, keyed)
}

func finiteOrNil(p *float64) *float64 {
	if p == nil {
		return nil
	}
	return series.Float(*p)
}

func regularize(opts Options, name string, cfg series.Config, observations []series.Observation, log *zap.Logger) (*series.Result, bool, error) {
	var key string
	if opts.Cache != nil {
		var err error
		key, err = cacheKey(opts.Cache, name, opts.Start, opts.End, cfg, observations)
		if err != nil {
			log.Warn("cache disabled for run", zap.Error(err))
		} else if res, ok := opts.Cache.Get(key); ok {
			log.Debug("cache hit", zap.String("key", key))
			return res, true, nil
		}
	}

	engine, err := series.NewEngine(cfg, log)
	if err != nil {
		return nil, false, err
	}
	res, err := engine.Run(observations, opts.Start, opts.End)
	if err != nil {
		return nil, false, err
	}

	if opts.Cache != nil && key != "" {
		if err := opts.Cache.Set(key, res); err != nil {
			log.Warn("cache write failed", zap.Error(err))
		}
	}
	return res, false, nil
}

// writeOutputs writes the files of one index concurrently.
func writeOutputs(ctx context.Context, paths dataset.OutputPaths, res *series.Result, meta dataset.Metadata, plot bool) error {
	if err := os.MkdirAll(filepath.Dir(paths.CSV), 0755); err != nil {
		return eris.Wrap(err, "delivery: create output directory")
	}

	g, gCtx := errgroup.WithContext(ctx)

	g.Go(func() error {
		if err := gCtx.Err(); err != nil {
			return err
		}
		return dataset.WriteFile(paths.CSV, func(w io.Writer) error { return dataset.WriteSeries(w, res) })
	})
	g.Go(func() error {
		if err := gCtx.Err(); err != nil {
			return err
		}
		return dataset.WriteFile(paths.Metadata, func(w io.Writer) error { return dataset.WriteMetadata(w, meta) })
	})
	if plot {
		g.Go(func() error {
			if err := gCtx.Err(); err != nil {
				return err
			}
			return output.CreateSeriesPlot(output.SeriesPlot{
				Index:          meta.Index,
				Result:         res,
				CloudThreshold: meta.Config.CloudCoverThreshold,
			}, paths.Plot)
		})
	}

	return g.Wait()
}
