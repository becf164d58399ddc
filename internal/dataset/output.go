package dataset

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/gocarina/gocsv"
	"github.com/rotisserie/eris"

	"github.com/forest-guardian/index-series/internal/field"
	"github.com/forest-guardian/index-series/internal/series"
)

// TimestampLayout names the files of one run.
const TimestampLayout = "20060102_150405"

// SeriesRow is one day of the regularized series as written to CSV.
type SeriesRow struct {
	Date           string  `csv:"date"`
	Value          float64 `csv:"value"`
	Smoothed       float64 `csv:"smoothed"`
	IsInterpolated bool    `csv:"is_interpolated"`
	CloudCover     string  `csv:"cloud_cover"`
	QualityFlag    string  `csv:"quality_flag"`
	Inconsistent   bool    `csv:"inconsistent"`
	Min            string  `csv:"min"`
	Max            string  `csv:"max"`
	StdDev         string  `csv:"stddev"`
}

func SeriesRows(res *series.Result) []*SeriesRow {
	rows := make([]*SeriesRow, len(res.Points))
	for i, p := range res.Points {
		rows[i] = &SeriesRow{
			Date:           p.Date.Format(series.DateLayout),
			Value:          p.Value,
			Smoothed:       p.Smoothed,
			IsInterpolated: p.IsInterpolated,
			CloudCover:     formatOptional(p.CloudCoverPct),
			QualityFlag:    string(p.Flag),
			Inconsistent:   p.Inconsistent,
			Min:            formatOptional(p.Min),
			Max:            formatOptional(p.Max),
			StdDev:         formatOptional(p.StdDev),
		}
	}
	return rows
}

// WriteSeries writes one CSV row per grid day.
func WriteSeries(w io.Writer, res *series.Result) error {
	rows := SeriesRows(res)
	if err := gocsv.Marshal(&rows, w); err != nil {
		return eris.Wrap(err, "dataset: marshal series")
	}
	return nil
}

// Metadata describes one run for the metadata JSON file.
type Metadata struct {
	Timestamp          string             `json:"timestamp"`
	Index              string             `json:"index"`
	StartDate          string             `json:"start_date"`
	EndDate            string             `json:"end_date"`
	Config             series.Config      `json:"config"`
	QualityIssues      []string           `json:"quality_issues"`
	TotalObservations  int                `json:"total_observations"`
	InterpolatedPoints int                `json:"interpolated_points"`
	MeanValue          float64            `json:"mean_value"`
	MeanCloudCover     *float64           `json:"mean_cloud_cover"`
	Field              *field.Field       `json:"field,omitempty"`
	Summary            series.Summary     `json:"summary"`
	Rejected           []series.Rejection `json:"rejected"`
}

// NewMetadata collects the run description. at is the run time; fld may
// be nil.
func NewMetadata(index string, res *series.Result, cfg series.Config, fld *field.Field, at time.Time) Metadata {
	rejected := res.Rejected
	if rejected == nil {
		rejected = []series.Rejection{}
	}
	return Metadata{
		Timestamp:          at.Format(TimestampLayout),
		Index:              index,
		StartDate:          res.Start.Format(series.DateLayout),
		EndDate:            res.End.Format(series.DateLayout),
		Config:             cfg,
		QualityIssues:      res.Summary.Issues,
		TotalObservations:  res.Summary.TotalObservations,
		InterpolatedPoints: res.Summary.Interpolated,
		MeanValue:          res.Summary.MeanValue,
		MeanCloudCover:     res.Summary.MeanCloudCover,
		Field:              fld,
		Summary:            res.Summary,
		Rejected:           rejected,
	}
}

func WriteMetadata(w io.Writer, m Metadata) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(m); err != nil {
		return eris.Wrap(err, "dataset: encode metadata")
	}
	return nil
}

// OutputPaths are the files written for one index in one run.
type OutputPaths struct {
	CSV      string
	Plot     string
	Metadata string
}

func Paths(dir, index string, at time.Time) OutputPaths {
	ts := at.Format(TimestampLayout)
	return OutputPaths{
		CSV:      filepath.Join(dir, fmt.Sprintf("%s_results_%s.csv", index, ts)),
		Plot:     filepath.Join(dir, fmt.Sprintf("%s_timeseries_%s.png", index, ts)),
		Metadata: filepath.Join(dir, fmt.Sprintf("%s_metadata_%s.json", index, ts)),
	}
}

// WriteFile creates path and hands it to write, removing it again when
// write fails.
func WriteFile(path string, write func(io.Writer) error) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return eris.Wrapf(err, "dataset: create directory for %s", path)
	}
	file, err := os.Create(path)
	if err != nil {
		return eris.Wrapf(err, "dataset: create %s", path)
	}
	if err := write(file); err != nil {
		file.Close()
		os.Remove(path)
		return err
	}
	if err := file.Close(); err != nil {
		return eris.Wrapf(err, "dataset: close %s", path)
	}
	return nil
}

func formatOptional(p *float64) string {
	if p == nil {
		return ""
	}
	return strconv.FormatFloat(*p, 'f', -1, 64)
}
