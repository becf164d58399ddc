package dataset

import (
	"encoding/csv"
	"io"
	"math"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/gocarina/gocsv"
	"github.com/rotisserie/eris"

	"github.com/forest-guardian/index-series/internal/series"
)

// ObservationRow is one reduced satellite pass as exported by the
// extraction scripts. Statistic columns may carry the index as a prefix
// (SAVI_mean) and the index column is optional.
type ObservationRow struct {
	Date       string `csv:"date"`
	Index      string `csv:"index"`
	Mean       string `csv:"mean"`
	Min        string `csv:"min"`
	Max        string `csv:"max"`
	StdDev     string `csv:"stddev"`
	CloudCover string `csv:"cloud_cover"`
}

// ReadObservationsFile opens path and reads it with ReadObservations.
func ReadObservationsFile(path, index string) ([]series.Observation, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, eris.Wrapf(err, "dataset: open %s", path)
	}
	defer file.Close()

	obs, err := ReadObservations(file, index)
	if err != nil {
		return nil, eris.Wrapf(err, "dataset: read %s", path)
	}
	return obs, nil
}

// ReadObservations parses observation rows. When the file has an index
// column only rows for index are kept. Empty, NaN, null and None cells
// become absent statistics; an absent cloud cover is treated as unknown.
func ReadObservations(r io.Reader, index string) ([]series.Observation, error) {
	var rows []*ObservationRow
	if err := gocsv.UnmarshalCSV(newHeaderReader(r, index), &rows); err != nil {
		return nil, eris.Wrap(err, "dataset: unmarshal observations")
	}

	observations := make([]series.Observation, 0, len(rows))
	for i, row := range rows {
		if row.Index != "" && index != "" && !strings.EqualFold(strings.TrimSpace(row.Index), index) {
			continue
		}
		o, err := row.observation()
		if err != nil {
			// Row 1 is the header.
			return nil, eris.Wrapf(err, "dataset: row %d", i+2)
		}
		observations = append(observations, o)
	}
	return observations, nil
}

func (row *ObservationRow) observation() (series.Observation, error) {
	date, err := parseDate(row.Date)
	if err != nil {
		return series.Observation{}, err
	}
	o := series.Observation{Date: date, CloudCoverPct: math.NaN()}
	fields := []struct {
		name string
		raw  string
		dst  **float64
	}{
		{"mean", row.Mean, &o.Mean},
		{"min", row.Min, &o.Min},
		{"max", row.Max, &o.Max},
		{"stddev", row.StdDev, &o.StdDev},
	}
	for _, f := range fields {
		v, err := parseOptional(f.raw)
		if err != nil {
			return series.Observation{}, eris.Wrapf(err, "column %s", f.name)
		}
		*f.dst = v
	}
	cloud, err := parseOptional(row.CloudCover)
	if err != nil {
		return series.Observation{}, eris.Wrap(err, "column cloud_cover")
	}
	if cloud != nil {
		o.CloudCoverPct = *cloud
	}
	return o, nil
}

var dateLayouts = []string{series.DateLayout, time.RFC3339, "2006-01-02 15:04:05", "02/01/2006"}

func parseDate(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return series.Day(t), nil
		}
	}
	return time.Time{}, eris.Errorf("unrecognised date %q", s)
}

func parseOptional(s string) (*float64, error) {
	s = strings.TrimSpace(s)
	switch strings.ToLower(s) {
	case "", "nan", "null", "none", "na":
		return nil, nil
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return nil, eris.Wrapf(err, "parse %q", s)
	}
	return series.Float(v), nil
}

// headerReader normalises the header row so that SAVI_stdDev and
// stddev land on the same struct field.
type headerReader struct {
	r      *csv.Reader
	prefix string
	header bool
}

func newHeaderReader(r io.Reader, index string) *headerReader {
	cr := csv.NewReader(r)
	cr.TrimLeadingSpace = true
	cr.FieldsPerRecord = -1
	h := &headerReader{r: cr}
	if index != "" {
		h.prefix = strings.ToLower(index) + "_"
	}
	return h
}

func (h *headerReader) Read() ([]string, error) {
	rec, err := h.r.Read()
	if err != nil || h.header {
		return rec, err
	}
	h.header = true
	for i, col := range rec {
		rec[i] = h.normalise(col)
	}
	return rec, nil
}

func (h *headerReader) ReadAll() ([][]string, error) {
	var out [][]string
	for {
		rec, err := h.Read()
		if err == io.EOF {
			return out, nil
		}
		if err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
}

func (h *headerReader) normalise(col string) string {
	col = strings.ToLower(strings.TrimSpace(strings.TrimPrefix(col, "\ufeff")))
	if h.prefix != "" {
		col = strings.TrimPrefix(col, h.prefix)
	}
	switch col {
	case "std_dev", "std", "stdev":
		return "stddev"
	case "cloud_cover_pct", "cloudy_pixel_percentage":
		return "cloud_cover"
	}
	return col
}
