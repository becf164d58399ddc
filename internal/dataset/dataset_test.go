package dataset

import (
	"bytes"
	"encoding/json"
	"errors"
	"io"
	"math"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/gocarina/gocsv"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/forest-guardian/index-series/internal/field"
	"github.com/forest-guardian/index-series/internal/series"
)

func day(s string) time.Time {
	t, _ := time.Parse(series.DateLayout, s)
	return t
}

func TestReadObservations(t *testing.T) {
	in := `date,mean,min,max,stddev,cloud_cover
2023-04-01,0.31,0.10,0.52,0.05,12.5
2023-04-03T10:37:00Z,NaN,,,null,4
2023-04-06,0.28,None,0.4,0.07,
`
	obs, err := ReadObservations(strings.NewReader(in), "savi")
	require.NoError(t, err)
	require.Len(t, obs, 3)

	assert.Equal(t, day("2023-04-01"), obs[0].Date)
	require.NotNil(t, obs[0].Mean)
	assert.InDelta(t, 0.31, *obs[0].Mean, 1e-12)
	assert.InDelta(t, 0.05, *obs[0].StdDev, 1e-12)
	assert.InDelta(t, 12.5, obs[0].CloudCoverPct, 1e-12)

	assert.Equal(t, day("2023-04-03"), obs[1].Date, "time of day is dropped")
	assert.Nil(t, obs[1].Mean)
	assert.Nil(t, obs[1].StdDev)

	assert.Nil(t, obs[2].Min)
	assert.True(t, math.IsNaN(obs[2].CloudCoverPct), "missing cloud cover is unknown")
}

func TestReadObservations_PrefixedColumns(t *testing.T) {
	in := `date,SAVI_mean,SAVI_stdDev,SAVI_min,SAVI_max,cloud_cover
2023-04-01,0.3,0.02,0.1,0.5,3
`
	obs, err := ReadObservations(strings.NewReader(in), "savi")
	require.NoError(t, err)
	require.Len(t, obs, 1)
	require.NotNil(t, obs[0].StdDev)
	assert.InDelta(t, 0.02, *obs[0].StdDev, 1e-12)
	assert.InDelta(t, 0.5, *obs[0].Max, 1e-12)
}

func TestReadObservations_IndexColumn(t *testing.T) {
	in := `date,index,mean,cloud_cover
2023-04-01,savi,0.3,3
2023-04-01,BSI,-0.1,3
2023-04-02,,0.2,3
`
	obs, err := ReadObservations(strings.NewReader(in), "bsi")
	require.NoError(t, err)
	require.Len(t, obs, 2, "rows without an index apply to every index")
	assert.InDelta(t, -0.1, *obs[0].Mean, 1e-12)
}

func TestReadObservations_Errors(t *testing.T) {
	_, err := ReadObservations(strings.NewReader("date,mean,cloud_cover\nyesterday,0.3,1\n"), "")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "row 2")

	_, err = ReadObservations(strings.NewReader("date,mean,cloud_cover\n2023-04-01,high,1\n"), "")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "column mean")

	_, err = ReadObservationsFile(filepath.Join(t.TempDir(), "missing.csv"), "")
	require.Error(t, err)
}

func regularized(t *testing.T) *series.Result {
	t.Helper()
	cloud := 4.0
	in := []series.Observation{
		{Date: day("2023-04-01"), Mean: ptr(0.2), Min: ptr(0.1), CloudCoverPct: cloud},
		{Date: day("2023-04-03"), Mean: ptr(0.24), Min: ptr(0.12), CloudCoverPct: cloud},
		{Date: day("2023-04-04"), Mean: ptr(0.6), CloudCoverPct: 80},
		{Date: day("2023-04-05"), Mean: ptr(0.22), Min: ptr(0.11), CloudCoverPct: cloud},
	}
	res, err := series.Regularize(in, day("2023-04-01"), day("2023-04-05"), series.DefaultConfig())
	require.NoError(t, err)
	return res
}

func ptr(v float64) *float64 { return &v }

func TestWriteSeries(t *testing.T) {
	res := regularized(t)

	var buf bytes.Buffer
	require.NoError(t, WriteSeries(&buf, res))
	assert.True(t, strings.HasPrefix(buf.String(), "date,value,smoothed,is_interpolated,cloud_cover,quality_flag,inconsistent,min,max,stddev\n"))

	var rows []*SeriesRow
	require.NoError(t, gocsv.UnmarshalBytes(buf.Bytes(), &rows))
	require.Len(t, rows, 5)

	assert.Equal(t, "2023-04-01", rows[0].Date)
	assert.Equal(t, "OBSERVED", rows[0].QualityFlag)
	assert.Equal(t, "4", rows[0].CloudCover)
	assert.Equal(t, "0.1", rows[0].Min)

	assert.Equal(t, "INTERPOLATED_SHORT_GAP", rows[1].QualityFlag)
	assert.True(t, rows[1].IsInterpolated)
	assert.Empty(t, rows[1].CloudCover)

	assert.Equal(t, "REJECTED_CLOUD", rows[3].QualityFlag)
	assert.Equal(t, "80", rows[3].CloudCover)
	assert.Empty(t, rows[4].StdDev)
}

func TestMetadata(t *testing.T) {
	res := regularized(t)
	at := time.Date(2024, 1, 2, 15, 4, 5, 0, time.UTC)
	fld := &field.Field{Name: "north block", PlotID: "7", AreaHa: 12.5}

	m := NewMetadata("savi", res, series.DefaultConfig(), fld, at)

	var buf bytes.Buffer
	require.NoError(t, WriteMetadata(&buf, m))

	var got map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &got))
	assert.Equal(t, "20240102_150405", got["timestamp"])
	assert.Equal(t, "savi", got["index"])
	assert.Equal(t, "2023-04-01", got["start_date"])
	assert.Equal(t, "2023-04-05", got["end_date"])
	assert.EqualValues(t, 4, got["total_observations"])
	assert.EqualValues(t, 2, got["interpolated_points"])
	assert.InDelta(t, 4, got["mean_cloud_cover"], 1e-9)
	assert.Equal(t, "north block", got["field"].(map[string]any)["name"])
	assert.EqualValues(t, 30, got["config"].(map[string]any)["cloud_cover_threshold"])
	assert.Len(t, got["rejected"], 1)
	assert.Contains(t, got, "quality_issues")
	assert.Contains(t, got, "summary")
}

func TestMetadata_WithoutField(t *testing.T) {
	m := NewMetadata("savi", regularized(t), series.DefaultConfig(), nil, time.Now())

	var buf bytes.Buffer
	require.NoError(t, WriteMetadata(&buf, m))
	assert.NotContains(t, buf.String(), `"field"`)
}

func TestPaths(t *testing.T) {
	at := time.Date(2024, 1, 2, 15, 4, 5, 0, time.UTC)
	p := Paths("out", "ndvi", at)
	assert.Equal(t, filepath.Join("out", "ndvi_results_20240102_150405.csv"), p.CSV)
	assert.Equal(t, filepath.Join("out", "ndvi_timeseries_20240102_150405.png"), p.Plot)
	assert.Equal(t, filepath.Join("out", "ndvi_metadata_20240102_150405.json"), p.Metadata)
}

func TestWriteFile(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "nested")

	ok := filepath.Join(dir, "ok.txt")
	require.NoError(t, WriteFile(ok, func(w io.Writer) error {
		_, err := io.WriteString(w, "hello")
		return err
	}))
	data, err := os.ReadFile(ok)
	require.NoError(t, err)
	assert.Equal(t, "hello", string(data))

	failed := filepath.Join(dir, "failed.txt")
	boom := errors.New("boom")
	assert.ErrorIs(t, WriteFile(failed, func(io.Writer) error { return boom }), boom)
	assert.NoFileExists(t, failed)
}
