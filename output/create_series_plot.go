package output

import (
	"fmt"
	"math"
	"strings"

	"github.com/fogleman/gg"
	"github.com/rotisserie/eris"

	"github.com/forest-guardian/index-series/internal/properties"
	"github.com/forest-guardian/index-series/internal/series"
)

const (
	plotWidth   = 1400
	plotHeight  = 900
	marginLeft  = 90.0
	marginRight = 40.0
	valueTop    = 70.0
	valueBottom = 560.0
	cloudTop    = 620.0
	cloudBottom = 830.0
)

// SeriesPlot describes the chart of one regularized series.
type SeriesPlot struct {
	Index          string
	Result         *series.Result
	CloudThreshold float64
}

// CreateSeriesPlot draws the series (top) and the cloud cover of each day
// (bottom) and saves it as PNG.
func CreateSeriesPlot(p SeriesPlot, outputPath string) error {
	dc, err := p.Render()
	if err != nil {
		return err
	}
	if err := dc.SavePNG(outputPath); err != nil {
		return eris.Wrapf(err, "output: save plot %s", outputPath)
	}
	return nil
}

// Render draws the chart into a new context.
func (p SeriesPlot) Render() (*gg.Context, error) {
	if p.Result == nil || len(p.Result.Points) == 0 {
		return nil, eris.New("output: no points to plot")
	}
	points := p.Result.Points

	dc := gg.NewContext(plotWidth, plotHeight)
	dc.SetRGB(1, 1, 1) // White background
	dc.Clear()

	lo, hi := valueBounds(points)
	xOf := func(i int) float64 {
		if len(points) == 1 {
			return marginLeft + (plotWidth-marginLeft-marginRight)/2
		}
		return marginLeft + float64(i)/float64(len(points)-1)*(plotWidth-marginLeft-marginRight)
	}
	yOf := func(v float64) float64 {
		return valueBottom - (v-lo)/(hi-lo)*(valueBottom-valueTop)
	}

	dc.SetRGB(0, 0, 0)
	dc.DrawStringAnchored(fmt.Sprintf("%s time series %s to %s", strings.ToUpper(p.Index),
		p.Result.Start.Format(series.DateLayout), p.Result.End.Format(series.DateLayout)), plotWidth/2, 30, 0.5, 0.5)

	drawFrame(dc, valueTop, valueBottom)
	for _, tick := range []float64{lo, (lo + hi) / 2, hi} {
		dc.SetRGB(0, 0, 0)
		dc.DrawStringAnchored(fmt.Sprintf("%.2f", tick), marginLeft-8, yOf(tick), 1, 0.5)
	}
	if lo < 0 && hi > 0 {
		dc.SetRGB(0.7, 0.7, 0.7)
		dc.SetDash(4, 4)
		dc.DrawLine(marginLeft, yOf(0), plotWidth-marginRight, yOf(0))
		dc.Stroke()
		dc.SetDash()
	}

	// Value line
	setColor(dc, properties.LineColor)
	dc.SetLineWidth(1.5)
	for i, pt := range points {
		if i == 0 {
			dc.MoveTo(xOf(i), yOf(pt.Value))
			continue
		}
		dc.LineTo(xOf(i), yOf(pt.Value))
	}
	dc.Stroke()

	// Markers, observations on top
	for _, flag := range []series.QualityFlag{series.FlagLongGap, series.FlagShortGap, series.FlagCloud, series.FlagOutOfRange, series.FlagObserved} {
		setColor(dc, properties.FlagColor(flag))
		for i, pt := range points {
			if pt.Flag != flag {
				continue
			}
			x, y := xOf(i), yOf(pt.Value)
			switch flag {
			case series.FlagObserved:
				dc.DrawCircle(x, y, 4)
				dc.Fill()
			case series.FlagCloud, series.FlagOutOfRange:
				dc.SetLineWidth(2)
				dc.DrawLine(x-4, y-4, x+4, y+4)
				dc.DrawLine(x-4, y+4, x+4, y-4)
				dc.Stroke()
			default:
				dc.DrawCircle(x, y, 1.5)
				dc.Fill()
			}
		}
	}
	for i, pt := range points {
		if pt.Inconsistent {
			setColor(dc, properties.FlagColor(series.FlagOutOfRange))
			dc.SetLineWidth(1)
			dc.DrawCircle(xOf(i), yOf(pt.Value), 7)
			dc.Stroke()
		}
	}

	drawCloudPanel(dc, points, xOf, p.CloudThreshold)
	drawDateTicks(dc, points, xOf)
	drawCounts(dc, p.Result.Summary)

	return dc, nil
}

func drawCloudPanel(dc *gg.Context, points []series.Point, xOf func(int) float64, threshold float64) {
	drawFrame(dc, cloudTop, cloudBottom)
	yOf := func(pct float64) float64 {
		return cloudBottom - math.Max(0, math.Min(100, pct))/100*(cloudBottom-cloudTop)
	}

	barWidth := math.Max(1, (plotWidth-marginLeft-marginRight)/float64(len(points))*0.8)
	for i, pt := range points {
		if pt.CloudCoverPct == nil {
			continue
		}
		if pt.Flag == series.FlagCloud {
			setColor(dc, properties.FlagColor(series.FlagCloud))
		} else {
			setColor(dc, properties.CloudColor)
		}
		top := yOf(*pt.CloudCoverPct)
		dc.DrawRectangle(xOf(i)-barWidth/2, top, barWidth, cloudBottom-top)
		dc.Fill()
	}

	dc.SetRGB(0.8, 0, 0)
	dc.SetDash(6, 4)
	dc.DrawLine(marginLeft, yOf(threshold), plotWidth-marginRight, yOf(threshold))
	dc.Stroke()
	dc.SetDash()

	dc.SetRGB(0, 0, 0)
	dc.DrawStringAnchored("cloud %", marginLeft-8, cloudTop, 1, 0.5)
	dc.DrawStringAnchored("0", marginLeft-8, cloudBottom, 1, 0.5)
	dc.DrawStringAnchored("100", marginLeft-8, cloudTop+14, 1, 0.5)
}

func drawDateTicks(dc *gg.Context, points []series.Point, xOf func(int) float64) {
	ticks := min(6, len(points))
	dc.SetRGB(0, 0, 0)
	for t := 0; t < ticks; t++ {
		i := 0
		if ticks > 1 {
			i = t * (len(points) - 1) / (ticks - 1)
		}
		dc.DrawStringAnchored(points[i].Date.Format(series.DateLayout), xOf(i), cloudBottom+20, 0.5, 0.5)
	}
}

func drawCounts(dc *gg.Context, s series.Summary) {
	lines := []string{
		fmt.Sprintf("Observed: %d", s.Observed),
		fmt.Sprintf("Short gap: %d", s.ShortGapFilled),
		fmt.Sprintf("Long gap: %d", s.LongGapFilled),
		fmt.Sprintf("Cloud rejected: %d", s.RejectedCloud),
		fmt.Sprintf("Out of range: %d", s.OutOfRangeCorrected),
		fmt.Sprintf("Inconsistent: %d", s.Inconsistent),
	}
	x, y := plotWidth-marginRight-170, valueTop+10
	dc.SetRGBA(1, 1, 1, 0.85)
	dc.DrawRectangle(x, y, 160, float64(len(lines))*18+12)
	dc.Fill()
	dc.SetRGB(0, 0, 0)
	dc.SetLineWidth(1)
	dc.DrawRectangle(x, y, 160, float64(len(lines))*18+12)
	dc.Stroke()
	for i, line := range lines {
		dc.DrawString(line, x+8, y+20+float64(i)*18)
	}
}

func drawFrame(dc *gg.Context, top, bottom float64) {
	dc.SetRGB(0, 0, 0)
	dc.SetLineWidth(1)
	dc.DrawRectangle(marginLeft, top, plotWidth-marginLeft-marginRight, bottom-top)
	dc.Stroke()
}

// valueBounds pads the value range so flat series still get a height.
func valueBounds(points []series.Point) (float64, float64) {
	lo, hi := math.Inf(1), math.Inf(-1)
	for _, p := range points {
		lo = math.Min(lo, p.Value)
		hi = math.Max(hi, p.Value)
	}
	pad := (hi - lo) * 0.1
	if pad == 0 {
		pad = 0.1
	}
	return lo - pad, hi + pad
}

func setColor(dc *gg.Context, c properties.Color) {
	dc.SetRGB255(int(c.R), int(c.G), int(c.B))
}
