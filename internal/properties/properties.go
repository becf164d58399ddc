package properties

import (
	"os"

	"github.com/forest-guardian/index-series/internal/series"
)

// RootPath is the project root used to find .env and config.yaml when the
// CLI runs from another directory.
func RootPath() string {
	return os.Getenv("INDEX_SERIES_ROOT")
}

type Color struct {
	R, G, B uint8
}

// ColorMap holds the plot colour of each quality flag.
var ColorMap = map[series.QualityFlag]Color{
	series.FlagObserved:   {34, 139, 34},
	series.FlagShortGap:   {30, 144, 255},
	series.FlagLongGap:    {255, 165, 0},
	series.FlagOutOfRange: {220, 20, 60},
	series.FlagCloud:      {128, 128, 128},
}

var (
	LineColor  = Color{25, 25, 112}
	CloudColor = Color{135, 206, 235}
	Unknown    = Color{255, 0, 0}
)

// FlagColor returns the colour for flag, falling back to Unknown.
func FlagColor(flag series.QualityFlag) Color {
	if c, ok := ColorMap[flag]; ok {
		return c
	}
	return Unknown
}
