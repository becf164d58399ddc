// Package index holds the spectral index profiles a series can be built for.
package index

import (
	"math"
	"slices"
	"strings"

	"github.com/rotisserie/eris"

	"github.com/forest-guardian/index-series/internal/series"
)

// Bands maps Sentinel-2 band names (B02, B04, ...) to surface reflectance.
type Bands map[string]float64

// Range is the physically valid interval of an index.
type Range struct {
	Min float64 `json:"min"`
	Max float64 `json:"max"`
}

type Profile struct {
	Name        string
	Description string
	Range       Range
	Bands       []string
	Formula     func(Bands) float64
}

// SaviSoilFactor is the L term of the soil adjusted vegetation index.
const SaviSoilFactor = 0.5

var profiles = map[string]Profile{
	"ndvi": {
		Name:        "ndvi",
		Description: "Normalized Difference Vegetation Index",
		Range:       Range{-1, 1},
		Bands:       []string{"B08", "B04"},
		Formula:     func(b Bands) float64 { return normalizedDifference(b["B08"], b["B04"]) },
	},
	"ndre": {
		Name:        "ndre",
		Description: "Normalized Difference Red Edge",
		Range:       Range{-1, 1},
		Bands:       []string{"B08", "B05"},
		Formula:     func(b Bands) float64 { return normalizedDifference(b["B08"], b["B05"]) },
	},
	"ndmi": {
		Name:        "ndmi",
		Description: "Normalized Difference Moisture Index",
		Range:       Range{-1, 1},
		Bands:       []string{"B08", "B11"},
		Formula:     func(b Bands) float64 { return normalizedDifference(b["B08"], b["B11"]) },
	},
	"psri": {
		Name:        "psri",
		Description: "Plant Senescence Reflectance Index",
		Range:       Range{-1, 1},
		Bands:       []string{"B04", "B06"},
		Formula:     func(b Bands) float64 { return normalizedDifference(b["B04"], b["B06"]) },
	},
	"savi": {
		Name:        "savi",
		Description: "Soil Adjusted Vegetation Index",
		Range:       Range{-1, 1},
		Bands:       []string{"B08", "B04"},
		Formula: func(b Bands) float64 {
			nir, red := b["B08"], b["B04"]
			return ratio((nir-red)*(1+SaviSoilFactor), nir+red+SaviSoilFactor)
		},
	},
	"bsi": {
		Name:        "bsi",
		Description: "Bare Soil Index",
		Range:       Range{-1, 1},
		Bands:       []string{"B11", "B04", "B08", "B02"},
		Formula: func(b Bands) float64 {
			return ratio(b["B11"]+b["B04"]-b["B08"]-b["B02"], b["B11"]+b["B04"]+b["B08"]+b["B02"])
		},
	},
	"mcari": {
		Name:        "mcari",
		Description: "Modified Chlorophyll Absorption in Reflectance Index",
		Range:       Range{-2, 2},
		Bands:       []string{"B05", "B04", "B03"},
		Formula: func(b Bands) float64 {
			re, red, green := b["B05"], b["B04"], b["B03"]
			return ((re - red) - 0.2*(re-green)) * ratio(re, red)
		},
	},
}

// Lookup returns the profile registered under name, ignoring case.
func Lookup(name string) (Profile, error) {
	p, ok := profiles[strings.ToLower(strings.TrimSpace(name))]
	if !ok {
		return Profile{}, eris.Errorf("index: unknown index %q (known: %s)", name, strings.Join(Names(), ", "))
	}
	return p, nil
}

// Names returns the registered index names in sorted order.
func Names() []string {
	names := make([]string, 0, len(profiles))
	for name := range profiles {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}

// Compute evaluates the formula. A missing band or a zero denominator
// yields NaN, which the engine treats as an observation without data.
func (p Profile) Compute(b Bands) float64 {
	for _, name := range p.Bands {
		v, ok := b[name]
		if !ok || math.IsNaN(v) {
			return math.NaN()
		}
	}
	return p.Formula(b)
}

// EngineConfig returns base with the valid range replaced by the profile's.
func (p Profile) EngineConfig(base series.Config) series.Config {
	base.MinValid = p.Range.Min
	base.MaxValid = p.Range.Max
	return base
}

func normalizedDifference(a, b float64) float64 {
	return ratio(a-b, a+b)
}

func ratio(num, den float64) float64 {
	if den == 0 {
		return math.NaN()
	}
	return num / den
}
