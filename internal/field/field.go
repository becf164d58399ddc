// Package field reads the field polygon a series belongs to. Only
// descriptive metadata is derived; no spatial reduction happens here.
package field

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geo"
	"github.com/paulmach/orb/geojson"
	"github.com/paulmach/orb/planar"
	"github.com/rotisserie/eris"
)

const plotIDProperty = "plot_id"

type Field struct {
	Name     string    `json:"name"`
	PlotID   string    `json:"plot_id,omitempty"`
	Centroid orb.Point `json:"centroid"`
	AreaHa   float64   `json:"area_ha"`
	Bound    orb.Bound `json:"bound"`
}

// Load returns the feature of the collection at path whose plot_id matches
// plotID, or the first polygon when plotID is empty.
func Load(path, plotID string) (*Field, error) {
	fc, err := readCollection(path)
	if err != nil {
		return nil, err
	}

	for _, f := range fc.Features {
		if !isArea(f.Geometry) {
			continue
		}
		id := propertyString(f, plotIDProperty)
		if plotID != "" && id != plotID {
			continue
		}

		centroid, _ := planar.CentroidArea(f.Geometry)
		name := propertyString(f, "name")
		if name == "" {
			name = strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
		}
		return &Field{
			Name:     name,
			PlotID:   id,
			Centroid: centroid,
			AreaHa:   geo.Area(f.Geometry) / 10_000,
			Bound:    f.Geometry.Bound(),
		}, nil
	}

	if plotID == "" {
		return nil, eris.Errorf("field: no polygon in %s", path)
	}
	return nil, eris.Errorf("field: plot %s not found in %s", plotID, path)
}

// PlotIDs lists the plot_id of every feature that has one, in file order.
func PlotIDs(path string) ([]string, error) {
	fc, err := readCollection(path)
	if err != nil {
		return nil, err
	}
	var ids []string
	for _, f := range fc.Features {
		if id := propertyString(f, plotIDProperty); id != "" {
			ids = append(ids, id)
		}
	}
	return ids, nil
}

func readCollection(path string) (*geojson.FeatureCollection, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, eris.Wrapf(err, "field: read %s", path)
	}
	fc, err := geojson.UnmarshalFeatureCollection(data)
	if err != nil {
		return nil, eris.Wrapf(err, "field: parse %s", path)
	}
	return fc, nil
}

// propertyString stringifies a property; plot ids are often numeric.
func propertyString(f *geojson.Feature, key string) string {
	v, ok := f.Properties[key]
	if !ok || v == nil {
		return ""
	}
	if fl, ok := v.(float64); ok && fl == float64(int64(fl)) {
		return fmt.Sprintf("%d", int64(fl))
	}
	return fmt.Sprint(v)
}

func isArea(g orb.Geometry) bool {
	switch g.(type) {
	case orb.Polygon, orb.MultiPolygon:
		return true
	}
	return false
}
