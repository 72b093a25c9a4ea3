package geometry

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"
)

var (
	ErrEmptyTrack      = errors.New("track has no coordinates")
	ErrUnsupportedType = errors.New("unsupported track geometry")
)

// ParseTrack reads a route from GeoJSON. A bare geometry, a Feature or a
// FeatureCollection's first feature are accepted; the geometry must be a
// LineString or a MultiLineString, whose lines are joined in order.
func ParseTrack(data []byte) (orb.LineString, error) {
	var head struct {
		Type string `json:"type"`
	}
	if err := json.Unmarshal(data, &head); err != nil {
		return nil, fmt.Errorf("parse track: %w", err)
	}

	var g orb.Geometry
	switch head.Type {
	case "Feature":
		f, err := geojson.UnmarshalFeature(data)
		if err != nil {
			return nil, fmt.Errorf("parse track feature: %w", err)
		}
		g = f.Geometry
	case "FeatureCollection":
		fc, err := geojson.UnmarshalFeatureCollection(data)
		if err != nil {
			return nil, fmt.Errorf("parse track collection: %w", err)
		}
		if len(fc.Features) == 0 {
			return nil, ErrEmptyTrack
		}
		g = fc.Features[0].Geometry
	default:
		geom, err := geojson.UnmarshalGeometry(data)
		if err != nil {
			return nil, fmt.Errorf("parse track geometry: %w", err)
		}
		g = geom.Geometry()
	}

	var ls orb.LineString
	switch v := g.(type) {
	case orb.LineString:
		ls = v
	case orb.MultiLineString:
		for _, line := range v {
			ls = append(ls, line...)
		}
	default:
		return nil, fmt.Errorf("%w: %T", ErrUnsupportedType, g)
	}
	if len(ls) == 0 {
		return nil, ErrEmptyTrack
	}
	return ls, nil
}

// MarkerCollection is the map's cursor layer: a single point feature, or an
// empty collection when the cursor is hidden.
func MarkerCollection(p *orb.Point) *geojson.FeatureCollection {
	fc := geojson.NewFeatureCollection()
	if p != nil {
		fc.Append(geojson.NewFeature(*p))
	}
	return fc
}
