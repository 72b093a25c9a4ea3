package geometry

import (
	"fmt"

	"github.com/paulmach/orb"
	"github.com/tkrajina/gpxgo/gpx"

	"backend-stagehunter/internal/profile"
)

// TrackFromGPX flattens every track segment of a GPX file into one route and
// derives the elevation readings along it. Points without elevation still
// extend the route but produce no reading.
func TrackFromGPX(data []byte) (orb.LineString, []profile.ElevationPoint, error) {
	g, err := gpx.ParseBytes(data)
	if err != nil {
		return nil, nil, fmt.Errorf("parse gpx: %w", err)
	}

	var (
		track     orb.LineString
		elevation []profile.ElevationPoint
		total     float64
		prev      *gpx.GPXPoint
	)
	for _, t := range g.Tracks {
		for _, segment := range t.Segments {
			for i := range segment.Points {
				point := segment.Points[i]
				if prev != nil {
					total += prev.Distance2D(&point)
				}
				track = append(track, orb.Point{point.Longitude, point.Latitude})
				if point.Elevation.NotNull() {
					elevation = append(elevation, profile.ElevationPoint{
						Distance:  total,
						Elevation: point.Elevation.Value(),
					})
				}
				prev = &point
			}
		}
	}
	if len(track) == 0 {
		return nil, nil, ErrEmptyTrack
	}
	return track, elevation, nil
}
