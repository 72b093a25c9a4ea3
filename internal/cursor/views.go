package cursor

import (
	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"

	"backend-stagehunter/internal/geometry"
	"backend-stagehunter/internal/profile"
)

// ChartOverlay is the hover decoration on the elevation chart.
type ChartOverlay struct {
	Visible bool                       `json:"visible"`
	Point   *profile.InterpolatedPoint `json:"point,omitempty"`
	X       float64                    `json:"x"`
	Y       float64                    `json:"y"`
	Readout *profile.Readout           `json:"readout,omitempty"`
}

// MapOverlay is the cursor marker on the route map.
type MapOverlay struct {
	Visible bool                       `json:"visible"`
	Point   *orb.Point                 `json:"point,omitempty"`
	Marker  *geojson.FeatureCollection `json:"marker"`
}

// ChartView renders the chart overlay for a state. It is immutable; build a
// new one when the layout changes.
type ChartView struct {
	profile *profile.Profile
	policy  profile.Policy
	x, y    LinearScale
}

func NewChartView(p *profile.Profile, l Layout) ChartView {
	minD, maxD := p.Extent()
	minE, maxE := p.ElevationExtent()
	return ChartView{
		profile: p,
		policy:  profile.PolicyStrict,
		x:       l.XScale(minD, maxD),
		y:       l.YScale(minE, maxE),
	}
}

func (v ChartView) Render(s State) ChartOverlay {
	if s.IsIdle() || v.profile == nil {
		return ChartOverlay{}
	}
	p := v.profile.At(s.Ptr(), v.policy)
	if p == nil {
		return ChartOverlay{}
	}
	r := profile.NewReadout(*p)
	return ChartOverlay{
		Visible: true,
		Point:   p,
		X:       v.x.Apply(p.Distance),
		Y:       v.y.Apply(p.Elevation),
		Readout: &r,
	}
}

// MapView renders the map marker for a state.
type MapView struct {
	track     orb.LineString
	projector geometry.Projector
}

func NewMapView(track orb.LineString, projector geometry.Projector) MapView {
	if projector == nil {
		projector = geometry.AlongProjector{}
	}
	return MapView{track: track, projector: projector}
}

func (v MapView) Render(s State) MapOverlay {
	d, ok := s.Distance()
	if !ok {
		return MapOverlay{Marker: geometry.MarkerCollection(nil)}
	}
	pt, ok := v.projector.PointAtDistance(v.track, d)
	if !ok {
		return MapOverlay{Marker: geometry.MarkerCollection(nil)}
	}
	return MapOverlay{Visible: true, Point: &pt, Marker: geometry.MarkerCollection(&pt)}
}

// Frame is everything a client needs to draw one cursor position. Both
// overlays are derived from the same state.
type Frame struct {
	Seq   uint64       `json:"seq"`
	State State        `json:"distance"`
	Chart ChartOverlay `json:"chart"`
	Map   MapOverlay   `json:"map"`
}

func NewFrame(seq uint64, s State, chart ChartView, m MapView) Frame {
	return Frame{
		Seq:   seq,
		State: s,
		Chart: chart.Render(s),
		Map:   m.Render(s),
	}
}
