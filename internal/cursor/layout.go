package cursor

type Margin struct {
	Top    float64 `json:"top"`
	Right  float64 `json:"right"`
	Bottom float64 `json:"bottom"`
	Left   float64 `json:"left"`
}

// DefaultMargin leaves room for the axes and, on wide screens, the gradient
// legend on the right.
func DefaultMargin(smallScreen bool) Margin {
	m := Margin{Top: 10, Right: 70, Bottom: 30, Left: 50}
	if smallScreen {
		m.Right = 10
	}
	return m
}

type Rect struct {
	Left   float64 `json:"left"`
	Top    float64 `json:"top"`
	Right  float64 `json:"right"`
	Bottom float64 `json:"bottom"`
}

func (r Rect) Contains(x, y float64) bool {
	return x >= r.Left && x <= r.Right && y >= r.Top && y <= r.Bottom
}

func (r Rect) Width() float64  { return r.Right - r.Left }
func (r Rect) Height() float64 { return r.Bottom - r.Top }

// Layout is the chart element's size in pixels.
type Layout struct {
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
	Margin Margin  `json:"margin"`
}

func NewLayout(width, height float64, smallScreen bool) Layout {
	return Layout{Width: width, Height: height, Margin: DefaultMargin(smallScreen)}
}

func (l Layout) PlotBounds() Rect {
	return Rect{
		Left:   l.Margin.Left,
		Top:    l.Margin.Top,
		Right:  l.Width - l.Margin.Right,
		Bottom: l.Height - l.Margin.Bottom,
	}
}

// XScale maps stage distance onto the plot's horizontal extent.
func (l Layout) XScale(minDistance, maxDistance float64) LinearScale {
	plot := l.PlotBounds()
	return LinearScale{
		Domain: [2]float64{minDistance, maxDistance},
		Range:  [2]float64{plot.Left, plot.Right},
	}
}

// YScale maps elevation onto the plot, higher elevations nearer the top.
func (l Layout) YScale(minElevation, maxElevation float64) LinearScale {
	plot := l.PlotBounds()
	return LinearScale{
		Domain: [2]float64{minElevation, maxElevation},
		Range:  [2]float64{plot.Bottom, plot.Top},
	}
}
