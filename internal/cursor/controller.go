package cursor

import (
	"math"
	"sync"
)

// Controller owns the cursor state. Pointer input is turned into state
// transitions, and every transition is pushed to subscribers in the order
// they subscribed. Subscribers run on the writer's goroutine while the
// controller is locked and must not call back into it.
type Controller struct {
	mu          sync.Mutex
	state       State
	layout      Layout
	domain      [2]float64
	subs        []subscriber
	nextSub     uint64
	transitions uint64
}

type subscriber struct {
	id uint64
	fn func(State)
}

// NewController starts Idle with the x domain [minDistance, maxDistance].
func NewController(minDistance, maxDistance float64, layout Layout) *Controller {
	return &Controller{
		layout: layout,
		domain: [2]float64{minDistance, maxDistance},
	}
}

func (c *Controller) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

func (c *Controller) Layout() Layout {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.layout
}

// Transitions counts state changes since the controller was created.
func (c *Controller) Transitions() uint64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.transitions
}

// Subscribe registers fn and returns the function that removes it.
func (c *Controller) Subscribe(fn func(State)) func() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.nextSub++
	id := c.nextSub
	c.subs = append(c.subs, subscriber{id: id, fn: fn})

	var once sync.Once
	return func() {
		once.Do(func() {
			c.mu.Lock()
			defer c.mu.Unlock()
			for i, s := range c.subs {
				if s.id == id {
					c.subs = append(c.subs[:i:i], c.subs[i+1:]...)
					return
				}
			}
		})
	}
}

// Move handles a pointer or touch position relative to the chart element.
// Inside the plot area the cursor tracks the distance under the pointer,
// anywhere else it goes idle.
func (c *Controller) Move(x, y float64) State {
	c.mu.Lock()
	defer c.mu.Unlock()
	plot := c.layout.PlotBounds()
	if math.IsNaN(x) || math.IsNaN(y) || !plot.Contains(x, y) {
		return c.setLocked(Idle())
	}
	scale := c.layout.XScale(c.domain[0], c.domain[1])
	return c.setLocked(Tracking(scale.Invert(x)))
}

func (c *Controller) Leave() State {
	return c.Set(Idle())
}

func (c *Controller) TouchEnd() State {
	return c.Set(Idle())
}

// Resize swaps the layout used for later pointer input. The current state is
// a distance and does not depend on the layout.
func (c *Controller) Resize(l Layout) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.layout = l
}

// Set moves to s directly, for inputs that already carry a distance.
func (c *Controller) Set(s State) State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.setLocked(s)
}

func (c *Controller) setLocked(s State) State {
	if c.state.Equal(s) {
		return c.state
	}
	c.state = s
	c.transitions++
	for _, sub := range c.subs {
		sub.fn(s)
	}
	return s
}
