// Package cursor holds the shared hover position that drives both the
// elevation chart and the route map.
package cursor

import (
	"bytes"
	"encoding/json"
	"math"
	"strconv"
)

// State is either Idle or Tracking a distance in metres along the stage.
// The zero value is Idle.
type State struct {
	distance float64
	tracking bool
}

func Idle() State { return State{} }

func Tracking(d float64) State {
	return State{distance: d, tracking: true}
}

func (s State) Distance() (float64, bool) {
	return s.distance, s.tracking
}

// Ptr returns the distance as a nullable value, nil when idle.
func (s State) Ptr() *float64 {
	if !s.tracking {
		return nil
	}
	d := s.distance
	return &d
}

func (s State) IsIdle() bool { return !s.tracking }

func (s State) Equal(o State) bool {
	if s.tracking != o.tracking {
		return false
	}
	return !s.tracking || s.distance == o.distance
}

func (s State) String() string {
	if !s.tracking {
		return "idle"
	}
	return "tracking(" + strconv.FormatFloat(s.distance, 'f', -1, 64) + ")"
}

func (s State) MarshalJSON() ([]byte, error) {
	if !s.tracking {
		return []byte("null"), nil
	}
	return json.Marshal(s.distance)
}

func (s *State) UnmarshalJSON(data []byte) error {
	if bytes.Equal(bytes.TrimSpace(data), []byte("null")) {
		*s = Idle()
		return nil
	}
	var d float64
	if err := json.Unmarshal(data, &d); err != nil {
		return err
	}
	if math.IsNaN(d) || math.IsInf(d, 0) {
		*s = Idle()
		return nil
	}
	*s = Tracking(d)
	return nil
}
