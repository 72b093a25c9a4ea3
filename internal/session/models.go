package session

import (
	"errors"
	"time"

	"backend-stagehunter/internal/cursor"
)

var (
	ErrSessionNotFound = errors.New("session not found")
	ErrStageNotFound   = errors.New("stage not found")
	ErrUnknownEvent    = errors.New("unknown event type")
	ErrInvalidRequest  = errors.New("invalid session request")
	ErrInvalidLayout   = errors.New("width and height must be positive")
)

// Request opens a viewing session on a stage for a chart of the given size.
type Request struct {
	StageID     int     `json:"stage_id"`
	Width       float64 `json:"width"`
	Height      float64 `json:"height"`
	SmallScreen bool    `json:"small_screen"`
	Resolution  float64 `json:"resolution"`
}

type Session struct {
	ID          string        `json:"id"`
	StageID     int           `json:"stage_id"`
	Resolution  float64       `json:"resolution"`
	MinDistance float64       `json:"min_distance"`
	MaxDistance float64       `json:"max_distance"`
	Layout      cursor.Layout `json:"layout"`
	StartedAt   time.Time     `json:"started_at"`
}

const (
	EventMove     = "move"
	EventLeave    = "leave"
	EventTouchEnd = "touchend"
	EventResize   = "resize"
)

// Event is pointer or layout input from the chart. X and Y are relative to
// the chart element.
type Event struct {
	Type        string  `json:"type"`
	X           float64 `json:"x"`
	Y           float64 `json:"y"`
	Width       float64 `json:"width"`
	Height      float64 `json:"height"`
	SmallScreen bool    `json:"small_screen"`
}

type Summary struct {
	SessionID   string    `json:"session_id"`
	StageID     int       `json:"stage_id"`
	Transitions uint64    `json:"transitions"`
	StartedAt   time.Time `json:"started_at"`
	EndedAt     time.Time `json:"ended_at,omitempty"`
	DurationSec int64     `json:"duration_sec"`
	Active      bool      `json:"active"`
}
