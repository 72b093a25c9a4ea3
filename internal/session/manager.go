// Package session runs one cursor controller per viewing session and streams
// its frames to every viewer of that session.
package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/paulmach/orb"

	"backend-stagehunter/internal/cursor"
	"backend-stagehunter/internal/geometry"
	"backend-stagehunter/internal/profile"
	"backend-stagehunter/internal/stage"
)

// Loader provides the stage data a session is built from. A stage that does
// not exist is reported with an error wrapping stage.ErrNotFound.
type Loader interface {
	Gradient(ctx context.Context, stageID int, resolution float64) ([]profile.Sample, error)
	Track(ctx context.Context, stageID int) (string, error)
}

// Broadcaster delivers encoded frames to a session's viewers.
type Broadcaster interface {
	Broadcast(sessionID string, payload []byte)
}

type Options struct {
	Resolution float64
	Projector  geometry.Projector
	Store      *Store
	Logger     *slog.Logger
}

type Manager struct {
	loader     Loader
	out        Broadcaster
	store      *Store
	projector  geometry.Projector
	resolution float64
	logger     *slog.Logger
	now        func() time.Time

	mu       sync.RWMutex
	sessions map[string]*live
}

// live is an open session. mu serialises every write to ctrl, so the frame
// publisher running inside ctrl's notification sees chart, seq and last
// under mu as well.
type live struct {
	mu          sync.Mutex
	info        Session
	profile     *profile.Profile
	track       orb.LineString
	ctrl        *cursor.Controller
	chart       cursor.ChartView
	mapView     cursor.MapView
	seq         uint64
	last        cursor.Frame
	lastActive  time.Time
	unsubscribe func()
}

func NewManager(loader Loader, out Broadcaster, opts Options) *Manager {
	if opts.Resolution <= 0 {
		opts.Resolution = 10
	}
	if opts.Projector == nil {
		opts.Projector = geometry.AlongProjector{}
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	return &Manager{
		loader:     loader,
		out:        out,
		store:      opts.Store,
		projector:  opts.Projector,
		resolution: opts.Resolution,
		logger:     opts.Logger.With("component", "session"),
		now:        time.Now,
		sessions:   map[string]*live{},
	}
}

func (m *Manager) Create(ctx context.Context, req Request) (Session, error) {
	if req.StageID < 1 {
		return Session{}, fmt.Errorf("%w: stage_id required", ErrInvalidRequest)
	}
	if req.Width <= 0 || req.Height <= 0 {
		return Session{}, ErrInvalidLayout
	}
	if req.Resolution <= 0 {
		req.Resolution = m.resolution
	}

	samples, err := m.loader.Gradient(ctx, req.StageID, req.Resolution)
	if err != nil {
		return Session{}, loadError("load gradient", req.StageID, err)
	}
	p, err := profile.NewProfile(samples)
	if err != nil {
		return Session{}, fmt.Errorf("load gradient: %w", err)
	}
	rawTrack, err := m.loader.Track(ctx, req.StageID)
	if err != nil {
		return Session{}, loadError("load track", req.StageID, err)
	}
	track, err := geometry.ParseTrack([]byte(rawTrack))
	if err != nil {
		return Session{}, fmt.Errorf("load track: %w", err)
	}

	layout := cursor.NewLayout(req.Width, req.Height, req.SmallScreen)
	minD, maxD := p.Extent()
	info := Session{
		ID:          uuid.NewString(),
		StageID:     req.StageID,
		Resolution:  req.Resolution,
		MinDistance: minD,
		MaxDistance: maxD,
		Layout:      layout,
		StartedAt:   m.now(),
	}

	if m.store != nil {
		startedAt, err := m.store.Start(ctx, info)
		if err != nil {
			return Session{}, fmt.Errorf("record session: %w", err)
		}
		info.StartedAt = startedAt
	}

	s := &live{
		info:       info,
		profile:    p,
		track:      track,
		ctrl:       cursor.NewController(minD, maxD, layout),
		chart:      cursor.NewChartView(p, layout),
		mapView:    cursor.NewMapView(track, m.projector),
		lastActive: m.now(),
	}
	s.last = cursor.NewFrame(0, cursor.Idle(), s.chart, s.mapView)
	s.unsubscribe = s.ctrl.Subscribe(func(st cursor.State) {
		m.publish(s, st)
	})

	m.mu.Lock()
	m.sessions[info.ID] = s
	m.mu.Unlock()

	m.logger.Info("session opened", "session_id", info.ID, "stage_id", info.StageID)
	return info, nil
}

func loadError(op string, stageID int, err error) error {
	if errors.Is(err, stage.ErrNotFound) {
		return fmt.Errorf("%w: %d", ErrStageNotFound, stageID)
	}
	return fmt.Errorf("%s: %w", op, err)
}

// publish runs with s.mu held by the writer that caused the transition.
func (m *Manager) publish(s *live, st cursor.State) {
	s.seq++
	s.last = cursor.NewFrame(s.seq, st, s.chart, s.mapView)
	m.send(s.info.ID, s.last)
}

func (m *Manager) send(id string, f cursor.Frame) {
	if m.out == nil {
		return
	}
	payload, err := json.Marshal(f)
	if err != nil {
		m.logger.Error("encode frame", "session_id", id, "error", err)
		return
	}
	m.out.Broadcast(id, payload)
}

func (m *Manager) get(id string) (*live, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	s, ok := m.sessions[id]
	if !ok {
		return nil, ErrSessionNotFound
	}
	return s, nil
}

func (m *Manager) Get(id string) (Session, error) {
	s, err := m.get(id)
	if err != nil {
		return Session{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.info, nil
}

// Dispatch applies one input event and returns the frame current after it.
func (m *Manager) Dispatch(id string, ev Event) (cursor.Frame, error) {
	s, err := m.get(id)
	if err != nil {
		return cursor.Frame{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.lastActive = m.now()

	switch ev.Type {
	case EventMove:
		s.ctrl.Move(ev.X, ev.Y)
	case EventLeave:
		s.ctrl.Leave()
	case EventTouchEnd:
		s.ctrl.TouchEnd()
	case EventResize:
		if ev.Width <= 0 || ev.Height <= 0 {
			return cursor.Frame{}, ErrInvalidLayout
		}
		layout := cursor.NewLayout(ev.Width, ev.Height, ev.SmallScreen)
		s.ctrl.Resize(layout)
		s.info.Layout = layout
		s.chart = cursor.NewChartView(s.profile, layout)
		// pixel positions moved even though the distance did not
		m.publish(s, s.ctrl.State())
	default:
		return cursor.Frame{}, fmt.Errorf("%w: %q", ErrUnknownEvent, ev.Type)
	}
	return s.last, nil
}

// Frame returns the latest frame of a session.
func (m *Manager) Frame(id string) (cursor.Frame, error) {
	s, err := m.get(id)
	if err != nil {
		return cursor.Frame{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.last, nil
}

func (m *Manager) Close(ctx context.Context, id string) error {
	m.mu.Lock()
	s, ok := m.sessions[id]
	delete(m.sessions, id)
	m.mu.Unlock()
	if !ok {
		return ErrSessionNotFound
	}

	s.mu.Lock()
	s.unsubscribe()
	transitions := s.ctrl.Transitions()
	s.mu.Unlock()

	m.logger.Info("session closed", "session_id", id, "transitions", transitions)
	if m.store != nil {
		if err := m.store.End(ctx, id, transitions, m.now()); err != nil {
			return fmt.Errorf("record session end: %w", err)
		}
	}
	return nil
}

// Summary reports on an open session, or on a closed one when a store is
// configured.
func (m *Manager) Summary(ctx context.Context, id string) (Summary, error) {
	if s, err := m.get(id); err == nil {
		s.mu.Lock()
		defer s.mu.Unlock()
		return Summary{
			SessionID:   id,
			StageID:     s.info.StageID,
			Transitions: s.ctrl.Transitions(),
			StartedAt:   s.info.StartedAt,
			DurationSec: int64(m.now().Sub(s.info.StartedAt).Seconds()),
			Active:      true,
		}, nil
	}
	if m.store == nil {
		return Summary{}, ErrSessionNotFound
	}
	return m.store.Summary(ctx, id)
}

func (m *Manager) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.sessions)
}

// Sweep closes sessions that have seen no input for maxIdle and returns how
// many were closed.
func (m *Manager) Sweep(ctx context.Context, maxIdle time.Duration) int {
	cutoff := m.now().Add(-maxIdle)
	var stale []string

	m.mu.RLock()
	for id, s := range m.sessions {
		s.mu.Lock()
		if s.lastActive.Before(cutoff) {
			stale = append(stale, id)
		}
		s.mu.Unlock()
	}
	m.mu.RUnlock()

	closed := 0
	for _, id := range stale {
		if err := m.Close(ctx, id); err != nil {
			m.logger.Warn("close idle session", "session_id", id, "error", err)
			continue
		}
		closed++
	}
	return closed
}

// CloseAll closes every open session, recording each one's end.
func (m *Manager) CloseAll(ctx context.Context) {
	m.mu.RLock()
	ids := make([]string, 0, len(m.sessions))
	for id := range m.sessions {
		ids = append(ids, id)
	}
	m.mu.RUnlock()

	for _, id := range ids {
		if err := m.Close(ctx, id); err != nil && !errors.Is(err, ErrSessionNotFound) {
			m.logger.Warn("close session", "session_id", id, "error", err)
		}
	}
}

// RunSweeper calls Sweep every interval until ctx is done.
func (m *Manager) RunSweeper(ctx context.Context, interval, maxIdle time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if n := m.Sweep(ctx, maxIdle); n > 0 {
				m.logger.Info("closed idle sessions", "count", n)
			}
		}
	}
}
