package view

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/mohammed-shakir/hexview/internal/core/model"
	"github.com/mohammed-shakir/hexview/internal/locator"
	mylog "github.com/mohammed-shakir/hexview/internal/logger"
)

const OriginSession = "session"

// DefaultStartupDelay lets a freshly created map settle before the startup
// cell lookup runs.
const DefaultStartupDelay = 50 * time.Millisecond

// Session is the state of one map: its viewport, the active search and the
// frame currently on screen. Events are applied one at a time and every
// change replaces the frame.
type Session struct {
	id       string
	composer *Composer
	locator  *locator.Locator
	logger   *slog.Logger
	logCtx   context.Context

	mu       sync.Mutex
	viewport model.Viewport
	search   model.CellID
	frame    Frame
	updated  time.Time
}

func NewSession(id string, composer *Composer, loc *locator.Locator, logger *slog.Logger) *Session {
	if logger == nil {
		logger = slog.Default()
	}
	return &Session{
		id:       id,
		composer: composer,
		locator:  loc,
		logger:   logger,
		logCtx:   mylog.WithSession(context.Background(), id),
	}
}

func (s *Session) ID() string { return s.id }

// Start applies the initial viewport and draws the first frame. When the
// initial state names a cell, it becomes the search and the lookup runs
// after delay. The returned channel closes once startup is complete or ctx
// is done.
func (s *Session) Start(ctx context.Context, init model.InitialState, delay time.Duration) (Frame, <-chan struct{}, error) {
	done := make(chan struct{})

	s.mu.Lock()
	if init.CellID != "" {
		s.search = model.NormalizeCellID(init.CellID)
	}
	f, err := s.setViewLocked(init.Viewport)
	s.mu.Unlock()
	if err != nil {
		close(done)
		return Frame{}, done, err
	}

	if init.CellID == "" {
		close(done)
		return f, done, nil
	}

	go func() {
		defer close(done)
		t := time.NewTimer(delay)
		defer t.Stop()
		select {
		case <-ctx.Done():
			return
		case <-t.C:
		}
		if _, _, err := s.Search(init.CellID); err != nil {
			s.logger.WarnContext(s.logCtx, "startup cell lookup failed", "h3", init.CellID, "err", err)
		}
	}()
	return f, done, nil
}

// SetView handles a moveend/zoomend event.
func (s *Session) SetView(vp model.Viewport) (Frame, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.setViewLocked(vp)
}

func (s *Session) SetZoom(zoom int) (Frame, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	vp := s.viewport
	vp.Zoom = zoom
	return s.setViewLocked(vp)
}

// Search makes id the active search and, when it names a valid cell, moves
// the map onto it. moved is false for ids that do not resolve; the session
// is otherwise left as it was.
func (s *Session) Search(id string) (f Frame, moved bool, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.search = model.NormalizeCellID(id)
	loc, ok := s.locator.ResolveCell(id)
	if !ok {
		s.logger.DebugContext(s.logCtx, "search did not resolve", "h3", id)
		return s.frame, false, nil
	}
	f, err = s.setViewLocked(loc.Viewport)
	if err != nil {
		return s.frame, false, err
	}
	return f, true, nil
}

// Goto moves the map to a "lat,lng" text. moved is false for text that
// does not parse.
func (s *Session) Goto(text string) (f Frame, moved bool, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	loc, ok := s.locator.ResolveCoordinateText(text)
	if !ok {
		s.logger.DebugContext(s.logCtx, "goto did not resolve", "latlng", text)
		return s.frame, false, nil
	}
	f, err = s.setViewLocked(loc.Viewport)
	if err != nil {
		return s.frame, false, err
	}
	return f, true, nil
}

func (s *Session) Frame() Frame {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.frame
}

func (s *Session) Updated() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.updated
}

// setViewLocked recomputes the frame; on failure the previous state stays.
func (s *Session) setViewLocked(vp model.Viewport) (Frame, error) {
	vp.Zoom = clampZoom(vp.Zoom)
	f, err := s.composer.Compose(OriginSession, vp, s.search)
	if err != nil {
		return Frame{}, fmt.Errorf("session %s: %w", s.id, err)
	}
	s.viewport = vp
	s.frame = f
	s.updated = time.Now()
	s.logger.DebugContext(s.logCtx, "frame replaced",
		"zoom", vp.Zoom,
		"res", f.Resolution,
		"cells", len(f.Cells))
	return f, nil
}

// the map widget never reports a zoom outside its limits
func clampZoom(z int) int {
	if z < model.MinZoom {
		return model.MinZoom
	}
	if z > model.MaxZoom {
		return model.MaxZoom
	}
	return z
}
