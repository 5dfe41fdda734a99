// Package display renders a court's match on a surface and keeps it current
// from whichever propagation channels the surface can reach.
package display

import (
	"context"
	"sync"
	"time"

	"github.com/abrezinsky/courtboard/internal/court"
	"github.com/abrezinsky/courtboard/internal/logger"
	"github.com/abrezinsky/courtboard/internal/match"
	"github.com/abrezinsky/courtboard/internal/metrics"
	"github.com/abrezinsky/courtboard/internal/models"
	"github.com/abrezinsky/courtboard/internal/presentation"
	"github.com/abrezinsky/courtboard/internal/propagation"
)

// DefaultTimeoutFlash is how long a timeout indicator stays lit.
const DefaultTimeoutFlash = 5 * time.Second

// Renderer draws one frame from a mapped view.
type Renderer interface {
	Render(view presentation.View) error
}

// TimeoutRenderer is implemented by renderers that can flash a timeout indicator.
type TimeoutRenderer interface {
	ShowTimeout(side models.Side, number int) error
	HideTimeout() error
}

// Surface holds one court's transient copy of the match and redraws it
// whenever a different state arrives.
type Surface struct {
	id       court.Identity
	renderer Renderer
	guard    *Guard
	log      logger.Logger
	metrics  *metrics.Metrics
	flash    time.Duration

	mu        sync.Mutex
	state     models.MatchState
	hasState  bool
	last      string
	stopFlash func()
}

// SurfaceOption configures a Surface.
type SurfaceOption func(*Surface)

// WithTimeoutFlash sets how long a timeout indicator stays visible.
func WithTimeoutFlash(d time.Duration) SurfaceOption {
	return func(s *Surface) {
		if d > 0 {
			s.flash = d
		}
	}
}

func WithSurfaceMetrics(m *metrics.Metrics) SurfaceOption {
	return func(s *Surface) { s.metrics = m }
}

// NewSurface creates a surface for one court. Its resources live until Close
// or until ctx is cancelled.
func NewSurface(ctx context.Context, id court.Identity, r Renderer, log logger.Logger, opts ...SurfaceOption) *Surface {
	s := &Surface{
		id:       id,
		renderer: r,
		guard:    NewGuard(ctx),
		log:      log.With("court_id", id.CourtID),
		flash:    DefaultTimeoutFlash,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Court returns the surface's court.
func (s *Surface) Court() court.Identity {
	return s.id
}

// Guard returns the surface's resource guard.
func (s *Surface) Guard() *Guard {
	return s.guard
}

// State returns the last applied match.
func (s *Surface) State() (models.MatchState, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state, s.hasState
}

// Apply renders state if its normalized form differs from the last one drawn.
// It reports whether a frame was drawn. Calls after Close are ignored.
func (s *Surface) Apply(state models.MatchState) bool {
	key, err := match.Canonical(state, s.id.Variant)
	if err != nil {
		s.log.Warn("Dropping unserializable state", "error", err)
		return false
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.guard.Closed() {
		return false
	}
	if s.hasState && key == s.last {
		return false
	}

	normalized := match.NormalizeState(state, s.id.Variant)
	if err := s.renderer.Render(presentation.MapForDisplay(normalized, s.id.Variant)); err != nil {
		s.log.Warn("Render failed, keeping last frame", "error", err)
		return false
	}
	s.state, s.hasState, s.last = normalized, true, key
	return true
}

// ApplyPayload decodes and applies a serialized match. Invalid payloads are
// logged and dropped.
func (s *Surface) ApplyPayload(data []byte, channel string) bool {
	state, err := match.Decode(data, s.id.Variant)
	if err != nil {
		s.log.Warn("Dropping invalid payload", "channel", channel, "error", err)
		s.metrics.PropagationDropped(channel)
		return false
	}
	return s.Apply(state)
}

// ShowTimeout flashes the indicator for a team's timeout slot (1-based) on
// the side the team currently occupies. Zero hides the indicator; numbers
// outside the court's slots are ignored.
func (s *Surface) ShowTimeout(team models.Team, number int) {
	tr, ok := s.renderer.(TimeoutRenderer)
	if !ok {
		return
	}
	slots := s.id.Variant.WithDefaults().TimeoutSlots
	if number < 0 || number > slots {
		s.log.Debug("Ignoring timeout indicator out of range", "number", number)
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.guard.Closed() {
		return
	}
	if s.stopFlash != nil {
		s.stopFlash()
		s.stopFlash = nil
	}
	if number == 0 {
		s.hide(tr)
		return
	}

	side := presentation.PhysicalSide(s.state, s.id.Variant, team)
	if err := tr.ShowTimeout(side, number); err != nil {
		s.log.Warn("Timeout indicator failed", "error", err)
		return
	}
	s.stopFlash = s.guard.After(s.flash, func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		s.hide(tr)
	})
}

func (s *Surface) hide(tr TimeoutRenderer) {
	if err := tr.HideTimeout(); err != nil {
		s.log.Warn("Hiding timeout indicator failed", "error", err)
	}
}

// AttachBus applies storage events written under this court's namespace.
func (s *Surface) AttachBus(bus *propagation.Bus) {
	unsubscribe := bus.OnStorage(func(e propagation.StorageEvent) {
		if e.Key != s.id.StorageNamespace {
			return
		}
		s.ApplyPayload([]byte(e.NewValue), metrics.ChannelStorage)
	})
	s.guard.Defer(unsubscribe)
}

// AttachTopic applies this court's topic messages until the surface closes.
func (s *Surface) AttachTopic(topic *propagation.Topic) error {
	return topic.Subscribe(s.guard.Context(), s.id.CourtID, func(u propagation.Update) {
		switch u.Type {
		case propagation.TypeScoreboardUpdate:
			s.Apply(u.State)
		case propagation.TypeShowTimeout:
			s.ShowTimeout(u.Team, u.TimeoutNumber)
		}
	})
}

// Close tears down every timer, listener and subscription of the surface.
func (s *Surface) Close() {
	s.guard.Close()
}
