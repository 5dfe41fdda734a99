package services

import (
	"context"
	"fmt"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/abrezinsky/courtboard/internal/court"
	"github.com/abrezinsky/courtboard/internal/logger"
	"github.com/abrezinsky/courtboard/internal/match"
	"github.com/abrezinsky/courtboard/internal/metrics"
	"github.com/abrezinsky/courtboard/internal/models"
	"github.com/abrezinsky/courtboard/internal/presentation"
)

// Operation names used for spans, metrics and logs.
const (
	OpAddPoints         = "AddPoints"
	OpToggleTimeout     = "ToggleTimeout"
	OpResetSet          = "ResetSet"
	OpToggleCourtSwap   = "ToggleCourtSwap"
	OpFinalizeSet       = "FinalizeSet"
	OpAdjustSetScore    = "AdjustSetScore"
	OpToggleVideoReview = "ToggleVideoReview"
	OpEndVideoReview    = "EndVideoReview"
	OpEdit              = "Edit"
	OpResetAll          = "ResetAll"
)

// StateStore is the persistence the control operations need. persistence.Store satisfies it.
type StateStore interface {
	Read(ctx context.Context, id court.Identity) models.MatchState
	Peek(ctx context.Context, id court.Identity) (models.MatchState, time.Time, bool)
	Update(ctx context.Context, id court.Identity, fn func(*models.MatchState) error) (models.MatchState, error)
}

// Publisher announces changes on the cross-device topic. propagation.Topic satisfies it.
type Publisher interface {
	PublishUpdate(ctx context.Context, courtID string, state models.MatchState) error
	PublishTimeout(ctx context.Context, courtID string, team models.Team, number int) error
}

// TimeoutResult reports which slot a timeout press used. Zero means the slots were reset.
type TimeoutResult struct {
	Team          models.Team `json:"team"`
	TimeoutNumber int         `json:"timeoutNumber"`
}

// EditRequest changes one text field. Side is only used for team names.
type EditRequest struct {
	Field string      `json:"field"`
	Side  models.Side `json:"side,omitempty"`
	Value string      `json:"value"`
}

// ControlService applies control operations to a court's match. Buttons name
// physical sides; the service resolves them to logical teams against the
// match's current swap state before mutating.
type ControlService struct {
	log       logger.Logger
	store     StateStore
	courts    *court.Registry
	publisher Publisher
	metrics   *metrics.Metrics
	tracer    trace.Tracer
	now       func() time.Time
}

// ControlOption configures a ControlService.
type ControlOption func(*ControlService)

// WithPublisher announces every change on the cross-device topic.
func WithPublisher(p Publisher) ControlOption {
	return func(s *ControlService) { s.publisher = p }
}

func WithMetrics(m *metrics.Metrics) ControlOption {
	return func(s *ControlService) { s.metrics = m }
}

func WithTracer(t trace.Tracer) ControlOption {
	return func(s *ControlService) { s.tracer = t }
}

// WithClock replaces time.Now for audit timestamps.
func WithClock(now func() time.Time) ControlOption {
	return func(s *ControlService) { s.now = now }
}

// NewControlService creates a new ControlService
func NewControlService(log logger.Logger, store StateStore, courts *court.Registry, opts ...ControlOption) *ControlService {
	s := &ControlService{
		log:    log,
		store:  store,
		courts: courts,
		tracer: otel.Tracer("courtboard/services"),
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Court returns the configured court for a raw id.
func (s *ControlService) Court(courtID string) (court.Identity, error) {
	id, ok := s.courts.Lookup(courtID)
	if !ok {
		return court.Identity{}, ErrCourtNotFound
	}
	return id, nil
}

// State returns the court's current match, initializing it if needed.
func (s *ControlService) State(ctx context.Context, courtID string) (models.MatchState, error) {
	id, err := s.Court(courtID)
	if err != nil {
		return models.MatchState{}, err
	}
	return s.store.Read(ctx, id), nil
}

// View returns the court's match mapped onto physical positions.
func (s *ControlService) View(ctx context.Context, courtID string) (presentation.View, error) {
	id, err := s.Court(courtID)
	if err != nil {
		return presentation.View{}, err
	}
	return presentation.MapForDisplay(s.store.Read(ctx, id), id.Variant), nil
}

// AddPoints adds delta to the team drawn on side. Only a positive delta moves the serve.
func (s *ControlService) AddPoints(ctx context.Context, courtID string, side models.Side, delta int) (models.MatchState, error) {
	return s.apply(ctx, OpAddPoints, courtID, func(id court.Identity, m *models.MatchState, ts string) error {
		if err := checkSide(side); err != nil {
			return err
		}
		team := presentation.ResolveSide(*m, id.Variant, side)
		match.AddPoints(m, team, delta, ts)
		return nil
	})
}

// ToggleTimeout uses the next timeout slot of the team drawn on side, wrapping
// to all unused once every slot is taken, and flashes it on every surface.
func (s *ControlService) ToggleTimeout(ctx context.Context, courtID string, side models.Side) (models.MatchState, TimeoutResult, error) {
	var result TimeoutResult
	var normalizedID string
	state, err := s.apply(ctx, OpToggleTimeout, courtID, func(id court.Identity, m *models.MatchState, ts string) error {
		if err := checkSide(side); err != nil {
			return err
		}
		normalizedID = id.CourtID
		result.Team = presentation.ResolveSide(*m, id.Variant, side)
		result.TimeoutNumber = match.ToggleTimeout(m, id.Variant, result.Team, ts)
		return nil
	})
	if err != nil {
		return state, TimeoutResult{}, err
	}
	if s.publisher != nil {
		if perr := s.publisher.PublishTimeout(ctx, normalizedID, result.Team, result.TimeoutNumber); perr != nil {
			s.log.Warn("Failed to publish timeout", "court_id", courtID, "error", perr)
		}
	}
	return state, result, nil
}

// ResetSet clears points, timeouts, serve and video review. It requires confirm.
func (s *ControlService) ResetSet(ctx context.Context, courtID string, confirm bool) (models.MatchState, error) {
	return s.apply(ctx, OpResetSet, courtID, func(id court.Identity, m *models.MatchState, ts string) error {
		if !confirm {
			return ErrConfirmationRequired
		}
		match.ResetSet(m, id.Variant, ts)
		return nil
	})
}

// ToggleCourtSwap switches sides according to the court's swap policy.
func (s *ControlService) ToggleCourtSwap(ctx context.Context, courtID string) (models.MatchState, error) {
	return s.apply(ctx, OpToggleCourtSwap, courtID, func(id court.Identity, m *models.MatchState, ts string) error {
		match.ToggleCourtSwap(m, id.Variant, ts)
		return nil
	})
}

// FinalizeSet credits the set to the team with more points. Tied sets are rejected.
func (s *ControlService) FinalizeSet(ctx context.Context, courtID string) (models.MatchState, match.SetResult, error) {
	var result match.SetResult
	state, err := s.apply(ctx, OpFinalizeSet, courtID, func(id court.Identity, m *models.MatchState, ts string) error {
		var err error
		result, err = match.FinalizeSet(m, id.Variant, ts)
		return err
	})
	if err != nil {
		return state, match.SetResult{}, err
	}
	if result.MatchOver {
		s.log.Info("Match over", "court_id", courtID, "summary", result.Summary)
	}
	return state, result, nil
}

// AdjustSetScore corrects the set count of the team drawn on side.
func (s *ControlService) AdjustSetScore(ctx context.Context, courtID string, side models.Side, delta int) (models.MatchState, error) {
	return s.apply(ctx, OpAdjustSetScore, courtID, func(id court.Identity, m *models.MatchState, ts string) error {
		if err := checkSide(side); err != nil {
			return err
		}
		team := presentation.ResolveSide(*m, id.Variant, side)
		match.AdjustSetScore(m, id.Variant, team, delta, ts)
		return nil
	})
}

// ToggleVideoReview starts a review of kind, or ends the running one.
func (s *ControlService) ToggleVideoReview(ctx context.Context, courtID, kind string) (models.MatchState, error) {
	return s.apply(ctx, OpToggleVideoReview, courtID, func(_ court.Identity, m *models.MatchState, ts string) error {
		match.ToggleVideoReview(m, kind, ts)
		return nil
	})
}

func (s *ControlService) EndVideoReview(ctx context.Context, courtID string) (models.MatchState, error) {
	return s.apply(ctx, OpEndVideoReview, courtID, func(_ court.Identity, m *models.MatchState, ts string) error {
		match.EndVideoReview(m, ts)
		return nil
	})
}

// Edit changes the tournament name or the name of the team drawn on req.Side.
func (s *ControlService) Edit(ctx context.Context, courtID string, req EditRequest) (models.MatchState, error) {
	return s.apply(ctx, OpEdit, courtID, func(id court.Identity, m *models.MatchState, ts string) error {
		switch req.Field {
		case match.FieldTournamentName:
			return match.EditTournamentName(m, req.Value, ts)
		case match.FieldTeamName:
			if err := checkSide(req.Side); err != nil {
				return err
			}
			team := presentation.ResolveSide(*m, id.Variant, req.Side)
			return match.EditTeamName(m, team, req.Value, ts)
		}
		return ErrUnknownField
	})
}

// ResetAll replaces the match with a fresh one, optionally seeded with names.
// It requires confirm.
func (s *ControlService) ResetAll(ctx context.Context, courtID string, confirm bool, setup *match.Setup) (models.MatchState, error) {
	return s.apply(ctx, OpResetAll, courtID, func(id court.Identity, m *models.MatchState, _ string) error {
		if !confirm {
			return ErrConfirmationRequired
		}
		fresh, err := match.ResetAll(id.Variant, setup)
		if err != nil {
			return err
		}
		*m = fresh
		return nil
	})
}

func checkSide(side models.Side) error {
	if side != models.SideLeft && side != models.SideRight {
		return ErrInvalidSide
	}
	return nil
}

type mutation func(id court.Identity, m *models.MatchState, ts string) error

// apply runs one operation under the court's lock, persists the result and
// announces it. A rejected mutation leaves the stored match untouched.
func (s *ControlService) apply(ctx context.Context, op, courtID string, fn mutation) (state models.MatchState, err error) {
	ctx, span := s.tracer.Start(ctx, "ControlService."+op, trace.WithAttributes(
		attribute.String("operation", op),
		attribute.String("court_id", courtID),
	))
	defer span.End()
	defer func() {
		s.metrics.ControlOperation(op, err)
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		}
	}()

	id, err := s.Court(courtID)
	if err != nil {
		return models.MatchState{}, err
	}

	ts := match.Timestamp(s.now())
	state, err = s.store.Update(ctx, id, func(m *models.MatchState) error {
		return fn(id, m, ts)
	})
	if err != nil {
		s.log.Debug("Control operation rejected", "op", op, "court_id", id.CourtID, "error", err)
		return models.MatchState{}, err
	}

	s.log.Debug("Control operation applied", "op", op, "court_id", id.CourtID)
	if s.publisher != nil {
		if perr := s.publisher.PublishUpdate(ctx, id.CourtID, state); perr != nil {
			s.log.Warn("Failed to publish update", "court_id", id.CourtID, "error", fmt.Errorf("%s: %w", op, perr))
		}
	}
	return state, nil
}
