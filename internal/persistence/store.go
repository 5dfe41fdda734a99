// Package persistence owns the durable copy of every court's match.
package persistence

import (
	"context"
	stderrors "errors"
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/abrezinsky/courtboard/internal/court"
	"github.com/abrezinsky/courtboard/internal/errors"
	"github.com/abrezinsky/courtboard/internal/logger"
	"github.com/abrezinsky/courtboard/internal/match"
	"github.com/abrezinsky/courtboard/internal/metrics"
	"github.com/abrezinsky/courtboard/internal/models"
	"github.com/abrezinsky/courtboard/internal/repository"
)

const (
	forwardQueueSize      = 256
	defaultForwardTimeout = 5 * time.Second
)

// Remote receives a copy of every write. scoreboardapi.Client satisfies it.
type Remote interface {
	Post(ctx context.Context, courtID string, payload []byte) error
}

// Notifier is told about every completed write. propagation.Bus satisfies it.
type Notifier interface {
	Notify(courtID, key string, state models.MatchState, payload []byte)
}

type forward struct {
	courtID string
	payload []byte
}

// Store reads and writes matches by court namespace. Reads never fail: a
// missing record is initialized to the defaults and a corrupt one is repaired.
// Writes notify listeners and are forwarded to the remote in order, without
// the caller waiting on the network.
type Store struct {
	repo     repository.ScoreboardRepository
	remote   Remote
	notifier Notifier
	log      logger.Logger
	metrics  *metrics.Metrics
	tracer   trace.Tracer

	forwardTimeout time.Duration
	queue          chan forward
	done           chan struct{}

	mu     sync.Mutex
	closed bool
	locks  map[string]*sync.Mutex
}

// Option configures a Store.
type Option func(*Store)

// WithRemote forwards every write to r.
func WithRemote(r Remote) Option {
	return func(s *Store) { s.remote = r }
}

// WithNotifier announces every write through n.
func WithNotifier(n Notifier) Option {
	return func(s *Store) { s.notifier = n }
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Store) { s.metrics = m }
}

func WithTracer(t trace.Tracer) Option {
	return func(s *Store) { s.tracer = t }
}

// WithForwardTimeout bounds each remote POST.
func WithForwardTimeout(d time.Duration) Option {
	return func(s *Store) {
		if d > 0 {
			s.forwardTimeout = d
		}
	}
}

func NewStore(log logger.Logger, repo repository.ScoreboardRepository, opts ...Option) *Store {
	s := &Store{
		repo:           repo,
		log:            log,
		tracer:         otel.Tracer("courtboard/persistence"),
		forwardTimeout: defaultForwardTimeout,
		locks:          make(map[string]*sync.Mutex),
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.remote != nil {
		s.queue = make(chan forward, forwardQueueSize)
		s.done = make(chan struct{})
		go s.forwardLoop()
	}
	return s
}

// Read returns the court's current match. A repository failure yields the
// defaults without touching the stored record.
func (s *Store) Read(ctx context.Context, id court.Identity) models.MatchState {
	state, found, err := s.load(ctx, id)
	if err != nil {
		s.log.Warn("Could not read match, using defaults", "court_id", id.CourtID, "error", err)
		return state
	}
	if found {
		return state
	}

	written, werr := s.Write(ctx, id, state)
	if werr != nil {
		s.log.Warn("Could not initialize match", "court_id", id.CourtID, "error", werr)
		return state
	}
	s.log.Info("Initialized match", "court_id", id.CourtID, "namespace", id.StorageNamespace)
	return written
}

// load reads and repairs the stored match. A missing record yields the
// defaults with found false; any other repository error is returned.
func (s *Store) load(ctx context.Context, id court.Identity) (state models.MatchState, found bool, err error) {
	rec, err := s.repo.GetScoreboard(ctx, id.StorageNamespace)
	if stderrors.Is(err, repository.ErrNotFound) {
		return match.Defaults(id.Variant), false, nil
	}
	if err != nil {
		return match.Defaults(id.Variant), false, errors.Wrap(err, errors.ErrInternal, "failed to read match")
	}

	state, rerr := match.Repair(rec.Payload, id.Variant)
	if rerr != nil {
		s.log.Warn("Stored match was invalid and has been repaired", "court_id", id.CourtID, "namespace", id.StorageNamespace, "error", rerr)
	}
	return state, true, nil
}

// Peek returns the stored match without initializing a missing one.
func (s *Store) Peek(ctx context.Context, id court.Identity) (models.MatchState, time.Time, bool) {
	rec, err := s.repo.GetScoreboard(ctx, id.StorageNamespace)
	if err != nil {
		if !stderrors.Is(err, repository.ErrNotFound) {
			s.log.Warn("Could not read match", "court_id", id.CourtID, "error", err)
		}
		return models.MatchState{}, time.Time{}, false
	}
	state, _ := match.Repair(rec.Payload, id.Variant)
	return state, rec.UpdatedAt, true
}

// Write normalizes and stores state, then notifies and forwards it.
// It returns the match exactly as stored.
func (s *Store) Write(ctx context.Context, id court.Identity, state models.MatchState) (models.MatchState, error) {
	ctx, span := s.tracer.Start(ctx, "Store.Write", trace.WithAttributes(
		attribute.String("court_id", id.CourtID),
	))
	defer span.End()

	normalized := match.NormalizeState(state, id.Variant)
	payload, err := match.Serialize(normalized)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "serialize")
		s.metrics.StateWrite(err)
		return state, errors.Wrap(err, errors.ErrInternal, "failed to serialize match")
	}

	if _, err := s.repo.SaveScoreboard(ctx, id.StorageNamespace, id.CourtID, payload); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "save")
		s.metrics.StateWrite(err)
		s.log.Error("Failed to save match", "court_id", id.CourtID, "namespace", id.StorageNamespace, "error", err)
		return state, errors.Wrap(err, errors.ErrInternal, "failed to save match")
	}
	s.metrics.StateWrite(nil)

	if s.notifier != nil {
		s.notifier.Notify(id.CourtID, id.StorageNamespace, normalized, payload)
	}
	s.enqueue(forward{courtID: id.CourtID, payload: payload})
	return normalized, nil
}

// Update runs fn on the current match and writes the result. Updates to the
// same court from this process are serialized. A failed read or fn returning
// an error aborts without writing.
func (s *Store) Update(ctx context.Context, id court.Identity, fn func(*models.MatchState) error) (models.MatchState, error) {
	lock := s.lockFor(id.StorageNamespace)
	lock.Lock()
	defer lock.Unlock()

	state, _, err := s.load(ctx, id)
	if err != nil {
		s.log.Error("Failed to read match for update", "court_id", id.CourtID, "namespace", id.StorageNamespace, "error", err)
		return state, err
	}
	if err := fn(&state); err != nil {
		return state, err
	}
	return s.Write(ctx, id, state)
}

func (s *Store) lockFor(namespace string) *sync.Mutex {
	s.mu.Lock()
	defer s.mu.Unlock()
	l, ok := s.locks[namespace]
	if !ok {
		l = &sync.Mutex{}
		s.locks[namespace] = l
	}
	return l
}

func (s *Store) enqueue(f forward) {
	if s.queue == nil {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	select {
	case s.queue <- f:
	default:
		s.log.Warn("Remote forward queue full, dropping write", "court_id", f.courtID)
		s.metrics.RemoteForwardFailed()
	}
}

func (s *Store) forwardLoop() {
	defer close(s.done)
	for f := range s.queue {
		ctx, cancel := context.WithTimeout(context.Background(), s.forwardTimeout)
		err := s.remote.Post(ctx, f.courtID, f.payload)
		cancel()
		if err != nil {
			s.log.Warn("Failed to forward match to remote", "court_id", f.courtID, "error", err)
			s.metrics.RemoteForwardFailed()
		}
	}
}

// Close stops forwarding after the queued writes have been sent.
func (s *Store) Close() {
	if s.queue == nil {
		return
	}
	s.mu.Lock()
	if !s.closed {
		s.closed = true
		close(s.queue)
	}
	s.mu.Unlock()
	<-s.done
}
