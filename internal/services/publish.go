package services

import (
	"bytes"
	"context"
	"encoding/json"
	stderrors "errors"
	"time"

	"github.com/abrezinsky/courtboard/internal/court"
	"github.com/abrezinsky/courtboard/internal/errors"
	"github.com/abrezinsky/courtboard/internal/logger"
	"github.com/abrezinsky/courtboard/internal/repository"
	"github.com/abrezinsky/courtboard/pkg/scoreboardapi"
)

// ErrNothingPublished is returned when no payload was posted for a court yet.
// It matches scoreboardapi.ErrNotFound so in-process pollers treat it like a 404.
var ErrNothingPublished = errors.Wrap(scoreboardapi.ErrNotFound, errors.ErrNotFound, "not found")

// Published is the last payload posted for a court
type Published struct {
	CourtID   string          `json:"court_id"`
	Data      json.RawMessage `json:"data"`
	UpdatedAt time.Time       `json:"updated_at"`
}

// PublishService is the server side of the remote persistence endpoint: a
// last-write-wins key/value store of JSON objects per court.
type PublishService struct {
	log  logger.Logger
	repo repository.PublishedRepository
}

// NewPublishService creates a new PublishService
func NewPublishService(log logger.Logger, repo repository.PublishedRepository) *PublishService {
	return &PublishService{log: log, repo: repo}
}

// Publish stores payload as the court's current match. The payload must be a
// JSON object; its content is otherwise stored as sent.
func (s *PublishService) Publish(ctx context.Context, courtID string, payload []byte) (*Published, error) {
	id, ok := court.NormalizeID(courtID)
	if !ok {
		return nil, errors.Validationf("invalid court id %q", courtID)
	}
	trimmed := bytes.TrimSpace(payload)
	var obj map[string]json.RawMessage
	if len(trimmed) == 0 || trimmed[0] != '{' || json.Unmarshal(trimmed, &obj) != nil {
		return nil, errors.Validation("body must be a JSON object")
	}

	updated, err := s.repo.PublishScoreboard(ctx, id, trimmed)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrInternal, "failed to store scoreboard")
	}
	s.log.Debug("Scoreboard published", "court_id", id, "bytes", len(trimmed))
	return &Published{CourtID: id, Data: json.RawMessage(trimmed), UpdatedAt: updated}, nil
}

// Latest returns the last payload posted for the court
func (s *PublishService) Latest(ctx context.Context, courtID string) (*Published, error) {
	id, ok := court.NormalizeID(courtID)
	if !ok {
		return nil, errors.Validationf("invalid court id %q", courtID)
	}
	rec, err := s.repo.GetPublishedScoreboard(ctx, id)
	if stderrors.Is(err, repository.ErrNotFound) {
		return nil, ErrNothingPublished
	}
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrInternal, "failed to read scoreboard")
	}
	return &Published{CourtID: id, Data: json.RawMessage(rec.Payload), UpdatedAt: rec.UpdatedAt}, nil
}

// Post lets the service act as the persistence adapter's remote when no
// external endpoint is configured.
func (s *PublishService) Post(ctx context.Context, courtID string, payload []byte) error {
	_, err := s.Publish(ctx, courtID, payload)
	return err
}

// Get lets display pollers read from the service directly.
func (s *PublishService) Get(ctx context.Context, courtID string) ([]byte, error) {
	p, err := s.Latest(ctx, courtID)
	if err != nil {
		return nil, err
	}
	return p.Data, nil
}
