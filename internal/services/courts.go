package services

import (
	"context"
	"fmt"

	"github.com/skip2/go-qrcode"

	"github.com/abrezinsky/courtboard/internal/court"
	"github.com/abrezinsky/courtboard/internal/logger"
	"github.com/abrezinsky/courtboard/internal/match"
	"github.com/abrezinsky/courtboard/internal/models"
	"github.com/abrezinsky/courtboard/internal/repository"
)

const qrSize = 256

// CourtStatus is one dashboard row
type CourtStatus struct {
	CourtID     string        `json:"courtId"`
	DisplayName string        `json:"displayName"`
	Variant     match.Variant `json:"variant"`
	Active      bool          `json:"active"`
	LastUpdated string        `json:"lastUpdated,omitempty"`
	CurrentSet  int           `json:"currentSet"`
	TeamA       string        `json:"teamA"`
	TeamB       string        `json:"teamB"`
	ScoreA      int           `json:"scoreA"`
	ScoreB      int           `json:"scoreB"`
	SetsA       int           `json:"setsA"`
	SetsB       int           `json:"setsB"`
	DisplayURL  string        `json:"displayUrl"`
	ControlURL  string        `json:"controlUrl"`
}

// CourtLink points at another court's surfaces
type CourtLink struct {
	CourtID     string `json:"courtId"`
	DisplayName string `json:"displayName"`
	DisplayURL  string `json:"displayUrl"`
	ControlURL  string `json:"controlUrl"`
}

// CourtService lists courts and builds links to their surfaces
type CourtService struct {
	log      logger.Logger
	repo     repository.ScoreboardRepository
	store    StateStore
	courts   *court.Registry
	settings SettingsServicer
}

// NewCourtService creates a new CourtService
func NewCourtService(log logger.Logger, repo repository.ScoreboardRepository, store StateStore, courts *court.Registry, settings SettingsServicer) *CourtService {
	return &CourtService{log: log, repo: repo, store: store, courts: courts, settings: settings}
}

// DisplayPath is the overlay page of a court
func DisplayPath(courtID string) string {
	return fmt.Sprintf("/courts/%s/display", courtID)
}

// ControlPath is the control page of a court
func ControlPath(courtID string) string {
	return fmt.Sprintf("/courts/%s/control", courtID)
}

func (s *CourtService) baseURL(ctx context.Context) string {
	base, err := s.settings.GetBaseURL(ctx)
	if err != nil {
		s.log.Warn("Could not read base URL, using relative links", "error", err)
		return ""
	}
	return base
}

// ListCourts returns every configured court with its current match summary.
// Courts that have never been opened are listed as inactive.
func (s *CourtService) ListCourts(ctx context.Context) ([]CourtStatus, error) {
	records, err := s.repo.ListScoreboards(ctx)
	if err != nil {
		return nil, err
	}
	byNamespace := make(map[string]repository.ScoreboardRecord, len(records))
	for _, rec := range records {
		byNamespace[rec.Key] = rec
	}

	base := s.baseURL(ctx)
	var statuses []CourtStatus
	for _, id := range s.courts.All() {
		status := newStatus(id, base)
		if rec, ok := byNamespace[id.StorageNamespace]; ok {
			state, rerr := match.Repair(rec.Payload, id.Variant)
			if rerr != nil {
				s.log.Warn("Stored match is invalid", "court_id", id.CourtID, "error", rerr)
			}
			fillStatus(&status, state, id.Variant)
			status.Active = true
			status.LastUpdated = match.Timestamp(rec.UpdatedAt)
		}
		statuses = append(statuses, status)
	}
	return statuses, nil
}

// Status returns one court's summary without initializing its match
func (s *CourtService) Status(ctx context.Context, courtID string) (*CourtStatus, error) {
	id, ok := s.courts.Lookup(courtID)
	if !ok {
		return nil, ErrCourtNotFound
	}
	status := newStatus(id, s.baseURL(ctx))
	if state, updated, ok := s.store.Peek(ctx, id); ok {
		fillStatus(&status, state, id.Variant)
		status.Active = true
		status.LastUpdated = match.Timestamp(updated)
	}
	return &status, nil
}

func newStatus(id court.Identity, base string) CourtStatus {
	return CourtStatus{
		CourtID:     id.CourtID,
		DisplayName: id.DisplayName,
		Variant:     id.Variant,
		CurrentSet:  match.MinSet,
		DisplayURL:  base + DisplayPath(id.CourtID),
		ControlURL:  base + ControlPath(id.CourtID),
	}
}

func fillStatus(status *CourtStatus, state models.MatchState, v match.Variant) {
	status.CurrentSet = state.CurrentSet
	status.TeamA = state.TeamA.Name
	status.TeamB = state.TeamB.Name
	status.ScoreA = state.TeamA.Points
	status.ScoreB = state.TeamB.Points
	status.SetsA = match.SetWins(&state, v, models.TeamA)
	status.SetsB = match.SetWins(&state, v, models.TeamB)
}

// Links returns the surfaces of every configured court except courtID
func (s *CourtService) Links(ctx context.Context, courtID string) ([]CourtLink, error) {
	self, ok := s.courts.Lookup(courtID)
	if !ok {
		return nil, ErrCourtNotFound
	}
	base := s.baseURL(ctx)
	links := []CourtLink{}
	for _, id := range s.courts.All() {
		if id.CourtID == self.CourtID {
			continue
		}
		links = append(links, CourtLink{
			CourtID:     id.CourtID,
			DisplayName: id.DisplayName,
			DisplayURL:  base + DisplayPath(id.CourtID),
			ControlURL:  base + ControlPath(id.CourtID),
		})
	}
	return links, nil
}

// GenerateQRImage renders a PNG QR code of the court's overlay URL
func (s *CourtService) GenerateQRImage(ctx context.Context, courtID string) ([]byte, error) {
	id, ok := s.courts.Lookup(courtID)
	if !ok {
		return nil, ErrCourtNotFound
	}
	base, err := s.settings.GetBaseURL(ctx)
	if err != nil {
		return nil, err
	}
	if base == "" {
		return nil, ErrBaseURLNotConfigured
	}
	return qrcode.Encode(base+DisplayPath(id.CourtID), qrcode.Medium, qrSize)
}

// ClearCourt drops the court's stored match. The next read starts a fresh one.
func (s *CourtService) ClearCourt(ctx context.Context, courtID string) error {
	id, ok := s.courts.Lookup(courtID)
	if !ok {
		return ErrCourtNotFound
	}
	if err := s.repo.DeleteScoreboard(ctx, id.StorageNamespace); err != nil {
		return err
	}
	s.log.Info("Cleared court", "court_id", id.CourtID)
	return nil
}
