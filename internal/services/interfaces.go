package services

import (
	"context"

	"github.com/abrezinsky/courtboard/internal/court"
	"github.com/abrezinsky/courtboard/internal/match"
	"github.com/abrezinsky/courtboard/internal/models"
	"github.com/abrezinsky/courtboard/internal/presentation"
)

// ControlServicer defines the interface for control operations
type ControlServicer interface {
	Court(courtID string) (court.Identity, error)
	State(ctx context.Context, courtID string) (models.MatchState, error)
	View(ctx context.Context, courtID string) (presentation.View, error)
	AddPoints(ctx context.Context, courtID string, side models.Side, delta int) (models.MatchState, error)
	ToggleTimeout(ctx context.Context, courtID string, side models.Side) (models.MatchState, TimeoutResult, error)
	ResetSet(ctx context.Context, courtID string, confirm bool) (models.MatchState, error)
	ToggleCourtSwap(ctx context.Context, courtID string) (models.MatchState, error)
	FinalizeSet(ctx context.Context, courtID string) (models.MatchState, match.SetResult, error)
	AdjustSetScore(ctx context.Context, courtID string, side models.Side, delta int) (models.MatchState, error)
	ToggleVideoReview(ctx context.Context, courtID, kind string) (models.MatchState, error)
	EndVideoReview(ctx context.Context, courtID string) (models.MatchState, error)
	Edit(ctx context.Context, courtID string, req EditRequest) (models.MatchState, error)
	ResetAll(ctx context.Context, courtID string, confirm bool, setup *match.Setup) (models.MatchState, error)
}

// CourtServicer defines the interface for court listing operations
type CourtServicer interface {
	ListCourts(ctx context.Context) ([]CourtStatus, error)
	Status(ctx context.Context, courtID string) (*CourtStatus, error)
	Links(ctx context.Context, courtID string) ([]CourtLink, error)
	GenerateQRImage(ctx context.Context, courtID string) ([]byte, error)
	ClearCourt(ctx context.Context, courtID string) error
}

// PublishServicer defines the interface for the remote persistence endpoint
type PublishServicer interface {
	Publish(ctx context.Context, courtID string, payload []byte) (*Published, error)
	Latest(ctx context.Context, courtID string) (*Published, error)
}

// HistoryServicer defines the interface for audit trail exports
type HistoryServicer interface {
	ExportXLSX(ctx context.Context, courtID string) ([]byte, string, error)
}

// SettingsServicer defines the interface for settings operations
type SettingsServicer interface {
	GetBaseURL(ctx context.Context) (string, error)
	SetBaseURL(ctx context.Context, url string) error
	GetSetting(ctx context.Context, key string) (string, error)
	SetSetting(ctx context.Context, key, value string) error
	AllSettings(ctx context.Context) (map[string]interface{}, error)
	UpdateSettings(ctx context.Context, settings Settings) error
	ResetTables(ctx context.Context, tables []string) (*ResetTablesResult, error)
	SetBroadcaster(b Broadcaster)
}

// Ensure services implement their interfaces
var (
	_ ControlServicer  = (*ControlService)(nil)
	_ CourtServicer    = (*CourtService)(nil)
	_ PublishServicer  = (*PublishService)(nil)
	_ HistoryServicer  = (*HistoryService)(nil)
	_ SettingsServicer = (*SettingsService)(nil)
)
