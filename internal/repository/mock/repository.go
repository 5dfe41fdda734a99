package mock

import (
	"context"
	"time"

	"github.com/abrezinsky/courtboard/internal/repository"
)

// Repository wraps a real repository and allows injecting errors for testing.
//
// Usage:
//
//	realRepo := testutil.NewTestRepository(t)
//	mockRepo := mock.NewRepository(realRepo)
//	mockRepo.SaveScoreboardError = errors.New("disk full")
//	store := persistence.NewStore(log, mockRepo)
type Repository struct {
	repository.FullRepository

	// ===== Scoreboard Errors =====
	SaveScoreboardError   error
	GetScoreboardError    error
	ListScoreboardsError  error
	DeleteScoreboardError error

	// ===== Published Errors =====
	PublishScoreboardError      error
	GetPublishedScoreboardError error

	// ===== Settings Errors =====
	GetSettingError error
	SetSettingError error
	ClearTableError error

	// Saves counts successful SaveScoreboard calls.
	Saves int
}

// NewRepository creates a mock repository wrapping a real one
func NewRepository(real repository.FullRepository) *Repository {
	return &Repository{
		FullRepository: real,
	}
}

func (m *Repository) SaveScoreboard(ctx context.Context, namespace, courtID string, payload []byte) (time.Time, error) {
	if m.SaveScoreboardError != nil {
		return time.Time{}, m.SaveScoreboardError
	}
	m.Saves++
	return m.FullRepository.SaveScoreboard(ctx, namespace, courtID, payload)
}

func (m *Repository) GetScoreboard(ctx context.Context, namespace string) (*repository.ScoreboardRecord, error) {
	if m.GetScoreboardError != nil {
		return nil, m.GetScoreboardError
	}
	return m.FullRepository.GetScoreboard(ctx, namespace)
}

func (m *Repository) ListScoreboards(ctx context.Context) ([]repository.ScoreboardRecord, error) {
	if m.ListScoreboardsError != nil {
		return nil, m.ListScoreboardsError
	}
	return m.FullRepository.ListScoreboards(ctx)
}

func (m *Repository) DeleteScoreboard(ctx context.Context, namespace string) error {
	if m.DeleteScoreboardError != nil {
		return m.DeleteScoreboardError
	}
	return m.FullRepository.DeleteScoreboard(ctx, namespace)
}

func (m *Repository) PublishScoreboard(ctx context.Context, courtID string, payload []byte) (time.Time, error) {
	if m.PublishScoreboardError != nil {
		return time.Time{}, m.PublishScoreboardError
	}
	return m.FullRepository.PublishScoreboard(ctx, courtID, payload)
}

func (m *Repository) GetPublishedScoreboard(ctx context.Context, courtID string) (*repository.ScoreboardRecord, error) {
	if m.GetPublishedScoreboardError != nil {
		return nil, m.GetPublishedScoreboardError
	}
	return m.FullRepository.GetPublishedScoreboard(ctx, courtID)
}

func (m *Repository) GetSetting(ctx context.Context, key string) (string, error) {
	if m.GetSettingError != nil {
		return "", m.GetSettingError
	}
	return m.FullRepository.GetSetting(ctx, key)
}

func (m *Repository) SetSetting(ctx context.Context, key, value string) error {
	if m.SetSettingError != nil {
		return m.SetSettingError
	}
	return m.FullRepository.SetSetting(ctx, key, value)
}

func (m *Repository) ClearTable(ctx context.Context, table string) error {
	if m.ClearTableError != nil {
		return m.ClearTableError
	}
	return m.FullRepository.ClearTable(ctx, table)
}
