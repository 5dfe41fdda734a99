package repository

import (
	"context"
	"time"
)

// ScoreboardRepository defines the durable per-court match store
type ScoreboardRepository interface {
	SaveScoreboard(ctx context.Context, namespace, courtID string, payload []byte) (time.Time, error)
	GetScoreboard(ctx context.Context, namespace string) (*ScoreboardRecord, error)
	ListScoreboards(ctx context.Context) ([]ScoreboardRecord, error)
	DeleteScoreboard(ctx context.Context, namespace string) error
}

// PublishedRepository defines the remote endpoint's store
type PublishedRepository interface {
	PublishScoreboard(ctx context.Context, courtID string, payload []byte) (time.Time, error)
	GetPublishedScoreboard(ctx context.Context, courtID string) (*ScoreboardRecord, error)
}

// SettingsRepository defines settings data operations
type SettingsRepository interface {
	GetSetting(ctx context.Context, key string) (string, error)
	SetSetting(ctx context.Context, key, value string) error
	ClearTable(ctx context.Context, table string) error
}

// FullRepository combines all repository interfaces
// Use this when a service needs access to multiple domains
type FullRepository interface {
	ScoreboardRepository
	PublishedRepository
	SettingsRepository
}

// Ensure Repository implements all interfaces
var _ FullRepository = (*Repository)(nil)
