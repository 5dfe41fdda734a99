package handlers

import (
	"encoding/json"

	"github.com/abrezinsky/courtboard/internal/models"
)

// TimeoutResponse is the state after a timeout press and the slot it used
type TimeoutResponse struct {
	State         models.MatchState `json:"state"`
	Team          models.Team       `json:"team"`
	TimeoutNumber int               `json:"timeoutNumber"`
}

// FinalizeSetResponse is the state after closing a set with its outcome
type FinalizeSetResponse struct {
	State     models.MatchState `json:"state"`
	Winner    models.Team       `json:"winner"`
	MatchOver bool              `json:"matchOver"`
	Summary   string            `json:"summary"`
}

// PublishResponse acknowledges a remote POST
type PublishResponse struct {
	Status  string          `json:"status"`
	CourtID string          `json:"court_id"`
	Data    json.RawMessage `json:"data"`
}

// SettingsResponse is the response for settings
type SettingsResponse struct {
	BaseURL string `json:"base_url"`
}
