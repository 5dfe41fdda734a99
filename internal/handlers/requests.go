package handlers

import "github.com/abrezinsky/courtboard/internal/match"

// LoginRequest is a court sign-in
type LoginRequest struct {
	CourtID  string `json:"courtId"`
	Password string `json:"password"`
}

// AdminLoginRequest is an organizer sign-in
type AdminLoginRequest struct {
	Password string `json:"password"`
}

// SideRequest names a physical side: A/B or left/right
type SideRequest struct {
	Side string `json:"side"`
}

// DeltaRequest adjusts a counter on one side
type DeltaRequest struct {
	Side  string `json:"side"`
	Delta int    `json:"delta"`
}

// ConfirmRequest carries the confirmation for destructive operations
type ConfirmRequest struct {
	Confirm bool `json:"confirm"`
}

// VideoReviewRequest toggles a challenge; Type is the challenge kind
type VideoReviewRequest struct {
	Type string `json:"type"`
}

// EditRequest changes the tournament name or a team name
type EditRequest struct {
	Field string `json:"field"`
	Side  string `json:"side"`
	Value string `json:"value"`
}

// ResetAllRequest starts a new match, optionally with setup values
type ResetAllRequest struct {
	Confirm        bool   `json:"confirm"`
	TournamentName string `json:"tournamentName"`
	TeamA          string `json:"teamA"`
	TeamB          string `json:"teamB"`
}

// setup returns nil when no setup value was sent
func (r ResetAllRequest) setup() *match.Setup {
	if r.TournamentName == "" && r.TeamA == "" && r.TeamB == "" {
		return nil
	}
	return &match.Setup{TournamentName: r.TournamentName, TeamA: r.TeamA, TeamB: r.TeamB}
}

// SettingsUpdateRequest represents a request to update settings
type SettingsUpdateRequest struct {
	BaseURL string `json:"base_url"`
}

// DatabaseResetRequest represents a request to reset database tables
type DatabaseResetRequest struct {
	Tables []string `json:"tables"`
}
