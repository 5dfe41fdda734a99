// Package presentation maps logical teams onto physical scoreboard positions.
package presentation

import (
	"fmt"

	"github.com/abrezinsky/courtboard/internal/match"
	"github.com/abrezinsky/courtboard/internal/models"
)

// View is everything a surface needs to draw one frame, already in physical order.
type View struct {
	TournamentName    string           `json:"tournamentName"`
	CurrentSet        int              `json:"currentSet"`
	CourtSwapped      bool             `json:"courtSwapped"`
	LeftTeamID        models.Team      `json:"leftTeamId"`
	RightTeamID       models.Team      `json:"rightTeamId"`
	LeftTeam          models.TeamState `json:"leftTeam"`
	RightTeam         models.TeamState `json:"rightTeam"`
	LeftScore         int              `json:"leftScore"`
	RightScore        int              `json:"rightScore"`
	LeftTimeouts      []bool           `json:"leftTimeouts"`
	RightTimeouts     []bool           `json:"rightTimeouts"`
	LeftSets          int              `json:"leftSets"`
	RightSets         int              `json:"rightSets"`
	ServingTeam       models.Team      `json:"servingTeam"`
	ServerSide        models.Side      `json:"serverSide,omitempty"`
	ServeDirection    models.Side      `json:"serveDirection,omitempty"`
	ServeLabel        string           `json:"serveLabel"`
	VideoReviewActive bool             `json:"videoReviewActive"`
	VideoReviewType   string           `json:"videoReviewType,omitempty"`
}

// SetScoreText renders the set count in physical order, e.g. "2 - 1".
func (v View) SetScoreText() string {
	return fmt.Sprintf("%d - %d", v.LeftSets, v.RightSets)
}

// ResolveTeam maps a physical side to the logical team currently drawn there.
func ResolveTeam(side models.Side, swapped bool) models.Team {
	left := side != models.SideRight
	if left != swapped {
		return models.TeamA
	}
	return models.TeamB
}

// SideOf maps a logical team to the physical side it currently occupies.
// It is the exact inverse of ResolveTeam.
func SideOf(team models.Team, swapped bool) models.Side {
	if (team == models.TeamA) != swapped {
		return models.SideLeft
	}
	return models.SideRight
}

// Opposite returns the other physical side.
func Opposite(side models.Side) models.Side {
	if side == models.SideLeft {
		return models.SideRight
	}
	return models.SideLeft
}

// EffectiveSwap reports whether positions are inverted for rendering.
// Under the exchange policy the records themselves move, so positions stay fixed.
func EffectiveSwap(s models.MatchState, v match.Variant) bool {
	return s.CourtSwapped && v.WithDefaults().SwapPolicy == match.SwapDisplay
}

// ResolveSide resolves a control button's physical side against the match's swap state.
func ResolveSide(s models.MatchState, v match.Variant, side models.Side) models.Team {
	return ResolveTeam(side, EffectiveSwap(s, v))
}

// PhysicalSide returns where the logical team is drawn for this match.
func PhysicalSide(s models.MatchState, v match.Variant, team models.Team) models.Side {
	return SideOf(team, EffectiveSwap(s, v))
}

// MapForDisplay computes the physical layout of a match.
func MapForDisplay(s models.MatchState, v match.Variant) View {
	v = v.WithDefaults()
	swapped := EffectiveSwap(s, v)
	leftID := ResolveTeam(models.SideLeft, swapped)
	rightID := leftID.Other()

	left := *s.Team(leftID)
	right := *s.Team(rightID)

	view := View{
		TournamentName:    s.TournamentName,
		CurrentSet:        s.CurrentSet,
		CourtSwapped:      s.CourtSwapped,
		LeftTeamID:        leftID,
		RightTeamID:       rightID,
		LeftTeam:          left,
		RightTeam:         right,
		LeftScore:         left.Points,
		RightScore:        right.Points,
		LeftTimeouts:      append([]bool(nil), left.Timeouts...),
		RightTimeouts:     append([]bool(nil), right.Timeouts...),
		LeftSets:          match.SetWins(&s, v, leftID),
		RightSets:         match.SetWins(&s, v, rightID),
		ServingTeam:       s.ServingTeam,
		VideoReviewActive: s.VideoReviewActive,
	}
	if s.VideoReviewType != nil {
		view.VideoReviewType = *s.VideoReviewType
	}

	if s.ServingTeam == models.TeamA || s.ServingTeam == models.TeamB {
		view.ServerSide = SideOf(s.ServingTeam, swapped)
		view.ServeDirection = Opposite(view.ServerSide)
		view.ServeLabel = s.Team(s.ServingTeam).Name
	}
	return view
}
