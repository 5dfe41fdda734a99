package match

import (
	"time"

	"github.com/abrezinsky/courtboard/internal/models"
)

const (
	DefaultTournamentName  = "Tournament Name"
	DefaultTeamAName       = "Home"
	DefaultTeamBName       = "Away"
	DefaultVideoReviewType = "Other"
)

// Defaults returns a fresh match for the variant.
func Defaults(v Variant) models.MatchState {
	v = v.WithDefaults()
	s := models.MatchState{
		TournamentName: DefaultTournamentName,
		TeamA:          DefaultTeam(DefaultTeamAName, v),
		TeamB:          DefaultTeam(DefaultTeamBName, v),
		CurrentSet:     MinSet,
		ServingTeam:    models.NoTeam,
		ActionHistory:  []models.ActionRecord{},
	}
	if v.SetTracking == SetTrackingPair {
		s.SetScore = []int{0, 0}
	}
	return s
}

// DefaultTeam returns a team with zero points and unused timeouts.
func DefaultTeam(name string, v Variant) models.TeamState {
	t := models.TeamState{
		Name:     name,
		Timeouts: make([]bool, v.slots()),
	}
	if v.WithDefaults().SetTracking == SetTrackingPerTeam {
		zero := 0
		t.SetsWon = &zero
	}
	return t
}

// SetWins reports how many sets the team has won under the variant's tracking mode.
func SetWins(s *models.MatchState, v Variant, team models.Team) int {
	if v.WithDefaults().SetTracking == SetTrackingPerTeam {
		if w := s.Team(team).SetsWon; w != nil {
			return *w
		}
		return 0
	}
	if len(s.SetScore) != 2 {
		return 0
	}
	if team == models.TeamB {
		return s.SetScore[1]
	}
	return s.SetScore[0]
}

// SetSetWins stores a clamped set count for the team.
func SetSetWins(s *models.MatchState, v Variant, team models.Team, n int) {
	n = clamp(n, 0, MaxSetWins)
	if v.WithDefaults().SetTracking == SetTrackingPerTeam {
		s.Team(team).SetsWon = &n
		return
	}
	if len(s.SetScore) != 2 {
		s.SetScore = []int{0, 0}
	}
	if team == models.TeamB {
		s.SetScore[1] = n
	} else {
		s.SetScore[0] = n
	}
}

// SetFromTotals derives the current set from both teams' set wins.
func SetFromTotals(s *models.MatchState, v Variant) int {
	return clamp(SetWins(s, v, models.TeamA)+SetWins(s, v, models.TeamB)+1, MinSet, MaxSet)
}

// Timestamp formats t the way audit records store it.
func Timestamp(t time.Time) string {
	return t.UTC().Format("2006-01-02T15:04:05.000Z")
}

func clamp(n, lo, hi int) int {
	if n < lo {
		return lo
	}
	if n > hi {
		return hi
	}
	return n
}
