package match

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/abrezinsky/courtboard/internal/errors"
	"github.com/abrezinsky/courtboard/internal/models"
)

// Audit record action names.
const (
	ActionScore            = "score"
	ActionTimeout          = "timeout"
	ActionReset            = "reset"
	ActionCourtChange      = "court_change"
	ActionEndSet           = "end_set"
	ActionGameEnd          = "game_end"
	ActionSetAdjust        = "set_adjust"
	ActionVideoReviewStart = "video_review_start"
	ActionVideoReviewEnd   = "video_review_end"
	ActionEdit             = "edit"
)

var (
	// ErrTiedSet is returned when a set is finalized with equal points.
	ErrTiedSet = errors.Validation("cannot finalize a tied set")
	// ErrEmptyName is returned when an edit would leave a name blank.
	ErrEmptyName = errors.Validation("name cannot be empty")
	// ErrNameTooLong is returned when an edit exceeds the field's length limit.
	ErrNameTooLong = errors.Validation("name is too long")
	// ErrUnknownField is returned for edits to anything but the tournament or a team name.
	ErrUnknownField = errors.Validation("unknown field")
)

// Editable text fields.
const (
	FieldTournamentName = "tournamentName"
	FieldTeamName       = "teamName"
)

// SetResult describes the outcome of FinalizeSet.
type SetResult struct {
	Winner    models.Team `json:"winner"`
	MatchOver bool        `json:"matchOver"`
	Summary   string      `json:"summary,omitempty"`
}

// Setup seeds a full reset. Empty fields fall back to the defaults.
type Setup struct {
	TournamentName string `json:"tournamentName"`
	TeamA          string `json:"teamA"`
	TeamB          string `json:"teamB"`
}

func record(s *models.MatchState, action, ts string, fields map[string]any) {
	s.ActionHistory = append(s.ActionHistory, models.NewActionRecord(action, ts, fields))
}

// AddPoints adds delta to the team's points, clamped to [0, MaxPoints].
// Only a positive delta moves the serve.
func AddPoints(s *models.MatchState, team models.Team, delta int, ts string) {
	t := s.Team(team)
	t.Points = clamp(t.Points+delta, 0, MaxPoints)
	if delta > 0 {
		s.ServingTeam = team
	}
	record(s, ActionScore, ts, map[string]any{"team": team, "points": delta})
}

// ToggleTimeout marks the team's first unused timeout and returns its 1-based
// number. When every slot is already used it clears them all and returns 0.
func ToggleTimeout(s *models.MatchState, v Variant, team models.Team, ts string) int {
	t := s.Team(team)
	if len(t.Timeouts) != v.slots() {
		t.Timeouts = resize(t.Timeouts, v.slots())
	}

	number := 0
	for i, used := range t.Timeouts {
		if !used {
			t.Timeouts[i] = true
			number = i + 1
			break
		}
	}
	if number == 0 {
		t.Timeouts = make([]bool, v.slots())
	}
	record(s, ActionTimeout, ts, map[string]any{"team": team, "timeoutNumber": number})
	return number
}

// ResetSet zeroes points and timeouts and clears the serve and video review.
// Set counts and the current set are kept.
func ResetSet(s *models.MatchState, v Variant, ts string) {
	clearSet(s, v)
	s.VideoReviewActive = false
	s.VideoReviewType = nil
	record(s, ActionReset, ts, nil)
}

// ToggleCourtSwap performs a court change under the variant's swap policy.
// Applying it twice restores the original state apart from the audit trail.
func ToggleCourtSwap(s *models.MatchState, v Variant, ts string) {
	if v.WithDefaults().SwapPolicy == SwapExchange {
		s.TeamA, s.TeamB = s.TeamB, s.TeamA
		if len(s.SetScore) == 2 {
			s.SetScore[0], s.SetScore[1] = s.SetScore[1], s.SetScore[0]
		}
		s.ServingTeam = s.ServingTeam.Other()
	}
	s.CourtSwapped = !s.CourtSwapped

	var serving any
	if s.ServingTeam != models.NoTeam {
		serving = s.ServingTeam
	}
	record(s, ActionCourtChange, ts, map[string]any{
		"courtSwapped": s.CourtSwapped,
		"servingTeam":  serving,
	})
}

// FinalizeSet credits the set to the team with more points. Until a team has
// won SetsToWinMatch sets the match advances to the next set; after that the
// match is over and the state keeps its final set.
func FinalizeSet(s *models.MatchState, v Variant, ts string) (SetResult, error) {
	v = v.WithDefaults()
	var winner models.Team
	switch {
	case s.TeamA.Points > s.TeamB.Points:
		winner = models.TeamA
	case s.TeamB.Points > s.TeamA.Points:
		winner = models.TeamB
	default:
		return SetResult{}, ErrTiedSet
	}

	SetSetWins(s, v, winner, SetWins(s, v, winner)+1)
	winsA := SetWins(s, v, models.TeamA)
	winsB := SetWins(s, v, models.TeamB)

	if winsA < SetsToWinMatch && winsB < SetsToWinMatch {
		s.CurrentSet = clamp(s.CurrentSet+1, MinSet, MaxSet)
		clearSet(s, v)
		fields := map[string]any{"currentSet": s.CurrentSet, "winner": winner}
		addSetFields(fields, s, v)
		record(s, ActionEndSet, ts, fields)
		return SetResult{Winner: winner}, nil
	}

	matchWinner := models.TeamA
	if winsB > winsA {
		matchWinner = models.TeamB
	}
	fields := map[string]any{"winner": matchWinner}
	addSetFields(fields, s, v)
	record(s, ActionGameEnd, ts, fields)

	return SetResult{
		Winner:    matchWinner,
		MatchOver: true,
		Summary:   fmt.Sprintf("%s %d - %d %s", s.TeamA.Name, winsA, winsB, s.TeamB.Name),
	}, nil
}

func addSetFields(fields map[string]any, s *models.MatchState, v Variant) {
	if v.SetTracking == SetTrackingPerTeam {
		fields["setsWon"] = []int{SetWins(s, v, models.TeamA), SetWins(s, v, models.TeamB)}
		return
	}
	fields["setScore"] = append([]int(nil), s.SetScore...)
}

// AdjustSetScore corrects a team's set count directly and recomputes the current set.
func AdjustSetScore(s *models.MatchState, v Variant, team models.Team, delta int, ts string) {
	SetSetWins(s, v, team, SetWins(s, v, team)+delta)
	s.CurrentSet = SetFromTotals(s, v)
	record(s, ActionSetAdjust, ts, map[string]any{
		"team":       team,
		"delta":      delta,
		"sets":       SetWins(s, v, team),
		"currentSet": s.CurrentSet,
	})
}

// StartVideoReview raises the video review banner. A blank kind uses DefaultVideoReviewType.
func StartVideoReview(s *models.MatchState, kind, ts string) {
	kind = strings.TrimSpace(kind)
	if kind == "" {
		kind = DefaultVideoReviewType
	}
	kind = truncate(kind, MaxVideoReviewTypeLen)
	s.VideoReviewActive = true
	s.VideoReviewType = &kind
	record(s, ActionVideoReviewStart, ts, map[string]any{"videoReviewType": kind})
}

// EndVideoReview clears the video review banner.
func EndVideoReview(s *models.MatchState, ts string) {
	s.VideoReviewActive = false
	s.VideoReviewType = nil
	record(s, ActionVideoReviewEnd, ts, nil)
}

// ToggleVideoReview starts a review when none is active and ends it otherwise.
func ToggleVideoReview(s *models.MatchState, kind, ts string) {
	if s.VideoReviewActive {
		EndVideoReview(s, ts)
		return
	}
	StartVideoReview(s, kind, ts)
}

// CheckName trims value and enforces non-emptiness and a rune limit.
func CheckName(value string, limit int) (string, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return "", ErrEmptyName
	}
	if utf8.RuneCountInString(value) > limit {
		return "", errors.Wrap(ErrNameTooLong, errors.ErrValidation, fmt.Sprintf("max %d characters", limit))
	}
	return value, nil
}

// EditTournamentName replaces the tournament name.
func EditTournamentName(s *models.MatchState, value, ts string) error {
	name, err := CheckName(value, MaxTournamentNameLen)
	if err != nil {
		return err
	}
	s.TournamentName = name
	record(s, ActionEdit, ts, map[string]any{"field": FieldTournamentName, "value": name})
	return nil
}

// EditTeamName replaces a team's name.
func EditTeamName(s *models.MatchState, team models.Team, value, ts string) error {
	name, err := CheckName(value, MaxTeamNameEditLen)
	if err != nil {
		return err
	}
	s.Team(team).Name = name
	record(s, ActionEdit, ts, map[string]any{"field": FieldTeamName, "team": team, "value": name})
	return nil
}

// ResetAll returns a fresh match, optionally seeded from setup.
// Names are validated like inline edits; nothing is returned on error.
func ResetAll(v Variant, setup *Setup) (models.MatchState, error) {
	s := Defaults(v)
	if setup == nil {
		return s, nil
	}
	if setup.TournamentName != "" {
		name, err := CheckName(setup.TournamentName, MaxTournamentNameLen)
		if err != nil {
			return models.MatchState{}, err
		}
		s.TournamentName = name
	}
	if setup.TeamA != "" {
		name, err := CheckName(setup.TeamA, MaxTeamNameEditLen)
		if err != nil {
			return models.MatchState{}, err
		}
		s.TeamA.Name = name
	}
	if setup.TeamB != "" {
		name, err := CheckName(setup.TeamB, MaxTeamNameEditLen)
		if err != nil {
			return models.MatchState{}, err
		}
		s.TeamB.Name = name
	}
	return s, nil
}

func clearSet(s *models.MatchState, v Variant) {
	s.TeamA.Points = 0
	s.TeamB.Points = 0
	s.TeamA.Timeouts = make([]bool, v.slots())
	s.TeamB.Timeouts = make([]bool, v.slots())
	s.ServingTeam = models.NoTeam
}

func resize(timeouts []bool, n int) []bool {
	out := make([]bool, n)
	copy(out, timeouts)
	return out
}
