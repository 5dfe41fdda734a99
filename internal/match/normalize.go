package match

import (
	"encoding/json"
	"math"
	"strconv"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/abrezinsky/courtboard/internal/models"
)

// Normalize builds a usable match from any decoded JSON value. It never fails:
// missing or invalid fields fall back to defaults, numbers are clamped into
// range and over-length strings are truncated.
func Normalize(raw any, v Variant) models.MatchState {
	v = v.WithDefaults()
	s := Defaults(v)

	obj, ok := raw.(map[string]any)
	if !ok {
		return s
	}

	if name, ok := obj["tournamentName"].(string); ok {
		s.TournamentName = truncate(name, MaxTournamentNameLen)
	}

	rawA, _ := obj["teamA"].(map[string]any)
	rawB, _ := obj["teamB"].(map[string]any)
	s.TeamA = normalizeTeam(rawA, DefaultTeamAName, v)
	s.TeamB = normalizeTeam(rawB, DefaultTeamBName, v)

	pair, hasPair := normalizeSetScore(obj["setScore"])
	winsA, hasA := setsWonOf(rawA)
	winsB, hasB := setsWonOf(rawB)

	if v.SetTracking == SetTrackingPerTeam {
		if !hasA && hasPair {
			winsA = pair[0]
		}
		if !hasB && hasPair {
			winsB = pair[1]
		}
		s.TeamA.SetsWon = &winsA
		s.TeamB.SetsWon = &winsB
	} else {
		switch {
		case hasPair:
			s.SetScore = pair
		case hasA && hasB:
			s.SetScore = []int{winsA, winsB}
		}
	}

	if n, ok := toInt(obj["currentSet"]); ok && n != 0 {
		s.CurrentSet = clamp(n, MinSet, MaxSet)
	}

	if team, ok := obj["servingTeam"].(string); ok {
		switch models.Team(team) {
		case models.TeamA, models.TeamB:
			s.ServingTeam = models.Team(team)
		}
	}

	s.CourtSwapped = truthy(obj["courtSwapped"])
	s.VideoReviewActive = truthy(obj["videoReviewActive"])
	s.IsPaused = truthy(obj["isPaused"])

	if kind, ok := obj["videoReviewType"].(string); ok && kind != "" {
		kind = truncate(kind, MaxVideoReviewTypeLen)
		s.VideoReviewType = &kind
	}

	if history, ok := obj["actionHistory"].([]any); ok {
		s.ActionHistory = normalizeHistory(history)
	}

	return s
}

// NormalizeState re-normalizes an already typed match, e.g. one mutated by hand.
func NormalizeState(s models.MatchState, v Variant) models.MatchState {
	data, err := json.Marshal(s)
	if err != nil {
		return Defaults(v)
	}
	var raw any
	if err := json.Unmarshal(data, &raw); err != nil {
		return Defaults(v)
	}
	return Normalize(raw, v)
}

func normalizeTeam(obj map[string]any, defaultName string, v Variant) models.TeamState {
	t := DefaultTeam(defaultName, v)
	t.SetsWon = nil
	if obj == nil {
		return t
	}

	if name, ok := obj["name"].(string); ok {
		t.Name = truncate(name, MaxTeamNameLen)
	}
	if n, ok := toInt(obj["points"]); ok {
		t.Points = clamp(n, 0, MaxPoints)
	}
	if arr, ok := obj["timeouts"].([]any); ok && len(arr) == v.slots() {
		for i, used := range arr {
			t.Timeouts[i] = truthy(used)
		}
	}
	return t
}

func normalizeSetScore(raw any) ([]int, bool) {
	arr, ok := raw.([]any)
	if !ok || len(arr) != 2 {
		return nil, false
	}
	out := make([]int, 2)
	for i, x := range arr {
		n, _ := toInt(x)
		out[i] = clamp(n, 0, MaxSetWins)
	}
	return out, true
}

func setsWonOf(obj map[string]any) (int, bool) {
	if obj == nil {
		return 0, false
	}
	x, present := obj["setsWon"]
	if !present || x == nil {
		return 0, false
	}
	n, _ := toInt(x)
	return clamp(n, 0, MaxSetWins), true
}

func normalizeHistory(items []any) []models.ActionRecord {
	out := make([]models.ActionRecord, 0, len(items))
	for _, item := range items {
		obj, ok := item.(map[string]any)
		if !ok {
			continue
		}
		action, _ := obj["action"].(string)
		ts, _ := obj["timestamp"].(string)
		out = append(out, models.NewActionRecord(action, ts, obj))
	}
	return out
}

// toInt reads a leading integer the way a lenient form field would:
// numbers are truncated, numeric string prefixes are parsed, anything else fails.
func toInt(x any) (int, bool) {
	switch n := x.(type) {
	case float64:
		return floatToInt(n)
	case float32:
		return floatToInt(float64(n))
	case int:
		return n, true
	case int64:
		return floatToInt(float64(n))
	case json.Number:
		if i, err := n.Int64(); err == nil {
			return floatToInt(float64(i))
		}
		if f, err := n.Float64(); err == nil {
			return floatToInt(f)
		}
		return 0, false
	case string:
		return leadingInt(n)
	}
	return 0, false
}

func floatToInt(f float64) (int, bool) {
	if math.IsNaN(f) {
		return 0, false
	}
	f = math.Trunc(f)
	if f > math.MaxInt32 {
		return math.MaxInt32, true
	}
	if f < math.MinInt32 {
		return math.MinInt32, true
	}
	return int(f), true
}

func leadingInt(s string) (int, bool) {
	s = strings.TrimLeftFunc(s, unicode.IsSpace)
	end := 0
	if end < len(s) && (s[end] == '-' || s[end] == '+') {
		end++
	}
	digits := end
	for end < len(s) && s[end] >= '0' && s[end] <= '9' {
		end++
	}
	if end == digits {
		return 0, false
	}
	n, err := strconv.ParseInt(s[:end], 10, 64)
	if err != nil {
		if s[0] == '-' {
			return math.MinInt32, true
		}
		return math.MaxInt32, true
	}
	return floatToInt(float64(n))
}

// truthy mirrors loose boolean coercion: zero values are false, everything else true.
func truthy(x any) bool {
	switch b := x.(type) {
	case nil:
		return false
	case bool:
		return b
	case float64:
		return b != 0 && !math.IsNaN(b)
	case int:
		return b != 0
	case json.Number:
		f, err := b.Float64()
		return err != nil || f != 0
	case string:
		return b != ""
	}
	return true
}

func truncate(s string, max int) string {
	if !utf8.ValidString(s) {
		s = string([]rune(s))
	}
	if len(s) <= max {
		return s
	}
	r := []rune(s)
	if len(r) <= max {
		return s
	}
	return string(r[:max])
}
