package match

import (
	"encoding/json"
	"math"
	"unicode/utf8"

	"github.com/abrezinsky/courtboard/internal/errors"
)

// Validate is the structural gate applied before trusting external input.
// It checks required fields, types and ranges without repairing anything.
func Validate(raw any, v Variant) error {
	v = v.WithDefaults()

	obj, ok := raw.(map[string]any)
	if !ok {
		return errors.Validation("match state must be an object")
	}

	for _, field := range []string{"tournamentName", "teamA", "teamB", "currentSet"} {
		if _, ok := obj[field]; !ok {
			return errors.Validationf("missing required field %s", field)
		}
	}
	if _, ok := obj["tournamentName"].(string); !ok {
		return errors.Validation("tournamentName must be a string")
	}

	for _, key := range []string{"teamA", "teamB"} {
		if err := validateTeam(key, obj[key], v); err != nil {
			return err
		}
	}

	if v.SetTracking == SetTrackingPair {
		arr, ok := obj["setScore"].([]any)
		if !ok || len(arr) != 2 {
			return errors.Validation("setScore must be a pair")
		}
		for _, x := range arr {
			if !inRange(x, 0, MaxSetWins) {
				return errors.Validationf("setScore entries must be between 0 and %d", MaxSetWins)
			}
		}
	}

	if !inRange(obj["currentSet"], MinSet, MaxSet) {
		return errors.Validationf("currentSet must be between %d and %d", MinSet, MaxSet)
	}

	switch serving := obj["servingTeam"].(type) {
	case nil:
	case string:
		if serving != "A" && serving != "B" {
			return errors.Validationf("servingTeam must be A, B or null, got %q", serving)
		}
	default:
		return errors.Validation("servingTeam must be A, B or null")
	}

	if history, present := obj["actionHistory"]; present && history != nil {
		if _, ok := history.([]any); !ok {
			return errors.Validation("actionHistory must be an array")
		}
	}
	return nil
}

// Valid reports whether Validate accepts raw.
func Valid(raw any, v Variant) bool {
	return Validate(raw, v) == nil
}

func validateTeam(key string, raw any, v Variant) error {
	team, ok := raw.(map[string]any)
	if !ok {
		return errors.Validationf("%s must be an object", key)
	}

	name, ok := team["name"].(string)
	if !ok {
		return errors.Validationf("%s.name must be a string", key)
	}
	if utf8.RuneCountInString(name) > MaxTeamNameLen {
		return errors.Validationf("%s.name must be at most %d characters", key, MaxTeamNameLen)
	}

	if !inRange(team["points"], 0, MaxPoints) {
		return errors.Validationf("%s.points must be between 0 and %d", key, MaxPoints)
	}

	timeouts, ok := team["timeouts"].([]any)
	if !ok || len(timeouts) != v.slots() {
		return errors.Validationf("%s.timeouts must have %d entries", key, v.slots())
	}
	for _, t := range timeouts {
		if _, ok := t.(bool); !ok {
			return errors.Validationf("%s.timeouts entries must be booleans", key)
		}
	}

	if v.SetTracking == SetTrackingPerTeam {
		if !inRange(team["setsWon"], 0, MaxSetWins) {
			return errors.Validationf("%s.setsWon must be between 0 and %d", key, MaxSetWins)
		}
	}
	return nil
}

// inRange accepts only JSON numbers holding whole values within [lo, hi].
func inRange(x any, lo, hi int) bool {
	var f float64
	switch n := x.(type) {
	case float64:
		f = n
	case int:
		f = float64(n)
	case json.Number:
		parsed, err := n.Float64()
		if err != nil {
			return false
		}
		f = parsed
	default:
		return false
	}
	if math.IsNaN(f) || f != math.Trunc(f) {
		return false
	}
	return f >= float64(lo) && f <= float64(hi)
}
