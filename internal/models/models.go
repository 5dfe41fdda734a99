package models

import (
	"bytes"
	"encoding/json"
	"fmt"
	"sort"
)

// Team identifies a logical team. The zero value means no team.
type Team string

const (
	NoTeam Team = ""
	TeamA  Team = "A"
	TeamB  Team = "B"
)

// Other returns the opposing team. NoTeam stays NoTeam.
func (t Team) Other() Team {
	switch t {
	case TeamA:
		return TeamB
	case TeamB:
		return TeamA
	}
	return NoTeam
}

// MarshalJSON encodes NoTeam as null.
func (t Team) MarshalJSON() ([]byte, error) {
	if t == NoTeam {
		return []byte("null"), nil
	}
	return json.Marshal(string(t))
}

// UnmarshalJSON accepts "A", "B" or null.
func (t *Team) UnmarshalJSON(data []byte) error {
	if bytes.Equal(data, []byte("null")) {
		*t = NoTeam
		return nil
	}
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	switch Team(s) {
	case TeamA, TeamB:
		*t = Team(s)
		return nil
	}
	return fmt.Errorf("invalid team %q", s)
}

// Side is a physical position on a rendered scoreboard.
type Side string

const (
	SideLeft  Side = "left"
	SideRight Side = "right"
)

// ParseSide accepts the control buttons' A/B identifiers (physical left/right)
// as well as the spelled-out names.
func ParseSide(s string) (Side, bool) {
	switch s {
	case "A", "a", "left", "LEFT", "Left":
		return SideLeft, true
	case "B", "b", "right", "RIGHT", "Right":
		return SideRight, true
	}
	return "", false
}

// TeamState holds one logical team's live values.
type TeamState struct {
	Name     string `json:"name"`
	Points   int    `json:"points"`
	Timeouts []bool `json:"timeouts"`
	SetsWon  *int   `json:"setsWon,omitempty"`
}

// MatchState is the shared record for one court.
type MatchState struct {
	TournamentName    string         `json:"tournamentName"`
	TeamA             TeamState      `json:"teamA"`
	TeamB             TeamState      `json:"teamB"`
	SetScore          []int          `json:"setScore,omitempty"`
	CurrentSet        int            `json:"currentSet"`
	ServingTeam       Team           `json:"servingTeam"`
	CourtSwapped      bool           `json:"courtSwapped"`
	VideoReviewActive bool           `json:"videoReviewActive"`
	VideoReviewType   *string        `json:"videoReviewType"`
	IsPaused          bool           `json:"isPaused"`
	ActionHistory     []ActionRecord `json:"actionHistory"`
}

// Team returns a pointer to the named logical team's record.
func (m *MatchState) Team(t Team) *TeamState {
	if t == TeamB {
		return &m.TeamB
	}
	return &m.TeamA
}

// ActionRecord is one audit trail entry, encoded flat as {action, ...fields, timestamp}.
// Field values are kept as raw JSON so a record survives any number of round trips byte-for-byte.
type ActionRecord struct {
	Action    string
	Timestamp string
	Fields    map[string]json.RawMessage
}

// NewActionRecord builds a record, encoding each field value as JSON.
func NewActionRecord(action, timestamp string, fields map[string]any) ActionRecord {
	rec := ActionRecord{Action: action, Timestamp: timestamp}
	for k, v := range fields {
		if k == "action" || k == "timestamp" {
			continue
		}
		raw, err := json.Marshal(v)
		if err != nil {
			continue
		}
		if rec.Fields == nil {
			rec.Fields = make(map[string]json.RawMessage, len(fields))
		}
		rec.Fields[k] = raw
	}
	return rec
}

// Field decodes a single field into dst. It reports whether the field was present and decodable.
func (r ActionRecord) Field(name string, dst any) bool {
	raw, ok := r.Fields[name]
	if !ok {
		return false
	}
	return json.Unmarshal(raw, dst) == nil
}

// FieldNames returns the payload keys in sorted order.
func (r ActionRecord) FieldNames() []string {
	names := make([]string, 0, len(r.Fields))
	for k := range r.Fields {
		names = append(names, k)
	}
	sort.Strings(names)
	return names
}

func (r ActionRecord) MarshalJSON() ([]byte, error) {
	out := make(map[string]json.RawMessage, len(r.Fields)+2)
	for k, v := range r.Fields {
		out[k] = v
	}
	action, err := json.Marshal(r.Action)
	if err != nil {
		return nil, err
	}
	ts, err := json.Marshal(r.Timestamp)
	if err != nil {
		return nil, err
	}
	out["action"] = action
	out["timestamp"] = ts
	return json.Marshal(out)
}

func (r *ActionRecord) UnmarshalJSON(data []byte) error {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	*r = ActionRecord{}
	for k, v := range raw {
		switch k {
		case "action":
			if err := json.Unmarshal(v, &r.Action); err != nil {
				return fmt.Errorf("action: %w", err)
			}
		case "timestamp":
			if err := json.Unmarshal(v, &r.Timestamp); err != nil {
				return fmt.Errorf("timestamp: %w", err)
			}
		default:
			if r.Fields == nil {
				r.Fields = make(map[string]json.RawMessage, len(raw))
			}
			r.Fields[k] = v
		}
	}
	return nil
}

// WSMessage represents a message pushed to websocket clients
type WSMessage struct {
	Type    string `json:"type"`
	CourtID string `json:"courtId,omitempty"`
	Payload any    `json:"payload"`
}
