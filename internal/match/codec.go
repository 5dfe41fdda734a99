package match

import (
	"encoding/json"
	"fmt"

	"github.com/abrezinsky/courtboard/internal/errors"
	"github.com/abrezinsky/courtboard/internal/models"
)

// Serialize encodes a match for storage and transport.
func Serialize(s models.MatchState) ([]byte, error) {
	return json.Marshal(s)
}

// Deserialize decodes a serialized match without normalizing it.
func Deserialize(data []byte) (models.MatchState, error) {
	var s models.MatchState
	if err := json.Unmarshal(data, &s); err != nil {
		return models.MatchState{}, err
	}
	return s, nil
}

// Decode parses untrusted bytes, validates the structure and returns the normalized match.
// Unparseable or structurally invalid input is an error; callers decide the fallback.
func Decode(data []byte, v Variant) (models.MatchState, error) {
	var raw any
	if err := json.Unmarshal(data, &raw); err != nil {
		return models.MatchState{}, errors.Wrap(err, errors.ErrValidation, "malformed match state")
	}
	if err := Validate(raw, v); err != nil {
		return models.MatchState{}, err
	}
	return Normalize(raw, v), nil
}

// DecodeOrDefault is Decode with the default match as the recovery value.
func DecodeOrDefault(data []byte, v Variant) (models.MatchState, error) {
	s, err := Decode(data, v)
	if err != nil {
		return Defaults(v), err
	}
	return s, nil
}

// Canonical returns the serialized form of the normalized match, used to compare payloads.
func Canonical(s models.MatchState, v Variant) (string, error) {
	data, err := Serialize(NormalizeState(s, v))
	if err != nil {
		return "", fmt.Errorf("serialize: %w", err)
	}
	return string(data), nil
}

// Repair always yields a usable match. Parseable input is normalized even when
// it fails validation; the validation error is still returned for logging.
// Unparseable input yields the defaults.
func Repair(data []byte, v Variant) (models.MatchState, error) {
	var raw any
	if err := json.Unmarshal(data, &raw); err != nil {
		return Defaults(v), errors.Wrap(err, errors.ErrValidation, "malformed match state")
	}
	return Normalize(raw, v), Validate(raw, v)
}
