// Package match defines the per-court match record rules: variants, defaults,
// normalization, validation and serialization.
package match

import (
	"github.com/abrezinsky/courtboard/internal/errors"
)

// SetTracking selects how won sets are stored.
type SetTracking string

const (
	// SetTrackingPair keeps a setScore pair on the match.
	SetTrackingPair SetTracking = "pair"
	// SetTrackingPerTeam keeps setsWon on each team.
	SetTrackingPerTeam SetTracking = "perTeam"
)

// SwapPolicy selects what a court change does.
type SwapPolicy string

const (
	// SwapDisplay only flips which physical side renders which logical team.
	SwapDisplay SwapPolicy = "display"
	// SwapExchange exchanges the two team records; positions stay fixed.
	SwapExchange SwapPolicy = "exchange"
)

// Range limits shared by normalization, validation and control operations.
const (
	MaxPoints             = 100
	MaxSetWins            = 5
	MinSet                = 1
	MaxSet                = 5
	SetsToWinMatch        = 3
	MaxTournamentNameLen  = 30
	MaxTeamNameLen        = 20
	MaxTeamNameEditLen    = 8
	MaxVideoReviewTypeLen = 30
)

// Variant parameterizes a court's scoreboard.
type Variant struct {
	TimeoutSlots int         `yaml:"timeout_slots" json:"timeoutSlots"`
	SetTracking  SetTracking `yaml:"set_tracking" json:"setTracking"`
	SwapPolicy   SwapPolicy  `yaml:"swap_policy" json:"swapPolicy"`
}

// DefaultVariant is two timeouts, a setScore pair and display-only swapping.
func DefaultVariant() Variant {
	return Variant{TimeoutSlots: 2, SetTracking: SetTrackingPair, SwapPolicy: SwapDisplay}
}

// WithDefaults fills zero-valued fields from DefaultVariant.
func (v Variant) WithDefaults() Variant {
	d := DefaultVariant()
	if v.TimeoutSlots == 0 {
		v.TimeoutSlots = d.TimeoutSlots
	}
	if v.SetTracking == "" {
		v.SetTracking = d.SetTracking
	}
	if v.SwapPolicy == "" {
		v.SwapPolicy = d.SwapPolicy
	}
	return v
}

// Validate rejects unsupported combinations.
func (v Variant) Validate() error {
	if v.TimeoutSlots != 2 && v.TimeoutSlots != 3 {
		return errors.Validationf("timeout slots must be 2 or 3, got %d", v.TimeoutSlots)
	}
	switch v.SetTracking {
	case SetTrackingPair, SetTrackingPerTeam:
	default:
		return errors.Validationf("unknown set tracking mode %q", v.SetTracking)
	}
	switch v.SwapPolicy {
	case SwapDisplay, SwapExchange:
	default:
		return errors.Validationf("unknown swap policy %q", v.SwapPolicy)
	}
	return nil
}

// slots returns a usable slot count even for an unvalidated variant.
func (v Variant) slots() int {
	if v.TimeoutSlots == 3 {
		return 3
	}
	return 2
}
