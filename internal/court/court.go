// Package court resolves which court a request or surface belongs to.
package court

import (
	"fmt"
	"regexp"
	"sort"
	"strings"

	"github.com/abrezinsky/courtboard/internal/match"
)

const (
	// DefaultCourtID is used whenever the court cannot be determined.
	DefaultCourtID = "001"
	// NamespacePrefix prefixes every court's storage key.
	NamespacePrefix = "volleyballScoreData_"

	maxIDDigits = 6
)

var pathPattern = regexp.MustCompile(`courts/(\d+)`)

// Identity is the explicit per-court context handed to every operation and renderer.
type Identity struct {
	CourtID          string        `json:"courtId"`
	DisplayName      string        `json:"displayName"`
	StorageNamespace string        `json:"storageNamespace"`
	Variant          match.Variant `json:"variant"`
}

// NormalizeID pads a numeric court id to three digits.
// It reports false for empty or non-numeric input.
func NormalizeID(raw string) (string, bool) {
	raw = strings.TrimSpace(raw)
	if raw == "" || len(raw) > maxIDDigits {
		return "", false
	}
	for _, r := range raw {
		if r < '0' || r > '9' {
			return "", false
		}
	}
	if len(raw) < 3 {
		raw = strings.Repeat("0", 3-len(raw)) + raw
	}
	return raw, true
}

// FromID resolves an explicit court id, falling back to DefaultCourtID.
func FromID(raw string) Identity {
	id, ok := NormalizeID(raw)
	if !ok {
		id = DefaultCourtID
	}
	return newIdentity(id, "", match.DefaultVariant())
}

// FromPath resolves the court from a path such as /courts/3/display.
func FromPath(path string) Identity {
	m := pathPattern.FindStringSubmatch(path)
	if m == nil {
		return FromID("")
	}
	return FromID(m[1])
}

// Namespace returns the storage key for a normalized court id.
func Namespace(courtID string) string {
	return NamespacePrefix + courtID
}

// DefaultDisplayName is the name shown when a court has no configured name.
func DefaultDisplayName(courtID string) string {
	return fmt.Sprintf("Court %s", courtID)
}

func newIdentity(id, name string, v match.Variant) Identity {
	if name == "" {
		name = DefaultDisplayName(id)
	}
	return Identity{
		CourtID:          id,
		DisplayName:      name,
		StorageNamespace: Namespace(id),
		Variant:          v.WithDefaults(),
	}
}

// Entry configures one court.
type Entry struct {
	ID       string
	Name     string
	Password string
	Variant  match.Variant
}

// Registry holds the configured courts.
type Registry struct {
	courts    map[string]Identity
	passwords map[string]string
	order     []string
}

// NewRegistry builds a registry. Entries with invalid ids are skipped; later duplicates win.
func NewRegistry(entries []Entry) *Registry {
	r := &Registry{
		courts:    make(map[string]Identity, len(entries)),
		passwords: make(map[string]string, len(entries)),
	}
	for _, e := range entries {
		id, ok := NormalizeID(e.ID)
		if !ok {
			continue
		}
		if _, seen := r.courts[id]; !seen {
			r.order = append(r.order, id)
		}
		r.courts[id] = newIdentity(id, e.Name, e.Variant)
		r.passwords[id] = e.Password
	}
	sort.Strings(r.order)
	return r
}

// Lookup returns the configured court for a raw id.
func (r *Registry) Lookup(raw string) (Identity, bool) {
	id, ok := NormalizeID(raw)
	if !ok {
		return Identity{}, false
	}
	ident, ok := r.courts[id]
	return ident, ok
}

// Resolve returns the configured court, or the pure resolution when unconfigured.
func (r *Registry) Resolve(raw string) Identity {
	if ident, ok := r.Lookup(raw); ok {
		return ident
	}
	return FromID(raw)
}

// All returns the configured courts in id order.
func (r *Registry) All() []Identity {
	out := make([]Identity, 0, len(r.order))
	for _, id := range r.order {
		out = append(out, r.courts[id])
	}
	return out
}

// Credential returns the court's display name and password.
func (r *Registry) Credential(courtID string) (name, password string, ok bool) {
	ident, ok := r.Lookup(courtID)
	if !ok {
		return "", "", false
	}
	return ident.DisplayName, r.passwords[ident.CourtID], true
}

// SetPassword replaces a court's password, e.g. with a generated one.
func (r *Registry) SetPassword(courtID, password string) bool {
	ident, ok := r.Lookup(courtID)
	if !ok {
		return false
	}
	r.passwords[ident.CourtID] = password
	return true
}
