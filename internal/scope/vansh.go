// Package scope derives and applies the lineage-branch ("vansh") visibility
// filter for branch administrators.
package scope

import (
	"strconv"
	"strings"

	"vanshavali/internal/payload"
	"vanshavali/pkg/requestcontext"
)

// Vansh is a lineage-branch identifier. Branches are usually numbered, but
// legacy data carries free-form names, so both representations are kept.
type Vansh struct {
	Number  int64
	Name    string
	Numeric bool
}

// ParseVansh interprets a raw claim or query value: integers match
// numerically, anything else matches case-insensitively as an exact string.
func ParseVansh(raw string) Vansh {
	raw = strings.TrimSpace(raw)
	if n, err := strconv.ParseInt(raw, 10, 64); err == nil {
		return Vansh{Number: n, Numeric: true, Name: raw}
	}
	return Vansh{Name: raw}
}

// Matches reports whether a document value (number or string) refers to this
// branch. Numeric branches match numbers and numeric strings: JSON
// submissions store vansh as a number while multipart form fields arrive as
// strings, and both shapes coexist in stored data. Named branches match
// strings case-insensitively. This mirrors the storage-level query the mongo
// store issues, so in-memory and persistent filtering agree.
func (v Vansh) Matches(value any) bool {
	if v.Numeric {
		switch tv := value.(type) {
		case int:
			return int64(tv) == v.Number
		case int32:
			return int64(tv) == v.Number
		case int64:
			return tv == v.Number
		case float64:
			return int64(tv) == v.Number && tv == float64(int64(tv))
		case string:
			n, err := strconv.ParseInt(strings.TrimSpace(tv), 10, 64)
			return err == nil && n == v.Number
		default:
			return false
		}
	}
	s, ok := value.(string)
	if !ok {
		return false
	}
	return strings.EqualFold(s, v.Name)
}

// Filter restricts reads and writes to a single branch. The zero value is
// unrestricted.
type Filter struct {
	vansh *Vansh
}

// FromActor derives the scope filter for the caller. Only admins carrying a
// managedVansh claim are restricted; everyone else sees everything their
// endpoints already allow.
func FromActor(actor requestcontext.Actor) Filter {
	if !actor.IsAdmin() || actor.ManagedVansh == "" {
		return Filter{}
	}
	v := ParseVansh(actor.ManagedVansh)
	return Filter{vansh: &v}
}

// ForVansh builds a filter pinned to an explicit branch value.
func ForVansh(raw string) Filter {
	if strings.TrimSpace(raw) == "" {
		return Filter{}
	}
	v := ParseVansh(raw)
	return Filter{vansh: &v}
}

// Restricted reports whether the filter pins a branch.
func (f Filter) Restricted() bool { return f.vansh != nil }

// Vansh returns the pinned branch, if any.
func (f Filter) Vansh() (Vansh, bool) {
	if f.vansh == nil {
		return Vansh{}, false
	}
	return *f.vansh, true
}

// WithQueryParam honors an explicit vansh query parameter only when the
// scope filter did not already fix the field; scope takes precedence.
func (f Filter) WithQueryParam(raw string) Filter {
	if f.Restricted() || strings.TrimSpace(raw) == "" {
		return f
	}
	return ForVansh(raw)
}

// MatchesDocument checks a registration or member document against the
// filter using the personalDetails.vansh field.
func (f Filter) MatchesDocument(doc payload.Document) bool {
	if f.vansh == nil {
		return true
	}
	value, ok := doc.GetPath("personalDetails.vansh")
	if !ok {
		return false
	}
	return f.vansh.Matches(value)
}
