// Package member is the canonical collection of approved members. Serial
// numbers (serNo) are the edges of the family tree: fatherSerNo,
// motherSerNo, spouseSerNo and childrenSerNos all reference them.
package member

import (
	"context"

	"vanshavali/internal/payload"
	"vanshavali/internal/scope"
)

// Record is a stored member document plus its opaque id.
type Record struct {
	ID  string
	Doc payload.Document
}

// SerNo extracts the serial number from a member document, tolerating the
// numeric widths different writers may have stored.
func SerNo(doc payload.Document) int64 {
	v, ok := doc.GetPath("serNo")
	if !ok {
		return 0
	}
	switch n := v.(type) {
	case int:
		return int64(n)
	case int32:
		return int64(n)
	case int64:
		return n
	case float64:
		return int64(n)
	default:
		return 0
	}
}

// ListQuery drives the paginated member listing.
type ListQuery struct {
	Scope  scope.Filter
	Search string
	Page   int
	Limit  int
}

// Store persists approved members.
type Store interface {
	// Insert stores a new member. Returns sentinel.ErrConflict when the
	// document's serNo is already taken (unique-index backstop).
	Insert(ctx context.Context, doc payload.Document) (Record, error)
	// FindByID returns the full member including images.
	FindByID(ctx context.Context, id string) (Record, error)
	// FindByName looks a member up by exact first+last name, checking both
	// the nested personalDetails shape and the legacy flat shape.
	FindByName(ctx context.Context, firstName, lastName string) (Record, error)
	// MaxSerNo returns the highest assigned serial number, 0 when empty.
	MaxSerNo(ctx context.Context) (int64, error)
	// SerNoTakenByOther reports whether a serial number is assigned to a
	// member other than excludeID.
	SerNoTakenByOther(ctx context.Context, serNo int64, excludeID string) (bool, error)
	// List returns one page of members (images excluded, newest first) and
	// the total count for the query.
	List(ctx context.Context, q ListQuery) ([]Record, int64, error)
	// SearchByNamePrefix returns up to limit members of the given branch
	// whose first, middle or last name starts with query
	// (case-insensitive). Full documents are not returned; callers project.
	SearchByNamePrefix(ctx context.Context, query string, vansh scope.Vansh, limit int) ([]Record, error)
	// Update applies dot-path field sets to a member and returns the
	// updated record. Returns sentinel.ErrNotFound if absent and
	// sentinel.ErrConflict if a serNo change collides.
	Update(ctx context.Context, id string, sets map[string]any) (Record, error)
	// Delete removes a member. No cascade: links referencing its serNo
	// simply stop resolving.
	Delete(ctx context.Context, id string) error
	// DeleteBySerNo removes a member by serial number if present. Used for
	// compensating cleanup of parent stand-ins from a failed promotion.
	DeleteBySerNo(ctx context.Context, serNo int64) error
}
