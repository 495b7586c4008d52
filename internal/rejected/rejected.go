// Package rejected archives registrations that were declined during review.
// Snapshots keep the submitted form plus the reviewer's notes so a branch
// admin can revisit or purge them later.
package rejected

import (
	"context"

	"vanshavali/internal/payload"
	"vanshavali/internal/scope"
)

// Record is an archived rejection snapshot.
type Record struct {
	ID  string
	Doc payload.Document
}

// Store persists rejection snapshots.
type Store interface {
	// Insert archives a snapshot and returns it with its assigned id.
	Insert(ctx context.Context, doc payload.Document) (Record, error)
	// List returns snapshots visible to the scope, newest rejection first,
	// with image payloads excluded.
	List(ctx context.Context, sc scope.Filter) ([]Record, error)
	// Delete removes a single snapshot. Returns sentinel.ErrNotFound when
	// the id does not exist.
	Delete(ctx context.Context, id string) error
	// Clear removes every snapshot visible to the scope and reports how
	// many were deleted.
	Clear(ctx context.Context, sc scope.Filter) (int64, error)
}
