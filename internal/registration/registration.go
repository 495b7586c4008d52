// Package registration holds submitted family-member registration forms
// while they await an administrator's decision.
package registration

import (
	"context"
	"time"

	"vanshavali/internal/payload"
	"vanshavali/internal/scope"
	dErrors "vanshavali/pkg/domain-errors"
)

// Review statuses. A registration with no status field is treated as
// pending; approved and rejected are terminal and move the document to a
// different collection.
const (
	StatusPending     = "pending"
	StatusUnderReview = "under_review"
	StatusApproved    = "approved"
	StatusRejected    = "rejected"
)

// IsPendingStatus reports whether a status value still counts as "awaiting
// decision". Absent, pending and under_review are equivalent here.
func IsPendingStatus(status string) bool {
	return status == "" || status == StatusPending || status == StatusUnderReview
}

// Record is a stored registration: an opaque id plus the submitted document.
// While a registration lives in this store it never carries a serial number.
type Record struct {
	ID  string
	Doc payload.Document
}

// Store persists pending registrations.
type Store interface {
	// Insert stores a new registration and returns it with its assigned id.
	Insert(ctx context.Context, doc payload.Document) (Record, error)
	// FindByID returns the full registration including images.
	// Returns sentinel.ErrNotFound if absent.
	FindByID(ctx context.Context, id string) (Record, error)
	// List returns registrations in the filter's scope, newest first, with
	// image fields excluded.
	List(ctx context.Context, f scope.Filter) ([]Record, error)
	// UpdateReview sets status, adminNotes and reviewedAt in place and
	// returns the updated record. Returns sentinel.ErrNotFound if absent.
	UpdateReview(ctx context.Context, id, status, adminNotes string, reviewedAt time.Time) (Record, error)
	// Delete removes a registration. Returns sentinel.ErrNotFound if absent.
	Delete(ctx context.Context, id string) error
}

// Validate enforces the fields a submission cannot do without. Everything
// else on the form is optional.
func Validate(doc payload.Document) error {
	if doc.GetString("personalDetails.firstName") == "" || doc.GetString("personalDetails.lastName") == "" {
		return dErrors.New(dErrors.CodeValidation, "Fill all the important credentials before submitting the form.")
	}
	return nil
}
