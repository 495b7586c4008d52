// Package serial issues family-tree serial numbers (serNo).
//
// Every member ever approved gets the next value from a single
// fetch-and-increment counter. The predecessor recomputed "max serNo + 1"
// per operation with no coordination, which races under concurrent
// approvals; the allocator is the fix, with the unique index on
// members.serNo as an independent backstop.
package serial

import "context"

// Allocator hands out unique, monotonically increasing serial numbers.
type Allocator interface {
	// Next atomically reserves and returns the next serial number.
	Next(ctx context.Context) (int64, error)
	// Ensure raises the counter to at least floor so the next value is
	// greater than floor. Called at startup with the current max serNo and
	// after a uniqueness conflict points at out-of-band serNo edits.
	Ensure(ctx context.Context, floor int64) error
}
