// Package notify delivers approval emails with generated credentials.
//
// Delivery is strictly best-effort: the Approval Engine reports whether a
// send was attempted with a valid address, never whether it arrived, and a
// failed dispatch must not fail the approval.
package notify

import "context"

// ApprovalEmail carries everything the credentials email needs.
type ApprovalEmail struct {
	Email     string
	FirstName string
	LastName  string
	Username  string
	Password  string
}

// Mailer sends approval notifications.
type Mailer interface {
	SendApproval(ctx context.Context, msg ApprovalEmail) error
}

// NopMailer discards all mail. Used when SMTP is not configured.
type NopMailer struct{}

func (NopMailer) SendApproval(context.Context, ApprovalEmail) error { return nil }
