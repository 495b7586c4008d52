// Package approval decides the fate of pending registrations. Approval
// promotes a registration into the member collection with a fresh serial
// number, resolved parent links and generated credentials; rejection archives
// a snapshot; any other status is recorded on the registration in place.
package approval

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"vanshavali/internal/audit"
	"vanshavali/internal/credentials"
	"vanshavali/internal/member"
	"vanshavali/internal/notify"
	"vanshavali/internal/payload"
	"vanshavali/internal/registration"
	"vanshavali/internal/rejected"
	"vanshavali/internal/serial"
	dErrors "vanshavali/pkg/domain-errors"
	"vanshavali/pkg/requestcontext"
	"vanshavali/pkg/sentinel"
)

// serNoRetries bounds how often an insert is retried with a fresh serial
// number when the unique index reports a collision.
const serNoRetries = 3

// AuditPublisher records review decisions.
type AuditPublisher interface {
	Emit(ctx context.Context, event audit.Event) error
}

// Decision is the outcome of a single review.
type Decision struct {
	ID        string `json:"id"`
	Status    string `json:"status"`
	Username  string `json:"username,omitempty"`
	EmailSent bool   `json:"emailSent"`
}

// BulkResult is the outcome of one item in a bulk review.
type BulkResult struct {
	RegistrationID string    `json:"registrationId"`
	Success        bool      `json:"success"`
	Message        string    `json:"message,omitempty"`
	Decision       *Decision `json:"decision,omitempty"`
}

// Service is the approval engine.
type Service struct {
	registrations registration.Store
	members       member.Store
	rejections    rejected.Store
	serials       serial.Allocator
	mailer        notify.Mailer
	auditPub      AuditPublisher
	logger        *slog.Logger
	metrics       *Metrics
}

type Option func(s *Service)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) { s.logger = logger }
}

func WithMailer(mailer notify.Mailer) Option {
	return func(s *Service) { s.mailer = mailer }
}

func WithAuditPublisher(pub AuditPublisher) Option {
	return func(s *Service) { s.auditPub = pub }
}

func WithMetrics(m *Metrics) Option {
	return func(s *Service) { s.metrics = m }
}

// NewService constructs the approval engine.
func NewService(registrations registration.Store, members member.Store, rejections rejected.Store, serials serial.Allocator, opts ...Option) *Service {
	s := &Service{
		registrations: registrations,
		members:       members,
		rejections:    rejections,
		serials:       serials,
		mailer:        notify.NopMailer{},
		logger:        slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Decide applies a review decision to one registration. Approved and
// rejected are terminal: the registration leaves the pending store. Any
// other status is stamped onto the registration together with the notes.
func (s *Service) Decide(ctx context.Context, id, status, adminNotes string) (Decision, error) {
	if status == "" {
		return Decision{}, dErrors.New(dErrors.CodeBadRequest, "Status is required")
	}

	reg, err := s.registrations.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return Decision{}, dErrors.New(dErrors.CodeNotFound, "Registration not found")
		}
		return Decision{}, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load registration")
	}

	switch {
	case status == registration.StatusApproved:
		return s.approve(ctx, reg, adminNotes)
	case status == registration.StatusRejected:
		return s.reject(ctx, reg, adminNotes)
	case registration.IsPendingStatus(status):
		return s.review(ctx, reg, status, adminNotes)
	default:
		return Decision{}, dErrors.Newf(dErrors.CodeBadRequest, "Unknown status %q", status)
	}
}

// BulkDecide applies one status to many registrations sequentially. A single
// failure does not stop the batch; each item reports its own outcome.
func (s *Service) BulkDecide(ctx context.Context, ids []string, status, adminNotes string) []BulkResult {
	results := make([]BulkResult, 0, len(ids))
	for _, id := range ids {
		decision, err := s.Decide(ctx, id, status, adminNotes)
		if err != nil {
			results = append(results, BulkResult{
				RegistrationID: id,
				Success:        false,
				Message:        dErrors.MessageFor(err),
			})
			continue
		}
		results = append(results, BulkResult{
			RegistrationID: id,
			Success:        true,
			Decision:       &decision,
		})
	}
	return results
}

// review records a non-terminal status (under_review, back to pending) on
// the registration in place.
func (s *Service) review(ctx context.Context, reg registration.Record, status, adminNotes string) (Decision, error) {
	_, err := s.registrations.UpdateReview(ctx, reg.ID, status, adminNotes, requestcontext.Now(ctx))
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return Decision{}, dErrors.New(dErrors.CodeNotFound, "Registration not found")
		}
		return Decision{}, dErrors.Wrap(err, dErrors.CodeInternal, "failed to update registration")
	}

	s.emitAudit(ctx, audit.Event{
		Action:   audit.ActionRegistrationReviewed,
		TargetID: reg.ID,
		Detail:   status,
	})
	return Decision{ID: reg.ID, Status: status}, nil
}

// reject snapshots the registration into the rejected archive, then removes
// it from the pending store.
func (s *Service) reject(ctx context.Context, reg registration.Record, adminNotes string) (Decision, error) {
	snapshot := reg.Doc.Clone()
	snapshot["status"] = registration.StatusRejected
	snapshot["adminNotes"] = adminNotes
	snapshot["rejectedAt"] = requestcontext.Now(ctx)

	archived, err := s.rejections.Insert(ctx, snapshot)
	if err != nil {
		return Decision{}, dErrors.Wrap(err, dErrors.CodeInternal, "failed to archive rejection")
	}
	if err := s.registrations.Delete(ctx, reg.ID); err != nil && !errors.Is(err, sentinel.ErrNotFound) {
		return Decision{}, dErrors.Wrap(err, dErrors.CodeInternal, "failed to remove rejected registration")
	}

	s.logger.InfoContext(ctx, "registration rejected", "registration_id", reg.ID, "archive_id", archived.ID)
	s.metrics.IncrementRejected()
	s.emitAudit(ctx, audit.Event{
		Action:   audit.ActionRegistrationRejected,
		TargetID: reg.ID,
		Detail:   adminNotes,
	})
	return Decision{ID: archived.ID, Status: registration.StatusRejected}, nil
}

// approve runs the promotion: build the member document, assign a serial
// number, resolve parents, generate credentials, insert, email, and only
// then drop the registration. If the member insert ultimately fails, parent
// stand-ins created along the way are removed again so a retried approval
// does not duplicate them.
func (s *Service) approve(ctx context.Context, reg registration.Record, adminNotes string) (Decision, error) {
	start := time.Now()

	doc := promotedDocument(reg.Doc)

	serNo, err := s.serials.Next(ctx)
	if err != nil {
		return Decision{}, dErrors.Wrap(err, dErrors.CodeInternal, "failed to allocate serial number")
	}
	doc["serNo"] = serNo

	createdParents, err := s.resolveParents(ctx, doc)
	if err != nil {
		s.cleanupParents(ctx, createdParents)
		return Decision{}, err
	}

	username := credentials.Username(doc.GetString("personalDetails.firstName"), serNo)
	password := credentials.Password(credentials.DefaultPasswordLength)
	hashed, err := credentials.Hash(password)
	if err != nil {
		s.cleanupParents(ctx, createdParents)
		return Decision{}, dErrors.Wrap(err, dErrors.CodeInternal, "failed to hash password")
	}
	doc["username"] = username
	doc["password"] = hashed
	doc["isapproved"] = true
	doc["_sheetRowKey"] = sheetRowKey(ctx, "form")
	if _, ok := doc["createdAt"]; !ok {
		doc["createdAt"] = requestcontext.Now(ctx)
	}

	rec, err := s.insertWithRetry(ctx, doc, func(newSerNo int64) {
		doc["serNo"] = newSerNo
		doc["username"] = credentials.Username(doc.GetString("personalDetails.firstName"), newSerNo)
	})
	if err != nil {
		s.cleanupParents(ctx, createdParents)
		return Decision{}, dErrors.Wrap(err, dErrors.CodeInternal, "failed to create member")
	}
	serNo = member.SerNo(doc)
	username = doc.GetString("username")

	emailSent := s.sendCredentials(ctx, doc, username, password)

	if err := s.registrations.Delete(ctx, reg.ID); err != nil && !errors.Is(err, sentinel.ErrNotFound) {
		// The member exists; a stuck registration is recoverable, a
		// half-promoted member is not. Log and succeed.
		s.logger.ErrorContext(ctx, "failed to remove approved registration",
			"registration_id", reg.ID, "member_id", rec.ID, "error", err)
	}

	s.logger.InfoContext(ctx, "registration approved",
		"registration_id", reg.ID,
		"member_id", rec.ID,
		"ser_no", serNo,
		"email_sent", emailSent,
		"admin_notes", adminNotes != "")
	s.metrics.IncrementApproved()
	s.metrics.ObservePromote(start)
	s.emitAudit(ctx, audit.Event{
		Action:   audit.ActionRegistrationApproved,
		TargetID: rec.ID,
		SerNo:    serNo,
		Detail:   adminNotes,
	})

	return Decision{ID: rec.ID, Status: registration.StatusApproved, Username: username, EmailSent: emailSent}, nil
}

// parentRole describes the per-parent field layout inside
// parentsInformation.
type parentRole struct {
	prefix   string
	gender   string
	sheetTag string
	linkKey  string
}

var (
	fatherRole = parentRole{prefix: "father", gender: "male", sheetTag: "auto_father", linkKey: "fatherSerNo"}
	motherRole = parentRole{prefix: "mother", gender: "female", sheetTag: "auto_mother", linkKey: "motherSerNo"}
)

// resolveParents links or creates both parents. It returns the serial
// numbers of parents created here so a failed promotion can remove them.
func (s *Service) resolveParents(ctx context.Context, doc payload.Document) ([]int64, error) {
	var created []int64
	for _, role := range []parentRole{fatherRole, motherRole} {
		serNo, wasCreated, err := s.resolveParent(ctx, doc, role)
		if err != nil {
			return created, err
		}
		if serNo == 0 {
			continue
		}
		if wasCreated {
			created = append(created, serNo)
		}
		doc.SetPath("parentsInformation."+role.linkKey, serNo)
		// Root-level copy feeds the family-tree renderer.
		doc[role.linkKey] = serNo
	}
	return created, nil
}

// resolveParent handles one parent: no-op unless both first and last name
// are present, link when a member with that exact name exists, otherwise
// create a stand-in with a fresh serial number.
func (s *Service) resolveParent(ctx context.Context, doc payload.Document, role parentRole) (int64, bool, error) {
	firstName := doc.GetString("parentsInformation." + role.prefix + "FirstName")
	lastName := doc.GetString("parentsInformation." + role.prefix + "LastName")
	if firstName == "" || lastName == "" {
		return 0, false, nil
	}

	existing, err := s.members.FindByName(ctx, firstName, lastName)
	if err == nil {
		if serNo := member.SerNo(existing.Doc); serNo > 0 {
			s.logger.InfoContext(ctx, "linked existing parent",
				"role", role.prefix, "ser_no", serNo)
			return serNo, false, nil
		}
	} else if !errors.Is(err, sentinel.ErrNotFound) {
		return 0, false, dErrors.Wrap(err, dErrors.CodeInternal, "failed to look up parent")
	}

	serNo, err := s.serials.Next(ctx)
	if err != nil {
		return 0, false, dErrors.Wrap(err, dErrors.CodeInternal, "failed to allocate serial number")
	}

	parent := s.parentStandIn(ctx, doc, role, firstName, lastName, serNo)
	if _, err := s.insertWithRetry(ctx, parent, func(newSerNo int64) {
		parent["serNo"] = newSerNo
		serNo = newSerNo
	}); err != nil {
		return 0, false, dErrors.Wrap(err, dErrors.CodeInternal, "failed to create parent member")
	}

	s.logger.InfoContext(ctx, "created parent stand-in",
		"role", role.prefix, "ser_no", serNo)
	s.metrics.IncrementParentsAutoCreated()
	return serNo, true, nil
}

// parentStandIn builds the member document for an auto-created parent.
// Stand-ins inherit the child's vansh and never receive credentials.
func (s *Service) parentStandIn(ctx context.Context, doc payload.Document, role parentRole, firstName, lastName string, serNo int64) payload.Document {
	details := map[string]any{
		"firstName": firstName,
		"lastName":  lastName,
		"gender":    role.gender,
	}
	for _, field := range []string{"MiddleName", "DateOfBirth", "Email", "MobileNumber"} {
		if v := doc.GetString("parentsInformation." + role.prefix + field); v != "" {
			details[strings.ToLower(field[:1])+field[1:]] = v
		}
	}
	if vansh, ok := doc.GetPath("personalDetails.vansh"); ok {
		details["vansh"] = vansh
	}
	if img, ok := doc.GetPath("parentsInformation." + role.prefix + "ProfileImage"); ok {
		details["profileImage"] = img
	}

	return payload.Document{
		"serNo":           serNo,
		"personalDetails": details,
		"isapproved":      true,
		"autoCreated":     true,
		"_sheetRowKey":    sheetRowKey(ctx, role.sheetTag),
		"createdAt":       requestcontext.Now(ctx),
	}
}

// insertWithRetry inserts a member document, drawing a fresh serial number
// on a uniqueness collision. The unique index is the arbiter; the allocator
// only hands out candidates.
func (s *Service) insertWithRetry(ctx context.Context, doc payload.Document, reassign func(serNo int64)) (member.Record, error) {
	var lastErr error
	for attempt := 0; attempt <= serNoRetries; attempt++ {
		rec, err := s.members.Insert(ctx, doc)
		if err == nil {
			return rec, nil
		}
		if !errors.Is(err, sentinel.ErrConflict) {
			return member.Record{}, err
		}
		lastErr = err

		serNo, allocErr := s.serials.Next(ctx)
		if allocErr != nil {
			return member.Record{}, allocErr
		}
		reassign(serNo)
	}
	return member.Record{}, fmt.Errorf("serial number conflicts exhausted retries: %w", lastErr)
}

// sendCredentials attempts the credentials email when the address passes
// validation. Returns whether a send was attempted; delivery failures are
// logged and swallowed.
func (s *Service) sendCredentials(ctx context.Context, doc payload.Document, username, password string) bool {
	email := doc.GetString("personalDetails.email")
	if !notify.ValidEmail(email) {
		return false
	}

	firstName := doc.GetString("personalDetails.firstName")
	if firstName == "" {
		firstName = "Member"
	}
	msg := notify.ApprovalEmail{
		Email:     email,
		FirstName: firstName,
		LastName:  doc.GetString("personalDetails.lastName"),
		Username:  username,
		Password:  password,
	}
	s.metrics.IncrementEmailsAttempted()
	if err := s.mailer.SendApproval(ctx, msg); err != nil {
		s.logger.WarnContext(ctx, "credentials email failed", "email", email, "error", err)
	}
	return true
}

// cleanupParents removes parent stand-ins created during a promotion that
// did not complete. Best-effort: a leftover stand-in is annoying, a failed
// cleanup must not mask the original error.
func (s *Service) cleanupParents(ctx context.Context, serNos []int64) {
	for _, serNo := range serNos {
		if err := s.members.DeleteBySerNo(ctx, serNo); err != nil {
			s.logger.WarnContext(ctx, "failed to remove parent stand-in", "ser_no", serNo, "error", err)
		}
	}
}

func (s *Service) emitAudit(ctx context.Context, event audit.Event) {
	if s.auditPub == nil {
		return
	}
	if err := s.auditPub.Emit(ctx, event); err != nil {
		s.logger.WarnContext(ctx, "audit emit failed", "action", event.Action, "error", err)
	}
}

// promotedDocument derives the member document from a registration snapshot:
// review bookkeeping fields are dropped and the cleaning pass removes nulls
// left over from the form.
func promotedDocument(regDoc payload.Document) payload.Document {
	doc := regDoc.Clone()
	for _, field := range []string{"_id", "status", "adminNotes", "reviewedAt", "_sheetRowKey"} {
		delete(doc, field)
	}
	return payload.Clean(doc)
}

// sheetRowKey generates the sheet-sync key for a newly written member row.
func sheetRowKey(ctx context.Context, tag string) string {
	suffix := strings.ReplaceAll(uuid.NewString(), "-", "")[:9]
	return fmt.Sprintf("%s_%d_%s", tag, requestcontext.Now(ctx).UnixMilli(), suffix)
}
