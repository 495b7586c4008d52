package member

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"vanshavali/internal/audit"
	"vanshavali/internal/payload"
	"vanshavali/internal/scope"
	dErrors "vanshavali/pkg/domain-errors"
	"vanshavali/pkg/requestcontext"
	"vanshavali/pkg/sentinel"
)

// DefaultPageLimit is used when a listing request does not specify one. The
// admin dashboard loads the whole directory in one page.
const DefaultPageLimit = 1000

// parentSearchLimit caps autocomplete results.
const parentSearchLimit = 10

// nestedUpdateSections are the document sections whose partial updates are
// flattened to dot paths so untouched sibling fields survive an edit.
var nestedUpdateSections = map[string]bool{
	"personalDetails":    true,
	"parentsInformation": true,
	"marriedDetails":     true,
}

// Page describes one page of a member listing.
type Page struct {
	Records    []Record
	Total      int64
	Page       int
	Limit      int
	TotalPages int64
}

// ParentMatch is the autocomplete projection returned by parent search.
type ParentMatch struct {
	ID           string `json:"id"`
	SerNo        int64  `json:"serNo,omitempty"`
	FirstName    string `json:"firstName"`
	MiddleName   string `json:"middleName"`
	LastName     string `json:"lastName"`
	DateOfBirth  string `json:"dateOfBirth"`
	ProfileImage any    `json:"profileImage"`
	Gender       string `json:"gender"`
	Email        string `json:"email"`
	MobileNumber string `json:"mobileNumber"`
	Vansh        string `json:"vansh"`
	DisplayName  string `json:"displayName"`
}

// AuditPublisher records member edits and deletions.
type AuditPublisher interface {
	Emit(ctx context.Context, event audit.Event) error
}

// Service serves the approved-member directory: listing, lookup, edits and
// the parent autocomplete used by the registration form.
type Service struct {
	store    Store
	auditPub AuditPublisher
	logger   *slog.Logger
}

type Option func(s *Service)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) { s.logger = logger }
}

func WithAuditPublisher(pub AuditPublisher) Option {
	return func(s *Service) { s.auditPub = pub }
}

func NewService(store Store, opts ...Option) *Service {
	s := &Service{store: store, logger: slog.Default()}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// List returns one page of members visible to the caller. An explicit vansh
// query parameter narrows the page only for unscoped callers; a branch
// admin's scope always wins.
func (s *Service) List(ctx context.Context, search, vanshParam string, page, limit int) (Page, error) {
	sc := scope.FromActor(requestcontext.GetActor(ctx)).WithQueryParam(vanshParam)

	if page < 1 {
		page = 1
	}
	if limit < 1 {
		limit = DefaultPageLimit
	}

	records, total, err := s.store.List(ctx, ListQuery{
		Scope:  sc,
		Search: strings.TrimSpace(search),
		Page:   page,
		Limit:  limit,
	})
	if err != nil {
		return Page{}, dErrors.Wrap(err, dErrors.CodeInternal, "failed to list members")
	}

	totalPages := total / int64(limit)
	if total%int64(limit) != 0 {
		totalPages++
	}
	return Page{Records: records, Total: total, Page: page, Limit: limit, TotalPages: totalPages}, nil
}

// Get returns one member in full.
func (s *Service) Get(ctx context.Context, id string) (Record, error) {
	rec, err := s.store.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return Record{}, dErrors.New(dErrors.CodeNotFound, "Member not found")
		}
		return Record{}, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load member")
	}
	return rec, nil
}

// Update applies a partial edit. Nested sections are flattened to dot paths
// so an edit form that submits only a few personalDetails fields does not
// wipe the rest, and empty values are skipped rather than written. A serNo
// change is rejected when the number belongs to another member.
func (s *Service) Update(ctx context.Context, id string, updates payload.Document) (Record, error) {
	sets := flattenUpdates(updates)
	delete(sets, "_id")
	delete(sets, "createdAt")

	if raw, ok := sets["serNo"]; ok {
		serNo := SerNo(payload.Document{"serNo": raw})
		if serNo > 0 {
			taken, err := s.store.SerNoTakenByOther(ctx, serNo, id)
			if err != nil {
				return Record{}, dErrors.Wrap(err, dErrors.CodeInternal, "failed to check serial number")
			}
			if taken {
				return Record{}, dErrors.Newf(dErrors.CodeConflict, "SerNo %d is already assigned to another member", serNo)
			}
		}
	}

	sets["updatedAt"] = requestcontext.Now(ctx)

	rec, err := s.store.Update(ctx, id, sets)
	if err != nil {
		switch {
		case errors.Is(err, sentinel.ErrNotFound):
			return Record{}, dErrors.New(dErrors.CodeNotFound, "Member not found")
		case errors.Is(err, sentinel.ErrConflict):
			return Record{}, dErrors.New(dErrors.CodeConflict, "SerNo is already assigned to another member")
		default:
			return Record{}, dErrors.Wrap(err, dErrors.CodeInternal, "failed to update member")
		}
	}

	s.logger.InfoContext(ctx, "member updated", "member_id", id)
	s.emitAudit(ctx, audit.Event{
		Action:   audit.ActionMemberUpdated,
		TargetID: id,
		SerNo:    SerNo(rec.Doc),
		Vansh:    vanshString(rec.Doc),
	})
	return rec, nil
}

// Delete removes a member permanently.
func (s *Service) Delete(ctx context.Context, id string) error {
	if err := s.store.Delete(ctx, id); err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return dErrors.New(dErrors.CodeNotFound, "Member not found")
		}
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to delete member")
	}
	s.logger.InfoContext(ctx, "member deleted", "member_id", id)
	s.emitAudit(ctx, audit.Event{
		Action:   audit.ActionMemberDeleted,
		TargetID: id,
	})
	return nil
}

func (s *Service) emitAudit(ctx context.Context, event audit.Event) {
	if s.auditPub == nil {
		return
	}
	if err := s.auditPub.Emit(ctx, event); err != nil {
		s.logger.WarnContext(ctx, "audit emit failed", "action", event.Action, "error", err)
	}
}

// SearchParents serves the registration form's parent autocomplete. A blank
// query or a missing vansh yields an empty result rather than an error; the
// form fires on every keystroke and partial input is normal.
func (s *Service) SearchParents(ctx context.Context, query, vansh string) ([]ParentMatch, error) {
	query = strings.TrimSpace(query)
	if query == "" || strings.TrimSpace(vansh) == "" {
		return []ParentMatch{}, nil
	}

	records, err := s.store.SearchByNamePrefix(ctx, query, scope.ParseVansh(vansh), parentSearchLimit)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to search members")
	}

	matches := make([]ParentMatch, 0, len(records))
	for _, rec := range records {
		matches = append(matches, projectParent(rec))
	}
	return matches, nil
}

func projectParent(rec Record) ParentMatch {
	doc := rec.Doc
	first := doc.GetString("personalDetails.firstName")
	middle := doc.GetString("personalDetails.middleName")
	last := doc.GetString("personalDetails.lastName")

	var image any
	if img, ok := doc.GetPath("personalDetails.profileImage"); ok {
		image = img
	}

	return ParentMatch{
		ID:           rec.ID,
		SerNo:        SerNo(doc),
		FirstName:    first,
		MiddleName:   middle,
		LastName:     last,
		DateOfBirth:  dateOnly(doc.GetString("personalDetails.dateOfBirth")),
		ProfileImage: image,
		Gender:       doc.GetString("personalDetails.gender"),
		Email:        doc.GetString("personalDetails.email"),
		MobileNumber: doc.GetString("personalDetails.mobileNumber"),
		Vansh:        vanshString(doc),
		DisplayName:  strings.Join(strings.Fields(fmt.Sprintf("%s %s %s", first, middle, last)), " "),
	}
}

// vanshString renders the branch value for display whether it was stored as
// a number or a name.
func vanshString(doc payload.Document) string {
	v, ok := doc.GetPath("personalDetails.vansh")
	if !ok {
		return ""
	}
	switch tv := v.(type) {
	case string:
		return tv
	case float64:
		if tv == float64(int64(tv)) {
			return fmt.Sprintf("%d", int64(tv))
		}
		return fmt.Sprintf("%v", tv)
	case int, int32, int64:
		return fmt.Sprintf("%d", tv)
	default:
		return ""
	}
}

// dateOnly trims a stored date of birth down to YYYY-MM-DD for display.
func dateOnly(raw string) string {
	if raw == "" {
		return ""
	}
	for _, layout := range []string{time.RFC3339, "2006-01-02T15:04:05", "2006-01-02"} {
		if t, err := time.Parse(layout, raw); err == nil {
			return t.Format("2006-01-02")
		}
	}
	if len(raw) >= 10 {
		return raw[:10]
	}
	return raw
}

// flattenUpdates turns nested section edits into dot-path sets, skipping
// empty values so a sparse edit form leaves stored fields alone. Root-level
// fields pass through as-is.
func flattenUpdates(updates payload.Document) map[string]any {
	sets := make(map[string]any, len(updates))
	for key, value := range updates {
		section, ok := value.(map[string]any)
		if !ok {
			if d, isDoc := value.(payload.Document); isDoc {
				section, ok = map[string]any(d), true
			}
		}
		if ok && nestedUpdateSections[key] {
			for nested, nestedValue := range section {
				if nestedValue == "" || nestedValue == nil {
					continue
				}
				sets[key+"."+nested] = nestedValue
			}
			continue
		}
		sets[key] = value
	}
	return sets
}
