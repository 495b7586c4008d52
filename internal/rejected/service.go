package rejected

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"vanshavali/internal/audit"
	"vanshavali/internal/scope"
	dErrors "vanshavali/pkg/domain-errors"
	"vanshavali/pkg/requestcontext"
	"vanshavali/pkg/sentinel"
)

// AuditPublisher records archive operations.
type AuditPublisher interface {
	Emit(ctx context.Context, event audit.Event) error
}

// Service serves the rejected-registration archive.
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

// List returns archived rejections visible to the caller, newest first. An
// explicit vansh query parameter narrows the listing only for unscoped
// callers.
func (s *Service) List(ctx context.Context, vanshParam string) ([]Record, error) {
	sc := scope.FromActor(requestcontext.GetActor(ctx)).WithQueryParam(vanshParam)
	records, err := s.store.List(ctx, sc)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to list rejected registrations")
	}
	return records, nil
}

// Delete removes a single archived rejection.
func (s *Service) Delete(ctx context.Context, id string) error {
	if err := s.store.Delete(ctx, id); err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return dErrors.New(dErrors.CodeNotFound, "Rejected registration not found")
		}
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to delete rejected registration")
	}
	return nil
}

// Clear purges every archived rejection visible to the caller and reports
// how many were removed.
func (s *Service) Clear(ctx context.Context, vanshParam string) (int64, error) {
	sc := scope.FromActor(requestcontext.GetActor(ctx)).WithQueryParam(vanshParam)
	removed, err := s.store.Clear(ctx, sc)
	if err != nil {
		return 0, dErrors.Wrap(err, dErrors.CodeInternal, "failed to clear rejected registrations")
	}

	s.logger.InfoContext(ctx, "rejected archive cleared", "removed", removed)
	if s.auditPub != nil {
		if err := s.auditPub.Emit(ctx, audit.Event{
			Action: audit.ActionRejectionsCleared,
			Detail: fmt.Sprintf("removed %d", removed),
		}); err != nil {
			s.logger.WarnContext(ctx, "audit emit failed", "error", err)
		}
	}
	return removed, nil
}
