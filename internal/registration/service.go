package registration

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"vanshavali/internal/payload"
	"vanshavali/internal/scope"
	dErrors "vanshavali/pkg/domain-errors"
	"vanshavali/pkg/requestcontext"
	"vanshavali/pkg/sentinel"
)

// Service accepts registration submissions and serves the review queue.
type Service struct {
	store   Store
	logger  *slog.Logger
	metrics *Metrics
}

type Option func(s *Service)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) { s.logger = logger }
}

func WithMetrics(m *Metrics) Option {
	return func(s *Service) { s.metrics = m }
}

// NewService constructs a Service.
func NewService(store Store, opts ...Option) *Service {
	s := &Service{store: store, logger: slog.Default()}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Submit normalizes a submitted form plus its uploaded images into a single
// document, validates it and stores it as pending. The stored document never
// carries a serial number; that is assigned only on approval.
func (s *Service) Submit(ctx context.Context, body payload.Document, files map[string]payload.File) (Record, error) {
	start := time.Now()

	doc := payload.Assemble(body, files)
	if err := Validate(doc); err != nil {
		return Record{}, err
	}

	doc["status"] = StatusPending
	doc["createdAt"] = requestcontext.Now(ctx)

	rec, err := s.store.Insert(ctx, doc)
	if err != nil {
		return Record{}, dErrors.Wrap(err, dErrors.CodeInternal, "failed to store registration")
	}

	s.logger.InfoContext(ctx, "registration submitted",
		"registration_id", rec.ID,
		"first_name", doc.GetString("personalDetails.firstName"),
		"last_name", doc.GetString("personalDetails.lastName"))
	s.metrics.IncrementSubmitted()
	s.metrics.ObserveSubmit(start)

	return rec, nil
}

// List returns the pending queue visible to the caller, newest first. An
// unscoped admin may narrow to one branch with vanshParam; a branch admin's
// scope always wins.
func (s *Service) List(ctx context.Context, vanshParam string) ([]Record, error) {
	sc := scope.FromActor(requestcontext.GetActor(ctx)).WithQueryParam(vanshParam)
	records, err := s.store.List(ctx, sc)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to list registrations")
	}
	return records, nil
}

// Get returns one registration in full, images included.
func (s *Service) Get(ctx context.Context, id string) (Record, error) {
	rec, err := s.store.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return Record{}, dErrors.New(dErrors.CodeNotFound, "Registration not found")
		}
		return Record{}, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load registration")
	}
	return rec, nil
}
