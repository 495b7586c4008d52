package rejected

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"vanshavali/internal/payload"
	"vanshavali/internal/scope"
	"vanshavali/pkg/sentinel"
)

type RejectedStoreSuite struct {
	suite.Suite
	store *InMemory
	ctx   context.Context
}

func (s *RejectedStoreSuite) SetupTest() {
	s.store = NewInMemory()
	s.ctx = context.Background()
}

func TestRejectedStoreSuite(t *testing.T) {
	suite.Run(t, new(RejectedStoreSuite))
}

func (s *RejectedStoreSuite) snapshot(firstName string, vansh any, rejectedAt time.Time) payload.Document {
	return payload.Document{
		"personalDetails": map[string]any{
			"firstName": firstName,
			"lastName":  "Rao",
			"vansh":     vansh,
		},
		"status":     "rejected",
		"rejectedAt": rejectedAt,
	}
}

func (s *RejectedStoreSuite) TestListNewestFirst() {
	base := time.Now()
	_, err := s.store.Insert(s.ctx, s.snapshot("First", 7, base.Add(-time.Hour)))
	s.Require().NoError(err)
	_, err = s.store.Insert(s.ctx, s.snapshot("Second", 7, base))
	s.Require().NoError(err)

	records, err := s.store.List(s.ctx, scope.Filter{})
	s.Require().NoError(err)
	s.Require().Len(records, 2)
	s.Equal("Second", records[0].Doc.GetString("personalDetails.firstName"))
}

func (s *RejectedStoreSuite) TestDelete() {
	rec, err := s.store.Insert(s.ctx, s.snapshot("Asha", 7, time.Now()))
	s.Require().NoError(err)

	s.Require().NoError(s.store.Delete(s.ctx, rec.ID))
	s.Require().ErrorIs(s.store.Delete(s.ctx, rec.ID), sentinel.ErrNotFound)
}

func (s *RejectedStoreSuite) TestClearHonorsScope() {
	_, err := s.store.Insert(s.ctx, s.snapshot("Seven", 7, time.Now()))
	s.Require().NoError(err)
	_, err = s.store.Insert(s.ctx, s.snapshot("Nine", 9, time.Now()))
	s.Require().NoError(err)

	removed, err := s.store.Clear(s.ctx, scope.ForVansh("7"))
	s.Require().NoError(err)
	s.Equal(int64(1), removed)

	remaining, err := s.store.List(s.ctx, scope.Filter{})
	s.Require().NoError(err)
	s.Require().Len(remaining, 1)
	s.Equal("Nine", remaining[0].Doc.GetString("personalDetails.firstName"))
}
