package registration

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"vanshavali/internal/payload"
	"vanshavali/internal/scope"
	"vanshavali/pkg/sentinel"
)

type RegistrationStoreSuite struct {
	suite.Suite
	store *InMemory
	ctx   context.Context
}

func (s *RegistrationStoreSuite) SetupTest() {
	s.store = NewInMemory()
	s.ctx = context.Background()
}

func TestRegistrationStoreSuite(t *testing.T) {
	suite.Run(t, new(RegistrationStoreSuite))
}

func (s *RegistrationStoreSuite) newRegistration(firstName string, vansh any, createdAt time.Time) payload.Document {
	details := map[string]any{
		"firstName": firstName,
		"lastName":  "Rao",
	}
	if vansh != nil {
		details["vansh"] = vansh
	}
	return payload.Document{
		"personalDetails": details,
		"status":          StatusPending,
		"createdAt":       createdAt,
	}
}

func (s *RegistrationStoreSuite) TestInsertAndFind() {
	doc := s.newRegistration("Asha", 7, time.Now())
	doc.SetPath("personalDetails.profileImage", map[string]any{"data": "aGVsbG8=", "mimeType": "image/png"})

	rec, err := s.store.Insert(s.ctx, doc)
	s.Require().NoError(err)
	s.NotEmpty(rec.ID)

	s.Run("detail lookup keeps images", func() {
		found, err := s.store.FindByID(s.ctx, rec.ID)
		s.Require().NoError(err)
		_, hasImage := found.Doc.GetPath("personalDetails.profileImage")
		s.True(hasImage)
	})

	s.Run("unknown id", func() {
		_, err := s.store.FindByID(s.ctx, "missing")
		s.Require().ErrorIs(err, sentinel.ErrNotFound)
	})
}

func (s *RegistrationStoreSuite) TestListOrderingAndScope() {
	base := time.Now()
	_, err := s.store.Insert(s.ctx, s.newRegistration("Oldest", 7, base.Add(-2*time.Hour)))
	s.Require().NoError(err)
	_, err = s.store.Insert(s.ctx, s.newRegistration("Newest", 7, base))
	s.Require().NoError(err)
	_, err = s.store.Insert(s.ctx, s.newRegistration("OtherBranch", 9, base.Add(-time.Hour)))
	s.Require().NoError(err)

	s.Run("newest first", func() {
		records, err := s.store.List(s.ctx, scope.Filter{})
		s.Require().NoError(err)
		s.Require().Len(records, 3)
		s.Equal("Newest", records[0].Doc.GetString("personalDetails.firstName"))
		s.Equal("Oldest", records[2].Doc.GetString("personalDetails.firstName"))
	})

	s.Run("scope filters branches", func() {
		records, err := s.store.List(s.ctx, scope.ForVansh("9"))
		s.Require().NoError(err)
		s.Require().Len(records, 1)
		s.Equal("OtherBranch", records[0].Doc.GetString("personalDetails.firstName"))
	})
}

func (s *RegistrationStoreSuite) TestUpdateReview() {
	rec, err := s.store.Insert(s.ctx, s.newRegistration("Asha", nil, time.Now()))
	s.Require().NoError(err)

	reviewedAt := time.Now()
	updated, err := s.store.UpdateReview(s.ctx, rec.ID, StatusUnderReview, "checking", reviewedAt)
	s.Require().NoError(err)
	s.Equal(StatusUnderReview, updated.Doc.GetString("status"))
	s.Equal("checking", updated.Doc.GetString("adminNotes"))
	s.Equal(reviewedAt, updated.Doc["reviewedAt"])

	_, err = s.store.UpdateReview(s.ctx, "missing", StatusUnderReview, "", reviewedAt)
	s.Require().ErrorIs(err, sentinel.ErrNotFound)
}

func (s *RegistrationStoreSuite) TestDelete() {
	rec, err := s.store.Insert(s.ctx, s.newRegistration("Asha", nil, time.Now()))
	s.Require().NoError(err)

	s.Require().NoError(s.store.Delete(s.ctx, rec.ID))
	s.Require().ErrorIs(s.store.Delete(s.ctx, rec.ID), sentinel.ErrNotFound)
}
