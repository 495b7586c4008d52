package member

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"vanshavali/internal/audit"
	"vanshavali/internal/payload"
	dErrors "vanshavali/pkg/domain-errors"
	"vanshavali/pkg/requestcontext"
)

func seedMember(t *testing.T, store *InMemory, serNo int64, firstName, lastName string, vansh any) Record {
	t.Helper()
	details := map[string]any{
		"firstName":    firstName,
		"lastName":     lastName,
		"email":        "old@example.org",
		"mobileNumber": "9000000000",
		"dateOfBirth":  "1980-05-17T00:00:00Z",
		"gender":       "female",
	}
	if vansh != nil {
		details["vansh"] = vansh
	}
	rec, err := store.Insert(context.Background(), payload.Document{
		"serNo":           serNo,
		"personalDetails": details,
		"createdAt":       time.Now(),
	})
	require.NoError(t, err)
	return rec
}

func TestListPagination(t *testing.T) {
	store := NewInMemory()
	svc := NewService(store)
	for i := int64(1); i <= 5; i++ {
		seedMember(t, store, i, "Member", "Rao", 7)
	}

	page, err := svc.List(context.Background(), "", "", 2, 2)
	require.NoError(t, err)

	assert.Equal(t, int64(5), page.Total)
	assert.Equal(t, 2, page.Page)
	assert.Equal(t, 2, page.Limit)
	assert.Equal(t, int64(3), page.TotalPages)
	assert.Len(t, page.Records, 2)
}

func TestListScopedAdminIgnoresVanshParam(t *testing.T) {
	store := NewInMemory()
	svc := NewService(store)
	seedMember(t, store, 1, "Branch7", "Rao", 7)
	seedMember(t, store, 2, "Branch9", "Rao", 9)

	ctx := requestcontext.WithActor(context.Background(), requestcontext.Actor{
		Role:         "admin",
		ManagedVansh: "7",
	})

	// The query parameter asks for branch 9; the scope claim wins.
	page, err := svc.List(ctx, "", "9", 1, 0)
	require.NoError(t, err)
	require.Len(t, page.Records, 1)
	assert.Equal(t, "Branch7", page.Records[0].Doc.GetString("personalDetails.firstName"))
}

func TestUpdateFlattensNestedSections(t *testing.T) {
	store := NewInMemory()
	svc := NewService(store)
	rec := seedMember(t, store, 1, "Asha", "Rao", 7)

	updated, err := svc.Update(context.Background(), rec.ID, payload.Document{
		"personalDetails": map[string]any{
			"email":        "new@example.org",
			"mobileNumber": "",
		},
		"notes": "root level field",
	})
	require.NoError(t, err)

	assert.Equal(t, "new@example.org", updated.Doc.GetString("personalDetails.email"))
	// Empty incoming value skipped, sibling preserved.
	assert.Equal(t, "9000000000", updated.Doc.GetString("personalDetails.mobileNumber"))
	assert.Equal(t, "Asha", updated.Doc.GetString("personalDetails.firstName"))
	assert.Equal(t, "root level field", updated.Doc.GetString("notes"))
	assert.NotNil(t, updated.Doc["updatedAt"])
}

func TestUpdateRejectsSerNoCollision(t *testing.T) {
	store := NewInMemory()
	svc := NewService(store)
	rec := seedMember(t, store, 1, "Asha", "Rao", nil)
	seedMember(t, store, 2, "Ram", "Rao", nil)

	_, err := svc.Update(context.Background(), rec.ID, payload.Document{"serNo": int64(2)})
	require.Error(t, err)
	assert.True(t, dErrors.HasCode(err, dErrors.CodeConflict))
	assert.Equal(t, "SerNo 2 is already assigned to another member", dErrors.MessageFor(err))
}

type recordingAuditPublisher struct {
	events []audit.Event
}

func (p *recordingAuditPublisher) Emit(_ context.Context, event audit.Event) error {
	p.events = append(p.events, event)
	return nil
}

func TestUpdateAndDeleteEmitAuditEvents(t *testing.T) {
	store := NewInMemory()
	pub := &recordingAuditPublisher{}
	svc := NewService(store, WithAuditPublisher(pub))
	rec := seedMember(t, store, 4, "Asha", "Rao", "7")

	_, err := svc.Update(context.Background(), rec.ID, payload.Document{
		"personalDetails": map[string]any{"middleName": "Devi"},
	})
	require.NoError(t, err)
	require.Len(t, pub.events, 1)
	assert.Equal(t, audit.ActionMemberUpdated, pub.events[0].Action)
	assert.Equal(t, rec.ID, pub.events[0].TargetID)
	assert.Equal(t, int64(4), pub.events[0].SerNo)
	assert.Equal(t, "7", pub.events[0].Vansh)

	require.NoError(t, svc.Delete(context.Background(), rec.ID))
	require.Len(t, pub.events, 2)
	assert.Equal(t, audit.ActionMemberDeleted, pub.events[1].Action)
	assert.Equal(t, rec.ID, pub.events[1].TargetID)
}

func TestSearchParentsMatchesMixedVanshTypes(t *testing.T) {
	store := NewInMemory()
	svc := NewService(store)

	// Multipart submissions store vansh as a string, JSON bodies as a
	// number; one branch query must find both.
	seedMember(t, store, 1, "Asha", "Rao", "7")
	seedMember(t, store, 2, "Anil", "Rao", 7)
	seedMember(t, store, 3, "Asha", "Joshi", "9")

	matches, err := svc.SearchParents(context.Background(), "a", "7")
	require.NoError(t, err)
	require.Len(t, matches, 2)
	serNos := []int64{matches[0].SerNo, matches[1].SerNo}
	assert.ElementsMatch(t, []int64{1, 2}, serNos)
}

func TestSearchParentsProjection(t *testing.T) {
	store := NewInMemory()
	svc := NewService(store)
	rec := seedMember(t, store, 3, "Asha", "Rao", "7")

	_, err := store.Update(context.Background(), rec.ID, map[string]any{
		"personalDetails.middleName":   "Devi",
		"personalDetails.profileImage": map[string]any{"data": "aGVsbG8=", "mimeType": "image/png"},
	})
	require.NoError(t, err)

	matches, err := svc.SearchParents(context.Background(), "ash", "7")
	require.NoError(t, err)
	require.Len(t, matches, 1)

	m := matches[0]
	assert.Equal(t, rec.ID, m.ID)
	assert.Equal(t, int64(3), m.SerNo)
	assert.Equal(t, "Asha Devi Rao", m.DisplayName)
	assert.Equal(t, "1980-05-17", m.DateOfBirth)
	assert.Equal(t, "female", m.Gender)
	assert.Equal(t, "7", m.Vansh)
	assert.NotNil(t, m.ProfileImage)
}

func TestSearchParentsRequiresQueryAndVansh(t *testing.T) {
	store := NewInMemory()
	svc := NewService(store)
	seedMember(t, store, 1, "Asha", "Rao", "7")

	matches, err := svc.SearchParents(context.Background(), "   ", "7")
	require.NoError(t, err)
	assert.Empty(t, matches)

	matches, err = svc.SearchParents(context.Background(), "ash", "")
	require.NoError(t, err)
	assert.Empty(t, matches)
}

func TestDeleteMember(t *testing.T) {
	store := NewInMemory()
	svc := NewService(store)
	rec := seedMember(t, store, 1, "Asha", "Rao", nil)

	require.NoError(t, svc.Delete(context.Background(), rec.ID))

	err := svc.Delete(context.Background(), rec.ID)
	require.Error(t, err)
	assert.True(t, dErrors.HasCode(err, dErrors.CodeNotFound))
}
