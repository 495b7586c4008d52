package registration

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"vanshavali/internal/payload"
	dErrors "vanshavali/pkg/domain-errors"
	"vanshavali/pkg/requestcontext"
)

func TestSubmitStoresPendingRegistration(t *testing.T) {
	store := NewInMemory()
	svc := NewService(store)

	now := time.Date(2026, 3, 14, 10, 0, 0, 0, time.UTC)
	ctx := requestcontext.WithTime(context.Background(), now)

	body := payload.Document{
		"personalDetails": map[string]any{
			"firstName": "Asha",
			"lastName":  "Rao",
			"email":     "",
		},
	}
	files := map[string]payload.File{
		"personalDetails.profileImage": {Data: []byte("img"), MimeType: "image/png", OriginalName: "asha.png"},
	}

	rec, err := svc.Submit(ctx, body, files)
	require.NoError(t, err)

	stored, err := store.FindByID(ctx, rec.ID)
	require.NoError(t, err)
	assert.Equal(t, StatusPending, stored.Doc.GetString("status"))
	assert.Equal(t, now, stored.Doc["createdAt"])
	// Cleaning removed the empty email; the upload became an image object.
	_, hasEmail := stored.Doc.GetPath("personalDetails.email")
	assert.False(t, hasEmail)
	assert.Equal(t, "asha.png", stored.Doc.GetString("personalDetails.profileImage.originalName"))
}

func TestSubmitRequiresName(t *testing.T) {
	svc := NewService(NewInMemory())

	_, err := svc.Submit(context.Background(), payload.Document{
		"personalDetails": map[string]any{"firstName": "Asha"},
	}, nil)

	require.Error(t, err)
	assert.True(t, dErrors.HasCode(err, dErrors.CodeValidation))
	assert.Equal(t, "Fill all the important credentials before submitting the form.", dErrors.MessageFor(err))
}

func TestListHonorsVanshParamForUnscopedAdmin(t *testing.T) {
	store := NewInMemory()
	svc := NewService(store)

	submit := func(first string, vansh any) {
		_, err := svc.Submit(context.Background(), payload.Document{
			"personalDetails": map[string]any{"firstName": first, "lastName": "Rao", "vansh": vansh},
		}, nil)
		require.NoError(t, err)
	}
	submit("Asha", "7")
	submit("Anil", 8)

	unscoped := requestcontext.WithActor(context.Background(), requestcontext.Actor{Role: "admin"})
	records, err := svc.List(unscoped, "7")
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, "Asha", records[0].Doc.GetString("personalDetails.firstName"))

	// A branch admin's own scope beats the query parameter.
	branch := requestcontext.WithActor(context.Background(), requestcontext.Actor{Role: "admin", ManagedVansh: "8"})
	records, err = svc.List(branch, "7")
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, "Anil", records[0].Doc.GetString("personalDetails.firstName"))
}

func TestGetUnknownRegistration(t *testing.T) {
	svc := NewService(NewInMemory())

	_, err := svc.Get(context.Background(), "missing")
	require.Error(t, err)
	assert.True(t, dErrors.HasCode(err, dErrors.CodeNotFound))
}
