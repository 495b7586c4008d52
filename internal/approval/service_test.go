package approval

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"vanshavali/internal/credentials"
	"vanshavali/internal/member"
	"vanshavali/internal/notify"
	"vanshavali/internal/payload"
	"vanshavali/internal/registration"
	"vanshavali/internal/rejected"
	"vanshavali/internal/scope"
	"vanshavali/internal/serial"
	dErrors "vanshavali/pkg/domain-errors"
)

type recordingMailer struct {
	mu   sync.Mutex
	sent []notify.ApprovalEmail
}

func (m *recordingMailer) SendApproval(_ context.Context, msg notify.ApprovalEmail) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sent = append(m.sent, msg)
	return nil
}

type fixture struct {
	svc           *Service
	registrations *registration.InMemory
	members       *member.InMemory
	rejections    *rejected.InMemory
	mailer        *recordingMailer
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	f := &fixture{
		registrations: registration.NewInMemory(),
		members:       member.NewInMemory(),
		rejections:    rejected.NewInMemory(),
		mailer:        &recordingMailer{},
	}
	f.svc = NewService(f.registrations, f.members, f.rejections, serial.NewMemory(0),
		WithMailer(f.mailer))
	return f
}

func (f *fixture) submit(t *testing.T, doc payload.Document) string {
	t.Helper()
	rec, err := f.registrations.Insert(context.Background(), doc)
	require.NoError(t, err)
	return rec.ID
}

func (f *fixture) allMembers(t *testing.T) []member.Record {
	t.Helper()
	records, _, err := f.members.List(context.Background(), member.ListQuery{})
	require.NoError(t, err)
	return records
}

func TestApproveAssignsSerialAndCredentials(t *testing.T) {
	f := newFixture(t)
	id := f.submit(t, payload.Document{
		"personalDetails": map[string]any{
			"firstName": "Asha",
			"lastName":  "Rao",
			"email":     "asha.rao@realmail.com",
		},
		"status": registration.StatusPending,
	})

	decision, err := f.svc.Decide(context.Background(), id, registration.StatusApproved, "")
	require.NoError(t, err)

	assert.Equal(t, registration.StatusApproved, decision.Status)
	assert.Equal(t, "asha_1", decision.Username)
	assert.True(t, decision.EmailSent)

	members := f.allMembers(t)
	require.Len(t, members, 1)
	doc := members[0].Doc
	assert.Equal(t, int64(1), member.SerNo(doc))
	assert.Equal(t, true, doc["isapproved"])
	assert.Contains(t, doc.GetString("_sheetRowKey"), "form_")

	// Terminal decision: the registration leaves the pending store.
	_, err = f.registrations.FindByID(context.Background(), id)
	assert.Error(t, err)

	require.Len(t, f.mailer.sent, 1)
	assert.Equal(t, "asha.rao@realmail.com", f.mailer.sent[0].Email)
	assert.Equal(t, decision.Username, f.mailer.sent[0].Username)
	assert.Len(t, f.mailer.sent[0].Password, 10)

	// The mailed plaintext is never stored; only its bcrypt hash is.
	full, err := f.members.FindByID(context.Background(), members[0].ID)
	require.NoError(t, err)
	stored := full.Doc.GetString("password")
	assert.NotEqual(t, f.mailer.sent[0].Password, stored)
	require.NoError(t, credentials.Verify(f.mailer.sent[0].Password, stored))
}

func TestApproveCreatesMissingFather(t *testing.T) {
	f := newFixture(t)
	id := f.submit(t, payload.Document{
		"personalDetails": map[string]any{
			"firstName": "Asha",
			"lastName":  "Rao",
			"vansh":     7,
		},
		"parentsInformation": map[string]any{
			"fatherFirstName": "Ram",
			"fatherLastName":  "Rao",
		},
	})

	_, err := f.svc.Decide(context.Background(), id, registration.StatusApproved, "")
	require.NoError(t, err)

	members := f.allMembers(t)
	require.Len(t, members, 2)

	asha, err := f.members.FindByName(context.Background(), "Asha", "Rao")
	require.NoError(t, err)
	ram, err := f.members.FindByName(context.Background(), "Ram", "Rao")
	require.NoError(t, err)

	assert.Equal(t, int64(1), member.SerNo(asha.Doc))
	assert.Equal(t, int64(2), member.SerNo(ram.Doc))

	fatherSerNo, ok := asha.Doc.GetPath("parentsInformation.fatherSerNo")
	require.True(t, ok)
	assert.Equal(t, int64(2), fatherSerNo)
	assert.Equal(t, int64(2), asha.Doc["fatherSerNo"])

	assert.Equal(t, true, ram.Doc["autoCreated"])
	assert.Equal(t, "male", ram.Doc.GetString("personalDetails.gender"))
	assert.Equal(t, 7, ram.Doc["personalDetails"].(map[string]any)["vansh"])
	assert.Contains(t, ram.Doc.GetString("_sheetRowKey"), "auto_father_")
	// Stand-ins never get credentials.
	assert.Empty(t, ram.Doc.GetString("username"))
	assert.NotEmpty(t, asha.Doc.GetString("username"))
}

func TestApproveLinksExistingParents(t *testing.T) {
	f := newFixture(t)
	f.svc.serials = serial.NewMemory(10)

	_, err := f.members.Insert(context.Background(), payload.Document{
		"serNo": int64(5),
		"personalDetails": map[string]any{
			"firstName": "Ram",
			"lastName":  "Rao",
		},
	})
	require.NoError(t, err)
	// Legacy flat shape must also link.
	_, err = f.members.Insert(context.Background(), payload.Document{
		"serNo":     int64(6),
		"firstName": "Sita",
		"lastName":  "Rao",
	})
	require.NoError(t, err)

	id := f.submit(t, payload.Document{
		"personalDetails": map[string]any{"firstName": "Asha", "lastName": "Rao"},
		"parentsInformation": map[string]any{
			"fatherFirstName": "Ram",
			"fatherLastName":  "Rao",
			"motherFirstName": "Sita",
			"motherLastName":  "Rao",
		},
	})

	_, err = f.svc.Decide(context.Background(), id, registration.StatusApproved, "")
	require.NoError(t, err)

	// Linking never creates: two parents plus the promoted child.
	require.Len(t, f.allMembers(t), 3)

	asha, err := f.members.FindByName(context.Background(), "Asha", "Rao")
	require.NoError(t, err)
	assert.Equal(t, int64(5), asha.Doc["fatherSerNo"])
	assert.Equal(t, int64(6), asha.Doc["motherSerNo"])
}

func TestApproveSkipsParentWithPartialName(t *testing.T) {
	f := newFixture(t)
	id := f.submit(t, payload.Document{
		"personalDetails": map[string]any{"firstName": "Asha", "lastName": "Rao"},
		"parentsInformation": map[string]any{
			"fatherFirstName": "Ram",
			// No last name: not enough to link or create.
		},
	})

	_, err := f.svc.Decide(context.Background(), id, registration.StatusApproved, "")
	require.NoError(t, err)

	members := f.allMembers(t)
	require.Len(t, members, 1)
	asha, err := f.members.FindByName(context.Background(), "Asha", "Rao")
	require.NoError(t, err)
	_, hasLink := asha.Doc["fatherSerNo"]
	assert.False(t, hasLink)
}

func TestApproveEmailGating(t *testing.T) {
	tests := []struct {
		name     string
		email    string
		wantSent bool
	}{
		{name: "placeholder address is skipped", email: "test@gmail.com", wantSent: false},
		{name: "real address is attempted", email: "jane.doe@realcompany.com", wantSent: true},
		{name: "missing address is skipped", email: "", wantSent: false},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			f := newFixture(t)
			details := map[string]any{"firstName": "Jane", "lastName": "Doe"}
			if tc.email != "" {
				details["email"] = tc.email
			}
			id := f.submit(t, payload.Document{"personalDetails": details})

			decision, err := f.svc.Decide(context.Background(), id, registration.StatusApproved, "")
			require.NoError(t, err)

			assert.Equal(t, tc.wantSent, decision.EmailSent)
			if tc.wantSent {
				require.Len(t, f.mailer.sent, 1)
				assert.Equal(t, tc.email, f.mailer.sent[0].Email)
			} else {
				assert.Empty(t, f.mailer.sent)
			}
		})
	}
}

func TestRejectArchivesSnapshot(t *testing.T) {
	f := newFixture(t)
	id := f.submit(t, payload.Document{
		"personalDetails": map[string]any{"firstName": "Asha", "lastName": "Rao"},
	})

	decision, err := f.svc.Decide(context.Background(), id, registration.StatusRejected, "duplicate entry")
	require.NoError(t, err)
	assert.Equal(t, registration.StatusRejected, decision.Status)

	archived, err := f.rejections.List(context.Background(), scope.Filter{})
	require.NoError(t, err)
	require.Len(t, archived, 1)
	doc := archived[0].Doc
	assert.Equal(t, registration.StatusRejected, doc.GetString("status"))
	assert.Equal(t, "duplicate entry", doc.GetString("adminNotes"))
	assert.NotNil(t, doc["rejectedAt"])

	_, err = f.registrations.FindByID(context.Background(), id)
	assert.Error(t, err)
	assert.Empty(t, f.allMembers(t))
}

func TestReviewUpdatesInPlace(t *testing.T) {
	f := newFixture(t)
	id := f.submit(t, payload.Document{
		"personalDetails": map[string]any{"firstName": "Asha", "lastName": "Rao"},
		"status":          registration.StatusPending,
	})

	decision, err := f.svc.Decide(context.Background(), id, registration.StatusUnderReview, "checking lineage")
	require.NoError(t, err)
	assert.Equal(t, registration.StatusUnderReview, decision.Status)

	rec, err := f.registrations.FindByID(context.Background(), id)
	require.NoError(t, err)
	assert.Equal(t, registration.StatusUnderReview, rec.Doc.GetString("status"))
	assert.Equal(t, "checking lineage", rec.Doc.GetString("adminNotes"))
	assert.NotNil(t, rec.Doc["reviewedAt"])
	assert.Empty(t, f.allMembers(t))
}

func TestDecideUnknownRegistration(t *testing.T) {
	f := newFixture(t)
	_, err := f.svc.Decide(context.Background(), "missing", registration.StatusApproved, "")
	require.Error(t, err)
	assert.True(t, dErrors.HasCode(err, dErrors.CodeNotFound))
}

func TestDecideRequiresStatus(t *testing.T) {
	f := newFixture(t)
	_, err := f.svc.Decide(context.Background(), "anything", "", "")
	require.Error(t, err)
	assert.True(t, dErrors.HasCode(err, dErrors.CodeBadRequest))
}

func TestDecideRejectsUnknownStatus(t *testing.T) {
	f := newFixture(t)
	id := f.submit(t, payload.Document{
		"personalDetails": map[string]any{"firstName": "Asha", "lastName": "Rao"},
	})

	_, err := f.svc.Decide(context.Background(), id, "frobnicated", "")
	require.Error(t, err)
	assert.True(t, dErrors.HasCode(err, dErrors.CodeBadRequest))

	// The registration is untouched.
	rec, err := f.registrations.FindByID(context.Background(), id)
	require.NoError(t, err)
	assert.NotEqual(t, "frobnicated", rec.Doc.GetString("status"))
}

func TestBulkDecideReportsPerItem(t *testing.T) {
	f := newFixture(t)
	okID := f.submit(t, payload.Document{
		"personalDetails": map[string]any{"firstName": "Asha", "lastName": "Rao"},
	})

	results := f.svc.BulkDecide(context.Background(), []string{okID, "missing"}, registration.StatusApproved, "")
	require.Len(t, results, 2)

	assert.True(t, results[0].Success)
	require.NotNil(t, results[0].Decision)
	assert.Equal(t, registration.StatusApproved, results[0].Decision.Status)

	assert.False(t, results[1].Success)
	assert.Equal(t, "Registration not found", results[1].Message)
}

func TestConcurrentApprovalsAssignUniqueSerials(t *testing.T) {
	f := newFixture(t)

	const n = 25
	ids := make([]string, n)
	for i := range ids {
		ids[i] = f.submit(t, payload.Document{
			"personalDetails": map[string]any{
				"firstName": "Member",
				"lastName":  "Number" + string(rune('A'+i)),
			},
		})
	}

	var wg sync.WaitGroup
	errs := make([]error, n)
	for i, id := range ids {
		wg.Add(1)
		go func(i int, id string) {
			defer wg.Done()
			_, errs[i] = f.svc.Decide(context.Background(), id, registration.StatusApproved, "")
		}(i, id)
	}
	wg.Wait()

	for i, err := range errs {
		require.NoError(t, err, "approval %d", i)
	}

	members := f.allMembers(t)
	require.Len(t, members, n)
	seen := make(map[int64]bool, n)
	for _, rec := range members {
		serNo := member.SerNo(rec.Doc)
		assert.Greater(t, serNo, int64(0))
		assert.False(t, seen[serNo], "serNo %d assigned twice", serNo)
		seen[serNo] = true
	}
}
