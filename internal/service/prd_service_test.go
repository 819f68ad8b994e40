package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"prd-builder-be/internal/model"
	"prd-builder-be/internal/pkg/apperr"
	"prd-builder-be/internal/pkg/logger"
	"prd-builder-be/internal/repository/unitofwork"
	"prd-builder-be/pkg/database"
	"prd-builder-be/pkg/events"
	"prd-builder-be/pkg/questionnaire"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

type recordingPublisher struct {
	mu     sync.Mutex
	events []events.Event
}

func (p *recordingPublisher) Publish(_ context.Context, event events.Event) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, event)
	return nil
}

func (p *recordingPublisher) types() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]string, 0, len(p.events))
	for _, e := range p.events {
		out = append(out, e.EventType())
	}
	return out
}

type testClock struct {
	now time.Time
}

func (c *testClock) Now() time.Time { return c.now }

func (c *testClock) Advance(d time.Duration) { c.now = c.now.Add(d) }

type prdFixture struct {
	svc       IPrdService
	db        *gorm.DB
	clock     *testClock
	publisher *recordingPublisher
}

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := database.NewSQLiteDB(":memory:")
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&model.PrdDocument{}))
	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			_ = sqlDB.Close()
		}
	})
	return db
}

func newPrdFixture(t *testing.T) *prdFixture {
	t.Helper()
	db := newTestDB(t)
	clock := &testClock{now: time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC)}
	pub := &recordingPublisher{}

	svc := NewPrdService(unitofwork.NewRepositoryFactory(db), pub, logger.NewNopLogger())
	svc.(*prdService).now = clock.Now

	return &prdFixture{svc: svc, db: db, clock: clock, publisher: pub}
}

func validAnswers(name string) questionnaire.Answers {
	a := questionnaire.NewAnswers()
	a.Stage1.ServiceName = name
	a.Stage1.CoreFeatures = []string{"a"}
	return a
}

func ptr[T any](v T) *T { return &v }

func requireKind(t *testing.T, err error, kind apperr.Kind) *apperr.Error {
	t.Helper()
	require.Error(t, err)
	e, ok := apperr.As(err)
	require.True(t, ok, "expected classified error, got %v", err)
	require.Equal(t, kind, e.Kind, "message: %s", e.Message)
	return e
}

func TestCreateAnonymous(t *testing.T) {
	f := newPrdFixture(t)
	ctx := context.Background()

	doc, err := f.svc.Create(ctx, nil, validAnswers("X"))
	require.NoError(t, err)

	assert.NotEqual(t, uuid.Nil, doc.Id)
	assert.Nil(t, doc.UserId)
	assert.Nil(t, doc.GeneratedPrd)
	assert.True(t, doc.CreatedAt.Equal(doc.UpdatedAt))
	assert.True(t, doc.CreatedAt.Equal(f.clock.now))
	assert.Equal(t, []string{events.PrdDocumentCreated}, f.publisher.types())
}

func TestCreateRoundTrip(t *testing.T) {
	f := newPrdFixture(t)
	ctx := context.Background()
	owner := uuid.New()

	in := validAnswers("Planner")
	in.Stage1.CoreFeatures = []string{"calendar", "reminders"}
	in.Stage2.Themes = []string{"minimal"}
	in.Stage2.ColorSystem = questionnaire.ColorSystem{Primary: "#112233", Background: "#fff", DarkModeSupport: true}
	in.Stage3.TechStack.Frontend = []string{"react"}
	in.Stage3.AuthMethod = questionnaire.AuthMethodBiometric
	in.CurrentStage = questionnaire.Stage3

	created, err := f.svc.Create(ctx, &owner, in)
	require.NoError(t, err)

	got, err := f.svc.GetById(ctx, &owner, created.Id.String())
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, in, got.QuestionnaireData)
	assert.Equal(t, owner, *got.UserId)
}

func TestCreateKeepsUnsetOptionalFields(t *testing.T) {
	tests := []struct {
		name   string
		owner  *uuid.UUID
		mutate func(a *questionnaire.Answers)
	}{
		{"anonymous unset auth method", nil, func(a *questionnaire.Answers) { a.Stage3.AuthMethod = "" }},
		{"owned unset auth method", ptr(uuid.New()), func(a *questionnaire.Answers) { a.Stage3.AuthMethod = "" }},
		{"empty custom font", ptr(uuid.New()), func(a *questionnaire.Answers) {
			a.Stage2.Typography = questionnaire.TypographyCustom
			a.Stage2.CustomFont = ""
			a.Stage3.AuthMethod = ""
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newPrdFixture(t)
			ctx := context.Background()

			in := validAnswers("X")
			tt.mutate(&in)

			created, err := f.svc.Create(ctx, tt.owner, in)
			require.NoError(t, err)
			assert.Equal(t, in, created.QuestionnaireData)

			got, err := f.svc.GetById(ctx, tt.owner, created.Id.String())
			require.NoError(t, err)
			require.NotNil(t, got)
			assert.Equal(t, in, got.QuestionnaireData)
		})
	}
}

func TestCreateValidation(t *testing.T) {
	f := newPrdFixture(t)
	ctx := context.Background()

	oversized := validAnswers("X")
	for i := 0; i < 12; i++ {
		oversized.Stage3.ExternalAPIs = append(oversized.Stage3.ExternalAPIs, strings.Repeat("x", 9000))
	}

	tests := []struct {
		name    string
		mutate  func(a *questionnaire.Answers)
		owner   *uuid.UUID
		message string
	}{
		{
			name:    "empty service name",
			mutate:  func(a *questionnaire.Answers) { a.Stage1.ServiceName = "" },
			message: "invalid questionnaire data",
		},
		{
			name:    "whitespace service name",
			mutate:  func(a *questionnaire.Answers) { a.Stage1.ServiceName = "   " },
			message: "invalid questionnaire data",
		},
		{
			name:    "no core features",
			mutate:  func(a *questionnaire.Answers) { a.Stage1.CoreFeatures = nil },
			message: "invalid questionnaire data",
		},
		{
			name:    "payload too large",
			mutate:  func(a *questionnaire.Answers) { *a = oversized },
			message: "questionnaire data exceeds the 100KB limit",
		},
		{
			name:    "nil owner id",
			mutate:  func(a *questionnaire.Answers) {},
			owner:   ptr(uuid.Nil),
			message: "invalid user id format",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a := validAnswers("X")
			tt.mutate(&a)

			_, err := f.svc.Create(ctx, tt.owner, a)
			e := requireKind(t, err, apperr.KindValidation)
			assert.Equal(t, tt.message, e.Message)
		})
	}

	var count int64
	require.NoError(t, f.db.Model(&model.PrdDocument{}).Count(&count).Error)
	assert.Zero(t, count, "failed creates must not persist anything")
	assert.Empty(t, f.publisher.types())
}

func TestGetByIdVisibility(t *testing.T) {
	f := newPrdFixture(t)
	ctx := context.Background()
	owner, other := uuid.New(), uuid.New()

	anon, err := f.svc.Create(ctx, nil, validAnswers("anon"))
	require.NoError(t, err)
	owned, err := f.svc.Create(ctx, &owner, validAnswers("owned"))
	require.NoError(t, err)

	tests := []struct {
		name    string
		caller  *uuid.UUID
		id      string
		visible bool
	}{
		{"anonymous doc to guest", nil, anon.Id.String(), true},
		{"anonymous doc to user", &other, anon.Id.String(), true},
		{"owned doc to owner", &owner, owned.Id.String(), true},
		{"owned doc to other user", &other, owned.Id.String(), false},
		{"owned doc to guest", nil, owned.Id.String(), false},
		{"missing doc", &owner, uuid.NewString(), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := f.svc.GetById(ctx, tt.caller, tt.id)
			require.NoError(t, err)
			if tt.visible {
				require.NotNil(t, got)
				assert.Equal(t, tt.id, got.Id.String())
			} else {
				assert.Nil(t, got)
			}
		})
	}
}

func TestGetByIdRejectsMalformedId(t *testing.T) {
	f := newPrdFixture(t)

	for _, id := range []string{"", "  ", "not-a-uuid", uuid.Nil.String()} {
		_, err := f.svc.GetById(context.Background(), nil, id)
		requireKind(t, err, apperr.KindValidation)
	}
}

func TestListByOwnerPagination(t *testing.T) {
	f := newPrdFixture(t)
	ctx := context.Background()
	owner, other := uuid.New(), uuid.New()

	var ids []string
	for i := 0; i < 15; i++ {
		doc, err := f.svc.Create(ctx, &owner, validAnswers("doc"))
		require.NoError(t, err)
		ids = append(ids, doc.Id.String())
		f.clock.Advance(time.Second)
	}
	_, err := f.svc.Create(ctx, &other, validAnswers("foreign"))
	require.NoError(t, err)
	_, err = f.svc.Create(ctx, nil, validAnswers("anon"))
	require.NoError(t, err)

	page, total, err := f.svc.ListByOwner(ctx, owner, 2, 5)
	require.NoError(t, err)
	assert.EqualValues(t, 15, total)
	require.Len(t, page, 5)

	// Newest first: the 6th..10th most recent.
	for i, doc := range page {
		assert.Equal(t, ids[14-5-i], doc.Id.String())
		assert.Equal(t, owner, *doc.UserId)
	}

	empty, total, err := f.svc.ListByOwner(ctx, owner, 9999, 5)
	require.NoError(t, err)
	assert.EqualValues(t, 15, total)
	assert.NotNil(t, empty)
	assert.Empty(t, empty)

	none, total, err := f.svc.ListByOwner(ctx, uuid.New(), 1, 10)
	require.NoError(t, err)
	assert.Zero(t, total)
	assert.Empty(t, none)
}

func TestListByOwnerRejectsBadWindow(t *testing.T) {
	f := newPrdFixture(t)
	ctx := context.Background()

	tests := []struct {
		page, limit int
		message     string
	}{
		{0, 10, "page must be at least 1"},
		{-1, 10, "page must be at least 1"},
		{1, 0, "limit must be between 1 and 100"},
		{1, 101, "limit must be between 1 and 100"},
	}
	for _, tt := range tests {
		_, _, err := f.svc.ListByOwner(ctx, uuid.New(), tt.page, tt.limit)
		e := requireKind(t, err, apperr.KindValidation)
		assert.Equal(t, tt.message, e.Message)
	}
}

func TestListAnonymous(t *testing.T) {
	f := newPrdFixture(t)
	ctx := context.Background()
	owner := uuid.New()

	for i := 0; i < 3; i++ {
		_, err := f.svc.Create(ctx, nil, validAnswers("anon"))
		require.NoError(t, err)
		f.clock.Advance(time.Second)
	}
	_, err := f.svc.Create(ctx, &owner, validAnswers("owned"))
	require.NoError(t, err)

	docs, err := f.svc.ListAnonymous(ctx, 2)
	require.NoError(t, err)
	require.Len(t, docs, 2)
	for _, d := range docs {
		assert.Nil(t, d.UserId)
	}
	assert.True(t, docs[0].CreatedAt.After(docs[1].CreatedAt))

	_, err = f.svc.ListAnonymous(ctx, 0)
	requireKind(t, err, apperr.KindValidation)
}

func TestUpdateByOwner(t *testing.T) {
	f := newPrdFixture(t)
	ctx := context.Background()
	owner := uuid.New()

	created, err := f.svc.Create(ctx, &owner, validAnswers("X"))
	require.NoError(t, err)
	f.clock.Advance(time.Minute)

	updated, err := f.svc.Update(ctx, owner, created.Id.String(), PrdDocumentPatch{
		SetGeneratedPrd: true,
		GeneratedPrd:    ptr("# Doc"),
	})
	require.NoError(t, err)
	require.NotNil(t, updated.GeneratedPrd)
	assert.Equal(t, "# Doc", *updated.GeneratedPrd)
	assert.Equal(t, created.QuestionnaireData, updated.QuestionnaireData)
	assert.True(t, updated.UpdatedAt.After(created.UpdatedAt))
	assert.True(t, updated.CreatedAt.Equal(created.CreatedAt))

	// Explicit null clears the generated document.
	cleared, err := f.svc.Update(ctx, owner, created.Id.String(), PrdDocumentPatch{SetGeneratedPrd: true})
	require.NoError(t, err)
	assert.Nil(t, cleared.GeneratedPrd)

	newData := validAnswers("Renamed")
	replaced, err := f.svc.Update(ctx, owner, created.Id.String(), PrdDocumentPatch{QuestionnaireData: &newData})
	require.NoError(t, err)
	assert.Equal(t, "Renamed", replaced.QuestionnaireData.Stage1.ServiceName)
	assert.Nil(t, replaced.GeneratedPrd)

	assert.Equal(t, []string{
		events.PrdDocumentCreated,
		events.PrdDocumentUpdated,
		events.PrdDocumentUpdated,
		events.PrdDocumentUpdated,
	}, f.publisher.types())
}

func TestUpdateEmptyPatchOnlyAdvancesUpdatedAt(t *testing.T) {
	f := newPrdFixture(t)
	ctx := context.Background()
	owner := uuid.New()

	created, err := f.svc.Create(ctx, &owner, validAnswers("X"))
	require.NoError(t, err)
	_, err = f.svc.Update(ctx, owner, created.Id.String(), PrdDocumentPatch{SetGeneratedPrd: true, GeneratedPrd: ptr("v1")})
	require.NoError(t, err)
	before, err := f.svc.GetById(ctx, &owner, created.Id.String())
	require.NoError(t, err)

	// Same clock reading: updated_at must still move forward.
	after, err := f.svc.Update(ctx, owner, created.Id.String(), PrdDocumentPatch{})
	require.NoError(t, err)

	assert.Equal(t, before.Id, after.Id)
	assert.Equal(t, before.UserId, after.UserId)
	assert.Equal(t, before.QuestionnaireData, after.QuestionnaireData)
	assert.Equal(t, before.GeneratedPrd, after.GeneratedPrd)
	assert.True(t, before.CreatedAt.Equal(after.CreatedAt))
	assert.True(t, after.UpdatedAt.After(before.UpdatedAt))
}

func TestUpdateClockBehindCreatedAt(t *testing.T) {
	f := newPrdFixture(t)
	ctx := context.Background()
	owner := uuid.New()

	created, err := f.svc.Create(ctx, &owner, validAnswers("X"))
	require.NoError(t, err)

	f.clock.Advance(-time.Hour)
	updated, err := f.svc.Update(ctx, owner, created.Id.String(), PrdDocumentPatch{})
	require.NoError(t, err)
	assert.False(t, updated.UpdatedAt.Before(updated.CreatedAt))
	assert.True(t, updated.UpdatedAt.After(created.UpdatedAt))
}

func TestUpdateDenied(t *testing.T) {
	f := newPrdFixture(t)
	ctx := context.Background()
	owner, other := uuid.New(), uuid.New()

	anon, err := f.svc.Create(ctx, nil, validAnswers("anon"))
	require.NoError(t, err)
	owned, err := f.svc.Create(ctx, &owner, validAnswers("owned"))
	require.NoError(t, err)

	tests := []struct {
		name    string
		caller  uuid.UUID
		id      string
		patch   PrdDocumentPatch
		kind    apperr.Kind
		message string
	}{
		{
			name:    "anonymous document",
			caller:  owner,
			id:      anon.Id.String(),
			patch:   PrdDocumentPatch{SetGeneratedPrd: true, GeneratedPrd: ptr("x")},
			kind:    apperr.KindAuthorization,
			message: "anonymous documents cannot be modified",
		},
		{
			name:    "other owner",
			caller:  other,
			id:      owned.Id.String(),
			patch:   PrdDocumentPatch{SetGeneratedPrd: true, GeneratedPrd: ptr("x")},
			kind:    apperr.KindAuthorization,
			message: "no permission to modify this document",
		},
		{
			name:    "missing document",
			caller:  owner,
			id:      uuid.NewString(),
			kind:    apperr.KindNotFound,
			message: "document not found",
		},
		{
			name:    "malformed id",
			caller:  owner,
			id:      "abc",
			kind:    apperr.KindValidation,
			message: "invalid document id format",
		},
		{
			name:    "invalid questionnaire",
			caller:  owner,
			id:      owned.Id.String(),
			patch:   PrdDocumentPatch{QuestionnaireData: ptr(questionnaire.NewAnswers())},
			kind:    apperr.KindValidation,
			message: "invalid questionnaire data",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := f.svc.Update(ctx, tt.caller, tt.id, tt.patch)
			e := requireKind(t, err, tt.kind)
			assert.Equal(t, tt.message, e.Message)
		})
	}

	// Nothing changed on either document.
	got, err := f.svc.GetById(ctx, &owner, owned.Id.String())
	require.NoError(t, err)
	assert.Nil(t, got.GeneratedPrd)
	assert.True(t, got.UpdatedAt.Equal(owned.UpdatedAt))
}

func TestDelete(t *testing.T) {
	f := newPrdFixture(t)
	ctx := context.Background()
	owner, other := uuid.New(), uuid.New()

	anon, err := f.svc.Create(ctx, nil, validAnswers("anon"))
	require.NoError(t, err)
	owned, err := f.svc.Create(ctx, &owner, validAnswers("owned"))
	require.NoError(t, err)

	err = f.svc.Delete(ctx, owner, anon.Id.String())
	e := requireKind(t, err, apperr.KindAuthorization)
	assert.Equal(t, "anonymous documents cannot be deleted", e.Message)

	err = f.svc.Delete(ctx, other, owned.Id.String())
	e = requireKind(t, err, apperr.KindAuthorization)
	assert.Equal(t, "no permission to delete this document", e.Message)

	require.NoError(t, f.svc.Delete(ctx, owner, owned.Id.String()))
	got, err := f.svc.GetById(ctx, &owner, owned.Id.String())
	require.NoError(t, err)
	assert.Nil(t, got)

	// Idempotent: a second delete and a delete of an unknown id both succeed.
	require.NoError(t, f.svc.Delete(ctx, owner, owned.Id.String()))
	require.NoError(t, f.svc.Delete(ctx, owner, uuid.NewString()))

	_, err = f.svc.Update(ctx, owner, owned.Id.String(), PrdDocumentPatch{})
	requireKind(t, err, apperr.KindNotFound)

	still, err := f.svc.GetById(ctx, nil, anon.Id.String())
	require.NoError(t, err)
	assert.NotNil(t, still, "denied delete must leave the document in place")

	assert.Equal(t, []string{
		events.PrdDocumentCreated,
		events.PrdDocumentCreated,
		events.PrdDocumentDeleted,
	}, f.publisher.types())
}

func TestPublishFailureDoesNotFailRequest(t *testing.T) {
	db := newTestDB(t)
	svc := NewPrdService(unitofwork.NewRepositoryFactory(db), failingPublisher{}, logger.NewNopLogger())

	doc, err := svc.Create(context.Background(), nil, validAnswers("X"))
	require.NoError(t, err)
	assert.NotNil(t, doc)
}

type failingPublisher struct{}

func (failingPublisher) Publish(context.Context, events.Event) error {
	return assert.AnError
}

func TestStorageErrorClassification(t *testing.T) {
	s := &prdService{logger: logger.NewNopLogger()}

	denied := fmt.Errorf("exec update: %w", &pgconn.PgError{Code: "42501", Message: "new row violates row-level security policy"})
	e := requireKind(t, s.storageError("update", "failed to update document", "no permission to modify this document", denied), apperr.KindAuthorization)
	assert.Equal(t, "no permission to modify this document", e.Message)

	other := &pgconn.PgError{Code: "57014", Message: "canceling statement due to statement timeout"}
	e = requireKind(t, s.storageError("list", "failed to list documents", "", other), apperr.KindDatabase)
	assert.Equal(t, "failed to list documents", e.Message)
	assert.True(t, errors.Is(e, other))
}
