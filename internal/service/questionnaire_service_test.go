package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"prd-builder-be/internal/dto"
	"prd-builder-be/internal/pkg/apperr"
	"prd-builder-be/internal/pkg/logger"
	"prd-builder-be/internal/repository/memory"
	"prd-builder-be/pkg/questionnaire"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newQuestionnaireFixture(t *testing.T) (IQuestionnaireService, *prdFixture) {
	t.Helper()
	f := newPrdFixture(t)
	svc := NewQuestionnaireService(memory.NewDraftRepository(time.Hour), f.svc, logger.NewNopLogger())
	return svc, f
}

func stage1Update(name string, features ...string) *dto.UpdateStageRequest {
	return &dto.UpdateStageRequest{
		Stage: questionnaire.Stage1,
		Stage1: &questionnaire.Stage1Patch{
			ServiceName:  ptr(name),
			CoreFeatures: ptr(features),
		},
	}
}

func TestGetDraftDefaults(t *testing.T) {
	svc, _ := newQuestionnaireFixture(t)

	res, err := svc.GetDraft(context.Background(), uuid.New())
	require.NoError(t, err)
	assert.Equal(t, questionnaire.NewAnswers(), res.Draft)
	assert.Equal(t, questionnaire.Stage1, res.Progress.CurrentStage)
	assert.Equal(t, 67, res.Progress.Percentage)
}

func TestUpdateStagePersistsPerUser(t *testing.T) {
	svc, _ := newQuestionnaireFixture(t)
	ctx := context.Background()
	alice, bob := uuid.New(), uuid.New()

	res, err := svc.UpdateStage(ctx, alice, stage1Update("Planner", "calendar"))
	require.NoError(t, err)
	assert.Equal(t, "Planner", res.Draft.Stage1.ServiceName)
	assert.Equal(t, 100, res.Progress.Percentage)

	_, err = svc.UpdateStage(ctx, alice, &dto.UpdateStageRequest{
		Stage:  questionnaire.Stage2,
		Stage2: &questionnaire.Stage2Patch{BrandKeywords: ptr([]string{"calm"})},
	})
	require.NoError(t, err)

	got, err := svc.GetDraft(ctx, alice)
	require.NoError(t, err)
	assert.Equal(t, "Planner", got.Draft.Stage1.ServiceName)
	assert.Equal(t, []string{"calm"}, got.Draft.Stage2.BrandKeywords)

	other, err := svc.GetDraft(ctx, bob)
	require.NoError(t, err)
	assert.Empty(t, other.Draft.Stage1.ServiceName)
}

func TestUpdateStageRejectsMismatchedPatch(t *testing.T) {
	svc, _ := newQuestionnaireFixture(t)

	_, err := svc.UpdateStage(context.Background(), uuid.New(), &dto.UpdateStageRequest{
		Stage:  questionnaire.Stage2,
		Stage1: &questionnaire.Stage1Patch{ServiceName: ptr("X")},
	})
	requireKind(t, err, apperr.KindValidation)
}

func TestSetCurrentStageIsGated(t *testing.T) {
	svc, _ := newQuestionnaireFixture(t)
	ctx := context.Background()
	user := uuid.New()

	_, err := svc.SetCurrentStage(ctx, user, questionnaire.Stage3)
	e := requireKind(t, err, apperr.KindValidation)
	assert.Equal(t, []questionnaire.Stage{questionnaire.Stage1}, e.Details["incompleteStages"])

	_, err = svc.UpdateStage(ctx, user, stage1Update("X", "a"))
	require.NoError(t, err)

	res, err := svc.SetCurrentStage(ctx, user, questionnaire.Stage3)
	require.NoError(t, err)
	assert.Equal(t, questionnaire.Stage3, res.Progress.CurrentStage)

	// Going back is always allowed.
	res, err = svc.SetCurrentStage(ctx, user, questionnaire.Stage1)
	require.NoError(t, err)
	assert.Equal(t, questionnaire.Stage1, res.Draft.CurrentStage)

	_, err = svc.SetCurrentStage(ctx, user, questionnaire.Stage(4))
	requireKind(t, err, apperr.KindValidation)
}

func TestResetClearsDraft(t *testing.T) {
	svc, _ := newQuestionnaireFixture(t)
	ctx := context.Background()
	user := uuid.New()

	_, err := svc.UpdateStage(ctx, user, stage1Update("X", "a"))
	require.NoError(t, err)

	res, err := svc.Reset(ctx, user)
	require.NoError(t, err)
	assert.Equal(t, questionnaire.NewAnswers(), res.Draft)

	got, err := svc.GetDraft(ctx, user)
	require.NoError(t, err)
	assert.Empty(t, got.Draft.Stage1.ServiceName)
}

func TestSubmitCreatesOwnedDocument(t *testing.T) {
	svc, f := newQuestionnaireFixture(t)
	ctx := context.Background()
	user := uuid.New()

	_, err := svc.Submit(ctx, user)
	requireKind(t, err, apperr.KindValidation)

	_, err = svc.UpdateStage(ctx, user, stage1Update("Planner", "calendar"))
	require.NoError(t, err)

	doc, err := svc.Submit(ctx, user)
	require.NoError(t, err)
	require.NotNil(t, doc.UserId)
	assert.Equal(t, user, *doc.UserId)
	assert.Equal(t, "Planner", doc.QuestionnaireData.Stage1.ServiceName)

	stored, err := f.svc.GetById(ctx, &user, doc.Id.String())
	require.NoError(t, err)
	require.NotNil(t, stored)

	draft, err := svc.GetDraft(ctx, user)
	require.NoError(t, err)
	assert.Empty(t, draft.Draft.Stage1.ServiceName, "draft is cleared after submit")
}

func TestEvaluateIsStateless(t *testing.T) {
	svc, _ := newQuestionnaireFixture(t)

	a := questionnaire.NewAnswers()
	a.Stage1.ServiceName = "X"
	a.Stage1.CoreFeatures = []string{"a"}
	a.CurrentStage = 9

	res := svc.Evaluate(a)
	assert.Equal(t, questionnaire.Stage1, res.Draft.CurrentStage)
	assert.Equal(t, 100, res.Progress.Percentage)
}

type brokenDrafts struct{}

func (brokenDrafts) Get(context.Context, uuid.UUID) (questionnaire.Answers, bool, error) {
	return questionnaire.Answers{}, false, errors.New("connection refused")
}

func (brokenDrafts) Save(context.Context, uuid.UUID, questionnaire.Answers) error {
	return errors.New("connection refused")
}

func (brokenDrafts) Delete(context.Context, uuid.UUID) error {
	return errors.New("connection refused")
}

func TestDraftStoreFailuresAreDatabaseErrors(t *testing.T) {
	svc := NewQuestionnaireService(brokenDrafts{}, nil, logger.NewNopLogger())
	ctx := context.Background()

	_, err := svc.GetDraft(ctx, uuid.New())
	requireKind(t, err, apperr.KindDatabase)

	_, err = svc.Reset(ctx, uuid.New())
	requireKind(t, err, apperr.KindDatabase)
}
