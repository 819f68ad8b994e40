package service

import (
	"context"
	"slices"

	"prd-builder-be/internal/dto"
	"prd-builder-be/internal/pkg/apperr"
	"prd-builder-be/internal/pkg/logger"
	"prd-builder-be/internal/repository/contract"
	"prd-builder-be/pkg/questionnaire"

	"github.com/google/uuid"
)

// IQuestionnaireService hosts a user's in-progress questionnaire. Every call
// restores a machine from the stored snapshot, applies one action and saves
// the snapshot back; completion is always recomputed, never stored.
type IQuestionnaireService interface {
	GetDraft(ctx context.Context, userId uuid.UUID) (*dto.DraftResponse, error)
	UpdateStage(ctx context.Context, userId uuid.UUID, req *dto.UpdateStageRequest) (*dto.DraftResponse, error)
	SetCurrentStage(ctx context.Context, userId uuid.UUID, stage questionnaire.Stage) (*dto.DraftResponse, error)
	Reset(ctx context.Context, userId uuid.UUID) (*dto.DraftResponse, error)
	Submit(ctx context.Context, userId uuid.UUID) (*dto.PrdDocumentResponse, error)
	Evaluate(snapshot questionnaire.Answers) *dto.DraftResponse
}

type questionnaireService struct {
	drafts     contract.DraftRepository
	prdService IPrdService
	logger     logger.ILogger
}

func NewQuestionnaireService(drafts contract.DraftRepository, prdService IPrdService, log logger.ILogger) IQuestionnaireService {
	return &questionnaireService{
		drafts:     drafts,
		prdService: prdService,
		logger:     log,
	}
}

func (s *questionnaireService) load(ctx context.Context, userId uuid.UUID) (*questionnaire.Machine, error) {
	snapshot, found, err := s.drafts.Get(ctx, userId)
	if err != nil {
		s.logger.Error("QuestionnaireService", "Failed to load draft", map[string]interface{}{
			"user_id": userId,
			"error":   err.Error(),
		})
		return nil, apperr.Database("failed to load questionnaire draft", err)
	}
	if !found {
		return questionnaire.NewMachine(), nil
	}
	return questionnaire.Restore(snapshot), nil
}

func (s *questionnaireService) save(ctx context.Context, userId uuid.UUID, m *questionnaire.Machine) error {
	if err := s.drafts.Save(ctx, userId, m.Snapshot()); err != nil {
		s.logger.Error("QuestionnaireService", "Failed to save draft", map[string]interface{}{
			"user_id": userId,
			"error":   err.Error(),
		})
		return apperr.Database("failed to save questionnaire draft", err)
	}
	return nil
}

func (s *questionnaireService) GetDraft(ctx context.Context, userId uuid.UUID) (*dto.DraftResponse, error) {
	m, err := s.load(ctx, userId)
	if err != nil {
		return nil, err
	}
	return dto.NewDraftResponse(m), nil
}

func (s *questionnaireService) UpdateStage(ctx context.Context, userId uuid.UUID, req *dto.UpdateStageRequest) (*dto.DraftResponse, error) {
	m, err := s.load(ctx, userId)
	if err != nil {
		return nil, err
	}

	switch {
	case req.Stage == questionnaire.Stage1 && req.Stage1 != nil:
		m.UpdateStage1(*req.Stage1)
	case req.Stage == questionnaire.Stage2 && req.Stage2 != nil:
		m.UpdateStage2(*req.Stage2)
	case req.Stage == questionnaire.Stage3 && req.Stage3 != nil:
		m.UpdateStage3(*req.Stage3)
	default:
		return nil, apperr.Validation("stage must be 1, 2 or 3")
	}

	if err := s.save(ctx, userId, m); err != nil {
		return nil, err
	}
	return dto.NewDraftResponse(m), nil
}

// SetCurrentStage is where navigation is gated: the machine itself moves
// unconditionally, so the check happens here first.
func (s *questionnaireService) SetCurrentStage(ctx context.Context, userId uuid.UUID, stage questionnaire.Stage) (*dto.DraftResponse, error) {
	if !stage.Valid() {
		return nil, apperr.Validation("stage must be 1, 2 or 3")
	}

	m, err := s.load(ctx, userId)
	if err != nil {
		return nil, err
	}

	if !m.CanProceedTo(stage) {
		blocking := slices.DeleteFunc(slices.Collect(m.IncompleteStages()), func(st questionnaire.Stage) bool {
			return st >= stage
		})
		return nil, apperr.Validation("complete the previous stages first").WithDetails(map[string]interface{}{
			"targetStage":      stage,
			"incompleteStages": blocking,
		})
	}

	m.SetCurrentStage(stage)
	if err := s.save(ctx, userId, m); err != nil {
		return nil, err
	}
	return dto.NewDraftResponse(m), nil
}

func (s *questionnaireService) Reset(ctx context.Context, userId uuid.UUID) (*dto.DraftResponse, error) {
	if err := s.drafts.Delete(ctx, userId); err != nil {
		s.logger.Error("QuestionnaireService", "Failed to delete draft", map[string]interface{}{
			"user_id": userId,
			"error":   err.Error(),
		})
		return nil, apperr.Database("failed to reset questionnaire draft", err)
	}

	m := questionnaire.NewMachine()
	m.ResetAll()
	return dto.NewDraftResponse(m), nil
}

// Submit persists the draft as a document owned by the user and clears it.
func (s *questionnaireService) Submit(ctx context.Context, userId uuid.UUID) (*dto.PrdDocumentResponse, error) {
	m, err := s.load(ctx, userId)
	if err != nil {
		return nil, err
	}

	doc, err := s.prdService.Create(ctx, &userId, m.Snapshot())
	if err != nil {
		return nil, err
	}

	if err := s.drafts.Delete(ctx, userId); err != nil {
		// The document exists; a stale draft is harmless.
		s.logger.Warn("QuestionnaireService", "Failed to clear submitted draft", map[string]interface{}{
			"user_id":     userId,
			"document_id": doc.Id,
			"error":       err.Error(),
		})
	}
	return doc, nil
}

func (s *questionnaireService) Evaluate(snapshot questionnaire.Answers) *dto.DraftResponse {
	return dto.NewDraftResponse(questionnaire.Restore(snapshot))
}
