package service

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"time"

	"prd-builder-be/internal/dto"
	"prd-builder-be/internal/entity"
	"prd-builder-be/internal/pkg/apperr"
	"prd-builder-be/internal/pkg/logger"
	"prd-builder-be/internal/repository/contract"
	"prd-builder-be/internal/repository/specification"
	"prd-builder-be/internal/repository/unitofwork"
	"prd-builder-be/pkg/events"
	"prd-builder-be/pkg/questionnaire"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
)

// MaxPayloadSize bounds the serialized questionnaire snapshot (100KB).
const MaxPayloadSize = 100 * 1024

const (
	MaxPageLimit     = 100
	DefaultPageLimit = 10
)

// SQLSTATE raised when a row-level security policy rejects the statement.
const pgInsufficientPrivilege = "42501"

const (
	msgDocumentNotFound     = "document not found"
	msgAnonymousImmutable   = "anonymous documents cannot be modified"
	msgAnonymousUndeleted   = "anonymous documents cannot be deleted"
	msgNoUpdatePermission   = "no permission to modify this document"
	msgNoDeletePermission   = "no permission to delete this document"
	msgInvalidQuestionnaire = "invalid questionnaire data"
)

// PrdDocumentPatch is a partial update; see contract.PrdDocumentChanges.
type PrdDocumentPatch struct {
	QuestionnaireData *questionnaire.Answers
	SetGeneratedPrd   bool
	GeneratedPrd      *string
}

// IPrdService enforces ownership and invariants around PRD documents.
//
// Reads never distinguish "missing" from "not yours": both come back as nil.
// Writes check explicitly and fail with an authorization error instead.
type IPrdService interface {
	Create(ctx context.Context, ownerId *uuid.UUID, data questionnaire.Answers) (*dto.PrdDocumentResponse, error)
	GetById(ctx context.Context, callerId *uuid.UUID, id string) (*dto.PrdDocumentResponse, error)
	ListByOwner(ctx context.Context, ownerId uuid.UUID, page, limit int) ([]*dto.PrdDocumentResponse, int64, error)
	ListAnonymous(ctx context.Context, limit int) ([]*dto.PrdDocumentResponse, error)
	Update(ctx context.Context, callerId uuid.UUID, id string, patch PrdDocumentPatch) (*dto.PrdDocumentResponse, error)
	Delete(ctx context.Context, callerId uuid.UUID, id string) error
}

type prdService struct {
	uowFactory unitofwork.RepositoryFactory
	publisher  IPublisherService
	logger     logger.ILogger
	now        func() time.Time
}

func NewPrdService(
	uowFactory unitofwork.RepositoryFactory,
	publisher IPublisherService,
	log logger.ILogger,
) IPrdService {
	return &prdService{
		uowFactory: uowFactory,
		publisher:  publisher,
		logger:     log,
		now: func() time.Time {
			// Postgres keeps microseconds; match it so returned and stored values agree.
			return time.Now().UTC().Truncate(time.Microsecond)
		},
	}
}

func (s *prdService) Create(ctx context.Context, ownerId *uuid.UUID, data questionnaire.Answers) (*dto.PrdDocumentResponse, error) {
	if err := validateQuestionnaire(data); err != nil {
		return nil, err
	}
	if ownerId != nil && *ownerId == uuid.Nil {
		return nil, apperr.Validation("invalid user id format")
	}

	now := s.now()
	doc := entity.PrdDocument{
		Id:                uuid.New(),
		UserId:            ownerId,
		QuestionnaireData: data,
		GeneratedPrd:      nil,
		CreatedAt:         now,
		UpdatedAt:         now,
	}

	uow := s.uowFactory.NewUnitOfWork(ctx)
	if err := uow.PrdDocumentRepository().Create(ctx, &doc); err != nil {
		return nil, s.storageError("create", "failed to create document", msgNoUpdatePermission, err)
	}

	s.logger.Info("PrdService", "Document created", map[string]interface{}{
		"document_id": doc.Id,
		"anonymous":   doc.IsAnonymous(),
	})
	s.publish(ctx, events.PrdDocumentCreated, &doc)

	return dto.NewPrdDocumentResponse(&doc), nil
}

func (s *prdService) GetById(ctx context.Context, callerId *uuid.UUID, id string) (*dto.PrdDocumentResponse, error) {
	docId, err := ParseDocumentId(id)
	if err != nil {
		return nil, err
	}

	uow := s.uowFactory.NewUnitOfWork(ctx)
	doc, err := uow.PrdDocumentRepository().FindOne(ctx,
		specification.ByID{ID: docId},
		specification.VisibleTo{UserID: callerId},
	)
	if err != nil {
		return nil, s.storageError("get", "failed to fetch document", msgDocumentNotFound, err)
	}
	if doc == nil {
		return nil, nil
	}

	return dto.NewPrdDocumentResponse(doc), nil
}

func (s *prdService) ListByOwner(ctx context.Context, ownerId uuid.UUID, page, limit int) ([]*dto.PrdDocumentResponse, int64, error) {
	if err := validatePagination(page, limit); err != nil {
		return nil, 0, err
	}

	repo := s.uowFactory.NewUnitOfWork(ctx).PrdDocumentRepository()
	owned := specification.OwnedBy{UserID: ownerId}

	total, err := repo.Count(ctx, owned)
	if err != nil {
		return nil, 0, s.storageError("count", "failed to list documents", msgDocumentNotFound, err)
	}

	docs, err := repo.FindAll(ctx,
		owned,
		specification.OrderBy{Field: "created_at", Desc: true},
		specification.OrderBy{Field: "id", Desc: true},
		specification.PageWindow(page, limit),
	)
	if err != nil {
		return nil, 0, s.storageError("list", "failed to list documents", msgDocumentNotFound, err)
	}

	return dto.NewPrdDocumentResponses(docs), total, nil
}

func (s *prdService) ListAnonymous(ctx context.Context, limit int) ([]*dto.PrdDocumentResponse, error) {
	if limit < 1 || limit > MaxPageLimit {
		return nil, apperr.Validation("limit must be between 1 and 100")
	}

	repo := s.uowFactory.NewUnitOfWork(ctx).PrdDocumentRepository()
	docs, err := repo.FindAll(ctx,
		specification.Anonymous{},
		specification.OrderBy{Field: "created_at", Desc: true},
		specification.Pagination{Limit: limit},
	)
	if err != nil {
		return nil, s.storageError("list_anonymous", "failed to list documents", msgDocumentNotFound, err)
	}

	return dto.NewPrdDocumentResponses(docs), nil
}

func (s *prdService) Update(ctx context.Context, callerId uuid.UUID, id string, patch PrdDocumentPatch) (*dto.PrdDocumentResponse, error) {
	docId, err := ParseDocumentId(id)
	if err != nil {
		return nil, err
	}

	repo := s.uowFactory.NewUnitOfWork(ctx).PrdDocumentRepository()

	existing, err := repo.FindOne(ctx, specification.ByID{ID: docId})
	if err != nil {
		return nil, s.storageError("update", "failed to fetch document", msgNoUpdatePermission, err)
	}
	if existing == nil {
		return nil, apperr.NotFound(msgDocumentNotFound)
	}
	if err := s.authorizeWrite(existing, callerId, msgAnonymousImmutable, msgNoUpdatePermission); err != nil {
		return nil, err
	}

	if patch.QuestionnaireData != nil {
		if err := validateQuestionnaire(*patch.QuestionnaireData); err != nil {
			return nil, err
		}
	}

	changes := contract.PrdDocumentChanges{
		QuestionnaireData: patch.QuestionnaireData,
		SetGeneratedPrd:   patch.SetGeneratedPrd,
		GeneratedPrd:      patch.GeneratedPrd,
		UpdatedAt:         s.nextUpdatedAt(existing),
	}

	matched, err := repo.Update(ctx, docId, changes)
	if err != nil {
		return nil, s.storageError("update", "failed to update document", msgNoUpdatePermission, err)
	}
	if !matched {
		// Deleted between the ownership check and the write.
		return nil, apperr.NotFound(msgDocumentNotFound)
	}

	updated, err := repo.FindOne(ctx, specification.ByID{ID: docId})
	if err != nil {
		return nil, s.storageError("update", "failed to fetch document", msgNoUpdatePermission, err)
	}
	if updated == nil {
		return nil, apperr.NotFound(msgDocumentNotFound)
	}

	s.publish(ctx, events.PrdDocumentUpdated, updated)
	return dto.NewPrdDocumentResponse(updated), nil
}

func (s *prdService) Delete(ctx context.Context, callerId uuid.UUID, id string) error {
	docId, err := ParseDocumentId(id)
	if err != nil {
		return err
	}

	uow := s.uowFactory.NewUnitOfWork(ctx)
	if err := uow.Begin(ctx); err != nil {
		return s.storageError("delete", "failed to delete document", msgNoDeletePermission, err)
	}
	defer uow.Rollback()

	existing, err := uow.PrdDocumentRepository().FindOne(ctx, specification.ByID{ID: docId})
	if err != nil {
		return s.storageError("delete", "failed to fetch document", msgNoDeletePermission, err)
	}
	if existing == nil {
		// Already gone: deleting is idempotent.
		return nil
	}
	if err := s.authorizeWrite(existing, callerId, msgAnonymousUndeleted, msgNoDeletePermission); err != nil {
		return err
	}

	if err := uow.PrdDocumentRepository().Delete(ctx, docId); err != nil {
		return s.storageError("delete", "failed to delete document", msgNoDeletePermission, err)
	}
	if err := uow.Commit(); err != nil {
		return s.storageError("delete", "failed to delete document", msgNoDeletePermission, err)
	}

	s.publish(ctx, events.PrdDocumentDeleted, existing)
	return nil
}

func (s *prdService) authorizeWrite(doc *entity.PrdDocument, callerId uuid.UUID, anonymousMsg, notOwnerMsg string) error {
	if doc.IsAnonymous() {
		s.logger.Warn("PrdService", "Write attempt on anonymous document", map[string]interface{}{
			"document_id": doc.Id,
			"caller_id":   callerId,
		})
		return apperr.Authorization(anonymousMsg)
	}
	if !doc.IsOwnedBy(callerId) {
		s.logger.Warn("PrdService", "Write attempt by non-owner", map[string]interface{}{
			"document_id": doc.Id,
			"caller_id":   callerId,
		})
		return apperr.Authorization(notOwnerMsg)
	}
	return nil
}

// nextUpdatedAt never goes backwards and always moves past the stored value.
func (s *prdService) nextUpdatedAt(doc *entity.PrdDocument) time.Time {
	next := s.now()
	if !next.After(doc.UpdatedAt) {
		next = doc.UpdatedAt.Add(time.Microsecond)
	}
	if next.Before(doc.CreatedAt) {
		next = doc.CreatedAt
	}
	return next
}

func (s *prdService) storageError(op, message, deniedMessage string, err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == pgInsufficientPrivilege {
		s.logger.Warn("PrdService", "Row policy rejected statement", map[string]interface{}{
			"op":    op,
			"error": err.Error(),
		})
		return apperr.Authorization(deniedMessage)
	}

	s.logger.Error("PrdService", "Storage failure", map[string]interface{}{
		"op":    op,
		"error": err.Error(),
	})
	return apperr.Database(message, err)
}

func (s *prdService) publish(ctx context.Context, eventType string, doc *entity.PrdDocument) {
	if s.publisher == nil {
		return
	}
	data := map[string]interface{}{
		"document_id": doc.Id.String(),
		"user_id":     nil,
	}
	if doc.UserId != nil {
		data["user_id"] = doc.UserId.String()
	}
	evt := events.BaseEvent{
		Type:       eventType,
		Data:       data,
		OccurredAt: s.now(),
	}
	// Auxiliary: never fail the request on it.
	if err := s.publisher.Publish(ctx, evt); err != nil {
		s.logger.Warn("PrdService", "Failed to publish event", map[string]interface{}{
			"event_type": eventType,
			"error":      err.Error(),
		})
	}
}

// ParseDocumentId rejects blank, malformed and nil ids.
func ParseDocumentId(id string) (uuid.UUID, error) {
	if strings.TrimSpace(id) == "" {
		return uuid.Nil, apperr.Validation("document id is required")
	}
	docId, err := uuid.Parse(id)
	if err != nil || docId == uuid.Nil {
		return uuid.Nil, apperr.Validation("invalid document id format")
	}
	return docId, nil
}

func validatePagination(page, limit int) error {
	if page < 1 {
		return apperr.Validation("page must be at least 1")
	}
	if limit < 1 || limit > MaxPageLimit {
		return apperr.Validation("limit must be between 1 and 100")
	}
	return nil
}

func validateQuestionnaire(data questionnaire.Answers) error {
	if res := questionnaire.Validate(data); !res.OK() {
		return apperr.Validation(msgInvalidQuestionnaire).WithDetails(map[string]interface{}{
			"errors": res.Issues,
		})
	}

	raw, err := json.Marshal(data)
	if err != nil {
		return apperr.Validation(msgInvalidQuestionnaire)
	}
	if len(raw) > MaxPayloadSize {
		return apperr.Validation("questionnaire data exceeds the 100KB limit").WithDetails(map[string]interface{}{
			"size":  len(raw),
			"limit": MaxPayloadSize,
		})
	}
	return nil
}
