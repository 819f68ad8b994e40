package implementation

import (
	"context"
	"errors"

	"prd-builder-be/internal/entity"
	"prd-builder-be/internal/mapper"
	"prd-builder-be/internal/model"
	"prd-builder-be/internal/repository/contract"
	"prd-builder-be/internal/repository/specification"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type PrdDocumentRepositoryImpl struct {
	db     *gorm.DB
	mapper *mapper.PrdDocumentMapper
}

func NewPrdDocumentRepository(db *gorm.DB) contract.PrdDocumentRepository {
	return &PrdDocumentRepositoryImpl{
		db:     db,
		mapper: mapper.NewPrdDocumentMapper(),
	}
}

func (r *PrdDocumentRepositoryImpl) applySpecifications(db *gorm.DB, specs ...specification.Specification) *gorm.DB {
	for _, spec := range specs {
		db = spec.Apply(db)
	}
	return db
}

func (r *PrdDocumentRepositoryImpl) Create(ctx context.Context, doc *entity.PrdDocument) error {
	m, err := r.mapper.ToModel(doc)
	if err != nil {
		return err
	}
	if err := r.db.WithContext(ctx).Create(m).Error; err != nil {
		return err
	}
	e, err := r.mapper.ToEntity(m)
	if err != nil {
		return err
	}
	*doc = *e
	return nil
}

func (r *PrdDocumentRepositoryImpl) Update(ctx context.Context, id uuid.UUID, changes contract.PrdDocumentChanges) (bool, error) {
	values := map[string]interface{}{
		"updated_at": changes.UpdatedAt,
	}
	if changes.QuestionnaireData != nil {
		data, err := r.mapper.EncodeAnswers(*changes.QuestionnaireData)
		if err != nil {
			return false, err
		}
		values["questionnaire_data"] = data
	}
	if changes.SetGeneratedPrd {
		values["generated_prd"] = changes.GeneratedPrd
	}

	res := r.db.WithContext(ctx).
		Model(&model.PrdDocument{}).
		Where("id = ?", id).
		Updates(values)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

func (r *PrdDocumentRepositoryImpl) Delete(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).Where("id = ?", id).Delete(&model.PrdDocument{}).Error
}

func (r *PrdDocumentRepositoryImpl) FindOne(ctx context.Context, specs ...specification.Specification) (*entity.PrdDocument, error) {
	var m model.PrdDocument
	query := r.applySpecifications(r.db.WithContext(ctx), specs...)
	if err := query.First(&m).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return r.mapper.ToEntity(&m)
}

func (r *PrdDocumentRepositoryImpl) FindAll(ctx context.Context, specs ...specification.Specification) ([]*entity.PrdDocument, error) {
	var models []*model.PrdDocument
	query := r.applySpecifications(r.db.WithContext(ctx), specs...)
	if err := query.Find(&models).Error; err != nil {
		return nil, err
	}
	return r.mapper.ToEntities(models)
}

func (r *PrdDocumentRepositoryImpl) Count(ctx context.Context, specs ...specification.Specification) (int64, error) {
	var count int64
	query := r.applySpecifications(r.db.WithContext(ctx).Model(&model.PrdDocument{}), specs...)
	if err := query.Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}
