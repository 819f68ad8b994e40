package mapper

import (
	"encoding/json"
	"fmt"

	"prd-builder-be/internal/entity"
	"prd-builder-be/internal/model"
	"prd-builder-be/pkg/questionnaire"

	"gorm.io/datatypes"
)

type PrdDocumentMapper struct{}

func NewPrdDocumentMapper() *PrdDocumentMapper {
	return &PrdDocumentMapper{}
}

func (m *PrdDocumentMapper) ToEntity(d *model.PrdDocument) (*entity.PrdDocument, error) {
	if d == nil {
		return nil, nil
	}

	var answers questionnaire.Answers
	if len(d.QuestionnaireData) > 0 {
		if err := json.Unmarshal(d.QuestionnaireData, &answers); err != nil {
			return nil, fmt.Errorf("decode questionnaire_data of %s: %w", d.Id, err)
		}
	}

	return &entity.PrdDocument{
		Id:                d.Id,
		UserId:            d.UserId,
		QuestionnaireData: answers,
		GeneratedPrd:      d.GeneratedPrd,
		CreatedAt:         d.CreatedAt,
		UpdatedAt:         d.UpdatedAt,
	}, nil
}

func (m *PrdDocumentMapper) ToModel(d *entity.PrdDocument) (*model.PrdDocument, error) {
	if d == nil {
		return nil, nil
	}

	data, err := m.EncodeAnswers(d.QuestionnaireData)
	if err != nil {
		return nil, err
	}

	return &model.PrdDocument{
		Id:                d.Id,
		UserId:            d.UserId,
		QuestionnaireData: data,
		GeneratedPrd:      d.GeneratedPrd,
		CreatedAt:         d.CreatedAt,
		UpdatedAt:         d.UpdatedAt,
	}, nil
}

func (m *PrdDocumentMapper) EncodeAnswers(a questionnaire.Answers) (datatypes.JSON, error) {
	raw, err := json.Marshal(a)
	if err != nil {
		return nil, fmt.Errorf("encode questionnaire_data: %w", err)
	}
	return datatypes.JSON(raw), nil
}

func (m *PrdDocumentMapper) ToEntities(docs []*model.PrdDocument) ([]*entity.PrdDocument, error) {
	entities := make([]*entity.PrdDocument, len(docs))
	for i, d := range docs {
		e, err := m.ToEntity(d)
		if err != nil {
			return nil, err
		}
		entities[i] = e
	}
	return entities, nil
}
