package dto

import (
	"bytes"
	"encoding/json"
	"time"

	"prd-builder-be/internal/entity"
	"prd-builder-be/pkg/questionnaire"

	"github.com/google/uuid"
)

type CreatePrdDocumentRequest struct {
	QuestionnaireData *questionnaire.Answers `json:"questionnaire_data"`
}

// NullableString tells "absent" apart from an explicit null.
// Set is true whenever the key was present in the JSON body.
type NullableString struct {
	Set   bool
	Value *string
}

func (n *NullableString) UnmarshalJSON(data []byte) error {
	n.Set = true
	if bytes.Equal(data, []byte("null")) {
		n.Value = nil
		return nil
	}
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	n.Value = &s
	return nil
}

type UpdatePrdDocumentRequest struct {
	QuestionnaireData *questionnaire.Answers `json:"questionnaire_data"`
	GeneratedPrd      NullableString         `json:"generated_prd"`
}

type PrdDocumentResponse struct {
	Id                uuid.UUID             `json:"id"`
	UserId            *uuid.UUID            `json:"user_id"`
	QuestionnaireData questionnaire.Answers `json:"questionnaire_data"`
	GeneratedPrd      *string               `json:"generated_prd"`
	CreatedAt         time.Time             `json:"created_at"`
	UpdatedAt         time.Time             `json:"updated_at"`
}

func NewPrdDocumentResponse(d *entity.PrdDocument) *PrdDocumentResponse {
	if d == nil {
		return nil
	}
	return &PrdDocumentResponse{
		Id:                d.Id,
		UserId:            d.UserId,
		QuestionnaireData: d.QuestionnaireData,
		GeneratedPrd:      d.GeneratedPrd,
		CreatedAt:         d.CreatedAt,
		UpdatedAt:         d.UpdatedAt,
	}
}

func NewPrdDocumentResponses(docs []*entity.PrdDocument) []*PrdDocumentResponse {
	res := make([]*PrdDocumentResponse, 0, len(docs))
	for _, d := range docs {
		res = append(res, NewPrdDocumentResponse(d))
	}
	return res
}

type PaginationQuery struct {
	Page  int `query:"page"`
	Limit int `query:"limit"`
}

type Pagination struct {
	Page       int   `json:"page"`
	Limit      int   `json:"limit"`
	Total      int64 `json:"total"`
	TotalPages int64 `json:"totalPages"`
}

func NewPagination(page, limit int, total int64) Pagination {
	var totalPages int64
	if limit > 0 {
		totalPages = (total + int64(limit) - 1) / int64(limit)
	}
	return Pagination{
		Page:       page,
		Limit:      limit,
		Total:      total,
		TotalPages: totalPages,
	}
}
