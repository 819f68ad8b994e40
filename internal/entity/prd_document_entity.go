package entity

import (
	"time"

	"prd-builder-be/pkg/questionnaire"

	"github.com/google/uuid"
)

// PrdDocument bundles a questionnaire snapshot with its (optional) generated PRD.
// A nil UserId marks an anonymous document, which is read-only forever.
type PrdDocument struct {
	Id                uuid.UUID
	UserId            *uuid.UUID
	QuestionnaireData questionnaire.Answers
	GeneratedPrd      *string
	CreatedAt         time.Time
	UpdatedAt         time.Time
}

func (d *PrdDocument) IsAnonymous() bool {
	return d.UserId == nil
}

func (d *PrdDocument) IsOwnedBy(userId uuid.UUID) bool {
	return d.UserId != nil && *d.UserId == userId
}
