package contract

import (
	"context"
	"time"

	"prd-builder-be/internal/entity"
	"prd-builder-be/internal/repository/specification"
	"prd-builder-be/pkg/questionnaire"

	"github.com/google/uuid"
)

// PrdDocumentChanges is a partial update. Nil QuestionnaireData leaves the
// column untouched; GeneratedPrd is only written when SetGeneratedPrd is true,
// in which case a nil value clears it.
type PrdDocumentChanges struct {
	QuestionnaireData *questionnaire.Answers
	SetGeneratedPrd   bool
	GeneratedPrd      *string
	UpdatedAt         time.Time
}

type PrdDocumentRepository interface {
	Create(ctx context.Context, doc *entity.PrdDocument) error
	// Update reports false when no row matched id.
	Update(ctx context.Context, id uuid.UUID, changes PrdDocumentChanges) (bool, error)
	Delete(ctx context.Context, id uuid.UUID) error
	FindOne(ctx context.Context, specs ...specification.Specification) (*entity.PrdDocument, error)
	FindAll(ctx context.Context, specs ...specification.Specification) ([]*entity.PrdDocument, error)
	Count(ctx context.Context, specs ...specification.Specification) (int64, error)
}
