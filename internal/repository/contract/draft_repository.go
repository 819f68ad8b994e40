package contract

import (
	"context"

	"prd-builder-be/pkg/questionnaire"

	"github.com/google/uuid"
)

// DraftRepository keeps one in-progress questionnaire snapshot per user.
// Only the snapshot is stored; completion is recomputed on load.
type DraftRepository interface {
	// Get returns found=false when the user has no draft.
	Get(ctx context.Context, userId uuid.UUID) (questionnaire.Answers, bool, error)
	Save(ctx context.Context, userId uuid.UUID, draft questionnaire.Answers) error
	Delete(ctx context.Context, userId uuid.UUID) error
}
