package memory

import (
	"context"
	"time"

	"prd-builder-be/internal/repository/contract"
	"prd-builder-be/pkg/questionnaire"

	"github.com/google/uuid"
	"github.com/patrickmn/go-cache"
)

// DraftRepository is the single-instance fallback used when Redis is not configured.
type DraftRepository struct {
	cache *cache.Cache
}

func NewDraftRepository(ttl time.Duration) contract.DraftRepository {
	// Expired drafts are purged every 10 minutes
	c := cache.New(ttl, 10*time.Minute)
	return &DraftRepository{
		cache: c,
	}
}

func (r *DraftRepository) Get(ctx context.Context, userId uuid.UUID) (questionnaire.Answers, bool, error) {
	if x, found := r.cache.Get(userId.String()); found {
		return x.(questionnaire.Answers), true, nil
	}
	return questionnaire.Answers{}, false, nil
}

func (r *DraftRepository) Save(ctx context.Context, userId uuid.UUID, draft questionnaire.Answers) error {
	r.cache.Set(userId.String(), draft, cache.DefaultExpiration)
	return nil
}

func (r *DraftRepository) Delete(ctx context.Context, userId uuid.UUID) error {
	r.cache.Delete(userId.String())
	return nil
}
