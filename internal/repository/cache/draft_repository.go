package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"prd-builder-be/internal/repository/contract"
	"prd-builder-be/pkg/questionnaire"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

const draftKeyPrefix = "questionnaire:draft:"

// DraftRepository stores drafts in Redis so every API instance sees the same one.
type DraftRepository struct {
	rdb *redis.Client
	ttl time.Duration
}

func NewDraftRepository(rdb *redis.Client, ttl time.Duration) contract.DraftRepository {
	return &DraftRepository{
		rdb: rdb,
		ttl: ttl,
	}
}

func draftKey(userId uuid.UUID) string {
	return draftKeyPrefix + userId.String()
}

func (r *DraftRepository) Get(ctx context.Context, userId uuid.UUID) (questionnaire.Answers, bool, error) {
	raw, err := r.rdb.Get(ctx, draftKey(userId)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return questionnaire.Answers{}, false, nil
		}
		return questionnaire.Answers{}, false, fmt.Errorf("redis get draft: %w", err)
	}

	var draft questionnaire.Answers
	if err := json.Unmarshal(raw, &draft); err != nil {
		return questionnaire.Answers{}, false, fmt.Errorf("decode draft: %w", err)
	}
	return draft, true, nil
}

func (r *DraftRepository) Save(ctx context.Context, userId uuid.UUID, draft questionnaire.Answers) error {
	raw, err := json.Marshal(draft)
	if err != nil {
		return fmt.Errorf("encode draft: %w", err)
	}
	if err := r.rdb.Set(ctx, draftKey(userId), raw, r.ttl).Err(); err != nil {
		return fmt.Errorf("redis set draft: %w", err)
	}
	return nil
}

func (r *DraftRepository) Delete(ctx context.Context, userId uuid.UUID) error {
	if err := r.rdb.Del(ctx, draftKey(userId)).Err(); err != nil {
		return fmt.Errorf("redis del draft: %w", err)
	}
	return nil
}
