package promotion

import (
	"context"
	"encoding/json"
	"sort"

	goredis "github.com/redis/go-redis/v9"

	"github.com/stocktide/stocktide/internal/entity"
	"github.com/stocktide/stocktide/internal/store"
)

// Repository manages the shared promotion catalog.
type Repository struct {
	client *goredis.Client
}

// NewRepository wires a repository backed by the store client.
func NewRepository(client *goredis.Client) *Repository {
	return &Repository{client: client}
}

// Save persists a promotion and indexes it in the catalog set.
func (r *Repository) Save(ctx context.Context, p *entity.Promotion) error {
	payload, err := json.Marshal(p)
	if err != nil {
		return err
	}
	_, err = r.client.Pipelined(ctx, func(pipe goredis.Pipeliner) error {
		pipe.Set(ctx, store.PromotionKey(p.ID), payload, 0)
		pipe.SAdd(ctx, store.PromotionsSetKey, p.ID)
		return nil
	})
	return err
}

// ListActive returns every promotion in the catalog. Ids whose record has
// gone missing are skipped.
func (r *Repository) ListActive(ctx context.Context) ([]entity.Promotion, error) {
	ids, err := r.client.SMembers(ctx, store.PromotionsSetKey).Result()
	if err != nil {
		return nil, err
	}
	if len(ids) == 0 {
		return nil, nil
	}
	// Set membership has no order; sort so the catalog reads deterministically.
	sort.Strings(ids)

	keys := make([]string, len(ids))
	for i, id := range ids {
		keys[i] = store.PromotionKey(id)
	}
	values, err := r.client.MGet(ctx, keys...).Result()
	if err != nil {
		return nil, err
	}

	promos := make([]entity.Promotion, 0, len(values))
	for _, v := range values {
		raw, ok := v.(string)
		if !ok {
			continue
		}
		var p entity.Promotion
		if err := json.Unmarshal([]byte(raw), &p); err != nil {
			return nil, err
		}
		promos = append(promos, p)
	}
	return promos, nil
}

// Delete removes a promotion and its catalog membership.
func (r *Repository) Delete(ctx context.Context, promotionID string) error {
	_, err := r.client.Pipelined(ctx, func(pipe goredis.Pipeliner) error {
		pipe.Del(ctx, store.PromotionKey(promotionID))
		pipe.SRem(ctx, store.PromotionsSetKey, promotionID)
		return nil
	})
	return err
}
