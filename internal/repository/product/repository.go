package product

import (
	"context"
	"encoding/json"
	"errors"

	goredis "github.com/redis/go-redis/v9"

	"github.com/stocktide/stocktide/internal/entity"
	"github.com/stocktide/stocktide/internal/store"
)

// ErrNotFound is returned when a product is missing.
var ErrNotFound = errors.New("product not found")

// Repository encapsulates access to tenant product records.
type Repository struct {
	client *goredis.Client
}

// NewRepository wires a repository backed by the store client.
func NewRepository(client *goredis.Client) *Repository {
	return &Repository{client: client}
}

// Get resolves a product by id.
func (r *Repository) Get(ctx context.Context, tenant, productID string) (*entity.Product, error) {
	raw, err := r.client.Get(ctx, store.ProductKey(tenant, productID)).Bytes()
	if errors.Is(err, goredis.Nil) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	var p entity.Product
	if err := json.Unmarshal(raw, &p); err != nil {
		return nil, err
	}
	return &p, nil
}

// Save persists a product record keyed by its id.
func (r *Repository) Save(ctx context.Context, tenant string, p *entity.Product) error {
	payload, err := json.Marshal(p)
	if err != nil {
		return err
	}
	return r.client.Set(ctx, store.ProductKey(tenant, p.ID), payload, 0).Err()
}
