package stock

import (
	"context"
	"encoding/json"
	"errors"

	goredis "github.com/redis/go-redis/v9"

	"github.com/stocktide/stocktide/internal/entity"
	"github.com/stocktide/stocktide/internal/store"
)

// Repository is the stock ledger: one quantity record per (tenant, product).
type Repository struct {
	client *goredis.Client
}

// NewRepository wires a ledger backed by the store client.
func NewRepository(client *goredis.Client) *Repository {
	return &Repository{client: client}
}

// Get returns the stock record for a product, or nil when none exists.
func (r *Repository) Get(ctx context.Context, tenant, productID string) (*entity.Stock, error) {
	raw, err := r.client.Get(ctx, store.StockKey(tenant, productID)).Bytes()
	if errors.Is(err, goredis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	var s entity.Stock
	if err := json.Unmarshal(raw, &s); err != nil {
		return nil, err
	}
	return &s, nil
}

// Set writes the quantity for a product unconditionally. Callers that need
// read-modify-write safety go through the order repository's transaction.
func (r *Repository) Set(ctx context.Context, tenant, productID string, quantity int) error {
	if quantity < 0 {
		return errors.New("stock quantity must not be negative")
	}
	payload, err := json.Marshal(entity.Stock{ProductID: productID, Quantity: quantity})
	if err != nil {
		return err
	}
	return r.client.Set(ctx, store.StockKey(tenant, productID), payload, 0).Err()
}
