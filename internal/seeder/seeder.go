package seeder

import (
	"context"

	"go.uber.org/fx"
	"go.uber.org/zap"

	"github.com/stocktide/stocktide/internal/entity"
	productrepo "github.com/stocktide/stocktide/internal/repository/product"
	promotionrepo "github.com/stocktide/stocktide/internal/repository/promotion"
	stockrepo "github.com/stocktide/stocktide/internal/repository/stock"
)

// Module provides the seeder to Fx.
var Module = fx.Provide(New)

// Seeder loads example catalog data for local/dev setups.
type Seeder struct {
	products   *productrepo.Repository
	stocks     *stockrepo.Repository
	promotions *promotionrepo.Repository
	logger     *zap.Logger
}

// New constructs a Seeder backed by the store repositories.
func New(
	products *productrepo.Repository,
	stocks *stockrepo.Repository,
	promotions *promotionrepo.Repository,
	logger *zap.Logger,
) *Seeder {
	return &Seeder{products: products, stocks: stocks, promotions: promotions, logger: logger}
}

// Catalog seeds example products with stock for the tenant, plus a shared
// promotion. Existing records with the same ids are overwritten.
func (s *Seeder) Catalog(ctx context.Context, tenant string) error {
	products := []struct {
		product entity.Product
		stock   int
	}{
		{entity.Product{ID: "prod-laptop", SKU: "SKU-1000", Name: "Laptop", Price: 1200, Category: "Electronics"}, 25},
		{entity.Product{ID: "prod-headphones", SKU: "SKU-1001", Name: "Headphones", Price: 150, Category: "Electronics"}, 100},
		{entity.Product{ID: "prod-desk", SKU: "SKU-1002", Name: "Standing Desk", Price: 480, Category: "Furniture"}, 10},
		{entity.Product{ID: "prod-chair", SKU: "SKU-1003", Name: "Office Chair", Price: 320, Category: "Furniture"}, 40},
	}

	for _, sample := range products {
		p := sample.product
		if err := s.products.Save(ctx, tenant, &p); err != nil {
			return err
		}
		if err := s.stocks.Set(ctx, tenant, p.ID, sample.stock); err != nil {
			return err
		}
	}

	promos := []entity.Promotion{
		{ID: "promo-electronics-10", Type: entity.PromotionTypePercentage, Category: "Electronics", DiscountPercent: 10},
	}
	for _, sample := range promos {
		p := sample
		if err := s.promotions.Save(ctx, &p); err != nil {
			return err
		}
	}

	if s.logger != nil {
		s.logger.Info("seeded catalog",
			zap.String("tenant", tenant),
			zap.Int("products", len(products)),
			zap.Int("promotions", len(promos)),
		)
	}
	return nil
}
