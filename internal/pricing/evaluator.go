// Package pricing computes order totals and category-wide percentage
// discounts from the active promotion catalog.
package pricing

import "github.com/stocktide/stocktide/internal/entity"

// Item is a line item resolved against the product catalog.
type Item struct {
	ProductID string
	Name      string
	Category  string
	Price     float64
	Quantity  int
}

// Quote is the priced result for one order.
type Quote struct {
	OriginalTotal     float64
	Discount          float64
	Total             float64
	AppliedPromotions []entity.Promotion
}

// Evaluate prices the given items against the promotion catalog.
//
// Every percentage promotion with a non-empty category discounts each item of
// that category by price * quantity * percent/100. Matching promotions stack
// additively with no cap. Promotions are applied in catalog order and items in
// request order, so the applied-promotion snapshot is deterministic. Duplicate
// promotion ids are recorded once.
func Evaluate(items []Item, promotions []entity.Promotion) Quote {
	var q Quote
	for _, it := range items {
		q.OriginalTotal += it.Price * float64(it.Quantity)
	}

	seen := make(map[string]bool, len(promotions))
	for _, promo := range promotions {
		if promo.Type != entity.PromotionTypePercentage || promo.Category == "" {
			continue
		}
		matched := false
		for _, it := range items {
			if it.Category != promo.Category {
				continue
			}
			q.Discount += it.Price * float64(it.Quantity) * promo.DiscountPercent / 100
			matched = true
		}
		if matched && !seen[promo.ID] {
			seen[promo.ID] = true
			q.AppliedPromotions = append(q.AppliedPromotions, promo)
		}
	}

	q.Total = q.OriginalTotal - q.Discount
	return q
}
