package entity

// PromotionTypePercentage is the only promotion type the order core interprets.
const PromotionTypePercentage = "percentage"

// Promotion is a catalog-wide discount rule owned by the promotion surface;
// the order core reads it and snapshots applied promotions onto orders.
type Promotion struct {
	ID              string  `json:"id"`
	Type            string  `json:"type"`
	Category        string  `json:"category,omitempty"`
	DiscountPercent float64 `json:"discountPercent"`
}
