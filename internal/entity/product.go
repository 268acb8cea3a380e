package entity

// Product is the catalog record resolved during order validation.
type Product struct {
	ID       string  `json:"id"`
	SKU      string  `json:"sku,omitempty"`
	Name     string  `json:"name"`
	Price    float64 `json:"price"`
	Category string  `json:"category,omitempty"`
}
