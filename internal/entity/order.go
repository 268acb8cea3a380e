package entity

import "time"

// LineItem is one product/quantity pair within an order.
type LineItem struct {
	ProductID string `json:"productId"`
	Quantity  int    `json:"quantity"`
}

// SupplierRef is the embedded supplier reference carried by an order.
type SupplierRef struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// Order is the stored order record. The id is server-generated and immutable;
// total is always originalTotal minus discount.
type Order struct {
	ID                string       `json:"id"`
	Items             []LineItem   `json:"items"`
	Status            string       `json:"status"`
	Supplier          *SupplierRef `json:"supplier,omitempty"`
	CustomerID        string       `json:"customerId,omitempty"`
	CreatedAt         time.Time    `json:"createdAt"`
	OriginalTotal     float64      `json:"originalTotal"`
	Discount          float64      `json:"discount"`
	Total             float64      `json:"total"`
	AppliedPromotions []Promotion  `json:"appliedPromotions,omitempty"`
}

// SupplierID returns the referenced supplier id, or "" when none is set.
func (o *Order) SupplierID() string {
	if o == nil || o.Supplier == nil {
		return ""
	}
	return o.Supplier.ID
}
