package dto

import (
	"time"

	"github.com/stocktide/stocktide/internal/entity"
)

// CreateOrderRequest is the payload accepted by POST /orders.
type CreateOrderRequest struct {
	Items      []entity.LineItem   `json:"items"`
	Status     string              `json:"status,omitempty"`
	Supplier   *entity.SupplierRef `json:"supplier,omitempty"`
	CustomerID string              `json:"customerId,omitempty"`
}

// OrderUpdate carries the mutable order fields for PUT /orders/:id. Absent
// fields leave the stored value untouched; the order id is immutable.
type OrderUpdate struct {
	Items      *[]entity.LineItem           `json:"items"`
	Status     *string                      `json:"status"`
	Supplier   Optional[entity.SupplierRef] `json:"supplier"`
	CustomerID *string                      `json:"customerId"`
}

// OrderResponse represents an order as exposed via transport layers.
type OrderResponse struct {
	ID                string              `json:"id"`
	Items             []entity.LineItem   `json:"items"`
	Status            string              `json:"status"`
	Supplier          *entity.SupplierRef `json:"supplier,omitempty"`
	CustomerID        string              `json:"customerId,omitempty"`
	CreatedAt         time.Time           `json:"createdAt"`
	OriginalTotal     float64             `json:"originalTotal"`
	Discount          float64             `json:"discount"`
	Total             float64             `json:"total"`
	AppliedPromotions []entity.Promotion  `json:"appliedPromotions,omitempty"`
}
