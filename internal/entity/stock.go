package entity

// Stock is the per-product quantity record. Quantity never goes negative
// through the order path.
type Stock struct {
	ProductID string `json:"productId"`
	Quantity  int    `json:"quantity"`
}
