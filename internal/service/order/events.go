package order

import "time"

// EventOrderCreated names the event emitted when a new order is committed.
const EventOrderCreated = "order.created"

// CreatedEvent is published to the bus after a successful commit.
type CreatedEvent struct {
	Type      string    `json:"type"`
	ID        string    `json:"id"`
	Tenant    string    `json:"tenant"`
	Status    string    `json:"status"`
	Total     float64   `json:"total"`
	CreatedAt time.Time `json:"createdAt"`
}
