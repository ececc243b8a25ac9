package models

import "time"

// OrderCreatedEvent is the push notification for a newly created order.
// It is transient: produced once per server push, consumed once by the
// print pipeline, never retained.
type OrderCreatedEvent struct {
	OrderID     int    `json:"orderId"`
	OrderNumber string `json:"orderNumber"`
}

// OrderDetail is the full order fetched per print attempt. It is never
// cached across events.
type OrderDetail struct {
	ID          int         `json:"id"`
	OrderNumber string      `json:"orderNumber"`
	BranchName  string      `json:"branchName"`
	CreatedAt   time.Time   `json:"createdAt"`
	Subtotal    float64     `json:"subtotal"`
	Tax         float64     `json:"tax"`
	Total       float64     `json:"total"`
	Items       []OrderItem `json:"items"`
}

// OrderItem is one ordered line of an order.
type OrderItem struct {
	ItemName    string  `json:"itemName"`
	VariantName string  `json:"variantName,omitempty"`
	Quantity    int     `json:"quantity"`
	LineTotal   float64 `json:"lineTotal"`
}
