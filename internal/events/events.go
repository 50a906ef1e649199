package events

import (
	"context"
	"time"
)

type OrderItemEvent struct {
	ProductID    int64  `json:"product_id"`
	Quantity     int    `json:"quantity"`
	PriceKopecks int64  `json:"price_kopecks"`
	Name         string `json:"name"`
}

type OrderCreatedEvent struct {
	OrderID       int64            `json:"order_id"`
	UserID        int64            `json:"user_id"`
	Items         []OrderItemEvent `json:"items"`
	TotalKopecks  int64            `json:"total_kopecks"`
	PaymentStatus string           `json:"payment_status"`
	CreatedAt     time.Time        `json:"created_at"`
}

type Bus interface {
	PublishOrderCreated(ctx context.Context, e OrderCreatedEvent) error
}
