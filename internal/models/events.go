package models

import "time"

// NATS Event Types
const (
	EventOrderPlaced = "order.placed"
)

// OrderPlacedEvent is published after an order commits
type OrderPlacedEvent struct {
	OrderID   string        `json:"order_id"`
	Total     int64         `json:"total"`
	Discount  int64         `json:"discount"`
	PromoCode string        `json:"promo_code,omitempty"`
	Seats     []OrderedSeat `json:"seats"`
	Timestamp time.Time     `json:"timestamp"`
}

// OrderedSeat is one seat inside an OrderPlacedEvent
type OrderedSeat struct {
	SessionID int64 `json:"session_id"`
	Row       int   `json:"row"`
	Col       int   `json:"col"`
	Price     int64 `json:"price"`
}
