package model

import "time"

// DeliveryLog records one send attempt, successful or not. Written only when
// activity logging is enabled in config.
type DeliveryLog struct {
	ID        int64     `json:"id"`
	Recipient string    `json:"recipient"`
	Kind      string    `json:"kind"` // cart_reminder, order_status, review_reminder, test
	Step      int       `json:"step,omitempty"`
	CartID    *int64    `json:"cart_id,omitempty"`
	OrderID   *int64    `json:"order_id,omitempty"`
	Success   bool      `json:"success"`
	Reason    string    `json:"reason,omitempty"`
	Preview   string    `json:"preview,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

const (
	DeliveryKindCartReminder   = "cart_reminder"
	DeliveryKindOrderStatus    = "order_status"
	DeliveryKindOrderNote      = "order_note"
	DeliveryKindReviewReminder = "review_reminder"
	DeliveryKindTest           = "test"
)
