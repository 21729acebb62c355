package model

import "time"

// OrderStatus values the notification layer reacts to.
type OrderStatus string

const (
	OrderStatusProcessing OrderStatus = "processing"
	OrderStatusCompleted  OrderStatus = "completed"
	OrderStatusCancelled  OrderStatus = "cancelled"
)

type OrderItem struct {
	ProductID int64   `json:"product_id"`
	Name      string  `json:"name"`
	SKU       string  `json:"sku,omitempty"`
	Quantity  int     `json:"quantity"`
	LineTotal float64 `json:"line_total"`
}

type Order struct {
	ID            int64           `json:"id"`
	Number        string          `json:"number"`
	Status        OrderStatus     `json:"status"`
	Billing       BillingSnapshot `json:"billing"`
	Items         []OrderItem     `json:"items"`
	Subtotal      float64         `json:"subtotal"`
	ShippingTotal float64         `json:"shipping_total"`
	TaxTotal      float64         `json:"tax_total"`
	DiscountTotal float64         `json:"discount_total"`
	Total         float64         `json:"total"`
	Currency      string          `json:"currency"`
	PaymentMethod string          `json:"payment_method"`
	CustomerNote  string          `json:"customer_note,omitempty"`
	CreatedAt     time.Time       `json:"created_at"`
	UpdatedAt     time.Time       `json:"updated_at"`
}

// ReviewReminder is a single-shot follow-up scheduled when an order
// completes; the runner's review job polls for due rows and sends once.
type ReviewReminder struct {
	ID        int64      `json:"id"`
	OrderID   int64      `json:"order_id"`
	DueAt     time.Time  `json:"due_at"`
	SentAt    *time.Time `json:"sent_at,omitempty"`
	CreatedAt time.Time  `json:"created_at"`
}
