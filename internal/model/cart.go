package model

import (
	"errors"
	"time"
)

// CartStatus is the lifecycle state of a captured cart.
type CartStatus string

const (
	// CartStatusActive carts own the pending reminder schedule.
	CartStatusActive CartStatus = "active"
	// CartStatusSent means every enabled reminder step has been dispatched.
	CartStatusSent CartStatus = "sent"
	// CartStatusRecovered means the shopper checked out or followed the
	// recovery link. Terminal.
	CartStatusRecovered CartStatus = "recovered"
)

// ReminderSteps is the number of sequential reminder messages a cart may
// receive.
const ReminderSteps = 3

// CartItem is one line of the persisted cart snapshot.
type CartItem struct {
	ProductID   int64             `json:"product_id"`
	VariationID int64             `json:"variation_id,omitempty"`
	Quantity    int               `json:"quantity"`
	Attributes  map[string]string `json:"attributes,omitempty"`
}

// BillingSnapshot is the checkout form state captured alongside the cart,
// restored into the live session when the shopper returns.
type BillingSnapshot struct {
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	Email     string `json:"email"`
	Phone     string `json:"phone"`
	Address1  string `json:"address_1"`
	City      string `json:"city"`
	State     string `json:"state"`
	Postcode  string `json:"postcode"`
	Country   string `json:"country"`
}

type AbandonedCart struct {
	ID            int64               `json:"id"`
	SessionID     string              `json:"session_id"`
	UserID        *int64              `json:"user_id,omitempty"`
	RecoveryToken string              `json:"-"`
	Billing       BillingSnapshot     `json:"billing"`
	Items         []CartItem          `json:"items"`
	CartTotal     float64             `json:"cart_total"`
	Status        CartStatus          `json:"status"`
	MessagesSent  [ReminderSteps]bool `json:"messages_sent"`
	CreatedAt     time.Time           `json:"created_at"`
	UpdatedAt     time.Time           `json:"updated_at"`
}

// AllSent reports whether every reminder step has been dispatched.
func (c *AbandonedCart) AllSent() bool {
	for _, sent := range c.MessagesSent {
		if !sent {
			return false
		}
	}
	return true
}

// StepSent reports whether reminder step n (1-based) has been dispatched.
func (c *AbandonedCart) StepSent(n int) bool {
	if n < 1 || n > ReminderSteps {
		return false
	}
	return c.MessagesSent[n-1]
}

// CaptureParams is the input for capturing (or re-capturing) a cart.
type CaptureParams struct {
	SessionID string
	UserID    *int64
	Billing   BillingSnapshot
	Items     []CartItem
	CartTotal float64
}

func (p CaptureParams) Validate() error {
	if p.SessionID == "" {
		return errors.New("session_id is required")
	}
	if p.Billing.Phone == "" && p.Billing.Email == "" {
		return ErrMissingContact
	}
	if len(p.Items) == 0 {
		return ErrEmptyCart
	}
	for _, it := range p.Items {
		if it.ProductID == 0 || it.Quantity <= 0 {
			return errors.New("cart item requires product_id and positive quantity")
		}
	}
	return nil
}

// CartFilter controls cart listing queries.
type CartFilter struct {
	Status *CartStatus
	Phone  *string
	Email  *string
	From   *time.Time
	To     *time.Time
	Limit  int
	Offset int
	Desc   bool
}
