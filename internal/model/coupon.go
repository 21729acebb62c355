package model

import (
	"errors"
	"time"
)

// DiscountType of a generated coupon.
type DiscountType string

const (
	DiscountPercent     DiscountType = "percent"
	DiscountFixedAmount DiscountType = "fixed_amount"
)

// Coupon is this system's tracking record of a generated discount code. It is
// kept separately from the Discount row the storefront redeems, so coupon
// lifecycle (which reminder step generated it, whether it converted) survives
// independently of the redeemable object.
type Coupon struct {
	ID             int64        `json:"id"`
	Code           string       `json:"code"`
	DiscountType   DiscountType `json:"discount_type"`
	DiscountAmount float64      `json:"discount_amount"`
	UsageLimit     int          `json:"usage_limit"`
	Used           bool         `json:"used"`
	CustomerPhone  string       `json:"customer_phone,omitempty"`
	CustomerEmail  string       `json:"customer_email,omitempty"`
	CartID         *int64       `json:"cart_id,omitempty"`
	OrderID        *int64       `json:"order_id,omitempty"`
	MessageNumber  int          `json:"message_number"`
	CreatedAt      time.Time    `json:"created_at"`
	ExpiresAt      time.Time    `json:"expires_at"`
}

// Usable reports whether the coupon can still be redeemed at the given time.
func (c *Coupon) Usable(now time.Time) bool {
	return !c.Used && now.Before(c.ExpiresAt)
}

// Discount is the redeemable object the checkout applies. Created and deleted
// in lockstep with its tracking Coupon.
type Discount struct {
	ID             int64        `json:"id"`
	Code           string       `json:"code"`
	DiscountType   DiscountType `json:"discount_type"`
	Amount         float64      `json:"amount"`
	UsageLimit     int          `json:"usage_limit"`
	EmailRestraint string       `json:"email_restraint,omitempty"`
	IndividualUse  bool         `json:"individual_use"`
	ExpiresAt      time.Time    `json:"expires_at"`
	CreatedAt      time.Time    `json:"created_at"`
}

// CouponStats summarizes coupon performance for the operator dashboard.
type CouponStats struct {
	TotalGenerated int64   `json:"total_generated"`
	TotalUsed      int64   `json:"total_used"`
	TotalActive    int64   `json:"total_active"`
	TotalExpired   int64   `json:"total_expired"`
	ConversionRate float64 `json:"conversion_rate"`
}

// IssueParams is the input for generating a coupon.
type IssueParams struct {
	DiscountType   DiscountType
	DiscountAmount float64
	ExpiryDays     int
	UsageLimit     int
	CustomerPhone  string
	CustomerEmail  string
	CartID         *int64
	OrderID        *int64
	MessageNumber  int
	Prefix         string
}

func (p IssueParams) Validate() error {
	if p.DiscountType != DiscountPercent && p.DiscountType != DiscountFixedAmount {
		return errors.New("invalid discount type")
	}
	if p.DiscountAmount <= 0 {
		return errors.New("discount amount must be positive")
	}
	if p.ExpiryDays <= 0 {
		return errors.New("expiry days must be positive")
	}
	return nil
}
