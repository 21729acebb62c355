// Package recovery turns a reminder link click back into a live shopping
// session: the persisted snapshot is replayed into the session store, the
// newest usable coupon is surfaced, and the cart is closed as recovered.
package recovery

import (
	"context"
	"errors"
	"time"

	"github.com/cartwisp/recovery-gateway/internal/model"
	"github.com/cartwisp/recovery-gateway/pkg/logger"
	"github.com/cartwisp/recovery-gateway/pkg/prom"
)

type CartStore interface {
	GetByRecoveryToken(ctx context.Context, token string) (*model.AbandonedCart, error)
	MarkRecovered(ctx context.Context, id int64) error
}

type ProductStore interface {
	GetByID(ctx context.Context, id int64) (*model.Product, error)
}

type CouponStore interface {
	LatestUnusedForCart(ctx context.Context, cartID int64, now time.Time) (*model.Coupon, error)
}

// Outcome describes what a recovery attempt did. AlreadyRecovered outcomes
// are successful no-ops so a twice-clicked link never errors at the shopper.
type Outcome struct {
	CartID           int64  `json:"cart_id"`
	SessionID        string `json:"session_id"`
	AlreadyRecovered bool   `json:"already_recovered"`
	ItemsRestored    int    `json:"items_restored"`
	ItemsFailed      int    `json:"items_failed"`
	CouponCode       string `json:"coupon_code,omitempty"`
	CheckoutURL      string `json:"checkout_url"`
}

type Service struct {
	carts    CartStore
	products ProductStore
	coupons  CouponStore
	sessions *SessionStore

	checkoutURL string
	now         func() time.Time
}

func NewService(carts CartStore, products ProductStore, coupons CouponStore, sessions *SessionStore, checkoutURL string) *Service {
	return &Service{
		carts:       carts,
		products:    products,
		coupons:     coupons,
		sessions:    sessions,
		checkoutURL: checkoutURL,
		now:         time.Now,
	}
}

// Recover restores the cart behind a recovery token. Lines whose product is
// gone, unpurchasable or out of stock are skipped and counted; everything
// else lands back in the shopper's session together with the billing
// snapshot. The cart ends recovered even when every line failed, so reminders
// stop for a shopper who already showed up.
func (s *Service) Recover(ctx context.Context, token string) (*Outcome, error) {
	cart, err := s.carts.GetByRecoveryToken(ctx, token)
	if err != nil {
		return nil, err
	}

	if cart.Status == model.CartStatusRecovered {
		return &Outcome{
			CartID:           cart.ID,
			SessionID:        cart.SessionID,
			AlreadyRecovered: true,
			CheckoutURL:      s.checkoutURL,
		}, nil
	}

	restored := make([]model.CartItem, 0, len(cart.Items))
	failed := 0
	for _, item := range cart.Items {
		product, err := s.products.GetByID(ctx, item.ProductID)
		if err != nil || !product.Available(item.Quantity) {
			failed++
			continue
		}
		restored = append(restored, item)
	}

	if err := s.sessions.SetCart(cart.SessionID, restored); err != nil {
		return nil, err
	}
	if err := s.sessions.SetBilling(cart.SessionID, cart.Billing); err != nil {
		return nil, err
	}

	outcome := &Outcome{
		CartID:        cart.ID,
		SessionID:     cart.SessionID,
		ItemsRestored: len(restored),
		ItemsFailed:   failed,
		CheckoutURL:   s.checkoutURL,
	}

	if coupon, err := s.coupons.LatestUnusedForCart(ctx, cart.ID, s.now()); err == nil {
		outcome.CouponCode = coupon.Code
	} else if !errors.Is(err, model.ErrNotFound) {
		logger.Warn("coupon lookup failed during recovery", "cart_id", cart.ID, "error", err)
	}

	if err := s.carts.MarkRecovered(ctx, cart.ID); err != nil {
		return nil, err
	}
	prom.AddCartRecovered()
	logger.Info("cart recovered", "cart_id", cart.ID,
		"restored", outcome.ItemsRestored, "failed", outcome.ItemsFailed,
		"coupon", outcome.CouponCode)

	return outcome, nil
}
