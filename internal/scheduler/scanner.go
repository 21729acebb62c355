package scheduler

import (
	"context"
	"fmt"
	"strconv"
	"time"
	"unicode/utf8"

	"github.com/cartwisp/recovery-gateway/internal/config"
	gateway "github.com/cartwisp/recovery-gateway/internal/gateways"
	"github.com/cartwisp/recovery-gateway/internal/model"
	"github.com/cartwisp/recovery-gateway/internal/template"
	"github.com/cartwisp/recovery-gateway/pkg/logger"
	"github.com/cartwisp/recovery-gateway/pkg/prom"
	"github.com/cartwisp/recovery-gateway/pkg/redis"
)

// dispatchLockTTL bounds how long a crashed dispatch can block a cart's step.
const dispatchLockTTL = 10 * time.Minute

const previewLimit = 160

// Sender is the delivery dependency of the scanner; satisfied by the
// provider gateway client.
type Sender interface {
	Send(ctx context.Context, phone, countryISO, message, imageURL string) (*gateway.SendResult, error)
}

// CartStore is the slice of the cart repository the scanner needs.
type CartStore interface {
	FindDueCandidates(ctx context.Context) ([]*model.AbandonedCart, error)
	MarkStepSent(ctx context.Context, id int64, step int, lastEnabled bool) (bool, error)
}

type ProductStore interface {
	GetByID(ctx context.Context, id int64) (*model.Product, error)
}

type DeliveryLogStore interface {
	Create(ctx context.Context, l *model.DeliveryLog) (*model.DeliveryLog, error)
}

// CouponIssuer issues and backs out reminder coupons; satisfied by
// coupon.Issuer.
type CouponIssuer interface {
	Issue(ctx context.Context, p model.IssueParams) (*model.Coupon, error)
	Revoke(ctx context.Context, code string) error
}

type Scanner struct {
	carts    CartStore
	products ProductStore
	logs     DeliveryLogStore
	issuer   CouponIssuer
	sender   Sender
	cache    redis.RedisAdapter

	// now is swappable so tests can move the clock.
	now func() time.Time
}

func NewScanner(
	carts CartStore,
	products ProductStore,
	logs DeliveryLogStore,
	issuer CouponIssuer,
	sender Sender,
	cache redis.RedisAdapter,
) *Scanner {
	return &Scanner{
		carts:    carts,
		products: products,
		logs:     logs,
		issuer:   issuer,
		sender:   sender,
		cache:    cache,
		now:      time.Now,
	}
}

// Scan is one pass over every active cart with unsent reminders. Sends at
// most one reminder per cart; carts whose send fails are retried naturally on
// the next pass because their flag never flips.
func (s *Scanner) Scan(ctx context.Context) error {
	cfg := config.Get()
	steps := cfg.Steps()
	start := s.now()

	candidates, err := s.carts.FindDueCandidates(ctx)
	if err != nil {
		return fmt.Errorf("cart scan: %w", err)
	}
	prom.SetScanCandidates(len(candidates))

	dispatched := 0
	for _, cart := range candidates {
		step, ok := NextDueStep(cart, steps, s.now())
		if !ok {
			continue
		}
		if err := s.dispatch(ctx, cfg, cart, step, steps); err != nil {
			logger.Error("reminder dispatch failed", "cart_id", cart.ID, "step", step.Number, "error", err)
			continue
		}
		dispatched++
	}

	prom.ObserveScanDuration(s.now().Sub(start).Seconds())
	logger.Info("cart scan finished", "candidates", len(candidates), "dispatched", dispatched)
	return nil
}

func (s *Scanner) dispatch(ctx context.Context, cfg *config.Config, cart *model.AbandonedCart, step config.StepConfig, steps [model.ReminderSteps]config.StepConfig) error {
	lockKey := fmt.Sprintf("dispatch:cart:%d:step:%d", cart.ID, step.Number)
	locked, err := s.cache.SetNX(lockKey, []byte("1"), dispatchLockTTL)
	if err != nil {
		return fmt.Errorf("dispatch lock: %w", err)
	}
	if !locked {
		// another scan owns this step right now
		return nil
	}
	defer func() {
		_ = s.cache.Del(lockKey)
	}()

	var issued *model.Coupon
	if step.CouponEnabled {
		issued, err = s.issuer.Issue(ctx, model.IssueParams{
			DiscountType:   model.DiscountType(step.CouponType),
			DiscountAmount: step.CouponAmount,
			ExpiryDays:     step.CouponExpiryDays,
			UsageLimit:     1,
			CustomerPhone:  cart.Billing.Phone,
			CustomerEmail:  cart.Billing.Email,
			CartID:         &cart.ID,
			MessageNumber:  step.Number,
			Prefix:         step.CouponPrefix,
		})
		if err != nil {
			// the reminder still goes out, just without an incentive
			logger.Warn("coupon issuance failed, sending without coupon",
				"cart_id", cart.ID, "step", step.Number, "error", err)
			issued = nil
		} else {
			prom.AddCouponIssued(strconv.Itoa(step.Number))
		}
	}

	lines, imageURL := s.resolveLines(ctx, cart, cfg.AttachCartImage)
	shop := template.Shop{Name: cfg.ShopName, URL: cfg.ShopUrl, Currency: cfg.ShopCurrency}
	recoveryURL := cfg.AppBaseUrl + "/recover?token=" + cart.RecoveryToken

	text := template.Render(step.Template, template.CartContext(cart, lines, recoveryURL, issued, shop))

	result, err := s.sender.Send(ctx, cart.Billing.Phone, cart.Billing.Country, text, imageURL)
	if err != nil {
		s.recordFailure(ctx, cfg, cart, step, text, err.Error(), issued)
		return err
	}
	if !result.Success {
		s.recordFailure(ctx, cfg, cart, step, text, result.Message, issued)
		return nil
	}

	flipped, err := s.carts.MarkStepSent(ctx, cart.ID, step.Number, IsLastEnabledUnsent(cart, steps, step.Number))
	if err != nil {
		return fmt.Errorf("mark step sent: %w", err)
	}
	if !flipped {
		logger.Warn("step already marked sent after delivery", "cart_id", cart.ID, "step", step.Number)
	}

	prom.AddReminderSent(strconv.Itoa(step.Number))
	s.recordDelivery(ctx, cfg, &model.DeliveryLog{
		Recipient: result.Recipient,
		Kind:      model.DeliveryKindCartReminder,
		Step:      step.Number,
		CartID:    &cart.ID,
		Success:   true,
		Preview:   truncate(text, previewLimit),
	})
	return nil
}

// resolveLines prices the cart snapshot against the catalog. Lines whose
// product no longer resolves are dropped from the listing; the stored cart
// total still renders.
func (s *Scanner) resolveLines(ctx context.Context, cart *model.AbandonedCart, wantImage bool) ([]template.CartLine, string) {
	lines := make([]template.CartLine, 0, len(cart.Items))
	imageURL := ""
	for _, item := range cart.Items {
		product, err := s.products.GetByID(ctx, item.ProductID)
		if err != nil {
			continue
		}
		lines = append(lines, template.CartLine{
			Name:      product.Name,
			Quantity:  item.Quantity,
			LineTotal: product.Price * float64(item.Quantity),
		})
		if wantImage && imageURL == "" {
			imageURL = product.ImageURL
		}
	}
	return lines, imageURL
}

func (s *Scanner) recordFailure(ctx context.Context, cfg *config.Config, cart *model.AbandonedCart, step config.StepConfig, text, reason string, issued *model.Coupon) {
	prom.AddSendFailure(strconv.Itoa(step.Number), "provider")
	logger.Warn("reminder send failed", "cart_id", cart.ID, "step", step.Number, "reason", reason)

	if issued != nil {
		if err := s.issuer.Revoke(ctx, issued.Code); err != nil {
			logger.Error("failed to revoke coupon after send failure", "code", issued.Code, "error", err)
		}
	}

	s.recordDelivery(ctx, cfg, &model.DeliveryLog{
		Recipient: cart.Billing.Phone,
		Kind:      model.DeliveryKindCartReminder,
		Step:      step.Number,
		CartID:    &cart.ID,
		Success:   false,
		Reason:    reason,
		Preview:   truncate(text, previewLimit),
	})
}

func (s *Scanner) recordDelivery(ctx context.Context, cfg *config.Config, entry *model.DeliveryLog) {
	if !cfg.EnableDeliveryLog {
		return
	}
	if _, err := s.logs.Create(ctx, entry); err != nil {
		logger.Error("failed to write delivery log", "error", err)
	}
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	// back off to a rune boundary so the preview stays valid UTF-8
	for n > 0 && !utf8.RuneStart(s[n]) {
		n--
	}
	return s[:n]
}
