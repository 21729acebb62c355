// Package coupon issues single-use discount codes tied to a cart or order.
// Every issued code exists twice: a tracking row for lifecycle and stats, and
// a discount row the checkout redeems. The two are created in one transaction
// so a crash between them cannot strand a redeemable code without history.
package coupon

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/cartwisp/recovery-gateway/internal/model"
	"github.com/cartwisp/recovery-gateway/internal/repository"
	"github.com/cartwisp/recovery-gateway/pkg/logger"
	"github.com/cartwisp/recovery-gateway/pkg/pg"
	"github.com/cartwisp/recovery-gateway/pkg/prom"
)

const (
	codeSuffixLen   = 6
	codeMaxAttempts = 5
)

const codeAlphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"

type Issuer struct {
	db      *pg.DB
	coupons *repository.CouponRepository
}

func NewIssuer(db *pg.DB, coupons *repository.CouponRepository) *Issuer {
	return &Issuer{db: db, coupons: coupons}
}

// Issue generates a unique code and persists the tracking and discount rows
// atomically. Code collisions retry with a fresh suffix up to a small bound;
// exhaustion returns model.ErrCodeExhausted.
func (i *Issuer) Issue(ctx context.Context, p model.IssueParams) (*model.Coupon, error) {
	if err := p.Validate(); err != nil {
		return nil, err
	}

	now := time.Now()
	expiresAt := now.AddDate(0, 0, p.ExpiryDays)
	usageLimit := p.UsageLimit
	if usageLimit <= 0 {
		usageLimit = 1
	}

	for attempt := 0; attempt < codeMaxAttempts; attempt++ {
		code, err := newCode(p.Prefix, p.MessageNumber)
		if err != nil {
			return nil, err
		}

		var issued *model.Coupon
		err = i.db.WithinTransaction(ctx, func(ctx context.Context) error {
			issued, err = i.coupons.CreateTracking(ctx, &model.Coupon{
				Code:           code,
				DiscountType:   p.DiscountType,
				DiscountAmount: p.DiscountAmount,
				UsageLimit:     usageLimit,
				CustomerPhone:  p.CustomerPhone,
				CustomerEmail:  p.CustomerEmail,
				CartID:         p.CartID,
				OrderID:        p.OrderID,
				MessageNumber:  p.MessageNumber,
				CreatedAt:      now,
				ExpiresAt:      expiresAt,
			})
			if err != nil {
				return err
			}
			_, err = i.coupons.CreateDiscount(ctx, &model.Discount{
				Code:           code,
				DiscountType:   p.DiscountType,
				Amount:         p.DiscountAmount,
				UsageLimit:     usageLimit,
				EmailRestraint: p.CustomerEmail,
				IndividualUse:  true,
				ExpiresAt:      expiresAt,
				CreatedAt:      now,
			})
			return err
		})
		if err == nil {
			logger.Info("coupon issued", "code", issued.Code, "step", p.MessageNumber)
			return issued, nil
		}
		if errors.Is(err, repository.ErrDuplicateCode) {
			continue
		}
		return nil, err
	}

	logger.Error("coupon code space exhausted", "prefix", p.Prefix, "attempts", codeMaxAttempts)
	return nil, model.ErrCodeExhausted
}

// Redeem marks the tracking row used. The discount row stays; the storefront
// already consumed it.
func (i *Issuer) Redeem(ctx context.Context, code string) error {
	return i.coupons.MarkUsed(ctx, code)
}

// Revoke deletes an issued coupon and its discount row. Used to back out a
// coupon whose reminder message could not be delivered.
func (i *Issuer) Revoke(ctx context.Context, code string) error {
	return i.coupons.DeleteByCode(ctx, code)
}

// SweepExpired deletes expired unused coupons and their discount rows.
func (i *Issuer) SweepExpired(ctx context.Context, now time.Time) (int, error) {
	swept, err := i.coupons.SweepExpired(ctx, now)
	if err != nil {
		return 0, err
	}
	if swept > 0 {
		prom.AddCouponsSwept(swept)
		logger.Info("expired coupons swept", "count", swept)
	}
	return swept, nil
}

// newCode builds {PREFIX}-M{n}-{RANDOM}; the step marker is omitted when the
// code is not tied to a reminder step.
func newCode(prefix string, messageNumber int) (string, error) {
	suffix, err := randomSuffix(codeSuffixLen)
	if err != nil {
		return "", err
	}

	var b strings.Builder
	b.WriteString(strings.ToUpper(prefix))
	b.WriteString("-")
	if messageNumber > 0 {
		fmt.Fprintf(&b, "M%d-", messageNumber)
	}
	b.WriteString(suffix)
	return b.String(), nil
}

func randomSuffix(n int) (string, error) {
	buf := make([]byte, n)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	for i := range buf {
		buf[i] = codeAlphabet[int(buf[i])%len(codeAlphabet)]
	}
	return string(buf), nil
}
