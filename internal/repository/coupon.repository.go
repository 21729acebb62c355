package repository

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"

	"github.com/cartwisp/recovery-gateway/internal/model"
	"github.com/cartwisp/recovery-gateway/pkg/pg"
)

// ErrDuplicateCode is returned when a generated coupon code collides with an
// existing one; the issuer retries with a fresh suffix.
var ErrDuplicateCode = errors.New("coupon code already exists")

type CouponRepository struct {
	*pg.DB
}

func NewCouponRepository(db *pg.DB) *CouponRepository {
	return &CouponRepository{db}
}

// CreateTracking inserts the tracking row. The unique index on code makes
// the check-and-insert atomic; a collision surfaces as ErrDuplicateCode.
func (r *CouponRepository) CreateTracking(ctx context.Context, c *model.Coupon) (*model.Coupon, error) {
	entity := toCouponEntity(c)
	if err := r.Write(ctx).Create(entity).Error; err != nil {
		if isUniqueViolation(err) {
			return nil, ErrDuplicateCode
		}
		return nil, err
	}
	return toCouponModel(entity), nil
}

// CreateDiscount inserts the redeemable discount object. Callers pair it
// with CreateTracking inside WithinTransaction so neither row can exist
// without the other.
func (r *CouponRepository) CreateDiscount(ctx context.Context, d *model.Discount) (*model.Discount, error) {
	entity := toDiscountEntity(d)
	if err := r.Write(ctx).Create(entity).Error; err != nil {
		if isUniqueViolation(err) {
			return nil, ErrDuplicateCode
		}
		return nil, err
	}
	return toDiscountModel(entity), nil
}

func (r *CouponRepository) GetByCode(ctx context.Context, code string) (*model.Coupon, error) {
	var entity CouponEntity
	err := r.Read(ctx).Where("code = ?", code).First(&entity).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, model.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return toCouponModel(&entity), nil
}

func (r *CouponRepository) MarkUsed(ctx context.Context, code string) error {
	res := r.Write(ctx).Model(&CouponEntity{}).
		Where("code = ? AND used = ?", code, false).
		Update("used", true)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return model.ErrNotFound
	}
	return nil
}

// LatestUnusedForCart returns the most recent still-usable coupon linked to
// the cart, or ErrNotFound.
func (r *CouponRepository) LatestUnusedForCart(ctx context.Context, cartID int64, now time.Time) (*model.Coupon, error) {
	var entity CouponEntity
	err := r.Read(ctx).
		Where("cart_id = ? AND used = ? AND expires_at > ?", cartID, false, now).
		Order("created_at DESC").
		First(&entity).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, model.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return toCouponModel(&entity), nil
}

// HasActiveForCustomer reports whether the phone already holds a usable
// coupon, optionally scoped to one cart.
func (r *CouponRepository) HasActiveForCustomer(ctx context.Context, phone string, cartID *int64, now time.Time) (bool, error) {
	q := r.Read(ctx).Model(&CouponEntity{}).
		Where("customer_phone = ? AND used = ? AND expires_at > ?", phone, false, now)
	if cartID != nil {
		q = q.Where("cart_id = ?", *cartID)
	}
	var count int64
	if err := q.Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

// SweepExpired removes expired unused coupons together with their discount
// objects. Used coupons stay for the stats, expired or not.
func (r *CouponRepository) SweepExpired(ctx context.Context, now time.Time) (int, error) {
	var codes []string
	err := r.Write(ctx).Model(&CouponEntity{}).
		Where("used = ? AND expires_at < ?", false, now).
		Pluck("code", &codes).Error
	if err != nil {
		return 0, err
	}
	if len(codes) == 0 {
		return 0, nil
	}

	err = r.WithinTransaction(ctx, func(ctx context.Context) error {
		if err := r.Write(ctx).Where("code IN ?", codes).Delete(&DiscountEntity{}).Error; err != nil {
			return err
		}
		return r.Write(ctx).Where("code IN ?", codes).Delete(&CouponEntity{}).Error
	})
	if err != nil {
		return 0, err
	}
	return len(codes), nil
}

func (r *CouponRepository) DeleteByCode(ctx context.Context, code string) error {
	return r.WithinTransaction(ctx, func(ctx context.Context) error {
		if err := r.Write(ctx).Where("code = ?", code).Delete(&DiscountEntity{}).Error; err != nil {
			return err
		}
		return r.Write(ctx).Where("code = ?", code).Delete(&CouponEntity{}).Error
	})
}

func (r *CouponRepository) Stats(ctx context.Context, now time.Time) (*model.CouponStats, error) {
	var s model.CouponStats
	db := r.Read(ctx).Model(&CouponEntity{})

	if err := db.Count(&s.TotalGenerated).Error; err != nil {
		return nil, err
	}
	if err := r.Read(ctx).Model(&CouponEntity{}).Where("used = ?", true).Count(&s.TotalUsed).Error; err != nil {
		return nil, err
	}
	if err := r.Read(ctx).Model(&CouponEntity{}).Where("used = ? AND expires_at > ?", false, now).Count(&s.TotalActive).Error; err != nil {
		return nil, err
	}
	if err := r.Read(ctx).Model(&CouponEntity{}).Where("used = ? AND expires_at < ?", false, now).Count(&s.TotalExpired).Error; err != nil {
		return nil, err
	}

	if s.TotalGenerated > 0 {
		s.ConversionRate = float64(s.TotalUsed) / float64(s.TotalGenerated) * 100
	}
	return &s, nil
}
