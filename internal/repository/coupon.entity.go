package repository

import (
	"time"

	"github.com/cartwisp/recovery-gateway/internal/model"
)

type CouponEntity struct {
	ID             int64     `gorm:"primaryKey;autoIncrement;column:id"`
	Code           string    `gorm:"column:code;not null;uniqueIndex"`
	DiscountType   string    `gorm:"column:discount_type;not null"`
	DiscountAmount float64   `gorm:"column:discount_amount;not null"`
	UsageLimit     int       `gorm:"column:usage_limit;not null;default:1"`
	Used           bool      `gorm:"column:used;not null;default:false"`
	CustomerPhone  string    `gorm:"column:customer_phone;index"`
	CustomerEmail  string    `gorm:"column:customer_email"`
	CartID         *int64    `gorm:"column:cart_id;index"`
	OrderID        *int64    `gorm:"column:order_id"`
	MessageNumber  int       `gorm:"column:message_number;not null;default:0"`
	CreatedAt      time.Time `gorm:"column:created_at;autoCreateTime"`
	ExpiresAt      time.Time `gorm:"column:expires_at;not null;index"`
}

func (CouponEntity) TableName() string {
	return "coupon"
}

type DiscountEntity struct {
	ID             int64     `gorm:"primaryKey;autoIncrement;column:id"`
	Code           string    `gorm:"column:code;not null;uniqueIndex"`
	DiscountType   string    `gorm:"column:discount_type;not null"`
	Amount         float64   `gorm:"column:amount;not null"`
	UsageLimit     int       `gorm:"column:usage_limit;not null;default:1"`
	EmailRestraint string    `gorm:"column:email_restraint"`
	IndividualUse  bool      `gorm:"column:individual_use;not null;default:true"`
	ExpiresAt      time.Time `gorm:"column:expires_at;not null"`
	CreatedAt      time.Time `gorm:"column:created_at;autoCreateTime"`
}

func (DiscountEntity) TableName() string {
	return "discount"
}

func toCouponEntity(m *model.Coupon) *CouponEntity {
	if m == nil {
		return nil
	}
	return &CouponEntity{
		ID:             m.ID,
		Code:           m.Code,
		DiscountType:   string(m.DiscountType),
		DiscountAmount: m.DiscountAmount,
		UsageLimit:     m.UsageLimit,
		Used:           m.Used,
		CustomerPhone:  m.CustomerPhone,
		CustomerEmail:  m.CustomerEmail,
		CartID:         m.CartID,
		OrderID:        m.OrderID,
		MessageNumber:  m.MessageNumber,
		CreatedAt:      m.CreatedAt,
		ExpiresAt:      m.ExpiresAt,
	}
}

func toCouponModel(e *CouponEntity) *model.Coupon {
	if e == nil {
		return nil
	}
	return &model.Coupon{
		ID:             e.ID,
		Code:           e.Code,
		DiscountType:   model.DiscountType(e.DiscountType),
		DiscountAmount: e.DiscountAmount,
		UsageLimit:     e.UsageLimit,
		Used:           e.Used,
		CustomerPhone:  e.CustomerPhone,
		CustomerEmail:  e.CustomerEmail,
		CartID:         e.CartID,
		OrderID:        e.OrderID,
		MessageNumber:  e.MessageNumber,
		CreatedAt:      e.CreatedAt,
		ExpiresAt:      e.ExpiresAt,
	}
}

func toDiscountEntity(m *model.Discount) *DiscountEntity {
	if m == nil {
		return nil
	}
	return &DiscountEntity{
		ID:             m.ID,
		Code:           m.Code,
		DiscountType:   string(m.DiscountType),
		Amount:         m.Amount,
		UsageLimit:     m.UsageLimit,
		EmailRestraint: m.EmailRestraint,
		IndividualUse:  m.IndividualUse,
		ExpiresAt:      m.ExpiresAt,
		CreatedAt:      m.CreatedAt,
	}
}

func toDiscountModel(e *DiscountEntity) *model.Discount {
	if e == nil {
		return nil
	}
	return &model.Discount{
		ID:             e.ID,
		Code:           e.Code,
		DiscountType:   model.DiscountType(e.DiscountType),
		Amount:         e.Amount,
		UsageLimit:     e.UsageLimit,
		EmailRestraint: e.EmailRestraint,
		IndividualUse:  e.IndividualUse,
		ExpiresAt:      e.ExpiresAt,
		CreatedAt:      e.CreatedAt,
	}
}
