package repository

import (
	"time"

	"github.com/cartwisp/recovery-gateway/internal/model"
)

type DeliveryLogEntity struct {
	ID        int64     `gorm:"primaryKey;autoIncrement;column:id"`
	Recipient string    `gorm:"column:recipient;not null;index"`
	Kind      string    `gorm:"column:kind;not null;index"`
	Step      int       `gorm:"column:step"`
	CartID    *int64    `gorm:"column:cart_id"`
	OrderID   *int64    `gorm:"column:order_id"`
	Success   bool      `gorm:"column:success;not null"`
	Reason    string    `gorm:"column:reason"`
	Preview   string    `gorm:"column:preview"`
	CreatedAt time.Time `gorm:"column:created_at;autoCreateTime;index"`
}

func (DeliveryLogEntity) TableName() string {
	return "delivery_log"
}

func toDeliveryLogEntity(m *model.DeliveryLog) *DeliveryLogEntity {
	if m == nil {
		return nil
	}
	return &DeliveryLogEntity{
		ID:        m.ID,
		Recipient: m.Recipient,
		Kind:      m.Kind,
		Step:      m.Step,
		CartID:    m.CartID,
		OrderID:   m.OrderID,
		Success:   m.Success,
		Reason:    m.Reason,
		Preview:   m.Preview,
		CreatedAt: m.CreatedAt,
	}
}

func toDeliveryLogModel(e *DeliveryLogEntity) *model.DeliveryLog {
	if e == nil {
		return nil
	}
	return &model.DeliveryLog{
		ID:        e.ID,
		Recipient: e.Recipient,
		Kind:      e.Kind,
		Step:      e.Step,
		CartID:    e.CartID,
		OrderID:   e.OrderID,
		Success:   e.Success,
		Reason:    e.Reason,
		Preview:   e.Preview,
		CreatedAt: e.CreatedAt,
	}
}
