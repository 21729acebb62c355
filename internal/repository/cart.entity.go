package repository

import (
	"encoding/json"
	"time"

	"github.com/cartwisp/recovery-gateway/internal/model"
)

// CartEntity mirrors the abandoned_cart table. The three sent flags are
// separate boolean columns so "flip only if still false" can be a single
// conditional UPDATE. updated_at is the delay-clock anchor and may only move
// on capture, never when a step flag flips; autoUpdateTime:false stops gorm
// from touching it by field-name convention on every update.
type CartEntity struct {
	ID            int64     `gorm:"primaryKey;autoIncrement;column:id"`
	SessionID     string    `gorm:"column:session_id;not null;index"`
	UserID        *int64    `gorm:"column:user_id"`
	RecoveryToken string    `gorm:"column:recovery_token;not null;uniqueIndex"`
	FirstName     string    `gorm:"column:billing_first_name"`
	LastName      string    `gorm:"column:billing_last_name"`
	Email         string    `gorm:"column:billing_email;index"`
	Phone         string    `gorm:"column:billing_phone;index"`
	Address1      string    `gorm:"column:billing_address_1"`
	City          string    `gorm:"column:billing_city"`
	State         string    `gorm:"column:billing_state"`
	Postcode      string    `gorm:"column:billing_postcode"`
	Country       string    `gorm:"column:billing_country"`
	CartContents  string    `gorm:"column:cart_contents;not null"`
	CartTotal     float64   `gorm:"column:cart_total;not null"`
	Status        string    `gorm:"column:status;not null;default:active;index"`
	Msg1Sent      bool      `gorm:"column:msg1_sent;not null;default:false"`
	Msg2Sent      bool      `gorm:"column:msg2_sent;not null;default:false"`
	Msg3Sent      bool      `gorm:"column:msg3_sent;not null;default:false"`
	CreatedAt     time.Time `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt     time.Time `gorm:"column:updated_at;autoUpdateTime:false"`
}

func (CartEntity) TableName() string {
	return "abandoned_cart"
}

func toCartEntity(m *model.AbandonedCart) *CartEntity {
	if m == nil {
		return nil
	}
	contents, _ := json.Marshal(m.Items)
	return &CartEntity{
		ID:            m.ID,
		SessionID:     m.SessionID,
		UserID:        m.UserID,
		RecoveryToken: m.RecoveryToken,
		FirstName:     m.Billing.FirstName,
		LastName:      m.Billing.LastName,
		Email:         m.Billing.Email,
		Phone:         m.Billing.Phone,
		Address1:      m.Billing.Address1,
		City:          m.Billing.City,
		State:         m.Billing.State,
		Postcode:      m.Billing.Postcode,
		Country:       m.Billing.Country,
		CartContents:  string(contents),
		CartTotal:     m.CartTotal,
		Status:        string(m.Status),
		Msg1Sent:      m.MessagesSent[0],
		Msg2Sent:      m.MessagesSent[1],
		Msg3Sent:      m.MessagesSent[2],
		CreatedAt:     m.CreatedAt,
		UpdatedAt:     m.UpdatedAt,
	}
}

func toCartModel(e *CartEntity) *model.AbandonedCart {
	if e == nil {
		return nil
	}
	var items []model.CartItem
	_ = json.Unmarshal([]byte(e.CartContents), &items)
	return &model.AbandonedCart{
		ID:            e.ID,
		SessionID:     e.SessionID,
		UserID:        e.UserID,
		RecoveryToken: e.RecoveryToken,
		Billing: model.BillingSnapshot{
			FirstName: e.FirstName,
			LastName:  e.LastName,
			Email:     e.Email,
			Phone:     e.Phone,
			Address1:  e.Address1,
			City:      e.City,
			State:     e.State,
			Postcode:  e.Postcode,
			Country:   e.Country,
		},
		Items:        items,
		CartTotal:    e.CartTotal,
		Status:       model.CartStatus(e.Status),
		MessagesSent: [model.ReminderSteps]bool{e.Msg1Sent, e.Msg2Sent, e.Msg3Sent},
		CreatedAt:    e.CreatedAt,
		UpdatedAt:    e.UpdatedAt,
	}
}

func toCartModels(entities []*CartEntity) []*model.AbandonedCart {
	if entities == nil {
		return nil
	}
	models := make([]*model.AbandonedCart, len(entities))
	for i, e := range entities {
		models[i] = toCartModel(e)
	}
	return models
}
