package repository

import (
	"encoding/json"
	"time"

	"github.com/cartwisp/recovery-gateway/internal/model"
)

type OrderEntity struct {
	ID            int64     `gorm:"primaryKey;autoIncrement;column:id"`
	Number        string    `gorm:"column:number;not null;uniqueIndex"`
	Status        string    `gorm:"column:status;not null;index"`
	FirstName     string    `gorm:"column:billing_first_name"`
	LastName      string    `gorm:"column:billing_last_name"`
	Email         string    `gorm:"column:billing_email;index"`
	Phone         string    `gorm:"column:billing_phone;index"`
	Address1      string    `gorm:"column:billing_address_1"`
	City          string    `gorm:"column:billing_city"`
	State         string    `gorm:"column:billing_state"`
	Postcode      string    `gorm:"column:billing_postcode"`
	Country       string    `gorm:"column:billing_country"`
	ItemsJSON     string    `gorm:"column:items;not null"`
	Subtotal      float64   `gorm:"column:subtotal;not null"`
	ShippingTotal float64   `gorm:"column:shipping_total;not null"`
	TaxTotal      float64   `gorm:"column:tax_total;not null"`
	DiscountTotal float64   `gorm:"column:discount_total;not null"`
	Total         float64   `gorm:"column:total;not null"`
	Currency      string    `gorm:"column:currency;not null"`
	PaymentMethod string    `gorm:"column:payment_method"`
	CustomerNote  string    `gorm:"column:customer_note"`
	CreatedAt     time.Time `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt     time.Time `gorm:"column:updated_at;autoUpdateTime"`
}

func (OrderEntity) TableName() string {
	return "store_order"
}

type ReviewReminderEntity struct {
	ID        int64      `gorm:"primaryKey;autoIncrement;column:id"`
	OrderID   int64      `gorm:"column:order_id;not null;uniqueIndex"`
	DueAt     time.Time  `gorm:"column:due_at;not null;index"`
	SentAt    *time.Time `gorm:"column:sent_at"`
	CreatedAt time.Time  `gorm:"column:created_at;autoCreateTime"`
}

func (ReviewReminderEntity) TableName() string {
	return "review_reminder"
}

func toOrderEntity(m *model.Order) *OrderEntity {
	if m == nil {
		return nil
	}
	items, _ := json.Marshal(m.Items)
	return &OrderEntity{
		ID:            m.ID,
		Number:        m.Number,
		Status:        string(m.Status),
		FirstName:     m.Billing.FirstName,
		LastName:      m.Billing.LastName,
		Email:         m.Billing.Email,
		Phone:         m.Billing.Phone,
		Address1:      m.Billing.Address1,
		City:          m.Billing.City,
		State:         m.Billing.State,
		Postcode:      m.Billing.Postcode,
		Country:       m.Billing.Country,
		ItemsJSON:     string(items),
		Subtotal:      m.Subtotal,
		ShippingTotal: m.ShippingTotal,
		TaxTotal:      m.TaxTotal,
		DiscountTotal: m.DiscountTotal,
		Total:         m.Total,
		Currency:      m.Currency,
		PaymentMethod: m.PaymentMethod,
		CustomerNote:  m.CustomerNote,
		CreatedAt:     m.CreatedAt,
		UpdatedAt:     m.UpdatedAt,
	}
}

func toOrderModel(e *OrderEntity) *model.Order {
	if e == nil {
		return nil
	}
	var items []model.OrderItem
	_ = json.Unmarshal([]byte(e.ItemsJSON), &items)
	return &model.Order{
		ID:     e.ID,
		Number: e.Number,
		Status: model.OrderStatus(e.Status),
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
		Items:         items,
		Subtotal:      e.Subtotal,
		ShippingTotal: e.ShippingTotal,
		TaxTotal:      e.TaxTotal,
		DiscountTotal: e.DiscountTotal,
		Total:         e.Total,
		Currency:      e.Currency,
		PaymentMethod: e.PaymentMethod,
		CustomerNote:  e.CustomerNote,
		CreatedAt:     e.CreatedAt,
		UpdatedAt:     e.UpdatedAt,
	}
}

func toReviewReminderModel(e *ReviewReminderEntity) *model.ReviewReminder {
	if e == nil {
		return nil
	}
	return &model.ReviewReminder{
		ID:        e.ID,
		OrderID:   e.OrderID,
		DueAt:     e.DueAt,
		SentAt:    e.SentAt,
		CreatedAt: e.CreatedAt,
	}
}
