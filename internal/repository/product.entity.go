package repository

import (
	"github.com/cartwisp/recovery-gateway/internal/model"
)

type ProductEntity struct {
	ID          int64   `gorm:"primaryKey;autoIncrement;column:id"`
	Name        string  `gorm:"column:name;not null"`
	Price       float64 `gorm:"column:price;not null"`
	ImageURL    string  `gorm:"column:image_url"`
	StockQty    int     `gorm:"column:stock_qty;not null;default:0"`
	Purchasable bool    `gorm:"column:purchasable;not null;default:true"`
}

func (ProductEntity) TableName() string {
	return "product"
}

func toProductEntity(m *model.Product) *ProductEntity {
	if m == nil {
		return nil
	}
	return &ProductEntity{
		ID:          m.ID,
		Name:        m.Name,
		Price:       m.Price,
		ImageURL:    m.ImageURL,
		StockQty:    m.StockQty,
		Purchasable: m.Purchasable,
	}
}

func toProductModel(e *ProductEntity) *model.Product {
	if e == nil {
		return nil
	}
	return &model.Product{
		ID:          e.ID,
		Name:        e.Name,
		Price:       e.Price,
		ImageURL:    e.ImageURL,
		StockQty:    e.StockQty,
		Purchasable: e.Purchasable,
	}
}
