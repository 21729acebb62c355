package fixtures

import (
	"github.com/cartwisp/recovery-gateway/internal/model"
)

var (
	TestProductShirt = model.Product{
		ID:          11,
		Name:        "Linen Shirt",
		Price:       25,
		ImageURL:    "http://cdn.example/shirt.jpg",
		StockQty:    10,
		Purchasable: true,
	}

	TestProductMug = model.Product{
		ID:          12,
		Name:        "Ceramic Mug",
		Price:       8,
		StockQty:    50,
		Purchasable: true,
	}

	TestProductSoldOut = model.Product{
		ID:          13,
		Name:        "Limited Poster",
		Price:       40,
		StockQty:    0,
		Purchasable: true,
	}
)

func NewCaptureParams(sessionID, phone string) model.CaptureParams {
	return model.CaptureParams{
		SessionID: sessionID,
		Billing: model.BillingSnapshot{
			FirstName: "Laura",
			LastName:  "Gomez",
			Email:     "laura@example.com",
			Phone:     phone,
			Address1:  "Calle 10 #4-21",
			City:      "Bogota",
			Country:   "CO",
		},
		Items: []model.CartItem{
			{ProductID: TestProductShirt.ID, Quantity: 2},
			{ProductID: TestProductMug.ID, Quantity: 1},
		},
		CartTotal: 58,
	}
}
