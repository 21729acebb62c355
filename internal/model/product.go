package model

// Product is the catalog view the recovery handler needs: enough to decide
// whether a persisted cart line can still be restored.
type Product struct {
	ID          int64   `json:"id"`
	Name        string  `json:"name"`
	Price       float64 `json:"price"`
	ImageURL    string  `json:"image_url,omitempty"`
	StockQty    int     `json:"stock_qty"`
	Purchasable bool    `json:"purchasable"`
}

// Available reports whether qty units can currently be sold.
func (p *Product) Available(qty int) bool {
	return p.Purchasable && p.StockQty >= qty
}
