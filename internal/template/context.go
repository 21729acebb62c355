package template

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/cartwisp/recovery-gateway/internal/model"
)

// Shop identifies the storefront in rendered messages.
type Shop struct {
	Name     string
	URL      string
	Currency string
}

// CartLine is one priced cart line ready for display; the caller resolves
// product names and prices before composing.
type CartLine struct {
	Name      string
	Quantity  int
	LineTotal float64
}

func (s Shop) money(amount float64) string {
	return CleanText(fmt.Sprintf("%s %.2f", s.Currency, amount))
}

// CartContext builds the placeholder context for an abandoned cart reminder.
// A nil coupon leaves the coupon placeholders empty.
func CartContext(cart *model.AbandonedCart, lines []CartLine, recoveryURL string, coupon *model.Coupon, shop Shop) map[string]string {
	var items strings.Builder
	firstProduct := ""
	for _, line := range lines {
		if firstProduct == "" {
			firstProduct = line.Name
		}
		items.WriteString(fmt.Sprintf("  - %s (x%d) - %s\n", line.Name, line.Quantity, shop.money(line.LineTotal)))
	}

	ctx := map[string]string{
		"shop_name":          shop.Name,
		"shop_url":           shop.URL,
		"customer_name":      strings.TrimSpace(cart.Billing.FirstName),
		"customer_lastname":  strings.TrimSpace(cart.Billing.LastName),
		"cart_items":         strings.TrimRight(items.String(), "\n"),
		"cart_total":         shop.money(cart.CartTotal),
		"checkout_link":      recoveryURL,
		"first_product_name": firstProduct,
	}
	if coupon != nil {
		ctx["coupon_code"] = coupon.Code
		ctx["coupon_amount"] = formatDiscount(coupon.DiscountType, coupon.DiscountAmount, shop)
		ctx["coupon_expiry"] = coupon.ExpiresAt.Format("2006-01-02")
	}
	return ctx
}

// OrderContext builds the placeholder context for order status and review
// messages. extras overlay the computed values, used for note content and
// per-message links.
func OrderContext(order *model.Order, shop Shop, extras map[string]string) map[string]string {
	var withPrice, noPrice, withSKU strings.Builder
	firstProduct := ""
	for _, item := range order.Items {
		if firstProduct == "" {
			firstProduct = item.Name
		}
		withPrice.WriteString(fmt.Sprintf("  - %s (x%d) - %s\n", item.Name, item.Quantity, shop.money(item.LineTotal)))
		noPrice.WriteString(fmt.Sprintf("  - %s (x%d)\n", item.Name, item.Quantity))
		sku := item.SKU
		if sku == "" {
			sku = "-"
		}
		withSKU.WriteString(fmt.Sprintf("  - %s [%s] (x%d)\n", item.Name, sku, item.Quantity))
	}

	itemCount := 0
	for _, item := range order.Items {
		itemCount += item.Quantity
	}

	ctx := map[string]string{
		"shop_name":            shop.Name,
		"shop_url":             shop.URL,
		"order_id":             order.Number,
		"order_status":         string(order.Status),
		"order_date":           order.CreatedAt.Format("2006-01-02 15:04"),
		"order_total":          shop.money(order.Total),
		"order_total_raw":      strconv.FormatFloat(order.Total, 'f', 2, 64),
		"order_subtotal":       shop.money(order.Subtotal),
		"order_shipping_total": shop.money(order.ShippingTotal),
		"order_tax_total":      shop.money(order.TaxTotal),
		"order_discount_total": shop.money(order.DiscountTotal),
		"order_currency":       order.Currency,
		"order_items":          strings.TrimRight(withPrice.String(), "\n"),
		"order_items_no_price": strings.TrimRight(noPrice.String(), "\n"),
		"order_items_sku":      strings.TrimRight(withSKU.String(), "\n"),
		"order_item_count":     strconv.Itoa(itemCount),
		"payment_method":       order.PaymentMethod,
		"customer_name":        order.Billing.FirstName,
		"customer_lastname":    order.Billing.LastName,
		"customer_fullname":    strings.TrimSpace(order.Billing.FirstName + " " + order.Billing.LastName),
		"billing_email":        order.Billing.Email,
		"billing_phone":        order.Billing.Phone,
		"billing_address":      formatAddress(order.Billing),
		"customer_note":        order.CustomerNote,
		"first_product_name":   firstProduct,
	}
	for k, v := range extras {
		ctx[k] = v
	}
	return ctx
}

func formatDiscount(t model.DiscountType, amount float64, shop Shop) string {
	if t == model.DiscountPercent {
		return strconv.FormatFloat(amount, 'f', -1, 64) + "%"
	}
	return shop.money(amount)
}

func formatAddress(b model.BillingSnapshot) string {
	parts := make([]string, 0, 5)
	for _, p := range []string{b.Address1, b.City, b.State, b.Postcode, b.Country} {
		if p != "" {
			parts = append(parts, p)
		}
	}
	return strings.Join(parts, ", ")
}
