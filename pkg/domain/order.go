package domain

import (
	"github.com/google/uuid"

	"github.com/shopforge/taxbridge/pkg/money"
)

// OrderLine is a line of a placed order with the prices captured at
// checkout time.
type OrderLine struct {
	ProductName string           `json:"product_name"`
	ProductSKU  string           `json:"product_sku"`
	Quantity    int64            `json:"quantity"`
	UnitPrice   money.TaxedMoney `json:"unit_price"`
	Variant     *ProductVariant  `json:"variant,omitempty"`
}

// Order is an immutable snapshot of a placed order used to build the final
// tax transaction.
type Order struct {
	Token              uuid.UUID       `json:"token"`
	CustomerEmail      string          `json:"customer_email"`
	Currency           money.Code      `json:"currency"`
	Lines              []OrderLine     `json:"lines"`
	ShippingAddress    *Address        `json:"shipping_address,omitempty"`
	BillingAddress     *Address        `json:"billing_address,omitempty"`
	ShippingMethod     *ShippingMethod `json:"shipping_method,omitempty"`
	ShippingMethodName string          `json:"shipping_method_name,omitempty"`
	Discount           money.Money     `json:"discount"`
}
