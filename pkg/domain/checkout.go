package domain

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/shopforge/taxbridge/pkg/money"
)

// Address is a postal address attached to a checkout, order or company.
type Address struct {
	CompanyName    string `json:"company_name,omitempty"`
	StreetAddress1 string `json:"street_address_1"`
	StreetAddress2 string `json:"street_address_2,omitempty"`
	City           string `json:"city"`
	CityArea       string `json:"city_area,omitempty"`
	PostalCode     string `json:"postal_code"`
	Country        string `json:"country"`
	CountryArea    string `json:"country_area,omitempty"`
}

// Product carries the tax-relevant slice of a catalog product.
type Product struct {
	Name        string     `json:"name"`
	ChargeTaxes bool       `json:"charge_taxes"`
	Metadata    ObjectMeta `json:"metadata,omitempty"`
}

// ProductVariant is a purchasable variant with its base price.
type ProductVariant struct {
	SKU     string      `json:"sku"`
	Price   money.Money `json:"price"`
	Product *Product    `json:"product"`
}

// CheckoutLine is a single variant/quantity pair in a checkout.
type CheckoutLine struct {
	Variant  *ProductVariant `json:"variant"`
	Quantity int64           `json:"quantity"`
}

// ShippingMethod is the delivery option selected for a checkout or order.
type ShippingMethod struct {
	Name  string      `json:"name"`
	Price money.Money `json:"price"`
}

// DiscountValueType distinguishes percentage sales from fixed ones.
type DiscountValueType string

const (
	DiscountPercentage DiscountValueType = "percentage"
	DiscountFixed      DiscountValueType = "fixed"
)

// Discount is a sale applied to checkout lines before tax calculation.
// An empty ProductSKUs set applies the discount to every line.
type Discount struct {
	ValueType   DiscountValueType `json:"value_type"`
	Value       decimal.Decimal   `json:"value"`
	ProductSKUs map[string]bool   `json:"product_skus,omitempty"`
}

// AppliesTo reports whether the discount covers the given variant SKU.
func (d Discount) AppliesTo(sku string) bool {
	if len(d.ProductSKUs) == 0 {
		return true
	}
	return d.ProductSKUs[sku]
}

// Checkout is an immutable snapshot of an open checkout, derived from the
// host application's entities and used to build tax requests.
type Checkout struct {
	Token           uuid.UUID       `json:"token"`
	Email           string          `json:"email"`
	Currency        money.Code      `json:"currency"`
	Lines           []CheckoutLine  `json:"lines"`
	ShippingAddress *Address        `json:"shipping_address,omitempty"`
	ShippingMethod  *ShippingMethod `json:"shipping_method,omitempty"`
	Discount        money.Money     `json:"discount"`
}

// SiteSettings are the storefront-wide settings that affect tax requests.
type SiteSettings struct {
	CompanyAddress        *Address `json:"company_address,omitempty"`
	IncludeTaxesInPrices  bool     `json:"include_taxes_in_prices"`
	ChargeTaxesOnShipping bool     `json:"charge_taxes_on_shipping"`
}
