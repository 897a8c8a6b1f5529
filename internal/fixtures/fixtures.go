// Package fixtures provides shared domain fixtures for tests: checkout
// and order snapshots populated the way the storefront would build them.
package fixtures

import (
	"github.com/google/uuid"

	"github.com/shopforge/taxbridge/pkg/domain"
	"github.com/shopforge/taxbridge/pkg/money"
)

// USAAddress returns a US shipping address in a taxable jurisdiction.
func USAAddress() *domain.Address {
	return &domain.Address{
		StreetAddress1: "2000 Main Street",
		City:           "Irvine",
		CountryArea:    "CA",
		PostalCode:     "92614",
		Country:        "US",
	}
}

// CompanyAddress returns the merchant's ship-from address.
func CompanyAddress() *domain.Address {
	return &domain.Address{
		CompanyName:    "Shopforge Inc.",
		StreetAddress1: "845 Market Street",
		City:           "San Francisco",
		CountryArea:    "CA",
		PostalCode:     "94103",
		Country:        "US",
	}
}

// SiteSettings returns storefront settings with a configured company
// address.
func SiteSettings(includeTaxesInPrices bool) *domain.SiteSettings {
	return &domain.SiteSettings{
		CompanyAddress:        CompanyAddress(),
		IncludeTaxesInPrices:  includeTaxesInPrices,
		ChargeTaxesOnShipping: true,
	}
}

// Variant returns a taxable product variant.
func Variant(sku, name, price string) *domain.ProductVariant {
	return &domain.ProductVariant{
		SKU:   sku,
		Price: money.MustFromString(price, money.USD),
		Product: &domain.Product{
			Name:        name,
			ChargeTaxes: true,
		},
	}
}

// CheckoutWithItem returns a checkout holding three units of a 10 USD
// variant, shipped with a 10 USD method to a US address.
func CheckoutWithItem() *domain.Checkout {
	return &domain.Checkout{
		Token:    uuid.New(),
		Email:    "test@example.com",
		Currency: money.USD,
		Lines: []domain.CheckoutLine{
			{Variant: Variant("SKU_A", "Test product", "10.00"), Quantity: 3},
		},
		ShippingAddress: USAAddress(),
		ShippingMethod: &domain.ShippingMethod{
			Name:  "DHL",
			Price: money.MustFromString("10.00", money.USD),
		},
		Discount: money.Zero(money.USD),
	}
}

// OrderLine returns an order line for the given captured unit prices.
func OrderLine(sku, name string, quantity int64, unitNet, unitGross string) domain.OrderLine {
	net := money.MustFromString(unitNet, money.USD)
	gross := money.MustFromString(unitGross, money.USD)
	return domain.OrderLine{
		ProductName: name,
		ProductSKU:  sku,
		Quantity:    quantity,
		UnitPrice:   money.TaxedMoney{Net: net, Gross: gross},
		Variant:     Variant(sku, name, unitNet),
	}
}

// OrderWithLines returns a placed order with one captured line and a
// shipping method, addressed to a US customer.
func OrderWithLines(lines ...domain.OrderLine) *domain.Order {
	if len(lines) == 0 {
		lines = []domain.OrderLine{
			OrderLine("SKU_A", "Test product", 3, "10.00", "12.30"),
		}
	}
	return &domain.Order{
		Token:           uuid.New(),
		CustomerEmail:   "test@example.com",
		Currency:        money.USD,
		Lines:           lines,
		ShippingAddress: USAAddress(),
		BillingAddress:  USAAddress(),
		ShippingMethod: &domain.ShippingMethod{
			Name:  "DHL",
			Price: money.MustFromString("10.00", money.USD),
		},
		ShippingMethodName: "DHL",
		Discount:           money.Zero(money.USD),
	}
}
