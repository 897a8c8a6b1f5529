// Package checkout implements the plugin-independent base price
// calculations. Their results feed the plugin chain as the previous value;
// when no tax plugin overrides them, prices stay tax-free (net == gross).
package checkout

import (
	"github.com/shopspring/decimal"

	"github.com/shopforge/taxbridge/pkg/domain"
	"github.com/shopforge/taxbridge/pkg/money"
)

var oneHundred = decimal.NewFromInt(100)

// DiscountedUnitPrice applies the first matching sale to a variant's base
// price.
func DiscountedUnitPrice(
	variant *domain.ProductVariant,
	discounts []domain.Discount,
) money.Money {
	price := variant.Price
	for _, d := range discounts {
		if !d.AppliesTo(variant.SKU) {
			continue
		}
		switch d.ValueType {
		case domain.DiscountPercentage:
			fraction := oneHundred.Sub(d.Value).Div(oneHundred)
			price = money.Money{
				Amount:   price.Amount.Mul(fraction),
				Currency: price.Currency,
			}
		case domain.DiscountFixed:
			price = money.Money{
				Amount:   price.Amount.Sub(d.Value),
				Currency: price.Currency,
			}
			if price.IsNegative() {
				price = money.Zero(price.Currency)
			}
		}
		break
	}
	return price
}

// BaseLineTotal returns the discounted, untaxed total for a checkout line.
func BaseLineTotal(
	line domain.CheckoutLine,
	discounts []domain.Discount,
) money.TaxedMoney {
	unit := DiscountedUnitPrice(line.Variant, discounts)
	return money.FlatTaxedMoney(unit.Mul(line.Quantity))
}

// BaseSubtotal returns the untaxed sum of all line totals.
func BaseSubtotal(
	checkout *domain.Checkout,
	discounts []domain.Discount,
) (money.TaxedMoney, error) {
	subtotal := money.ZeroTaxed(checkout.Currency)
	for _, line := range checkout.Lines {
		lineTotal := BaseLineTotal(line, discounts)
		var err error
		subtotal, err = subtotal.Add(lineTotal)
		if err != nil {
			return money.TaxedMoney{}, err
		}
	}
	return subtotal, nil
}

// BaseShippingPrice returns the untaxed shipping price, zero when no
// shipping method is selected.
func BaseShippingPrice(checkout *domain.Checkout) money.TaxedMoney {
	if checkout.ShippingMethod == nil {
		return money.ZeroTaxed(checkout.Currency)
	}
	return money.FlatTaxedMoney(checkout.ShippingMethod.Price)
}

// BaseTotal returns subtotal + shipping - voucher discount, floored at
// zero so a large voucher cannot produce a negative total.
func BaseTotal(
	checkout *domain.Checkout,
	discounts []domain.Discount,
) (money.TaxedMoney, error) {
	subtotal, err := BaseSubtotal(checkout, discounts)
	if err != nil {
		return money.TaxedMoney{}, err
	}
	total, err := subtotal.Add(BaseShippingPrice(checkout))
	if err != nil {
		return money.TaxedMoney{}, err
	}
	if checkout.Discount.IsZero() {
		return total, nil
	}
	voucher := money.FlatTaxedMoney(checkout.Discount)
	total, err = total.Sub(voucher)
	if err != nil {
		return money.TaxedMoney{}, err
	}
	if total.Net.IsNegative() {
		return money.ZeroTaxed(checkout.Currency), nil
	}
	return total, nil
}
