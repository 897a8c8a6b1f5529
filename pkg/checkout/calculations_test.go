package checkout_test

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shopforge/taxbridge/internal/fixtures"
	"github.com/shopforge/taxbridge/pkg/checkout"
	"github.com/shopforge/taxbridge/pkg/domain"
	"github.com/shopforge/taxbridge/pkg/money"
)

func TestDiscountedUnitPrice(t *testing.T) {
	t.Parallel()

	variant := fixtures.Variant("SKU_A", "Test product", "10.00")

	tests := []struct {
		name      string
		discounts []domain.Discount
		expected  string
	}{
		{
			name:     "no discounts keeps base price",
			expected: "10.00",
		},
		{
			name: "percentage sale",
			discounts: []domain.Discount{{
				ValueType: domain.DiscountPercentage,
				Value:     decimal.NewFromInt(50),
			}},
			expected: "5.00",
		},
		{
			name: "fixed sale",
			discounts: []domain.Discount{{
				ValueType: domain.DiscountFixed,
				Value:     decimal.NewFromInt(3),
			}},
			expected: "7.00",
		},
		{
			name: "fixed sale larger than price floors at zero",
			discounts: []domain.Discount{{
				ValueType: domain.DiscountFixed,
				Value:     decimal.NewFromInt(50),
			}},
			expected: "0.00",
		},
		{
			name: "sale for another product does not apply",
			discounts: []domain.Discount{{
				ValueType:   domain.DiscountPercentage,
				Value:       decimal.NewFromInt(50),
				ProductSKUs: map[string]bool{"SKU_B": true},
			}},
			expected: "10.00",
		},
		{
			name: "only the first matching sale applies",
			discounts: []domain.Discount{
				{ValueType: domain.DiscountPercentage, Value: decimal.NewFromInt(50)},
				{ValueType: domain.DiscountFixed, Value: decimal.NewFromInt(2)},
			},
			expected: "5.00",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			price := checkout.DiscountedUnitPrice(variant, tt.discounts)
			assert.Equal(t, tt.expected, price.Amount.StringFixed(2))
		})
	}
}

func TestBaseLineTotal(t *testing.T) {
	t.Parallel()

	line := domain.CheckoutLine{
		Variant:  fixtures.Variant("SKU_A", "Test product", "10.00"),
		Quantity: 3,
	}

	total := checkout.BaseLineTotal(line, nil)
	assert.True(t, total.Net.Equal(money.MustFromString("30.00", money.USD)))
	assert.True(t, total.Gross.Equal(total.Net), "base totals carry no tax")
}

func TestBaseSubtotal(t *testing.T) {
	t.Parallel()

	ch := fixtures.CheckoutWithItem()
	ch.Lines = append(ch.Lines, domain.CheckoutLine{
		Variant:  fixtures.Variant("SKU_B", "Another product", "2.50"),
		Quantity: 2,
	})

	subtotal, err := checkout.BaseSubtotal(ch, nil)
	require.NoError(t, err)
	assert.True(t, subtotal.Net.Equal(money.MustFromString("35.00", money.USD)))
}

func TestBaseShippingPrice(t *testing.T) {
	t.Parallel()

	t.Run("returns selected method price", func(t *testing.T) {
		t.Parallel()
		ch := fixtures.CheckoutWithItem()
		shipping := checkout.BaseShippingPrice(ch)
		assert.True(t, shipping.Net.Equal(money.MustFromString("10.00", money.USD)))
	})

	t.Run("zero without a shipping method", func(t *testing.T) {
		t.Parallel()
		ch := fixtures.CheckoutWithItem()
		ch.ShippingMethod = nil
		shipping := checkout.BaseShippingPrice(ch)
		assert.True(t, shipping.IsZero())
	})
}

func TestBaseTotal(t *testing.T) {
	t.Parallel()

	t.Run("subtotal plus shipping", func(t *testing.T) {
		t.Parallel()
		ch := fixtures.CheckoutWithItem()
		total, err := checkout.BaseTotal(ch, nil)
		require.NoError(t, err)
		assert.True(t, total.Net.Equal(money.MustFromString("40.00", money.USD)))
	})

	t.Run("voucher discount is subtracted", func(t *testing.T) {
		t.Parallel()
		ch := fixtures.CheckoutWithItem()
		ch.Discount = money.MustFromString("15.00", money.USD)
		total, err := checkout.BaseTotal(ch, nil)
		require.NoError(t, err)
		assert.True(t, total.Net.Equal(money.MustFromString("25.00", money.USD)))
	})

	t.Run("total never goes below zero", func(t *testing.T) {
		t.Parallel()
		ch := fixtures.CheckoutWithItem()
		ch.Discount = money.MustFromString("100.00", money.USD)
		total, err := checkout.BaseTotal(ch, nil)
		require.NoError(t, err)
		assert.True(t, total.IsZero())
	})
}
