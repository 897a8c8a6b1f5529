package money

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewTaxedMoney(t *testing.T) {
	t.Parallel()

	t.Run("pairs net and gross", func(t *testing.T) {
		t.Parallel()
		taxed, err := NewTaxedMoney(
			MustFromString("10.00", USD),
			MustFromString("12.30", USD),
		)
		require.NoError(t, err)
		assert.Equal(t, USD, taxed.Currency())
	})

	t.Run("rejects mixed currencies", func(t *testing.T) {
		t.Parallel()
		_, err := NewTaxedMoney(
			MustFromString("10.00", USD),
			MustFromString("12.30", EUR),
		)
		require.Error(t, err)
		assert.ErrorIs(t, err, ErrMismatchedCurrencies)
	})
}

func TestTaxedMoneyTax(t *testing.T) {
	t.Parallel()

	t.Run("tax is gross minus net", func(t *testing.T) {
		t.Parallel()
		taxed, err := NewTaxedMoney(
			MustFromString("10.00", USD),
			MustFromString("12.30", USD),
		)
		require.NoError(t, err)

		tax, err := taxed.Tax()
		require.NoError(t, err)
		assert.True(t, tax.Equal(MustFromString("2.30", USD)))
	})

	t.Run("flat money carries no tax", func(t *testing.T) {
		t.Parallel()
		taxed := FlatTaxedMoney(MustFromString("10.00", USD))

		tax, err := taxed.Tax()
		require.NoError(t, err)
		assert.True(t, tax.IsZero())
	})

	t.Run("gross below net is rejected", func(t *testing.T) {
		t.Parallel()
		taxed, err := NewTaxedMoney(
			MustFromString("12.30", USD),
			MustFromString("10.00", USD),
		)
		require.NoError(t, err)

		_, err = taxed.Tax()
		assert.ErrorIs(t, err, ErrGrossBelowNet)
	})
}

func TestTaxedMoneyArithmetic(t *testing.T) {
	t.Parallel()

	a := TaxedMoney{
		Net:   MustFromString("10.00", USD),
		Gross: MustFromString("12.30", USD),
	}
	b := TaxedMoney{
		Net:   MustFromString("5.00", USD),
		Gross: MustFromString("6.15", USD),
	}

	t.Run("add sums both components", func(t *testing.T) {
		t.Parallel()
		sum, err := a.Add(b)
		require.NoError(t, err)
		assert.True(t, sum.Net.Equal(MustFromString("15.00", USD)))
		assert.True(t, sum.Gross.Equal(MustFromString("18.45", USD)))
	})

	t.Run("sub subtracts both components", func(t *testing.T) {
		t.Parallel()
		diff, err := a.Sub(b)
		require.NoError(t, err)
		assert.True(t, diff.Net.Equal(MustFromString("5.00", USD)))
		assert.True(t, diff.Gross.Equal(MustFromString("6.15", USD)))
	})
}

func TestTaxedMoneyQuantize(t *testing.T) {
	t.Parallel()

	taxed := TaxedMoney{
		Net:   MustFromString("10.001", USD),
		Gross: MustFromString("12.305", USD),
	}

	quantized := taxed.Quantize()
	assert.Equal(t, "10.00", quantized.Net.Amount.StringFixed(2))
	assert.Equal(t, "12.31", quantized.Gross.Amount.StringFixed(2))
}
