package money

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCodeIsValid(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		code  Code
		valid bool
	}{
		{name: "valid uppercase code", code: "USD", valid: true},
		{name: "lowercase code is invalid", code: "usd", valid: false},
		{name: "too short", code: "US", valid: false},
		{name: "too long", code: "USDT", valid: false},
		{name: "empty", code: "", valid: false},
		{name: "digits are invalid", code: "U5D", valid: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.valid, tt.code.IsValid())
		})
	}
}

func TestCodeDecimals(t *testing.T) {
	t.Parallel()

	assert.Equal(t, int32(2), USD.Decimals())
	assert.Equal(t, int32(0), JPY.Decimals())
	assert.Equal(t, int32(0), Code("KRW").Decimals())
}

func TestNewRejectsInvalidCurrency(t *testing.T) {
	t.Parallel()

	_, err := New(decimal.NewFromInt(10), "usd")
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrInvalidCurrency)
}

func TestNewFromString(t *testing.T) {
	t.Parallel()

	t.Run("parses decimal string", func(t *testing.T) {
		t.Parallel()
		m, err := NewFromString("12.20", USD)
		require.NoError(t, err)
		assert.Equal(t, "12.20 USD", m.String())
	})

	t.Run("rejects malformed amount", func(t *testing.T) {
		t.Parallel()
		_, err := NewFromString("twelve", USD)
		require.Error(t, err)
		assert.ErrorIs(t, err, ErrInvalidAmount)
	})
}

func TestMoneyArithmetic(t *testing.T) {
	t.Parallel()

	ten := MustFromString("10.00", USD)
	three := MustFromString("3.00", USD)

	t.Run("add", func(t *testing.T) {
		t.Parallel()
		sum, err := ten.Add(three)
		require.NoError(t, err)
		assert.True(t, sum.Equal(MustFromString("13.00", USD)))
	})

	t.Run("sub", func(t *testing.T) {
		t.Parallel()
		diff, err := ten.Sub(three)
		require.NoError(t, err)
		assert.True(t, diff.Equal(MustFromString("7.00", USD)))
	})

	t.Run("mul by quantity", func(t *testing.T) {
		t.Parallel()
		total := three.Mul(3)
		assert.True(t, total.Equal(MustFromString("9.00", USD)))
	})

	t.Run("mismatched currencies rejected", func(t *testing.T) {
		t.Parallel()
		_, err := ten.Add(MustFromString("1.00", EUR))
		require.Error(t, err)
		assert.ErrorIs(t, err, ErrMismatchedCurrencies)

		_, err = ten.Sub(MustFromString("1.00", EUR))
		assert.ErrorIs(t, err, ErrMismatchedCurrencies)
	})
}

func TestMoneyQuantize(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		amount   string
		currency Code
		expected string
	}{
		{name: "rounds half up", amount: "1.005", currency: USD, expected: "1.01"},
		{name: "rounds down below half", amount: "1.004", currency: USD, expected: "1.00"},
		{name: "keeps exact amounts", amount: "12.20", currency: USD, expected: "12.20"},
		{name: "zero-decimal currency", amount: "1200.4", currency: JPY, expected: "1200"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			m := MustFromString(tt.amount, tt.currency)
			quantized := m.Quantize()
			assert.Equal(t, tt.expected,
				quantized.Amount.StringFixed(tt.currency.Decimals()))
		})
	}
}
