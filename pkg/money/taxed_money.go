package money

import "fmt"

// ErrGrossBelowNet is returned when a TaxedMoney would carry a negative tax.
var ErrGrossBelowNet = fmt.Errorf("gross amount is below net amount")

// TaxedMoney pairs a tax-exclusive (net) amount with its tax-inclusive
// (gross) counterpart. Invariant: gross = net + tax, so tax is always
// derived and never stored.
type TaxedMoney struct {
	Net   Money `json:"net"`
	Gross Money `json:"gross"`
}

// NewTaxedMoney creates a TaxedMoney from net and gross amounts.
func NewTaxedMoney(net, gross Money) (TaxedMoney, error) {
	if net.Currency != gross.Currency {
		return TaxedMoney{}, fmt.Errorf("%w: %s and %s",
			ErrMismatchedCurrencies, net.Currency, gross.Currency)
	}
	return TaxedMoney{Net: net, Gross: gross}, nil
}

// FlatTaxedMoney creates a TaxedMoney with no tax applied (net == gross).
func FlatTaxedMoney(amount Money) TaxedMoney {
	return TaxedMoney{Net: amount, Gross: amount}
}

// ZeroTaxed returns a zero TaxedMoney value in the given currency.
func ZeroTaxed(currency Code) TaxedMoney {
	return TaxedMoney{Net: Zero(currency), Gross: Zero(currency)}
}

// Currency returns the currency shared by both amounts.
func (t TaxedMoney) Currency() Code { return t.Net.Currency }

// Tax returns the tax portion (gross - net).
func (t TaxedMoney) Tax() (Money, error) {
	tax, err := t.Gross.Sub(t.Net)
	if err != nil {
		return Money{}, err
	}
	if tax.IsNegative() {
		return Money{}, ErrGrossBelowNet
	}
	return tax, nil
}

// Add returns the component-wise sum of two TaxedMoney values.
func (t TaxedMoney) Add(other TaxedMoney) (TaxedMoney, error) {
	net, err := t.Net.Add(other.Net)
	if err != nil {
		return TaxedMoney{}, err
	}
	gross, err := t.Gross.Add(other.Gross)
	if err != nil {
		return TaxedMoney{}, err
	}
	return TaxedMoney{Net: net, Gross: gross}, nil
}

// Sub returns the component-wise difference of two TaxedMoney values.
func (t TaxedMoney) Sub(other TaxedMoney) (TaxedMoney, error) {
	net, err := t.Net.Sub(other.Net)
	if err != nil {
		return TaxedMoney{}, err
	}
	gross, err := t.Gross.Sub(other.Gross)
	if err != nil {
		return TaxedMoney{}, err
	}
	return TaxedMoney{Net: net, Gross: gross}, nil
}

// Quantize rounds both amounts to the currency's decimal places.
// Callers compare quantized values, never raw ones.
func (t TaxedMoney) Quantize() TaxedMoney {
	return TaxedMoney{Net: t.Net.Quantize(), Gross: t.Gross.Quantize()}
}

// Equal reports whether two TaxedMoney values match on both components.
func (t TaxedMoney) Equal(other TaxedMoney) bool {
	return t.Net.Equal(other.Net) && t.Gross.Equal(other.Gross)
}

// IsZero reports whether both components are zero.
func (t TaxedMoney) IsZero() bool { return t.Net.IsZero() && t.Gross.IsZero() }

// String renders the pair for logs and test failures.
func (t TaxedMoney) String() string {
	return fmt.Sprintf("net=%s gross=%s", t.Net, t.Gross)
}
