package avatax

import (
	"fmt"
	"time"

	"github.com/shopforge/taxbridge/pkg/checkout"
	"github.com/shopforge/taxbridge/pkg/domain"
	"github.com/shopforge/taxbridge/pkg/money"
)

// TransactionType selects between a committed invoice and a dry-run
// estimate.
type TransactionType string

const (
	// TransactionSalesInvoice is the final, recordable transaction
	// submitted when an order is placed.
	TransactionSalesInvoice TransactionType = "SalesInvoice"
	// TransactionSalesOrder is the non-recordable estimate used for
	// checkout previews and order preprocessing.
	TransactionSalesOrder TransactionType = "SalesOrder"
)

const (
	// shippingItemCode marks the synthetic line carrying the shipping
	// price.
	shippingItemCode = "Shipping"
	// freightTaxCode is the common-carrier tax code used for shipping
	// lines.
	freightTaxCode = "FR000000"
	// defaultTaxCode is used for products without an assigned code and
	// for products that do not charge taxes.
	defaultTaxCode = "O9999999"
)

// TransactionAddress is a postal address in the tax API's shape.
type TransactionAddress struct {
	Line1      string `json:"line1"`
	Line2      string `json:"line2,omitempty"`
	City       string `json:"city"`
	Region     string `json:"region,omitempty"`
	Country    string `json:"country"`
	PostalCode string `json:"postalCode"`
}

// TransactionLine is a single line of a tax transaction.
type TransactionLine struct {
	Quantity    int64  `json:"quantity"`
	Amount      string `json:"amount"`
	TaxCode     string `json:"taxCode"`
	TaxIncluded bool   `json:"taxIncluded"`
	ItemCode    string `json:"itemCode"`
	Description string `json:"description,omitempty"`
}

// TransactionModel is the createTransactionModel body of the tax API.
type TransactionModel struct {
	CompanyCode  string                        `json:"companyCode"`
	Type         TransactionType               `json:"type"`
	Lines        []TransactionLine             `json:"lines"`
	Code         string                        `json:"code"`
	Date         string                        `json:"date"`
	CustomerCode string                        `json:"customerCode"`
	Discount     string                        `json:"discount,omitempty"`
	Addresses    map[string]TransactionAddress `json:"addresses"`
	Commit       bool                          `json:"commit"`
	CurrencyCode string                        `json:"currencyCode"`
	Email        string                        `json:"email,omitempty"`
}

// RequestData is the full request payload posted to
// transactions/createoradjust.
type RequestData struct {
	CreateTransactionModel TransactionModel `json:"createTransactionModel"`
}

func transactionAddress(a *domain.Address) TransactionAddress {
	return TransactionAddress{
		Line1:      a.StreetAddress1,
		Line2:      a.StreetAddress2,
		City:       a.City,
		Region:     a.CountryArea,
		Country:    a.Country,
		PostalCode: a.PostalCode,
	}
}

func amountString(m money.Money) string {
	return m.Amount.StringFixed(m.Currency.Decimals())
}

// productTaxCode resolves the tax code for a product: the assigned
// metadata code, or the default unmapped code. Products that do not
// charge taxes always get the default code.
func productTaxCode(product *domain.Product) string {
	if product == nil || !product.ChargeTaxes {
		return defaultTaxCode
	}
	return product.Metadata.Get(MetaCodeKey, defaultTaxCode)
}

func checkoutLines(
	ch *domain.Checkout,
	site *domain.SiteSettings,
	discounts []domain.Discount,
) []TransactionLine {
	lines := make([]TransactionLine, 0, len(ch.Lines)+1)
	for _, line := range ch.Lines {
		product := line.Variant.Product
		chargeTaxes := product != nil && product.ChargeTaxes
		total := checkout.BaseLineTotal(line, discounts).Net.Quantize()
		description := ""
		if product != nil {
			description = product.Name
		}
		lines = append(lines, TransactionLine{
			Quantity:    line.Quantity,
			Amount:      amountString(total),
			TaxCode:     productTaxCode(product),
			TaxIncluded: site.IncludeTaxesInPrices && chargeTaxes,
			ItemCode:    line.Variant.SKU,
			Description: description,
		})
	}
	return appendShippingLine(lines, ch.ShippingMethod)
}

// appendShippingLine adds the synthetic freight line when a shipping
// method is selected. Shipping prices always include their tax.
func appendShippingLine(
	lines []TransactionLine,
	method *domain.ShippingMethod,
) []TransactionLine {
	if method == nil {
		return lines
	}
	return append(lines, TransactionLine{
		Quantity:    1,
		Amount:      amountString(method.Price.Quantize()),
		TaxCode:     freightTaxCode,
		TaxIncluded: true,
		ItemCode:    shippingItemCode,
	})
}

func transactionModel(
	lines []TransactionLine,
	txType TransactionType,
	cfg Config,
	currency money.Code,
	code string,
	customerEmail string,
	discount money.Money,
	shipFrom, shipTo *domain.Address,
) TransactionModel {
	model := TransactionModel{
		CompanyCode:  cfg.CompanyName,
		Type:         txType,
		Lines:        lines,
		Code:         code,
		Date:         time.Now().UTC().Format("2006-01-02"),
		CustomerCode: "0",
		Addresses: map[string]TransactionAddress{
			"shipFrom": transactionAddress(shipFrom),
			"shipTo":   transactionAddress(shipTo),
		},
		Commit:       cfg.Autocommit && txType == TransactionSalesInvoice,
		CurrencyCode: currency.String(),
		Email:        customerEmail,
	}
	if !discount.IsZero() {
		model.Discount = amountString(discount.Quantize())
	}
	return model
}

// GenerateRequestDataFromCheckout builds the tax request payload for a
// checkout snapshot. Both the company and the shipping address must be
// known; without them no tax jurisdiction can be resolved.
func GenerateRequestDataFromCheckout(
	ch *domain.Checkout,
	site *domain.SiteSettings,
	discounts []domain.Discount,
	cfg Config,
	txType TransactionType,
) (*RequestData, error) {
	if site == nil || site.CompanyAddress == nil {
		return nil, fmt.Errorf("company address is not configured")
	}
	if ch.ShippingAddress == nil {
		return nil, fmt.Errorf("checkout %s has no shipping address", ch.Token)
	}

	lines := checkoutLines(ch, site, discounts)
	model := transactionModel(
		lines,
		txType,
		cfg,
		ch.Currency,
		ch.Token.String(),
		ch.Email,
		ch.Discount,
		site.CompanyAddress,
		ch.ShippingAddress,
	)
	return &RequestData{CreateTransactionModel: model}, nil
}

// GetOrderRequestData builds the tax request payload for a placed order.
// A line's taxIncluded flag follows its captured prices: when the unit
// gross equals the unit net the line carries no included tax.
func GetOrderRequestData(
	order *domain.Order,
	site *domain.SiteSettings,
	cfg Config,
) (*RequestData, error) {
	if site == nil || site.CompanyAddress == nil {
		return nil, fmt.Errorf("company address is not configured")
	}
	if order.ShippingAddress == nil {
		return nil, fmt.Errorf("order %s has no shipping address", order.Token)
	}

	lines := make([]TransactionLine, 0, len(order.Lines)+1)
	for _, line := range order.Lines {
		taxIncluded := !line.UnitPrice.Gross.Equal(line.UnitPrice.Net)
		amount := line.UnitPrice.Net.Mul(line.Quantity)
		if taxIncluded {
			amount = line.UnitPrice.Gross.Mul(line.Quantity)
		}
		var product *domain.Product
		if line.Variant != nil {
			product = line.Variant.Product
		}
		lines = append(lines, TransactionLine{
			Quantity:    line.Quantity,
			Amount:      amountString(amount.Quantize()),
			TaxCode:     productTaxCode(product),
			TaxIncluded: taxIncluded,
			ItemCode:    line.ProductSKU,
			Description: line.ProductName,
		})
	}
	lines = appendShippingLine(lines, order.ShippingMethod)

	model := transactionModel(
		lines,
		TransactionSalesInvoice,
		cfg,
		order.Currency,
		order.Token.String(),
		order.CustomerEmail,
		order.Discount,
		site.CompanyAddress,
		order.ShippingAddress,
	)
	return &RequestData{CreateTransactionModel: model}, nil
}
