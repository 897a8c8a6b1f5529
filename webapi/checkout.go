package webapi

import (
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"github.com/shopforge/taxbridge/pkg/domain"
	"github.com/shopforge/taxbridge/pkg/money"
	"github.com/shopforge/taxbridge/pkg/plugin"
	"github.com/shopforge/taxbridge/pkg/plugin/avatax"
)

// CheckoutRoutes sets up the checkout tax preview routes.
func CheckoutRoutes(app *fiber.App, manager *plugin.Manager) {
	app.Post("/checkouts/taxes", CalculateCheckoutTaxes(manager))
}

// AddressRequest is a postal address in a checkout snapshot.
type AddressRequest struct {
	CompanyName    string `json:"company_name,omitempty"`
	StreetAddress1 string `json:"street_address_1" validate:"required"`
	StreetAddress2 string `json:"street_address_2,omitempty"`
	City           string `json:"city" validate:"required"`
	PostalCode     string `json:"postal_code" validate:"required"`
	Country        string `json:"country" validate:"required,len=2"`
	CountryArea    string `json:"country_area,omitempty"`
}

// CheckoutLineRequest is one variant/quantity pair of the snapshot.
type CheckoutLineRequest struct {
	SKU         string `json:"sku" validate:"required"`
	ProductName string `json:"product_name,omitempty"`
	Quantity    int64  `json:"quantity" validate:"required,min=1"`
	UnitPrice   string `json:"unit_price" validate:"required"`
	ChargeTaxes *bool  `json:"charge_taxes,omitempty"`
	TaxCode     string `json:"tax_code,omitempty"`
}

// ShippingMethodRequest is the selected delivery option.
type ShippingMethodRequest struct {
	Name  string `json:"name"`
	Price string `json:"price" validate:"required"`
}

// SiteSettingsRequest carries the storefront settings the calculation
// depends on.
type SiteSettingsRequest struct {
	CompanyAddress       *AddressRequest `json:"company_address" validate:"required"`
	IncludeTaxesInPrices bool            `json:"include_taxes_in_prices"`
}

// CheckoutTaxesRequest is a checkout snapshot posted for tax preview.
type CheckoutTaxesRequest struct {
	Token           string                 `json:"token,omitempty" validate:"omitempty,uuid4"`
	Email           string                 `json:"email,omitempty" validate:"omitempty,email"`
	Currency        string                 `json:"currency" validate:"required,len=3"`
	Lines           []CheckoutLineRequest  `json:"lines" validate:"required,min=1,dive"`
	ShippingAddress *AddressRequest        `json:"shipping_address" validate:"required"`
	ShippingMethod  *ShippingMethodRequest `json:"shipping_method,omitempty"`
	Discount        string                 `json:"discount,omitempty"`
	Site            SiteSettingsRequest    `json:"site" validate:"required"`
}

// TaxedMoneyResponse is one taxed amount in the preview response.
type TaxedMoneyResponse struct {
	Net      string `json:"net"`
	Gross    string `json:"gross"`
	Tax      string `json:"tax"`
	Currency string `json:"currency"`
}

// CheckoutLineTaxesResponse is the computed total for one line.
type CheckoutLineTaxesResponse struct {
	SKU   string             `json:"sku"`
	Total TaxedMoneyResponse `json:"total"`
}

// CheckoutTaxesResponse is the full tax preview for a checkout snapshot.
type CheckoutTaxesResponse struct {
	Token    string                      `json:"token"`
	Total    TaxedMoneyResponse          `json:"total"`
	Subtotal TaxedMoneyResponse          `json:"subtotal"`
	Shipping TaxedMoneyResponse          `json:"shipping"`
	Lines    []CheckoutLineTaxesResponse `json:"lines"`
}

func taxedMoneyResponse(value money.TaxedMoney) TaxedMoneyResponse {
	quantized := value.Quantize()
	tax, err := quantized.Tax()
	if err != nil {
		tax = money.Zero(value.Currency())
	}
	decimals := value.Currency().Decimals()
	return TaxedMoneyResponse{
		Net:      quantized.Net.Amount.StringFixed(decimals),
		Gross:    quantized.Gross.Amount.StringFixed(decimals),
		Tax:      tax.Amount.StringFixed(decimals),
		Currency: value.Currency().String(),
	}
}

func toAddress(a *AddressRequest) *domain.Address {
	if a == nil {
		return nil
	}
	return &domain.Address{
		CompanyName:    a.CompanyName,
		StreetAddress1: a.StreetAddress1,
		StreetAddress2: a.StreetAddress2,
		City:           a.City,
		PostalCode:     a.PostalCode,
		Country:        a.Country,
		CountryArea:    a.CountryArea,
	}
}

// toCheckout converts the request into the domain snapshot the plugin
// chain calculates on.
func toCheckout(input *CheckoutTaxesRequest) (*domain.Checkout, *domain.SiteSettings, error) {
	currency := money.Code(input.Currency)
	if !currency.IsValid() {
		return nil, nil, money.ErrInvalidCurrency
	}

	token := uuid.New()
	if input.Token != "" {
		parsed, err := uuid.Parse(input.Token)
		if err != nil {
			return nil, nil, err
		}
		token = parsed
	}

	lines := make([]domain.CheckoutLine, 0, len(input.Lines))
	for _, line := range input.Lines {
		price, err := money.NewFromString(line.UnitPrice, currency)
		if err != nil {
			return nil, nil, err
		}
		chargeTaxes := line.ChargeTaxes == nil || *line.ChargeTaxes
		product := &domain.Product{
			Name:        line.ProductName,
			ChargeTaxes: chargeTaxes,
		}
		if line.TaxCode != "" {
			product.Metadata.Set(avatax.MetaCodeKey, line.TaxCode)
		}
		lines = append(lines, domain.CheckoutLine{
			Variant: &domain.ProductVariant{
				SKU:     line.SKU,
				Price:   price,
				Product: product,
			},
			Quantity: line.Quantity,
		})
	}

	discount := money.Zero(currency)
	if input.Discount != "" {
		parsed, err := money.NewFromString(input.Discount, currency)
		if err != nil {
			return nil, nil, err
		}
		discount = parsed
	}

	var method *domain.ShippingMethod
	if input.ShippingMethod != nil {
		price, err := money.NewFromString(input.ShippingMethod.Price, currency)
		if err != nil {
			return nil, nil, err
		}
		method = &domain.ShippingMethod{
			Name:  input.ShippingMethod.Name,
			Price: price,
		}
	}

	ch := &domain.Checkout{
		Token:           token,
		Email:           input.Email,
		Currency:        currency,
		Lines:           lines,
		ShippingAddress: toAddress(input.ShippingAddress),
		ShippingMethod:  method,
		Discount:        discount,
	}
	site := &domain.SiteSettings{
		CompanyAddress:       toAddress(input.Site.CompanyAddress),
		IncludeTaxesInPrices: input.Site.IncludeTaxesInPrices,
	}
	return ch, site, nil
}

// CalculateCheckoutTaxes runs a posted checkout snapshot through the
// plugin chain and returns total, subtotal, shipping and per-line taxes.
func CalculateCheckoutTaxes(manager *plugin.Manager) fiber.Handler {
	return func(c *fiber.Ctx) error {
		input, err := BindAndValidate[CheckoutTaxesRequest](c)
		if err != nil {
			return nil // Error already written by helper
		}

		ch, site, err := toCheckout(input)
		if err != nil {
			return ErrorResponseJSON(c, fiber.StatusBadRequest,
				"Invalid checkout snapshot", err.Error())
		}

		ctx := c.Context()
		var discounts []domain.Discount

		total, err := manager.CalculateCheckoutTotal(ctx, ch, site, discounts)
		if err != nil {
			return ErrorResponseJSON(c, ErrorToStatusCode(err),
				"Failed to calculate checkout total", err.Error())
		}
		subtotal, err := manager.CalculateCheckoutSubtotal(ctx, ch, site, discounts)
		if err != nil {
			return ErrorResponseJSON(c, ErrorToStatusCode(err),
				"Failed to calculate checkout subtotal", err.Error())
		}
		shipping, err := manager.CalculateCheckoutShipping(ctx, ch, site, discounts)
		if err != nil {
			return ErrorResponseJSON(c, ErrorToStatusCode(err),
				"Failed to calculate checkout shipping", err.Error())
		}

		lineTotals := make([]CheckoutLineTaxesResponse, 0, len(ch.Lines))
		for _, line := range ch.Lines {
			lineTotal, err := manager.CalculateCheckoutLineTotal(
				ctx, ch, line, site, discounts)
			if err != nil {
				return ErrorResponseJSON(c, ErrorToStatusCode(err),
					"Failed to calculate line total", err.Error())
			}
			lineTotals = append(lineTotals, CheckoutLineTaxesResponse{
				SKU:   line.Variant.SKU,
				Total: taxedMoneyResponse(lineTotal),
			})
		}

		return c.JSON(Response{
			Status:  fiber.StatusOK,
			Message: "Checkout taxes calculated successfully",
			Data: CheckoutTaxesResponse{
				Token:    ch.Token.String(),
				Total:    taxedMoneyResponse(total),
				Subtotal: taxedMoneyResponse(subtotal),
				Shipping: taxedMoneyResponse(shipping),
				Lines:    lineTotals,
			},
		})
	}
}
