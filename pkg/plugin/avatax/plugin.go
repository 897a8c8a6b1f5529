package avatax

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/shopspring/decimal"

	"github.com/shopforge/taxbridge/pkg/cache"
	"github.com/shopforge/taxbridge/pkg/domain"
	"github.com/shopforge/taxbridge/pkg/money"
	"github.com/shopforge/taxbridge/pkg/plugin"
)

// responseLine is one line of a createoradjust response. lineAmount is
// the tax-exclusive amount; the gross is lineAmount + tax.
type responseLine struct {
	ItemCode   string          `json:"itemCode"`
	LineAmount decimal.Decimal `json:"lineAmount"`
	Tax        decimal.Decimal `json:"tax"`
}

// transactionResponse is the subset of a createoradjust response the
// calculations read.
type transactionResponse struct {
	CurrencyCode string          `json:"currencyCode"`
	TotalAmount  decimal.Decimal `json:"totalAmount"`
	TotalTax     decimal.Decimal `json:"totalTax"`
	Lines        []responseLine  `json:"lines"`
}

// Plugin delegates tax calculations to the external tax service.
type Plugin struct {
	cfg    Config
	stored plugin.Configuration

	client      *Client
	cache       cache.Cache
	tasks       TaskSubmitter
	logger      *slog.Logger
	responseTTL time.Duration
	taxCodesTTL time.Duration
}

// Factory builds Avatax plugins from stored configurations, carrying the
// process-wide dependencies every instance shares.
type Factory struct {
	Cache          cache.Cache
	Tasks          TaskSubmitter
	Logger         *slog.Logger
	HTTPTimeout    time.Duration
	ResponseTTL    time.Duration
	TaxCodesTTL    time.Duration
	BaseURL        string
	SandboxBaseURL string
}

// Identifier returns the plugin identifier.
func (f *Factory) Identifier() string { return PluginID }

// Name returns the plugin name.
func (f *Factory) Name() string { return PluginName }

// DefaultConfiguration returns the initial configuration items.
func (f *Factory) DefaultConfiguration() []plugin.ConfigItem {
	return DefaultConfiguration()
}

// Create builds a Plugin from the stored configuration.
func (f *Factory) Create(stored plugin.Configuration) (plugin.TaxPlugin, error) {
	cfg := configFromStored(stored)
	cfg.BaseURL = f.BaseURL
	cfg.SandboxBaseURL = f.SandboxBaseURL

	tasks := f.Tasks
	if tasks == nil {
		tasks = NewAsyncSubmitter(f.HTTPTimeout)
	}
	return &Plugin{
		cfg:         cfg,
		stored:      stored,
		client:      NewClient(cfg, f.HTTPTimeout, f.Logger),
		cache:       f.Cache,
		tasks:       tasks,
		logger:      f.Logger,
		responseTTL: f.ResponseTTL,
		taxCodesTTL: f.TaxCodesTTL,
	}, nil
}

// Ensure Factory implements plugin.Factory
var _ plugin.Factory = (*Factory)(nil)

// Identifier returns the plugin identifier.
func (p *Plugin) Identifier() string { return PluginID }

// Name returns the plugin name.
func (p *Plugin) Name() string { return PluginName }

// Active reports whether the plugin is enabled.
func (p *Plugin) Active() bool { return p.stored.Active }

// Configuration returns the stored configuration.
func (p *Plugin) Configuration() plugin.Configuration { return p.stored }

// ValidateConfiguration rejects enabling the plugin without credentials.
func (p *Plugin) ValidateConfiguration(cfg plugin.Configuration) error {
	if !cfg.Active {
		return nil
	}
	parsed := configFromStored(cfg)
	if !parsed.Valid() {
		return fmt.Errorf(
			"%w: cannot be enabled without a username and password",
			domain.ErrValidation)
	}
	return nil
}

// skipPlugin reports whether calculations must fall through to the
// previous value: the plugin is disabled or has no usable credentials.
func (p *Plugin) skipPlugin() bool {
	return !p.stored.Active || !p.cfg.Valid()
}

// checkoutTaxData fetches (or reuses) the tax response for a checkout.
// A nil result means the caller must keep the previous value.
func (p *Plugin) checkoutTaxData(
	ctx context.Context,
	ch *domain.Checkout,
	site *domain.SiteSettings,
	discounts []domain.Discount,
) *transactionResponse {
	codes := GetCachedTaxCodesOrFetch(ctx, p.cache, p.client, p.taxCodesTTL, p.logger)
	if len(codes) == 0 {
		return nil
	}
	data, err := GenerateRequestDataFromCheckout(
		ch, site, discounts, p.cfg, TransactionSalesOrder)
	if err != nil {
		p.logger.Debug("Cannot build tax request for checkout",
			"token", ch.Token, "reason", err)
		return nil
	}
	response := GetCheckoutTaxData(
		ctx, p.cache, p.client, data, ch.Token.String(), p.responseTTL, p.logger)
	if response.Empty() || response.HasError() {
		return nil
	}
	var decoded transactionResponse
	if err := response.Decode(&decoded); err != nil {
		p.logger.Warn("Malformed tax response", "token", ch.Token, "error", err)
		return nil
	}
	return &decoded
}

// orderTaxData fetches the tax response for a placed order, bypassing
// the checkout cache.
func (p *Plugin) orderTaxData(
	ctx context.Context,
	order *domain.Order,
	site *domain.SiteSettings,
) *transactionResponse {
	data, err := GetOrderRequestData(order, site, p.cfg)
	if err != nil {
		p.logger.Debug("Cannot build tax request for order",
			"token", order.Token, "reason", err)
		return nil
	}
	url := p.client.ResolveURL("transactions/createoradjust")
	response := p.client.PostRequest(ctx, url, data)
	if response.Empty() || response.HasError() {
		return nil
	}
	var decoded transactionResponse
	if err := response.Decode(&decoded); err != nil {
		p.logger.Warn("Malformed tax response", "token", order.Token, "error", err)
		return nil
	}
	return &decoded
}

func taxedMoney(net, gross decimal.Decimal, currency money.Code) (money.TaxedMoney, bool) {
	netMoney, err := money.New(net, currency)
	if err != nil {
		return money.TaxedMoney{}, false
	}
	grossMoney, err := money.New(gross, currency)
	if err != nil {
		return money.TaxedMoney{}, false
	}
	taxed, err := money.NewTaxedMoney(netMoney, grossMoney)
	if err != nil {
		return money.TaxedMoney{}, false
	}
	return taxed, true
}

// lineTaxedMoney converts a response line into a TaxedMoney: net is the
// lineAmount, gross adds the line tax.
func lineTaxedMoney(line responseLine, currency money.Code) (money.TaxedMoney, bool) {
	return taxedMoney(line.LineAmount, line.LineAmount.Add(line.Tax), currency)
}

// CalculateCheckoutTotal returns the checkout total from the tax
// service, or the previous value when the service cannot answer.
func (p *Plugin) CalculateCheckoutTotal(
	ctx context.Context,
	ch *domain.Checkout,
	site *domain.SiteSettings,
	discounts []domain.Discount,
	previous money.TaxedMoney,
) money.TaxedMoney {
	if p.skipPlugin() {
		return previous
	}
	response := p.checkoutTaxData(ctx, ch, site, discounts)
	if response == nil {
		return previous
	}
	currency := money.Code(response.CurrencyCode)
	taxed, ok := taxedMoney(
		response.TotalAmount,
		response.TotalAmount.Add(response.TotalTax),
		currency,
	)
	if !ok {
		return previous
	}
	return taxed
}

// CalculateCheckoutSubtotal sums all non-shipping response lines.
func (p *Plugin) CalculateCheckoutSubtotal(
	ctx context.Context,
	ch *domain.Checkout,
	site *domain.SiteSettings,
	discounts []domain.Discount,
	previous money.TaxedMoney,
) money.TaxedMoney {
	if p.skipPlugin() {
		return previous
	}
	response := p.checkoutTaxData(ctx, ch, site, discounts)
	if response == nil {
		return previous
	}
	currency := money.Code(response.CurrencyCode)
	subtotal := money.ZeroTaxed(currency)
	for _, line := range response.Lines {
		if line.ItemCode == shippingItemCode {
			continue
		}
		lineTotal, ok := lineTaxedMoney(line, currency)
		if !ok {
			return previous
		}
		var err error
		subtotal, err = subtotal.Add(lineTotal)
		if err != nil {
			return previous
		}
	}
	return subtotal
}

// CalculateCheckoutShipping returns the shipping line from the tax
// response.
func (p *Plugin) CalculateCheckoutShipping(
	ctx context.Context,
	ch *domain.Checkout,
	site *domain.SiteSettings,
	discounts []domain.Discount,
	previous money.TaxedMoney,
) money.TaxedMoney {
	if p.skipPlugin() {
		return previous
	}
	response := p.checkoutTaxData(ctx, ch, site, discounts)
	if response == nil {
		return previous
	}
	currency := money.Code(response.CurrencyCode)
	for _, line := range response.Lines {
		if line.ItemCode != shippingItemCode {
			continue
		}
		if taxed, ok := lineTaxedMoney(line, currency); ok {
			return taxed
		}
	}
	return previous
}

// CalculateCheckoutLineTotal returns the matching response line's total.
func (p *Plugin) CalculateCheckoutLineTotal(
	ctx context.Context,
	ch *domain.Checkout,
	line domain.CheckoutLine,
	site *domain.SiteSettings,
	discounts []domain.Discount,
	previous money.TaxedMoney,
) money.TaxedMoney {
	if p.skipPlugin() {
		return previous
	}
	response := p.checkoutTaxData(ctx, ch, site, discounts)
	if response == nil {
		return previous
	}
	currency := money.Code(response.CurrencyCode)
	for _, respLine := range response.Lines {
		if respLine.ItemCode != line.Variant.SKU {
			continue
		}
		if taxed, ok := lineTaxedMoney(respLine, currency); ok {
			return taxed
		}
	}
	return previous
}

// CalculateOrderShipping returns the shipping line of the order's tax
// response.
func (p *Plugin) CalculateOrderShipping(
	ctx context.Context,
	order *domain.Order,
	site *domain.SiteSettings,
	previous money.TaxedMoney,
) money.TaxedMoney {
	if p.skipPlugin() {
		return previous
	}
	response := p.orderTaxData(ctx, order, site)
	if response == nil {
		return previous
	}
	currency := money.Code(response.CurrencyCode)
	for _, line := range response.Lines {
		if line.ItemCode != shippingItemCode {
			continue
		}
		if taxed, ok := lineTaxedMoney(line, currency); ok {
			return taxed
		}
	}
	return previous
}

// CalculateOrderLineUnit returns the per-unit price of the matching
// order line from the tax response.
func (p *Plugin) CalculateOrderLineUnit(
	ctx context.Context,
	order *domain.Order,
	line domain.OrderLine,
	site *domain.SiteSettings,
	previous money.TaxedMoney,
) money.TaxedMoney {
	if p.skipPlugin() || line.Quantity == 0 {
		return previous
	}
	response := p.orderTaxData(ctx, order, site)
	if response == nil {
		return previous
	}
	currency := money.Code(response.CurrencyCode)
	quantity := decimal.NewFromInt(line.Quantity)
	for _, respLine := range response.Lines {
		if respLine.ItemCode != line.ProductSKU {
			continue
		}
		net := respLine.LineAmount.Div(quantity)
		gross := respLine.LineAmount.Add(respLine.Tax).Div(quantity)
		if taxed, ok := taxedMoney(net, gross, currency); ok {
			return taxed
		}
	}
	return previous
}

// PreprocessOrderCreation runs a dry-run transaction for the checkout
// and surfaces service rejections (e.g. bad credentials) as TaxError.
func (p *Plugin) PreprocessOrderCreation(
	ctx context.Context,
	ch *domain.Checkout,
	site *domain.SiteSettings,
	discounts []domain.Discount,
) error {
	if !p.stored.Active {
		return nil
	}
	if !p.cfg.Valid() {
		return domain.NewTaxError("tax plugin credentials are not configured")
	}
	data, err := GenerateRequestDataFromCheckout(
		ch, site, discounts, p.cfg, TransactionSalesOrder)
	if err != nil {
		// Nothing to validate without a resolvable jurisdiction.
		return nil
	}
	url := p.client.ResolveURL("transactions/createoradjust")
	response := p.client.PostRequest(ctx, url, data)
	if response.Empty() {
		return domain.NewTaxError("empty response from tax service")
	}
	if response.HasError() {
		p.logger.Warn("Tax service rejected the checkout",
			"token", ch.Token, "error", response.ErrorMessage())
		return domain.NewTaxError(response.ErrorMessage())
	}
	return nil
}

// OrderCreated submits the final transaction asynchronously; the commit
// flag follows the autocommit setting.
func (p *Plugin) OrderCreated(
	ctx context.Context,
	order *domain.Order,
	site *domain.SiteSettings,
) error {
	if p.skipPlugin() {
		return nil
	}
	data, err := GetOrderRequestData(order, site, p.cfg)
	if err != nil {
		return fmt.Errorf("failed to build order tax request: %w", err)
	}
	url := p.client.ResolveURL("transactions/createoradjust")
	token := order.Token
	p.tasks.Submit(func(taskCtx context.Context) {
		response := p.client.PostRequest(taskCtx, url, data)
		if response.Empty() || response.HasError() {
			p.logger.Error("Failed to submit order transaction",
				"token", token, "error", response.ErrorMessage())
			return
		}
		p.logger.Info("Order transaction submitted", "token", token)
	})
	return nil
}

// GetTaxCodeFromObjectMeta reads the assigned tax code from metadata.
func (p *Plugin) GetTaxCodeFromObjectMeta(meta domain.ObjectMeta) domain.TaxType {
	return domain.TaxType{
		Code:        meta.Get(MetaCodeKey, ""),
		Description: meta.Get(MetaDescriptionKey, ""),
	}
}

// AssignTaxCodeToObjectMeta validates the code against the tax code
// definitions and stores it on the object's metadata.
func (p *Plugin) AssignTaxCodeToObjectMeta(
	ctx context.Context,
	meta *domain.ObjectMeta,
	code string,
) error {
	codes := GetCachedTaxCodesOrFetch(ctx, p.cache, p.client, p.taxCodesTTL, p.logger)
	description, ok := codes[code]
	if !ok {
		return fmt.Errorf("%w: unknown tax code %q", domain.ErrValidation, code)
	}
	meta.Set(MetaCodeKey, code)
	meta.Set(MetaDescriptionKey, description)
	return nil
}

// ShowTaxesOnStorefront is false: taxes are only known after an API call.
func (p *Plugin) ShowTaxesOnStorefront() bool { return false }

// Ensure Plugin implements plugin.TaxPlugin
var _ plugin.TaxPlugin = (*Plugin)(nil)
