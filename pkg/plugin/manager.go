package plugin

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/shopforge/taxbridge/pkg/checkout"
	"github.com/shopforge/taxbridge/pkg/domain"
	"github.com/shopforge/taxbridge/pkg/money"
)

// Manager owns the registered plugins and runs the calculation chain:
// the base calculation result is passed through every plugin, each one
// receiving the previous value.
type Manager struct {
	repo      ConfigRepository
	factories []Factory
	logger    *slog.Logger

	mu      sync.RWMutex
	plugins map[string]TaxPlugin
	order   []string
}

// NewManager creates a manager for the given plugin factories. Call Load
// before use to build plugins from their stored configuration.
func NewManager(
	repo ConfigRepository,
	logger *slog.Logger,
	factories ...Factory,
) *Manager {
	return &Manager{
		repo:      repo,
		factories: factories,
		logger:    logger,
		plugins:   make(map[string]TaxPlugin),
	}
}

// Load builds every registered plugin from its stored configuration.
// Plugins without a stored row start inactive with their default
// configuration, which is persisted so the admin API can list them.
func (m *Manager) Load(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.order = m.order[:0]
	for _, factory := range m.factories {
		cfg, err := m.repo.GetByIdentifier(ctx, factory.Identifier())
		switch {
		case errors.Is(err, domain.ErrNotFound):
			cfg = &Configuration{
				Identifier: factory.Identifier(),
				Name:       factory.Name(),
				Active:     false,
				Items:      factory.DefaultConfiguration(),
			}
			if err := m.repo.Save(ctx, cfg); err != nil {
				return fmt.Errorf("failed to store default configuration for %s: %w",
					factory.Identifier(), err)
			}
		case err != nil:
			return fmt.Errorf("failed to load configuration for %s: %w",
				factory.Identifier(), err)
		}

		p, err := factory.Create(*cfg)
		if err != nil {
			return fmt.Errorf("failed to build plugin %s: %w",
				factory.Identifier(), err)
		}
		m.plugins[factory.Identifier()] = p
		m.order = append(m.order, factory.Identifier())
		m.logger.Info("Plugin loaded",
			"identifier", factory.Identifier(), "active", cfg.Active)
	}
	return nil
}

// GetPlugin returns the plugin registered under the identifier.
func (m *Manager) GetPlugin(identifier string) (TaxPlugin, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	p, ok := m.plugins[identifier]
	if !ok {
		return nil, fmt.Errorf("%w: %s", domain.ErrPluginNotFound, identifier)
	}
	return p, nil
}

// ListConfigurations returns the current configuration of every
// registered plugin, in registration order.
func (m *Manager) ListConfigurations() []Configuration {
	m.mu.RLock()
	defer m.mu.RUnlock()

	configs := make([]Configuration, 0, len(m.order))
	for _, id := range m.order {
		configs = append(configs, m.plugins[id].Configuration())
	}
	return configs
}

// SavePluginConfiguration applies a partial configuration update, lets
// the plugin validate the result, persists it and rebuilds the plugin.
func (m *Manager) SavePluginConfiguration(
	ctx context.Context,
	identifier string,
	update ConfigurationUpdate,
) (*Configuration, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	p, ok := m.plugins[identifier]
	if !ok {
		return nil, fmt.Errorf("%w: %s", domain.ErrPluginNotFound, identifier)
	}

	cfg := p.Configuration()
	if update.Items != nil {
		cfg.Items = MergeItems(cfg.Items, update.Items)
	}
	if update.Active != nil {
		cfg.Active = *update.Active
	}

	if err := p.ValidateConfiguration(cfg); err != nil {
		return nil, err
	}
	if err := m.repo.Save(ctx, &cfg); err != nil {
		return nil, fmt.Errorf("failed to save plugin configuration: %w", err)
	}

	factory := m.factoryFor(identifier)
	rebuilt, err := factory.Create(cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to rebuild plugin %s: %w", identifier, err)
	}
	m.plugins[identifier] = rebuilt
	m.logger.Info("Plugin configuration saved",
		"identifier", identifier, "active", cfg.Active)
	return &cfg, nil
}

func (m *Manager) factoryFor(identifier string) Factory {
	for _, f := range m.factories {
		if f.Identifier() == identifier {
			return f
		}
	}
	return nil
}

// CalculateCheckoutTotal returns the checkout total, with taxes when an
// active plugin provides them.
func (m *Manager) CalculateCheckoutTotal(
	ctx context.Context,
	ch *domain.Checkout,
	site *domain.SiteSettings,
	discounts []domain.Discount,
) (money.TaxedMoney, error) {
	base, err := checkout.BaseTotal(ch, discounts)
	if err != nil {
		return money.TaxedMoney{}, err
	}
	value := base
	for _, p := range m.snapshot() {
		value = p.CalculateCheckoutTotal(ctx, ch, site, discounts, value)
	}
	return value, nil
}

// CalculateCheckoutSubtotal returns the sum of all line totals.
func (m *Manager) CalculateCheckoutSubtotal(
	ctx context.Context,
	ch *domain.Checkout,
	site *domain.SiteSettings,
	discounts []domain.Discount,
) (money.TaxedMoney, error) {
	base, err := checkout.BaseSubtotal(ch, discounts)
	if err != nil {
		return money.TaxedMoney{}, err
	}
	value := base
	for _, p := range m.snapshot() {
		value = p.CalculateCheckoutSubtotal(ctx, ch, site, discounts, value)
	}
	return value, nil
}

// CalculateCheckoutShipping returns the shipping price for a checkout.
func (m *Manager) CalculateCheckoutShipping(
	ctx context.Context,
	ch *domain.Checkout,
	site *domain.SiteSettings,
	discounts []domain.Discount,
) (money.TaxedMoney, error) {
	value := checkout.BaseShippingPrice(ch)
	for _, p := range m.snapshot() {
		value = p.CalculateCheckoutShipping(ctx, ch, site, discounts, value)
	}
	return value, nil
}

// CalculateCheckoutLineTotal returns the total for a single checkout line.
func (m *Manager) CalculateCheckoutLineTotal(
	ctx context.Context,
	ch *domain.Checkout,
	line domain.CheckoutLine,
	site *domain.SiteSettings,
	discounts []domain.Discount,
) (money.TaxedMoney, error) {
	value := checkout.BaseLineTotal(line, discounts)
	for _, p := range m.snapshot() {
		value = p.CalculateCheckoutLineTotal(ctx, ch, line, site, discounts, value)
	}
	return value, nil
}

// CalculateOrderShipping returns the shipping price for a placed order.
func (m *Manager) CalculateOrderShipping(
	ctx context.Context,
	order *domain.Order,
	site *domain.SiteSettings,
) money.TaxedMoney {
	value := money.ZeroTaxed(order.Currency)
	if order.ShippingMethod != nil {
		value = money.FlatTaxedMoney(order.ShippingMethod.Price)
	}
	for _, p := range m.snapshot() {
		value = p.CalculateOrderShipping(ctx, order, site, value)
	}
	return value
}

// CalculateOrderLineUnit returns the unit price for an order line.
func (m *Manager) CalculateOrderLineUnit(
	ctx context.Context,
	order *domain.Order,
	line domain.OrderLine,
	site *domain.SiteSettings,
) money.TaxedMoney {
	value := line.UnitPrice
	for _, p := range m.snapshot() {
		value = p.CalculateOrderLineUnit(ctx, order, line, site, value)
	}
	return value
}

// PreprocessOrderCreation gives every plugin a chance to reject the
// checkout before the order is created.
func (m *Manager) PreprocessOrderCreation(
	ctx context.Context,
	ch *domain.Checkout,
	site *domain.SiteSettings,
	discounts []domain.Discount,
) error {
	for _, p := range m.snapshot() {
		if err := p.PreprocessOrderCreation(ctx, ch, site, discounts); err != nil {
			return err
		}
	}
	return nil
}

// OrderCreated notifies every plugin that an order was placed.
func (m *Manager) OrderCreated(
	ctx context.Context,
	order *domain.Order,
	site *domain.SiteSettings,
) error {
	for _, p := range m.snapshot() {
		if err := p.OrderCreated(ctx, order, site); err != nil {
			return err
		}
	}
	return nil
}

// GetTaxCodeFromObjectMeta returns the first tax type a plugin reports
// for the object's metadata.
func (m *Manager) GetTaxCodeFromObjectMeta(meta domain.ObjectMeta) domain.TaxType {
	for _, p := range m.snapshot() {
		if taxType := p.GetTaxCodeFromObjectMeta(meta); taxType.Code != "" {
			return taxType
		}
	}
	return domain.TaxType{}
}

// AssignTaxCodeToObjectMeta stores a tax code on the object's metadata
// through the first active plugin.
func (m *Manager) AssignTaxCodeToObjectMeta(
	ctx context.Context,
	meta *domain.ObjectMeta,
	code string,
) error {
	for _, p := range m.snapshot() {
		if !p.Active() {
			continue
		}
		return p.AssignTaxCodeToObjectMeta(ctx, meta, code)
	}
	return fmt.Errorf("%w: no active tax plugin", domain.ErrPluginNotFound)
}

// ShowTaxesOnStorefront reports whether storefront prices may display
// taxes; the first active plugin decides, defaulting to true.
func (m *Manager) ShowTaxesOnStorefront() bool {
	for _, p := range m.snapshot() {
		if !p.Active() {
			continue
		}
		return p.ShowTaxesOnStorefront()
	}
	return true
}

// snapshot returns the plugins in registration order under the read lock.
func (m *Manager) snapshot() []TaxPlugin {
	m.mu.RLock()
	defer m.mu.RUnlock()

	plugins := make([]TaxPlugin, 0, len(m.order))
	for _, id := range m.order {
		plugins = append(plugins, m.plugins[id])
	}
	return plugins
}
