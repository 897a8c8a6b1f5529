// Package plugin defines the tax-plugin abstraction and the manager that
// chains plugins into the checkout and order pipelines.
package plugin

import (
	"context"

	"github.com/shopforge/taxbridge/pkg/domain"
	"github.com/shopforge/taxbridge/pkg/money"
)

// ConfigItem is a single named configuration field, the shape the admin
// API exposes and the store persists.
type ConfigItem struct {
	Name  string `json:"name"`
	Value any    `json:"value"`
}

// Configuration is the stored state of one plugin.
type Configuration struct {
	Identifier string       `json:"identifier"`
	Name       string       `json:"name"`
	Active     bool         `json:"active"`
	Items      []ConfigItem `json:"configuration"`
}

// Item returns the value stored under the given field name.
func (c *Configuration) Item(name string) (any, bool) {
	for _, item := range c.Items {
		if item.Name == name {
			return item.Value, true
		}
	}
	return nil, false
}

// String returns the named field as a string, empty when absent or not a
// string.
func (c *Configuration) String(name string) string {
	v, ok := c.Item(name)
	if !ok {
		return ""
	}
	s, _ := v.(string)
	return s
}

// Bool returns the named field as a bool, false when absent or not a bool.
func (c *Configuration) Bool(name string) bool {
	v, ok := c.Item(name)
	if !ok {
		return false
	}
	b, _ := v.(bool)
	return b
}

// MergeItems applies partial updates to a configuration item list. Items
// are matched by name; unknown names are appended.
func MergeItems(existing, updates []ConfigItem) []ConfigItem {
	merged := make([]ConfigItem, len(existing))
	copy(merged, existing)
	for _, update := range updates {
		found := false
		for i := range merged {
			if merged[i].Name == update.Name {
				merged[i].Value = update.Value
				found = true
				break
			}
		}
		if !found {
			merged = append(merged, update)
		}
	}
	return merged
}

// ConfigurationUpdate is a partial update applied through
// Manager.SavePluginConfiguration. Nil fields are left unchanged.
type ConfigurationUpdate struct {
	Active *bool        `json:"active,omitempty"`
	Items  []ConfigItem `json:"configuration,omitempty"`
}

// ConfigRepository persists plugin configurations. Implemented by the
// GORM store in infra/repository.
type ConfigRepository interface {
	GetByIdentifier(ctx context.Context, identifier string) (*Configuration, error)
	Save(ctx context.Context, cfg *Configuration) error
	List(ctx context.Context) ([]*Configuration, error)
}

// TaxPlugin overrides tax calculations for checkouts and orders. Every
// calculation receives the previous value in the chain and returns it
// unchanged when the plugin cannot (or should not) compute a better one.
type TaxPlugin interface {
	Identifier() string
	Name() string
	Active() bool
	Configuration() Configuration

	// ValidateConfiguration rejects configurations that must not be
	// saved, e.g. enabling the plugin without credentials.
	ValidateConfiguration(cfg Configuration) error

	CalculateCheckoutTotal(
		ctx context.Context,
		checkout *domain.Checkout,
		site *domain.SiteSettings,
		discounts []domain.Discount,
		previous money.TaxedMoney,
	) money.TaxedMoney
	CalculateCheckoutSubtotal(
		ctx context.Context,
		checkout *domain.Checkout,
		site *domain.SiteSettings,
		discounts []domain.Discount,
		previous money.TaxedMoney,
	) money.TaxedMoney
	CalculateCheckoutShipping(
		ctx context.Context,
		checkout *domain.Checkout,
		site *domain.SiteSettings,
		discounts []domain.Discount,
		previous money.TaxedMoney,
	) money.TaxedMoney
	CalculateCheckoutLineTotal(
		ctx context.Context,
		checkout *domain.Checkout,
		line domain.CheckoutLine,
		site *domain.SiteSettings,
		discounts []domain.Discount,
		previous money.TaxedMoney,
	) money.TaxedMoney
	CalculateOrderShipping(
		ctx context.Context,
		order *domain.Order,
		site *domain.SiteSettings,
		previous money.TaxedMoney,
	) money.TaxedMoney
	CalculateOrderLineUnit(
		ctx context.Context,
		order *domain.Order,
		line domain.OrderLine,
		site *domain.SiteSettings,
		previous money.TaxedMoney,
	) money.TaxedMoney

	// PreprocessOrderCreation runs a dry-run transaction before an order
	// is placed; it returns a *domain.TaxError when the tax service
	// rejects the checkout.
	PreprocessOrderCreation(
		ctx context.Context,
		checkout *domain.Checkout,
		site *domain.SiteSettings,
		discounts []domain.Discount,
	) error

	// OrderCreated submits the final transaction for a placed order.
	OrderCreated(
		ctx context.Context,
		order *domain.Order,
		site *domain.SiteSettings,
	) error

	GetTaxCodeFromObjectMeta(meta domain.ObjectMeta) domain.TaxType
	AssignTaxCodeToObjectMeta(
		ctx context.Context,
		meta *domain.ObjectMeta,
		code string,
	) error

	// ShowTaxesOnStorefront reports whether the storefront may display
	// tax amounts before checkout completion. External providers return
	// false because taxes are only known after an API round trip.
	ShowTaxesOnStorefront() bool
}

// Factory builds a TaxPlugin from a stored configuration. The manager
// rebuilds plugins whenever their configuration changes.
type Factory interface {
	Identifier() string
	Name() string
	DefaultConfiguration() []ConfigItem
	Create(cfg Configuration) (TaxPlugin, error)
}
