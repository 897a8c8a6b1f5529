package plugin_test

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shopforge/taxbridge/internal/fixtures"
	"github.com/shopforge/taxbridge/pkg/domain"
	"github.com/shopforge/taxbridge/pkg/money"
	"github.com/shopforge/taxbridge/pkg/plugin"
)

// stubPlugin is a minimal TaxPlugin that overrides the checkout total
// with a fixed gross and records lifecycle calls.
type stubPlugin struct {
	cfg          plugin.Configuration
	gross        string
	validateErr  error
	preprocessed int
	created      int
}

func (s *stubPlugin) Identifier() string                      { return s.cfg.Identifier }
func (s *stubPlugin) Name() string                            { return s.cfg.Name }
func (s *stubPlugin) Active() bool                            { return s.cfg.Active }
func (s *stubPlugin) Configuration() plugin.Configuration     { return s.cfg }
func (s *stubPlugin) ValidateConfiguration(plugin.Configuration) error {
	return s.validateErr
}

func (s *stubPlugin) override(previous money.TaxedMoney) money.TaxedMoney {
	if !s.cfg.Active || s.gross == "" {
		return previous
	}
	taxed, err := money.NewTaxedMoney(
		previous.Net, money.MustFromString(s.gross, previous.Currency()))
	if err != nil {
		return previous
	}
	return taxed
}

func (s *stubPlugin) CalculateCheckoutTotal(
	_ context.Context, _ *domain.Checkout, _ *domain.SiteSettings,
	_ []domain.Discount, previous money.TaxedMoney,
) money.TaxedMoney {
	return s.override(previous)
}

func (s *stubPlugin) CalculateCheckoutSubtotal(
	_ context.Context, _ *domain.Checkout, _ *domain.SiteSettings,
	_ []domain.Discount, previous money.TaxedMoney,
) money.TaxedMoney {
	return s.override(previous)
}

func (s *stubPlugin) CalculateCheckoutShipping(
	_ context.Context, _ *domain.Checkout, _ *domain.SiteSettings,
	_ []domain.Discount, previous money.TaxedMoney,
) money.TaxedMoney {
	return s.override(previous)
}

func (s *stubPlugin) CalculateCheckoutLineTotal(
	_ context.Context, _ *domain.Checkout, _ domain.CheckoutLine,
	_ *domain.SiteSettings, _ []domain.Discount, previous money.TaxedMoney,
) money.TaxedMoney {
	return s.override(previous)
}

func (s *stubPlugin) CalculateOrderShipping(
	_ context.Context, _ *domain.Order, _ *domain.SiteSettings,
	previous money.TaxedMoney,
) money.TaxedMoney {
	return s.override(previous)
}

func (s *stubPlugin) CalculateOrderLineUnit(
	_ context.Context, _ *domain.Order, _ domain.OrderLine,
	_ *domain.SiteSettings, previous money.TaxedMoney,
) money.TaxedMoney {
	return s.override(previous)
}

func (s *stubPlugin) PreprocessOrderCreation(
	context.Context, *domain.Checkout, *domain.SiteSettings, []domain.Discount,
) error {
	s.preprocessed++
	return nil
}

func (s *stubPlugin) OrderCreated(
	context.Context, *domain.Order, *domain.SiteSettings,
) error {
	s.created++
	return nil
}

func (s *stubPlugin) GetTaxCodeFromObjectMeta(meta domain.ObjectMeta) domain.TaxType {
	return domain.TaxType{Code: meta.Get("stub.code", "")}
}

func (s *stubPlugin) AssignTaxCodeToObjectMeta(
	_ context.Context, meta *domain.ObjectMeta, code string,
) error {
	meta.Set("stub.code", code)
	return nil
}

func (s *stubPlugin) ShowTaxesOnStorefront() bool { return false }

var _ plugin.TaxPlugin = (*stubPlugin)(nil)

// stubFactory builds stubPlugins; each Create returns a fresh instance
// bound to the given configuration.
type stubFactory struct {
	id          string
	gross       string
	validateErr error
	last        *stubPlugin
}

func (f *stubFactory) Identifier() string { return f.id }
func (f *stubFactory) Name() string       { return "Stub" }
func (f *stubFactory) DefaultConfiguration() []plugin.ConfigItem {
	return []plugin.ConfigItem{{Name: "Api key", Value: ""}}
}

func (f *stubFactory) Create(cfg plugin.Configuration) (plugin.TaxPlugin, error) {
	f.last = &stubPlugin{cfg: cfg, gross: f.gross, validateErr: f.validateErr}
	return f.last, nil
}

var _ plugin.Factory = (*stubFactory)(nil)

func newTestManager(
	t *testing.T,
	repo plugin.ConfigRepository,
	factories ...plugin.Factory,
) *plugin.Manager {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	m := plugin.NewManager(repo, logger, factories...)
	require.NoError(t, m.Load(context.Background()))
	return m
}

func TestManagerLoad(t *testing.T) {
	t.Parallel()

	t.Run("persists defaults for unknown plugins", func(t *testing.T) {
		t.Parallel()
		repo := fixtures.NewMemoryConfigRepo()
		m := newTestManager(t, repo, &stubFactory{id: "stub.taxes"})

		p, err := m.GetPlugin("stub.taxes")
		require.NoError(t, err)
		assert.False(t, p.Active(), "plugins start inactive")

		stored, err := repo.GetByIdentifier(context.Background(), "stub.taxes")
		require.NoError(t, err)
		assert.Equal(t, "Stub", stored.Name)
		require.Len(t, stored.Items, 1)
		assert.Equal(t, "Api key", stored.Items[0].Name)
	})

	t.Run("uses the stored configuration when present", func(t *testing.T) {
		t.Parallel()
		repo := fixtures.NewMemoryConfigRepo()
		require.NoError(t, repo.Save(context.Background(), &plugin.Configuration{
			Identifier: "stub.taxes",
			Name:       "Stub",
			Active:     true,
			Items:      []plugin.ConfigItem{{Name: "Api key", Value: "secret"}},
		}))

		m := newTestManager(t, repo, &stubFactory{id: "stub.taxes"})
		p, err := m.GetPlugin("stub.taxes")
		require.NoError(t, err)
		assert.True(t, p.Active())
	})
}

func TestManagerGetPlugin(t *testing.T) {
	t.Parallel()

	m := newTestManager(t, fixtures.NewMemoryConfigRepo(),
		&stubFactory{id: "stub.taxes"})

	_, err := m.GetPlugin("does.not.exist")
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrPluginNotFound)
}

func TestManagerSavePluginConfiguration(t *testing.T) {
	t.Parallel()

	active := true

	t.Run("merges items and rebuilds the plugin", func(t *testing.T) {
		t.Parallel()
		repo := fixtures.NewMemoryConfigRepo()
		factory := &stubFactory{id: "stub.taxes"}
		m := newTestManager(t, repo, factory)

		cfg, err := m.SavePluginConfiguration(context.Background(), "stub.taxes",
			plugin.ConfigurationUpdate{
				Active: &active,
				Items:  []plugin.ConfigItem{{Name: "Api key", Value: "secret"}},
			})
		require.NoError(t, err)
		assert.True(t, cfg.Active)
		assert.Equal(t, "secret", cfg.String("Api key"))

		stored, err := repo.GetByIdentifier(context.Background(), "stub.taxes")
		require.NoError(t, err)
		assert.True(t, stored.Active)

		p, err := m.GetPlugin("stub.taxes")
		require.NoError(t, err)
		assert.True(t, p.Active(), "manager must serve the rebuilt plugin")
	})

	t.Run("validation failure saves nothing", func(t *testing.T) {
		t.Parallel()
		repo := fixtures.NewMemoryConfigRepo()
		factory := &stubFactory{
			id: "stub.taxes",
			validateErr: fmt.Errorf(
				"%w: cannot be enabled without credentials", domain.ErrValidation),
		}
		m := newTestManager(t, repo, factory)

		_, err := m.SavePluginConfiguration(context.Background(), "stub.taxes",
			plugin.ConfigurationUpdate{Active: &active})
		require.Error(t, err)
		assert.ErrorIs(t, err, domain.ErrValidation)

		stored, err := repo.GetByIdentifier(context.Background(), "stub.taxes")
		require.NoError(t, err)
		assert.False(t, stored.Active)
	})

	t.Run("unknown plugin", func(t *testing.T) {
		t.Parallel()
		m := newTestManager(t, fixtures.NewMemoryConfigRepo(),
			&stubFactory{id: "stub.taxes"})

		_, err := m.SavePluginConfiguration(context.Background(), "does.not.exist",
			plugin.ConfigurationUpdate{Active: &active})
		assert.ErrorIs(t, err, domain.ErrPluginNotFound)
	})
}

func TestManagerCheckoutCalculations(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	ch := fixtures.CheckoutWithItem()
	site := fixtures.SiteSettings(true)

	t.Run("base calculation without active plugins", func(t *testing.T) {
		t.Parallel()
		m := newTestManager(t, fixtures.NewMemoryConfigRepo(),
			&stubFactory{id: "stub.taxes", gross: "43.25"})

		total, err := m.CalculateCheckoutTotal(ctx, ch, site, nil)
		require.NoError(t, err)
		assert.True(t, total.Net.Equal(money.MustFromString("40.00", money.USD)))
		assert.True(t, total.Gross.Equal(total.Net), "no plugin means no taxes")
	})

	t.Run("active plugin overrides the base value", func(t *testing.T) {
		t.Parallel()
		repo := fixtures.NewMemoryConfigRepo()
		require.NoError(t, repo.Save(ctx, &plugin.Configuration{
			Identifier: "stub.taxes", Name: "Stub", Active: true,
		}))
		m := newTestManager(t, repo, &stubFactory{id: "stub.taxes", gross: "43.25"})

		total, err := m.CalculateCheckoutTotal(ctx, ch, site, nil)
		require.NoError(t, err)
		assert.True(t, total.Gross.Equal(money.MustFromString("43.25", money.USD)))

		subtotal, err := m.CalculateCheckoutSubtotal(ctx, ch, site, nil)
		require.NoError(t, err)
		assert.True(t, subtotal.Net.Equal(money.MustFromString("30.00", money.USD)))

		shipping, err := m.CalculateCheckoutShipping(ctx, ch, site, nil)
		require.NoError(t, err)
		assert.True(t, shipping.Net.Equal(money.MustFromString("10.00", money.USD)))

		lineTotal, err := m.CalculateCheckoutLineTotal(ctx, ch, ch.Lines[0], site, nil)
		require.NoError(t, err)
		assert.True(t, lineTotal.Net.Equal(money.MustFromString("30.00", money.USD)))
	})
}

func TestManagerOrderHooks(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	repo := fixtures.NewMemoryConfigRepo()
	require.NoError(t, repo.Save(ctx, &plugin.Configuration{
		Identifier: "stub.taxes", Name: "Stub", Active: true,
	}))
	factory := &stubFactory{id: "stub.taxes"}
	m := newTestManager(t, repo, factory)

	require.NoError(t, m.PreprocessOrderCreation(
		ctx, fixtures.CheckoutWithItem(), fixtures.SiteSettings(true), nil))
	assert.Equal(t, 1, factory.last.preprocessed)

	require.NoError(t, m.OrderCreated(
		ctx, fixtures.OrderWithLines(), fixtures.SiteSettings(true)))
	assert.Equal(t, 1, factory.last.created)
}

func TestManagerTaxCodes(t *testing.T) {
	t.Parallel()

	ctx := context.Background()

	t.Run("assign requires an active plugin", func(t *testing.T) {
		t.Parallel()
		m := newTestManager(t, fixtures.NewMemoryConfigRepo(),
			&stubFactory{id: "stub.taxes"})

		meta := domain.ObjectMeta{}
		err := m.AssignTaxCodeToObjectMeta(ctx, &meta, "P0000000")
		assert.ErrorIs(t, err, domain.ErrPluginNotFound)
	})

	t.Run("round trip through the active plugin", func(t *testing.T) {
		t.Parallel()
		repo := fixtures.NewMemoryConfigRepo()
		require.NoError(t, repo.Save(ctx, &plugin.Configuration{
			Identifier: "stub.taxes", Name: "Stub", Active: true,
		}))
		m := newTestManager(t, repo, &stubFactory{id: "stub.taxes"})

		meta := domain.ObjectMeta{}
		require.NoError(t, m.AssignTaxCodeToObjectMeta(ctx, &meta, "P0000000"))
		assert.Equal(t, "P0000000", m.GetTaxCodeFromObjectMeta(meta).Code)
	})
}

func TestManagerShowTaxesOnStorefront(t *testing.T) {
	t.Parallel()

	ctx := context.Background()

	t.Run("defaults to true without active plugins", func(t *testing.T) {
		t.Parallel()
		m := newTestManager(t, fixtures.NewMemoryConfigRepo(),
			&stubFactory{id: "stub.taxes"})
		assert.True(t, m.ShowTaxesOnStorefront())
	})

	t.Run("active plugin decides", func(t *testing.T) {
		t.Parallel()
		repo := fixtures.NewMemoryConfigRepo()
		require.NoError(t, repo.Save(ctx, &plugin.Configuration{
			Identifier: "stub.taxes", Name: "Stub", Active: true,
		}))
		m := newTestManager(t, repo, &stubFactory{id: "stub.taxes"})
		assert.False(t, m.ShowTaxesOnStorefront())
	})
}
