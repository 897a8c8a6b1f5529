// Package initializer wires configuration, storage, cache and the plugin
// manager into the dependency set the server runs on.
package initializer

import (
	"context"
	"fmt"
	"log/slog"

	"gorm.io/gorm"

	"github.com/shopforge/taxbridge/infra"
	infracache "github.com/shopforge/taxbridge/infra/cache"
	"github.com/shopforge/taxbridge/infra/repository/pluginconfig"
	"github.com/shopforge/taxbridge/pkg/cache"
	"github.com/shopforge/taxbridge/pkg/config"
	"github.com/shopforge/taxbridge/pkg/plugin"
	"github.com/shopforge/taxbridge/pkg/plugin/avatax"
)

// Deps holds the initialized application dependencies.
type Deps struct {
	Logger  *slog.Logger
	DB      *gorm.DB
	Cache   cache.Cache
	Manager *plugin.Manager
}

// InitializeDependencies builds every dependency from the configuration:
// logger, database (with migration), cache backend and the plugin
// manager loaded from its stored configuration.
func InitializeDependencies(cfg *config.App) (*Deps, error) {
	logger := setupLogger(cfg.Log)

	db, err := infra.NewDBConnection(cfg.DB, cfg.Env)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	if err := infra.Migrate(db); err != nil {
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}

	cacheBackend, err := infracache.New(cfg.Redis, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize cache: %w", err)
	}

	factory := &avatax.Factory{
		Cache:          cacheBackend,
		Logger:         logger,
		HTTPTimeout:    cfg.Avatax.HTTPTimeout,
		ResponseTTL:    cfg.Avatax.ResponseTTL,
		TaxCodesTTL:    cfg.Avatax.TaxCodesTTL,
		BaseURL:        cfg.Avatax.BaseURL,
		SandboxBaseURL: cfg.Avatax.SandboxBaseURL,
	}
	manager := plugin.NewManager(pluginconfig.New(db), logger, factory)
	if err := manager.Load(context.Background()); err != nil {
		return nil, fmt.Errorf("failed to load plugins: %w", err)
	}

	return &Deps{
		Logger:  logger,
		DB:      db,
		Cache:   cacheBackend,
		Manager: manager,
	}, nil
}
