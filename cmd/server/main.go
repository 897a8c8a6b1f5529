package main

import (
	"fmt"

	log "github.com/charmbracelet/log"

	"github.com/shopforge/taxbridge/infra/initializer"
	"github.com/shopforge/taxbridge/pkg/config"
	"github.com/shopforge/taxbridge/webapi"
)

func main() {
	if err := run(); err != nil {
		log.Fatal(err)
	}
}

func run() error {
	cfg, err := config.Load(".env")
	if err != nil {
		return fmt.Errorf("failed to load application configuration: %w", err)
	}

	deps, err := initializer.InitializeDependencies(cfg)
	if err != nil {
		return fmt.Errorf("failed to initialize dependencies: %w", err)
	}

	app := webapi.NewApp(deps.Manager)

	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	deps.Logger.Info("Starting server",
		"env", cfg.Env,
		"address", addr,
		"scheme", cfg.Server.Scheme,
	)

	return app.Listen(addr)
}
