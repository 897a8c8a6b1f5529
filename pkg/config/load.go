package config

import (
	"log/slog"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

// Load reads the application configuration from the environment,
// optionally loading a .env file first.
func Load(envFilePath ...string) (*App, error) {
	logger := slog.Default()

	var err error
	if len(envFilePath) > 0 && envFilePath[0] != "" {
		err = godotenv.Load(envFilePath[0])
	} else {
		err = godotenv.Load()
	}
	if err != nil {
		logger.Warn("No .env file found, using system environment variables")
	} else {
		logger.Info("Environment variables loaded from .env file")
	}

	var cfg App
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, err
	}

	logger.Info("App config loaded",
		"env", cfg.Env,
		"db", maskValue(cfg.DB.Url),
		"avatax_base_url", cfg.Avatax.BaseURL,
		"avatax_http_timeout", cfg.Avatax.HTTPTimeout,
		"avatax_response_ttl", cfg.Avatax.ResponseTTL,
		"avatax_tax_codes_ttl", cfg.Avatax.TaxCodesTTL,
	)
	return &cfg, nil
}

func maskValue(key string) string {
	if len(key) <= 6 {
		return "****"
	}
	return key[:2] + "****" + key[len(key)-4:]
}
