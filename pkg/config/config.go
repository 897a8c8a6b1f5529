// Package config holds the application configuration, loaded from the
// environment with envconfig-style struct tags.
package config

import (
	"time"
)

type DB struct {
	Url string `envconfig:"URL"`
}

type Redis struct {
	URL          string        `envconfig:"URL"`
	KeyPrefix    string        `envconfig:"KEY_PREFIX" default:"taxbridge:"`
	PoolSize     int           `envconfig:"POOL_SIZE" default:"10"`
	DialTimeout  time.Duration `envconfig:"DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"READ_TIMEOUT" default:"3s"`
	WriteTimeout time.Duration `envconfig:"WRITE_TIMEOUT" default:"3s"`
}

// Avatax configures the external tax-calculation provider. The base URLs
// are overridable so tests and self-hosted gateways can point the plugin
// at a different endpoint.
type Avatax struct {
	BaseURL         string        `envconfig:"BASE_URL" default:"https://rest.avatax.com/api/v2/"`
	SandboxBaseURL  string        `envconfig:"SANDBOX_BASE_URL" default:"https://sandbox-rest.avatax.com/api/v2/"`
	HTTPTimeout     time.Duration `envconfig:"HTTP_TIMEOUT" default:"10s"`
	ResponseTTL     time.Duration `envconfig:"RESPONSE_TTL" default:"1h"`
	TaxCodesTTL     time.Duration `envconfig:"TAX_CODES_TTL" default:"24h"`
	CompanyName     string        `envconfig:"COMPANY_NAME" default:"DEFAULT"`
}

type Log struct {
	Level      int    `envconfig:"LEVEL" default:"0"`
	Format     string `envconfig:"FORMAT" default:"json"`
	TimeFormat string `envconfig:"TIME_FORMAT" default:"2006-01-02 15:04:05"`
	Prefix     string `envconfig:"PREFIX" default:"[taxbridge]"`
}

type Server struct {
	Scheme string `envconfig:"SCHEME" default:"http"`
	Host   string `envconfig:"HOST" default:"localhost"`
	Port   int    `envconfig:"PORT" default:"3000"`
}

type App struct {
	Env    string  `envconfig:"APP_ENV" default:"development"`
	Server *Server `envconfig:"SERVER"`
	Log    *Log    `envconfig:"LOG"`
	DB     *DB     `envconfig:"DATABASE"`
	Redis  *Redis  `envconfig:"REDIS"`
	Avatax *Avatax `envconfig:"AVATAX"`
}
