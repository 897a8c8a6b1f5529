// Package avatax implements the Avalara AvaTax plugin: it builds
// transaction payloads from checkout and order snapshots, delegates tax
// calculation to the external REST API and caches its responses.
package avatax

import (
	"strings"

	"github.com/shopforge/taxbridge/pkg/plugin"
)

const (
	// PluginID is the identifier the plugin registers under.
	PluginID = "shopforge.taxes.avatax"
	// PluginName is the human-readable plugin name.
	PluginName = "Avatax"

	// MetaCodeKey and MetaDescriptionKey are the product metadata keys
	// the plugin stores assigned tax codes under.
	MetaCodeKey        = "avatax.code"
	MetaDescriptionKey = "avatax.description"
)

// Configuration field names, as shown by the admin API.
const (
	FieldUsername   = "Username or account"
	FieldPassword   = "Password or license"
	FieldSandbox    = "Use sandbox"
	FieldCompany    = "Company name"
	FieldAutocommit = "Autocommit"
)

const (
	defaultBaseURL        = "https://rest.avatax.com/api/v2/"
	defaultSandboxBaseURL = "https://sandbox-rest.avatax.com/api/v2/"
)

// Config carries the per-plugin settings read from the stored
// configuration, plus the endpoint overrides from the app config.
type Config struct {
	UsernameOrAccount string
	PasswordOrLicense string
	UseSandbox        bool
	CompanyName       string
	Autocommit        bool

	// Endpoint overrides; defaults apply when empty.
	BaseURL        string
	SandboxBaseURL string
}

// APIURL returns the REST base URL for the configured environment,
// always ending with a slash.
func (c Config) APIURL() string {
	url := c.BaseURL
	if c.UseSandbox {
		url = c.SandboxBaseURL
		if url == "" {
			url = defaultSandboxBaseURL
		}
	} else if url == "" {
		url = defaultBaseURL
	}
	if !strings.HasSuffix(url, "/") {
		url += "/"
	}
	return url
}

// Valid reports whether both credentials are present.
func (c Config) Valid() bool {
	return c.UsernameOrAccount != "" && c.PasswordOrLicense != ""
}

// DefaultConfiguration returns the initial configuration items for a
// freshly registered plugin.
func DefaultConfiguration() []plugin.ConfigItem {
	return []plugin.ConfigItem{
		{Name: FieldUsername, Value: ""},
		{Name: FieldPassword, Value: ""},
		{Name: FieldSandbox, Value: true},
		{Name: FieldCompany, Value: "DEFAULT"},
		{Name: FieldAutocommit, Value: false},
	}
}

// configFromStored extracts a Config from the stored configuration items.
func configFromStored(cfg plugin.Configuration) Config {
	company := cfg.String(FieldCompany)
	if company == "" {
		company = "DEFAULT"
	}
	return Config{
		UsernameOrAccount: cfg.String(FieldUsername),
		PasswordOrLicense: cfg.String(FieldPassword),
		UseSandbox:        cfg.Bool(FieldSandbox),
		CompanyName:       company,
		Autocommit:        cfg.Bool(FieldAutocommit),
	}
}
