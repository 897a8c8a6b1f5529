package webapi

import (
	"github.com/gofiber/fiber/v2"

	"github.com/shopforge/taxbridge/pkg/plugin"
	"github.com/shopforge/taxbridge/pkg/plugin/avatax"
)

// secretFields are configuration fields whose values must never leave
// the server.
var secretFields = map[string]bool{
	avatax.FieldPassword: true,
}

// PluginRoutes sets up the plugin administration routes.
func PluginRoutes(app *fiber.App, manager *plugin.Manager) {
	pluginGroup := app.Group("/plugins")

	pluginGroup.Get("/", ListPlugins(manager))
	pluginGroup.Get("/:id", GetPlugin(manager))
	pluginGroup.Put("/:id", UpdatePlugin(manager))
}

// redactConfiguration masks secret fields before a configuration is
// serialized into a response.
func redactConfiguration(cfg plugin.Configuration) plugin.Configuration {
	items := make([]plugin.ConfigItem, len(cfg.Items))
	copy(items, cfg.Items)
	for i := range items {
		if !secretFields[items[i].Name] {
			continue
		}
		if s, ok := items[i].Value.(string); ok && s != "" {
			items[i].Value = "••••••••"
		}
	}
	cfg.Items = items
	return cfg
}

// ListPlugins returns every registered plugin configuration.
func ListPlugins(manager *plugin.Manager) fiber.Handler {
	return func(c *fiber.Ctx) error {
		configs := manager.ListConfigurations()
		redacted := make([]plugin.Configuration, len(configs))
		for i, cfg := range configs {
			redacted[i] = redactConfiguration(cfg)
		}

		return c.JSON(Response{
			Status:  fiber.StatusOK,
			Message: "Plugins fetched successfully",
			Data:    redacted,
		})
	}
}

// GetPlugin returns a single plugin configuration by identifier.
func GetPlugin(manager *plugin.Manager) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id := c.Params("id")
		p, err := manager.GetPlugin(id)
		if err != nil {
			return ErrorResponseJSON(c, ErrorToStatusCode(err),
				"Plugin not found", err.Error())
		}

		return c.JSON(Response{
			Status:  fiber.StatusOK,
			Message: "Plugin fetched successfully",
			Data:    redactConfiguration(p.Configuration()),
		})
	}
}

// UpdatePluginRequest is the partial-update body for a plugin
// configuration. Omitted fields are left unchanged.
type UpdatePluginRequest struct {
	Active        *bool               `json:"active,omitempty"`
	Configuration []plugin.ConfigItem `json:"configuration,omitempty"`
}

// UpdatePlugin applies a partial configuration update. The plugin
// validates the merged result before it is persisted; enabling a plugin
// without credentials is rejected.
func UpdatePlugin(manager *plugin.Manager) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id := c.Params("id")
		input, err := BindAndValidate[UpdatePluginRequest](c)
		if err != nil {
			return nil // Error already written by helper
		}

		cfg, err := manager.SavePluginConfiguration(c.Context(), id,
			plugin.ConfigurationUpdate{
				Active: input.Active,
				Items:  input.Configuration,
			})
		if err != nil {
			return ErrorResponseJSON(c, ErrorToStatusCode(err),
				"Failed to save plugin configuration", err.Error())
		}

		return c.JSON(Response{
			Status:  fiber.StatusOK,
			Message: "Plugin configuration saved successfully",
			Data:    redactConfiguration(*cfg),
		})
	}
}
