// Package pluginconfig persists plugin configurations with GORM.
package pluginconfig

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/shopforge/taxbridge/infra/repository"
	"github.com/shopforge/taxbridge/pkg/plugin"
)

// PluginConfiguration is the database row for one plugin's stored
// configuration. Items are serialized as a JSON document so new fields
// never require a migration.
type PluginConfiguration struct {
	ID         uuid.UUID `gorm:"type:uuid;primaryKey"`
	Identifier string    `gorm:"uniqueIndex;not null"`
	Name       string    `gorm:"not null"`
	Active     bool      `gorm:"not null;default:false"`
	Items      []byte    `gorm:"type:jsonb"`
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

// TableName overrides the default GORM table name.
func (PluginConfiguration) TableName() string { return "plugin_configurations" }

// Repository implements plugin.ConfigRepository on a GORM connection.
type Repository struct {
	db *gorm.DB
}

// New creates a plugin configuration repository.
func New(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

func toDomain(row *PluginConfiguration) (*plugin.Configuration, error) {
	var items []plugin.ConfigItem
	if len(row.Items) > 0 {
		if err := json.Unmarshal(row.Items, &items); err != nil {
			return nil, fmt.Errorf(
				"corrupt configuration for %s: %w", row.Identifier, err)
		}
	}
	return &plugin.Configuration{
		Identifier: row.Identifier,
		Name:       row.Name,
		Active:     row.Active,
		Items:      items,
	}, nil
}

// GetByIdentifier returns the stored configuration for one plugin.
// Returns domain.ErrNotFound when no row exists yet.
func (r *Repository) GetByIdentifier(
	ctx context.Context,
	identifier string,
) (*plugin.Configuration, error) {
	var row PluginConfiguration
	err := r.db.WithContext(ctx).
		Where("identifier = ?", identifier).
		First(&row).Error
	if err != nil {
		return nil, repository.MapGormErrorToDomain(err)
	}
	return toDomain(&row)
}

// Save upserts the configuration, keyed by the plugin identifier.
func (r *Repository) Save(ctx context.Context, cfg *plugin.Configuration) error {
	items, err := json.Marshal(cfg.Items)
	if err != nil {
		return fmt.Errorf("failed to encode configuration items: %w", err)
	}
	row := PluginConfiguration{
		ID:         uuid.New(),
		Identifier: cfg.Identifier,
		Name:       cfg.Name,
		Active:     cfg.Active,
		Items:      items,
	}
	return repository.WrapError(func() error {
		return r.db.WithContext(ctx).
			Clauses(clause.OnConflict{
				Columns: []clause.Column{{Name: "identifier"}},
				DoUpdates: clause.AssignmentColumns(
					[]string{"name", "active", "items", "updated_at"}),
			}).
			Create(&row).Error
	})
}

// List returns every stored plugin configuration.
func (r *Repository) List(ctx context.Context) ([]*plugin.Configuration, error) {
	var rows []PluginConfiguration
	err := r.db.WithContext(ctx).Order("identifier").Find(&rows).Error
	if err != nil {
		return nil, repository.MapGormErrorToDomain(err)
	}
	configs := make([]*plugin.Configuration, 0, len(rows))
	for i := range rows {
		cfg, err := toDomain(&rows[i])
		if err != nil {
			return nil, err
		}
		configs = append(configs, cfg)
	}
	return configs, nil
}

// Ensure Repository implements plugin.ConfigRepository
var _ plugin.ConfigRepository = (*Repository)(nil)
