package fixtures

import (
	"context"
	"fmt"
	"sync"

	"github.com/shopforge/taxbridge/pkg/domain"
	"github.com/shopforge/taxbridge/pkg/plugin"
)

// MemoryConfigRepo is an in-memory plugin.ConfigRepository for tests.
type MemoryConfigRepo struct {
	mu      sync.RWMutex
	configs map[string]plugin.Configuration

	// SaveErr, when set, is returned by Save to simulate store failures.
	SaveErr error
}

// NewMemoryConfigRepo creates an empty in-memory repository.
func NewMemoryConfigRepo() *MemoryConfigRepo {
	return &MemoryConfigRepo{configs: make(map[string]plugin.Configuration)}
}

// GetByIdentifier returns the stored configuration or domain.ErrNotFound.
func (r *MemoryConfigRepo) GetByIdentifier(
	_ context.Context,
	identifier string,
) (*plugin.Configuration, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	cfg, ok := r.configs[identifier]
	if !ok {
		return nil, fmt.Errorf("%w: %s", domain.ErrNotFound, identifier)
	}
	copied := cfg
	return &copied, nil
}

// Save stores the configuration, keyed by identifier.
func (r *MemoryConfigRepo) Save(_ context.Context, cfg *plugin.Configuration) error {
	if r.SaveErr != nil {
		return r.SaveErr
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	r.configs[cfg.Identifier] = *cfg
	return nil
}

// List returns every stored configuration.
func (r *MemoryConfigRepo) List(_ context.Context) ([]*plugin.Configuration, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	configs := make([]*plugin.Configuration, 0, len(r.configs))
	for _, cfg := range r.configs {
		copied := cfg
		configs = append(configs, &copied)
	}
	return configs, nil
}

// Ensure MemoryConfigRepo implements plugin.ConfigRepository
var _ plugin.ConfigRepository = (*MemoryConfigRepo)(nil)
