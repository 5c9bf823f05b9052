package memory

import (
	"context"
	"sync"

	"github.com/flexprice/usagebilling/internal/domain/catalog"
	ierr "github.com/flexprice/usagebilling/internal/errors"
)

// CatalogStore serves usage sections from a catalog held in memory
type CatalogStore struct {
	mu      sync.RWMutex
	catalog *catalog.Catalog
}

func NewCatalogStore() *CatalogStore {
	return &CatalogStore{catalog: &catalog.Catalog{}}
}

// Load replaces the catalog after validating it
func (s *CatalogStore) Load(c *catalog.Catalog) error {
	if c == nil {
		return ierr.NewError("catalog is required").
			Mark(ierr.ErrValidation)
	}
	if err := c.Validate(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.catalog = c
	return nil
}

func (s *CatalogStore) GetPhaseUsages(ctx context.Context, planName, phaseName string) ([]*catalog.Usage, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.catalog.PhaseUsages(planName, phaseName)
}
