package repository

import (
	"github.com/flexprice/usagebilling/internal/cache"
	"github.com/flexprice/usagebilling/internal/config"
	"github.com/flexprice/usagebilling/internal/domain/catalog"
	"github.com/flexprice/usagebilling/internal/domain/invoice"
	"github.com/flexprice/usagebilling/internal/domain/usage"
	"github.com/flexprice/usagebilling/internal/logger"
	"github.com/flexprice/usagebilling/internal/repository/memory"
)

type RepositoryType string

const (
	MemoryRepo RepositoryType = "memory"
)

func NewCatalogStore() *memory.CatalogStore {
	return memory.NewCatalogStore()
}

// NewCatalogRepository serves the catalog store through the lookup cache
func NewCatalogRepository(store *memory.CatalogStore, c cache.Cache, cfg *config.Configuration, logger *logger.Logger) catalog.Repository {
	return NewCachedCatalogRepository(store, c, cfg.Cache.TTL, logger)
}

func NewRawUsageRepository() usage.Repository {
	return memory.NewRawUsageStore()
}

func NewInvoiceItemRepository() invoice.Repository {
	return memory.NewInvoiceItemStore()
}
