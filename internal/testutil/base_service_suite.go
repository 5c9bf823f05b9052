package testutil

import (
	"context"

	"github.com/flexprice/usagebilling/internal/cache"
	"github.com/flexprice/usagebilling/internal/config"
	"github.com/flexprice/usagebilling/internal/logger"
	"github.com/flexprice/usagebilling/internal/repository"
	"github.com/flexprice/usagebilling/internal/repository/memory"
	"github.com/flexprice/usagebilling/internal/validator"
	"github.com/stretchr/testify/suite"
)

// Stores holds the in-memory repositories used by service tests
type Stores struct {
	CatalogStore    *memory.CatalogStore
	CatalogRepo     *repository.CachedCatalogRepository
	RawUsageRepo    *memory.RawUsageStore
	InvoiceItemRepo *memory.InvoiceItemStore
}

// BaseServiceTestSuite provides common functionality for all service test suites
type BaseServiceTestSuite struct {
	suite.Suite
	ctx    context.Context
	stores Stores
	cache  cache.Cache
	logger *logger.Logger
	config *config.Configuration
}

func (s *BaseServiceTestSuite) SetupSuite() {
	validator.NewValidator()

	s.config = config.GetDefaultConfig()
	s.logger = logger.NewNopLogger()
}

func (s *BaseServiceTestSuite) SetupTest() {
	s.ctx = SetupContext()
	s.setupStores()
}

func (s *BaseServiceTestSuite) TearDownTest() {
	s.clearStores()
}

func (s *BaseServiceTestSuite) setupStores() {
	s.cache = cache.NewInMemoryCache(s.config)
	catalogStore := memory.NewCatalogStore()
	s.stores = Stores{
		CatalogStore:    catalogStore,
		CatalogRepo:     repository.NewCachedCatalogRepository(catalogStore, s.cache, s.config.Cache.TTL, s.logger),
		RawUsageRepo:    memory.NewRawUsageStore(),
		InvoiceItemRepo: memory.NewInvoiceItemStore(),
	}
}

func (s *BaseServiceTestSuite) clearStores() {
	s.stores.RawUsageRepo.Clear()
	s.stores.InvoiceItemRepo.Clear()
	s.cache.Flush(s.ctx)
}

func (s *BaseServiceTestSuite) ClearStores() {
	s.clearStores()
}

func (s *BaseServiceTestSuite) GetContext() context.Context {
	return s.ctx
}

func (s *BaseServiceTestSuite) GetConfig() *config.Configuration {
	return s.config
}

func (s *BaseServiceTestSuite) GetStores() Stores {
	return s.stores
}

func (s *BaseServiceTestSuite) GetCache() cache.Cache {
	return s.cache
}

func (s *BaseServiceTestSuite) GetLogger() *logger.Logger {
	return s.logger
}
