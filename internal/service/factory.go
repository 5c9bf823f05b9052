package service

import (
	"github.com/flexprice/usagebilling/internal/config"
	"github.com/flexprice/usagebilling/internal/domain/catalog"
	"github.com/flexprice/usagebilling/internal/domain/invoice"
	"github.com/flexprice/usagebilling/internal/domain/usage"
	"github.com/flexprice/usagebilling/internal/logger"
)

// ServiceParams holds common dependencies for services
type ServiceParams struct {
	Logger *logger.Logger
	Config *config.Configuration

	// Repositories
	CatalogRepo     catalog.Repository
	RawUsageRepo    usage.Repository
	InvoiceItemRepo invoice.Repository
}

// Common service params
func NewServiceParams(
	logger *logger.Logger,
	config *config.Configuration,
	catalogRepo catalog.Repository,
	rawUsageRepo usage.Repository,
	invoiceItemRepo invoice.Repository,
) ServiceParams {
	return ServiceParams{
		Logger:          logger,
		Config:          config,
		CatalogRepo:     catalogRepo,
		RawUsageRepo:    rawUsageRepo,
		InvoiceItemRepo: invoiceItemRepo,
	}
}
