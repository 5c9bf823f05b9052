package repository

import (
	"context"
	"time"

	"github.com/flexprice/usagebilling/internal/cache"
	"github.com/flexprice/usagebilling/internal/domain/catalog"
	"github.com/flexprice/usagebilling/internal/logger"
)

// CachedCatalogRepository caches phase usage lookups of a catalog repository
type CachedCatalogRepository struct {
	repo   catalog.Repository
	cache  cache.Cache
	ttl    time.Duration
	logger *logger.Logger
}

func NewCachedCatalogRepository(repo catalog.Repository, c cache.Cache, ttl time.Duration, log *logger.Logger) *CachedCatalogRepository {
	if log == nil {
		log = logger.L
	}
	return &CachedCatalogRepository{
		repo:   repo,
		cache:  c,
		ttl:    ttl,
		logger: log,
	}
}

func (r *CachedCatalogRepository) GetPhaseUsages(ctx context.Context, planName, phaseName string) ([]*catalog.Usage, error) {
	key := cache.GenerateKey(cache.PrefixCatalogPhaseUsages, planName, phaseName)
	if cached, found := r.cache.Get(ctx, key); found {
		if usages, ok := cached.([]*catalog.Usage); ok {
			return usages, nil
		}
	}

	usages, err := r.repo.GetPhaseUsages(ctx, planName, phaseName)
	if err != nil {
		return nil, err
	}

	r.cache.Set(ctx, key, usages, r.ttl)
	r.logger.WithContext(ctx).Debugw("cached catalog phase usages",
		"plan_name", planName,
		"phase_name", phaseName,
		"usages", len(usages))
	return usages, nil
}

// Invalidate drops every cached lookup, to be called after the catalog changes
func (r *CachedCatalogRepository) Invalidate(ctx context.Context) {
	r.cache.DeleteByPrefix(ctx, cache.PrefixCatalogPhaseUsages)
}
