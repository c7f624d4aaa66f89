package app

import (
	"context"
	"fmt"
	"strings"
	"time"

	gocache "github.com/patrickmn/go-cache"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/singleflight"
	"golang.org/x/text/cases"

	"product_registration_bot/internal/domain/catalog"
	"product_registration_bot/internal/domain/retry"
)

const catalogCacheKey = "catalog"

// CatalogService hands out the product list and store directory. Sessions take
// a snapshot at start and never see later refreshes.
type CatalogService struct {
	source catalog.Source
	cache  *gocache.Cache
	group  singleflight.Group
	logger *logrus.Entry
}

func NewCatalogService(source catalog.Source, ttl time.Duration, logger *logrus.Entry) *CatalogService {
	return &CatalogService{
		source: source,
		cache:  gocache.New(ttl, 2*ttl),
		logger: logger,
	}
}

// Load returns the cached catalog, fetching it when the cache is cold.
// Concurrent cold loads share one backend call.
func (s *CatalogService) Load(ctx context.Context) (*catalog.Catalog, error) {
	if v, ok := s.cache.Get(catalogCacheKey); ok {
		if c, ok := v.(*catalog.Catalog); ok {
			return c, nil
		}
	}
	return s.fetch(ctx)
}

// Refresh reloads the catalog regardless of the cache.
func (s *CatalogService) Refresh(ctx context.Context) error {
	_, err := s.fetch(ctx)
	return err
}

func (s *CatalogService) fetch(ctx context.Context) (*catalog.Catalog, error) {
	v, err, shared := s.group.Do(catalogCacheKey, func() (interface{}, error) {
		c, err := s.source.LoadCatalog(ctx, retry.NewContext(nil))
		if err != nil {
			return nil, err
		}
		s.cache.SetDefault(catalogCacheKey, c)
		return c, nil
	})
	if err != nil {
		s.logger.WithError(err).Error("Failed to load catalog")
		return nil, fmt.Errorf("failed to load catalog: %w", err)
	}
	c := v.(*catalog.Catalog)
	s.logger.WithFields(logrus.Fields{
		"products": len(c.Products),
		"stores":   len(c.Stores),
		"shared":   shared,
	}).Info("Catalog fetched")
	return c, nil
}

// SearchStores matches keyword against store name, alias, address and agency,
// ignoring case. An empty keyword matches nothing.
func SearchStores(c *catalog.Catalog, keyword string) []catalog.Store {
	if c == nil {
		return nil
	}
	fold := cases.Fold()
	keyword = fold.String(strings.TrimSpace(keyword))
	if keyword == "" {
		return nil
	}

	var matched []catalog.Store
	for _, store := range c.Stores {
		for _, field := range []string{store.Name, store.Alias, store.Addr, store.Agency} {
			if field != "" && strings.Contains(fold.String(field), keyword) {
				matched = append(matched, store)
				break
			}
		}
	}
	return matched
}
