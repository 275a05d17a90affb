package region

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"streamcart/internal/models"
	"streamcart/internal/util"

	"go.uber.org/zap"
)

// Lookup fetches the full region list from the commerce backend.
type Lookup func(ctx context.Context) ([]models.Region, error)

// Cache memoizes country-code to region resolution with a fixed TTL.
// Entries are populated on first miss and refreshed lazily on access once
// the TTL has elapsed. The clock is injected so refresh behavior is
// testable without sleeping.
type Cache struct {
	mu        sync.Mutex
	lookup    Lookup
	ttl       time.Duration
	now       func() time.Time
	byCountry map[string]models.Region
	fetchedAt time.Time
	logger    *zap.Logger
}

// NewCache creates a region cache over the given lookup
func NewCache(lookup Lookup, ttl time.Duration, now func() time.Time) *Cache {
	if now == nil {
		now = time.Now
	}
	return &Cache{
		lookup: lookup,
		ttl:    ttl,
		now:    now,
		logger: util.GetLogger(),
	}
}

// Resolve maps a country code to its region, refreshing the cached region
// list when stale. A failed refresh with a warm cache serves stale data.
func (c *Cache) Resolve(ctx context.Context, countryCode string) (*models.Region, error) {
	countryCode = strings.ToLower(countryCode)

	c.mu.Lock()
	defer c.mu.Unlock()

	stale := c.byCountry == nil || c.now().Sub(c.fetchedAt) >= c.ttl
	if stale {
		if err := c.refreshLocked(ctx); err != nil {
			if c.byCountry == nil {
				util.RegionCacheHits.WithLabelValues("error").Inc()
				return nil, err
			}
			c.logger.Warn("Region refresh failed, serving stale entry", zap.Error(err))
		}
	}

	region, ok := c.byCountry[countryCode]
	if !ok {
		util.RegionCacheHits.WithLabelValues("unknown").Inc()
		return nil, fmt.Errorf("no region for country: %s", countryCode)
	}

	if stale {
		util.RegionCacheHits.WithLabelValues("refresh").Inc()
	} else {
		util.RegionCacheHits.WithLabelValues("hit").Inc()
	}
	return &region, nil
}

// Invalidate drops the cached region list; the next Resolve refetches.
func (c *Cache) Invalidate() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.byCountry = nil
	c.fetchedAt = time.Time{}
}

func (c *Cache) refreshLocked(ctx context.Context) error {
	regions, err := c.lookup(ctx)
	if err != nil {
		return err
	}

	byCountry := make(map[string]models.Region)
	for _, r := range regions {
		for _, country := range r.Countries {
			byCountry[strings.ToLower(country)] = r
		}
	}

	c.byCountry = byCountry
	c.fetchedAt = c.now()
	return nil
}
