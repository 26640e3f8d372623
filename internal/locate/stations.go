package locate

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/patrickmn/go-cache"
	"github.com/rubiojr/gasmap/internal/observability"
	"github.com/rubiojr/gasmap/pkg/api"
)

// StationQuerier runs the two station searches of the price monitor service.
// *api.PriceMonitorAPI implements it.
type StationQuerier interface {
	GasItemsByLatLon(ctx context.Context, lat, lon float64, radiusKm int, productIDs ...string) (*api.GasItemList, error)
	GasItemsByUAT(ctx context.Context, uatID string, productIDs ...string) (*api.GasItemList, error)
}

// CachedStations keeps station payloads in memory for a short while so that
// repeated searches of the same area do not hit the service again. Errors
// are never cached.
type CachedStations struct {
	inner   StationQuerier
	cache   *cache.Cache
	metrics *observability.Metrics
	log     *slog.Logger
}

// NewCachedStations wraps inner with a cache whose entries live for ttl.
func NewCachedStations(inner StationQuerier, ttl time.Duration, metrics *observability.Metrics, logger *slog.Logger) *CachedStations {
	return &CachedStations{
		inner:   inner,
		cache:   cache.New(ttl, 2*ttl),
		metrics: metrics,
		log:     logger,
	}
}

func (c *CachedStations) GasItemsByLatLon(ctx context.Context, lat, lon float64, radiusKm int, productIDs ...string) (*api.GasItemList, error) {
	key := fmt.Sprintf("latlon_%f_%f_%d_%s", lat, lon, radiusKm, strings.Join(productIDs, ","))
	return c.get(key, func() (*api.GasItemList, error) {
		return c.inner.GasItemsByLatLon(ctx, lat, lon, radiusKm, productIDs...)
	})
}

func (c *CachedStations) GasItemsByUAT(ctx context.Context, uatID string, productIDs ...string) (*api.GasItemList, error) {
	key := fmt.Sprintf("uat_%s_%s", uatID, strings.Join(productIDs, ","))
	return c.get(key, func() (*api.GasItemList, error) {
		return c.inner.GasItemsByUAT(ctx, uatID, productIDs...)
	})
}

// Flush drops every cached payload.
func (c *CachedStations) Flush() {
	c.cache.Flush()
}

func (c *CachedStations) get(key string, fetch func() (*api.GasItemList, error)) (*api.GasItemList, error) {
	if cached, found := c.cache.Get(key); found {
		c.log.Debug("Using cached data", "key", key)
		c.record("hit")
		return cached.(*api.GasItemList), nil
	}
	c.record("miss")

	list, err := fetch()
	if err != nil {
		return nil, err
	}

	c.cache.Set(key, list, cache.DefaultExpiration)
	return list, nil
}

func (c *CachedStations) record(result string) {
	if c.metrics != nil {
		c.metrics.StationCache.WithLabelValues(result).Inc()
	}
}
