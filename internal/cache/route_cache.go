package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/zaplinker/backend/internal/logger"
	"github.com/zaplinker/backend/internal/metrics"
	"github.com/zaplinker/backend/internal/models"
	"github.com/zaplinker/backend/internal/repository"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"
)

// Route is the redirect-time snapshot of a workspace: its settings and active numbers.
// Counters inside Workspace are not kept fresh and must not be read from a Route.
type Route struct {
	Workspace models.Workspace        `json:"workspace"`
	Numbers   []models.WhatsappNumber `json:"numbers"`
}

// RouteLoader reads a route from the system of record.
type RouteLoader func(ctx context.Context, customURL string) (*Route, error)

// LoadFromRepositories builds a RouteLoader over the workspace and number repositories.
func LoadFromRepositories(workspaces repository.WorkspaceRepository, numbers repository.NumberRepository) RouteLoader {
	return func(ctx context.Context, customURL string) (*Route, error) {
		ws, err := workspaces.GetByCustomURL(ctx, customURL)
		if err != nil {
			return nil, err
		}
		active, err := numbers.ListActive(ctx, ws.ID)
		if err != nil {
			return nil, err
		}
		return &Route{Workspace: *ws, Numbers: active}, nil
	}
}

// RouteCache is a cache-aside layer in front of RouteLoader.
// Without Redis every lookup goes to the loader; concurrent misses share one load.
// A load that overlaps an Invalidate is returned to its callers but never stored.
type RouteCache struct {
	redis *RedisClient
	ttl   time.Duration
	load  RouteLoader
	group singleflight.Group

	// gen counts invalidations. Stores hold the read lock, Invalidate bumps under the write lock.
	genMu sync.RWMutex
	gen   uint64
}

// NewRouteCache creates a route cache. rc may be nil.
func NewRouteCache(rc *RedisClient, ttl time.Duration, load RouteLoader) *RouteCache {
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}
	return &RouteCache{redis: rc, ttl: ttl, load: load}
}

func routeKey(customURL string) string {
	return fmt.Sprintf("zl:route:%s", customURL)
}

// Get returns the route for customURL.
func (c *RouteCache) Get(ctx context.Context, customURL string) (*Route, error) {
	m := metrics.Get()

	if c.redis != nil {
		raw, err := c.redis.Get(ctx, routeKey(customURL))
		switch {
		case err == nil:
			var route Route
			if jsonErr := json.Unmarshal([]byte(raw), &route); jsonErr == nil {
				m.CacheHitsTotal.WithLabelValues("routes").Inc()
				return &route, nil
			}
			logger.Log.Warn("Discarding undecodable cached route", logger.WithCustomURL(customURL))
		case !IsMiss(err):
			logger.Log.Warn("Route cache read failed", logger.WithCustomURL(customURL), zap.Error(err))
		}
	}
	m.CacheMissesTotal.WithLabelValues("routes").Inc()

	v, err, _ := c.group.Do(customURL, func() (interface{}, error) {
		// Detached so one caller's cancellation does not fail the others.
		loadCtx := context.WithoutCancel(ctx)
		gen := c.generation()
		route, err := c.load(loadCtx, customURL)
		if err != nil {
			return nil, err
		}
		c.store(loadCtx, customURL, route, gen)
		return route, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(*Route), nil
}

func (c *RouteCache) generation() uint64 {
	c.genMu.RLock()
	defer c.genMu.RUnlock()
	return c.gen
}

// store writes route unless an Invalidate ran since gen was read.
func (c *RouteCache) store(ctx context.Context, customURL string, route *Route, gen uint64) {
	if c.redis == nil {
		return
	}
	raw, err := json.Marshal(route)
	if err != nil {
		return
	}

	c.genMu.RLock()
	defer c.genMu.RUnlock()
	if c.gen != gen {
		logger.Log.Debug("Skipping route cache write after invalidation", logger.WithCustomURL(customURL))
		return
	}
	if err := c.redis.SetEx(ctx, routeKey(customURL), raw, c.ttl); err != nil {
		logger.Log.Warn("Route cache write failed", logger.WithCustomURL(customURL), zap.Error(err))
	}
}

// Invalidate drops cached routes after a workspace or number write.
// Loads already in flight are detached so later lookups read the new state.
func (c *RouteCache) Invalidate(ctx context.Context, customURLs ...string) {
	if len(customURLs) == 0 {
		return
	}
	c.genMu.Lock()
	c.gen++
	c.genMu.Unlock()
	for _, u := range customURLs {
		c.group.Forget(u)
	}

	if c.redis == nil {
		return
	}
	keys := make([]string, 0, len(customURLs))
	for _, u := range customURLs {
		if u != "" {
			keys = append(keys, routeKey(u))
		}
	}
	if len(keys) == 0 {
		return
	}
	if err := c.redis.Del(ctx, keys...); err != nil {
		logger.Log.Warn("Route cache invalidation failed", zap.Strings("keys", keys), zap.Error(err))
	}
}
