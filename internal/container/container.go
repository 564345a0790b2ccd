// Package container holds the long-lived dependencies of the Zaplinker server
// and tears them down in reverse registration order.
package container

import (
	"context"
	"errors"
	"sync"

	"github.com/zaplinker/backend/internal/cache"
	"github.com/zaplinker/backend/internal/events"
	"github.com/zaplinker/backend/internal/jobs"
	"github.com/zaplinker/backend/internal/logger"
	"github.com/zaplinker/backend/internal/queue"
	"github.com/zaplinker/backend/internal/repository"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// Container holds all application dependencies and provides type-safe access.
type Container struct {
	// Core infrastructure
	db    *gorm.DB
	repos *repository.Repositories
	cache *cache.RedisClient

	// Background processing
	publisher events.Publisher
	queue     *queue.AnalyticsQueue
	scheduler *jobs.Scheduler

	// Lifecycle hooks
	cleanupFuncs []cleanupFunc
	mu           sync.RWMutex
}

type cleanupFunc struct {
	name string
	fn   func(context.Context) error
}

// New creates a new empty container.
func New() *Container {
	return &Container{}
}

// SetDB registers the database connection and builds the repositories over it
func (c *Container) SetDB(db *gorm.DB) *Container {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.db = db
	c.repos = repository.New(db)
	return c
}

// DB returns the database connection
func (c *Container) DB() *gorm.DB {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.db
}

// Repositories returns the repositories bound to DB
func (c *Container) Repositories() *repository.Repositories {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.repos
}

// SetCache registers the Redis client. nil means Redis is not configured.
func (c *Container) SetCache(client *cache.RedisClient) *Container {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.cache = client
	return c
}

// Cache returns the Redis client, nil without Redis
func (c *Container) Cache() *cache.RedisClient {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.cache
}

// SetPublisher registers the access event publisher
func (c *Container) SetPublisher(p events.Publisher) *Container {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.publisher = p
	return c
}

// Publisher returns the event publisher, a no-op one when none was set
func (c *Container) Publisher() events.Publisher {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.publisher == nil {
		return events.NoopPublisher{}
	}
	return c.publisher
}

// SetAnalyticsQueue registers the write-behind analytics queue
func (c *Container) SetAnalyticsQueue(q *queue.AnalyticsQueue) *Container {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.queue = q
	return c
}

// AnalyticsQueue returns the analytics queue
func (c *Container) AnalyticsQueue() *queue.AnalyticsQueue {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.queue
}

// SetScheduler registers the cron scheduler
func (c *Container) SetScheduler(s *jobs.Scheduler) *Container {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.scheduler = s
	return c
}

// Scheduler returns the cron scheduler
func (c *Container) Scheduler() *jobs.Scheduler {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.scheduler
}

// OnCleanup registers a function called by Cleanup. Functions run last-in first-out.
func (c *Container) OnCleanup(name string, fn func(context.Context) error) *Container {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.cleanupFuncs = append(c.cleanupFuncs, cleanupFunc{name: name, fn: fn})
	return c
}

// Cleanup runs every cleanup function, even after failures, and joins their errors
func (c *Container) Cleanup(ctx context.Context) error {
	c.mu.Lock()
	funcs := c.cleanupFuncs
	c.cleanupFuncs = nil
	c.mu.Unlock()

	var errs []error
	for i := len(funcs) - 1; i >= 0; i-- {
		if err := funcs[i].fn(ctx); err != nil {
			logger.Log.Warn("Cleanup step failed",
				zap.String("step", funcs[i].name),
				zap.Error(err),
			)
			errs = append(errs, NewCleanupError(funcs[i].name, err))
		}
	}
	return errors.Join(errs...)
}

// Validate checks that all required dependencies are set
func (c *Container) Validate() error {
	c.mu.RLock()
	defer c.mu.RUnlock()

	missingDeps := []string{}
	if c.db == nil {
		missingDeps = append(missingDeps, "database (DB)")
	}
	if c.queue == nil {
		missingDeps = append(missingDeps, "analytics queue")
	}
	if c.scheduler == nil {
		missingDeps = append(missingDeps, "scheduler")
	}

	if len(missingDeps) > 0 {
		return NewInitializationError("Missing required dependencies", missingDeps)
	}

	if c.cache == nil {
		logger.Log.Info("Redis not configured, route cache and rate limits stay in process")
	}
	return nil
}
