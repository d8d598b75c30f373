// Package container wires the feed services together so the server, the CLI
// and the seeder share one construction path.
package container

import (
	"context"
	"sync"
	"time"

	"github.com/goleaf/petssocnnetworkmobile-sub017/internal/cache"
	"github.com/goleaf/petssocnnetworkmobile-sub017/internal/config"
	"github.com/goleaf/petssocnnetworkmobile-sub017/internal/feed"
	"github.com/goleaf/petssocnnetworkmobile-sub017/internal/logger"
	"github.com/goleaf/petssocnnetworkmobile-sub017/internal/relevance"
	"github.com/goleaf/petssocnnetworkmobile-sub017/internal/repository"
	"github.com/goleaf/petssocnnetworkmobile-sub017/internal/social"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// relevanceLockKey names the Redis lease shared by every scheduler replica
const relevanceLockKey = "relevance:recompute:lock"

// Container holds the application's services
type Container struct {
	db    *gorm.DB
	cache *cache.RedisClient
	cfg   *config.Config

	posts  *repository.PostRepository
	users  *repository.UserRepository
	pets   *repository.PetRepository
	places *repository.PlaceRepository
	social *repository.SocialRepository

	viewers   feed.ViewerProvider
	assembler *feed.Assembler
	scheduler *relevance.Scheduler

	cleanupFuncs []func(context.Context) error
	mu           sync.RWMutex
}

// Build constructs every service from db, an optional Redis client and cfg
func Build(db *gorm.DB, rc *cache.RedisClient, cfg *config.Config) (*Container, error) {
	c := &Container{db: db, cache: rc, cfg: cfg}
	if err := c.Validate(); err != nil {
		return nil, err
	}

	c.posts = repository.NewPostRepository(db)
	c.users = repository.NewUserRepository(db)
	c.pets = repository.NewPetRepository(db)
	c.places = repository.NewPlaceRepository(db)
	c.social = repository.NewSocialRepository(db)

	provider := social.NewProvider(c.users, c.pets, c.social)
	c.viewers = provider
	if rc != nil && cfg.Feed.ViewerCacheTTL > 0 {
		c.viewers = social.NewCachedProvider(provider, rc, cfg.Feed.ViewerCacheTTL)
	}

	c.assembler = feed.NewAssembler(c.posts, c.users, c.places, c.pets, c.viewers, feed.Config{
		MaxCandidates:         cfg.Feed.MaxCandidates,
		LocalRadiusKm:         cfg.Feed.LocalRadiusKm,
		HighQualityMinScore:   cfg.Feed.HighQualityMinScore,
		HighAffinityThreshold: cfg.Feed.HighAffinityThreshold,
	})

	var opts []relevance.Option
	if rc != nil {
		ttl := cfg.Relevance.LockTTL
		if ttl <= 0 {
			ttl = cfg.Relevance.MaxRunDuration + time.Minute
		}
		opts = append(opts, relevance.WithLock(cache.NewLock(rc, relevanceLockKey, ttl)))
	}
	c.scheduler = relevance.NewScheduler(c.posts, c.users, relevance.Config{
		Interval:       cfg.Relevance.Interval,
		WindowDays:     cfg.Relevance.WindowDays,
		Workers:        cfg.Relevance.Workers,
		MaxRunDuration: cfg.Relevance.MaxRunDuration,
	}, opts...)

	return c, nil
}

// Validate reports missing required dependencies
func (c *Container) Validate() error {
	var missing []string
	if c.db == nil {
		missing = append(missing, "database")
	}
	if c.cfg == nil {
		missing = append(missing, "config")
	}
	if len(missing) > 0 {
		return &InitializationError{MissingDeps: missing}
	}
	return nil
}

func (c *Container) DB() *gorm.DB {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.db
}

// Cache returns the Redis client, or nil when caching is disabled
func (c *Container) Cache() *cache.RedisClient {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.cache
}

func (c *Container) Posts() *repository.PostRepository {
	return c.posts
}

func (c *Container) Users() *repository.UserRepository {
	return c.users
}

func (c *Container) Places() *repository.PlaceRepository {
	return c.places
}

func (c *Container) Viewers() feed.ViewerProvider {
	return c.viewers
}

func (c *Container) Assembler() *feed.Assembler {
	return c.assembler
}

func (c *Container) Scheduler() *relevance.Scheduler {
	return c.scheduler
}

// OnCleanup registers fn to run on Cleanup
func (c *Container) OnCleanup(fn func(context.Context) error) *Container {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.cleanupFuncs = append(c.cleanupFuncs, fn)
	return c
}

// Cleanup runs the registered cleanup functions in reverse order and
// returns the first error. Every function runs even if an earlier one fails.
func (c *Container) Cleanup(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	var first error
	for i := len(c.cleanupFuncs) - 1; i >= 0; i-- {
		if err := c.cleanupFuncs[i](ctx); err != nil {
			logger.Log.Error("Cleanup function failed", zap.Int("index", i), zap.Error(err))
			if first == nil {
				first = err
			}
		}
	}
	c.cleanupFuncs = nil

	return first
}
