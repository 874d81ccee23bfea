// Package di wires the catalog's components into a ready-to-use
// container: store, change tracker, unit of work, cache service,
// cached repository and application service, all sharing one logger
// and one configuration.
package di

import (
	"context"
	"fmt"

	"github.com/uptrace/bun"
	"go.uber.org/zap"

	"github.com/shopfabrik/catalog/cache"
	"github.com/shopfabrik/catalog/config"
	"github.com/shopfabrik/catalog/events"
	"github.com/shopfabrik/catalog/memory"
	"github.com/shopfabrik/catalog/repository"
	"github.com/shopfabrik/catalog/repositorycache"
	"github.com/shopfabrik/catalog/service"
	"github.com/shopfabrik/catalog/storage"
)

// Container holds the assembled object graph. Products is the cached
// repository; Base is the undecorated one for callers that must bypass
// the cache.
type Container struct {
	Config   *config.Config
	Logger   *zap.Logger
	Cache    cache.CacheService
	Bus      *events.Bus
	Tracker  *repository.ChangeTracker
	Base     repository.ProductRepository
	Products *repositorycache.CachedProductRepository
	UoW      repository.UnitOfWork
	Service  *service.ProductService

	db *bun.DB
}

// New assembles a container from the configuration. The cached
// repository is registered with the unit of work so every commit
// flushes the product namespace.
func New(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*Container, error) {
	if cfg == nil {
		loaded, err := config.Load()
		if err != nil {
			return nil, err
		}
		cfg = loaded
	}
	if logger == nil {
		built, err := cfg.NewLogger()
		if err != nil {
			return nil, err
		}
		logger = built
	}

	svc, err := cache.NewCacheService(cfg.CacheConfig())
	if err != nil {
		return nil, err
	}

	c := &Container{
		Config:  cfg,
		Logger:  logger,
		Cache:   svc,
		Bus:     events.NewBus(logger),
		Tracker: repository.NewChangeTracker(),
	}

	switch cfg.Storage {
	case "memory":
		store := memory.NewStore()
		c.Base = memory.NewProductRepository(store, c.Tracker, logger)
		c.UoW = memory.NewUnitOfWork(store, c.Tracker, c.Bus, logger)
	case "sqlite", "postgres":
		db, err := openDB(cfg)
		if err != nil {
			return nil, err
		}
		if err := storage.EnsureSchema(ctx, db); err != nil {
			db.Close()
			return nil, err
		}
		c.db = db
		c.Base = storage.NewProductRepository(db, c.Tracker, logger)
		c.UoW = storage.NewUnitOfWork(db, c.Tracker, c.Bus, logger)
	default:
		return nil, fmt.Errorf("unknown storage backend %q", cfg.Storage)
	}

	c.Products = repositorycache.NewCachedProductRepository(
		c.Base, c.Cache, cache.NewDefaultKeySerializer(), logger)
	c.UoW.RegisterInvalidator(c.Products)
	c.Service = service.NewProductService(c.Products, c.UoW, logger)
	return c, nil
}

// NewMemory assembles an in-memory container, bypassing environment
// configuration. Intended for tests and examples.
func NewMemory(logger *zap.Logger) (*Container, error) {
	cfg := &config.Config{
		Storage:                 "memory",
		CacheCapacity:           10000,
		CacheShards:             256,
		CacheTTL:                cache.DefaultConfig().TTL,
		CacheEvictionPercentage: 10,
		LogLevel:                "info",
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return New(context.Background(), cfg, logger)
}

// Close releases the container's resources.
func (c *Container) Close() error {
	if c.db != nil {
		return c.db.Close()
	}
	return nil
}

func openDB(cfg *config.Config) (*bun.DB, error) {
	if cfg.Storage == "postgres" {
		return storage.OpenPostgres(cfg.DSN)
	}
	return storage.OpenSQLite(cfg.DSN)
}
