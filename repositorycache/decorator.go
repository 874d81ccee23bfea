package repositorycache

import (
	"context"
	"reflect"
	"strconv"
	"strings"

	"github.com/puzpuzpuz/xsync/v3"
	"go.uber.org/zap"

	"github.com/shopfabrik/catalog/cache"
	"github.com/shopfabrik/catalog/product"
	"github.com/shopfabrik/catalog/repository"
	"github.com/shopfabrik/catalog/specification"
)

// Method segments for specification-driven keys.
const (
	methodGetBySpec = "get_by_spec"
	methodList      = "list"
	methodCount     = "count"
)

// CachedRepository decorates a base repository with read-through
// caching. Reads consult the cache first and populate it on a miss;
// cache faults are soft and fall back to the base repository. Empty
// results are never cached so newly committed entities become visible
// as soon as they exist. Writes pass straight through to the base
// repository's staging.
type CachedRepository[T any] struct {
	base     repository.Repository[T]
	cache    cache.CacheService
	keys     cache.KeySerializer
	entity   string
	registry *xsync.MapOf[string, struct{}]
	logger   *zap.Logger
}

// NewCachedRepository decorates base with caching. The entity
// namespace is derived from T's type name, so every T-typed decorator
// shares one invalidation scope and decorators over different entity
// types never collide.
func NewCachedRepository[T any](base repository.Repository[T], svc cache.CacheService, keys cache.KeySerializer, logger *zap.Logger) *CachedRepository[T] {
	if keys == nil {
		keys = cache.NewDefaultKeySerializer()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	entity := toSnake(reflect.TypeOf((*T)(nil)).Elem().Name())
	return &CachedRepository[T]{
		base:     base,
		cache:    svc,
		keys:     keys,
		entity:   entity,
		registry: xsync.NewMapOf[string, struct{}](),
		logger:   logger.Named("cache." + entity),
	}
}

// Entity returns the cache namespace this decorator owns.
func (r *CachedRepository[T]) Entity() string { return r.entity }

// GetBySpec returns the first entity matching the specification,
// consulting the cache first. A nil result is not cached.
func (r *CachedRepository[T]) GetBySpec(ctx context.Context, spec specification.Specification) (*T, error) {
	key := r.keys.SpecKey(r.entity, methodGetBySpec, spec)
	if v, ok := r.lookupOne(ctx, key); ok {
		return v, nil
	}

	v, err := r.base.GetBySpec(ctx, spec)
	if err != nil {
		return nil, err
	}
	if v != nil {
		r.storeOne(ctx, key, v)
	}
	return v, nil
}

// List returns all matching entities, consulting the cache first. An
// empty result is not cached.
func (r *CachedRepository[T]) List(ctx context.Context, spec specification.Specification) ([]*T, error) {
	key := r.keys.SpecKey(r.entity, methodList, spec)
	if vs, ok := r.lookupMany(ctx, key); ok {
		return vs, nil
	}

	vs, err := r.base.List(ctx, spec)
	if err != nil {
		return nil, err
	}
	if len(vs) > 0 {
		r.storeMany(ctx, key, vs)
	}
	return vs, nil
}

// Count returns the number of matching entities, consulting the cache
// first. A zero count is not cached.
func (r *CachedRepository[T]) Count(ctx context.Context, spec specification.Specification) (int, error) {
	key := r.keys.SpecKey(r.entity, methodCount, spec)
	if n, ok, err := cache.Get[int](ctx, r.cache, key); err != nil {
		r.faulted(key, err)
	} else if ok {
		r.hit(key)
		return n, nil
	} else {
		r.miss(key)
	}

	n, err := r.base.Count(ctx, spec)
	if err != nil {
		return 0, err
	}
	if n > 0 {
		if err := cache.Set(ctx, r.cache, key, n); err != nil {
			r.faulted(key, err)
		} else {
			r.registry.Store(key, struct{}{})
		}
	}
	return n, nil
}

// Add passes through to the base repository's staging.
func (r *CachedRepository[T]) Add(ctx context.Context, entity *T) error {
	return r.base.Add(ctx, entity)
}

// Update passes through to the base repository's staging.
func (r *CachedRepository[T]) Update(ctx context.Context, entity *T) error {
	return r.base.Update(ctx, entity)
}

// Delete passes through to the base repository's staging.
func (r *CachedRepository[T]) Delete(ctx context.Context, entity *T) error {
	return r.base.Delete(ctx, entity)
}

// InvalidateCache removes every cached entry in this decorator's
// entity namespace. The unit of work calls this after each commit.
func (r *CachedRepository[T]) InvalidateCache(ctx context.Context) error {
	prefix := r.keys.Prefix(r.entity)
	err := r.cache.DeleteByPrefix(ctx, prefix)
	r.registry.Range(func(key string, _ struct{}) bool {
		if strings.HasPrefix(key, prefix) {
			r.registry.Delete(key)
		}
		return true
	})
	if err != nil {
		r.logger.Warn("prefix invalidation failed", zap.String("prefix", prefix), zap.Error(err))
		return err
	}
	r.logger.Debug("invalidated namespace", zap.String("prefix", prefix))
	return nil
}

// InvalidateCachePattern removes cached entries whose key contains the
// given fragment, using the decorator's key registry. Useful for
// targeted sweeps, e.g. all list-shaped entries.
func (r *CachedRepository[T]) InvalidateCachePattern(ctx context.Context, pattern string) error {
	var stale []string
	r.registry.Range(func(key string, _ struct{}) bool {
		if strings.Contains(key, pattern) {
			stale = append(stale, key)
			r.registry.Delete(key)
		}
		return true
	})
	if len(stale) == 0 {
		return nil
	}
	if err := r.cache.InvalidateKeys(ctx, stale); err != nil {
		r.logger.Warn("pattern invalidation failed", zap.String("pattern", pattern), zap.Error(err))
		return err
	}
	return nil
}

// InvalidateCacheKey removes a single cached entry.
func (r *CachedRepository[T]) InvalidateCacheKey(ctx context.Context, key string) error {
	r.registry.Delete(key)
	return r.cache.Delete(ctx, key)
}

func (r *CachedRepository[T]) lookupOne(ctx context.Context, key string) (*T, bool) {
	v, ok, err := cache.Get[T](ctx, r.cache, key)
	if err != nil {
		r.faulted(key, err)
		return nil, false
	}
	if !ok {
		r.miss(key)
		return nil, false
	}
	r.hit(key)
	return &v, true
}

func (r *CachedRepository[T]) storeOne(ctx context.Context, key string, v *T) {
	if err := cache.Set(ctx, r.cache, key, *v); err != nil {
		r.faulted(key, err)
		return
	}
	r.registry.Store(key, struct{}{})
}

func (r *CachedRepository[T]) lookupMany(ctx context.Context, key string) ([]*T, bool) {
	vs, ok, err := cache.Get[[]*T](ctx, r.cache, key)
	if err != nil {
		r.faulted(key, err)
		return nil, false
	}
	if !ok || len(vs) == 0 {
		r.miss(key)
		return nil, false
	}
	r.hit(key)
	return vs, true
}

func (r *CachedRepository[T]) storeMany(ctx context.Context, key string, vs []*T) {
	if err := cache.Set(ctx, r.cache, key, vs); err != nil {
		r.faulted(key, err)
		return
	}
	r.registry.Store(key, struct{}{})
}

func (r *CachedRepository[T]) hit(key string) {
	r.logger.Debug("cache hit", zap.String("key", key))
}

func (r *CachedRepository[T]) miss(key string) {
	r.logger.Debug("cache miss", zap.String("key", key))
}

func (r *CachedRepository[T]) faulted(key string, err error) {
	r.logger.Warn("cache fault, falling back to repository",
		zap.String("key", key), zap.Error(err))
}

// CachedProductRepository adds cached variants of the product-specific
// lookups on top of the generic decorator. Well-known query shapes use
// explicit static keys inside the same product namespace, so one
// prefix sweep clears both schemes.
type CachedProductRepository struct {
	*CachedRepository[product.Product]
	base repository.ProductRepository
}

var (
	_ repository.ProductRepository = (*CachedProductRepository)(nil)
	_ repository.Invalidator       = (*CachedProductRepository)(nil)
)

// NewCachedProductRepository decorates the product repository.
func NewCachedProductRepository(base repository.ProductRepository, svc cache.CacheService, keys cache.KeySerializer, logger *zap.Logger) *CachedProductRepository {
	return &CachedProductRepository{
		CachedRepository: NewCachedRepository[product.Product](base, svc, keys, logger),
		base:             base,
	}
}

// GetAll returns every product through the cache.
func (r *CachedProductRepository) GetAll(ctx context.Context) ([]*product.Product, error) {
	key := r.keys.StaticKey(r.entity, "get_all")
	if vs, ok := r.lookupMany(ctx, key); ok {
		return vs, nil
	}
	vs, err := r.base.GetAll(ctx)
	if err != nil {
		return nil, err
	}
	if len(vs) > 0 {
		r.storeMany(ctx, key, vs)
	}
	return vs, nil
}

// GetByID returns the product with the given identity through the
// cache, or (nil, nil).
func (r *CachedProductRepository) GetByID(ctx context.Context, id int64) (*product.Product, error) {
	key := r.keys.StaticKey(r.entity, "id", strconv.FormatInt(id, 10))
	if v, ok := r.lookupOne(ctx, key); ok {
		return v, nil
	}
	v, err := r.base.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if v != nil {
		r.storeOne(ctx, key, v)
	}
	return v, nil
}

// GetByCategory returns all products in the category through the cache.
func (r *CachedProductRepository) GetByCategory(ctx context.Context, category string) ([]*product.Product, error) {
	key := r.keys.StaticKey(r.entity, "category", category)
	if vs, ok := r.lookupMany(ctx, key); ok {
		return vs, nil
	}
	vs, err := r.base.GetByCategory(ctx, category)
	if err != nil {
		return nil, err
	}
	if len(vs) > 0 {
		r.storeMany(ctx, key, vs)
	}
	return vs, nil
}

// GetByName returns the product with the exact name through the cache,
// or (nil, nil).
func (r *CachedProductRepository) GetByName(ctx context.Context, name string) (*product.Product, error) {
	key := r.keys.StaticKey(r.entity, "name", name)
	if v, ok := r.lookupOne(ctx, key); ok {
		return v, nil
	}
	v, err := r.base.GetByName(ctx, name)
	if err != nil {
		return nil, err
	}
	if v != nil {
		r.storeOne(ctx, key, v)
	}
	return v, nil
}

// Exists reports whether the product exists. It reuses the cached
// identity lookup rather than keeping a separate boolean entry.
func (r *CachedProductRepository) Exists(ctx context.Context, id int64) (bool, error) {
	v, err := r.GetByID(ctx, id)
	if err != nil {
		return false, err
	}
	return v != nil, nil
}
