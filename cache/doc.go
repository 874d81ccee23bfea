// Package cache provides the caching port, key derivation, and typed
// entry codec for the cached repository layer.
//
// # Overview
//
// This package exports two main interfaces and their default implementations:
//
//   - CacheService: the distributed key-value port (get/set-with-TTL,
//     delete, prefix sweep) the repository decorator reads through
//   - KeySerializer: derives deterministic cache keys from entity type,
//     method name and query specification
//
// Entries are stored as msgpack bytes; the generic Get and Set helpers
// handle encoding so callers work with domain types.
//
// # Key Derivation Strategy
//
// Two key schemes coexist under one entity-type prefix:
//
//   - Specification keys: entity::method::crit:<xxhash of the canonical
//     criteria AST>::order:<field:dir>::page:<skip:take>. The hash is
//     content-addressed, so keys are stable across process restarts and
//     identical for commutative filter compositions.
//   - Static keys: entity::segment::... for well-known query shapes
//     such as entity::id::42 or entity::get_all.
//
// Because both schemes share the entity prefix, invalidating the
// prefix scope removes entries from both uniformly.
//
// # Basic Usage
//
//	serializer := cache.NewDefaultKeySerializer()
//	key := serializer.SpecKey("product", "list", spec)
//
//	products, hit, err := cache.Get[[]*product.Product](ctx, svc, key)
//	if err != nil || !hit {
//		// fall through to the base repository, then cache.Set
//	}
//
// Cache failures are soft: callers log them and serve the
// read from persistence. The cache is an optimization, never a
// dependency for correctness.
package cache
