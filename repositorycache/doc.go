// Package repositorycache decorates specification-driven repositories
// with read-through caching.
//
// # Composition
//
// CachedRepository wraps any repository.Repository implementation and
// adds a cache consult before every read. The decorator owns no
// persistence logic; a cache miss delegates to the wrapped base and
// populates the cache with whatever the base returned. Writes pass
// through untouched, because writes are staged and the cache is only
// invalidated when the unit of work commits.
//
// # Key namespaces
//
// Every decorator derives its namespace from the entity type name
// (Product becomes "product"), and every key it writes starts with
// that namespace plus the "::" separator. Specification-driven reads
// get content-addressed keys built from the canonical criteria hash;
// well-known lookups such as GetByID use explicit static keys. Both
// schemes live under the same prefix, so InvalidateCache clears them
// with one sweep.
//
// # Fault policy
//
// The cache is an optimization, never a source of truth. Any cache
// read or write failure is logged and the call falls back to the base
// repository. Empty lists, nil entities and zero counts are never
// cached, so a freshly committed entity is visible on the next read
// even before any invalidation runs.
package repositorycache
