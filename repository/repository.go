// Package repository defines the specification-driven repository and
// unit-of-work contracts the storage, memory and repositorycache
// packages implement. Reads are pure; writes are staged into a change
// tracker and only become durable on UnitOfWork.SaveChanges.
package repository

import (
	"context"

	"github.com/shopfabrik/catalog/product"
	"github.com/shopfabrik/catalog/specification"
)

// Repository is the generic specification-driven contract.
//
// GetBySpec returns the first match in specification order, or
// (nil, nil) when nothing matches; absence is not an error.
// Count honors the filter criteria but ignores paging.
// Add, Update and Delete stage mutations; nothing is written until the
// owning UnitOfWork commits.
type Repository[T any] interface {
	GetBySpec(ctx context.Context, spec specification.Specification) (*T, error)
	List(ctx context.Context, spec specification.Specification) ([]*T, error)
	Count(ctx context.Context, spec specification.Specification) (int, error)

	Add(ctx context.Context, entity *T) error
	Update(ctx context.Context, entity *T) error
	Delete(ctx context.Context, entity *T) error
}

// ProductRepository extends the generic contract with the well-known
// catalog query shapes. Cached implementations key these reads with
// explicit static keys instead of specification hashes.
type ProductRepository interface {
	Repository[product.Product]

	GetAll(ctx context.Context) ([]*product.Product, error)
	GetByID(ctx context.Context, id int64) (*product.Product, error)
	GetByCategory(ctx context.Context, category string) ([]*product.Product, error)
	GetByName(ctx context.Context, name string) (*product.Product, error)
	Exists(ctx context.Context, id int64) (bool, error)
}

// Invalidator is a cache scope that must be flushed after a commit.
// Cached repositories register themselves with the unit of work.
type Invalidator interface {
	InvalidateCache(ctx context.Context) error
}

// UnitOfWork is the transaction boundary. SaveChanges commits every
// staged change atomically, then runs the registered invalidators
// concurrently, then dispatches the domain events collected on the
// written aggregates. A commit failure aborts invalidation and
// dispatch; a dispatch failure propagates after the write and
// invalidation have already taken effect.
type UnitOfWork interface {
	SaveChanges(ctx context.Context) error
	RegisterInvalidator(inv Invalidator)
}
